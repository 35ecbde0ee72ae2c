package tools

import (
	"strings"
	"testing"
)

func schemaForTest() InputSchema {
	return InputSchema{
		Type: "object",
		Properties: map[string]Property{
			"repository": {Type: "string", Description: "Repository name"},
			"level":      {Type: "string", Enum: []string{"flagship", "lab", "incubator"}},
			"limit":      {Type: "number"},
			"enrich":     {Type: "boolean"},
		},
		Required: []string{"repository"},
	}
}

func TestValidateParams(t *testing.T) {
	tests := []struct {
		name    string
		params  map[string]any
		wantErr string
	}{
		{
			name:   "all valid",
			params: map[string]any{"repository": "zap", "level": "flagship", "limit": float64(5), "enrich": true},
		},
		{
			name:   "only required",
			params: map[string]any{"repository": "zap"},
		},
		{
			name:    "nil params",
			params:  nil,
			wantErr: "missing required",
		},
		{
			name:    "required missing",
			params:  map[string]any{"limit": float64(5)},
			wantErr: "missing required",
		},
		{
			name:    "required empty string",
			params:  map[string]any{"repository": ""},
			wantErr: "missing required",
		},
		{
			name:    "required nil",
			params:  map[string]any{"repository": nil},
			wantErr: "missing required",
		},
		{
			name:    "wrong string type",
			params:  map[string]any{"repository": float64(7)},
			wantErr: "expected string",
		},
		{
			name:    "wrong number type",
			params:  map[string]any{"repository": "zap", "limit": "5"},
			wantErr: "expected number",
		},
		{
			name:    "wrong boolean type",
			params:  map[string]any{"repository": "zap", "enrich": "yes"},
			wantErr: "expected boolean",
		},
		{
			name:    "enum violation",
			params:  map[string]any{"repository": "zap", "level": "galactic"},
			wantErr: "not one of",
		},
		{
			name:   "undeclared params pass through",
			params: map[string]any{"repository": "zap", "debug": true},
		},
		{
			name:   "declared nil optional ignored",
			params: map[string]any{"repository": "zap", "level": nil},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ValidateParams(schemaForTest(), tt.params)
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				if got == nil {
					t.Fatal("validated params should not be nil")
				}
				return
			}
			if err == nil {
				t.Fatalf("expected error containing %q", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q does not contain %q", err.Error(), tt.wantErr)
			}
		})
	}
}

func TestValidateParamsReportsAllMissing(t *testing.T) {
	schema := InputSchema{
		Type: "object",
		Properties: map[string]Property{
			"organization": {Type: "string"},
			"repository":   {Type: "string"},
		},
		Required: []string{"organization", "repository"},
	}

	_, err := ValidateParams(schema, map[string]any{})
	if err == nil {
		t.Fatal("expected error")
	}
	for _, name := range []string{"organization", "repository"} {
		if !strings.Contains(err.Error(), name) {
			t.Errorf("error %q does not mention %q", err.Error(), name)
		}
	}
}
