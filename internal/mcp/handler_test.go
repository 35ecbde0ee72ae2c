package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/go-faster/jx"

	"nestbridge/server/internal/aggregate"
	"nestbridge/server/internal/enrich"
	"nestbridge/server/internal/jsonrpc"
	"nestbridge/server/internal/tools"
)

type fakeNest struct{}

func (fakeNest) FetchPage(_ context.Context, req aggregate.PageRequest) (*aggregate.Page, error) {
	page := &aggregate.Page{TotalCount: 500}
	for i := 0; i < req.PageSize; i++ {
		item, _ := json.Marshal(map[string]any{
			"name": fmt.Sprintf("item %d", i),
			"url":  fmt.Sprintf("https://example.org/%s/%d/%d", req.Resource, req.Page, i),
		})
		page.Items = append(page.Items, jx.Raw(item))
	}
	return page, nil
}

func newTestHandler() *Handler {
	dispatcher := tools.NewDispatcher(aggregate.New(fakeNest{}), enrich.NewClient(0))
	return NewHandler(dispatcher, nil)
}

func TestProcessRequestInitialize(t *testing.T) {
	h := newTestHandler()
	result, rpcErr := h.ProcessRequest(context.Background(), &jsonrpc.Request{JSONRPC: "2.0", Method: "initialize", ID: 1})
	if rpcErr != nil {
		t.Fatalf("unexpected error: %+v", rpcErr)
	}

	init, ok := result.(*InitializeResult)
	if !ok {
		t.Fatalf("result is %T", result)
	}
	if init.ProtocolVersion == "" {
		t.Error("protocol version missing")
	}
	if init.ServerInfo.Name != "nestbridge" {
		t.Errorf("server name = %q", init.ServerInfo.Name)
	}
	if init.Capabilities.Tools == nil {
		t.Error("tools capability missing")
	}
}

func TestProcessRequestInitialized(t *testing.T) {
	h := newTestHandler()
	result, rpcErr := h.ProcessRequest(context.Background(), &jsonrpc.Request{JSONRPC: "2.0", Method: "initialized"})
	if rpcErr != nil {
		t.Fatalf("unexpected error: %+v", rpcErr)
	}
	if result != nil {
		t.Errorf("notification should produce no result, got %v", result)
	}
}

func TestProcessRequestToolsList(t *testing.T) {
	h := newTestHandler()
	result, rpcErr := h.ProcessRequest(context.Background(), &jsonrpc.Request{JSONRPC: "2.0", Method: "tools/list", ID: 2})
	if rpcErr != nil {
		t.Fatalf("unexpected error: %+v", rpcErr)
	}

	list, ok := result.(*ToolsListResult)
	if !ok {
		t.Fatalf("result is %T", result)
	}
	if len(list.Tools) != 11 {
		t.Errorf("tools = %d, want 11", len(list.Tools))
	}
	names := make(map[string]bool)
	for _, tool := range list.Tools {
		names[tool.Name] = true
	}
	for _, want := range []string{"get_projects", "get_contributors", "get_milestones", "search_internet"} {
		if !names[want] {
			t.Errorf("tool %q not listed", want)
		}
	}
}

func TestProcessRequestToolCall(t *testing.T) {
	h := newTestHandler()
	req := &jsonrpc.Request{
		JSONRPC: "2.0",
		Method:  "tools/call",
		ID:      3,
		Params: map[string]any{
			"name":      "get_chapters",
			"arguments": map[string]any{"location": "London", "limit": float64(3)},
		},
	}

	result, rpcErr := h.ProcessRequest(context.Background(), req)
	if rpcErr != nil {
		t.Fatalf("unexpected error: %+v", rpcErr)
	}

	call, ok := result.(*ToolCallResult)
	if !ok {
		t.Fatalf("result is %T", result)
	}
	envelope, ok := call.StructuredContent.(*aggregate.Result)
	if !ok {
		t.Fatalf("structuredContent is %T", call.StructuredContent)
	}
	if envelope.Pagination.Returned != 3 {
		t.Errorf("returned = %d, want 3", envelope.Pagination.Returned)
	}
}

func TestProcessRequestToolCallErrors(t *testing.T) {
	tests := []struct {
		name     string
		params   any
		wantCode int
	}{
		{
			"unknown tool",
			map[string]any{"name": "get_widgets"},
			MethodNotFound,
		},
		{
			"missing name",
			map[string]any{"arguments": map[string]any{}},
			InvalidParams,
		},
		{
			"invalid arguments",
			map[string]any{"name": "get_projects", "arguments": map[string]any{"level": "galactic"}},
			InvalidParams,
		},
		{
			"missing required argument",
			map[string]any{"name": "get_milestones", "arguments": map[string]any{}},
			InvalidParams,
		},
		{
			"malformed params shape",
			map[string]any{"name": "get_projects", "arguments": "not an object"},
			InvalidParams,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newTestHandler()
			req := &jsonrpc.Request{JSONRPC: "2.0", Method: "tools/call", ID: 4, Params: tt.params}
			_, rpcErr := h.ProcessRequest(context.Background(), req)
			if rpcErr == nil {
				t.Fatal("expected RPC error")
			}
			if rpcErr.Code != tt.wantCode {
				t.Errorf("code = %d, want %d", rpcErr.Code, tt.wantCode)
			}
		})
	}
}

func TestProcessRequestUnknownMethod(t *testing.T) {
	h := newTestHandler()
	_, rpcErr := h.ProcessRequest(context.Background(), &jsonrpc.Request{JSONRPC: "2.0", Method: "resources/list", ID: 5})
	if rpcErr == nil {
		t.Fatal("expected RPC error")
	}
	if rpcErr.Code != MethodNotFound {
		t.Errorf("code = %d, want %d", rpcErr.Code, MethodNotFound)
	}
}
