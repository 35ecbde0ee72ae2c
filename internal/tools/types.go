package tools

// ToolAnnotations describes the tool's behavior hints per MCP spec.
type ToolAnnotations struct {
	ReadOnlyHint    *bool `json:"readOnlyHint,omitempty"`
	DestructiveHint *bool `json:"destructiveHint,omitempty"`
	IdempotentHint  *bool `json:"idempotentHint,omitempty"`
	OpenWorldHint   *bool `json:"openWorldHint,omitempty"`
}

func boolPtr(v bool) *bool { return &v }

// AnnotateReadOnly marks listing tools: read-only against a known upstream.
var AnnotateReadOnly = &ToolAnnotations{
	ReadOnlyHint:  boolPtr(true),
	OpenWorldHint: boolPtr(false),
}

// AnnotateOpenWorld marks tools that fetch arbitrary caller-supplied URLs.
var AnnotateOpenWorld = &ToolAnnotations{
	ReadOnlyHint:  boolPtr(true),
	OpenWorldHint: boolPtr(true),
}

// Tool represents an MCP tool definition.
type Tool struct {
	Name        string           `json:"name"`
	Description string           `json:"description"`
	InputSchema InputSchema      `json:"inputSchema"`
	Annotations *ToolAnnotations `json:"annotations,omitempty"`
}

// InputSchema defines the input parameters for a tool.
type InputSchema struct {
	Type       string              `json:"type"`
	Properties map[string]Property `json:"properties"`
	Required   []string            `json:"required,omitempty"`
}

// Property defines a single property in the input schema.
type Property struct {
	Type        string    `json:"type"`
	Description string    `json:"description"`
	Enum        []string  `json:"enum,omitempty"`
	Items       *Property `json:"items,omitempty"`
}

// ToolCallResult represents the result of a tool call. StructuredContent
// carries the machine-readable envelope alongside the JSON text block.
type ToolCallResult struct {
	Content           []ContentBlock `json:"content"`
	StructuredContent any            `json:"structuredContent,omitempty"`
	IsError           bool           `json:"isError,omitempty"`
}

// ContentBlock represents a content block in the result.
type ContentBlock struct {
	Type string `json:"type"`
	Text string `json:"text"`
}
