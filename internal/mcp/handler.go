package mcp

import (
	"context"
	"encoding/json"
	"time"

	"github.com/go-faster/errors"

	"nestbridge/server/internal/jsonrpc"
	"nestbridge/server/internal/middleware"
	"nestbridge/server/internal/observability"
	"nestbridge/server/internal/store"
	"nestbridge/server/internal/tools"
)

// Handler routes JSON-RPC methods to the tool dispatcher.
type Handler struct {
	dispatcher *tools.Dispatcher
	usage      *store.Store // nil when no database is configured
}

// NewHandler creates a Handler. usage may be nil.
func NewHandler(dispatcher *tools.Dispatcher, usage *store.Store) *Handler {
	return &Handler{
		dispatcher: dispatcher,
		usage:      usage,
	}
}

// ProcessRequest routes a JSON-RPC request to the appropriate handler.
// Called by the transport middleware.
func (h *Handler) ProcessRequest(ctx context.Context, req *jsonrpc.Request) (interface{}, *jsonrpc.Error) {
	switch req.Method {
	case "initialize":
		return h.handleInitialize(), nil
	case "initialized":
		return nil, nil
	case "tools/list":
		return &ToolsListResult{Tools: tools.Definitions()}, nil
	case "tools/call":
		return h.handleToolCall(ctx, req)
	default:
		return nil, &jsonrpc.Error{Code: MethodNotFound, Message: "Method not found"}
	}
}

func (h *Handler) handleInitialize() *InitializeResult {
	return &InitializeResult{
		ProtocolVersion: "2025-03-26",
		Capabilities: ServerCapabilities{
			Tools: &ToolsCapability{},
		},
		ServerInfo: ServerInfo{
			Name:    "nestbridge",
			Version: "0.1.0",
		},
	}
}

func (h *Handler) handleToolCall(ctx context.Context, req *jsonrpc.Request) (*ToolCallResult, *jsonrpc.Error) {
	paramsBytes, err := json.Marshal(req.Params)
	if err != nil {
		return nil, &jsonrpc.Error{Code: InvalidParams, Message: "Invalid params"}
	}

	var params ToolCallParams
	if err := json.Unmarshal(paramsBytes, &params); err != nil {
		return nil, &jsonrpc.Error{Code: InvalidParams, Message: "Invalid params structure"}
	}
	if params.Name == "" {
		return nil, &jsonrpc.Error{Code: InvalidParams, Message: "name is required"}
	}

	start := time.Now()
	requestID := middleware.GetRequestID(ctx)
	caller := middleware.GetCallerID(ctx)

	result, callErr := h.dispatcher.Call(ctx, params.Name, params.Arguments)
	durationMs := time.Since(start).Milliseconds()

	if callErr != nil {
		observability.LogToolCall(requestID, caller, params.Name, durationMs, "error", callErr.Error())
		if errors.Is(callErr, tools.ErrUnknownTool) {
			return nil, &jsonrpc.Error{Code: MethodNotFound, Message: callErr.Error()}
		}
		// Everything else the dispatcher rejects is a pre-flight argument
		// problem; upstream failures are folded into the envelope instead.
		return nil, &jsonrpc.Error{Code: InvalidParams, Message: callErr.Error()}
	}

	observability.LogToolCall(requestID, caller, params.Name, durationMs, "success", "")

	// Record usage asynchronously (fire-and-forget)
	h.usage.RecordUsage(caller, params.Name, requestID, durationMs, params.Arguments)

	return result, nil
}
