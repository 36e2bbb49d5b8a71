package transport

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/arkaft-labs/arkaft-mcp-google-adk/internal/core/config"
	"github.com/arkaft-labs/arkaft-mcp-google-adk/internal/mcp/adapters"
	"github.com/arkaft-labs/arkaft-mcp-google-adk/internal/mcp/contracts"
	"github.com/arkaft-labs/arkaft-mcp-google-adk/internal/mcp/schema"
	"github.com/arkaft-labs/arkaft-mcp-google-adk/internal/shared/version"
)

const protocolVersion = "2025-06-18"

// JSON-RPC error codes. rateLimitedCode sits in the implementation-defined
// server error range.
const (
	parseErrorCode     = -32700
	invalidRequestCode = -32600
	methodNotFoundCode = -32601
	rateLimitedCode    = -32005
)

// Handler serves one tool call.
type Handler func(ctx context.Context, tool string, raw map[string]any) (any, error)

type Adapter interface {
	Start(ctx context.Context, handler Handler) error
	Stop() error
}

// Options configures the protocol surface shared by every transport.
type Options struct {
	ServerName    string
	ServerVersion string
	ToolName      string
	// RateLimit is requests per second; zero or less disables limiting.
	RateLimit float64
	RateBurst int
	Logger    *slog.Logger
}

func OptionsFromConfig(cfg config.MCP) Options {
	return Options{
		ServerName:    cfg.ServerName,
		ServerVersion: cfg.ServerVersion,
		ToolName:      cfg.ToolName,
		RateLimit:     cfg.RateLimit,
		RateBurst:     cfg.RateBurst,
	}
}

func (o Options) withDefaults() Options {
	if strings.TrimSpace(o.ServerName) == "" {
		o.ServerName = config.DefaultServerName
	}
	if strings.TrimSpace(o.ServerVersion) == "" {
		o.ServerVersion = version.Version
	}
	if strings.TrimSpace(o.ToolName) == "" {
		o.ToolName = contracts.ToolNameArkaft
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	return o
}

type toolRequest struct {
	ID   any            `json:"id,omitempty"`
	Tool string         `json:"tool"`
	Args map[string]any `json:"args,omitempty"`
}

type toolResponse struct {
	ID     any                  `json:"id,omitempty"`
	OK     bool                 `json:"ok"`
	Result any                  `json:"result,omitempty"`
	Error  *contracts.ToolError `json:"error,omitempty"`
}

type rpcRequest struct {
	JSONRPC string         `json:"jsonrpc,omitempty"`
	ID      any            `json:"id,omitempty"`
	Method  string         `json:"method,omitempty"`
	Params  map[string]any `json:"params,omitempty"`
}

type rpcResponse struct {
	JSONRPC string    `json:"jsonrpc"`
	ID      any       `json:"id,omitempty"`
	Result  any       `json:"result,omitempty"`
	Error   *rpcError `json:"error,omitempty"`
}

type rpcError struct {
	Code    int            `json:"code"`
	Message string         `json:"message"`
	Data    map[string]any `json:"data,omitempty"`
}

// dispatcher answers MCP JSON-RPC methods and the plain {tool, args} form.
type dispatcher struct {
	opts  Options
	tools []map[string]any
}

func newDispatcher(opts Options) (*dispatcher, error) {
	opts = opts.withDefaults()
	defs, err := schema.BuildToolDefinitions(opts.ToolName)
	if err != nil {
		return nil, fmt.Errorf("build tool definitions: %w", err)
	}
	tools := make([]map[string]any, 0, len(defs))
	for _, def := range defs {
		tools = append(tools, map[string]any{
			"name":        def.Name,
			"description": def.Description,
			"inputSchema": def.InputSchema,
		})
	}
	return &dispatcher{opts: opts, tools: tools}, nil
}

// process returns the reply for one decoded message, or nil when the message
// is a notification.
func (d *dispatcher) process(ctx context.Context, handler Handler, raw map[string]any) any {
	method, _ := raw["method"].(string)
	jsonrpc, _ := raw["jsonrpc"].(string)
	if method == "" || jsonrpc == "" {
		return d.processLegacy(ctx, handler, raw)
	}

	req := rpcRequest{JSONRPC: jsonrpc, Method: method, Params: map[string]any{}}
	if id, ok := raw["id"]; ok {
		req.ID = id
	}
	if params, ok := raw["params"].(map[string]any); ok {
		req.Params = params
	}
	if strings.HasPrefix(req.Method, "notifications/") {
		return nil
	}

	resp := rpcResponse{JSONRPC: "2.0", ID: req.ID}
	switch req.Method {
	case "initialize":
		resp.Result = map[string]any{
			"protocolVersion": protocolVersion,
			"capabilities": map[string]any{
				"tools": map[string]any{},
			},
			"serverInfo": map[string]any{
				"name":    d.opts.ServerName,
				"version": d.opts.ServerVersion,
			},
		}
	case "ping":
		resp.Result = map[string]any{}
	case "tools/list":
		resp.Result = map[string]any{"tools": d.tools}
	case "tools/call":
		name, _ := req.Params["name"].(string)
		args, _ := req.Params["arguments"].(map[string]any)
		if args == nil {
			args = map[string]any{}
		}
		resp.Result = callResult(handler(ctx, name, args))
	default:
		resp.Error = &rpcError{Code: methodNotFoundCode, Message: "Method not found"}
	}
	return resp
}

func (d *dispatcher) processLegacy(ctx context.Context, handler Handler, raw map[string]any) any {
	req := parseLegacyToolRequest(raw)
	if req.Tool == "" {
		return rpcResponse{
			JSONRPC: "2.0",
			ID:      req.ID,
			Error:   &rpcError{Code: invalidRequestCode, Message: "Invalid Request"},
		}
	}
	if req.Args == nil {
		req.Args = map[string]any{}
	}

	result, err := handler(ctx, req.Tool, req.Args)
	resp := toolResponse{ID: req.ID}
	if err != nil {
		toolErr := adapters.ToToolError(err)
		resp.Error = &toolErr
		return resp
	}
	resp.OK = true
	resp.Result = result
	return resp
}

func parseLegacyToolRequest(raw map[string]any) toolRequest {
	req := toolRequest{}
	if id, ok := raw["id"]; ok {
		req.ID = id
	}
	if tool, ok := raw["tool"].(string); ok {
		req.Tool = tool
	}
	if args, ok := raw["args"].(map[string]any); ok {
		req.Args = args
	}
	return req
}

func callResult(result any, err error) map[string]any {
	if err != nil {
		toolErr := adapters.ToToolError(err)
		out := map[string]any{
			"isError": true,
			"content": []map[string]any{
				{
					"type": "text",
					"text": fmt.Sprintf("%s: %s", toolErr.Code, toolErr.Message),
				},
			},
		}
		if len(toolErr.Details) > 0 {
			out["structuredContent"] = toolErr
		}
		return out
	}
	return map[string]any{
		"isError":           false,
		"structuredContent": result,
		"content": []map[string]any{
			{
				"type": "text",
				"text": mustJSONText(result),
			},
		},
	}
}

func rateLimitedResponse(raw map[string]any) rpcResponse {
	id := raw["id"]
	return rpcResponse{
		JSONRPC: "2.0",
		ID:      id,
		Error:   &rpcError{Code: rateLimitedCode, Message: "Rate limit exceeded"},
	}
}

func mustJSONText(v any) string {
	if v == nil {
		return "null"
	}
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(b)
}

func isContextDone(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
