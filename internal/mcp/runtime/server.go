package runtime

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/arkaft-labs/arkaft-mcp-google-adk/internal/core/config"
	"github.com/arkaft-labs/arkaft-mcp-google-adk/internal/core/ports"
	"github.com/arkaft-labs/arkaft-mcp-google-adk/internal/mcp/adapters"
	"github.com/arkaft-labs/arkaft-mcp-google-adk/internal/mcp/contracts"
	"github.com/arkaft-labs/arkaft-mcp-google-adk/internal/mcp/registry"
	"github.com/arkaft-labs/arkaft-mcp-google-adk/internal/mcp/tools/history"
	"github.com/arkaft-labs/arkaft-mcp-google-adk/internal/mcp/tools/knowledge"
	"github.com/arkaft-labs/arkaft-mcp-google-adk/internal/mcp/tools/review"
	"github.com/arkaft-labs/arkaft-mcp-google-adk/internal/mcp/tools/rules"
	"github.com/arkaft-labs/arkaft-mcp-google-adk/internal/mcp/transport"
	"github.com/arkaft-labs/arkaft-mcp-google-adk/internal/mcp/validate"
	"github.com/arkaft-labs/arkaft-mcp-google-adk/internal/shared/observability"
)

type Dependencies struct {
	Service ports.ReviewService
	Logger  *slog.Logger
}

type Server struct {
	cfg       config.MCP
	deps      Dependencies
	registry  *registry.Registry
	transport transport.Adapter
	adapter   *adapters.Adapter
	toolName  string

	mu      sync.Mutex
	running bool
}

func New(cfg *config.Config, deps Dependencies, reg *registry.Registry, adapter transport.Adapter) (*Server, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if deps.Service == nil {
		return nil, fmt.Errorf("review service dependency is required")
	}
	if adapter == nil {
		return nil, fmt.Errorf("transport is required")
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if reg == nil {
		reg = registry.New()
	}
	toolName := strings.TrimSpace(cfg.MCP.ToolName)
	if toolName == "" {
		toolName = contracts.ToolNameArkaft
	}

	return &Server{
		cfg:       cfg.MCP,
		deps:      deps,
		registry:  reg,
		transport: adapter,
		adapter:   adapters.NewAdapter(deps.Service),
		toolName:  toolName,
	}, nil
}

func (s *Server) Start(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		<-ctx.Done()
		return ctx.Err()
	}
	s.running = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
	}()

	if err := s.registerDefaultTool(); err != nil {
		return err
	}
	s.deps.Logger.Info("mcp runtime active", "transport", s.cfg.Transport, "tool", s.toolName)
	return s.transport.Start(ctx, s.handleToolCall)
}

func (s *Server) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return nil
	}
	return s.transport.Stop()
}

func (s *Server) Run(ctx context.Context) error {
	return s.Start(ctx)
}

func (s *Server) registerDefaultTool() error {
	if _, ok := s.registry.HandlerFor(s.toolName); ok {
		return nil
	}
	return s.registry.Register(s.toolName, s.dispatchOperation)
}

func (s *Server) handleToolCall(ctx context.Context, tool string, raw map[string]any) (any, error) {
	start := time.Now()
	operation := operationLabel(raw)

	out, err := s.callTool(ctx, tool, raw)

	code := "ok"
	if err != nil {
		toolErr := adapters.ToToolError(err)
		code = toolErr.Code
		err = toolErr
		s.deps.Logger.Debug("mcp tool call failed", "operation", operation, "code", code, "error", toolErr.Message)
	}
	observability.MCPRequestsTotal.WithLabelValues(operation, code).Inc()
	s.deps.Logger.Debug("mcp tool call", "operation", operation, "code", code, "duration", time.Since(start))
	return out, err
}

func (s *Server) callTool(ctx context.Context, tool string, raw map[string]any) (any, error) {
	if strings.TrimSpace(tool) == "" {
		return nil, contracts.ToolError{Code: contracts.ErrorInvalidArgument, Message: "tool is required"}
	}
	if !strings.EqualFold(strings.TrimSpace(tool), s.toolName) {
		return nil, contracts.ToolError{Code: contracts.ErrorInvalidArgument, Message: fmt.Sprintf("unsupported tool: %s", tool)}
	}

	handler, ok := s.registry.HandlerFor(s.toolName)
	if !ok {
		return nil, contracts.ToolError{Code: contracts.ErrorUnavailable, Message: "tool handler not registered"}
	}

	if timeout := s.cfg.RequestTimeout; timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	return handler(ctx, raw)
}

func (s *Server) dispatchOperation(ctx context.Context, raw map[string]any) (any, error) {
	operation, input, err := validate.ParseToolArgs(contracts.ToolNameArkaft, raw)
	if err != nil {
		return nil, err
	}

	maxItems := s.cfg.MaxResponseItems
	switch operation {
	case contracts.OperationReviewFile:
		out, err := review.HandleFile(ctx, s.adapter, input.(contracts.ReviewFileInput), maxItems)
		return wrapToolResult(operation, out, err)
	case contracts.OperationReviewValidate:
		out, err := review.HandleValidate(ctx, s.adapter, input.(contracts.ReviewValidateInput), maxItems)
		return wrapToolResult(operation, out, err)
	case contracts.OperationRulesList:
		out, err := rules.HandleList(ctx, s.adapter, input.(contracts.RulesListInput), maxItems)
		return wrapToolResult(operation, out, err)
	case contracts.OperationKnowledgePractice:
		out, err := knowledge.HandleBestPractices(ctx, s.adapter, input.(contracts.BestPracticesInput), maxItems)
		return wrapToolResult(operation, out, err)
	case contracts.OperationKnowledgeQuery:
		out, err := knowledge.HandleQuery(ctx, s.adapter, input.(contracts.KnowledgeQueryInput), maxItems)
		return wrapToolResult(operation, out, err)
	case contracts.OperationHistoryList:
		out, err := history.HandleList(ctx, s.adapter, input.(contracts.HistoryListInput), maxItems)
		return wrapToolResult(operation, out, err)
	default:
		return nil, contracts.ToolError{Code: contracts.ErrorInvalidArgument, Message: fmt.Sprintf("unsupported operation: %s", operation)}
	}
}

func wrapToolResult(operation contracts.OperationID, payload any, err error) (any, error) {
	if err != nil {
		return nil, err
	}
	return map[string]any{
		"version":   contracts.ContractVersion,
		"operation": operation,
		"result":    payload,
	}, nil
}

// operationLabel bounds metric cardinality to the known operations.
func operationLabel(raw map[string]any) string {
	op, _ := raw["operation"].(string)
	op = strings.ToLower(strings.TrimSpace(op))
	for _, known := range contracts.Operations() {
		if string(known) == op {
			return op
		}
	}
	return "unknown"
}
