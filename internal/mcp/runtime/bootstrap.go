package runtime

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/arkaft-labs/arkaft-mcp-google-adk/internal/core/config"
	"github.com/arkaft-labs/arkaft-mcp-google-adk/internal/mcp/registry"
	"github.com/arkaft-labs/arkaft-mcp-google-adk/internal/mcp/transport"
)

// Build wires a server over the transport named by cfg.MCP.Transport.
func Build(cfg *config.Config, deps Dependencies) (*Server, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	adapter, err := buildTransport(cfg, deps.Logger)
	if err != nil {
		return nil, err
	}
	return New(cfg, deps, registry.New(), adapter)
}

func buildTransport(cfg *config.Config, logger *slog.Logger) (transport.Adapter, error) {
	opts := transport.OptionsFromConfig(cfg.MCP)
	opts.Logger = logger

	name := strings.ToLower(strings.TrimSpace(cfg.MCP.Transport))
	switch name {
	case "", "stdio":
		return transport.NewStdio(opts, nil, nil)
	case "sse":
		addr := strings.TrimSpace(cfg.MCP.Address)
		if addr == "" {
			addr = config.Default().MCP.Address
		}
		return transport.NewSSE(addr, opts)
	default:
		return nil, fmt.Errorf("unsupported MCP transport: %s", name)
	}
}
