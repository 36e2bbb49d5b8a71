package runtime

import (
	"testing"

	"github.com/arkaft-labs/arkaft-mcp-google-adk/internal/core/config"
	"github.com/arkaft-labs/arkaft-mcp-google-adk/internal/mcp/transport"
)

func TestBuildTransport(t *testing.T) {
	cfg := config.Default()

	adapter, err := buildTransport(&cfg, nil)
	if err != nil {
		t.Fatalf("stdio: %v", err)
	}
	if _, ok := adapter.(*transport.Stdio); !ok {
		t.Fatalf("expected stdio transport, got %T", adapter)
	}

	cfg.MCP.Transport = "sse"
	cfg.MCP.Address = ""
	adapter, err = buildTransport(&cfg, nil)
	if err != nil {
		t.Fatalf("sse: %v", err)
	}
	if _, ok := adapter.(*transport.SSE); !ok {
		t.Fatalf("expected sse transport, got %T", adapter)
	}
	if err := adapter.Stop(); err != nil {
		t.Fatalf("stop sse: %v", err)
	}

	cfg.MCP.Transport = "websocket"
	if _, err := buildTransport(&cfg, nil); err == nil {
		t.Fatal("expected error for unsupported transport")
	}
}

func TestBuild_RequiresService(t *testing.T) {
	cfg := config.Default()
	if _, err := Build(&cfg, Dependencies{}); err == nil {
		t.Fatal("expected error without review service")
	}
	if _, err := Build(nil, Dependencies{}); err == nil {
		t.Fatal("expected error without config")
	}
}
