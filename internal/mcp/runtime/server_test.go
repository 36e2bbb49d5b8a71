package runtime

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/arkaft-labs/arkaft-mcp-google-adk/internal/core/app"
	"github.com/arkaft-labs/arkaft-mcp-google-adk/internal/core/config"
	"github.com/arkaft-labs/arkaft-mcp-google-adk/internal/mcp/contracts"
	"github.com/arkaft-labs/arkaft-mcp-google-adk/internal/mcp/registry"
	"github.com/arkaft-labs/arkaft-mcp-google-adk/internal/mcp/transport"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testMCPApp(t *testing.T, mutate func(*config.Config)) (*config.Config, *app.App) {
	t.Helper()
	cfg := config.Default()
	if mutate != nil {
		mutate(&cfg)
	}
	a, err := app.New(&cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close(context.Background()) })
	return &cfg, a
}

func startMockServer(t *testing.T, cfg *config.Config, a *app.App) *transport.MockAdapter {
	t.Helper()
	mock := transport.NewMockAdapter()
	server, err := New(cfg, Dependencies{Service: a.Service()}, registry.New(), mock)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- server.Start(ctx) }()
	t.Cleanup(func() {
		cancel()
		if err := <-done; err != nil && !errors.Is(err, context.Canceled) {
			t.Errorf("server exited with error: %v", err)
		}
	})
	return mock
}

func callCtx(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)
	return ctx
}

func TestServer_ReviewFileEndToEnd(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "lib.rs")
	require.NoError(t, os.WriteFile(path, []byte("fn run() {\n    panic!(\"no\");\n}\n"), 0o644))

	cfg, a := testMCPApp(t, nil)
	mock := startMockServer(t, cfg, a)

	res, err := mock.CallJSON(callCtx(t), contracts.ToolNameArkaft, map[string]any{
		"operation": "review.file",
		"params":    map[string]any{"file_path": path},
	})
	require.NoError(t, err)

	wrapped, ok := res.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, contracts.OperationReviewFile, wrapped["operation"])
	assert.Equal(t, contracts.ContractVersion, wrapped["version"])

	out, ok := wrapped["result"].(contracts.ReviewOutput)
	require.True(t, ok)
	assert.Equal(t, 95, out.Score)
	require.Len(t, out.Findings, 1)
	assert.Equal(t, 2, out.Findings[0].Line)
}

func TestServer_ErrorCodes(t *testing.T) {
	cfg, a := testMCPApp(t, nil)
	mock := startMockServer(t, cfg, a)

	cases := []struct {
		name string
		tool string
		args map[string]any
		want string
	}{
		{
			name: "parse failure",
			tool: "arkaft",
			args: map[string]any{"operation": "review.file", "params": map[string]any{"file_path": "x.rs", "file_content": "fn main() {"}},
			want: contracts.ErrorInvalidSource,
		},
		{
			name: "empty source",
			tool: "arkaft",
			args: map[string]any{"operation": "review.file", "params": map[string]any{"file_path": "x.rs", "file_content": ""}},
			want: contracts.ErrorInvalidSource,
		},
		{
			name: "unknown category",
			tool: "arkaft",
			args: map[string]any{"operation": "review.validate", "params": map[string]any{"code": "fn main() {}", "category": "perf"}},
			want: contracts.ErrorInvalidArgument,
		},
		{
			name: "missing file",
			tool: "arkaft",
			args: map[string]any{"operation": "review.file", "params": map[string]any{"file_path": "/nonexistent/dir/x.rs"}},
			want: contracts.ErrorNotFound,
		},
		{
			name: "foreign tool",
			tool: "cargo-lint",
			args: map[string]any{"operation": "rules.list"},
			want: contracts.ErrorInvalidArgument,
		},
		{
			name: "history disabled",
			tool: "ARKAFT",
			args: map[string]any{"operation": "history.list"},
			want: contracts.ErrorNotSupported,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := mock.CallJSON(callCtx(t), tc.tool, tc.args)
			var toolErr contracts.ToolError
			require.True(t, errors.As(err, &toolErr), "expected tool error, got %v", err)
			assert.Equal(t, tc.want, toolErr.Code)
		})
	}
}

func TestServer_BoundsListings(t *testing.T) {
	cfg, a := testMCPApp(t, func(c *config.Config) { c.MCP.MaxResponseItems = 2 })
	mock := startMockServer(t, cfg, a)

	res, err := mock.Call(callCtx(t), "arkaft", map[string]any{"operation": "rules.list"})
	require.NoError(t, err)
	out := res.(map[string]any)["result"].(contracts.RulesListOutput)
	assert.Len(t, out.Rules, 2)
	assert.Greater(t, out.RuleCount, 2)
}

func TestServer_HistoryList(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "main.rs")
	require.NoError(t, os.WriteFile(path, []byte("fn main() {}\n"), 0o644))

	cfg, a := testMCPApp(t, func(c *config.Config) {
		c.History.Enabled = true
		c.History.Path = filepath.Join(dir, "history.db")
	})
	mock := startMockServer(t, cfg, a)
	ctx := callCtx(t)

	for i := 0; i < 2; i++ {
		_, err := mock.Call(ctx, "arkaft", map[string]any{
			"operation": "review.file",
			"params":    map[string]any{"file_path": path},
		})
		require.NoError(t, err)
	}

	res, err := mock.CallJSON(ctx, "arkaft", map[string]any{
		"operation": "history.list",
		"params":    map[string]any{"path": path, "limit": 10},
	})
	require.NoError(t, err)
	out := res.(map[string]any)["result"].(contracts.HistoryListOutput)
	assert.Equal(t, 2, out.ReviewCount)
	require.NotNil(t, out.Trend)
	assert.Equal(t, 2, out.Trend.ReviewCount)
	assert.Equal(t, 0, out.Trend.Delta)
}

func TestServer_RegisterTools(t *testing.T) {
	cfg, a := testMCPApp(t, func(c *config.Config) { c.MCP.ToolName = "adk-review" })
	reg := registry.New()

	server, err := New(cfg, Dependencies{Service: a.Service()}, reg, transport.NewMockAdapter())
	require.NoError(t, err)

	require.NoError(t, server.registerDefaultTool())
	require.NoError(t, server.registerDefaultTool(), "second register should be idempotent")
	if !reflect.DeepEqual(reg.Tools(), []string{"adk-review"}) {
		t.Fatalf("unexpected registered tools: %v", reg.Tools())
	}
}

func TestServer_ExpiredDeadline(t *testing.T) {
	cfg, a := testMCPApp(t, nil)
	server, err := New(cfg, Dependencies{Service: a.Service()}, nil, transport.NewMockAdapter())
	require.NoError(t, err)
	require.NoError(t, server.registerDefaultTool())

	ctx, cancel := context.WithDeadline(context.Background(), time.Now().Add(-time.Second))
	defer cancel()
	_, err = server.handleToolCall(ctx, "arkaft", map[string]any{
		"operation": "review.file",
		"params":    map[string]any{"file_path": "a.rs", "file_content": "fn main() {}\n"},
	})
	var toolErr contracts.ToolError
	require.True(t, errors.As(err, &toolErr), "expected tool error, got %v", err)
	assert.Equal(t, contracts.ErrorUnavailable, toolErr.Code)
	assert.Equal(t, "request timed out", toolErr.Message)
}

func TestOperationLabel(t *testing.T) {
	assert.Equal(t, "review.file", operationLabel(map[string]any{"operation": " Review.File "}))
	assert.Equal(t, "unknown", operationLabel(map[string]any{"operation": "drop.tables"}))
	assert.Equal(t, "unknown", operationLabel(nil))
}
