package review

import (
	"context"
	"testing"

	"github.com/arkaft-labs/arkaft-mcp-google-adk/internal/core/app"
	"github.com/arkaft-labs/arkaft-mcp-google-adk/internal/core/config"
	"github.com/arkaft-labs/arkaft-mcp-google-adk/internal/mcp/adapters"
	"github.com/arkaft-labs/arkaft-mcp-google-adk/internal/mcp/contracts"
)

func testReviewAdapter(t *testing.T) *adapters.Adapter {
	t.Helper()
	cfg := config.Default()
	a, err := app.New(&cfg)
	if err != nil {
		t.Fatalf("new app: %v", err)
	}
	return adapters.NewAdapter(a.Service())
}

func TestHandleFile_BoundsFindings(t *testing.T) {
	adapter := testReviewAdapter(t)
	source := "fn a() {\n    panic!(\"a\");\n}\n\nfn b() {\n    panic!(\"b\");\n}\n"

	out, err := HandleFile(context.Background(), adapter, contracts.ReviewFileInput{
		FilePath:    "src/two.rs",
		FileContent: &source,
	}, 1)
	if err != nil {
		t.Fatalf("handle file: %v", err)
	}
	if len(out.Findings) != 1 || !out.Truncated {
		t.Fatalf("expected truncated findings, got %+v", out)
	}
	if out.Score != 90 {
		t.Fatalf("expected score of the full review, got %d", out.Score)
	}
}

func TestHandleValidate(t *testing.T) {
	adapter := testReviewAdapter(t)

	out, err := HandleValidate(context.Background(), adapter, contracts.ReviewValidateInput{
		Code:             "fn main() {\n    panic!(\"x\");\n}\n",
		ArchitectureOnly: true,
	}, 0)
	if err != nil {
		t.Fatalf("handle validate: %v", err)
	}
	if out.Score != 100 || out.Truncated {
		t.Fatalf("expected architecture-only score 100, got %+v", out)
	}
}
