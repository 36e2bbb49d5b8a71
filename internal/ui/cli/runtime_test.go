package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	coreapp "github.com/arkaft-labs/arkaft-mcp-google-adk/internal/core/app"
	"github.com/arkaft-labs/arkaft-mcp-google-adk/internal/core/config"
	"github.com/arkaft-labs/arkaft-mcp-google-adk/internal/core/ports"
	"github.com/arkaft-labs/arkaft-mcp-google-adk/internal/engine/review"
)

const panicSource = "fn main() {\n    panic!(\"boom\");\n}\n"

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

// project writes a config and one source file, returning the config path
// and the source directory.
func project(t *testing.T, configBody string) (string, string) {
	t.Helper()
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "arkaft.toml")
	writeFile(t, cfgPath, configBody)
	src := filepath.Join(dir, "src")
	writeFile(t, filepath.Join(src, "main.rs"), panicSource)
	return cfgPath, src
}

func runCLI(t *testing.T, args ...string) (int, string, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := run(context.Background(), args, &stdout, &stderr, coreAppFactory{})
	return code, stdout.String(), stderr.String()
}

func TestRun_Version(t *testing.T) {
	code, out, _ := runCLI(t, "-version")
	if code != 0 || !strings.HasPrefix(out, "arkaft v") {
		t.Fatalf("unexpected version output %d %q", code, out)
	}
}

func TestRun_UsageErrors(t *testing.T) {
	if code, _, _ := runCLI(t, "-format", "xml", "a.rs"); code != 2 {
		t.Fatalf("expected exit 2 for bad format, got %d", code)
	}
	if code, _, errOut := runCLI(t); code != 2 || !strings.Contains(errOut, "at least one") {
		t.Fatalf("expected exit 2 without paths, got %d %q", code, errOut)
	}
}

func TestRun_TextReport(t *testing.T) {
	cfgPath, src := project(t, "")
	code, out, _ := runCLI(t, "-config", cfgPath, src)
	if code != 0 {
		t.Fatalf("expected exit 0, got %d", code)
	}
	for _, want := range []string{"main.rs", "score 95", "CONCERN", "line 2", "Reviewed 1 file(s), average score 95"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in output:\n%s", want, out)
		}
	}
}

func TestRun_JSONReport(t *testing.T) {
	cfgPath, src := project(t, "")
	code, out, _ := runCLI(t, "-config", cfgPath, "-format", "json", src)
	if code != 0 {
		t.Fatalf("expected exit 0, got %d", code)
	}
	var reports []fileReport
	if err := json.Unmarshal([]byte(out), &reports); err != nil {
		t.Fatalf("decode json: %v\n%s", err, out)
	}
	if len(reports) != 1 || reports[0].Review == nil {
		t.Fatalf("unexpected reports: %+v", reports)
	}
	if reports[0].Review.Score != 95 || len(reports[0].Review.Recommendations) != 1 {
		t.Fatalf("unexpected review: %+v", reports[0].Review)
	}
}

func TestRun_MarkdownReport(t *testing.T) {
	cfgPath, src := project(t, "")
	code, out, _ := runCLI(t, "-config", cfgPath, "-format", "markdown", src)
	if code != 0 {
		t.Fatalf("expected exit 0, got %d", code)
	}
	if !strings.Contains(out, "# Rust File Review Results") || !strings.Contains(out, "**Compliance score:** 95/100") {
		t.Fatalf("expected markdown report, got:\n%s", out)
	}
}

func TestRun_FailUnder(t *testing.T) {
	cfgPath, src := project(t, "[review]\nfail_under = 99\n")
	if code, _, _ := runCLI(t, "-config", cfgPath, src); code != 1 {
		t.Fatalf("expected exit 1 below fail_under, got %d", code)
	}
}

func TestRun_MissingPath(t *testing.T) {
	cfgPath, _ := project(t, "")
	code, _, errOut := runCLI(t, "-config", cfgPath, filepath.Join(t.TempDir(), "nope"))
	if code != 1 {
		t.Fatalf("expected exit 1, got %d (%s)", code, errOut)
	}
}

func TestRun_ExplicitConfigMustExist(t *testing.T) {
	code, _, errOut := runCLI(t, "-config", filepath.Join(t.TempDir(), "missing.toml"), "a.rs")
	if code != 1 || !strings.Contains(errOut, "failed to load config") {
		t.Fatalf("expected config failure, got %d %q", code, errOut)
	}
}

func TestInitializeApp_RequiresFactory(t *testing.T) {
	if _, err := initializeApp(&config.Config{}, nil, nil); err == nil {
		t.Fatal("expected error without factory")
	}
}

func TestExitCode(t *testing.T) {
	ok := ports.FileResult{Path: "a.rs", Response: review.ReviewResponse{Score: 95}}
	low := ports.FileResult{Path: "b.rs", Response: review.ReviewResponse{Score: 60}}
	failed := ports.FileResult{Path: "c.rs", Err: errors.New("boom")}

	cases := []struct {
		name      string
		results   []ports.FileResult
		failUnder int
		want      int
	}{
		{"all good", []ports.FileResult{ok, low}, 0, 0},
		{"below threshold", []ports.FileResult{ok, low}, 70, 1},
		{"at threshold", []ports.FileResult{ok}, 95, 0},
		{"review error", []ports.FileResult{ok, failed}, 0, 1},
	}
	for _, tc := range cases {
		if got := exitCode(tc.results, tc.failUnder); got != tc.want {
			t.Fatalf("%s: expected %d, got %d", tc.name, tc.want, got)
		}
	}
}

func TestRenderText_ReportsErrors(t *testing.T) {
	var out bytes.Buffer
	r := newRenderer(formatText, &out)
	err := r.Render([]ports.FileResult{
		{Path: "a.rs", Response: review.ReviewResponse{Score: 100}},
		{Path: "b.rs", Err: errors.New("parse error at line 3")},
	})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	text := out.String()
	if !strings.Contains(text, "error: parse error at line 3") || !strings.Contains(text, "1 failed") {
		t.Fatalf("unexpected text:\n%s", text)
	}
	if !strings.Contains(text, "no applicable rules") {
		t.Fatalf("expected empty breakdown note:\n%s", text)
	}
}

func TestObservabilityServer_Health(t *testing.T) {
	cfg := config.Default()
	a, err := coreapp.New(&cfg)
	if err != nil {
		t.Fatalf("new app: %v", err)
	}
	srv := NewObservabilityServer("127.0.0.1:0", coreapp.NewHealthService(a), nil)

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var status coreapp.HealthStatus
	if err := json.Unmarshal(rec.Body.Bytes(), &status); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if status.Status != "up" || status.Components["history"] != "disabled" {
		t.Fatalf("unexpected status: %+v", status)
	}

	rec = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected metrics 200, got %d", rec.Code)
	}
}
