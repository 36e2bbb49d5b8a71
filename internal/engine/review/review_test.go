package review

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arkaft-labs/arkaft-mcp-google-adk/internal/engine/architecture"
	"github.com/arkaft-labs/arkaft-mcp-google-adk/internal/engine/parser"
)

func newEngine(t *testing.T, opts Options) *Engine {
	t.Helper()
	e, err := New(opts)
	require.NoError(t, err)
	return e
}

type failingProvider struct{}

func (failingProvider) GuidanceText(string) (string, error) { return "", errors.New("store offline") }
func (failingProvider) References(string) []string         { return nil }
func (failingProvider) ResolveVersion(string) string       { return "latest" }

func TestReview_SingleForcedFailure(t *testing.T) {
	e := newEngine(t, Options{})
	resp, err := e.Review(context.Background(), ReviewRequest{
		Path:   "src/main.rs",
		Source: "fn main() {\n    panic!(\"boom\");\n}\n",
	})
	require.NoError(t, err)

	assert.Equal(t, 95, resp.Score)
	require.Len(t, resp.Findings, 1)
	f := resp.Findings[0]
	assert.Equal(t, "forced-panic", f.RuleID)
	assert.Equal(t, "concern", f.Severity)
	assert.Equal(t, 2, f.Line)
	require.Len(t, resp.Recommendations, 1)
	assert.True(t, strings.HasPrefix(resp.Recommendations[0], "forced-panic: "), resp.Recommendations[0])
	assert.Empty(t, resp.Categories)
	assert.Equal(t, "latest", resp.DocsVersion)
	assert.NotEmpty(t, resp.References["forced-failure"])
}

func TestReview_EmptySource(t *testing.T) {
	e := newEngine(t, Options{})
	resp, err := e.Review(context.Background(), ReviewRequest{Source: ""})
	require.Error(t, err)
	assert.True(t, errors.Is(err, parser.ErrEmptySource))
	assert.Zero(t, resp.Score)
	assert.Nil(t, resp.Findings)
}

func TestReview_UnbalancedBraces(t *testing.T) {
	e := newEngine(t, Options{})
	_, err := e.Review(context.Background(), ReviewRequest{Source: "fn main() {\n}\n}\n"})
	var perr *parser.ParseError
	require.True(t, errors.As(err, &perr), "expected ParseError, got %v", err)
	assert.Equal(t, parser.ParseErrorSyntax, perr.Kind)
	assert.Equal(t, 3, perr.Line)
}

func TestReview_CommentsOnly(t *testing.T) {
	e := newEngine(t, Options{})
	resp, err := e.Review(context.Background(), ReviewRequest{Source: "// only a comment\n"})
	require.NoError(t, err)
	assert.Equal(t, 100, resp.Score)
	assert.Empty(t, resp.Categories)
	assert.Empty(t, resp.Findings)
	assert.Empty(t, resp.Recommendations)
}

const mixedSource = `//! Storage helpers.

/// Errors from the store.
#[derive(Debug)]
pub enum StoreError { Missing }

/// Loads a value.
pub fn load(key: &str) -> Result<u8, StoreError> {
    let v = key.parse::<u8>().unwrap();
    Ok(v)
}

#[cfg(test)]
mod tests {
    #[test]
    fn loads() {
        super::load("1").unwrap();
    }
}
`

func TestReview_Deterministic(t *testing.T) {
	e := newEngine(t, Options{})
	first, err := e.Review(context.Background(), ReviewRequest{Path: "lib.rs", Source: mixedSource})
	require.NoError(t, err)
	second, err := e.Review(context.Background(), ReviewRequest{Path: "lib.rs", Source: mixedSource})
	require.NoError(t, err)

	a, err := json.Marshal(first)
	require.NoError(t, err)
	b, err := json.Marshal(second)
	require.NoError(t, err)
	assert.Equal(t, string(a), string(b))
}

func TestReview_TestCodeDowngradedAndNoAsyncCategory(t *testing.T) {
	e := newEngine(t, Options{})
	resp, err := e.Review(context.Background(), ReviewRequest{Source: mixedSource})
	require.NoError(t, err)

	for _, c := range resp.Categories {
		assert.NotEqual(t, architecture.CategoryAsyncUsage, c.Category)
	}
	var sawInfo bool
	for _, f := range resp.Findings {
		if f.Line == 17 {
			assert.Equal(t, "info", f.Severity)
			sawInfo = true
		}
	}
	assert.True(t, sawInfo, "expected the test unwrap to be reported as info")
}

func TestReview_FeatureGateIsNotTestCode(t *testing.T) {
	e := newEngine(t, Options{})
	body := "fn run() {\n    let x: Option<u8> = None;\n    x.unwrap();\n}\n"

	plain, err := e.Review(context.Background(), ReviewRequest{Source: body})
	require.NoError(t, err)

	for _, gate := range []string{`"contest-mode"`, `"latest"`, `"attestation"`} {
		resp, err := e.Review(context.Background(), ReviewRequest{Source: "#[cfg(feature = " + gate + ")]\n" + body})
		require.NoError(t, err)

		var unwrap *FindingView
		for i := range resp.Findings {
			if resp.Findings[i].RuleID == "unchecked-unwrap" {
				unwrap = &resp.Findings[i]
			}
		}
		require.NotNil(t, unwrap, "gate %s: expected an unchecked-unwrap finding", gate)
		assert.Equal(t, "concern", unwrap.Severity, "gate %s", gate)
		assert.Equal(t, plain.Score, resp.Score, "gate %s", gate)
		assert.Less(t, resp.Score, 100, "gate %s", gate)
	}

	gated, err := e.Review(context.Background(), ReviewRequest{Source: "#[cfg(test)]\n" + body})
	require.NoError(t, err)
	for _, f := range gated.Findings {
		if f.RuleID == "unchecked-unwrap" {
			assert.Equal(t, "info", f.Severity)
		}
	}
}

func TestReview_Monotonic(t *testing.T) {
	e := newEngine(t, Options{})
	before, err := e.Review(context.Background(), ReviewRequest{Source: mixedSource})
	require.NoError(t, err)

	injected := strings.Replace(mixedSource, "    Ok(v)\n", "    let w: Option<u8> = None;\n    w.unwrap();\n    Ok(v)\n", 1)
	after, err := e.Review(context.Background(), ReviewRequest{Source: injected})
	require.NoError(t, err)
	assert.LessOrEqual(t, after.Score, before.Score)
	assert.Greater(t, len(after.Findings), len(before.Findings))
}

func TestReview_FocusAndUnknownCategory(t *testing.T) {
	e := newEngine(t, Options{})
	resp, err := e.Review(context.Background(), ReviewRequest{Source: mixedSource, Focus: architecture.CategoryErrorHandling})
	require.NoError(t, err)
	for _, c := range resp.Categories {
		assert.Equal(t, architecture.CategoryErrorHandling, c.Category)
	}

	_, err = e.Review(context.Background(), ReviewRequest{Source: mixedSource, Focus: "perf"})
	assert.True(t, errors.Is(err, architecture.ErrUnknownCategory))
}

func TestValidate_ArchitectureOnly(t *testing.T) {
	e := newEngine(t, Options{})
	resp, err := e.Validate(context.Background(), ValidateRequest{Source: mixedSource, ArchitectureOnly: true})
	require.NoError(t, err)
	for _, f := range resp.Findings {
		assert.True(t, architecture.IsCategory(f.Category), "unexpected non-architecture finding %s", f.RuleID)
	}

	full, err := e.Validate(context.Background(), ValidateRequest{Source: mixedSource})
	require.NoError(t, err)
	assert.Greater(t, len(full.Findings), len(resp.Findings))
}

func TestValidate_DescriptionOnly(t *testing.T) {
	e := newEngine(t, Options{})
	resp, err := e.Validate(context.Background(), ValidateRequest{
		Description: "Tool handlers run Blocking Operations on the executor and panic on bad input.",
	})
	require.NoError(t, err)

	assert.Equal(t, 90, resp.Score)
	assert.Empty(t, resp.Categories)
	require.Len(t, resp.Findings, 2)
	ids := []string{resp.Findings[0].RuleID, resp.Findings[1].RuleID}
	assert.ElementsMatch(t, []string{"description-blocking-operations", "description-panic-handling"}, ids)
	for _, f := range resp.Findings {
		assert.Equal(t, "concern", f.Severity)
		assert.Zero(t, f.Line)
		assert.NotEmpty(t, f.Remediation)
	}
	require.Len(t, resp.Recommendations, 2)
	for _, r := range resp.Recommendations {
		assert.True(t, strings.HasSuffix(r, "(1 occurrence in the description)"), r)
	}
	assert.NotEmpty(t, resp.References[architecture.CategoryAsyncUsage])
	assert.Contains(t, resp.Markdown(), "**Description** [concern]")

	clean, err := e.Validate(context.Background(), ValidateRequest{Description: "A small agent with one tool."})
	require.NoError(t, err)
	assert.Equal(t, 100, clean.Score)
	assert.Empty(t, clean.Findings)

	_, err = e.Validate(context.Background(), ValidateRequest{Description: "panic", Category: "perf"})
	assert.True(t, errors.Is(err, architecture.ErrUnknownCategory))
}

func TestValidate_DescriptionAddsFindings(t *testing.T) {
	e := newEngine(t, Options{})
	plain, err := e.Validate(context.Background(), ValidateRequest{Source: mixedSource})
	require.NoError(t, err)
	described, err := e.Validate(context.Background(), ValidateRequest{
		Source:      mixedSource,
		Description: "Uses a non-standard module layout.",
	})
	require.NoError(t, err)

	assert.Equal(t, plain.Score, described.Score)
	assert.Len(t, described.Findings, len(plain.Findings)+1)
	var found bool
	for _, f := range described.Findings {
		if f.RuleID == "description-nonstandard-structure" {
			found = true
			assert.Equal(t, "warning", f.Severity)
			assert.Equal(t, architecture.CategoryModuleBoundary, f.Category)
		}
	}
	assert.True(t, found)

	focused, err := e.Validate(context.Background(), ValidateRequest{
		Source:      mixedSource,
		Description: "Uses a non-standard module layout.",
		Category:    architecture.CategoryAsyncUsage,
	})
	require.NoError(t, err)
	for _, f := range focused.Findings {
		assert.NotEqual(t, "description-nonstandard-structure", f.RuleID)
	}
}

func TestReview_FormattingFailureKeepsReport(t *testing.T) {
	e := newEngine(t, Options{Provider: failingProvider{}})
	resp, err := e.Review(context.Background(), ReviewRequest{Source: "fn main() {\n    todo!()\n}\n"})
	require.NoError(t, err)
	assert.Equal(t, 95, resp.Score)
	assert.Len(t, resp.Findings, 1)
	assert.NotNil(t, resp.Recommendations)
	assert.Empty(t, resp.Recommendations)
}

func TestReviewResponse_Markdown(t *testing.T) {
	e := newEngine(t, Options{})
	resp, err := e.Review(context.Background(), ReviewRequest{Path: "src/lib.rs", Source: mixedSource})
	require.NoError(t, err)
	md := resp.Markdown()
	assert.Contains(t, md, "**File:** `src/lib.rs`")
	assert.Contains(t, md, "## Translation Concerns")
}
