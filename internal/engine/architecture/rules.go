package architecture

import (
	"strings"

	"github.com/gobwas/glob"

	"github.com/arkaft-labs/arkaft-mcp-google-adk/internal/engine/finding"
	"github.com/arkaft-labs/arkaft-mcp-google-adk/internal/engine/parser"
)

const (
	CategoryErrorHandling  = "error-handling"
	CategoryConstruction   = "construction"
	CategoryModuleBoundary = "module-boundary"
	CategoryAsyncUsage     = "async-usage"
)

// Categories returns the fixed category order used by reports.
func Categories() []string {
	return []string{CategoryErrorHandling, CategoryConstruction, CategoryModuleBoundary, CategoryAsyncUsage}
}

func IsCategory(name string) bool {
	for _, c := range Categories() {
		if c == name {
			return true
		}
	}
	return false
}

// Verdict is what a rule check reports. Location and Message are only read
// when the rule is applicable and failed.
type Verdict struct {
	Applicable bool
	Passed     bool
	Location   parser.Location
	Message    string
}

func notApplicable() Verdict { return Verdict{} }

func pass() Verdict { return Verdict{Applicable: true, Passed: true} }

func fail(loc parser.Location, msg string) Verdict {
	return Verdict{Applicable: true, Location: loc, Message: msg}
}

type Rule struct {
	ID          string
	Category    string
	Name        string
	Weight      float64
	GuidanceKey string
	Hint        string
	Check       func(*parser.SourceUnit) Verdict
}

type Outcome struct {
	RuleID     string
	Category   string
	Weight     float64
	Applicable bool
	Passed     bool
	Finding    *finding.Finding
}

func (r Rule) evaluate(unit *parser.SourceUnit) Outcome {
	v := r.Check(unit)
	out := Outcome{
		RuleID:     r.ID,
		Category:   r.Category,
		Weight:     r.Weight,
		Applicable: v.Applicable,
		Passed:     v.Applicable && v.Passed,
	}
	if v.Applicable && !v.Passed {
		out.Finding = &finding.Finding{
			RuleID:      r.ID,
			Category:    r.Category,
			Severity:    finding.SeverityWarning,
			Line:        v.Location.Line,
			Column:      v.Location.Column,
			Message:     v.Message,
			Remediation: r.Hint,
			GuidanceKey: r.GuidanceKey,
		}
	}
	return out
}

// Catalog returns a fresh copy of the built-in rule table with default weights.
func Catalog() []Rule {
	return []Rule{
		{
			ID: "error-type-implements-error", Category: CategoryErrorHandling, Weight: 0.8,
			Name:  "Error types implement std::error::Error",
			Hint:  "add `impl std::error::Error for T {}` or derive it with thiserror",
			Check: checkErrorTrait,
		},
		{
			ID: "error-type-display", Category: CategoryErrorHandling, Weight: 0.5,
			Name:  "Error types implement Display",
			Hint:  "implement fmt::Display with a lowercase message without trailing punctuation",
			Check: checkErrorDisplay,
		},
		{
			ID: "result-fn-no-panic", Category: CategoryErrorHandling, Weight: 1.0,
			Name:  "Functions returning Result do not abort",
			Hint:  "use `?` to propagate instead of unwrapping or panicking",
			Check: checkResultNoPanic,
		},
		{
			ID: "pub-struct-constructor", Category: CategoryConstruction, Weight: 0.6,
			Name:  "Public structs with private fields expose a constructor",
			Hint:  "add an associated `fn new(..) -> Self` or implement Default",
			Check: checkPubStructConstructor,
		},
		{
			ID: "new-implies-default", Category: CategoryConstruction, Weight: 0.4,
			Name:  "Argument-free `new` is paired with Default",
			Hint:  "implement or derive Default alongside `pub fn new() -> Self`",
			Check: checkNewImpliesDefault,
		},
		{
			ID: "pub-items-documented", Category: CategoryModuleBoundary, Weight: 0.6,
			Name:  "Public items carry doc comments",
			Hint:  "document public items with `///` comments",
			Check: checkPubItemsDocumented,
		},
		{
			ID: "crate-docs", Category: CategoryModuleBoundary, Weight: 0.3,
			Name:  "Library files start with module docs",
			Hint:  "add a `//!` comment describing the module",
			Check: checkCrateDocs,
		},
		{
			ID: "test-module-cfg-test", Category: CategoryModuleBoundary, Weight: 0.7,
			Name:  "Test modules are gated by #[cfg(test)]",
			Hint:  "annotate the test module with `#[cfg(test)]`",
			Check: checkTestModuleCfg,
		},
		{
			ID: "no-glob-reexport", Category: CategoryModuleBoundary, Weight: 0.4,
			Name:  "Re-exports name their items",
			Hint:  "list re-exported items explicitly instead of `pub use path::*`",
			Check: checkNoGlobReexport,
		},
		{
			ID: "no-blocking-in-async", Category: CategoryAsyncUsage, Weight: 1.0,
			Name:  "Async code does not block the executor",
			Hint:  "use the runtime's async APIs or move the work to spawn_blocking",
			Check: checkNoBlockingInAsync,
		},
		{
			ID: "async-main-runtime", Category: CategoryAsyncUsage, Weight: 0.8,
			Name:  "Async main is driven by a runtime attribute",
			Hint:  "annotate async main with `#[tokio::main]` or an equivalent runtime macro",
			Check: checkAsyncMainRuntime,
		},
		{
			ID: "async-fn-awaits", Category: CategoryAsyncUsage, Weight: 0.5,
			Name:  "Async functions await something",
			Hint:  "drop `async` from functions that never await",
			Check: checkAsyncFnAwaits,
		},
	}
}

func withGuidanceKeys(rules []Rule) []Rule {
	for i := range rules {
		if rules[i].GuidanceKey == "" {
			rules[i].GuidanceKey = "architecture." + rules[i].ID
		}
	}
	return rules
}

type compiledPattern struct {
	raw        string
	isWildcard bool
	glob       glob.Glob
}

func compilePatterns(raw []string) ([]compiledPattern, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	out := make([]compiledPattern, 0, len(raw))
	for _, pattern := range raw {
		norm := strings.TrimSpace(pattern)
		if norm == "" {
			continue
		}
		cp := compiledPattern{
			raw:        norm,
			isWildcard: strings.ContainsAny(norm, "*?[]{}"),
		}
		if cp.isWildcard {
			g, err := glob.Compile(norm)
			if err != nil {
				return nil, err
			}
			cp.glob = g
		}
		out = append(out, cp)
	}
	return out, nil
}

func matchPatterns(patterns []compiledPattern, id string) bool {
	for _, p := range patterns {
		if p.isWildcard {
			if p.glob.Match(id) {
				return true
			}
			continue
		}
		if p.raw == id {
			return true
		}
	}
	return false
}
