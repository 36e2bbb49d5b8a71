package translation

import (
	"sync"

	"github.com/arkaft-labs/arkaft-mcp-google-adk/internal/engine/finding"
	"github.com/arkaft-labs/arkaft-mcp-google-adk/internal/engine/parser"
	"github.com/arkaft-labs/arkaft-mcp-google-adk/internal/engine/pattern"
)

const (
	CategoryUncheckedFailure = "unchecked-failure"
	CategoryForcedFailure    = "forced-failure"
	CategoryNotImplemented   = "not-implemented"
)

// Categories lists the translation categories in catalog order.
func Categories() []string {
	return []string{CategoryUncheckedFailure, CategoryForcedFailure, CategoryNotImplemented}
}

var (
	catalog     []pattern.Rule
	catalogOnce sync.Once
)

// Catalog returns the shared rule table. Callers must not modify it.
func Catalog() []pattern.Rule {
	catalogOnce.Do(func() {
		catalog = []pattern.Rule{
			concern("unchecked-unwrap", CategoryUncheckedFailure, pattern.MethodCall("unwrap"),
				"`.unwrap()` in {decl} aborts on a missing value without a recovery path",
				"propagate with `?` or handle the None/Err case explicitly"),
			concern("unchecked-expect", CategoryUncheckedFailure, pattern.MethodCall("expect"),
				"`.expect(..)` in {decl} aborts on a missing value without a recovery path",
				"return a typed error instead of aborting with a message"),
			concern("unchecked-unwrap-err", CategoryUncheckedFailure, pattern.MethodCall("unwrap_err", "expect_err"),
				"`.{name}(..)` in {decl} aborts when the operation succeeds",
				"match on the Result and handle the Ok case"),
			concern("forced-panic", CategoryForcedFailure, pattern.Macro("panic"),
				"`panic!` in {decl} forces the process to abort",
				"return an error value the caller can handle"),
			concern("forced-unreachable", CategoryForcedFailure, pattern.Macro("unreachable"),
				"`unreachable!` in {decl} aborts if the assumption is ever wrong",
				"encode the invariant in the type system or return an error"),
			concern("not-implemented-todo", CategoryNotImplemented, pattern.Macro("todo"),
				"`todo!` in {decl} marks unfinished logic",
				"implement the missing logic before shipping"),
			concern("not-implemented-unimplemented", CategoryNotImplemented, pattern.Macro("unimplemented"),
				"`unimplemented!` in {decl} marks unfinished logic",
				"implement the missing logic or remove the code path"),
		}
	})
	return catalog
}

func concern(id, category string, match func(parser.Expr) bool, message, remediation string) pattern.Rule {
	return pattern.Rule{
		ID:           id,
		Category:     category,
		Match:        match,
		Message:      message,
		Remediation:  remediation,
		Severity:     finding.SeverityConcern,
		TestSeverity: finding.SeverityInfo,
		GuidanceKey:  "translation." + id,
	}
}

// Analyze runs the translation catalog over unit.
func Analyze(unit *parser.SourceUnit) []finding.Finding {
	return pattern.Match(unit, Catalog())
}
