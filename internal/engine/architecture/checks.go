package architecture

import (
	"fmt"
	"strings"

	"github.com/arkaft-labs/arkaft-mcp-google-adk/internal/engine/parser"
	"github.com/arkaft-labs/arkaft-mcp-google-adk/internal/engine/pattern"
)

func checkErrorTrait(unit *parser.SourceUnit) Verdict {
	return checkErrorTypes(unit, "Error", "std::error::Error")
}

func checkErrorDisplay(unit *parser.SourceUnit) Verdict {
	return checkErrorTypes(unit, "Display", "fmt::Display")
}

// checkErrorTypes requires every *Error struct or enum to implement trait,
// either by hand or via a derive. thiserror's derive covers both traits.
func checkErrorTypes(unit *parser.SourceUnit, trait, display string) Verdict {
	types := pattern.Collect(unit, func(d *parser.Declaration, ctx pattern.Context) bool {
		return (d.Kind == parser.KindStruct || d.Kind == parser.KindEnum) &&
			strings.HasSuffix(d.Name, "Error") && !ctx.InTest
	})
	if len(types) == 0 {
		return notApplicable()
	}
	impls := traitImpls(unit)
	for _, hit := range types {
		d := hit.Decl
		if impls[d.Name][trait] || derives(d, "Error", trait) {
			continue
		}
		return fail(d.Span.Start, fmt.Sprintf("error type `%s` does not implement %s", d.Name, display))
	}
	return pass()
}

var abortingExpr = pattern.Either(
	pattern.MethodCall("unwrap", "expect"),
	pattern.Macro("panic", "unreachable", "todo", "unimplemented"),
)

func checkResultNoPanic(unit *parser.SourceUnit) Verdict {
	fns := pattern.Collect(unit, func(d *parser.Declaration, ctx pattern.Context) bool {
		return d.Kind == parser.KindFunction && d.HasBody && !ctx.InTest && returnsResult(d.ReturnType)
	})
	if len(fns) == 0 {
		return notApplicable()
	}
	for _, hit := range fns {
		for _, e := range hit.Decl.Exprs {
			if abortingExpr(e) {
				return fail(e.Location, fmt.Sprintf("`%s` returns %s but can abort via `%s`", hit.Decl.Name, hit.Decl.ReturnType, exprLabel(e)))
			}
		}
	}
	return pass()
}

func checkPubStructConstructor(unit *parser.SourceUnit) Verdict {
	structs := pattern.Collect(unit, func(d *parser.Declaration, ctx pattern.Context) bool {
		return d.Kind == parser.KindStruct && d.IsPublic() && !ctx.InTest && hasPrivateField(d)
	})
	if len(structs) == 0 {
		return notApplicable()
	}
	impls := traitImpls(unit)
	ctors := constructors(unit)
	for _, hit := range structs {
		d := hit.Decl
		if ctors[d.Name] || impls[d.Name]["Default"] || derives(d, "Default") {
			continue
		}
		return fail(d.Span.Start, fmt.Sprintf("public struct `%s` has private fields but no constructor", d.Name))
	}
	return pass()
}

func checkNewImpliesDefault(unit *parser.SourceUnit) Verdict {
	news := pattern.Collect(unit, func(d *parser.Declaration, ctx pattern.Context) bool {
		return d.Kind == parser.KindFunction && d.Name == "new" && d.IsPublic() &&
			!d.HasSelf && d.ParamCount == 0 && ctx.Impl != nil && ctx.Impl.ImplTrait == "" && !ctx.InTest
	})
	if len(news) == 0 {
		return notApplicable()
	}
	impls := traitImpls(unit)
	derived := derivedDefaults(unit)
	for _, hit := range news {
		typ := typeName(hit.Context.Impl.ImplType)
		if impls[typ]["Default"] || derived[typ] {
			continue
		}
		return fail(hit.Decl.Span.Start, fmt.Sprintf("`%s::new()` takes no arguments but `%s` does not implement Default", typ, typ))
	}
	return pass()
}

func checkPubItemsDocumented(unit *parser.SourceUnit) Verdict {
	items := pattern.Collect(unit, func(d *parser.Declaration, ctx pattern.Context) bool {
		return d.IsPublic() && d.Kind != parser.KindUse && d.Kind != parser.KindImpl && !ctx.InTest
	})
	if len(items) == 0 {
		return notApplicable()
	}
	var missing []string
	var first parser.Location
	for _, hit := range items {
		if hit.Decl.Documented {
			continue
		}
		if len(missing) == 0 {
			first = hit.Decl.Span.Start
		}
		missing = append(missing, hit.Decl.Name)
	}
	if len(missing) == 0 {
		return pass()
	}
	return fail(first, fmt.Sprintf("%d public item(s) lack doc comments: %s", len(missing), joinLimited(missing, 5)))
}

func checkCrateDocs(unit *parser.SourceUnit) Verdict {
	public := false
	for _, d := range unit.Declarations {
		if d.IsPublic() && !d.IsTest() {
			public = true
			break
		}
	}
	if !public {
		return notApplicable()
	}
	if unit.InnerDocs {
		return pass()
	}
	return fail(parser.Location{Line: 1, Column: 1}, "file exposes public items but has no `//!` module documentation")
}

func checkTestModuleCfg(unit *parser.SourceUnit) Verdict {
	mods := pattern.Collect(unit, func(d *parser.Declaration, _ pattern.Context) bool {
		return d.Kind == parser.KindModule && isTestModule(d)
	})
	if len(mods) == 0 {
		return notApplicable()
	}
	for _, hit := range mods {
		if !hit.Context.InTest {
			return fail(hit.Decl.Span.Start, fmt.Sprintf("test module `%s` is compiled into non-test builds", hit.Decl.Name))
		}
	}
	return pass()
}

func checkNoGlobReexport(unit *parser.SourceUnit) Verdict {
	uses := pattern.Collect(unit, func(d *parser.Declaration, _ pattern.Context) bool {
		return d.Kind == parser.KindUse && strings.HasPrefix(d.Visibility, "pub")
	})
	if len(uses) == 0 {
		return notApplicable()
	}
	for _, hit := range uses {
		if hit.Decl.Glob {
			return fail(hit.Decl.Span.Start, fmt.Sprintf("glob re-export `%s use %s`", hit.Decl.Visibility, hit.Decl.Name))
		}
	}
	return pass()
}

func checkNoBlockingInAsync(unit *parser.SourceUnit) Verdict {
	if !hasAsyncCode(unit) {
		return notApplicable()
	}
	blocking := blockingExpr(usesAsyncFS(unit))
	verdict := pass()
	pattern.Walk(unit, func(d *parser.Declaration, _ pattern.Context) bool {
		if verdict.Message != "" {
			return false
		}
		for _, e := range d.Exprs {
			if (d.IsAsync() || e.InAsync) && blocking(e) {
				verdict = fail(e.Location, fmt.Sprintf("blocking call `%s` inside async code in `%s`", exprLabel(e), d.Name))
				return false
			}
		}
		return true
	})
	return verdict
}

func checkAsyncMainRuntime(unit *parser.SourceUnit) Verdict {
	var main *parser.Declaration
	for _, d := range unit.Declarations {
		if d.Kind == parser.KindFunction && d.Name == "main" && d.IsAsync() {
			main = d
			break
		}
	}
	if main == nil {
		return notApplicable()
	}
	for _, a := range main.Attributes {
		if strings.Contains(a.Name, "::") && parser.LastSegment(a.Name) == "main" {
			return pass()
		}
	}
	return fail(main.Span.Start, "`async fn main` has no runtime attribute such as #[tokio::main]")
}

func checkAsyncFnAwaits(unit *parser.SourceUnit) Verdict {
	fns := pattern.Collect(unit, func(d *parser.Declaration, _ pattern.Context) bool {
		return d.IsAsync() && d.HasBody
	})
	if len(fns) == 0 {
		return notApplicable()
	}
	for _, hit := range fns {
		if !awaitsSomething(hit.Decl) {
			return fail(hit.Decl.Span.Start, fmt.Sprintf("async fn `%s` never awaits", hit.Decl.Name))
		}
	}
	return pass()
}
