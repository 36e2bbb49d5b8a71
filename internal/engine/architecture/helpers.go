package architecture

import (
	"strings"

	"github.com/arkaft-labs/arkaft-mcp-google-adk/internal/engine/parser"
	"github.com/arkaft-labs/arkaft-mcp-google-adk/internal/engine/pattern"
)

// traitImpls maps a type name to the set of trait names implemented for it.
func traitImpls(unit *parser.SourceUnit) map[string]map[string]bool {
	out := make(map[string]map[string]bool)
	pattern.Walk(unit, func(d *parser.Declaration, _ pattern.Context) bool {
		if d.Kind != parser.KindImpl || d.ImplTrait == "" {
			return true
		}
		typ := typeName(d.ImplType)
		if out[typ] == nil {
			out[typ] = make(map[string]bool)
		}
		out[typ][typeName(d.ImplTrait)] = true
		return true
	})
	return out
}

// constructors reports the types that have an inherent associated function
// returning Self or the type itself.
func constructors(unit *parser.SourceUnit) map[string]bool {
	out := make(map[string]bool)
	pattern.Walk(unit, func(d *parser.Declaration, ctx pattern.Context) bool {
		if d.Kind != parser.KindFunction || d.HasSelf || ctx.Impl == nil || ctx.Impl.ImplTrait != "" {
			return true
		}
		typ := typeName(ctx.Impl.ImplType)
		for _, tok := range identTokens(d.ReturnType) {
			if tok == "Self" || tok == typ {
				out[typ] = true
				break
			}
		}
		return true
	})
	return out
}

func derivedDefaults(unit *parser.SourceUnit) map[string]bool {
	out := make(map[string]bool)
	pattern.Walk(unit, func(d *parser.Declaration, _ pattern.Context) bool {
		if (d.Kind == parser.KindStruct || d.Kind == parser.KindEnum) && derives(d, "Default") {
			out[d.Name] = true
		}
		return true
	})
	return out
}

func derives(d *parser.Declaration, traits ...string) bool {
	for _, have := range d.Derives() {
		for _, want := range traits {
			if have == want {
				return true
			}
		}
	}
	return false
}

// typeName strips paths, references and generic arguments: `&'a crate::Foo<T>` -> `Foo`.
func typeName(raw string) string {
	raw = strings.TrimSpace(raw)
	raw = strings.TrimLeft(raw, "&")
	if strings.HasPrefix(raw, "'") {
		if idx := strings.IndexByte(raw, ' '); idx >= 0 {
			raw = raw[idx+1:]
		}
	}
	raw = strings.TrimPrefix(raw, "mut ")
	if idx := strings.IndexByte(raw, '<'); idx >= 0 {
		raw = raw[:idx]
	}
	return parser.LastSegment(strings.TrimSpace(raw))
}

func returnsResult(ret string) bool {
	return ret != "" && typeName(ret) == "Result"
}

func hasPrivateField(d *parser.Declaration) bool {
	for _, f := range d.Fields {
		if !f.Public {
			return true
		}
	}
	return false
}

func isTestModule(d *parser.Declaration) bool {
	if d.Name == "tests" || d.Name == "test" {
		return true
	}
	for _, c := range d.Children {
		if c.Kind == parser.KindFunction && c.IsTest() {
			return true
		}
	}
	return false
}

func hasAsyncCode(unit *parser.SourceUnit) bool {
	return pattern.Any(unit, func(d *parser.Declaration, _ pattern.Context) bool {
		if d.IsAsync() {
			return true
		}
		for _, e := range d.Exprs {
			if e.Kind == parser.ExprAwait || e.Kind == parser.ExprAsyncBlock {
				return true
			}
		}
		return false
	})
}

// usesAsyncFS reports whether a bare `fs::` path refers to an async filesystem API.
func usesAsyncFS(unit *parser.SourceUnit) bool {
	return pattern.Any(unit, func(d *parser.Declaration, _ pattern.Context) bool {
		return d.Kind == parser.KindUse &&
			(strings.HasPrefix(d.Name, "tokio::fs") || strings.HasPrefix(d.Name, "async_std::fs"))
	})
}

var blockingMethods = pattern.MethodCall("blocking_recv", "blocking_send", "blocking_lock", "blocking_read", "blocking_write")

var blockingCalls = pattern.CallSuffix("thread::sleep", "block_on")

func blockingExpr(asyncFS bool) func(parser.Expr) bool {
	return func(e parser.Expr) bool {
		if blockingMethods(e) || blockingCalls(e) {
			return true
		}
		if e.Kind != parser.ExprCall {
			return false
		}
		switch {
		case strings.Contains(e.Name, "::blocking::"):
			return true
		case strings.HasPrefix(e.Name, "std::fs::"):
			return true
		case strings.HasPrefix(e.Name, "fs::"):
			return !asyncFS
		}
		return false
	}
}

var concurrencyMacros = pattern.Macro("join", "try_join", "select")

func awaitsSomething(d *parser.Declaration) bool {
	for _, e := range d.Exprs {
		if e.Kind == parser.ExprAwait || e.Kind == parser.ExprAsyncBlock || concurrencyMacros(e) {
			return true
		}
	}
	return false
}

func exprLabel(e parser.Expr) string {
	switch e.Kind {
	case parser.ExprMethodCall:
		return "." + e.Name + "()"
	case parser.ExprMacro:
		return e.Name + "!"
	default:
		return e.Name
	}
}

func identTokens(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return !(r == '_' || r >= '0' && r <= '9' || r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z')
	})
}

func joinLimited(items []string, limit int) string {
	if len(items) <= limit {
		return strings.Join(items, ", ")
	}
	return strings.Join(items[:limit], ", ") + ", ..."
}
