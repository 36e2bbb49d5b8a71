package pattern

import "github.com/arkaft-labs/arkaft-mcp-google-adk/internal/engine/parser"

// Context describes where a declaration sits during a walk.
type Context struct {
	Depth  int
	InTest bool
	// Impl is the nearest enclosing impl block, nil at other positions.
	Impl *parser.Declaration
	// Module is the nearest enclosing module, nil at crate level.
	Module *parser.Declaration
}

// Visitor returns false to skip the declaration's children.
type Visitor func(d *parser.Declaration, ctx Context) bool

// Walk visits every declaration depth-first in source order.
func Walk(unit *parser.SourceUnit, visit Visitor) {
	if unit == nil {
		return
	}
	root := Context{InTest: unitIsTest(unit)}
	for _, d := range unit.Declarations {
		walk(d, root, visit)
	}
}

func walk(d *parser.Declaration, ctx Context, visit Visitor) {
	if d.IsTest() {
		ctx.InTest = true
	}
	if !visit(d, ctx) {
		return
	}
	child := Context{Depth: ctx.Depth + 1, InTest: ctx.InTest, Impl: ctx.Impl, Module: ctx.Module}
	switch d.Kind {
	case parser.KindImpl:
		child.Impl = d
	case parser.KindModule:
		child.Module = d
		child.Impl = nil
	case parser.KindFunction:
		child.Impl = nil
	}
	for _, c := range d.Children {
		walk(c, child, visit)
	}
}

// unitIsTest reports a crate-level #![cfg(test)].
func unitIsTest(unit *parser.SourceUnit) bool {
	for _, a := range unit.InnerAttributes {
		if parser.IsTestAttribute(a) {
			return true
		}
	}
	return false
}

type Hit struct {
	Decl    *parser.Declaration
	Context Context
}

// Collect returns the declarations accepted by pred, in walk order.
func Collect(unit *parser.SourceUnit, pred func(*parser.Declaration, Context) bool) []Hit {
	var out []Hit
	Walk(unit, func(d *parser.Declaration, ctx Context) bool {
		if pred(d, ctx) {
			out = append(out, Hit{Decl: d, Context: ctx})
		}
		return true
	})
	return out
}

// Any reports whether pred accepts at least one declaration.
func Any(unit *parser.SourceUnit, pred func(*parser.Declaration, Context) bool) bool {
	found := false
	Walk(unit, func(d *parser.Declaration, ctx Context) bool {
		if found {
			return false
		}
		if pred(d, ctx) {
			found = true
			return false
		}
		return true
	})
	return found
}

// AnyExpr reports whether any declaration holds an expression accepted by pred.
func AnyExpr(unit *parser.SourceUnit, pred func(parser.Expr) bool) bool {
	return Any(unit, func(d *parser.Declaration, _ Context) bool {
		for _, e := range d.Exprs {
			if pred(e) {
				return true
			}
		}
		return false
	})
}
