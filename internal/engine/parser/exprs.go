package parser

import (
	"strings"

	sitter "github.com/tree-sitter/go-tree-sitter"
)

// walk records the notable expressions under n into d. Nested items become
// children of d instead of contributing expressions.
func (b *builder) walk(n *sitter.Node, d *Declaration, inAsync bool) {
	if n == nil {
		return
	}
	switch n.Kind() {
	case "attribute_item", "inner_attribute_item", "line_comment", "block_comment", "macro_definition":
		return
	}
	if child := b.declaration(n); child != nil {
		d.Children = append(d.Children, child)
		return
	}

	switch n.Kind() {
	case "call_expression":
		b.call(n, d, inAsync)
	case "macro_invocation":
		name := stripSpace(b.text(n.ChildByFieldName("macro")))
		d.Exprs = append(d.Exprs, Expr{
			Kind:     ExprMacro,
			Name:     LastSegment(name),
			Text:     compact(b.text(n), snippetLimit),
			Location: b.location(n),
			InAsync:  inAsync,
		})
		for i := uint(0); i < n.ChildCount(); i++ {
			if child := n.Child(i); child.Kind() == "token_tree" {
				b.tokenTree(child, d, inAsync)
			}
		}
		return
	case "await_expression":
		at := n
		if last := n.Child(n.ChildCount() - 1); last != nil {
			at = last
		}
		d.Exprs = append(d.Exprs, Expr{
			Kind:     ExprAwait,
			Name:     "await",
			Text:     compact(b.text(n), snippetLimit),
			Location: b.location(at),
			InAsync:  inAsync,
		})
	case "async_block":
		d.Exprs = append(d.Exprs, Expr{
			Kind:     ExprAsyncBlock,
			Name:     "async",
			Text:     compact(b.text(n), snippetLimit),
			Location: b.location(n),
			InAsync:  inAsync,
		})
		inAsync = true
	case "closure_expression":
		if isAsyncClosure(n) {
			inAsync = true
		}
	}

	for i := uint(0); i < n.ChildCount(); i++ {
		b.walk(n.Child(i), d, inAsync)
	}
}

func (b *builder) call(n *sitter.Node, d *Declaration, inAsync bool) {
	fn := n.ChildByFieldName("function")
	if fn != nil && fn.Kind() == "generic_function" {
		fn = fn.ChildByFieldName("function")
	}
	if fn == nil {
		return
	}
	if fn.Kind() == "field_expression" {
		field := fn.ChildByFieldName("field")
		if field == nil {
			return
		}
		d.Exprs = append(d.Exprs, Expr{
			Kind:     ExprMethodCall,
			Name:     b.text(field),
			Text:     compact(b.text(n), snippetLimit),
			Location: b.location(field),
			InAsync:  inAsync,
		})
		return
	}
	d.Exprs = append(d.Exprs, Expr{
		Kind:     ExprCall,
		Name:     stripSpace(b.text(fn)),
		Text:     compact(b.text(n), snippetLimit),
		Location: b.location(n),
		InAsync:  inAsync,
	})
}

// tokenTree recovers method calls and nested macros from a macro's raw token
// stream, where the grammar does not build expression nodes.
func (b *builder) tokenTree(n *sitter.Node, d *Declaration, inAsync bool) {
	count := n.ChildCount()
	for i := uint(0); i < count; i++ {
		child := n.Child(i)
		if child.Kind() == "token_tree" {
			b.tokenTree(child, d, inAsync)
			continue
		}
		if child.Kind() == "await" && i > 0 && n.Child(i-1).Kind() == "." {
			d.Exprs = append(d.Exprs, Expr{
				Kind:     ExprAwait,
				Name:     "await",
				Text:     ".await",
				Location: b.location(child),
				InAsync:  inAsync,
			})
			continue
		}
		if child.Kind() != "identifier" || i+1 >= count {
			continue
		}
		next := n.Child(i + 1)
		switch {
		case i > 0 && n.Child(i-1).Kind() == "." && next.Kind() == "token_tree" && strings.HasPrefix(b.text(next), "("):
			d.Exprs = append(d.Exprs, Expr{
				Kind:     ExprMethodCall,
				Name:     b.text(child),
				Text:     compact(b.text(child)+b.text(next), snippetLimit),
				Location: b.location(child),
				InAsync:  inAsync,
			})
		case next.Kind() == "!" && i+2 < count && n.Child(i+2).Kind() == "token_tree":
			d.Exprs = append(d.Exprs, Expr{
				Kind:     ExprMacro,
				Name:     b.text(child),
				Text:     compact(b.text(child)+"!"+b.text(n.Child(i+2)), snippetLimit),
				Location: b.location(child),
				InAsync:  inAsync,
			})
		}
	}
}

func isAsyncClosure(n *sitter.Node) bool {
	for i := uint(0); i < n.ChildCount(); i++ {
		switch n.Child(i).Kind() {
		case "async":
			return true
		case "closure_parameters":
			return false
		}
	}
	return false
}
