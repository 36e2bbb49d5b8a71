// # internal/engine/parser/parser.go
package parser

import (
	"bytes"
	"sync"

	sitter "github.com/tree-sitter/go-tree-sitter"
)

// Parser turns Rust source into a SourceUnit. It holds no per-call state.
type Parser struct {
	pool *ParserPool
}

func NewParser() *Parser {
	return &Parser{pool: NewParserPool(RustLanguage())}
}

var (
	defaultParser     *Parser
	defaultParserOnce sync.Once
)

// Parse parses source with a process-wide Parser.
func Parse(source []byte) (*SourceUnit, error) {
	defaultParserOnce.Do(func() {
		defaultParser = NewParser()
	})
	return defaultParser.Parse(source)
}

// Parse fails atomically: any syntax error yields a *ParseError and no unit.
func (p *Parser) Parse(source []byte) (*SourceUnit, error) {
	if len(bytes.TrimSpace(source)) == 0 {
		return nil, &ParseError{Kind: ParseErrorEmpty}
	}

	sp := p.pool.Get()
	defer p.pool.Put(sp)

	tree := sp.Parse(source, nil)
	if tree == nil {
		return nil, &ParseError{Kind: ParseErrorSyntax, Line: 1, Column: 1}
	}
	defer tree.Close()

	root := tree.RootNode()
	if root.HasError() {
		return nil, syntaxError(root, source)
	}

	b := &builder{src: source}
	unit := &SourceUnit{Lines: lineIndex(source)}
	for i := uint(0); i < root.ChildCount(); i++ {
		child := root.Child(i)
		switch child.Kind() {
		case "inner_attribute_item":
			attr := b.attribute(child)
			unit.InnerAttributes = append(unit.InnerAttributes, attr)
			if attr.Name == "doc" {
				unit.InnerDocs = true
			}
		case "line_comment", "block_comment":
			if isInnerDoc(b.text(child)) {
				unit.InnerDocs = true
			}
		default:
			if decl := b.declaration(child); decl != nil {
				unit.Declarations = append(unit.Declarations, decl)
			}
		}
	}
	return unit, nil
}

func syntaxError(root *sitter.Node, src []byte) *ParseError {
	n := firstError(root)
	if n == nil {
		n = root
	}
	if n.IsError() {
		if missing := deepestMissing(n); missing != nil {
			n = missing
		}
	}
	pos := n.StartPosition()
	if n.IsError() && n.ChildCount() > 1 && reachesEnd(n, src) {
		// An unterminated item: the problem is where the input stops.
		pos = n.EndPosition()
	}
	perr := &ParseError{
		Kind:   ParseErrorSyntax,
		Line:   int(pos.Row) + 1,
		Column: int(pos.Column) + 1,
	}
	if n.IsMissing() {
		perr.Token = n.Kind()
	} else {
		perr.Token = compact(string(src[n.StartByte():n.EndByte()]), 24)
	}
	return perr
}

// deepestMissing returns the innermost MISSING node under n, or nil.
func deepestMissing(n *sitter.Node) *sitter.Node {
	var found *sitter.Node
	for i := uint(0); i < n.ChildCount(); i++ {
		child := n.Child(i)
		if child == nil {
			continue
		}
		if deeper := deepestMissing(child); deeper != nil {
			return deeper
		}
		if child.IsMissing() && found == nil {
			found = child
		}
	}
	return found
}

func reachesEnd(n *sitter.Node, src []byte) bool {
	return int(n.EndByte()) >= len(bytes.TrimRight(src, " \t\r\n"))
}

// firstError returns the first ERROR or MISSING node in document order.
func firstError(n *sitter.Node) *sitter.Node {
	if n == nil {
		return nil
	}
	if n.IsError() || n.IsMissing() {
		return n
	}
	if !n.HasError() {
		return nil
	}
	for i := uint(0); i < n.ChildCount(); i++ {
		if found := firstError(n.Child(i)); found != nil {
			return found
		}
	}
	return nil
}
