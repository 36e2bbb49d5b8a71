package parser

import (
	"strconv"
	"strings"
	"unicode"

	sitter "github.com/tree-sitter/go-tree-sitter"
)

const snippetLimit = 120

// builder converts tree-sitter nodes into Declarations. Children are owned by
// value so the resulting tree has no back references.
type builder struct {
	src []byte
}

func (b *builder) text(n *sitter.Node) string {
	if n == nil {
		return ""
	}
	return string(b.src[n.StartByte():n.EndByte()])
}

func (b *builder) location(n *sitter.Node) Location {
	pos := n.StartPosition()
	return Location{Line: int(pos.Row) + 1, Column: int(pos.Column) + 1}
}

func (b *builder) endLocation(n *sitter.Node) Location {
	pos := n.EndPosition()
	return Location{Line: int(pos.Row) + 1, Column: int(pos.Column) + 1}
}

// declaration returns nil for nodes that are not one of the tracked item kinds.
func (b *builder) declaration(n *sitter.Node) *Declaration {
	if n == nil {
		return nil
	}
	var d *Declaration
	switch n.Kind() {
	case "function_item", "function_signature_item":
		d = b.function(n)
	case "struct_item":
		d = b.structItem(n)
	case "enum_item":
		d = b.enumItem(n)
	case "trait_item":
		d = &Declaration{Kind: KindTrait, Name: b.text(n.ChildByFieldName("name"))}
		b.members(n.ChildByFieldName("body"), d)
	case "impl_item":
		d = &Declaration{
			Kind:      KindImpl,
			ImplTrait: compact(b.text(n.ChildByFieldName("trait")), 0),
			ImplType:  compact(b.text(n.ChildByFieldName("type")), 0),
		}
		d.Name = d.ImplType
		b.members(n.ChildByFieldName("body"), d)
	case "mod_item":
		d = &Declaration{Kind: KindModule, Name: b.text(n.ChildByFieldName("name"))}
		b.members(n.ChildByFieldName("body"), d)
	case "const_item":
		d = &Declaration{Kind: KindConst, Name: b.text(n.ChildByFieldName("name"))}
		b.walk(n.ChildByFieldName("value"), d, false)
	case "static_item":
		d = &Declaration{Kind: KindStatic, Name: b.text(n.ChildByFieldName("name"))}
		if hasKind(n, "mutable_specifier", 1) {
			d.Modifiers = append(d.Modifiers, "mut")
		}
		b.walk(n.ChildByFieldName("value"), d, false)
	case "use_declaration":
		arg := n.ChildByFieldName("argument")
		d = &Declaration{
			Kind: KindUse,
			Name: stripSpace(b.text(arg)),
			Glob: hasKind(arg, "use_wildcard", -1),
		}
	default:
		return nil
	}

	d.Visibility = b.visibility(n)
	start := b.leading(n, d)
	d.Span = Span{
		StartByte: int(start.StartByte()),
		EndByte:   int(n.EndByte()),
		Start:     b.location(start),
		End:       b.endLocation(n),
	}
	return d
}

// leading attaches the outer attributes and doc comments that precede n and
// returns the node the declaration span starts at.
func (b *builder) leading(n *sitter.Node, d *Declaration) *sitter.Node {
	start := n
	var attrs []Expr
loop:
	for prev := n.PrevSibling(); prev != nil; prev = prev.PrevSibling() {
		switch prev.Kind() {
		case "attribute_item":
			attrs = append(attrs, b.attribute(prev))
			start = prev
		case "line_comment", "block_comment":
			if isOuterDoc(b.text(prev)) {
				d.Documented = true
			}
		default:
			break loop
		}
	}
	for i := len(attrs) - 1; i >= 0; i-- {
		if attrs[i].Name == "doc" {
			d.Documented = true
		}
		d.Attributes = append(d.Attributes, attrs[i])
	}
	return start
}

func (b *builder) function(n *sitter.Node) *Declaration {
	d := &Declaration{
		Kind:       KindFunction,
		Name:       b.text(n.ChildByFieldName("name")),
		ReturnType: compact(b.text(n.ChildByFieldName("return_type")), 0),
	}
	for i := uint(0); i < n.ChildCount(); i++ {
		child := n.Child(i)
		if child.Kind() != "function_modifiers" {
			continue
		}
		for j := uint(0); j < child.ChildCount(); j++ {
			mod := child.Child(j)
			if mod.Kind() == "extern_modifier" {
				d.Modifiers = append(d.Modifiers, "extern")
				continue
			}
			d.Modifiers = append(d.Modifiers, b.text(mod))
		}
	}
	if params := n.ChildByFieldName("parameters"); params != nil {
		for i := uint(0); i < params.NamedChildCount(); i++ {
			switch params.NamedChild(i).Kind() {
			case "self_parameter":
				d.HasSelf = true
			case "parameter", "variadic_parameter", "_":
				d.ParamCount++
			}
		}
	}
	if body := n.ChildByFieldName("body"); body != nil {
		d.HasBody = true
		b.walk(body, d, false)
	}
	return d
}

func (b *builder) structItem(n *sitter.Node) *Declaration {
	d := &Declaration{Kind: KindStruct, Name: b.text(n.ChildByFieldName("name"))}
	body := n.ChildByFieldName("body")
	if body == nil {
		return d
	}
	switch body.Kind() {
	case "field_declaration_list":
		for i := uint(0); i < body.NamedChildCount(); i++ {
			field := body.NamedChild(i)
			if field.Kind() != "field_declaration" {
				continue
			}
			d.Fields = append(d.Fields, Field{
				Name:   b.text(field.ChildByFieldName("name")),
				Public: b.visibility(field) == "pub",
			})
		}
	case "ordered_field_declaration_list":
		public := false
		for i := uint(0); i < body.NamedChildCount(); i++ {
			child := body.NamedChild(i)
			switch child.Kind() {
			case "visibility_modifier":
				public = stripSpace(b.text(child)) == "pub"
			case "attribute_item", "line_comment", "block_comment":
			default:
				d.Fields = append(d.Fields, Field{Name: strconv.Itoa(len(d.Fields)), Public: public})
				public = false
			}
		}
	}
	return d
}

func (b *builder) enumItem(n *sitter.Node) *Declaration {
	d := &Declaration{Kind: KindEnum, Name: b.text(n.ChildByFieldName("name"))}
	body := n.ChildByFieldName("body")
	if body == nil {
		return d
	}
	for i := uint(0); i < body.NamedChildCount(); i++ {
		variant := body.NamedChild(i)
		if variant.Kind() == "enum_variant" {
			d.Variants = append(d.Variants, b.text(variant.ChildByFieldName("name")))
		}
	}
	return d
}

// members fills d from a declaration_list body (impl, trait, mod).
func (b *builder) members(body *sitter.Node, d *Declaration) {
	if body == nil {
		return
	}
	for i := uint(0); i < body.ChildCount(); i++ {
		child := body.Child(i)
		switch child.Kind() {
		case "inner_attribute_item":
			attr := b.attribute(child)
			if attr.Name == "doc" {
				d.Documented = true
			}
			d.Attributes = append(d.Attributes, attr)
		case "line_comment", "block_comment":
			if isInnerDoc(b.text(child)) {
				d.Documented = true
			}
		default:
			b.walk(child, d, false)
		}
	}
}

func (b *builder) attribute(n *sitter.Node) Expr {
	attr := n
	for i := uint(0); i < n.NamedChildCount(); i++ {
		if child := n.NamedChild(i); child.Kind() == "attribute" {
			attr = child
			break
		}
	}
	name := ""
	if attr.NamedChildCount() > 0 {
		name = stripSpace(b.text(attr.NamedChild(0)))
	}
	return Expr{
		Kind:     ExprAttribute,
		Name:     name,
		Text:     stripSpace(b.text(attr)),
		Location: b.location(n),
	}
}

func (b *builder) visibility(n *sitter.Node) string {
	for i := uint(0); i < n.ChildCount(); i++ {
		if child := n.Child(i); child.Kind() == "visibility_modifier" {
			return stripSpace(b.text(child))
		}
	}
	return ""
}

// hasKind reports whether a node of the given kind occurs under n, searching
// at most depth levels (negative for unbounded).
func hasKind(n *sitter.Node, kind string, depth int) bool {
	if n == nil {
		return false
	}
	if n.Kind() == kind {
		return true
	}
	if depth == 0 {
		return false
	}
	for i := uint(0); i < n.ChildCount(); i++ {
		if hasKind(n.Child(i), kind, depth-1) {
			return true
		}
	}
	return false
}

func isOuterDoc(comment string) bool {
	switch {
	case strings.HasPrefix(comment, "////"):
		return false
	case strings.HasPrefix(comment, "///"):
		return true
	case comment == "/**/" || strings.HasPrefix(comment, "/***"):
		return false
	default:
		return strings.HasPrefix(comment, "/**")
	}
}

func isInnerDoc(comment string) bool {
	return strings.HasPrefix(comment, "//!") || strings.HasPrefix(comment, "/*!")
}

// compact collapses whitespace runs and truncates to limit bytes when limit > 0.
func compact(s string, limit int) string {
	s = strings.Join(strings.Fields(s), " ")
	if limit > 0 && len(s) > limit {
		cut := limit
		for cut > 0 && !utf8Start(s[cut]) {
			cut--
		}
		s = s[:cut] + "..."
	}
	return s
}

func utf8Start(c byte) bool {
	return c&0xC0 != 0x80
}

func stripSpace(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
}
