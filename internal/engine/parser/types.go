// # internal/engine/parser/types.go
package parser

import (
	"sort"
	"strings"
)

type DeclKind string

const (
	KindFunction DeclKind = "function"
	KindStruct   DeclKind = "struct"
	KindEnum     DeclKind = "enum"
	KindTrait    DeclKind = "trait"
	KindImpl     DeclKind = "impl"
	KindModule   DeclKind = "module"
	KindConst    DeclKind = "const"
	KindStatic   DeclKind = "static"
	KindUse      DeclKind = "use"
)

type ExprKind string

const (
	ExprCall       ExprKind = "call"
	ExprMethodCall ExprKind = "method_call"
	ExprMacro      ExprKind = "macro"
	ExprAttribute  ExprKind = "attribute"
	ExprAwait      ExprKind = "await"
	ExprAsyncBlock ExprKind = "async_block"
)

// Location is a 1-based line/column pair.
type Location struct {
	Line   int
	Column int
}

type Span struct {
	StartByte int
	EndByte   int
	Start     Location
	End       Location
}

// Contains reports whether other lies entirely within s.
func (s Span) Contains(other Span) bool {
	return other.StartByte >= s.StartByte && other.EndByte <= s.EndByte
}

type Expr struct {
	Kind     ExprKind
	Name     string // call path, method name, macro name, or attribute path
	Text     string // compacted source text
	Location Location
	InAsync  bool // lexically inside an async block or async closure
}

type Field struct {
	Name   string
	Public bool
}

type Declaration struct {
	Kind       DeclKind
	Name       string
	Visibility string // "" when private, otherwise e.g. "pub", "pub(crate)"
	Modifiers  []string
	Span       Span
	Children   []*Declaration
	Exprs      []Expr
	Attributes []Expr
	Documented bool

	// Function shape.
	ReturnType string
	ParamCount int
	HasSelf    bool
	HasBody    bool

	// Impl blocks.
	ImplTrait string
	ImplType  string

	// Structs and enums.
	Fields   []Field
	Variants []string

	// Use declarations.
	Glob bool
}

func (d *Declaration) IsPublic() bool {
	return d.Visibility == "pub"
}

func (d *Declaration) HasModifier(mod string) bool {
	for _, m := range d.Modifiers {
		if m == mod {
			return true
		}
	}
	return false
}

func (d *Declaration) IsAsync() bool {
	return d.Kind == KindFunction && d.HasModifier("async")
}

// HasAttribute reports whether an outer attribute with the given path is present.
func (d *Declaration) HasAttribute(path string) bool {
	for _, a := range d.Attributes {
		if a.Name == path {
			return true
		}
	}
	return false
}

// Derives lists the trait names from #[derive(...)] attributes, without paths.
func (d *Declaration) Derives() []string {
	var out []string
	for _, a := range d.Attributes {
		if a.Name != "derive" {
			continue
		}
		open := strings.IndexByte(a.Text, '(')
		close := strings.LastIndexByte(a.Text, ')')
		if open < 0 || close <= open {
			continue
		}
		for _, part := range strings.Split(a.Text[open+1:close], ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			out = append(out, LastSegment(part))
		}
	}
	return out
}

// IsTest reports whether the declaration itself is marked as test code.
func (d *Declaration) IsTest() bool {
	for _, a := range d.Attributes {
		if IsTestAttribute(a) {
			return true
		}
	}
	return false
}

var testAttributes = map[string]bool{
	"test":            true,
	"tokio::test":     true,
	"async_std::test": true,
	"rstest":          true,
	"rstest::rstest":  true,
}

func IsTestAttribute(a Expr) bool {
	if a.Kind != ExprAttribute {
		return false
	}
	if testAttributes[a.Name] {
		return true
	}
	if a.Name != "cfg" {
		return false
	}
	return cfgRequiresTest(a.Text)
}

// cfgRequiresTest reports whether a cfg attribute gates its item on the
// bare `test` predicate, directly or as an argument of all()/any(). Anything
// under not() and the values of key = "value" pairs never count.
func cfgRequiresTest(text string) bool {
	inner, ok := strings.CutPrefix(strings.TrimSpace(text), "cfg")
	if !ok {
		return false
	}
	p := &cfgParser{toks: tokenizeCfg(inner)}
	if p.next() != "(" {
		return false
	}
	return p.predicate()
}

type cfgParser struct {
	toks []string
	pos  int
}

func (p *cfgParser) peek() string {
	if p.pos >= len(p.toks) {
		return ""
	}
	return p.toks[p.pos]
}

func (p *cfgParser) next() string {
	tok := p.peek()
	if tok != "" {
		p.pos++
	}
	return tok
}

func (p *cfgParser) predicate() bool {
	switch tok := p.next(); tok {
	case "all", "any":
		if p.next() != "(" {
			return false
		}
		found := false
		for p.peek() != ")" && p.peek() != "" {
			if p.predicate() {
				found = true
			}
			if p.peek() == "," {
				p.next()
			}
		}
		p.next()
		return found
	case "not":
		if p.next() != "(" {
			return false
		}
		p.predicate()
		p.next()
		return false
	case "", "(", ")", ",", "=":
		return false
	default:
		if p.peek() == "=" {
			p.next()
			p.next()
			return false
		}
		return tok == "test"
	}
}

// tokenizeCfg splits a cfg predicate into identifiers, punctuation and whole
// string literals, so words inside literals never read as identifiers.
func tokenizeCfg(s string) []string {
	var toks []string
	for i := 0; i < len(s); {
		c := s[i]
		switch {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			i++
		case c == '(' || c == ')' || c == ',' || c == '=':
			toks = append(toks, string(c))
			i++
		case c == '"':
			j := i + 1
			for j < len(s) && s[j] != '"' {
				if s[j] == '\\' {
					j++
				}
				j++
			}
			toks = append(toks, s[i:min(j+1, len(s))])
			i = j + 1
		default:
			j := i
			for j < len(s) && !strings.ContainsRune(" \t\n\r(),=\"", rune(s[j])) {
				j++
			}
			toks = append(toks, s[i:j])
			i = j
		}
	}
	return toks
}

type SourceUnit struct {
	Declarations    []*Declaration
	Lines           []int // byte offset of each line start
	InnerDocs       bool
	InnerAttributes []Expr
}

// LineOf maps a byte offset to its 1-based line.
func (u *SourceUnit) LineOf(offset int) int {
	if len(u.Lines) == 0 {
		return 1
	}
	i := sort.Search(len(u.Lines), func(i int) bool { return u.Lines[i] > offset })
	if i == 0 {
		return 1
	}
	return i
}

func (u *SourceUnit) LineCount() int {
	return len(u.Lines)
}

func lineIndex(src []byte) []int {
	lines := []int{0}
	for i, b := range src {
		if b == '\n' && i+1 < len(src) {
			lines = append(lines, i+1)
		}
	}
	return lines
}

// LastSegment returns the final element of a `::` separated path.
func LastSegment(path string) string {
	if idx := strings.LastIndex(path, "::"); idx >= 0 {
		return path[idx+2:]
	}
	return path
}
