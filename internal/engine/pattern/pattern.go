// # internal/engine/pattern/pattern.go
package pattern

import (
	"strings"

	"github.com/arkaft-labs/arkaft-mcp-google-adk/internal/engine/finding"
	"github.com/arkaft-labs/arkaft-mcp-google-adk/internal/engine/parser"
)

// Rule is a declarative check over the expressions of a declaration.
// Message may use {name}, {decl} and {text} placeholders.
type Rule struct {
	ID           string
	Category     string
	Kinds        []parser.DeclKind
	Match        func(parser.Expr) bool
	Message      string
	Remediation  string
	Severity     finding.Severity
	TestSeverity finding.Severity
	GuidanceKey  string
}

func (r Rule) accepts(kind parser.DeclKind) bool {
	if len(r.Kinds) == 0 {
		return true
	}
	for _, k := range r.Kinds {
		if k == kind {
			return true
		}
	}
	return false
}

func (r Rule) severity(inTest bool) finding.Severity {
	if inTest && r.TestSeverity != 0 {
		return r.TestSeverity
	}
	return r.Severity
}

// Match applies rules to every declaration in depth-first pre-order. Output
// order follows the tree, then rule order within a declaration.
func Match(unit *parser.SourceUnit, rules []Rule) []finding.Finding {
	var out []finding.Finding
	Walk(unit, func(d *parser.Declaration, ctx Context) bool {
		for _, e := range d.Exprs {
			for _, rule := range rules {
				if !rule.accepts(d.Kind) || rule.Match == nil || !rule.Match(e) {
					continue
				}
				out = append(out, finding.Finding{
					RuleID:      rule.ID,
					Category:    rule.Category,
					Severity:    rule.severity(ctx.InTest),
					Line:        e.Location.Line,
					Column:      e.Location.Column,
					Message:     render(rule.Message, d, e),
					Remediation: rule.Remediation,
					GuidanceKey: rule.GuidanceKey,
				})
			}
		}
		return true
	})
	return out
}

func render(template string, d *parser.Declaration, e parser.Expr) string {
	declName := d.Name
	if declName == "" {
		declName = string(d.Kind)
	}
	return strings.NewReplacer("{name}", e.Name, "{decl}", declName, "{text}", e.Text).Replace(template)
}
