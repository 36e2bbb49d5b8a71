package suggest

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/arkaft-labs/arkaft-mcp-google-adk/internal/engine/finding"
	"github.com/arkaft-labs/arkaft-mcp-google-adk/internal/engine/scoring"
	"github.com/arkaft-labs/arkaft-mcp-google-adk/internal/knowledge"
)

const GenericGuidance = "See the official documentation for this rule."

type group struct {
	ruleID   string
	key      string
	severity finding.Severity
	lines    []int
	count    int
}

// Format builds one recommendation per rule ID present in the report's
// findings, ordered by severity then first occurrence. Lookup misses fall
// back to generic text; any other provider error aborts with no output.
func Format(report scoring.Report, provider knowledge.Provider) ([]string, error) {
	groups := groupFindings(report.Findings)
	out := make([]string, 0, len(groups))
	for _, g := range groups {
		text, err := guidance(provider, g.key)
		if err != nil {
			return nil, fmt.Errorf("guidance for %s: %w", g.ruleID, err)
		}
		out = append(out, fmt.Sprintf("%s: %s (%s %s)", g.ruleID, text, plural(g.count, "occurrence"), where(g.lines)))
	}
	return out, nil
}

func guidance(provider knowledge.Provider, key string) (string, error) {
	if provider == nil {
		return GenericGuidance, nil
	}
	text, err := provider.GuidanceText(key)
	if errors.Is(err, knowledge.ErrLookupMiss) {
		if fb, ok := provider.(interface{ Fallback() string }); ok && fb.Fallback() != "" {
			return fb.Fallback(), nil
		}
		return GenericGuidance, nil
	}
	return text, err
}

func groupFindings(findings []finding.Finding) []*group {
	byRule := make(map[string]*group)
	var groups []*group
	for _, f := range findings {
		g := byRule[f.RuleID]
		if g == nil {
			key := f.GuidanceKey
			if key == "" {
				key = f.RuleID
			}
			g = &group{ruleID: f.RuleID, key: key}
			byRule[f.RuleID] = g
			groups = append(groups, g)
		}
		g.count++
		if f.Severity > g.severity {
			g.severity = f.Severity
		}
		g.lines = append(g.lines, f.Line)
	}
	for _, g := range groups {
		sort.Ints(g.lines)
		g.lines = uniqueInts(g.lines)
	}
	sort.SliceStable(groups, func(i, j int) bool {
		a, b := groups[i], groups[j]
		if a.severity != b.severity {
			return a.severity > b.severity
		}
		if len(a.lines) > 0 && len(b.lines) > 0 && a.lines[0] != b.lines[0] {
			return a.lines[0] < b.lines[0]
		}
		return a.ruleID < b.ruleID
	})
	return groups
}

// where describes source lines. Line 0 marks a finding raised from the
// request description rather than from code.
func where(lines []int) string {
	var code []int
	described := false
	for _, l := range lines {
		if l <= 0 {
			described = true
			continue
		}
		code = append(code, l)
	}
	var parts []string
	if len(code) > 0 {
		parts = append(parts, "at "+pluralWord(len(code), "line")+" "+joinInts(code))
	}
	if described {
		parts = append(parts, "in the description")
	}
	return strings.Join(parts, " and ")
}

func uniqueInts(in []int) []int {
	out := in[:0]
	for i, v := range in {
		if i == 0 || v != in[i-1] {
			out = append(out, v)
		}
	}
	return out
}

func joinInts(values []int) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = strconv.Itoa(v)
	}
	return strings.Join(parts, ", ")
}

func plural(n int, word string) string {
	return strconv.Itoa(n) + " " + pluralWord(n, word)
}

func pluralWord(n int, word string) string {
	if n == 1 {
		return word
	}
	return word + "s"
}
