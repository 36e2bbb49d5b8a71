package finding

import (
	"fmt"
	"sort"
	"strings"
)

// Severity orders findings; the zero value means "not set".
type Severity int

const (
	SeverityInfo Severity = iota + 1
	SeverityWarning
	SeverityConcern
)

func (s Severity) String() string {
	switch s {
	case SeverityInfo:
		return "info"
	case SeverityWarning:
		return "warning"
	case SeverityConcern:
		return "concern"
	default:
		return "unset"
	}
}

func ParseSeverity(raw string) (Severity, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "info":
		return SeverityInfo, nil
	case "warning":
		return SeverityWarning, nil
	case "concern":
		return SeverityConcern, nil
	}
	return 0, fmt.Errorf("unknown severity %q", raw)
}

func (s Severity) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *Severity) UnmarshalText(text []byte) error {
	parsed, err := ParseSeverity(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// Finding is one reported issue. Column is zero when unknown.
type Finding struct {
	RuleID      string   `json:"rule_id"`
	Category    string   `json:"category"`
	Severity    Severity `json:"severity"`
	Line        int      `json:"line"`
	Column      int      `json:"column,omitempty"`
	Message     string   `json:"message"`
	Remediation string   `json:"remediation,omitempty"`
	GuidanceKey string   `json:"-"`
}

// Sort orders findings by severity descending, then line, column and rule ID.
func Sort(findings []Finding) {
	sort.SliceStable(findings, func(i, j int) bool {
		a, b := findings[i], findings[j]
		if a.Severity != b.Severity {
			return a.Severity > b.Severity
		}
		if a.Line != b.Line {
			return a.Line < b.Line
		}
		if a.Column != b.Column {
			return a.Column < b.Column
		}
		return a.RuleID < b.RuleID
	})
}

func CountSeverity(findings []Finding, sev Severity) int {
	n := 0
	for _, f := range findings {
		if f.Severity == sev {
			n++
		}
	}
	return n
}
