package architecture

import (
	"strings"

	"github.com/arkaft-labs/arkaft-mcp-google-adk/internal/engine/finding"
)

// DescriptionRule flags a design description that mentions a phrase. Findings
// from these rules carry line 0 because they do not point into source.
type DescriptionRule struct {
	ID          string
	Category    string
	Name        string
	Phrase      string
	Severity    finding.Severity
	Message     string
	Remediation string
}

func (r DescriptionRule) GuidanceKey() string {
	return "architecture." + r.ID
}

func DescriptionRules() []DescriptionRule {
	return []DescriptionRule{
		{
			ID:          "description-nonstandard-structure",
			Category:    CategoryModuleBoundary,
			Name:        "Project structure",
			Phrase:      "non-standard",
			Severity:    finding.SeverityWarning,
			Message:     "description mentions a non-standard project structure",
			Remediation: "Follow the standard ADK project layout for agents, tools and configuration.",
		},
		{
			ID:          "description-blocking-operations",
			Category:    CategoryAsyncUsage,
			Name:        "Async pattern usage",
			Phrase:      "blocking operations",
			Severity:    finding.SeverityConcern,
			Message:     "description mentions blocking operations",
			Remediation: "Use async equivalents or move blocking work onto spawn_blocking.",
		},
		{
			ID:          "description-panic-handling",
			Category:    CategoryErrorHandling,
			Name:        "Error handling patterns",
			Phrase:      "panic",
			Severity:    finding.SeverityConcern,
			Message:     "description relies on panics for error handling",
			Remediation: "Return Result values and propagate errors with `?` instead of panicking.",
		},
	}
}

// CheckDescription matches text against DescriptionRules, ignoring case.
// Each rule reports at most once.
func CheckDescription(text, category string) []finding.Finding {
	lower := strings.ToLower(text)
	if strings.TrimSpace(lower) == "" {
		return nil
	}
	var out []finding.Finding
	for _, r := range DescriptionRules() {
		if category != "" && r.Category != category {
			continue
		}
		if !strings.Contains(lower, r.Phrase) {
			continue
		}
		out = append(out, finding.Finding{
			RuleID:      r.ID,
			Category:    r.Category,
			Severity:    r.Severity,
			Message:     r.Message,
			Remediation: r.Remediation,
			GuidanceKey: r.GuidanceKey(),
		})
	}
	return out
}
