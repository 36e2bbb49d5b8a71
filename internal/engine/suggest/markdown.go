package suggest

import (
	"fmt"
	"strings"

	"github.com/arkaft-labs/arkaft-mcp-google-adk/internal/engine/architecture"
	"github.com/arkaft-labs/arkaft-mcp-google-adk/internal/engine/finding"
	"github.com/arkaft-labs/arkaft-mcp-google-adk/internal/engine/scoring"
	"github.com/arkaft-labs/arkaft-mcp-google-adk/internal/shared/util"
)

type Summary struct {
	Path        string
	Report      scoring.Report
	References  map[string][]string
	DocsVersion string
}

// Markdown renders a full review report.
func Markdown(s Summary) string {
	var sb strings.Builder
	sb.WriteString("# Rust File Review Results\n\n")
	if s.Path != "" {
		fmt.Fprintf(&sb, "**File:** `%s`\n\n", s.Path)
	}
	fmt.Fprintf(&sb, "**Compliance score:** %d/100\n\n", s.Report.Overall)

	if len(s.Report.Categories) > 0 {
		sb.WriteString("## Category Scores\n\n| Category | Score | Failed rules |\n|---|---:|---:|\n")
		for _, c := range s.Report.Categories {
			fmt.Fprintf(&sb, "| %s | %d | %d/%d |\n", c.Category, c.Score, c.Failed, c.Rules)
		}
		sb.WriteString("\n")
	}

	var translation, arch []finding.Finding
	for _, f := range s.Report.Findings {
		if architecture.IsCategory(f.Category) {
			arch = append(arch, f)
		} else {
			translation = append(translation, f)
		}
	}
	writeFindings(&sb, "Translation Concerns", translation)
	writeFindings(&sb, "Architectural Improvements", arch)

	if len(s.Report.Findings) == 0 {
		sb.WriteString("No issues found. The code appears to follow good practices.\n\n")
	}

	if len(s.Report.Recommendations) > 0 {
		sb.WriteString("## Recommendations\n\n")
		for _, r := range s.Report.Recommendations {
			fmt.Fprintf(&sb, "- %s\n", r)
		}
		sb.WriteString("\n")
	}

	if len(s.References) > 0 {
		sb.WriteString("## References\n\n")
		for _, category := range util.SortedStringKeys(s.References) {
			for _, url := range s.References[category] {
				fmt.Fprintf(&sb, "- %s: [%s](%s)\n", category, url, url)
			}
		}
		sb.WriteString("\n")
	}
	if s.DocsVersion != "" {
		fmt.Fprintf(&sb, "*Guidance based on documentation version %s*\n", s.DocsVersion)
	}
	return sb.String()
}

func writeFindings(sb *strings.Builder, title string, findings []finding.Finding) {
	if len(findings) == 0 {
		return
	}
	fmt.Fprintf(sb, "## %s\n\n", title)
	for _, f := range findings {
		if f.Line > 0 {
			fmt.Fprintf(sb, "**Line %d** [%s] `%s`: %s\n", f.Line, f.Severity, f.RuleID, f.Message)
		} else {
			fmt.Fprintf(sb, "**Description** [%s] `%s`: %s\n", f.Severity, f.RuleID, f.Message)
		}
		if f.Remediation != "" {
			fmt.Fprintf(sb, "*Suggestion*: %s\n", f.Remediation)
		}
		sb.WriteString("\n")
	}
}
