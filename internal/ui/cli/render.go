package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"

	"github.com/arkaft-labs/arkaft-mcp-google-adk/internal/core/ports"
	"github.com/arkaft-labs/arkaft-mcp-google-adk/internal/engine/review"
)

const defaultWrapWidth = 100

type styles struct {
	title   lipgloss.Style
	good    lipgloss.Style
	warn    lipgloss.Style
	bad     lipgloss.Style
	muted   lipgloss.Style
	concern lipgloss.Style
	warning lipgloss.Style
	info    lipgloss.Style
}

func newStyles(r *lipgloss.Renderer) styles {
	return styles{
		title:   r.NewStyle().Foreground(lipgloss.Color("#3B82F6")).Bold(true),
		good:    r.NewStyle().Foreground(lipgloss.Color("#10B981")).Bold(true),
		warn:    r.NewStyle().Foreground(lipgloss.Color("#FBBF24")).Bold(true),
		bad:     r.NewStyle().Foreground(lipgloss.Color("#F87171")).Bold(true),
		muted:   r.NewStyle().Foreground(lipgloss.Color("#64748B")).Italic(true),
		concern: r.NewStyle().Foreground(lipgloss.Color("#F87171")),
		warning: r.NewStyle().Foreground(lipgloss.Color("#FBBF24")),
		info:    r.NewStyle().Foreground(lipgloss.Color("#64748B")),
	}
}

// renderer writes batch results in one of the CLI formats. Markdown goes
// through glamour only when out is a terminal.
type renderer struct {
	format string
	out    io.Writer
	tty    bool
	width  int
	styles styles
}

func newRenderer(format string, out io.Writer) *renderer {
	r := &renderer{format: format, out: out, width: defaultWrapWidth}
	if f, ok := out.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		r.tty = true
		if w, _, err := term.GetSize(int(f.Fd())); err == nil && w > 0 {
			r.width = w
		}
	}
	r.styles = newStyles(lipgloss.NewRenderer(out))
	return r
}

type fileReport struct {
	Path   string                 `json:"path"`
	Review *review.ReviewResponse `json:"review,omitempty"`
	Error  string                 `json:"error,omitempty"`
}

func (r *renderer) Render(results []ports.FileResult) error {
	switch r.format {
	case formatJSON:
		return r.renderJSON(results)
	case formatMarkdown:
		return r.renderMarkdown(results)
	default:
		return r.renderText(results)
	}
}

func (r *renderer) renderJSON(results []ports.FileResult) error {
	reports := make([]fileReport, 0, len(results))
	for _, res := range results {
		rep := fileReport{Path: res.Path}
		if res.Err != nil {
			rep.Error = res.Err.Error()
		} else {
			resp := res.Response
			rep.Review = &resp
		}
		reports = append(reports, rep)
	}
	enc := json.NewEncoder(r.out)
	enc.SetIndent("", "  ")
	return enc.Encode(reports)
}

func (r *renderer) renderMarkdown(results []ports.FileResult) error {
	var b strings.Builder
	for i, res := range results {
		if i > 0 {
			b.WriteString("\n---\n\n")
		}
		if res.Err != nil {
			fmt.Fprintf(&b, "## %s\n\nReview failed: %s\n", res.Path, res.Err)
			continue
		}
		b.WriteString(res.Response.Markdown())
	}
	doc := b.String()

	if r.tty {
		doc = renderGlamour(doc, r.width)
	}
	_, err := io.WriteString(r.out, doc)
	return err
}

// renderGlamour returns md unchanged when glamour cannot render it.
func renderGlamour(md string, width int) string {
	tr, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return md
	}
	out, err := tr.Render(md)
	if err != nil {
		return md
	}
	return out
}

func (r *renderer) renderText(results []ports.FileResult) error {
	s := r.styles
	var b strings.Builder
	failed, total := 0, 0

	for _, res := range results {
		if res.Err != nil {
			failed++
			fmt.Fprintf(&b, "%s  %s\n\n", s.title.Render(res.Path), s.bad.Render("error: "+res.Err.Error()))
			continue
		}
		resp := res.Response
		total += resp.Score
		fmt.Fprintf(&b, "%s  %s\n", s.title.Render(res.Path), r.scoreStyle(resp.Score).Render(fmt.Sprintf("score %d", resp.Score)))

		for _, c := range resp.Categories {
			fmt.Fprintf(&b, "  %-24s %s\n", c.Category, r.scoreStyle(c.Score).Render(fmt.Sprintf("%3d", c.Score)))
		}
		for _, f := range resp.Findings {
			fmt.Fprintf(&b, "  %s line %d  %s  %s\n", r.severityLabel(f.Severity), f.Line, f.RuleID, f.Message)
		}
		if len(resp.Recommendations) > 0 {
			b.WriteString("  Recommendations:\n")
			for _, rec := range resp.Recommendations {
				fmt.Fprintf(&b, "    - %s\n", rec)
			}
		}
		if len(resp.Findings) == 0 && len(resp.Categories) == 0 {
			fmt.Fprintf(&b, "  %s\n", s.muted.Render("no applicable rules"))
		}
		b.WriteString("\n")
	}

	reviewed := len(results) - failed
	summary := fmt.Sprintf("Reviewed %d file(s)", reviewed)
	if reviewed > 0 {
		summary += fmt.Sprintf(", average score %d", total/reviewed)
	}
	if failed > 0 {
		summary += fmt.Sprintf(", %d failed", failed)
	}
	b.WriteString(s.muted.Render(summary))
	b.WriteString("\n")

	_, err := io.WriteString(r.out, b.String())
	return err
}

func (r *renderer) scoreStyle(score int) lipgloss.Style {
	switch {
	case score >= 90:
		return r.styles.good
	case score >= 70:
		return r.styles.warn
	default:
		return r.styles.bad
	}
}

func (r *renderer) severityLabel(severity string) string {
	label := fmt.Sprintf("%-7s", strings.ToUpper(severity))
	switch severity {
	case "concern":
		return r.styles.concern.Render(label)
	case "warning":
		return r.styles.warning.Render(label)
	default:
		return r.styles.info.Render(label)
	}
}
