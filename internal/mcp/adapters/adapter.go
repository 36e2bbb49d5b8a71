package adapters

import (
	"context"
	"errors"
	"time"

	domainerrors "github.com/arkaft-labs/arkaft-mcp-google-adk/internal/core/errors"
	"github.com/arkaft-labs/arkaft-mcp-google-adk/internal/core/ports"
	"github.com/arkaft-labs/arkaft-mcp-google-adk/internal/data/history"
	"github.com/arkaft-labs/arkaft-mcp-google-adk/internal/engine/architecture"
	"github.com/arkaft-labs/arkaft-mcp-google-adk/internal/engine/parser"
	"github.com/arkaft-labs/arkaft-mcp-google-adk/internal/engine/review"
	"github.com/arkaft-labs/arkaft-mcp-google-adk/internal/knowledge"
	"github.com/arkaft-labs/arkaft-mcp-google-adk/internal/mcp/contracts"
	"github.com/arkaft-labs/arkaft-mcp-google-adk/internal/mcp/validate"
)

// Adapter translates tool contracts to ReviewService calls and back.
type Adapter struct {
	svc ports.ReviewService
}

func NewAdapter(svc ports.ReviewService) *Adapter {
	return &Adapter{svc: svc}
}

func (a *Adapter) ReviewFile(ctx context.Context, in contracts.ReviewFileInput) (contracts.ReviewOutput, error) {
	resp, err := a.svc.ReviewFile(ctx, ports.ReviewFileRequest{
		Path:   in.FilePath,
		Source: in.FileContent,
		Focus:  in.Focus,
	})
	if err != nil {
		return contracts.ReviewOutput{}, err
	}
	return toReviewOutput(resp, in.Format), nil
}

func (a *Adapter) Validate(ctx context.Context, in contracts.ReviewValidateInput) (contracts.ReviewOutput, error) {
	resp, err := a.svc.Validate(ctx, review.ValidateRequest{
		Source:           in.Code,
		Description:      in.Description,
		Category:         in.Category,
		ArchitectureOnly: in.ArchitectureOnly,
	})
	if err != nil {
		return contracts.ReviewOutput{}, err
	}
	return toReviewOutput(resp, in.Format), nil
}

func (a *Adapter) Rules(ctx context.Context, in contracts.RulesListInput) (contracts.RulesListOutput, error) {
	rules, err := a.svc.Rules(ctx, in.Category)
	if err != nil {
		return contracts.RulesListOutput{}, err
	}
	out := contracts.RulesListOutput{RuleCount: len(rules), Rules: make([]contracts.Rule, 0, len(rules))}
	for _, r := range rules {
		out.Rules = append(out.Rules, contracts.Rule{
			ID:       r.ID,
			Category: r.Category,
			Name:     r.Name,
			Kind:     r.Kind,
			Weight:   r.Weight,
			Severity: r.Severity,
		})
	}
	return out, nil
}

func (a *Adapter) BestPractices(ctx context.Context, in contracts.BestPracticesInput) (contracts.BestPracticesOutput, error) {
	guide, err := a.svc.BestPractices(ctx, ports.BestPracticesRequest{
		Scenario: in.Scenario,
		Category: in.Category,
		Version:  in.Version,
	})
	if err != nil {
		return contracts.BestPracticesOutput{}, err
	}
	out := contracts.BestPracticesOutput{
		Scenario:          guide.Scenario,
		Version:           guide.Version,
		Count:             len(guide.Practices),
		Practices:         make([]contracts.BestPractice, 0, len(guide.Practices)),
		Patterns:          make([]contracts.Pattern, 0, len(guide.Patterns)),
		DocumentationRefs: guide.References,
	}
	for _, p := range guide.Practices {
		out.Practices = append(out.Practices, toBestPractice(p))
	}
	for _, p := range guide.Patterns {
		out.Patterns = append(out.Patterns, contracts.Pattern{
			ID:          p.ID,
			Name:        p.Name,
			Category:    p.Category,
			Description: p.Description,
			UseCases:    p.UseCases,
		})
	}
	if out.DocumentationRefs == nil {
		out.DocumentationRefs = []string{}
	}
	return out, nil
}

func (a *Adapter) Query(ctx context.Context, in contracts.KnowledgeQueryInput) (contracts.KnowledgeQueryOutput, error) {
	answer, err := a.svc.Query(ctx, in.Query, in.Version)
	if err != nil {
		return contracts.KnowledgeQueryOutput{}, err
	}
	out := contracts.KnowledgeQueryOutput{
		Query:      answer.Query,
		Version:    answer.Version,
		Concepts:   make([]contracts.Concept, 0, len(answer.Concepts)),
		References: answer.References,
		Markdown:   answer.Markdown(),
	}
	for _, c := range answer.Concepts {
		out.Concepts = append(out.Concepts, contracts.Concept{Name: c.Name, Description: c.Description})
	}
	return out, nil
}

func (a *Adapter) History(ctx context.Context, in contracts.HistoryListInput) (contracts.HistoryListOutput, error) {
	since, err := validate.ParseSince(in.Since)
	if err != nil {
		return contracts.HistoryListOutput{}, err
	}
	result, err := a.svc.History(ctx, ports.HistoryRequest{Path: in.Path, Since: since, Limit: in.Limit})
	if err != nil {
		return contracts.HistoryListOutput{}, err
	}
	out := contracts.HistoryListOutput{
		ReviewCount: len(result.Reviews),
		Reviews:     make([]contracts.HistoryEntry, 0, len(result.Reviews)),
	}
	for _, r := range result.Reviews {
		out.Reviews = append(out.Reviews, toHistoryEntry(r))
	}
	if result.Trend != nil {
		out.Trend = toHistoryTrend(*result.Trend)
	}
	return out, nil
}

// ToToolError maps service errors onto tool error codes. Parse failures are
// the caller's source, unknown categories the caller's argument.
func ToToolError(err error) contracts.ToolError {
	var toolErr contracts.ToolError
	if errors.As(err, &toolErr) {
		return toolErr
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return contracts.ToolError{Code: contracts.ErrorUnavailable, Message: "request timed out"}
	}
	if errors.Is(err, context.Canceled) {
		return contracts.ToolError{Code: contracts.ErrorUnavailable, Message: "request canceled"}
	}

	var parseErr *parser.ParseError
	if errors.As(err, &parseErr) {
		details := map[string]any{"kind": parseErr.Kind.String()}
		if parseErr.Line > 0 {
			details["line"] = parseErr.Line
			details["column"] = parseErr.Column
		}
		return contracts.ToolError{Code: contracts.ErrorInvalidSource, Message: parseErr.Error(), Details: details}
	}
	var catErr *architecture.UnknownCategoryError
	if errors.As(err, &catErr) {
		details := map[string]any{"category": catErr.Category}
		if len(catErr.Suggestions) > 0 {
			details["suggestions"] = catErr.Suggestions
		}
		return contracts.ToolError{Code: contracts.ErrorInvalidArgument, Message: catErr.Error(), Details: details}
	}

	switch domainerrors.CodeOf(err) {
	case domainerrors.CodeNotFound:
		return contracts.ToolError{Code: contracts.ErrorNotFound, Message: err.Error()}
	case domainerrors.CodeValidationError, domainerrors.CodeTooLarge:
		return contracts.ToolError{Code: contracts.ErrorInvalidArgument, Message: err.Error()}
	case domainerrors.CodeNotSupported:
		return contracts.ToolError{Code: contracts.ErrorNotSupported, Message: err.Error()}
	}
	return contracts.ToolError{Code: contracts.ErrorInternal, Message: err.Error()}
}

func toReviewOutput(resp review.ReviewResponse, format string) contracts.ReviewOutput {
	out := contracts.ReviewOutput{
		Path:            resp.Path,
		Score:           resp.Score,
		Categories:      make([]contracts.CategoryScore, 0, len(resp.Categories)),
		Findings:        make([]contracts.Finding, 0, len(resp.Findings)),
		Recommendations: resp.Recommendations,
		References:      resp.References,
		DocsVersion:     resp.DocsVersion,
	}
	if out.Recommendations == nil {
		out.Recommendations = []string{}
	}
	for _, c := range resp.Categories {
		out.Categories = append(out.Categories, contracts.CategoryScore{Category: c.Category, Score: c.Score})
	}
	for _, f := range resp.Findings {
		out.Findings = append(out.Findings, contracts.Finding{
			RuleID:      f.RuleID,
			Category:    f.Category,
			Severity:    f.Severity,
			Line:        f.Line,
			Column:      f.Column,
			Message:     f.Message,
			Remediation: f.Remediation,
		})
	}
	if format == validate.FormatMarkdown {
		out.Markdown = resp.Markdown()
	}
	return out
}

func toBestPractice(p knowledge.BestPractice) contracts.BestPractice {
	return contracts.BestPractice{
		ID:          p.ID,
		Title:       p.Title,
		Category:    p.Category,
		Description: p.Description,
	}
}

func toHistoryEntry(r history.Review) contracts.HistoryEntry {
	return contracts.HistoryEntry{
		ID:           r.ID,
		Path:         r.Path,
		Timestamp:    formatTime(r.Timestamp),
		Score:        r.Score,
		ConcernCount: r.ConcernCount,
		FindingCount: r.FindingCount,
		RuleFailures: r.RuleFailures,
		DocsVersion:  r.DocsVersion,
	}
}

func toHistoryTrend(t history.Trend) *contracts.HistoryTrend {
	return &contracts.HistoryTrend{
		Path:        t.Path,
		ReviewCount: t.ReviewCount,
		FirstScore:  t.FirstScore,
		LatestScore: t.LatestScore,
		BestScore:   t.BestScore,
		WorstScore:  t.WorstScore,
		Delta:       t.Delta,
		Since:       formatTime(t.Since),
		Until:       formatTime(t.Until),
	}
}

func formatTime(ts time.Time) string {
	if ts.IsZero() {
		return ""
	}
	return ts.UTC().Format(time.RFC3339)
}
