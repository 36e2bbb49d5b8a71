// # internal/engine/review/review.go
package review

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/arkaft-labs/arkaft-mcp-google-adk/internal/engine/architecture"
	"github.com/arkaft-labs/arkaft-mcp-google-adk/internal/engine/finding"
	"github.com/arkaft-labs/arkaft-mcp-google-adk/internal/engine/parser"
	"github.com/arkaft-labs/arkaft-mcp-google-adk/internal/engine/scoring"
	"github.com/arkaft-labs/arkaft-mcp-google-adk/internal/engine/suggest"
	"github.com/arkaft-labs/arkaft-mcp-google-adk/internal/engine/translation"
	"github.com/arkaft-labs/arkaft-mcp-google-adk/internal/knowledge"
	"github.com/arkaft-labs/arkaft-mcp-google-adk/internal/shared/observability"
)

type Options struct {
	Validator   *architecture.Validator
	Policy      *scoring.Policy
	Provider    knowledge.Provider
	DocsVersion string
	Logger      *slog.Logger
}

// Engine runs parse, analyze, validate, score and format. It does no I/O,
// keeps no state between calls and is safe for concurrent use.
type Engine struct {
	parser    *parser.Parser
	validator *architecture.Validator
	policy    scoring.Policy
	provider  knowledge.Provider
	version   string
	logger    *slog.Logger
}

func New(opts Options) (*Engine, error) {
	e := &Engine{
		parser:    parser.NewParser(),
		validator: opts.Validator,
		provider:  opts.Provider,
		version:   opts.DocsVersion,
		logger:    opts.Logger,
		policy:    scoring.DefaultPolicy(),
	}
	if opts.Policy != nil {
		e.policy = *opts.Policy
	}
	if e.validator == nil {
		v, err := architecture.NewValidator(architecture.Options{})
		if err != nil {
			return nil, err
		}
		e.validator = v
	}
	if e.provider == nil {
		base, err := knowledge.Default()
		if err != nil {
			return nil, fmt.Errorf("load knowledge base: %w", err)
		}
		e.provider = base
	}
	if e.logger == nil {
		e.logger = slog.Default()
	}
	return e, nil
}

type ReviewRequest struct {
	Path   string
	Source string
	Focus  string
	// ArchitectureOnly skips the translation pass.
	ArchitectureOnly bool
}

// ValidateRequest checks Source, Description or both. A request with only a
// Description is scored from the description findings alone.
type ValidateRequest struct {
	Source           string
	Description      string
	Category         string
	ArchitectureOnly bool
}

type FindingView struct {
	RuleID      string `json:"rule_id"`
	Category    string `json:"category"`
	Severity    string `json:"severity"`
	Line        int    `json:"line"`
	Column      *int   `json:"column,omitempty"`
	Message     string `json:"message"`
	Remediation string `json:"remediation,omitempty"`
}

type ReviewResponse struct {
	Path            string                  `json:"path,omitempty"`
	Score           int                     `json:"score"`
	Categories      []scoring.CategoryScore `json:"categories"`
	Findings        []FindingView           `json:"findings"`
	Recommendations []string                `json:"recommendations"`
	References      map[string][]string     `json:"references"`
	DocsVersion     string                  `json:"docs_version"`

	Report scoring.Report `json:"-"`
}

// Markdown renders the response as a review document.
func (r ReviewResponse) Markdown() string {
	return suggest.Markdown(suggest.Summary{
		Path:        r.Path,
		Report:      r.Report,
		References:  r.References,
		DocsVersion: r.DocsVersion,
	})
}

func (e *Engine) Rules() []architecture.Rule {
	return e.validator.Rules()
}

// ResolveCategory validates an architectural category name. With fallback
// enabled an unknown name resolves to "" (all categories).
func (e *Engine) ResolveCategory(category string) (string, error) {
	f, err := e.validator.ResolveFilter(category)
	return f.Category, err
}

func (e *Engine) Provider() knowledge.Provider {
	return e.provider
}

// Review runs the full pipeline. Focus restricts architectural rules to one
// category; translation findings are always reported.
func (e *Engine) Review(ctx context.Context, req ReviewRequest) (ReviewResponse, error) {
	_, span := observability.Tracer.Start(ctx, "review.Engine.Review", trace.WithAttributes(
		attribute.String("review.path", req.Path),
		attribute.String("review.focus", req.Focus),
	))
	defer span.End()

	resp, err := e.run(req.Path, req.Source, req.Focus, !req.ArchitectureOnly, "")
	return resp, finishSpan(span, resp, err)
}

// Validate checks a snippet and the design description that comes with it.
// With ArchitectureOnly the translation pass is skipped.
func (e *Engine) Validate(ctx context.Context, req ValidateRequest) (ReviewResponse, error) {
	_, span := observability.Tracer.Start(ctx, "review.Engine.Validate", trace.WithAttributes(
		attribute.String("review.category", req.Category),
		attribute.Bool("review.architecture_only", req.ArchitectureOnly),
		attribute.Bool("review.described", strings.TrimSpace(req.Description) != ""),
	))
	defer span.End()

	if strings.TrimSpace(req.Source) == "" && strings.TrimSpace(req.Description) != "" {
		resp, err := e.describe(req.Description, req.Category)
		return resp, finishSpan(span, resp, err)
	}
	resp, err := e.run("", req.Source, req.Category, !req.ArchitectureOnly, req.Description)
	return resp, finishSpan(span, resp, err)
}

// describe scores a description without any source to parse.
func (e *Engine) describe(description, category string) (ReviewResponse, error) {
	filter, err := e.validator.ResolveFilter(category)
	if err != nil {
		return ReviewResponse{}, err
	}
	findings := architecture.CheckDescription(description, filter.Category)
	return e.finish("", scoring.Score(findings, nil, e.policy)), nil
}

func (e *Engine) run(path, source, category string, withTranslation bool, description string) (ReviewResponse, error) {
	filter, err := e.validator.ResolveFilter(category)
	if err != nil {
		return ReviewResponse{}, err
	}

	start := time.Now()
	unit, err := e.parser.Parse([]byte(source))
	observability.ParsingDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		return ReviewResponse{}, err
	}

	var findings []finding.Finding
	if withTranslation {
		findings = translation.Analyze(unit)
	}
	outcomes, err := e.validator.Validate(unit, filter)
	if err != nil {
		return ReviewResponse{}, err
	}

	findings = append(findings, architecture.CheckDescription(description, filter.Category)...)
	return e.finish(path, scoring.Score(findings, outcomes, e.policy)), nil
}

func (e *Engine) finish(path string, report scoring.Report) ReviewResponse {
	recs, err := suggest.Format(report, e.provider)
	if err != nil {
		e.logger.Warn("recommendation formatting failed; returning report without recommendations",
			"path", path, "error", err)
		recs = []string{}
	}
	report.Recommendations = recs
	return e.response(path, report)
}

func (e *Engine) response(path string, report scoring.Report) ReviewResponse {
	resp := ReviewResponse{
		Path:            path,
		Score:           report.Overall,
		Categories:      report.Categories,
		Findings:        make([]FindingView, 0, len(report.Findings)),
		Recommendations: report.Recommendations,
		References:      make(map[string][]string),
		DocsVersion:     e.provider.ResolveVersion(e.version),
		Report:          report,
	}
	if resp.Categories == nil {
		resp.Categories = []scoring.CategoryScore{}
	}
	for _, f := range report.Findings {
		view := FindingView{
			RuleID:      f.RuleID,
			Category:    f.Category,
			Severity:    f.Severity.String(),
			Line:        f.Line,
			Message:     f.Message,
			Remediation: f.Remediation,
		}
		if f.Column > 0 {
			col := f.Column
			view.Column = &col
		}
		resp.Findings = append(resp.Findings, view)
		e.addReferences(resp.References, f.Category)
	}
	for _, c := range report.Categories {
		e.addReferences(resp.References, c.Category)
	}
	return resp
}

func (e *Engine) addReferences(refs map[string][]string, category string) {
	if category == "" {
		return
	}
	if _, ok := refs[category]; ok {
		return
	}
	if urls := e.provider.References(category); len(urls) > 0 {
		refs[category] = urls
	}
}

func finishSpan(span trace.Span, resp ReviewResponse, err error) error {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		var perr *parser.ParseError
		if errors.As(err, &perr) {
			span.SetAttributes(attribute.String("review.parse_error", perr.Kind.String()))
		}
		return err
	}
	span.SetAttributes(
		attribute.Int("review.score", resp.Score),
		attribute.Int("review.findings", len(resp.Findings)),
	)
	return nil
}
