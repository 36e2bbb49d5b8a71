package app

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/arkaft-labs/arkaft-mcp-google-adk/internal/core/errors"
	"github.com/arkaft-labs/arkaft-mcp-google-adk/internal/core/ports"
	"github.com/arkaft-labs/arkaft-mcp-google-adk/internal/data/history"
	"github.com/arkaft-labs/arkaft-mcp-google-adk/internal/engine/architecture"
	"github.com/arkaft-labs/arkaft-mcp-google-adk/internal/engine/parser"
	"github.com/arkaft-labs/arkaft-mcp-google-adk/internal/engine/review"
	"github.com/arkaft-labs/arkaft-mcp-google-adk/internal/engine/translation"
	"github.com/arkaft-labs/arkaft-mcp-google-adk/internal/knowledge"
	"github.com/arkaft-labs/arkaft-mcp-google-adk/internal/shared/observability"
)

type reviewService struct {
	app *App
}

var _ ports.ReviewService = (*reviewService)(nil)

func (s *reviewService) ReviewFile(ctx context.Context, req ports.ReviewFileRequest) (review.ReviewResponse, error) {
	ctx, span := observability.Tracer.Start(ctx, "reviewService.ReviewFile", trace.WithAttributes(
		attribute.String("review.path", req.Path),
	))
	defer span.End()

	if err := ctx.Err(); err != nil {
		return review.ReviewResponse{}, err
	}

	var source string
	if req.Source != nil {
		source = *req.Source
		if int64(len(source)) > s.app.Config.Review.MaxSourceBytes {
			return review.ReviewResponse{}, s.tooLarge("review", req.Path, int64(len(source)))
		}
	} else {
		data, err := s.readSource(req.Path)
		if err != nil {
			return review.ReviewResponse{}, err
		}
		source = string(data)
	}

	start := time.Now()
	resp, err := s.app.engine.Review(ctx, review.ReviewRequest{
		Path:             req.Path,
		Source:           source,
		Focus:            req.Focus,
		ArchitectureOnly: req.ArchitectureOnly,
	})
	s.record("review", start, resp, err)
	if err != nil {
		return review.ReviewResponse{}, errors.AddContext(classify(err), errors.CtxPath, req.Path)
	}
	s.saveHistory(ctx, resp)
	return resp, nil
}

func (s *reviewService) ReviewFiles(ctx context.Context, paths []string, opts ports.ReviewOptions) ([]ports.FileResult, error) {
	results := make([]ports.FileResult, len(paths))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(1, s.app.Config.Review.Workers))
	for i, path := range paths {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			resp, err := s.ReviewFile(gctx, ports.ReviewFileRequest{
				Path:             path,
				Focus:            opts.Focus,
				ArchitectureOnly: opts.ArchitectureOnly,
			})
			results[i] = ports.FileResult{Path: path, Response: resp, Err: err}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return results, err
	}
	return results, nil
}

func (s *reviewService) Validate(ctx context.Context, req review.ValidateRequest) (review.ReviewResponse, error) {
	if int64(len(req.Source)) > s.app.Config.Review.MaxSourceBytes {
		return review.ReviewResponse{}, s.tooLarge("validate", "", int64(len(req.Source)))
	}
	start := time.Now()
	resp, err := s.app.engine.Validate(ctx, req)
	s.record("validate", start, resp, err)
	if err != nil {
		return review.ReviewResponse{}, classify(err)
	}
	return resp, nil
}

func (s *reviewService) Rules(ctx context.Context, category string) ([]ports.RuleInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var out []ports.RuleInfo
	if category == "" || isTranslationCategory(category) {
		for _, r := range translation.Catalog() {
			if category != "" && r.Category != category {
				continue
			}
			out = append(out, ports.RuleInfo{
				ID: r.ID, Category: r.Category, Name: r.Message, Kind: "translation", Severity: r.Severity.String(),
			})
		}
		if category != "" {
			return out, nil
		}
	}

	resolved, err := s.app.engine.ResolveCategory(category)
	if err != nil {
		return nil, classify(err)
	}
	for _, r := range s.app.engine.Rules() {
		if resolved != "" && r.Category != resolved {
			continue
		}
		out = append(out, ports.RuleInfo{
			ID: r.ID, Category: r.Category, Name: r.Name, Kind: "architecture", Weight: r.Weight,
		})
	}
	return out, nil
}

func (s *reviewService) BestPractices(ctx context.Context, req ports.BestPracticesRequest) (knowledge.PracticeGuide, error) {
	if err := ctx.Err(); err != nil {
		return knowledge.PracticeGuide{}, err
	}
	category := req.Category
	if category != "" && !architecture.IsCategory(category) && !isTranslationCategory(category) {
		if _, err := s.app.engine.ResolveCategory(category); err != nil {
			return knowledge.PracticeGuide{}, classify(err)
		}
		category = ""
	}
	version := req.Version
	if version == "" {
		version = s.app.knowledge.Version()
	}
	return s.app.knowledge.Guide(req.Scenario, category, version), nil
}

func (s *reviewService) Query(ctx context.Context, query, version string) (knowledge.Answer, error) {
	if err := ctx.Err(); err != nil {
		return knowledge.Answer{}, err
	}
	if version == "" {
		version = s.app.knowledge.Version()
	}
	return s.app.knowledge.Query(query, version), nil
}

func (s *reviewService) History(ctx context.Context, req ports.HistoryRequest) (ports.HistoryResult, error) {
	if s.app.history == nil {
		return ports.HistoryResult{}, errors.New(errors.CodeNotSupported, "review history is disabled")
	}
	reviews, err := s.app.history.LoadReviews(ctx, history.Query{
		ProjectKey: s.app.Config.History.ProjectKey,
		Path:       req.Path,
		Since:      req.Since,
		Limit:      req.Limit,
	})
	if err != nil {
		return ports.HistoryResult{}, errors.Wrap(err, errors.CodeInternal, "load review history")
	}
	result := ports.HistoryResult{Reviews: reviews}
	if req.Path != "" && len(reviews) > 0 {
		trend, err := history.BuildTrend(req.Path, reviews)
		if err == nil {
			result.Trend = &trend
		}
	}
	return result, nil
}

func (s *reviewService) readSource(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		if stderrors.Is(err, fs.ErrNotExist) {
			return nil, errors.AddContext(errors.Wrap(err, errors.CodeNotFound, "source file not found"), errors.CtxPath, path)
		}
		return nil, errors.AddContext(errors.Wrap(err, errors.CodeInternal, "open source file"), errors.CtxPath, path)
	}
	defer f.Close()

	limit := s.app.Config.Review.MaxSourceBytes
	data, err := io.ReadAll(io.LimitReader(f, limit+1))
	if err != nil {
		return nil, errors.AddContext(errors.Wrap(err, errors.CodeInternal, "read source file"), errors.CtxPath, path)
	}
	if int64(len(data)) > limit {
		return nil, s.tooLarge("review", path, int64(len(data)))
	}
	return data, nil
}

func (s *reviewService) tooLarge(operation, path string, size int64) error {
	err := errors.New(errors.CodeTooLarge,
		fmt.Sprintf("source exceeds max_source_bytes (%d)", s.app.Config.Review.MaxSourceBytes))
	if path != "" {
		err = errors.AddContext(err, errors.CtxPath, path)
	}
	observability.ReviewsTotal.WithLabelValues(operation, "too_large").Inc()
	return errors.AddContext(err, "size", size)
}

func (s *reviewService) record(operation string, start time.Time, resp review.ReviewResponse, err error) {
	observability.ReviewDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
	if err != nil {
		outcome := "error"
		var perr *parser.ParseError
		if stderrors.As(err, &perr) {
			outcome = "parse_error"
			observability.ParseFailuresTotal.WithLabelValues(perr.Kind.String()).Inc()
		} else if stderrors.Is(err, architecture.ErrUnknownCategory) {
			outcome = "invalid_argument"
		}
		observability.ReviewsTotal.WithLabelValues(operation, outcome).Inc()
		return
	}
	observability.ReviewsTotal.WithLabelValues(operation, "ok").Inc()
	observability.ComplianceScore.Observe(float64(resp.Score))
	for _, f := range resp.Findings {
		observability.FindingsTotal.WithLabelValues(f.Severity).Inc()
	}
}

func (s *reviewService) saveHistory(ctx context.Context, resp review.ReviewResponse) {
	if s.app.history == nil {
		return
	}
	concerns := 0
	failures := make([]string, 0, len(resp.Findings))
	for _, f := range resp.Findings {
		if f.Severity == "concern" {
			concerns++
		}
		failures = append(failures, f.RuleID)
	}
	_, err := s.app.history.SaveReview(ctx, history.Review{
		ProjectKey:   s.app.Config.History.ProjectKey,
		Path:         resp.Path,
		Score:        resp.Score,
		ConcernCount: concerns,
		FindingCount: len(resp.Findings),
		RuleFailures: failures,
		DocsVersion:  resp.DocsVersion,
	})
	if err != nil {
		observability.HistoryWritesTotal.WithLabelValues("error").Inc()
		s.app.logger.Warn("failed to record review history", "path", resp.Path, "error", err)
		return
	}
	observability.HistoryWritesTotal.WithLabelValues("ok").Inc()
}

// classify attaches a domain code to engine errors. The original error stays
// reachable through errors.As.
func classify(err error) error {
	var perr *parser.ParseError
	switch {
	case err == nil:
		return nil
	case stderrors.As(err, &perr):
		return errors.Wrap(err, errors.CodeParseError, "source could not be parsed")
	case stderrors.Is(err, architecture.ErrUnknownCategory):
		return errors.AddContext(errors.Wrap(err, errors.CodeUnknownCategory, "invalid rule category"),
			errors.CtxCategory, unknownCategory(err))
	case stderrors.Is(err, context.Canceled), stderrors.Is(err, context.DeadlineExceeded):
		return err
	}
	return errors.Wrap(err, errors.CodeInternal, "review failed")
}

func unknownCategory(err error) string {
	var uerr *architecture.UnknownCategoryError
	if stderrors.As(err, &uerr) {
		return uerr.Category
	}
	return ""
}

func isTranslationCategory(category string) bool {
	for _, c := range translation.Categories() {
		if c == category {
			return true
		}
	}
	return false
}
