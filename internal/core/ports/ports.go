package ports

import (
	"context"
	"time"

	"github.com/arkaft-labs/arkaft-mcp-google-adk/internal/data/history"
	"github.com/arkaft-labs/arkaft-mcp-google-adk/internal/engine/review"
	"github.com/arkaft-labs/arkaft-mcp-google-adk/internal/knowledge"
)

// HistoryStore abstracts review-summary persistence.
type HistoryStore interface {
	SaveReview(ctx context.Context, r history.Review) (history.Review, error)
	LoadReviews(ctx context.Context, q history.Query) ([]history.Review, error)
}

// ReviewFileRequest reviews Path. When Source is set it is used as the file
// content and the file is not read.
type ReviewFileRequest struct {
	Path             string
	Source           *string
	Focus            string
	ArchitectureOnly bool
}

// ReviewOptions applies to every file of a batch.
type ReviewOptions struct {
	Focus            string
	ArchitectureOnly bool
}

// FileResult is one entry of a batch review. Exactly one of Response and Err is meaningful.
type FileResult struct {
	Path     string
	Response review.ReviewResponse
	Err      error
}

// RuleInfo describes one architectural or translation rule for listings.
type RuleInfo struct {
	ID       string  `json:"id"`
	Category string  `json:"category"`
	Name     string  `json:"name"`
	Kind     string  `json:"kind"`
	Weight   float64 `json:"weight,omitempty"`
	Severity string  `json:"severity,omitempty"`
}

// HistoryRequest filters history lookups.
type HistoryRequest struct {
	Path  string
	Since time.Time
	Limit int
}

// BestPracticesRequest looks up guidance for a scenario. An empty Version
// selects the configured documentation version.
type BestPracticesRequest struct {
	Scenario string
	Category string
	Version  string
}

// HistoryResult carries matching reviews newest first, plus a trend when Path was given.
type HistoryResult struct {
	Reviews []history.Review `json:"reviews"`
	Trend   *history.Trend   `json:"trend,omitempty"`
}

// ReviewService is the driving port used by the CLI and the MCP runtime.
type ReviewService interface {
	ReviewFile(ctx context.Context, req ReviewFileRequest) (review.ReviewResponse, error)
	ReviewFiles(ctx context.Context, paths []string, opts ReviewOptions) ([]FileResult, error)
	Validate(ctx context.Context, req review.ValidateRequest) (review.ReviewResponse, error)
	Rules(ctx context.Context, category string) ([]RuleInfo, error)
	BestPractices(ctx context.Context, req BestPracticesRequest) (knowledge.PracticeGuide, error)
	Query(ctx context.Context, query, version string) (knowledge.Answer, error)
	History(ctx context.Context, req HistoryRequest) (HistoryResult, error)
}
