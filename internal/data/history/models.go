package history

import "time"

const SchemaVersion = 1

// Review is the persisted summary of one review. Findings themselves are not
// stored; RuleFailures lists the rule IDs that fired, deduplicated and sorted.
type Review struct {
	ID           string    `json:"id"`
	ProjectKey   string    `json:"project_key"`
	Path         string    `json:"path"`
	Timestamp    time.Time `json:"ts_utc"`
	Score        int       `json:"score"`
	ConcernCount int       `json:"concern_count"`
	FindingCount int       `json:"finding_count"`
	RuleFailures []string  `json:"rule_failures"`
	DocsVersion  string    `json:"docs_version"`
}

// Query filters LoadReviews. Empty Path matches every file; zero Since
// matches every timestamp; Limit <= 0 means DefaultLimit.
type Query struct {
	ProjectKey string
	Path       string
	Since      time.Time
	Limit      int
}

const (
	DefaultLimit = 50
	MaxLimit     = 1000
)

// Trend summarizes a path's review series, oldest first.
type Trend struct {
	Path        string    `json:"path"`
	ReviewCount int       `json:"review_count"`
	FirstScore  int       `json:"first_score"`
	LatestScore int       `json:"latest_score"`
	BestScore   int       `json:"best_score"`
	WorstScore  int       `json:"worst_score"`
	Delta       int       `json:"delta"`
	Since       time.Time `json:"since"`
	Until       time.Time `json:"until"`
}
