package contracts

import "encoding/json"

const (
	ToolNameArkaft  = "arkaft"
	ContractVersion = "v1"
)

type OperationID string

const (
	OperationReviewFile        OperationID = "review.file"
	OperationReviewValidate    OperationID = "review.validate"
	OperationRulesList         OperationID = "rules.list"
	OperationKnowledgePractice OperationID = "knowledge.best_practices"
	OperationKnowledgeQuery    OperationID = "knowledge.query"
	OperationHistoryList       OperationID = "history.list"
)

// Operations lists every operation the tool accepts, in a stable order.
func Operations() []OperationID {
	return []OperationID{
		OperationReviewFile,
		OperationReviewValidate,
		OperationRulesList,
		OperationKnowledgePractice,
		OperationKnowledgeQuery,
		OperationHistoryList,
	}
}

type ArkaftToolInput struct {
	Operation OperationID     `json:"operation"`
	Params    json.RawMessage `json:"params,omitempty"`
}

type OperationDescriptor struct {
	ID          OperationID    `json:"id"`
	Summary     string         `json:"summary,omitempty"`
	Description string         `json:"description,omitempty"`
	InputSchema map[string]any `json:"input_schema,omitempty"`
}

type ReviewFileInput struct {
	FilePath    string  `json:"file_path"`
	FileContent *string `json:"file_content,omitempty"`
	Focus       string  `json:"focus,omitempty"`
	Format      string  `json:"format,omitempty"`
}

type Finding struct {
	RuleID      string `json:"rule_id"`
	Category    string `json:"category"`
	Severity    string `json:"severity"`
	Line        int    `json:"line"`
	Column      *int   `json:"column,omitempty"`
	Message     string `json:"message"`
	Remediation string `json:"remediation,omitempty"`
}

type CategoryScore struct {
	Category string `json:"category"`
	Score    int    `json:"score"`
}

type ReviewOutput struct {
	Path            string              `json:"path,omitempty"`
	Score           int                 `json:"score"`
	Categories      []CategoryScore     `json:"categories"`
	Findings        []Finding           `json:"findings"`
	Recommendations []string            `json:"recommendations"`
	References      map[string][]string `json:"references,omitempty"`
	DocsVersion     string              `json:"docs_version"`
	Truncated       bool                `json:"truncated,omitempty"`
	Markdown        string              `json:"markdown,omitempty"`
}

type ReviewValidateInput struct {
	Code             string   `json:"code"`
	CodeSnippets     []string `json:"code_snippets,omitempty"`
	Description      string   `json:"description,omitempty"`
	Category         string   `json:"category,omitempty"`
	ArchitectureOnly bool     `json:"architecture_only,omitempty"`
	Format           string   `json:"format,omitempty"`
}

type RulesListInput struct {
	Category string `json:"category,omitempty"`
}

type Rule struct {
	ID       string  `json:"id"`
	Category string  `json:"category"`
	Name     string  `json:"name"`
	Kind     string  `json:"kind"`
	Weight   float64 `json:"weight,omitempty"`
	Severity string  `json:"severity,omitempty"`
}

type RulesListOutput struct {
	RuleCount int    `json:"rule_count"`
	Rules     []Rule `json:"rules"`
}

type BestPracticesInput struct {
	Scenario string `json:"scenario,omitempty"`
	Category string `json:"category,omitempty"`
	Version  string `json:"version,omitempty"`
}

type BestPractice struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Category    string `json:"category"`
	Description string `json:"description"`
}

type Pattern struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Category    string   `json:"category,omitempty"`
	Description string   `json:"description"`
	UseCases    []string `json:"use_cases"`
}

type BestPracticesOutput struct {
	Scenario          string         `json:"scenario"`
	Version           string         `json:"version"`
	Count             int            `json:"count"`
	Practices         []BestPractice `json:"practices"`
	Patterns          []Pattern      `json:"patterns"`
	DocumentationRefs []string       `json:"documentation_refs"`
}

type KnowledgeQueryInput struct {
	Query   string `json:"query"`
	Version string `json:"version,omitempty"`
}

type Concept struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

type KnowledgeQueryOutput struct {
	Query      string    `json:"query"`
	Version    string    `json:"version"`
	Concepts   []Concept `json:"concepts"`
	References []string  `json:"references,omitempty"`
	Markdown   string    `json:"markdown,omitempty"`
}

type HistoryListInput struct {
	Path  string `json:"path,omitempty"`
	Since string `json:"since,omitempty"`
	Limit int    `json:"limit,omitempty"`
}

type HistoryEntry struct {
	ID           string   `json:"id"`
	Path         string   `json:"path"`
	Timestamp    string   `json:"timestamp"`
	Score        int      `json:"score"`
	ConcernCount int      `json:"concern_count"`
	FindingCount int      `json:"finding_count"`
	RuleFailures []string `json:"rule_failures,omitempty"`
	DocsVersion  string   `json:"docs_version,omitempty"`
}

type HistoryTrend struct {
	Path        string `json:"path"`
	ReviewCount int    `json:"review_count"`
	FirstScore  int    `json:"first_score"`
	LatestScore int    `json:"latest_score"`
	BestScore   int    `json:"best_score"`
	WorstScore  int    `json:"worst_score"`
	Delta       int    `json:"delta"`
	Since       string `json:"since,omitempty"`
	Until       string `json:"until,omitempty"`
}

type HistoryListOutput struct {
	ReviewCount int            `json:"review_count"`
	Reviews     []HistoryEntry `json:"reviews"`
	Trend       *HistoryTrend  `json:"trend,omitempty"`
}

type ToolError struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

func (e ToolError) Error() string {
	return e.Message
}

const (
	ErrorInvalidArgument = "invalid_argument"
	ErrorInvalidSource   = "invalid_source"
	ErrorNotFound        = "not_found"
	ErrorNotSupported    = "not_supported"
	ErrorRateLimited     = "rate_limited"
	ErrorInternal        = "internal"
	ErrorUnavailable     = "unavailable"
)
