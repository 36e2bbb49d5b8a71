package validate

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/arkaft-labs/arkaft-mcp-google-adk/internal/mcp/contracts"
	"github.com/arkaft-labs/arkaft-mcp-google-adk/internal/shared/util"
)

const (
	maxPathLength        = 4096
	maxCategoryLength    = 64
	maxQueryLength       = 500
	maxDescriptionLength = 8192
	maxSnippetCount      = 32
	maxLimitValue        = 1000
)

const (
	FormatJSON     = "json"
	FormatMarkdown = "markdown"
)

func ValidateToolArgs(tool string, raw map[string]any) (any, error) {
	_, input, err := ParseToolArgs(tool, raw)
	return input, err
}

// ParseToolArgs checks the operation envelope of an arkaft tool call and
// decodes its params into the matching contracts input type.
func ParseToolArgs(tool string, raw map[string]any) (contracts.OperationID, any, error) {
	if strings.TrimSpace(tool) == "" {
		return "", nil, invalidArgument("tool name is required")
	}
	if tool != contracts.ToolNameArkaft {
		return "", nil, invalidArgument(fmt.Sprintf("unsupported tool: %s", tool))
	}
	if raw == nil {
		raw = map[string]any{}
	}

	operationRaw, ok := raw["operation"].(string)
	if !ok || strings.TrimSpace(operationRaw) == "" {
		return "", nil, invalidArgument("operation is required")
	}
	operation := contracts.OperationID(strings.ToLower(strings.TrimSpace(operationRaw)))

	params := map[string]any{}
	if rawParams, ok := raw["params"]; ok && rawParams != nil {
		typed, ok := rawParams.(map[string]any)
		if !ok {
			return "", nil, invalidArgument("params must be an object")
		}
		params = typed
	}

	switch operation {
	case contracts.OperationReviewFile:
		var input contracts.ReviewFileInput
		if err := decodeParams(params, &input); err != nil {
			return "", nil, err
		}
		input.FilePath = strings.TrimSpace(input.FilePath)
		if input.FilePath == "" {
			return "", nil, invalidArgument("file_path cannot be empty")
		}
		if len(input.FilePath) > maxPathLength {
			return "", nil, invalidArgument("file_path is too long")
		}
		if !util.IsRustSource(input.FilePath) {
			return "", nil, invalidArgument("only .rs files can be reviewed")
		}
		input.Focus = strings.ToLower(strings.TrimSpace(input.Focus))
		if err := checkCategory("focus", input.Focus); err != nil {
			return "", nil, err
		}
		format, err := normalizeFormat(input.Format)
		if err != nil {
			return "", nil, err
		}
		input.Format = format
		return operation, input, nil
	case contracts.OperationReviewValidate:
		var input contracts.ReviewValidateInput
		if err := decodeParams(params, &input); err != nil {
			return "", nil, err
		}
		if len(input.CodeSnippets) > maxSnippetCount {
			return "", nil, invalidArgument("too many code_snippets")
		}
		input.Code = joinSnippets(input.Code, input.CodeSnippets)
		input.CodeSnippets = nil
		input.Description = strings.TrimSpace(input.Description)
		if input.Code == "" && input.Description == "" {
			return "", nil, invalidArgument("code, code_snippets or description is required")
		}
		if len(input.Description) > maxDescriptionLength {
			return "", nil, invalidArgument("description is too long")
		}
		input.Category = strings.ToLower(strings.TrimSpace(input.Category))
		if err := checkCategory("category", input.Category); err != nil {
			return "", nil, err
		}
		format, err := normalizeFormat(input.Format)
		if err != nil {
			return "", nil, err
		}
		input.Format = format
		return operation, input, nil
	case contracts.OperationRulesList:
		var input contracts.RulesListInput
		if err := decodeParams(params, &input); err != nil {
			return "", nil, err
		}
		input.Category = strings.ToLower(strings.TrimSpace(input.Category))
		if err := checkCategory("category", input.Category); err != nil {
			return "", nil, err
		}
		return operation, input, nil
	case contracts.OperationKnowledgePractice:
		var input contracts.BestPracticesInput
		if err := decodeParams(params, &input); err != nil {
			return "", nil, err
		}
		input.Scenario = strings.TrimSpace(input.Scenario)
		input.Category = strings.ToLower(strings.TrimSpace(input.Category))
		input.Version = strings.TrimSpace(input.Version)
		if len(input.Scenario) > maxQueryLength {
			return "", nil, invalidArgument("scenario is too long")
		}
		if len(input.Version) > maxCategoryLength {
			return "", nil, invalidArgument("version is too long")
		}
		if err := checkCategory("category", input.Category); err != nil {
			return "", nil, err
		}
		return operation, input, nil
	case contracts.OperationKnowledgeQuery:
		var input contracts.KnowledgeQueryInput
		if err := decodeParams(params, &input); err != nil {
			return "", nil, err
		}
		input.Query = strings.TrimSpace(input.Query)
		input.Version = strings.TrimSpace(input.Version)
		if input.Query == "" {
			return "", nil, invalidArgument("query is required")
		}
		if len(input.Query) > maxQueryLength {
			return "", nil, invalidArgument("query is too long")
		}
		return operation, input, nil
	case contracts.OperationHistoryList:
		var input contracts.HistoryListInput
		if err := decodeParams(params, &input); err != nil {
			return "", nil, err
		}
		input.Path = strings.TrimSpace(input.Path)
		input.Since = strings.TrimSpace(input.Since)
		if len(input.Path) > maxPathLength {
			return "", nil, invalidArgument("path is too long")
		}
		if input.Limit < 0 || input.Limit > maxLimitValue {
			return "", nil, invalidLimitError("limit")
		}
		if _, err := ParseSince(input.Since); err != nil {
			return "", nil, err
		}
		return operation, input, nil
	default:
		return "", nil, invalidArgument(fmt.Sprintf("unsupported operation: %s", operation))
	}
}

// ParseSince accepts RFC3339 timestamps or plain dates. Empty means no bound.
func ParseSince(value string) (time.Time, error) {
	raw := strings.TrimSpace(value)
	if raw == "" {
		return time.Time{}, nil
	}
	if parsed, err := time.Parse(time.RFC3339, raw); err == nil {
		return parsed.UTC(), nil
	}
	if parsed, err := time.Parse("2006-01-02", raw); err == nil {
		return parsed.UTC(), nil
	}
	return time.Time{}, invalidArgument(fmt.Sprintf("since must be RFC3339 or YYYY-MM-DD, got %q", value))
}

func decodeParams(params map[string]any, out any) error {
	data, err := json.Marshal(params)
	if err != nil {
		return invalidArgument("invalid params encoding")
	}
	if err := json.Unmarshal(data, out); err != nil {
		return contracts.ToolError{Code: contracts.ErrorInvalidArgument, Message: "invalid params", Details: map[string]any{"error": err.Error()}}
	}
	return nil
}

func joinSnippets(code string, snippets []string) string {
	parts := make([]string, 0, len(snippets)+1)
	if strings.TrimSpace(code) != "" {
		parts = append(parts, code)
	}
	for _, s := range snippets {
		if strings.TrimSpace(s) != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, "\n\n")
}

func checkCategory(field, value string) error {
	if len(value) > maxCategoryLength {
		return invalidArgument(fmt.Sprintf("%s is too long", field))
	}
	return nil
}

func normalizeFormat(value string) (string, error) {
	switch f := strings.ToLower(strings.TrimSpace(value)); f {
	case "", FormatJSON:
		return FormatJSON, nil
	case FormatMarkdown, "md":
		return FormatMarkdown, nil
	default:
		return "", invalidArgument(fmt.Sprintf("format must be json or markdown, got %q", value))
	}
}

func invalidArgument(msg string) error {
	return contracts.ToolError{Code: contracts.ErrorInvalidArgument, Message: msg}
}

func invalidLimitError(field string) error {
	return invalidArgument(fmt.Sprintf("%s is out of range", field))
}
