package review

import (
	"context"

	"github.com/arkaft-labs/arkaft-mcp-google-adk/internal/mcp/adapters"
	"github.com/arkaft-labs/arkaft-mcp-google-adk/internal/mcp/contracts"
)

func HandleFile(ctx context.Context, a *adapters.Adapter, in contracts.ReviewFileInput, maxItems int) (contracts.ReviewOutput, error) {
	out, err := a.ReviewFile(ctx, in)
	if err != nil {
		return contracts.ReviewOutput{}, err
	}
	return limitReview(out, maxItems), nil
}

func HandleValidate(ctx context.Context, a *adapters.Adapter, in contracts.ReviewValidateInput, maxItems int) (contracts.ReviewOutput, error) {
	out, err := a.Validate(ctx, in)
	if err != nil {
		return contracts.ReviewOutput{}, err
	}
	return limitReview(out, maxItems), nil
}

// limitReview bounds the finding and recommendation lists. The score is left
// untouched so a truncated response still reports the full result.
func limitReview(out contracts.ReviewOutput, maxItems int) contracts.ReviewOutput {
	if maxItems <= 0 {
		return out
	}
	if len(out.Findings) > maxItems {
		out.Findings = out.Findings[:maxItems]
		out.Truncated = true
	}
	if len(out.Recommendations) > maxItems {
		out.Recommendations = out.Recommendations[:maxItems]
		out.Truncated = true
	}
	return out
}
