package history

import (
	"context"

	"github.com/arkaft-labs/arkaft-mcp-google-adk/internal/mcp/adapters"
	"github.com/arkaft-labs/arkaft-mcp-google-adk/internal/mcp/contracts"
)

func HandleList(ctx context.Context, a *adapters.Adapter, in contracts.HistoryListInput, maxItems int) (contracts.HistoryListOutput, error) {
	in.Limit = normalizeLimit(in.Limit, maxItems)
	return a.History(ctx, in)
}

func normalizeLimit(value, maxItems int) int {
	if value <= 0 {
		return maxItems
	}
	if maxItems > 0 && value > maxItems {
		return maxItems
	}
	return value
}
