package rules

import (
	"context"

	"github.com/arkaft-labs/arkaft-mcp-google-adk/internal/mcp/adapters"
	"github.com/arkaft-labs/arkaft-mcp-google-adk/internal/mcp/contracts"
)

func HandleList(ctx context.Context, a *adapters.Adapter, in contracts.RulesListInput, maxItems int) (contracts.RulesListOutput, error) {
	out, err := a.Rules(ctx, in)
	if err != nil {
		return contracts.RulesListOutput{}, err
	}
	if maxItems > 0 && len(out.Rules) > maxItems {
		out.Rules = out.Rules[:maxItems]
	}
	return out, nil
}
