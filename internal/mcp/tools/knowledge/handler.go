package knowledge

import (
	"context"

	"github.com/arkaft-labs/arkaft-mcp-google-adk/internal/mcp/adapters"
	"github.com/arkaft-labs/arkaft-mcp-google-adk/internal/mcp/contracts"
)

func HandleBestPractices(ctx context.Context, a *adapters.Adapter, in contracts.BestPracticesInput, maxItems int) (contracts.BestPracticesOutput, error) {
	out, err := a.BestPractices(ctx, in)
	if err != nil {
		return contracts.BestPracticesOutput{}, err
	}
	if maxItems > 0 {
		if len(out.Practices) > maxItems {
			out.Practices = out.Practices[:maxItems]
		}
		if len(out.Patterns) > maxItems {
			out.Patterns = out.Patterns[:maxItems]
		}
	}
	return out, nil
}

func HandleQuery(ctx context.Context, a *adapters.Adapter, in contracts.KnowledgeQueryInput, maxItems int) (contracts.KnowledgeQueryOutput, error) {
	out, err := a.Query(ctx, in)
	if err != nil {
		return contracts.KnowledgeQueryOutput{}, err
	}
	if maxItems > 0 {
		if len(out.Concepts) > maxItems {
			out.Concepts = out.Concepts[:maxItems]
		}
		if len(out.References) > maxItems {
			out.References = out.References[:maxItems]
		}
	}
	return out, nil
}
