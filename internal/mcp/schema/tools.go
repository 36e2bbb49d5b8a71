package schema

import (
	"fmt"
	"strings"

	"github.com/arkaft-labs/arkaft-mcp-google-adk/internal/mcp/contracts"
	"github.com/arkaft-labs/arkaft-mcp-google-adk/internal/mcp/openapi"
)

type ToolDefinition struct {
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	InputSchema map[string]any `json:"input_schema"`
	Version     string         `json:"version"`
}

// BuildToolDefinitions describes the single operation-dispatch tool. Per
// operation params schemas come from the embedded OpenAPI document and are
// listed under $defs keyed by operation ID.
func BuildToolDefinitions(toolName string) ([]ToolDefinition, error) {
	if strings.TrimSpace(toolName) == "" {
		toolName = contracts.ToolNameArkaft
	}
	ops, err := openapi.Operations()
	if err != nil {
		return nil, err
	}
	if err := openapi.CheckCoverage(ops); err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(ops))
	defs := make(map[string]any, len(ops))
	var desc strings.Builder
	desc.WriteString("Rust code review and Google ADK guidance. Operations:")
	for _, op := range ops {
		ids = append(ids, string(op.ID))
		defs[string(op.ID)] = op.InputSchema
		fmt.Fprintf(&desc, "\n- %s", op.ID)
		if op.Summary != "" {
			fmt.Fprintf(&desc, ": %s", op.Summary)
		}
	}

	return []ToolDefinition{
		{
			Name:        toolName,
			Description: desc.String(),
			Version:     contracts.ContractVersion,
			InputSchema: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"operation": map[string]any{
						"type":        "string",
						"description": "Operation identifier (e.g., review.file).",
						"enum":        ids,
					},
					"params": map[string]any{
						"type":                 "object",
						"description":          "Operation params; see $defs for the schema of each operation.",
						"additionalProperties": true,
					},
				},
				"required": []string{"operation"},
				"$defs":    defs,
			},
		},
	}, nil
}
