package architecture

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/arkaft-labs/arkaft-mcp-google-adk/internal/engine/finding"
)

func TestCheckDescription(t *testing.T) {
	cases := []struct {
		name     string
		text     string
		category string
		want     []string
	}{
		{name: "empty", text: "  ", want: nil},
		{name: "clean", text: "An agent with two async tools backed by a session service.", want: nil},
		{name: "panic", text: "The tool will PANIC when the config is missing.", want: []string{"description-panic-handling"}},
		{
			name: "all",
			text: "A non-standard layout whose handlers perform blocking operations and panic on bad input.",
			want: []string{"description-nonstandard-structure", "description-blocking-operations", "description-panic-handling"},
		},
		{
			name:     "category filter",
			text:     "A non-standard layout whose handlers perform blocking operations and panic on bad input.",
			category: CategoryAsyncUsage,
			want:     []string{"description-blocking-operations"},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var got []string
			for _, f := range CheckDescription(tc.text, tc.category) {
				assert.Zero(t, f.Line)
				assert.True(t, IsCategory(f.Category))
				assert.Equal(t, "architecture."+f.RuleID, f.GuidanceKey)
				got = append(got, f.RuleID)
			}
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestCheckDescription_Severities(t *testing.T) {
	severities := map[string]finding.Severity{}
	for _, f := range CheckDescription("non-standard, blocking operations, panic", "") {
		severities[f.RuleID] = f.Severity
	}
	assert.Equal(t, finding.SeverityWarning, severities["description-nonstandard-structure"])
	assert.Equal(t, finding.SeverityConcern, severities["description-blocking-operations"])
	assert.Equal(t, finding.SeverityConcern, severities["description-panic-handling"])
}
