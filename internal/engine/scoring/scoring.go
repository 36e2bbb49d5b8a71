package scoring

import (
	"math"

	"github.com/arkaft-labs/arkaft-mcp-google-adk/internal/engine/architecture"
	"github.com/arkaft-labs/arkaft-mcp-google-adk/internal/engine/finding"
)

const DefaultConcernPenalty = 5

type Policy struct {
	// ConcernPenalty is subtracted from the overall score per Concern finding.
	ConcernPenalty int
}

func DefaultPolicy() Policy {
	return Policy{ConcernPenalty: DefaultConcernPenalty}
}

type CategoryScore struct {
	Category         string  `json:"category"`
	Score            int     `json:"score"`
	ApplicableWeight float64 `json:"applicable_weight"`
	PassedWeight     float64 `json:"passed_weight"`
	Rules            int     `json:"rules"`
	Failed           int     `json:"failed"`
}

type Report struct {
	Overall         int               `json:"overall"`
	Categories      []CategoryScore   `json:"categories"`
	Findings        []finding.Finding `json:"findings"`
	Recommendations []string          `json:"recommendations"`
}

// Score blends rule outcomes into category subscores and an overall score,
// then applies the Concern penalty. Inputs are not modified.
func Score(findings []finding.Finding, outcomes []architecture.Outcome, policy Policy) Report {
	byCategory := make(map[string]*CategoryScore)
	var applicable, passed float64
	all := make([]finding.Finding, 0, len(findings)+len(outcomes))
	all = append(all, findings...)

	for _, o := range outcomes {
		if o.Finding != nil {
			all = append(all, *o.Finding)
		}
		if !o.Applicable || o.Weight <= 0 {
			continue
		}
		cs := byCategory[o.Category]
		if cs == nil {
			cs = &CategoryScore{Category: o.Category}
			byCategory[o.Category] = cs
		}
		cs.Rules++
		cs.ApplicableWeight += o.Weight
		applicable += o.Weight
		if o.Passed {
			cs.PassedWeight += o.Weight
			passed += o.Weight
		} else {
			cs.Failed++
		}
	}

	report := Report{Overall: 100, Findings: all}
	for _, category := range architecture.Categories() {
		cs := byCategory[category]
		if cs == nil {
			continue
		}
		cs.Score = percent(cs.PassedWeight, cs.ApplicableWeight)
		report.Categories = append(report.Categories, *cs)
	}
	if applicable > 0 {
		report.Overall = percent(passed, applicable)
	}

	penalty := policy.ConcernPenalty
	if penalty < 0 {
		penalty = 0
	}
	report.Overall -= penalty * finding.CountSeverity(all, finding.SeverityConcern)
	if report.Overall < 0 {
		report.Overall = 0
	}

	finding.Sort(report.Findings)
	return report
}

func percent(part, whole float64) int {
	if whole <= 0 {
		return 100
	}
	return int(math.Round(100 * part / whole))
}
