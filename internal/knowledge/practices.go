package knowledge

import (
	"strings"
)

// BestPracticesReferences is the reference key listed with every best
// practice answer, after the general links.
const BestPracticesReferences = "best-practices"

// Pattern is a named implementation approach and the situations it fits.
type Pattern struct {
	ID          string   `yaml:"id" json:"id"`
	Name        string   `yaml:"name" json:"name"`
	Category    string   `yaml:"category" json:"category"`
	Description string   `yaml:"description" json:"description"`
	UseCases    []string `yaml:"use_cases" json:"use_cases"`
}

type PracticeGuide struct {
	Scenario   string         `json:"scenario"`
	Version    string         `json:"version"`
	Practices  []BestPractice `json:"practices"`
	Patterns   []Pattern      `json:"patterns"`
	References []string       `json:"documentation_refs"`
}

// FindPatterns returns the patterns of a version whose name, description or
// use cases mention scenario (case-insensitive). An empty scenario keeps all.
func (b *Base) FindPatterns(scenario, versionHint string) []Pattern {
	patterns := b.doc.Versions[b.ResolveVersion(versionHint)].Patterns
	needle := strings.ToLower(strings.TrimSpace(scenario))
	out := make([]Pattern, 0, len(patterns))
	for _, p := range patterns {
		if needle == "" || patternMentions(p, needle) {
			out = append(out, p)
		}
	}
	return out
}

func patternMentions(p Pattern, needle string) bool {
	if strings.Contains(strings.ToLower(p.Name), needle) || strings.Contains(strings.ToLower(p.Description), needle) {
		return true
	}
	for _, uc := range p.UseCases {
		if strings.Contains(strings.ToLower(uc), needle) {
			return true
		}
	}
	return false
}

// Guide answers a best practice request: matching practices and patterns plus
// the documentation links of the resolved version.
func (b *Base) Guide(scenario, category, versionHint string) PracticeGuide {
	version := b.ResolveVersion(versionHint)
	return PracticeGuide{
		Scenario:   scenario,
		Version:    version,
		Practices:  b.FindBestPractices(scenario, category),
		Patterns:   b.FindPatterns(scenario, version),
		References: b.practiceReferences(category, version),
	}
}

func (b *Base) practiceReferences(category, version string) []string {
	refs := b.doc.Versions[version].References
	keys := []string{GeneralCategory, BestPracticesReferences}
	if category != "" {
		keys = append(keys, category)
	}
	seen := make(map[string]bool)
	out := []string{}
	for _, key := range keys {
		for _, url := range refs[key] {
			if !seen[url] {
				seen[url] = true
				out = append(out, url)
			}
		}
	}
	return out
}
