package knowledge

import (
	"fmt"
	"sort"
	"strings"

	"github.com/sahilm/fuzzy"
)

type Concept struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

type Answer struct {
	Query      string    `json:"query"`
	Version    string    `json:"version"`
	Concepts   []Concept `json:"concepts"`
	References []string  `json:"references"`
}

// Query ranks the concepts of a version against a free-text query.
func (b *Base) Query(query, versionHint string) Answer {
	version := b.ResolveVersion(versionHint)
	concepts := b.doc.Versions[version].Concepts
	names := make([]string, 0, len(concepts))
	for name := range concepts {
		names = append(names, name)
	}
	sort.Strings(names)

	answer := Answer{Query: query, Version: version}
	seen := make(map[string]bool)
	needle := strings.ToLower(strings.TrimSpace(query))
	for _, name := range names {
		if needle != "" && (strings.Contains(needle, name) || strings.Contains(name, needle)) {
			answer.Concepts = append(answer.Concepts, Concept{Name: name, Description: concepts[name]})
			seen[name] = true
		}
	}
	if needle != "" {
		for _, m := range fuzzy.Find(needle, names) {
			if seen[m.Str] {
				continue
			}
			answer.Concepts = append(answer.Concepts, Concept{Name: m.Str, Description: concepts[m.Str]})
			seen[m.Str] = true
		}
	}

	refs := b.doc.Versions[version].References[GeneralCategory]
	answer.References = append(answer.References, refs...)
	return answer
}

// Markdown renders an answer the way documentation replies are shown to clients.
func (a Answer) Markdown() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "## Documentation Query: %s\n\n", a.Query)
	fmt.Fprintf(&sb, "**Version:** %s\n\n", a.Version)
	if len(a.Concepts) == 0 {
		sb.WriteString("No matching concepts were found in the knowledge base.\n\n")
	}
	for _, c := range a.Concepts {
		fmt.Fprintf(&sb, "- **%s**: %s\n", c.Name, c.Description)
	}
	if len(a.Concepts) > 0 {
		sb.WriteString("\n")
	}
	sb.WriteString("### Official References:\n")
	for _, ref := range a.References {
		fmt.Fprintf(&sb, "- [%s](%s)\n", ref, ref)
	}
	return sb.String()
}
