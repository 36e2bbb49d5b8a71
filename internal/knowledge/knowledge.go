// Package knowledge serves guidance text, reference links and version
// metadata for review reports. The data is static and read-only.
package knowledge

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed knowledge.yaml
var embeddedDocument []byte

var ErrLookupMiss = errors.New("knowledge lookup miss")

const GeneralCategory = "general"

// Provider is the lookup surface the review engine consumes.
type Provider interface {
	GuidanceText(key string) (string, error)
	References(category string) []string
	ResolveVersion(hint string) string
}

type Document struct {
	DefaultVersion string                 `yaml:"default_version"`
	Fallback       string                 `yaml:"fallback"`
	Versions       map[string]VersionDocs `yaml:"versions"`
	Guidance       map[string]string      `yaml:"guidance"`
	BestPractices  []BestPractice         `yaml:"best_practices"`
}

type VersionDocs struct {
	References map[string][]string `yaml:"references"`
	Concepts   map[string]string   `yaml:"concepts"`
	Patterns   []Pattern           `yaml:"patterns"`
}

type BestPractice struct {
	ID          string `yaml:"id" json:"id"`
	Title       string `yaml:"title" json:"title"`
	Category    string `yaml:"category" json:"category"`
	Description string `yaml:"description" json:"description"`
}

// Base is the static Provider. It is immutable after construction.
type Base struct {
	doc     Document
	version string
}

// Default loads the embedded document.
func Default() (*Base, error) {
	return Parse(embeddedDocument)
}

// LoadFile loads a replacement document from disk; an empty path selects the
// embedded one.
func LoadFile(path string) (*Base, error) {
	if strings.TrimSpace(path) == "" {
		return Default()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read knowledge file %s: %w", path, err)
	}
	return Parse(data)
}

func Parse(data []byte) (*Base, error) {
	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode knowledge document: %w", err)
	}
	if doc.DefaultVersion == "" {
		doc.DefaultVersion = "latest"
	}
	if _, ok := doc.Versions[doc.DefaultVersion]; !ok {
		return nil, fmt.Errorf("default version %q has no documentation entry", doc.DefaultVersion)
	}
	if doc.Fallback == "" {
		doc.Fallback = "See the official documentation for this rule."
	}
	return &Base{doc: doc, version: doc.DefaultVersion}, nil
}

// WithVersion returns a copy that answers from the given version, resolved
// through ResolveVersion.
func (b *Base) WithVersion(hint string) *Base {
	return &Base{doc: b.doc, version: b.ResolveVersion(hint)}
}

func (b *Base) Version() string {
	return b.version
}

func (b *Base) Fallback() string {
	return b.doc.Fallback
}

func (b *Base) GuidanceText(key string) (string, error) {
	text, ok := b.doc.Guidance[key]
	if !ok || strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("%w: %s", ErrLookupMiss, key)
	}
	return text, nil
}

// References returns the links for category, or the general links when the
// category has none.
func (b *Base) References(category string) []string {
	docs := b.doc.Versions[b.version]
	refs, ok := docs.References[category]
	if !ok {
		refs = docs.References[GeneralCategory]
	}
	out := make([]string, len(refs))
	copy(out, refs)
	return out
}

// ResolveVersion maps unknown or empty hints to the default version.
func (b *Base) ResolveVersion(hint string) string {
	hint = strings.TrimSpace(hint)
	if _, ok := b.doc.Versions[hint]; ok {
		return hint
	}
	return b.doc.DefaultVersion
}

func (b *Base) Versions() []string {
	out := make([]string, 0, len(b.doc.Versions))
	for v := range b.doc.Versions {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

// BestPractices lists practices, optionally restricted to one category.
func (b *Base) BestPractices(category string) []BestPractice {
	out := make([]BestPractice, 0, len(b.doc.BestPractices))
	for _, bp := range b.doc.BestPractices {
		if category != "" && bp.Category != category {
			continue
		}
		out = append(out, bp)
	}
	return out
}

// FindBestPractices filters by category and then keeps practices whose title,
// description or category mention scenario (case-insensitive).
func (b *Base) FindBestPractices(scenario, category string) []BestPractice {
	all := b.BestPractices(category)
	needle := strings.ToLower(strings.TrimSpace(scenario))
	if needle == "" {
		return all
	}
	out := all[:0]
	for _, bp := range all {
		if strings.Contains(strings.ToLower(bp.Title), needle) ||
			strings.Contains(strings.ToLower(bp.Description), needle) ||
			strings.Contains(strings.ToLower(bp.Category), needle) {
			out = append(out, bp)
		}
	}
	return out
}
