package architecture

import (
	"errors"
	"fmt"
	"strings"

	"github.com/sahilm/fuzzy"

	"github.com/arkaft-labs/arkaft-mcp-google-adk/internal/engine/parser"
)

var ErrUnknownCategory = errors.New("unknown rule category")

// UnknownCategoryError is a client input error; Suggestions holds close matches.
type UnknownCategoryError struct {
	Category    string
	Suggestions []string
}

func (e *UnknownCategoryError) Error() string {
	msg := fmt.Sprintf("unknown rule category %q", e.Category)
	if len(e.Suggestions) > 0 {
		msg += fmt.Sprintf(" (did you mean %s?)", strings.Join(e.Suggestions, ", "))
	}
	return msg
}

func (e *UnknownCategoryError) Is(target error) bool {
	return target == ErrUnknownCategory
}

type Options struct {
	// Weights overrides default rule weights by rule ID.
	Weights map[string]float64
	// Disabled holds rule ID globs excluded from evaluation.
	Disabled []string
	// FallbackUnknownCategory drops an unknown filter instead of failing.
	FallbackUnknownCategory bool
}

// Filter restricts validation to one category; the zero value runs all rules.
type Filter struct {
	Category string
}

// Validator evaluates the rule table. It is immutable after NewValidator and
// safe for concurrent use.
type Validator struct {
	rules    []Rule
	fallback bool
}

func NewValidator(opts Options) (*Validator, error) {
	disabled, err := compilePatterns(opts.Disabled)
	if err != nil {
		return nil, fmt.Errorf("disabled rules: %w", err)
	}

	rules := withGuidanceKeys(Catalog())
	known := make(map[string]bool, len(rules))
	for _, r := range rules {
		known[r.ID] = true
	}
	for id, w := range opts.Weights {
		if !known[id] {
			return nil, fmt.Errorf("weight override for unknown rule %q", id)
		}
		if w <= 0 || w > 1 {
			return nil, fmt.Errorf("weight for %q must be in (0,1], got %v", id, w)
		}
	}

	out := make([]Rule, 0, len(rules))
	for _, r := range rules {
		if matchPatterns(disabled, r.ID) {
			continue
		}
		if w, ok := opts.Weights[r.ID]; ok {
			r.Weight = w
		}
		out = append(out, r)
	}
	return &Validator{rules: out, fallback: opts.FallbackUnknownCategory}, nil
}

// Rules returns a copy of the enabled rules in catalog order.
func (v *Validator) Rules() []Rule {
	out := make([]Rule, len(v.rules))
	copy(out, v.rules)
	return out
}

// ResolveFilter validates a category name against the fixed categories.
func (v *Validator) ResolveFilter(category string) (Filter, error) {
	category = strings.TrimSpace(category)
	if category == "" || IsCategory(category) {
		return Filter{Category: category}, nil
	}
	if v.fallback {
		return Filter{}, nil
	}
	return Filter{}, &UnknownCategoryError{Category: category, Suggestions: suggest(category)}
}

// Validate evaluates every enabled rule, in catalog order, that passes filter.
// Each rule sees the unit independently of the others.
func (v *Validator) Validate(unit *parser.SourceUnit, filter Filter) ([]Outcome, error) {
	filter, err := v.ResolveFilter(filter.Category)
	if err != nil {
		return nil, err
	}
	out := make([]Outcome, 0, len(v.rules))
	for _, r := range v.rules {
		if filter.Category != "" && r.Category != filter.Category {
			continue
		}
		out = append(out, r.evaluate(unit))
	}
	return out, nil
}

func suggest(category string) []string {
	matches := fuzzy.Find(category, Categories())
	out := make([]string, 0, len(matches))
	for _, m := range matches {
		out = append(out, m.Str)
	}
	if len(out) == 0 {
		// fuzzy requires the pattern to be a subsequence; fall back to prefix overlap.
		for _, c := range Categories() {
			if len(category) >= 3 && strings.HasPrefix(c, category[:3]) {
				out = append(out, c)
			}
		}
	}
	return out
}
