// Package detect infers the active model variant from the page.
package detect

import (
	"strings"

	"github.com/j-veylop/token-overlay-tui/internal/config"
	"github.com/j-veylop/token-overlay-tui/internal/page"
)

// Detector matches the model selector label against ordered rules.
type Detector struct {
	labelSelectors []string
	rules          []config.ModelRule
	fallback       string
}

// New creates a Detector from the selector profile.
func New(s config.Selectors) *Detector {
	rules := make([]config.ModelRule, len(s.ModelRules))
	for i, r := range s.ModelRules {
		rules[i] = config.ModelRule{Match: strings.ToLower(r.Match), Name: r.Name}
	}
	return &Detector{
		labelSelectors: s.ModelLabel,
		rules:          rules,
		fallback:       s.DefaultModel,
	}
}

// Detect returns the canonical name of the first rule whose fragment appears
// in the label, or the fallback model when the label is missing or nothing
// matches.
func (d *Detector) Detect(doc *page.Document) string {
	label, ok := doc.QueryFirst(d.labelSelectors)
	if !ok {
		return d.fallback
	}
	return d.Match(label.InnerText())
}

// Match applies the rules to a label text.
func (d *Detector) Match(label string) string {
	text := strings.ToLower(label)
	for _, r := range d.rules {
		if strings.Contains(text, r.Match) {
			return r.Name
		}
	}
	return d.fallback
}

// Fallback returns the default model name.
func (d *Detector) Fallback() string {
	return d.fallback
}
