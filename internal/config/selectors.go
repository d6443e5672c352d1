package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/j-veylop/token-overlay-tui/internal/page"
)

// ModelRule maps a label fragment to a canonical model name.
type ModelRule struct {
	Match string `yaml:"match"`
	Name  string `yaml:"name"`
}

// Selectors is the selector profile: ordered candidates per element kind.
// Earlier candidates take priority, so the profile keeps working while the
// host page's markup drifts.
type Selectors struct {
	Editor         []string    `yaml:"editor"`
	EditorFallback []string    `yaml:"editor_fallback"`
	Messages       []string    `yaml:"messages"`
	ModelLabel     []string    `yaml:"model_label"`
	SendButton     []string    `yaml:"send_button"`
	MainRegion     []string    `yaml:"main_region"`
	ModelRules     []ModelRule `yaml:"model_rules"`
	DefaultModel   string      `yaml:"default_model"`
}

// DefaultSelectors returns the built-in profile for the chat application.
func DefaultSelectors() Selectors {
	return Selectors{
		Editor: []string{
			"#prompt-textarea",
			`div[contenteditable="true"].ProseMirror`,
		},
		EditorFallback: []string{"textarea"},
		Messages:       []string{"div.markdown.prose"},
		ModelLabel:     []string{"div[class*='model-selector'] span"},
		SendButton: []string{
			`button[aria-label="Send"]`,
			`button[type="submit"]`,
			`button[data-testid="send-button"]`,
		},
		MainRegion: []string{"main"},
		// Specific labels must precede the broader ones they contain.
		ModelRules: []ModelRule{
			{Match: "4o mini", Name: "gpt-4o-mini"},
			{Match: "4o", Name: "gpt-4o"},
			{Match: "3.5", Name: "gpt-3.5-turbo"},
			{Match: "4", Name: "gpt-4-turbo"},
		},
		DefaultModel: "gpt-4o",
	}
}

// LoadSelectors returns the default profile with the fields set in the YAML
// file at path laid over it. Omitted fields keep their defaults. An empty
// path returns the defaults.
func LoadSelectors(path string) (Selectors, error) {
	selectors := DefaultSelectors()
	if path == "" {
		return selectors, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Selectors{}, fmt.Errorf("failed to read %s: %w", path, err)
	}

	override, err := parseSelectors(data)
	if err != nil {
		return Selectors{}, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	merged := selectors.Merge(override)
	if err := merged.Validate(); err != nil {
		return Selectors{}, err
	}
	return merged, nil
}

func parseSelectors(data []byte) (Selectors, error) {
	var s Selectors
	if err := yaml.Unmarshal(data, &s); err != nil {
		return Selectors{}, err
	}
	return s, nil
}

// Merge returns s with every non-empty field of override replacing its
// counterpart.
func (s Selectors) Merge(override Selectors) Selectors {
	if len(override.Editor) > 0 {
		s.Editor = override.Editor
	}
	if len(override.EditorFallback) > 0 {
		s.EditorFallback = override.EditorFallback
	}
	if len(override.Messages) > 0 {
		s.Messages = override.Messages
	}
	if len(override.ModelLabel) > 0 {
		s.ModelLabel = override.ModelLabel
	}
	if len(override.SendButton) > 0 {
		s.SendButton = override.SendButton
	}
	if len(override.MainRegion) > 0 {
		s.MainRegion = override.MainRegion
	}
	if len(override.ModelRules) > 0 {
		s.ModelRules = override.ModelRules
	}
	if override.DefaultModel != "" {
		s.DefaultModel = override.DefaultModel
	}
	return s
}

// Validate checks that every selector compiles and every model rule is
// complete.
func (s Selectors) Validate() error {
	groups := map[string][]string{
		"editor":          s.Editor,
		"editor_fallback": s.EditorFallback,
		"messages":        s.Messages,
		"model_label":     s.ModelLabel,
		"send_button":     s.SendButton,
		"main_region":     s.MainRegion,
	}
	for name, group := range groups {
		if err := page.ValidateSelectors(group); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
	}

	for i, rule := range s.ModelRules {
		if strings.TrimSpace(rule.Match) == "" || strings.TrimSpace(rule.Name) == "" {
			return fmt.Errorf("model_rules[%d]: match and name are required", i)
		}
	}
	if s.DefaultModel == "" {
		return fmt.Errorf("default_model is required")
	}
	return nil
}
