package narrative

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ToneTemplates holds the prompt scaffolding for the text collaborator.
// Loaded from YAML so the tone can be tuned without a rebuild.
type ToneTemplates struct {
	PenaltySystem      string `yaml:"penalty_system"`
	PenaltyInstruction string `yaml:"penalty_instruction"`
	SuggestionSystem   string `yaml:"suggestion_system"`
	SuggestionPrompt   string `yaml:"suggestion_prompt"`
}

// DefaultToneTemplates returns the built-in prompt set.
func DefaultToneTemplates() *ToneTemplates {
	return &ToneTemplates{
		PenaltySystem: "You write short, dry diary entries about failed study pledges. " +
			"Satirize the situation, never the person. 30-180 characters, diary voice.",
		PenaltyInstruction: "Write the diary entry for this failed pledge. " +
			"30-180 characters, one or two sentences, no direct insults.",
		SuggestionSystem: "You are a terse study coach. One actionable sentence, no pep talk.",
		SuggestionPrompt: "Wins: %d, losses: %d, focused minutes: %d. " +
			"Suggest one concrete adjustment for tomorrow.",
	}
}

// LoadToneTemplates reads templates from a YAML file, filling any missing
// field from the defaults.
func LoadToneTemplates(path string) (*ToneTemplates, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read tone templates: %w", err)
	}

	t := DefaultToneTemplates()
	if err := yaml.Unmarshal(data, t); err != nil {
		return nil, fmt.Errorf("parse tone templates: %w", err)
	}
	return t, nil
}
