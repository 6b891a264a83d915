package strategy

import (
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"
)

// Families configures which model identifiers belong to each structured
// output family. Patterns are matched case-insensitively; a trailing '*'
// makes the pattern a prefix match, otherwise it must match exactly.
//
// The family lists are configuration, not structural invariants: the
// tool-mode list in particular encodes an empirical reliability observation
// about which providers behave better when streamed, and providers change
// over time. Ship defaults, let deployments override.
type Families struct {
	// ToolMode models support forced native tool calls; requests for them
	// are streamed internally even when the caller asked for a buffered
	// result.
	ToolMode []string `yaml:"tool_mode"`

	// JSONSchema models accept an OpenAI-style response_format directive.
	JSONSchema []string `yaml:"json_schema"`
}

// DefaultFamilies returns the compiled-in family configuration.
func DefaultFamilies() Families {
	return Families{
		ToolMode: []string{
			"claude-*",
			"anthropic/*",
		},
		JSONSchema: []string{
			"gpt-*",
			"chatgpt-*",
			"o1*",
			"o3*",
			"o4*",
			"openai/*",
		},
	}
}

// LoadFamilies reads a YAML family configuration:
//
//	tool_mode:
//	  - claude-*
//	json_schema:
//	  - gpt-*
//
// An empty document yields empty lists (everything falls back to the
// system-message strategy), which is a valid configuration.
func LoadFamilies(reader io.Reader) (Families, error) {
	var families Families
	if err := yaml.NewDecoder(reader).Decode(&families); err != nil && err != io.EOF {
		return Families{}, fmt.Errorf("failed to decode families config: %w", err)
	}
	return families, nil
}

// MatchesToolMode reports whether model belongs to the tool-mode family.
func (f Families) MatchesToolMode(model string) bool {
	return matchAny(f.ToolMode, model)
}

// MatchesJSONSchema reports whether model belongs to the json-schema family.
func (f Families) MatchesJSONSchema(model string) bool {
	return matchAny(f.JSONSchema, model)
}

func matchAny(patterns []string, model string) bool {
	model = strings.ToLower(model)
	for _, pattern := range patterns {
		if matchPattern(strings.ToLower(pattern), model) {
			return true
		}
	}
	return false
}

func matchPattern(pattern, model string) bool {
	if prefix, found := strings.CutSuffix(pattern, "*"); found {
		return strings.HasPrefix(model, prefix)
	}
	return model == pattern
}
