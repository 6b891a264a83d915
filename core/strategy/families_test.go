package strategy

import (
	"strings"
	"testing"
)

// TestDefaultFamilies_KnownModels verifies the compiled-in pattern lists
// against representative model identifiers.
func TestDefaultFamilies_KnownModels(t *testing.T) {
	families := DefaultFamilies()

	toolMode := []string{"claude-opus-4-1", "claude-sonnet-4-5", "anthropic/claude-3-haiku"}
	for _, model := range toolMode {
		if !families.MatchesToolMode(model) {
			t.Errorf("expected %s in tool-mode family", model)
		}
	}

	jsonSchema := []string{"gpt-4o", "gpt-5", "chatgpt-4o-latest", "o1-preview", "o3", "o4-mini", "openai/gpt-4o"}
	for _, model := range jsonSchema {
		if !families.MatchesJSONSchema(model) {
			t.Errorf("expected %s in json-schema family", model)
		}
	}

	neither := []string{"mistral-large", "llama-3-70b", "gemini-2.0-flash"}
	for _, model := range neither {
		if families.MatchesToolMode(model) || families.MatchesJSONSchema(model) {
			t.Errorf("expected %s in neither family", model)
		}
	}
}

// TestMatchPattern_CaseInsensitive verifies matching ignores case on both
// sides.
func TestMatchPattern_CaseInsensitive(t *testing.T) {
	families := Families{ToolMode: []string{"Claude-*"}}
	if !families.MatchesToolMode("CLAUDE-SONNET-4-5") {
		t.Error("expected case-insensitive prefix match")
	}
}

// TestMatchPattern_ExactWithoutStar verifies that a pattern without a
// trailing star does not match as a prefix.
func TestMatchPattern_ExactWithoutStar(t *testing.T) {
	families := Families{JSONSchema: []string{"gpt-4o"}}
	if !families.MatchesJSONSchema("gpt-4o") {
		t.Error("expected exact match")
	}
	if families.MatchesJSONSchema("gpt-4o-mini") {
		t.Error("exact pattern must not match longer identifiers")
	}
}

// TestLoadFamilies_YAML verifies a family configuration round-trips through
// the YAML loader.
func TestLoadFamilies_YAML(t *testing.T) {
	config := `
tool_mode:
  - claude-*
  - my-internal-model
json_schema:
  - gpt-*
`
	families, err := LoadFamilies(strings.NewReader(config))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !families.MatchesToolMode("my-internal-model") {
		t.Error("expected custom tool-mode entry to match")
	}
	if !families.MatchesJSONSchema("gpt-4o") {
		t.Error("expected gpt-* to match")
	}
}

// TestLoadFamilies_EmptyDocument verifies that an empty configuration is
// valid and matches nothing.
func TestLoadFamilies_EmptyDocument(t *testing.T) {
	families, err := LoadFamilies(strings.NewReader(""))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if families.MatchesToolMode("claude-sonnet-4-5") {
		t.Error("empty configuration must not match")
	}
}

// TestLoadFamilies_Malformed verifies that invalid YAML reports an error.
func TestLoadFamilies_Malformed(t *testing.T) {
	if _, err := LoadFamilies(strings.NewReader("tool_mode: {not: [a list")); err == nil {
		t.Error("expected an error for malformed YAML")
	}
}
