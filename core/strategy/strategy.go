package strategy

import (
	"strings"

	"github.com/outlinehq/outline/providers/ai"
)

// Kind identifies the mechanism used to request structured output.
type Kind string

const (
	// KindNone passes content through verbatim; no schema involved.
	KindNone Kind = "none"
	// KindToolMode forces a single native tool call carrying the schema.
	KindToolMode Kind = "tool_mode"
	// KindJSONSchema uses an OpenAI-style response_format directive.
	KindJSONSchema Kind = "json_schema"
	// KindSystemMessage renders the schema as system-prompt instructions.
	// The universal fallback: it never fails outright, only degrades to
	// prose when the model ignores instructions.
	KindSystemMessage Kind = "system_message"
)

// Overrides are explicit caller choices that win over family inference.
type Overrides struct {
	UseToolMode        bool
	ForceSystemMessage bool
}

// Strategy is the selected structured-output mechanism. Apply renders the
// strategy's request fragment into a provider-agnostic request and
// ProcessResponse extracts the uniform content value from the completed
// response.
type Strategy interface {
	Kind() Kind

	// ForceStream reports whether requests under this strategy should be
	// streamed internally even when the caller asked for a buffered result.
	ForceStream() bool

	// Apply merges the strategy's request fragment into request.
	Apply(request *ai.ChatRequest)

	// ProcessResponse extracts the normalized content string.
	ProcessResponse(response *ai.ChatResponse) string
}

// Select chooses a strategy from the default families. Selection is pure: it
// depends only on the model identifier, schema presence, and the overrides.
func Select(model string, descriptor *Descriptor, overrides Overrides) Strategy {
	return SelectWithFamilies(model, descriptor, overrides, DefaultFamilies())
}

// SelectWithFamilies chooses a strategy using a caller-supplied family
// configuration.
//
// No schema always means KindNone. With a schema, explicit overrides win,
// then families are tested in fixed order, tool-mode first and json-schema
// second, and everything else lands on the system-message fallback. A
// degraded descriptor also lands on the fallback, the only strategy that can
// render it.
func SelectWithFamilies(model string, descriptor *Descriptor, overrides Overrides, families Families) Strategy {
	if descriptor == nil {
		return noneStrategy{}
	}

	if overrides.ForceSystemMessage {
		return systemMessageStrategy{descriptor: descriptor}
	}
	if overrides.UseToolMode {
		return toolModeStrategy{descriptor: descriptor}
	}

	if descriptor.Degraded() {
		return systemMessageStrategy{descriptor: descriptor}
	}

	if families.MatchesToolMode(model) {
		return toolModeStrategy{descriptor: descriptor}
	}
	if families.MatchesJSONSchema(model) {
		return jsonSchemaStrategy{descriptor: descriptor}
	}
	return systemMessageStrategy{descriptor: descriptor}
}

/*
	##### STRATEGY IMPLEMENTATIONS #####
*/

// noneStrategy leaves the request untouched and the content as-is.
type noneStrategy struct{}

func (noneStrategy) Kind() Kind                    { return KindNone }
func (noneStrategy) ForceStream() bool             { return false }
func (noneStrategy) Apply(request *ai.ChatRequest) {}

func (noneStrategy) ProcessResponse(response *ai.ChatResponse) string {
	return Normalize(response)
}

// toolModeStrategy renders the schema as a single forced tool call.
type toolModeStrategy struct {
	descriptor *Descriptor
}

func (toolModeStrategy) Kind() Kind        { return KindToolMode }
func (toolModeStrategy) ForceStream() bool { return true }

func (s toolModeStrategy) Apply(request *ai.ChatRequest) {
	request.Tools = []ai.ToolDescription{{
		Name:        s.descriptor.Name,
		Description: s.descriptor.Description,
		Parameters:  s.descriptor.requestSchema(),
	}}
	request.ToolChoiceForced = s.descriptor.Name
}

func (toolModeStrategy) ProcessResponse(response *ai.ChatResponse) string {
	return Normalize(response)
}

// jsonSchemaStrategy renders the schema as a response-format directive.
type jsonSchemaStrategy struct {
	descriptor *Descriptor
}

func (jsonSchemaStrategy) Kind() Kind        { return KindJSONSchema }
func (jsonSchemaStrategy) ForceStream() bool { return false }

func (s jsonSchemaStrategy) Apply(request *ai.ChatRequest) {
	request.ResponseFormat = &ai.ResponseFormat{
		Name:   s.descriptor.Name,
		Schema: s.descriptor.requestSchema(),
		Strict: true,
	}
}

func (jsonSchemaStrategy) ProcessResponse(response *ai.ChatResponse) string {
	return Normalize(response)
}

// systemMessageStrategy prepends schema instructions to the system prompt.
type systemMessageStrategy struct {
	descriptor *Descriptor
}

func (systemMessageStrategy) Kind() Kind        { return KindSystemMessage }
func (systemMessageStrategy) ForceStream() bool { return false }

func (s systemMessageStrategy) Apply(request *ai.ChatRequest) {
	instructions := s.descriptor.InstructionText()
	if request.SystemPrompt == "" {
		request.SystemPrompt = instructions
		return
	}
	// An existing system prompt is merged, not replaced.
	request.SystemPrompt = instructions + "\n\n" + request.SystemPrompt
}

func (systemMessageStrategy) ProcessResponse(response *ai.ChatResponse) string {
	return Normalize(response)
}

// SystemPromptFromMessages splits system messages out of a message
// list, returning the combined prompt and the remaining messages. Providers
// carry the system prompt out-of-band, so the orchestrator hoists it before
// strategies apply their fragments.
func SystemPromptFromMessages(messages []ai.Message) (string, []ai.Message) {
	var promptParts []string
	var rest []ai.Message
	for _, message := range messages {
		if message.Role == ai.RoleSystem {
			promptParts = append(promptParts, message.Content)
			continue
		}
		rest = append(rest, message)
	}
	return strings.Join(promptParts, "\n\n"), rest
}
