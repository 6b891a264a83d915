package ai

import (
	"encoding/json"

	"github.com/outlinehq/outline/internal/jsonschema"
)

/*
	##### PROVIDER INPUT #####
*/

// ChatRequest is the provider-agnostic request shape. Each provider renders
// it into its own wire format.
type ChatRequest struct {
	Model            string            `json:"model,omitempty"`
	Messages         []Message         `json:"messages"`                     // Conversation messages, system prompt excluded
	SystemPrompt     string            `json:"system_prompt,omitempty"`      // Optional system prompt
	Tools            []ToolDescription `json:"tools,omitempty"`              // Tool definitions, if any
	ToolChoiceForced string            `json:"tool_choice_forced,omitempty"` // Name of the single tool the model must call
	ResponseFormat   *ResponseFormat   `json:"response_format,omitempty"`    // Structured-output directive
	MaxTokens        int               `json:"max_tokens,omitempty"`
}

// ToolDescription declares one callable tool to the model.
type ToolDescription struct {
	Name        string             `json:"name"`
	Description string             `json:"description,omitempty"`
	Parameters  *jsonschema.Schema `json:"parameters,omitempty"`
}

// ResponseFormat asks the provider for schema-conforming output. How it is
// rendered varies by provider (response_format for OpenAI-compatible APIs,
// forced tool use for Anthropic).
type ResponseFormat struct {
	Name   string             `json:"name"`
	Schema *jsonschema.Schema `json:"schema,omitempty"`
	Strict bool               `json:"strict,omitempty"`
}

// Message is a single conversation message.
type Message struct {
	Role    MessageRole `json:"role"`
	Content string      `json:"content,omitempty"`

	// Tool calling fields
	ToolCalls  []ToolCall `json:"tool_calls,omitempty"`   // role=assistant requesting tools
	ToolCallID string     `json:"tool_call_id,omitempty"` // role=tool, links to the originating call
	Name       string     `json:"name,omitempty"`         // role=tool, name of the responding tool
}

// Valid reports whether the message has both a role and some content. A
// tool-call-only assistant message counts as content.
func (m Message) Valid() bool {
	if m.Role == "" {
		return false
	}
	return m.Content != "" || len(m.ToolCalls) > 0
}

/*
	##### PROVIDER OUTPUT #####
*/

// Usage carries token accounting reported by the provider.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens,omitempty"`
	CompletionTokens int `json:"completion_tokens,omitempty"`
	TotalTokens      int `json:"total_tokens,omitempty"`
}

// ChatResponse is the provider-agnostic completed response. Raw preserves the
// provider's original envelope for metadata consumers.
type ChatResponse struct {
	Id           string          `json:"id"`
	Model        string          `json:"model"`
	Created      int64           `json:"created"`
	Content      string          `json:"content"`
	ToolCalls    []ToolCall      `json:"tool_calls,omitempty"`
	FinishReason string          `json:"finish_reason,omitempty"`
	Usage        *Usage          `json:"usage,omitempty"`
	Raw          json.RawMessage `json:"-"`
}

// ToolCall is a function/tool invocation requested by the model.
type ToolCall struct {
	ID       string           `json:"id,omitempty"`
	Type     string           `json:"type"` // "function"
	Function ToolCallFunction `json:"function"`
}

// ToolCallFunction carries the invoked tool's name and its arguments as a
// JSON string.
type ToolCallFunction struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

/*
	##### ENUMS #####
*/

// MessageRole is the role of a conversation message.
type MessageRole string

const (
	RoleSystem    MessageRole = "system"
	RoleUser      MessageRole = "user"
	RoleAssistant MessageRole = "assistant"
	RoleTool      MessageRole = "tool"
)

// ValidRole reports whether role is one of the four recognized roles.
func ValidRole(role MessageRole) bool {
	switch role {
	case RoleSystem, RoleUser, RoleAssistant, RoleTool:
		return true
	}
	return false
}
