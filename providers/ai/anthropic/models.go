package anthropic

import (
	"encoding/json"

	"github.com/outlinehq/outline/internal/jsonschema"
)

/*
	MESSAGES API - INPUT
*/

// anthropicRequest is the /v1/messages request wire format.
type anthropicRequest struct {
	Model      string               `json:"model"`
	MaxTokens  int                  `json:"max_tokens"` // Required by the API on every request
	System     string               `json:"system,omitempty"`
	Messages   []anthropicMessage   `json:"messages"`
	Tools      []anthropicTool      `json:"tools,omitempty"`
	ToolChoice *anthropicToolChoice `json:"tool_choice,omitempty"`
	Stream     bool                 `json:"stream,omitempty"`
}

type anthropicMessage struct {
	Role    string `json:"role"` // "user" or "assistant"
	Content any    `json:"content"`
}

// anthropicContentBlock is one element of a block-array message content.
type anthropicContentBlock struct {
	Type string `json:"type"` // "text", "tool_use", "tool_result"
	Text string `json:"text,omitempty"`

	// tool_use fields
	ID    string          `json:"id,omitempty"`
	Name  string          `json:"name,omitempty"`
	Input json.RawMessage `json:"input,omitempty"`

	// tool_result fields
	ToolUseID string `json:"tool_use_id,omitempty"`
	Content   string `json:"content,omitempty"`
}

type anthropicTool struct {
	Name        string             `json:"name"`
	Description string             `json:"description,omitempty"`
	InputSchema *jsonschema.Schema `json:"input_schema"`
}

// anthropicToolChoice directs tool selection. Type "tool" with a Name forces
// that specific tool; "auto" leaves the choice to the model.
type anthropicToolChoice struct {
	Type string `json:"type"`
	Name string `json:"name,omitempty"`
}

/*
	MESSAGES API - OUTPUT
*/

// anthropicResponse is the /v1/messages response wire format.
type anthropicResponse struct {
	ID         string                 `json:"id"`
	Type       string                 `json:"type"`
	Role       string                 `json:"role"`
	Model      string                 `json:"model"`
	Content    []anthropicReplyBlock  `json:"content"`
	StopReason string                 `json:"stop_reason"`
	Usage      anthropicUsageSnapshot `json:"usage"`
}

type anthropicReplyBlock struct {
	Type  string          `json:"type"` // "text" or "tool_use"
	Text  string          `json:"text,omitempty"`
	ID    string          `json:"id,omitempty"`
	Name  string          `json:"name,omitempty"`
	Input json.RawMessage `json:"input,omitempty"`
}

type anthropicUsageSnapshot struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
}

/*
	MESSAGES API - STREAMING
*/

// anthropicStreamEvent is the envelope of one SSE payload. The Type
// discriminator selects which optional field is populated.
//
// Event lifecycle:
//
//	message_start → content_block_start → content_block_delta(s) →
//	content_block_stop → message_delta → message_stop
type anthropicStreamEvent struct {
	Type string `json:"type"`

	// message_start
	Message *struct {
		ID    string                 `json:"id"`
		Model string                 `json:"model"`
		Usage anthropicUsageSnapshot `json:"usage"`
	} `json:"message,omitempty"`

	// content_block_start
	ContentBlock *struct {
		Type string `json:"type"` // "text", "tool_use", "thinking"
		ID   string `json:"id,omitempty"`
		Name string `json:"name,omitempty"`
	} `json:"content_block,omitempty"`

	// content_block_delta
	Delta *struct {
		Type        string `json:"type"` // "text_delta", "input_json_delta"
		Text        string `json:"text,omitempty"`
		PartialJSON string `json:"partial_json,omitempty"`
		StopReason  string `json:"stop_reason,omitempty"` // message_delta reuses this struct
	} `json:"delta,omitempty"`

	// message_delta
	Usage *anthropicUsageSnapshot `json:"usage,omitempty"`

	// error
	Error *struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

func unmarshalStreamEvent(payload string) (*anthropicStreamEvent, error) {
	var event anthropicStreamEvent
	if err := json.Unmarshal([]byte(payload), &event); err != nil {
		return nil, err
	}
	return &event, nil
}
