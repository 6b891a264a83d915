package openai

import (
	"encoding/json"

	"github.com/outlinehq/outline/internal/jsonschema"
	"github.com/outlinehq/outline/providers/ai"
)

/*
	CHAT COMPLETIONS API - INPUT
*/

// chatCompletionRequest is the /v1/chat/completions request wire format.
type chatCompletionRequest struct {
	Model     string        `json:"model"`
	Messages  []chatMessage `json:"messages"`
	MaxTokens *int          `json:"max_completion_tokens,omitempty"`
	Stream    *bool         `json:"stream,omitempty"`

	// Tool calling
	Tools      []chatTool `json:"tools,omitempty"`
	ToolChoice any        `json:"tool_choice,omitempty"` // "auto", "none", "required", or forcing object

	// Structured output
	ResponseFormat *chatResponseFormat `json:"response_format,omitempty"`

	StreamOptions *streamOptions `json:"stream_options,omitempty"`
}

type chatMessage struct {
	Role       string         `json:"role"` // system, user, assistant, tool
	Content    string         `json:"content,omitempty"`
	Name       string         `json:"name,omitempty"`
	ToolCallID string         `json:"tool_call_id,omitempty"`
	ToolCalls  []chatToolCall `json:"tool_calls,omitempty"`
}

type chatTool struct {
	Type     string       `json:"type"` // "function"
	Function chatFunction `json:"function"`
}

type chatFunction struct {
	Name        string             `json:"name"`
	Description string             `json:"description,omitempty"`
	Parameters  *jsonschema.Schema `json:"parameters,omitempty"`
	Strict      bool               `json:"strict,omitempty"`
}

type chatToolCall struct {
	ID       string `json:"id"`
	Type     string `json:"type"` // "function"
	Function struct {
		Name      string `json:"name"`
		Arguments string `json:"arguments"` // JSON string
	} `json:"function"`
}

type chatResponseFormat struct {
	Type       string          `json:"type"` // "text", "json_object", "json_schema"
	JSONSchema *chatJSONSchema `json:"json_schema,omitempty"`
}

type chatJSONSchema struct {
	Name   string             `json:"name"`
	Strict bool               `json:"strict,omitempty"`
	Schema *jsonschema.Schema `json:"schema"`
}

type streamOptions struct {
	IncludeUsage bool `json:"include_usage"`
}

// toolChoiceForced builds the tool_choice object that forces a single named
// function call.
func toolChoiceForced(name string) any {
	return map[string]any{
		"type": "function",
		"function": map[string]any{
			"name": name,
		},
	}
}

// requestToChatCompletion renders the generic request into the chat
// completions wire format. The system prompt, when present, is prepended as
// the first message.
func requestToChatCompletion(request ai.ChatRequest) chatCompletionRequest {
	chatRequest := chatCompletionRequest{
		Model: request.Model,
	}

	if request.SystemPrompt != "" {
		chatRequest.Messages = append(chatRequest.Messages, chatMessage{
			Role:    "system",
			Content: request.SystemPrompt,
		})
	}

	for _, message := range request.Messages {
		converted := chatMessage{
			Role:       string(message.Role),
			Content:    message.Content,
			Name:       message.Name,
			ToolCallID: message.ToolCallID,
		}
		for _, toolCall := range message.ToolCalls {
			wireCall := chatToolCall{ID: toolCall.ID, Type: "function"}
			wireCall.Function.Name = toolCall.Function.Name
			wireCall.Function.Arguments = toolCall.Function.Arguments
			converted.ToolCalls = append(converted.ToolCalls, wireCall)
		}
		chatRequest.Messages = append(chatRequest.Messages, converted)
	}

	if request.MaxTokens > 0 {
		maxTokens := request.MaxTokens
		chatRequest.MaxTokens = &maxTokens
	}

	for _, tool := range request.Tools {
		chatRequest.Tools = append(chatRequest.Tools, chatTool{
			Type: "function",
			Function: chatFunction{
				Name:        tool.Name,
				Description: tool.Description,
				Parameters:  tool.Parameters,
			},
		})
	}
	if request.ToolChoiceForced != "" {
		chatRequest.ToolChoice = toolChoiceForced(request.ToolChoiceForced)
	}

	if request.ResponseFormat != nil {
		chatRequest.ResponseFormat = &chatResponseFormat{
			Type: "json_schema",
			JSONSchema: &chatJSONSchema{
				Name:   request.ResponseFormat.Name,
				Strict: request.ResponseFormat.Strict,
				Schema: request.ResponseFormat.Schema,
			},
		}
	}

	return chatRequest
}

/*
	CHAT COMPLETIONS API - OUTPUT
*/

// chatCompletionResponse is the /v1/chat/completions response wire format.
type chatCompletionResponse struct {
	ID      string `json:"id"`
	Object  string `json:"object"`
	Created int64  `json:"created"`
	Model   string `json:"model"`
	Choices []struct {
		Index        int    `json:"index"`
		FinishReason string `json:"finish_reason"`
		Message      struct {
			Role      string         `json:"role"`
			Content   string         `json:"content"`
			ToolCalls []chatToolCall `json:"tool_calls,omitempty"`
		} `json:"message"`
	} `json:"choices"`
	Usage *chatUsage `json:"usage,omitempty"`
}

type chatUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// responseToGeneric maps the first choice of the wire response into the
// generic ChatResponse, preserving the raw envelope for metadata consumers.
func responseToGeneric(response chatCompletionResponse, raw json.RawMessage) *ai.ChatResponse {
	generic := &ai.ChatResponse{
		Id:      response.ID,
		Model:   response.Model,
		Created: response.Created,
		Raw:     raw,
	}

	if len(response.Choices) > 0 {
		choice := response.Choices[0]
		generic.Content = choice.Message.Content
		generic.FinishReason = choice.FinishReason
		for _, wireCall := range choice.Message.ToolCalls {
			generic.ToolCalls = append(generic.ToolCalls, ai.ToolCall{
				ID:   wireCall.ID,
				Type: "function",
				Function: ai.ToolCallFunction{
					Name:      wireCall.Function.Name,
					Arguments: wireCall.Function.Arguments,
				},
			})
		}
	}

	if response.Usage != nil {
		generic.Usage = &ai.Usage{
			PromptTokens:     response.Usage.PromptTokens,
			CompletionTokens: response.Usage.CompletionTokens,
			TotalTokens:      response.Usage.TotalTokens,
		}
	}

	return generic
}

/*
	CHAT COMPLETIONS API - STREAMING
*/

// chatCompletionStreamChunk is one SSE payload of a streamed completion.
type chatCompletionStreamChunk struct {
	ID      string `json:"id"`
	Model   string `json:"model"`
	Choices []struct {
		Index        int     `json:"index"`
		FinishReason *string `json:"finish_reason"`
		Delta        struct {
			Content   *string `json:"content"`
			ToolCalls []struct {
				Index    int    `json:"index"`
				ID       string `json:"id,omitempty"`
				Function struct {
					Name      string `json:"name,omitempty"`
					Arguments string `json:"arguments,omitempty"`
				} `json:"function"`
			} `json:"tool_calls,omitempty"`
		} `json:"delta"`
	} `json:"choices"`
	Usage *chatUsage `json:"usage,omitempty"`
}

func unmarshalStreamChunk(payload string) (*chatCompletionStreamChunk, error) {
	var chunk chatCompletionStreamChunk
	if err := json.Unmarshal([]byte(payload), &chunk); err != nil {
		return nil, err
	}
	return &chunk, nil
}
