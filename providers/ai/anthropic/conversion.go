package anthropic

import (
	"encoding/json"
	"time"

	"github.com/outlinehq/outline/providers/ai"
)

// defaultMaxTokens is used when the caller did not set a limit; the Messages
// API rejects requests without max_tokens.
const defaultMaxTokens = 4096

// requestToAnthropic renders the generic request into the Messages API wire
// format.
func requestToAnthropic(request ai.ChatRequest) anthropicRequest {
	wireRequest := anthropicRequest{
		Model:     request.Model,
		System:    request.SystemPrompt,
		Messages:  buildMessages(request.Messages),
		MaxTokens: defaultMaxTokens,
	}
	if request.MaxTokens > 0 {
		wireRequest.MaxTokens = request.MaxTokens
	}

	for _, tool := range request.Tools {
		wireRequest.Tools = append(wireRequest.Tools, anthropicTool{
			Name:        tool.Name,
			Description: tool.Description,
			InputSchema: tool.Parameters,
		})
	}

	// A structured-output directive on this provider is expressed as a forced
	// tool whose input schema is the response schema; the Messages API has no
	// response_format field.
	if request.ResponseFormat != nil && len(wireRequest.Tools) == 0 {
		wireRequest.Tools = append(wireRequest.Tools, anthropicTool{
			Name:        request.ResponseFormat.Name,
			InputSchema: request.ResponseFormat.Schema,
		})
		wireRequest.ToolChoice = &anthropicToolChoice{Type: "tool", Name: request.ResponseFormat.Name}
	}

	if request.ToolChoiceForced != "" {
		wireRequest.ToolChoice = &anthropicToolChoice{Type: "tool", Name: request.ToolChoiceForced}
	} else if wireRequest.ToolChoice == nil && len(wireRequest.Tools) > 0 {
		wireRequest.ToolChoice = &anthropicToolChoice{Type: "auto"}
	}

	return wireRequest
}

// buildMessages converts generic messages into Messages API objects. System
// messages are excluded here (the API carries them in the top-level system
// field) and tool results become tool_result content blocks on a user turn.
func buildMessages(messages []ai.Message) []anthropicMessage {
	var converted []anthropicMessage

	for _, message := range messages {
		switch message.Role {
		case ai.RoleSystem:
			continue

		case ai.RoleTool:
			converted = append(converted, anthropicMessage{
				Role: "user",
				Content: []anthropicContentBlock{{
					Type:      "tool_result",
					ToolUseID: message.ToolCallID,
					Content:   message.Content,
				}},
			})

		case ai.RoleAssistant:
			if len(message.ToolCalls) == 0 {
				converted = append(converted, anthropicMessage{Role: "assistant", Content: message.Content})
				continue
			}
			var blocks []anthropicContentBlock
			if message.Content != "" {
				blocks = append(blocks, anthropicContentBlock{Type: "text", Text: message.Content})
			}
			for _, toolCall := range message.ToolCalls {
				blocks = append(blocks, anthropicContentBlock{
					Type:  "tool_use",
					ID:    toolCall.ID,
					Name:  toolCall.Function.Name,
					Input: json.RawMessage(toolCall.Function.Arguments),
				})
			}
			converted = append(converted, anthropicMessage{Role: "assistant", Content: blocks})

		default:
			converted = append(converted, anthropicMessage{Role: "user", Content: message.Content})
		}
	}

	return converted
}

// responseToGeneric maps the wire response into the generic format. Text
// blocks concatenate into Content; tool_use blocks become ToolCalls with
// their input payload serialized as the arguments string.
func responseToGeneric(response anthropicResponse, raw json.RawMessage) *ai.ChatResponse {
	generic := &ai.ChatResponse{
		Id:           response.ID,
		Model:        response.Model,
		Created:      time.Now().Unix(),
		FinishReason: response.StopReason,
		Raw:          raw,
		Usage: &ai.Usage{
			PromptTokens:     response.Usage.InputTokens,
			CompletionTokens: response.Usage.OutputTokens,
			TotalTokens:      response.Usage.InputTokens + response.Usage.OutputTokens,
		},
	}

	for _, block := range response.Content {
		switch block.Type {
		case "text":
			generic.Content += block.Text
		case "tool_use":
			generic.ToolCalls = append(generic.ToolCalls, ai.ToolCall{
				ID:   block.ID,
				Type: "function",
				Function: ai.ToolCallFunction{
					Name:      block.Name,
					Arguments: string(block.Input),
				},
			})
		}
	}

	return generic
}
