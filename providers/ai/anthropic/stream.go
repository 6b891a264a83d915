package anthropic

import (
	"context"
	"fmt"
	"io"

	"github.com/outlinehq/outline/core/llmerr"
	"github.com/outlinehq/outline/internal/sse"
	"github.com/outlinehq/outline/internal/utils"
	"github.com/outlinehq/outline/providers/ai"
	"github.com/outlinehq/outline/providers/observability"
)

// StreamMessage implements [ai.StreamProvider] for the Messages API. It sends
// a streaming request (stream=true) and returns a ChatStream yielding deltas
// as SSE frames arrive. Pre-stream errors are returned directly; mid-stream
// errors come through the iterator.
func (p *Provider) StreamMessage(ctx context.Context, request ai.ChatRequest) (*ai.ChatStream, error) {
	span := observability.SpanFromContext(ctx)
	observer := observability.ObserverFromContext(ctx)

	if span != nil {
		span.AddEvent(observability.EventLLMRequestStart)
		span.SetAttributes(
			observability.String(observability.AttrLLMProvider, ProviderName),
			observability.String(observability.AttrLLMModel, request.Model),
			observability.Bool("llm.streaming", true),
		)
	}
	if observer != nil {
		observer.Trace(ctx, "Anthropic provider preparing streaming request",
			observability.String(observability.AttrLLMProvider, ProviderName),
			observability.String(observability.AttrLLMEndpoint, p.baseURL),
			observability.String(observability.AttrLLMModel, request.Model),
			observability.Int(observability.AttrRequestMessagesCount, len(request.Messages)),
		)
	}

	if p.apiKey == "" {
		return nil, llmerr.ErrMissingAPIKey
	}

	wireRequest := requestToAnthropic(request)
	wireRequest.Stream = true

	streamURL := p.baseURL + messagesEndpoint
	httpResponse, err := utils.DoPostSSE(ctx, p.client, streamURL, "", wireRequest, p.buildHeaders()...)
	if err != nil {
		return nil, classifyError(httpResponse, err)
	}

	scanner := sse.NewScanner(httpResponse.Body)

	iteratorFunc := func(yield func(ai.StreamEvent, error) bool) {
		defer utils.CloseWithLog(httpResponse.Body)

		// toolCallCounter gives each tool_use block a zero-based index
		// consistent with the ToolCallDelta.Index contract.
		toolCallCounter := 0

		// Token counts are spread across message_start (input) and
		// message_delta (output); they are emitted together at the end.
		inputTokens := 0
		outputTokens := 0

		// Captured from message_delta, emitted on message_stop.
		finishReason := ""

		for {
			if ctx.Err() != nil {
				yield(ai.StreamEvent{}, ctx.Err())
				return
			}

			frame, scanErr := scanner.Next()
			if scanErr == io.EOF {
				return
			}
			if scanErr != nil {
				yield(ai.StreamEvent{}, fmt.Errorf("SSE read error: %w", scanErr))
				return
			}
			if frame.Terminal {
				return
			}

			event, parseErr := unmarshalStreamEvent(frame.Data)
			if parseErr != nil {
				yield(ai.StreamEvent{}, fmt.Errorf("failed to parse stream event: %w", parseErr))
				return
			}

			switch event.Type {

			case "message_start":
				if event.Message != nil {
					inputTokens = event.Message.Usage.InputTokens
				}

			case "content_block_start":
				// tool_use blocks carry ID and Name only on this event, so
				// the tool call header is emitted immediately.
				if event.ContentBlock != nil && event.ContentBlock.Type == "tool_use" {
					toolEvent := ai.StreamEvent{
						Type: ai.StreamEventToolCall,
						ToolCall: &ai.ToolCallDelta{
							Index: toolCallCounter,
							ID:    event.ContentBlock.ID,
							Name:  event.ContentBlock.Name,
						},
					}
					if !yield(toolEvent, nil) {
						return
					}
					toolCallCounter++
				}

			case "content_block_delta":
				if event.Delta == nil {
					continue
				}
				switch event.Delta.Type {
				case "text_delta":
					if event.Delta.Text != "" {
						if !yield(ai.StreamEvent{Type: ai.StreamEventContent, Content: event.Delta.Text}, nil) {
							return
						}
					}
				case "input_json_delta":
					// Incremental JSON for the currently open tool_use block;
					// toolCallCounter-1 is its index.
					if event.Delta.PartialJSON != "" {
						if !yield(ai.StreamEvent{
							Type: ai.StreamEventToolCall,
							ToolCall: &ai.ToolCallDelta{
								Index:     toolCallCounter - 1,
								Arguments: event.Delta.PartialJSON,
							},
						}, nil) {
							return
						}
					}
				}

			case "message_delta":
				if event.Delta != nil && event.Delta.StopReason != "" {
					finishReason = event.Delta.StopReason
				}
				if event.Usage != nil {
					outputTokens = event.Usage.OutputTokens
				}

			case "message_stop":
				usageEvent := ai.StreamEvent{
					Type: ai.StreamEventUsage,
					Usage: &ai.Usage{
						PromptTokens:     inputTokens,
						CompletionTokens: outputTokens,
						TotalTokens:      inputTokens + outputTokens,
					},
				}
				if !yield(usageEvent, nil) {
					return
				}
				yield(ai.StreamEvent{Type: ai.StreamEventDone, FinishReason: finishReason}, nil)
				return

			case "error":
				message := "unknown stream error"
				if event.Error != nil {
					message = event.Error.Message
				}
				yield(ai.StreamEvent{}, fmt.Errorf("anthropic stream error: %s", message))
				return
			}
		}
	}

	return ai.NewChatStream(iteratorFunc), nil
}
