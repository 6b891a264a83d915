package openai

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

// StreamMessage implements [ai.StreamProvider] for the chat completions
// endpoint. It sends a streaming request (stream=true) and returns a
// ChatStream yielding deltas as SSE frames arrive. Pre-stream errors are
// returned directly; mid-stream errors come through the iterator.
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
		observer.Trace(ctx, "OpenAI provider preparing streaming request",
			observability.String(observability.AttrLLMProvider, ProviderName),
			observability.String(observability.AttrLLMEndpoint, p.baseURL),
			observability.String(observability.AttrLLMModel, request.Model),
			observability.Int(observability.AttrRequestMessagesCount, len(request.Messages)),
		)
	}

	if p.apiKey == "" {
		return nil, llmerr.ErrMissingAPIKey
	}

	chatRequest := requestToChatCompletion(request)
	streamEnabled := true
	chatRequest.Stream = &streamEnabled
	chatRequest.StreamOptions = &streamOptions{IncludeUsage: true}

	streamURL := p.baseURL + chatCompletionsEndpoint
	httpResponse, err := utils.DoPostSSE(ctx, p.client, streamURL, p.apiKey, chatRequest)
	if err != nil {
		return nil, classifyError(httpResponse, err)
	}

	scanner := sse.NewScanner(httpResponse.Body)

	iteratorFunc := func(yield func(ai.StreamEvent, error) bool) {
		// The body stays open for the life of the iterator; abandoning the
		// range loop runs this defer and releases the connection.
		defer utils.CloseWithLog(httpResponse.Body)

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

			chunk, parseErr := unmarshalStreamChunk(frame.Data)
			if parseErr != nil {
				yield(ai.StreamEvent{}, fmt.Errorf("failed to parse streaming chunk: %w", parseErr))
				return
			}

			for _, event := range chunkToStreamEvents(chunk) {
				if !yield(event, nil) {
					return
				}
			}
		}
	}

	return ai.NewChatStream(iteratorFunc), nil
}

// chunkToStreamEvents converts one streaming chunk into zero or more
// StreamEvents; a single chunk can carry content, tool calls, and usage.
func chunkToStreamEvents(chunk *chatCompletionStreamChunk) []ai.StreamEvent {
	var events []ai.StreamEvent

	// The usage chunk typically has empty choices, so handle it first.
	if chunk.Usage != nil {
		events = append(events, ai.StreamEvent{
			Type: ai.StreamEventUsage,
			Usage: &ai.Usage{
				PromptTokens:     chunk.Usage.PromptTokens,
				CompletionTokens: chunk.Usage.CompletionTokens,
				TotalTokens:      chunk.Usage.TotalTokens,
			},
		})
	}

	for _, choice := range chunk.Choices {
		delta := choice.Delta

		if delta.Content != nil && *delta.Content != "" {
			events = append(events, ai.StreamEvent{
				Type:    ai.StreamEventContent,
				Content: *delta.Content,
			})
		}

		for _, toolCallPart := range delta.ToolCalls {
			events = append(events, ai.StreamEvent{
				Type: ai.StreamEventToolCall,
				ToolCall: &ai.ToolCallDelta{
					Index:     toolCallPart.Index,
					ID:        toolCallPart.ID,
					Name:      toolCallPart.Function.Name,
					Arguments: toolCallPart.Function.Arguments,
				},
			})
		}

		if choice.FinishReason != nil && *choice.FinishReason != "" {
			events = append(events, ai.StreamEvent{
				Type:         ai.StreamEventDone,
				FinishReason: *choice.FinishReason,
			})
		}
	}

	return events
}
