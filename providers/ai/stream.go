package ai

import (
	"iter"
	"strings"
)

// StreamEventType identifies the kind of delta carried by a StreamEvent.
type StreamEventType string

const (
	// StreamEventContent indicates a text content delta.
	StreamEventContent StreamEventType = "content"
	// StreamEventToolCall indicates an incremental tool call delta.
	StreamEventToolCall StreamEventType = "tool_call"
	// StreamEventUsage carries token usage metadata (typically last).
	StreamEventUsage StreamEventType = "usage"
	// StreamEventDone signals that the stream finished normally.
	StreamEventDone StreamEventType = "done"
)

// ToolCallDelta is an incremental update to a streamed tool call. ID and Name
// are only present on the first chunk for a given index; later chunks carry
// only Arguments fragments.
type ToolCallDelta struct {
	Index     int    `json:"index"`
	ID        string `json:"id,omitempty"`
	Name      string `json:"name,omitempty"`
	Arguments string `json:"arguments,omitempty"` // Incremental JSON argument fragment
}

// StreamEvent is a single delta yielded during response streaming. Each event
// carries exactly one payload, identified by Type.
type StreamEvent struct {
	Type         StreamEventType `json:"type"`
	Content      string          `json:"content,omitempty"`
	ToolCall     *ToolCallDelta  `json:"tool_call,omitempty"`
	Usage        *Usage          `json:"usage,omitempty"`
	FinishReason string          `json:"finish_reason,omitempty"` // Present on StreamEventDone
}

// ChatStream wraps a streaming iterator and accumulates deltas into a final
// ChatResponse on demand. It supports range-based iteration via Iter for
// real-time processing and Collect for callers who want the complete
// response but still benefit from streaming transport.
//
// Callers must consume the stream, either by iterating Iter (breaking out
// early is fine) or by calling Collect: the provider holds the HTTP response
// body open until the iterator completes or is abandoned via a loop break.
type ChatStream struct {
	iterator iter.Seq2[StreamEvent, error]
}

// NewChatStream creates a ChatStream from a raw streaming iterator. The
// iterator yields events with a nil error for normal deltas and a non-nil
// error to signal a mid-stream failure.
func NewChatStream(iterator iter.Seq2[StreamEvent, error]) *ChatStream {
	return &ChatStream{iterator: iterator}
}

// NewSingleEventStream wraps an already-complete ChatResponse as a stream.
// Used when a provider cannot stream: the whole response is delivered as one
// content event (plus tool call and usage events) followed by a done event.
func NewSingleEventStream(response *ChatResponse) *ChatStream {
	iteratorFunc := func(yield func(StreamEvent, error) bool) {
		if response.Content != "" {
			if !yield(StreamEvent{Type: StreamEventContent, Content: response.Content}, nil) {
				return
			}
		}

		for toolIndex, toolCall := range response.ToolCalls {
			if !yield(StreamEvent{
				Type: StreamEventToolCall,
				ToolCall: &ToolCallDelta{
					Index:     toolIndex,
					ID:        toolCall.ID,
					Name:      toolCall.Function.Name,
					Arguments: toolCall.Function.Arguments,
				},
			}, nil) {
				return
			}
		}

		if response.Usage != nil {
			if !yield(StreamEvent{Type: StreamEventUsage, Usage: response.Usage}, nil) {
				return
			}
		}

		yield(StreamEvent{Type: StreamEventDone, FinishReason: response.FinishReason}, nil)
	}

	return NewChatStream(iteratorFunc)
}

// Iter returns the underlying iterator for range-over-func loops.
func (stream *ChatStream) Iter() iter.Seq2[StreamEvent, error] {
	return stream.iterator
}

// Collect consumes the entire stream and returns the accumulated
// ChatResponse. A mid-stream error terminates collection and returns the
// partial response alongside the error, never instead of it.
func (stream *ChatStream) Collect() (*ChatResponse, error) {
	accumulated := &ChatResponse{}
	var content strings.Builder
	var builders []toolCallBuilder

	for event, err := range stream.iterator {
		if err != nil {
			accumulated.Content = content.String()
			finalizeToolCalls(accumulated, builders)
			return accumulated, err
		}

		switch event.Type {
		case StreamEventContent:
			content.WriteString(event.Content)

		case StreamEventToolCall:
			if event.ToolCall != nil {
				builders = accumulateToolCallDelta(builders, event.ToolCall)
			}

		case StreamEventUsage:
			if event.Usage != nil {
				accumulated.Usage = event.Usage
			}

		case StreamEventDone:
			accumulated.FinishReason = event.FinishReason
		}
	}

	accumulated.Content = content.String()
	finalizeToolCalls(accumulated, builders)
	return accumulated, nil
}

// toolCallBuilder accumulates tool call deltas into a complete ToolCall.
type toolCallBuilder struct {
	id        string
	name      string
	arguments strings.Builder
}

// accumulateToolCallDelta merges delta into the running builder list, growing
// it when a new tool call index appears.
func accumulateToolCallDelta(builders []toolCallBuilder, delta *ToolCallDelta) []toolCallBuilder {
	for len(builders) <= delta.Index {
		builders = append(builders, toolCallBuilder{})
	}

	builder := &builders[delta.Index]
	if delta.ID != "" {
		builder.id = delta.ID
	}
	if delta.Name != "" {
		builder.name = delta.Name
	}
	if delta.Arguments != "" {
		builder.arguments.WriteString(delta.Arguments)
	}

	return builders
}

func finalizeToolCalls(response *ChatResponse, builders []toolCallBuilder) {
	for i := range builders {
		response.ToolCalls = append(response.ToolCalls, ToolCall{
			ID:   builders[i].id,
			Type: "function",
			Function: ToolCallFunction{
				Name:      builders[i].name,
				Arguments: builders[i].arguments.String(),
			},
		})
	}
}
