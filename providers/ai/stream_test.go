package ai

import (
	"errors"
	"iter"
	"testing"
)

// makeStream is a test helper that builds a ChatStream from a hand-crafted
// event slice. If midErr is non-nil, it is injected after the event at
// errAtIndex instead of a normal yield.
func makeStream(events []StreamEvent, midErr error, errAtIndex int) *ChatStream {
	iteratorFunc := func(yield func(StreamEvent, error) bool) {
		for i, event := range events {
			if midErr != nil && i == errAtIndex {
				yield(event, midErr)
				return
			}
			if !yield(event, nil) {
				return
			}
		}
	}
	return NewChatStream(iter.Seq2[StreamEvent, error](iteratorFunc))
}

// ========== NewSingleEventStream ==========

// TestNewSingleEventStream_ContentOnly verifies that a response with only
// Content produces a content event followed by a done event.
func TestNewSingleEventStream_ContentOnly(t *testing.T) {
	response := &ChatResponse{Content: "hello world", FinishReason: "stop"}
	stream := NewSingleEventStream(response)

	var collected []StreamEvent
	for event, err := range stream.Iter() {
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		collected = append(collected, event)
	}

	if len(collected) != 2 {
		t.Fatalf("expected 2 events (content + done), got %d", len(collected))
	}
	if collected[0].Type != StreamEventContent || collected[0].Content != "hello world" {
		t.Errorf("unexpected first event: %+v", collected[0])
	}
	if collected[1].Type != StreamEventDone || collected[1].FinishReason != "stop" {
		t.Errorf("unexpected last event: %+v", collected[1])
	}
}

// TestNewSingleEventStream_WithToolCalls verifies that tool calls surface as
// complete single deltas before the done event.
func TestNewSingleEventStream_WithToolCalls(t *testing.T) {
	response := &ChatResponse{
		ToolCalls: []ToolCall{{
			ID:       "call_1",
			Type:     "function",
			Function: ToolCallFunction{Name: "lookup", Arguments: `{"q":"x"}`},
		}},
	}

	var collected []StreamEvent
	for event, err := range NewSingleEventStream(response).Iter() {
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		collected = append(collected, event)
	}

	if len(collected) != 2 {
		t.Fatalf("expected 2 events (tool call + done), got %d", len(collected))
	}
	delta := collected[0].ToolCall
	if delta == nil || delta.Name != "lookup" || delta.Arguments != `{"q":"x"}` {
		t.Errorf("unexpected tool call delta: %+v", delta)
	}
}

// ========== Collect ==========

// TestCollect_ContentDeltas verifies that fragmented content accumulates in
// order into the final response.
func TestCollect_ContentDeltas(t *testing.T) {
	stream := makeStream([]StreamEvent{
		{Type: StreamEventContent, Content: "The capital "},
		{Type: StreamEventContent, Content: "of France "},
		{Type: StreamEventContent, Content: "is Paris."},
		{Type: StreamEventDone, FinishReason: "stop"},
	}, nil, -1)

	response, err := stream.Collect()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if response.Content != "The capital of France is Paris." {
		t.Errorf("unexpected content: %q", response.Content)
	}
	if response.FinishReason != "stop" {
		t.Errorf("unexpected finish reason: %q", response.FinishReason)
	}
}

// TestCollect_ToolCallDeltas verifies that incremental tool call fragments
// reassemble into complete calls.
func TestCollect_ToolCallDeltas(t *testing.T) {
	stream := makeStream([]StreamEvent{
		{Type: StreamEventToolCall, ToolCall: &ToolCallDelta{Index: 0, ID: "call_1", Name: "book_recommendation", Arguments: `{"tit`}},
		{Type: StreamEventToolCall, ToolCall: &ToolCallDelta{Index: 0, Arguments: `le": "Dune"}`}},
		{Type: StreamEventDone, FinishReason: "tool_calls"},
	}, nil, -1)

	response, err := stream.Collect()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(response.ToolCalls) != 1 {
		t.Fatalf("expected 1 tool call, got %d", len(response.ToolCalls))
	}
	call := response.ToolCalls[0]
	if call.ID != "call_1" || call.Function.Name != "book_recommendation" {
		t.Errorf("unexpected call identity: %+v", call)
	}
	if call.Function.Arguments != `{"title": "Dune"}` {
		t.Errorf("arguments corrupted: %q", call.Function.Arguments)
	}
}

// TestCollect_InterleavedToolCalls verifies that deltas for multiple indexes
// are routed to the right builders.
func TestCollect_InterleavedToolCalls(t *testing.T) {
	stream := makeStream([]StreamEvent{
		{Type: StreamEventToolCall, ToolCall: &ToolCallDelta{Index: 0, ID: "a", Name: "first", Arguments: `{"x":`}},
		{Type: StreamEventToolCall, ToolCall: &ToolCallDelta{Index: 1, ID: "b", Name: "second", Arguments: `{"y":`}},
		{Type: StreamEventToolCall, ToolCall: &ToolCallDelta{Index: 0, Arguments: `1}`}},
		{Type: StreamEventToolCall, ToolCall: &ToolCallDelta{Index: 1, Arguments: `2}`}},
		{Type: StreamEventDone},
	}, nil, -1)

	response, err := stream.Collect()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(response.ToolCalls) != 2 {
		t.Fatalf("expected 2 tool calls, got %d", len(response.ToolCalls))
	}
	if response.ToolCalls[0].Function.Arguments != `{"x":1}` || response.ToolCalls[1].Function.Arguments != `{"y":2}` {
		t.Errorf("interleaved arguments corrupted: %+v", response.ToolCalls)
	}
}

// TestCollect_UsageEvent verifies usage metadata lands on the response.
func TestCollect_UsageEvent(t *testing.T) {
	stream := makeStream([]StreamEvent{
		{Type: StreamEventContent, Content: "hi"},
		{Type: StreamEventUsage, Usage: &Usage{PromptTokens: 12, CompletionTokens: 3, TotalTokens: 15}},
		{Type: StreamEventDone},
	}, nil, -1)

	response, err := stream.Collect()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if response.Usage == nil || response.Usage.TotalTokens != 15 {
		t.Errorf("unexpected usage: %+v", response.Usage)
	}
}

// TestCollect_MidStreamErrorKeepsPartial verifies that a failure mid-stream
// returns the error alongside the content accumulated so far.
func TestCollect_MidStreamErrorKeepsPartial(t *testing.T) {
	streamErr := errors.New("connection reset")
	stream := makeStream([]StreamEvent{
		{Type: StreamEventContent, Content: "partial "},
		{Type: StreamEventContent, Content: "answer"},
		{},
	}, streamErr, 2)

	response, err := stream.Collect()
	if !errors.Is(err, streamErr) {
		t.Fatalf("expected the stream error, got %v", err)
	}
	if response == nil || response.Content != "partial answer" {
		t.Errorf("expected partial content preserved, got %+v", response)
	}
}
