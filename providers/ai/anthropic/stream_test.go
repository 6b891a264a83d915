package anthropic

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/outlinehq/outline/providers/ai"
)

// eventStreamHandler writes Messages API SSE events with their event: field,
// as the real endpoint does.
func eventStreamHandler(events ...[2]string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		for _, pair := range events {
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", pair[0], pair[1])
		}
	}
}

// TestStreamMessage_TextDeltas verifies the full streamed-message lifecycle
// maps to content, usage, and done events.
func TestStreamMessage_TextDeltas(t *testing.T) {
	server := httptest.NewServer(eventStreamHandler(
		[2]string{"message_start", `{"type":"message_start","message":{"id":"msg_1","model":"claude-sonnet-4-5","usage":{"input_tokens":9,"output_tokens":0}}}`},
		[2]string{"content_block_start", `{"type":"content_block_start","content_block":{"type":"text"}}`},
		[2]string{"content_block_delta", `{"type":"content_block_delta","delta":{"type":"text_delta","text":"Par"}}`},
		[2]string{"content_block_delta", `{"type":"content_block_delta","delta":{"type":"text_delta","text":"is"}}`},
		[2]string{"content_block_stop", `{"type":"content_block_stop"}`},
		[2]string{"message_delta", `{"type":"message_delta","delta":{"type":"message_delta","stop_reason":"end_turn"},"usage":{"output_tokens":2}}`},
		[2]string{"message_stop", `{"type":"message_stop"}`},
	))
	defer server.Close()

	provider := New().WithAPIKey("sk-ant-test").WithBaseURL(server.URL).(*Provider)
	stream, err := provider.StreamMessage(context.Background(), ai.ChatRequest{Model: "claude-sonnet-4-5"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	response, err := stream.Collect()
	if err != nil {
		t.Fatalf("unexpected collect error: %v", err)
	}
	if response.Content != "Paris" {
		t.Errorf("expected %q, got %q", "Paris", response.Content)
	}
	if response.FinishReason != "end_turn" {
		t.Errorf("expected end_turn, got %q", response.FinishReason)
	}
	if response.Usage == nil || response.Usage.PromptTokens != 9 || response.Usage.CompletionTokens != 2 {
		t.Errorf("expected usage 9/2, got %+v", response.Usage)
	}
}

// TestStreamMessage_ToolUseDeltas verifies tool_use blocks stream as indexed
// tool call deltas that reassemble into complete arguments.
func TestStreamMessage_ToolUseDeltas(t *testing.T) {
	server := httptest.NewServer(eventStreamHandler(
		[2]string{"message_start", `{"type":"message_start","message":{"id":"msg_1","model":"claude-sonnet-4-5","usage":{"input_tokens":4,"output_tokens":0}}}`},
		[2]string{"content_block_start", `{"type":"content_block_start","content_block":{"type":"tool_use","id":"toolu_1","name":"book_recommendation"}}`},
		[2]string{"content_block_delta", `{"type":"content_block_delta","delta":{"type":"input_json_delta","partial_json":"{\"tit"}}`},
		[2]string{"content_block_delta", `{"type":"content_block_delta","delta":{"type":"input_json_delta","partial_json":"le\": \"Dune\"}"}}`},
		[2]string{"content_block_stop", `{"type":"content_block_stop"}`},
		[2]string{"message_delta", `{"type":"message_delta","delta":{"type":"message_delta","stop_reason":"tool_use"},"usage":{"output_tokens":8}}`},
		[2]string{"message_stop", `{"type":"message_stop"}`},
	))
	defer server.Close()

	provider := New().WithAPIKey("sk-ant-test").WithBaseURL(server.URL).(*Provider)
	stream, err := provider.StreamMessage(context.Background(), ai.ChatRequest{Model: "claude-sonnet-4-5"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	response, err := stream.Collect()
	if err != nil {
		t.Fatalf("unexpected collect error: %v", err)
	}
	if len(response.ToolCalls) != 1 {
		t.Fatalf("expected 1 tool call, got %d", len(response.ToolCalls))
	}
	call := response.ToolCalls[0]
	if call.ID != "toolu_1" || call.Function.Name != "book_recommendation" {
		t.Errorf("unexpected call identity: %+v", call)
	}
	if call.Function.Arguments != `{"title": "Dune"}` {
		t.Errorf("arguments corrupted: %q", call.Function.Arguments)
	}
}

// TestStreamMessage_ErrorEvent verifies that an error event surfaces through
// the iterator with partial content preserved by Collect.
func TestStreamMessage_ErrorEvent(t *testing.T) {
	server := httptest.NewServer(eventStreamHandler(
		[2]string{"message_start", `{"type":"message_start","message":{"id":"msg_1","model":"claude-sonnet-4-5","usage":{"input_tokens":4,"output_tokens":0}}}`},
		[2]string{"content_block_delta", `{"type":"content_block_delta","delta":{"type":"text_delta","text":"partial"}}`},
		[2]string{"error", `{"type":"error","error":{"type":"overloaded_error","message":"Overloaded"}}`},
	))
	defer server.Close()

	provider := New().WithAPIKey("sk-ant-test").WithBaseURL(server.URL).(*Provider)
	stream, err := provider.StreamMessage(context.Background(), ai.ChatRequest{Model: "claude-sonnet-4-5"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	response, err := stream.Collect()
	if err == nil {
		t.Fatal("expected the error event to surface")
	}
	if response.Content != "partial" {
		t.Errorf("expected partial content preserved, got %q", response.Content)
	}
}
