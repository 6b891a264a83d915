package openai

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/outlinehq/outline/core/llmerr"
	"github.com/outlinehq/outline/providers/ai"
)

// completionBody is a minimal valid chat completions response.
const completionBody = `{
	"id": "chatcmpl-123",
	"object": "chat.completion",
	"created": 1700000000,
	"model": "gpt-4o",
	"choices": [{
		"index": 0,
		"finish_reason": "stop",
		"message": {"role": "assistant", "content": "Paris"}
	}],
	"usage": {"prompt_tokens": 10, "completion_tokens": 2, "total_tokens": 12}
}`

// TestSendMessage_MissingAPIKey verifies the pre-dispatch key check.
func TestSendMessage_MissingAPIKey(t *testing.T) {
	provider := New().WithAPIKey("")

	_, err := provider.SendMessage(context.Background(), ai.ChatRequest{Model: "gpt-4o"})
	if !errors.Is(err, llmerr.ErrMissingAPIKey) {
		t.Fatalf("expected ErrMissingAPIKey, got %v", err)
	}
}

// TestBuilderPattern verifies the With* builders chain and override state.
func TestBuilderPattern(t *testing.T) {
	provider := New().
		WithAPIKey("sk-test").
		WithBaseURL("http://localhost:9999/v1").
		WithHttpClient(&http.Client{})

	if provider.Name() != ProviderName {
		t.Errorf("expected name %q, got %q", ProviderName, provider.Name())
	}
}

// TestBuilders_DoNotMutateReceiver verifies that a provider shared across
// calls keeps its own credentials when a derived copy rewrites them.
func TestBuilders_DoNotMutateReceiver(t *testing.T) {
	base := New().WithAPIKey("sk-original").(*Provider)

	derived := base.WithAPIKey("sk-derived").(*Provider)
	if base.apiKey != "sk-original" {
		t.Errorf("WithAPIKey mutated the receiver: %q", base.apiKey)
	}
	if derived.apiKey != "sk-derived" {
		t.Errorf("expected derived key on the copy, got %q", derived.apiKey)
	}

	rebased := base.WithBaseURL("http://localhost:9999/v1").(*Provider)
	if base.baseURL == rebased.baseURL {
		t.Error("WithBaseURL mutated the receiver")
	}
}

// TestSendMessage_Success verifies the full request/response cycle against a
// mock server, including auth header and wire shape.
func TestSendMessage_Success(t *testing.T) {
	var gotAuth string
	var gotBody chatCompletionRequest

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		raw, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(raw, &gotBody)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(completionBody))
	}))
	defer server.Close()

	provider := New().WithAPIKey("sk-test").WithBaseURL(server.URL)
	response, err := provider.SendMessage(context.Background(), ai.ChatRequest{
		Model:        "gpt-4o",
		SystemPrompt: "Be terse.",
		Messages:     []ai.Message{{Role: ai.RoleUser, Content: "Capital of France?"}},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if gotAuth != "Bearer sk-test" {
		t.Errorf("expected bearer auth, got %q", gotAuth)
	}
	if len(gotBody.Messages) != 2 || gotBody.Messages[0].Role != "system" {
		t.Errorf("expected system prompt prepended, got %+v", gotBody.Messages)
	}

	if response.Content != "Paris" {
		t.Errorf("expected content %q, got %q", "Paris", response.Content)
	}
	if response.Id != "chatcmpl-123" {
		t.Errorf("expected id preserved, got %q", response.Id)
	}
	if response.Usage == nil || response.Usage.TotalTokens != 12 {
		t.Errorf("expected usage mapped, got %+v", response.Usage)
	}
}

// TestSendMessage_AuthFailureClassified verifies that a 401 is recognizable
// through the error taxonomy.
func TestSendMessage_AuthFailureClassified(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error": {"message": "Incorrect API key"}}`, http.StatusUnauthorized)
	}))
	defer server.Close()

	provider := New().WithAPIKey("sk-bad").WithBaseURL(server.URL)
	_, err := provider.SendMessage(context.Background(), ai.ChatRequest{Model: "gpt-4o"})

	if !llmerr.IsAuth(err) {
		t.Fatalf("expected an auth-classified error, got %v", err)
	}
	var providerErr *llmerr.ProviderError
	if !errors.As(err, &providerErr) || providerErr.Status != http.StatusUnauthorized {
		t.Errorf("expected ProviderError with status 401, got %v", err)
	}
}

// TestSendMessage_ServerErrorClassified verifies that a 500 maps to the
// transport class, not auth.
func TestSendMessage_ServerErrorClassified(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "internal", http.StatusInternalServerError)
	}))
	defer server.Close()

	provider := New().WithAPIKey("sk-test").WithBaseURL(server.URL)
	_, err := provider.SendMessage(context.Background(), ai.ChatRequest{Model: "gpt-4o"})

	if err == nil || llmerr.IsAuth(err) {
		t.Fatalf("expected a non-auth error, got %v", err)
	}
	if !errors.Is(err, llmerr.ErrTransport) {
		t.Errorf("expected transport classification, got %v", err)
	}
}
