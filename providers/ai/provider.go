package ai

import (
	"context"
	"net/http"
)

// Provider is the interface every LLM provider implementation must satisfy.
// It covers authentication, endpoint configuration, and synchronous message
// dispatch. Providers that also support streaming implement [StreamProvider].
type Provider interface {
	// Name returns the provider's registry identifier (e.g. "openai").
	Name() string

	// SendMessage sends a chat request and returns the completed response.
	// Returns an error if the call fails, the context is cancelled, or the
	// response cannot be decoded.
	SendMessage(ctx context.Context, request ChatRequest) (*ChatResponse, error)

	// WithAPIKey sets the API key used for authenticating requests.
	WithAPIKey(apiKey string) Provider

	// WithBaseURL overrides the default base URL for API requests.
	WithBaseURL(baseURL string) Provider

	// WithHttpClient sets the HTTP client used for outbound requests.
	WithHttpClient(httpClient *http.Client) Provider
}

// StreamProvider is an optional interface for providers supporting SSE
// streaming. Callers detect support via type assertion:
// provider.(StreamProvider). Without it, callers fall back to SendMessage.
type StreamProvider interface {
	Provider

	// StreamMessage sends a chat request and returns a ChatStream yielding
	// incremental deltas as they arrive. Pre-stream errors (auth, bad
	// request, network) are returned as a normal error; mid-stream errors
	// are yielded through the iterator.
	StreamMessage(ctx context.Context, request ChatRequest) (*ChatStream, error)
}
