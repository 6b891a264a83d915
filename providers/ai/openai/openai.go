package openai

import (
	"context"
	"fmt"
	"net/http"
	"os"

	"github.com/outlinehq/outline/core/llmerr"
	"github.com/outlinehq/outline/internal/utils"
	"github.com/outlinehq/outline/providers/ai"
	"github.com/outlinehq/outline/providers/observability"
)

const (
	// ProviderName is the registry identifier for this provider.
	ProviderName = "openai"

	defaultBaseURL          = "https://api.openai.com/v1"
	chatCompletionsEndpoint = "/chat/completions"
)

// Provider implements [ai.Provider] and [ai.StreamProvider] for the OpenAI
// chat completions API and every OpenAI-compatible endpoint reachable through
// WithBaseURL.
type Provider struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

// New returns a Provider initialized from the environment: OPENAI_API_KEY for
// authentication and OPENAI_API_BASE_URL for the endpoint base (defaulting to
// the public API). Override either with the With* builders.
func New() *Provider {
	apiKey := os.Getenv("OPENAI_API_KEY")
	baseURL := os.Getenv("OPENAI_API_BASE_URL")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	return &Provider{
		apiKey:  apiKey,
		baseURL: baseURL,
		client:  &http.Client{},
	}
}

// Name implements [ai.Provider].
func (p *Provider) Name() string {
	return ProviderName
}

// WithAPIKey returns a copy of the provider using the given API key,
// overriding OPENAI_API_KEY. The receiver is left untouched so a provider
// shared across concurrent calls never observes another call's credentials.
func (p *Provider) WithAPIKey(apiKey string) ai.Provider {
	clone := *p
	clone.apiKey = apiKey
	return &clone
}

// WithBaseURL returns a copy of the provider targeting the given API base
// URL, for proxies or compatible endpoints.
func (p *Provider) WithBaseURL(baseURL string) ai.Provider {
	clone := *p
	clone.baseURL = baseURL
	return &clone
}

// WithHttpClient returns a copy of the provider using the given HTTP client.
func (p *Provider) WithHttpClient(httpClient *http.Client) ai.Provider {
	clone := *p
	clone.client = httpClient
	return &clone
}

// SendMessage implements [ai.Provider] by posting a buffered chat completions
// request and mapping the response into the generic format.
func (p *Provider) SendMessage(ctx context.Context, request ai.ChatRequest) (*ai.ChatResponse, error) {
	observer := observability.ObserverFromContext(ctx)
	if observer != nil {
		observer.Trace(ctx, "OpenAI provider preparing request",
			observability.String(observability.AttrLLMProvider, ProviderName),
			observability.String(observability.AttrLLMEndpoint, p.baseURL),
			observability.String(observability.AttrLLMModel, request.Model),
			observability.Int(observability.AttrRequestMessagesCount, len(request.Messages)),
		)
	}

	if p.apiKey == "" {
		return nil, llmerr.ErrMissingAPIKey
	}

	url := p.baseURL + chatCompletionsEndpoint
	httpResponse, wireResponse, err := utils.DoPostJSON[chatCompletionResponse](ctx, p.client, url, p.apiKey, requestToChatCompletion(request))
	if err != nil {
		return nil, classifyError(httpResponse, err)
	}

	if wireResponse == nil {
		return nil, fmt.Errorf("empty response from OpenAI API: %s", httpResponse.Status)
	}

	raw := []byte(utils.JSONToString(wireResponse))
	return responseToGeneric(*wireResponse, raw), nil
}

// classifyError maps an HTTP-layer failure into the llmerr taxonomy so the
// auth-refresh coordinator can recognize authentication failures.
func classifyError(response *http.Response, err error) error {
	if response == nil {
		return fmt.Errorf("%w: %v", llmerr.ErrTransport, err)
	}
	if response.StatusCode < 200 || response.StatusCode >= 300 {
		return llmerr.NewProviderError(ProviderName, response.StatusCode, err.Error())
	}
	return err
}
