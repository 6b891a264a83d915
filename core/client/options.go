package client

import (
	"net/http"

	"github.com/outlinehq/outline/core/auth"
	"github.com/outlinehq/outline/core/parse"
	"github.com/outlinehq/outline/core/strategy"
	"github.com/outlinehq/outline/providers/ai"
)

// Options collects everything a generation call can be configured with.
// Zero values mean "use the default": provider inference from the model
// name, API key from the environment, buffered delivery.
type Options struct {
	Model              string
	Schema             *strategy.Descriptor
	Stream             bool
	APIKey             string
	RefreshKey         auth.RefreshFunc
	ForceSystemMessage bool
	UseToolMode        bool
	Debug              bool
	ProviderName       string
	Provider           ai.Provider
	Families           *strategy.Families
	HTTPClient         *http.Client
	BaseURL            string
	MaxBufferSize      int
	MaxTokens          int
}

// Option mutates an Options value. Per-call options are applied on top of
// the client's defaults, so later options win.
type Option func(*Options)

// WithModel sets the model identifier sent to the provider.
func WithModel(model string) Option {
	return func(o *Options) { o.Model = model }
}

// WithSchema attaches a structured-output schema descriptor. The selected
// strategy decides how the schema reaches the provider.
func WithSchema(descriptor *strategy.Descriptor) Option {
	return func(o *Options) { o.Schema = descriptor }
}

// WithSchemaFor derives a schema descriptor from the struct type T.
func WithSchemaFor[T any](name string) Option {
	return func(o *Options) { o.Schema = strategy.DescriptorFor[T](name) }
}

// WithStream requests streaming delivery. Without it results are buffered,
// though some strategies stream internally regardless.
func WithStream() Option {
	return func(o *Options) { o.Stream = true }
}

// WithAPIKey overrides the environment-sourced API key.
func WithAPIKey(key string) Option {
	return func(o *Options) { o.APIKey = key }
}

// WithKeyRefresh installs a key exchange function. When the provider rejects
// the key, it is refreshed and the request retried exactly once.
func WithKeyRefresh(refresh auth.RefreshFunc) Option {
	return func(o *Options) { o.RefreshKey = refresh }
}

// WithForceSystemMessage forces the system-message fallback strategy even
// for models whose family supports a native mechanism.
func WithForceSystemMessage() Option {
	return func(o *Options) { o.ForceSystemMessage = true }
}

// WithToolMode forces the tool-call strategy regardless of model family.
func WithToolMode() Option {
	return func(o *Options) { o.UseToolMode = true }
}

// WithDebug installs a slog-backed observer on the request context when the
// caller has not provided one.
func WithDebug() Option {
	return func(o *Options) { o.Debug = true }
}

// WithProvider pins an explicit provider instance, bypassing inference.
func WithProvider(provider ai.Provider) Option {
	return func(o *Options) { o.Provider = provider }
}

// WithProviderName selects a registered provider by name ("openai",
// "anthropic") instead of inferring one from the model identifier.
func WithProviderName(name string) Option {
	return func(o *Options) { o.ProviderName = name }
}

// WithFamilies replaces the built-in model family configuration used for
// strategy selection.
func WithFamilies(families strategy.Families) Option {
	return func(o *Options) { o.Families = &families }
}

// WithHTTPClient sets the HTTP client for provider requests.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(o *Options) { o.HTTPClient = httpClient }
}

// WithBaseURL overrides the provider's API base URL.
func WithBaseURL(baseURL string) Option {
	return func(o *Options) { o.BaseURL = baseURL }
}

// WithMaxBufferSize caps the bytes buffered while assembling streamed
// structured output. Defaults to parse.DefaultMaxAssemblyBuffer.
func WithMaxBufferSize(size int) Option {
	return func(o *Options) { o.MaxBufferSize = size }
}

// WithMaxTokens caps the completion length.
func WithMaxTokens(maxTokens int) Option {
	return func(o *Options) { o.MaxTokens = maxTokens }
}

func (o Options) families() strategy.Families {
	if o.Families != nil {
		return *o.Families
	}
	return strategy.DefaultFamilies()
}

func (o Options) maxBufferSize() int {
	if o.MaxBufferSize > 0 {
		return o.MaxBufferSize
	}
	return parse.DefaultMaxAssemblyBuffer
}
