package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/outlinehq/outline/core/auth"
	"github.com/outlinehq/outline/core/llmerr"
	"github.com/outlinehq/outline/core/metadata"
	"github.com/outlinehq/outline/core/parse"
	"github.com/outlinehq/outline/core/strategy"
	"github.com/outlinehq/outline/internal/utils"
	"github.com/outlinehq/outline/providers/ai"
	"github.com/outlinehq/outline/providers/ai/anthropic"
	"github.com/outlinehq/outline/providers/ai/openai"
	"github.com/outlinehq/outline/providers/observability"
	"github.com/outlinehq/outline/providers/observability/slogobs"
)

// ErrNoModel is returned when neither the call nor the client defaults name
// a model.
var ErrNoModel = errors.New("client: no model specified")

// ErrEmptyPrompt is returned when a generation call carries no usable input.
var ErrEmptyPrompt = errors.New("client: empty prompt")

// ErrUnknownProvider is returned when an explicit provider name does not
// match any registered provider.
var ErrUnknownProvider = errors.New("client: unknown provider")

// Client is the generation orchestrator. It resolves a provider from the
// model identifier, selects the structured-output strategy, dispatches the
// request, and hands back a lazy Result. A Client is safe for concurrent
// use; per-call options never mutate the defaults.
type Client struct {
	defaults Options
}

// New builds a client. Options passed here become defaults for every call.
func New(opts ...Option) *Client {
	client := &Client{}
	for _, opt := range opts {
		opt(&client.defaults)
	}
	return client
}

// Generate runs a single-prompt generation. The prompt becomes the sole user
// message. The returned Result is lazy: no request leaves the process until
// Text or Stream is consumed.
func (c *Client) Generate(ctx context.Context, prompt string, opts ...Option) (*Result, error) {
	if strings.TrimSpace(prompt) == "" {
		return nil, ErrEmptyPrompt
	}
	messages := []ai.Message{{Role: ai.RoleUser, Content: prompt}}
	return c.GenerateMessages(ctx, messages, opts...)
}

// GenerateMessages runs a generation over a full conversation. System
// messages are hoisted into the provider's out-of-band system prompt slot
// before the strategy applies its request fragment.
func (c *Client) GenerateMessages(ctx context.Context, messages []ai.Message, opts ...Option) (*Result, error) {
	options := c.defaults
	for _, opt := range opts {
		opt(&options)
	}

	if len(messages) == 0 {
		return nil, ErrEmptyPrompt
	}
	for _, message := range messages {
		if !message.Valid() {
			return nil, fmt.Errorf("%w: invalid message role %q", ErrEmptyPrompt, message.Role)
		}
	}
	if options.Model == "" {
		return nil, ErrNoModel
	}

	provider, err := resolveProvider(options)
	if err != nil {
		return nil, err
	}

	selected := strategy.SelectWithFamilies(options.Model, options.Schema, strategy.Overrides{
		UseToolMode:        options.UseToolMode,
		ForceSystemMessage: options.ForceSystemMessage,
	}, options.families())

	systemPrompt, rest := strategy.SystemPromptFromMessages(messages)
	request := ai.ChatRequest{
		Model:        options.Model,
		Messages:     rest,
		SystemPrompt: systemPrompt,
		MaxTokens:    options.MaxTokens,
	}
	selected.Apply(&request)

	return newResult(func(ctx context.Context, onDelta func(string) bool) (string, *metadata.ResponseMetadata, error) {
		return c.execute(ctx, options, provider, selected, request, onDelta)
	}), nil
}

// resolveProvider picks the provider instance for a call. Explicit instance
// wins, then explicit name, then inference from the model prefix. Connection
// options are applied to whichever provider comes out.
func resolveProvider(options Options) (ai.Provider, error) {
	provider := options.Provider
	if provider == nil {
		name := options.ProviderName
		if name == "" {
			name = inferProviderName(options.Model)
		}
		switch name {
		case openai.ProviderName:
			provider = openai.New()
		case anthropic.ProviderName:
			provider = anthropic.New()
		default:
			return nil, fmt.Errorf("%w: %q", ErrUnknownProvider, name)
		}
	}
	if options.APIKey != "" {
		provider = provider.WithAPIKey(options.APIKey)
	}
	if options.BaseURL != "" {
		provider = provider.WithBaseURL(options.BaseURL)
	}
	if options.HTTPClient != nil {
		provider = provider.WithHttpClient(options.HTTPClient)
	}
	return provider, nil
}

// inferProviderName maps a model identifier to a provider. Anthropic models
// are recognizable by prefix; everything else goes to the OpenAI-compatible
// endpoint, which covers the widest surface.
func inferProviderName(model string) string {
	lower := strings.ToLower(model)
	if strings.HasPrefix(lower, "claude") || strings.HasPrefix(lower, "anthropic/") {
		return anthropic.ProviderName
	}
	return openai.ProviderName
}

// execute performs the actual provider round-trip for one result. onDelta is
// non-nil when the caller consumes via Stream; strategies that require
// streaming transport are streamed internally and buffered transparently.
func (c *Client) execute(ctx context.Context, options Options, provider ai.Provider, selected strategy.Strategy, request ai.ChatRequest, onDelta func(string) bool) (string, *metadata.ResponseMetadata, error) {
	if options.Debug && observability.ObserverFromContext(ctx) == nil {
		observer := slogobs.New(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug})))
		ctx = observability.ContextWithObserver(ctx, observer)
	}
	if observer := observability.ObserverFromContext(ctx); observer != nil {
		observer.Debug(ctx, "llm request",
			observability.String(observability.AttrLLMProvider, provider.Name()),
			observability.String(observability.AttrLLMModel, request.Model),
			observability.String(observability.AttrLLMStrategy, string(selected.Kind())),
			observability.Int(observability.AttrRequestMessagesCount, len(request.Messages)),
		)
	}

	coordinator := auth.NewRefreshCoordinator(options.APIKey, options.RefreshKey)
	timer := utils.NewTimer()
	timer.Start()

	wantStream := onDelta != nil || options.Stream || selected.ForceStream()
	streamProvider, canStream := provider.(ai.StreamProvider)

	var text string
	var usage *ai.Usage
	var raw []byte
	var requestID string
	var err error

	if wantStream && canStream {
		text, usage, requestID, err = c.consumeStream(ctx, coordinator, streamProvider, selected, request, options, onDelta)
	} else {
		var response *ai.ChatResponse
		dispatchErr := coordinator.Do(ctx, func(ctx context.Context, key string) error {
			keyed := provider
			if key != "" {
				keyed = keyed.WithAPIKey(key)
			}
			sent, sendErr := keyed.SendMessage(ctx, request)
			if sendErr != nil {
				return sendErr
			}
			response = sent
			return nil
		})
		if dispatchErr != nil {
			err = dispatchErr
		} else {
			text = selected.ProcessResponse(response)
			usage = response.Usage
			raw = response.Raw
			requestID = response.Id
			// Buffered delivery through the stream interface: the caller
			// asked to stream but the provider cannot.
			if onDelta != nil && text != "" {
				onDelta(text)
			}
		}
	}

	timer.Stop()

	meta := &metadata.ResponseMetadata{
		Provider:  provider.Name(),
		Model:     request.Model,
		RequestID: requestID,
		Strategy:  string(selected.Kind()),
		StartTime: timer.StartTime(),
		EndTime:   timer.StartTime().Add(timer.GetDuration()),
		Duration:  timer.GetDuration(),
		Raw:       raw,
	}
	if usage != nil {
		meta.InputTokens = usage.PromptTokens
		meta.OutputTokens = usage.CompletionTokens
	}

	if observer := observability.ObserverFromContext(ctx); observer != nil {
		attrs := []observability.Attribute{
			observability.Duration("duration", timer.GetDuration()),
			observability.Int("content_length", len(text)),
		}
		if err != nil {
			observer.Warn(ctx, "llm request failed", append(attrs, observability.Error(err))...)
		} else {
			observer.Debug(ctx, "llm request complete", attrs...)
		}
	}

	return text, meta, err
}

// consumeStream drains a provider stream, forwarding payload deltas to
// onDelta and assembling structured output through the partial-JSON
// assembler so the final value is parsed exactly once.
//
// The refresh coordinator guards only stream establishment: a key rejected
// mid-stream is indistinguishable from a truncated stream and is surfaced
// with whatever partial content accumulated.
func (c *Client) consumeStream(ctx context.Context, coordinator *auth.RefreshCoordinator, provider ai.StreamProvider, selected strategy.Strategy, request ai.ChatRequest, options Options, onDelta func(string) bool) (string, *ai.Usage, string, error) {
	var stream *ai.ChatStream
	err := coordinator.Do(ctx, func(ctx context.Context, key string) error {
		keyed := provider
		if key != "" {
			keyed = keyed.WithAPIKey(key).(ai.StreamProvider)
		}
		opened, openErr := keyed.StreamMessage(ctx, request)
		if openErr != nil {
			return openErr
		}
		stream = opened
		return nil
	})
	if err != nil {
		return "", nil, "", err
	}

	structured := selected.Kind() != strategy.KindNone
	assembler := parse.NewAssembler(options.maxBufferSize())
	stopped := false

	// Accumulate clears its buffer once a complete value parses, so the
	// value must be captured here; Finish only covers streams that end
	// before the value closes.
	var assembled json.RawMessage

	forward := func(delta string) bool {
		if onDelta == nil || delta == "" {
			return true
		}
		if !onDelta(delta) {
			stopped = true
			return false
		}
		return true
	}

	tapped := ai.NewChatStream(func(yield func(ai.StreamEvent, error) bool) {
		for event, iterErr := range stream.Iter() {
			if iterErr == nil {
				delta := payloadDelta(event, selected.Kind())
				if structured && delta != "" {
					value, produced, accErr := assembler.Accumulate(delta)
					if accErr != nil {
						yield(ai.StreamEvent{}, accErr)
						return
					}
					if produced {
						assembled = value
					}
				}
				if !forward(delta) {
					return
				}
			}
			if !yield(event, iterErr) {
				return
			}
		}
	})

	response, collectErr := tapped.Collect()
	if stopped {
		// Caller broke out of the stream; the partial accumulation is the
		// terminal outcome.
		return currentText(selected, response, assembler, assembled, structured), response.Usage, response.Id, nil
	}
	if collectErr != nil {
		partial := currentText(selected, response, assembler, assembled, structured)
		return partial, response.Usage, response.Id, llmerr.WithPartial(collectErr, partial)
	}

	if structured {
		if assembled != nil {
			return string(assembled), response.Usage, response.Id, nil
		}
		value, finishErr := assembler.Finish()
		if finishErr != nil {
			return assembler.Buffered(), response.Usage, response.Id, finishErr
		}
		return string(value), response.Usage, response.Id, nil
	}
	return selected.ProcessResponse(response), response.Usage, response.Id, nil
}

// payloadDelta extracts the caller-visible text fragment from a stream
// event. Under tool mode the payload travels as tool-call argument
// fragments; otherwise it is plain content.
func payloadDelta(event ai.StreamEvent, kind strategy.Kind) string {
	switch event.Type {
	case ai.StreamEventContent:
		if kind == strategy.KindToolMode {
			return ""
		}
		return event.Content
	case ai.StreamEventToolCall:
		if kind == strategy.KindToolMode && event.ToolCall != nil {
			return event.ToolCall.Arguments
		}
	}
	return ""
}

// currentText reports the best text value available right now, without
// running the assembler's repair pass.
func currentText(selected strategy.Strategy, response *ai.ChatResponse, assembler *parse.Assembler, assembled json.RawMessage, structured bool) string {
	if structured {
		if assembled != nil {
			return string(assembled)
		}
		return assembler.Buffered()
	}
	return selected.ProcessResponse(response)
}

