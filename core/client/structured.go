package client

import (
	"context"

	"github.com/outlinehq/outline/core/parse"
	"github.com/outlinehq/outline/core/strategy"
)

// StructuredClient binds a Client to a struct type T. Every generation
// carries T's schema and decodes the response into T, so callers get typed
// values without touching descriptors or parsing.
type StructuredClient[T any] struct {
	client     *Client
	descriptor *strategy.Descriptor
}

// NewStructured builds a typed client. The name labels the schema in
// provider requests (tool name or response-format name).
func NewStructured[T any](name string, opts ...Option) *StructuredClient[T] {
	return &StructuredClient[T]{
		client:     New(opts...),
		descriptor: strategy.DescriptorFor[T](name),
	}
}

// Generate runs a single-prompt generation and decodes the result into T.
func (s *StructuredClient[T]) Generate(ctx context.Context, prompt string, opts ...Option) (T, error) {
	var zero T
	options := append(opts, WithSchema(s.descriptor))
	result, err := s.client.Generate(ctx, prompt, options...)
	if err != nil {
		return zero, err
	}
	text, err := result.Text(ctx)
	if err != nil {
		return zero, err
	}
	return parse.StringAs[T](text)
}

// Client exposes the underlying untyped client for mixed workloads.
func (s *StructuredClient[T]) Client() *Client {
	return s.client
}
