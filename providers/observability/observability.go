package observability

import (
	"context"
	"time"
)

// Observer provides structured logging for the request pipeline. Providers
// and the client look an Observer up in the context and stay silent when none
// is configured, so instrumentation is strictly opt-in.
type Observer interface {
	Trace(ctx context.Context, msg string, attrs ...Attribute)
	Debug(ctx context.Context, msg string, attrs ...Attribute)
	Info(ctx context.Context, msg string, attrs ...Attribute)
	Warn(ctx context.Context, msg string, attrs ...Attribute)
	Error(ctx context.Context, msg string, attrs ...Attribute)
}

// Tracer starts spans for units of work.
type Tracer interface {
	StartSpan(ctx context.Context, name string, attrs ...Attribute) (context.Context, Span)
}

// Span represents a single unit of work.
type Span interface {
	// End completes the span.
	End()
	// SetAttributes adds attributes to the span.
	SetAttributes(attrs ...Attribute)
	// RecordError records an error on the span.
	RecordError(err error)
	// AddEvent adds a named event to the span.
	AddEvent(name string, attrs ...Attribute)
}

// Attribute is a key-value pair of span or log metadata.
type Attribute struct {
	Key   string
	Value any
}

// String creates a string attribute.
func String(key, value string) Attribute {
	return Attribute{Key: key, Value: value}
}

// Int creates an integer attribute.
func Int(key string, value int) Attribute {
	return Attribute{Key: key, Value: value}
}

// Bool creates a boolean attribute.
func Bool(key string, value bool) Attribute {
	return Attribute{Key: key, Value: value}
}

// Duration creates a duration attribute.
func Duration(key string, value time.Duration) Attribute {
	return Attribute{Key: key, Value: value}
}

// Error creates an "error" attribute from err; a nil err produces an empty value.
func Error(err error) Attribute {
	if err == nil {
		return Attribute{Key: "error", Value: ""}
	}
	return Attribute{Key: "error", Value: err.Error()}
}
