package observability

import "context"

// Private key types prevent collisions with other context values.
type spanKey struct{}
type observerKey struct{}

// SpanFromContext extracts the active Span from ctx, or nil when absent.
func SpanFromContext(ctx context.Context) Span {
	if ctx == nil {
		return nil
	}
	span, _ := ctx.Value(spanKey{}).(Span)
	return span
}

// ContextWithSpan returns a context carrying span.
func ContextWithSpan(ctx context.Context, span Span) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, spanKey{}, span)
}

// ObserverFromContext extracts the Observer from ctx, or nil when absent.
func ObserverFromContext(ctx context.Context) Observer {
	if ctx == nil {
		return nil
	}
	observer, _ := ctx.Value(observerKey{}).(Observer)
	return observer
}

// ContextWithObserver returns a context carrying observer.
func ContextWithObserver(ctx context.Context, observer Observer) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, observerKey{}, observer)
}
