// Package slogobs implements observability.Observer and observability.Tracer
// on top of the standard library's log/slog.
package slogobs

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/outlinehq/outline/providers/observability"
)

// LevelTrace sits below slog.LevelDebug; slog has no native trace level.
const LevelTrace = slog.Level(-8)

// Observer logs observability events through a slog.Logger.
type Observer struct {
	logger *slog.Logger
}

// New creates a slog-backed Observer. A nil logger falls back to slog.Default().
func New(logger *slog.Logger) *Observer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Observer{logger: logger}
}

var _ observability.Observer = (*Observer)(nil)
var _ observability.Tracer = (*Observer)(nil)

func (o *Observer) log(ctx context.Context, level slog.Level, msg string, attrs []observability.Attribute) {
	logAttrs := make([]slog.Attr, 0, len(attrs))
	for _, attr := range attrs {
		logAttrs = append(logAttrs, slog.Any(attr.Key, attr.Value))
	}
	o.logger.LogAttrs(ctx, level, msg, logAttrs...)
}

// Trace logs at the custom trace level (below debug).
func (o *Observer) Trace(ctx context.Context, msg string, attrs ...observability.Attribute) {
	o.log(ctx, LevelTrace, msg, attrs)
}

// Debug logs at debug level.
func (o *Observer) Debug(ctx context.Context, msg string, attrs ...observability.Attribute) {
	o.log(ctx, slog.LevelDebug, msg, attrs)
}

// Info logs at info level.
func (o *Observer) Info(ctx context.Context, msg string, attrs ...observability.Attribute) {
	o.log(ctx, slog.LevelInfo, msg, attrs)
}

// Warn logs at warn level.
func (o *Observer) Warn(ctx context.Context, msg string, attrs ...observability.Attribute) {
	o.log(ctx, slog.LevelWarn, msg, attrs)
}

// Error logs at error level.
func (o *Observer) Error(ctx context.Context, msg string, attrs ...observability.Attribute) {
	o.log(ctx, slog.LevelError, msg, attrs)
}

// StartSpan starts a span that logs its start at debug level and its end,
// with duration, at info level.
func (o *Observer) StartSpan(ctx context.Context, name string, attrs ...observability.Attribute) (context.Context, observability.Span) {
	span := &slogSpan{
		name:      name,
		startTime: time.Now(),
		logger:    o.logger,
		attrs:     attrs,
	}

	logAttrs := []slog.Attr{
		slog.String("span", name),
		slog.String("event", "span.start"),
	}
	for _, attr := range attrs {
		logAttrs = append(logAttrs, slog.Any(attr.Key, attr.Value))
	}
	o.logger.LogAttrs(ctx, slog.LevelDebug, "Span started", logAttrs...)

	return observability.ContextWithSpan(ctx, span), span
}

type slogSpan struct {
	name      string
	startTime time.Time
	logger    *slog.Logger
	mu        sync.Mutex
	attrs     []observability.Attribute
}

func (s *slogSpan) End() {
	s.mu.Lock()
	defer s.mu.Unlock()

	logAttrs := []slog.Attr{
		slog.String("span", s.name),
		slog.String("event", "span.end"),
		slog.Duration("duration", time.Since(s.startTime)),
	}
	for _, attr := range s.attrs {
		logAttrs = append(logAttrs, slog.Any(attr.Key, attr.Value))
	}
	s.logger.LogAttrs(context.Background(), slog.LevelInfo, "Span ended", logAttrs...)
}

func (s *slogSpan) SetAttributes(attrs ...observability.Attribute) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.attrs = append(s.attrs, attrs...)
}

func (s *slogSpan) RecordError(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.logger.LogAttrs(context.Background(), slog.LevelError, "Span error",
		slog.String("span", s.name),
		slog.String("error", err.Error()),
	)
}

func (s *slogSpan) AddEvent(name string, attrs ...observability.Attribute) {
	s.mu.Lock()
	defer s.mu.Unlock()
	logAttrs := []slog.Attr{
		slog.String("span", s.name),
		slog.String("event", name),
	}
	for _, attr := range attrs {
		logAttrs = append(logAttrs, slog.Any(attr.Key, attr.Value))
	}
	s.logger.LogAttrs(context.Background(), slog.LevelDebug, "Span event", logAttrs...)
}
