// Package observability defines the minimal Observer/Span abstraction used to
// instrument the request pipeline. Implementations are injected through the
// context ([ContextWithObserver], [ContextWithSpan]) and every call site
// tolerates their absence, so production code pays nothing when tracing is
// off. A log/slog-backed implementation lives in the slogobs subpackage.
package observability
