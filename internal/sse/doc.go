// Package sse decodes Server-Sent-Event streams into logical frames.
//
// The central type is [Decoder], a push decoder that accepts raw byte chunks
// with no alignment guarantees and emits complete frames only when the
// blank-line delimiter has been observed. [Scanner] wraps a Decoder around an
// io.Reader for pull-style consumption of an HTTP response body. Both paths
// share one framing implementation so fragmentation behavior cannot diverge.
package sse
