package client

import (
	"context"
	"iter"
	"sync"

	"github.com/outlinehq/outline/core/metadata"
	"github.com/outlinehq/outline/core/parse"
)

// runFunc performs the deferred provider round-trip. onDelta is nil for
// buffered consumption; for streaming it receives each payload fragment and
// returns false to stop early.
type runFunc func(ctx context.Context, onDelta func(string) bool) (string, *metadata.ResponseMetadata, error)

// Result is a lazy generation outcome consumable through two interfaces:
// Text buffers the complete value, Stream yields fragments as they arrive.
// The underlying request runs at most once. Whichever interface is consumed
// first fixes the terminal outcome; the other interface replays it from the
// buffer instead of re-issuing the request.
type Result struct {
	mu   sync.Mutex
	run  runFunc
	done bool
	text string
	err  error
}

func newResult(run runFunc) *Result {
	return &Result{run: run}
}

// Text forces the generation and returns the complete normalized content.
// Safe to call repeatedly; later calls return the memoized outcome.
func (r *Result) Text(ctx context.Context) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.done {
		r.settle(ctx, nil)
	}
	return r.text, r.err
}

// Stream forces the generation and yields payload fragments as the provider
// delivers them. Breaking out of the loop stops consumption; the fragments
// seen so far become the terminal outcome. If the result was already
// consumed, the memoized text is replayed as a single fragment.
//
// A mid-stream failure is yielded as the final pair after the fragments that
// made it through.
func (r *Result) Stream(ctx context.Context) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		r.mu.Lock()
		defer r.mu.Unlock()

		if r.done {
			if r.text != "" && !yield(r.text, nil) {
				return
			}
			if r.err != nil {
				yield("", r.err)
			}
			return
		}

		stopped := false
		r.settle(ctx, func(delta string) bool {
			if !yield(delta, nil) {
				stopped = true
				return false
			}
			return true
		})
		if r.err != nil && !stopped {
			yield("", r.err)
		}
	}
}

// As forces the generation and decodes the content into T. Tolerant of
// almost-JSON output the same way the parse package is.
func As[T any](ctx context.Context, r *Result) (T, error) {
	text, err := r.Text(ctx)
	if err != nil {
		var zero T
		return zero, err
	}
	return parse.StringAs[T](text)
}

// Metadata returns the diagnostics attached to this result, or nil when the
// generation has not completed yet.
func (r *Result) Metadata() *metadata.ResponseMetadata {
	return metadata.Get(r)
}

// settle runs the deferred request exactly once and memoizes the outcome.
// Caller holds r.mu.
func (r *Result) settle(ctx context.Context, onDelta func(string) bool) {
	text, meta, err := r.run(ctx, onDelta)
	r.text = text
	r.err = err
	r.done = true
	r.run = nil
	if meta != nil {
		metadata.Attach(r, meta)
	}
}
