package metadata

import (
	"encoding/json"
	"runtime"
	"sync"
	"time"
	"weak"
)

// ResponseMetadata carries per-call diagnostics that ride alongside a result
// without being part of its payload.
type ResponseMetadata struct {
	Provider     string
	Model        string
	RequestID    string
	Strategy     string
	StartTime    time.Time
	EndTime      time.Time
	Duration     time.Duration
	InputTokens  int
	OutputTokens int
	Raw          json.RawMessage
}

// Board associates metadata with result handles by pointer identity. Entries
// are keyed through weak pointers and removed by a runtime cleanup when the
// handle itself becomes unreachable, so the board never keeps a result alive
// and never outgrows the set of live results. Detach removes an entry early.
type Board struct {
	mu      sync.RWMutex
	entries map[any]*ResponseMetadata
}

// NewBoard returns an empty metadata board.
func NewBoard() *Board {
	return &Board{entries: make(map[any]*ResponseMetadata)}
}

// AttachTo records metadata for the given handle on the board, replacing any
// previous entry. A nil metadata value removes the entry. The entry is
// dropped automatically once handle is garbage collected.
func AttachTo[T any](b *Board, handle *T, meta *ResponseMetadata) {
	if handle == nil {
		return
	}
	key := weak.Make(handle)
	if meta == nil {
		b.detach(key)
		return
	}
	b.attach(key, meta)
	runtime.AddCleanup(handle, func(k weak.Pointer[T]) { b.detach(k) }, key)
}

// GetFrom returns the metadata attached to the handle, or nil when none
// exists. Reading never mutates the board, so repeated calls return the same
// entry.
func GetFrom[T any](b *Board, handle *T) *ResponseMetadata {
	if handle == nil {
		return nil
	}
	return b.get(weak.Make(handle))
}

// DetachFrom removes the entry for the handle and returns it, or nil when
// the handle was unknown.
func DetachFrom[T any](b *Board, handle *T) *ResponseMetadata {
	if handle == nil {
		return nil
	}
	return b.detach(weak.Make(handle))
}

// Len reports the number of live entries.
func (b *Board) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.entries)
}

func (b *Board) attach(key any, meta *ResponseMetadata) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.entries[key] = meta
}

func (b *Board) get(key any) *ResponseMetadata {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.entries[key]
}

func (b *Board) detach(key any) *ResponseMetadata {
	b.mu.Lock()
	defer b.mu.Unlock()
	meta := b.entries[key]
	delete(b.entries, key)
	return meta
}

var defaultBoard = NewBoard()

// Attach records metadata on the package-level board.
func Attach[T any](handle *T, meta *ResponseMetadata) { AttachTo(defaultBoard, handle, meta) }

// Get reads metadata from the package-level board.
func Get[T any](handle *T) *ResponseMetadata { return GetFrom(defaultBoard, handle) }

// Detach removes metadata from the package-level board.
func Detach[T any](handle *T) *ResponseMetadata { return DetachFrom(defaultBoard, handle) }
