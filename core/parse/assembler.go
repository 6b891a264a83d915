package parse

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/kaptinlin/jsonrepair"

	"github.com/outlinehq/outline/core/llmerr"
)

// DefaultMaxAssemblyBuffer caps the assembler's accumulation buffer (10 MB).
const DefaultMaxAssemblyBuffer = 10 * 1024 * 1024

// Assembler reassembles a JSON value delivered as arbitrary text fragments.
//
// The invariant it protects: no property name or scalar value may be
// corrupted by how bytes were fragmented in transit. Every delta is appended
// to a buffer and no parse is attempted until either the terminal signal
// arrives ([Assembler.Finish]) or a bracket-depth scan, aware of quoted
// strings and escape sequences, shows the buffer holds one complete,
// balanced top-level value. A property name split as "popul" + "ation"
// therefore always reassembles intact, because parsing is deferred until the
// buffer is structurally complete rather than attempted eagerly per delta.
type Assembler struct {
	buf     []byte
	maxSize int

	// Incremental scan state, advanced once per incoming byte.
	depth     int
	inString  bool
	escaped   bool
	started   bool
	startByte byte
}

// NewAssembler creates an Assembler with the given buffer cap; maxSize <= 0
// selects DefaultMaxAssemblyBuffer.
func NewAssembler(maxSize int) *Assembler {
	if maxSize <= 0 {
		maxSize = DefaultMaxAssemblyBuffer
	}
	return &Assembler{maxSize: maxSize}
}

// Accumulate appends delta to the buffer and returns a parsed value when, and
// only when, the buffer has just become a structurally complete JSON value.
// The boolean reports whether a value was produced. On a successful parse the
// buffer is cleared; any bytes of delta past the value boundary seed the next
// accumulation. Exceeding the buffer cap returns llmerr.ErrBufferExceeded.
//
// Values without an unambiguous boundary (bare numbers, prose) are never
// produced here; they surface through Finish when the stream ends.
func (a *Assembler) Accumulate(delta string) (json.RawMessage, bool, error) {
	for i := 0; i < len(delta); i++ {
		a.buf = append(a.buf, delta[i])
		if a.scanByte(delta[i]) {
			value := a.buf
			rest := delta[i+1:]
			a.reset()
			if json.Valid(value) {
				if rest != "" {
					_, _, err := a.Accumulate(rest)
					if err != nil {
						return nil, false, err
					}
				}
				return json.RawMessage(value), true, nil
			}
			// Balanced but unparseable: keep accumulating, more bytes are
			// assumed to be in flight. Restore the buffer and rescan it so
			// the state reflects everything held.
			a.restore(append(value, rest...))
			break
		}
	}

	if len(a.buf) > a.maxSize {
		return nil, false, llmerr.ErrBufferExceeded
	}
	return nil, false, nil
}

// Finish performs the terminal parse of whatever remains buffered. A failed
// strict parse is retried once through jsonrepair before giving up, since
// models occasionally emit almost-JSON. The buffered text always rides on the
// returned error so callers can surface it as partial content.
func (a *Assembler) Finish() (json.RawMessage, error) {
	buffered := strings.TrimSpace(string(a.buf))
	if buffered == "" {
		return nil, nil
	}

	if json.Valid([]byte(buffered)) {
		a.reset()
		return json.RawMessage(buffered), nil
	}

	repaired, repairErr := jsonrepair.JSONRepair(buffered)
	if repairErr == nil && json.Valid([]byte(repaired)) {
		a.reset()
		return json.RawMessage(repaired), nil
	}

	return nil, llmerr.WithPartial(fmt.Errorf("incomplete JSON value at end of stream"), buffered)
}

// Buffered returns the text accumulated so far, for attaching to errors.
func (a *Assembler) Buffered() string {
	return string(a.buf)
}

// reset clears the buffer and scan state for the next value.
func (a *Assembler) reset() {
	a.buf = nil
	a.depth = 0
	a.inString = false
	a.escaped = false
	a.started = false
	a.startByte = 0
}

// restore rebuilds scan state from a full buffer after a failed parse.
func (a *Assembler) restore(buffer []byte) {
	a.reset()
	a.buf = buffer
	for _, b := range buffer {
		a.scanByte(b)
	}
}

// scanByte advances the structural scan by one byte and reports whether the
// buffer has just become a complete top-level value. Completion is only
// recognized for values opening with '{', '[' or '"'; other starts (numbers,
// keywords, prose) have no unambiguous in-stream boundary.
func (a *Assembler) scanByte(c byte) bool {
	if !a.started {
		switch c {
		case ' ', '\t', '\n', '\r':
			return false
		}
		a.started = true
		a.startByte = c
		switch c {
		case '{', '[':
			a.depth = 1
			return false
		case '"':
			a.inString = true
			return false
		default:
			return false
		}
	}

	if a.inString {
		if a.escaped {
			a.escaped = false
			return false
		}
		switch c {
		case '\\':
			a.escaped = true
		case '"':
			a.inString = false
			if a.startByte == '"' && a.depth == 0 {
				return true
			}
		}
		return false
	}

	switch c {
	case '"':
		a.inString = true
	case '{', '[':
		a.depth++
	case '}', ']':
		a.depth--
		if a.depth == 0 && (a.startByte == '{' || a.startByte == '[') {
			return true
		}
	}
	return false
}
