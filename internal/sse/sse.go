package sse

import (
	"bytes"
	"errors"
	"fmt"
	"io"
)

// TerminationMarker is the sentinel payload used by OpenAI-compatible APIs to
// signal the end of a stream.
const TerminationMarker = "[DONE]"

// maxFrameSize caps the bytes buffered for a single SSE line (1 MB). The
// default bufio limit of 64 KiB is too small for large tool-call arguments or
// long completions; anything past 1 MB is treated as a malformed stream.
const maxFrameSize = 1 * 1024 * 1024

// ErrFrameTooLarge is returned when a single SSE line exceeds maxFrameSize
// without a line terminator arriving.
var ErrFrameTooLarge = errors.New("sse: frame exceeds maximum size")

// Frame is one logical Server-Sent-Event unit. Data holds the joined payload
// of the event's data lines; Event carries the optional "event:" field value;
// Terminal is set when the payload is the stream termination marker.
type Frame struct {
	Event    string
	Data     string
	Terminal bool
}

// Decoder incrementally turns raw byte chunks into complete SSE frames.
//
// Input chunks carry no alignment guarantees: a chunk may end mid-line,
// mid-frame, or in the middle of a multi-byte UTF-8 character. The decoder
// buffers bytes until a line terminator is seen and dispatches a frame on
// each blank line, so a payload split across any number of chunks is always
// reassembled intact. Cutting only at newline bytes is what makes split
// UTF-8 characters safe: 0x0A never occurs inside a multi-byte sequence.
type Decoder struct {
	buf       []byte
	eventName string
	dataLines []string
	done      bool
}

// NewDecoder creates an empty Decoder.
func NewDecoder() *Decoder {
	return &Decoder{}
}

// Feed appends chunk to the internal buffer and returns every frame completed
// by it, in arrival order. After a terminal frame has been emitted all further
// input is ignored.
func (d *Decoder) Feed(chunk []byte) ([]Frame, error) {
	if d.done {
		return nil, nil
	}

	d.buf = append(d.buf, chunk...)

	var frames []Frame
	for {
		newlineIndex := bytes.IndexByte(d.buf, '\n')
		if newlineIndex < 0 {
			if len(d.buf) > maxFrameSize {
				return frames, ErrFrameTooLarge
			}
			return frames, nil
		}

		line := d.buf[:newlineIndex]
		d.buf = d.buf[newlineIndex+1:]

		// Tolerate CRLF line endings.
		line = bytes.TrimSuffix(line, []byte("\r"))

		frame, complete := d.consumeLine(string(line))
		if complete {
			frames = append(frames, frame)
			if frame.Terminal {
				d.done = true
				return frames, nil
			}
		}
	}
}

// Close flushes any pending partial frame as a best-effort non-terminal frame.
// It is used when the transport ends before a terminal frame was observed, so
// already-received data is surfaced instead of discarded.
func (d *Decoder) Close() []Frame {
	if d.done {
		return nil
	}
	d.done = true

	// A trailing line without its newline still counts as received data.
	if len(d.buf) > 0 {
		trailing := string(bytes.TrimSuffix(d.buf, []byte("\r")))
		d.buf = nil
		if frame, complete := d.consumeLine(trailing); complete {
			// Only possible when the trailing bytes formed a blank line.
			return []Frame{frame}
		}
	}

	if len(d.dataLines) == 0 {
		return nil
	}
	frame := d.makeFrame()
	return []Frame{frame}
}

// consumeLine folds one complete line into the decoder state. It returns a
// frame (and true) when the line was the blank delimiter of a non-empty event.
func (d *Decoder) consumeLine(line string) (Frame, bool) {
	// Blank line ends the current event.
	if line == "" {
		if len(d.dataLines) == 0 {
			return Frame{}, false
		}
		return d.makeFrame(), true
	}

	// Comment lines start with a colon.
	if line[0] == ':' {
		return Frame{}, false
	}

	field, value := splitField(line)
	switch field {
	case "data":
		d.dataLines = append(d.dataLines, value)
	case "event":
		d.eventName = value
	default:
		// id: and retry: are not needed by any consumer in this module.
	}

	return Frame{}, false
}

// makeFrame builds a Frame from the accumulated field state and resets it.
// Multiple data lines in one event are joined with newlines per the SSE spec.
func (d *Decoder) makeFrame() Frame {
	var joined string
	if len(d.dataLines) == 1 {
		joined = d.dataLines[0]
	} else {
		joined = joinLines(d.dataLines)
	}

	frame := Frame{
		Event:    d.eventName,
		Data:     joined,
		Terminal: joined == TerminationMarker,
	}
	d.eventName = ""
	d.dataLines = nil
	return frame
}

// splitField splits "field: value" at the first colon, trimming the single
// optional space after it per the SSE grammar.
func splitField(line string) (string, string) {
	for i := 0; i < len(line); i++ {
		if line[i] == ':' {
			value := line[i+1:]
			if len(value) > 0 && value[0] == ' ' {
				value = value[1:]
			}
			return line[:i], value
		}
	}
	return line, ""
}

func joinLines(lines []string) string {
	var buf bytes.Buffer
	for i, line := range lines {
		if i > 0 {
			buf.WriteByte('\n')
		}
		buf.WriteString(line)
	}
	return buf.String()
}

// Scanner pulls frames from an io.Reader by feeding fixed-size reads through
// a Decoder. It is the reader-side counterpart of Decoder for consuming an
// HTTP response body.
type Scanner struct {
	reader  io.Reader
	decoder *Decoder
	pending []Frame
	readBuf []byte
	eof     bool
	readErr error
}

// NewScanner creates a Scanner reading SSE frames from reader.
func NewScanner(reader io.Reader) *Scanner {
	return &Scanner{
		reader:  reader,
		decoder: NewDecoder(),
		readBuf: make([]byte, 4096),
	}
}

// Next returns the next complete frame. Once the stream has ended it returns
// io.EOF for a clean end (terminal frame or transport close) or the
// underlying failure for a read error. Pending frames, including a final
// best-effort frame built from partial data, are always drained before any
// error is reported, so received data is never discarded.
func (s *Scanner) Next() (Frame, error) {
	for {
		if len(s.pending) > 0 {
			frame := s.pending[0]
			s.pending = s.pending[1:]
			return frame, nil
		}
		if s.eof {
			if s.readErr != nil {
				return Frame{}, s.readErr
			}
			return Frame{}, io.EOF
		}

		n, err := s.reader.Read(s.readBuf)
		if n > 0 {
			frames, feedErr := s.decoder.Feed(s.readBuf[:n])
			s.pending = append(s.pending, frames...)
			if feedErr != nil {
				s.eof = true
				s.readErr = feedErr
				continue
			}
		}
		if err != nil {
			s.eof = true
			if err != io.EOF {
				s.readErr = fmt.Errorf("sse: read error: %w", err)
			}
			s.pending = append(s.pending, s.decoder.Close()...)
		}
	}
}
