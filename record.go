package hookwrap

import (
	"bytes"
	"fmt"
	"io"
)

// Stream identifies which output stream of a child process a chunk came from.
type Stream int

const (
	Stdout Stream = iota + 1
	Stderr
)

func (s Stream) String() string {
	switch s {
	case Stdout:
		return "stdout"
	case Stderr:
		return "stderr"
	default:
		return fmt.Sprintf("Stream(%d)", int(s))
	}
}

// Chunk is one read from one stream.
type Chunk struct {
	Stream Stream
	Data   []byte
}

// Record holds the interleaved output of a child process in arrival order.
//
// The zero value is an empty record ready to use. A Record isn't safe for
// concurrent use; the ProcRunner appends from a single goroutine.
type Record struct {
	chunks []Chunk
}

// Append adds a copy of b, tagged with s.  Empty chunks are ignored.
func (r *Record) Append(s Stream, b []byte) {
	if len(b) == 0 {
		return
	}
	data := make([]byte, len(b))
	copy(data, b)
	r.chunks = append(r.chunks, Chunk{Stream: s, Data: data})
}

// AppendString is Append for strings.
func (r *Record) AppendString(s Stream, str string) {
	r.Append(s, []byte(str))
}

// AppendRecord appends all chunks of other, preserving their order.
func (r *Record) AppendRecord(other *Record) {
	if other == nil {
		return
	}
	r.chunks = append(r.chunks, other.chunks...)
}

// Chunks returns the chunks in arrival order.
func (r *Record) Chunks() []Chunk {
	if r == nil {
		return nil
	}
	return r.chunks
}

// Len returns the number of chunks.
func (r *Record) Len() int {
	if r == nil {
		return 0
	}
	return len(r.chunks)
}

// Bytes returns everything written to the given stream.
func (r *Record) Bytes(s Stream) []byte {
	var buff bytes.Buffer
	for _, c := range r.Chunks() {
		if c.Stream == s {
			buff.Write(c.Data)
		}
	}
	return buff.Bytes()
}

// Stdout returns everything written to stdout.
func (r *Record) Stdout() []byte { return r.Bytes(Stdout) }

// Stderr returns everything written to stderr.
func (r *Record) Stderr() []byte { return r.Bytes(Stderr) }

// Combined returns both streams interleaved in arrival order.
func (r *Record) Combined() []byte {
	var buff bytes.Buffer
	for _, c := range r.Chunks() {
		buff.Write(c.Data)
	}
	return buff.Bytes()
}

// ReplayTo writes every chunk to out or errOut, in arrival order.
func (r *Record) ReplayTo(out, errOut io.Writer) error {
	for _, c := range r.Chunks() {
		w := out
		if c.Stream == Stderr {
			w = errOut
		}
		if _, err := w.Write(c.Data); err != nil {
			return fmt.Errorf("replaying %s; %w", c.Stream, err)
		}
	}
	return nil
}
