package hookwrap_test

import (
	"bytes"
	"testing"

	. "github.com/monopole/hookwrap"
	"github.com/stretchr/testify/assert"
)

func TestRecord(t *testing.T) {
	var r *Record
	assert.Equal(t, 0, r.Len())
	assert.Nil(t, r.Chunks())

	r = &Record{}
	r.AppendString(Stdout, "a")
	r.AppendString(Stderr, "")
	r.AppendString(Stderr, "b")
	r.AppendString(Stdout, "c")
	assert.Equal(t, 3, r.Len())
	assert.Equal(t, "ac", string(r.Stdout()))
	assert.Equal(t, "b", string(r.Stderr()))
	assert.Equal(t, "abc", string(r.Combined()))

	var out, errOut bytes.Buffer
	assert.NoError(t, r.ReplayTo(&out, &errOut))
	assert.Equal(t, "ac", out.String())
	assert.Equal(t, "b", errOut.String())
}

func TestRecord_AppendCopies(t *testing.T) {
	data := []byte("abc")
	r := &Record{}
	r.Append(Stdout, data)
	data[0] = 'X'
	assert.Equal(t, "abc", string(r.Stdout()))
}

func TestRecord_AppendRecord(t *testing.T) {
	r1, r2 := &Record{}, &Record{}
	r1.AppendString(Stdout, "1")
	r2.AppendString(Stderr, "2")
	r2.AppendString(Stdout, "3")
	r1.AppendRecord(r2)
	r1.AppendRecord(nil)
	assert.Equal(t, []Chunk{
		{Stream: Stdout, Data: []byte("1")},
		{Stream: Stderr, Data: []byte("2")},
		{Stream: Stdout, Data: []byte("3")},
	}, r1.Chunks())
}

func TestStream_String(t *testing.T) {
	assert.Equal(t, "stdout", Stdout.String())
	assert.Equal(t, "stderr", Stderr.String())
	assert.Equal(t, "Stream(7)", Stream(7).String())
}
