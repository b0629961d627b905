package failure

import (
	"errors"
	"fmt"
	"github.com/stretchr/testify/assert"
	"io"
	"testing"
)

func TestKindOf(t *testing.T) {
	err := New(InputAccess, "reading s1.bam", io.ErrUnexpectedEOF)
	assert.Equal(t, InputAccess, KindOf(err))
	assert.True(t, errors.Is(err, io.ErrUnexpectedEOF))
	assert.Equal(t, "InputAccessError: reading s1.bam: unexpected EOF", err.Error())

	wrapped := fmt.Errorf("task s1: %w", err)
	assert.True(t, Is(wrapped, InputAccess))
	assert.False(t, Is(wrapped, OutputWrite))
	assert.Equal(t, Unknown, KindOf(io.EOF))
	assert.False(t, Is(nil, Unknown))
}

func TestFromPanic(t *testing.T) {
	err := FromPanic(MalformedRecord, "decoding", "bad cigar")
	assert.Equal(t, MalformedRecord, KindOf(err))
	assert.Contains(t, err.Error(), "bad cigar")

	inner := Newf(InsufficientControlData, "estimating", "no reads")
	assert.Equal(t, inner, FromPanic(Unknown, "running", inner))

	err = FromPanic(OutputWrite, "writing", io.ErrShortWrite)
	assert.True(t, errors.Is(err, io.ErrShortWrite))
	assert.Equal(t, "OutputWriteError", OutputWrite.String())
}
