package io

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCountingWriter(t *testing.T) {
	assert := assert.New(t)

	var sb strings.Builder
	counter := CountingWriter{
		Delegate: &sb,
	}

	n, err := counter.Write([]byte{'a', 'b'})
	assert.NoError(err)
	assert.Equal(2, n)
	assert.EqualValues(2, counter.BytesWritten)

	counter.WriteString("c")
	assert.EqualValues(3, counter.BytesWritten)

	assert.Equal("abc", sb.String())
}

type failingWriter struct{}

func (failingWriter) Write(p []byte) (int, error) {
	return 0, errors.New("disk full")
}

func TestCountingWriter_stopsAfterError(t *testing.T) {
	assert := assert.New(t)

	counter := CountingWriter{Delegate: failingWriter{}}
	counter.WriteString("a")
	counter.WriteString("b")

	assert.EqualError(counter.Err, "disk full")
	assert.EqualValues(0, counter.BytesWritten)
}
