package scratch

import (
	"bytes"
	"errors"
	"io"

	"github.com/custodia-labs/pdfcut/internal/core/ports/driven"
)

// Ensure Memory implements the interface.
var _ driven.Scratch = (*Memory)(nil)

// ErrClosed is returned when a closed buffer is used.
var ErrClosed = errors.New("scratch buffer closed")

// Memory is an in-memory scratch buffer.
type Memory struct {
	buf    bytes.Buffer
	closed bool
}

// NewMemory creates an empty in-memory buffer.
func NewMemory() *Memory {
	return &Memory{}
}

// Write appends p to the buffer.
func (m *Memory) Write(p []byte) (int, error) {
	if m.closed {
		return 0, ErrClosed
	}
	return m.buf.Write(p)
}

// WriteTo copies the buffered bytes to w without consuming them.
func (m *Memory) WriteTo(w io.Writer) (int64, error) {
	if m.closed {
		return 0, ErrClosed
	}
	n, err := w.Write(m.buf.Bytes())
	return int64(n), err
}

// Reset discards the buffered bytes.
func (m *Memory) Reset() error {
	if m.closed {
		return ErrClosed
	}
	m.buf.Reset()
	return nil
}

// Len returns the number of buffered bytes.
func (m *Memory) Len() int64 {
	return int64(m.buf.Len())
}

// Close releases the buffer.
func (m *Memory) Close() error {
	m.closed = true
	m.buf = bytes.Buffer{}
	return nil
}
