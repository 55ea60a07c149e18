package driven

import "io"

// Scratch is a reusable buffer holding the bytes of the latest measurement.
// A Scratch belongs to exactly one fragment builder.
type Scratch interface {
	io.Writer
	io.WriterTo

	// Reset discards the current contents.
	Reset() error

	// Len returns the number of bytes written since the last Reset.
	Len() int64

	// Close releases the buffer. Further use is an error.
	Close() error
}

// ScratchFactory creates scratch buffers.
type ScratchFactory interface {
	// NewScratch returns an empty buffer.
	NewScratch() (Scratch, error)
}
