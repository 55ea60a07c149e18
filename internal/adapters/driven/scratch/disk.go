package scratch

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/custodia-labs/pdfcut/internal/core/ports/driven"
)

// Ensure Disk implements the interface.
var _ driven.Scratch = (*Disk)(nil)

// Disk is a scratch buffer backed by a temporary file.
// The file is removed on Close.
type Disk struct {
	f      *os.File
	n      int64
	closed bool
}

// NewDisk creates a temporary scratch file in dir.
// If dir is empty, os.TempDir is used.
func NewDisk(dir string) (*Disk, error) {
	f, err := os.CreateTemp(dir, "pdfcut-scratch-*.pdf")
	if err != nil {
		return nil, fmt.Errorf("creating scratch file: %w", err)
	}
	return &Disk{f: f}, nil
}

// Path returns the scratch file path.
func (d *Disk) Path() string {
	return d.f.Name()
}

// Write appends p to the scratch file.
func (d *Disk) Write(p []byte) (int, error) {
	if d.closed {
		return 0, ErrClosed
	}
	n, err := d.f.Write(p)
	d.n += int64(n)
	return n, err
}

// WriteTo copies the scratch file contents to w without moving the write offset.
func (d *Disk) WriteTo(w io.Writer) (int64, error) {
	if d.closed {
		return 0, ErrClosed
	}
	return io.Copy(w, io.NewSectionReader(d.f, 0, d.n))
}

// Reset truncates the scratch file.
func (d *Disk) Reset() error {
	if d.closed {
		return ErrClosed
	}
	if err := d.f.Truncate(0); err != nil {
		return err
	}
	if _, err := d.f.Seek(0, io.SeekStart); err != nil {
		return err
	}
	d.n = 0
	return nil
}

// Len returns the number of bytes written since the last Reset.
func (d *Disk) Len() int64 {
	return d.n
}

// Close closes and removes the scratch file. Close is idempotent.
func (d *Disk) Close() error {
	if d.closed {
		return nil
	}
	d.closed = true
	closeErr := d.f.Close()
	removeErr := os.Remove(d.f.Name())
	if errors.Is(removeErr, os.ErrNotExist) {
		removeErr = nil
	}
	return errors.Join(closeErr, removeErr)
}
