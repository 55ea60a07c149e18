// Package filesystem writes fragments to disk atomically.
package filesystem

import (
	"context"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/zeebo/blake3"

	"github.com/custodia-labs/pdfcut/internal/core/domain"
	"github.com/custodia-labs/pdfcut/internal/core/ports/driven"
	"github.com/custodia-labs/pdfcut/internal/logger"
)

// Ensure Sink implements the interface.
var _ driven.FragmentSink = (*Sink)(nil)

const (
	defaultFilePerm = 0o644
	defaultDirPerm  = 0o755
)

// Sink writes each fragment to a temp file in the destination directory and
// renames it into place, so a fragment is either complete under its final
// name or absent.
type Sink struct {
	filePerm os.FileMode
	dirPerm  os.FileMode
}

// Option configures a Sink.
type Option func(*Sink)

// WithFilePerm sets the permission bits of written fragments.
func WithFilePerm(perm os.FileMode) Option {
	return func(s *Sink) { s.filePerm = perm }
}

// WithDirPerm sets the permission bits of created output directories.
func WithDirPerm(perm os.FileMode) Option {
	return func(s *Sink) { s.dirPerm = perm }
}

// New creates a filesystem sink.
func New(opts ...Option) *Sink {
	s := &Sink{filePerm: defaultFilePerm, dirPerm: defaultDirPerm}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Write streams body to path and returns frag with Path and Digest set.
// Digest is the hex BLAKE3-256 of the written bytes. An existing file at
// path is replaced.
func (s *Sink) Write(ctx context.Context, path string, frag domain.Fragment, body driven.FragmentBody) (domain.Fragment, error) {
	if err := ctx.Err(); err != nil {
		return frag, err
	}
	if path == "" {
		return frag, fmt.Errorf("%w: empty fragment path", domain.ErrInvalidInput)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, s.dirPerm); err != nil {
		return frag, fmt.Errorf("create output dir: %w", err)
	}

	n, digest, err := s.writeAtomic(ctx, path, body)
	if err != nil {
		return frag, fmt.Errorf("write %s: %w", path, err)
	}
	if n != frag.Size {
		logger.Warn("%s: wrote %d bytes, measured %d", filepath.Base(path), n, frag.Size)
		frag.Size = n
	}

	frag.Path = path
	frag.Digest = digest
	logger.Debug("Wrote %s (%d bytes, blake3 %s)", path, n, digest[:16])
	return frag, nil
}

func (s *Sink) writeAtomic(ctx context.Context, dest string, body driven.FragmentBody) (int64, string, error) {
	tmp, err := os.CreateTemp(filepath.Dir(dest), ".pdfcut-*.tmp")
	if err != nil {
		return 0, "", err
	}
	tmpPath := tmp.Name()

	fail := func(err error) (int64, string, error) {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return 0, "", err
	}

	if err := tmp.Chmod(s.filePerm); err != nil {
		return fail(err)
	}

	hasher := blake3.New()
	n, err := body(io.MultiWriter(tmp, hasher))
	if err != nil {
		return fail(err)
	}
	if err := ctx.Err(); err != nil {
		return fail(err)
	}
	if err := tmp.Sync(); err != nil {
		return fail(err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return 0, "", err
	}
	if err := os.Rename(tmpPath, dest); err != nil {
		_ = os.Remove(tmpPath)
		return 0, "", err
	}
	return n, hex.EncodeToString(hasher.Sum(nil)), nil
}
