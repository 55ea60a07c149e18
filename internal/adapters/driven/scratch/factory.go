package scratch

import (
	"fmt"

	"github.com/custodia-labs/pdfcut/internal/core/domain"
	"github.com/custodia-labs/pdfcut/internal/core/ports/driven"
)

// Ensure Factory implements the interface.
var _ driven.ScratchFactory = (*Factory)(nil)

// Factory creates scratch buffers of one kind.
type Factory struct {
	kind domain.ScratchKind
	dir  string
}

// NewFactory creates a factory for kind. dir is only used by disk buffers.
func NewFactory(kind domain.ScratchKind, dir string) (*Factory, error) {
	if !kind.IsValid() {
		return nil, fmt.Errorf("%w: scratch kind %q", domain.ErrInvalidInput, kind)
	}
	return &Factory{kind: kind, dir: dir}, nil
}

// Kind returns the kind of buffer the factory creates.
func (f *Factory) Kind() domain.ScratchKind {
	return f.kind
}

// NewScratch returns an empty buffer.
func (f *Factory) NewScratch() (driven.Scratch, error) {
	if f.kind == domain.ScratchDisk {
		return NewDisk(f.dir)
	}
	return NewMemory(), nil
}

// Select returns the factory configured by opts.
func Select(opts domain.SplitOptions) (driven.ScratchFactory, error) {
	f, err := NewFactory(opts.Scratch, opts.ScratchDir)
	if err != nil {
		return nil, err
	}
	return f, nil
}
