package services

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/custodia-labs/pdfcut/internal/core/domain"
	"github.com/custodia-labs/pdfcut/internal/core/ports/driven"
	"github.com/custodia-labs/pdfcut/internal/logger"
)

// Emitter receives each finalized fragment in page order. body streams the
// fragment's bytes; it is only valid for the duration of the call.
// The returned fragment replaces the one passed in (e.g. with Path set).
type Emitter func(ctx context.Context, frag domain.Fragment, body driven.FragmentBody) (domain.Fragment, error)

// Partitioner splits a document into fragments whose serialized size stays
// within a limit. It walks the pages once, left to right, and never reorders
// or reconsiders an emitted boundary.
type Partitioner struct {
	limit   domain.SizeLimit
	scratch driven.ScratchFactory
}

// NewPartitioner creates a partitioner for the given limit. Each fragment
// builder gets its own buffer from scratch.
func NewPartitioner(limit domain.SizeLimit, scratch driven.ScratchFactory) *Partitioner {
	return &Partitioner{
		limit:   limit,
		scratch: scratch,
	}
}

// Limit returns the configured size limit.
func (p *Partitioner) Limit() domain.SizeLimit {
	return p.limit
}

// Partition walks doc and emits its fragments. A page that pushes a
// multi-page fragment over the limit is rolled back and starts the next
// fragment; a page that is over the limit on its own is emitted as an
// oversized singleton. A nil emit only computes the boundaries.
//
// The fragments emitted before an error are returned with it.
func (p *Partitioner) Partition(ctx context.Context, doc driven.Document, emit Emitter) ([]domain.Fragment, error) {
	if err := p.limit.Validate(); err != nil {
		return nil, err
	}
	if p.scratch == nil {
		return nil, fmt.Errorf("%w: no scratch factory", domain.ErrInvalidInput)
	}

	w := &partitionWalk{
		Partitioner: p,
		doc:         doc,
		emit:        emit,
		part:        1,
	}
	err := w.run(ctx)
	if cerr := w.discard(); cerr != nil && err == nil {
		err = cerr
	}
	return w.frags, err
}

// partitionWalk holds the state of one Partition call.
type partitionWalk struct {
	*Partitioner
	doc  driven.Document
	emit Emitter

	builder *FragmentBuilder
	start   int
	part    int
	frags   []domain.Fragment
}

func (w *partitionWalk) run(ctx context.Context) error {
	n := w.doc.PageCount()
	logger.Section("Partition")
	logger.Debug("Pages: %d, limit: %d bytes", n, int64(w.limit))

	for i := 0; i < n; {
		if err := ctx.Err(); err != nil {
			return err
		}

		b, err := w.current()
		if err != nil {
			return err
		}
		page, err := w.doc.Page(i)
		if err != nil {
			return err
		}
		b.Append(page)

		size, err := b.MeasuredSize(ctx)
		if err != nil {
			return err
		}
		logger.Debug("Fragment %d with page %d: %d bytes", w.part, i+1, size)

		if !w.limit.Exceeded(size) {
			i++
			if i == n {
				return w.emitCurrent(ctx, n, false)
			}
			continue
		}

		if b.PageCount() > 1 {
			// Page i starts the next fragment and is measured again there.
			if err := w.rollback(ctx, i); err != nil {
				return err
			}
			continue
		}

		logger.Debug("Page %d alone is %d bytes, over the limit", i+1, size)
		if err := w.emitCurrent(ctx, i+1, true); err != nil {
			return err
		}
		i++
	}
	return nil
}

// current returns the builder for the fragment in progress, creating a
// fresh one when needed.
func (w *partitionWalk) current() (*FragmentBuilder, error) {
	if w.builder != nil {
		return w.builder, nil
	}
	scratch, err := w.scratch.NewScratch()
	if err != nil {
		return nil, fmt.Errorf("creating scratch: %w", err)
	}
	w.builder = NewFragmentBuilder(w.doc, scratch)
	return w.builder, nil
}

// rollback discards the over-limit builder and rebuilds [start, end) in a
// fresh one, then emits it.
func (w *partitionWalk) rollback(ctx context.Context, end int) error {
	if err := w.discard(); err != nil {
		return err
	}
	b, err := w.current()
	if err != nil {
		return err
	}
	for j := w.start; j < end; j++ {
		page, err := w.doc.Page(j)
		if err != nil {
			return err
		}
		b.Append(page)
	}
	return w.emitCurrent(ctx, end, false)
}

// emitCurrent emits the builder's pages as fragment [start, end) and
// starts the next fragment at end.
func (w *partitionWalk) emitCurrent(ctx context.Context, end int, oversized bool) error {
	b := w.builder
	size, err := b.MeasuredSize(ctx)
	if err != nil {
		return err
	}

	frag := domain.Fragment{
		Part:      w.part,
		Start:     w.start,
		End:       end,
		Oversized: oversized,
		Size:      size,
	}

	if w.emit != nil {
		body := func(out io.Writer) (int64, error) {
			return b.Finalize(ctx, out)
		}
		frag, err = w.emit(ctx, frag, body)
		if err != nil {
			return fmt.Errorf("emitting part %d: %w", w.part, err)
		}
	}

	w.frags = append(w.frags, frag)
	w.part++
	w.start = end
	return w.discard()
}

// discard closes the builder in progress, if any.
func (w *partitionWalk) discard() error {
	if w.builder == nil {
		return nil
	}
	b := w.builder
	w.builder = nil
	if err := b.Close(); err != nil {
		return fmt.Errorf("releasing scratch: %w", err)
	}
	return nil
}

// ValidatePartition checks that frags cover [0, pages) contiguously, in
// order, with no empty fragment and with oversized fragments holding
// exactly one page.
func ValidatePartition(frags []domain.Fragment, pages int) error {
	next := 0
	for i, f := range frags {
		if f.Start != next {
			return fmt.Errorf("fragment %d starts at %d, want %d", i+1, f.Start, next)
		}
		if f.End <= f.Start {
			return fmt.Errorf("fragment %d is empty", i+1)
		}
		if f.Oversized && f.Pages() != 1 {
			return fmt.Errorf("oversized fragment %d has %d pages", i+1, f.Pages())
		}
		next = f.End
	}
	if next != pages {
		return errors.New("fragments do not cover every page")
	}
	return nil
}
