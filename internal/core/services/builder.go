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

// errBuilderClosed is returned when a closed builder is used.
var errBuilderClosed = errors.New("fragment builder closed")

// FragmentBuilder accumulates the pages of one candidate fragment and
// reports its size by serializing it into an owned scratch buffer.
// There is no removal: a rolled-back fragment is rebuilt from its prefix.
type FragmentBuilder struct {
	doc     driven.Document
	scratch driven.Scratch
	pages   []domain.Page

	// size is valid only while current is true.
	size    int64
	current bool
	closed  bool
}

// NewFragmentBuilder creates an empty builder. The builder owns scratch
// and releases it on Close.
func NewFragmentBuilder(doc driven.Document, scratch driven.Scratch) *FragmentBuilder {
	return &FragmentBuilder{
		doc:     doc,
		scratch: scratch,
	}
}

// Append adds a page and invalidates the cached size.
func (b *FragmentBuilder) Append(page domain.Page) {
	b.pages = append(b.pages, page)
	b.current = false
}

// PageCount returns the number of appended pages.
func (b *FragmentBuilder) PageCount() int {
	return len(b.pages)
}

// Pages returns a copy of the appended pages in order.
func (b *FragmentBuilder) Pages() []domain.Page {
	out := make([]domain.Page, len(b.pages))
	copy(out, b.pages)
	return out
}

// MeasuredSize serializes the accumulated pages as a standalone document
// and returns its byte length. The result is cached until the next Append
// or Reset. An empty builder measures zero without serializing.
func (b *FragmentBuilder) MeasuredSize(ctx context.Context) (int64, error) {
	if b.closed {
		return 0, errBuilderClosed
	}
	if b.current {
		return b.size, nil
	}
	if len(b.pages) == 0 {
		return 0, nil
	}

	if err := b.scratch.Reset(); err != nil {
		return 0, fmt.Errorf("resetting scratch: %w", err)
	}

	done := logger.Timed("serialize %s", describePages(b.pages))
	err := b.doc.Serialize(ctx, b.pages, b.scratch)
	done()
	if err != nil {
		return 0, fmt.Errorf("%w: %s: %w", domain.ErrSerialization, describePages(b.pages), err)
	}

	b.size = b.scratch.Len()
	b.current = true
	return b.size, nil
}

// Finalize writes the serialized fragment to w and returns the number of
// bytes written. When the cached measurement is current the measured bytes
// are replayed, so the output is exactly what was measured.
// Finalize does not clear the builder.
func (b *FragmentBuilder) Finalize(ctx context.Context, w io.Writer) (int64, error) {
	if _, err := b.MeasuredSize(ctx); err != nil {
		return 0, err
	}
	n, err := b.scratch.WriteTo(w)
	if err != nil {
		return n, fmt.Errorf("writing fragment: %w", err)
	}
	return n, nil
}

// Reset discards all appended pages.
func (b *FragmentBuilder) Reset() {
	b.pages = nil
	b.size = 0
	b.current = false
}

// Close releases the scratch buffer. Close is idempotent.
func (b *FragmentBuilder) Close() error {
	if b.closed {
		return nil
	}
	b.closed = true
	b.pages = nil
	return b.scratch.Close()
}

// describePages renders a page list as 1-based numbers for messages.
func describePages(pages []domain.Page) string {
	switch len(pages) {
	case 0:
		return "no pages"
	case 1:
		return fmt.Sprintf("page %d", pages[0].Index+1)
	default:
		return fmt.Sprintf("pages %d-%d", pages[0].Index+1, pages[len(pages)-1].Index+1)
	}
}
