package driven

import (
	"context"
	"io"

	"github.com/custodia-labs/pdfcut/internal/core/domain"
)

// Document is a read-only, ordered sequence of pages.
// The pages are owned by the document for its whole lifetime.
type Document interface {
	// PageCount returns the number of pages (N >= 0).
	PageCount() int

	// Page returns the page at index i.
	// Returns domain.ErrPageIndex unless 0 <= i < PageCount().
	Page(i int) (domain.Page, error)

	// Serialize writes a standalone document made of pages, in order, to w.
	// This is the only way to learn a page set's output size.
	Serialize(ctx context.Context, pages []domain.Page, w io.Writer) error

	// Close releases the source.
	Close() error
}

// DocumentLoader opens documents from storage.
type DocumentLoader interface {
	// Load opens the document at path.
	// Returns domain.ErrInputNotFound if path does not exist.
	Load(ctx context.Context, path string) (Document, error)
}
