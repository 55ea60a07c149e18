package pdf

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"github.com/custodia-labs/pdfcut/internal/core/domain"
	"github.com/custodia-labs/pdfcut/internal/core/ports/driven"
)

// Ensure Document implements the interface.
var _ driven.Document = (*Document)(nil)

// Document is a parsed source PDF.
type Document struct {
	file *os.File
	ctx  *model.Context
	path string
}

// PageCount returns the number of pages in the source.
func (d *Document) PageCount() int {
	return d.ctx.PageCount
}

// Page returns the page at zero-based index i.
func (d *Document) Page(i int) (domain.Page, error) {
	if i < 0 || i >= d.PageCount() {
		return domain.Page{}, fmt.Errorf("%w: %d not in [0, %d)", domain.ErrPageIndex, i, d.PageCount())
	}
	return domain.Page{Index: i}, nil
}

// Serialize writes a standalone PDF holding exactly pages, in order, to w.
func (d *Document) Serialize(ctx context.Context, pages []domain.Page, w io.Writer) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if d.file == nil {
		return fmt.Errorf("%s: document closed", d.path)
	}
	if len(pages) == 0 {
		return fmt.Errorf("%w: no pages to serialize", domain.ErrInvalidInput)
	}

	// pdfcpu numbers pages from 1.
	nrs := make([]int, len(pages))
	for i, p := range pages {
		if p.Index < 0 || p.Index >= d.PageCount() {
			return fmt.Errorf("%w: %d not in [0, %d)", domain.ErrPageIndex, p.Index, d.PageCount())
		}
		nrs[i] = p.Index + 1
	}

	out, err := pdfcpu.ExtractPages(d.ctx, nrs, false)
	if err != nil {
		return fmt.Errorf("extracting pages: %w", err)
	}
	if err := api.WriteContext(out, w); err != nil {
		return fmt.Errorf("writing pages: %w", err)
	}
	return nil
}

// Close releases the source file. Calling Close more than once is safe.
func (d *Document) Close() error {
	if d.file == nil {
		return nil
	}
	f := d.file
	d.file = nil
	return f.Close()
}

// Path returns the file the document was loaded from.
func (d *Document) Path() string {
	return d.path
}
