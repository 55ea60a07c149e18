package pdf

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"github.com/custodia-labs/pdfcut/internal/core/domain"
	"github.com/custodia-labs/pdfcut/internal/core/ports/driven"
	"github.com/custodia-labs/pdfcut/internal/logger"
)

// Ensure Loader implements the interface.
var _ driven.DocumentLoader = (*Loader)(nil)

// Loader opens PDF files.
type Loader struct {
	conf *model.Configuration
}

// NewLoader creates a loader with relaxed validation, which accepts the
// minor syntax errors common in scanner and office output.
func NewLoader() *Loader {
	// pdfcpu would otherwise create ~/.config/pdfcpu on first use.
	api.DisableConfigDir()

	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	return &Loader{conf: conf}
}

// Load parses the PDF at path. It returns domain.ErrInputNotFound when path
// does not exist and wraps parse failures with domain.ErrInvalidInput.
func (l *Loader) Load(ctx context.Context, path string) (driven.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", domain.ErrInputNotFound, path)
		}
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%w: %s is a directory", domain.ErrInvalidInput, path)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}

	done := logger.Timed("Parsing %s", path)
	pctx, err := l.parse(f)
	done()
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("%w: %s: %w", domain.ErrInvalidInput, path, err)
	}

	logger.Debug("Loaded %s: %d pages, %d bytes", path, pctx.PageCount, info.Size())
	return &Document{file: f, ctx: pctx, path: path}, nil
}

func (l *Loader) parse(f *os.File) (*model.Context, error) {
	pctx, err := api.ReadContext(f, l.conf)
	if err != nil {
		return nil, err
	}
	if err := api.ValidateContext(pctx); err != nil {
		return nil, err
	}
	if err := pctx.EnsurePageCount(); err != nil {
		return nil, err
	}
	return pctx, nil
}
