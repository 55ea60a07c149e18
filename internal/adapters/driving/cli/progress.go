package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"
	"golang.org/x/term"

	"github.com/custodia-labs/pdfcut/internal/adapters/driving/cli/styles"
	"github.com/custodia-labs/pdfcut/internal/core/domain"
	"github.com/custodia-labs/pdfcut/internal/core/services"
)

// progressPrinter writes one line per fragment as it is emitted.
type progressPrinter struct {
	out    io.Writer
	styles *styles.Styles
}

// newProgressPrinter styles output only when out is a terminal.
func newProgressPrinter(out io.Writer) *progressPrinter {
	st := styles.PlainStyles()
	if isTerminal(out) {
		st = styles.DefaultStyles()
	}
	return &progressPrinter{out: out, styles: st}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

func (p *progressPrinter) start(input string, limit domain.SizeLimit, dryRun bool) {
	title := "Splitting " + filepath.Base(input)
	if dryRun {
		title += " (dry run)"
	}
	fmt.Fprintf(p.out, "%s %s\n", p.styles.Title.Render(title),
		p.styles.Muted.Render("limit "+services.FormatSizeLimit(limit)))
}

// fragment is a domain.ProgressFunc.
func (p *progressPrinter) fragment(f domain.Fragment) {
	fmt.Fprintln(p.out, p.fragmentLine(f))
}

func (p *progressPrinter) fragmentLine(f domain.Fragment) string {
	line := fmt.Sprintf("  %s  %-13s %-10s %10s",
		p.styles.Label.Render(fmt.Sprintf("part %-3d", f.Part)),
		pageRange(f),
		pluralPages(f.Pages()),
		humanize.IBytes(uint64(f.Size)))
	if f.Oversized {
		line += "  " + p.styles.Warning.Render("OVERSIZED")
	}
	if f.Path != "" {
		line += "  " + p.styles.Muted.Render(filepath.Base(f.Path))
	}
	return line
}

func (p *progressPrinter) summary(run *domain.SplitRun, elapsed time.Duration) {
	if run == nil {
		return
	}
	if len(run.Fragments) == 0 {
		fmt.Fprintln(p.out, p.styles.Muted.Render("Document has no pages; nothing to write."))
		return
	}

	msg := fmt.Sprintf("%d parts, %s total, %s",
		len(run.Fragments), humanize.IBytes(uint64(run.TotalSize())), elapsed.Round(time.Millisecond))
	fmt.Fprintln(p.out, p.styles.Success.Render(msg))
	if n := run.OversizedCount(); n > 0 {
		fmt.Fprintln(p.out, p.styles.Warning.Render(
			fmt.Sprintf("%d page(s) exceed the limit on their own and were written as oversized parts", n)))
	}
}

// pageRange renders a fragment's pages 1-based, e.g. "pages 4-6".
func pageRange(f domain.Fragment) string {
	if f.Pages() == 1 {
		return fmt.Sprintf("page %d", f.FirstPage())
	}
	return fmt.Sprintf("pages %d-%d", f.FirstPage(), f.LastPage())
}

func pluralPages(n int) string {
	if n == 1 {
		return "(1 page)"
	}
	return fmt.Sprintf("(%d pages)", n)
}
