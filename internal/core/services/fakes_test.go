package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/custodia-labs/pdfcut/internal/adapters/driven/scratch"
	"github.com/custodia-labs/pdfcut/internal/core/domain"
	"github.com/custodia-labs/pdfcut/internal/core/ports/driven"
)

// fakeDocument serializes a page set as a fixed header plus each page's
// payload, so sizes are additive and easy to reason about.
type fakeDocument struct {
	pageSizes []int
	overhead  int

	// sizeFunc overrides the additive size model when set.
	sizeFunc func(pages []domain.Page) int

	// failOn makes Serialize fail whenever the page set contains this index.
	failOn int

	serializeCalls int
	closed         bool
}

func newFakeDocument(overhead int, pageSizes ...int) *fakeDocument {
	return &fakeDocument{pageSizes: pageSizes, overhead: overhead, failOn: -1}
}

// uniformDocument returns n pages of the same size.
func uniformDocument(overhead, n, size int) *fakeDocument {
	sizes := make([]int, n)
	for i := range sizes {
		sizes[i] = size
	}
	return newFakeDocument(overhead, sizes...)
}

func (d *fakeDocument) PageCount() int {
	return len(d.pageSizes)
}

func (d *fakeDocument) Page(i int) (domain.Page, error) {
	if i < 0 || i >= len(d.pageSizes) {
		return domain.Page{}, fmt.Errorf("%w: %d", domain.ErrPageIndex, i)
	}
	return domain.Page{Index: i}, nil
}

func (d *fakeDocument) Serialize(ctx context.Context, pages []domain.Page, w io.Writer) error {
	d.serializeCalls++
	if err := ctx.Err(); err != nil {
		return err
	}
	for _, p := range pages {
		if p.Index == d.failOn {
			return errors.New("corrupt page stream")
		}
	}

	size := d.overhead
	if d.sizeFunc != nil {
		size = d.sizeFunc(pages)
	} else {
		for _, p := range pages {
			size += d.pageSizes[p.Index]
		}
	}

	// Content depends on the page set so replays can be checked byte-for-byte.
	var buf bytes.Buffer
	for _, p := range pages {
		fmt.Fprintf(&buf, "[%d]", p.Index)
	}
	content := buf.Bytes()
	out := make([]byte, size)
	for i := range out {
		if len(content) > 0 {
			out[i] = content[i%len(content)]
		} else {
			out[i] = '.'
		}
	}
	_, err := w.Write(out)
	return err
}

func (d *fakeDocument) Close() error {
	d.closed = true
	return nil
}

var _ driven.Document = (*fakeDocument)(nil)

// trackingScratch wraps a memory buffer and reports Close to its factory.
type trackingScratch struct {
	*scratch.Memory
	factory *trackingFactory
}

func (s *trackingScratch) Close() error {
	s.factory.mu.Lock()
	s.factory.open--
	s.factory.mu.Unlock()
	return s.Memory.Close()
}

// trackingFactory counts buffers so tests can assert none leak.
type trackingFactory struct {
	mu      sync.Mutex
	created int
	open    int
	failAt  int // NewScratch fails on this call number (1-based); 0 disables
}

func (f *trackingFactory) NewScratch() (driven.Scratch, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.created++
	if f.failAt > 0 && f.created == f.failAt {
		return nil, errors.New("no space left on device")
	}
	f.open++
	return &trackingScratch{Memory: scratch.NewMemory(), factory: f}, nil
}

// pageCounts returns the page count of each fragment.
func pageCounts(frags []domain.Fragment) []int {
	out := make([]int, len(frags))
	for i, f := range frags {
		out[i] = f.Pages()
	}
	return out
}

// recordingEmitter writes every fragment body into memory.
type recordingEmitter struct {
	bodies map[int][]byte
}

func newRecordingEmitter() *recordingEmitter {
	return &recordingEmitter{bodies: make(map[int][]byte)}
}

func (r *recordingEmitter) emit(_ context.Context, frag domain.Fragment, body driven.FragmentBody) (domain.Fragment, error) {
	var buf bytes.Buffer
	if _, err := body(&buf); err != nil {
		return frag, err
	}
	r.bodies[frag.Part] = buf.Bytes()
	return frag, nil
}
