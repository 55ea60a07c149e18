package pdf

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/pdfcut/internal/adapters/driven/scratch"
	"github.com/custodia-labs/pdfcut/internal/core/domain"
	"github.com/custodia-labs/pdfcut/internal/core/ports/driven"
	"github.com/custodia-labs/pdfcut/internal/core/services"
)

func loadPDF(t *testing.T, path string) driven.Document {
	t.Helper()
	doc, err := NewLoader().Load(context.Background(), path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = doc.Close() })
	return doc
}

// reload parses serialized bytes again to prove they form a valid PDF.
func reload(t *testing.T, data []byte) driven.Document {
	t.Helper()
	path := filepath.Join(t.TempDir(), "out.pdf")
	require.NoError(t, os.WriteFile(path, data, 0o600))
	return loadPDF(t, path)
}

func TestLoader_Load(t *testing.T) {
	doc := loadPDF(t, writePDF(t, "three.pdf", 10, 10, 10))
	assert.Equal(t, 3, doc.PageCount())
}

func TestLoader_Load_NotFound(t *testing.T) {
	_, err := NewLoader().Load(context.Background(), filepath.Join(t.TempDir(), "missing.pdf"))
	assert.ErrorIs(t, err, domain.ErrInputNotFound)
}

func TestLoader_Load_Directory(t *testing.T) {
	_, err := NewLoader().Load(context.Background(), t.TempDir())
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestLoader_Load_NotAPDF(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notes.pdf")
	require.NoError(t, os.WriteFile(path, []byte("just some text, no pdf here\n"), 0o600))

	_, err := NewLoader().Load(context.Background(), path)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestLoader_Load_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewLoader().Load(ctx, writePDF(t, "one.pdf", 0))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestDocument_Page(t *testing.T) {
	doc := loadPDF(t, writePDF(t, "two.pdf", 0, 0))

	p, err := doc.Page(1)
	require.NoError(t, err)
	assert.Equal(t, domain.Page{Index: 1}, p)

	for _, i := range []int{-1, 2} {
		_, err := doc.Page(i)
		assert.ErrorIs(t, err, domain.ErrPageIndex)
	}
}

func TestDocument_Serialize(t *testing.T) {
	doc := loadPDF(t, writePDF(t, "four.pdf", 100, 100, 100, 100))

	var buf bytes.Buffer
	err := doc.Serialize(context.Background(), []domain.Page{{Index: 0}, {Index: 2}}, &buf)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")))

	out := reload(t, buf.Bytes())
	assert.Equal(t, 2, out.PageCount())
}

func TestDocument_Serialize_GrowsWithPages(t *testing.T) {
	doc := loadPDF(t, writePDF(t, "heavy.pdf", 4000, 4000, 4000))
	ctx := context.Background()

	var prev int
	pages := []domain.Page{}
	for i := 0; i < doc.PageCount(); i++ {
		pages = append(pages, domain.Page{Index: i})
		var buf bytes.Buffer
		require.NoError(t, doc.Serialize(ctx, pages, &buf))
		assert.Greater(t, buf.Len(), prev, "adding page %d", i+1)
		prev = buf.Len()
	}
}

func TestDocument_Serialize_Errors(t *testing.T) {
	doc := loadPDF(t, writePDF(t, "one.pdf", 0))
	var buf bytes.Buffer

	err := doc.Serialize(context.Background(), nil, &buf)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	err = doc.Serialize(context.Background(), []domain.Page{{Index: 5}}, &buf)
	assert.ErrorIs(t, err, domain.ErrPageIndex)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err = doc.Serialize(ctx, []domain.Page{{Index: 0}}, &buf)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestDocument_Close(t *testing.T) {
	doc, err := NewLoader().Load(context.Background(), writePDF(t, "one.pdf", 0))
	require.NoError(t, err)

	require.NoError(t, doc.Close())
	require.NoError(t, doc.Close())

	err = doc.Serialize(context.Background(), []domain.Page{{Index: 0}}, &bytes.Buffer{})
	assert.Error(t, err)
}

func TestPartition_RealDocument(t *testing.T) {
	doc := loadPDF(t, writePDF(t, "six.pdf", 2000, 2000, 2000, 2000, 2000, 2000))
	factory, err := scratch.NewFactory(domain.ScratchMemory, "")
	require.NoError(t, err)
	ctx := context.Background()

	t.Run("generous limit keeps one fragment", func(t *testing.T) {
		frags, err := services.NewPartitioner(domain.SizeLimit(1<<30), factory).Partition(ctx, doc, nil)
		require.NoError(t, err)
		require.Len(t, frags, 1)
		assert.Equal(t, 6, frags[0].Pages())
		assert.False(t, frags[0].Oversized)
	})

	t.Run("tiny limit makes every page oversized", func(t *testing.T) {
		frags, err := services.NewPartitioner(1, factory).Partition(ctx, doc, nil)
		require.NoError(t, err)
		require.Len(t, frags, 6)
		for _, f := range frags {
			assert.True(t, f.Oversized)
			assert.Equal(t, 1, f.Pages())
		}
	})

	t.Run("fragments stay under a mid-range limit", func(t *testing.T) {
		var single bytes.Buffer
		require.NoError(t, doc.Serialize(ctx, []domain.Page{{Index: 0}, {Index: 1}}, &single))
		limit := domain.SizeLimit(single.Len() + 100)

		frags, err := services.NewPartitioner(limit, factory).Partition(ctx, doc, nil)
		require.NoError(t, err)
		require.NoError(t, services.ValidatePartition(frags, 6))
		assert.Greater(t, len(frags), 1)
		for _, f := range frags {
			assert.False(t, f.Oversized)
			assert.LessOrEqual(t, f.Size, int64(limit))
		}
	})
}
