package services

import (
	"context"
	"errors"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/pdfcut/internal/core/domain"
	"github.com/custodia-labs/pdfcut/internal/core/ports/driven"
)

func TestPartition_Scenarios(t *testing.T) {
	tests := []struct {
		name      string
		doc       *fakeDocument
		limit     domain.SizeLimit
		pages     []int
		oversized []bool
	}{
		{
			name:      "every fourth page crosses the limit",
			doc:       uniformDocument(10, 10, 30),
			limit:     100,
			pages:     []int{3, 3, 3, 1},
			oversized: []bool{false, false, false, false},
		},
		{
			name:      "boundaries follow measured sizes",
			doc:       newFakeDocument(10, 30, 30, 30, 50, 20, 20, 10, 10, 10, 10),
			limit:     100,
			pages:     []int{3, 3, 4},
			oversized: []bool{false, false, false},
		},
		{
			name:      "oversized page in the middle",
			doc:       newFakeDocument(10, 30, 200, 30, 30),
			limit:     100,
			pages:     []int{1, 1, 2},
			oversized: []bool{false, true, false},
		},
		{
			name:      "oversized first and last page",
			doc:       newFakeDocument(10, 500, 20, 20, 500),
			limit:     100,
			pages:     []int{1, 2, 1},
			oversized: []bool{true, false, true},
		},
		{
			name:      "limit larger than the document",
			doc:       uniformDocument(10, 7, 30),
			limit:     10_000,
			pages:     []int{7},
			oversized: []bool{false},
		},
		{
			name:      "every page oversized",
			doc:       uniformDocument(10, 4, 30),
			limit:     5,
			pages:     []int{1, 1, 1, 1},
			oversized: []bool{true, true, true, true},
		},
		{
			name:      "single page that fits",
			doc:       newFakeDocument(10, 30),
			limit:     100,
			pages:     []int{1},
			oversized: []bool{false},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			factory := &trackingFactory{}
			p := NewPartitioner(tt.limit, factory)

			frags, err := p.Partition(context.Background(), tt.doc, nil)
			require.NoError(t, err)

			assert.Equal(t, tt.pages, pageCounts(frags))
			for i, f := range frags {
				assert.Equal(t, i+1, f.Part)
				assert.Equal(t, tt.oversized[i], f.Oversized, "fragment %d", i+1)
			}
			assert.NoError(t, ValidatePartition(frags, tt.doc.PageCount()))
			assert.Equal(t, 0, factory.open, "all scratch buffers released")
		})
	}
}

func TestPartition_ScenarioASizes(t *testing.T) {
	doc := uniformDocument(10, 10, 30)
	p := NewPartitioner(100, &trackingFactory{})

	frags, err := p.Partition(context.Background(), doc, nil)
	require.NoError(t, err)

	require.Len(t, frags, 4)
	assert.Equal(t, []domain.Fragment{
		{Part: 1, Start: 0, End: 3, Size: 100},
		{Part: 2, Start: 3, End: 6, Size: 100},
		{Part: 3, Start: 6, End: 9, Size: 100},
		{Part: 4, Start: 9, End: 10, Size: 40},
	}, frags)
}

func TestPartition_OversizedRunContinues(t *testing.T) {
	doc := newFakeDocument(10, 30, 200, 30, 30)
	p := NewPartitioner(100, &trackingFactory{})

	frags, err := p.Partition(context.Background(), doc, nil)
	require.NoError(t, err)

	require.Len(t, frags, 3)
	assert.Equal(t, domain.Fragment{Part: 2, Start: 1, End: 2, Oversized: true, Size: 210}, frags[1])
	assert.Equal(t, domain.Fragment{Part: 3, Start: 2, End: 4, Size: 70}, frags[2])
}

func TestPartition_EmptyDocument(t *testing.T) {
	doc := newFakeDocument(10)
	factory := &trackingFactory{}
	p := NewPartitioner(100, factory)

	frags, err := p.Partition(context.Background(), doc, nil)
	require.NoError(t, err)
	assert.Empty(t, frags)
	assert.Equal(t, 0, doc.serializeCalls)
	assert.Equal(t, 0, factory.created)
}

func TestPartition_RollsBackExactlyOnePage(t *testing.T) {
	// Four pages serialize smaller than three, as compression can cause.
	// The partitioner must still close the fragment after two pages.
	sizes := map[int]int{1: 40, 2: 80, 3: 120, 4: 90}
	doc := uniformDocument(0, 4, 0)
	doc.sizeFunc = func(pages []domain.Page) int { return sizes[len(pages)] }

	p := NewPartitioner(100, &trackingFactory{})
	frags, err := p.Partition(context.Background(), doc, nil)
	require.NoError(t, err)

	assert.Equal(t, []int{2, 2}, pageCounts(frags))
}

func TestPartition_Determinism(t *testing.T) {
	doc := newFakeDocument(17, 12, 80, 33, 5, 61, 44, 9, 120, 3, 27, 50)
	p := NewPartitioner(150, &trackingFactory{})

	first, err := p.Partition(context.Background(), doc, nil)
	require.NoError(t, err)
	second, err := p.Partition(context.Background(), doc, nil)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestPartition_Properties(t *testing.T) {
	rng := rand.New(rand.NewSource(42))

	for round := 0; round < 50; round++ {
		n := rng.Intn(40)
		sizes := make([]int, n)
		for i := range sizes {
			sizes[i] = 1 + rng.Intn(120)
		}
		doc := newFakeDocument(8+rng.Intn(20), sizes...)
		limit := domain.SizeLimit(20 + rng.Intn(300))
		factory := &trackingFactory{}

		frags, err := NewPartitioner(limit, factory).Partition(context.Background(), doc, nil)
		require.NoError(t, err)
		require.NoError(t, ValidatePartition(frags, n), "round %d", round)
		assert.Equal(t, 0, factory.open)

		for _, f := range frags {
			if f.Oversized {
				assert.Equal(t, 1, f.Pages())
				assert.True(t, limit.Exceeded(f.Size))
				continue
			}
			assert.False(t, limit.Exceeded(f.Size), "round %d part %d", round, f.Part)
		}
	}
}

func TestPartition_MeasurementIsMonotonic(t *testing.T) {
	doc := newFakeDocument(10, 30, 1, 44, 0, 12, 7)
	factory := &trackingFactory{}
	s, err := factory.NewScratch()
	require.NoError(t, err)
	b := NewFragmentBuilder(doc, s)
	defer b.Close()

	var last int64
	for i := 0; i < doc.PageCount(); i++ {
		page, err := doc.Page(i)
		require.NoError(t, err)
		b.Append(page)
		size, err := b.MeasuredSize(context.Background())
		require.NoError(t, err)
		assert.GreaterOrEqual(t, size, last)
		last = size
	}
}

func TestPartition_EmitsMeasuredBytes(t *testing.T) {
	doc := newFakeDocument(10, 30, 200, 30, 30, 30, 30)
	rec := newRecordingEmitter()
	p := NewPartitioner(100, &trackingFactory{})

	frags, err := p.Partition(context.Background(), doc, rec.emit)
	require.NoError(t, err)

	require.Len(t, rec.bodies, len(frags))
	for _, f := range frags {
		assert.Len(t, rec.bodies[f.Part], int(f.Size), "part %d", f.Part)
	}
}

func TestPartition_EmitterResultIsKept(t *testing.T) {
	doc := uniformDocument(10, 4, 30)
	p := NewPartitioner(100, &trackingFactory{})

	emit := func(_ context.Context, frag domain.Fragment, _ driven.FragmentBody) (domain.Fragment, error) {
		frag.Path = "out.pdf"
		return frag, nil
	}
	frags, err := p.Partition(context.Background(), doc, emit)
	require.NoError(t, err)
	for _, f := range frags {
		assert.Equal(t, "out.pdf", f.Path)
	}
}

func TestPartition_SerializationFailureAborts(t *testing.T) {
	doc := uniformDocument(10, 10, 30)
	doc.failOn = 5
	factory := &trackingFactory{}
	p := NewPartitioner(100, factory)

	frags, err := p.Partition(context.Background(), doc, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrSerialization)
	assert.Equal(t, []int{3}, pageCounts(frags), "only fragments closed before the failure")
	assert.Equal(t, 0, factory.open)
}

func TestPartition_EmitFailureAborts(t *testing.T) {
	doc := uniformDocument(10, 10, 30)
	factory := &trackingFactory{}
	p := NewPartitioner(100, factory)
	diskFull := errors.New("disk full")

	calls := 0
	emit := func(_ context.Context, frag domain.Fragment, _ driven.FragmentBody) (domain.Fragment, error) {
		calls++
		if calls == 2 {
			return frag, diskFull
		}
		return frag, nil
	}

	frags, err := p.Partition(context.Background(), doc, emit)
	require.Error(t, err)
	assert.ErrorIs(t, err, diskFull)
	assert.Contains(t, err.Error(), "part 2")
	assert.Len(t, frags, 1)
	assert.Equal(t, 0, factory.open)
}

func TestPartition_ScratchFailure(t *testing.T) {
	doc := uniformDocument(10, 10, 30)
	factory := &trackingFactory{failAt: 2}
	p := NewPartitioner(100, factory)

	_, err := p.Partition(context.Background(), doc, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "creating scratch")
	assert.Equal(t, 0, factory.open)
}

func TestPartition_Cancelled(t *testing.T) {
	doc := uniformDocument(10, 10, 30)
	factory := &trackingFactory{}
	p := NewPartitioner(100, factory)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	frags, err := p.Partition(ctx, doc, nil)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, frags)
	assert.Equal(t, 0, factory.open)
}

func TestPartition_InvalidConfiguration(t *testing.T) {
	doc := uniformDocument(10, 2, 30)

	_, err := NewPartitioner(0, &trackingFactory{}).Partition(context.Background(), doc, nil)
	assert.ErrorIs(t, err, domain.ErrInvalidLimit)

	_, err = NewPartitioner(100, nil).Partition(context.Background(), doc, nil)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestValidatePartition(t *testing.T) {
	tests := []struct {
		name    string
		frags   []domain.Fragment
		pages   int
		wantErr string
	}{
		{"empty document", nil, 0, ""},
		{"complete", []domain.Fragment{{Start: 0, End: 2}, {Start: 2, End: 3, Oversized: true}}, 3, ""},
		{"gap", []domain.Fragment{{Start: 0, End: 2}, {Start: 3, End: 4}}, 4, "starts at 3"},
		{"empty fragment", []domain.Fragment{{Start: 0, End: 0}}, 0, "is empty"},
		{"oversized with two pages", []domain.Fragment{{Start: 0, End: 2, Oversized: true}}, 2, "has 2 pages"},
		{"short", []domain.Fragment{{Start: 0, End: 2}}, 3, "do not cover"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePartition(tt.frags, tt.pages)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
