package facet

import (
	"math"
	"testing"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/hupe1980/percolator/document"
	"github.com/hupe1980/percolator/index"
	"github.com/hupe1980/percolator/search"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type bitmapFilter struct {
	bm *roaring.Bitmap
}

func (f bitmapFilter) Bitmap(search.LeafReader) (*roaring.Bitmap, error) { return f.bm, nil }
func (f bitmapFilter) String() string                                    { return "bitmap" }

func testSegment() *index.Segment {
	return index.NewSegment(0,
		[][]byte{[]byte("q1"), []byte("q2"), []byte("q3"), []byte("q4")},
		[]document.Document{
			{"tag": document.String("news"), "priority": document.Int(1)},
			{"tag": document.Strings("sport", "news"), "priority": document.Float(2.5)},
			{"tag": document.String("sport"), "priority": document.String("4")},
			nil,
		},
	)
}

func collectAll(t *testing.T, c search.Collector, leaf search.LeafReader, scores []float32) {
	t.Helper()

	var cur float32
	require.NoError(t, c.SetNextReader(leaf))
	c.SetScorer(search.ScoreFunc(func() float32 { return cur }))
	for doc := 0; doc < leaf.MaxDoc(); doc++ {
		if scores != nil {
			cur = scores[doc]
		}
		require.NoError(t, c.Collect(doc))
	}
}

func TestTerms(t *testing.T) {
	t.Run("counts first value per candidate", func(t *testing.T) {
		e := Terms("tag", 0)
		collectAll(t, e.Collector(), testSegment(), nil)

		r, ok := e.Result().(*TermsResult)
		require.True(t, ok)
		assert.Equal(t, "terms", r.FacetType())
		assert.Equal(t, 3, r.Total)
		assert.Equal(t, 1, r.Missing)
		assert.Equal(t, []TermCount{{Term: "sport", Count: 2}, {Term: "news", Count: 1}}, r.Terms)
	})

	t.Run("size truncates into other", func(t *testing.T) {
		e := Terms("tag", 1)
		collectAll(t, e.Collector(), testSegment(), nil)

		r := e.Result().(*TermsResult)
		require.Len(t, r.Terms, 1)
		assert.Equal(t, "sport", r.Terms[0].Term)
		assert.Equal(t, 1, r.Other)
	})

	t.Run("empty", func(t *testing.T) {
		r := Terms("tag", 10).Result().(*TermsResult)
		assert.Empty(t, r.Terms)
		assert.Zero(t, r.Total)
	})
}

func TestStatistical(t *testing.T) {
	t.Run("numeric field", func(t *testing.T) {
		e := Statistical("priority")
		collectAll(t, e.Collector(), testSegment(), nil)

		r, ok := e.Result().(*StatisticalResult)
		require.True(t, ok)
		assert.Equal(t, "statistical", r.FacetType())
		assert.Equal(t, 3, r.Count)
		assert.InDelta(t, 7.5, r.Total, 1e-9)
		assert.InDelta(t, 1.0, r.Min, 1e-9)
		assert.InDelta(t, 4.0, r.Max, 1e-9)
		assert.InDelta(t, 2.5, r.Mean, 1e-9)
		assert.InDelta(t, math.Sqrt(r.Variance), r.StdDeviation, 1e-9)
	})

	t.Run("score", func(t *testing.T) {
		e := Statistical(ScoreField)
		collectAll(t, e.Collector(), testSegment(), []float32{1, 2, 3, 6})

		r := e.Result().(*StatisticalResult)
		assert.Equal(t, 4, r.Count)
		assert.InDelta(t, 12.0, r.Total, 1e-6)
		assert.InDelta(t, 3.0, r.Mean, 1e-6)
		assert.InDelta(t, 3.5, r.Variance, 1e-6)
	})

	t.Run("empty", func(t *testing.T) {
		r := Statistical("priority").Result().(*StatisticalResult)
		assert.Zero(t, r.Count)
		assert.Zero(t, r.Min)
		assert.Zero(t, r.Max)
	})
}

func TestNested(t *testing.T) {
	t.Run("scope filters", func(t *testing.T) {
		e := Nested(Terms("tag", 0), bitmapFilter{bm: roaring.BitmapOf(0, 1, 2)})
		collectAll(t, e.Collector(), testSegment(), nil)

		r, ok := e.Result().(*NestedResult)
		require.True(t, ok)
		assert.Equal(t, "nested", r.FacetType())
		inner := r.Inner.(*TermsResult)
		assert.Equal(t, 3, inner.Total)
		assert.Zero(t, inner.Missing)
	})

	t.Run("composes request filter", func(t *testing.T) {
		e := Nested(Terms("tag", 0), bitmapFilter{bm: roaring.BitmapOf(0, 1, 2)})
		composer, ok := e.Collector().(FilterComposer)
		require.True(t, ok)

		c := composer.WithFilter(bitmapFilter{bm: roaring.BitmapOf(1, 2, 3)})
		collectAll(t, c, testSegment(), nil)

		inner := e.Result().(*NestedResult).Inner.(*TermsResult)
		assert.Equal(t, []TermCount{{Term: "sport", Count: 2}}, inner.Terms)
	})

	t.Run("nil bitmap accepts everything", func(t *testing.T) {
		e := Nested(Terms("tag", 0), bitmapFilter{})
		collectAll(t, e.Collector(), testSegment(), nil)

		inner := e.Result().(*NestedResult).Inner.(*TermsResult)
		assert.Equal(t, 3, inner.Total)
		assert.Equal(t, 1, inner.Missing)
	})
}
