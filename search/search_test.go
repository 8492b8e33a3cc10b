package search

import (
	"errors"
	"math"
	"math/rand"
	"testing"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/hupe1980/percolator/document"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testLeaf struct {
	ord    int
	maxDoc int
}

func (l testLeaf) Ord() int                       { return l.ord }
func (l testLeaf) MaxDoc() int                    { return l.maxDoc }
func (l testLeaf) BytesValues(string) BytesValues { return nil }
func (l testLeaf) Document(int) document.Document { return nil }

type recordingCollector struct {
	readers []int
	scores  []float32
	docs    []int
	scorer  Scorer
}

func (r *recordingCollector) SetNextReader(leaf LeafReader) error {
	r.readers = append(r.readers, leaf.Ord())
	return nil
}

func (r *recordingCollector) SetScorer(s Scorer) { r.scorer = s }

func (r *recordingCollector) Collect(doc int) error {
	r.docs = append(r.docs, doc)
	if r.scorer != nil {
		r.scores = append(r.scores, r.scorer.Score())
	}
	return nil
}

type bitmapFilter struct {
	bm  *roaring.Bitmap
	err error
}

func (f bitmapFilter) Bitmap(LeafReader) (*roaring.Bitmap, error) { return f.bm, f.err }
func (f bitmapFilter) String() string                             { return "bitmap" }

func TestExistsCollector(t *testing.T) {
	var c ExistsCollector
	assert.False(t, c.Exists())

	err := c.Collect(3)
	assert.ErrorIs(t, err, ErrStopCollection)
	assert.True(t, c.Exists())

	c.Reset()
	assert.False(t, c.Exists())
}

func TestFilteredCollector(t *testing.T) {
	t.Run("Bitmap", func(t *testing.T) {
		inner := &recordingCollector{}
		c := NewFilteredCollector(inner, bitmapFilter{bm: roaring.BitmapOf(1, 3)})

		require.NoError(t, c.SetNextReader(testLeaf{ord: 0, maxDoc: 5}))
		for doc := 0; doc < 5; doc++ {
			require.NoError(t, c.Collect(doc))
		}
		assert.Equal(t, []int{1, 3}, inner.docs)
		assert.Equal(t, []int{0}, inner.readers)
		assert.Same(t, inner, c.Unwrap())
	})

	t.Run("NilBitmapAcceptsAll", func(t *testing.T) {
		inner := &recordingCollector{}
		c := NewFilteredCollector(inner, bitmapFilter{})

		require.NoError(t, c.SetNextReader(testLeaf{maxDoc: 3}))
		for doc := 0; doc < 3; doc++ {
			require.NoError(t, c.Collect(doc))
		}
		assert.Equal(t, []int{0, 1, 2}, inner.docs)
	})

	t.Run("FilterError", func(t *testing.T) {
		boom := errors.New("boom")
		c := NewFilteredCollector(&recordingCollector{}, bitmapFilter{err: boom})
		assert.ErrorIs(t, c.SetNextReader(testLeaf{}), boom)
	})
}

func TestMultiCollector(t *testing.T) {
	a, b := &recordingCollector{}, &recordingCollector{}
	m := MultiCollector{a, b}

	require.NoError(t, m.SetNextReader(testLeaf{ord: 2}))
	m.SetScorer(ConstantScorer(0.5))
	require.NoError(t, m.Collect(7))

	for _, c := range []*recordingCollector{a, b} {
		assert.Equal(t, []int{2}, c.readers)
		assert.Equal(t, []int{7}, c.docs)
		assert.Equal(t, []float32{0.5}, c.scores)
	}
}

func TestTopScoreCollector(t *testing.T) {
	t.Run("KeepsBest", func(t *testing.T) {
		c := NewTopScoreCollector(2)
		require.NoError(t, c.SetNextReader(testLeaf{}))

		var current float32
		c.SetScorer(ScoreFunc(func() float32 { return current }))
		for doc, score := range []float32{0.2, 0.9, 0.5} {
			current = score
			require.NoError(t, c.Collect(doc))
		}

		top := c.TopDocs()
		require.Len(t, top, 2)
		assert.Equal(t, ScoreDoc{Segment: 0, Doc: 1, Score: 0.9}, top[0])
		assert.Equal(t, ScoreDoc{Segment: 0, Doc: 2, Score: 0.5}, top[1])
		assert.Equal(t, 3, c.TotalHits())
		assert.True(t, c.Full())
	})

	t.Run("TieBreakingByDiscoveryOrder", func(t *testing.T) {
		c := NewTopScoreCollector(2)
		c.SetScorer(ConstantScorer(1))

		require.NoError(t, c.SetNextReader(testLeaf{ord: 1}))
		require.NoError(t, c.Collect(0))
		require.NoError(t, c.SetNextReader(testLeaf{ord: 0}))
		require.NoError(t, c.Collect(5))
		require.NoError(t, c.Collect(3))

		top := c.TopDocs()
		require.Len(t, top, 2)
		assert.Equal(t, ScoreDoc{Segment: 0, Doc: 3, Score: 1}, top[0])
		assert.Equal(t, ScoreDoc{Segment: 0, Doc: 5, Score: 1}, top[1])
	})

	t.Run("NaNRanksLast", func(t *testing.T) {
		nan := float32(math.NaN())
		c := NewTopScoreCollector(3)
		require.NoError(t, c.SetNextReader(testLeaf{}))

		var current float32
		c.SetScorer(ScoreFunc(func() float32 { return current }))
		for doc, score := range []float32{nan, 0.3, nan, -1, 0.7, nan} {
			current = score
			require.NoError(t, c.Collect(doc))
		}

		top := c.TopDocs()
		require.Len(t, top, 3)
		assert.Equal(t, []int{4, 1, 3}, []int{top[0].Doc, top[1].Doc, top[2].Doc})
		assert.Equal(t, []float32{0.7, 0.3, -1}, []float32{top[0].Score, top[1].Score, top[2].Score})

		assert.True(t, ScoreDocBetter(ScoreDoc{Score: -1}, ScoreDoc{Score: nan}))
		assert.False(t, ScoreDocBetter(ScoreDoc{Score: nan}, ScoreDoc{Score: -1}))
		assert.True(t, ScoreDocBetter(ScoreDoc{Doc: 1, Score: nan}, ScoreDoc{Doc: 2, Score: nan}))
	})

	t.Run("ZeroSize", func(t *testing.T) {
		c := NewTopScoreCollector(0)
		c.SetScorer(ConstantScorer(1))
		require.NoError(t, c.SetNextReader(testLeaf{}))
		require.NoError(t, c.Collect(0))
		assert.Empty(t, c.TopDocs())
		assert.Equal(t, 1, c.TotalHits())
	})

	t.Run("RandomScoresSortedAndBounded", func(t *testing.T) {
		rng := rand.New(rand.NewSource(42))
		for _, size := range []int{1, 3, 10, 100} {
			c := NewTopScoreCollector(size)
			require.NoError(t, c.SetNextReader(testLeaf{}))

			var current float32
			c.SetScorer(ScoreFunc(func() float32 { return current }))

			n := rng.Intn(200)
			all := make([]float32, 0, n)
			for doc := 0; doc < n; doc++ {
				current = rng.Float32()
				all = append(all, current)
				require.NoError(t, c.Collect(doc))
			}

			top := c.TopDocs()
			assert.LessOrEqual(t, len(top), size)
			assert.Equal(t, min(n, size), len(top))
			for i := 1; i < len(top); i++ {
				assert.GreaterOrEqual(t, top[i-1].Score, top[i].Score)
			}
			for _, sd := range top {
				assert.Equal(t, all[sd.Doc], sd.Score)
			}
		}
	})
}
