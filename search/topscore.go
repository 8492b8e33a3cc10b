package search

import (
	"math"
	"slices"
)

const heapArity = 4

// ScoreDoc is a ranked hit: segment ordinal, segment-local position and score.
type ScoreDoc struct {
	Segment int
	Doc     int
	Score   float32
}

// ScoreDocBetter reports whether a ranks before b.
// Higher scores win and NaN ranks below every number. Ties are broken by
// (Segment, Doc) ascending, which is discovery order.
func ScoreDocBetter(a, b ScoreDoc) bool {
	aNaN, bNaN := isNaN(a.Score), isNaN(b.Score)
	if aNaN != bNaN {
		return bNaN
	}
	if !aNaN && a.Score != b.Score {
		return a.Score > b.Score
	}
	if a.Segment != b.Segment {
		return a.Segment < b.Segment
	}
	return a.Doc < b.Doc
}

func isNaN(f float32) bool { return math.IsNaN(float64(f)) }

// scoreDocWorse reports whether a ranks after b.
func scoreDocWorse(a, b ScoreDoc) bool {
	return ScoreDocBetter(b, a)
}

// TopScoreCollector keeps the size best hits by descending score.
//
// It is a bounded 4-ary heap ordered worst-first, so the top element is the
// eviction candidate once the collector is full.
type TopScoreCollector struct {
	size      int
	heap      []ScoreDoc
	segment   int
	scorer    Scorer
	totalHits int
}

// NewTopScoreCollector creates a collector retaining at most size hits.
func NewTopScoreCollector(size int) *TopScoreCollector {
	if size < 0 {
		size = 0
	}
	return &TopScoreCollector{
		size: size,
		heap: make([]ScoreDoc, 0, min(size, 1024)),
	}
}

// SetNextReader implements Collector.
func (c *TopScoreCollector) SetNextReader(leaf LeafReader) error {
	c.segment = leaf.Ord()
	return nil
}

// SetScorer implements Collector.
func (c *TopScoreCollector) SetScorer(s Scorer) {
	c.scorer = s
}

// Collect implements Collector.
func (c *TopScoreCollector) Collect(doc int) error {
	c.totalHits++
	if c.size == 0 {
		return nil
	}

	var score float32
	if c.scorer != nil {
		score = c.scorer.Score()
	}
	sd := ScoreDoc{Segment: c.segment, Doc: doc, Score: score}

	if len(c.heap) < c.size {
		c.heap = append(c.heap, sd)
		c.up(len(c.heap) - 1)
		return nil
	}

	if ScoreDocBetter(sd, c.heap[0]) {
		c.heap[0] = sd
		c.down(0, len(c.heap))
	}
	return nil
}

// Full reports whether the collector holds size hits.
func (c *TopScoreCollector) Full() bool {
	return len(c.heap) >= c.size
}

// TotalHits returns the number of collected hits, retained or not.
func (c *TopScoreCollector) TotalHits() int {
	return c.totalHits
}

// TopDocs returns the retained hits, best first.
func (c *TopScoreCollector) TopDocs() []ScoreDoc {
	out := slices.Clone(c.heap)
	slices.SortFunc(out, func(a, b ScoreDoc) int {
		switch {
		case ScoreDocBetter(a, b):
			return -1
		case ScoreDocBetter(b, a):
			return 1
		default:
			return 0
		}
	})
	return out
}

// up moves element at j up the heap.
func (c *TopScoreCollector) up(j int) {
	item := c.heap[j]
	for j > 0 {
		i := (j - 1) / heapArity
		if !scoreDocWorse(item, c.heap[i]) {
			break
		}
		c.heap[j] = c.heap[i]
		j = i
	}
	c.heap[j] = item
}

// down moves element at i0 down the heap.
func (c *TopScoreCollector) down(i0, n int) {
	i := i0
	item := c.heap[i]
	for {
		firstChild := heapArity*i + 1
		if firstChild >= n {
			break
		}

		worst := firstChild
		lastChild := min(firstChild+heapArity, n)
		for ch := firstChild + 1; ch < lastChild; ch++ {
			if scoreDocWorse(c.heap[ch], c.heap[worst]) {
				worst = ch
			}
		}

		if !scoreDocWorse(c.heap[worst], item) {
			break
		}
		c.heap[i] = c.heap[worst]
		i = worst
	}
	c.heap[i] = item
}
