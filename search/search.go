package search

import (
	"context"
	"errors"

	"github.com/hupe1980/percolator/document"
)

// ErrStopCollection is returned by Collect to end collection early.
// Searchers treat it as a clean termination, not as a failure.
var ErrStopCollection = errors.New("search: stop collection")

// Query is a compiled predicate.
//
// The interface is intentionally minimal: a Searcher type-asserts to the
// concrete query forms it knows how to execute.
type Query interface {
	String() string
}

// Scorer exposes the score of the document currently being collected.
type Scorer interface {
	Score() float32
}

// ScoreFunc adapts a function to the Scorer interface.
type ScoreFunc func() float32

// Score implements Scorer.
func (f ScoreFunc) Score() float32 { return f() }

// ConstantScorer always reports the same score.
type ConstantScorer float32

// Score implements Scorer.
func (s ConstantScorer) Score() float32 { return float32(s) }

// BytesValues resolves per-document byte values of one field inside one segment.
type BytesValues interface {
	// ValueCount returns the number of values stored for doc.
	ValueCount(doc int) int
	// Value returns the first value of doc. Only valid when ValueCount(doc) > 0.
	// The returned slice is shared with the segment and must not be modified.
	Value(doc int) []byte
}

// LeafReader is a segment-scoped view of an index.
type LeafReader interface {
	// Ord is the ordinal of the segment within its reader.
	Ord() int
	// MaxDoc is one greater than the largest position in the segment.
	MaxDoc() int
	// BytesValues returns the value resolver of a field for this segment.
	BytesValues(field string) BytesValues
	// Document returns the stored fields of doc.
	Document(doc int) document.Document
}

// Collector receives the hits of a search.
type Collector interface {
	// SetNextReader binds the collector to the next segment.
	SetNextReader(leaf LeafReader) error
	// SetScorer sets the scorer for the current scoring context.
	SetScorer(s Scorer)
	// Collect is called for each hit of the current segment.
	Collect(doc int) error
}

// Searcher executes a query and feeds the hits to a collector.
type Searcher interface {
	Search(ctx context.Context, q Query, c Collector) error
}
