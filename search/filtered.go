package search

import (
	"github.com/RoaringBitmap/roaring/v2"
)

// Filter selects documents of a segment.
type Filter interface {
	// Bitmap returns the accepted positions of the segment.
	// A nil bitmap with a nil error means every position is accepted.
	Bitmap(leaf LeafReader) (*roaring.Bitmap, error)
	String() string
}

// FilteredCollector forwards only the documents accepted by a filter.
type FilteredCollector struct {
	inner    Collector
	filter   Filter
	accepted *roaring.Bitmap
	all      bool
}

// NewFilteredCollector wraps inner so that it only observes documents
// accepted by filter.
func NewFilteredCollector(inner Collector, filter Filter) *FilteredCollector {
	return &FilteredCollector{
		inner:  inner,
		filter: filter,
	}
}

// SetNextReader implements Collector.
func (c *FilteredCollector) SetNextReader(leaf LeafReader) error {
	bm, err := c.filter.Bitmap(leaf)
	if err != nil {
		return err
	}
	c.accepted = bm
	c.all = bm == nil
	return c.inner.SetNextReader(leaf)
}

// SetScorer implements Collector.
func (c *FilteredCollector) SetScorer(s Scorer) {
	c.inner.SetScorer(s)
}

// Collect implements Collector.
func (c *FilteredCollector) Collect(doc int) error {
	if !c.all && !c.accepted.Contains(uint32(doc)) {
		return nil
	}
	return c.inner.Collect(doc)
}

// Unwrap returns the wrapped collector.
func (c *FilteredCollector) Unwrap() Collector {
	return c.inner
}
