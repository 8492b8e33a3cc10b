package facet

import (
	"github.com/RoaringBitmap/roaring/v2"
	"github.com/hupe1980/percolator/search"
)

// NestedExecutor scopes an inner facet to a sub-population of the matches.
//
// Its collector composes request filters natively: the bitmaps of every
// filter are intersected per segment instead of stacking wrapper collectors.
type NestedExecutor struct {
	inner   Executor
	filters []search.Filter
}

// Nested returns a facet that feeds inner with the matches accepted by all
// of the given scope filters.
func Nested(inner Executor, scope ...search.Filter) *NestedExecutor {
	return &NestedExecutor{inner: inner, filters: scope}
}

// Collector implements Executor.
func (e *NestedExecutor) Collector() search.Collector {
	return &nestedCollector{exec: e, filters: e.filters}
}

// Result implements Executor.
func (e *NestedExecutor) Result() Result {
	return &NestedResult{Inner: e.inner.Result()}
}

type nestedCollector struct {
	exec    *NestedExecutor
	filters []search.Filter
	inner   search.Collector

	accepted *roaring.Bitmap
	all      bool
}

var _ FilterComposer = (*nestedCollector)(nil)

// WithFilter implements FilterComposer.
func (c *nestedCollector) WithFilter(f search.Filter) search.Collector {
	filters := make([]search.Filter, 0, len(c.filters)+1)
	filters = append(filters, c.filters...)
	filters = append(filters, f)
	return &nestedCollector{exec: c.exec, filters: filters}
}

func (c *nestedCollector) SetNextReader(leaf search.LeafReader) error {
	if c.inner == nil {
		c.inner = c.exec.inner.Collector()
	}

	c.accepted = nil
	c.all = true
	for _, f := range c.filters {
		bm, err := f.Bitmap(leaf)
		if err != nil {
			return err
		}
		if bm == nil {
			continue
		}
		if c.all {
			c.accepted = bm.Clone()
			c.all = false
			continue
		}
		c.accepted.And(bm)
	}
	return c.inner.SetNextReader(leaf)
}

func (c *nestedCollector) SetScorer(s search.Scorer) {
	if c.inner == nil {
		c.inner = c.exec.inner.Collector()
	}
	c.inner.SetScorer(s)
}

func (c *nestedCollector) Collect(doc int) error {
	if !c.all && !c.accepted.Contains(uint32(doc)) {
		return nil
	}
	return c.inner.Collect(doc)
}

// NestedResult wraps the result of the inner facet of a nested facet.
type NestedResult struct {
	Inner Result `json:"inner"`
}

// FacetType implements Result.
func (*NestedResult) FacetType() string { return "nested" }
