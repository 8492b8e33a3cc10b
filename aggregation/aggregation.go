// Package aggregation computes aggregations over matched candidates.
//
// Aggregators are created per request from Factories and share one Context
// bound to the candidate reader. The context tracks the current segment and
// the outer scorer so aggregators can read candidate metadata and scores.
package aggregation

import (
	"errors"
	"fmt"

	"github.com/hupe1980/percolator/search"
)

// ScoreField makes an aggregator read the outer candidate score.
const ScoreField = "_score"

var (
	// ErrDuplicateName is returned when two top-level aggregations share a name.
	ErrDuplicateName = errors.New("aggregation: duplicate name")
	// ErrEmptyName is returned when an aggregation has no name.
	ErrEmptyName = errors.New("aggregation: empty name")
)

// Result is a built aggregation.
type Result interface {
	AggregationType() string
}

// Aggregator accumulates one aggregation.
type Aggregator interface {
	Name() string
	// Global reports whether the aggregator runs over all candidates
	// regardless of the match.
	Global() bool
	// ShouldCollect reports whether Collect can contribute anything.
	// It is false when the aggregated field is unmapped.
	ShouldCollect() bool
	Collect(doc int) error
	Build() Result
}

// Factory creates an aggregator for a request.
type Factory interface {
	Name() string
	Create(ctx *Context) (Aggregator, error)
}

// Factories is the ordered set of top-level aggregations of a request.
type Factories []Factory

// CreateTopLevelAggregators creates one aggregator per factory, in order.
func (f Factories) CreateTopLevelAggregators(ctx *Context) ([]Aggregator, error) {
	aggs := make([]Aggregator, 0, len(f))
	seen := make(map[string]struct{}, len(f))

	for _, factory := range f {
		name := factory.Name()
		if name == "" {
			return nil, ErrEmptyName
		}
		if _, ok := seen[name]; ok {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateName, name)
		}
		seen[name] = struct{}{}

		agg, err := factory.Create(ctx)
		if err != nil {
			return nil, fmt.Errorf("aggregation %q: %w", name, err)
		}
		aggs = append(aggs, agg)
	}
	return aggs, nil
}

// Context is the aggregation state shared by the aggregators of a request.
type Context struct {
	mapped map[string]struct{}
	leaf   search.LeafReader
	scorer search.Scorer
}

// FieldSource lists the fields known to a candidate reader.
type FieldSource interface {
	Fields() []string
}

// NewContext creates a context bound to a candidate reader. A nil source
// maps only ScoreField.
func NewContext(src FieldSource) *Context {
	c := &Context{mapped: map[string]struct{}{ScoreField: {}}}
	if src != nil {
		for _, f := range src.Fields() {
			c.mapped[f] = struct{}{}
		}
	}
	return c
}

// Mapped reports whether field exists on any candidate.
func (c *Context) Mapped(field string) bool {
	_, ok := c.mapped[field]
	return ok
}

// Leaf returns the segment currently being collected.
func (c *Context) Leaf() search.LeafReader { return c.leaf }

// Scorer returns the current outer scorer.
func (c *Context) Scorer() search.Scorer { return c.scorer }

func (c *Context) values(field string, doc int) []float64 {
	if field == ScoreField {
		if c.scorer == nil {
			return nil
		}
		return []float64{float64(c.scorer.Score())}
	}
	if c.leaf == nil {
		return nil
	}
	v, ok := c.leaf.Document(doc)[field]
	if !ok {
		return nil
	}
	var out []float64
	for _, elem := range v.Elements() {
		if f, isNum := elem.AsFloat64(); isNum {
			out = append(out, f)
		}
	}
	return out
}

func (c *Context) strings(field string, doc int) []string {
	if field == ScoreField {
		return nil
	}
	if c.leaf == nil {
		return nil
	}
	v, ok := c.leaf.Document(doc)[field]
	if !ok {
		return nil
	}
	elems := v.Elements()
	out := make([]string, 0, len(elems))
	for _, elem := range elems {
		out = append(out, elem.String())
	}
	return out
}

// Collector feeds a set of aggregators from a search.
type Collector struct {
	aggs []Aggregator
	ctx  *Context
}

// NewCollector returns a collector that keeps ctx bound to the current
// segment and scorer and forwards every collected document to aggs.
func NewCollector(aggs []Aggregator, ctx *Context) *Collector {
	return &Collector{aggs: aggs, ctx: ctx}
}

// SetNextReader implements search.Collector.
func (c *Collector) SetNextReader(leaf search.LeafReader) error {
	c.ctx.leaf = leaf
	return nil
}

// SetScorer implements search.Collector.
func (c *Collector) SetScorer(s search.Scorer) {
	c.ctx.scorer = s
}

// Collect implements search.Collector.
func (c *Collector) Collect(doc int) error {
	for _, agg := range c.aggs {
		if err := agg.Collect(doc); err != nil {
			return fmt.Errorf("aggregation %q: %w", agg.Name(), err)
		}
	}
	return nil
}
