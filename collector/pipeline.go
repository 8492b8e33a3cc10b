package collector

import (
	"fmt"

	"github.com/hupe1980/percolator/aggregation"
	"github.com/hupe1980/percolator/facet"
	"github.com/hupe1980/percolator/search"
)

// FacetResult is the result of one requested facet.
type FacetResult struct {
	Name   string
	Result facet.Result
}

// AggregationResult is the result of one requested top-level aggregation.
type AggregationResult struct {
	Name   string
	Result aggregation.Result
}

// Pipeline fans confirmed matches out to facet and aggregation collectors.
// A nil Pipeline is empty.
type Pipeline struct {
	members []search.Collector
	facets  []facet.Entry
	aggs    []aggregation.Aggregator
}

// BuildPipeline assembles the side collectors of a request.
//
// Global facets are skipped. A filtered facet observes only candidates the
// filter accepts; collectors implementing facet.FilterComposer apply the
// filter themselves. Aggregators share actx; global aggregators and those
// that cannot collect are excluded, the rest are fed by one collector.
func BuildPipeline(facets []facet.Entry, factories aggregation.Factories, actx *aggregation.Context) (*Pipeline, error) {
	p := &Pipeline{facets: facets}

	for _, e := range facets {
		if e.Global {
			continue
		}
		c := e.Executor.Collector()
		if e.Filter != nil {
			if fc, ok := c.(facet.FilterComposer); ok {
				c = fc.WithFilter(e.Filter)
			} else {
				c = search.NewFilteredCollector(c, e.Filter)
			}
		}
		p.members = append(p.members, c)
	}

	if len(factories) > 0 {
		if actx == nil {
			actx = aggregation.NewContext(nil)
		}
		aggs, err := factories.CreateTopLevelAggregators(actx)
		if err != nil {
			return nil, fmt.Errorf("build pipeline: %w", err)
		}
		p.aggs = aggs

		var active []aggregation.Aggregator
		for _, a := range aggs {
			if a.Global() || !a.ShouldCollect() {
				continue
			}
			active = append(active, a)
		}
		if len(active) > 0 {
			p.members = append(p.members, aggregation.NewCollector(active, actx))
		}
	}

	return p, nil
}

// Len returns the number of pipeline members.
func (p *Pipeline) Len() int {
	if p == nil {
		return 0
	}
	return len(p.members)
}

// SetNextReader forwards a segment change to every member.
func (p *Pipeline) SetNextReader(leaf search.LeafReader) error {
	if p == nil {
		return nil
	}
	for _, c := range p.members {
		if err := c.SetNextReader(leaf); err != nil {
			return err
		}
	}
	return nil
}

// SetScorer forwards a scorer change to every member.
func (p *Pipeline) SetScorer(s search.Scorer) {
	if p == nil {
		return
	}
	for _, c := range p.members {
		c.SetScorer(s)
	}
}

// PostMatch forwards a confirmed match to every member in order.
func (p *Pipeline) PostMatch(doc int) error {
	if p == nil {
		return nil
	}
	for _, c := range p.members {
		if err := c.Collect(doc); err != nil {
			return err
		}
	}
	return nil
}

// FacetResults returns one result per requested facet in request order.
// Global facets are not collected and report their empty result.
func (p *Pipeline) FacetResults() []FacetResult {
	if p == nil {
		return nil
	}
	out := make([]FacetResult, 0, len(p.facets))
	for _, e := range p.facets {
		out = append(out, FacetResult{Name: e.Name, Result: e.Executor.Result()})
	}
	return out
}

// AggregationResults returns one result per top-level aggregation in request
// order. Excluded aggregators report their empty result.
func (p *Pipeline) AggregationResults() []AggregationResult {
	if p == nil {
		return nil
	}
	out := make([]AggregationResult, 0, len(p.aggs))
	for _, a := range p.aggs {
		out = append(out, AggregationResult{Name: a.Name(), Result: a.Build()})
	}
	return out
}
