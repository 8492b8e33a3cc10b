package config

import (
	"fmt"

	"github.com/hupe1980/percolator/aggregation"
	"github.com/hupe1980/percolator/facet"
	"github.com/hupe1980/percolator/index"
	"github.com/hupe1980/percolator/query"
	"github.com/hupe1980/percolator/search"
)

// FacetConfig describes a facet request.
type FacetConfig struct {
	Name   string            `toml:"name"`
	Type   string            `toml:"type"` // terms, statistical or nested
	Field  string            `toml:"field"`
	Size   int               `toml:"size,omitempty"`
	Global bool              `toml:"global,omitempty"`
	Filter *query.Definition `toml:"filter,omitempty"`
	// Scope restricts a nested facet.
	Scope *query.Definition `toml:"scope,omitempty"`
}

// Entry builds the facet entry.
func (c FacetConfig) Entry() (facet.Entry, error) {
	e := facet.Entry{Name: c.Name, Global: c.Global}
	if c.Name == "" {
		return e, fmt.Errorf("%w: facet without name", ErrInvalidConfig)
	}

	switch c.Type {
	case "terms":
		e.Executor = facet.Terms(c.Field, c.Size)
	case "statistical":
		e.Executor = facet.Statistical(c.Field)
	case "nested":
		var scope []search.Filter
		if c.Scope != nil {
			q, err := c.Scope.Compile()
			if err != nil {
				return e, fmt.Errorf("facet %q scope: %w", c.Name, err)
			}
			scope = append(scope, index.NewQueryFilter(q))
		}
		e.Executor = facet.Nested(facet.Terms(c.Field, c.Size), scope...)
	default:
		return e, fmt.Errorf("%w: facet %q has unknown type %q", ErrInvalidConfig, c.Name, c.Type)
	}

	if c.Filter != nil {
		q, err := c.Filter.Compile()
		if err != nil {
			return e, fmt.Errorf("facet %q filter: %w", c.Name, err)
		}
		e.Filter = index.NewQueryFilter(q)
	}
	return e, nil
}

// AggregationConfig describes a top-level aggregation.
type AggregationConfig struct {
	Name  string              `toml:"name"`
	Type  string              `toml:"type"` // terms, stats, value_count or global
	Field string              `toml:"field,omitempty"`
	Size  int                 `toml:"size,omitempty"`
	Subs  []AggregationConfig `toml:"aggregation,omitempty"`
}

// Factory builds the aggregation factory.
func (c AggregationConfig) Factory() (aggregation.Factory, error) {
	switch c.Type {
	case "terms":
		return aggregation.Terms(c.Name, c.Field, c.Size), nil
	case "stats":
		return aggregation.Stats(c.Name, c.Field), nil
	case "value_count":
		return aggregation.ValueCount(c.Name, c.Field), nil
	case "global":
		subs := make([]aggregation.Factory, 0, len(c.Subs))
		for _, s := range c.Subs {
			f, err := s.Factory()
			if err != nil {
				return nil, err
			}
			subs = append(subs, f)
		}
		return aggregation.Global(c.Name, subs...), nil
	default:
		return nil, fmt.Errorf("%w: aggregation %q has unknown type %q", ErrInvalidConfig, c.Name, c.Type)
	}
}

// FacetEntries builds every configured facet entry.
func (c PercolateConfig) FacetEntries() ([]facet.Entry, error) {
	entries := make([]facet.Entry, 0, len(c.Facets))
	for _, fc := range c.Facets {
		e, err := fc.Entry()
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, nil
}

// AggregationFactories builds every configured aggregation.
func (c PercolateConfig) AggregationFactories() (aggregation.Factories, error) {
	factories := make(aggregation.Factories, 0, len(c.Aggregations))
	for _, ac := range c.Aggregations {
		f, err := ac.Factory()
		if err != nil {
			return nil, err
		}
		factories = append(factories, f)
	}
	return factories, nil
}
