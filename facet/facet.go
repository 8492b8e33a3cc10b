// Package facet provides facet executors that observe matched candidates.
//
// A facet request is an Entry: a named Executor with an optional Filter and a
// Global flag. The percolator builds one collector per non-global entry and
// feeds it every confirmed match; filtered entries only observe the matches
// their filter accepts.
package facet

import (
	"github.com/hupe1980/percolator/search"
)

// Result is a computed facet.
type Result interface {
	FacetType() string
}

// Executor computes one facet.
type Executor interface {
	// Collector returns the collector feeding the executor.
	Collector() search.Collector
	// Result builds the facet from everything collected so far.
	Result() Result
}

// FilterComposer is implemented by collectors that apply request filters
// natively instead of being wrapped in a search.FilteredCollector.
type FilterComposer interface {
	WithFilter(f search.Filter) search.Collector
}

// Entry is a facet request.
type Entry struct {
	Name     string
	Executor Executor
	Global   bool
	Filter   search.Filter
}
