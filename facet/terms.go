package facet

import (
	"cmp"
	"slices"

	"github.com/hupe1980/percolator/search"
)

// TermCount is one bucket of a terms facet.
type TermCount struct {
	Term  string `json:"term"`
	Count int    `json:"count"`
}

// TermsResult is the result of a terms facet.
type TermsResult struct {
	Field   string      `json:"field"`
	Missing int         `json:"missing"`
	Total   int         `json:"total"`
	Other   int         `json:"other"`
	Terms   []TermCount `json:"terms"`
}

// FacetType implements Result.
func (*TermsResult) FacetType() string { return "terms" }

// TermsExecutor counts the values of a candidate metadata field.
type TermsExecutor struct {
	field  string
	size   int
	counts map[string]int
	values search.BytesValues

	missing int
	total   int
}

// Terms returns a terms facet over field keeping the size most frequent terms.
// size <= 0 keeps every term.
func Terms(field string, size int) *TermsExecutor {
	return &TermsExecutor{
		field:  field,
		size:   size,
		counts: make(map[string]int),
	}
}

// Collector implements Executor.
func (e *TermsExecutor) Collector() search.Collector { return e }

// SetNextReader implements search.Collector.
func (e *TermsExecutor) SetNextReader(leaf search.LeafReader) error {
	e.values = leaf.BytesValues(e.field)
	return nil
}

// SetScorer implements search.Collector.
func (e *TermsExecutor) SetScorer(search.Scorer) {}

// Collect implements search.Collector.
func (e *TermsExecutor) Collect(doc int) error {
	if e.values == nil || e.values.ValueCount(doc) == 0 {
		e.missing++
		return nil
	}
	e.counts[string(e.values.Value(doc))]++
	e.total++
	return nil
}

// Result implements Executor. Terms are ordered by count descending, then
// term ascending.
func (e *TermsExecutor) Result() Result {
	terms := make([]TermCount, 0, len(e.counts))
	for term, n := range e.counts {
		terms = append(terms, TermCount{Term: term, Count: n})
	}
	slices.SortFunc(terms, func(a, b TermCount) int {
		if c := cmp.Compare(b.Count, a.Count); c != 0 {
			return c
		}
		return cmp.Compare(a.Term, b.Term)
	})

	other := 0
	if e.size > 0 && len(terms) > e.size {
		for _, t := range terms[e.size:] {
			other += t.Count
		}
		terms = terms[:e.size]
	}

	return &TermsResult{
		Field:   e.field,
		Missing: e.missing,
		Total:   e.total,
		Other:   other,
		Terms:   terms,
	}
}
