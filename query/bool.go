package query

import (
	"strings"

	"github.com/hupe1980/percolator/document"
)

// BoolQuery combines clauses.
//
//   - Must: all must match, scores are summed
//   - Filter: all must match, scores are ignored
//   - Should: at least MinimumShouldMatch must match (1 when there are no
//     Must or Filter clauses), scores are summed
//   - MustNot: none may match
type BoolQuery struct {
	MustClauses        []Query
	FilterClauses      []Query
	ShouldClauses      []Query
	MustNotClauses     []Query
	MinimumShouldMatch int
	Boost              float32
}

// Bool returns an empty BoolQuery. An empty bool query matches everything.
func Bool() *BoolQuery {
	return &BoolQuery{}
}

// Must adds required scoring clauses.
func (q *BoolQuery) Must(clauses ...Query) *BoolQuery {
	q.MustClauses = append(q.MustClauses, clauses...)
	return q
}

// Filter adds required non-scoring clauses.
func (q *BoolQuery) Filter(clauses ...Query) *BoolQuery {
	q.FilterClauses = append(q.FilterClauses, clauses...)
	return q
}

// Should adds optional scoring clauses.
func (q *BoolQuery) Should(clauses ...Query) *BoolQuery {
	q.ShouldClauses = append(q.ShouldClauses, clauses...)
	return q
}

// MustNot adds prohibited clauses.
func (q *BoolQuery) MustNot(clauses ...Query) *BoolQuery {
	q.MustNotClauses = append(q.MustNotClauses, clauses...)
	return q
}

// Evaluate implements Query.
func (q *BoolQuery) Evaluate(doc document.Document) (float32, bool, error) {
	var score float32

	for _, c := range q.MustClauses {
		s, ok, err := c.Evaluate(doc)
		if err != nil || !ok {
			return 0, false, err
		}
		score += s
	}

	for _, c := range q.FilterClauses {
		_, ok, err := c.Evaluate(doc)
		if err != nil || !ok {
			return 0, false, err
		}
	}

	for _, c := range q.MustNotClauses {
		_, ok, err := c.Evaluate(doc)
		if err != nil {
			return 0, false, err
		}
		if ok {
			return 0, false, nil
		}
	}

	minShould := q.MinimumShouldMatch
	if minShould == 0 && len(q.ShouldClauses) > 0 && len(q.MustClauses) == 0 && len(q.FilterClauses) == 0 {
		minShould = 1
	}

	matchedShould := 0
	for _, c := range q.ShouldClauses {
		s, ok, err := c.Evaluate(doc)
		if err != nil {
			return 0, false, err
		}
		if ok {
			matchedShould++
			score += s
		}
	}
	if matchedShould < minShould {
		return 0, false, nil
	}

	if len(q.MustClauses) == 0 && matchedShould == 0 {
		score = 1
	}
	return score * boostOf(q.Boost), true, nil
}

// VisitTerms implements TermVisitor. Prohibited clauses are skipped.
func (q *BoolQuery) VisitTerms(fn func(field, term string)) {
	for _, group := range [][]Query{q.MustClauses, q.FilterClauses, q.ShouldClauses} {
		for _, c := range group {
			VisitTerms(c, fn)
		}
	}
}

func (q *BoolQuery) String() string {
	var parts []string
	for _, c := range q.MustClauses {
		parts = append(parts, "+"+c.String())
	}
	for _, c := range q.FilterClauses {
		parts = append(parts, "#"+c.String())
	}
	for _, c := range q.ShouldClauses {
		parts = append(parts, c.String())
	}
	for _, c := range q.MustNotClauses {
		parts = append(parts, "-"+c.String())
	}
	return "(" + strings.Join(parts, " ") + ")"
}
