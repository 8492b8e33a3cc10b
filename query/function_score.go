package query

import (
	"fmt"

	"github.com/hupe1980/percolator/document"
)

// FunctionScoreQuery multiplies the score of Query by a numeric field of the
// matched document. It is typically used as the outer scoring query over
// candidate metadata, e.g. a per-query "priority".
type FunctionScoreQuery struct {
	Query   Query
	Field   string
	Factor  float32
	Missing float32
}

// FunctionScore returns a FunctionScoreQuery with factor 1 and missing value 0.
func FunctionScore(q Query, field string) *FunctionScoreQuery {
	return &FunctionScoreQuery{Query: q, Field: field, Factor: 1}
}

// Evaluate implements Query.
func (q *FunctionScoreQuery) Evaluate(doc document.Document) (float32, bool, error) {
	score, ok, err := q.Query.Evaluate(doc)
	if err != nil || !ok {
		return 0, false, err
	}

	value := q.Missing
	if v, exists := doc[q.Field]; exists {
		if f, isNum := v.AsFloat64(); isNum {
			value = float32(f)
		}
	}

	factor := q.Factor
	if factor == 0 {
		factor = 1
	}
	return score * value * factor, true, nil
}

// VisitTerms implements TermVisitor.
func (q *FunctionScoreQuery) VisitTerms(fn func(field, term string)) {
	VisitTerms(q.Query, fn)
}

func (q *FunctionScoreQuery) String() string {
	return fmt.Sprintf("function_score(%s, %s)", q.Query, q.Field)
}
