package query

import "github.com/hupe1980/percolator/document"

// PredicateQuery matches documents accepted by a Go function.
// It is the escape hatch for checks the structured queries cannot express;
// errors returned by the function surface as execution faults.
type PredicateQuery struct {
	Name string
	Fn   func(doc document.Document) (bool, error)
}

// Predicate returns a PredicateQuery.
func Predicate(name string, fn func(doc document.Document) (bool, error)) *PredicateQuery {
	return &PredicateQuery{Name: name, Fn: fn}
}

// Evaluate implements Query.
func (q *PredicateQuery) Evaluate(doc document.Document) (float32, bool, error) {
	ok, err := q.Fn(doc)
	if err != nil || !ok {
		return 0, false, err
	}
	return 1, true, nil
}

func (q *PredicateQuery) String() string {
	return "predicate(" + q.Name + ")"
}
