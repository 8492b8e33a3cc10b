package query

import (
	"fmt"
	"strings"

	"github.com/hupe1980/percolator/document"
)

// RangeQuery matches documents whose field has a value inside the bounds.
// Nil bounds are open. Ints and floats compare numerically, strings
// lexicographically; other kinds never match.
type RangeQuery struct {
	Field string
	Gt    *document.Value
	Gte   *document.Value
	Lt    *document.Value
	Lte   *document.Value
	Boost float32
}

// Range returns an open RangeQuery on field; set bounds with the builder methods.
func Range(field string) *RangeQuery {
	return &RangeQuery{Field: field}
}

// GreaterThan sets an exclusive lower bound.
func (q *RangeQuery) GreaterThan(v document.Value) *RangeQuery {
	q.Gt = &v
	return q
}

// GreaterEqual sets an inclusive lower bound.
func (q *RangeQuery) GreaterEqual(v document.Value) *RangeQuery {
	q.Gte = &v
	return q
}

// LessThan sets an exclusive upper bound.
func (q *RangeQuery) LessThan(v document.Value) *RangeQuery {
	q.Lt = &v
	return q
}

// LessEqual sets an inclusive upper bound.
func (q *RangeQuery) LessEqual(v document.Value) *RangeQuery {
	q.Lte = &v
	return q
}

// Evaluate implements Query.
func (q *RangeQuery) Evaluate(doc document.Document) (float32, bool, error) {
	v, ok := doc[q.Field]
	if !ok {
		return 0, false, nil
	}
	for _, e := range v.Elements() {
		if q.inRange(e) {
			return boostOf(q.Boost), true, nil
		}
	}
	return 0, false, nil
}

func (q *RangeQuery) inRange(v document.Value) bool {
	check := func(bound *document.Value, accept func(cmp int) bool) bool {
		if bound == nil {
			return true
		}
		cmp, ok := document.Compare(v, *bound)
		return ok && accept(cmp)
	}
	return check(q.Gt, func(c int) bool { return c > 0 }) &&
		check(q.Gte, func(c int) bool { return c >= 0 }) &&
		check(q.Lt, func(c int) bool { return c < 0 }) &&
		check(q.Lte, func(c int) bool { return c <= 0 })
}

func (q *RangeQuery) String() string {
	var b strings.Builder
	b.WriteString(q.Field)
	b.WriteString(":")
	switch {
	case q.Gt != nil:
		fmt.Fprintf(&b, "{%s", q.Gt)
	case q.Gte != nil:
		fmt.Fprintf(&b, "[%s", q.Gte)
	default:
		b.WriteString("[*")
	}
	b.WriteString(" TO ")
	switch {
	case q.Lt != nil:
		fmt.Fprintf(&b, "%s}", q.Lt)
	case q.Lte != nil:
		fmt.Fprintf(&b, "%s]", q.Lte)
	default:
		b.WriteString("*]")
	}
	return b.String()
}
