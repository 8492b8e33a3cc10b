package query

import (
	"fmt"
	"strings"

	"github.com/hupe1980/percolator/document"
	"github.com/hupe1980/percolator/internal/analysis"
	"github.com/hupe1980/percolator/search"
)

// Query is a predicate over a document.
type Query interface {
	search.Query
	// Evaluate reports whether doc matches and, if so, the query's own score.
	Evaluate(doc document.Document) (score float32, matched bool, err error)
}

// TermVisitor is implemented by queries that match on terms.
type TermVisitor interface {
	VisitTerms(fn func(field, term string))
}

// VisitTerms walks q and reports every term it matches on.
// Queries without terms are ignored.
func VisitTerms(q search.Query, fn func(field, term string)) {
	if tv, ok := q.(TermVisitor); ok {
		tv.VisitTerms(fn)
	}
}

func boostOf(b float32) float32 {
	if b == 0 {
		return 1
	}
	return b
}

// MatchAllQuery matches every document.
type MatchAllQuery struct {
	Boost float32
}

// MatchAll returns a query matching every document with score 1.
func MatchAll() *MatchAllQuery { return &MatchAllQuery{} }

// Evaluate implements Query.
func (q *MatchAllQuery) Evaluate(document.Document) (float32, bool, error) {
	return boostOf(q.Boost), true, nil
}

func (q *MatchAllQuery) String() string { return "*:*" }

// MatchNoneQuery matches no document.
type MatchNoneQuery struct{}

// MatchNone returns a query matching no document.
func MatchNone() *MatchNoneQuery { return &MatchNoneQuery{} }

// Evaluate implements Query.
func (q *MatchNoneQuery) Evaluate(document.Document) (float32, bool, error) {
	return 0, false, nil
}

func (q *MatchNoneQuery) String() string { return "-*:*" }

// TermQuery matches documents whose field holds the exact value.
// Multi-valued fields match when any element equals the value.
type TermQuery struct {
	Field string
	Value document.Value
	Boost float32
}

// Term returns a TermQuery.
func Term(field string, value document.Value) *TermQuery {
	return &TermQuery{Field: field, Value: value}
}

// Evaluate implements Query.
func (q *TermQuery) Evaluate(doc document.Document) (float32, bool, error) {
	v, ok := doc[q.Field]
	if !ok {
		return 0, false, nil
	}
	for _, e := range v.Elements() {
		if document.Equal(e, q.Value) {
			return boostOf(q.Boost), true, nil
		}
	}
	return 0, false, nil
}

// VisitTerms implements TermVisitor.
func (q *TermQuery) VisitTerms(fn func(field, term string)) {
	fn(q.Field, q.Value.String())
}

func (q *TermQuery) String() string {
	return fmt.Sprintf("%s:%s", q.Field, q.Value)
}

// TermsQuery matches documents whose field holds any of the values.
type TermsQuery struct {
	Field  string
	Values []document.Value
	Boost  float32
}

// Terms returns a TermsQuery.
func Terms(field string, values ...document.Value) *TermsQuery {
	return &TermsQuery{Field: field, Values: values}
}

// Evaluate implements Query.
func (q *TermsQuery) Evaluate(doc document.Document) (float32, bool, error) {
	v, ok := doc[q.Field]
	if !ok {
		return 0, false, nil
	}
	for _, e := range v.Elements() {
		for _, want := range q.Values {
			if document.Equal(e, want) {
				return boostOf(q.Boost), true, nil
			}
		}
	}
	return 0, false, nil
}

// VisitTerms implements TermVisitor.
func (q *TermsQuery) VisitTerms(fn func(field, term string)) {
	for _, v := range q.Values {
		fn(q.Field, v.String())
	}
}

func (q *TermsQuery) String() string {
	parts := make([]string, len(q.Values))
	for i, v := range q.Values {
		parts[i] = v.String()
	}
	return fmt.Sprintf("%s:(%s)", q.Field, strings.Join(parts, " "))
}

// Operator combines the terms of a match query.
type Operator string

const (
	// OperatorOr matches when any term is present.
	OperatorOr Operator = "or"
	// OperatorAnd matches when all terms are present.
	OperatorAnd Operator = "and"
)

// MatchQuery analyzes text and matches documents whose analyzed field
// contains the terms.
type MatchQuery struct {
	Field    string
	Text     string
	Operator Operator
	Boost    float32

	terms []string
}

// Match returns a MatchQuery with the or operator.
func Match(field, text string) *MatchQuery {
	return &MatchQuery{Field: field, Text: text, Operator: OperatorOr, terms: dedup(analysis.Terms(text))}
}

// MatchAllTerms returns a MatchQuery with the and operator.
func MatchAllTerms(field, text string) *MatchQuery {
	q := Match(field, text)
	q.Operator = OperatorAnd
	return q
}

// Evaluate implements Query.
// The score is the fraction of query terms found in the field.
func (q *MatchQuery) Evaluate(doc document.Document) (float32, bool, error) {
	terms := q.terms
	if terms == nil {
		terms = dedup(analysis.Terms(q.Text))
	}
	if len(terms) == 0 {
		return 0, false, nil
	}
	v, ok := doc[q.Field]
	if !ok {
		return 0, false, nil
	}

	present := make(map[string]struct{})
	for _, e := range v.Elements() {
		s, ok := e.AsString()
		if !ok {
			continue
		}
		for _, t := range analysis.Terms(s) {
			present[t] = struct{}{}
		}
	}

	found := 0
	for _, t := range terms {
		if _, ok := present[t]; ok {
			found++
		}
	}

	if found == 0 || (q.Operator == OperatorAnd && found < len(terms)) {
		return 0, false, nil
	}
	return boostOf(q.Boost) * float32(found) / float32(len(terms)), true, nil
}

// VisitTerms implements TermVisitor.
func (q *MatchQuery) VisitTerms(fn func(field, term string)) {
	for _, t := range analysis.Terms(q.Text) {
		fn(q.Field, t)
	}
}

func (q *MatchQuery) String() string {
	if q.Operator == OperatorAnd {
		return fmt.Sprintf("%s:+(%s)", q.Field, q.Text)
	}
	return fmt.Sprintf("%s:(%s)", q.Field, q.Text)
}

// PrefixQuery matches documents with an analyzed term starting with Prefix.
type PrefixQuery struct {
	Field  string
	Prefix string
	Boost  float32
}

// Prefix returns a PrefixQuery. The prefix is lowercased like field terms.
func Prefix(field, prefix string) *PrefixQuery {
	return &PrefixQuery{Field: field, Prefix: strings.ToLower(prefix)}
}

// Evaluate implements Query.
func (q *PrefixQuery) Evaluate(doc document.Document) (float32, bool, error) {
	v, ok := doc[q.Field]
	if !ok {
		return 0, false, nil
	}
	for _, e := range v.Elements() {
		s, ok := e.AsString()
		if !ok {
			continue
		}
		for _, t := range analysis.Terms(s) {
			if strings.HasPrefix(t, q.Prefix) {
				return boostOf(q.Boost), true, nil
			}
		}
	}
	return 0, false, nil
}

// VisitTerms implements TermVisitor. Prefix terms are reported with a
// trailing '*' so highlighters can expand them.
func (q *PrefixQuery) VisitTerms(fn func(field, term string)) {
	fn(q.Field, q.Prefix+"*")
}

func (q *PrefixQuery) String() string {
	return fmt.Sprintf("%s:%s*", q.Field, q.Prefix)
}

// ExistsQuery matches documents that have a non-null value for Field.
type ExistsQuery struct {
	Field string
}

// Exists returns an ExistsQuery.
func Exists(field string) *ExistsQuery {
	return &ExistsQuery{Field: field}
}

// Evaluate implements Query.
func (q *ExistsQuery) Evaluate(doc document.Document) (float32, bool, error) {
	v, ok := doc[q.Field]
	if !ok || v.Kind == document.KindNull || v.Kind == document.KindInvalid {
		return 0, false, nil
	}
	return 1, true, nil
}

func (q *ExistsQuery) String() string {
	return fmt.Sprintf("_exists_:%s", q.Field)
}

func dedup(terms []string) []string {
	seen := make(map[string]struct{}, len(terms))
	out := terms[:0]
	for _, t := range terms {
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}
