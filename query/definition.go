package query

import (
	"errors"
	"fmt"

	"github.com/hupe1980/percolator/document"
)

// ErrInvalidDefinition is returned when a Definition cannot be compiled.
var ErrInvalidDefinition = errors.New("query: invalid definition")

// Definition is the serializable form of a query. It is what the registry
// persists in snapshots and what the CLI reads from definition files.
//
//	{"type": "bool", "must": [{"type": "match", "field": "body", "text": "quick fox"}]}
type Definition struct {
	Type               string       `json:"type" toml:"type"`
	Field              string       `json:"field,omitempty" toml:"field,omitempty"`
	Value              any          `json:"value,omitempty" toml:"value,omitempty"`
	Values             []any        `json:"values,omitempty" toml:"values,omitempty"`
	Text               string       `json:"text,omitempty" toml:"text,omitempty"`
	Operator           Operator     `json:"operator,omitempty" toml:"operator,omitempty"`
	Gt                 any          `json:"gt,omitempty" toml:"gt,omitempty"`
	Gte                any          `json:"gte,omitempty" toml:"gte,omitempty"`
	Lt                 any          `json:"lt,omitempty" toml:"lt,omitempty"`
	Lte                any          `json:"lte,omitempty" toml:"lte,omitempty"`
	Must               []Definition `json:"must,omitempty" toml:"must,omitempty"`
	Should             []Definition `json:"should,omitempty" toml:"should,omitempty"`
	MustNot            []Definition `json:"must_not,omitempty" toml:"must_not,omitempty"`
	Filter             []Definition `json:"filter,omitempty" toml:"filter,omitempty"`
	MinimumShouldMatch int          `json:"minimum_should_match,omitempty" toml:"minimum_should_match,omitempty"`
	Query              *Definition  `json:"query,omitempty" toml:"query,omitempty"`
	Factor             float32      `json:"factor,omitempty" toml:"factor,omitempty"`
	Missing            float32      `json:"missing,omitempty" toml:"missing,omitempty"`
	Boost              float32      `json:"boost,omitempty" toml:"boost,omitempty"`
}

// Compile builds the executable Query described by d.
func (d Definition) Compile() (Query, error) {
	switch d.Type {
	case "match_all":
		return &MatchAllQuery{Boost: d.Boost}, nil
	case "match_none":
		return MatchNone(), nil
	case "term":
		v, err := d.value(d.Value)
		if err != nil {
			return nil, err
		}
		return &TermQuery{Field: d.Field, Value: v, Boost: d.Boost}, nil
	case "terms":
		values := make([]document.Value, 0, len(d.Values))
		for _, raw := range d.Values {
			v, err := d.value(raw)
			if err != nil {
				return nil, err
			}
			values = append(values, v)
		}
		return &TermsQuery{Field: d.Field, Values: values, Boost: d.Boost}, nil
	case "match":
		op := d.Operator
		if op == "" {
			op = OperatorOr
		}
		if op != OperatorOr && op != OperatorAnd {
			return nil, fmt.Errorf("%w: unknown operator %q", ErrInvalidDefinition, op)
		}
		return &MatchQuery{Field: d.Field, Text: d.Text, Operator: op, Boost: d.Boost}, nil
	case "prefix":
		s, ok := d.Value.(string)
		if !ok {
			return nil, fmt.Errorf("%w: prefix value must be a string", ErrInvalidDefinition)
		}
		q := Prefix(d.Field, s)
		q.Boost = d.Boost
		return q, nil
	case "exists":
		return Exists(d.Field), nil
	case "range":
		return d.compileRange()
	case "bool":
		return d.compileBool()
	case "function_score":
		if d.Query == nil {
			return nil, fmt.Errorf("%w: function_score requires query", ErrInvalidDefinition)
		}
		inner, err := d.Query.Compile()
		if err != nil {
			return nil, err
		}
		return &FunctionScoreQuery{Query: inner, Field: d.Field, Factor: d.Factor, Missing: d.Missing}, nil
	case "":
		return nil, fmt.Errorf("%w: missing type", ErrInvalidDefinition)
	default:
		return nil, fmt.Errorf("%w: unknown type %q", ErrInvalidDefinition, d.Type)
	}
}

func (d Definition) value(raw any) (document.Value, error) {
	v, err := document.FromAny(raw)
	if err != nil {
		return document.Value{}, fmt.Errorf("%w: field %q: %v", ErrInvalidDefinition, d.Field, err)
	}
	return v, nil
}

func (d Definition) compileRange() (Query, error) {
	q := &RangeQuery{Field: d.Field, Boost: d.Boost}
	bounds := []struct {
		raw any
		dst **document.Value
	}{
		{d.Gt, &q.Gt},
		{d.Gte, &q.Gte},
		{d.Lt, &q.Lt},
		{d.Lte, &q.Lte},
	}
	for _, b := range bounds {
		if b.raw == nil {
			continue
		}
		v, err := d.value(b.raw)
		if err != nil {
			return nil, err
		}
		*b.dst = &v
	}
	return q, nil
}

func (d Definition) compileBool() (Query, error) {
	q := &BoolQuery{MinimumShouldMatch: d.MinimumShouldMatch, Boost: d.Boost}
	groups := []struct {
		defs []Definition
		dst  *[]Query
	}{
		{d.Must, &q.MustClauses},
		{d.Filter, &q.FilterClauses},
		{d.Should, &q.ShouldClauses},
		{d.MustNot, &q.MustNotClauses},
	}
	for _, g := range groups {
		for _, def := range g.defs {
			c, err := def.Compile()
			if err != nil {
				return nil, err
			}
			*g.dst = append(*g.dst, c)
		}
	}
	return q, nil
}
