package aggregation

import (
	"cmp"
	"slices"
)

// Bucket is one term of a terms aggregation.
type Bucket struct {
	Key      string `json:"key"`
	DocCount int    `json:"doc_count"`
}

// TermsResult is the result of a terms aggregation.
type TermsResult struct {
	Buckets          []Bucket `json:"buckets"`
	SumOtherDocCount int      `json:"sum_other_doc_count"`
}

// AggregationType implements Result.
func (*TermsResult) AggregationType() string { return "terms" }

// Terms returns a factory for a terms aggregation keeping the size most
// frequent values of field. size <= 0 keeps every value.
func Terms(name, field string, size int) Factory {
	return &termsFactory{name: name, field: field, size: size}
}

type termsFactory struct {
	name  string
	field string
	size  int
}

func (f *termsFactory) Name() string { return f.name }

func (f *termsFactory) Create(ctx *Context) (Aggregator, error) {
	return &termsAggregator{
		name:   f.name,
		field:  f.field,
		size:   f.size,
		ctx:    ctx,
		mapped: ctx.Mapped(f.field) && f.field != ScoreField,
		counts: make(map[string]int),
	}, nil
}

type termsAggregator struct {
	name   string
	field  string
	size   int
	ctx    *Context
	mapped bool
	counts map[string]int
}

func (a *termsAggregator) Name() string        { return a.name }
func (a *termsAggregator) Global() bool        { return false }
func (a *termsAggregator) ShouldCollect() bool { return a.mapped }

// Collect counts each distinct value of doc once.
func (a *termsAggregator) Collect(doc int) error {
	vals := a.ctx.strings(a.field, doc)
	for i, v := range vals {
		if slices.Contains(vals[:i], v) {
			continue
		}
		a.counts[v]++
	}
	return nil
}

func (a *termsAggregator) Build() Result {
	buckets := make([]Bucket, 0, len(a.counts))
	for k, n := range a.counts {
		buckets = append(buckets, Bucket{Key: k, DocCount: n})
	}
	slices.SortFunc(buckets, func(x, y Bucket) int {
		if c := cmp.Compare(y.DocCount, x.DocCount); c != 0 {
			return c
		}
		return cmp.Compare(x.Key, y.Key)
	})

	r := &TermsResult{Buckets: buckets}
	if a.size > 0 && len(buckets) > a.size {
		for _, b := range buckets[a.size:] {
			r.SumOtherDocCount += b.DocCount
		}
		r.Buckets = buckets[:a.size]
	}
	return r
}

// GlobalResult is the result of a global aggregation.
type GlobalResult struct {
	DocCount     int               `json:"doc_count"`
	Aggregations map[string]Result `json:"aggregations,omitempty"`
}

// AggregationType implements Result.
func (*GlobalResult) AggregationType() string { return "global" }

// Global returns a factory for a global aggregation. Global aggregations are
// never fed by the percolator, so they always build empty.
func Global(name string, subs ...Factory) Factory {
	return &globalFactory{name: name, subs: subs}
}

type globalFactory struct {
	name string
	subs Factories
}

func (f *globalFactory) Name() string { return f.name }

func (f *globalFactory) Create(ctx *Context) (Aggregator, error) {
	subs, err := f.subs.CreateTopLevelAggregators(ctx)
	if err != nil {
		return nil, err
	}
	return &globalAggregator{name: f.name, subs: subs}, nil
}

type globalAggregator struct {
	name  string
	subs  []Aggregator
	count int
}

func (a *globalAggregator) Name() string        { return a.name }
func (a *globalAggregator) Global() bool        { return true }
func (a *globalAggregator) ShouldCollect() bool { return true }

func (a *globalAggregator) Collect(doc int) error {
	a.count++
	for _, sub := range a.subs {
		if !sub.ShouldCollect() {
			continue
		}
		if err := sub.Collect(doc); err != nil {
			return err
		}
	}
	return nil
}

func (a *globalAggregator) Build() Result {
	r := &GlobalResult{DocCount: a.count}
	if len(a.subs) > 0 {
		r.Aggregations = make(map[string]Result, len(a.subs))
		for _, sub := range a.subs {
			r.Aggregations[sub.Name()] = sub.Build()
		}
	}
	return r
}
