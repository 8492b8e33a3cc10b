package aggregation

import (
	"math"
)

// StatsResult is the result of a stats aggregation.
type StatsResult struct {
	Count int      `json:"count"`
	Min   *float64 `json:"min"`
	Max   *float64 `json:"max"`
	Avg   *float64 `json:"avg"`
	Sum   float64  `json:"sum"`
}

// AggregationType implements Result.
func (*StatsResult) AggregationType() string { return "stats" }

// Stats returns a factory for a stats aggregation over a numeric field.
func Stats(name, field string) Factory {
	return &statsFactory{name: name, field: field}
}

type statsFactory struct {
	name  string
	field string
}

func (f *statsFactory) Name() string { return f.name }

func (f *statsFactory) Create(ctx *Context) (Aggregator, error) {
	return &statsAggregator{
		name:   f.name,
		field:  f.field,
		ctx:    ctx,
		mapped: ctx.Mapped(f.field),
		min:    math.Inf(1),
		max:    math.Inf(-1),
	}, nil
}

type statsAggregator struct {
	name   string
	field  string
	ctx    *Context
	mapped bool

	count int
	sum   float64
	min   float64
	max   float64
}

func (a *statsAggregator) Name() string        { return a.name }
func (a *statsAggregator) Global() bool        { return false }
func (a *statsAggregator) ShouldCollect() bool { return a.mapped }

func (a *statsAggregator) Collect(doc int) error {
	for _, v := range a.ctx.values(a.field, doc) {
		a.count++
		a.sum += v
		a.min = math.Min(a.min, v)
		a.max = math.Max(a.max, v)
	}
	return nil
}

func (a *statsAggregator) Build() Result {
	r := &StatsResult{Count: a.count, Sum: a.sum}
	if a.count > 0 {
		avg := a.sum / float64(a.count)
		r.Min, r.Max, r.Avg = &a.min, &a.max, &avg
	}
	return r
}

// ValueCountResult is the result of a value-count aggregation.
type ValueCountResult struct {
	Value int `json:"value"`
}

// AggregationType implements Result.
func (*ValueCountResult) AggregationType() string { return "value_count" }

// ValueCount returns a factory counting the values of a field.
func ValueCount(name, field string) Factory {
	return &valueCountFactory{name: name, field: field}
}

type valueCountFactory struct {
	name  string
	field string
}

func (f *valueCountFactory) Name() string { return f.name }

func (f *valueCountFactory) Create(ctx *Context) (Aggregator, error) {
	return &valueCountAggregator{
		name:   f.name,
		field:  f.field,
		ctx:    ctx,
		mapped: ctx.Mapped(f.field),
	}, nil
}

type valueCountAggregator struct {
	name   string
	field  string
	ctx    *Context
	mapped bool
	count  int
}

func (a *valueCountAggregator) Name() string        { return a.name }
func (a *valueCountAggregator) Global() bool        { return false }
func (a *valueCountAggregator) ShouldCollect() bool { return a.mapped }

func (a *valueCountAggregator) Collect(doc int) error {
	if a.field == ScoreField {
		if a.ctx.scorer != nil {
			a.count++
		}
		return nil
	}
	a.count += len(a.ctx.strings(a.field, doc))
	return nil
}

func (a *valueCountAggregator) Build() Result {
	return &ValueCountResult{Value: a.count}
}
