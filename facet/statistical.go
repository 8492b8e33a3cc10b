package facet

import (
	"math"
	"strconv"

	"github.com/hupe1980/percolator/search"
)

// ScoreField makes a statistical facet observe the outer candidate score.
const ScoreField = "_score"

// StatisticalResult is the result of a statistical facet.
type StatisticalResult struct {
	Field        string  `json:"field"`
	Count        int     `json:"count"`
	Total        float64 `json:"total"`
	Min          float64 `json:"min"`
	Max          float64 `json:"max"`
	Mean         float64 `json:"mean"`
	SumOfSquares float64 `json:"sum_of_squares"`
	Variance     float64 `json:"variance"`
	StdDeviation float64 `json:"std_deviation"`
}

// FacetType implements Result.
func (*StatisticalResult) FacetType() string { return "statistical" }

// StatisticalExecutor computes count, min, max, mean and variance of a
// numeric candidate metadata field, or of the candidate score for ScoreField.
type StatisticalExecutor struct {
	field  string
	leaf   search.LeafReader
	scorer search.Scorer

	count int
	total float64
	min   float64
	max   float64
	sumSq float64
}

// Statistical returns a statistical facet over field.
func Statistical(field string) *StatisticalExecutor {
	return &StatisticalExecutor{
		field: field,
		min:   math.Inf(1),
		max:   math.Inf(-1),
	}
}

// Collector implements Executor.
func (e *StatisticalExecutor) Collector() search.Collector { return e }

// SetNextReader implements search.Collector.
func (e *StatisticalExecutor) SetNextReader(leaf search.LeafReader) error {
	e.leaf = leaf
	return nil
}

// SetScorer implements search.Collector.
func (e *StatisticalExecutor) SetScorer(s search.Scorer) { e.scorer = s }

// Collect implements search.Collector.
func (e *StatisticalExecutor) Collect(doc int) error {
	if e.field == ScoreField {
		if e.scorer != nil {
			e.add(float64(e.scorer.Score()))
		}
		return nil
	}

	v, ok := e.leaf.Document(doc)[e.field]
	if !ok {
		return nil
	}
	for _, elem := range v.Elements() {
		if f, isNum := elem.AsFloat64(); isNum {
			e.add(f)
		} else if f, err := strconv.ParseFloat(elem.String(), 64); err == nil {
			e.add(f)
		}
	}
	return nil
}

func (e *StatisticalExecutor) add(v float64) {
	e.count++
	e.total += v
	e.sumSq += v * v
	e.min = math.Min(e.min, v)
	e.max = math.Max(e.max, v)
}

// Result implements Executor.
func (e *StatisticalExecutor) Result() Result {
	r := &StatisticalResult{Field: e.field, Count: e.count}
	if e.count == 0 {
		return r
	}
	n := float64(e.count)
	r.Total = e.total
	r.Min = e.min
	r.Max = e.max
	r.Mean = e.total / n
	r.SumOfSquares = e.sumSq
	r.Variance = math.Max(0, e.sumSq/n-r.Mean*r.Mean)
	r.StdDeviation = math.Sqrt(r.Variance)
	return r
}
