package percolator

import (
	"time"

	"github.com/hashicorp/go-multierror"

	"github.com/hupe1980/percolator/collector"
	"github.com/hupe1980/percolator/highlight"
)

// Match is one matching query.
type Match struct {
	ID        string                     `json:"id"`
	Score     float32                    `json:"score,omitempty"`
	Highlight map[string]highlight.Field `json:"highlight,omitempty"`
}

// Result is the outcome of a percolation request.
type Result struct {
	RequestID string
	Mode      Mode
	// Total is the number of matching queries, including those beyond the
	// size limit. ModeSort does not count matches and leaves it zero.
	Total        int
	Matches      []Match
	Facets       []collector.FacetResult
	Aggregations []collector.AggregationResult
	// Faults lists the candidate queries that failed to execute.
	Faults []collector.Fault
	Took   time.Duration
}

func newResult(id string, req *Request, res *collector.Results, p *collector.Pipeline) *Result {
	r := &Result{
		RequestID:    id,
		Mode:         req.Mode,
		Total:        res.Counter,
		Facets:       p.FacetResults(),
		Aggregations: p.AggregationResults(),
		Faults:       res.Faults,
	}
	if len(res.IDs) > 0 {
		r.Matches = make([]Match, len(res.IDs))
		for i, id := range res.IDs {
			r.Matches[i].ID = id
			if i < len(res.Scores) {
				r.Matches[i].Score = res.Scores[i]
			}
			if i < len(res.Highlights) {
				r.Matches[i].Highlight = res.Highlights[i]
			}
		}
	}
	return r
}

// IDs returns the identifiers of the matches in result order.
func (r *Result) IDs() []string {
	ids := make([]string, len(r.Matches))
	for i, m := range r.Matches {
		ids[i] = m.ID
	}
	return ids
}

// FaultErr returns the faults as one error, or nil without faults.
func (r *Result) FaultErr() error {
	var err *multierror.Error
	for _, f := range r.Faults {
		err = multierror.Append(err, f)
	}
	return err.ErrorOrNil()
}
