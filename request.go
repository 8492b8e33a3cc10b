package percolator

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/hupe1980/percolator/aggregation"
	"github.com/hupe1980/percolator/document"
	"github.com/hupe1980/percolator/facet"
	"github.com/hupe1980/percolator/highlight"
	"github.com/hupe1980/percolator/query"
	"github.com/hupe1980/percolator/search"
)

// Mode selects how matches are accumulated.
type Mode int

const (
	// ModeMatch returns the identifiers of matching queries.
	ModeMatch Mode = iota
	// ModeCount returns only the number of matching queries.
	ModeCount
	// ModeScore returns matching identifiers with their outer score.
	ModeScore
	// ModeSort returns the Size best matches by descending outer score.
	ModeSort
)

func (m Mode) String() string {
	switch m {
	case ModeMatch:
		return "match"
	case ModeCount:
		return "count"
	case ModeScore:
		return "score"
	case ModeSort:
		return "sort"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// ParseMode parses the String form of a mode.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(s) {
	case "match", "":
		return ModeMatch, nil
	case "count":
		return ModeCount, nil
	case "score":
		return ModeScore, nil
	case "sort":
		return ModeSort, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrInvalidMode, s)
	}
}

// Request is a percolation request.
type Request struct {
	// ID identifies the request in logs and results. When empty, a generated
	// id is reported in Result.RequestID.
	ID string
	// Document is the document to percolate.
	Document document.Document
	// Target overrides the searcher built from Document. A Target that
	// implements highlight.Highlighter also highlights the matches.
	Target search.Searcher

	Mode Mode
	// Size caps the stored matches when Limit is set, and is the number of
	// ranked matches in ModeSort.
	Size  int
	Limit bool

	// Filter restricts the candidate queries by their metadata.
	Filter query.Query
	// Score provides the outer score of every candidate and restricts the
	// candidates to those it matches. Defaults to a constant 1.
	Score query.Query

	Facets       []facet.Entry
	Aggregations aggregation.Factories
	// Highlight enables highlighting in ModeMatch and ModeScore.
	Highlight *highlight.Options
}

func (r *Request) validate() error {
	if r.Document == nil && r.Target == nil {
		return ErrNoTarget
	}
	if r.Size < 0 {
		return fmt.Errorf("%w: %d", ErrInvalidSize, r.Size)
	}
	if r.Mode < ModeMatch || r.Mode > ModeSort {
		return fmt.Errorf("%w: %s", ErrInvalidMode, r.Mode)
	}
	return nil
}

// requestID returns the caller's request id or a fresh one. The request is
// never written to, so one Request value may be percolated concurrently.
func requestID(r *Request) string {
	if r != nil && r.ID != "" {
		return r.ID
	}
	return uuid.New().String()
}
