package collector

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/hupe1980/percolator/highlight"
	"github.com/hupe1980/percolator/index"
	"github.com/hupe1980/percolator/search"
)

// StrictInvariants makes the matching loop panic when a candidate resolves to
// more than one identifier. When false the violation is logged and the first
// identifier is used.
var StrictInvariants bool

var (
	// ErrNoRegistry is returned when a strategy is built without a registry.
	ErrNoRegistry = errors.New("collector: no registry")
	// ErrNoTarget is returned when a strategy is built without a target searcher.
	ErrNoTarget = errors.New("collector: no target searcher")
	// ErrInvalidSize is returned for a negative size.
	ErrInvalidSize = errors.New("collector: invalid size")
	// ErrNoScorer is returned when a score is required but no scorer is bound.
	ErrNoScorer = errors.New("collector: no scorer")
)

// Lookup resolves query identifiers. Implementations must be safe for
// concurrent use; an absent identifier is not an error.
type Lookup interface {
	Lookup(id []byte) (search.Query, bool)
}

// Fault describes a candidate that was skipped because its query failed.
type Fault struct {
	ID       string
	Segment  int
	Position int
	Err      error
}

// Error implements error.
func (f Fault) Error() string {
	return fmt.Sprintf("query %q (segment %d, position %d): %v", f.ID, f.Segment, f.Position, f.Err)
}

// Unwrap returns the execution error.
func (f Fault) Unwrap() error { return f.Err }

// Results is the outcome of a strategy.
type Results struct {
	// Counter is the number of confirmed matches, stored or not.
	// MatchAndSort does not count and leaves it zero.
	Counter int
	// IDs are the stored identifiers in discovery order, or in rank order
	// for MatchAndSort.
	IDs []string
	// Scores is aligned with IDs for MatchAndScore and MatchAndSort.
	Scores []float32
	// Highlights is aligned with IDs when highlighting was requested.
	Highlights []map[string]highlight.Field
	// Faults lists the candidates whose query failed.
	Faults []Fault
}

// Config configures a strategy.
type Config struct {
	// Registry resolves identifiers to queries.
	Registry Lookup
	// Target executes queries against the percolated document.
	Target search.Searcher
	// Pipeline receives every confirmed match. May be nil.
	Pipeline *Pipeline
	// Size caps the stored matches when Limit is set, and is the capacity
	// of MatchAndSort.
	Size int
	// Limit enables the Size cap for Match and MatchAndScore.
	Limit bool
	// Highlighter and HitContext enable highlighting when both are set.
	Highlighter highlight.Highlighter
	HitContext  *highlight.HitContext
	// IDField is the candidate field holding the identifier.
	// Defaults to index.IDField.
	IDField string
	// Logger defaults to a discarding logger.
	Logger *slog.Logger
}

func (c *Config) validate() error {
	if c.Registry == nil {
		return ErrNoRegistry
	}
	if c.Target == nil {
		return ErrNoTarget
	}
	if c.Size < 0 {
		return fmt.Errorf("%w: %d", ErrInvalidSize, c.Size)
	}
	if c.IDField == "" {
		c.IDField = index.IDField
	}
	if c.Logger == nil {
		c.Logger = slog.New(slog.DiscardHandler)
	}
	return nil
}

// Strategy is a search.Collector accumulating percolation results.
type Strategy interface {
	search.Collector
	// Finish returns the accumulated results. The strategy must not be used
	// afterwards.
	Finish() *Results
}

// matcher is the part of the matching loop shared by every strategy.
type matcher struct {
	ctx      context.Context
	cfg      Config
	pipeline *Pipeline

	leaf    search.LeafReader
	idVals  search.BytesValues
	scorer  search.Scorer
	exists  search.ExistsCollector
	faults  []Fault
	current []byte
}

func newMatcher(ctx context.Context, cfg Config) (*matcher, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &matcher{ctx: ctx, cfg: cfg, pipeline: cfg.Pipeline}, nil
}

func (m *matcher) highlighting() bool {
	return m.cfg.Highlighter != nil && m.cfg.HitContext != nil
}

// setNextReader binds the identifier resolver and forwards to the pipeline.
func (m *matcher) setNextReader(leaf search.LeafReader) error {
	m.leaf = leaf
	m.idVals = leaf.BytesValues(m.cfg.IDField)
	return m.pipeline.SetNextReader(leaf)
}

// setScorer forwards to the pipeline before keeping the scorer.
func (m *matcher) setScorer(s search.Scorer) {
	m.pipeline.SetScorer(s)
	m.scorer = s
}

// match resolves the candidate at doc and reports whether its query matches
// the target. Unresolvable candidates and failed queries report false.
func (m *matcher) match(doc int) bool {
	if m.idVals == nil {
		return false
	}

	switch n := m.idVals.ValueCount(doc); {
	case n == 0:
		return false
	case n > 1:
		if StrictInvariants {
			panic(fmt.Sprintf("collector: segment %d position %d has %d identifiers", m.leaf.Ord(), doc, n))
		}
		m.cfg.Logger.Error("candidate has more than one identifier, using the first",
			"segment", m.leaf.Ord(),
			"position", doc,
			"values", n,
		)
	}

	id := m.idVals.Value(doc)
	q, ok := m.cfg.Registry.Lookup(id)
	if !ok {
		return false
	}
	m.current = id

	if m.highlighting() {
		m.cfg.HitContext.Stage(q)
	}

	m.exists.Reset()
	if err := m.cfg.Target.Search(m.ctx, q, &m.exists); err != nil && !errors.Is(err, search.ErrStopCollection) {
		m.fault(doc, err)
		return false
	}
	return m.exists.Exists()
}

func (m *matcher) fault(doc int, err error) {
	f := Fault{
		ID:       string(m.current),
		Segment:  m.leaf.Ord(),
		Position: doc,
		Err:      err,
	}
	m.cfg.Logger.Warn("percolate query failed",
		"query_id", f.ID,
		"segment", f.Segment,
		"position", f.Position,
		"error", err,
	)
	m.faults = append(m.faults, f)
}

// highlight computes the highlights of the query staged by match. A failing
// highlighter is reported as a fault and yields a nil map.
func (m *matcher) highlight(doc int) map[string]highlight.Field {
	fields, err := m.cfg.Highlighter.Highlight(m.cfg.HitContext)
	if err != nil {
		m.fault(doc, fmt.Errorf("highlight: %w", err))
		return nil
	}
	return fields
}

func (m *matcher) score() (float32, error) {
	if m.scorer == nil {
		return 0, ErrNoScorer
	}
	return m.scorer.Score(), nil
}

// limited reports whether a match arriving with the given counter is past
// the storage cap.
func (m *matcher) limited(counter int) bool {
	return m.cfg.Limit && counter >= m.cfg.Size
}
