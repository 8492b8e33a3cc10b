package collector

import (
	"context"

	"github.com/hupe1980/percolator/highlight"
	"github.com/hupe1980/percolator/search"
)

var (
	_ Strategy = (*Match)(nil)
	_ Strategy = (*Count)(nil)
	_ Strategy = (*MatchAndScore)(nil)
	_ Strategy = (*MatchAndSort)(nil)
)

// Match keeps the identifiers of matched queries in discovery order.
type Match struct {
	*matcher
	counter    int
	ids        []string
	highlights []map[string]highlight.Field
}

// NewMatch creates a Match strategy.
func NewMatch(ctx context.Context, cfg Config) (*Match, error) {
	m, err := newMatcher(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return &Match{matcher: m}, nil
}

// SetNextReader implements search.Collector.
func (s *Match) SetNextReader(leaf search.LeafReader) error {
	return s.setNextReader(leaf)
}

// SetScorer implements search.Collector.
func (s *Match) SetScorer(sc search.Scorer) {
	s.setScorer(sc)
}

// Collect implements search.Collector.
func (s *Match) Collect(doc int) error {
	if !s.match(doc) {
		return nil
	}
	if !s.limited(s.counter) {
		s.ids = append(s.ids, string(s.current))
		if s.highlighting() {
			s.highlights = append(s.highlights, s.highlight(doc))
		}
	}
	s.counter++
	return s.pipeline.PostMatch(doc)
}

// Finish implements Strategy.
func (s *Match) Finish() *Results {
	return &Results{
		Counter:    s.counter,
		IDs:        s.ids,
		Highlights: s.highlights,
		Faults:     s.faults,
	}
}

// Count counts matched queries.
type Count struct {
	*matcher
	counter int
}

// NewCount creates a Count strategy. Highlighting settings are ignored.
func NewCount(ctx context.Context, cfg Config) (*Count, error) {
	cfg.Highlighter, cfg.HitContext = nil, nil
	m, err := newMatcher(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return &Count{matcher: m}, nil
}

// SetNextReader implements search.Collector.
func (s *Count) SetNextReader(leaf search.LeafReader) error {
	return s.setNextReader(leaf)
}

// SetScorer implements search.Collector.
func (s *Count) SetScorer(sc search.Scorer) {
	s.setScorer(sc)
}

// Collect implements search.Collector.
func (s *Count) Collect(doc int) error {
	if !s.match(doc) {
		return nil
	}
	s.counter++
	return s.pipeline.PostMatch(doc)
}

// Finish implements Strategy.
func (s *Count) Finish() *Results {
	return &Results{Counter: s.counter, Faults: s.faults}
}

// MatchAndScore keeps matched identifiers with their outer score.
type MatchAndScore struct {
	*matcher
	counter    int
	ids        []string
	scores     []float32
	highlights []map[string]highlight.Field
}

// NewMatchAndScore creates a MatchAndScore strategy.
func NewMatchAndScore(ctx context.Context, cfg Config) (*MatchAndScore, error) {
	m, err := newMatcher(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return &MatchAndScore{matcher: m}, nil
}

// SetNextReader implements search.Collector.
func (s *MatchAndScore) SetNextReader(leaf search.LeafReader) error {
	return s.setNextReader(leaf)
}

// SetScorer implements search.Collector.
func (s *MatchAndScore) SetScorer(sc search.Scorer) {
	s.setScorer(sc)
}

// Collect implements search.Collector.
func (s *MatchAndScore) Collect(doc int) error {
	if !s.match(doc) {
		return nil
	}
	if !s.limited(s.counter) {
		score, err := s.score()
		if err != nil {
			return err
		}
		s.ids = append(s.ids, string(s.current))
		s.scores = append(s.scores, score)
		if s.highlighting() {
			s.highlights = append(s.highlights, s.highlight(doc))
		}
	}
	s.counter++
	return s.pipeline.PostMatch(doc)
}

// Finish implements Strategy.
func (s *MatchAndScore) Finish() *Results {
	return &Results{
		Counter:    s.counter,
		IDs:        s.ids,
		Scores:     s.scores,
		Highlights: s.highlights,
		Faults:     s.faults,
	}
}

// MatchAndSort keeps the Size best matches by descending outer score.
// Equal scores keep discovery order. Highlighting settings are ignored.
type MatchAndSort struct {
	*matcher
	top    *search.TopScoreCollector
	leaves map[int]search.LeafReader
}

// NewMatchAndSort creates a MatchAndSort strategy.
func NewMatchAndSort(ctx context.Context, cfg Config) (*MatchAndSort, error) {
	cfg.Highlighter, cfg.HitContext = nil, nil
	m, err := newMatcher(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return &MatchAndSort{
		matcher: m,
		top:     search.NewTopScoreCollector(m.cfg.Size),
		leaves:  make(map[int]search.LeafReader),
	}, nil
}

// SetNextReader implements search.Collector.
func (s *MatchAndSort) SetNextReader(leaf search.LeafReader) error {
	if err := s.setNextReader(leaf); err != nil {
		return err
	}
	s.leaves[leaf.Ord()] = leaf
	return s.top.SetNextReader(leaf)
}

// SetScorer implements search.Collector.
func (s *MatchAndSort) SetScorer(sc search.Scorer) {
	s.setScorer(sc)
	s.top.SetScorer(sc)
}

// Collect implements search.Collector.
func (s *MatchAndSort) Collect(doc int) error {
	if !s.match(doc) {
		return nil
	}
	if s.scorer == nil {
		return ErrNoScorer
	}
	if err := s.top.Collect(doc); err != nil {
		return err
	}
	return s.pipeline.PostMatch(doc)
}

// Finish implements Strategy. Identifiers are resolved from the segments the
// ranked positions came from.
func (s *MatchAndSort) Finish() *Results {
	docs := s.top.TopDocs()
	r := &Results{
		IDs:    make([]string, 0, len(docs)),
		Scores: make([]float32, 0, len(docs)),
		Faults: s.faults,
	}
	for _, sd := range docs {
		ids := s.leaves[sd.Segment].BytesValues(s.cfg.IDField)
		r.IDs = append(r.IDs, string(ids.Value(sd.Doc)))
		r.Scores = append(r.Scores, sd.Score)
	}
	return r
}
