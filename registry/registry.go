package registry

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/hupe1980/percolator/document"
	"github.com/hupe1980/percolator/index"
	"github.com/hupe1980/percolator/internal/hash"
	"github.com/hupe1980/percolator/query"
	"github.com/hupe1980/percolator/search"
)

// DefaultShards is the default number of registry shards.
const DefaultShards = 16

var (
	// ErrEmptyID is returned when registering a query without identifier.
	ErrEmptyID = errors.New("registry: empty query id")
	// ErrNilQuery is returned when registering a nil query.
	ErrNilQuery = errors.New("registry: nil query")
)

// Entry is a registered query.
type Entry struct {
	ID         string
	Query      search.Query
	Definition *query.Definition
	Metadata   document.Document
}

// Stats describes the registry layout.
type Stats struct {
	Queries    int
	Tombstones int
	Shards     int
}

// Option configures a Registry.
type Option func(*options)

type options struct {
	shards int
	logger *slog.Logger
}

// WithShards sets the number of shards. Values below 1 are ignored.
func WithShards(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.shards = n
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// Registry is a sharded concurrent map from query identifier to query.
type Registry struct {
	shards []*shard
	logger *slog.Logger
}

// New creates an empty registry.
func New(optFns ...Option) *Registry {
	o := options{
		shards: DefaultShards,
		logger: slog.New(slog.DiscardHandler),
	}
	for _, fn := range optFns {
		fn(&o)
	}

	shards := make([]*shard, o.shards)
	for i := range shards {
		shards[i] = newShard()
	}
	return &Registry{shards: shards, logger: o.logger}
}

func (r *Registry) shardFor(id []byte) *shard {
	return r.shards[hash.Bucket(id, len(r.shards))]
}

// Register adds or replaces the query with the given identifier.
// A replaced query keeps its record position. meta is copied.
func (r *Registry) Register(id string, q search.Query, meta document.Document) error {
	return r.register(&Entry{ID: id, Query: q, Metadata: meta})
}

// RegisterDefinition compiles def and registers the result. Queries registered
// this way are persisted by Save.
func (r *Registry) RegisterDefinition(id string, def query.Definition, meta document.Document) error {
	q, err := def.Compile()
	if err != nil {
		return fmt.Errorf("query %q: %w", id, err)
	}
	return r.register(&Entry{ID: id, Query: q, Definition: &def, Metadata: meta})
}

func (r *Registry) register(e *Entry) error {
	if e.ID == "" {
		return ErrEmptyID
	}
	if e.Query == nil {
		return ErrNilQuery
	}
	e.Metadata = e.Metadata.Clone()
	r.shardFor([]byte(e.ID)).put(e)
	return nil
}

// Remove deletes the query. It reports whether the query was registered.
func (r *Registry) Remove(id string) bool {
	s := r.shardFor([]byte(id))
	removed, compacted := s.remove(id)
	if compacted {
		r.logger.Debug("registry shard compacted", "records", s.len())
	}
	return removed
}

// Lookup returns the query registered under id.
func (r *Registry) Lookup(id []byte) (search.Query, bool) {
	e, ok := r.shardFor(id).get(id)
	if !ok {
		return nil, false
	}
	return e.Query, true
}

// Get returns the entry registered under id. The metadata is a copy.
func (r *Registry) Get(id string) (Entry, bool) {
	e, ok := r.shardFor([]byte(id)).get([]byte(id))
	if !ok {
		return Entry{}, false
	}
	out := *e
	out.Metadata = e.Metadata.Clone()
	return out, true
}

// Len returns the number of registered queries.
func (r *Registry) Len() int {
	n := 0
	for _, s := range r.shards {
		n += s.live()
	}
	return n
}

// Stats returns the registry layout.
func (r *Registry) Stats() Stats {
	st := Stats{Shards: len(r.shards)}
	for _, s := range r.shards {
		s.mu.RLock()
		st.Queries += len(s.byID)
		st.Tombstones += s.tombstones
		s.mu.RUnlock()
	}
	return st
}

// Range calls fn for every registered entry until fn returns false.
// Entries are visited shard by shard in record order. fn must not modify
// the entry metadata.
func (r *Registry) Range(fn func(Entry) bool) {
	for _, s := range r.shards {
		s.mu.RLock()
		entries := slices.Clone(s.entries)
		s.mu.RUnlock()

		for _, e := range entries {
			if e == nil {
				continue
			}
			if !fn(*e) {
				return
			}
		}
	}
}

// Reader returns an immutable candidate snapshot with one segment per
// non-empty shard. Tombstones are carried over as records whose identifier
// resolves to no value.
func (r *Registry) Reader() *index.Reader {
	segments := make([]*index.Segment, 0, len(r.shards))
	for _, s := range r.shards {
		ids, meta := s.snapshot()
		if len(ids) == 0 {
			continue
		}
		segments = append(segments, index.NewSegment(len(segments), ids, meta))
	}
	return index.NewReader(segments...)
}

type shard struct {
	mu         sync.RWMutex
	byID       map[string]int
	ids        [][]byte
	entries    []*Entry
	tombstones int
}

func newShard() *shard {
	return &shard{byID: make(map[string]int)}
}

func (s *shard) put(e *Entry) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if pos, ok := s.byID[e.ID]; ok {
		s.entries[pos] = e
		return
	}
	s.byID[e.ID] = len(s.ids)
	s.ids = append(s.ids, []byte(e.ID))
	s.entries = append(s.entries, e)
}

func (s *shard) get(id []byte) (*Entry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	pos, ok := s.byID[string(id)]
	if !ok {
		return nil, false
	}
	return s.entries[pos], true
}

func (s *shard) remove(id string) (removed, compacted bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	pos, ok := s.byID[id]
	if !ok {
		return false, false
	}
	delete(s.byID, id)
	s.ids[pos] = nil
	s.entries[pos] = nil
	s.tombstones++

	if s.tombstones*2 > len(s.ids) {
		s.compact()
		return true, true
	}
	return true, false
}

// compact drops tombstones. Callers hold the write lock.
func (s *shard) compact() {
	ids := make([][]byte, 0, len(s.byID))
	entries := make([]*Entry, 0, len(s.byID))
	for pos, id := range s.ids {
		if id == nil {
			continue
		}
		s.byID[string(id)] = len(ids)
		ids = append(ids, id)
		entries = append(entries, s.entries[pos])
	}
	s.ids = ids
	s.entries = entries
	s.tombstones = 0
}

func (s *shard) snapshot() ([][]byte, []document.Document) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := slices.Clone(s.ids)
	meta := make([]document.Document, len(s.entries))
	for i, e := range s.entries {
		if e != nil {
			meta[i] = e.Metadata
		}
	}
	return ids, meta
}

func (s *shard) len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.ids)
}

func (s *shard) live() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byID)
}
