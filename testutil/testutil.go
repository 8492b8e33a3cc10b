package testutil

import (
	"fmt"
	"math"
	"math/rand"
	"slices"
	"strings"
	"sync"

	"github.com/hupe1980/percolator/document"
	"github.com/hupe1980/percolator/query"
)

// Vocabulary is the word list fixtures are drawn from.
var Vocabulary = []string{
	"alpha", "bravo", "charlie", "delta", "echo", "foxtrot", "golf", "hotel",
	"india", "juliet", "kilo", "lima", "mike", "november", "oscar", "papa",
	"quebec", "romeo", "sierra", "tango", "uniform", "victor", "whiskey",
	"xray", "yankee", "zulu",
}

// Tags are the metadata tags assigned to fixture queries.
var Tags = []string{"news", "sport", "finance", "weather"}

// Fixture is a generated query with its metadata.
type Fixture struct {
	ID         string
	Definition query.Definition
	Metadata   document.Document
}

// ScoredID is a ranked match.
type ScoredID struct {
	ID    string
	Score float32
}

// RNG struct encapsulates the random number generator and seed.
// It is thread-safe.
type RNG struct {
	rand *rand.Rand
	seed int64
	mu   sync.Mutex
}

// NewRNG creates a new RNG instance with the specified seed.
func NewRNG(seed int64) *RNG {
	return &RNG{
		rand: rand.New(rand.NewSource(seed)),
		seed: seed,
	}
}

// Reset resets the RNG to its initial seed.
func (r *RNG) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rand.Seed(r.seed)
}

// Seed returns the initial seed.
func (r *RNG) Seed() int64 {
	return r.seed
}

// Intn returns a non-negative pseudo-random number in [0,n).
func (r *RNG) Intn(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Intn(n)
}

// Word returns a random vocabulary word.
func (r *RNG) Word() string {
	return Vocabulary[r.Intn(len(Vocabulary))]
}

// Text returns n random vocabulary words separated by spaces.
func (r *RNG) Text(n int) string {
	r.mu.Lock()
	defer r.mu.Unlock()

	words := make([]string, n)
	for i := range words {
		words[i] = Vocabulary[r.zipfLocked(len(Vocabulary), 1.0)]
	}
	return strings.Join(words, " ")
}

// Document returns a document with n random words in field.
func (r *RNG) Document(field string, n int) document.Document {
	return document.Document{field: document.String(r.Text(n))}
}

// Queries generates n match, prefix and bool queries over field. Every
// fixture carries a "tag" and a Zipf-distributed "priority" in its metadata.
func (r *RNG) Queries(n int, field string) []Fixture {
	out := make([]Fixture, n)
	for i := range out {
		var def query.Definition
		switch r.Intn(4) {
		case 0:
			def = query.Definition{Type: "prefix", Field: field, Value: r.Word()[:2]}
		case 1:
			def = query.Definition{
				Type: "bool",
				Must: []query.Definition{{Type: "match", Field: field, Text: r.Word()}},
				MustNot: []query.Definition{
					{Type: "match", Field: field, Text: r.Word()},
				},
			}
		case 2:
			def = query.Definition{Type: "match", Field: field, Text: r.Word() + " " + r.Word(), Operator: query.OperatorAnd}
		default:
			def = query.Definition{Type: "match", Field: field, Text: r.Word()}
		}

		out[i] = Fixture{
			ID:         fmt.Sprintf("q%05d", i),
			Definition: def,
			Metadata: document.Document{
				"tag":      document.String(Tags[r.Intn(len(Tags))]),
				"priority": document.Int(int64(r.Zipf(100, 1.2) + 1)),
			},
		}
	}
	return out
}

// Zipf returns a Zipfian-distributed value in [0, n).
// Uses Zipf's law: P(k) ∝ 1/k^s where s is the skew parameter.
func (r *RNG) Zipf(n int, s float64) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.zipfLocked(n, s)
}

// zipfLocked is the internal implementation (caller must hold lock).
func (r *RNG) zipfLocked(n int, s float64) int {
	if n <= 1 {
		return 0
	}

	var hns float64
	for i := 1; i <= n; i++ {
		hns += 1.0 / math.Pow(float64(i), s)
	}

	u := r.rand.Float64() * hns
	var cumulative float64
	for k := 1; k <= n; k++ {
		cumulative += 1.0 / math.Pow(float64(k), s)
		if u <= cumulative {
			return k - 1
		}
	}
	return n - 1
}

// BruteForceMatch evaluates every fixture against doc and returns the sorted
// identifiers of the matches. Fixtures that fail to compile are skipped.
func BruteForceMatch(fixtures []Fixture, doc document.Document) []string {
	var ids []string
	for _, f := range fixtures {
		q, err := f.Definition.Compile()
		if err != nil {
			continue
		}
		if _, ok, err := q.Evaluate(doc); err == nil && ok {
			ids = append(ids, f.ID)
		}
	}
	slices.Sort(ids)
	return ids
}

// BruteForceTopK returns the k best matches of doc ranked by the numeric
// metadata field scoreField, descending. Ties keep fixture order.
func BruteForceTopK(fixtures []Fixture, doc document.Document, scoreField string, k int) []ScoredID {
	matched := BruteForceMatch(fixtures, doc)
	var out []ScoredID
	for _, f := range fixtures {
		if _, ok := slices.BinarySearch(matched, f.ID); !ok {
			continue
		}
		var score float32
		if v, ok := f.Metadata[scoreField]; ok {
			if x, isNum := v.AsFloat64(); isNum {
				score = float32(x)
			}
		}
		out = append(out, ScoredID{ID: f.ID, Score: score})
	}
	slices.SortStableFunc(out, func(a, b ScoredID) int {
		switch {
		case a.Score > b.Score:
			return -1
		case a.Score < b.Score:
			return 1
		default:
			return 0
		}
	})
	if len(out) > k {
		out = out[:k]
	}
	return out
}
