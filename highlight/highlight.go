// Package highlight computes highlighted fragments of the percolated document
// for the query that just matched it.
package highlight

import (
	"github.com/hupe1980/percolator/document"
	"github.com/hupe1980/percolator/search"
)

// Defaults for Options.
const (
	DefaultPreTag       = "<em>"
	DefaultPostTag      = "</em>"
	DefaultFragmentSize = 100
	DefaultFragments    = 5
)

// Field is the highlight of one document field.
type Field struct {
	Name      string   `json:"name"`
	Fragments []string `json:"fragments"`
}

// Options configures highlighting for a request.
type Options struct {
	// Fields restricts highlighting to these fields. Empty means every field
	// the matched query refers to.
	Fields []string `json:"fields,omitempty" toml:"fields"`
	// PreTag and PostTag surround highlighted terms.
	PreTag  string `json:"pre_tag,omitempty" toml:"pre_tag"`
	PostTag string `json:"post_tag,omitempty" toml:"post_tag"`
	// FragmentSize is the approximate fragment length in bytes.
	// A negative value returns whole field values as single fragments.
	FragmentSize int `json:"fragment_size,omitempty" toml:"fragment_size"`
	// Fragments is the maximum number of fragments per field.
	Fragments int `json:"fragments,omitempty" toml:"fragments"`
}

func (o Options) withDefaults() Options {
	if o.PreTag == "" {
		o.PreTag = DefaultPreTag
	}
	if o.PostTag == "" {
		o.PostTag = DefaultPostTag
	}
	if o.FragmentSize == 0 {
		o.FragmentSize = DefaultFragmentSize
	}
	if o.Fragments <= 0 {
		o.Fragments = DefaultFragments
	}
	return o
}

// Highlighter computes highlights for the query staged in a HitContext.
type Highlighter interface {
	Highlight(hc *HitContext) (map[string]Field, error)
}

// HitContext is the per-request highlighting state: the target document, the
// options, the currently staged query and a per-document cache that is
// invalidated whenever a new query is staged.
type HitContext struct {
	doc     document.Document
	opts    Options
	query   search.Query
	cache   map[string]any
	version int
}

// NewHitContext creates a hit context for the target document.
func NewHitContext(doc document.Document, opts Options) *HitContext {
	return &HitContext{
		doc:   doc,
		opts:  opts.withDefaults(),
		cache: make(map[string]any),
	}
}

// Stage makes q the current highlight query and clears the cache.
func (hc *HitContext) Stage(q search.Query) {
	hc.query = q
	clear(hc.cache)
	hc.version++
}

// Query returns the staged query.
func (hc *HitContext) Query() search.Query { return hc.query }

// Document returns the target document.
func (hc *HitContext) Document() document.Document { return hc.doc }

// Options returns the effective options.
func (hc *HitContext) Options() Options { return hc.opts }

// Cache returns the cache of the staged query.
func (hc *HitContext) Cache() map[string]any { return hc.cache }

// Version is incremented by every Stage.
func (hc *HitContext) Version() int { return hc.version }
