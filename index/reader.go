package index

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/hupe1980/percolator/query"
	"github.com/hupe1980/percolator/search"
)

// Reader is an immutable view over candidate segments.
type Reader struct {
	segments []*Segment
}

// NewReader creates a reader. Segment ordinals must match their index.
func NewReader(segments ...*Segment) *Reader {
	return &Reader{segments: segments}
}

// Segments returns the segments in ordinal order.
func (r *Reader) Segments() []*Segment {
	return r.segments
}

// MaxDoc returns the total number of records, tombstones included.
func (r *Reader) MaxDoc() int {
	n := 0
	for _, s := range r.segments {
		n += s.MaxDoc()
	}
	return n
}

// NumDocs returns the number of live records.
func (r *Reader) NumDocs() int {
	n := 0
	for _, s := range r.segments {
		n += s.NumDocs()
	}
	return n
}

// Fields returns the sorted names of the metadata fields present on any live
// record.
func (r *Reader) Fields() []string {
	seen := make(map[string]struct{})
	for _, s := range r.segments {
		for doc := 0; doc < s.MaxDoc(); doc++ {
			if s.ids[doc] == nil {
				continue
			}
			for name := range s.Document(doc) {
				seen[name] = struct{}{}
			}
		}
	}
	fields := make([]string, 0, len(seen))
	for name := range seen {
		fields = append(fields, name)
	}
	slices.Sort(fields)
	return fields
}

// SizeBytes estimates the memory held by the reader.
func (r *Reader) SizeBytes() int64 {
	var n int64
	for _, s := range r.segments {
		n += s.SizeBytes()
	}
	return n
}

// Search feeds candidate positions to c.
//
// filter restricts the visited records by metadata; nil visits every record.
// score provides the outer score of a record and also restricts the visited
// records to those it matches; nil scores every record 1.
//
// The context is checked between segments only. A Collect returning
// search.ErrStopCollection ends the search without error.
func (r *Reader) Search(ctx context.Context, filter, score query.Query, c search.Collector) error {
	scorer := &positionScorer{}

	for _, seg := range r.segments {
		if err := ctx.Err(); err != nil {
			return err
		}

		accepted, err := r.accept(seg, filter)
		if err != nil {
			return err
		}

		if err := c.SetNextReader(seg); err != nil {
			return fmt.Errorf("segment %d: %w", seg.Ord(), err)
		}
		c.SetScorer(scorer)

		stop, err := r.searchSegment(seg, accepted, score, scorer, c)
		if err != nil {
			return err
		}
		if stop {
			return nil
		}
	}
	return nil
}

func (r *Reader) searchSegment(seg *Segment, accepted *roaring.Bitmap, score query.Query, scorer *positionScorer, c search.Collector) (bool, error) {
	visit := func(pos int) (bool, error) {
		scorer.score = 1
		if score != nil {
			s, ok, err := score.Evaluate(seg.Document(pos))
			if err != nil {
				return false, fmt.Errorf("segment %d position %d: score: %w", seg.Ord(), pos, err)
			}
			if !ok {
				return false, nil
			}
			scorer.score = s
		}
		if err := c.Collect(pos); err != nil {
			if errors.Is(err, search.ErrStopCollection) {
				return true, nil
			}
			return false, err
		}
		return false, nil
	}

	if accepted == nil {
		for pos := 0; pos < seg.MaxDoc(); pos++ {
			if stop, err := visit(pos); stop || err != nil {
				return stop, err
			}
		}
		return false, nil
	}

	it := accepted.Iterator()
	for it.HasNext() {
		if stop, err := visit(int(it.Next())); stop || err != nil {
			return stop, err
		}
	}
	return false, nil
}

func (r *Reader) accept(seg *Segment, filter query.Query) (*roaring.Bitmap, error) {
	if filter == nil {
		return nil, nil
	}
	return (&QueryFilter{Query: filter}).Bitmap(seg)
}

type positionScorer struct {
	score float32
}

func (s *positionScorer) Score() float32 { return s.score }
