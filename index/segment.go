package index

import (
	"github.com/hupe1980/percolator/document"
	"github.com/hupe1980/percolator/search"
)

// IDField is the field holding the query identifier of a record.
const IDField = "_id"

// Segment is an immutable, ordered run of query records.
type Segment struct {
	ord  int
	ids  [][]byte
	meta []document.Document
}

// NewSegment creates a segment. ids[i] == nil marks a tombstone.
// meta may be nil or shorter than ids; missing entries have no metadata.
func NewSegment(ord int, ids [][]byte, meta []document.Document) *Segment {
	return &Segment{ord: ord, ids: ids, meta: meta}
}

// Ord implements search.LeafReader.
func (s *Segment) Ord() int { return s.ord }

// MaxDoc implements search.LeafReader.
func (s *Segment) MaxDoc() int { return len(s.ids) }

// NumDocs returns the number of records that are not tombstones.
func (s *Segment) NumDocs() int {
	n := 0
	for _, id := range s.ids {
		if id != nil {
			n++
		}
	}
	return n
}

// Document implements search.LeafReader.
func (s *Segment) Document(doc int) document.Document {
	if doc < 0 || doc >= len(s.meta) {
		return nil
	}
	return s.meta[doc]
}

// BytesValues implements search.LeafReader.
//
// IDField resolves the query identifier. Any other field resolves the string
// form of the matching metadata values.
func (s *Segment) BytesValues(field string) search.BytesValues {
	if field == IDField {
		return idValues{ids: s.ids}
	}
	return metaValues{seg: s, field: field}
}

// SizeBytes estimates the memory held by the identifiers of the segment.
func (s *Segment) SizeBytes() int64 {
	var n int64
	for _, id := range s.ids {
		n += int64(len(id)) + 24
	}
	return n + int64(len(s.meta))*8
}

type idValues struct {
	ids [][]byte
}

func (v idValues) ValueCount(doc int) int {
	if doc < 0 || doc >= len(v.ids) || v.ids[doc] == nil {
		return 0
	}
	return 1
}

func (v idValues) Value(doc int) []byte {
	return v.ids[doc]
}

type metaValues struct {
	seg   *Segment
	field string
}

func (v metaValues) values(doc int) []document.Value {
	d := v.seg.Document(doc)
	if d == nil {
		return nil
	}
	val, ok := d[v.field]
	if !ok || val.Kind == document.KindNull {
		return nil
	}
	return val.Elements()
}

func (v metaValues) ValueCount(doc int) int {
	return len(v.values(doc))
}

func (v metaValues) Value(doc int) []byte {
	vals := v.values(doc)
	if len(vals) == 0 {
		return nil
	}
	return []byte(vals[0].String())
}
