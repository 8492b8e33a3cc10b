package index

import (
	"fmt"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/hupe1980/percolator/query"
	"github.com/hupe1980/percolator/search"
)

// QueryFilter is a search.Filter accepting the records whose metadata
// matches a query.
type QueryFilter struct {
	Query query.Query
}

// NewQueryFilter returns a QueryFilter for q.
func NewQueryFilter(q query.Query) *QueryFilter {
	return &QueryFilter{Query: q}
}

// Bitmap implements search.Filter.
func (f *QueryFilter) Bitmap(leaf search.LeafReader) (*roaring.Bitmap, error) {
	bm := roaring.New()
	for pos := 0; pos < leaf.MaxDoc(); pos++ {
		_, ok, err := f.Query.Evaluate(leaf.Document(pos))
		if err != nil {
			return nil, fmt.Errorf("segment %d position %d: filter: %w", leaf.Ord(), pos, err)
		}
		if ok {
			bm.Add(uint32(pos))
		}
	}
	return bm, nil
}

func (f *QueryFilter) String() string {
	return "filter(" + f.Query.String() + ")"
}
