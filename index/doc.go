// Package index is the candidate source of a percolation request.
//
// A Reader is an immutable view over segments of registered query records.
// Each record carries the query identifier (field IDField) and optional
// metadata. Removed records stay in place as tombstones whose identifier
// resolves to zero values, so positions never shift inside a segment.
//
// Reader.Search walks segments in ascending ordinal order and positions in
// ascending order, applying an optional outer filter and outer score query
// evaluated against record metadata.
package index
