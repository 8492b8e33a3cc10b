// Package registry holds the registered percolator queries.
//
// The registry is a concurrent map from query identifier to compiled query,
// split into shards by a CRC32C hash of the identifier. Each shard keeps an
// append-only record log; Reader cuts one candidate segment per non-empty
// shard from these logs, so a percolation request sees a stable snapshot of
// identifiers while registrations continue concurrently.
//
// Removing a query leaves a tombstone in its shard log. A shard compacts its
// log once tombstones make up more than half of it.
//
// Queries registered from a query.Definition can be persisted with Save and
// restored with Load.
package registry
