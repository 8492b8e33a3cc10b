// Package testutil provides testing utilities for percolator.
//
// This package is intended for use in tests and benchmarks only.
// It provides helpers for generating random queries and documents and for
// computing the exact match set of a document by brute force.
//
// # Random Fixtures
//
//	rng := testutil.NewRNG(seed)
//	queries := rng.Queries(1000, "body")
//	doc := rng.Document("body", 20)
//
// # Exact Matching (Ground Truth)
//
//	ids := testutil.BruteForceMatch(queries, doc)
//	top := testutil.BruteForceTopK(queries, doc, "priority", 10)
package testutil
