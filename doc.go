// Package percolator matches documents against a registry of stored queries.
//
// Percolation is search turned around: queries are registered up front and
// every incoming document is tested against all of them. The result lists
// the queries that match the document.
//
// # Quick Start
//
//	reg := registry.New()
//	_ = reg.Register("fox", query.Match("body", "fox"), document.Document{"tag": document.String("animals")})
//	_ = reg.Register("news", query.Term("section", document.String("news")), nil)
//
//	p, _ := percolator.New(reg)
//	defer p.Close()
//
//	res, _ := p.Percolate(ctx, &percolator.Request{
//	    Document: document.Document{"body": document.String("the quick brown fox")},
//	})
//	fmt.Println(res.IDs()) // [fox]
//
// # Modes
//
//   - ModeMatch returns matching identifiers, optionally capped by Size/Limit.
//   - ModeCount returns only the number of matches.
//   - ModeScore returns identifiers with the outer score of each candidate.
//   - ModeSort returns the Size best matches by descending outer score.
//
// The outer score comes from Request.Score, a query evaluated against the
// metadata of every candidate (for example query.FunctionScore over a
// "priority" field). Request.Filter restricts the candidates by metadata.
//
// # Side Results
//
// Facets and aggregations observe every confirmed match. Highlighting marks
// the terms of each matched query in the percolated document.
//
// # Faults
//
// A registered query that fails to execute is skipped and reported in
// Result.Faults; it never fails the request. Result.FaultErr combines the
// faults into one error.
//
// # Persistence
//
// Queries registered with a query.Definition can be saved to and loaded
// from a blobstore.Store (memory, local disk, S3, MinIO or Badger) with
// SaveSnapshot and LoadSnapshot.
package percolator
