// Package query provides compiled predicate queries that are evaluated
// natively against a single document.
//
// Queries are what the registry stores and what the percolator runs against
// each incoming document:
//
//	q := query.Bool().
//	    Must(query.Match("body", "quick fox")).
//	    MustNot(query.Term("lang", document.String("de")))
//
// Every query implements search.Query and Query.Evaluate. Queries that carry
// terms (term, terms, match, prefix) also implement TermVisitor so the
// highlighter can find them in the document.
//
// Definition is a serializable description of a query tree. It is used to
// persist registries and to load queries from files; Compile turns it into a
// Query.
package query
