// Package collector implements the percolation matching loop.
//
// A percolation request drives one of four strategies over a candidate
// reader. Every candidate position resolves to a query identifier, the
// identifier resolves to a registered query, and the query runs against a
// single-document target searcher with an existence collector. Confirmed
// matches are accumulated by the strategy and forwarded to the side pipeline
// of facet and aggregation collectors.
//
// Strategies:
//
//   - Match keeps the matched identifiers (and highlights) up to a size limit.
//   - Count only counts matches.
//   - MatchAndScore is Match plus the outer score of every stored match.
//   - MatchAndSort keeps the size best matches by outer score.
//
// A query that fails to execute is logged and reported as a Fault. It never
// aborts the request.
package collector
