// Package search defines the contracts shared by every searcher in percolator:
// queries, scorers, segment readers and collectors.
//
// A search walks a reader segment by segment. Before visiting a segment it
// calls SetNextReader, then SetScorer, then Collect for every matching
// document position in ascending order. Positions are segment-local and are
// never comparable across segments.
//
// The package also provides the generic collectors the percolator builds on:
//   - ExistsCollector: records whether at least one hit occurred
//   - FilteredCollector: forwards only documents accepted by a Filter
//   - MultiCollector: fans out to an ordered list of collectors
//   - TopScoreCollector: bounded ranking by descending score
package search
