// Command percolate matches JSON documents against the queries of a TOML
// configuration file and manages registry snapshots.
//
//	percolate run -c percolator.toml doc.json
//	percolate snapshot save -c percolator.toml
//	percolate run -c percolator.toml --snapshot --mode sort --size 5 doc.json
package main

import "os"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
