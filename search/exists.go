package search

// ExistsCollector records whether at least one document was collected.
// It stops the search at the first hit.
type ExistsCollector struct {
	exists bool
}

// Reset clears the collector for the next search.
func (c *ExistsCollector) Reset() {
	c.exists = false
}

// Exists reports whether a hit was collected since the last Reset.
func (c *ExistsCollector) Exists() bool {
	return c.exists
}

// SetNextReader implements Collector.
func (c *ExistsCollector) SetNextReader(LeafReader) error { return nil }

// SetScorer implements Collector.
func (c *ExistsCollector) SetScorer(Scorer) {}

// Collect implements Collector.
func (c *ExistsCollector) Collect(int) error {
	c.exists = true
	return ErrStopCollection
}
