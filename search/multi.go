package search

// MultiCollector forwards every event to an ordered list of collectors.
type MultiCollector []Collector

// SetNextReader implements Collector.
func (m MultiCollector) SetNextReader(leaf LeafReader) error {
	for _, c := range m {
		if err := c.SetNextReader(leaf); err != nil {
			return err
		}
	}
	return nil
}

// SetScorer implements Collector.
func (m MultiCollector) SetScorer(s Scorer) {
	for _, c := range m {
		c.SetScorer(s)
	}
}

// Collect implements Collector.
func (m MultiCollector) Collect(doc int) error {
	for _, c := range m {
		if err := c.Collect(doc); err != nil {
			return err
		}
	}
	return nil
}
