package percolator

import "time"

// Close releases the worker pool. Requests started afterwards fail with
// ErrClosed.
func (p *Percolator) Close() error {
	if p == nil {
		return nil
	}
	if !p.closed.CompareAndSwap(false, true) {
		return nil
	}
	return p.pool.ReleaseTimeout(5 * time.Second)
}

// IsClosed reports whether Close was called.
func (p *Percolator) IsClosed() bool {
	return p.closed.Load()
}
