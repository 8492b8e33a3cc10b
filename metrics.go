package percolator

import (
	"sync/atomic"
	"time"
)

// MetricsCollector defines an interface for collecting operational metrics.
// Implement this interface to integrate with monitoring systems like Prometheus.
type MetricsCollector interface {
	// RecordPercolate is called after each percolation request.
	// matches is the number of confirmed matches (or ranked hits in sort
	// mode), faults the number of candidate queries that failed.
	RecordPercolate(mode Mode, matches, faults int, duration time.Duration, err error)

	// RecordBatch is called after each batch percolation.
	// count is the number of requests, failed the number that failed.
	RecordBatch(count, failed int, duration time.Duration)

	// RecordRejected is called when admission control rejects a request.
	RecordRejected()
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
// Use this when metrics collection is not needed.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordPercolate(Mode, int, int, time.Duration, error) {}
func (NoopMetricsCollector) RecordBatch(int, int, time.Duration)                  {}
func (NoopMetricsCollector) RecordRejected()                                      {}

// BasicMetricsCollector provides simple in-memory metrics collection.
// Useful for debugging and basic monitoring without external dependencies.
type BasicMetricsCollector struct {
	PercolateCount      atomic.Int64
	PercolateErrors     atomic.Int64
	PercolateTotalNanos atomic.Int64
	Matches             atomic.Int64
	Faults              atomic.Int64
	BatchCount          atomic.Int64
	BatchRequests       atomic.Int64
	BatchFailed         atomic.Int64
	Rejected            atomic.Int64
}

// RecordPercolate implements MetricsCollector.
func (b *BasicMetricsCollector) RecordPercolate(_ Mode, matches, faults int, duration time.Duration, err error) {
	b.PercolateCount.Add(1)
	b.PercolateTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.PercolateErrors.Add(1)
		return
	}
	b.Matches.Add(int64(matches))
	b.Faults.Add(int64(faults))
}

// RecordBatch implements MetricsCollector.
func (b *BasicMetricsCollector) RecordBatch(count, failed int, _ time.Duration) {
	b.BatchCount.Add(1)
	b.BatchRequests.Add(int64(count))
	b.BatchFailed.Add(int64(failed))
}

// RecordRejected implements MetricsCollector.
func (b *BasicMetricsCollector) RecordRejected() {
	b.Rejected.Add(1)
}

// GetStats returns a snapshot of current metrics.
func (b *BasicMetricsCollector) GetStats() BasicMetricsStats {
	return BasicMetricsStats{
		PercolateCount:    b.PercolateCount.Load(),
		PercolateErrors:   b.PercolateErrors.Load(),
		PercolateAvgNanos: b.getAvgPercolateNanos(),
		Matches:           b.Matches.Load(),
		Faults:            b.Faults.Load(),
		BatchCount:        b.BatchCount.Load(),
		BatchRequests:     b.BatchRequests.Load(),
		BatchFailed:       b.BatchFailed.Load(),
		Rejected:          b.Rejected.Load(),
	}
}

func (b *BasicMetricsCollector) getAvgPercolateNanos() int64 {
	count := b.PercolateCount.Load()
	if count == 0 {
		return 0
	}
	return b.PercolateTotalNanos.Load() / count
}

// BasicMetricsStats is a snapshot of BasicMetricsCollector state.
type BasicMetricsStats struct {
	PercolateCount    int64
	PercolateErrors   int64
	PercolateAvgNanos int64
	Matches           int64
	Faults            int64
	BatchCount        int64
	BatchRequests     int64
	BatchFailed       int64
	Rejected          int64
}
