package percolator

import (
	"log/slog"

	"github.com/hupe1980/percolator/highlight"
	"github.com/hupe1980/percolator/resource"
)

type options struct {
	metricsCollector MetricsCollector
	logger           *Logger
	resourceConfig   *resource.Config
	poolSize         int
	highlighter      highlight.Highlighter
}

// Option configures a Percolator.
type Option func(*options)

// WithMetricsCollector configures a metrics collector for monitoring requests.
// Pass nil to disable metrics collection.
//
// Example with BasicMetricsCollector:
//
//	metrics := &percolator.BasicMetricsCollector{}
//	p, _ := percolator.New(reg, percolator.WithMetricsCollector(metrics))
//	// ... percolate ...
//	stats := metrics.GetStats()
//	fmt.Printf("Requests: %d, Avg latency: %dns\n", stats.PercolateCount, stats.PercolateAvgNanos)
func WithMetricsCollector(mc MetricsCollector) Option {
	return func(o *options) {
		if mc == nil {
			mc = NoopMetricsCollector{}
		}
		o.metricsCollector = mc
	}
}

// WithLogger configures structured logging.
// Pass nil to disable logging.
//
// Example with JSON logging:
//
//	logger := percolator.NewJSONLogger(slog.LevelInfo)
//	p, _ := percolator.New(reg, percolator.WithLogger(logger))
func WithLogger(logger *Logger) Option {
	return func(o *options) {
		if logger == nil {
			logger = NoopLogger()
		}
		o.logger = logger
	}
}

// WithLogLevel creates a text logger with the specified level and sets it.
// Convenience wrapper for WithLogger(NewTextLogger(level)).
func WithLogLevel(level slog.Level) Option {
	return func(o *options) {
		o.logger = NewTextLogger(level)
	}
}

// WithResourceConfig enables admission control: concurrent request slots,
// request rate and candidate snapshot memory.
func WithResourceConfig(cfg resource.Config) Option {
	return func(o *options) {
		o.resourceConfig = &cfg
	}
}

// WithPoolSize sets the number of workers used by PercolateBatch.
// Values below 1 select runtime.NumCPU().
func WithPoolSize(n int) Option {
	return func(o *options) {
		o.poolSize = n
	}
}

// WithHighlighter replaces the default term highlighter.
func WithHighlighter(h highlight.Highlighter) Option {
	return func(o *options) {
		if h != nil {
			o.highlighter = h
		}
	}
}

func applyOptions(optFns []Option) options {
	o := options{
		metricsCollector: NoopMetricsCollector{},
		logger:           NoopLogger(),
		highlighter:      highlight.NewTermHighlighter(),
	}
	for _, fn := range optFns {
		if fn != nil {
			fn(&o)
		}
	}
	return o
}
