package percolator

import (
	"context"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/panjf2000/ants/v2"

	"github.com/hupe1980/percolator/aggregation"
	"github.com/hupe1980/percolator/collector"
	"github.com/hupe1980/percolator/highlight"
	"github.com/hupe1980/percolator/registry"
	"github.com/hupe1980/percolator/resource"
	"github.com/hupe1980/percolator/target"
)

// Percolator matches documents against the queries of a registry.
// It is safe for concurrent use.
type Percolator struct {
	registry  *registry.Registry
	logger    *Logger
	metrics   MetricsCollector
	resources *resource.Controller
	pool      *ants.Pool
	highlight highlight.Highlighter
	closed    atomic.Bool
}

// New creates a percolator over reg.
func New(reg *registry.Registry, optFns ...Option) (*Percolator, error) {
	if reg == nil {
		return nil, collector.ErrNoRegistry
	}
	o := applyOptions(optFns)

	poolSize := o.poolSize
	if poolSize < 1 {
		poolSize = runtime.NumCPU()
	}
	pool, err := ants.NewPool(poolSize)
	if err != nil {
		return nil, err
	}

	p := &Percolator{
		registry:  reg,
		logger:    o.logger,
		metrics:   o.metricsCollector,
		pool:      pool,
		highlight: o.highlighter,
	}
	if o.resourceConfig != nil {
		p.resources = resource.NewController(*o.resourceConfig)
	}
	return p, nil
}

// Registry returns the query registry.
func (p *Percolator) Registry() *registry.Registry {
	return p.registry
}

// Resources returns the admission controller, or nil when admission control
// is disabled.
func (p *Percolator) Resources() *resource.Controller {
	return p.resources
}

// Percolate runs one request.
//
// A failing candidate query never fails the request; it is reported in
// Result.Faults. The context is checked between candidate segments.
func (p *Percolator) Percolate(ctx context.Context, req *Request) (*Result, error) {
	return p.run(ctx, req, requestID(req))
}

func (p *Percolator) run(ctx context.Context, req *Request, id string) (*Result, error) {
	start := time.Now()
	res, err := p.percolate(ctx, req, id)
	took := time.Since(start)

	log := p.logger.WithRequestID(id)
	if req != nil {
		log = log.WithMode(req.Mode)
	}
	if res != nil {
		res.Took = took
	}
	log.LogPercolate(ctx, res, took, err)

	var mode Mode
	if req != nil {
		mode = req.Mode
	}
	matches, faults := 0, 0
	if res != nil {
		matches, faults = len(res.Matches), len(res.Faults)
		if res.Mode != ModeSort {
			matches = res.Total
		}
	}
	p.metrics.RecordPercolate(mode, matches, faults, took, err)
	return res, err
}

func (p *Percolator) percolate(ctx context.Context, req *Request, id string) (*Result, error) {
	if p.closed.Load() {
		return nil, ErrClosed
	}
	if req == nil {
		return nil, ErrNoTarget
	}
	if err := req.validate(); err != nil {
		return nil, err
	}

	if err := p.resources.AcquireRequest(ctx); err != nil {
		p.metrics.RecordRejected()
		return nil, err
	}
	defer p.resources.ReleaseRequest()

	reader := p.registry.Reader()
	mem := reader.SizeBytes()
	if err := p.resources.AcquireMemory(ctx, mem); err != nil {
		p.metrics.RecordRejected()
		return nil, err
	}
	defer p.resources.ReleaseMemory(mem)

	pipeline, err := collector.BuildPipeline(req.Facets, req.Aggregations, aggregation.NewContext(reader))
	if err != nil {
		return nil, err
	}

	searcher := req.Target
	if searcher == nil {
		searcher = target.New(req.Document)
	}

	cfg := collector.Config{
		Registry: p.registry,
		Target:   searcher,
		Pipeline: pipeline,
		Size:     req.Size,
		Limit:    req.Limit,
		Logger:   p.logger.WithRequestID(id).Logger,
	}
	if req.Highlight != nil {
		cfg.Highlighter = p.highlight
		if h, ok := searcher.(highlight.Highlighter); ok {
			cfg.Highlighter = h
		}
		cfg.HitContext = highlight.NewHitContext(req.Document, *req.Highlight)
	}

	strategy, err := newStrategy(ctx, req.Mode, cfg)
	if err != nil {
		return nil, translateError(err)
	}

	if err := reader.Search(ctx, req.Filter, req.Score, strategy); err != nil {
		return nil, err
	}
	return newResult(id, req, strategy.Finish(), pipeline), nil
}

func newStrategy(ctx context.Context, mode Mode, cfg collector.Config) (collector.Strategy, error) {
	switch mode {
	case ModeCount:
		return collector.NewCount(ctx, cfg)
	case ModeScore:
		return collector.NewMatchAndScore(ctx, cfg)
	case ModeSort:
		return collector.NewMatchAndSort(ctx, cfg)
	default:
		return collector.NewMatch(ctx, cfg)
	}
}

// PercolateBatch runs independent requests concurrently on the worker pool.
//
// results[i] belongs to reqs[i] and is nil when that request failed. The
// returned error aggregates every failed request as a *RequestError.
func (p *Percolator) PercolateBatch(ctx context.Context, reqs []*Request) ([]*Result, error) {
	if p.closed.Load() {
		return nil, ErrClosed
	}
	start := time.Now()

	results := make([]*Result, len(reqs))
	errs := make([]error, len(reqs))
	ids := make([]string, len(reqs))

	var wg sync.WaitGroup
	for i, req := range reqs {
		ids[i] = requestID(req)
		wg.Add(1)
		if err := p.pool.Submit(func() {
			defer wg.Done()
			results[i], errs[i] = p.run(ctx, req, ids[i])
		}); err != nil {
			wg.Done()
			errs[i] = err
		}
	}
	wg.Wait()

	var merr *multierror.Error
	failed := 0
	for i, err := range errs {
		if err == nil {
			continue
		}
		failed++
		merr = multierror.Append(merr, &RequestError{Index: i, RequestID: ids[i], cause: err})
	}

	took := time.Since(start)
	p.logger.LogBatch(ctx, len(reqs), failed, took)
	p.metrics.RecordBatch(len(reqs), failed, took)
	return results, merr.ErrorOrNil()
}
