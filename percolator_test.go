package percolator

import (
	"context"
	"errors"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/hupe1980/percolator/aggregation"
	"github.com/hupe1980/percolator/blobstore"
	"github.com/hupe1980/percolator/codec"
	"github.com/hupe1980/percolator/document"
	"github.com/hupe1980/percolator/facet"
	"github.com/hupe1980/percolator/highlight"
	"github.com/hupe1980/percolator/query"
	"github.com/hupe1980/percolator/registry"
	"github.com/hupe1980/percolator/resource"
	"github.com/hupe1980/percolator/search"
	"github.com/hupe1980/percolator/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errBroken = errors.New("broken")

type brokenQuery struct{}

func (brokenQuery) String() string { return "broken" }

func (brokenQuery) Evaluate(document.Document) (float32, bool, error) {
	return 0, false, errBroken
}

// fixedTarget matches every query.
type fixedTarget struct{}

func (fixedTarget) Search(_ context.Context, _ search.Query, c search.Collector) error {
	if err := c.Collect(0); err != nil && !errors.Is(err, search.ErrStopCollection) {
		return err
	}
	return nil
}

func newsRegistry(t *testing.T) *registry.Registry {
	t.Helper()
	reg := registry.New(registry.WithShards(1))
	defs := []struct {
		id   string
		def  query.Definition
		meta document.Document
	}{
		{"fox", query.Definition{Type: "match", Field: "body", Text: "fox"}, document.Document{"tag": document.String("animals"), "priority": document.Int(3)}},
		{"dog", query.Definition{Type: "match", Field: "body", Text: "dog"}, document.Document{"tag": document.String("animals"), "priority": document.Int(1)}},
		{"quick", query.Definition{Type: "prefix", Field: "body", Value: "qui"}, document.Document{"tag": document.String("speed"), "priority": document.Int(5)}},
		{"cat", query.Definition{Type: "match", Field: "body", Text: "cat"}, document.Document{"tag": document.String("animals"), "priority": document.Int(9)}},
	}
	for _, d := range defs {
		require.NoError(t, reg.RegisterDefinition(d.id, d.def, d.meta))
	}
	return reg
}

func foxDoc() document.Document {
	return document.Document{"body": document.String("the quick brown fox jumps over the lazy dog")}
}

func TestPercolateModes(t *testing.T) {
	ctx := context.Background()
	p, err := New(newsRegistry(t))
	require.NoError(t, err)
	defer p.Close()

	score := query.FunctionScore(query.MatchAll(), "priority")

	t.Run("match", func(t *testing.T) {
		res, err := p.Percolate(ctx, &Request{Document: foxDoc()})
		require.NoError(t, err)
		assert.Equal(t, ModeMatch, res.Mode)
		assert.Equal(t, 3, res.Total)
		assert.Equal(t, []string{"fox", "dog", "quick"}, res.IDs())
		assert.NotEmpty(t, res.RequestID)
		assert.Positive(t, res.Took)
		assert.NoError(t, res.FaultErr())
	})

	t.Run("count", func(t *testing.T) {
		res, err := p.Percolate(ctx, &Request{Document: foxDoc(), Mode: ModeCount})
		require.NoError(t, err)
		assert.Equal(t, 3, res.Total)
		assert.Empty(t, res.Matches)
	})

	t.Run("score with limit", func(t *testing.T) {
		res, err := p.Percolate(ctx, &Request{Document: foxDoc(), Mode: ModeScore, Score: score, Size: 2, Limit: true})
		require.NoError(t, err)
		assert.Equal(t, 3, res.Total)
		require.Len(t, res.Matches, 2)
		assert.Equal(t, Match{ID: "fox", Score: 3}, res.Matches[0])
		assert.Equal(t, Match{ID: "dog", Score: 1}, res.Matches[1])
	})

	t.Run("sort", func(t *testing.T) {
		res, err := p.Percolate(ctx, &Request{Document: foxDoc(), Mode: ModeSort, Score: score, Size: 2})
		require.NoError(t, err)
		assert.Equal(t, []string{"quick", "fox"}, res.IDs())
		assert.Equal(t, float32(5), res.Matches[0].Score)
		assert.Zero(t, res.Total)
	})

	t.Run("filter", func(t *testing.T) {
		res, err := p.Percolate(ctx, &Request{
			Document: foxDoc(),
			Filter:   query.Term("tag", document.String("animals")),
		})
		require.NoError(t, err)
		assert.Equal(t, []string{"fox", "dog"}, res.IDs())
	})

	t.Run("request id kept", func(t *testing.T) {
		res, err := p.Percolate(ctx, &Request{ID: "req-1", Document: foxDoc(), Mode: ModeCount})
		require.NoError(t, err)
		assert.Equal(t, "req-1", res.RequestID)
	})

	t.Run("shared request", func(t *testing.T) {
		req := &Request{Document: foxDoc(), Mode: ModeCount}

		var wg sync.WaitGroup
		ids := make([]string, 8)
		for i := range ids {
			wg.Add(1)
			go func() {
				defer wg.Done()
				res, err := p.Percolate(ctx, req)
				if assert.NoError(t, err) {
					ids[i] = res.RequestID
				}
			}()
		}
		wg.Wait()

		assert.Empty(t, req.ID)
		slices.Sort(ids)
		assert.Len(t, slices.Compact(ids), 8)
	})
}

func TestPercolateSideResults(t *testing.T) {
	ctx := context.Background()
	p, err := New(newsRegistry(t))
	require.NoError(t, err)
	defer p.Close()

	res, err := p.Percolate(ctx, &Request{
		Document: foxDoc(),
		Mode:     ModeScore,
		Facets: []facet.Entry{
			{Name: "tags", Executor: facet.Terms("tag", 0)},
			{Name: "global", Executor: facet.Terms("tag", 0), Global: true},
		},
		Aggregations: aggregation.Factories{
			aggregation.Stats("prio", "priority"),
			aggregation.Global("all", aggregation.ValueCount("n", "tag")),
		},
		Highlight: &highlight.Options{PreTag: "[", PostTag: "]"},
	})
	require.NoError(t, err)

	require.Len(t, res.Facets, 2)
	tags := res.Facets[0].Result.(*facet.TermsResult)
	assert.Equal(t, []facet.TermCount{{Term: "animals", Count: 2}, {Term: "speed", Count: 1}}, tags.Terms)
	assert.Zero(t, res.Facets[1].Result.(*facet.TermsResult).Total)

	require.Len(t, res.Aggregations, 2)
	prio := res.Aggregations[0].Result.(*aggregation.StatsResult)
	assert.Equal(t, 3, prio.Count)
	assert.InDelta(t, 9.0, prio.Sum, 1e-9)
	assert.Zero(t, res.Aggregations[1].Result.(*aggregation.GlobalResult).DocCount)

	require.Len(t, res.Matches, 3)
	assert.Equal(t, []string{"the quick brown [fox] jumps over the lazy dog"}, res.Matches[0].Highlight["body"].Fragments)
	assert.Equal(t, []string{"the [quick] brown fox jumps over the lazy dog"}, res.Matches[2].Highlight["body"].Fragments)
}

func TestPercolateFaults(t *testing.T) {
	ctx := context.Background()
	reg := newsRegistry(t)
	require.NoError(t, reg.Register("broken", brokenQuery{}, nil))

	metrics := &BasicMetricsCollector{}
	p, err := New(reg, WithMetricsCollector(metrics))
	require.NoError(t, err)
	defer p.Close()

	res, err := p.Percolate(ctx, &Request{Document: foxDoc()})
	require.NoError(t, err)
	assert.Equal(t, 3, res.Total)
	require.Len(t, res.Faults, 1)
	assert.Equal(t, "broken", res.Faults[0].ID)

	ferr := res.FaultErr()
	require.Error(t, ferr)
	assert.ErrorIs(t, ferr, errBroken)

	stats := metrics.GetStats()
	assert.Equal(t, int64(1), stats.PercolateCount)
	assert.Equal(t, int64(3), stats.Matches)
	assert.Equal(t, int64(1), stats.Faults)
}

func TestPercolateValidation(t *testing.T) {
	ctx := context.Background()
	metrics := &BasicMetricsCollector{}
	p, err := New(newsRegistry(t), WithMetricsCollector(metrics))
	require.NoError(t, err)
	defer p.Close()

	_, err = p.Percolate(ctx, nil)
	assert.ErrorIs(t, err, ErrNoTarget)

	_, err = p.Percolate(ctx, &Request{})
	assert.ErrorIs(t, err, ErrNoTarget)

	_, err = p.Percolate(ctx, &Request{Document: foxDoc(), Size: -1})
	assert.ErrorIs(t, err, ErrInvalidSize)

	_, err = p.Percolate(ctx, &Request{Document: foxDoc(), Mode: Mode(42)})
	assert.ErrorIs(t, err, ErrInvalidMode)

	_, err = p.Percolate(ctx, &Request{
		Document:     foxDoc(),
		Aggregations: aggregation.Factories{aggregation.Stats("a", "x"), aggregation.Stats("a", "y")},
	})
	assert.ErrorIs(t, err, aggregation.ErrDuplicateName)

	cctx, cancel := context.WithCancel(ctx)
	cancel()
	_, err = p.Percolate(cctx, &Request{Document: foxDoc()})
	assert.ErrorIs(t, err, context.Canceled)

	assert.Equal(t, int64(6), metrics.GetStats().PercolateErrors)

	_, err = New(nil)
	assert.Error(t, err)
}

func TestPercolateBatch(t *testing.T) {
	ctx := context.Background()
	metrics := &BasicMetricsCollector{}
	p, err := New(newsRegistry(t), WithPoolSize(3), WithMetricsCollector(metrics))
	require.NoError(t, err)
	defer p.Close()

	reqs := []*Request{
		{Document: foxDoc()},
		{Document: document.Document{"body": document.String("a cat")}, Mode: ModeCount},
		{ID: "bad", Document: foxDoc(), Size: -1},
		{Document: document.Document{"body": document.String("nothing")}},
	}
	results, err := p.PercolateBatch(ctx, reqs)
	require.Error(t, err)
	require.Len(t, results, 4)

	assert.Equal(t, []string{"fox", "dog", "quick"}, results[0].IDs())
	assert.Equal(t, 1, results[1].Total)
	assert.Nil(t, results[2])
	assert.Zero(t, results[3].Total)

	var rerr *RequestError
	require.ErrorAs(t, err, &rerr)
	assert.Equal(t, 2, rerr.Index)
	assert.Equal(t, "bad", rerr.RequestID)
	assert.ErrorIs(t, err, ErrInvalidSize)

	assert.Empty(t, reqs[0].ID)
	for i, res := range results {
		if res != nil {
			assert.NotEmpty(t, res.RequestID, i)
		}
	}
	assert.NotEqual(t, results[0].RequestID, results[1].RequestID)

	stats := metrics.GetStats()
	assert.Equal(t, int64(1), stats.BatchCount)
	assert.Equal(t, int64(4), stats.BatchRequests)
	assert.Equal(t, int64(1), stats.BatchFailed)
}

func TestAdmissionControl(t *testing.T) {
	ctx := context.Background()

	t.Run("memory limit", func(t *testing.T) {
		metrics := &BasicMetricsCollector{}
		p, err := New(newsRegistry(t),
			WithResourceConfig(resource.Config{MemoryLimitBytes: 1}),
			WithMetricsCollector(metrics),
		)
		require.NoError(t, err)
		defer p.Close()

		_, err = p.Percolate(ctx, &Request{Document: foxDoc()})
		assert.ErrorIs(t, err, resource.ErrRejected)
		assert.Equal(t, int64(1), metrics.GetStats().Rejected)
		assert.Zero(t, p.Resources().InFlight())
	})

	t.Run("memory wait canceled", func(t *testing.T) {
		p, err := New(newsRegistry(t), WithResourceConfig(resource.Config{MemoryLimitBytes: 1 << 20}))
		require.NoError(t, err)
		defer p.Close()

		require.NoError(t, p.Resources().AcquireMemory(ctx, 1<<20))
		defer p.Resources().ReleaseMemory(1 << 20)

		cctx, cancel := context.WithTimeout(ctx, 20*time.Millisecond)
		defer cancel()
		_, err = p.Percolate(cctx, &Request{Document: foxDoc()})
		assert.ErrorIs(t, err, context.DeadlineExceeded)
	})

	t.Run("slots released", func(t *testing.T) {
		p, err := New(newsRegistry(t), WithResourceConfig(resource.Config{MaxConcurrentRequests: 1}))
		require.NoError(t, err)
		defer p.Close()

		for range 3 {
			_, err := p.Percolate(ctx, &Request{Document: foxDoc(), Mode: ModeCount})
			require.NoError(t, err)
		}
		assert.Zero(t, p.Resources().InFlight())
		assert.Zero(t, p.Resources().MemoryUsage())
	})
}

func TestSnapshot(t *testing.T) {
	ctx := context.Background()
	store := blobstore.NewMemoryStore()

	src, err := New(newsRegistry(t), WithResourceConfig(resource.Config{IOLimitBytesPerSec: 1 << 20}))
	require.NoError(t, err)
	defer src.Close()

	stats, err := src.SaveSnapshot(ctx, store, "queries.snap", registry.WithCompression(codec.LZ4{}))
	require.NoError(t, err)
	assert.Equal(t, 4, stats.Saved)

	dst, err := New(registry.New())
	require.NoError(t, err)
	defer dst.Close()

	n, err := dst.LoadSnapshot(ctx, store, "queries.snap")
	require.NoError(t, err)
	assert.Equal(t, 4, n)

	res, err := dst.Percolate(ctx, &Request{Document: foxDoc(), Mode: ModeCount})
	require.NoError(t, err)
	assert.Equal(t, 3, res.Total)

	_, err = dst.LoadSnapshot(ctx, store, "missing")
	assert.ErrorIs(t, err, blobstore.ErrNotFound)

	_, err = dst.SaveSnapshot(ctx, nil, "x")
	assert.Error(t, err)
}

func TestParseMode(t *testing.T) {
	for _, m := range []Mode{ModeMatch, ModeCount, ModeScore, ModeSort} {
		parsed, err := ParseMode(m.String())
		require.NoError(t, err)
		assert.Equal(t, m, parsed)
	}
	_, err := ParseMode("rank")
	assert.ErrorIs(t, err, ErrInvalidMode)
	assert.Equal(t, "Mode(9)", Mode(9).String())
}

func TestTargetOverride(t *testing.T) {
	p, err := New(newsRegistry(t))
	require.NoError(t, err)
	defer p.Close()

	res, err := p.Percolate(context.Background(), &Request{Target: fixedTarget{}, Mode: ModeCount})
	require.NoError(t, err)
	assert.Equal(t, 4, res.Total)
}

func TestPercolateMatchesBruteForce(t *testing.T) {
	ctx := context.Background()
	rng := testutil.NewRNG(4711)
	fixtures := rng.Queries(500, "body")

	reg := registry.New(registry.WithShards(1))
	for _, f := range fixtures {
		require.NoError(t, reg.RegisterDefinition(f.ID, f.Definition, f.Metadata))
	}
	p, err := New(reg)
	require.NoError(t, err)
	defer p.Close()

	score := query.FunctionScore(query.MatchAll(), "priority")
	for range 20 {
		doc := rng.Document("body", 8)
		want := testutil.BruteForceMatch(fixtures, doc)

		res, err := p.Percolate(ctx, &Request{Document: doc})
		require.NoError(t, err)
		got := res.IDs()
		slices.Sort(got)
		assert.Equal(t, len(want), res.Total)
		if len(want) == 0 {
			assert.Empty(t, got)
		} else {
			assert.Equal(t, want, got)
		}

		res, err = p.Percolate(ctx, &Request{Document: doc, Mode: ModeSort, Size: 10, Score: score})
		require.NoError(t, err)
		top := testutil.BruteForceTopK(fixtures, doc, "priority", 10)
		require.Len(t, res.Matches, len(top))
		for i, m := range res.Matches {
			assert.Equal(t, top[i].ID, m.ID)
			assert.Equal(t, top[i].Score, m.Score)
		}
	}
}
