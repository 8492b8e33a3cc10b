package collector

import (
	"context"
	"fmt"
	"testing"

	"github.com/hupe1980/percolator/aggregation"
	"github.com/hupe1980/percolator/document"
	"github.com/hupe1980/percolator/facet"
	"github.com/hupe1980/percolator/index"
	"github.com/hupe1980/percolator/query"
	"github.com/hupe1980/percolator/search"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockCollector struct {
	mock.Mock
	name string
	log  *[]string
}

func (m *mockCollector) SetNextReader(leaf search.LeafReader) error {
	*m.log = append(*m.log, m.name+":reader")
	return m.Called(leaf.Ord()).Error(0)
}

func (m *mockCollector) SetScorer(search.Scorer) {
	*m.log = append(*m.log, m.name+":scorer")
	m.Called()
}

func (m *mockCollector) Collect(doc int) error {
	*m.log = append(*m.log, fmt.Sprintf("%s:collect:%d", m.name, doc))
	return m.Called(doc).Error(0)
}

type mockExecutor struct {
	mock.Mock
}

func (m *mockExecutor) Collector() search.Collector {
	return m.Called().Get(0).(search.Collector)
}

func (m *mockExecutor) Result() facet.Result {
	r, _ := m.Called().Get(0).(facet.Result)
	return r
}

type stubResult struct{}

func (stubResult) FacetType() string { return "stub" }

func pipelineRegistry(t *testing.T) (*index.Reader, Lookup) {
	t.Helper()
	reg := newRegistry(t,
		entry{id: "q0", q: query.MatchAll(), meta: document.Document{"tag": document.String("news"), "w": document.Int(2)}},
		entry{id: "q1", q: query.MatchNone(), meta: document.Document{"tag": document.String("news"), "w": document.Int(3)}},
		entry{id: "q2", q: query.MatchAll(), meta: document.Document{"tag": document.String("sport"), "w": document.Int(4)}},
	)
	return reg.Reader(), reg
}

func TestPipelineForwarding(t *testing.T) {
	ctx := context.Background()
	reader, reg := pipelineRegistry(t)

	for name, build := range map[string]func(Config) (Strategy, error){
		"match": func(c Config) (Strategy, error) { return NewMatch(ctx, c) },
		"count": func(c Config) (Strategy, error) { return NewCount(ctx, c) },
		"score": func(c Config) (Strategy, error) { return NewMatchAndScore(ctx, c) },
		"sort":  func(c Config) (Strategy, error) { return NewMatchAndSort(ctx, c) },
	} {
		t.Run(name, func(t *testing.T) {
			var log []string
			side := &mockCollector{name: "side", log: &log}
			side.On("SetNextReader", 0).Return(nil).Once()
			side.On("SetScorer").Once()
			side.On("Collect", 0).Return(nil).Once()
			side.On("Collect", 2).Return(nil).Once()

			exec := &mockExecutor{}
			exec.On("Collector").Return(side).Once()
			exec.On("Result").Return(stubResult{}).Once()

			global := &mockExecutor{}
			global.On("Result").Return(stubResult{}).Once()

			p, err := BuildPipeline([]facet.Entry{
				{Name: "side", Executor: exec},
				{Name: "global", Executor: global, Global: true},
			}, nil, nil)
			require.NoError(t, err)
			assert.Equal(t, 1, p.Len())

			s, err := build(Config{Registry: reg, Target: targetDoc(), Pipeline: p, Size: 10})
			require.NoError(t, err)
			require.NoError(t, reader.Search(ctx, nil, nil, s))
			s.Finish()

			assert.Equal(t, []string{"side:reader", "side:scorer", "side:collect:0", "side:collect:2"}, log)
			side.AssertExpectations(t)
			side.AssertNotCalled(t, "Collect", 1)

			facets := p.FacetResults()
			require.Len(t, facets, 2)
			assert.Equal(t, "global", facets[1].Name)
			exec.AssertExpectations(t)
			global.AssertExpectations(t)
			global.AssertNotCalled(t, "Collector")
		})
	}
}

func TestPipelineAggregations(t *testing.T) {
	ctx := context.Background()
	reader, reg := pipelineRegistry(t)
	actx := aggregation.NewContext(reader)

	p, err := BuildPipeline(nil, aggregation.Factories{
		aggregation.Terms("tags", "tag", 0),
		aggregation.Stats("score", aggregation.ScoreField),
		aggregation.Terms("unmapped", "missing", 0),
		aggregation.Global("all", aggregation.ValueCount("n", "tag")),
	}, actx)
	require.NoError(t, err)
	assert.Equal(t, 1, p.Len())

	s, err := NewMatchAndScore(ctx, Config{Registry: reg, Target: targetDoc(), Pipeline: p})
	require.NoError(t, err)
	require.NoError(t, reader.Search(ctx, nil, query.FunctionScore(query.MatchAll(), "w"), s))
	r := s.Finish()
	assert.Equal(t, []float32{2, 4}, r.Scores)

	aggs := p.AggregationResults()
	require.Len(t, aggs, 4)

	terms := aggs[0].Result.(*aggregation.TermsResult)
	assert.Equal(t, []aggregation.Bucket{{Key: "news", DocCount: 1}, {Key: "sport", DocCount: 1}}, terms.Buckets)

	stats := aggs[1].Result.(*aggregation.StatsResult)
	assert.Equal(t, 2, stats.Count)
	assert.InDelta(t, 6.0, stats.Sum, 1e-6)

	assert.Empty(t, aggs[2].Result.(*aggregation.TermsResult).Buckets)
	assert.Zero(t, aggs[3].Result.(*aggregation.GlobalResult).DocCount)
}

func TestPipelineFacetFilters(t *testing.T) {
	ctx := context.Background()
	reader, reg := pipelineRegistry(t)
	newsOnly := index.NewQueryFilter(query.Term("tag", document.String("news")))
	sportOnly := index.NewQueryFilter(query.Term("tag", document.String("sport")))

	plain := facet.Terms("tag", 0)
	filtered := facet.Terms("tag", 0)
	nested := facet.Nested(facet.Terms("tag", 0), newsOnly)
	stats := facet.Statistical(facet.ScoreField)

	p, err := BuildPipeline([]facet.Entry{
		{Name: "plain", Executor: plain},
		{Name: "filtered", Executor: filtered, Filter: sportOnly},
		{Name: "nested", Executor: nested, Filter: sportOnly},
		{Name: "stats", Executor: stats},
	}, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, 4, p.Len())

	s, err := NewCount(ctx, Config{Registry: reg, Target: targetDoc(), Pipeline: p})
	require.NoError(t, err)
	require.NoError(t, reader.Search(ctx, nil, nil, s))
	assert.Equal(t, 2, s.Finish().Counter)

	results := p.FacetResults()
	require.Len(t, results, 4)

	assert.Equal(t, 2, results[0].Result.(*facet.TermsResult).Total)
	assert.Equal(t, []facet.TermCount{{Term: "sport", Count: 1}}, results[1].Result.(*facet.TermsResult).Terms)

	inner := results[2].Result.(*facet.NestedResult).Inner.(*facet.TermsResult)
	assert.Zero(t, inner.Total)

	assert.Equal(t, 2, results[3].Result.(*facet.StatisticalResult).Count)
}

func TestPipelineErrors(t *testing.T) {
	t.Run("duplicate aggregation", func(t *testing.T) {
		_, err := BuildPipeline(nil, aggregation.Factories{
			aggregation.Terms("a", "tag", 0),
			aggregation.Terms("a", "tag", 0),
		}, nil)
		assert.ErrorIs(t, err, aggregation.ErrDuplicateName)
	})

	t.Run("collect error surfaces", func(t *testing.T) {
		ctx := context.Background()
		reader, reg := pipelineRegistry(t)

		var log []string
		side := &mockCollector{name: "side", log: &log}
		side.On("SetNextReader", 0).Return(nil)
		side.On("SetScorer")
		side.On("Collect", 0).Return(assert.AnError)

		exec := &mockExecutor{}
		exec.On("Collector").Return(side)

		p, err := BuildPipeline([]facet.Entry{{Name: "side", Executor: exec}}, nil, nil)
		require.NoError(t, err)

		s, err := NewMatch(ctx, Config{Registry: reg, Target: targetDoc(), Pipeline: p})
		require.NoError(t, err)
		assert.ErrorIs(t, reader.Search(ctx, nil, nil, s), assert.AnError)
	})

	t.Run("nil pipeline", func(t *testing.T) {
		var p *Pipeline
		assert.Zero(t, p.Len())
		assert.NoError(t, p.PostMatch(0))
		assert.Nil(t, p.FacetResults())
		assert.Nil(t, p.AggregationResults())
	})
}
