package percolator_test

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"testing"
	"time"

	"github.com/hupe1980/percolator"
	"github.com/hupe1980/percolator/document"
	"github.com/hupe1980/percolator/query"
	"github.com/hupe1980/percolator/registry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRegistry(t *testing.T, n int) *registry.Registry {
	t.Helper()
	reg := registry.New()
	for i := 0; i < n; i++ {
		def := query.Definition{Type: "match", Field: "body", Text: fmt.Sprintf("word%d", i%5)}
		require.NoError(t, reg.RegisterDefinition(fmt.Sprintf("q%03d", i), def, document.Document{
			"priority": document.Int(int64(i % 7)),
		}))
	}
	return reg
}

// TestNoGoroutineLeaks verifies that the batch worker pool is stopped by Close.
func TestNoGoroutineLeaks(t *testing.T) {
	before := runtime.NumGoroutine()

	p, err := percolator.New(newTestRegistry(t, 50), percolator.WithPoolSize(4))
	require.NoError(t, err)

	reqs := make([]*percolator.Request, 16)
	for i := range reqs {
		reqs[i] = &percolator.Request{Document: document.Document{"body": document.String("word1 word3")}}
	}
	_, err = p.PercolateBatch(context.Background(), reqs)
	require.NoError(t, err)

	require.NoError(t, p.Close())

	assert.Eventually(t, func() bool {
		return runtime.NumGoroutine() <= before+2
	}, 2*time.Second, 20*time.Millisecond)
}

// TestCloseIdempotent verifies that calling Close() multiple times is safe.
func TestCloseIdempotent(t *testing.T) {
	p, err := percolator.New(newTestRegistry(t, 5))
	require.NoError(t, err)

	err1 := p.Close()
	err2 := p.Close()
	err3 := p.Close()

	assert.NoError(t, err1, "First close should succeed")
	assert.NoError(t, err2, "Second close should be idempotent")
	assert.NoError(t, err3, "Third close should be idempotent")
	assert.True(t, p.IsClosed())

	var nilPercolator *percolator.Percolator
	assert.NoError(t, nilPercolator.Close())
}

// TestClosedRejectsRequests verifies that requests after Close fail with ErrClosed.
func TestClosedRejectsRequests(t *testing.T) {
	p, err := percolator.New(newTestRegistry(t, 5))
	require.NoError(t, err)
	require.NoError(t, p.Close())

	ctx := context.Background()
	req := &percolator.Request{Document: document.Document{"body": document.String("word1")}}

	_, err = p.Percolate(ctx, req)
	assert.ErrorIs(t, err, percolator.ErrClosed)

	_, err = p.PercolateBatch(ctx, []*percolator.Request{req})
	assert.ErrorIs(t, err, percolator.ErrClosed)
}

// TestCloseWithActiveOperations verifies graceful shutdown during active requests.
func TestCloseWithActiveOperations(t *testing.T) {
	p, err := percolator.New(newTestRegistry(t, 200), percolator.WithPoolSize(2))
	require.NoError(t, err)

	ctx := context.Background()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 100; i++ {
			_, err := p.Percolate(ctx, &percolator.Request{
				Document: document.Document{"body": document.String(fmt.Sprintf("word%d", i%5))},
			})
			if err != nil {
				assert.ErrorIs(t, err, percolator.ErrClosed)
			}
		}
	}()

	time.Sleep(5 * time.Millisecond)

	assert.NoError(t, p.Close(), "Close should succeed even with active requests")
	wg.Wait()
}
