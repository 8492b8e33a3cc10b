package resource

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestController_Memory(t *testing.T) {
	// Test with limit
	c := NewController(Config{MemoryLimitBytes: 100})

	err := c.AcquireMemory(context.Background(), 50)
	require.NoError(t, err)
	assert.Equal(t, int64(50), c.MemoryUsage())

	err = c.AcquireMemory(context.Background(), 40)
	require.NoError(t, err)
	assert.Equal(t, int64(90), c.MemoryUsage())

	// TryAcquire 20 (should fail)
	ok := c.TryAcquireMemory(20)
	assert.False(t, ok)
	assert.Equal(t, int64(90), c.MemoryUsage())

	// Acquire 20 (should block/timeout)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	err = c.AcquireMemory(ctx, 20)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	c.ReleaseMemory(50)
	assert.Equal(t, int64(40), c.MemoryUsage())

	err = c.AcquireMemory(context.Background(), 20)
	require.NoError(t, err)
	assert.Equal(t, int64(60), c.MemoryUsage())
}

func TestController_MemoryOverLimit(t *testing.T) {
	c := NewController(Config{MemoryLimitBytes: 64})

	done := make(chan error, 1)
	go func() { done <- c.AcquireMemory(context.Background(), 142) }()

	select {
	case err := <-done:
		require.ErrorIs(t, err, ErrRejected)
		assert.Contains(t, err.Error(), "142 bytes exceeds memory limit of 64 bytes")
	case <-time.After(2 * time.Second):
		t.Fatal("AcquireMemory blocked on a reservation larger than the limit")
	}
	assert.Zero(t, c.MemoryUsage())
	assert.False(t, c.TryAcquireMemory(142))
}

func TestController_UnlimitedMemory(t *testing.T) {
	c := NewController(Config{MemoryLimitBytes: 0})

	err := c.AcquireMemory(context.Background(), 1000)
	require.NoError(t, err)
	assert.Equal(t, int64(1000), c.MemoryUsage())

	c.ReleaseMemory(500)
	assert.Equal(t, int64(500), c.MemoryUsage())
}

func TestController_Requests(t *testing.T) {
	c := NewController(Config{MaxConcurrentRequests: 2})
	assert.Equal(t, 2, c.Config().Burst)

	require.NoError(t, c.AcquireRequest(context.Background()))
	require.NoError(t, c.TryAcquireRequest())
	assert.Equal(t, int64(2), c.InFlight())

	// Try 3rd
	assert.ErrorIs(t, c.TryAcquireRequest(), ErrRejected)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, c.AcquireRequest(ctx), context.DeadlineExceeded)

	c.ReleaseRequest()
	assert.Equal(t, int64(1), c.InFlight())
	assert.NoError(t, c.TryAcquireRequest())
}

func TestController_RequestRate(t *testing.T) {
	c := NewController(Config{RequestsPerSecond: 1, Burst: 1})

	require.NoError(t, c.TryAcquireRequest())
	c.ReleaseRequest()

	// The single token is spent.
	assert.ErrorIs(t, c.TryAcquireRequest(), ErrRejected)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	assert.Error(t, c.AcquireRequest(ctx))
}

func TestController_IO(t *testing.T) {
	c := NewController(Config{IOLimitBytesPerSec: 1 << 20})
	require.NoError(t, c.AcquireIO(context.Background(), 1024))

	unlimited := NewController(Config{})
	require.NoError(t, unlimited.AcquireIO(context.Background(), 1<<30))
}

func TestController_Nil(t *testing.T) {
	var c *Controller
	assert.NoError(t, c.AcquireRequest(context.Background()))
	assert.NoError(t, c.TryAcquireRequest())
	c.ReleaseRequest()
	assert.NoError(t, c.AcquireMemory(context.Background(), 10))
	assert.True(t, c.TryAcquireMemory(10))
	c.ReleaseMemory(10)
	assert.Zero(t, c.MemoryUsage())
	assert.Zero(t, c.InFlight())
	assert.NoError(t, c.AcquireIO(context.Background(), 10))
}
