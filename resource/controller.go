// Package resource provides admission control for percolation requests.
package resource

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"
)

// ErrRejected is returned when a request can not be admitted: no request
// slot is free, or its memory reservation exceeds the hard limit.
var ErrRejected = errors.New("resource: request rejected")

// Config holds resource limits.
type Config struct {
	// MemoryLimitBytes is the hard limit for candidate snapshot memory.
	// If 0, no hard limit is enforced (only tracking).
	MemoryLimitBytes int64

	// MaxConcurrentRequests is the maximum number of in-flight requests.
	// If 0, defaults to 64.
	MaxConcurrentRequests int64

	// RequestsPerSecond limits the admission rate. If 0, unlimited.
	RequestsPerSecond float64

	// Burst is the admission burst size. Defaults to MaxConcurrentRequests.
	Burst int

	// IOLimitBytesPerSec is the maximum throughput of snapshot transfers.
	// If 0, unlimited.
	IOLimitBytesPerSec int64
}

// DefaultMaxConcurrentRequests is used when Config.MaxConcurrentRequests is 0.
const DefaultMaxConcurrentRequests = 64

// Controller manages request slots, request rate, memory and IO.
type Controller struct {
	cfg Config

	// Memory
	memSem  *semaphore.Weighted // nil if unlimited
	memUsed atomic.Int64

	// Requests
	reqSem      *semaphore.Weighted
	reqLimiter  *rate.Limiter // nil if unlimited
	reqInFlight atomic.Int64

	// IO
	ioLimiter *rate.Limiter
}

// NewController creates a new resource controller.
func NewController(cfg Config) *Controller {
	if cfg.MaxConcurrentRequests <= 0 {
		cfg.MaxConcurrentRequests = DefaultMaxConcurrentRequests
	}
	if cfg.Burst <= 0 {
		cfg.Burst = int(cfg.MaxConcurrentRequests)
	}

	c := &Controller{
		cfg:    cfg,
		reqSem: semaphore.NewWeighted(cfg.MaxConcurrentRequests),
	}

	if cfg.MemoryLimitBytes > 0 {
		c.memSem = semaphore.NewWeighted(cfg.MemoryLimitBytes)
	}

	if cfg.RequestsPerSecond > 0 {
		c.reqLimiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), cfg.Burst)
	}

	if cfg.IOLimitBytesPerSec > 0 {
		c.ioLimiter = rate.NewLimiter(rate.Limit(cfg.IOLimitBytesPerSec), int(cfg.IOLimitBytesPerSec))
	}

	return c
}

// Config returns the effective configuration.
func (c *Controller) Config() Config {
	return c.cfg
}

// AcquireMemory attempts to reserve memory.
// If a hard limit is configured and usage would exceed it,
// this blocks until memory is available or ctx is canceled.
// A reservation larger than the limit itself fails with ErrRejected.
func (c *Controller) AcquireMemory(ctx context.Context, bytes int64) error {
	if c == nil {
		return nil
	}
	if bytes <= 0 {
		return nil
	}

	if c.memSem != nil {
		if bytes > c.cfg.MemoryLimitBytes {
			return fmt.Errorf("%w: %d bytes exceeds memory limit of %d bytes", ErrRejected, bytes, c.cfg.MemoryLimitBytes)
		}
		if err := c.memSem.Acquire(ctx, bytes); err != nil {
			return err
		}
	}

	c.memUsed.Add(bytes)
	return nil
}

// TryAcquireMemory attempts to reserve memory without blocking.
// Returns true if acquired, false if limit would be exceeded.
func (c *Controller) TryAcquireMemory(bytes int64) bool {
	if c == nil {
		return true
	}
	if bytes <= 0 {
		return true
	}

	if c.memSem != nil {
		if !c.memSem.TryAcquire(bytes) {
			return false
		}
	}

	c.memUsed.Add(bytes)
	return true
}

// ReleaseMemory releases reserved memory.
func (c *Controller) ReleaseMemory(bytes int64) {
	if c == nil {
		return
	}
	if bytes <= 0 {
		return
	}

	if c.memSem != nil {
		c.memSem.Release(bytes)
	}
	c.memUsed.Add(-bytes)
}

// MemoryUsage returns the current memory usage in bytes.
func (c *Controller) MemoryUsage() int64 {
	if c == nil {
		return 0
	}
	return c.memUsed.Load()
}

// AcquireRequest admits a request. It waits for the rate limiter and then
// for a free request slot, or until ctx is canceled.
func (c *Controller) AcquireRequest(ctx context.Context) error {
	if c == nil {
		return nil
	}
	if c.reqLimiter != nil {
		if err := c.reqLimiter.Wait(ctx); err != nil {
			return err
		}
	}
	if err := c.reqSem.Acquire(ctx, 1); err != nil {
		return err
	}
	c.reqInFlight.Add(1)
	return nil
}

// TryAcquireRequest admits a request without blocking.
func (c *Controller) TryAcquireRequest() error {
	if c == nil {
		return nil
	}
	if c.reqLimiter != nil && !c.reqLimiter.Allow() {
		return ErrRejected
	}
	if !c.reqSem.TryAcquire(1) {
		return ErrRejected
	}
	c.reqInFlight.Add(1)
	return nil
}

// ReleaseRequest releases a request slot.
func (c *Controller) ReleaseRequest() {
	if c == nil {
		return
	}
	c.reqInFlight.Add(-1)
	c.reqSem.Release(1)
}

// InFlight returns the number of admitted requests not yet released.
func (c *Controller) InFlight() int64 {
	if c == nil {
		return 0
	}
	return c.reqInFlight.Load()
}

// AcquireIO waits until the IO limit allows the specified number of bytes.
// Transfers larger than the burst are admitted in burst-sized steps.
func (c *Controller) AcquireIO(ctx context.Context, bytes int) error {
	if c == nil || c.ioLimiter == nil {
		return nil
	}
	burst := c.ioLimiter.Burst()
	for bytes > 0 {
		n := min(bytes, burst)
		if err := c.ioLimiter.WaitN(ctx, n); err != nil {
			return err
		}
		bytes -= n
	}
	return nil
}
