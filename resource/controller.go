package resource

import (
	"context"

	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"
)

// Config holds resource limits.
type Config struct {
	// MaxPromoteWorkers is the maximum number of units moved concurrently
	// during a staged promotion. If 0, defaults to 1.
	MaxPromoteWorkers int64

	// IOLimitBytesPerSec is the maximum write throughput for sinks wrapped
	// in a Throttled. If 0, unlimited.
	IOLimitBytesPerSec int64
}

// Controller manages shared limits across sinks. A nil Controller enforces
// nothing, every acquire succeeds immediately.
type Controller struct {
	cfg Config

	promoteSem *semaphore.Weighted
	ioLimiter  *rate.Limiter
}

// NewController creates a new resource controller.
func NewController(cfg Config) *Controller {
	if cfg.MaxPromoteWorkers <= 0 {
		cfg.MaxPromoteWorkers = 1
	}

	c := &Controller{
		cfg:        cfg,
		promoteSem: semaphore.NewWeighted(cfg.MaxPromoteWorkers),
	}

	if cfg.IOLimitBytesPerSec > 0 {
		c.ioLimiter = rate.NewLimiter(rate.Limit(cfg.IOLimitBytesPerSec), int(cfg.IOLimitBytesPerSec))
	}

	return c
}

// AcquirePromote reserves a promotion worker slot.
// Blocks until a slot frees up or ctx is canceled.
func (c *Controller) AcquirePromote(ctx context.Context) error {
	if c == nil {
		return nil
	}
	return c.promoteSem.Acquire(ctx, 1)
}

// TryAcquirePromote reserves a promotion worker slot without blocking.
func (c *Controller) TryAcquirePromote() bool {
	if c == nil {
		return true
	}
	return c.promoteSem.TryAcquire(1)
}

// ReleasePromote releases a promotion worker slot.
func (c *Controller) ReleasePromote() {
	if c == nil {
		return
	}
	c.promoteSem.Release(1)
}

// AcquireIO waits until the IO limit allows the specified number of bytes.
func (c *Controller) AcquireIO(ctx context.Context, bytes int) error {
	if c == nil || c.ioLimiter == nil {
		return nil
	}

	// WaitN cannot exceed the burst, split large requests
	burst := c.ioLimiter.Burst()
	for bytes > 0 {
		n := bytes
		if n > burst {
			n = burst
		}
		if err := c.ioLimiter.WaitN(ctx, n); err != nil {
			return err
		}
		bytes -= n
	}
	return nil
}
