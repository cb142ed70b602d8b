// Package resource bounds the external traffic a matching run may generate
// against an embedding model: a slot semaphore caps in-flight calls and an
// optional rate limiter smooths call frequency. A nil *Controller admits
// every call, so callers never need to branch on whether limits are
// configured.
package resource

import (
	"context"
	"sync/atomic"

	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"
)

// Config holds model call limits.
type Config struct {
	// MaxModelCalls is the maximum number of in-flight model calls.
	// If 0, defaults to 1.
	MaxModelCalls int64

	// ModelCallsPerSec is the sustained model call rate.
	// If 0, unlimited.
	ModelCallsPerSec float64

	// ModelCallBurst is the burst size for the rate limiter.
	// If 0, defaults to MaxModelCalls.
	ModelCallBurst int
}

// Controller manages the model call budget for a run.
type Controller struct {
	cfg Config

	callSem     *semaphore.Weighted
	callLimiter *rate.Limiter // nil if unlimited

	inFlight atomic.Int64
}

// NewController creates a new resource controller.
func NewController(cfg Config) *Controller {
	if cfg.MaxModelCalls <= 0 {
		cfg.MaxModelCalls = 1
	}

	c := &Controller{
		cfg:     cfg,
		callSem: semaphore.NewWeighted(cfg.MaxModelCalls),
	}

	if cfg.ModelCallsPerSec > 0 {
		burst := cfg.ModelCallBurst
		if burst <= 0 {
			burst = int(cfg.MaxModelCalls)
		}

		c.callLimiter = rate.NewLimiter(rate.Limit(cfg.ModelCallsPerSec), burst)
	}

	return c
}

// Acquire reserves a model call slot, waiting on the rate limiter first.
// Blocks until a slot is available or ctx is canceled.
func (c *Controller) Acquire(ctx context.Context) error {
	if c == nil {
		return nil
	}

	if c.callLimiter != nil {
		if err := c.callLimiter.Wait(ctx); err != nil {
			return err
		}
	}

	if err := c.callSem.Acquire(ctx, 1); err != nil {
		return err
	}

	c.inFlight.Add(1)

	return nil
}

// TryAcquire reserves a model call slot without blocking.
// Returns true if acquired, false if the budget is exhausted.
func (c *Controller) TryAcquire() bool {
	if c == nil {
		return true
	}

	if c.callLimiter != nil && !c.callLimiter.Allow() {
		return false
	}

	if !c.callSem.TryAcquire(1) {
		return false
	}

	c.inFlight.Add(1)

	return true
}

// Release returns a model call slot.
func (c *Controller) Release() {
	if c == nil {
		return
	}

	c.callSem.Release(1)
	c.inFlight.Add(-1)
}

// InFlight returns the number of calls currently holding a slot.
func (c *Controller) InFlight() int64 {
	if c == nil {
		return 0
	}

	return c.inFlight.Load()
}
