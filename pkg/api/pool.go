package api

import (
	"context"
	"sync/atomic"
	"time"
)

// WorkerPool limits concurrent request processing. Move analysis runs in
// the fast pool, rollouts in the slow pool.
type WorkerPool struct {
	fastSem      chan struct{}
	slowSem      chan struct{}
	queueTimeout time.Duration

	queuedFast atomic.Int64
	queuedSlow atomic.Int64
	activeFast atomic.Int64
	activeSlow atomic.Int64
	totalFast  atomic.Int64
	totalSlow  atomic.Int64
	rejected   atomic.Int64
}

// PoolConfig configures the worker pool.
type PoolConfig struct {
	MaxFastWorkers int           // Max concurrent move analyses (default: 100)
	MaxSlowWorkers int           // Max concurrent rollouts (default: 4)
	QueueTimeout   time.Duration // Max wait for a slot (default: 5s)
}

// DefaultPoolConfig returns a PoolConfig with sensible defaults.
func DefaultPoolConfig() PoolConfig {
	return PoolConfig{
		MaxFastWorkers: 100,
		MaxSlowWorkers: 4,
		QueueTimeout:   5 * time.Second,
	}
}

// NewWorkerPool creates a new worker pool with the given configuration.
func NewWorkerPool(config PoolConfig) *WorkerPool {
	defaults := DefaultPoolConfig()
	if config.MaxFastWorkers <= 0 {
		config.MaxFastWorkers = defaults.MaxFastWorkers
	}
	if config.MaxSlowWorkers <= 0 {
		config.MaxSlowWorkers = defaults.MaxSlowWorkers
	}
	if config.QueueTimeout <= 0 {
		config.QueueTimeout = defaults.QueueTimeout
	}

	return &WorkerPool{
		fastSem:      make(chan struct{}, config.MaxFastWorkers),
		slowSem:      make(chan struct{}, config.MaxSlowWorkers),
		queueTimeout: config.QueueTimeout,
	}
}

func (p *WorkerPool) acquire(ctx context.Context, sem chan struct{}, queued, active *atomic.Int64) error {
	queued.Add(1)
	defer queued.Add(-1)

	ctx, cancel := context.WithTimeout(ctx, p.queueTimeout)
	defer cancel()

	select {
	case sem <- struct{}{}:
		active.Add(1)
		return nil
	case <-ctx.Done():
		p.rejected.Add(1)
		return ctx.Err()
	}
}

// AcquireFast acquires a slot for a fast operation. It fails when ctx is
// cancelled or no slot frees up within the queue timeout.
func (p *WorkerPool) AcquireFast(ctx context.Context) error {
	return p.acquire(ctx, p.fastSem, &p.queuedFast, &p.activeFast)
}

// ReleaseFast releases a fast operation slot.
func (p *WorkerPool) ReleaseFast() {
	p.activeFast.Add(-1)
	p.totalFast.Add(1)
	<-p.fastSem
}

// AcquireSlow acquires a slot for a slow operation. It fails when ctx is
// cancelled or no slot frees up within the queue timeout.
func (p *WorkerPool) AcquireSlow(ctx context.Context) error {
	return p.acquire(ctx, p.slowSem, &p.queuedSlow, &p.activeSlow)
}

// ReleaseSlow releases a slow operation slot.
func (p *WorkerPool) ReleaseSlow() {
	p.activeSlow.Add(-1)
	p.totalSlow.Add(1)
	<-p.slowSem
}

// TryAcquireFast tries to acquire a fast slot without blocking.
func (p *WorkerPool) TryAcquireFast() bool {
	select {
	case p.fastSem <- struct{}{}:
		p.activeFast.Add(1)
		return true
	default:
		return false
	}
}

// TryAcquireSlow tries to acquire a slow slot without blocking.
func (p *WorkerPool) TryAcquireSlow() bool {
	select {
	case p.slowSem <- struct{}{}:
		p.activeSlow.Add(1)
		return true
	default:
		return false
	}
}

// PoolStats is a snapshot of pool counters.
type PoolStats struct {
	ActiveFast int64 `json:"active_fast"`
	ActiveSlow int64 `json:"active_slow"`
	QueuedFast int64 `json:"queued_fast"`
	QueuedSlow int64 `json:"queued_slow"`
	TotalFast  int64 `json:"total_fast"`
	TotalSlow  int64 `json:"total_slow"`
	Rejected   int64 `json:"rejected"`
	MaxFast    int   `json:"max_fast"`
	MaxSlow    int   `json:"max_slow"`
}

// Stats returns current pool statistics.
func (p *WorkerPool) Stats() PoolStats {
	return PoolStats{
		ActiveFast: p.activeFast.Load(),
		ActiveSlow: p.activeSlow.Load(),
		QueuedFast: p.queuedFast.Load(),
		QueuedSlow: p.queuedSlow.Load(),
		TotalFast:  p.totalFast.Load(),
		TotalSlow:  p.totalSlow.Load(),
		Rejected:   p.rejected.Load(),
		MaxFast:    cap(p.fastSem),
		MaxSlow:    cap(p.slowSem),
	}
}
