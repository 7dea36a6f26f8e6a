package core

import (
	"context"
	"sync/atomic"
	"time"
)

// =============================================================================
// ThreadPool: Define task execution interface
// =============================================================================

// ThreadPool executes the run loops of SequencedTaskRunners and owns the
// clock used for delayed tasks.
type ThreadPool interface {
	PostInternal(task Task)
	PostDelayedInternal(task Task, delay time.Duration, target TaskRunner) DelayedTaskHandle
}

// GoroutineThreadPool runs every posted task on a fresh goroutine and uses
// time.AfterFunc for delays. It has no workers to start or stop.
type GoroutineThreadPool struct {
	id      string
	ctx     context.Context
	active  atomic.Int32
	delayed atomic.Int32
}

// NewGoroutineThreadPool creates a pool whose tasks receive ctx.
func NewGoroutineThreadPool(id string, ctx context.Context) *GoroutineThreadPool {
	if ctx == nil {
		ctx = context.Background()
	}
	return &GoroutineThreadPool{id: id, ctx: ctx}
}

var defaultThreadPool = NewGoroutineThreadPool("default", context.Background())

// DefaultThreadPool returns the shared goroutine pool used when a Config
// does not name one. It holds no per-run state.
func DefaultThreadPool() *GoroutineThreadPool {
	return defaultThreadPool
}

// ID returns the pool identifier
func (p *GoroutineThreadPool) ID() string {
	return p.id
}

// ActiveTaskCount returns the number of tasks currently executing.
func (p *GoroutineThreadPool) ActiveTaskCount() int {
	return int(p.active.Load())
}

// DelayedTaskCount returns the number of delayed tasks not yet posted.
func (p *GoroutineThreadPool) DelayedTaskCount() int {
	return int(p.delayed.Load())
}

// PoolStats is a point-in-time snapshot of a GoroutineThreadPool.
type PoolStats struct {
	ID      string
	Active  int
	Delayed int
}

// Stats returns a snapshot of the pool counters.
func (p *GoroutineThreadPool) Stats() PoolStats {
	return PoolStats{
		ID:      p.id,
		Active:  p.ActiveTaskCount(),
		Delayed: p.DelayedTaskCount(),
	}
}

func (p *GoroutineThreadPool) PostInternal(task Task) {
	p.active.Add(1)
	go func() {
		defer p.active.Add(-1)
		task(p.ctx)
	}()
}

func (p *GoroutineThreadPool) PostDelayedInternal(task Task, delay time.Duration, target TaskRunner) DelayedTaskHandle {
	h := &timerHandle{pool: p}
	p.delayed.Add(1)
	h.timer = time.AfterFunc(delay, func() {
		if h.fired.CompareAndSwap(false, true) {
			p.delayed.Add(-1)
			target.PostTask(task)
		}
	})
	return h
}

type timerHandle struct {
	pool  *GoroutineThreadPool
	timer *time.Timer
	fired atomic.Bool
}

func (h *timerHandle) Stop() bool {
	if !h.fired.CompareAndSwap(false, true) {
		return false
	}
	h.pool.delayed.Add(-1)
	h.timer.Stop()
	return true
}
