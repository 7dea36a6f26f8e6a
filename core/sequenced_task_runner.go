package core

import (
	"context"
	"fmt"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"
)

// SequencedTaskRunner executes posted tasks one at a time in FIFO order.
// Tasks never run on the poster's stack: each turn is handed to the thread
// pool, so posting from inside a task only queues work for a later turn.
type SequencedTaskRunner struct {
	threadPool    ThreadPool
	queue         *FIFOTaskQueue
	mu            sync.Mutex
	isRunning     bool
	activeRunners int32       // atomic guard for concurrency assertion
	closed        atomic.Bool // indicates if the runner is closed

	name         string
	panicHandler PanicHandler
}

func NewSequencedTaskRunner(threadPool ThreadPool) *SequencedTaskRunner {
	if threadPool == nil {
		threadPool = DefaultThreadPool()
	}
	return &SequencedTaskRunner{
		threadPool:   threadPool,
		queue:        NewFIFOTaskQueue(),
		panicHandler: &DefaultPanicHandler{},
	}
}

// SetName sets the name reported to the panic handler
func (r *SequencedTaskRunner) SetName(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.name = name
}

// Name returns the name of the task runner
func (r *SequencedTaskRunner) Name() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.name
}

// SetPanicHandler replaces the handler notified when a task panics.
func (r *SequencedTaskRunner) SetPanicHandler(h PanicHandler) {
	if h == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.panicHandler = h
}

// PendingTaskCount returns the number of queued tasks.
func (r *SequencedTaskRunner) PendingTaskCount() int {
	return r.queue.Len()
}

func (r *SequencedTaskRunner) PostDelayedTask(task Task, delay time.Duration) DelayedTaskHandle {
	return r.threadPool.PostDelayedInternal(task, delay, r)
}

// PostTask submits task
func (r *SequencedTaskRunner) PostTask(task Task) {
	if r.closed.Load() {
		return
	}
	r.queue.Push(task)
	r.scheduleRunLoop()
}

func (r *SequencedTaskRunner) runLoop(ctx context.Context) {
	// Assertion: Ensure strictly one goroutine at a time
	if n := atomic.AddInt32(&r.activeRunners, 1); n > 1 {
		panic(fmt.Sprintf("SequencedTaskRunner: concurrent runLoop detected (count=%d)", n))
	}
	defer atomic.AddInt32(&r.activeRunners, -1)

	runCtx := context.WithValue(ctx, taskRunnerKey, r)

	// 1. Fetch SINGLE task
	task, ok := r.queue.Pop()
	if ok {
		// 2. Execute ONE task
		r.execute(runCtx, task)
	}

	// 3. Repost if there are more tasks (Yield)
	r.mu.Lock()
	more := !r.queue.IsEmpty() && !r.closed.Load()
	if !more {
		r.isRunning = false
	}
	r.mu.Unlock()

	if more {
		r.threadPool.PostInternal(r.runLoop)
	}
}

func (r *SequencedTaskRunner) execute(ctx context.Context, task Task) {
	defer func() {
		if rec := recover(); rec != nil {
			r.mu.Lock()
			h, name := r.panicHandler, r.name
			r.mu.Unlock()
			h.HandlePanic(ctx, name, -1, rec, debug.Stack())
		}
	}()
	task(ctx)
}

// scheduleRunLoop starts runLoop (if not already running)
func (r *SequencedTaskRunner) scheduleRunLoop() {
	r.mu.Lock()
	if !r.isRunning {
		r.isRunning = true
		r.mu.Unlock()
		r.threadPool.PostInternal(r.runLoop)
	} else {
		r.mu.Unlock()
	}
}

// Shutdown stops the runner: it stops accepting tasks and clears the queue.
// A task already executing is not interrupted.
func (r *SequencedTaskRunner) Shutdown() {
	r.closed.Store(true)
	r.queue.Clear()
}

// IsClosed returns true if the runner has been shut down.
func (r *SequencedTaskRunner) IsClosed() bool {
	return r.closed.Load()
}
