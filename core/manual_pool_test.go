package core_test

import (
	"context"
	"sort"
	"sync"
	"time"

	core "github.com/Swind/go-parseq/core"
)

// ManualThreadPool implements ThreadPool for deterministic tests.
// Posted tasks wait in a ready queue until RunUntilIdle drains it on the
// calling goroutine. Delayed tasks use a simulated clock moved by Advance.
type ManualThreadPool struct {
	mu     sync.Mutex
	now    time.Duration
	seq    int
	ready  []core.Task
	timers []*manualTimer
}

type manualTimer struct {
	pool    *ManualThreadPool
	at      time.Duration
	seq     int
	task    core.Task
	target  core.TaskRunner
	stopped bool
}

func NewManualThreadPool() *ManualThreadPool {
	return &ManualThreadPool{}
}

func (p *ManualThreadPool) PostInternal(task core.Task) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.ready = append(p.ready, task)
}

func (p *ManualThreadPool) PostDelayedInternal(task core.Task, delay time.Duration, target core.TaskRunner) core.DelayedTaskHandle {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.seq++
	t := &manualTimer{pool: p, at: p.now + delay, seq: p.seq, task: task, target: target}
	p.timers = append(p.timers, t)
	return t
}

func (t *manualTimer) Stop() bool {
	t.pool.mu.Lock()
	defer t.pool.mu.Unlock()
	for i, pending := range t.pool.timers {
		if pending == t {
			t.pool.timers = append(t.pool.timers[:i], t.pool.timers[i+1:]...)
			t.stopped = true
			return true
		}
	}
	return false
}

// RunUntilIdle runs ready tasks, including the ones they post, until none
// remain. It returns the number of tasks run.
func (p *ManualThreadPool) RunUntilIdle() int {
	n := 0
	for {
		p.mu.Lock()
		if len(p.ready) == 0 {
			p.mu.Unlock()
			return n
		}
		task := p.ready[0]
		p.ready = p.ready[1:]
		p.mu.Unlock()

		task(context.Background())
		n++
	}
}

// Advance moves the clock forward by d, firing due timers in order and
// draining the ready queue after each one.
func (p *ManualThreadPool) Advance(d time.Duration) {
	p.mu.Lock()
	deadline := p.now + d
	p.mu.Unlock()

	p.RunUntilIdle()
	for {
		p.mu.Lock()
		sort.SliceStable(p.timers, func(i, j int) bool {
			if p.timers[i].at != p.timers[j].at {
				return p.timers[i].at < p.timers[j].at
			}
			return p.timers[i].seq < p.timers[j].seq
		})
		if len(p.timers) == 0 || p.timers[0].at > deadline {
			p.now = deadline
			p.mu.Unlock()
			return
		}
		t := p.timers[0]
		p.timers = p.timers[1:]
		p.now = t.at
		p.mu.Unlock()

		t.target.PostTask(t.task)
		p.RunUntilIdle()
	}
}

// PendingTimers returns the number of delayed tasks not yet fired or stopped.
func (p *ManualThreadPool) PendingTimers() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.timers)
}

// Now returns the simulated time since the pool was created.
func (p *ManualThreadPool) Now() time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.now
}

// manualRequestor is a requestor completed by hand from the test goroutine.
type manualRequestor struct {
	mu        sync.Mutex
	calls     int
	message   any
	receive   core.Receiver
	cancels   []error
	cancelled int
}

func (m *manualRequestor) Requestor() core.Requestor {
	return func(receive core.Receiver, message any) core.Cancellor {
		m.mu.Lock()
		defer m.mu.Unlock()
		m.calls++
		m.message = message
		m.receive = receive
		return func(reason error) {
			m.mu.Lock()
			defer m.mu.Unlock()
			m.cancelled++
			m.cancels = append(m.cancels, reason)
		}
	}
}

func (m *manualRequestor) Started() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls > 0
}

func (m *manualRequestor) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

func (m *manualRequestor) Message() any {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.message
}

func (m *manualRequestor) CancelCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cancelled
}

func (m *manualRequestor) LastCancelReason() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.cancels) == 0 {
		return nil
	}
	return m.cancels[len(m.cancels)-1]
}

func (m *manualRequestor) Succeed(v any) {
	m.mu.Lock()
	receive := m.receive
	m.mu.Unlock()
	receive(core.Success(v))
}

func (m *manualRequestor) Fail(err error) {
	m.mu.Lock()
	receive := m.receive
	m.mu.Unlock()
	receive(core.Failure(err))
}

func newManualRequestors(n int) ([]*manualRequestor, []core.Requestor) {
	ms := make([]*manualRequestor, n)
	rs := make([]core.Requestor, n)
	for i := range ms {
		ms[i] = &manualRequestor{}
		rs[i] = ms[i].Requestor()
	}
	return ms, rs
}

// resultRecorder is a Receiver that counts its calls.
type resultRecorder struct {
	mu      sync.Mutex
	results []core.Result
}

func (r *resultRecorder) Receive(result core.Result) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.results = append(r.results, result)
}

func (r *resultRecorder) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.results)
}

func (r *resultRecorder) Last() core.Result {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.results) == 0 {
		return core.Result{}
	}
	return r.results[len(r.results)-1]
}

func manualConfig(pool *ManualThreadPool) *core.Config {
	return &core.Config{ThreadPool: pool, Logger: core.NewNoOpLogger()}
}
