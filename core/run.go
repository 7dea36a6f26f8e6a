package core

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// runMode selects how the engine threads messages between requestors.
type runMode int

const (
	modeNormal runMode = iota
	// modeSequence passes each success value to the next requestor when the
	// concurrency window is 1.
	modeSequence
)

// runSpec configures one run session.
type runSpec struct {
	name           string
	requestors     []Requestor
	action         func(result Result, index int)
	initialMessage any
	timeout        func()
	timeLimit      time.Duration
	throttle       int
	mode           runMode
	config         *Config
}

func (spec runSpec) validate() error {
	if spec.action == nil {
		return newReason(spec.name, "Bad action", nil)
	}
	if err := checkRequestors(spec.requestors, spec.name); err != nil {
		return err
	}
	if err := checkTimeLimit(spec.timeLimit, spec.name); err != nil {
		return err
	}
	if spec.timeLimit > 0 && spec.timeout == nil {
		return newReason(spec.name, "Bad timeout", spec.timeLimit)
	}
	return checkThrottle(spec.throttle, spec.name)
}

// runSession supervises a fixed list of requestors.
//
// Every field below runner is owned by the session runner: it is read and
// written only by tasks posted to it, so no lock guards it. cancelled,
// reported and timer are shared with other goroutines.
type runSession struct {
	id     uuid.UUID
	spec   runSpec
	cfg    *Config
	window int
	runner *SequencedTaskRunner

	cancellors []Cancellor
	startedAt  []time.Time
	abandoned  []bool
	next       int // cursor: next index to launch
	limit      int // indexes at or above limit are never launched
	inFlight   int
	finished   int

	cancelled atomic.Bool
	reported  []atomic.Bool

	timerMu sync.Mutex
	timer   DelayedTaskHandle
}

// newRun validates spec and prepares a session without starting it, so the
// caller can capture the session before any action runs.
func newRun(spec runSpec) (*runSession, error) {
	if err := spec.validate(); err != nil {
		return nil, err
	}

	n := len(spec.requestors)
	window := n
	if spec.throttle > 0 && spec.throttle < n {
		window = spec.throttle
	}

	cfg := spec.config.resolve()
	s := &runSession{
		id:         uuid.New(),
		spec:       spec,
		cfg:        cfg,
		window:     window,
		runner:     NewSequencedTaskRunner(cfg.ThreadPool),
		cancellors: make([]Cancellor, n),
		startedAt:  make([]time.Time, n),
		abandoned:  make([]bool, n),
		limit:      n,
		reported:   make([]atomic.Bool, n),
	}
	s.runner.SetName(spec.name + "/" + s.id.String())
	s.runner.SetPanicHandler(cfg.PanicHandler)
	return s, nil
}

// start schedules the deadline and the first window of launches. Launches
// are always posted, never run on the caller's stack.
func (s *runSession) start() {
	s.cfg.Logger.Debug("run started",
		F("session", s.id),
		F("name", s.spec.name),
		F("requestors", len(s.spec.requestors)),
		F("throttle", s.spec.throttle),
		F("time_limit", s.spec.timeLimit),
	)

	if len(s.spec.requestors) == 0 {
		return
	}

	if s.spec.timeLimit > 0 {
		s.timerMu.Lock()
		s.timer = s.runner.PostDelayedTask(s.onTimeLimit, s.spec.timeLimit)
		s.timerMu.Unlock()
	}

	message := s.spec.initialMessage
	for range s.window {
		s.runner.PostTask(func(context.Context) {
			s.startNext(message)
		})
	}
}

func (s *runSession) threadsMessages() bool {
	return s.spec.mode == modeSequence && s.window == 1
}

func (s *runSession) startNext(message any) {
	if s.cancelled.Load() || s.next >= s.limit {
		return
	}

	i := s.next
	s.next++
	s.startedAt[i] = time.Now()
	s.inFlight++
	s.cfg.Metrics.RecordInFlight(s.spec.name, s.inFlight)

	receive := func(result Result) {
		if !s.reported[i].CompareAndSwap(false, true) {
			return
		}
		s.runner.PostTask(func(context.Context) {
			s.finish(i, result, false)
		})
	}

	cancel, err := startRequestor(s.spec.requestors[i], receive, message, s.spec.name)
	if err != nil {
		reason, _ := AsReason(err)
		s.cfg.Logger.Error("requestor panicked",
			F("session", s.id),
			F("name", s.spec.name),
			F("index", i),
			F("panic", reason.Evidence),
		)
		s.cfg.Metrics.RecordRequestorPanic(s.spec.name, reason.Evidence)
		if s.reported[i].CompareAndSwap(false, true) {
			s.finish(i, Failure(err), true)
		}
		return
	}
	if cancel != nil {
		s.cancellors[i] = cancel
	}
}

// finish handles the first report for index i.
func (s *runSession) finish(i int, result Result, panicked bool) {
	s.cancellors[i] = nil
	s.inFlight--
	s.finished++
	s.record(i, result, panicked)

	if s.cancelled.Load() {
		return
	}
	if !s.abandoned[i] {
		s.spec.action(result, i)
		if s.cancelled.Load() {
			return
		}
	}

	if s.next < s.limit {
		message := s.spec.initialMessage
		if s.threadsMessages() {
			message = result.Value()
		}
		s.runner.PostTask(func(context.Context) {
			s.startNext(message)
		})
		return
	}
	if s.inFlight == 0 {
		s.stopTimer()
	}
}

func (s *runSession) record(i int, result Result, panicked bool) {
	finishedAt := time.Now()
	duration := finishedAt.Sub(s.startedAt[i])
	outcome := OutcomeSuccess
	switch {
	case panicked:
		outcome = OutcomePanic
	case result.IsFailure():
		outcome = OutcomeFailure
	}

	s.cfg.Metrics.RecordRequestorDuration(s.spec.name, outcome, duration)
	s.cfg.Metrics.RecordInFlight(s.spec.name, s.inFlight)
	if s.cfg.Observer != nil {
		s.cfg.Observer.ObserveRequestor(RunRecord{
			SessionID:  s.id,
			Name:       s.spec.name,
			Index:      i,
			Outcome:    outcome,
			StartedAt:  s.startedAt[i],
			FinishedAt: finishedAt,
			Duration:   duration,
			Panicked:   panicked,
		})
	}
}

func (s *runSession) onTimeLimit(context.Context) {
	if s.cancelled.Load() {
		return
	}
	s.cfg.Logger.Info("run time limit reached",
		F("session", s.id),
		F("name", s.spec.name),
		F("time_limit", s.spec.timeLimit),
	)
	s.cfg.Metrics.RecordTimeout(s.spec.name)
	s.spec.timeout()
}

func (s *runSession) stopTimer() {
	s.timerMu.Lock()
	defer s.timerMu.Unlock()
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}

func (s *runSession) defaultReason(reason error) error {
	if reason == nil {
		return newReason(s.spec.name, "Cancel!", nil)
	}
	return reason
}

// cancel stops the whole session. It must run on the session runner; actions
// and the timeout hook use it.
func (s *runSession) cancel(reason error) {
	s.cancelled.Store(true)
	s.stopTimer()
	s.cancelPending(s.defaultReason(reason))
}

// Cancel is the caller-facing Cancellor and may be called from any
// goroutine. The session is dead as soon as it returns; pending cancellors
// are invoked on the session runner.
func (s *runSession) Cancel(reason error) {
	if !s.cancelled.CompareAndSwap(false, true) {
		return
	}
	s.stopTimer()
	reason = s.defaultReason(reason)
	s.runner.PostTask(func(context.Context) {
		s.cancelPending(reason)
	})
}

// truncate gives up on every index at or above from: unstarted ones are
// never launched and pending ones are cancelled, their later reports
// ignored. Runner only.
func (s *runSession) truncate(from int, reason error) {
	if from < s.limit {
		s.limit = from
	}
	for i := from; i < len(s.cancellors); i++ {
		s.abandoned[i] = true
		if c := s.cancellors[i]; c != nil {
			s.cancellors[i] = nil
			s.invokeCancellor(i, c, reason)
		}
	}
}

func (s *runSession) cancelPending(reason error) {
	pending := s.inFlight
	for i, c := range s.cancellors {
		if c == nil {
			continue
		}
		s.cancellors[i] = nil
		s.invokeCancellor(i, c, reason)
	}
	if pending > 0 {
		s.cfg.Metrics.RecordCancellation(s.spec.name, pending)
	}
}

func (s *runSession) invokeCancellor(i int, c Cancellor, reason error) {
	if rec := safeCancel(c, reason); rec != nil {
		s.cfg.Logger.Warn("cancellor panicked",
			F("session", s.id),
			F("name", s.spec.name),
			F("index", i),
			F("panic", rec),
		)
	}
}
