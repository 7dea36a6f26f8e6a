package core

import (
	"context"
	"slices"
	"sync/atomic"
	"time"
)

// ParallelSpec configures Parallel.
type ParallelSpec struct {
	// Optionals run alongside the necessities; their failures are tolerated.
	Optionals []Requestor

	// TimeLimit bounds the run. Zero means no limit.
	TimeLimit time.Duration

	// TimeOption selects how optionals are treated. See TimeOption.
	TimeOption TimeOption

	// Throttle caps the requestors in flight. Zero means unlimited.
	Throttle int

	Config *Config
}

// Parallel returns a requestor that runs the necessities and the optionals
// concurrently. Its success value is a []Result indexed like
// append(necessities, optionals...). Any necessity failure fails the whole
// run at once.
func Parallel(necessities []Requestor, spec ParallelSpec) (Requestor, error) {
	return parallel("parallel", necessities, spec, modeNormal)
}

func parallel(name string, necessities []Requestor, spec ParallelSpec, mode runMode) (Requestor, error) {
	if err := checkRequestors(necessities, name); err != nil {
		return nil, err
	}
	if err := checkRequestors(spec.Optionals, name); err != nil {
		return nil, err
	}
	if err := checkTimeLimit(spec.TimeLimit, name); err != nil {
		return nil, err
	}
	if err := checkThrottle(spec.Throttle, name); err != nil {
		return nil, err
	}
	if !spec.TimeOption.IsValid() {
		return nil, newReason(name, "Bad time option", spec.TimeOption)
	}

	requestors := slices.Concat(necessities, spec.Optionals)
	option := resolveTimeOption(len(necessities), len(spec.Optionals), spec.TimeOption)
	nNecessities := len(necessities)

	return func(receive Receiver, message any) Cancellor {
		if err := checkReceiver(receive, name); err != nil {
			panic(err)
		}

		if len(requestors) == 0 {
			result := Success([]Result{})
			if mode == modeSequence {
				result = Failure(newReason(name, "No requestors provided", nil))
			}
			return deliverLater(spec.Config, name, receive, result)
		}

		p := &parallelRun{
			name:               name,
			mode:               mode,
			option:             option,
			nNecessities:       nNecessities,
			timeLimit:          spec.TimeLimit,
			results:            make([]Result, len(requestors)),
			filled:             make([]bool, len(requestors)),
			pending:            len(requestors),
			pendingNecessities: nNecessities,
			receive:            receive,
		}
		s, err := newRun(runSpec{
			name:           name,
			requestors:     requestors,
			action:         p.action,
			initialMessage: message,
			timeout:        p.timeout,
			timeLimit:      spec.TimeLimit,
			throttle:       spec.Throttle,
			mode:           mode,
			config:         spec.Config,
		})
		if err != nil {
			// Arguments were validated when the requestor was built.
			panic(err)
		}
		p.session = s
		s.start()
		return s.Cancel
	}, nil
}

// parallelRun is the policy state of one Parallel invocation. It is only
// touched from the session runner.
type parallelRun struct {
	name               string
	mode               runMode
	option             TimeOption
	nNecessities       int
	timeLimit          time.Duration
	results            []Result
	filled             []bool
	pending            int
	pendingNecessities int
	receive            Receiver
	session            *runSession
	done               bool
}

func (p *parallelRun) action(result Result, index int) {
	if p.done {
		return
	}
	p.results[index] = result
	p.filled[index] = true
	p.pending--

	if index < p.nNecessities {
		p.pendingNecessities--
		if result.IsFailure() {
			p.session.cancel(result.Reason())
			p.finish(Failure(result.Reason()))
			return
		}
	}

	if p.pending < 1 || (p.option == SkipOptionalsIfTimeRemains && p.pendingNecessities < 1) {
		reason := newReason(p.name, "Optional requestors not needed", nil)
		p.session.cancel(reason)
		p.finishWithResults(reason)
	}
}

func (p *parallelRun) timeout() {
	if p.done {
		return
	}
	reason := newReason(p.name, "Time limit reached!", p.timeLimit)

	if p.option == RequireNecessities {
		// From now on the run ends as soon as the necessities are done.
		p.option = SkipOptionalsIfTimeRemains
		if p.pendingNecessities < 1 {
			p.session.cancel(reason)
			p.finishWithResults(reason)
			return
		}
		p.session.truncate(p.nNecessities, reason)
		return
	}

	p.session.cancel(reason)
	if p.pendingNecessities < 1 {
		p.finishWithResults(reason)
	} else {
		p.finish(Failure(reason))
	}
}

// finishWithResults reports the collected results. Slots that never
// reported are filled with a failure carrying reason.
func (p *parallelRun) finishWithResults(reason error) {
	for i, ok := range p.filled {
		if !ok {
			p.results[i] = Failure(reason)
		}
	}
	if p.mode == modeSequence {
		p.finish(p.results[len(p.results)-1])
		return
	}
	p.finish(Success(p.results))
}

func (p *parallelRun) finish(result Result) {
	if p.done {
		return
	}
	p.done = true
	receive := p.receive
	p.receive = nil
	receive(result)
}

// deliverLater reports result from a fresh task so that receivers are never
// called on the stack of the requestor invocation. The returned cancellor
// suppresses delivery if it runs first.
func deliverLater(cfg *Config, name string, receive Receiver, result Result) Cancellor {
	resolved := cfg.resolve()
	runner := NewSequencedTaskRunner(resolved.ThreadPool)
	runner.SetName(name)
	runner.SetPanicHandler(resolved.PanicHandler)

	var cancelled atomic.Bool
	runner.PostTask(func(context.Context) {
		if !cancelled.Load() {
			receive(result)
		}
	})
	return func(error) {
		cancelled.Store(true)
	}
}
