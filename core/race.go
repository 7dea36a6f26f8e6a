package core

import "time"

// RaceSpec configures Race.
type RaceSpec struct {
	// TimeLimit bounds the race. Zero means no limit.
	TimeLimit time.Duration

	// Throttle caps the requestors in flight. Zero means unlimited.
	Throttle int

	Config *Config
}

// Race returns a requestor that starts requestors concurrently and succeeds
// with the first success, cancelling the others. It fails when every
// requestor has failed (with the last failure's reason) or when the time
// limit elapses first.
func Race(requestors []Requestor, spec RaceSpec) (Requestor, error) {
	return race("race", requestors, spec)
}

func race(name string, requestors []Requestor, spec RaceSpec) (Requestor, error) {
	if len(requestors) == 0 {
		return nil, newReason(name, "No requestors provided", nil)
	}
	if err := checkRequestors(requestors, name); err != nil {
		return nil, err
	}
	if err := checkTimeLimit(spec.TimeLimit, name); err != nil {
		return nil, err
	}
	if err := checkThrottle(spec.Throttle, name); err != nil {
		return nil, err
	}
	requestors = append([]Requestor(nil), requestors...)

	return func(receive Receiver, message any) Cancellor {
		if err := checkReceiver(receive, name); err != nil {
			panic(err)
		}

		r := &raceRun{
			name:      name,
			timeLimit: spec.TimeLimit,
			pending:   len(requestors),
			receive:   receive,
		}
		s, err := newRun(runSpec{
			name:           name,
			requestors:     requestors,
			action:         r.action,
			initialMessage: message,
			timeout:        r.timeout,
			timeLimit:      spec.TimeLimit,
			throttle:       spec.Throttle,
			config:         spec.Config,
		})
		if err != nil {
			// Arguments were validated when the requestor was built.
			panic(err)
		}
		r.session = s
		s.start()
		return s.Cancel
	}, nil
}

// raceRun is the policy state of one Race invocation, owned by the session
// runner.
type raceRun struct {
	name      string
	timeLimit time.Duration
	pending   int
	receive   Receiver
	session   *runSession
}

func (r *raceRun) action(result Result, index int) {
	if r.receive == nil {
		return
	}
	r.pending--

	if result.IsSuccess() {
		r.session.cancel(newReason(r.name, "Loser", index))
		r.finish(result)
		return
	}
	if r.pending < 1 {
		r.session.cancel(result.Reason())
		r.finish(Failure(result.Reason()))
	}
}

func (r *raceRun) timeout() {
	if r.receive == nil {
		return
	}
	reason := newReason(r.name, "Timeout occurred!", r.timeLimit)
	r.session.cancel(reason)
	r.finish(Failure(reason))
}

func (r *raceRun) finish(result Result) {
	receive := r.receive
	r.receive = nil
	receive(result)
}
