// Package parseq composes asynchronous units of work ("requestors") into
// larger ones with four combinators: Sequence, Parallel, Race and Fallback.
//
// A Requestor receives a Receiver and an optional message. It does its work,
// calls the Receiver exactly once with a Result, and may return a Cancellor
// that tries to stop the work early. Combinators are requestors themselves,
// so they nest freely.
//
// # Quick Start
//
// Wrap ordinary functions with FromFunc and block on the outcome with Invoke:
//
//	fetch := parseq.FromFunc(func(ctx context.Context, msg any) (any, error) {
//		return loadUser(ctx, msg.(string))
//	})
//	enrich := parseq.FromFunc(func(ctx context.Context, msg any) (any, error) {
//		return addProfile(ctx, msg.(*User))
//	})
//
//	pipeline, err := parseq.Sequence([]parseq.Requestor{fetch, enrich}, parseq.SequenceSpec{
//		TimeLimit: 2 * time.Second,
//	})
//	if err != nil {
//		return err // usage error: bad requestor list, negative limit, ...
//	}
//	user, err := parseq.Invoke(ctx, pipeline, "u-42").Get()
//
// # Key Concepts
//
// Sequence runs requestors one at a time. Each step receives the previous
// step's value and the sequence succeeds with the last value.
//
// Parallel runs necessities and optionals concurrently and succeeds with a
// []Result indexed like append(necessities, optionals...). A necessity
// failure fails the whole run at once; optional failures are tolerated.
// TimeOption decides what happens to optionals once the necessities are done
// or the time limit is reached.
//
// Race starts requestors concurrently and succeeds with the first success.
// Fallback tries them one at a time in order.
//
// # Cancellation and Deadlines
//
// Every combinator returns a Cancellor. Calling it is idempotent and safe from
// any goroutine: pending requestors are cancelled once, no further requestor
// is started and the receiver is never called. A TimeLimit produces a
// failure whose Reason reads "parseq.<name>: Time limit reached!" for
// Parallel and Sequence, or "parseq.<name>: Timeout occurred!" for Race and
// Fallback.
//
// # Thread Safety
//
// Each combinator invocation owns a SequencedTaskRunner. Outcomes, deadline
// expiry and cancellation are all handled as tasks on that runner, so the run
// state needs no locks and receivers are never called concurrently for one
// invocation. Requestors may report from any goroutine.
package parseq
