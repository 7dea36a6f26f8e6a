package core

import (
	"context"
	"sync"
)

// Requestor performs one unit of work. It must call receive exactly once,
// either before returning or later from any goroutine, and may return a
// Cancellor that tries to stop the work. A nil Cancellor means the work
// cannot be cancelled.
type Requestor func(receive Receiver, message any) Cancellor

// Receiver consumes the Result of a requestor.
type Receiver func(result Result)

// Cancellor makes a best-effort attempt to stop in-flight work. reason may
// be nil.
type Cancellor func(reason error)

// FromFunc adapts a context-aware function into a Requestor. The function
// runs on its own goroutine; the cancellor cancels its context with the
// cancellation reason as the context cause. A panic in fn becomes a failure.
func FromFunc(fn func(ctx context.Context, message any) (any, error)) Requestor {
	return func(receive Receiver, message any) Cancellor {
		ctx, cancel := context.WithCancelCause(context.Background())
		go func() {
			defer cancel(nil)
			receive(callFunc(ctx, fn, message))
		}()
		return func(reason error) {
			cancel(reason)
		}
	}
}

func callFunc(ctx context.Context, fn func(ctx context.Context, message any) (any, error), message any) (res Result) {
	defer func() {
		if rec := recover(); rec != nil {
			res = Failure(reasonFromPanic("func", rec))
		}
	}()
	v, err := fn(ctx, message)
	if err != nil {
		return Failure(err)
	}
	return Success(v)
}

// Succeed returns a requestor that reports value immediately.
func Succeed(value any) Requestor {
	return func(receive Receiver, _ any) Cancellor {
		receive(Success(value))
		return nil
	}
}

// Fail returns a requestor that reports reason immediately.
func Fail(reason error) Requestor {
	return func(receive Receiver, _ any) Cancellor {
		receive(Failure(reason))
		return nil
	}
}

// Invoke runs requestor with message and blocks until it reports or ctx is
// done. When ctx ends first the requestor is cancelled and a failure
// wrapping the context cause is returned.
//
// Invoke must not be called from inside a requestor or a receiver.
func Invoke(ctx context.Context, requestor Requestor, message any) Result {
	if !isFunction(requestor) {
		return Failure(newReason("invoke", "Not a requestor function", nil))
	}

	done := make(chan Result, 1)
	var once sync.Once
	receive := func(r Result) {
		once.Do(func() { done <- r })
	}

	cancel, err := startRequestor(requestor, receive, message, "invoke")
	if err != nil {
		return Failure(err)
	}

	select {
	case r := <-done:
		return r
	case <-ctx.Done():
		reason := MakeReason(ReasonOptions{
			Name:   "invoke",
			Excuse: "Context done",
			Cause:  context.Cause(ctx),
		})
		if cancel != nil {
			safeCancel(cancel, reason)
		}
		return Failure(reason)
	}
}

// startRequestor calls requestor, converting a panic into an error.
func startRequestor(requestor Requestor, receive Receiver, message any, name string) (cancel Cancellor, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			cancel = nil
			err = reasonFromPanic(name, rec)
		}
	}()
	return requestor(receive, message), nil
}

// safeCancel calls cancel and reports whether it panicked.
func safeCancel(cancel Cancellor, reason error) (recovered any) {
	defer func() {
		recovered = recover()
	}()
	cancel(reason)
	return nil
}
