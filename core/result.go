package core

import (
	"fmt"
	"time"
)

// Result is the outcome of one requestor: either Success(value) or
// Failure(reason). A nil value is a legitimate success.
type Result struct {
	value     any
	reason    error
	isSuccess bool
	createdAt time.Time
}

// Success builds a successful Result.
func Success(value any) Result {
	return Result{
		value:     value,
		isSuccess: true,
		createdAt: time.Now().UTC(),
	}
}

// Failure builds a failed Result. A nil reason is replaced with a generic
// Reason so that a failure always carries an error.
func Failure(reason error) Result {
	if reason == nil {
		reason = newReason("failure", "", nil)
	}
	return Result{
		reason:    reason,
		createdAt: time.Now().UTC(),
	}
}

// IsSuccess reports whether the Result holds a value.
func (r Result) IsSuccess() bool {
	return r.isSuccess
}

// IsFailure reports whether the Result holds a reason.
func (r Result) IsFailure() bool {
	return !r.isSuccess
}

// Value returns the success value, or nil for a failure.
func (r Result) Value() any {
	return r.value
}

// Reason returns the failure reason, or nil for a success.
func (r Result) Reason() error {
	return r.reason
}

// Get unpacks the Result into the usual (value, error) pair.
func (r Result) Get() (any, error) {
	if r.isSuccess {
		return r.value, nil
	}
	return nil, r.reason
}

// CreatedAt returns when the Result was built (UTC).
func (r Result) CreatedAt() time.Time {
	return r.createdAt
}

func (r Result) String() string {
	if r.isSuccess {
		return fmt.Sprintf("Success(%v)", r.value)
	}
	return fmt.Sprintf("Failure(%v)", r.reason)
}

// Results converts a parallel outcome value back to its slice form.
func Results(value any) ([]Result, bool) {
	rs, ok := value.([]Result)
	return rs, ok
}
