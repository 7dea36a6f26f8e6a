package core

import (
	"errors"
	"fmt"
	"runtime/debug"
	"time"
)

// Namespace prefixes every Reason message produced by this package.
const Namespace = "parseq"

// Reason is the failure value passed to receivers and actions.
//
// Its message has the form "parseq.<name>" or "parseq.<name>: <excuse>".
// Evidence carries optional diagnostic data (a time limit, an index, a
// recovered panic value). Cause is exposed through Unwrap so errors.Is and
// errors.As see through a Reason.
type Reason struct {
	Name     string
	Excuse   string
	Evidence any
	Cause    error

	hasEvidence bool
	createdAt   time.Time
	stack       []byte
}

// ReasonOptions configures MakeReason.
type ReasonOptions struct {
	// Name is the factory or operation that produced the failure.
	Name string

	// Excuse is appended to the message after ": " when non-empty.
	Excuse string

	// Evidence is attached only when non-nil.
	Evidence any

	// Cause is the underlying error, if any.
	Cause error
}

// MakeReason builds a fresh Reason for a failure site.
func MakeReason(opts ReasonOptions) *Reason {
	r := &Reason{
		Name:      opts.Name,
		Excuse:    opts.Excuse,
		Cause:     opts.Cause,
		createdAt: time.Now().UTC(),
		stack:     debug.Stack(),
	}
	if opts.Evidence != nil {
		r.Evidence = opts.Evidence
		r.hasEvidence = true
	}
	return r
}

func newReason(name, excuse string, evidence any) *Reason {
	return MakeReason(ReasonOptions{Name: name, Excuse: excuse, Evidence: evidence})
}

// Error implements error.
func (r *Reason) Error() string {
	if r.Excuse == "" {
		return Namespace + "." + r.Name
	}
	return Namespace + "." + r.Name + ": " + r.Excuse
}

// Unwrap returns the cause.
func (r *Reason) Unwrap() error {
	return r.Cause
}

// HasEvidence reports whether evidence was provided.
func (r *Reason) HasEvidence() bool {
	return r.hasEvidence
}

// CreatedAt returns the creation time (UTC).
func (r *Reason) CreatedAt() time.Time {
	return r.createdAt
}

// Stack returns the goroutine stack captured when the Reason was made.
func (r *Reason) Stack() []byte {
	return r.stack
}

// Format supports %+v, which appends evidence and cause.
func (r *Reason) Format(s fmt.State, verb rune) {
	switch verb {
	case 'v':
		if s.Flag('+') {
			fmt.Fprint(s, r.Error())
			if r.hasEvidence {
				fmt.Fprintf(s, " (evidence: %v)", r.Evidence)
			}
			if r.Cause != nil {
				fmt.Fprintf(s, " (cause: %v)", r.Cause)
			}
			return
		}
		fmt.Fprint(s, r.Error())
	case 's':
		fmt.Fprint(s, r.Error())
	case 'q':
		fmt.Fprintf(s, "%q", r.Error())
	}
}

// AsReason unwraps err to the first *Reason in its chain.
func AsReason(err error) (*Reason, bool) {
	var r *Reason
	if errors.As(err, &r) {
		return r, true
	}
	return nil, false
}

// reasonFromPanic converts a recovered panic value into a Reason. Errors
// raised with panic become the cause.
func reasonFromPanic(name string, rec any) *Reason {
	opts := ReasonOptions{Name: name, Excuse: "Requestor panicked", Evidence: rec}
	if err, ok := rec.(error); ok {
		opts.Cause = err
	}
	return MakeReason(opts)
}
