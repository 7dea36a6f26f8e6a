package core

import "time"

// SequenceSpec configures Sequence.
type SequenceSpec struct {
	// TimeLimit bounds the whole sequence. Zero means no limit.
	TimeLimit time.Duration

	Config *Config
}

// Sequence returns a requestor that runs requestors one at a time, in order.
// Each requestor receives the previous one's success value as its message;
// the first receives the caller's message. The success value is the last
// requestor's value. Any failure, or the time limit, fails the sequence.
func Sequence(requestors []Requestor, spec SequenceSpec) (Requestor, error) {
	return parallel("sequence", requestors, ParallelSpec{
		TimeLimit:  spec.TimeLimit,
		TimeOption: SkipOptionalsIfTimeRemains,
		Throttle:   1,
		Config:     spec.Config,
	}, modeSequence)
}
