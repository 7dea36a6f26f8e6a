package core

import "time"

// FallbackSpec configures Fallback.
type FallbackSpec struct {
	// TimeLimit bounds all attempts together. Zero means no limit.
	TimeLimit time.Duration

	Config *Config
}

// Fallback returns a requestor that tries requestors one at a time, in
// order, and succeeds with the first success. It fails only when every
// requestor fails or the time limit elapses first.
func Fallback(requestors []Requestor, spec FallbackSpec) (Requestor, error) {
	return race("fallback", requestors, RaceSpec{
		TimeLimit: spec.TimeLimit,
		Throttle:  1,
		Config:    spec.Config,
	})
}
