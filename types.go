package parseq

import "github.com/Swind/go-parseq/core"

// Re-export commonly used types from core package for convenience.
// This allows users to import only the parseq package for most use cases.

// Requestor performs one unit of work and reports through a Receiver
type Requestor = core.Requestor

// Receiver consumes the Result of a requestor
type Receiver = core.Receiver

// Cancellor tries to stop in-flight work
type Cancellor = core.Cancellor

// Result is Success(value) or Failure(reason)
type Result = core.Result

// Reason is the failure value produced by combinators
type Reason = core.Reason

// ReasonOptions configures MakeReason
type ReasonOptions = core.ReasonOptions

// Spec types for the four combinators
type (
	ParallelSpec = core.ParallelSpec
	SequenceSpec = core.SequenceSpec
	RaceSpec     = core.RaceSpec
	FallbackSpec = core.FallbackSpec
)

// TimeOption controls how Parallel treats optionals
type TimeOption = core.TimeOption

// Time option constants
const (
	TimeOptionUnset            TimeOption = core.TimeOptionUnset
	SkipOptionalsIfTimeRemains TimeOption = core.SkipOptionalsIfTimeRemains
	TryOptionalsIfTimeRemains  TimeOption = core.TryOptionalsIfTimeRemains
	RequireNecessities         TimeOption = core.RequireNecessities
)

// Config holds the logger, metrics, panic handler, thread pool and observer
// used by a combinator
type Config = core.Config

// Logger, Metrics and RunObserver are the hook interfaces accepted by Config
type (
	Logger      = core.Logger
	Metrics     = core.Metrics
	RunObserver = core.RunObserver
	RunRecord   = core.RunRecord
	History     = core.History
	ThreadPool  = core.ThreadPool
)

// Combinators
var (
	Sequence = core.Sequence
	Parallel = core.Parallel
	Race     = core.Race
	Fallback = core.Fallback
)

// Requestor adapters
var (
	FromFunc = core.FromFunc
	Succeed  = core.Succeed
	Fail     = core.Fail
	Invoke   = core.Invoke
)

// Result and Reason constructors
var (
	Success    = core.Success
	Failure    = core.Failure
	Results    = core.Results
	MakeReason = core.MakeReason
	AsReason   = core.AsReason
)

// DefaultConfig returns a config with default handlers.
var DefaultConfig = core.DefaultConfig

// NewHistory creates a bounded RunObserver keeping recent RunRecords.
var NewHistory = core.NewHistory

// Loggers
var (
	NewDefaultLogger = core.NewDefaultLogger
	NewNoOpLogger    = core.NewNoOpLogger
	NewSlogLogger    = core.NewSlogLogger
	F                = core.F
)
