package core

import (
	"context"
	"time"
)

// =============================================================================
// PanicHandler: Interface for handling task panics
// =============================================================================

// PanicHandler is called when a task posted to a SequencedTaskRunner panics.
// Requestor panics never reach it: the engine converts those into failures.
//
// Implementations should be thread-safe as they may be called concurrently.
type PanicHandler interface {
	// HandlePanic is called when a task panics.
	//
	// Parameters:
	// - ctx: The context from the panicked task (may contain task runner info)
	// - runnerName: The name of the task runner where the panic occurred
	// - workerID: The ID of the worker (-1 for sequenced runners)
	// - panicInfo: The panic value recovered from the task
	// - stackTrace: The stack trace at the time of panic
	HandlePanic(ctx context.Context, runnerName string, workerID int, panicInfo any, stackTrace []byte)
}

// DefaultPanicHandler logs panics through Logger (DefaultLogger when nil).
type DefaultPanicHandler struct {
	Logger Logger
}

// HandlePanic logs the panic information.
func (h *DefaultPanicHandler) HandlePanic(ctx context.Context, runnerName string, workerID int, panicInfo any, stackTrace []byte) {
	logger := h.Logger
	if logger == nil {
		logger = NewDefaultLogger()
	}
	logger.Error("task panic",
		F("runner", runnerName),
		F("worker", workerID),
		F("panic", panicInfo),
		F("stack", string(stackTrace)),
	)
}

// =============================================================================
// Metrics: Interface for observability and monitoring
// =============================================================================

// Outcome labels passed to Metrics.RecordRequestorDuration.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
	OutcomePanic   = "panic"
)

// Metrics defines the interface for collecting requestor execution metrics.
// Implementations can send metrics to monitoring systems (Prometheus, StatsD, etc.).
//
// Methods should be non-blocking and fast; they are called from run sessions.
type Metrics interface {
	// RecordRequestorDuration records how long a requestor took to report.
	//
	// Parameters:
	// - name: The combinator name (sequence, parallel, race, fallback)
	// - outcome: OutcomeSuccess, OutcomeFailure or OutcomePanic
	// - duration: Time from launch to receiver call
	RecordRequestorDuration(name string, outcome string, duration time.Duration)

	// RecordRequestorPanic records that a requestor panicked when invoked.
	RecordRequestorPanic(name string, panicInfo any)

	// RecordCancellation records a run cancellation and how many
	// requestors were still pending at that moment.
	RecordCancellation(name string, pending int)

	// RecordTimeout records that a run's time limit elapsed.
	RecordTimeout(name string)

	// RecordInFlight records the number of requestors currently in flight.
	RecordInFlight(name string, inFlight int)
}

// NilMetrics provides a no-op metrics implementation that does nothing.
// This is the default when no metrics interface is provided.
type NilMetrics struct{}

// RecordRequestorDuration is a no-op.
func (m *NilMetrics) RecordRequestorDuration(name string, outcome string, duration time.Duration) {
}

// RecordRequestorPanic is a no-op.
func (m *NilMetrics) RecordRequestorPanic(name string, panicInfo any) {
}

// RecordCancellation is a no-op.
func (m *NilMetrics) RecordCancellation(name string, pending int) {
}

// RecordTimeout is a no-op.
func (m *NilMetrics) RecordTimeout(name string) {
}

// RecordInFlight is a no-op.
func (m *NilMetrics) RecordInFlight(name string, inFlight int) {
}

// =============================================================================
// Config: hooks shared by the combinators
// =============================================================================

// Config holds the hooks a run session reports to.
// All fields are optional; nil fields fall back to DefaultConfig values.
type Config struct {
	// Logger receives engine diagnostics. Defaults to NoOpLogger.
	Logger Logger

	// Metrics records requestor outcomes. Defaults to NilMetrics.
	Metrics Metrics

	// PanicHandler is told about panics escaping session tasks (for example
	// a panicking action or receiver). Defaults to DefaultPanicHandler.
	PanicHandler PanicHandler

	// ThreadPool executes session run loops and owns the clock for time
	// limits. Defaults to DefaultThreadPool().
	ThreadPool ThreadPool

	// Observer receives a RunRecord for every finished requestor.
	Observer RunObserver
}

// DefaultConfig returns a config with default handlers.
func DefaultConfig() *Config {
	logger := NewNoOpLogger()
	return &Config{
		Logger:       logger,
		Metrics:      &NilMetrics{},
		PanicHandler: &DefaultPanicHandler{Logger: NewDefaultLogger()},
		ThreadPool:   DefaultThreadPool(),
	}
}

// resolve returns a copy of c with nil fields replaced by defaults.
func (c *Config) resolve() *Config {
	def := DefaultConfig()
	if c == nil {
		return def
	}
	out := *c
	if out.Logger == nil {
		out.Logger = def.Logger
	}
	if out.Metrics == nil {
		out.Metrics = def.Metrics
	}
	if out.PanicHandler == nil {
		out.PanicHandler = def.PanicHandler
	}
	if out.ThreadPool == nil {
		out.ThreadPool = def.ThreadPool
	}
	return &out
}
