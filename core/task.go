package core

import (
	"context"
	"time"
)

// Task is the unit of work posted to a TaskRunner (Closure)
type Task func(ctx context.Context)

// =============================================================================
// TaskRunner: Define task submission interface
// =============================================================================

type TaskRunner interface {
	PostTask(task Task)

	// PostDelayedTask runs task on this runner once delay has elapsed.
	// The returned handle cancels it if it has not been posted yet.
	PostDelayedTask(task Task, delay time.Duration) DelayedTaskHandle
}

// DelayedTaskHandle controls a task scheduled with PostDelayedTask.
type DelayedTaskHandle interface {
	// Stop prevents the task from being posted. It returns false if the
	// delay already elapsed or the handle was stopped before.
	Stop() bool
}

// =============================================================================
// Context Helper
// =============================================================================
type taskRunnerKeyType struct{}

var taskRunnerKey taskRunnerKeyType

// GetCurrentTaskRunner returns the runner executing the task that owns ctx.
func GetCurrentTaskRunner(ctx context.Context) TaskRunner {
	if v := ctx.Value(taskRunnerKey); v != nil {
		return v.(TaskRunner)
	}
	return nil
}
