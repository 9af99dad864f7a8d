package core

import (
	"context"
	"fmt"
	"time"
)

// =============================================================================
// Capability interfaces: what a backend can honestly support
// =============================================================================
//
// Each backend adapter implements only the subset of these four interfaces its
// native API supports. Callers write generic code against the minimal
// capability they need; a fire-and-forget library only needs TaskPoster, a
// caller that must observe completion needs HandlePoster.
//
// The split is deliberately two-dimensional:
//   - portable vs. local: whether the task may migrate between worker
//     goroutines or is pinned to the backend's one owning goroutine
//   - fire-and-forget vs. handle-returning: whether the caller can observe
//     the task's outcome
//
// Backends with no native completion signal simply do not implement the
// handle-returning interfaces; no handle is ever fabricated.

// TaskPoster accepts portable fire-and-forget tasks.
//
// PostTask returns ErrShutdown when the backend context is closed (for
// backends with a synchronous rejection signal; see each adapter's docs).
// The task's outcome is not observable through this path.
//
// Implementations must be safe for concurrent use from multiple goroutines.
type TaskPoster interface {
	PostTask(task Task) error
}

// LocalTaskPoster accepts goroutine-affine fire-and-forget tasks.
// Every accepted task executes on the backend's single owning goroutine.
type LocalTaskPoster interface {
	PostLocalTask(task LocalTask) error
}

// HandlePoster accepts portable tasks and returns a Handle for the eventual
// output. The returned handle is produced immediately; the task runs
// asynchronously relative to the caller.
//
// Implementations must be safe for concurrent use from multiple goroutines.
type HandlePoster interface {
	PostTaskWithHandle(task ResultTask) (*Handle, error)
}

// LocalHandlePoster accepts goroutine-affine tasks and returns a Handle for
// the eventual output.
type LocalHandlePoster interface {
	PostLocalTaskWithHandle(task LocalResultTask) (*Handle, error)
}

// Yielder is implemented by backends that can ask their scheduler to give
// other runnable tasks a turn.
type Yielder interface {
	YieldNow(ctx context.Context) error
}

// BlockingPoster is implemented by backends that can run a task which is
// expected to block (file IO, CGO, synchronous syscalls) without starving
// the backend's regular workers.
type BlockingPoster interface {
	PostBlockingTask(task ResultTask) (*Handle, error)
}

// =============================================================================
// PanicHandler: Interface for handling task panics
// =============================================================================

// PanicHandler is called when a task panics during execution.
// The panic never propagates out of the backend; handle-returning submissions
// additionally resolve their handle as Failed with a *PanicError.
//
// Implementations should be thread-safe as they may be called concurrently.
type PanicHandler interface {
	// HandlePanic is called when a task panics.
	//
	// Parameters:
	// - ctx: The context the panicked task ran with
	// - backend: The name of the backend adapter the task ran on
	// - panicInfo: The panic value recovered from the task
	// - stackTrace: The stack trace at the time of panic
	HandlePanic(ctx context.Context, backend string, panicInfo any, stackTrace []byte)
}

// DefaultPanicHandler provides a basic panic handler that logs to stdout.
type DefaultPanicHandler struct{}

// HandlePanic prints panic information to stdout.
func (h *DefaultPanicHandler) HandlePanic(ctx context.Context, backend string, panicInfo any, stackTrace []byte) {
	fmt.Printf("[Backend %s] Panic: %v\nStack trace:\n%s", backend, panicInfo, stackTrace)
}

// =============================================================================
// Metrics: Interface for observability and monitoring
// =============================================================================

// Metrics defines the interface for collecting submission and execution
// metrics. Implementations can send metrics to monitoring systems
// (Prometheus, StatsD, etc.).
//
// Methods should be non-blocking and fast to avoid impacting task execution.
type Metrics interface {
	// RecordTaskDuration records how long a task took to execute.
	RecordTaskDuration(backend string, duration time.Duration)

	// RecordTaskPanic records that a task panicked during execution.
	RecordTaskPanic(backend string, panicInfo any)

	// RecordQueueDepth records the current queue depth of a backend.
	RecordQueueDepth(backend string, depth int)

	// RecordTaskRejected records that a submission was rejected
	// (e.g., during shutdown).
	RecordTaskRejected(backend string, reason string)
}

// NilMetrics provides a no-op metrics implementation that does nothing.
// This is the default when no metrics interface is provided.
type NilMetrics struct{}

// RecordTaskDuration is a no-op.
func (m *NilMetrics) RecordTaskDuration(backend string, duration time.Duration) {}

// RecordTaskPanic is a no-op.
func (m *NilMetrics) RecordTaskPanic(backend string, panicInfo any) {}

// RecordQueueDepth is a no-op.
func (m *NilMetrics) RecordQueueDepth(backend string, depth int) {}

// RecordTaskRejected is a no-op.
func (m *NilMetrics) RecordTaskRejected(backend string, reason string) {}

// =============================================================================
// Config: Configuration for backend adapters
// =============================================================================

// Config holds the cross-cutting hooks shared by every backend adapter.
// All fields are optional; DefaultConfig fills in default implementations.
type Config struct {
	// Logger receives lifecycle and rejection events. Defaults to NoOpLogger.
	Logger Logger

	// Metrics records submission and execution metrics. Defaults to NilMetrics.
	Metrics Metrics

	// PanicHandler is called when a task panics. Defaults to DefaultPanicHandler.
	PanicHandler PanicHandler
}

// DefaultConfig returns a config with default hooks.
func DefaultConfig() *Config {
	return &Config{
		Logger:       NewNoOpLogger(),
		Metrics:      &NilMetrics{},
		PanicHandler: &DefaultPanicHandler{},
	}
}

// Sanitized returns a copy of c with every nil field replaced by its default,
// so adapters can index fields without nil checks. A nil receiver yields
// DefaultConfig().
func (c *Config) Sanitized() *Config {
	if c == nil {
		return DefaultConfig()
	}
	out := *c
	if out.Logger == nil {
		out.Logger = NewNoOpLogger()
	}
	if out.Metrics == nil {
		out.Metrics = &NilMetrics{}
	}
	if out.PanicHandler == nil {
		out.PanicHandler = &DefaultPanicHandler{}
	}
	return &out
}
