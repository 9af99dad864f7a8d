package core

import (
	"context"
	"runtime/debug"
	"time"
)

// =============================================================================
// Shared run wrappers used by every backend adapter
// =============================================================================
//
// Adapters translate a submission into their backend's native spawn call and
// hand the actual execution to one of these wrappers, so panic capture,
// metrics, and handle resolution behave identically on every backend.

// RunDetached executes a fire-and-forget task inline, recovering panics and
// recording execution metrics. The task's outcome is not observable; the
// detached path has no way to report it.
func RunDetached(ctx context.Context, task func(ctx context.Context), cfg *Config, backend string) {
	start := time.Now()
	defer func() {
		cfg.Metrics.RecordTaskDuration(backend, time.Since(start))
		if r := recover(); r != nil {
			stack := debug.Stack()
			cfg.PanicHandler.HandlePanic(ctx, backend, r, stack)
			cfg.Metrics.RecordTaskPanic(backend, r)
		}
	}()
	task(ctx)
}

// RunTask executes a result-producing task inline and resolves h with its
// outcome. A task whose handle was released (abort policy) before it started
// is skipped and the handle resolves Cancelled. A panicking task resolves the
// handle Failed with a *PanicError, so the handle never hangs on abnormal
// termination.
func RunTask(ctx context.Context, h *Handle, task func(ctx context.Context) (any, error), cfg *Config, backend string) {
	if h.abortRequested() {
		h.ResolveCancelled()
		return
	}

	start := time.Now()
	defer func() {
		cfg.Metrics.RecordTaskDuration(backend, time.Since(start))
		if r := recover(); r != nil {
			stack := debug.Stack()
			cfg.PanicHandler.HandlePanic(ctx, backend, r, stack)
			cfg.Metrics.RecordTaskPanic(backend, r)
			h.Resolve(nil, &PanicError{Value: r, Stack: stack})
		}
	}()

	value, err := task(ctx)
	h.Resolve(value, err)
}
