package spawnkit

import (
	"context"

	"github.com/spawnkit/go-spawnkit/core"
)

// Re-export commonly used types from core package for convenience.
// This allows users to import only the spawnkit package for most use cases.

// Task is the portable fire-and-forget unit of work (Closure)
type Task = core.Task

// LocalTask is the goroutine-affine unit of work
type LocalTask = core.LocalTask

// ResultTask is a portable task producing one output value or failing once
type ResultTask = core.ResultTask

// LocalResultTask is the goroutine-affine counterpart of ResultTask
type LocalResultTask = core.LocalResultTask

// Handle is the unified result of one handle-returning submission
type Handle = core.Handle

// HandleState is the observable state of a Handle
type HandleState = core.HandleState

// CancelPolicy is the effect of releasing an unfinished Handle
type CancelPolicy = core.CancelPolicy

// Capability interfaces
type TaskPoster = core.TaskPoster
type LocalTaskPoster = core.LocalTaskPoster
type HandlePoster = core.HandlePoster
type LocalHandlePoster = core.LocalHandlePoster
type Yielder = core.Yielder
type BlockingPoster = core.BlockingPoster

// Config holds the cross-cutting hooks shared by every backend adapter
type Config = core.Config

// Handle state constants
const (
	HandleStatePending   HandleState = core.HandleStatePending
	HandleStateReady     HandleState = core.HandleStateReady
	HandleStateCancelled HandleState = core.HandleStateCancelled
	HandleStateFailed    HandleState = core.HandleStateFailed
)

// Cancellation policy constants
const (
	AbortOnRelease  CancelPolicy = core.AbortOnRelease
	DetachOnRelease CancelPolicy = core.DetachOnRelease
)

// Error values and types
var (
	ErrShutdown  = core.ErrShutdown
	ErrCancelled = core.ErrCancelled
)

type TaskError = core.TaskError
type PanicError = core.PanicError

// DefaultConfig returns a config with default hooks
var DefaultConfig = core.DefaultConfig

// ResultOf is a typed view over a Handle
type ResultOf[T any] = core.ResultOf[T]

// PostWithResult submits a typed portable task through any HandlePoster.
func PostWithResult[T any](p core.HandlePoster, task func(ctx context.Context) (T, error)) (*core.ResultOf[T], error) {
	return core.PostWithResult(p, task)
}

// PostLocalWithResult is PostWithResult for goroutine-affine tasks.
func PostLocalWithResult[T any](p core.LocalHandlePoster, task func(ctx context.Context) (T, error)) (*core.ResultOf[T], error) {
	return core.PostLocalWithResult(p, task)
}
