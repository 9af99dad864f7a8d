package core

import (
	"context"
)

// Task is the unit of work for fire-and-forget submission (Closure).
// A Task must be portable: it may run on any worker goroutine and must not
// capture goroutine-confined state.
type Task func(ctx context.Context)

// LocalTask is the unit of work for goroutine-affine submission.
// A LocalTask may capture state that is confined to the backend's dedicated
// goroutine; the backend guarantees every LocalTask it accepts executes on
// that one goroutine.
//
// LocalTask is a distinct named type on purpose: a value of type LocalTask
// cannot be passed where a portable Task is expected without an explicit
// conversion, which keeps goroutine-confined closures out of the portable
// submission paths at the interface boundary.
type LocalTask func(ctx context.Context)

// ResultTask is a portable task that produces one output value or fails once.
// The erased (any) output is what lets the capability interfaces stay
// non-generic; use PostWithResult for a typed surface.
type ResultTask func(ctx context.Context) (any, error)

// LocalResultTask is the goroutine-affine counterpart of ResultTask.
type LocalResultTask func(ctx context.Context) (any, error)

// =============================================================================
// Context Helper
// =============================================================================
type localPosterKeyType struct{}

var localPosterKey localPosterKeyType

// WithCurrentLocalPoster stamps ctx with the poster whose loop is executing
// the current task. Backend run loops call this before running tasks so a
// task can re-post follow-up work to its own loop.
func WithCurrentLocalPoster(ctx context.Context, poster LocalTaskPoster) context.Context {
	return context.WithValue(ctx, localPosterKey, poster)
}

// CurrentLocalPoster retrieves the poster owning the current run loop, or nil
// when the task is not executing on a loop-backed backend.
func CurrentLocalPoster(ctx context.Context) LocalTaskPoster {
	if v := ctx.Value(localPosterKey); v != nil {
		return v.(LocalTaskPoster)
	}
	return nil
}
