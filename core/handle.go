package core

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
)

// =============================================================================
// HandleState / CancelPolicy
// =============================================================================

// HandleState is the observable state of a Handle.
type HandleState int

const (
	// HandleStatePending: the task has not reached a terminal state yet.
	HandleStatePending HandleState = iota

	// HandleStateReady: the task completed and produced its output.
	HandleStateReady

	// HandleStateCancelled: the task was stopped before producing output.
	HandleStateCancelled

	// HandleStateFailed: the task's own evaluation failed or panicked.
	HandleStateFailed
)

func (s HandleState) String() string {
	switch s {
	case HandleStatePending:
		return "pending"
	case HandleStateReady:
		return "ready"
	case HandleStateCancelled:
		return "cancelled"
	case HandleStateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// CancelPolicy is the effect of releasing an unfinished Handle. The policy is
// a static property of the backend adapter that produced the handle; it is
// never normalized across backends, because forcing one universal behavior
// would either leak tasks or silently abort work the caller did not intend
// to cancel.
type CancelPolicy int

const (
	// AbortOnRelease: releasing the handle stops the underlying task. A task
	// that has not started yet is skipped entirely; a running task has its
	// context cancelled. Partial side effects already performed remain.
	AbortOnRelease CancelPolicy = iota

	// DetachOnRelease: releasing the handle has no effect on the task; it
	// runs to completion in the background and its result is discarded.
	DetachOnRelease
)

func (p CancelPolicy) String() string {
	switch p {
	case AbortOnRelease:
		return "abort_on_release"
	case DetachOnRelease:
		return "detach_on_release"
	default:
		return "unknown"
	}
}

// =============================================================================
// Handle: the unified result of one handle-returning submission
// =============================================================================

// Handle represents the pending-or-ready output of exactly one submitted
// task, independent of the backend that runs it. Backends with a native
// completion concept wrap it; backends without one complete the Handle
// through a synthesized completion signal. Either way the caller sees one
// contract.
//
// A Handle resolves exactly once; its terminal state is stable and every
// later State or Wait call observes the same outcome.
type Handle struct {
	policy CancelPolicy
	done   chan struct{}

	// abort cancels the task's context. Nil for handles produced by
	// detach-policy backends.
	abort context.CancelFunc

	detached atomic.Bool
	aborted  atomic.Bool

	mu    sync.Mutex
	state HandleState
	value any
	err   error
}

// NewHandle creates an unresolved Handle with the given policy. The abort
// function, if non-nil, is invoked when an AbortOnRelease handle is released
// before completion. This is adapter plumbing; callers receive handles from
// submission methods and never construct them.
func NewHandle(policy CancelPolicy, abort context.CancelFunc) *Handle {
	return &Handle{
		policy: policy,
		done:   make(chan struct{}),
		abort:  abort,
	}
}

// Policy returns the backend's fixed cancellation policy for this handle.
func (h *Handle) Policy() CancelPolicy {
	return h.policy
}

// Done returns a channel that is closed when the handle reaches a terminal
// state.
func (h *Handle) Done() <-chan struct{} {
	return h.done
}

// State returns the current state without blocking. Once a terminal state has
// been observed, every subsequent call returns the same state.
func (h *Handle) State() HandleState {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.state
}

// Wait suspends the caller until the handle reaches a terminal state or ctx
// is done. It returns the task's output for Ready, ErrCancelled for
// Cancelled, and the task's *TaskError or *PanicError for Failed. Waiting on
// an already-terminal handle returns the same outcome again without side
// effects.
func (h *Handle) Wait(ctx context.Context) (any, error) {
	select {
	case <-h.done:
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	switch h.state {
	case HandleStateReady:
		return h.value, nil
	case HandleStateCancelled:
		return nil, ErrCancelled
	default:
		return nil, h.err
	}
}

// Release discards the caller's interest in the result. Under AbortOnRelease
// the underlying task is stopped unless Detach was called first; under
// DetachOnRelease the task keeps running and its result is discarded.
// Releasing an already-terminal or already-released handle is a no-op.
func (h *Handle) Release() {
	if h.policy != AbortOnRelease || h.detached.Load() {
		return
	}
	if h.aborted.CompareAndSwap(false, true) && h.abort != nil {
		h.abort()
	}
}

// Detach opts out of abort-on-release: the task will run to completion even
// if the handle is released afterwards. Detaching a detach-policy handle is
// a no-op.
func (h *Handle) Detach() {
	h.detached.Store(true)
}

// Resolve records the task's outcome and wakes all waiters. Only the first
// resolution takes effect. An error that is the task context's cancellation
// after an abort release resolves Cancelled rather than Failed, so callers
// see the abort they asked for instead of a spurious failure.
//
// This is adapter plumbing, exposed for backend implementations.
func (h *Handle) Resolve(value any, err error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.state != HandleStatePending {
		return
	}

	switch {
	case err == nil:
		h.state = HandleStateReady
		h.value = value
	case errors.Is(err, ErrCancelled),
		h.aborted.Load() && errors.Is(err, context.Canceled):
		h.state = HandleStateCancelled
	default:
		h.state = HandleStateFailed
		var pe *PanicError
		if errors.As(err, &pe) {
			h.err = err
		} else {
			var te *TaskError
			if errors.As(err, &te) {
				h.err = err
			} else {
				h.err = &TaskError{Cause: err}
			}
		}
	}
	close(h.done)
}

// ResolveCancelled resolves the handle as Cancelled. Adapter plumbing.
func (h *Handle) ResolveCancelled() {
	h.Resolve(nil, ErrCancelled)
}

// abortRequested reports whether Release already asked for an abort. Run
// wrappers use it to skip tasks that were aborted before they started.
func (h *Handle) abortRequested() bool {
	return h.aborted.Load()
}
