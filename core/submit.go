package core

import (
	"context"
)

// =============================================================================
// Typed submission helpers
// =============================================================================
//
// Go interface methods cannot be generic, so the capability interfaces accept
// erased ResultTask values. These package-level generic helpers recover the
// typed surface: they wrap a typed task into the erased form, submit it
// through the interface, and wrap the returned Handle into a typed view.

// ResultOf is a typed view over a Handle. It shares the handle's state,
// policy, and release semantics; only Wait gains the task's concrete output
// type.
type ResultOf[T any] struct {
	h *Handle
}

// Handle returns the underlying erased handle.
func (r *ResultOf[T]) Handle() *Handle {
	return r.h
}

// Done returns a channel that is closed when the task reaches a terminal state.
func (r *ResultOf[T]) Done() <-chan struct{} {
	return r.h.Done()
}

// State returns the current state without blocking.
func (r *ResultOf[T]) State() HandleState {
	return r.h.State()
}

// Policy returns the backend's fixed cancellation policy.
func (r *ResultOf[T]) Policy() CancelPolicy {
	return r.h.Policy()
}

// Release discards the result per the backend's cancellation policy.
func (r *ResultOf[T]) Release() {
	r.h.Release()
}

// Detach lets the task run to completion even if the handle is released.
func (r *ResultOf[T]) Detach() {
	r.h.Detach()
}

// Wait suspends until the task reaches a terminal state and returns its typed
// output, ErrCancelled, or the task's failure.
func (r *ResultOf[T]) Wait(ctx context.Context) (T, error) {
	v, err := r.h.Wait(ctx)
	if err != nil {
		var zero T
		return zero, err
	}
	// A nil output boxed as any does not assert cleanly when T is itself an
	// interface type; treat it as the zero value.
	t, ok := v.(T)
	if !ok {
		var zero T
		return zero, nil
	}
	return t, nil
}

// PostWithResult submits a typed portable task through any HandlePoster and
// returns a typed view of the resulting handle.
//
// Example:
//
//	res, err := core.PostWithResult(pool, func(ctx context.Context) (int, error) {
//		return 4, nil
//	})
//	if err != nil {
//		return err
//	}
//	n, err := res.Wait(ctx) // n == 4
func PostWithResult[T any](p HandlePoster, task func(ctx context.Context) (T, error)) (*ResultOf[T], error) {
	h, err := p.PostTaskWithHandle(func(ctx context.Context) (any, error) {
		return task(ctx)
	})
	if err != nil {
		return nil, err
	}
	return &ResultOf[T]{h: h}, nil
}

// PostLocalWithResult is PostWithResult for goroutine-affine tasks.
func PostLocalWithResult[T any](p LocalHandlePoster, task func(ctx context.Context) (T, error)) (*ResultOf[T], error) {
	h, err := p.PostLocalTaskWithHandle(func(ctx context.Context) (any, error) {
		return task(ctx)
	})
	if err != nil {
		return nil, err
	}
	return &ResultOf[T]{h: h}, nil
}

// PostBlockingWithResult is PostWithResult for tasks expected to block.
func PostBlockingWithResult[T any](p BlockingPoster, task func(ctx context.Context) (T, error)) (*ResultOf[T], error) {
	h, err := p.PostBlockingTask(func(ctx context.Context) (any, error) {
		return task(ctx)
	})
	if err != nil {
		return nil, err
	}
	return &ResultOf[T]{h: h}, nil
}
