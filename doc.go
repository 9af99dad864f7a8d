// Package spawnkit provides a unifying submission layer over heterogeneous
// task-execution backends for Go.
//
// Library code written against spawnkit's capability interfaces can submit
// deferred computations, and optionally await their results, without being
// coupled to any one backend's native submission API. The layer never
// schedules anything itself: each backend keeps its own scheduling model,
// and spawnkit only submits tasks and normalizes their results.
//
// # Quick Start
//
// Initialize the global poster at application startup:
//
//	spawnkit.InitGlobalPoster()
//	defer spawnkit.ShutdownGlobalPoster()
//
// Submit a task and await its typed result:
//
//	res, err := spawnkit.PostWithResult(spawnkit.GlobalPoster(),
//		func(ctx context.Context) (int, error) {
//			return compute(ctx)
//		})
//	if err != nil {
//		return err
//	}
//	n, err := res.Wait(ctx)
//
// # Key Concepts
//
// Capability interfaces: four orthogonal interfaces describe what a backend
// can do. TaskPoster (portable fire-and-forget), LocalTaskPoster
// (goroutine-affine fire-and-forget), HandlePoster and LocalHandlePoster
// (same, returning a Handle). Each adapter implements only the subset its
// backend honestly supports; no capability is ever faked.
//
// Handle: the unified result of one handle-returning submission. It resolves
// exactly once to Ready, Cancelled, or Failed, and its terminal state is
// stable. Releasing an unfinished handle follows the producing backend's
// fixed CancelPolicy: AbortOnRelease stops the task, DetachOnRelease lets it
// run to completion with the result discarded. The two policies are
// observably different and deliberately not normalized away.
//
// Backends: GoPool (the Go scheduler itself), AntsPool (panjf2000/ants),
// PondPool (alitto/pond), LoopRunner (dedicated-goroutine sequential loop),
// LocalQueue (caller-driven run-until-idle queue), CoreLoop and CorePool
// (OS-thread-locked loops), and Microtask (global single-goroutine queue).
//
// Decorators: Instrument wraps any capability-interface implementer and
// stamps each task's context with ambient values and an optional logger,
// delegating submission unchanged. Decorators compose.
//
// # Errors
//
// A submission fails only with ErrShutdown, and only on backends whose
// native API rejects synchronously after close. Task-level failures are
// observable exclusively through handles: a failing task resolves Failed
// with a *TaskError, a panicking task with a *PanicError. The detached
// submission path has no way to observe task outcome.
package spawnkit
