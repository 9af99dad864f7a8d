package spawnkit

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/spawnkit/go-spawnkit/core"
)

// workItem is one queued unit of loop work. discard is invoked instead of run
// when the queue is torn down, so handle-returning submissions never leave a
// handle unresolved behind a stopped loop.
type workItem struct {
	run     func(ctx context.Context)
	discard func()
}

// LoopRunner binds a dedicated goroutine to execute tasks sequentially.
// It is the single-threaded cooperative backend: every task submitted to it,
// portable or local, runs on the same goroutine (Thread Affinity), one at a
// time, in FIFO order.
//
// Use cases:
// 1. State owned by one goroutine without locks
// 2. CGO calls that require Thread Local Storage discipline above this layer
// 3. Simulating Main Thread / UI Thread behavior
//
// Capabilities: all four interfaces. A portable task is simply pinned to the
// loop like a local one; the loop never migrates work.
// Cancellation policy: AbortOnRelease. A released handle cancels the task's
// context and a queued task that was aborted before starting is skipped.
//
// Shutdown: after Stop, submissions return ErrShutdown. Queued tasks are
// dropped; dropped handle tasks resolve Cancelled.
type LoopRunner struct {
	name string
	cfg  *core.Config

	// Task queue: Buffered channel of pre-wrapped work items
	workQueue chan workItem

	// Lifecycle control
	ctx     context.Context
	cancel  context.CancelFunc
	stopped chan struct{}
	once    sync.Once
	closed  atomic.Bool
}

// NewLoopRunner creates and starts a LoopRunner. It immediately spawns the
// dedicated goroutine running the loop.
func NewLoopRunner(name string) *LoopRunner {
	return NewLoopRunnerWithConfig(name, nil)
}

// NewLoopRunnerWithConfig creates and starts a LoopRunner with custom hooks.
func NewLoopRunnerWithConfig(name string, cfg *core.Config) *LoopRunner {
	ctx, cancel := context.WithCancel(context.Background())
	r := &LoopRunner{
		name:      name,
		cfg:       cfg.Sanitized(),
		workQueue: make(chan workItem, 100),
		ctx:       ctx,
		cancel:    cancel,
		stopped:   make(chan struct{}),
	}

	go r.runLoop()

	return r
}

// Name returns the adapter name used in logs and metrics.
func (r *LoopRunner) Name() string {
	return r.name
}

// PostTask queues a portable fire-and-forget task on the loop.
func (r *LoopRunner) PostTask(task core.Task) error {
	return r.post(workItem{run: func(ctx context.Context) {
		core.RunDetached(ctx, task, r.cfg, r.name)
	}})
}

// PostLocalTask queues a goroutine-affine fire-and-forget task on the loop.
func (r *LoopRunner) PostLocalTask(task core.LocalTask) error {
	return r.post(workItem{run: func(ctx context.Context) {
		core.RunDetached(ctx, task, r.cfg, r.name)
	}})
}

// PostTaskWithHandle queues a portable task and returns its handle.
func (r *LoopRunner) PostTaskWithHandle(task core.ResultTask) (*core.Handle, error) {
	return r.postWithHandle(task)
}

// PostLocalTaskWithHandle queues a goroutine-affine task and returns its
// handle.
func (r *LoopRunner) PostLocalTaskWithHandle(task core.LocalResultTask) (*core.Handle, error) {
	return r.postWithHandle(core.ResultTask(task))
}

func (r *LoopRunner) postWithHandle(task core.ResultTask) (*core.Handle, error) {
	taskCtx, cancel := context.WithCancel(r.ctx)
	h := core.NewHandle(core.AbortOnRelease, cancel)

	err := r.post(workItem{
		run: func(ctx context.Context) {
			defer cancel()
			// The per-task context descends from the loop context; re-stamp
			// the current poster so tasks can re-post to their own loop.
			core.RunTask(core.WithCurrentLocalPoster(taskCtx, r), h, task, r.cfg, r.name)
		},
		discard: h.ResolveCancelled,
	})
	if err != nil {
		cancel()
		return nil, err
	}
	return h, nil
}

func (r *LoopRunner) post(item workItem) error {
	// Check if runner is closed to avoid queueing into a stopping loop
	if r.closed.Load() {
		r.reject()
		return core.ErrShutdown
	}

	select {
	case <-r.ctx.Done():
		r.reject()
		return core.ErrShutdown
	case r.workQueue <- item:
		return nil
	}
}

// QueuedTaskCount reports the number of tasks waiting in the loop's queue.
func (r *LoopRunner) QueuedTaskCount() int {
	return len(r.workQueue)
}

// IsClosed returns true if the runner has been stopped.
func (r *LoopRunner) IsClosed() bool {
	return r.closed.Load()
}

// Stop stops the runner and waits for the loop goroutine to exit. The task
// running at the time of the call completes; queued tasks are dropped and
// their handles, if any, resolve Cancelled.
func (r *LoopRunner) Stop() {
	r.once.Do(func() {
		r.closed.Store(true)
		r.cfg.Logger.Info("loop runner stopping", core.F("backend", r.name))
		r.cancel()
		<-r.stopped
	})
}

// runLoop is the core of this runner, it occupies the dedicated goroutine.
func (r *LoopRunner) runLoop() {
	defer close(r.stopped)

	// Stamp the context so tasks can re-post to their own loop.
	runCtx := core.WithCurrentLocalPoster(r.ctx, r)

	for {
		select {
		case item := <-r.workQueue:
			r.cfg.Metrics.RecordQueueDepth(r.name, len(r.workQueue))
			item.run(runCtx)

		case <-r.ctx.Done():
			r.drain()
			return
		}
	}
}

// drain discards queued items after shutdown so no handle is left pending.
func (r *LoopRunner) drain() {
	for {
		select {
		case item := <-r.workQueue:
			if item.discard != nil {
				item.discard()
			}
		default:
			return
		}
	}
}

func (r *LoopRunner) reject() {
	r.cfg.Metrics.RecordTaskRejected(r.name, "shutdown")
	r.cfg.Logger.Warn("task rejected", core.F("backend", r.name), core.F("reason", "shutdown"))
}
