package spawnkit

import (
	"context"
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/spawnkit/go-spawnkit/core"
)

// =============================================================================
// CoreLoop: one OS-thread-locked loop
// =============================================================================

// CoreLoop is the single-core variant of the thread-per-core backend: one
// goroutine locked to an OS thread with runtime.LockOSThread, executing tasks
// sequentially. Unlike LoopRunner's plain goroutine, the loop never migrates
// between OS threads, which matters for thread-affine native libraries.
//
// Capabilities: all four interfaces.
// Cancellation policy: DetachOnRelease. Tasks accepted by the loop always run
// to completion; releasing a handle only discards the result.
//
// Shutdown: after Stop, submissions return ErrShutdown.
type CoreLoop struct {
	name string
	cfg  *core.Config

	workQueue chan workItem
	ctx       context.Context
	cancel    context.CancelFunc
	stopped   chan struct{}
	once      sync.Once
	closed    atomic.Bool
}

// NewCoreLoop creates and starts a CoreLoop on its own locked OS thread.
func NewCoreLoop(name string) *CoreLoop {
	return NewCoreLoopWithConfig(name, nil)
}

// NewCoreLoopWithConfig creates and starts a CoreLoop with custom hooks.
func NewCoreLoopWithConfig(name string, cfg *core.Config) *CoreLoop {
	ctx, cancel := context.WithCancel(context.Background())
	l := &CoreLoop{
		name:      name,
		cfg:       cfg.Sanitized(),
		workQueue: make(chan workItem, 100),
		ctx:       ctx,
		cancel:    cancel,
		stopped:   make(chan struct{}),
	}

	go l.runLoop()

	return l
}

// Name returns the adapter name used in logs and metrics.
func (l *CoreLoop) Name() string {
	return l.name
}

// PostTask queues a portable fire-and-forget task on the loop.
func (l *CoreLoop) PostTask(task core.Task) error {
	return l.post(workItem{run: func(ctx context.Context) {
		core.RunDetached(ctx, task, l.cfg, l.name)
	}})
}

// PostLocalTask queues a thread-affine fire-and-forget task on the loop.
func (l *CoreLoop) PostLocalTask(task core.LocalTask) error {
	return l.post(workItem{run: func(ctx context.Context) {
		core.RunDetached(ctx, task, l.cfg, l.name)
	}})
}

// PostTaskWithHandle queues a portable task and returns its handle.
func (l *CoreLoop) PostTaskWithHandle(task core.ResultTask) (*core.Handle, error) {
	return l.postWithHandle(task)
}

// PostLocalTaskWithHandle queues a thread-affine task and returns its handle.
func (l *CoreLoop) PostLocalTaskWithHandle(task core.LocalResultTask) (*core.Handle, error) {
	return l.postWithHandle(core.ResultTask(task))
}

func (l *CoreLoop) postWithHandle(task core.ResultTask) (*core.Handle, error) {
	h := core.NewHandle(core.DetachOnRelease, nil)
	err := l.post(workItem{
		run: func(ctx context.Context) {
			core.RunTask(ctx, h, task, l.cfg, l.name)
		},
		discard: h.ResolveCancelled,
	})
	if err != nil {
		return nil, err
	}
	return h, nil
}

func (l *CoreLoop) post(item workItem) error {
	if l.closed.Load() {
		l.cfg.Metrics.RecordTaskRejected(l.name, "shutdown")
		return core.ErrShutdown
	}

	select {
	case <-l.ctx.Done():
		l.cfg.Metrics.RecordTaskRejected(l.name, "shutdown")
		return core.ErrShutdown
	case l.workQueue <- item:
		return nil
	}
}

// IsClosed returns true if the loop has been stopped.
func (l *CoreLoop) IsClosed() bool {
	return l.closed.Load()
}

// Stop stops the loop and waits for its goroutine to exit. Queued handle
// tasks resolve Cancelled.
func (l *CoreLoop) Stop() {
	l.once.Do(func() {
		l.closed.Store(true)
		l.cfg.Logger.Info("core loop stopping", core.F("backend", l.name))
		l.cancel()
		<-l.stopped
	})
}

func (l *CoreLoop) runLoop() {
	defer close(l.stopped)

	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	runCtx := core.WithCurrentLocalPoster(l.ctx, l)

	for {
		select {
		case item := <-l.workQueue:
			item.run(runCtx)

		case <-l.ctx.Done():
			for {
				select {
				case item := <-l.workQueue:
					if item.discard != nil {
						item.discard()
					}
				default:
					return
				}
			}
		}
	}
}

// =============================================================================
// CorePool: one locked OS thread per core
// =============================================================================

// CorePool is the multi-core variant of the thread-per-core backend: one
// worker goroutine per core, each locked to its OS thread, all pulling from a
// shared queue. How tasks distribute across the cores is the backend's
// concern; the adapter only submits.
//
// Capabilities: TaskPoster, HandlePoster, Yielder. Tasks may land on any
// core, so the local interfaces are deliberately absent.
// Cancellation policy: DetachOnRelease.
//
// Shutdown: after Stop, submissions return ErrShutdown.
type CorePool struct {
	name    string
	cfg     *core.Config
	workers int

	workQueue chan workItem
	ctx       context.Context
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	once      sync.Once
	closed    atomic.Bool
}

// NewCorePool creates and starts a CorePool with one worker per available
// core.
func NewCorePool(name string) *CorePool {
	return NewCorePoolWithConfig(name, runtime.NumCPU(), nil)
}

// NewCorePoolWithConfig creates and starts a CorePool with a fixed worker
// count and custom hooks.
func NewCorePoolWithConfig(name string, workers int, cfg *core.Config) *CorePool {
	if workers < 1 {
		workers = 1
	}
	ctx, cancel := context.WithCancel(context.Background())
	p := &CorePool{
		name:      name,
		cfg:       cfg.Sanitized(),
		workers:   workers,
		workQueue: make(chan workItem, 100*workers),
		ctx:       ctx,
		cancel:    cancel,
	}

	for i := 0; i < workers; i++ {
		p.wg.Add(1)
		go p.workerLoop()
	}

	return p
}

// Name returns the adapter name used in logs and metrics.
func (p *CorePool) Name() string {
	return p.name
}

// WorkerCount returns the number of locked worker threads.
func (p *CorePool) WorkerCount() int {
	return p.workers
}

// PostTask queues a portable fire-and-forget task.
func (p *CorePool) PostTask(task core.Task) error {
	return p.post(workItem{run: func(ctx context.Context) {
		core.RunDetached(ctx, task, p.cfg, p.name)
	}})
}

// PostTaskWithHandle queues a portable task and returns its handle.
func (p *CorePool) PostTaskWithHandle(task core.ResultTask) (*core.Handle, error) {
	h := core.NewHandle(core.DetachOnRelease, nil)
	err := p.post(workItem{
		run: func(ctx context.Context) {
			core.RunTask(ctx, h, task, p.cfg, p.name)
		},
		discard: h.ResolveCancelled,
	})
	if err != nil {
		return nil, err
	}
	return h, nil
}

// YieldNow gives other runnable tasks a turn on the current core.
func (p *CorePool) YieldNow(ctx context.Context) error {
	runtime.Gosched()
	return ctx.Err()
}

func (p *CorePool) post(item workItem) error {
	if p.closed.Load() {
		p.cfg.Metrics.RecordTaskRejected(p.name, "shutdown")
		return core.ErrShutdown
	}

	select {
	case <-p.ctx.Done():
		p.cfg.Metrics.RecordTaskRejected(p.name, "shutdown")
		return core.ErrShutdown
	case p.workQueue <- item:
		return nil
	}
}

// IsClosed returns true if the pool has been stopped.
func (p *CorePool) IsClosed() bool {
	return p.closed.Load()
}

// Stop stops all workers and waits for them to exit. Queued handle tasks
// resolve Cancelled.
func (p *CorePool) Stop() {
	p.once.Do(func() {
		p.closed.Store(true)
		p.cfg.Logger.Info("core pool stopping",
			core.F("backend", p.name), core.F("workers", p.workers))
		p.cancel()
		p.wg.Wait()
	})
}

func (p *CorePool) workerLoop() {
	defer p.wg.Done()

	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	for {
		select {
		case item := <-p.workQueue:
			item.run(p.ctx)

		case <-p.ctx.Done():
			for {
				select {
				case item := <-p.workQueue:
					if item.discard != nil {
						item.discard()
					}
				default:
					return
				}
			}
		}
	}
}
