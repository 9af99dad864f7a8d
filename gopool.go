package spawnkit

import (
	"context"
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/spawnkit/go-spawnkit/core"
)

// GoPool submits tasks to the Go runtime's own scheduler: every accepted task
// becomes one goroutine, distributed across worker threads by the runtime's
// work-stealing scheduler. The scheduling itself is opaque to this adapter;
// it only submits and normalizes results.
//
// Capabilities: TaskPoster, HandlePoster, BlockingPoster, Yielder.
// Cancellation policy: AbortOnRelease for regular handles (the task's context
// is cancelled); DetachOnRelease for blocking handles, since a blocking
// function cannot be interrupted once started.
//
// The Go scheduler has no shutdown concept of its own, so the adapter
// provides the gate: after Close, submissions return ErrShutdown and the base
// context of in-flight tasks is cancelled.
type GoPool struct {
	name   string
	cfg    *core.Config
	ctx    context.Context
	cancel context.CancelFunc
	closed atomic.Bool
	wg     sync.WaitGroup
}

// NewGoPool creates a GoPool with the default config.
func NewGoPool(name string) *GoPool {
	return NewGoPoolWithConfig(name, nil)
}

// NewGoPoolWithConfig creates a GoPool with custom hooks.
func NewGoPoolWithConfig(name string, cfg *core.Config) *GoPool {
	ctx, cancel := context.WithCancel(context.Background())
	return &GoPool{
		name:   name,
		cfg:    cfg.Sanitized(),
		ctx:    ctx,
		cancel: cancel,
	}
}

// Name returns the adapter name used in logs and metrics.
func (p *GoPool) Name() string {
	return p.name
}

// PostTask spawns a fire-and-forget goroutine for the task.
func (p *GoPool) PostTask(task core.Task) error {
	if p.closed.Load() {
		p.reject("shutdown")
		return core.ErrShutdown
	}

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		core.RunDetached(p.ctx, task, p.cfg, p.name)
	}()
	return nil
}

// PostTaskWithHandle spawns a goroutine for the task and returns its handle.
func (p *GoPool) PostTaskWithHandle(task core.ResultTask) (*core.Handle, error) {
	if p.closed.Load() {
		p.reject("shutdown")
		return nil, core.ErrShutdown
	}

	taskCtx, cancel := context.WithCancel(p.ctx)
	h := core.NewHandle(core.AbortOnRelease, cancel)

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		defer cancel()
		core.RunTask(taskCtx, h, task, p.cfg, p.name)
	}()
	return h, nil
}

// PostBlockingTask runs a task that is expected to block. On this backend a
// dedicated goroutine is the native answer; the handle cannot abort a
// blocked function, so it carries the detach policy.
func (p *GoPool) PostBlockingTask(task core.ResultTask) (*core.Handle, error) {
	if p.closed.Load() {
		p.reject("shutdown")
		return nil, core.ErrShutdown
	}

	h := core.NewHandle(core.DetachOnRelease, nil)

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		core.RunTask(p.ctx, h, task, p.cfg, p.name)
	}()
	return h, nil
}

// YieldNow gives other runnable goroutines a turn on the scheduler.
func (p *GoPool) YieldNow(ctx context.Context) error {
	runtime.Gosched()
	return ctx.Err()
}

// IsClosed returns true if the pool no longer accepts work.
func (p *GoPool) IsClosed() bool {
	return p.closed.Load()
}

// Close stops accepting submissions, cancels the base context of in-flight
// tasks and waits for them to return.
func (p *GoPool) Close() {
	if !p.closed.CompareAndSwap(false, true) {
		return
	}
	p.cfg.Logger.Info("gopool closing", core.F("backend", p.name))
	p.cancel()
	p.wg.Wait()
}

func (p *GoPool) reject(reason string) {
	p.cfg.Metrics.RecordTaskRejected(p.name, reason)
	p.cfg.Logger.Warn("task rejected", core.F("backend", p.name), core.F("reason", reason))
}
