package spawnkit

import (
	"context"

	"github.com/alitto/pond/v2"

	"github.com/spawnkit/go-spawnkit/core"
)

// PondPool adapts a github.com/alitto/pond pool with a fixed concurrency
// limit. As with the other adapters the native pool is shared, not owned
// exclusively: wrap an existing pool with WrapPondPool or create a private
// one with NewPondPool.
//
// Capabilities: TaskPoster, HandlePoster.
// Cancellation policy: AbortOnRelease. Each handle task runs with its own
// cancellable context; a released handle cancels it, and a task still queued
// behind the concurrency limit is skipped when a worker finally picks it up.
//
// Shutdown: pond exposes the stopped state synchronously (Stopped), which is
// surfaced as ErrShutdown before submitting. Pond reports no other
// per-submission rejection.
type PondPool struct {
	name string
	cfg  *core.Config
	pool pond.Pool
}

// NewPondPool creates an adapter with a private pond pool running at most
// maxConcurrency tasks at once.
func NewPondPool(name string, maxConcurrency int) *PondPool {
	return WrapPondPool(name, pond.NewPool(maxConcurrency), nil)
}

// WrapPondPool adapts an existing pond pool.
func WrapPondPool(name string, pool pond.Pool, cfg *core.Config) *PondPool {
	return &PondPool{
		name: name,
		cfg:  cfg.Sanitized(),
		pool: pool,
	}
}

// Name returns the adapter name used in logs and metrics.
func (p *PondPool) Name() string {
	return p.name
}

// Pool exposes the wrapped native pool.
func (p *PondPool) Pool() pond.Pool {
	return p.pool
}

// PostTask submits a fire-and-forget task to the pond pool.
func (p *PondPool) PostTask(task core.Task) error {
	if p.pool.Stopped() {
		p.reject()
		return core.ErrShutdown
	}
	p.pool.Go(func() {
		core.RunDetached(context.Background(), task, p.cfg, p.name)
	})
	return nil
}

// PostTaskWithHandle submits a task and returns its handle.
func (p *PondPool) PostTaskWithHandle(task core.ResultTask) (*core.Handle, error) {
	if p.pool.Stopped() {
		p.reject()
		return nil, core.ErrShutdown
	}

	taskCtx, cancel := context.WithCancel(context.Background())
	h := core.NewHandle(core.AbortOnRelease, cancel)
	p.pool.Go(func() {
		defer cancel()
		core.RunTask(taskCtx, h, task, p.cfg, p.name)
	})
	return h, nil
}

// QueuedTaskCount reports the number of tasks waiting for a worker slot.
func (p *PondPool) QueuedTaskCount() int {
	return int(p.pool.WaitingTasks())
}

// Close stops the pool and waits for queued tasks to finish.
func (p *PondPool) Close() {
	p.cfg.Logger.Info("pond pool closing", core.F("backend", p.name))
	p.pool.StopAndWait()
}

func (p *PondPool) reject() {
	p.cfg.Metrics.RecordTaskRejected(p.name, "shutdown")
	p.cfg.Logger.Warn("task rejected", core.F("backend", p.name), core.F("reason", "shutdown"))
}
