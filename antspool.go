package spawnkit

import (
	"context"
	"errors"

	"github.com/panjf2000/ants/v2"

	"github.com/spawnkit/go-spawnkit/core"
)

// AntsPool adapts a github.com/panjf2000/ants worker pool. The pool object is
// shared, not owned: wrap an existing pool with WrapAntsPool to reuse a
// context other code also submits to, or create a private one with
// NewAntsPool.
//
// Capabilities: TaskPoster, HandlePoster.
// Cancellation policy: DetachOnRelease. An ants worker cannot be interrupted
// once it picked up a task and the adapter does not pretend otherwise;
// releasing a handle only discards the result.
//
// Shutdown: ants reports a closed pool synchronously (ants.ErrPoolClosed),
// which is surfaced as ErrShutdown. Every other native rejection is passed
// through unchanged.
type AntsPool struct {
	name string
	cfg  *core.Config
	pool *ants.Pool
}

// NewAntsPool creates an adapter with a private ants pool of the given size.
func NewAntsPool(name string, size int) (*AntsPool, error) {
	pool, err := ants.NewPool(size)
	if err != nil {
		return nil, err
	}
	return WrapAntsPool(name, pool, nil), nil
}

// WrapAntsPool adapts an existing ants pool. The caller keeps ownership of
// the pool's lifecycle; Close releases it.
func WrapAntsPool(name string, pool *ants.Pool, cfg *core.Config) *AntsPool {
	return &AntsPool{
		name: name,
		cfg:  cfg.Sanitized(),
		pool: pool,
	}
}

// Name returns the adapter name used in logs and metrics.
func (p *AntsPool) Name() string {
	return p.name
}

// Pool exposes the wrapped native pool.
func (p *AntsPool) Pool() *ants.Pool {
	return p.pool
}

// PostTask submits a fire-and-forget task to the ants pool.
func (p *AntsPool) PostTask(task core.Task) error {
	err := p.pool.Submit(func() {
		core.RunDetached(context.Background(), task, p.cfg, p.name)
	})
	return p.mapSubmitError(err)
}

// PostTaskWithHandle submits a task and returns its handle. The handle is
// completed through a synthesized completion signal; ants has no native
// result concept.
func (p *AntsPool) PostTaskWithHandle(task core.ResultTask) (*core.Handle, error) {
	h := core.NewHandle(core.DetachOnRelease, nil)
	err := p.pool.Submit(func() {
		core.RunTask(context.Background(), h, task, p.cfg, p.name)
	})
	if err != nil {
		return nil, p.mapSubmitError(err)
	}
	return h, nil
}

// QueuedTaskCount reports the number of tasks waiting for a free worker.
func (p *AntsPool) QueuedTaskCount() int {
	return p.pool.Waiting()
}

// ActiveTaskCount reports the number of running workers.
func (p *AntsPool) ActiveTaskCount() int {
	return p.pool.Running()
}

// Close releases the wrapped pool; subsequent submissions return ErrShutdown.
func (p *AntsPool) Close() {
	p.cfg.Logger.Info("ants pool closing", core.F("backend", p.name))
	p.pool.Release()
}

func (p *AntsPool) mapSubmitError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ants.ErrPoolClosed) {
		p.cfg.Metrics.RecordTaskRejected(p.name, "shutdown")
		p.cfg.Logger.Warn("task rejected", core.F("backend", p.name), core.F("reason", "shutdown"))
		return core.ErrShutdown
	}
	p.cfg.Metrics.RecordTaskRejected(p.name, err.Error())
	return err
}
