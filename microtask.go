package spawnkit

import (
	"context"
	"sync"

	"github.com/spawnkit/go-spawnkit/core"
)

// The microtask queue is global: one lazily-started goroutine drains it for
// the lifetime of the program, and every Microtask value posts into the same
// queue. This mirrors environments whose scheduler is ambient rather than an
// object the program owns.
var (
	microtaskOnce  sync.Once
	microtaskQueue chan workItem
)

func microtasks() chan workItem {
	microtaskOnce.Do(func() {
		microtaskQueue = make(chan workItem, 256)
		go func() {
			ctx := context.Background()
			for item := range microtaskQueue {
				item.run(ctx)
			}
		}()
	})
	return microtaskQueue
}

// Microtask submits to the global single-goroutine microtask queue. All
// tasks, from every Microtask value, execute on one shared goroutine in
// submission order.
//
// Capabilities: LocalTaskPoster, LocalHandlePoster only. The queue has no
// cross-goroutine execution, so the portable interfaces are deliberately
// absent rather than faked.
// Cancellation policy: AbortOnRelease (a released handle's task is skipped if
// still queued, and its context is cancelled if running).
//
// Shutdown: none. The queue cannot be closed, so submission always succeeds;
// a task posted while the program is tearing down may simply never run. This
// is a documented property of the backend, not an error the adapter could
// report.
type Microtask struct {
	name string
	cfg  *core.Config
}

// NewMicrotask creates a view onto the global microtask queue.
func NewMicrotask(name string) *Microtask {
	return NewMicrotaskWithConfig(name, nil)
}

// NewMicrotaskWithConfig creates a view with custom hooks.
func NewMicrotaskWithConfig(name string, cfg *core.Config) *Microtask {
	return &Microtask{
		name: name,
		cfg:  cfg.Sanitized(),
	}
}

// Name returns the adapter name used in logs and metrics.
func (m *Microtask) Name() string {
	return m.name
}

// PostLocalTask queues a fire-and-forget task. It always succeeds.
func (m *Microtask) PostLocalTask(task core.LocalTask) error {
	microtasks() <- workItem{run: func(ctx context.Context) {
		core.RunDetached(ctx, task, m.cfg, m.name)
	}}
	return nil
}

// PostLocalTaskWithHandle queues a task and returns its handle. It always
// succeeds.
func (m *Microtask) PostLocalTaskWithHandle(task core.LocalResultTask) (*core.Handle, error) {
	taskCtx, cancel := context.WithCancel(context.Background())
	h := core.NewHandle(core.AbortOnRelease, cancel)

	microtasks() <- workItem{run: func(ctx context.Context) {
		defer cancel()
		core.RunTask(taskCtx, h, task, m.cfg, m.name)
	}}
	return h, nil
}
