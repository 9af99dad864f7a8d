package spawnkit

import (
	"context"
	"sync"

	"github.com/spawnkit/go-spawnkit/core"
)

// LocalQueue is a caller-driven backend: tasks accumulate in a queue and run
// only when the owning goroutine calls RunUntilIdle. Nothing executes in the
// background, which makes it useful for deterministic tests and for embedding
// task execution into an existing loop the caller already owns.
//
// Capabilities: LocalTaskPoster, LocalHandlePoster. There is no cross-
// goroutine execution at all, so the portable interfaces are deliberately
// absent rather than faked.
// Cancellation policy: AbortOnRelease. A handle released before RunUntilIdle
// reaches its task causes the task to be skipped.
//
// Discipline: RunUntilIdle must be driven by a single owning goroutine.
// Posting is permitted from that goroutine only; calling it from another
// goroutine is a usage error, not a recoverable runtime condition.
//
// Shutdown: after Close, submissions return ErrShutdown and tasks still
// queued resolve Cancelled (when they have a handle) without running.
type LocalQueue struct {
	name string
	cfg  *core.Config

	mu     sync.Mutex
	queue  []workItem
	closed bool
}

// NewLocalQueue creates an empty queue.
func NewLocalQueue(name string) *LocalQueue {
	return NewLocalQueueWithConfig(name, nil)
}

// NewLocalQueueWithConfig creates an empty queue with custom hooks.
func NewLocalQueueWithConfig(name string, cfg *core.Config) *LocalQueue {
	return &LocalQueue{
		name: name,
		cfg:  cfg.Sanitized(),
	}
}

// Name returns the adapter name used in logs and metrics.
func (q *LocalQueue) Name() string {
	return q.name
}

// PostLocalTask queues a fire-and-forget task for the next RunUntilIdle.
func (q *LocalQueue) PostLocalTask(task core.LocalTask) error {
	return q.enqueue(workItem{run: func(ctx context.Context) {
		core.RunDetached(ctx, task, q.cfg, q.name)
	}})
}

// PostLocalTaskWithHandle queues a task and returns its handle. The handle
// resolves during a later RunUntilIdle call.
func (q *LocalQueue) PostLocalTaskWithHandle(task core.LocalResultTask) (*core.Handle, error) {
	taskCtx, cancel := context.WithCancel(context.Background())
	h := core.NewHandle(core.AbortOnRelease, cancel)

	err := q.enqueue(workItem{
		run: func(ctx context.Context) {
			defer cancel()
			core.RunTask(taskCtx, h, task, q.cfg, q.name)
		},
		discard: h.ResolveCancelled,
	})
	if err != nil {
		cancel()
		return nil, err
	}
	return h, nil
}

func (q *LocalQueue) enqueue(item workItem) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		q.cfg.Metrics.RecordTaskRejected(q.name, "shutdown")
		return core.ErrShutdown
	}
	q.queue = append(q.queue, item)
	q.cfg.Metrics.RecordQueueDepth(q.name, len(q.queue))
	return nil
}

// RunUntilIdle runs queued tasks on the calling goroutine until the queue is
// empty, including tasks posted by the tasks themselves. It returns the
// number of tasks executed.
func (q *LocalQueue) RunUntilIdle(ctx context.Context) int {
	executed := 0
	for {
		q.mu.Lock()
		if len(q.queue) == 0 {
			q.mu.Unlock()
			return executed
		}
		// Swap the batch out so tasks can re-post while running.
		batch := q.queue
		q.queue = nil
		q.mu.Unlock()

		for _, item := range batch {
			item.run(ctx)
			executed++
		}
	}
}

// QueuedTaskCount reports the number of tasks waiting for RunUntilIdle.
func (q *LocalQueue) QueuedTaskCount() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.queue)
}

// IsClosed returns true if the queue no longer accepts work.
func (q *LocalQueue) IsClosed() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.closed
}

// Close rejects future submissions and discards queued tasks; discarded
// handle tasks resolve Cancelled.
func (q *LocalQueue) Close() {
	q.mu.Lock()
	pending := q.queue
	q.queue = nil
	q.closed = true
	q.mu.Unlock()

	q.cfg.Logger.Info("local queue closing",
		core.F("backend", q.name), core.F("dropped", len(pending)))
	for _, item := range pending {
		if item.discard != nil {
			item.discard()
		}
	}
}
