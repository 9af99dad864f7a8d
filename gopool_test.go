package spawnkit

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/spawnkit/go-spawnkit/core"
)

var (
	_ TaskPoster     = (*GoPool)(nil)
	_ HandlePoster   = (*GoPool)(nil)
	_ BlockingPoster = (*GoPool)(nil)
	_ Yielder        = (*GoPool)(nil)
)

func TestGoPool_PostTask(t *testing.T) {
	pool := NewGoPool("go-pool")
	defer pool.Close()

	done := make(chan struct{})
	err := pool.PostTask(func(ctx context.Context) {
		close(done)
	})
	if err != nil {
		t.Fatalf("PostTask failed: %v", err)
	}

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("task did not run")
	}
}

func TestGoPool_PostTaskWithHandle(t *testing.T) {
	pool := NewGoPool("go-pool")
	defer pool.Close()

	res, err := PostWithResult(pool, func(ctx context.Context) (int, error) {
		return 4, nil
	})
	if err != nil {
		t.Fatalf("PostWithResult failed: %v", err)
	}
	if res.Policy() != AbortOnRelease {
		t.Errorf("expected abort policy, got %v", res.Policy())
	}

	n, err := res.Wait(context.Background())
	if err != nil {
		t.Fatalf("Wait failed: %v", err)
	}
	if n != 4 {
		t.Errorf("expected 4, got %d", n)
	}
}

func TestGoPool_ReleaseAbortsRunningTask(t *testing.T) {
	pool := NewGoPool("go-pool")
	defer pool.Close()

	started := make(chan struct{})
	var observedCancel atomic.Bool

	h, err := pool.PostTaskWithHandle(func(ctx context.Context) (any, error) {
		close(started)
		select {
		case <-ctx.Done():
			observedCancel.Store(true)
			return nil, ctx.Err()
		case <-time.After(5 * time.Second):
			return nil, errors.New("abort never arrived")
		}
	})
	if err != nil {
		t.Fatalf("PostTaskWithHandle failed: %v", err)
	}

	<-started
	h.Release()

	select {
	case <-h.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("handle did not settle after release")
	}

	if !observedCancel.Load() {
		t.Error("task did not observe context cancellation")
	}
	if h.State() != HandleStateCancelled {
		t.Errorf("expected cancelled state, got %v", h.State())
	}
	if _, err := h.Wait(context.Background()); !errors.Is(err, ErrCancelled) {
		t.Errorf("expected ErrCancelled, got %v", err)
	}
}

func TestGoPool_BlockingHandleDetaches(t *testing.T) {
	pool := NewGoPool("go-pool")
	defer pool.Close()

	gate := make(chan struct{})
	ran := make(chan struct{})

	h, err := pool.PostBlockingTask(func(ctx context.Context) (any, error) {
		<-gate
		close(ran)
		return "done", nil
	})
	if err != nil {
		t.Fatalf("PostBlockingTask failed: %v", err)
	}
	if h.Policy() != DetachOnRelease {
		t.Fatalf("expected detach policy, got %v", h.Policy())
	}

	// Releasing before the task finishes must not stop it.
	h.Release()
	close(gate)

	select {
	case <-ran:
	case <-time.After(5 * time.Second):
		t.Fatal("blocking task did not run to completion after release")
	}
}

func TestGoPool_ClosedPoolRejects(t *testing.T) {
	pool := NewGoPool("go-pool")
	pool.Close()

	if !pool.IsClosed() {
		t.Fatal("expected IsClosed after Close")
	}

	if err := pool.PostTask(func(ctx context.Context) {}); !errors.Is(err, ErrShutdown) {
		t.Errorf("PostTask: expected ErrShutdown, got %v", err)
	}
	if _, err := pool.PostTaskWithHandle(func(ctx context.Context) (any, error) { return nil, nil }); !errors.Is(err, ErrShutdown) {
		t.Errorf("PostTaskWithHandle: expected ErrShutdown, got %v", err)
	}
	if _, err := pool.PostBlockingTask(func(ctx context.Context) (any, error) { return nil, nil }); !errors.Is(err, ErrShutdown) {
		t.Errorf("PostBlockingTask: expected ErrShutdown, got %v", err)
	}
}

func TestGoPool_CloseWaitsForTasks(t *testing.T) {
	pool := NewGoPool("go-pool")

	var finished atomic.Bool
	err := pool.PostTask(func(ctx context.Context) {
		<-ctx.Done()
		finished.Store(true)
	})
	if err != nil {
		t.Fatalf("PostTask failed: %v", err)
	}

	pool.Close()

	if !finished.Load() {
		t.Error("Close returned before the task finished")
	}
}

func TestGoPool_YieldNow(t *testing.T) {
	pool := NewGoPool("go-pool")
	defer pool.Close()

	if err := pool.YieldNow(context.Background()); err != nil {
		t.Errorf("YieldNow on live context failed: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := pool.YieldNow(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled from cancelled yield, got %v", err)
	}
}

func TestGoPool_PanicDoesNotKillPool(t *testing.T) {
	pool := NewGoPoolWithConfig("go-pool", &core.Config{
		Logger:       core.NewNoOpLogger(),
		PanicHandler: &quietPanicHandler{},
	})
	defer pool.Close()

	h, err := pool.PostTaskWithHandle(func(ctx context.Context) (any, error) {
		panic("worker boom")
	})
	if err != nil {
		t.Fatalf("PostTaskWithHandle failed: %v", err)
	}

	_, err = h.Wait(context.Background())
	var pe *core.PanicError
	if !errors.As(err, &pe) {
		t.Fatalf("expected *PanicError, got %v", err)
	}

	// The pool keeps working after a panic.
	res, err := PostWithResult(pool, func(ctx context.Context) (int, error) {
		return 1, nil
	})
	if err != nil {
		t.Fatalf("PostWithResult after panic failed: %v", err)
	}
	if n, err := res.Wait(context.Background()); err != nil || n != 1 {
		t.Errorf("expected (1, nil), got (%d, %v)", n, err)
	}
}

// quietPanicHandler swallows panics so expected-panic tests stay silent.
type quietPanicHandler struct{}

func (quietPanicHandler) HandlePanic(ctx context.Context, backend string, panicInfo any, stackTrace []byte) {
}
