package spawnkit

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

var (
	_ TaskPoster        = (*CoreLoop)(nil)
	_ LocalTaskPoster   = (*CoreLoop)(nil)
	_ HandlePoster      = (*CoreLoop)(nil)
	_ LocalHandlePoster = (*CoreLoop)(nil)

	_ TaskPoster   = (*CorePool)(nil)
	_ HandlePoster = (*CorePool)(nil)
	_ Yielder      = (*CorePool)(nil)
)

func TestCoreLoop_PostTaskWithHandle(t *testing.T) {
	loop := NewCoreLoop("core-loop")
	defer loop.Stop()

	res, err := PostWithResult(loop, func(ctx context.Context) (int, error) {
		return 11, nil
	})
	if err != nil {
		t.Fatalf("PostWithResult failed: %v", err)
	}
	if res.Policy() != DetachOnRelease {
		t.Errorf("expected detach policy, got %v", res.Policy())
	}

	n, err := res.Wait(context.Background())
	if err != nil {
		t.Fatalf("Wait failed: %v", err)
	}
	if n != 11 {
		t.Errorf("expected 11, got %d", n)
	}
}

func TestCoreLoop_LocalTasksRunInOrder(t *testing.T) {
	loop := NewCoreLoop("core-loop")
	defer loop.Stop()

	var mu sync.Mutex
	var order []int
	done := make(chan struct{})

	for i := 1; i <= 4; i++ {
		i := i
		err := loop.PostLocalTask(func(ctx context.Context) {
			mu.Lock()
			order = append(order, i)
			mu.Unlock()
			if i == 4 {
				close(done)
			}
		})
		if err != nil {
			t.Fatalf("PostLocalTask #%d failed: %v", i, err)
		}
	}

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("tasks did not finish")
	}

	mu.Lock()
	defer mu.Unlock()
	for i, got := range order {
		if got != i+1 {
			t.Fatalf("expected FIFO order, got %v", order)
		}
	}
}

func TestCoreLoop_ReleaseDoesNotStopTask(t *testing.T) {
	loop := NewCoreLoop("core-loop")
	defer loop.Stop()

	gate := make(chan struct{})
	sideEffect := make(chan struct{})

	h, err := loop.PostLocalTaskWithHandle(func(ctx context.Context) (any, error) {
		<-gate
		close(sideEffect)
		return nil, nil
	})
	if err != nil {
		t.Fatalf("PostLocalTaskWithHandle failed: %v", err)
	}

	h.Release()
	close(gate)

	select {
	case <-sideEffect:
	case <-time.After(5 * time.Second):
		t.Fatal("released task did not complete")
	}
}

func TestCoreLoop_StopRejects(t *testing.T) {
	loop := NewCoreLoop("core-loop")
	loop.Stop()

	if !loop.IsClosed() {
		t.Fatal("expected IsClosed after Stop")
	}
	if err := loop.PostTask(func(ctx context.Context) {}); !errors.Is(err, ErrShutdown) {
		t.Errorf("PostTask: expected ErrShutdown, got %v", err)
	}
	if _, err := loop.PostLocalTaskWithHandle(func(ctx context.Context) (any, error) { return nil, nil }); !errors.Is(err, ErrShutdown) {
		t.Errorf("PostLocalTaskWithHandle: expected ErrShutdown, got %v", err)
	}
}

func TestCorePool_PostTaskWithHandle(t *testing.T) {
	pool := NewCorePoolWithConfig("core-pool", 2, nil)
	defer pool.Stop()

	if got := pool.WorkerCount(); got != 2 {
		t.Fatalf("expected 2 workers, got %d", got)
	}

	res, err := PostWithResult(pool, func(ctx context.Context) (string, error) {
		return "per-core", nil
	})
	if err != nil {
		t.Fatalf("PostWithResult failed: %v", err)
	}
	if res.Policy() != DetachOnRelease {
		t.Errorf("expected detach policy, got %v", res.Policy())
	}

	s, err := res.Wait(context.Background())
	if err != nil {
		t.Fatalf("Wait failed: %v", err)
	}
	if s != "per-core" {
		t.Errorf("expected 'per-core', got %q", s)
	}
}

func TestCorePool_RunsTasksConcurrently(t *testing.T) {
	pool := NewCorePoolWithConfig("core-pool", 2, nil)
	defer pool.Stop()

	// Two tasks rendezvous; with two workers both must be running at once.
	var wg sync.WaitGroup
	wg.Add(2)
	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	for i := 0; i < 2; i++ {
		err := pool.PostTask(func(ctx context.Context) {
			wg.Done()
			wg.Wait()
		})
		if err != nil {
			t.Fatalf("PostTask failed: %v", err)
		}
	}

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("tasks did not run concurrently")
	}
}

func TestCorePool_StopRejects(t *testing.T) {
	pool := NewCorePoolWithConfig("core-pool", 1, nil)
	pool.Stop()

	if !pool.IsClosed() {
		t.Fatal("expected IsClosed after Stop")
	}
	if err := pool.PostTask(func(ctx context.Context) {}); !errors.Is(err, ErrShutdown) {
		t.Errorf("PostTask: expected ErrShutdown, got %v", err)
	}
	if _, err := pool.PostTaskWithHandle(func(ctx context.Context) (any, error) { return nil, nil }); !errors.Is(err, ErrShutdown) {
		t.Errorf("PostTaskWithHandle: expected ErrShutdown, got %v", err)
	}
}

func TestCorePool_YieldNow(t *testing.T) {
	pool := NewCorePoolWithConfig("core-pool", 1, nil)
	defer pool.Stop()

	if err := pool.YieldNow(context.Background()); err != nil {
		t.Errorf("YieldNow on live context failed: %v", err)
	}
}
