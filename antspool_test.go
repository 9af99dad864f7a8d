package spawnkit

import (
	"context"
	"errors"
	"testing"
	"time"
)

var (
	_ TaskPoster   = (*AntsPool)(nil)
	_ HandlePoster = (*AntsPool)(nil)
)

func TestAntsPool_PostTask(t *testing.T) {
	pool, err := NewAntsPool("ants", 4)
	if err != nil {
		t.Fatalf("NewAntsPool failed: %v", err)
	}
	defer pool.Close()

	done := make(chan struct{})
	if err := pool.PostTask(func(ctx context.Context) { close(done) }); err != nil {
		t.Fatalf("PostTask failed: %v", err)
	}

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("task did not run")
	}
}

func TestAntsPool_PostTaskWithHandle(t *testing.T) {
	pool, err := NewAntsPool("ants", 4)
	if err != nil {
		t.Fatalf("NewAntsPool failed: %v", err)
	}
	defer pool.Close()

	res, err := PostWithResult(pool, func(ctx context.Context) (string, error) {
		return "from ants", nil
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
	if s != "from ants" {
		t.Errorf("expected 'from ants', got %q", s)
	}
}

func TestAntsPool_ReleaseDoesNotStopTask(t *testing.T) {
	pool, err := NewAntsPool("ants", 1)
	if err != nil {
		t.Fatalf("NewAntsPool failed: %v", err)
	}
	defer pool.Close()

	gate := make(chan struct{})
	sideEffect := make(chan struct{})

	h, err := pool.PostTaskWithHandle(func(ctx context.Context) (any, error) {
		<-gate
		close(sideEffect)
		return nil, nil
	})
	if err != nil {
		t.Fatalf("PostTaskWithHandle failed: %v", err)
	}

	h.Release()
	close(gate)

	// Detach policy: the task still runs to completion and performs its
	// side effect, only the result is discarded.
	select {
	case <-sideEffect:
	case <-time.After(5 * time.Second):
		t.Fatal("released task did not complete")
	}
}

func TestAntsPool_ClosedPoolRejects(t *testing.T) {
	pool, err := NewAntsPool("ants", 2)
	if err != nil {
		t.Fatalf("NewAntsPool failed: %v", err)
	}
	pool.Close()

	if err := pool.PostTask(func(ctx context.Context) {}); !errors.Is(err, ErrShutdown) {
		t.Errorf("PostTask: expected ErrShutdown, got %v", err)
	}
	if _, err := pool.PostTaskWithHandle(func(ctx context.Context) (any, error) { return nil, nil }); !errors.Is(err, ErrShutdown) {
		t.Errorf("PostTaskWithHandle: expected ErrShutdown, got %v", err)
	}
}

func TestAntsPool_Counters(t *testing.T) {
	pool, err := NewAntsPool("ants", 1)
	if err != nil {
		t.Fatalf("NewAntsPool failed: %v", err)
	}
	defer pool.Close()

	gate := make(chan struct{})
	started := make(chan struct{})
	if err := pool.PostTask(func(ctx context.Context) {
		close(started)
		<-gate
	}); err != nil {
		t.Fatalf("PostTask failed: %v", err)
	}

	<-started
	if got := pool.ActiveTaskCount(); got != 1 {
		t.Errorf("expected 1 active task, got %d", got)
	}
	close(gate)
}
