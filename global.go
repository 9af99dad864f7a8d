package spawnkit

import (
	"sync"

	"github.com/spawnkit/go-spawnkit/core"
)

// =============================================================================
// Global Poster Helper (Singleton)
// =============================================================================

var (
	globalPoster *GoPool
	globalMu     sync.Mutex
)

// InitGlobalPoster initializes the global default poster, backed by the Go
// scheduler. Call it once at application startup.
func InitGlobalPoster() {
	InitGlobalPosterWithConfig(nil)
}

// InitGlobalPosterWithConfig initializes the global default poster with
// custom hooks. Subsequent calls are no-ops.
func InitGlobalPosterWithConfig(cfg *core.Config) {
	globalMu.Lock()
	defer globalMu.Unlock()

	if globalPoster != nil {
		return // Already initialized
	}
	globalPoster = NewGoPoolWithConfig("global", cfg)
}

// GlobalPoster returns the global default poster.
// It panics if InitGlobalPoster has not been called.
func GlobalPoster() *GoPool {
	globalMu.Lock()
	defer globalMu.Unlock()

	if globalPoster == nil {
		panic("GlobalPoster not initialized. Call InitGlobalPoster() first.")
	}
	return globalPoster
}

// ShutdownGlobalPoster closes the global default poster.
func ShutdownGlobalPoster() {
	globalMu.Lock()
	defer globalMu.Unlock()

	if globalPoster != nil {
		globalPoster.Close()
		globalPoster = nil
	}
}

// Post submits a fire-and-forget task to the global default poster.
func Post(task core.Task) error {
	return GlobalPoster().PostTask(task)
}

// PostWithHandle submits a task to the global default poster and returns its
// handle.
func PostWithHandle(task core.ResultTask) (*core.Handle, error) {
	return GlobalPoster().PostTaskWithHandle(task)
}
