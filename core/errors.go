package core

import (
	"errors"
	"fmt"
)

// ErrShutdown is returned by a submission method when the backend context no
// longer accepts work. It is the only rejection kind a backend may report
// synchronously; adapters map their backend's native closed-pool signal to it
// and never invent additional kinds.
var ErrShutdown = errors.New("spawnkit: backend is shut down")

// ErrCancelled is the terminal error of a handle whose task was stopped by an
// abort-on-release before producing a value.
var ErrCancelled = errors.New("spawnkit: task cancelled")

// TaskError wraps the error a task body itself produced. It is distinct from
// an internal backend fault and carries the task's own error as the cause.
type TaskError struct {
	Cause error
}

func (e *TaskError) Error() string {
	return fmt.Sprintf("spawnkit: task failed: %v", e.Cause)
}

func (e *TaskError) Unwrap() error {
	return e.Cause
}

// PanicError is the terminal error of a handle whose task terminated
// abnormally. It preserves the recovered panic value and the stack trace at
// the time of the panic, so handle-returning submission never hangs on a
// panicking task.
type PanicError struct {
	Value any
	Stack []byte
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("spawnkit: task panicked: %v", e.Value)
}
