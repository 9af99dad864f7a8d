package spawnkit

import (
	"context"
	"fmt"

	"github.com/spawnkit/go-spawnkit/core"
)

// ContextValue is one ambient key/value pair a decorator reinstates for the
// duration of a task body. Key must be a comparable type suitable for
// context.WithValue (use an unexported key type, not a bare string).
type ContextValue struct {
	Key   any
	Value any
}

// Instrumented wraps any value implementing one or more capability
// interfaces and re-implements all four by stamping each submitted task's
// context with the decorator's ambient values (and optional ambient logger)
// before delegating to the wrapped value's matching method.
//
// The decorator never alters submission or outcome semantics: errors,
// handles, and cancellation policies pass through untouched. Decorators
// compose; an Instrumented value is itself wrappable.
//
// Calling a capability method the wrapped value does not implement is a
// programmer error and panics, the same way posting to a capability the
// backend lacks would fail to compile against the raw adapter.
type Instrumented struct {
	poster      core.TaskPoster
	localPoster core.LocalTaskPoster
	handles     core.HandlePoster
	localHands  core.LocalHandlePoster

	values []ContextValue
	logger core.Logger
}

var (
	_ core.TaskPoster        = (*Instrumented)(nil)
	_ core.LocalTaskPoster   = (*Instrumented)(nil)
	_ core.HandlePoster      = (*Instrumented)(nil)
	_ core.LocalHandlePoster = (*Instrumented)(nil)
)

// Instrument wraps inner with ambient context values. inner must implement
// at least one capability interface.
func Instrument(inner any, values ...ContextValue) *Instrumented {
	return InstrumentWithLogger(inner, nil, values...)
}

// InstrumentWithLogger wraps inner with ambient context values and an
// ambient logger, retrievable inside tasks via core.LoggerFromContext.
func InstrumentWithLogger(inner any, logger core.Logger, values ...ContextValue) *Instrumented {
	i := &Instrumented{
		values: values,
		logger: logger,
	}
	i.poster, _ = inner.(core.TaskPoster)
	i.localPoster, _ = inner.(core.LocalTaskPoster)
	i.handles, _ = inner.(core.HandlePoster)
	i.localHands, _ = inner.(core.LocalHandlePoster)

	if i.poster == nil && i.localPoster == nil && i.handles == nil && i.localHands == nil {
		panic(fmt.Sprintf("spawnkit: Instrument: %T implements no capability interface", inner))
	}
	return i
}

// decorate reinstates the ambient values on the context a task runs with.
func (i *Instrumented) decorate(ctx context.Context) context.Context {
	for _, v := range i.values {
		ctx = context.WithValue(ctx, v.Key, v.Value)
	}
	if i.logger != nil {
		ctx = core.ContextWithLogger(ctx, i.logger)
	}
	return ctx
}

// PostTask forwards to the wrapped TaskPoster with the ambient context
// attached to the task.
func (i *Instrumented) PostTask(task core.Task) error {
	if i.poster == nil {
		panic("spawnkit: Instrument: wrapped value does not implement TaskPoster")
	}
	return i.poster.PostTask(func(ctx context.Context) {
		task(i.decorate(ctx))
	})
}

// PostLocalTask forwards to the wrapped LocalTaskPoster.
func (i *Instrumented) PostLocalTask(task core.LocalTask) error {
	if i.localPoster == nil {
		panic("spawnkit: Instrument: wrapped value does not implement LocalTaskPoster")
	}
	return i.localPoster.PostLocalTask(func(ctx context.Context) {
		task(i.decorate(ctx))
	})
}

// PostTaskWithHandle forwards to the wrapped HandlePoster.
func (i *Instrumented) PostTaskWithHandle(task core.ResultTask) (*core.Handle, error) {
	if i.handles == nil {
		panic("spawnkit: Instrument: wrapped value does not implement HandlePoster")
	}
	return i.handles.PostTaskWithHandle(func(ctx context.Context) (any, error) {
		return task(i.decorate(ctx))
	})
}

// PostLocalTaskWithHandle forwards to the wrapped LocalHandlePoster.
func (i *Instrumented) PostLocalTaskWithHandle(task core.LocalResultTask) (*core.Handle, error) {
	if i.localHands == nil {
		panic("spawnkit: Instrument: wrapped value does not implement LocalHandlePoster")
	}
	return i.localHands.PostLocalTaskWithHandle(func(ctx context.Context) (any, error) {
		return task(i.decorate(ctx))
	})
}
