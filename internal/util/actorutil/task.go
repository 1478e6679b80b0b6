package actorutil

import (
	"context"
	"errors"
	"time"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/primetalk/goio/io"
)

// SafeBackgroundTask runs a blocking call outside the actor's mailbox and
// delivers its outcome as a message. The call receives a context bounded by
// the task timeout.
type SafeBackgroundTask[T any] struct {
	system    *actor.ActorSystem
	fn        func(context.Context) (*T, error)
	timeout   *time.Duration
	onError   func(error)
	recover   func(error) T
	onSuccess func(T)
}

func NewBackgroundTask[T any](ctx actor.Context, fn func(context.Context) (*T, error)) *SafeBackgroundTask[T] {
	return &SafeBackgroundTask[T]{
		system: ctx.ActorSystem(),
		fn:     fn,
	}
}

func NewBackgroundTaskNoError[T any](ctx actor.Context, fn func(context.Context) *T) *SafeBackgroundTask[T] {
	return &SafeBackgroundTask[T]{
		system: ctx.ActorSystem(),
		fn: func(c context.Context) (*T, error) {
			return fn(c), nil
		},
	}
}

func (t *SafeBackgroundTask[T]) WithTimeout(timeout time.Duration) *SafeBackgroundTask[T] {
	t.timeout = &timeout
	return t
}

// OnError is called from the task goroutine. It must not touch actor state.
func (t *SafeBackgroundTask[T]) OnError(fn func(error)) *SafeBackgroundTask[T] {
	t.onError = fn
	return t
}

// Recover turns a failure into a regular result.
func (t *SafeBackgroundTask[T]) Recover(fn func(error) T) *SafeBackgroundTask[T] {
	t.recover = fn
	return t
}

func (t *SafeBackgroundTask[T]) PipeTo(pid *actor.PID) {
	t.onSuccess = func(value T) {
		t.system.Root.Send(pid, value)
	}
	t.Run()
}

func (t *SafeBackgroundTask[T]) Run() {
	go t.RunSync()
}

func (t *SafeBackgroundTask[T]) RunSync() {
	bg := io.Eval(func() (T, error) {
		var zero T
		ctx, cancel := t.context()
		defer cancel()
		a, err := t.fn(ctx)
		if err != nil {
			return zero, err
		}
		if a == nil {
			return zero, errors.New("result is nil")
		}
		return *a, nil
	})
	if t.timeout != nil {
		bg = io.WithTimeout[T](*t.timeout)(bg)
	}
	result := io.RunSync(bg)
	value := result.Value
	if result.Error != nil {
		if t.recover != nil {
			value = t.recover(result.Error)
		} else {
			if t.onError != nil {
				t.onError(result.Error)
			}
			return
		}
	}
	if t.onSuccess != nil {
		t.onSuccess(value)
	}
}

// IsTimeout reports whether err comes from a task running out of time,
// either the task timeout or the deadline of its context.
func IsTimeout(err error) bool {
	return errors.Is(err, io.ErrorTimeout) || errors.Is(err, context.DeadlineExceeded)
}

func (t *SafeBackgroundTask[T]) context() (context.Context, context.CancelFunc) {
	if t.timeout != nil {
		return context.WithTimeout(context.Background(), *t.timeout)
	}
	return context.WithCancel(context.Background())
}
