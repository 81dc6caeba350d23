package pool

import (
	"context"
	"fmt"
)

// Result is the outcome of one task. Value is whatever the handler returned,
// even alongside an error; it is the zero value after a panic or cancellation.
type Result[R any] struct {
	Value R
	Err   error
}

// OK reports whether the task succeeded.
func (r Result[R]) OK() bool {
	return r.Err == nil
}

// PanicError is delivered when a handler panics.
type PanicError struct {
	Value any
}

// Error implements error.
func (e *PanicError) Error() string {
	return fmt.Sprintf("task panicked: %v", e.Value)
}

// Future is a single-assignment handle to a task's Result.
type Future[R any] struct {
	done   chan struct{}
	result Result[R]
}

// newFuture creates an unresolved Future.
func newFuture[R any]() *Future[R] {
	return &Future[R]{done: make(chan struct{})}
}

// resolve stores r and wakes every waiter. It must be called exactly once.
func (f *Future[R]) resolve(r Result[R]) {
	f.result = r
	close(f.done)
}

// Done is closed once the Result is available.
func (f *Future[R]) Done() <-chan struct{} {
	return f.done
}

// Result blocks until the task finishes and returns its Result.
func (f *Future[R]) Result() Result[R] {
	<-f.done
	return f.result
}

// Wait is like Result but gives up when ctx is done.
func (f *Future[R]) Wait(ctx context.Context) (Result[R], error) {
	select {
	case <-f.done:
		return f.result, nil
	case <-ctx.Done():
		return Result[R]{}, ctx.Err()
	}
}
