package taskpool

import (
	"context"
	"sync/atomic"
)

// Handle is the one-shot channel through which a submitted task's outcome is
// delivered. The executing worker owns the write side for exactly one write;
// the submitter owns the read side for exactly one read. Wait blocks until the
// single write occurs; a second Wait fails with ErrHandleConsumed.
type Handle struct {
	done     chan struct{}
	consumed atomic.Bool

	// result is written exactly once by the executing worker, strictly
	// before done is closed.
	result Result
}

func newHandle() *Handle {
	return &Handle{done: make(chan struct{})}
}

// complete records the task outcome and releases waiters. Called exactly once
// by the worker that executed the task.
func (h *Handle) complete(result Result) {
	h.result = result
	close(h.done)
}

// Done returns a channel that is closed once the task's outcome has been
// recorded. It does not consume the handle and is safe to use in select
// statements.
func (h *Handle) Done() <-chan struct{} {
	return h.done
}

// Wait blocks until the task's single result write occurs, then returns the
// computed value or the task's failure. The handle is read-once: the second
// and later calls return ErrHandleConsumed. A wait that ends because ctx was
// canceled does not consume the handle and may be retried.
func (h *Handle) Wait(ctx context.Context) (interface{}, error) {
	if !h.consumed.CompareAndSwap(false, true) {
		return nil, ErrHandleConsumed
	}

	select {
	case <-h.done:
		return h.result.Value, h.result.Err
	case <-ctx.Done():
		h.consumed.Store(false)
		return nil, ctx.Err()
	}
}

// Future is a typed view over a Handle, produced by the package-level generic
// Submit. It carries the same one-shot read contract as the Handle it wraps.
type Future[T any] struct {
	handle *Handle
}

// Wait blocks until the task completes and returns its typed value or
// failure. See Handle.Wait for the read-once contract.
func (f *Future[T]) Wait(ctx context.Context) (T, error) {
	value, err := f.handle.Wait(ctx)
	if err != nil {
		var zero T
		return zero, err
	}
	typed, _ := value.(T) // zero value when the body returned a nil interface
	return typed, nil
}

// Done returns the completion channel of the underlying Handle.
func (f *Future[T]) Done() <-chan struct{} {
	return f.handle.Done()
}

// Handle returns the untyped handle backing this future.
func (f *Future[T]) Handle() *Handle {
	return f.handle
}

// Submit binds fn into a task, submits it to p, and returns a typed future
// for its result. The function's arguments are captured by its closure at
// call time, so later caller-side mutation is not observed by the task.
func Submit[T any](p Pool, fn func(ctx context.Context) (T, error)) (*Future[T], error) {
	return SubmitWithContext(context.Background(), p, fn)
}

// SubmitWithContext is Submit with a caller-provided context that is passed
// through to the task body.
func SubmitWithContext[T any](ctx context.Context, p Pool, fn func(ctx context.Context) (T, error)) (*Future[T], error) {
	handle, err := p.SubmitWithContext(ctx, TaskFunc(func(ctx context.Context) (interface{}, error) {
		return fn(ctx)
	}))
	if err != nil {
		return nil, err
	}
	return &Future[T]{handle: handle}, nil
}
