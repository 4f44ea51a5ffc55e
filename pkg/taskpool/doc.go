/*
Package taskpool provides a fixed-size task execution pool with per-task
result handles.

A pool manages a fixed number of worker goroutines that drain a shared,
unbounded FIFO queue of submitted tasks. Submission is decoupled from
execution: every accepted task gets a one-shot Handle through which its
result (or failure) is delivered, so heterogeneous work can be enqueued and
its outcomes collected independently.

Basic usage:

	pool := taskpool.New(4) // 4 workers
	defer pool.Shutdown()

	handle, err := pool.Submit(taskpool.TaskFunc(func(ctx context.Context) (interface{}, error) {
		return computeSomething(ctx)
	}))
	if err != nil {
		log.Printf("Failed to submit: %v", err)
	}

	value, err := handle.Wait(context.Background())
	if err != nil {
		log.Printf("Task failed: %v", err)
	}

Typed submission:

The package-level generic Submit preserves the callable's return type:

	future, _ := taskpool.Submit(pool, func(ctx context.Context) (string, error) {
		return "hello", nil
	})

	s, err := future.Wait(context.Background()) // s is a string

Result Handles:

A Handle is write-once and read-once. Exactly one write happens, performed by
the worker that executed the task, carrying either the computed value or the
failure. Wait blocks the reader until that write; a second Wait fails fast
with ErrHandleConsumed rather than blocking forever. Done exposes the
completion signal for select loops without consuming the handle:

	select {
	case <-handle.Done():
		value, err := handle.Wait(ctx)
		...
	case <-time.After(time.Second):
		...
	}

Ordering:

Tasks are dequeued in strict FIFO order relative to their submission order.
No ordering holds between completion times: a later short task may finish
before an earlier long one.

Error Handling:

Failures surface only through the submitting caller's Handle:

	// Body errors are delivered on Wait
	handle, _ := pool.Submit(taskpool.TaskFunc(func(ctx context.Context) (interface{}, error) {
		return nil, errors.New("boom")
	}))
	_, err := handle.Wait(ctx) // err.Error() == "boom"

	// Panics are recovered per task and never kill the worker
	handle, _ = pool.Submit(taskpool.TaskFunc(func(ctx context.Context) (interface{}, error) {
		panic("unexpected")
	}))

A failing task never affects sibling tasks, the queue, or other workers.
Submission itself fails only with ErrPoolClosed once Shutdown has begun.

Graceful Shutdown:

Shutdown stops admission, lets every queued and running task finish, and
returns once all workers have terminated:

	pool.Shutdown() // blocks until drained
	pool.Shutdown() // idempotent, returns immediately once terminated

There is no cancellation of enqueued work: shutdown drains the backlog, it
does not abort it.

Monitoring:

Advisory state inspection is available at any time:

	fmt.Printf("workers: %d\n", pool.Size())
	fmt.Printf("pending: %d\n", pool.QueueSize())
	fmt.Printf("active: %d\n", pool.ActiveWorkers())

QueueSize takes the queue lock, so the returned value is a real queue state
at some instant, but it is a snapshot: by the time the caller acts on it,
workers may have drained the queue. Do not use it as a scheduling input.

For Prometheus instrumentation, wrap a pool with NewWithMetrics or
NewWithConfigAndMetrics.

Thread Safety:

All pool operations are safe for concurrent use from multiple goroutines.
The queue and stop flag are guarded by a single exclusive lock held only for
pointer and flag manipulation; task bodies always execute with no lock held,
so tasks run truly concurrently up to the worker count.
*/
package taskpool
