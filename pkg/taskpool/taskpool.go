package taskpool

import (
	"context"
	"fmt"
	"runtime/debug"
	"time"
)

// Submit adds a task to the pool for execution.
// The task will be executed with context.Background().
// Use SubmitWithContext to provide a custom context.
func (p *taskPool) Submit(task Task) (*Handle, error) {
	return p.SubmitWithContext(context.Background(), task)
}

// SubmitWithContext adds a task to the pool for execution with the given
// context. The context is passed to the task's Execute method, enabling
// timeout and cancellation propagation. If the pool has a TaskTimeout
// configured, the effective timeout is the minimum of the context deadline
// and TaskTimeout.
func (p *taskPool) SubmitWithContext(ctx context.Context, task Task) (*Handle, error) {
	if task == nil {
		return nil, fmt.Errorf("task cannot be nil")
	}

	if ctx == nil {
		ctx = context.Background()
	}

	// Check if context is already canceled before attempting to queue
	// This ensures deterministic behavior for pre-canceled contexts
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("cannot submit task: context canceled: %w", ctx.Err())
	default:
	}

	handle := newHandle()
	if err := p.enqueue(queuedTask{task: task, ctx: ctx, handle: handle}); err != nil {
		return nil, err
	}

	p.totalSubmitted.Add(1)
	return handle, nil
}

// enqueue appends the task to the queue tail and wakes one waiting worker.
// The lock is held for the append only.
func (p *taskPool) enqueue(qt queuedTask) error {
	p.mu.Lock()
	if p.stopping {
		p.mu.Unlock()
		return ErrPoolClosed
	}
	p.queue = append(p.queue, qt)
	p.mu.Unlock()

	p.wakeup.Signal()
	return nil
}

// dequeueBlocking suspends the calling worker until the queue is non-empty or
// shutdown has begun. The second return value is false only for the
// end-of-work case: stopping is set and the queue is drained.
func (p *taskPool) dequeueBlocking() (queuedTask, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for len(p.queue) == 0 && !p.stopping {
		p.wakeup.Wait()
	}

	if len(p.queue) == 0 {
		return queuedTask{}, false
	}

	qt := p.queue[0]
	p.queue[0] = queuedTask{} // drop the reference so the backing array can be collected
	p.queue = p.queue[1:]
	return qt, true
}

// Shutdown stops accepting new tasks, drains the queue, and blocks until all
// workers have terminated. Safe to call multiple times.
func (p *taskPool) Shutdown() {
	p.shutdownOnce.Do(func() {
		p.mu.Lock()
		p.stopping = true
		p.mu.Unlock()

		// Every waiting worker must re-check state, not just one
		p.wakeup.Broadcast()

		go func() {
			p.workerWg.Wait()
			close(p.terminated)
		}()
	})

	<-p.terminated
}

// Size returns the number of workers in the pool.
func (p *taskPool) Size() int {
	return p.config.WorkerCount
}

// QueueSize returns the current number of queued tasks waiting for execution.
func (p *taskPool) QueueSize() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.queue)
}

// ActiveWorkers returns the number of workers currently executing tasks.
func (p *taskPool) ActiveWorkers() int {
	return int(p.activeWorkers.Load())
}

// TotalSubmitted returns the total number of tasks accepted by the pool.
func (p *taskPool) TotalSubmitted() int64 {
	return p.totalSubmitted.Load()
}

// TotalCompleted returns the total number of tasks executed by the pool.
func (p *taskPool) TotalCompleted() int64 {
	return p.totalCompleted.Load()
}

// run is the main loop for a worker.
func (w *worker) run() {
	defer w.pool.workerWg.Done()

	if w.pool.config.OnWorkerStart != nil {
		w.pool.config.OnWorkerStart(w.id)
	}
	if w.pool.config.OnWorkerStop != nil {
		defer w.pool.config.OnWorkerStop(w.id)
	}

	for {
		qt, ok := w.pool.dequeueBlocking()
		if !ok {
			// Stopping and the queue is drained
			return
		}
		w.executeTask(qt)
	}
}

// executeTask runs a single task body outside the pool lock and delivers its
// outcome through the task's handle exactly once.
func (w *worker) executeTask(qt queuedTask) {
	start := time.Now()
	var (
		value interface{}
		err   error
	)

	w.pool.activeWorkers.Add(1)

	// Handle panics during task execution
	defer func() {
		if r := recover(); r != nil {
			if w.pool.config.PanicHandler != nil {
				w.pool.config.PanicHandler(qt.task, r)
			} else {
				err = fmt.Errorf("task panicked: %v\nStack trace:\n%s", r, debug.Stack())
			}
		}

		result := Result{
			Task:     qt.task,
			Value:    value,
			Err:      err,
			Duration: time.Since(start),
			WorkerID: w.id,
		}

		qt.handle.complete(result)

		w.pool.activeWorkers.Add(-1)
		w.pool.totalCompleted.Add(1)

		if w.pool.config.OnTaskComplete != nil {
			w.pool.config.OnTaskComplete(w.id, result)
		}
	}()

	if w.pool.config.OnTaskStart != nil {
		w.pool.config.OnTaskStart(w.id, qt.task)
	}

	// Start with the caller-provided context
	ctx := qt.ctx
	if ctx == nil {
		ctx = context.Background()
	}

	// Apply TaskTimeout if configured
	// The effective timeout is the minimum of the context deadline and TaskTimeout
	if w.pool.config.TaskTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, w.pool.config.TaskTimeout)
		defer cancel()
	}

	// Execute the task with the propagated context
	value, err = qt.task.Execute(ctx)
}
