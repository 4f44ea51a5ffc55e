package taskpool

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	cerrors "github.com/vnykmshr/taskpool/pkg/common/errors"
	"github.com/vnykmshr/taskpool/pkg/common/validation"
)

var (
	// ErrPoolClosed is returned by Submit once Shutdown has begun. The task is
	// not accepted and no Handle is produced.
	ErrPoolClosed = fmt.Errorf("taskpool: submit on stopped pool: %w", cerrors.ErrClosed)

	// ErrHandleConsumed is returned by Handle.Wait after the handle's single
	// read has already been taken.
	ErrHandleConsumed = fmt.Errorf("taskpool: result handle already consumed: %w", cerrors.ErrConsumed)
)

// Task represents a unit of deferred work that can be executed by a worker.
type Task interface {
	// Execute runs the task with the given context and returns the computed
	// value or an error. It should respect context cancellation.
	Execute(ctx context.Context) (interface{}, error)
}

// TaskFunc is a function type that implements the Task interface.
type TaskFunc func(ctx context.Context) (interface{}, error)

// Execute implements the Task interface for TaskFunc.
func (f TaskFunc) Execute(ctx context.Context) (interface{}, error) {
	return f(ctx)
}

// Result represents the outcome of a task execution.
type Result struct {
	// Task is the original task that was executed
	Task Task

	// Value is the value computed by the task body, nil on failure
	Value interface{}

	// Err is any error that occurred during task execution
	Err error

	// Duration is how long the task took to execute
	Duration time.Duration

	// WorkerID identifies which worker executed the task
	WorkerID int
}

// Pool represents a fixed-size pool that executes tasks concurrently and
// delivers each outcome through a per-task Handle.
type Pool interface {
	// Submit adds a task to the pool for execution and returns the Handle
	// its outcome will be delivered through. It never blocks on task
	// completion. Returns ErrPoolClosed once Shutdown has begun.
	Submit(task Task) (*Handle, error)

	// SubmitWithContext submits a task with a context that is passed to the
	// task's Execute method. A context that is already done fails the
	// submission immediately.
	SubmitWithContext(ctx context.Context, task Task) (*Handle, error)

	// Shutdown stops accepting new tasks, lets queued and running tasks
	// finish, and returns once every worker has terminated. It is
	// idempotent: every call, including repeats, blocks until the pool is
	// fully terminated. A stopped pool cannot be restarted.
	Shutdown()

	// Size returns the fixed number of workers in the pool.
	Size() int

	// QueueSize returns the number of tasks currently waiting for a worker.
	// The value is a consistent snapshot of the queue at some instant, but
	// it is advisory only: workers may drain the queue before the caller
	// acts on it.
	QueueSize() int

	// ActiveWorkers returns the number of workers currently executing tasks.
	ActiveWorkers() int

	// TotalSubmitted returns the total number of tasks accepted by the pool.
	TotalSubmitted() int64

	// TotalCompleted returns the total number of tasks executed by the pool.
	TotalCompleted() int64
}

// Config holds configuration options for creating a pool.
type Config struct {
	// WorkerCount is the number of workers in the pool.
	// Must be greater than 0.
	WorkerCount int

	// TaskTimeout is the default timeout for individual task execution.
	// Zero means no timeout. The pool never aborts a body that ignores its
	// context; the timeout is delivered through context cancellation only.
	TaskTimeout time.Duration

	// PanicHandler is called when a task body panics during execution.
	// If nil, panics are recovered and delivered through the task's Handle
	// as a failure.
	PanicHandler func(task Task, recovered interface{})

	// OnWorkerStart is called when a worker starts.
	// Useful for per-worker initialization (e.g., database connections).
	OnWorkerStart func(workerID int)

	// OnWorkerStop is called when a worker stops.
	// Useful for per-worker cleanup.
	OnWorkerStop func(workerID int)

	// OnTaskStart is called before a task begins execution.
	OnTaskStart func(workerID int, task Task)

	// OnTaskComplete is called after a task completes (success or failure).
	OnTaskComplete func(workerID int, result Result)
}

// queuedTask pairs a task with its submission context and result handle while
// it waits in the queue.
type queuedTask struct {
	task   Task
	ctx    context.Context
	handle *Handle
}

// taskPool implements the Pool interface.
type taskPool struct {
	config Config

	// Task queue. The mutex is the pool's single exclusive lock: queue
	// contents and the stopping flag are touched only while holding it, and
	// it is never held across a task body.
	mu       sync.Mutex
	wakeup   *sync.Cond // signaled on enqueue, broadcast on shutdown
	queue    []queuedTask
	stopping bool

	// Advisory counters
	activeWorkers  atomic.Int32
	totalSubmitted atomic.Int64
	totalCompleted atomic.Int64

	// Worker management
	workerWg     sync.WaitGroup
	shutdownOnce sync.Once
	terminated   chan struct{}
}

// worker represents a single worker in the pool.
type worker struct {
	id   int
	pool *taskPool
}

// New creates a new pool with the specified number of workers, started
// immediately. It panics on a non-positive worker count; use NewSafe to get
// an error instead.
func New(workerCount int) Pool {
	return NewWithConfig(Config{WorkerCount: workerCount})
}

// NewSafe creates a new pool with the specified number of workers, returning
// an error instead of panicking on invalid input.
func NewSafe(workerCount int) (Pool, error) {
	return NewWithConfigSafe(Config{WorkerCount: workerCount})
}

// NewWithConfig creates a new pool with the specified configuration.
// It panics if the configuration is invalid.
func NewWithConfig(config Config) Pool {
	pool, err := NewWithConfigSafe(config)
	if err != nil {
		panic(err)
	}
	return pool
}

// NewWithConfigSafe creates a new pool with the specified configuration,
// returning an error if the configuration is invalid.
func NewWithConfigSafe(config Config) (Pool, error) {
	if err := validation.ValidatePositive("taskpool", "workers", config.WorkerCount); err != nil {
		return nil, err
	}
	if err := validation.ValidateNonNegativeDuration("taskpool", "taskTimeout", config.TaskTimeout); err != nil {
		return nil, err
	}

	pool := &taskPool{
		config:     config,
		terminated: make(chan struct{}),
	}
	pool.wakeup = sync.NewCond(&pool.mu)

	// Start the fixed worker set
	pool.workerWg.Add(config.WorkerCount)
	for i := 0; i < config.WorkerCount; i++ {
		w := worker{id: i, pool: pool}
		go w.run()
	}

	return pool, nil
}
