/*
Package taskpool provides a Go library for bounded-concurrency task execution
with per-task result handles and scheduling.

Task Execution (pkg/taskpool):
  - taskpool: fixed worker set draining an unbounded FIFO queue, one-shot
    Handle (or typed Future) per submitted task, graceful drain on shutdown

Scheduling (pkg/schedule):
  - schedule: deferred, repeating and cron-based submission into a pool

Example usage:

	import "github.com/vnykmshr/taskpool/pkg/taskpool"

	pool := taskpool.New(4) // 4 workers
	defer pool.Shutdown()

	future, _ := taskpool.Submit(pool, func(ctx context.Context) (string, error) {
		return "done", nil
	})

	value, err := future.Wait(context.Background())
*/
package taskpool
