/*
Package schedule provides deferred, repeating, and cron-based submission of
tasks into a task pool.

The scheduler holds registered entries and, on every tick, submits the due
ones to its pool. Execution itself is entirely the pool's business: the
scheduler only decides when submission happens.

Basic Usage:

	s := schedule.New()
	defer func() { <-s.Stop() }()

	s.Start()

	task := taskpool.TaskFunc(func(ctx context.Context) (interface{}, error) {
		return refreshCache(ctx)
	})

	// One-time, at a specific moment
	s.Schedule("refresh-once", task, time.Now().Add(time.Minute))

	// One-time, after a delay
	s.ScheduleAfter("refresh-soon", task, 5*time.Second)

	// Repeating at a fixed interval
	s.ScheduleRepeating("refresh-loop", task, 30*time.Second)

	// Cron expression (with seconds field)
	s.ScheduleCron("refresh-nightly", "0 0 3 * * *", task)

Result Delivery:

Fired entries have no waiting submitter, so their handles are consumed by the
scheduler. Observe outcomes through the OnResult callback:

	s := schedule.NewWithConfig(schedule.Config{
		Pool: pool,
		OnResult: func(id string, value interface{}, err error) {
			if err != nil {
				log.Printf("entry %s failed: %v", id, err)
			}
		},
	})

Lifecycle:

Start launches the tick loop; Stop halts it and, if the scheduler owns its
pool, shuts the pool down. Stop returns a channel that closes once teardown
is complete. A stopped scheduler cannot be restarted.

If Config.Pool is nil the scheduler creates and owns a private 4-worker pool.
When a shared pool is supplied the caller remains responsible for shutting it
down; entries that fire after that pool's shutdown are reported to OnResult
with the pool's rejection error.
*/
package schedule
