package schedule

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/vnykmshr/taskpool/internal/testutil"
	"github.com/vnykmshr/taskpool/pkg/taskpool"
)

func countingTask(executed *int32) taskpool.Task {
	return taskpool.TaskFunc(func(_ context.Context) (interface{}, error) {
		atomic.AddInt32(executed, 1)
		return nil, nil
	})
}

func TestScheduler_BasicScheduling(t *testing.T) {
	s := New()
	defer func() { <-s.Stop() }()

	if err := s.Start(); err != nil {
		t.Fatal(err)
	}

	var executed int32
	task := countingTask(&executed)

	// Immediate scheduling
	if err := s.Schedule("test1", task, time.Now()); err != nil {
		t.Fatal(err)
	}

	// Delayed scheduling
	if err := s.ScheduleAfter("test2", task, 50*time.Millisecond); err != nil {
		t.Fatal(err)
	}

	testutil.WaitForInt32(t, &executed, 2, 500*time.Millisecond)
}

func TestScheduler_RepeatingEntry(t *testing.T) {
	s := New()
	defer func() { <-s.Stop() }()

	if err := s.Start(); err != nil {
		t.Fatal(err)
	}

	var executed int32
	if err := s.ScheduleRepeating("repeat", countingTask(&executed), 75*time.Millisecond); err != nil {
		t.Fatal(err)
	}

	// Wait for at least 3 executions
	testutil.Eventually(t, func() bool {
		return atomic.LoadInt32(&executed) >= 3
	}, time.Second, 20*time.Millisecond)
}

func TestScheduler_CronScheduling(t *testing.T) {
	s := New()
	defer func() { <-s.Stop() }()

	if err := s.Start(); err != nil {
		t.Fatal(err)
	}

	var executed int32
	// Every second (seconds field enabled)
	if err := s.ScheduleCron("cron", "* * * * * *", countingTask(&executed)); err != nil {
		t.Fatal(err)
	}

	testutil.Eventually(t, func() bool {
		return atomic.LoadInt32(&executed) > 0
	}, 2*time.Second, 50*time.Millisecond)
}

func TestScheduler_InvalidCron(t *testing.T) {
	s := New()
	defer func() { <-s.Stop() }()

	var executed int32
	if err := s.ScheduleCron("bad", "not a cron expr", countingTask(&executed)); err == nil {
		t.Error("expected error for invalid cron expression")
	}
	if err := s.ScheduleCron("empty", "", countingTask(&executed)); err == nil {
		t.Error("expected error for empty cron expression")
	}
}

func TestScheduler_EntryManagement(t *testing.T) {
	s := New()
	defer func() { <-s.Stop() }()

	var executed int32
	task := countingTask(&executed)
	farFuture := time.Now().Add(time.Hour)

	if err := s.Schedule("dup", task, farFuture); err != nil {
		t.Fatal(err)
	}
	if err := s.Schedule("dup", task, farFuture); err == nil {
		t.Error("expected error for duplicate entry ID")
	}

	if err := s.Schedule("", task, farFuture); err == nil {
		t.Error("expected error for empty entry ID")
	}
	if err := s.Schedule("nil-task", nil, farFuture); err == nil {
		t.Error("expected error for nil task")
	}
	if err := s.ScheduleRepeating("bad-interval", task, 0); err == nil {
		t.Error("expected error for non-positive interval")
	}

	if err := s.Schedule("other", task, farFuture.Add(time.Minute)); err != nil {
		t.Fatal(err)
	}

	entries := s.List()
	testutil.AssertEqual(t, len(entries), 2)
	// List is sorted by run time
	testutil.AssertEqual(t, entries[0].ID, "dup")
	testutil.AssertEqual(t, entries[1].ID, "other")

	testutil.AssertEqual(t, s.Cancel("dup"), true)
	testutil.AssertEqual(t, s.Cancel("dup"), false)
	testutil.AssertEqual(t, len(s.List()), 1)

	s.CancelAll()
	testutil.AssertEqual(t, len(s.List()), 0)
}

func TestScheduler_OnResult(t *testing.T) {
	pool := taskpool.New(2)
	defer pool.Shutdown()

	var mu sync.Mutex
	results := map[string]interface{}{}
	done := make(chan struct{})

	s := NewWithConfig(Config{
		Pool:         pool,
		TickInterval: 10 * time.Millisecond,
		OnResult: func(id string, value interface{}, err error) {
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				results[id] = value
			}
			if len(results) == 1 {
				close(done)
			}
		},
	})
	defer func() { <-s.Stop() }()

	if err := s.Start(); err != nil {
		t.Fatal(err)
	}

	task := taskpool.TaskFunc(func(_ context.Context) (interface{}, error) {
		return "scheduled result", nil
	})
	if err := s.Schedule("result-entry", task, time.Now()); err != nil {
		t.Fatal(err)
	}

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for OnResult delivery")
	}

	mu.Lock()
	defer mu.Unlock()
	testutil.AssertEqual(t, results["result-entry"], interface{}("scheduled result"))
}

func TestScheduler_RejectedSubmissionReported(t *testing.T) {
	pool := taskpool.New(1)
	pool.Shutdown() // entries fired into this pool are rejected

	errs := make(chan error, 1)
	s := NewWithConfig(Config{
		Pool:         pool,
		TickInterval: 10 * time.Millisecond,
		OnResult: func(id string, value interface{}, err error) {
			select {
			case errs <- err:
			default:
			}
		},
	})
	defer func() { <-s.Stop() }()

	if err := s.Start(); err != nil {
		t.Fatal(err)
	}

	var executed int32
	if err := s.Schedule("rejected", countingTask(&executed), time.Now()); err != nil {
		t.Fatal(err)
	}

	select {
	case err := <-errs:
		testutil.AssertError(t, err)
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for rejection report")
	}
	testutil.AssertEqual(t, atomic.LoadInt32(&executed), int32(0))
}

func TestScheduler_StartStop(t *testing.T) {
	s := New()

	if err := s.Start(); err != nil {
		t.Fatal(err)
	}
	if err := s.Start(); err == nil {
		t.Error("expected error for double start")
	}

	<-s.Stop()
	<-s.Stop() // Stop is safe to call again
}
