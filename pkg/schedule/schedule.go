package schedule

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/vnykmshr/taskpool/pkg/common/validation"
	"github.com/vnykmshr/taskpool/pkg/metrics"
	"github.com/vnykmshr/taskpool/pkg/taskpool"
)

// Entry describes a registered schedule entry.
type Entry struct {
	ID       string
	RunAt    time.Time
	Interval time.Duration // Zero for one-time entries
	Created  time.Time
}

// Scheduler submits tasks into a task pool at deferred, repeating, or
// cron-determined times.
type Scheduler interface {
	// Basic scheduling
	Schedule(id string, task taskpool.Task, runAt time.Time) error
	ScheduleAfter(id string, task taskpool.Task, delay time.Duration) error
	ScheduleRepeating(id string, task taskpool.Task, interval time.Duration) error

	// Cron scheduling
	ScheduleCron(id string, cronExpr string, task taskpool.Task) error

	// Entry management
	Cancel(id string) bool
	CancelAll()
	List() []Entry

	// Lifecycle. A stopped scheduler cannot be restarted.
	Start() error
	Stop() <-chan struct{}
}

// Config holds scheduler configuration.
type Config struct {
	// Pool receives fired entries. If nil, the scheduler owns a private
	// 4-worker pool and shuts it down on Stop.
	Pool taskpool.Pool

	// Location is the time zone used for cron schedules (default: time.Local).
	Location *time.Location

	// TickInterval is how often due entries are checked (default: 50ms).
	TickInterval time.Duration

	// MaxEntries caps the number of registered entries (default: 10000).
	MaxEntries int

	// OnResult, if set, receives the outcome of every fired entry. Fired
	// entries have no waiting submitter, so this is the only way to observe
	// their results.
	OnResult func(id string, value interface{}, err error)

	// Name labels this scheduler's metrics.
	Name string

	// Metrics enables Prometheus instrumentation of scheduling activity.
	Metrics metrics.Config
}

type scheduledEntry struct {
	id           string
	task         taskpool.Task
	runAt        time.Time
	interval     time.Duration
	cronSchedule cron.Schedule
	created      time.Time
}

type scheduler struct {
	pool         taskpool.Pool
	ownPool      bool
	location     *time.Location
	tickInterval time.Duration
	maxEntries   int
	cronParser   cron.Parser
	onResult     func(id string, value interface{}, err error)

	name           string
	registry       *metrics.Registry
	metricsEnabled bool

	mu      sync.RWMutex
	entries map[string]*scheduledEntry
	ticker  *time.Ticker
	done    chan struct{}
	running bool
}

// New creates a scheduler with default configuration.
func New() Scheduler {
	return NewWithConfig(Config{})
}

// NewWithConfig creates a scheduler with custom configuration.
func NewWithConfig(cfg Config) Scheduler {
	pool := cfg.Pool
	ownPool := false
	if pool == nil {
		pool = taskpool.New(4)
		ownPool = true
	}

	location := cfg.Location
	if location == nil {
		location = time.Local
	}

	tickInterval := cfg.TickInterval
	if tickInterval <= 0 {
		tickInterval = 50 * time.Millisecond
	}

	maxEntries := cfg.MaxEntries
	if maxEntries <= 0 {
		maxEntries = 10000
	}

	s := &scheduler{
		pool:         pool,
		ownPool:      ownPool,
		location:     location,
		tickInterval: tickInterval,
		maxEntries:   maxEntries,
		cronParser:   cron.NewParser(cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow),
		onResult:     cfg.OnResult,
		name:         cfg.Name,
		entries:      make(map[string]*scheduledEntry),
		done:         make(chan struct{}),
	}

	if cfg.Metrics.Enabled {
		s.metricsEnabled = true
		s.registry = metrics.DefaultRegistry
		if cfg.Metrics.Registry != nil {
			s.registry = metrics.NewRegistry(cfg.Metrics.Registry)
		}
	}

	return s
}

func (s *scheduler) validateEntry(id string, task taskpool.Task) error {
	if err := validation.ValidateNotEmpty("schedule", "id", id); err != nil {
		return err
	}
	if len(id) > 255 {
		return fmt.Errorf("entry ID too long (max 255 characters)")
	}
	if task == nil {
		return validation.ValidateNotNil("schedule", "task", nil)
	}
	return nil
}

// register inserts the entry under the lock, enforcing uniqueness and the
// entry cap.
func (s *scheduler) register(entry *scheduledEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.entries[entry.id]; exists {
		return fmt.Errorf("entry with ID %q already exists, use a different ID or cancel the existing entry first", entry.id)
	}

	if len(s.entries) >= s.maxEntries {
		return fmt.Errorf("cannot schedule entry: maximum number of entries (%d) reached", s.maxEntries)
	}

	s.entries[entry.id] = entry

	if s.metricsEnabled {
		s.registry.EntriesScheduled.WithLabelValues(s.name).Inc()
	}
	return nil
}

func (s *scheduler) Schedule(id string, task taskpool.Task, runAt time.Time) error {
	if err := s.validateEntry(id, task); err != nil {
		return err
	}
	if runAt.IsZero() {
		return fmt.Errorf("entry run time cannot be zero")
	}

	return s.register(&scheduledEntry{
		id:      id,
		task:    task,
		runAt:   runAt,
		created: time.Now(),
	})
}

func (s *scheduler) ScheduleAfter(id string, task taskpool.Task, delay time.Duration) error {
	return s.Schedule(id, task, time.Now().Add(delay))
}

func (s *scheduler) ScheduleRepeating(id string, task taskpool.Task, interval time.Duration) error {
	if err := s.validateEntry(id, task); err != nil {
		return err
	}
	if interval <= 0 {
		return fmt.Errorf("interval must be positive, got %v", interval)
	}

	return s.register(&scheduledEntry{
		id:       id,
		task:     task,
		runAt:    time.Now(),
		interval: interval,
		created:  time.Now(),
	})
}

func (s *scheduler) ScheduleCron(id string, cronExpr string, task taskpool.Task) error {
	if err := s.validateEntry(id, task); err != nil {
		return err
	}
	if err := validation.ValidateNotEmpty("schedule", "cron", cronExpr); err != nil {
		return err
	}

	schedule, err := s.cronParser.Parse(cronExpr)
	if err != nil {
		return fmt.Errorf("invalid cron expression: %w", err)
	}

	now := time.Now().In(s.location)
	return s.register(&scheduledEntry{
		id:           id,
		task:         task,
		runAt:        schedule.Next(now),
		cronSchedule: schedule,
		created:      time.Now(),
	})
}

func (s *scheduler) Cancel(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.entries[id]; exists {
		delete(s.entries, id)
		return true
	}
	return false
}

func (s *scheduler) CancelAll() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries = make(map[string]*scheduledEntry)
}

func (s *scheduler) List() []Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries := make([]Entry, 0, len(s.entries))
	for _, e := range s.entries {
		entries = append(entries, Entry{
			ID:       e.id,
			RunAt:    e.runAt,
			Interval: e.interval,
			Created:  e.created,
		})
	}

	// Sort by run time
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].RunAt.Before(entries[j].RunAt)
	})

	return entries
}

func (s *scheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return fmt.Errorf("scheduler already running, call Stop() first")
	}

	s.running = true
	s.ticker = time.NewTicker(s.tickInterval)

	go s.run()
	return nil
}

func (s *scheduler) Stop() <-chan struct{} {
	s.mu.Lock()
	if s.running {
		s.running = false
		close(s.done)
		if s.ticker != nil {
			s.ticker.Stop()
		}
	}
	s.mu.Unlock()

	stopped := make(chan struct{})
	go func() {
		defer close(stopped)
		if s.ownPool {
			s.pool.Shutdown()
		}
	}()

	return stopped
}

func (s *scheduler) run() {
	defer func() {
		if s.ticker != nil {
			s.ticker.Stop()
		}
	}()

	for {
		select {
		case <-s.done:
			return
		case <-s.ticker.C:
			s.processDueEntries()
		}
	}
}

// processDueEntries fires every entry whose run time has passed. The lock is
// held only for selection and rescheduling; submission happens outside it.
func (s *scheduler) processDueEntries() {
	now := time.Now()

	s.mu.Lock()
	if len(s.entries) == 0 {
		s.mu.Unlock()
		return
	}

	due := make([]*scheduledEntry, 0, len(s.entries))
	for id, entry := range s.entries {
		if now.Before(entry.runAt) {
			continue
		}
		due = append(due, entry)

		switch {
		case entry.interval > 0:
			entry.runAt = now.Add(entry.interval)
		case entry.cronSchedule != nil:
			entry.runAt = entry.cronSchedule.Next(now.In(s.location))
		default:
			delete(s.entries, id)
		}
	}
	s.mu.Unlock()

	for _, entry := range due {
		s.fire(entry)
	}
}

// fire submits one due entry to the pool and arranges result delivery.
func (s *scheduler) fire(entry *scheduledEntry) {
	handle, err := s.pool.Submit(entry.task)
	if err != nil {
		// Pool rejected the entry (e.g. shut down); report and move on.
		if s.metricsEnabled {
			s.registry.EntriesDropped.WithLabelValues(s.name).Inc()
		}
		if s.onResult != nil {
			s.onResult(entry.id, nil, err)
		}
		return
	}

	if s.metricsEnabled {
		s.registry.EntriesFired.WithLabelValues(s.name).Inc()
	}

	if s.onResult != nil {
		id := entry.id
		go func() {
			value, err := handle.Wait(context.Background())
			s.onResult(id, value, err)
		}()
	}
}
