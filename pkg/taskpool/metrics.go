package taskpool

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/vnykmshr/taskpool/pkg/metrics"
)

// MetricsPool wraps a Pool with Prometheus metrics collection.
type MetricsPool struct {
	pool     Pool
	name     string
	registry *metrics.Registry
	enabled  bool
}

// NewWithMetrics creates a new pool with metrics enabled.
func NewWithMetrics(workerCount int, name string) Pool {
	// Use a separate registry for each metrics-enabled component to avoid conflicts
	registry := prometheus.NewRegistry()
	config := metrics.Config{
		Enabled:  true,
		Registry: registry,
	}

	return NewWithConfigAndMetrics(Config{WorkerCount: workerCount}, name, config)
}

// NewWithConfigAndMetrics creates a new pool with custom config and metrics.
func NewWithConfigAndMetrics(config Config, name string, metricsConfig metrics.Config) Pool {
	basePool := NewWithConfig(config)

	if !metricsConfig.Enabled {
		return basePool
	}

	registry := metrics.DefaultRegistry
	if metricsConfig.Registry != nil {
		registry = metrics.NewRegistry(metricsConfig.Registry)
	}

	mp := &MetricsPool{
		pool:     basePool,
		name:     name,
		registry: registry,
		enabled:  true,
	}

	mp.updateMetrics()

	return mp
}

// updateMetrics updates the current state gauges.
func (mp *MetricsPool) updateMetrics() {
	if !mp.enabled {
		return
	}

	mp.registry.PoolSize.WithLabelValues(mp.name).Set(float64(mp.pool.Size()))
	mp.registry.PoolActive.WithLabelValues(mp.name).Set(float64(mp.pool.ActiveWorkers()))
	mp.registry.PoolQueued.WithLabelValues(mp.name).Set(float64(mp.pool.QueueSize()))
}

// Submit adds a task to the pool for execution.
func (mp *MetricsPool) Submit(task Task) (*Handle, error) {
	return mp.SubmitWithContext(context.Background(), task)
}

// SubmitWithContext submits a task with a context for cancellation.
func (mp *MetricsPool) SubmitWithContext(ctx context.Context, task Task) (*Handle, error) {
	if task == nil {
		// Let the base pool reject it with its own error
		return mp.pool.SubmitWithContext(ctx, nil)
	}

	// Wrap the task to collect metrics
	wrappedTask := &metricsTask{
		original:   task,
		pool:       mp,
		submitTime: time.Now(),
	}

	handle, err := mp.pool.SubmitWithContext(ctx, wrappedTask)

	if mp.enabled && err == nil {
		mp.registry.TasksSubmitted.WithLabelValues(mp.name).Inc()
		mp.updateMetrics()
	}

	return handle, err
}

// metricsTask wraps a Task to collect execution metrics.
type metricsTask struct {
	original   Task
	pool       *MetricsPool
	submitTime time.Time
}

// Execute runs the original task and records metrics.
func (mt *metricsTask) Execute(ctx context.Context) (interface{}, error) {
	start := time.Now()

	if mt.pool.enabled {
		mt.pool.registry.TaskQueueWait.WithLabelValues(mt.pool.name).Observe(start.Sub(mt.submitTime).Seconds())
	}

	value, err := mt.original.Execute(ctx)

	if mt.pool.enabled {
		mt.pool.registry.TaskExecutionDuration.WithLabelValues(mt.pool.name).Observe(time.Since(start).Seconds())

		if err != nil {
			mt.pool.registry.TasksFailed.WithLabelValues(mt.pool.name).Inc()
		} else {
			mt.pool.registry.TasksCompleted.WithLabelValues(mt.pool.name).Inc()
		}

		mt.pool.updateMetrics()
	}

	return value, err
}

// Shutdown initiates graceful shutdown of the pool and blocks until complete.
func (mp *MetricsPool) Shutdown() {
	mp.pool.Shutdown()
	mp.updateMetrics()
}

// Size returns the fixed number of workers.
func (mp *MetricsPool) Size() int {
	return mp.pool.Size()
}

// QueueSize returns the current number of queued tasks.
func (mp *MetricsPool) QueueSize() int {
	queueSize := mp.pool.QueueSize()

	if mp.enabled {
		mp.registry.PoolQueued.WithLabelValues(mp.name).Set(float64(queueSize))
	}

	return queueSize
}

// ActiveWorkers returns the number of workers currently executing tasks.
func (mp *MetricsPool) ActiveWorkers() int {
	activeWorkers := mp.pool.ActiveWorkers()

	if mp.enabled {
		mp.registry.PoolActive.WithLabelValues(mp.name).Set(float64(activeWorkers))
	}

	return activeWorkers
}

// TotalSubmitted returns the total number of tasks submitted.
func (mp *MetricsPool) TotalSubmitted() int64 {
	return mp.pool.TotalSubmitted()
}

// TotalCompleted returns the total number of tasks completed.
func (mp *MetricsPool) TotalCompleted() int64 {
	return mp.pool.TotalCompleted()
}

// EnableMetrics enables metrics collection.
func (mp *MetricsPool) EnableMetrics(config metrics.Config) error {
	mp.enabled = config.Enabled

	if config.Registry != nil {
		mp.registry = metrics.NewRegistry(config.Registry)
	}

	if mp.enabled {
		mp.updateMetrics()
	}

	return nil
}

// DisableMetrics disables metrics collection.
func (mp *MetricsPool) DisableMetrics() {
	mp.enabled = false
}

// MetricsEnabled returns true if metrics are currently enabled.
func (mp *MetricsPool) MetricsEnabled() bool {
	return mp.enabled
}
