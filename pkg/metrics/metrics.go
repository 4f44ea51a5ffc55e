// Package metrics provides Prometheus instrumentation for taskpool components.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Registry holds all metric instances for taskpool components.
type Registry struct {
	// Task Pool Metrics
	TasksSubmitted        *prometheus.CounterVec
	TasksCompleted        *prometheus.CounterVec
	TasksFailed           *prometheus.CounterVec
	TaskQueueWait         *prometheus.HistogramVec
	TaskExecutionDuration *prometheus.HistogramVec
	PoolSize              *prometheus.GaugeVec
	PoolActive            *prometheus.GaugeVec
	PoolQueued            *prometheus.GaugeVec

	// Scheduling Metrics
	EntriesScheduled *prometheus.CounterVec
	EntriesFired     *prometheus.CounterVec
	EntriesDropped   *prometheus.CounterVec
}

// DefaultRegistry is the default metrics registry used by taskpool components.
var DefaultRegistry *Registry

func init() {
	DefaultRegistry = NewRegistry(prometheus.DefaultRegisterer)
}

// NewRegistry creates a new metrics registry with the given Prometheus registerer.
func NewRegistry(reg prometheus.Registerer) *Registry {
	factory := promauto.With(reg)

	return &Registry{
		// Task Pool Metrics
		TasksSubmitted: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "taskpool",
				Subsystem: "pool",
				Name:      "tasks_submitted_total",
				Help:      "Total number of tasks accepted for execution",
			},
			[]string{"pool_name"},
		),

		TasksCompleted: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "taskpool",
				Subsystem: "pool",
				Name:      "tasks_completed_total",
				Help:      "Total number of tasks completed successfully",
			},
			[]string{"pool_name"},
		),

		TasksFailed: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "taskpool",
				Subsystem: "pool",
				Name:      "tasks_failed_total",
				Help:      "Total number of tasks whose body returned an error or panicked",
			},
			[]string{"pool_name"},
		),

		TaskQueueWait: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "taskpool",
				Subsystem: "pool",
				Name:      "task_queue_wait_seconds",
				Help:      "Time tasks spent queued before a worker picked them up",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"pool_name"},
		),

		TaskExecutionDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "taskpool",
				Subsystem: "pool",
				Name:      "task_duration_seconds",
				Help:      "Time spent executing task bodies",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"pool_name"},
		),

		PoolSize: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: "taskpool",
				Subsystem: "pool",
				Name:      "size",
				Help:      "Fixed number of workers in the pool",
			},
			[]string{"pool_name"},
		),

		PoolActive: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: "taskpool",
				Subsystem: "pool",
				Name:      "active_workers",
				Help:      "Number of workers currently executing a task",
			},
			[]string{"pool_name"},
		),

		PoolQueued: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: "taskpool",
				Subsystem: "pool",
				Name:      "queued_tasks",
				Help:      "Number of tasks waiting in the queue",
			},
			[]string{"pool_name"},
		),

		// Scheduling Metrics
		EntriesScheduled: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "taskpool",
				Subsystem: "schedule",
				Name:      "entries_scheduled_total",
				Help:      "Total number of entries registered with the scheduler",
			},
			[]string{"scheduler_name"},
		),

		EntriesFired: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "taskpool",
				Subsystem: "schedule",
				Name:      "entries_fired_total",
				Help:      "Total number of entries submitted to the pool on schedule",
			},
			[]string{"scheduler_name"},
		),

		EntriesDropped: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "taskpool",
				Subsystem: "schedule",
				Name:      "entries_dropped_total",
				Help:      "Total number of entries whose submission was rejected",
			},
			[]string{"scheduler_name"},
		),
	}
}
