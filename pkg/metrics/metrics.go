package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// QueueMetrics holds the collectors for queue and HTTP activity.
type QueueMetrics struct {
	TasksEnqueued   *prometheus.CounterVec
	TasksDequeued   *prometheus.CounterVec
	TasksDuplicate  *prometheus.CounterVec
	ResultsSent     *prometheus.CounterVec
	ResultsReceived *prometheus.CounterVec
	TaskDuration    *prometheus.HistogramVec
	WorkersBusy     *prometheus.GaugeVec

	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
}

var (
	defaultMetrics *QueueMetrics
	initOnce       sync.Once
)

// NewQueueMetrics registers the collectors with reg.
func NewQueueMetrics(reg prometheus.Registerer) *QueueMetrics {
	factory := promauto.With(reg)

	return &QueueMetrics{
		// Labels: queue, unique
		TasksEnqueued: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "redisqueue",
				Name:      "tasks_enqueued_total",
				Help:      "Total number of tasks pushed onto a queue",
			},
			[]string{"queue", "unique"},
		),

		// Labels: queue
		TasksDequeued: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "redisqueue",
				Name:      "tasks_dequeued_total",
				Help:      "Total number of tasks popped from a queue",
			},
			[]string{"queue"},
		),

		// 去重拒绝次数
		TasksDuplicate: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "redisqueue",
				Name:      "tasks_duplicates_total",
				Help:      "Total number of unique tasks rejected because their hash was reserved",
			},
			[]string{"queue"},
		),

		ResultsSent: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "redisqueue",
				Name:      "results_sent_total",
				Help:      "Total number of results written to job channels",
			},
			[]string{"queue"},
		),

		ResultsReceived: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "redisqueue",
				Name:      "results_received_total",
				Help:      "Total number of results read from job channels",
			},
			[]string{"queue"},
		),

		// 任务处理耗时（毫秒）
		// Labels: queue, status
		TaskDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "redisqueue",
				Name:      "task_duration_milliseconds",
				Help:      "Task handler duration in milliseconds",
				Buckets:   []float64{10, 50, 100, 200, 500, 1000, 2000, 5000, 10000, 30000},
			},
			[]string{"queue", "status"},
		),

		WorkersBusy: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: "redisqueue",
				Name:      "workers_busy",
				Help:      "Current number of workers processing a task",
			},
			[]string{"queue"},
		),

		// Labels: route, status_code
		RequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "redisqueue",
				Name:      "http_requests_total",
				Help:      "Total number of HTTP API requests",
			},
			[]string{"route", "status_code"},
		),

		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "redisqueue",
				Name:      "http_request_duration_milliseconds",
				Help:      "HTTP API request duration in milliseconds",
				Buckets:   []float64{1, 5, 10, 50, 100, 500, 1000, 5000, 30000},
			},
			[]string{"route"},
		),
	}
}

// GetMetrics returns the collectors registered with the default registry.
func GetMetrics() *QueueMetrics {
	initOnce.Do(func() {
		defaultMetrics = NewQueueMetrics(prometheus.DefaultRegisterer)
	})
	return defaultMetrics
}
