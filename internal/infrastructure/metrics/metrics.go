package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Operation labels cho stock update counter
const (
	OpReserve = "reserve"
	OpRelease = "release"
	OpAdjust  = "adjust"
	OpSync    = "sync"
)

// Task status labels
const (
	StatusSuccess = "success"
	StatusFailure = "failure"
)

// Metrics giữ toàn bộ prometheus collectors của inventory core.
// Một instance per process, share qua container.
type Metrics struct {
	registry *prometheus.Registry

	stockUpdates        *prometheus.CounterVec
	stockUpdateDuration prometheus.Histogram
	syncTasks           *prometheus.CounterVec
	syncDuration        *prometheus.HistogramVec
	lockAttempts        *prometheus.CounterVec
}

func New() *Metrics {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)

	return &Metrics{
		registry: registry,
		stockUpdates: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "inventory_stock_updates_total",
			Help: "Total number of stock mutations by operation",
		}, []string{"operation"}),
		stockUpdateDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "inventory_stock_update_duration_seconds",
			Help:    "Duration of stock mutations end to end, lock wait included",
			Buckets: prometheus.DefBuckets,
		}),
		syncTasks: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "sync_tasks_total",
			Help: "Total number of sync tasks by type and status",
		}, []string{"task_type", "status"}),
		syncDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "sync_task_duration_seconds",
			Help:    "Duration of sync tasks by type",
			Buckets: []float64{0.1, 0.5, 1, 5, 15, 60, 300},
		}, []string{"task_type"}),
		lockAttempts: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "inventory_lock_attempts_total",
			Help: "Distributed lock attempts by namespace and outcome",
		}, []string{"namespace", "outcome"}),
	}
}

// StockUpdate ghi nhận một mutation thành công
func (m *Metrics) StockUpdate(operation string, elapsed time.Duration) {
	m.stockUpdates.WithLabelValues(operation).Inc()
	m.stockUpdateDuration.Observe(elapsed.Seconds())
}

// SyncTask ghi nhận kết quả một sync task
func (m *Metrics) SyncTask(taskType, status string, elapsed time.Duration) {
	m.syncTasks.WithLabelValues(taskType, status).Inc()
	m.syncDuration.WithLabelValues(taskType).Observe(elapsed.Seconds())
}

// LockAttempt implement lock.Recorder
func (m *Metrics) LockAttempt(namespace, outcome string) {
	m.lockAttempts.WithLabelValues(namespace, outcome).Inc()
}

// Handler trả về http.Handler cho GET /metrics
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
