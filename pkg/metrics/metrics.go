package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds all application metrics
type Metrics struct {
	// Persistence metrics
	BackendDegraded  prometheus.Gauge
	BackendFallbacks prometheus.Counter
	StoreOperations  *prometheus.CounterVec

	// Scheduling metrics
	SlotConflicts prometheus.Counter
	LockWait      prometheus.Histogram

	// Cascade metrics
	CascadeDeletes       *prometheus.CounterVec
	CascadeCompensations prometheus.Counter

	// HTTP metrics
	HTTPRequests *prometheus.CounterVec
	HTTPLatency  *prometheus.HistogramVec
}

// New creates all application metrics and registers them with reg. A nil
// registerer leaves them unregistered, which keeps tests independent.
func New(namespace string, reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		BackendDegraded: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "backend_degraded",
			Help:      "1 when the stores run on the in-memory fallback",
		}),
		BackendFallbacks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "backend_fallbacks_total",
			Help:      "Total number of durable backend initializations that fell back to memory",
		}),
		StoreOperations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "store_operations_total",
			Help:      "Total number of store writes by entity and outcome",
		}, []string{"entity", "operation", "status"}),
		SlotConflicts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "slot_conflicts_total",
			Help:      "Total number of appointment writes rejected for a taken slot",
		}),
		LockWait: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "physician_lock_wait_seconds",
			Help:      "Time spent waiting for a physician lock",
			Buckets:   []float64{.0001, .001, .005, .01, .05, .1, .5, 1},
		}),
		CascadeDeletes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cascade_deleted_records_total",
			Help:      "Total number of records removed by physician cascades",
		}, []string{"entity"}),
		CascadeCompensations: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cascade_compensations_total",
			Help:      "Total number of cascades rolled back after a failed step",
		}),
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		}, []string{"method", "path", "status"}),
		HTTPLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "Duration of HTTP requests",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		}, []string{"method", "path"}),
	}

	if reg != nil {
		reg.MustRegister(
			m.BackendDegraded,
			m.BackendFallbacks,
			m.StoreOperations,
			m.SlotConflicts,
			m.LockWait,
			m.CascadeDeletes,
			m.CascadeCompensations,
			m.HTTPRequests,
			m.HTTPLatency,
		)
	}
	return m
}

// Store records the outcome of one store write.
func (m *Metrics) Store(entity, operation string, err error) {
	if m == nil {
		return
	}
	status := "success"
	if err != nil {
		status = "error"
	}
	m.StoreOperations.WithLabelValues(entity, operation, status).Inc()
}
