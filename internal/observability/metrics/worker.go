package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type WorkerMetrics struct {
	registry *prometheus.Registry

	cleanupTotal    *prometheus.CounterVec
	cleanupDuration *prometheus.HistogramVec
	cleanupInFlight prometheus.Gauge
	eventLag        *prometheus.HistogramVec
}

func NewWorkerMetrics(service string) *WorkerMetrics {
	registry := prometheus.NewRegistry()

	cleanupTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "seva",
			Subsystem: "janitor",
			Name:      "superseded_files_total",
			Help:      "Total handled superseded-file events by status.",
		},
		[]string{"service", "status"},
	)
	cleanupDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "seva",
			Subsystem: "janitor",
			Name:      "cleanup_duration_seconds",
			Help:      "Superseded-file cleanup duration in seconds by status.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "status"},
	)
	cleanupInFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "seva",
			Subsystem: "janitor",
			Name:      "cleanup_in_flight",
			Help:      "Number of in-flight cleanup tasks.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)
	eventLag := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "seva",
			Subsystem: "janitor",
			Name:      "event_lag_seconds",
			Help:      "Delay between a file being superseded and its cleanup starting.",
			Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120, 300, 600},
		},
		[]string{"service"},
	)

	registry.MustRegister(cleanupTotal, cleanupDuration, cleanupInFlight, eventLag)

	return &WorkerMetrics{
		registry:        registry,
		cleanupTotal:    cleanupTotal,
		cleanupDuration: cleanupDuration,
		cleanupInFlight: cleanupInFlight,
		eventLag:        eventLag,
	}
}

func (m *WorkerMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *WorkerMetrics) StartCleanup() {
	m.cleanupInFlight.Inc()
}

func (m *WorkerMetrics) FinishCleanup(service string, duration time.Duration, err error) {
	m.cleanupInFlight.Dec()

	status := "success"
	if err != nil {
		status = "error"
	}

	m.cleanupTotal.WithLabelValues(service, status).Inc()
	m.cleanupDuration.WithLabelValues(service, status).Observe(duration.Seconds())
}

func (m *WorkerMetrics) ObserveEventLag(service string, lag time.Duration) {
	if lag < 0 {
		return
	}
	m.eventLag.WithLabelValues(service).Observe(lag.Seconds())
}
