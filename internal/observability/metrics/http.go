package metrics

import (
	"bufio"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type HTTPServerMetrics struct {
	registry *prometheus.Registry

	requestTotal    *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	requestInFlight prometheus.Gauge

	intakeTotal        *prometheus.CounterVec
	intakeDuration     *prometheus.HistogramVec
	verifierConfidence *prometheus.HistogramVec
	aiRepliesTotal     *prometheus.CounterVec
	rateLimitedTotal   *prometheus.CounterVec
}

func NewHTTPServerMetrics(service string) *HTTPServerMetrics {
	registry := prometheus.NewRegistry()

	requestTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "seva",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests processed.",
		},
		[]string{"service", "method", "path", "status"},
	)
	requestDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "seva",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "method", "path"},
	)
	requestInFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "seva",
			Subsystem: "http",
			Name:      "in_flight_requests",
			Help:      "Number of in-flight HTTP requests.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)
	intakeTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "seva",
			Subsystem: "intake",
			Name:      "documents_total",
			Help:      "Uploaded documents by verification status and declared type.",
		},
		[]string{"service", "status", "document_type"},
	)
	intakeDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "seva",
			Subsystem: "intake",
			Name:      "duration_seconds",
			Help:      "Document intake duration in seconds, including the verifier call.",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 20, 30, 60},
		},
		[]string{"service", "status"},
	)
	verifierConfidence := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "seva",
			Subsystem: "intake",
			Name:      "confidence_score",
			Help:      "Verifier confidence score of accepted documents.",
			Buckets:   []float64{0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8, 0.9, 1},
		},
		[]string{"service"},
	)
	aiRepliesTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "seva",
			Subsystem: "ai",
			Name:      "replies_total",
			Help:      "Recommendation and assistant replies by source (ai or fallback).",
		},
		[]string{"service", "endpoint", "source"},
	)
	rateLimitedTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "seva",
			Subsystem: "http",
			Name:      "rejected_total",
			Help:      "Requests rejected by traffic control.",
		},
		[]string{"service", "reason"},
	)

	registry.MustRegister(
		requestTotal,
		requestDuration,
		requestInFlight,
		intakeTotal,
		intakeDuration,
		verifierConfidence,
		aiRepliesTotal,
		rateLimitedTotal,
	)

	return &HTTPServerMetrics{
		registry:           registry,
		requestTotal:       requestTotal,
		requestDuration:    requestDuration,
		requestInFlight:    requestInFlight,
		intakeTotal:        intakeTotal,
		intakeDuration:     intakeDuration,
		verifierConfidence: verifierConfidence,
		aiRepliesTotal:     aiRepliesTotal,
		rateLimitedTotal:   rateLimitedTotal,
	}
}

func (m *HTTPServerMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *HTTPServerMetrics) Middleware(service string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		path := normalizePath(r.URL.Path)
		recorder := &statusRecorder{
			ResponseWriter: w,
			statusCode:     http.StatusOK,
		}

		m.requestInFlight.Inc()
		defer m.requestInFlight.Dec()

		next.ServeHTTP(recorder, r)

		m.requestTotal.WithLabelValues(
			service,
			r.Method,
			path,
			strconv.Itoa(recorder.statusCode),
		).Inc()
		m.requestDuration.WithLabelValues(service, r.Method, path).Observe(time.Since(start).Seconds())
	})
}

// normalizePath collapses id segments so label cardinality stays bounded.
func normalizePath(path string) string {
	switch {
	case strings.HasPrefix(path, "/api/documents/"):
		return "/api/documents/{id}"
	case strings.HasPrefix(path, "/api/bookmarks/"):
		return "/api/bookmarks/{id}"
	case strings.HasPrefix(path, "/api/schemes/"):
		return "/api/schemes/{id}"
	default:
		return path
	}
}

func (m *HTTPServerMetrics) RecordIntake(service, status, documentType string, confidence float64, duration time.Duration) {
	if status == "" {
		status = "unknown"
	}
	if documentType == "" {
		documentType = "unknown"
	}
	m.intakeTotal.WithLabelValues(service, status, documentType).Inc()
	m.intakeDuration.WithLabelValues(service, status).Observe(duration.Seconds())
	if status == "verified" {
		m.verifierConfidence.WithLabelValues(service).Observe(confidence)
	}
}

func (m *HTTPServerMetrics) RecordAIReply(service, endpoint, source string) {
	if source == "" {
		source = "unknown"
	}
	m.aiRepliesTotal.WithLabelValues(service, endpoint, source).Inc()
}

func (m *HTTPServerMetrics) RecordRejected(service, reason string) {
	m.rateLimitedTotal.WithLabelValues(service, reason).Inc()
}

type statusRecorder struct {
	http.ResponseWriter
	statusCode int
}

func (w *statusRecorder) WriteHeader(statusCode int) {
	w.statusCode = statusCode
	w.ResponseWriter.WriteHeader(statusCode)
}

func (w *statusRecorder) Flush() {
	flusher, ok := w.ResponseWriter.(http.Flusher)
	if ok {
		flusher.Flush()
	}
}

func (w *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hijacker, ok := w.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, fmt.Errorf("response writer does not implement http.Hijacker")
	}
	return hijacker.Hijack()
}

func (w *statusRecorder) Push(target string, opts *http.PushOptions) error {
	pusher, ok := w.ResponseWriter.(http.Pusher)
	if !ok {
		return http.ErrNotSupported
	}
	return pusher.Push(target, opts)
}
