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

	uploadBytes        *prometheus.HistogramVec
	chatRequestsTotal  *prometheus.CounterVec
	analysisQueueTotal *prometheus.CounterVec
}

func NewHTTPServerMetrics(service string) *HTTPServerMetrics {
	registry := prometheus.NewRegistry()

	requestTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "reportaway",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests processed.",
		},
		[]string{"service", "method", "path", "status"},
	)
	requestDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "reportaway",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "method", "path"},
	)
	requestInFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "reportaway",
			Subsystem: "http",
			Name:      "in_flight_requests",
			Help:      "Number of in-flight HTTP requests.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)
	uploadBytes := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "reportaway",
			Subsystem: "http",
			Name:      "upload_bytes",
			Help:      "Distribution of uploaded document sizes in bytes.",
			Buckets:   prometheus.ExponentialBuckets(1024, 4, 8),
		},
		[]string{"service"},
	)
	chatRequestsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "reportaway",
			Subsystem: "chat",
			Name:      "requests_total",
			Help:      "Total completed case chat turns.",
		},
		[]string{"service", "status"},
	)
	analysisQueueTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "reportaway",
			Subsystem: "http",
			Name:      "analysis_requests_total",
			Help:      "Total analysis requests accepted for queueing.",
		},
		[]string{"service"},
	)

	registry.MustRegister(
		requestTotal,
		requestDuration,
		requestInFlight,
		uploadBytes,
		chatRequestsTotal,
		analysisQueueTotal,
	)

	return &HTTPServerMetrics{
		registry:           registry,
		requestTotal:       requestTotal,
		requestDuration:    requestDuration,
		requestInFlight:    requestInFlight,
		uploadBytes:        uploadBytes,
		chatRequestsTotal:  chatRequestsTotal,
		analysisQueueTotal: analysisQueueTotal,
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

// normalizePath collapses case IDs so the path label stays low-cardinality.
func normalizePath(path string) string {
	if !strings.HasPrefix(path, "/v1/cases/") {
		return path
	}
	rest := strings.TrimPrefix(path, "/v1/cases/")
	if idx := strings.IndexByte(rest, '/'); idx >= 0 {
		return "/v1/cases/{case_id}" + rest[idx:]
	}
	return "/v1/cases/{case_id}"
}

func (m *HTTPServerMetrics) RecordUploadSize(service string, size int64) {
	if size <= 0 {
		return
	}
	m.uploadBytes.WithLabelValues(service).Observe(float64(size))
}

func (m *HTTPServerMetrics) RecordChatTurn(service string, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	m.chatRequestsTotal.WithLabelValues(service, status).Inc()
}

func (m *HTTPServerMetrics) RecordAnalysisQueued(service string) {
	m.analysisQueueTotal.WithLabelValues(service).Inc()
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
