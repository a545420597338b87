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

	newsRequestsTotal        *prometheus.CounterVec
	summaryRequestsTotal     *prometheus.CounterVec
	summaryDuration          *prometheus.HistogramVec
	playbackCommandsTotal    *prometheus.CounterVec
	recognitionRequestsTotal *prometheus.CounterVec
	uploadBytes              *prometheus.HistogramVec
}

func NewHTTPServerMetrics(service string) *HTTPServerMetrics {
	registry := prometheus.NewRegistry()

	requestTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "voicepaper",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests processed.",
		},
		[]string{"service", "method", "path", "status"},
	)
	requestDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "voicepaper",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "method", "path"},
	)
	requestInFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "voicepaper",
			Subsystem: "http",
			Name:      "in_flight_requests",
			Help:      "Number of in-flight HTTP requests.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)
	newsRequestsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "voicepaper",
			Subsystem: "news",
			Name:      "requests_total",
			Help:      "Total trending-news fetches by category and outcome.",
		},
		[]string{"service", "category", "status"},
	)
	summaryRequestsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "voicepaper",
			Subsystem: "summary",
			Name:      "requests_total",
			Help:      "Total summarization requests by outcome.",
		},
		[]string{"service", "status"},
	)
	summaryDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "voicepaper",
			Subsystem: "summary",
			Name:      "duration_seconds",
			Help:      "Summarization duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service"},
	)
	playbackCommandsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "voicepaper",
			Subsystem: "playback",
			Name:      "commands_total",
			Help:      "Total playback control commands by kind.",
		},
		[]string{"service", "command"},
	)
	recognitionRequestsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "voicepaper",
			Subsystem: "recognition",
			Name:      "requests_total",
			Help:      "Total recognition control requests by action.",
		},
		[]string{"service", "action"},
	)
	uploadBytes := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "voicepaper",
			Subsystem: "ingest",
			Name:      "upload_bytes",
			Help:      "Distribution of accepted upload sizes in bytes.",
			Buckets:   prometheus.ExponentialBuckets(1024, 4, 8),
		},
		[]string{"service"},
	)

	registry.MustRegister(
		requestTotal,
		requestDuration,
		requestInFlight,
		newsRequestsTotal,
		summaryRequestsTotal,
		summaryDuration,
		playbackCommandsTotal,
		recognitionRequestsTotal,
		uploadBytes,
	)

	return &HTTPServerMetrics{
		registry:                 registry,
		requestTotal:             requestTotal,
		requestDuration:          requestDuration,
		requestInFlight:          requestInFlight,
		newsRequestsTotal:        newsRequestsTotal,
		summaryRequestsTotal:     summaryRequestsTotal,
		summaryDuration:          summaryDuration,
		playbackCommandsTotal:    playbackCommandsTotal,
		recognitionRequestsTotal: recognitionRequestsTotal,
		uploadBytes:              uploadBytes,
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

func normalizePath(path string) string {
	switch {
	case strings.HasPrefix(path, "/v1/documents/"):
		return "/v1/documents/{document_id}"
	default:
		return path
	}
}

func (m *HTTPServerMetrics) RecordNewsRequest(service, category string, err error) {
	if category == "" {
		category = "All"
	}
	status := "success"
	if err != nil {
		status = "error"
	}
	m.newsRequestsTotal.WithLabelValues(service, category, status).Inc()
}

func (m *HTTPServerMetrics) RecordSummaryRequest(service string, duration time.Duration, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	m.summaryRequestsTotal.WithLabelValues(service, status).Inc()
	if err == nil {
		m.summaryDuration.WithLabelValues(service).Observe(duration.Seconds())
	}
}

func (m *HTTPServerMetrics) RecordPlaybackCommand(service, command string) {
	if command == "" {
		command = "unknown"
	}
	m.playbackCommandsTotal.WithLabelValues(service, command).Inc()
}

func (m *HTTPServerMetrics) RecordRecognitionRequest(service, action string) {
	if action == "" {
		action = "unknown"
	}
	m.recognitionRequestsTotal.WithLabelValues(service, action).Inc()
}

func (m *HTTPServerMetrics) RecordUploadSize(service string, bytes int64) {
	if bytes <= 0 {
		return
	}
	m.uploadBytes.WithLabelValues(service).Observe(float64(bytes))
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
