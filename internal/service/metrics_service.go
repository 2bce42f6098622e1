package service

import (
	"fmt"
	"net/http"
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/englify/englify-api/pkg/filetype"
)

// MetricsService encapsulates Prometheus instrumentation.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	filesServed     *prometheus.CounterVec
	scanCreated     prometheus.Counter
	scanRuns        prometheus.Counter
}

// NewMetricsService registers core Prometheus collectors.
func NewMetricsService() *MetricsService {
	registry := prometheus.NewRegistry()

	requestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	requestTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	filesServed := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "material_files_served_total",
		Help: "Total material files streamed, by classified kind",
	}, []string{"kind"})

	scanCreated := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "material_scan_created_total",
		Help: "Total materials registered by directory scans",
	})

	scanRuns := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "material_scan_runs_total",
		Help: "Total directory scan runs",
	})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, filesServed, scanCreated, scanRuns, goroutines)

	handler := promhttp.HandlerFor(registry, promhttp.HandlerOpts{})

	return &MetricsService{
		registry:        registry,
		handler:         handler,
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
		filesServed:     filesServed,
		scanCreated:     scanCreated,
		scanRuns:        scanRuns,
	}
}

// Handler exposes the Prometheus HTTP handler.
func (m *MetricsService) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// ObserveHTTPRequest records request metrics.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labelStatus := fmt.Sprintf("%d", status)
	m.requestDuration.WithLabelValues(method, path, labelStatus).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, labelStatus).Inc()
}

// ObserveFileServed counts a streamed material file.
func (m *MetricsService) ObserveFileServed(kind filetype.Kind) {
	if m == nil {
		return
	}
	m.filesServed.WithLabelValues(string(kind)).Inc()
}

// ObserveScan records a scan run and the number of materials it created.
func (m *MetricsService) ObserveScan(created int) {
	if m == nil {
		return
	}
	m.scanRuns.Inc()
	if created > 0 {
		m.scanCreated.Add(float64(created))
	}
}
