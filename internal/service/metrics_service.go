package service

import (
	"fmt"
	"net/http"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/noah-isme/incident-reporter/internal/models"
)

// Upload outcomes recorded by RecordUpload.
const (
	UploadAccepted = "accepted"
	UploadRejected = "rejected"
	UploadReleased = "released"
)

// MetricsService encapsulates Prometheus instrumentation for the HTTP layer and incident flows.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	incidentsTotal  *prometheus.CounterVec
	statusUpdates   *prometheus.CounterVec
	uploadsTotal    *prometheus.CounterVec
	loginsTotal     *prometheus.CounterVec

	requestCount         uint64
	requestDurationTotal uint64
}

// NewMetricsService registers the collectors on a private registry.
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

	incidentsTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "incidents_created_total",
		Help: "Incidents persisted, by category",
	}, []string{"category"})

	statusUpdates := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "incident_status_updates_total",
		Help: "Successful incident status changes, by target status",
	}, []string{"status"})

	uploadsTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "screenshot_uploads_total",
		Help: "Screenshot uploads, by outcome",
	}, []string{"outcome"})

	loginsTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "login_attempts_total",
		Help: "Login attempts, by role and result",
	}, []string{"role", "result"})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, incidentsTotal, statusUpdates, uploadsTotal, loginsTotal, goroutines)

	return &MetricsService{
		registry:        registry,
		handler:         promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
		incidentsTotal:  incidentsTotal,
		statusUpdates:   statusUpdates,
		uploadsTotal:    uploadsTotal,
		loginsTotal:     loginsTotal,
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

// Registry exposes the underlying registry, mainly for tests.
func (m *MetricsService) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// ObserveHTTPRequest records request metrics.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labelStatus := fmt.Sprintf("%d", status)
	m.requestDuration.WithLabelValues(method, path, labelStatus).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, labelStatus).Inc()
	atomic.AddUint64(&m.requestCount, 1)
	atomic.AddUint64(&m.requestDurationTotal, uint64(duration.Nanoseconds()))
}

// RecordIncidentCreated counts a persisted incident.
func (m *MetricsService) RecordIncidentCreated(category models.IncidentCategory) {
	if m == nil {
		return
	}
	m.incidentsTotal.WithLabelValues(string(category)).Inc()
}

// RecordStatusUpdate counts a successful status change.
func (m *MetricsService) RecordStatusUpdate(status models.IncidentStatus) {
	if m == nil {
		return
	}
	m.statusUpdates.WithLabelValues(string(status)).Inc()
}

// RecordUpload counts an upload outcome.
func (m *MetricsService) RecordUpload(outcome string) {
	if m == nil {
		return
	}
	m.uploadsTotal.WithLabelValues(outcome).Inc()
}

// RecordLogin counts a login attempt.
func (m *MetricsService) RecordLogin(role models.Role, success bool) {
	if m == nil {
		return
	}
	result := "failure"
	if success {
		result = "success"
	}
	m.loginsTotal.WithLabelValues(string(role), result).Inc()
}

// AverageRequestDuration returns the mean observed request latency.
func (m *MetricsService) AverageRequestDuration() time.Duration {
	if m == nil {
		return 0
	}
	count := atomic.LoadUint64(&m.requestCount)
	if count == 0 {
		return 0
	}
	return time.Duration(atomic.LoadUint64(&m.requestDurationTotal) / count)
}
