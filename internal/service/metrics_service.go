package service

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Priyesh-Ghadge/PCCOER-HELP-DESK/internal/models"
)

// MetricsService encapsulates Prometheus instrumentation for the workflow
// engine and the HTTP surface.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec

	sessionsStarted   prometheus.Counter
	sessionsSubmitted prometheus.Counter
	sessionsCancelled prometheus.Counter
	statusTransitions *prometheus.CounterVec
	certificates      prometheus.Counter
}

// NewMetricsService registers the collectors.
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

	sessionsStarted := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "verification_sessions_started_total",
		Help: "Verification sessions created",
	})
	sessionsSubmitted := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "verification_sessions_submitted_total",
		Help: "Verification sessions that produced an application",
	})
	sessionsCancelled := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "verification_sessions_cancelled_total",
		Help: "Verification sessions cancelled or aborted",
	})
	statusTransitions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "application_status_transitions_total",
		Help: "Administrator status transitions applied",
	}, []string{"status"})
	certificates := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "certificates_rendered_total",
		Help: "Bonafide certificate documents rendered",
	})

	registry.MustRegister(requestDuration, requestTotal, sessionsStarted, sessionsSubmitted, sessionsCancelled, statusTransitions, certificates)

	return &MetricsService{
		registry:          registry,
		handler:           promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestDuration:   requestDuration,
		requestTotal:      requestTotal,
		sessionsStarted:   sessionsStarted,
		sessionsSubmitted: sessionsSubmitted,
		sessionsCancelled: sessionsCancelled,
		statusTransitions: statusTransitions,
		certificates:      certificates,
	}
}

// Handler exposes the Prometheus scrape endpoint.
func (s *MetricsService) Handler() http.Handler {
	return s.handler
}

// ObserveHTTPRequest records duration and count for a completed request.
func (s *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	labels := []string{method, path, strconv.Itoa(status)}
	s.requestDuration.WithLabelValues(labels...).Observe(duration.Seconds())
	s.requestTotal.WithLabelValues(labels...).Inc()
}

// SessionStarted increments the started-sessions counter.
func (s *MetricsService) SessionStarted() { s.sessionsStarted.Inc() }

// SessionSubmitted increments the submitted-sessions counter.
func (s *MetricsService) SessionSubmitted() { s.sessionsSubmitted.Inc() }

// SessionCancelled increments the cancelled-sessions counter.
func (s *MetricsService) SessionCancelled() { s.sessionsCancelled.Inc() }

// StatusTransition counts an accepted administrator transition.
func (s *MetricsService) StatusTransition(status models.ApplicationStatus) {
	s.statusTransitions.WithLabelValues(string(status)).Inc()
}

// CertificateRendered counts a rendered certificate document.
func (s *MetricsService) CertificateRendered() { s.certificates.Inc() }
