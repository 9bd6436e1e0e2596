// Package metrics exposes Prometheus instrumentation for Alexander Files.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "alexander_files"

// Metrics holds every collector the server and worker record into.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	SessionsCreated prometheus.Counter
	SessionsRevoked prometheus.Counter
	LoginFailures   prometheus.Counter
	UsersRegistered prometheus.Counter

	FilesCreated *prometheus.CounterVec

	JobsEnqueued        *prometheus.CounterVec
	JobsProcessed       *prometheus.CounterVec
	JobDuration         *prometheus.HistogramVec
	ThumbnailsGenerated prometheus.Counter
}

// New creates the collectors on a private registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),

		HTTPRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, route and status.",
		}, []string{"method", "route", "status"}),
		HTTPRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by method and route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),

		SessionsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sessions_created_total",
			Help:      "Session tokens issued.",
		}),
		SessionsRevoked: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sessions_revoked_total",
			Help:      "Session tokens revoked.",
		}),
		LoginFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "login_failures_total",
			Help:      "Logins rejected for bad credentials.",
		}),
		UsersRegistered: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "users_registered_total",
			Help:      "Users registered.",
		}),

		FilesCreated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "files_created_total",
			Help:      "File records created by type.",
		}, []string{"type"}),

		JobsEnqueued: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "jobs_enqueued_total",
			Help:      "Background jobs enqueued by kind and result.",
		}, []string{"kind", "result"}),
		JobsProcessed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "jobs_processed_total",
			Help:      "Background jobs processed by kind and result.",
		}, []string{"kind", "result"}),
		JobDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "job_duration_seconds",
			Help:      "Background job processing time by kind.",
			Buckets:   []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10},
		}, []string{"kind"}),
		ThumbnailsGenerated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "thumbnails_generated_total",
			Help:      "Image thumbnails written.",
		}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.SessionsCreated,
		m.SessionsRevoked,
		m.LoginFailures,
		m.UsersRegistered,
		m.FilesCreated,
		m.JobsEnqueued,
		m.JobsProcessed,
		m.JobDuration,
		m.ThumbnailsGenerated,
	)

	return m
}

// Registry returns the registry the collectors are registered on.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// =============================================================================
// Recording helpers
// =============================================================================

func result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

// RecordLogin counts an issued session or a rejected login.
func (m *Metrics) RecordLogin(ok bool) {
	if m == nil {
		return
	}
	if ok {
		m.SessionsCreated.Inc()
	} else {
		m.LoginFailures.Inc()
	}
}

// RecordLogout counts a revoked session.
func (m *Metrics) RecordLogout() {
	if m == nil {
		return
	}
	m.SessionsRevoked.Inc()
}

// RecordRegistration counts a new user.
func (m *Metrics) RecordRegistration() {
	if m == nil {
		return
	}
	m.UsersRegistered.Inc()
}

// RecordFileCreated counts a new file record.
func (m *Metrics) RecordFileCreated(fileType string) {
	if m == nil {
		return
	}
	m.FilesCreated.WithLabelValues(fileType).Inc()
}

// RecordEnqueue counts an enqueue attempt.
func (m *Metrics) RecordEnqueue(kind string, err error) {
	if m == nil {
		return
	}
	m.JobsEnqueued.WithLabelValues(kind, result(err)).Inc()
}

// RecordJob counts a processed job and its duration.
func (m *Metrics) RecordJob(kind string, duration time.Duration, err error) {
	if m == nil {
		return
	}
	m.JobsProcessed.WithLabelValues(kind, result(err)).Inc()
	m.JobDuration.WithLabelValues(kind).Observe(duration.Seconds())
}

// RecordThumbnail counts a written thumbnail.
func (m *Metrics) RecordThumbnail() {
	if m == nil {
		return
	}
	m.ThumbnailsGenerated.Inc()
}

// Middleware records request counts and latency labelled by chi route pattern.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	if m == nil {
		return next
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if pattern := rctx.RoutePattern(); pattern != "" {
				route = pattern
			}
		}

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}

		m.HTTPRequestsTotal.WithLabelValues(r.Method, route, strconv.Itoa(status)).Inc()
		m.HTTPRequestDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}
