package server

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/desertthunder/hifi/internal/tasks"
)

// MetricsNamespace prefixes every exported metric.
const MetricsNamespace = "hifi"

// Metrics tracks gateway traffic, upstream calls and login runs.
//
// Metrics:
//   - hifi_http_requests_total: requests by route, method and status
//   - hifi_http_request_duration_seconds: request latency by route
//   - hifi_upstream_requests_total: catalog API calls by host and status
//   - hifi_upstream_request_duration_seconds: catalog API latency by host
//   - hifi_login_runs_total: login bridge runs by outcome
type Metrics struct {
	registry *prometheus.Registry

	requestsTotal    *prometheus.CounterVec
	requestDuration  *prometheus.HistogramVec
	upstreamTotal    *prometheus.CounterVec
	upstreamDuration *prometheus.HistogramVec
	loginRunsTotal   *prometheus.CounterVec
}

// NewMetrics creates a registry with the gateway metrics and the Go runtime collectors.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),

		requestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: MetricsNamespace,
				Subsystem: "http",
				Name:      "requests_total",
				Help:      "Total number of gateway requests",
			},
			[]string{"route", "method", "status"},
		),

		requestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: MetricsNamespace,
				Subsystem: "http",
				Name:      "request_duration_seconds",
				Help:      "Duration of gateway requests in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"route", "method"},
		),

		upstreamTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: MetricsNamespace,
				Subsystem: "upstream",
				Name:      "requests_total",
				Help:      "Total number of catalog API requests",
			},
			[]string{"host", "status"},
		),

		upstreamDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: MetricsNamespace,
				Subsystem: "upstream",
				Name:      "request_duration_seconds",
				Help:      "Duration of catalog API requests in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"host"},
		),

		loginRunsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: MetricsNamespace,
				Subsystem: "login",
				Name:      "runs_total",
				Help:      "Total number of login task runs",
			},
			[]string{"outcome"},
		),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.requestsTotal,
		m.requestDuration,
		m.upstreamTotal,
		m.upstreamDuration,
		m.loginRunsTotal,
	)

	return m
}

// Registry exposes the underlying registry, mainly for tests.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler returns the Prometheus scrape endpoint.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
		ErrorHandling:     promhttp.ContinueOnError,
	})
}

// Middleware records one observation per request, labelled with the matched route pattern.
//
// It must sit directly around the mux so the pattern is visible once the handler returns.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := recorderFor(w)

		next.ServeHTTP(rec, r)

		route := r.Pattern
		if route == "" {
			route = "unmatched"
		}
		m.requestsTotal.WithLabelValues(route, r.Method, strconv.Itoa(rec.Status())).Inc()
		m.requestDuration.WithLabelValues(route, r.Method).Observe(time.Since(start).Seconds())
	})
}

// ObserveUpstream records a catalog API call. It satisfies services.Observer.
func (m *Metrics) ObserveUpstream(host string, status int, elapsed time.Duration) {
	label := "error"
	if status > 0 {
		label = strconv.Itoa(status)
	}
	m.upstreamTotal.WithLabelValues(host, label).Inc()
	m.upstreamDuration.WithLabelValues(host).Observe(elapsed.Seconds())
}

// ObserveLogin records the outcome of a login bridge run.
func (m *Metrics) ObserveLogin(res *tasks.LoginResult) {
	outcome := "ok"
	switch {
	case res.Err != nil:
		outcome = "failed"
	case res.SinkErr != nil:
		outcome = "abandoned"
	case res.ExitCode != nil && *res.ExitCode != 0:
		outcome = "nonzero_exit"
	}
	m.loginRunsTotal.WithLabelValues(outcome).Inc()
}
