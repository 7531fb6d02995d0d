// Package metrics exposes Prometheus instrumentation for backend calls, the
// polling loop and the dashboard server.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Namespace prefixes every metric.
const Namespace = "webunpack"

// Outcome labels for backend calls.
const (
	OutcomeOK    = "ok"
	OutcomeError = "error"
)

// Recorder holds all collectors. A nil *Recorder records nothing, so
// callers never need to guard their calls.
type Recorder struct {
	apiRequests   *prometheus.CounterVec
	apiDuration   *prometheus.HistogramVec
	pollTicks     *prometheus.CounterVec
	jobsTerminal  *prometheus.CounterVec
	pollingActive prometheus.Gauge
	circuitOpen   prometheus.Gauge
	httpRequests  *prometheus.CounterVec
	httpDuration  *prometheus.HistogramVec
	gatherer      prometheus.Gatherer
}

// New registers all collectors with reg. A nil reg gets a private registry.
func New(reg *prometheus.Registry) *Recorder {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	factory := promauto.With(reg)

	return &Recorder{
		apiRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: "api",
			Name:      "requests_total",
			Help:      "Backend API calls by endpoint and outcome",
		}, []string{"endpoint", "outcome"}),
		apiDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: Namespace,
			Subsystem: "api",
			Name:      "request_duration_seconds",
			Help:      "Backend API call latency",
			Buckets:   prometheus.ExponentialBuckets(0.05, 2, 10),
		}, []string{"endpoint"}),
		pollTicks: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: "poll",
			Name:      "ticks_total",
			Help:      "Job status poll ticks by result",
		}, []string{"result"}),
		jobsTerminal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: "jobs",
			Name:      "terminal_total",
			Help:      "Jobs observed reaching a terminal status",
		}, []string{"status"}),
		pollingActive: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: Namespace,
			Subsystem: "polling",
			Name:      "sessions_active",
			Help:      "Active polling sessions (never more than one)",
		}),
		circuitOpen: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: Namespace,
			Subsystem: "api",
			Name:      "circuit_open",
			Help:      "1 while the backend circuit breaker rejects calls",
		}),
		httpRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Dashboard server requests",
		}, []string{"method", "route", "status"}),
		httpDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: Namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Dashboard server request latency",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		gatherer: reg,
	}
}

// ObserveAPICall records one backend call.
func (r *Recorder) ObserveAPICall(endpoint string, err error, d time.Duration) {
	if r == nil {
		return
	}
	outcome := OutcomeOK
	if err != nil {
		outcome = OutcomeError
	}
	r.apiRequests.WithLabelValues(endpoint, outcome).Inc()
	r.apiDuration.WithLabelValues(endpoint).Observe(d.Seconds())
}

// PollTick records one status poll; result is the observed status or "error".
func (r *Recorder) PollTick(result string) {
	if r == nil {
		return
	}
	r.pollTicks.WithLabelValues(result).Inc()
}

// JobTerminal records a job reaching completed or failed.
func (r *Recorder) JobTerminal(status string) {
	if r == nil {
		return
	}
	r.jobsTerminal.WithLabelValues(status).Inc()
}

// PollingStarted marks a polling session as active.
func (r *Recorder) PollingStarted() {
	if r == nil {
		return
	}
	r.pollingActive.Inc()
}

// PollingStopped marks a polling session as finished.
func (r *Recorder) PollingStopped() {
	if r == nil {
		return
	}
	r.pollingActive.Dec()
}

// CircuitOpen records whether the backend circuit breaker is rejecting calls.
func (r *Recorder) CircuitOpen(open bool) {
	if r == nil {
		return
	}
	if open {
		r.circuitOpen.Set(1)
		return
	}
	r.circuitOpen.Set(0)
}

// Handler serves the registry in the Prometheus text format.
func (r *Recorder) Handler() http.Handler {
	if r == nil {
		return promhttp.HandlerFor(prometheus.NewRegistry(), promhttp.HandlerOpts{})
	}
	return promhttp.HandlerFor(r.gatherer, promhttp.HandlerOpts{})
}
