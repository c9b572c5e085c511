// Package metrics collects Prometheus metrics for both services.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector records request, authentication and verification metrics.
// A nil *Collector is a valid no-op.
type Collector struct {
	httpRequests  *prometheus.CounterVec
	httpDuration  *prometheus.HistogramVec
	authEvents    *prometheus.CounterVec
	verifyResults *prometheus.CounterVec
	verifyLatency prometheus.Histogram
	taskOps       *prometheus.CounterVec
}

// NewCollector creates a Collector and registers it on reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "taskmanager_http_requests_total",
			Help: "HTTP requests by route and status code.",
		}, []string{"method", "route", "status_code"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "taskmanager_http_request_duration_seconds",
			Help:    "HTTP request latency.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
		authEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "taskmanager_auth_events_total",
			Help: "Register, login and verify outcomes at the identity service.",
		}, []string{"action", "outcome"}),
		verifyResults: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "taskmanager_gateway_verify_total",
			Help: "Remote token verification outcomes seen by the gateway.",
		}, []string{"outcome"}),
		verifyLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "taskmanager_gateway_verify_latency_seconds",
			Help:    "Latency of remote token verification calls.",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		}),
		taskOps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "taskmanager_task_operations_total",
			Help: "Task operations by outcome.",
		}, []string{"op", "outcome"}),
	}

	reg.MustRegister(
		c.httpRequests,
		c.httpDuration,
		c.authEvents,
		c.verifyResults,
		c.verifyLatency,
		c.taskOps,
	)

	return c
}

func (c *Collector) RecordHTTPRequest(method string, route string, statusCode int, duration time.Duration) {
	if c == nil {
		return
	}
	c.httpRequests.WithLabelValues(method, route, strconv.Itoa(statusCode)).Inc()
	c.httpDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

func (c *Collector) RecordAuthEvent(action string, outcome string) {
	if c == nil {
		return
	}
	c.authEvents.WithLabelValues(action, outcome).Inc()
}

func (c *Collector) RecordVerify(outcome string, duration time.Duration) {
	if c == nil {
		return
	}
	c.verifyResults.WithLabelValues(outcome).Inc()
	if duration > 0 {
		c.verifyLatency.Observe(duration.Seconds())
	}
}

func (c *Collector) RecordTaskOperation(op string, outcome string) {
	if c == nil {
		return
	}
	c.taskOps.WithLabelValues(op, outcome).Inc()
}

// Handler serves the Prometheus exposition format.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
