// Package metrics exposes Prometheus instrumentation for the auth service.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector records auth, key set and HTTP metrics
type Collector struct {
	authAttempts *prometheus.CounterVec
	jwksFetches  *prometheus.CounterVec
	jwksLatency  prometheus.Histogram
	httpRequests *prometheus.CounterVec
	httpLatency  *prometheus.HistogramVec
}

// NewCollector creates a Collector and registers its metrics with reg
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		authAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "hotsauce_auth_attempts_total",
			Help: "Login and signup attempts by outcome",
		}, []string{"flow", "outcome"}),
		jwksFetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "hotsauce_jwks_fetch_total",
			Help: "Provider key set fetches by result",
		}, []string{"result"}),
		jwksLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "hotsauce_jwks_fetch_duration_seconds",
			Help:    "Provider key set fetch latency in seconds",
			Buckets: prometheus.DefBuckets,
		}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "hotsauce_http_requests_total",
			Help: "HTTP responses by method and status code",
		}, []string{"method", "status_code"}),
		httpLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "hotsauce_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"method"}),
	}

	reg.MustRegister(
		c.authAttempts,
		c.jwksFetches,
		c.jwksLatency,
		c.httpRequests,
		c.httpLatency,
	)

	return c
}

// RecordAuthAttempt counts one login or signup outcome
func (c *Collector) RecordAuthAttempt(flow, outcome string) {
	c.authAttempts.WithLabelValues(flow, outcome).Inc()
}

// ObserveKeySetFetch records a provider key set fetch
func (c *Collector) ObserveKeySetFetch(success bool, duration time.Duration) {
	result := "success"
	if !success {
		result = "failure"
	}
	c.jwksFetches.WithLabelValues(result).Inc()
	c.jwksLatency.Observe(duration.Seconds())
}

// RecordHTTPRequest records a served HTTP request
func (c *Collector) RecordHTTPRequest(method string, statusCode int, duration time.Duration) {
	c.httpRequests.WithLabelValues(method, strconv.Itoa(statusCode)).Inc()
	c.httpLatency.WithLabelValues(method).Observe(duration.Seconds())
}

// Handler returns the Prometheus scrape handler for gatherer
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
