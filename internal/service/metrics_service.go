package service

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsService registers and records prometheus metrics.
type MetricsService struct {
	registry     *prometheus.Registry
	httpRequests *prometheus.HistogramVec
	artifacts    *prometheus.CounterVec
}

// NewMetricsService constructs the service with its own registry.
func NewMetricsService() *MetricsService {
	registry := prometheus.NewRegistry()

	httpRequests := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "HTTP request latency by method, route and status.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route", "status"})

	artifacts := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "artifact_generation_total",
		Help: "Artifact generation attempts by kind and outcome.",
	}, []string{"kind", "outcome"})

	registry.MustRegister(httpRequests, artifacts)

	return &MetricsService{
		registry:     registry,
		httpRequests: httpRequests,
		artifacts:    artifacts,
	}
}

// Registry exposes the registry for the /metrics endpoint.
func (s *MetricsService) Registry() *prometheus.Registry {
	return s.registry
}

// Handler serves the registry in the Prometheus text format.
func (s *MetricsService) Handler() http.Handler {
	return promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{})
}

// ObserveHTTPRequest records one request observation.
func (s *MetricsService) ObserveHTTPRequest(method, route string, status int, duration time.Duration) {
	s.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Observe(duration.Seconds())
}

// CountArtifact records an artifact generation outcome.
func (s *MetricsService) CountArtifact(kind, outcome string) {
	s.artifacts.WithLabelValues(kind, outcome).Inc()
}
