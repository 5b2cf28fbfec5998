package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Registry holds all metrics for the application
type Registry struct {
	// Simulation metrics
	RunsTotal            *prometheus.CounterVec
	RunDuration          prometheus.Histogram
	RunTimesteps         prometheus.Histogram
	RunFinalInfected     prometheus.Histogram
	TimestepsTotal       prometheus.Counter
	TimestepDuration     prometheus.Histogram
	NewlyInfectedPerStep prometheus.Histogram
	InfectionsTotal      prometheus.Counter
	ExposuresTotal       prometheus.Counter
	RunsInProgress       prometheus.Gauge

	// Sweep metrics
	SweepsTotal    *prometheus.CounterVec
	SweepRunsTotal prometheus.Counter
	SweepDuration  prometheus.Histogram

	// HTTP metrics
	HTTPRequestsTotal     *prometheus.CounterVec
	HTTPRequestDuration   *prometheus.HistogramVec
	HTTPRequestsInFlight  prometheus.Gauge
	HTTPResponseSizeBytes *prometheus.HistogramVec

	// Process metrics
	UptimeSeconds    prometheus.Gauge
	GoRoutines       prometheus.Gauge
	MemoryAllocBytes prometheus.Gauge

	registry *prometheus.Registry
}

// NewRegistry creates a new metrics registry with all metrics initialized
func NewRegistry() *Registry {
	r := &Registry{
		registry: prometheus.NewRegistry(),
	}

	r.initSimulationMetrics()
	r.initSweepMetrics()
	r.initHTTPMetrics()
	r.initSystemMetrics()

	return r
}

// GetPrometheusRegistry returns the underlying Prometheus registry
func (r *Registry) GetPrometheusRegistry() *prometheus.Registry {
	return r.registry
}
