package metrics

import (
	"runtime"
	"time"
)

// Run outcomes
const (
	OutcomeCompleted = "completed"
	OutcomeConverged = "converged"
	OutcomeFailed    = "failed"
	OutcomeCancelled = "cancelled"
)

// RecordTimestep records one executed timestep
func (r *Registry) RecordTimestep(newlyInfected, exposures int, duration time.Duration) {
	r.TimestepsTotal.Inc()
	r.TimestepDuration.Observe(duration.Seconds())
	r.NewlyInfectedPerStep.Observe(float64(newlyInfected))
	r.InfectionsTotal.Add(float64(newlyInfected))
	r.ExposuresTotal.Add(float64(exposures))
}

// RecordRun records a finished simulation run
func (r *Registry) RecordRun(outcome string, duration time.Duration, timesteps, finalInfected int) {
	r.RunsTotal.WithLabelValues(outcome).Inc()
	if outcome == OutcomeFailed {
		return
	}
	r.RunDuration.Observe(duration.Seconds())
	r.RunTimesteps.Observe(float64(timesteps))
	r.RunFinalInfected.Observe(float64(finalInfected))
}

// RecordSweep records a finished batch sweep
func (r *Registry) RecordSweep(outcome string, runs int, duration time.Duration) {
	r.SweepsTotal.WithLabelValues(outcome).Inc()
	r.SweepRunsTotal.Add(float64(runs))
	r.SweepDuration.Observe(duration.Seconds())
}

// RecordHTTPRequest records an HTTP request with its duration
func (r *Registry) RecordHTTPRequest(method, path, status string, duration time.Duration) {
	r.HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
	r.HTTPRequestDuration.WithLabelValues(method, path, status).Observe(duration.Seconds())
}

// UpdateSystemMetrics refreshes process gauges
func (r *Registry) UpdateSystemMetrics(startTime time.Time) {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	r.UptimeSeconds.Set(time.Since(startTime).Seconds())
	r.GoRoutines.Set(float64(runtime.NumGoroutine()))
	r.MemoryAllocBytes.Set(float64(m.Alloc))
}

// RecordResponseSize records the size of an HTTP response body
func (r *Registry) RecordResponseSize(method, path string, size float64) {
	r.HTTPResponseSizeBytes.WithLabelValues(method, path).Observe(size)
}

// IncHTTPRequestsInFlight marks the start of an HTTP request
func (r *Registry) IncHTTPRequestsInFlight() {
	r.HTTPRequestsInFlight.Inc()
}

// DecHTTPRequestsInFlight marks the end of an HTTP request
func (r *Registry) DecHTTPRequestsInFlight() {
	r.HTTPRequestsInFlight.Dec()
}
