package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

func (r *Registry) initSimulationMetrics() {
	r.RunsTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "misinfo_runs_total",
			Help: "Simulation runs by outcome (completed, converged, failed)",
		},
		[]string{"outcome"},
	)

	r.RunDuration = promauto.With(r.registry).NewHistogram(
		prometheus.HistogramOpts{
			Name:    "misinfo_run_duration_seconds",
			Help:    "Wall-clock duration of a simulation run",
			Buckets: []float64{0.0001, 0.001, 0.01, 0.1, 1, 10},
		},
	)

	r.RunTimesteps = promauto.With(r.registry).NewHistogram(
		prometheus.HistogramOpts{
			Name:    "misinfo_run_timesteps",
			Help:    "Timesteps executed per run",
			Buckets: []float64{0, 1, 5, 10, 20, 50, 100, 200},
		},
	)

	r.RunFinalInfected = promauto.With(r.registry).NewHistogram(
		prometheus.HistogramOpts{
			Name:    "misinfo_run_final_infected",
			Help:    "Infected nodes at the end of a run",
			Buckets: []float64{1, 5, 10, 50, 100, 500, 1000, 10000},
		},
	)

	r.TimestepsTotal = promauto.With(r.registry).NewCounter(
		prometheus.CounterOpts{
			Name: "misinfo_timesteps_total",
			Help: "Timesteps executed across all runs",
		},
	)

	r.TimestepDuration = promauto.With(r.registry).NewHistogram(
		prometheus.HistogramOpts{
			Name:    "misinfo_timestep_duration_seconds",
			Help:    "Duration of a single timestep",
			Buckets: []float64{0.00001, 0.0001, 0.001, 0.01, 0.1, 1},
		},
	)

	r.NewlyInfectedPerStep = promauto.With(r.registry).NewHistogram(
		prometheus.HistogramOpts{
			Name:    "misinfo_newly_infected_per_timestep",
			Help:    "Nodes infected in a single timestep",
			Buckets: []float64{0, 1, 2, 5, 10, 50, 100, 1000},
		},
	)

	r.InfectionsTotal = promauto.With(r.registry).NewCounter(
		prometheus.CounterOpts{
			Name: "misinfo_infections_total",
			Help: "Infections committed across all runs, seeds excluded",
		},
	)

	r.ExposuresTotal = promauto.With(r.registry).NewCounter(
		prometheus.CounterOpts{
			Name: "misinfo_exposures_total",
			Help: "Non-zero exposures evaluated across all runs",
		},
	)

	r.RunsInProgress = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "misinfo_runs_in_progress",
			Help: "Simulation runs currently executing",
		},
	)
}

func (r *Registry) initSweepMetrics() {
	r.SweepsTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "misinfo_sweeps_total",
			Help: "Batch sweeps by outcome (completed, cancelled, failed)",
		},
		[]string{"outcome"},
	)

	r.SweepRunsTotal = promauto.With(r.registry).NewCounter(
		prometheus.CounterOpts{
			Name: "misinfo_sweep_runs_total",
			Help: "Runs executed on behalf of sweeps",
		},
	)

	r.SweepDuration = promauto.With(r.registry).NewHistogram(
		prometheus.HistogramOpts{
			Name:    "misinfo_sweep_duration_seconds",
			Help:    "Wall-clock duration of a sweep",
			Buckets: []float64{0.001, 0.01, 0.1, 1, 10, 60},
		},
	)
}
