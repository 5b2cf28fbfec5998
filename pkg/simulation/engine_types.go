package simulation

import (
	"github.com/dd0wney/misinfo-cascade/pkg/graph"
	"github.com/dd0wney/misinfo-cascade/pkg/logging"
	"github.com/dd0wney/misinfo-cascade/pkg/metrics"
)

// State is the lifecycle of an engine. Transitions only move forward.
type State int

const (
	StateReady State = iota
	StateRunning
	StateFinished
)

func (s State) String() string {
	switch s {
	case StateReady:
		return "ready"
	case StateRunning:
		return "running"
	case StateFinished:
		return "finished"
	default:
		return "unknown"
	}
}

// StepRecord summarises one timestep.
type StepRecord struct {
	Timestep      int             `json:"timestep"`
	NewlyInfected []graph.NodeID  `json:"newly_infected"`
	TotalInfected int             `json:"total_infected"`
	Exposures     []ExposureEvent `json:"exposures,omitempty"`
}

// ExposureEvent attributes one positive exposure to the arc that carried it.
type ExposureEvent struct {
	From        graph.NodeID `json:"from"`
	To          graph.NodeID `json:"to"`
	Probability float64      `json:"probability"`
}

// Option configures an Engine.
type Option func(*options)

type options struct {
	logger  logging.Logger
	metrics *metrics.Registry
	runID   string
	trace   bool
}

// WithLogger sets the logger used for run and timestep events.
func WithLogger(logger logging.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithMetrics records run and timestep metrics on r.
func WithMetrics(r *metrics.Registry) Option {
	return func(o *options) {
		o.metrics = r
	}
}

// WithRunID overrides the generated run identifier.
func WithRunID(id string) Option {
	return func(o *options) {
		o.runID = id
	}
}

// WithExposureTrace records every positive exposure in the step records.
func WithExposureTrace() Option {
	return func(o *options) {
		o.trace = true
	}
}
