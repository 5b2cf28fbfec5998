// Package simulation runs a discrete-time susceptible-infected cascade of a
// single piece of misinformation over a social graph.
//
// Each timestep, every infected non fact-checker exposes its out-neighbours
// with probability credulity x tendency_to_share x trust. Exposures reaching
// one receiver in the same timestep are combined as independent events and
// decided with one draw. Infections are permanent.
package simulation

import (
	"time"

	"github.com/google/uuid"

	"github.com/dd0wney/misinfo-cascade/pkg/graph"
	"github.com/dd0wney/misinfo-cascade/pkg/logging"
	"github.com/dd0wney/misinfo-cascade/pkg/metrics"
)

// Engine advances a cascade over a graph one timestep at a time.
//
// Every timestep is evaluated against the infected set as it stood when the
// timestep began: a node infected at t only starts exposing its neighbours at
// t+1. An Engine is not safe for concurrent use, but any number of engines
// may share one graph.
type Engine struct {
	g       *graph.Graph
	cfg     Config
	decider Decider
	opts    options
	logger  logging.Logger

	state    State
	t        int
	infected []bool
	total    int
	acc      *accumulator
	started  time.Time

	// scratch reused across timesteps
	ps      []float64
	pending []int
}

// NewEngine validates cfg against g and seeds the initial infected set.
// Seeds are infected at timestep 0.
func NewEngine(g *graph.Graph, cfg Config, decider Decider, opts ...Option) (*Engine, error) {
	if g == nil {
		return nil, configError("graph", "", "graph is nil")
	}
	if decider == nil {
		return nil, configError("decider", "", "decider is nil")
	}
	seeds, err := cfg.Validate(g)
	if err != nil {
		return nil, err
	}

	o := options{logger: logging.NewNopLogger()}
	for _, opt := range opts {
		opt(&o)
	}
	if o.runID == "" {
		o.runID = uuid.NewString()
	}
	cfg.RecordExposures = cfg.RecordExposures || o.trace

	e := &Engine{
		g:        g,
		cfg:      cfg,
		decider:  decider,
		opts:     o,
		logger:   o.logger.With(logging.Component("engine"), logging.RunID(o.runID)),
		infected: make([]bool, g.Len()),
		acc:      newAccumulator(o.runID, cfg.NumTimesteps),
	}
	for _, id := range seeds {
		e.infected[g.Index(id)] = true
	}
	e.total = len(seeds)
	e.acc.seed(seeds)

	e.logger.Debug("engine seeded",
		logging.Count(len(seeds)),
		logging.Int("nodes", g.Len()),
		logging.Int("num_timesteps", cfg.NumTimesteps))

	return e, nil
}

// RunID identifies this run in logs, metrics and exports.
func (e *Engine) RunID() string {
	return e.opts.runID
}

// State returns the lifecycle state.
func (e *Engine) State() State {
	return e.state
}

// Timestep returns the last completed timestep, 0 before the first.
func (e *Engine) Timestep() int {
	return e.t
}

// TotalInfected returns the current size of the infected set.
func (e *Engine) TotalInfected() int {
	return e.total
}

// Step executes one timestep. With zero configured timesteps the first
// call finishes the run without executing anything.
func (e *Engine) Step() error {
	switch e.state {
	case StateFinished:
		return &InvalidStateError{Op: "step", State: e.state}
	case StateReady:
		e.state = StateRunning
		e.started = time.Now()
		if e.opts.metrics != nil {
			e.opts.metrics.RunsInProgress.Inc()
		}
		if e.cfg.NumTimesteps == 0 {
			e.finish(false)
			return nil
		}
	}

	start := time.Now()
	rec, exposures := e.advance()
	e.acc.record(rec)

	if e.opts.metrics != nil {
		e.opts.metrics.RecordTimestep(len(rec.NewlyInfected), exposures, time.Since(start))
	}
	e.logger.Debug("timestep completed",
		logging.Timestep(rec.Timestep),
		logging.Int("newly_infected", len(rec.NewlyInfected)),
		logging.Int("total_infected", rec.TotalInfected),
		logging.Int("exposures", exposures))

	converged := e.cfg.StopOnConvergence && len(rec.NewlyInfected) == 0
	if e.t == e.cfg.NumTimesteps || converged {
		e.finish(converged)
	}
	return nil
}

// Run steps until the engine finishes and returns the result. A finished
// engine cannot be run again; use Result to read its trace.
func (e *Engine) Run() (*Result, error) {
	if e.state == StateFinished {
		return nil, &InvalidStateError{Op: "run", State: e.state}
	}
	for e.state != StateFinished {
		if err := e.Step(); err != nil {
			return nil, err
		}
	}
	return e.acc.result()
}

// Result returns the finished result.
func (e *Engine) Result() (*Result, error) {
	if e.state != StateFinished {
		return nil, &InvalidStateError{Op: "result", State: e.state}
	}
	return e.acc.result()
}

// advance evaluates every susceptible node against the infected set as it
// stood at the start of the timestep, then commits all successes together.
func (e *Engine) advance() (StepRecord, int) {
	e.t++
	rec := StepRecord{Timestep: e.t}
	e.pending = e.pending[:0]
	exposures := 0

	for i := 0; i < e.g.Len(); i++ {
		receiver := e.g.At(i)
		if e.infected[i] || !receiver.Susceptible() {
			continue
		}

		e.ps = e.ps[:0]
		for _, arc := range e.g.InArcs(receiver.ID) {
			si := e.g.Index(arc.Source)
			if !e.infected[si] {
				continue
			}
			p := Exposure(e.g.At(si), receiver, arc.Trust)
			if p <= 0 {
				continue
			}
			e.ps = append(e.ps, p)
			if e.cfg.RecordExposures {
				rec.Exposures = append(rec.Exposures, ExposureEvent{From: arc.Source, To: receiver.ID, Probability: p})
			}
		}
		if len(e.ps) == 0 {
			continue
		}

		exposures += len(e.ps)
		if e.decider.Decide(Combine(e.ps)) {
			e.pending = append(e.pending, i)
		}
	}

	rec.NewlyInfected = make([]graph.NodeID, 0, len(e.pending))
	for _, i := range e.pending {
		e.infected[i] = true
		rec.NewlyInfected = append(rec.NewlyInfected, e.g.At(i).ID)
	}
	e.total += len(e.pending)
	rec.TotalInfected = e.total

	return rec, exposures
}

func (e *Engine) finish(converged bool) {
	e.state = StateFinished
	e.acc.finish(e.g, converged)

	outcome := metrics.OutcomeCompleted
	if converged {
		outcome = metrics.OutcomeConverged
	}
	elapsed := time.Since(e.started)
	if e.opts.metrics != nil {
		e.opts.metrics.RunsInProgress.Dec()
		e.opts.metrics.RecordRun(outcome, elapsed, e.t, e.total)
	}
	e.logger.Info("run finished",
		logging.String("outcome", outcome),
		logging.Timestep(e.t),
		logging.Int("final_infected", e.total),
		logging.Latency(elapsed))
}
