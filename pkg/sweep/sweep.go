// Package sweep runs many independent cascades over one graph and
// summarises them.
//
// Run i of a sweep is seeded with simulation.DeriveSeed(base, i), so a sweep
// is reproducible from its base seed regardless of how many workers execute
// it or in which order runs complete.
package sweep

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/dd0wney/misinfo-cascade/pkg/graph"
	"github.com/dd0wney/misinfo-cascade/pkg/logging"
	"github.com/dd0wney/misinfo-cascade/pkg/metrics"
	"github.com/dd0wney/misinfo-cascade/pkg/parallel"
	"github.com/dd0wney/misinfo-cascade/pkg/simulation"
	"github.com/dd0wney/misinfo-cascade/pkg/validation"
)

// Options controls a sweep.
type Options struct {
	Runs     int
	Workers  int
	BaseSeed uint64

	// RandomInitial, when positive, replaces the configured seed set: every
	// run draws its own seeds from its derived seed.
	RandomInitial int

	Logger  logging.Logger
	Metrics *metrics.Registry
}

func (o Options) validate() error {
	return validation.NewConfigValidator("sweep").
		RangeInt("runs", o.Runs, 1, validation.MaxSweepRuns).
		NonNegative("workers", o.Workers).
		NonNegative("random_initial", o.RandomInitial).
		Validate()
}

// RunSummary is the outcome of one run of a sweep.
type RunSummary struct {
	Index         int    `json:"index"`
	Seed          uint64 `json:"seed"`
	RunID         string `json:"run_id"`
	FinalInfected int    `json:"final_infected"`
	Timesteps     int    `json:"timesteps"`
	Error         string `json:"error,omitempty"`

	totals []int
	final  []graph.NodeID
}

// Summary aggregates the completed runs of a sweep.
type Summary struct {
	SweepID   string        `json:"sweep_id"`
	BaseSeed  uint64        `json:"base_seed"`
	Requested int           `json:"requested"`
	Completed int           `json:"completed"`
	Failed    int           `json:"failed"`
	Cancelled bool          `json:"cancelled"`
	Duration  time.Duration `json:"duration_ns"`

	MeanFinalInfected float64 `json:"mean_final_infected"`
	MinFinalInfected  int     `json:"min_final_infected"`
	MaxFinalInfected  int     `json:"max_final_infected"`

	// MeanTotalInfected[t] is the mean infected count after timestep t,
	// starting at t=0. Runs that stopped early carry their last total forward.
	MeanTotalInfected []float64 `json:"mean_total_infected"`

	// InfectionFrequency is the share of completed runs in which each node
	// ended up infected. Nodes never infected are absent.
	InfectionFrequency map[graph.NodeID]float64 `json:"infection_frequency"`

	// Reachable bounds how many nodes any run could infect from the
	// configured seeds. Zero when seeds are drawn per run.
	Reachable int `json:"reachable,omitempty"`

	Runs []RunSummary `json:"runs"`
}

// Run executes opts.Runs independent cascades of cfg over g. Cancelling ctx
// stops further runs from starting; runs already executing complete and the
// partial summary is returned along with ctx.Err().
func Run(ctx context.Context, g *graph.Graph, cfg simulation.Config, opts Options) (*Summary, error) {
	if err := opts.validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", simulation.ErrInvalidConfig, err)
	}
	if opts.RandomInitial > 0 {
		cfg.InitialInfected = nil
		if opts.RandomInitial > len(g.Eligible()) {
			_, err := simulation.SampleInitial(g, opts.RandomInitial, simulation.NewRand(opts.BaseSeed))
			return nil, err
		}
	}
	// Fail fast on a config no run could execute.
	if _, err := cfg.Validate(g); err != nil {
		return nil, err
	}

	logger := opts.Logger
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	workers := validation.DefaultOrInt(opts.Workers, 1)

	sweepID := uuid.NewString()
	logger = logger.With(logging.Component("sweep"), logging.SweepID(sweepID))
	timer := logging.StartTimer(logger, "sweep",
		logging.Count(opts.Runs),
		logging.Int("workers", workers),
		logging.Seed(opts.BaseSeed))

	pool, err := parallel.NewWorkerPool(workers, parallel.WithLogger(logger))
	if err != nil {
		return nil, err
	}

	// Each task writes only its own slot.
	runs := make([]RunSummary, opts.Runs)
	submitted := 0
	var submitErr error

	for i := 0; i < opts.Runs; i++ {
		seed := simulation.DeriveSeed(opts.BaseSeed, i)
		runs[i] = RunSummary{Index: i, Seed: seed, Error: "run did not complete"}

		err := pool.Submit(ctx, func() {
			runs[i] = execute(g, cfg, opts, i, seed, logger)
		})
		if err != nil {
			submitErr = err
			break
		}
		submitted++
	}
	pool.Close()

	summary := summarise(g, cfg, opts, runs[:submitted])
	summary.SweepID = sweepID
	summary.Requested = opts.Runs
	summary.Cancelled = submitErr != nil
	summary.Duration = timer.Elapsed()

	outcome := metrics.OutcomeCompleted
	switch {
	case summary.Cancelled:
		outcome = metrics.OutcomeCancelled
	case summary.Failed > 0:
		outcome = metrics.OutcomeFailed
	}
	if opts.Metrics != nil {
		opts.Metrics.RecordSweep(outcome, summary.Completed, summary.Duration)
	}

	if submitErr != nil {
		timer.EndError(submitErr)
		if errors.Is(submitErr, context.Canceled) || errors.Is(submitErr, context.DeadlineExceeded) {
			return summary, submitErr
		}
		return summary, fmt.Errorf("submit run: %w", submitErr)
	}
	timer.End(logging.Int("completed", summary.Completed), logging.Int("failed", summary.Failed))
	return summary, nil
}

func execute(g *graph.Graph, cfg simulation.Config, opts Options, i int, seed uint64, logger logging.Logger) RunSummary {
	rs := RunSummary{Index: i, Seed: seed}

	if opts.RandomInitial > 0 {
		// A separate stream from the decider so seeding never shifts draws.
		seeds, err := simulation.SampleInitial(g, opts.RandomInitial, simulation.NewRand(^seed))
		if err != nil {
			rs.Error = err.Error()
			return rs
		}
		cfg.InitialInfected = seeds
	}

	engine, err := simulation.NewEngine(g, cfg, simulation.NewSeededDecider(seed),
		simulation.WithLogger(logger),
		simulation.WithMetrics(opts.Metrics))
	if err != nil {
		rs.Error = err.Error()
		return rs
	}
	rs.RunID = engine.RunID()

	res, err := engine.Run()
	if err != nil {
		rs.Error = err.Error()
		return rs
	}

	rs.FinalInfected = len(res.Final)
	rs.Timesteps = res.Timesteps()
	rs.final = res.Final
	rs.totals = make([]int, 0, len(res.Records)+1)
	for _, row := range res.TimeSeries() {
		rs.totals = append(rs.totals, row.TotalInfected)
	}
	return rs
}

func summarise(g *graph.Graph, cfg simulation.Config, opts Options, runs []RunSummary) *Summary {
	s := &Summary{
		BaseSeed:           opts.BaseSeed,
		MinFinalInfected:   math.MaxInt,
		MeanTotalInfected:  make([]float64, cfg.NumTimesteps+1),
		InfectionFrequency: make(map[graph.NodeID]float64),
		Runs:               runs,
	}
	if opts.RandomInitial == 0 {
		order, _ := graph.Reachable(g, cfg.InitialInfected)
		s.Reachable = len(order)
	}

	sum := 0
	for _, rs := range runs {
		if rs.Error != "" {
			s.Failed++
			continue
		}
		s.Completed++
		sum += rs.FinalInfected
		s.MinFinalInfected = min(s.MinFinalInfected, rs.FinalInfected)
		s.MaxFinalInfected = max(s.MaxFinalInfected, rs.FinalInfected)

		last := 0
		for t := range s.MeanTotalInfected {
			if t < len(rs.totals) {
				last = rs.totals[t]
			}
			s.MeanTotalInfected[t] += float64(last)
		}
		for _, id := range rs.final {
			s.InfectionFrequency[id]++
		}
	}

	if s.Completed == 0 {
		s.MinFinalInfected = 0
		return s
	}
	n := float64(s.Completed)
	s.MeanFinalInfected = float64(sum) / n
	for t := range s.MeanTotalInfected {
		s.MeanTotalInfected[t] /= n
	}
	for id := range s.InfectionFrequency {
		s.InfectionFrequency[id] /= n
	}
	return s
}
