package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dd0wney/misinfo-cascade/pkg/metrics"
	"github.com/dd0wney/misinfo-cascade/pkg/simulation"
	"github.com/dd0wney/misinfo-cascade/pkg/sweep"
)

func newSweepCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sweep GRAPH",
		Short: "Run many independent cascades and summarise them",
		Long: `Run many independent cascades over one graph in parallel.

Run i is seeded from the base seed and its index, so a sweep prints the same
summary for the same base seed whatever the worker count.

Example:
  misinfo sweep graph.json --random-initial 3 --runs 500 --workers 8 --base-seed 1`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if err := applySimulationFlags(cmd, &cfg.Simulation); err != nil {
				return err
			}
			flags := cmd.Flags()
			if flags.Changed("runs") {
				cfg.Sweep.Runs, _ = flags.GetInt("runs")
			}
			if flags.Changed("workers") {
				cfg.Sweep.Workers, _ = flags.GetInt("workers")
			}
			if flags.Changed("base-seed") {
				seed, _ := flags.GetUint64("base-seed")
				cfg.Sweep.BaseSeed = &seed
			}

			g, err := loadGraph(args[0], &cfg.Simulation, logger)
			if err != nil {
				return err
			}

			simCfg := simulation.Config{
				InitialInfected:   cfg.Simulation.Seeds(g),
				NumTimesteps:      cfg.Simulation.NumTimesteps,
				StopOnConvergence: cfg.Simulation.StopOnConvergence,
			}

			base := cfg.Simulation.ResolveSeed()
			if cfg.Sweep.BaseSeed != nil {
				base = *cfg.Sweep.BaseSeed
			}

			ctx, stop := signalContext(cmd.Context())
			defer stop()

			summary, err := sweep.Run(ctx, g, simCfg, sweep.Options{
				Runs:          cfg.Sweep.Runs,
				Workers:       cfg.Sweep.Workers,
				BaseSeed:      base,
				RandomInitial: cfg.Simulation.RandomInitial,
				Logger:        logger,
				Metrics:       metrics.NewRegistry(),
			})
			if summary == nil {
				return err
			}

			if jsonOut, _ := flags.GetBool("json"); jsonOut {
				if werr := writeJSON(cmd.OutOrStdout(), summary); werr != nil {
					return werr
				}
				return err
			}

			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "sweep %s  base seed %d\n", summary.SweepID, summary.BaseSeed)
			fmt.Fprintf(w, "runs: %d requested, %d completed, %d failed\n", summary.Requested, summary.Completed, summary.Failed)
			if summary.Cancelled {
				fmt.Fprintln(w, "sweep cancelled before all runs started")
			}
			fmt.Fprintf(w, "final infected: mean %.2f  min %d  max %d\n",
				summary.MeanFinalInfected, summary.MinFinalInfected, summary.MaxFinalInfected)
			if summary.Reachable > 0 {
				fmt.Fprintf(w, "reachable from seeds: %d of %d\n", summary.Reachable, g.Len())
			}
			for t, mean := range summary.MeanTotalInfected {
				fmt.Fprintf(w, "  t=%-4d %.2f\n", t, mean)
			}
			return err
		},
	}

	addSimulationFlags(cmd)
	cmd.Flags().Int("runs", 0, "Number of runs (default from config)")
	cmd.Flags().Int("workers", 0, "Parallel workers (default from config)")
	cmd.Flags().Uint64("base-seed", 0, "Base seed the per-run seeds derive from")
	return cmd
}
