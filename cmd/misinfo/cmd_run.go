package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/dd0wney/misinfo-cascade/pkg/config"
	"github.com/dd0wney/misinfo-cascade/pkg/export"
	"github.com/dd0wney/misinfo-cascade/pkg/graph"
	"github.com/dd0wney/misinfo-cascade/pkg/logging"
	"github.com/dd0wney/misinfo-cascade/pkg/metrics"
	"github.com/dd0wney/misinfo-cascade/pkg/simulation"
)

// runOutput is the JSON form of a finished run.
type runOutput struct {
	RunID      string                     `json:"run_id"`
	Seed       uint64                     `json:"seed"`
	Nodes      int                        `json:"nodes"`
	Arcs       int                        `json:"arcs"`
	Converged  bool                       `json:"converged"`
	Final      []graph.NodeID             `json:"final_infected"`
	TimeSeries []simulation.TimeSeriesRow `json:"time_series"`
}

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run GRAPH",
		Short: "Run one cascade over a graph file",
		Long: `Run one cascade over a node-link graph and print the infection curve.

Example:
  misinfo run graph.json --initial 0,4 --steps 20 --seed 7 --out metrics.zip --trace run.json.sz`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if err := applySimulationFlags(cmd, &cfg.Simulation); err != nil {
				return err
			}

			g, err := loadGraph(args[0], &cfg.Simulation, logger)
			if err != nil {
				return err
			}

			res, seed, err := runOnce(g, &cfg.Simulation, logger, metrics.NewRegistry())
			if err != nil {
				return err
			}

			if out, _ := cmd.Flags().GetString("out"); out != "" {
				if err := export.SaveZip(out, g, res); err != nil {
					return err
				}
				logger.Info("metrics written", logging.Path(out))
			}
			if tracePath, _ := cmd.Flags().GetString("trace"); tracePath != "" {
				if err := export.SaveTrace(tracePath, export.NewTrace(g, res, &seed)); err != nil {
					return err
				}
				logger.Info("trace written", logging.Path(tracePath))
			}

			if jsonOut, _ := cmd.Flags().GetBool("json"); jsonOut {
				return writeJSON(cmd.OutOrStdout(), runOutput{
					RunID:      res.RunID,
					Seed:       seed,
					Nodes:      g.Len(),
					Arcs:       g.ArcCount(),
					Converged:  res.Converged,
					Final:      res.FinalInfected(),
					TimeSeries: res.TimeSeries(),
				})
			}

			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "run %s  seed %d  nodes %d  arcs %d\n", res.RunID, seed, g.Len(), g.ArcCount())
			curve := table.New().
				Border(lipgloss.NormalBorder()).
				Headers("timestep", "newly_infected", "total_infected")
			for _, row := range res.TimeSeries() {
				curve.Row(strconv.Itoa(row.Timestep), strconv.Itoa(row.NewlyInfected), strconv.Itoa(row.TotalInfected))
			}
			fmt.Fprintln(w, curve.Render())
			fmt.Fprintf(w, "final infected: %d of %d\n", len(res.Final), g.Len())
			return nil
		},
	}

	addSimulationFlags(cmd)
	cmd.Flags().String("out", "", "Write the CSV metrics zip to this path")
	cmd.Flags().String("trace", "", "Write a replayable trace (.json, or .json.sz for snappy)")
	return cmd
}

// runOnce runs a single engine to completion and returns the seed that
// drove it.
func runOnce(g *graph.Graph, sim *config.SimulationConfig, logger logging.Logger, reg *metrics.Registry) (*simulation.Result, uint64, error) {
	cfg, err := sim.EngineConfig(g)
	if err != nil {
		return nil, 0, err
	}
	seed := sim.ResolveSeed()

	engine, err := simulation.NewEngine(g, cfg, simulation.NewSeededDecider(seed),
		simulation.WithLogger(logger),
		simulation.WithMetrics(reg))
	if err != nil {
		return nil, 0, err
	}
	res, err := engine.Run()
	if err != nil {
		return nil, 0, err
	}
	return res, seed, nil
}

func addSimulationFlags(cmd *cobra.Command) {
	cmd.Flags().StringSlice("initial", nil, "Initially infected node ids (comma separated)")
	cmd.Flags().Int("steps", 0, "Number of timesteps")
	cmd.Flags().Uint64("seed", 0, "Random seed")
	cmd.Flags().Int("random-initial", 0, "Draw this many random initial nodes instead of --initial")
	cmd.Flags().Bool("stop-on-convergence", false, "Stop early once a timestep infects nobody")
	cmd.Flags().Bool("record-exposures", false, "Record every exposure (run only)")
}

// applySimulationFlags overrides the config with flags the user set, then
// revalidates it.
func applySimulationFlags(cmd *cobra.Command, sim *config.SimulationConfig) error {
	flags := cmd.Flags()
	if flags.Changed("initial") {
		ids, _ := flags.GetStringSlice("initial")
		sim.InitialInfected = make([]string, 0, len(ids))
		for _, id := range ids {
			if id = strings.TrimSpace(id); id != "" {
				sim.InitialInfected = append(sim.InitialInfected, id)
			}
		}
	}
	if flags.Changed("steps") {
		sim.NumTimesteps, _ = flags.GetInt("steps")
	}
	if flags.Changed("seed") {
		seed, _ := flags.GetUint64("seed")
		sim.Seed = &seed
	}
	if flags.Changed("random-initial") {
		sim.RandomInitial, _ = flags.GetInt("random-initial")
	}
	if flags.Changed("stop-on-convergence") {
		sim.StopOnConvergence, _ = flags.GetBool("stop-on-convergence")
	}
	if flags.Changed("record-exposures") {
		sim.RecordExposures, _ = flags.GetBool("record-exposures")
	}
	return sim.Validate()
}
