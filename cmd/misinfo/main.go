// Command misinfo simulates misinformation cascades over social graphs.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/dd0wney/misinfo-cascade/pkg/config"
	"github.com/dd0wney/misinfo-cascade/pkg/graph"
	"github.com/dd0wney/misinfo-cascade/pkg/loader"
	"github.com/dd0wney/misinfo-cascade/pkg/logging"
)

var (
	version = "0.1.0-dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "misinfo",
		Short: "Misinformation cascade simulator",
		Long: `misinfo simulates how a piece of misinformation spreads through a
social graph under an independent-cascade model.

Graphs are node-link documents (JSON or YAML). Every run is reproducible
from its seed.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags
	rootCmd.PersistentFlags().String("config", "", "YAML config file (defaults apply when empty)")
	rootCmd.PersistentFlags().String("log-level", "", "Override logging.level")
	rootCmd.PersistentFlags().Bool("json", false, "Output as JSON")

	rootCmd.AddCommand(
		newVersionCmd(),
		newRunCmd(),
		newSweepCmd(),
		newServeCmd(),
		newViewCmd(),
	)
	return rootCmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonOut, _ := cmd.Flags().GetBool("json")
			if jsonOut {
				return writeJSON(cmd.OutOrStdout(), map[string]string{
					"version": version,
					"commit":  commit,
					"date":    date,
				})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "misinfo version %s (commit: %s, built: %s)\n", version, commit, date)
			return nil
		},
	}
}

// loadConfig reads --config and applies the global overrides.
func loadConfig(cmd *cobra.Command) (*config.Config, logging.Logger, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return nil, nil, err
	}
	if level, _ := cmd.Flags().GetString("log-level"); level != "" {
		cfg.Logging.Level = level
	}
	return cfg, cfg.Logging.Logger(cmd.ErrOrStderr()), nil
}

// loadGraph reads a node-link document, resolving missing attributes from
// the simulation defaults.
func loadGraph(path string, sim *config.SimulationConfig, logger logging.Logger) (*graph.Graph, error) {
	g, err := loader.Load(path, sim.Defaults())
	if err != nil {
		return nil, err
	}
	logger.Info("graph loaded",
		logging.Path(path),
		logging.Int("nodes", g.Len()),
		logging.Int("arcs", g.ArcCount()))
	return g, nil
}

// signalContext is cancelled on SIGINT or SIGTERM.
func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
