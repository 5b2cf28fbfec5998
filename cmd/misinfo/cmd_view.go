package main

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/dd0wney/misinfo-cascade/pkg/export"
)

func newViewCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "view TRACE",
		Short: "Step through a recorded run interactively",
		Long: `Open a trace written by "misinfo run --trace" and step through the
cascade one timestep at a time.

Keys: ←/→ step, g/G jump to start/end, ↑/↓ scroll nodes, q quit.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			trace, err := export.LoadTrace(args[0])
			if err != nil {
				return err
			}
			if trace.Result == nil {
				return fmt.Errorf("%s: trace has no result", args[0])
			}

			p := tea.NewProgram(newViewer(trace), tea.WithAltScreen())
			_, err = p.Run()
			return err
		},
	}
}
