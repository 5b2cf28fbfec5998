package main

import (
	"github.com/spf13/cobra"

	"github.com/dd0wney/misinfo-cascade/pkg/api"
	"github.com/dd0wney/misinfo-cascade/pkg/logging"
	"github.com/dd0wney/misinfo-cascade/pkg/metrics"
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the simulation HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
				cfg.Server.Addr = addr
			}

			logger.Info("misinfo server starting",
				logging.String("version", version),
				logging.String("addr", cfg.Server.Addr))

			ctx, stop := signalContext(cmd.Context())
			defer stop()

			server := api.NewServer(cfg, logger, metrics.NewRegistry(), version)
			if err := server.ListenAndServe(ctx); err != nil {
				logger.Error("server error", logging.Error(err))
				return err
			}
			logger.Info("server exited")
			return nil
		},
	}
	cmd.Flags().String("addr", "", "Listen address (overrides server.addr)")
	return cmd
}
