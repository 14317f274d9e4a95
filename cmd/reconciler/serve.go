package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/MikeSquared-Agency/reconciler/internal/api"
	"github.com/MikeSquared-Agency/reconciler/internal/audit"
	"github.com/MikeSquared-Agency/reconciler/internal/config"
	"github.com/MikeSquared-Agency/reconciler/internal/hermes"
	"github.com/MikeSquared-Agency/reconciler/internal/report"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the reconciliation API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			setupLogging(cfg.LogLevel, os.Stdout)

			slog.Info("reconciler starting", "port", cfg.Port)

			ctx := cmd.Context()
			d, err := connect(ctx, cfg, slog.Default())
			if err != nil {
				return err
			}
			defer d.Close()

			run := func(ctx context.Context, c audit.Config) (*report.Run, error) {
				return audit.NewRunner(c, d.sinks(), slog.Default()).Run(ctx)
			}
			var runs api.RunReader
			if d.store != nil {
				runs = d.store
			}
			srv := api.NewServer(cfg.Port, cfg.APIToken, audit.Config{
				TakeoutDir:  cfg.TakeoutDir,
				GroupPrefix: cfg.GroupPrefix,
			}, run, runs)

			if d.bus != nil {
				if err := d.bus.Subscribe(hermes.SubjectRunRequested, srv.HandleRunRequested); err != nil {
					return err
				}
			}

			errCh := make(chan error, 1)
			go func() {
				errCh <- srv.Start()
			}()

			slog.Info("reconciler ready", "port", cfg.Port)

			select {
			case err := <-errCh:
				return err
			case <-ctx.Done():
				slog.Info("shutting down")
			}
			return nil
		},
	}
}
