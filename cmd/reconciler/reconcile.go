package main

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/MikeSquared-Agency/reconciler/internal/audit"
	"github.com/MikeSquared-Agency/reconciler/internal/config"
	"github.com/MikeSquared-Agency/reconciler/internal/report"
)

func newReconcileCmd() *cobra.Command {
	var (
		asJSON bool
		prefix string
		limit  int
	)

	cmd := &cobra.Command{
		Use:   "reconcile [takeout-dir]",
		Short: "Run one reconciliation and print the report",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			setupLogging(cfg.LogLevel, cmd.ErrOrStderr())

			if len(args) == 1 {
				cfg.TakeoutDir = args[0]
			}
			if cmd.Flags().Changed("group-prefix") {
				cfg.GroupPrefix = prefix
			}
			if cmd.Flags().Changed("limit") {
				cfg.UnmatchedLimit = limit
			}

			ctx := cmd.Context()
			d, err := connect(ctx, cfg, slog.Default())
			if err != nil {
				return err
			}
			defer d.Close()

			runner := audit.NewRunner(audit.Config{
				TakeoutDir:  cfg.TakeoutDir,
				GroupPrefix: cfg.GroupPrefix,
			}, d.sinks(), slog.Default())

			run, err := runner.Run(ctx)
			if err != nil {
				return err
			}
			d.flush(ctx)

			if asJSON {
				return report.WriteJSON(cmd.OutOrStdout(), run)
			}
			return report.WriteText(cmd.OutOrStdout(), run, cfg.UnmatchedLimit)
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "output the full run as JSON")
	cmd.Flags().StringVar(&prefix, "group-prefix", "", "only reconcile Chat groups whose name starts with this (e.g. DM)")
	cmd.Flags().IntVar(&limit, "limit", 20, "unmatched messages to list, -1 for all")
	return cmd
}
