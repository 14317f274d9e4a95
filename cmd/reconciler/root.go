package main

import (
	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reconciler",
		Short: "Reconcile a Google Hangouts export against Google Chat",
		Long: "reconciler checks that every message of a Google Chat takeout has a\n" +
			"counterpart in the Hangouts export of the same takeout, and lists the\n" +
			"Hangouts messages that never made it across.",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	cmd.AddCommand(
		newReconcileCmd(),
		newServeCmd(),
	)
	return cmd
}
