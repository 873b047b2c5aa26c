package cmd

import (
	"github.com/hubtools/space-restart/core"
	"github.com/spf13/cobra"
)

// newRestartCmd is the explicit form of the root command.
func newRestartCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "restart",
		Short: "Factory restart a space",
		Args:  noArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.restarter.Run(cmd.Context(), cmd.Flags())
		},
	}
	core.AddFlags(cmd.Flags())
	return cmd
}
