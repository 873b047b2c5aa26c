package cmd

import (
	"fmt"

	"github.com/hubtools/space-restart/build"
	"github.com/spf13/cobra"
)

func newVersionCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show the version",
		Args:  noArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "restart-space %s-%s\n", build.Version, build.ShortCommit())
		},
	}
}
