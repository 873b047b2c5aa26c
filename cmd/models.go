package cmd

import (
	"fmt"

	"github.com/hubtools/space-restart/hub"
	"github.com/spf13/cobra"
)

func newModelsCmd(a *app) *cobra.Command {
	var filter hub.ModelFilter

	cmd := &cobra.Command{
		Use:   "models",
		Short: "List models available on the hub",
		Args:  noArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			models, err := a.restarter.ListModels(cmd.Context(), filter)
			if err != nil {
				return err
			}
			for _, m := range models {
				fmt.Fprintln(cmd.OutOrStdout(), m.ID)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&filter.Search, "search", "", "Only models whose id contains this string")
	cmd.Flags().StringVar(&filter.Author, "author", "", "Only models owned by this user or organization")
	cmd.Flags().IntVar(&filter.Limit, "limit", 10, "Maximum number of models to list")
	return cmd
}
