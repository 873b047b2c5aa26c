package cmd

import (
	"fmt"

	"github.com/hubtools/space-restart/core"
	"github.com/hubtools/space-restart/hub"
	"github.com/logrusorgru/aurora"
	"github.com/spf13/cobra"
)

func newStatusCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the runtime status of a space",
		Args:  noArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			runtime, err := a.restarter.Status(cmd.Context(), cmd.Flags())
			if err != nil {
				return err
			}
			printRuntime(cmd, runtime)
			return nil
		},
	}
	core.AddFlags(cmd.Flags())
	return cmd
}

func printRuntime(cmd *cobra.Command, runtime *hub.SpaceRuntime) {
	au := colorizer(cmd.OutOrStdout())
	out := cmd.OutOrStdout()

	fmt.Fprintf(out, "Stage:     %s\n", stageColor(au, runtime.Stage))
	fmt.Fprintf(out, "Hardware:  %s\n", valueOrNone(runtime.Hardware))
	if runtime.RequestedHardware != "" && runtime.RequestedHardware != runtime.Hardware {
		fmt.Fprintf(out, "Requested: %s\n", runtime.RequestedHardware)
	}
	if runtime.SleepTime != nil {
		fmt.Fprintf(out, "Sleep:     %s\n", runtime.SleepTime)
	}
	fmt.Fprintf(out, "Storage:   %s\n", valueOrNone(runtime.Storage))
}

func stageColor(au aurora.Aurora, stage hub.SpaceStage) aurora.Value {
	switch {
	case stage.IsError():
		return au.Red(stage)
	case stage == hub.StageRunning:
		return au.Green(stage)
	default:
		return au.Yellow(stage)
	}
}

func valueOrNone(s string) string {
	if s == "" {
		return "none"
	}
	return s
}
