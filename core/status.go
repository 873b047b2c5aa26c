package core

import (
	"context"

	"github.com/hubtools/space-restart/hub"
	"github.com/hubtools/space-restart/telemetry"
	"github.com/spf13/pflag"
)

// Status fetches the current runtime of the space named by the flags.
func (t *Restarter) Status(ctx context.Context, flags *pflag.FlagSet) (*hub.SpaceRuntime, error) {
	var runtime *hub.SpaceRuntime
	err := t.Recorder.Record(ctx, "status", func(ctx context.Context) error {
		args, err := t.ParseArguments(ctx, flags)
		if err != nil {
			return err
		}
		if !t.ValidateArguments(ctx, args) {
			return ErrInvalidArguments
		}
		client, err := t.CreateClient(ctx, args.Token)
		if err != nil {
			return err
		}
		runtime, err = telemetry.RecordValue(ctx, t.Recorder, "get_space_runtime", func(ctx context.Context) (*hub.SpaceRuntime, error) {
			return client.GetSpaceRuntime(ctx, args.Space)
		})
		if err != nil {
			if interrupted(ctx, err) {
				return ErrInterrupted
			}
			t.Recorder.LogError(ctx, err.Error())
			return &RemoteError{Op: "get space runtime", Err: err}
		}
		return nil
	})
	return runtime, err
}
