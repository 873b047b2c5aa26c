package core

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/hubtools/space-restart/hub"
	"github.com/hubtools/space-restart/log"
	"github.com/hubtools/space-restart/telemetry"
	"github.com/hubtools/space-restart/types"
	"github.com/sirupsen/logrus"
	"github.com/spf13/pflag"
)

const (
	FlagSpace = "space"
	FlagToken = "token"
)

const (
	msgMissingSpace = "Please provide a space to restart."
	msgMissingToken = "Please provide an API token."
)

type Arguments struct {
	Space string
	Token string
}

type Restarter struct {
	Logger   *logrus.Entry
	Out      io.Writer
	Recorder types.Recorder

	// Endpoint is where authenticated clients are pointed.
	Endpoint  string
	NewClient HubClientFactory
	// Public serves unauthenticated calls such as listing models.
	Public HubClient
}

func NewRestarter(out io.Writer, recorder types.Recorder) (*Restarter, error) {
	public, err := NewHubClient(hub.DefaultEndpoint, "")
	if err != nil {
		return nil, fmt.Errorf("create public hub client: %w", err)
	}
	return &Restarter{
		Logger:    log.NewLogger("core"),
		Out:       out,
		Recorder:  recorder,
		Endpoint:  hub.DefaultEndpoint,
		NewClient: NewHubClient,
		Public:    public,
	}, nil
}

// AddFlags registers --space and --token. Both are optional at parse time.
func AddFlags(flags *pflag.FlagSet) {
	flags.String(FlagSpace, "", "The space to restart.")
	flags.String(FlagToken, "", "The Hugging Face API token.")
}

func (t *Restarter) ListModels(ctx context.Context, filter hub.ModelFilter) ([]hub.ModelInfo, error) {
	return telemetry.RecordValue(ctx, t.Recorder, "list_models", func(ctx context.Context) ([]hub.ModelInfo, error) {
		return t.Public.ListModels(ctx, filter)
	})
}

func (t *Restarter) ParseArguments(ctx context.Context, flags *pflag.FlagSet) (Arguments, error) {
	return telemetry.RecordValue(ctx, t.Recorder, "parse_arguments", func(ctx context.Context) (Arguments, error) {
		space, err := flags.GetString(FlagSpace)
		if err != nil {
			return Arguments{}, fmt.Errorf("read --%s: %w", FlagSpace, err)
		}
		token, err := flags.GetString(FlagToken)
		if err != nil {
			return Arguments{}, fmt.Errorf("read --%s: %w", FlagToken, err)
		}
		return Arguments{Space: space, Token: token}, nil
	})
}

// ValidateArguments prints a message and returns false when an argument is
// missing.
func (t *Restarter) ValidateArguments(ctx context.Context, args Arguments) bool {
	ok, _ := telemetry.RecordValue(ctx, t.Recorder, "validate_arguments", func(ctx context.Context) (bool, error) {
		if args.Space == "" {
			fmt.Fprintln(t.Out, msgMissingSpace)
			return false, nil
		}
		if args.Token == "" {
			fmt.Fprintln(t.Out, msgMissingToken)
			return false, nil
		}
		return true, nil
	})
	return ok
}

// CreateClient builds a handle for the configured endpoint. The token is not
// checked until the first request.
func (t *Restarter) CreateClient(ctx context.Context, token string) (HubClient, error) {
	return telemetry.RecordValue(ctx, t.Recorder, "create_hf_api", func(ctx context.Context) (HubClient, error) {
		return t.NewClient(t.Endpoint, token)
	})
}

func (t *Restarter) RestartSpace(ctx context.Context, client HubClient, space string) (*hub.SpaceRuntime, error) {
	return telemetry.RecordValue(ctx, t.Recorder, "restart_space", func(ctx context.Context) (*hub.SpaceRuntime, error) {
		t.Logger.Debugf("Restarting %s with factory reboot", space)
		return client.RestartSpace(ctx, space, true)
	})
}

func interrupted(ctx context.Context, err error) bool {
	return errors.Is(err, context.Canceled) || ctx.Err() != nil
}

// Run lists models, then parses, validates and restarts. Every step is
// recorded under a "main" span.
func (t *Restarter) Run(ctx context.Context, flags *pflag.FlagSet) error {
	return t.Recorder.Record(ctx, "main", func(ctx context.Context) error {
		if _, err := t.ListModels(ctx, hub.ModelFilter{Limit: 1}); err != nil {
			if interrupted(ctx, err) {
				return ErrInterrupted
			}
			t.Recorder.LogError(ctx, err.Error())
			return &RemoteError{Op: "list models", Err: err}
		}

		args, err := t.ParseArguments(ctx, flags)
		if err != nil {
			return err
		}

		if !t.ValidateArguments(ctx, args) {
			return ErrInvalidArguments
		}

		client, err := t.CreateClient(ctx, args.Token)
		if err != nil {
			return fmt.Errorf("create hub client: %w", err)
		}

		runtime, err := t.RestartSpace(ctx, client, args.Space)
		if err != nil {
			if interrupted(ctx, err) {
				return ErrInterrupted
			}
			t.Recorder.LogError(ctx, fmt.Sprintf("Error restarting space: %s", err))
			fmt.Fprintf(t.Out, "An error occurred while restarting the space: %s\n", err)
			if suggestion := hub.GetErrorSuggestion(err); suggestion != "" {
				fmt.Fprintln(t.Out, suggestion)
			}
			return &RemoteError{Op: "restart space", Err: err, Reported: true}
		}

		fmt.Fprintln(t.Out, runtime)
		return nil
	})
}
