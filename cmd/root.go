package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/hubtools/space-restart/config"
	"github.com/hubtools/space-restart/core"
	"github.com/hubtools/space-restart/log"
	"github.com/hubtools/space-restart/telemetry"
	"github.com/hubtools/space-restart/types"
	"github.com/logrusorgru/aurora"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
)

// envFileVar points at the dotenv file read on startup.
const envFileVar = "RESTART_SPACE_ENV_FILE"

const (
	exitOK          = 0
	exitRemote      = 1
	exitUsage       = 2
	exitConfig      = 3
	exitInterrupted = 130 // 128 + SIGINT(2)
)

// Session is the part of telemetry.Session the commands rely on.
type Session interface {
	types.Recorder
	End(ctx context.Context, state telemetry.EndState) error
}

var (
	startSession = func(ctx context.Context, cfg *config.Config) (context.Context, Session, error) {
		ctx, s, err := telemetry.Start(ctx, telemetry.Options{
			APIKey:    cfg.AgentOpsAPIKey,
			Endpoint:  cfg.AgentOpsEndpoint,
			Exporter:  cfg.TraceExporter,
			SentryDSN: cfg.SentryDSN,
		})
		if err != nil {
			return ctx, nil, err
		}
		return ctx, s, nil
	}
	newRestarter = core.NewRestarter
)

type usageError struct {
	err error
}

func (e *usageError) Error() string { return e.err.Error() }
func (e *usageError) Unwrap() error { return e.err }

func noArgs(cmd *cobra.Command, args []string) error {
	if err := cobra.NoArgs(cmd, args); err != nil {
		return &usageError{err: err}
	}
	return nil
}

type app struct {
	out       io.Writer
	restarter *core.Restarter
}

func newRootCmd(a *app) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "restart-space",
		Short:         "Restart a space in the Hugging Face Hub.",
		Args:          noArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.restarter.Run(cmd.Context(), cmd.Flags())
		},
	}
	core.AddFlags(rootCmd.Flags())
	rootCmd.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return &usageError{err: err}
	})

	rootCmd.AddCommand(newRestartCmd(a))
	rootCmd.AddCommand(newStatusCmd(a))
	rootCmd.AddCommand(newModelsCmd(a))
	rootCmd.AddCommand(newVersionCmd(a))
	return rootCmd
}

func Execute() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	envFile, ok := os.LookupEnv(envFileVar)
	if !ok {
		envFile = config.DefaultEnvFile
	}
	cfg, err := config.Load(envFile)
	if err != nil {
		printError(stderr, err)
		return exitConfig
	}

	log.SetOutput(stderr)
	log.AddSecret(cfg.AgentOpsAPIKey)
	logger := log.NewLogger("cmd")
	if err := log.SetLevel(cfg.LogLevel); err != nil {
		logger.Warnf("Ignoring LOG_LEVEL: %s", err)
	}
	if cfg.EnvFile != "" {
		logger.Debugf("Loaded %s", cfg.EnvFile)
	}

	ctx, cancel := newContext()
	defer cancel()

	ctx, session, err := startSession(ctx, cfg)
	if err != nil {
		printError(stderr, fmt.Errorf("start telemetry session: %w", err))
		return exitConfig
	}

	err = execute(ctx, session, args, stdout, stderr)

	if endErr := session.End(ctx, endState(err)); endErr != nil {
		logger.Debugf("End session: %s", endErr)
	}

	return report(err, stderr)
}

func execute(ctx context.Context, session Session, args []string, stdout, stderr io.Writer) error {
	restarter, err := newRestarter(stdout, session)
	if err != nil {
		return err
	}

	rootCmd := newRootCmd(&app{out: stdout, restarter: restarter})
	rootCmd.SetArgs(args)
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)
	return rootCmd.ExecuteContext(ctx)
}

func endState(err error) telemetry.EndState {
	switch {
	case err == nil:
		return telemetry.Success
	case errors.Is(err, core.ErrInterrupted), errors.Is(err, context.Canceled):
		return telemetry.Indeterminate
	default:
		return telemetry.Fail
	}
}

func exitCode(err error) int {
	var uerr *usageError
	var rerr *core.RemoteError
	switch {
	case err == nil:
		return exitOK
	case errors.Is(err, core.ErrInterrupted), errors.Is(err, context.Canceled):
		return exitInterrupted
	case errors.Is(err, core.ErrInvalidArguments), errors.As(err, &uerr):
		return exitUsage
	case errors.As(err, &rerr):
		return exitRemote
	case errors.Is(err, config.ErrMissingAPIKey):
		return exitConfig
	default:
		return exitRemote
	}
}

// report prints err unless the user has already seen it and returns the
// exit code for it.
func report(err error, stderr io.Writer) int {
	code := exitCode(err)

	var rerr *core.RemoteError
	switch {
	case err == nil:
	case code == exitInterrupted:
	case errors.Is(err, core.ErrInvalidArguments):
	case errors.As(err, &rerr) && rerr.Reported:
	default:
		printError(stderr, err)
	}
	return code
}

func printError(w io.Writer, err error) {
	fmt.Fprintln(w, colorizer(w).Red("ERROR:"), err)
}

func colorizer(w io.Writer) aurora.Aurora {
	f, ok := w.(*os.File)
	return aurora.NewAurora(ok && isatty.IsTerminal(f.Fd()))
}

func newContext() (context.Context, func()) {
	ctx, cancel := context.WithCancel(context.Background())
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt)
	_cancel := func() {
		signal.Stop(c)
		cancel()
	}

	// cancel ctx when SIGINT
	go func() {
		select {
		case <-c:
			cancel()
		case <-ctx.Done():
		}
	}()

	return ctx, _cancel
}
