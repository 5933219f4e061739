// Package app wires configuration, the orchestrator and the front ends
// (CLI, sweep, dashboard and server) into the heatsolve command.
package app

import (
	"context"
	"errors"
	"flag"
	"io"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"

	"github.com/agbru/heatsolve/internal/config"
	apperrors "github.com/agbru/heatsolve/internal/errors"
	"github.com/agbru/heatsolve/internal/logging"
	"github.com/agbru/heatsolve/internal/metrics"
	"github.com/agbru/heatsolve/internal/orchestration"
	"github.com/agbru/heatsolve/internal/tui"
	"github.com/agbru/heatsolve/internal/ui"
)

// Application represents the heatsolve application instance.
type Application struct {
	Config    config.AppConfig
	ErrWriter io.Writer
	Metrics   *metrics.SolverMetrics
	Logger    logging.Logger
}

// AppOption configures an Application during construction.
type AppOption func(*Application)

// WithLogger replaces the zerolog console logger.
func WithLogger(l logging.Logger) AppOption {
	return func(a *Application) { a.Logger = l }
}

// New creates a new Application instance by parsing command-line arguments.
// args[0] is the program name.
func New(args []string, errWriter io.Writer, opts ...AppOption) (*Application, error) {
	programName := "heatsolve"
	var cmdArgs []string
	if len(args) > 0 {
		programName = args[0]
		cmdArgs = args[1:]
	}

	cfg, err := config.ParseConfig(programName, cmdArgs, errWriter)
	if err != nil {
		return nil, err
	}

	app := &Application{
		Config:    cfg,
		ErrWriter: errWriter,
		Metrics:   metrics.NewSolverMetrics(),
	}
	for _, opt := range opts {
		opt(app)
	}
	if app.Logger == nil {
		app.Logger = logging.NewZerologAdapter(zerolog.New(zerolog.ConsoleWriter{Out: errWriter}).With().Timestamp().Logger())
	}
	return app, nil
}

// Run executes the application based on the configured mode and returns the
// process exit code.
func (a *Application) Run(ctx context.Context, out io.Writer) int {
	zerolog.SetGlobalLevel(a.logLevel())
	ui.InitTheme(a.Config.NoColor)

	switch a.Config.Mode {
	case config.ModeServe:
		return a.runServe(ctx)
	case config.ModeSweep:
		return a.runSweep(ctx, out)
	case config.ModeTUI:
		return a.runTUI(ctx)
	default:
		return a.runSimulations(ctx, out)
	}
}

// logLevel keeps the console quiet during interactive runs. The server logs
// at info level since its log is the only trace of client activity.
func (a *Application) logLevel() zerolog.Level {
	switch {
	case a.Config.Verbose:
		return zerolog.DebugLevel
	case a.Config.Mode == config.ModeServe:
		return zerolog.InfoLevel
	default:
		return zerolog.WarnLevel
	}
}

// newOrchestrator builds the orchestrator shared by every mode.
func (a *Application) newOrchestrator(logger logging.Logger) *orchestration.Orchestrator {
	return orchestration.New(
		orchestration.WithFlushInterval(a.Config.FlushInterval),
		orchestration.WithLogger(logger),
		orchestration.WithRecorder(a.Metrics),
	)
}

// lifecycle bounds ctx with the configured timeout and with SIGINT/SIGTERM.
func (a *Application) lifecycle(ctx context.Context) (context.Context, context.CancelFunc) {
	ctx, cancelTimeout := context.WithTimeout(ctx, a.Config.Timeout)
	ctx, stopSignals := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	return ctx, func() {
		stopSignals()
		cancelTimeout()
	}
}

// runTUI launches the interactive dashboard. Logging is disabled while the
// dashboard owns the terminal.
func (a *Application) runTUI(ctx context.Context) int {
	ctx, cancel := a.lifecycle(ctx)
	defer cancel()

	orch := a.newOrchestrator(logging.NopLogger{})
	return tui.Run(ctx, orch, a.Config.Simulations(), a.Config, Version)
}

// IsHelpError checks if the error is a help flag error (--help was used).
func IsHelpError(err error) bool {
	return errors.Is(err, flag.ErrHelp)
}

// ExitCodeForError maps a construction error to an exit code.
func ExitCodeForError(err error) int {
	switch {
	case err == nil, IsHelpError(err):
		return apperrors.ExitSuccess
	default:
		return apperrors.ExitErrorConfig
	}
}
