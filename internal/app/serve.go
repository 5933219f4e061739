package app

import (
	"context"
	"os/signal"
	"syscall"

	apperrors "github.com/agbru/heatsolve/internal/errors"
	"github.com/agbru/heatsolve/internal/logging"
	"github.com/agbru/heatsolve/internal/server"
)

// runServe serves runs over WebSocket until SIGINT or SIGTERM. The run
// timeout does not apply; clients cancel their own runs.
func (a *Application) runServe(ctx context.Context) int {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	orch := a.newOrchestrator(a.Logger)
	srv := server.New(a.Config.Addr, orch, a.Metrics, server.WithLogger(a.Logger))
	if err := srv.Run(ctx); err != nil {
		a.Logger.Error("server failed", err, logging.String("addr", a.Config.Addr))
		return apperrors.ExitErrorGeneric
	}
	return apperrors.ExitSuccess
}
