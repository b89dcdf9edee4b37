package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/vk/webcont/internal/ctxlog"
)

const shutdownTimeout = 5 * time.Second

// Run starts the diagnostics server and the reaper and blocks until ctx is
// cancelled. On the way out every remaining continuation is invalidated.
func (a *App) Run(ctx context.Context) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	a.logger.Debug("App.Run method started.")

	if err := a.startDiagnosticsServer(ctx); err != nil {
		return err
	}
	a.reaper.Start(ctx)
	a.logger.Info("🚀 Continuations service running.")

	<-ctx.Done()
	a.logger.Info("🏁 Shutdown requested.", "cause", context.Cause(ctx))

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	return a.shutdown(shutdownCtx)
}

func (a *App) shutdown(ctx context.Context) error {
	var errs []error
	a.reaper.Stop()
	if err := a.closeDiagnosticsServer(ctx); err != nil {
		errs = append(errs, err)
	}

	before := a.store.Stats(ctx).Continuations
	if err := a.store.Close(ctx); err != nil {
		errs = append(errs, fmt.Errorf("disposing continuations: %w", err))
	}
	a.logger.Debug("Continuation store closed.", "disposed", before)

	if a.notifier != nil {
		if err := a.notifier.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	a.logger.Debug("App.Run method finished.")
	return errors.Join(errs...)
}
