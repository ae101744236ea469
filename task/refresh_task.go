package task

import (
	"context"
	"log/slog"
	"time"

	"github.com/arturonaredo/homebalance-go/engine"
)

// NewRefreshTask runs one state refresh cycle. An immediate run at
// startup populates the state before the first scheduled tick.
func NewRefreshTask(logger *slog.Logger, eng *engine.Engine) func() {
	run := func() {
		logger.Debug("running refresh cycle...")

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		eng.Refresh(ctx)
	}

	run()
	return run
}

// NewBalanceTask runs one load shed/restore pass.
func NewBalanceTask(logger *slog.Logger, eng *engine.Engine) func() {
	return func() {
		logger.Debug("running balance cycle...")

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if applied := eng.Balance(ctx); len(applied) > 0 {
			logger.Info("balance cycle applied actions", slog.Int("count", len(applied)))
		}
	}
}
