package task

import (
	"context"
	"log/slog"
	"time"

	"github.com/arturonaredo/homebalance-go/database"
	"github.com/arturonaredo/homebalance-go/engine"
)

// NewPendingActionsTask fires due one-shot actions. The rows live in
// the database, so actions scheduled before a restart still fire.
func NewPendingActionsTask(logger *slog.Logger, db *database.Database, eng *engine.Engine) func() {
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		actions, err := db.GetPendingActions(ctx)
		if err != nil {
			logger.Error("pending actions task error", slog.Any("error", err))
			return
		}

		now := time.Now()
		for _, a := range actions {
			if a.RunAt.After(now) {
				break // ordered by run_at, nothing else is due
			}

			logger.Info("running pending action",
				slog.String("kind", a.Kind),
				slog.Time("runAt", a.RunAt))

			switch a.Kind {
			case database.PendingActionClearOverride:
				if err := eng.ClearOverride(ctx); err != nil {
					logger.Error("failed to clear override", slog.Any("error", err))
					continue
				}
			default:
				logger.Warn("unknown pending action kind", slog.String("kind", a.Kind))
			}

			if err := db.MarkPendingActionDone(ctx, a.Id); err != nil {
				logger.Error("failed to mark pending action done", slog.Any("error", err))
			}
		}
	}
}
