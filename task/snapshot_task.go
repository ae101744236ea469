package task

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/arturonaredo/homebalance-go/database"
	"github.com/arturonaredo/homebalance-go/engine"
	"github.com/arturonaredo/homebalance-go/hours"
)

// NewSnapshotTask stores an hourly copy of the system state for the
// dashboard history views.
func NewSnapshotTask(logger *slog.Logger, db *database.Database, eng *engine.Engine) func() {
	return func() {
		logger.Debug("running snapshot task...")

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		state := eng.State()
		if state.UpdatedAt.IsZero() {
			logger.Info("no state refresh yet, skipping snapshot")
			return
		}

		data, err := json.Marshal(state)
		if err != nil {
			logger.Error("snapshot task error, marshalling state", slog.Any("error", err))
			return
		}

		// The snapshot describes the hour that just completed.
		if err := db.SaveStateHistory(ctx, database.StateHistoryRow{
			When: hours.FromNow().Sub(1),
			Data: data,
		}); err != nil {
			logger.Error("snapshot task error", slog.Any("error", err))
		}
	}
}
