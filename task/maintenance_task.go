package task

import (
	"context"
	"log/slog"
	"time"

	"github.com/arturonaredo/homebalance-go/config"
	"github.com/arturonaredo/homebalance-go/database"
)

// Alert history is capped by count rather than age.
const maxAlertHistoryEntries = 100

func NewMaintenanceTask(logger *slog.Logger, db *database.Database, cnfg *config.AppConfig) func() {
	return func() {
		logger.Debug("running maintenance task...")

		ctx, cancel := context.WithTimeout(context.Background(), 1*time.Minute)
		defer cancel()

		if err := db.Backup(ctx); err != nil {
			logger.Error("database backup error", slog.Any("error", err))
		}

		if err := db.PurgeBackups(ctx, cnfg.Database.GetBackupRetentionDays()); err != nil {
			logger.Error("backup maintenance error", slog.Any("error", err))
		}

		if err := db.PurgeLog(ctx, cnfg.Logging.GetDbMaxEntries()); err != nil {
			logger.Error("log maintenance error", slog.Any("error", err))
		}

		if err := db.PurgeEnergyPrice(ctx, cnfg.Database.GetDataRetentionDays()); err != nil {
			logger.Error("energy_price maintenance error", slog.Any("error", err))
		}

		if err := db.PurgeSolarForecast(ctx, cnfg.Database.GetDataRetentionDays()); err != nil {
			logger.Error("solar_forecast maintenance error", slog.Any("error", err))
		}

		if err := db.PurgeStateHistory(ctx, cnfg.Database.GetDataRetentionDays()); err != nil {
			logger.Error("state_history maintenance error", slog.Any("error", err))
		}

		if err := db.PurgeAlertHistory(ctx, maxAlertHistoryEntries); err != nil {
			logger.Error("alert_history maintenance error", slog.Any("error", err))
		}

		if err := db.PurgePendingActions(ctx); err != nil {
			logger.Error("pending_action maintenance error", slog.Any("error", err))
		}

		logger.Info("maintenance task done")
	}
}
