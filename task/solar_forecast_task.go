package task

import (
	"context"
	"log/slog"
	"time"

	"github.com/arturonaredo/homebalance-go/forecast"
)

func NewSolarForecastTask(logger *slog.Logger, solar *forecast.SolarService) func() {
	return func() {
		logger.Debug("running solar forecast task...")

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := solar.Refresh(ctx); err != nil {
			logger.Error("solar forecast task error", slog.Any("error", err))
			return
		}

		logger.Info("solar forecast task done")
	}
}
