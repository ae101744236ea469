package task

import (
	"context"
	"log/slog"
	"time"

	"github.com/arturonaredo/homebalance-go/forecast"
	"github.com/arturonaredo/homebalance-go/hours"
)

func NewPriceForecastTask(logger *slog.Logger, prices *forecast.PriceService) func() {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if !prices.PriceForHour(ctx, hours.FromNow()).IsValid() {
		logger.Info("no price for the current hour, fetching immediately")
		runPriceForecastTask(logger, prices)
	}

	return func() { runPriceForecastTask(logger, prices) }
}

func runPriceForecastTask(logger *slog.Logger, prices *forecast.PriceService) {
	logger.Debug("running price forecast task...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := prices.Refresh(ctx); err != nil {
		logger.Error("price forecast task error", slog.Any("error", err))
		return
	}

	logger.Info("price forecast task done")
}
