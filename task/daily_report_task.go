package task

import (
	"context"
	"log/slog"
	"time"

	"github.com/arturonaredo/homebalance-go/engine"
	"github.com/arturonaredo/homebalance-go/forecast"
	"github.com/arturonaredo/homebalance-go/hours"
	"github.com/arturonaredo/homebalance-go/notify"
)

// NewDailyReportTask publishes an end-of-day summary over MQTT. A nil
// sender (no broker configured) turns the task into a no-op.
func NewDailyReportTask(logger *slog.Logger, eng *engine.Engine, prices *forecast.PriceService, sender *notify.Sender) func() {
	return func() {
		if sender == nil {
			return
		}
		logger.Debug("running daily report task...")

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		today := hours.FromNow().Date
		var min, max, sum float64
		count := 0
		for _, p := range prices.Prices(ctx) {
			if p.Hour.Date != today {
				continue
			}
			if count == 0 || p.Price < min {
				min = p.Price
			}
			if p.Price > max {
				max = p.Price
			}
			sum += p.Price
			count++
		}

		state := eng.State()
		report := map[string]any{
			"type":         "daily_report",
			"date":         today,
			"batterySoc":   state.BatterySoc,
			"targetSoc":    state.EffectiveTargetSoc,
			"period":       state.CurrentPeriod,
			"shedLoads":    state.ShedLoads,
			"activeAlerts": len(state.ActiveAlerts),
		}
		if count > 0 {
			report["priceMin"] = min
			report["priceMax"] = max
			report["priceAvg"] = sum / float64(count)
		}

		if !sender.SendReport(report) {
			logger.Warn("daily report not delivered")
			return
		}
		logger.Info("daily report task done")
	}
}
