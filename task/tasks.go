package task

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/robfig/cron/v3"

	"github.com/arturonaredo/homebalance-go/config"
	"github.com/arturonaredo/homebalance-go/database"
	"github.com/arturonaredo/homebalance-go/engine"
	"github.com/arturonaredo/homebalance-go/forecast"
	"github.com/arturonaredo/homebalance-go/notify"
)

// Cron defaults when not configured. PVPC prices for tomorrow are
// published around 20:15 Spanish time.
const (
	defaultPriceRunAt = "20 20 * * *"
	defaultSolarRunAt = "0 6 * * *"
)

// Tasks is the single scheduler for everything periodic: the refresh
// and balance cycles, the forecast fetches, the hourly snapshot, the
// durable one-shot runner and nightly maintenance.
type Tasks struct {
	cron               *cron.Cron
	cnfg               *config.AppConfig
	RefreshTask        func()
	BalanceTask        func()
	PriceForecastTask  func()
	SolarForecastTask  func()
	SnapshotTask       func()
	PendingActionsTask func()
	DailyReportTask    func()
	MaintenanceTask    func()
}

func NewTasks(
	db *database.Database,
	eng *engine.Engine,
	prices *forecast.PriceService,
	solar *forecast.SolarService,
	sender *notify.Sender,
	cnfg *config.AppConfig,
) *Tasks {
	logger := slog.Default().With("module", "tasks")
	return &Tasks{
		cron:               cron.New(),
		cnfg:               cnfg,
		RefreshTask:        NewRefreshTask(logger.With(slog.String("task", "refresh")), eng),
		BalanceTask:        NewBalanceTask(logger.With(slog.String("task", "balance")), eng),
		PriceForecastTask:  NewPriceForecastTask(logger.With(slog.String("task", "price_forecast")), prices),
		SolarForecastTask:  NewSolarForecastTask(logger.With(slog.String("task", "solar_forecast")), solar),
		SnapshotTask:       NewSnapshotTask(logger.With(slog.String("task", "snapshot")), db, eng),
		PendingActionsTask: NewPendingActionsTask(logger.With(slog.String("task", "pending_actions")), db, eng),
		DailyReportTask:    NewDailyReportTask(logger.With(slog.String("task", "daily_report")), eng, prices, sender),
		MaintenanceTask:    NewMaintenanceTask(logger.With(slog.String("task", "maintenance")), db, cnfg),
	}
}

func (t *Tasks) Run() {
	priceRunAt := t.cnfg.PriceForecast.RunAt
	if priceRunAt == "" {
		priceRunAt = defaultPriceRunAt
	}
	solarRunAt := t.cnfg.SolarForecast.RunAt
	if solarRunAt == "" {
		solarRunAt = defaultSolarRunAt
	}

	_, err := t.cron.AddFunc(fmt.Sprintf("@every %ds", t.cnfg.Refresh.GetInterval()), t.RefreshTask)
	if err != nil {
		panic(err)
	}
	_, err = t.cron.AddFunc(fmt.Sprintf("@every %ds", t.cnfg.Balance.GetInterval()), t.BalanceTask)
	if err != nil {
		panic(err)
	}
	_, err = t.cron.AddFunc(priceRunAt, t.PriceForecastTask)
	if err != nil {
		panic(err)
	}
	_, err = t.cron.AddFunc(solarRunAt, t.SolarForecastTask)
	if err != nil {
		panic(err)
	}
	_, err = t.cron.AddFunc("@hourly", t.SnapshotTask)
	if err != nil {
		panic(err)
	}
	_, err = t.cron.AddFunc("@every 1m", t.PendingActionsTask)
	if err != nil {
		panic(err)
	}
	_, err = t.cron.AddFunc("55 23 * * *", t.DailyReportTask)
	if err != nil {
		panic(err)
	}
	_, err = t.cron.AddFunc("30 2 * * *", t.MaintenanceTask)
	if err != nil {
		panic(err)
	}
	t.cron.Start()
}

func (t *Tasks) Stop() context.Context {
	return t.cron.Stop()
}
