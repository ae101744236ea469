package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/lmittmann/tint"

	"github.com/arturonaredo/homebalance-go/alerts"
	"github.com/arturonaredo/homebalance-go/config"
	"github.com/arturonaredo/homebalance-go/database"
	"github.com/arturonaredo/homebalance-go/engine"
	"github.com/arturonaredo/homebalance-go/forecast"
	"github.com/arturonaredo/homebalance-go/forecastsolar"
	"github.com/arturonaredo/homebalance-go/hass"
	"github.com/arturonaredo/homebalance-go/hours"
	"github.com/arturonaredo/homebalance-go/logging"
	"github.com/arturonaredo/homebalance-go/notify"
	"github.com/arturonaredo/homebalance-go/preciodelaluz"
	"github.com/arturonaredo/homebalance-go/ree"
	"github.com/arturonaredo/homebalance-go/task"
	"github.com/arturonaredo/homebalance-go/types"
	"github.com/arturonaredo/homebalance-go/www"
)

var Version = "?.?.?"

func main() {
	defer func() {
		if err := recover(); err != nil {
			exitWithError(slog.Default(), fmt.Errorf("application panicked: %v", err))
		} else {
			slog.Default().Info("application is shutting down...")
		}
	}()

	configPath := flag.String("config", "", "path to config file")
	flag.Parse()

	cnfg, err := config.Load(*configPath)
	if err != nil {
		panic(fmt.Sprintf("failed to load config: %v", err))
	}

	if err := hours.SetGuiTimezone(cnfg.Gui.GetTimezone()); err != nil {
		panic(fmt.Sprintf("failed to set GUI timezone: %v", err))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	consoleHandler := tint.NewHandler(os.Stdout, &tint.Options{
		Level:      cnfg.Logging.GetConsoleLevel(),
		TimeFormat: time.RFC3339,
	})
	slog.New(consoleHandler).Debug("homebalance is starting...", slog.String("version", Version))

	db, err := database.New(ctx, cnfg.Database.Path)
	if err != nil {
		panic(fmt.Sprintf("failed to connect to database: %v", err))
	}
	defer db.Close()

	logger := slog.New(logging.NewMultiHandler(
		consoleHandler,
		logging.NewSQLiteHandler(db, cnfg.Logging.GetDbLevel(), cnfg.Logging.GetDbAttrsFormat())))
	slog.SetDefault(logger)

	// Now we can use the logger to log database operations into the database itself
	db.SetLogger(logger.With("module", "database"))

	for _, warning := range cnfg.Validate() {
		logger.Warn("configuration issue", slog.String("warning", warning))
	}

	ha := hass.New(cnfg.HomeAssistant.BaseUrl, cnfg.HomeAssistant.Token)

	priceProviders := []types.PriceProvider{
		ree.New(),                // Primary provider (official PVPC)
		preciodelaluz.New("PCB"), // Secondary provider, mainland zone
	}
	prices := forecast.NewPriceService(
		logger.With("module", "price_forecast"),
		db,
		priceProviders,
		time.Duration(cnfg.PriceForecast.GetCacheTtlMinutes())*time.Minute)

	solar := forecast.NewSolarService(
		logger.With("module", "solar_forecast"),
		db,
		forecastsolar.New(
			cnfg.SolarForecast.Latitude,
			cnfg.SolarForecast.Longitude,
			cnfg.SolarForecast.GetDeclination(),
			cnfg.SolarForecast.GetAzimuth(),
			cnfg.SolarForecast.PeakKw),
		time.Duration(cnfg.SolarForecast.GetCacheTtlMinutes())*time.Minute)

	var eng *engine.Engine

	var notifier alerts.Notifier
	var sender *notify.Sender
	if cnfg.Mqtt.Enabled() {
		sender = notify.NewSender(
			logger.With("module", "notify"),
			cnfg.Mqtt,
			func() time.Time { return eng.DndUntil() })
		if isDevMode() {
			logger.Info("dev mode, skipping MQTT connection")
		} else {
			if err := sender.Connect(); err != nil {
				panic(fmt.Sprintf("MQTT connection error: %v", err))
			}
			defer sender.Disconnect()
		}
		notifier = sender
	} else {
		logger.Info("no MQTT broker configured, notifications disabled")
	}

	evaluator := alerts.NewEvaluator(
		logger.With("module", "alerts"), db, notifier, cnfg.Alerts)

	eng = engine.New(
		logger.With("module", "engine"),
		cnfg, db, ha, ha, prices, solar, evaluator)
	eng.Restore(ctx)

	config.Watch(logger.With("module", "config"), func(newCnfg *config.AppConfig) {
		for _, warning := range newCnfg.Validate() {
			logger.Warn("configuration issue", slog.String("warning", warning))
		}
		eng.ApplyConfig(newCnfg)
	})

	server := www.StartServer(db, eng, prices, solar, cnfg.Api)
	eng.SetOnChange(server.BroadcastState)

	tasks := task.NewTasks(db, eng, prices, solar, sender, cnfg)
	if isDevMode() {
		logger.Info("dev mode, skipping task scheduling")
	} else {
		tasks.Run()
		defer tasks.Stop()
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	go func() {
		select {
		case <-ctx.Done():
			logger.Info("main context done")
		case sig := <-sigCh:
			logger.Info("received signal", slog.Any("signal", sig))
			cancel()
		}
	}()

	server.Run(ctx)
}

func isDevMode() bool {
	return strings.EqualFold(os.Getenv("APP_ENV"), "development")
}

func exitWithError(logger *slog.Logger, err error) {
	if err != nil {
		logger.Error("application shutting down with error", slog.Any("error", err))
	}
	if syncer, ok := logger.Handler().(interface{ Sync() error }); ok {
		if syncErr := syncer.Sync(); syncErr != nil {
			logger.Error("failed to flush logger", slog.Any("error", syncErr))
		}
	}

	time.Sleep(2 * time.Second)
	os.Exit(1)
}
