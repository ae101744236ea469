package engine

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/arturonaredo/homebalance-go/alerts"
	"github.com/arturonaredo/homebalance-go/balance"
	"github.com/arturonaredo/homebalance-go/config"
	"github.com/arturonaredo/homebalance-go/database"
	"github.com/arturonaredo/homebalance-go/forecast"
	"github.com/arturonaredo/homebalance-go/hass"
	"github.com/arturonaredo/homebalance-go/hours"
	"github.com/arturonaredo/homebalance-go/planner"
	"github.com/arturonaredo/homebalance-go/soc"
	"github.com/arturonaredo/homebalance-go/tariff"
	"github.com/arturonaredo/homebalance-go/types/maybe"
)

// Charge only when the battery sits more than this many percentage
// points below the target, so small SOC jitter does not flap the
// grid-charge controls.
const chargeHysteresis = 2.0

// Engine owns the system state. Every evaluate-and-mutate cycle runs
// under one mutex so a balance pass and a refresh pass can never act
// on each other's half-applied readings.
type Engine struct {
	logger    *slog.Logger
	db        *database.Database
	sensors   hass.SensorReader
	commands  hass.CommandIssuer
	prices    *forecast.PriceService
	solar     *forecast.SolarService
	balancer  *balance.Engine
	evaluator *alerts.Evaluator
	onChange  func(SystemState)

	mu           sync.Mutex
	cnfg         *config.AppConfig
	state        SystemState
	override     *soc.Override
	shed         map[string]bool
	dndUntil     time.Time
	lastDecision ChargingDecision
	lastTarget   float64
}

func New(
	logger *slog.Logger,
	cnfg *config.AppConfig,
	db *database.Database,
	sensors hass.SensorReader,
	commands hass.CommandIssuer,
	prices *forecast.PriceService,
	solar *forecast.SolarService,
	evaluator *alerts.Evaluator,
) *Engine {
	return &Engine{
		logger:    logger,
		db:        db,
		sensors:   sensors,
		commands:  commands,
		prices:    prices,
		solar:     solar,
		balancer:  balance.NewEngine(logger.With(slog.String("module", "balance")), commands, db),
		evaluator: evaluator,
		cnfg:      cnfg,
		shed:      make(map[string]bool),
		state:     SystemState{ChargingDecision: DecisionHold, CurrentPeriod: tariff.PeriodUnknown},
	}
}

// SetOnChange registers the state broadcast callback. Must be called
// before the periodic cycles start.
func (e *Engine) SetOnChange(f func(SystemState)) {
	e.onChange = f
}

// Restore loads the durable state written by earlier runs. Called once
// at startup, before any cycle.
func (e *Engine) Restore(ctx context.Context) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if row, err := e.db.GetManualOverride(ctx); err != nil {
		e.logger.Warn("failed to restore manual override", slog.Any("error", err))
	} else if row != nil {
		e.override = &soc.Override{TargetSoc: row.TargetSoc, ExpiresAt: row.ExpiresAt}
		e.logger.Info("manual override restored", slog.Float64("targetSoc", row.TargetSoc))
	}

	if ids, err := e.db.GetShedLoads(ctx); err != nil {
		e.logger.Warn("failed to restore shed loads", slog.Any("error", err))
	} else {
		for _, id := range ids {
			e.shed[id] = true
		}
		if len(ids) > 0 {
			e.logger.Info("shed loads restored", slog.Int("count", len(ids)))
		}
	}

	if until, err := e.db.GetDndUntil(ctx); err != nil {
		e.logger.Warn("failed to restore do-not-disturb window", slog.Any("error", err))
	} else {
		e.dndUntil = until
	}
}

// ApplyConfig swaps the configuration, used on config file reload.
func (e *Engine) ApplyConfig(cnfg *config.AppConfig) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.cnfg = cnfg
}

type sensorReadings struct {
	soc          maybe.Maybe[float64]
	batteryPower maybe.Maybe[float64]
	gridPower    maybe.Maybe[float64]
	loadPower    maybe.Maybe[float64]
	pvPower      maybe.Maybe[float64]
}

// readSensors issues all reads concurrently and waits for the slowest
// one, the decision logic then works from the joint snapshot.
func (e *Engine) readSensors(ctx context.Context) sensorReadings {
	var r sensorReadings
	var wg sync.WaitGroup

	read := func(ref string, dest *maybe.Maybe[float64]) {
		if ref == "" {
			return
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			*dest = e.sensors.ReadNumeric(ctx, ref)
		}()
	}

	read(e.cnfg.Battery.SocSensor, &r.soc)
	read(e.cnfg.Battery.PowerSensor, &r.batteryPower)
	read(e.cnfg.Sensors.GridPower, &r.gridPower)
	read(e.cnfg.Sensors.LoadPower, &r.loadPower)
	read(e.cnfg.Sensors.PvPower, &r.pvPower)
	wg.Wait()

	return r
}

func (e *Engine) readLoads(ctx context.Context) []balance.Load {
	loads := make([]balance.Load, len(e.cnfg.Loads))
	var wg sync.WaitGroup

	for i, lc := range e.cnfg.Loads {
		wg.Add(1)
		go func(i int, lc config.AppConfigLoad) {
			defer wg.Done()

			l := balance.Load{
				Id:             lc.Id,
				Name:           lc.Name,
				Priority:       balance.ParsePriority(lc.Priority),
				SwitchRef:      lc.Switch,
				PowerSensorRef: lc.PowerSensor,
				MaxPowerWatts:  lc.MaxPowerWatts,
			}
			if lc.PowerSensor != "" {
				l.CurrentPowerWatts = e.sensors.ReadNumeric(ctx, lc.PowerSensor).ValueOrDefault(0)
			}
			if lc.Switch != "" {
				l.IsOn = e.sensors.ReadState(ctx, lc.Switch).ValueOrDefault("") == "on"
			} else {
				l.IsOn = l.CurrentPowerWatts > 0
			}
			loads[i] = l
		}(i, lc)
	}
	wg.Wait()

	return loads
}

// Refresh runs one full evaluation cycle: read sensors, classify the
// tariff period, run the target-SOC cascade, drive the charging
// controls and evaluate alerts.
func (e *Engine) Refresh(ctx context.Context) {
	st := e.refresh(ctx)
	if e.onChange != nil {
		e.onChange(st)
	}
}

func (e *Engine) refresh(ctx context.Context) SystemState {
	e.mu.Lock()
	defer e.mu.Unlock()

	now := time.Now()
	readings := e.readSensors(ctx)
	loads := e.readLoads(ctx)

	// Expired overrides are cleared before any rule runs.
	if e.override.Expired(now) {
		e.logger.Info("manual override expired, back to automatic control")
		e.override = nil
		e.cancelScheduledClears(ctx)
		if err := e.db.ClearManualOverride(ctx); err != nil {
			e.logger.Error("failed to clear manual override", slog.Any("error", err))
		}
	}

	period := tariff.PeriodOf(now)
	weekend := tariff.IsWeekend(now)
	price := e.prices.PriceForHour(ctx, hours.FromTime(now))

	result := soc.Evaluate(soc.Input{
		Now:      now,
		Price:    price,
		Period:   period,
		Weekend:  weekend,
		Override: e.override,
		Config:   e.cnfg.TargetSoc,
	})

	decision := DecisionHold
	if readings.soc.IsValid() && readings.soc.Value() < result.Target-chargeHysteresis {
		decision = DecisionCharge
	}
	e.applyChargingDecision(ctx, decision, result.Target)

	maxAvailable := tariff.MaxAvailableWatts(e.cnfg.Tariff, period)

	totalLoad := readings.loadPower
	if !totalLoad.IsValid() && len(loads) > 0 {
		totalLoad = maybe.Some(balance.TotalManagedWatts(loads))
	}
	e.evaluator.Evaluate(ctx, alerts.Reading{
		Soc:               readings.soc,
		Price:             price,
		TotalLoadWatts:    totalLoad,
		MaxAvailableWatts: maxAvailable,
	})

	e.state = SystemState{
		BatterySoc:           readings.soc,
		BatteryPowerWatts:    readings.batteryPower,
		GridPowerWatts:       readings.gridPower,
		LoadPowerWatts:       readings.loadPower,
		PvPowerWatts:         readings.pvPower,
		CurrentPrice:         price,
		CurrentPeriod:        period,
		Weekend:              weekend,
		ContractedPowerWatts: tariff.ContractedPowerWatts(e.cnfg.Tariff, period),
		MaxAvailableWatts:    maxAvailable,
		ManualOverride:       e.overrideState(),
		EffectiveTargetSoc:   result.Target,
		TargetSocRule:        result.Rule,
		ChargingDecision:     decision,
		ChargingReason:       result.Reason,
		Loads:                loadStates(loads, e.shed),
		ShedLoads:            shedList(e.shed),
		ActiveAlerts:         e.evaluator.Active(),
		UpdatedAt:            now,
	}

	return e.state
}

// applyChargingDecision drives the inverter controls. Commands go out
// on a decision flip or a target change while charging; they are
// idempotent on the device side, failures are logged and retried on
// the next flip.
func (e *Engine) applyChargingDecision(ctx context.Context, decision ChargingDecision, target float64) {
	switch {
	case decision == DecisionCharge && (e.lastDecision != DecisionCharge || e.lastTarget != target):
		if !e.commands.SetNumber(ctx, e.cnfg.Battery.TargetSocControl, target) {
			e.logger.Warn("failed to set charge target", slog.Float64("target", target))
		}
		if !e.commands.SetNumber(ctx, e.cnfg.Battery.GridChargeControl, target) {
			e.logger.Warn("failed to enable grid charging")
		}
		e.logger.Info("grid charging enabled", slog.Float64("target", target))
	case decision == DecisionHold && e.lastDecision != DecisionHold:
		if !e.commands.SetNumber(ctx, e.cnfg.Battery.GridChargeControl, 0) {
			e.logger.Warn("failed to disable grid charging")
		}
		e.logger.Info("grid charging disabled")
	}
	e.lastDecision = decision
	e.lastTarget = target
}

// Balance runs one shed/restore pass and returns the actions that were
// actually applied.
func (e *Engine) Balance(ctx context.Context) []balance.Action {
	e.mu.Lock()
	defer e.mu.Unlock()

	now := time.Now()
	loads := e.readLoads(ctx)
	maxAvailable := tariff.MaxAvailableWatts(e.cnfg.Tariff, tariff.PeriodOf(now))

	newShed, applied := e.balancer.Run(ctx, loads, e.shed, maxAvailable)
	e.shed = newShed

	e.state.Loads = loadStates(loads, e.shed)
	e.state.ShedLoads = shedList(e.shed)

	return applied
}

// Plan computes the charging plan from the current snapshot and the
// cached forecasts. The forecast fetches run outside the engine lock.
func (e *Engine) Plan(ctx context.Context) planner.Plan {
	e.mu.Lock()
	battery := planner.Battery{
		CapacityKwh:  e.cnfg.Battery.CapacityKwh,
		CurrentSoc:   e.state.BatterySoc.ValueOrDefault(0),
		TargetSoc:    e.state.EffectiveTargetSoc,
		ChargeRateKw: e.cnfg.Battery.MaxChargeRateKw,
	}
	socKnown := e.state.BatterySoc.IsValid()
	e.mu.Unlock()

	if !socKnown {
		return planner.Plan{Action: planner.ActionHold, NextChargeHour: -1}
	}

	return planner.Compute(planner.Input{
		Now:     hours.FromNow(),
		Battery: battery,
		Prices:  e.prices.Prices(ctx),
		Solar:   e.solar.Forecast(ctx),
	})
}

// SetOverride pins the target SOC until expiresAt (or indefinitely
// when nil). The next refresh applies it.
func (e *Engine) SetOverride(ctx context.Context, targetSoc float64, expiresAt *time.Time) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	// Any expiry scheduled for a previous override must not fire
	// against this one.
	e.cancelScheduledClears(ctx)

	e.override = &soc.Override{TargetSoc: targetSoc, ExpiresAt: expiresAt}
	err := e.db.SaveManualOverride(ctx, database.ManualOverrideRow{
		TargetSoc: targetSoc,
		ExpiresAt: expiresAt,
	})
	if err != nil {
		return err
	}

	if expiresAt != nil {
		// Durable one-shot so the fallback to automatic control also
		// happens when the process restarts before the expiry.
		if _, err := e.db.SavePendingAction(ctx, database.PendingActionClearOverride, "", *expiresAt); err != nil {
			e.logger.Warn("failed to schedule override expiry", slog.Any("error", err))
		}
	}

	e.logger.Info("manual override set", slog.Float64("targetSoc", targetSoc))
	return nil
}

func (e *Engine) ClearOverride(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.cancelScheduledClears(ctx)

	e.override = nil
	if err := e.db.ClearManualOverride(ctx); err != nil {
		return err
	}
	e.logger.Info("manual override cleared")
	return nil
}

// cancelScheduledClears removes queued override-expiry actions so a
// stale one cannot clear an override it was never scheduled for.
// Called with the engine lock held.
func (e *Engine) cancelScheduledClears(ctx context.Context) {
	actions, err := e.db.GetPendingActions(ctx)
	if err != nil {
		e.logger.Warn("failed to read pending actions", slog.Any("error", err))
		return
	}
	for _, a := range actions {
		if a.Kind != database.PendingActionClearOverride {
			continue
		}
		if err := e.db.DeletePendingAction(ctx, a.Id); err != nil {
			e.logger.Warn("failed to cancel scheduled override clear",
				slog.Int64("id", a.Id), slog.Any("error", err))
		}
	}
}

// SetDnd suppresses outbound notifications until the given time.
func (e *Engine) SetDnd(ctx context.Context, until time.Time) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.dndUntil = until
	return e.db.SaveDndUntil(ctx, until)
}

// DndUntil is read by the notification sink before every dispatch.
func (e *Engine) DndUntil() time.Time {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.dndUntil
}

// State returns a copy of the latest snapshot.
func (e *Engine) State() SystemState {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

func (e *Engine) overrideState() *Override {
	if e.override == nil {
		return nil
	}
	return &Override{TargetSoc: e.override.TargetSoc, ExpiresAt: e.override.ExpiresAt}
}

func shedList(shed map[string]bool) []string {
	ids := make([]string, 0, len(shed))
	for id := range shed {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
