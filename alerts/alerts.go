package alerts

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/arturonaredo/homebalance-go/config"
	"github.com/arturonaredo/homebalance-go/database"
	"github.com/arturonaredo/homebalance-go/types/maybe"
)

type Severity string

const (
	SeverityInfo    Severity = "info"
	SeverityWarning Severity = "warning"
	SeverityDanger  Severity = "danger"
)

type Type string

const (
	TypeLowSoc    Type = "low_soc"
	TypeHighPrice Type = "high_price"
	TypeOverload  Type = "overload"
)

type Alert struct {
	Type      Type      `json:"type"`
	Severity  Severity  `json:"severity"`
	Message   string    `json:"message"`
	Value     float64   `json:"value"`
	Threshold float64   `json:"threshold"`
	Timestamp time.Time `json:"timestamp"`
}

// Notifier delivers an alert to the outside world. Delivery is best
// effort, the evaluator does not retry.
type Notifier interface {
	Send(ctx context.Context, a Alert) bool
}

// Reading is the snapshot one evaluation pass works from. Unknown
// values leave the corresponding alert untouched rather than retiring
// it, so a failed sensor read does not silently clear a real alarm.
type Reading struct {
	Soc               maybe.Maybe[float64]
	Price             maybe.Maybe[float64]
	TotalLoadWatts    maybe.Maybe[float64]
	MaxAvailableWatts float64
}

// Evaluator is edge-triggered: one active alert per type, created when
// a threshold is first crossed and retired silently when the condition
// clears. Callers must serialize Evaluate with the rest of the
// decision cycle.
type Evaluator struct {
	logger   *slog.Logger
	db       *database.Database
	notifier Notifier
	cnfg     config.AppConfigAlerts
	active   map[Type]Alert
}

func NewEvaluator(logger *slog.Logger, db *database.Database, notifier Notifier, cnfg config.AppConfigAlerts) *Evaluator {
	return &Evaluator{
		logger:   logger,
		db:       db,
		notifier: notifier,
		cnfg:     cnfg,
		active:   make(map[Type]Alert),
	}
}

// Evaluate runs all alert conditions against one reading and returns
// the alerts created during this pass.
func (e *Evaluator) Evaluate(ctx context.Context, r Reading) []Alert {
	var created []Alert

	if r.Soc.IsValid() {
		soc := r.Soc.Value()
		created = e.check(ctx, created, soc < e.cnfg.GetLowSoc(), Alert{
			Type:      TypeLowSoc,
			Severity:  SeverityWarning,
			Message:   fmt.Sprintf("Battery SOC %.0f%% is below %.0f%%", soc, e.cnfg.GetLowSoc()),
			Value:     soc,
			Threshold: e.cnfg.GetLowSoc(),
		})
	}

	if r.Price.IsValid() {
		price := r.Price.Value()
		created = e.check(ctx, created, price >= e.cnfg.GetHighPrice(), Alert{
			Type:      TypeHighPrice,
			Severity:  SeverityInfo,
			Message:   fmt.Sprintf("Electricity price %.3f EUR/kWh is at or above %.2f EUR/kWh", price, e.cnfg.GetHighPrice()),
			Value:     price,
			Threshold: e.cnfg.GetHighPrice(),
		})
	}

	if r.TotalLoadWatts.IsValid() && r.MaxAvailableWatts > 0 {
		load := r.TotalLoadWatts.Value()
		created = e.check(ctx, created, load > r.MaxAvailableWatts, Alert{
			Type:      TypeOverload,
			Severity:  SeverityDanger,
			Message:   fmt.Sprintf("Power draw %.0f W exceeds the %.0f W limit", load, r.MaxAvailableWatts),
			Value:     load,
			Threshold: r.MaxAvailableWatts,
		})
	}

	return created
}

func (e *Evaluator) check(ctx context.Context, created []Alert, condition bool, a Alert) []Alert {
	_, isActive := e.active[a.Type]

	if !condition {
		if isActive {
			// Silent retirement, no resolved notification.
			delete(e.active, a.Type)
			e.logger.Info("alert cleared", slog.String("type", string(a.Type)))
		}
		return created
	}
	if isActive {
		return created
	}

	a.Timestamp = time.Now()
	e.active[a.Type] = a
	e.logger.Warn("alert raised",
		slog.String("type", string(a.Type)),
		slog.String("severity", string(a.Severity)),
		slog.String("message", a.Message))

	if err := e.db.SaveAlert(ctx, database.AlertHistoryRow{
		Type:      string(a.Type),
		Severity:  string(a.Severity),
		Message:   a.Message,
		Value:     a.Value,
		Threshold: a.Threshold,
		Timestamp: a.Timestamp,
	}); err != nil {
		e.logger.Error("failed to save alert", slog.Any("error", err))
	}

	if e.notifier != nil && !e.notifier.Send(ctx, a) {
		e.logger.Warn("alert notification not delivered", slog.String("type", string(a.Type)))
	}

	return append(created, a)
}

// Active returns the currently active alerts, ordered by type.
func (e *Evaluator) Active() []Alert {
	out := make([]Alert, 0, len(e.active))
	for _, a := range e.active {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Type < out[j].Type })
	return out
}
