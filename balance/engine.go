package balance

import (
	"context"
	"log/slog"
	"sort"

	"github.com/arturonaredo/homebalance-go/database"
	"github.com/arturonaredo/homebalance-go/hass"
)

// Engine turns a plan into switch commands and keeps the shed set
// durable across restarts.
type Engine struct {
	logger *slog.Logger
	cmd    hass.CommandIssuer
	db     *database.Database
}

func NewEngine(logger *slog.Logger, cmd hass.CommandIssuer, db *database.Database) *Engine {
	return &Engine{logger: logger, cmd: cmd, db: db}
}

// Run plans and applies one balancing pass. The returned set reflects
// only the commands that actually succeeded; a failed switch command
// is logged and skipped, the next pass will retry it.
func (e *Engine) Run(ctx context.Context, loads []Load, shed map[string]bool, maxAvailableWatts float64) (map[string]bool, []Action) {
	actions := Plan(loads, shed, maxAvailableWatts)
	if len(actions) == 0 {
		return shed, nil
	}

	newShed := make(map[string]bool, len(shed))
	for id := range shed {
		newShed[id] = true
	}

	var applied []Action
	for _, a := range actions {
		switch a.Kind {
		case ActionShed:
			if !e.cmd.TurnOff(ctx, a.SwitchRef) {
				e.logger.Warn("failed to switch off load", slog.String("load", a.LoadId))
				continue
			}
			e.logger.Info("load shed",
				slog.String("load", a.LoadId),
				slog.Float64("watts", a.PowerWatts))
			newShed[a.LoadId] = true
		case ActionRestore:
			if !e.cmd.TurnOn(ctx, a.SwitchRef) {
				e.logger.Warn("failed to switch on load", slog.String("load", a.LoadId))
				continue
			}
			e.logger.Info("load restored",
				slog.String("load", a.LoadId),
				slog.Float64("watts", a.PowerWatts))
			delete(newShed, a.LoadId)
		}
		applied = append(applied, a)

		// Persist after every applied action so a crash mid-pass
		// never forgets a load that is physically off.
		if err := e.db.SaveShedLoads(ctx, shedIds(newShed)); err != nil {
			e.logger.Error("failed to persist shed loads", slog.Any("error", err))
		}
	}

	return newShed, applied
}

func shedIds(shed map[string]bool) []string {
	ids := make([]string, 0, len(shed))
	for id := range shed {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
