package engine

import (
	"time"

	"github.com/arturonaredo/homebalance-go/alerts"
	"github.com/arturonaredo/homebalance-go/balance"
	"github.com/arturonaredo/homebalance-go/tariff"
	"github.com/arturonaredo/homebalance-go/types/maybe"
)

type ChargingDecision string

const (
	DecisionCharge ChargingDecision = "charge"
	DecisionHold   ChargingDecision = "hold"
)

// LoadState is the externally visible state of one managed load.
type LoadState struct {
	Id                string  `json:"id"`
	Name              string  `json:"name"`
	Priority          string  `json:"priority"`
	CurrentPowerWatts float64 `json:"currentPowerWatts"`
	IsOn              bool    `json:"isOn"`
	Shed              bool    `json:"shed"`
}

// Override mirrors the active manual override for API consumers.
type Override struct {
	TargetSoc float64    `json:"targetSoc"`
	ExpiresAt *time.Time `json:"expiresAt,omitempty"`
}

// SystemState is one consistent snapshot of everything the engine
// knows. It is copied out under the engine lock; callers never see a
// live reference.
type SystemState struct {
	BatterySoc           maybe.Maybe[float64] `json:"batterySoc"`
	BatteryPowerWatts    maybe.Maybe[float64] `json:"batteryPowerWatts"`
	GridPowerWatts       maybe.Maybe[float64] `json:"gridPowerWatts"`
	LoadPowerWatts       maybe.Maybe[float64] `json:"loadPowerWatts"`
	PvPowerWatts         maybe.Maybe[float64] `json:"pvPowerWatts"`
	CurrentPrice         maybe.Maybe[float64] `json:"currentPrice"`
	CurrentPeriod        tariff.Period        `json:"currentPeriod"`
	Weekend              bool                 `json:"weekend"`
	ContractedPowerWatts float64              `json:"contractedPowerWatts"`
	MaxAvailableWatts    float64              `json:"maxAvailableWatts"`
	ManualOverride       *Override            `json:"manualOverride,omitempty"`
	EffectiveTargetSoc   float64              `json:"effectiveTargetSoc"`
	TargetSocRule        string               `json:"targetSocRule"`
	ChargingDecision     ChargingDecision     `json:"chargingDecision"`
	ChargingReason       string               `json:"chargingReason"`
	Loads                []LoadState          `json:"loads"`
	ShedLoads            []string             `json:"shedLoads"`
	ActiveAlerts         []alerts.Alert       `json:"activeAlerts"`
	UpdatedAt            time.Time            `json:"updatedAt"`
}

func loadStates(loads []balance.Load, shed map[string]bool) []LoadState {
	out := make([]LoadState, 0, len(loads))
	for _, l := range loads {
		out = append(out, LoadState{
			Id:                l.Id,
			Name:              l.Name,
			Priority:          string(l.Priority),
			CurrentPowerWatts: l.CurrentPowerWatts,
			IsOn:              l.IsOn && !shed[l.Id],
			Shed:              shed[l.Id],
		})
	}
	return out
}
