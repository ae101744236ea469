package tariff

import (
	"testing"
	"time"

	"github.com/arturonaredo/homebalance-go/config"
)

func madrid(t *testing.T) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation("Europe/Madrid")
	if err != nil {
		t.Fatalf("failed to load location: %v", err)
	}
	return loc
}

func TestPeriodOf(t *testing.T) {
	loc := madrid(t)

	tests := []struct {
		name     string
		when     time.Time
		expected Period
	}{
		{"weekday night", time.Date(2026, 3, 4, 3, 0, 0, 0, loc), PeriodValle},
		{"weekday night boundary 07:59", time.Date(2026, 3, 4, 7, 59, 0, 0, loc), PeriodValle},
		{"weekday morning llano", time.Date(2026, 3, 4, 8, 0, 0, 0, loc), PeriodLlano},
		{"weekday morning peak start", time.Date(2026, 3, 4, 10, 0, 0, 0, loc), PeriodPunta},
		{"weekday noon peak", time.Date(2026, 3, 4, 13, 59, 0, 0, loc), PeriodPunta},
		{"weekday afternoon llano", time.Date(2026, 3, 4, 14, 0, 0, 0, loc), PeriodLlano},
		{"weekday evening peak", time.Date(2026, 3, 4, 19, 30, 0, 0, loc), PeriodPunta},
		{"weekday late llano", time.Date(2026, 3, 4, 22, 0, 0, 0, loc), PeriodLlano},
		{"saturday noon is valle", time.Date(2026, 3, 7, 12, 0, 0, 0, loc), PeriodValle},
		{"sunday evening is valle", time.Date(2026, 3, 8, 19, 0, 0, 0, loc), PeriodValle},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := PeriodOf(tt.when); got != tt.expected {
				t.Errorf("PeriodOf(%s) expected %s, got %s", tt.when, tt.expected, got)
			}
		})
	}
}

func TestPeriodOfConvertsTimezone(t *testing.T) {
	// 09:00 UTC in winter is 10:00 in Madrid, inside the morning peak.
	utc := time.Date(2026, 3, 4, 9, 0, 0, 0, time.UTC)
	if got := PeriodOf(utc); got != PeriodPunta {
		t.Errorf("expected punta for 09:00 UTC on a weekday, got %s", got)
	}
}

func TestContractedPower(t *testing.T) {
	cnfg := config.AppConfigTariff{
		ValleWatts: 5750,
		LlanoWatts: 4600,
		PuntaWatts: 3450,
	}

	if got := ContractedPowerWatts(cnfg, PeriodValle); got != 5750 {
		t.Errorf("valle power expected 5750, got %f", got)
	}
	if got := ContractedPowerWatts(cnfg, PeriodPunta); got != 3450 {
		t.Errorf("punta power expected 3450, got %f", got)
	}
	if got := ContractedPowerWatts(cnfg, PeriodUnknown); got != 4600 {
		t.Errorf("unknown period should use llano power, got %f", got)
	}

	// Default 10% safety margin
	if got := MaxAvailableWatts(cnfg, PeriodPunta); got != 3450*0.9 {
		t.Errorf("max available expected %f, got %f", 3450*0.9, got)
	}
}
