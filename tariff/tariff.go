package tariff

import (
	"time"

	"github.com/arturonaredo/homebalance-go/config"
	"github.com/arturonaredo/homebalance-go/hours"
)

// Period is a Spanish 2.0TD time-of-use tariff period.
type Period string

const (
	PeriodValle   Period = "valle" // off-peak
	PeriodLlano   Period = "llano" // mid
	PeriodPunta   Period = "punta" // peak
	PeriodUnknown Period = "unknown"
)

// PeriodOf classifies a point in time. Weekends and the night window
// (00:00-08:00) are valle, the weekday windows 10:00-14:00 and
// 18:00-22:00 are punta, everything else is llano. Boundaries are exact
// clock cutovers, there is no hysteresis here.
func PeriodOf(t time.Time) Period {
	local := hours.SpanishTime(t)

	weekday := local.Weekday()
	if weekday == time.Saturday || weekday == time.Sunday {
		return PeriodValle
	}

	hour := local.Hour()
	switch {
	case hour < 8:
		return PeriodValle
	case hour >= 10 && hour < 14:
		return PeriodPunta
	case hour >= 18 && hour < 22:
		return PeriodPunta
	default:
		return PeriodLlano
	}
}

// IsWeekend reports whether t falls on a Saturday or Sunday in Spanish
// local time.
func IsWeekend(t time.Time) bool {
	weekday := hours.SpanishTime(t).Weekday()
	return weekday == time.Saturday || weekday == time.Sunday
}

// ContractedPowerWatts returns the grid ceiling for a period.
func ContractedPowerWatts(cnfg config.AppConfigTariff, p Period) float64 {
	switch p {
	case PeriodValle:
		return cnfg.ValleWatts
	case PeriodPunta:
		return cnfg.PuntaWatts
	default:
		return cnfg.LlanoWatts
	}
}

// MaxAvailableWatts is the contracted power minus the configured safety
// margin. The load balancer sheds against this ceiling.
func MaxAvailableWatts(cnfg config.AppConfigTariff, p Period) float64 {
	return ContractedPowerWatts(cnfg, p) * (1 - cnfg.GetSafetyMarginPercent()/100)
}
