package planner

import (
	"math"
	"sort"

	"github.com/arturonaredo/homebalance-go/calc"
	"github.com/arturonaredo/homebalance-go/convert"
	"github.com/arturonaredo/homebalance-go/hours"
	"github.com/arturonaredo/homebalance-go/types"
)

type Action string

const (
	ActionHold         Action = "hold"
	ActionChargeNow    Action = "charge_now"
	ActionWaitForCheap Action = "wait_for_cheap"
	ActionWaitForSolar Action = "wait_for_solar"
)

// Battery is the snapshot the plan is computed against.
type Battery struct {
	CapacityKwh  float64
	CurrentSoc   float64
	TargetSoc    float64
	ChargeRateKw float64
}

type Input struct {
	Now     hours.DateHour
	Battery Battery
	Prices  []types.PricePoint
	Solar   []types.SolarForecastPoint
}

// Plan is the charging recommendation for the rest of today. Monetary
// and energy figures are rounded, everything upstream of them is not.
type Plan struct {
	Action           Action  `json:"action"`
	ChargeHours      []uint8 `json:"chargeHours,omitempty"`
	NextChargeHour   int     `json:"nextChargeHour"` // -1 when not applicable
	NeededKwh        float64 `json:"neededKwh"`
	SolarCoverageKwh float64 `json:"solarCoverageKwh"`
	EstimatedCost    float64 `json:"estimatedCost"`
	EstimatedSavings float64 `json:"estimatedSavings"`
}

// Compute picks the cheapest remaining hours of today to cover the
// energy the battery still needs, after crediting the solar production
// still expected. Greedy bottom-k by price, not an optimum over the
// full horizon.
func Compute(in Input) Plan {
	plan := Plan{Action: ActionHold, NextChargeHour: -1}

	needed := calc.NeededKwh(in.Battery.CurrentSoc, in.Battery.TargetSoc, in.Battery.CapacityKwh)
	if needed <= 0 {
		return plan
	}
	plan.NeededKwh = convert.OneDecimal(needed)

	solarKwh := remainingSolarKwh(in.Solar, in.Now)
	plan.SolarCoverageKwh = convert.OneDecimal(math.Min(needed, solarKwh))

	if needed <= solarKwh {
		plan.Action = ActionWaitForSolar
		return plan
	}

	neededFromGrid := needed - solarKwh
	if in.Battery.ChargeRateKw <= 0 {
		return plan
	}
	hoursNeeded := int(math.Ceil(neededFromGrid / in.Battery.ChargeRateKw))

	candidates := futurePricesToday(in.Prices, in.Now)
	if len(candidates) == 0 {
		return plan
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].Price != candidates[j].Price {
			return candidates[i].Price < candidates[j].Price
		}
		return candidates[i].Hour.Hour < candidates[j].Hour.Hour
	})
	if hoursNeeded > len(candidates) {
		hoursNeeded = len(candidates)
	}
	selected := candidates[:hoursNeeded]

	cost := 0.0
	chargeNow := false
	for _, p := range selected {
		cost += calc.GridChargeCost(in.Battery.ChargeRateKw, p.Price)
		plan.ChargeHours = append(plan.ChargeHours, p.Hour.Hour)
		if p.Hour == in.Now {
			chargeNow = true
		}
	}
	sort.Slice(plan.ChargeHours, func(i, j int) bool { return plan.ChargeHours[i] < plan.ChargeHours[j] })

	if chargeNow {
		plan.Action = ActionChargeNow
	} else {
		plan.Action = ActionWaitForCheap
		plan.NextChargeHour = int(plan.ChargeHours[0])
	}

	plan.EstimatedCost = convert.TwoDecimals(cost)
	if nowPrice, ok := priceFor(in.Prices, in.Now); ok {
		plan.EstimatedSavings = convert.TwoDecimals(neededFromGrid*nowPrice - cost)
	}

	return plan
}

func remainingSolarKwh(points []types.SolarForecastPoint, now hours.DateHour) float64 {
	kwh := 0.0
	for _, p := range points {
		if p.Hour.Date == now.Date && p.Hour.Hour >= now.Hour {
			kwh += convert.WattsToKw(p.Watts)
		}
	}
	return kwh
}

func futurePricesToday(prices []types.PricePoint, now hours.DateHour) []types.PricePoint {
	var out []types.PricePoint
	for _, p := range prices {
		if p.Hour.Date == now.Date && p.Hour.Hour >= now.Hour {
			out = append(out, p)
		}
	}
	return out
}

func priceFor(prices []types.PricePoint, dh hours.DateHour) (float64, bool) {
	for _, p := range prices {
		if p.Hour == dh {
			return p.Price, true
		}
	}
	return 0, false
}
