package soc

import (
	"fmt"
	"math"
	"time"

	"github.com/arturonaredo/homebalance-go/config"
	"github.com/arturonaredo/homebalance-go/tariff"
	"github.com/arturonaredo/homebalance-go/types/maybe"
)

// Override is an operator-set target that beats every automatic rule
// until it expires. A nil ExpiresAt never expires.
type Override struct {
	TargetSoc float64
	ExpiresAt *time.Time
}

func (o *Override) Expired(now time.Time) bool {
	return o != nil && o.ExpiresAt != nil && now.After(*o.ExpiresAt)
}

type Input struct {
	Now      time.Time
	Price    maybe.Maybe[float64] // EUR/kWh, None until the first price read
	Period   tariff.Period
	Weekend  bool
	Override *Override // expired overrides must be cleared by the caller
	Config   config.AppConfigTargetSoc
}

type Result struct {
	Target float64
	Reason string
	Rule   string // name of the rule that decided
}

// A Rule either decides the target or passes. Rules are evaluated in
// order, first match wins, no blending.
type Rule struct {
	Name  string
	Apply func(in Input) (Result, bool)
}

var Rules = []Rule{
	{
		Name: "manual_override",
		Apply: func(in Input) (Result, bool) {
			if in.Override == nil || in.Override.Expired(in.Now) {
				return Result{}, false
			}
			reason := fmt.Sprintf("manual override active, target %.0f%%", in.Override.TargetSoc)
			if in.Override.ExpiresAt != nil {
				reason = fmt.Sprintf("manual override active until %s, target %.0f%%",
					in.Override.ExpiresAt.Format("15:04"), in.Override.TargetSoc)
			}
			return Result{Target: in.Override.TargetSoc, Reason: reason}, true
		},
	},
	{
		Name: "weekend_keep_full",
		Apply: func(in Input) (Result, bool) {
			if !in.Weekend || !in.Config.KeepFullWeekends {
				return Result{}, false
			}
			return Result{Target: 100, Reason: "weekend policy: keeping battery full"}, true
		},
	},
	{
		Name: "price_cheap",
		Apply: func(in Input) (Result, bool) {
			if !in.Price.IsValid() || in.Price.Value() > in.Config.AlwaysChargeBelow {
				return Result{}, false
			}
			return Result{
				Target: 100,
				Reason: fmt.Sprintf("price %.3f EUR/kWh at or below cheap threshold %.3f, charging to full",
					in.Price.Value(), in.Config.AlwaysChargeBelow),
			}, true
		},
	},
	{
		Name: "price_expensive",
		Apply: func(in Input) (Result, bool) {
			if !in.Price.IsValid() || in.Price.Value() < in.Config.NeverChargeAbove {
				return Result{}, false
			}
			return Result{
				Target: in.Config.MinSoc,
				Reason: fmt.Sprintf("price %.3f EUR/kWh at or above expensive threshold %.3f, holding at floor %.0f%%",
					in.Price.Value(), in.Config.NeverChargeAbove, in.Config.MinSoc),
			}, true
		},
	},
	{
		Name: "price_interpolated",
		Apply: func(in Input) (Result, bool) {
			if !in.Price.IsValid() {
				return Result{}, false
			}
			price := in.Price.Value()
			target := interpolate(price, in.Config.AlwaysChargeBelow, in.Config.NeverChargeAbove, in.Config.MinSoc)
			return Result{
				Target: target,
				Reason: fmt.Sprintf("price %.3f EUR/kWh between thresholds, interpolated target %.0f%%", price, target),
			}, true
		},
	},
	{
		Name: "period_default",
		Apply: func(in Input) (Result, bool) {
			var target float64
			switch in.Period {
			case tariff.PeriodValle:
				target = in.Config.GetValleTarget()
			case tariff.PeriodPunta:
				target = in.Config.GetPuntaTarget()
			default:
				target = in.Config.GetLlanoTarget()
			}
			return Result{
				Target: target,
				Reason: fmt.Sprintf("price unknown, using %s period default %.0f%%", in.Period, target),
			}, true
		},
	},
}

// interpolate maps a price inside (low, high) linearly onto
// (100, minSoc). The ratio is clamped so mis-ordered or equal
// thresholds degenerate to a step instead of producing NaN.
func interpolate(price, low, high, minSoc float64) float64 {
	var ratio float64
	if high-low <= 0 {
		if price > low {
			ratio = 1
		}
	} else {
		ratio = (price - low) / (high - low)
	}
	ratio = math.Max(0, math.Min(1, ratio))
	return math.Round(100 - ratio*(100-minSoc))
}

// Evaluate walks the rule cascade and clamps the winner to
// [minSoc, 100]. The final rule always matches so a result is
// guaranteed, and the reason is never empty.
func Evaluate(in Input) Result {
	for _, rule := range Rules {
		res, ok := rule.Apply(in)
		if !ok {
			continue
		}
		res.Rule = rule.Name
		res.Target = math.Max(in.Config.MinSoc, math.Min(100, res.Target))
		return res
	}

	// Unreachable as long as the last rule is a catch-all
	return Result{
		Target: in.Config.MinSoc,
		Reason: "no rule matched, holding at floor",
		Rule:   "fallback",
	}
}
