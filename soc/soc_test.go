package soc

import (
	"testing"
	"time"

	"github.com/arturonaredo/homebalance-go/config"
	"github.com/arturonaredo/homebalance-go/tariff"
	"github.com/arturonaredo/homebalance-go/types/maybe"
	"github.com/stretchr/testify/assert"
)

func testConfig() config.AppConfigTargetSoc {
	return config.AppConfigTargetSoc{
		MinSoc:            10,
		AlwaysChargeBelow: 0.05,
		NeverChargeAbove:  0.25,
		KeepFullWeekends:  true,
	}
}

func priceInput(price float64) Input {
	return Input{
		Now:    time.Date(2026, 3, 4, 12, 0, 0, 0, time.UTC),
		Price:  maybe.Some(price),
		Period: tariff.PeriodLlano,
		Config: testConfig(),
	}
}

func TestCheapPriceChargesToFull(t *testing.T) {
	res := Evaluate(priceInput(0.03))
	assert.Equal(t, 100.0, res.Target)
	assert.Equal(t, "price_cheap", res.Rule)
	assert.NotEmpty(t, res.Reason)
}

func TestExpensivePriceHoldsAtFloor(t *testing.T) {
	res := Evaluate(priceInput(0.40))
	assert.Equal(t, 10.0, res.Target)
	assert.Equal(t, "price_expensive", res.Rule)
}

func TestThresholdBoundaries(t *testing.T) {
	assert.Equal(t, 100.0, Evaluate(priceInput(0.05)).Target, "target at low threshold must be 100")
	assert.Equal(t, 10.0, Evaluate(priceInput(0.25)).Target, "target at high threshold must be minSoc")
}

func TestInterpolationMonotonic(t *testing.T) {
	prev := 101.0
	for price := 0.0; price <= 0.50; price += 0.01 {
		res := Evaluate(priceInput(price))
		assert.LessOrEqual(t, res.Target, prev, "target must be non-increasing in price (price=%.2f)", price)
		assert.GreaterOrEqual(t, res.Target, 10.0)
		assert.LessOrEqual(t, res.Target, 100.0)
		prev = res.Target
	}
}

func TestInterpolationMidpoint(t *testing.T) {
	res := Evaluate(priceInput(0.15))
	assert.Equal(t, "price_interpolated", res.Rule)
	assert.Equal(t, 55.0, res.Target) // ratio 0.5 -> 100 - 0.5*90
}

func TestMisorderedThresholdsDegradeToStep(t *testing.T) {
	in := priceInput(0.15)
	in.Config.AlwaysChargeBelow = 0.25
	in.Config.NeverChargeAbove = 0.25

	// Equal thresholds: below behaves as cheap, above as expensive,
	// never NaN in between.
	assert.Equal(t, 100.0, Evaluate(in).Target)

	in.Price = maybe.Some(0.30)
	assert.Equal(t, 10.0, Evaluate(in).Target)
}

func TestOverrideWinsOverPrice(t *testing.T) {
	in := priceInput(0.03) // would give 100 via cheap rule
	expires := in.Now.Add(time.Hour)
	in.Override = &Override{TargetSoc: 42, ExpiresAt: &expires}

	res := Evaluate(in)
	assert.Equal(t, 42.0, res.Target)
	assert.Equal(t, "manual_override", res.Rule)
	assert.Contains(t, res.Reason, "manual override")
}

func TestExpiredOverrideFallsThrough(t *testing.T) {
	in := priceInput(0.03)
	expired := in.Now.Add(-time.Minute)
	in.Override = &Override{TargetSoc: 42, ExpiresAt: &expired}

	res := Evaluate(in)
	assert.Equal(t, "price_cheap", res.Rule)
	assert.Equal(t, 100.0, res.Target)
}

func TestOverrideWithoutExpiryNeverExpires(t *testing.T) {
	in := priceInput(0.03)
	in.Override = &Override{TargetSoc: 70}

	res := Evaluate(in)
	assert.Equal(t, 70.0, res.Target)
	assert.Equal(t, "manual_override", res.Rule)
}

func TestWeekendKeepFull(t *testing.T) {
	in := priceInput(0.40) // expensive, would give floor
	in.Weekend = true

	res := Evaluate(in)
	assert.Equal(t, 100.0, res.Target)
	assert.Equal(t, "weekend_keep_full", res.Rule)

	in.Config.KeepFullWeekends = false
	res = Evaluate(in)
	assert.Equal(t, "price_expensive", res.Rule)
}

func TestUnknownPriceUsesPeriodDefault(t *testing.T) {
	in := Input{
		Now:    time.Date(2026, 3, 4, 12, 0, 0, 0, time.UTC),
		Price:  maybe.None[float64](),
		Period: tariff.PeriodPunta,
		Config: testConfig(),
	}

	res := Evaluate(in)
	assert.Equal(t, "period_default", res.Rule)
	assert.Equal(t, 30.0, res.Target)
	assert.Contains(t, res.Reason, "punta")

	in.Period = tariff.PeriodValle
	assert.Equal(t, 100.0, Evaluate(in).Target)
}

func TestOverrideClampedToFloor(t *testing.T) {
	in := priceInput(0.15)
	in.Override = &Override{TargetSoc: 2}

	res := Evaluate(in)
	assert.Equal(t, 10.0, res.Target, "override below minSoc must clamp to floor")
}
