package planner

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arturonaredo/homebalance-go/hours"
	"github.com/arturonaredo/homebalance-go/types"
)

func dh(hour uint8) hours.DateHour {
	return hours.DateHour{Date: "2026-03-02", Hour: hour}
}

func TestComputeHoldsWhenBatteryAtTarget(t *testing.T) {
	plan := Compute(Input{
		Now:     dh(10),
		Battery: Battery{CapacityKwh: 10, CurrentSoc: 80, TargetSoc: 80, ChargeRateKw: 3},
	})

	assert.Equal(t, ActionHold, plan.Action)
	assert.Empty(t, plan.ChargeHours)
	assert.Zero(t, plan.EstimatedCost)
	assert.Equal(t, -1, plan.NextChargeHour)
}

func TestComputeWaitsForSolarWhenForecastCoversNeed(t *testing.T) {
	plan := Compute(Input{
		Now:     dh(10),
		Battery: Battery{CapacityKwh: 10, CurrentSoc: 50, TargetSoc: 80, ChargeRateKw: 3},
		Solar: []types.SolarForecastPoint{
			{Hour: dh(9), Watts: 5000}, // already past, must be ignored
			{Hour: dh(11), Watts: 2000},
			{Hour: dh(13), Watts: 2000},
		},
	})

	assert.Equal(t, ActionWaitForSolar, plan.Action)
	assert.InDelta(t, 3.0, plan.NeededKwh, 1e-9)
	assert.InDelta(t, 3.0, plan.SolarCoverageKwh, 1e-9)
	assert.Zero(t, plan.EstimatedCost)
}

func TestComputePicksCheapestFutureHours(t *testing.T) {
	prices := []types.PricePoint{
		{Hour: dh(11), Price: 0.02}, // past, must be ignored
		{Hour: dh(12), Price: 0.20},
		{Hour: dh(13), Price: 0.10},
		{Hour: dh(14), Price: 0.25},
		{Hour: dh(15), Price: 0.08},
		{Hour: hours.DateHour{Date: "2026-03-03", Hour: 2}, Price: 0.01}, // tomorrow, out of scope
	}

	plan := Compute(Input{
		Now:     dh(12),
		Battery: Battery{CapacityKwh: 10, CurrentSoc: 40, TargetSoc: 100, ChargeRateKw: 3},
		Prices:  prices,
	})

	assert.Equal(t, ActionWaitForCheap, plan.Action)
	assert.Equal(t, []uint8{13, 15}, plan.ChargeHours)
	assert.Equal(t, 13, plan.NextChargeHour)
	assert.InDelta(t, 0.54, plan.EstimatedCost, 1e-9)
	// 6 kWh at the current 0.20 would cost 1.20.
	assert.InDelta(t, 0.66, plan.EstimatedSavings, 1e-9)
}

func TestComputeChargesNowWhenCurrentHourIsSelected(t *testing.T) {
	prices := []types.PricePoint{
		{Hour: dh(13), Price: 0.10},
		{Hour: dh(14), Price: 0.25},
		{Hour: dh(15), Price: 0.08},
	}

	plan := Compute(Input{
		Now:     dh(13),
		Battery: Battery{CapacityKwh: 10, CurrentSoc: 40, TargetSoc: 100, ChargeRateKw: 3},
		Prices:  prices,
	})

	assert.Equal(t, ActionChargeNow, plan.Action)
	assert.Equal(t, []uint8{13, 15}, plan.ChargeHours)
	assert.Equal(t, -1, plan.NextChargeHour)
}

func TestComputeSolarReducesGridHours(t *testing.T) {
	plan := Compute(Input{
		Now:     dh(12),
		Battery: Battery{CapacityKwh: 10, CurrentSoc: 40, TargetSoc: 100, ChargeRateKw: 3},
		Prices: []types.PricePoint{
			{Hour: dh(12), Price: 0.20},
			{Hour: dh(13), Price: 0.10},
			{Hour: dh(14), Price: 0.25},
		},
		Solar: []types.SolarForecastPoint{
			{Hour: dh(13), Watts: 3500},
		},
	})

	// 6 kWh needed minus 3.5 kWh solar leaves 2.5 kWh, one hour at 3 kW.
	require.Equal(t, ActionWaitForCheap, plan.Action)
	assert.Equal(t, []uint8{13}, plan.ChargeHours)
	assert.InDelta(t, 3.5, plan.SolarCoverageKwh, 1e-9)
	assert.InDelta(t, 0.30, plan.EstimatedCost, 1e-9)
}

func TestComputeClampsToAvailableHours(t *testing.T) {
	plan := Compute(Input{
		Now:     dh(22),
		Battery: Battery{CapacityKwh: 20, CurrentSoc: 10, TargetSoc: 100, ChargeRateKw: 2},
		Prices: []types.PricePoint{
			{Hour: dh(22), Price: 0.12},
			{Hour: dh(23), Price: 0.09},
		},
	})

	// 18 kWh would need 9 hours but only two remain today.
	assert.Equal(t, ActionChargeNow, plan.Action)
	assert.Equal(t, []uint8{22, 23}, plan.ChargeHours)
}

func TestComputeHoldsWithoutPriceData(t *testing.T) {
	plan := Compute(Input{
		Now:     dh(12),
		Battery: Battery{CapacityKwh: 10, CurrentSoc: 40, TargetSoc: 100, ChargeRateKw: 3},
	})

	assert.Equal(t, ActionHold, plan.Action)
	assert.InDelta(t, 6.0, plan.NeededKwh, 1e-9)
}

func TestComputeIsIdempotent(t *testing.T) {
	in := Input{
		Now:     dh(12),
		Battery: Battery{CapacityKwh: 10, CurrentSoc: 40, TargetSoc: 100, ChargeRateKw: 3},
		Prices: []types.PricePoint{
			{Hour: dh(12), Price: 0.20},
			{Hour: dh(13), Price: 0.10},
			{Hour: dh(15), Price: 0.08},
		},
		Solar: []types.SolarForecastPoint{
			{Hour: dh(14), Watts: 1200},
		},
	}

	first := Compute(in)
	second := Compute(in)

	assert.Equal(t, first, second)
}
