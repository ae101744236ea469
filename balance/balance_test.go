package balance

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlanShedsAccessoriesFirstByDraw(t *testing.T) {
	loads := []Load{
		{Id: "a", Priority: PriorityAccessory, SwitchRef: "switch.a", CurrentPowerWatts: 500, IsOn: true},
		{Id: "b", Priority: PriorityAccessory, SwitchRef: "switch.b", CurrentPowerWatts: 900, IsOn: true},
		{Id: "c", Priority: PriorityComfort, SwitchRef: "switch.c", CurrentPowerWatts: 300, IsOn: true},
		{Id: "base", Priority: PriorityEssential, CurrentPowerWatts: 2500, IsOn: true},
	}

	// 4200 W total against 3500 W available leaves a 700 W excess;
	// the biggest accessory alone covers it.
	actions := Plan(loads, map[string]bool{}, 3500)

	require.Len(t, actions, 1)
	assert.Equal(t, ActionShed, actions[0].Kind)
	assert.Equal(t, "b", actions[0].LoadId)
}

func TestPlanShedsAcrossTiers(t *testing.T) {
	loads := []Load{
		{Id: "a", Priority: PriorityAccessory, SwitchRef: "switch.a", CurrentPowerWatts: 400, IsOn: true},
		{Id: "c", Priority: PriorityComfort, SwitchRef: "switch.c", CurrentPowerWatts: 800, IsOn: true},
		{Id: "base", Priority: PriorityEssential, CurrentPowerWatts: 3000, IsOn: true},
	}

	// Excess of 1000 W needs the accessory and then the comfort load.
	actions := Plan(loads, map[string]bool{}, 3200)

	require.Len(t, actions, 2)
	assert.Equal(t, "a", actions[0].LoadId)
	assert.Equal(t, "c", actions[1].LoadId)
}

func TestPlanNeverShedsEssentialOrSwitchless(t *testing.T) {
	loads := []Load{
		{Id: "heat", Priority: PriorityEssential, SwitchRef: "switch.heat", CurrentPowerWatts: 2000, IsOn: true},
		{Id: "oven", Priority: PriorityComfort, SwitchRef: "", CurrentPowerWatts: 2000, IsOn: true},
	}

	actions := Plan(loads, map[string]bool{}, 1000)

	assert.Empty(t, actions)
}

func TestPlanSkipsAlreadyShedAndOffLoads(t *testing.T) {
	loads := []Load{
		{Id: "a", Priority: PriorityAccessory, SwitchRef: "switch.a", CurrentPowerWatts: 0, IsOn: false},
		{Id: "b", Priority: PriorityAccessory, SwitchRef: "switch.b", CurrentPowerWatts: 600, IsOn: true},
		{Id: "base", Priority: PriorityEssential, CurrentPowerWatts: 3000, IsOn: true},
	}

	actions := Plan(loads, map[string]bool{"b": true}, 3000)

	assert.Empty(t, actions)
}

func TestPlanRestoresComfortBeforeAccessorySmallestFirst(t *testing.T) {
	loads := []Load{
		{Id: "d", Priority: PriorityComfort, SwitchRef: "switch.d", MaxPowerWatts: 600},
		{Id: "e", Priority: PriorityComfort, SwitchRef: "switch.e", MaxPowerWatts: 300},
		{Id: "f", Priority: PriorityAccessory, SwitchRef: "switch.f", MaxPowerWatts: 200},
		{Id: "base", Priority: PriorityEssential, CurrentPowerWatts: 1000, IsOn: true},
	}
	shed := map[string]bool{"d": true, "e": true, "f": true}

	// 2500 W headroom: e (300) fits under 2000, then d (600) under
	// 0.8 * 2200, then f under what remains.
	actions := Plan(loads, shed, 3500)

	require.Len(t, actions, 3)
	assert.Equal(t, "e", actions[0].LoadId)
	assert.Equal(t, "d", actions[1].LoadId)
	assert.Equal(t, "f", actions[2].LoadId)
	for _, a := range actions {
		assert.Equal(t, ActionRestore, a.Kind)
	}
}

func TestPlanRestoreRespectsHeadroomMargin(t *testing.T) {
	loads := []Load{
		{Id: "d", Priority: PriorityComfort, SwitchRef: "switch.d", MaxPowerWatts: 900},
		{Id: "base", Priority: PriorityEssential, CurrentPowerWatts: 3000, IsOn: true},
	}
	shed := map[string]bool{"d": true}

	// 1000 W headroom but only 800 W usable after the margin, so the
	// 900 W load stays off.
	actions := Plan(loads, shed, 4000)

	assert.Empty(t, actions)
}

func TestPlanNoActionWhenBalancedAndNothingShed(t *testing.T) {
	loads := []Load{
		{Id: "base", Priority: PriorityEssential, CurrentPowerWatts: 2000, IsOn: true},
	}

	assert.Empty(t, Plan(loads, map[string]bool{}, 4000))
}

func TestParsePriority(t *testing.T) {
	assert.Equal(t, PriorityComfort, ParsePriority("comfort"))
	assert.Equal(t, PriorityAccessory, ParsePriority("accessory"))
	assert.Equal(t, PriorityEssential, ParsePriority("essential"))
	assert.Equal(t, PriorityEssential, ParsePriority("bogus"))
}

func TestTotalManagedWatts(t *testing.T) {
	loads := []Load{
		{CurrentPowerWatts: 100},
		{CurrentPowerWatts: 250.5},
	}
	assert.InDelta(t, 350.5, TotalManagedWatts(loads), 1e-9)
}
