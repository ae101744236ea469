package balance

import (
	"sort"
)

// restoreFactor keeps a hysteresis margin between shedding and
// restoring so loads do not flap at the boundary.
const restoreFactor = 0.8

type Priority string

const (
	PriorityEssential Priority = "essential"
	PriorityComfort   Priority = "comfort"
	PriorityAccessory Priority = "accessory"
)

// ParsePriority treats anything unknown as essential, the safe choice
// since essential loads are never shed.
func ParsePriority(s string) Priority {
	switch s {
	case string(PriorityComfort):
		return PriorityComfort
	case string(PriorityAccessory):
		return PriorityAccessory
	default:
		return PriorityEssential
	}
}

// Load is one switchable (or merely monitored) consumer.
type Load struct {
	Id                string
	Name              string
	Priority          Priority
	SwitchRef         string // empty means the load cannot be switched
	PowerSensorRef    string
	MaxPowerWatts     float64 // fallback estimate when no live sensor
	CurrentPowerWatts float64 // live reading, 0 when unknown
	IsOn              bool
}

type ActionKind string

const (
	ActionShed    ActionKind = "shed"
	ActionRestore ActionKind = "restore"
)

type Action struct {
	Kind      ActionKind
	LoadId    string
	SwitchRef string
	// Power being removed (shed, live reading) or expected to come
	// back (restore, max estimate)
	PowerWatts float64
}

// TotalManagedWatts is the combined live draw of all managed loads.
func TotalManagedWatts(loads []Load) float64 {
	total := 0.0
	for _, l := range loads {
		total += l.CurrentPowerWatts
	}
	return total
}

// Plan decides which loads to shed or restore. It is a pure function
// of its inputs; applying the actions (and surviving command failures)
// is the Engine's job.
//
// Overload: walk accessory then comfort, biggest live draw first, until
// the accumulated savings cover the excess. Restore: walk comfort then
// accessory, smallest estimated draw first, only while the estimate
// fits inside 80% of the remaining headroom. Essential loads and loads
// without a switch are never touched.
func Plan(loads []Load, shed map[string]bool, maxAvailableWatts float64) []Action {
	total := TotalManagedWatts(loads)

	if total > maxAvailableWatts {
		return planShed(loads, shed, total-maxAvailableWatts)
	}
	if len(shed) > 0 {
		return planRestore(loads, shed, maxAvailableWatts-total)
	}
	return nil
}

func planShed(loads []Load, shed map[string]bool, excessWatts float64) []Action {
	var actions []Action
	saved := 0.0

	for _, tier := range []Priority{PriorityAccessory, PriorityComfort} {
		if saved >= excessWatts {
			break
		}

		var candidates []Load
		for _, l := range loads {
			if l.Priority != tier || !l.IsOn || shed[l.Id] || l.SwitchRef == "" {
				continue
			}
			candidates = append(candidates, l)
		}

		// Biggest offender first, fewest switch operations to clear
		// the excess.
		sort.SliceStable(candidates, func(i, j int) bool {
			return candidates[i].CurrentPowerWatts > candidates[j].CurrentPowerWatts
		})

		for _, l := range candidates {
			if saved >= excessWatts {
				break
			}
			actions = append(actions, Action{
				Kind:       ActionShed,
				LoadId:     l.Id,
				SwitchRef:  l.SwitchRef,
				PowerWatts: l.CurrentPowerWatts,
			})
			saved += l.CurrentPowerWatts
		}
	}

	return actions
}

func planRestore(loads []Load, shed map[string]bool, headroomWatts float64) []Action {
	var actions []Action

	// Comfort is restored before accessory, the inverse of the
	// shedding order.
	for _, tier := range []Priority{PriorityComfort, PriorityAccessory} {
		var candidates []Load
		for _, l := range loads {
			if l.Priority != tier || !shed[l.Id] || l.SwitchRef == "" {
				continue
			}
			candidates = append(candidates, l)
		}

		// Smallest load first so one restore does not immediately
		// re-trigger an overload.
		sort.SliceStable(candidates, func(i, j int) bool {
			return candidates[i].MaxPowerWatts < candidates[j].MaxPowerWatts
		})

		for _, l := range candidates {
			if l.MaxPowerWatts > headroomWatts*restoreFactor {
				continue
			}
			actions = append(actions, Action{
				Kind:       ActionRestore,
				LoadId:     l.Id,
				SwitchRef:  l.SwitchRef,
				PowerWatts: l.MaxPowerWatts,
			})
			headroomWatts -= l.MaxPowerWatts
		}
	}

	return actions
}
