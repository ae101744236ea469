package calc

// SocToKwh returns the energy stored in a battery at the given
// state of charge (percent) for a given capacity in kWh.
func SocToKwh(soc, capacityKwh float64) float64 {
	return soc / 100.0 * capacityKwh
}

// KwhToSoc returns the state of charge (percent) a given amount of
// energy represents for a battery of the given capacity.
func KwhToSoc(kwh, capacityKwh float64) float64 {
	if capacityKwh <= 0 {
		return 0
	}
	return kwh / capacityKwh * 100.0
}

// NeededKwh returns the energy required to move the battery from
// currentSoc to targetSoc. Negative when the battery is already above
// the target.
func NeededKwh(currentSoc, targetSoc, capacityKwh float64) float64 {
	return SocToKwh(targetSoc-currentSoc, capacityKwh)
}

// GridChargeCost is the cost of charging at rateKw for one hour at the
// given price per kWh.
func GridChargeCost(rateKw, pricePerKwh float64) float64 {
	return rateKw * pricePerKwh
}
