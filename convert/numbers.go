package convert

import (
	"math"
)

func OneDecimal(number float64) float64 {
	return RoundFloat64(number, 1)
}

func TwoDecimals(number float64) float64 {
	return RoundFloat64(number, 2)
}

func RoundFloat64(number float64, decimals int) float64 {
	return math.Round(number*math.Pow10(int(decimals))) / math.Pow10(int(decimals))
}

func WattsToKw(watts float64) float64 {
	return watts / 1e3
}
