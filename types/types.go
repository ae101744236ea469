package types

import (
	"context"

	"github.com/arturonaredo/homebalance-go/hours"
)

// PricePoint is the electricity price for one hour in EUR per kWh.
type PricePoint struct {
	Hour  hours.DateHour
	Price float64
}

// SolarForecastPoint is the estimated PV production for one hour.
type SolarForecastPoint struct {
	Hour       hours.DateHour
	Watts      float64
	CloudCover uint8 // percent, 0 when the provider has no cloud data
}

type PriceProvider interface {
	GetPrices(ctx context.Context) ([]PricePoint, error)
}

type SolarProvider interface {
	GetSolarForecast(ctx context.Context) ([]SolarForecastPoint, error)
}
