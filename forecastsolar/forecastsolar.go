package forecastsolar

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/arturonaredo/homebalance-go/hours"
	"github.com/arturonaredo/homebalance-go/types"
)

const baseUrl = "https://api.forecast.solar"

// ForecastSolar fetches hourly PV production estimates for a plant
// described by position, panel declination/azimuth and peak power.
type ForecastSolar struct {
	latitude    float64
	longitude   float64
	declination float64
	azimuth     float64
	peakKw      float64
}

func New(lat, lon, declination, azimuth, peakKw float64) ForecastSolar {
	return ForecastSolar{
		latitude:    lat,
		longitude:   lon,
		declination: declination,
		azimuth:     azimuth,
		peakKw:      peakKw,
	}
}

type apiResponse struct {
	Result struct {
		// Keyed by "2006-01-02 15:04:05" in the plant's local time
		Watts map[string]float64 `json:"watts"`
	} `json:"result"`
}

func (f ForecastSolar) GetSolarForecast(ctx context.Context) ([]types.SolarForecastPoint, error) {
	url := fmt.Sprintf("%s/estimate/%0.4f/%0.4f/%0.0f/%0.0f/%0.2f",
		baseUrl, f.latitude, f.longitude, f.declination, f.azimuth, f.peakKw)

	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	client := &http.Client{}
	res, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("error getting solar forecast: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", res.StatusCode)
	}

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, fmt.Errorf("error reading solar forecast body: %w", err)
	}

	var data apiResponse
	if err := json.Unmarshal(body, &data); err != nil {
		return nil, fmt.Errorf("error unmarshaling solar forecast json: %w", err)
	}

	result := make([]types.SolarForecastPoint, 0, len(data.Result.Watts))
	for ts, watts := range data.Result.Watts {
		t, err := time.ParseInLocation("2006-01-02 15:04:05", ts, time.Local)
		if err != nil {
			continue
		}
		result = append(result, types.SolarForecastPoint{
			Hour:  hours.FromTime(t),
			Watts: watts,
		})
	}

	return result, nil
}
