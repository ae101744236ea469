package ree

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/arturonaredo/homebalance-go/convert"
	"github.com/arturonaredo/homebalance-go/hours"
	"github.com/arturonaredo/homebalance-go/types"
)

const baseUrl = "https://apidatos.ree.es"

// Ree fetches PVPC hourly prices from the Red Eléctrica data API.
type Ree struct{}

func New() Ree {
	return Ree{}
}

type apiResponse struct {
	Included []struct {
		Type       string `json:"type"`
		Attributes struct {
			Title  string `json:"title"`
			Values []struct {
				Value    float64   `json:"value"` // EUR/MWh
				Datetime time.Time `json:"datetime"`
			} `json:"values"`
		} `json:"attributes"`
	} `json:"included"`
}

func (r Ree) GetPrices(ctx context.Context) ([]types.PricePoint, error) {
	t := hours.SpanishTime(time.Now())
	today, err := r.getPrices(ctx, t)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch prices for today: %w", err)
	}

	// Tomorrow's prices are published around 20:15, a 404/empty answer
	// before that is normal.
	tomorrow, err := r.getPrices(ctx, t.AddDate(0, 0, 1))
	if err != nil {
		return today, nil
	}

	return append(today, tomorrow...), nil
}

func (r Ree) getPrices(ctx context.Context, date time.Time) ([]types.PricePoint, error) {
	url := fmt.Sprintf("%s/es/datos/mercados/precios-mercados-tiempo-real?start_date=%sT00:00&end_date=%sT23:59&time_trunc=hour",
		baseUrl,
		date.Format("2006-01-02"),
		date.Format("2006-01-02"))

	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	client := &http.Client{}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch prices: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return []types.PricePoint{}, nil
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	var data apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	prices := make([]types.PricePoint, 0, 24)
	for _, series := range data.Included {
		if series.Attributes.Title != "PVPC" {
			continue
		}
		for _, v := range series.Attributes.Values {
			prices = append(prices, types.PricePoint{
				Hour:  hours.FromTime(v.Datetime),
				Price: convert.RoundFloat64(v.Value/1e3, 5), // EUR/MWh -> EUR/kWh
			})
		}
	}

	return prices, nil
}
