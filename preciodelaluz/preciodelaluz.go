package preciodelaluz

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

const baseUrl = "https://api.preciodelaluz.org"

// PrecioDeLaLuz is the secondary PVPC price provider. It only covers
// the current day, which is good enough as a fallback.
type PrecioDeLaLuz struct {
	zone string // "PCB" for the peninsula, "CYM" for Ceuta/Melilla
}

func New(zone string) PrecioDeLaLuz {
	if zone == "" {
		zone = "PCB"
	}
	return PrecioDeLaLuz{zone: zone}
}

type rawPrice struct {
	Date  string  `json:"date"`  // "29-08-2026"
	Hour  string  `json:"hour"`  // "14-15"
	Price float64 `json:"price"` // EUR/MWh
}

func (p PrecioDeLaLuz) GetPrices(ctx context.Context) ([]types.PricePoint, error) {
	url := fmt.Sprintf("%s/v1/prices/all?zone=%s", baseUrl, p.zone)

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

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	var raw map[string]rawPrice
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	today := hours.FromTime(hours.SpanishTime(time.Now())).Date
	prices := make([]types.PricePoint, 0, len(raw))
	for _, rp := range raw {
		var from, to int
		if _, err := fmt.Sscanf(rp.Hour, "%d-%d", &from, &to); err != nil {
			continue
		}
		prices = append(prices, types.PricePoint{
			Hour:  hours.DateHour{Date: today, Hour: uint8(from)},
			Price: convert.RoundFloat64(rp.Price/1e3, 5), // EUR/MWh -> EUR/kWh
		})
	}

	return prices, nil
}
