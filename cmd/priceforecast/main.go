package main

import (
	"context"
	"fmt"

	"github.com/arturonaredo/homebalance-go/preciodelaluz"
	"github.com/arturonaredo/homebalance-go/ree"
	"github.com/arturonaredo/homebalance-go/types"
)

// Fetches today's (and tomorrow's when published) PVPC prices from
// both providers and prints them, for checking the parsers against the
// live APIs.
func main() {
	providers := map[string]types.PriceProvider{
		"ree":           ree.New(),
		"preciodelaluz": preciodelaluz.New("PCB"),
	}

	for name, provider := range providers {
		prices, err := provider.GetPrices(context.Background())
		if err != nil {
			fmt.Printf("%s: error: %v\n", name, err)
			continue
		}
		for _, p := range prices {
			fmt.Printf("%s: %s %.5f EUR/kWh\n", name, p.Hour.String(), p.Price)
		}
	}
}
