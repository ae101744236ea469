package main

import (
	"context"
	"flag"
	"fmt"

	"github.com/arturonaredo/homebalance-go/config"
	"github.com/arturonaredo/homebalance-go/forecastsolar"
)

// Fetches the solar production estimate for the configured plant and
// prints it.
func main() {
	configPath := flag.String("config", "", "path to config file")
	flag.Parse()

	cnfg, err := config.Load(*configPath)
	if err != nil {
		panic(err)
	}

	fs := forecastsolar.New(
		cnfg.SolarForecast.Latitude,
		cnfg.SolarForecast.Longitude,
		cnfg.SolarForecast.GetDeclination(),
		cnfg.SolarForecast.GetAzimuth(),
		cnfg.SolarForecast.PeakKw)

	points, err := fs.GetSolarForecast(context.Background())
	if err != nil {
		panic(err)
	}

	for _, p := range points {
		fmt.Printf("%s %.0f W\n", p.Hour.String(), p.Watts)
	}
}
