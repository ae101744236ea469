package www

import (
	"log/slog"
	"net/http"

	"github.com/arturonaredo/homebalance-go/forecast"
)

func NewPricesHandler(logger *slog.Logger, prices *forecast.PriceService) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		writeJSON(w, prices.Prices(r.Context()))
	})
}

func NewSolarHandler(logger *slog.Logger, solar *forecast.SolarService) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		writeJSON(w, solar.Forecast(r.Context()))
	})
}
