package www

import (
	"log/slog"
	"net/http"

	"github.com/arturonaredo/homebalance-go/engine"
)

func NewStateHandler(logger *slog.Logger, eng *engine.Engine) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		writeJSON(w, eng.State())
	})
}

func NewPlanHandler(logger *slog.Logger, eng *engine.Engine) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		writeJSON(w, eng.Plan(r.Context()))
	})
}

func NewBalanceHandler(logger *slog.Logger, eng *engine.Engine) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}

		applied := eng.Balance(r.Context())
		logger.Info("balance pass triggered from api", slog.Int("actions", len(applied)))
		writeJSON(w, map[string]any{"applied": applied})
	})
}
