package www

import (
	"log/slog"
	"net/http"

	"github.com/arturonaredo/homebalance-go/database"
	"github.com/arturonaredo/homebalance-go/engine"
)

func NewAlertsHandler(logger *slog.Logger, db *database.Database, eng *engine.Engine) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			limit := intOrDefault(r.URL, "limit", 100)
			history, err := db.GetAlertHistory(r.Context(), limit)
			if err != nil {
				logger.Error("failed to fetch alert history", slog.Any("error", err))
				writeError(w, http.StatusInternalServerError, "failed to fetch alert history")
				return
			}
			writeJSON(w, map[string]any{
				"active":  eng.State().ActiveAlerts,
				"history": history,
			})

		case http.MethodDelete:
			if err := db.ClearAlertHistory(r.Context()); err != nil {
				logger.Error("failed to clear alert history", slog.Any("error", err))
				writeError(w, http.StatusInternalServerError, "failed to clear alert history")
				return
			}
			writeJSON(w, map[string]bool{"ok": true})

		default:
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		}
	})
}
