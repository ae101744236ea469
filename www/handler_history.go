package www

import (
	"log/slog"
	"net/http"

	"github.com/arturonaredo/homebalance-go/database"
	"github.com/arturonaredo/homebalance-go/hours"
)

func NewHistoryHandler(logger *slog.Logger, db *database.Database) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}

		hoursBack := intOrDefault(r.URL, "hours", 24)
		rows, err := db.GetStateHistoryFrom(r.Context(), hours.FromNow().Sub(hoursBack))
		if err != nil {
			logger.Error("failed to fetch state history", slog.Any("error", err))
			writeError(w, http.StatusInternalServerError, "failed to fetch state history")
			return
		}
		writeJSON(w, rows)
	})
}
