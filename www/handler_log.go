package www

import (
	"log/slog"
	"net/http"

	"github.com/arturonaredo/homebalance-go/database"
	"github.com/arturonaredo/homebalance-go/hours"
	"github.com/arturonaredo/homebalance-go/logging"
)

type logEntry struct {
	Timestamp string `json:"timestamp"`
	Level     int    `json:"level"`
	Message   string `json:"message"`
	Attrs     string `json:"attrs"`
}

func NewLogHandler(logger *slog.Logger, db *database.Database) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}

		level := r.URL.Query().Get("level")
		minLvl := logging.LevelFromString(&level)
		page := intOrDefault(r.URL, "page", 1)
		pageSize := intOrDefault(r.URL, "pageSize", 50)

		rows, err := db.GetLogEntries(r.Context(), minLvl, page, pageSize)
		if err != nil {
			logger.Error("failed to fetch log entries", slog.Any("error", err))
			writeError(w, http.StatusInternalServerError, "failed to fetch log entries")
			return
		}

		entries := make([]logEntry, len(rows))
		for i, row := range rows {
			entries[i] = logEntry{
				Timestamp: hours.FormatTimeInGuiTimezone(row.Timestamp),
				Level:     row.Level,
				Message:   row.Message,
				Attrs:     row.Attrs,
			}
		}
		writeJSON(w, entries)
	})
}
