package www

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/arturonaredo/homebalance-go/engine"
)

func NewOverrideHandler(logger *slog.Logger, eng *engine.Engine) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPost:
			var body struct {
				TargetSoc       float64 `json:"targetSoc"`
				DurationMinutes int     `json:"durationMinutes"` // 0 means no expiry
			}
			if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
				writeError(w, http.StatusBadRequest, "invalid request body")
				return
			}
			if body.TargetSoc < 0 || body.TargetSoc > 100 {
				writeError(w, http.StatusBadRequest, "targetSoc must be between 0 and 100")
				return
			}

			var expiresAt *time.Time
			if body.DurationMinutes > 0 {
				t := time.Now().Add(time.Duration(body.DurationMinutes) * time.Minute)
				expiresAt = &t
			}

			if err := eng.SetOverride(r.Context(), body.TargetSoc, expiresAt); err != nil {
				logger.Error("failed to set override", slog.Any("error", err))
				writeError(w, http.StatusInternalServerError, "failed to set override")
				return
			}
			writeJSON(w, map[string]bool{"ok": true})

		case http.MethodDelete:
			if err := eng.ClearOverride(r.Context()); err != nil {
				logger.Error("failed to clear override", slog.Any("error", err))
				writeError(w, http.StatusInternalServerError, "failed to clear override")
				return
			}
			writeJSON(w, map[string]bool{"ok": true})

		default:
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		}
	})
}

func NewDndHandler(logger *slog.Logger, eng *engine.Engine) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}

		var body struct {
			DurationMinutes int `json:"durationMinutes"` // 0 clears the window
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		until := time.Now().Add(time.Duration(body.DurationMinutes) * time.Minute)
		if body.DurationMinutes <= 0 {
			until = time.Time{}
		}

		if err := eng.SetDnd(r.Context(), until); err != nil {
			logger.Error("failed to set do-not-disturb", slog.Any("error", err))
			writeError(w, http.StatusInternalServerError, "failed to set do-not-disturb")
			return
		}
		writeJSON(w, map[string]any{"dndUntil": until})
	})
}
