package www

import (
	"crypto/subtle"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/gorilla/sessions"

	"github.com/arturonaredo/homebalance-go/config"
)

const sessionName = "homebalance"

// auth wraps the cookie-session login. With no password configured
// every request passes through, for installs on a trusted LAN.
type auth struct {
	logger   *slog.Logger
	password string
	store    *sessions.CookieStore
}

func newAuth(logger *slog.Logger, cnfg config.AppConfigApi) *auth {
	secret := cnfg.SessionSecret
	if secret == "" {
		secret = "homebalance-dev-secret"
	}
	store := sessions.NewCookieStore([]byte(secret))
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   86400 * 7,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
	return &auth{logger: logger, password: cnfg.Password, store: store}
}

func (a *auth) enabled() bool {
	return a.password != ""
}

func (a *auth) loggedIn(r *http.Request) bool {
	session, err := a.store.Get(r, sessionName)
	if err != nil {
		return false
	}
	ok, _ := session.Values["authenticated"].(bool)
	return ok
}

// require guards the API and websocket endpoints.
func (a *auth) require(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if a.enabled() && !a.loggedIn(r) {
			writeError(w, http.StatusUnauthorized, "not authenticated")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (a *auth) loginHandler(w http.ResponseWriter, r *http.Request) {
	if !a.enabled() {
		writeJSON(w, map[string]bool{"authenticated": true})
		return
	}

	var body struct {
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if subtle.ConstantTimeCompare([]byte(body.Password), []byte(a.password)) != 1 {
		a.logger.Warn("failed login attempt", slog.String("remoteAddr", r.RemoteAddr))
		writeError(w, http.StatusUnauthorized, "wrong password")
		return
	}

	session, _ := a.store.Get(r, sessionName)
	session.Values["authenticated"] = true
	if err := session.Save(r, w); err != nil {
		a.logger.Error("failed to save session", slog.Any("error", err))
		writeError(w, http.StatusInternalServerError, "session error")
		return
	}

	writeJSON(w, map[string]bool{"authenticated": true})
}

func (a *auth) logoutHandler(w http.ResponseWriter, r *http.Request) {
	session, _ := a.store.Get(r, sessionName)
	session.Values["authenticated"] = false
	session.Options.MaxAge = -1
	if err := session.Save(r, w); err != nil {
		a.logger.Error("failed to clear session", slog.Any("error", err))
	}
	writeJSON(w, map[string]bool{"authenticated": false})
}
