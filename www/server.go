package www

import (
	"context"
	"embed"
	"encoding/json"
	"fmt"
	"io/fs"
	"log"
	"log/slog"
	"net/http"
	"time"

	"github.com/arturonaredo/homebalance-go/config"
	"github.com/arturonaredo/homebalance-go/database"
	"github.com/arturonaredo/homebalance-go/engine"
	"github.com/arturonaredo/homebalance-go/forecast"
)

//go:embed static
var embeddedStaticDir embed.FS

type Server struct {
	logger *slog.Logger
	config config.AppConfigApi
	hub    *Hub
	auth   *auth
	mux    *http.ServeMux
}

func StartServer(
	db *database.Database,
	eng *engine.Engine,
	prices *forecast.PriceService,
	solar *forecast.SolarService,
	cnfg config.AppConfigApi,
) *Server {
	logger := slog.Default().With("module", "www")

	s := &Server{
		logger: logger,
		config: cnfg,
		hub:    NewHub(logger),
		auth:   newAuth(logger, cnfg),
		mux:    http.NewServeMux(),
	}

	logReqMW := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			s.logger.Debug("http request",
				slog.String("method", r.Method),
				slog.String("url", r.URL.String()),
				slog.String("remoteAddr", r.RemoteAddr))
			next.ServeHTTP(w, r)
		})
	}
	api := func(h http.Handler) http.Handler {
		return logReqMW(s.auth.require(h))
	}

	s.mux.Handle("/", staticFilesHandler())

	s.mux.HandleFunc("/api/login", s.auth.loginHandler)
	s.mux.HandleFunc("/api/logout", s.auth.logoutHandler)

	s.mux.Handle("/api/state", api(NewStateHandler(
		logger.With(slog.String("handler", "state")), eng)))

	s.mux.Handle("/api/plan", api(NewPlanHandler(
		logger.With(slog.String("handler", "plan")), eng)))

	s.mux.Handle("/api/balance", api(NewBalanceHandler(
		logger.With(slog.String("handler", "balance")), eng)))

	s.mux.Handle("/api/override", api(NewOverrideHandler(
		logger.With(slog.String("handler", "override")), eng)))

	s.mux.Handle("/api/dnd", api(NewDndHandler(
		logger.With(slog.String("handler", "dnd")), eng)))

	s.mux.Handle("/api/alerts", api(NewAlertsHandler(
		logger.With(slog.String("handler", "alerts")), db, eng)))

	s.mux.Handle("/api/prices", api(NewPricesHandler(
		logger.With(slog.String("handler", "prices")), prices)))

	s.mux.Handle("/api/solar", api(NewSolarHandler(
		logger.With(slog.String("handler", "solar")), solar)))

	s.mux.Handle("/api/history", api(NewHistoryHandler(
		logger.With(slog.String("handler", "history")), db)))

	s.mux.Handle("/api/log", api(NewLogHandler(
		logger.With(slog.String("handler", "log")), db)))

	s.mux.Handle("/ws", s.auth.require(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		name := r.Header.Get("User-Agent")
		if err := s.hub.Serve(w, r, name); err != nil {
			s.logger.Error("websocket upgrade failed", slog.Any("error", err))
		}
	})))

	return s
}

// BroadcastState pushes a state snapshot to every connected dashboard.
// Wired as the engine's on-change callback.
func (s *Server) BroadcastState(state engine.SystemState) {
	data, err := json.Marshal(state)
	if err != nil {
		s.logger.Error("failed to marshal state for broadcast", slog.Any("error", err))
		return
	}
	s.hub.Broadcast(data)
}

func (s *Server) Run(ctx context.Context) {
	s.logger.Info("starting server...", "address", s.config.Address, "port", s.config.Port)
	srv := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", s.config.Address, s.config.Port),
		Handler: s.mux,
	}

	srvErrors := make(chan error, 1)

	go func() {
		srvErrors <- srv.ListenAndServe()
	}()

	for {
		select {
		case err := <-srvErrors:
			if err != nil && err != http.ErrServerClosed {
				s.logger.Error("server error", slog.Any("error", err))
			}

		case <-ctx.Done():
			shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Second*5)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				s.logger.Error("server shutdown failed", slog.Any("error", err))
			}
			return
		}
	}
}

func staticFilesHandler() http.Handler {
	fsys, err := fs.Sub(embeddedStaticDir, "static")
	if err != nil {
		log.Panic(err)
	}
	return http.FileServer(http.FS(fsys))
}
