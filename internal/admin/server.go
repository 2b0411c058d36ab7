// Package admin serves a small status surface for a running simulator.
package admin

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"html/template"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"smartiot-sim/internal/config"
	"smartiot-sim/internal/sim"
	"smartiot-sim/internal/telemetry"
)

// Simulator is the view of the running simulator the server needs.
type Simulator interface {
	Status() sim.Status
	Health() telemetry.HealthSummary
	Thresholds() config.Thresholds
	TogglePresentationNoise() bool
	SetPresentationNoise(enabled bool)
}

type Server struct {
	Sim    Simulator
	tpl    *template.Template
	router *chi.Mux
	log    *slog.Logger
}

//go:embed templates/index.html
var content embed.FS

func NewServer(s Simulator, log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}
	tpl := template.Must(template.New("index.html").ParseFS(content, "templates/index.html"))
	srv := &Server{Sim: s, tpl: tpl, router: chi.NewRouter(), log: log}
	srv.routes()
	return srv
}

func (s *Server) routes() {
	s.router.Use(middleware.Recoverer)
	s.router.Get("/", s.handleIndex)
	s.router.Get("/status", s.handleStatus)
	s.router.Get("/health", s.handleHealth)
	s.router.Get("/thresholds", s.handleThresholds)
	s.router.Post("/presentation-noise", s.handleTogglePresentationNoise)
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Start listens on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context, addr string) error {
	hs := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 5 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		s.log.Info("admin server listening", "addr", addr)
		errCh <- hs.ListenAndServe()
	}()
	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := hs.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Warn("admin response failed", "err", err)
	}
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	data := struct {
		Status     sim.Status
		Health     telemetry.HealthSummary
		Thresholds config.Thresholds
	}{
		Status:     s.Sim.Status(),
		Health:     s.Sim.Health(),
		Thresholds: s.Sim.Thresholds(),
	}
	if err := s.tpl.Execute(w, data); err != nil {
		s.log.Warn("render index failed", "err", err)
	}
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, s.Sim.Status())
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, s.Sim.Health())
}

func (s *Server) handleThresholds(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, s.Sim.Thresholds())
}

// handleTogglePresentationNoise flips the presentation step, or sets it when
// the request carries ?enabled=true|false.
func (s *Server) handleTogglePresentationNoise(w http.ResponseWriter, r *http.Request) {
	var state bool
	if v := r.URL.Query().Get("enabled"); v != "" {
		enabled, err := strconv.ParseBool(v)
		if err != nil {
			http.Error(w, "enabled must be true or false", http.StatusBadRequest)
			return
		}
		s.Sim.SetPresentationNoise(enabled)
		state = enabled
	} else {
		state = s.Sim.TogglePresentationNoise()
	}
	s.log.Info("presentation noise changed", "enabled", state)
	s.writeJSON(w, map[string]any{"presentation_noise": state})
}
