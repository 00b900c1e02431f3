// Package server provides the HTTP server for the mudra hand pipeline: the
// settings and model API, the phone controller and presence websockets and
// the camera preview stream.
package server

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/ayusman/mudra/internal/app"
	"github.com/ayusman/mudra/internal/server/api"
	"github.com/ayusman/mudra/internal/store"
)

// Config holds the server configuration.
type Config struct {
	StaticDir string
	Store     *store.Store
	App       *app.App
	Logger    *slog.Logger
}

// Server represents the HTTP server for the mudra application.
type Server struct {
	config   Config
	log      *slog.Logger
	mux      *http.ServeMux
	start    time.Time
	presence *PresenceHub
}

// New creates a new Server with the given configuration.
func New(config Config) *Server {
	log := config.Logger
	if log == nil {
		log = slog.Default()
	}
	s := &Server{
		config: config,
		log:    log,
		mux:    http.NewServeMux(),
		start:  time.Now(),
	}
	s.setupRoutes()
	return s
}

// setupRoutes configures all HTTP routes for the server.
func (s *Server) setupRoutes() {
	s.mux.HandleFunc("/api/health", s.handleHealth)

	if s.config.Store != nil {
		var sel api.ModelSelector
		if s.config.App != nil {
			sel = s.config.App
		}
		models := api.NewModelHandler(s.config.Store, sel)
		s.mux.Handle("/api/models", models)
		s.mux.Handle("/api/models/", models)
	}

	if a := s.config.App; a != nil {
		s.mux.Handle("/api/settings", api.NewSettingsHandler(a))
		s.mux.Handle("/api/tracking", api.NewTrackingHandler(a))
		s.mux.Handle("/api/phone", NewPhoneHandler(a, s.log))
		s.mux.Handle("/api/stream", NewStreamHandler(a))

		s.presence = NewPresenceHub(a, s.log)
		s.mux.Handle("/api/presence", s.presence)
	}

	if s.config.StaticDir != "" {
		fs := http.FileServer(http.Dir(s.config.StaticDir))
		s.mux.Handle("/", fs)
	}
}

// ServeHTTP implements the http.Handler interface.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// handleHealth handles GET requests to /api/health.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	response := map[string]any{
		"status": "ok",
		"uptime": time.Since(s.start).String(),
	}
	if a := s.config.App; a != nil {
		response["model"] = a.ModelID()
		response["camera"] = a.CameraRunning()
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(response); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
		return
	}
}

// Close disconnects presence peers and stops relaying local snapshots.
func (s *Server) Close() {
	if s.presence != nil {
		s.presence.Close()
	}
}

// ListenAndServe starts the HTTP server on the given address.
func (s *Server) ListenAndServe(addr string) error {
	return http.ListenAndServe(addr, s)
}
