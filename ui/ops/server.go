// Package ops serves the operator endpoints: health, Prometheus metrics and
// pprof. It runs on its own port and never touches the session.
package ops

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Config holds ops server settings
type Config struct {
	Port    string
	Version string
}

// Server is the operator-facing HTTP surface
type Server struct {
	router    *chi.Mux
	config    Config
	startedAt time.Time
}

// NewServer creates the ops server
func NewServer(config Config) *Server {
	s := &Server{
		router:    chi.NewRouter(),
		config:    config,
		startedAt: time.Now(),
	}
	s.setupMiddleware()
	s.setupRoutes()
	return s
}

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.Logger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Compress(5))
}

func (s *Server) setupRoutes() {
	s.router.Get("/healthz", s.handleHealth)
	s.router.Handle("/metrics", promhttp.Handler())
	s.router.Mount("/debug", middleware.Profiler())
}

type healthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
	Uptime  string `json:"uptime"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(healthResponse{
		Status:  "ok",
		Version: s.config.Version,
		Uptime:  time.Since(s.startedAt).Round(time.Second).String(),
	})
}

// Handler exposes the router, mainly for tests
func (s *Server) Handler() http.Handler {
	return s.router
}

// HTTPServer wraps the router in an http.Server on the configured port
func (s *Server) HTTPServer() *http.Server {
	return &http.Server{
		Addr:              ":" + s.config.Port,
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
	}
}
