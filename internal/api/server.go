// Package api provides the HTTP server for tend: progression endpoints,
// health, and Prometheus metrics.
package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/tendlog/tend/internal/app/insight"
	"github.com/tendlog/tend/internal/app/progression"
	"github.com/tendlog/tend/internal/health"
)

// Server is the tend HTTP API server.
type Server struct {
	svc            *progression.Service
	insight        *insight.Client
	health         *health.Checker
	log            *logrus.Entry
	metricsEnabled bool
	version        string
}

// NewServer creates the API server. The insight client may be nil when no
// collaborator endpoint is configured.
func NewServer(svc *progression.Service, ins *insight.Client, log *logrus.Logger) *Server {
	return &Server{
		svc:     svc,
		insight: ins,
		log:     log.WithField("component", "api"),
		version: "0.1.0",
	}
}

// EnableMetrics enables the /metrics Prometheus endpoint.
func (s *Server) EnableMetrics() { s.metricsEnabled = true }

// SetHealth attaches the periodic health checker to /health.
func (s *Server) SetHealth(h *health.Checker) { s.health = h }

// Handler returns the chi router with all routes mounted.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(time.Minute))
	r.Use(corsMiddleware)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		if s.health != nil && !s.health.IsHealthy() {
			writeJSON(w, http.StatusServiceUnavailable, map[string]interface{}{
				"status": "degraded",
				"checks": s.health.Statuses(),
			})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Get("/api/version", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"version": s.version})
	})

	r.Route("/api", func(r chi.Router) {
		r.Post("/signals", s.handleLogSignal)
		r.Post("/reflections", s.handleSubmitReflection)

		r.Get("/subskills", s.handleListSubskills)
		r.Post("/subskills", s.handleUpsertSubskill)

		r.Get("/progress", s.handleProgress)
		r.Get("/streak", s.handleStreak)
		r.Get("/quests", s.handleQuests)
		r.Get("/timeline", s.handleTimeline)
		r.Get("/activity", s.handleActivity)
		r.Get("/history", s.handleHistory)
		r.Get("/insight", s.handleInsight)
	})

	if s.metricsEnabled {
		r.Handle("/metrics", promhttp.Handler())
	}

	return r
}

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]interface{}{
		"error": map[string]interface{}{
			"message": msg,
			"type":    "error",
		},
	})
}

// corsMiddleware adds CORS headers for local development.
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}
