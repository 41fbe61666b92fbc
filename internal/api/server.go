// Package api exposes the redaction service over HTTP: document inspection
// and redaction, finalized uploads, and per-upload analytics.
package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/ScrubLabs/scrub-web/internal/analytics"
	"github.com/ScrubLabs/scrub-web/internal/clientip"
	"github.com/ScrubLabs/scrub-web/internal/db"
	"github.com/ScrubLabs/scrub-web/internal/logger"
	"github.com/ScrubLabs/scrub-web/internal/platform"
	"github.com/ScrubLabs/scrub-web/internal/ratelimit"
	"github.com/ScrubLabs/scrub-web/internal/redact"
	"github.com/ScrubLabs/scrub-web/internal/storage"
)

// Per-operation timeouts, applied on top of the request context.
const (
	DatabaseTimeout = 10 * time.Second
	StorageTimeout  = 30 * time.Second
)

// Config holds request-handling knobs supplied by cmd/server.
type Config struct {
	AllowedOrigins []string
	MaxBodyBytes   int64
	UploadsPerWeek int
	RateLimitRPS   float64
	RateLimitBurst int
}

// Server holds dependencies for API handlers.
type Server struct {
	db        *db.DB
	storage   *storage.S3Storage
	reports   *analytics.Store
	tables    platform.Tables
	sanitizer *redact.Sanitizer
	stopwords map[string]struct{}
	cfg       Config
	version   string
}

// NewServer creates an API server. The sanitizer is compiled once from the
// tables' pattern rules.
func NewServer(database *db.DB, store *storage.S3Storage, tables platform.Tables, cfg Config, version string) (*Server, error) {
	sanitizer, err := tables.Sanitizer()
	if err != nil {
		return nil, err
	}

	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = 50 << 20
	}
	if cfg.UploadsPerWeek <= 0 {
		cfg.UploadsPerWeek = 10
	}
	if cfg.RateLimitRPS <= 0 {
		cfg.RateLimitRPS = 10
	}
	if cfg.RateLimitBurst <= 0 {
		cfg.RateLimitBurst = 20
	}

	s := &Server{
		db:        database,
		storage:   store,
		tables:    tables,
		sanitizer: sanitizer,
		stopwords: tables.StopwordSet(),
		cfg:       cfg,
		version:   version,
	}
	if database != nil {
		s.reports = analytics.NewStore(database.Conn())
	}
	return s, nil
}

// SetupRoutes configures HTTP routes.
func (s *Server) SetupRoutes() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(clientip.Middleware)
	r.Use(logger.Middleware)
	r.Use(middleware.Recoverer)

	if len(s.cfg.AllowedOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   s.cfg.AllowedOrigins,
			AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Content-Type", "Content-Encoding"},
			AllowCredentials: false,
			MaxAge:           300,
		}))
	}

	// Health check
	r.Get("/health", s.handleHealth)
	r.Get("/", s.handleRoot)

	limiter := ratelimit.NewInMemoryRateLimiter(s.cfg.RateLimitRPS, s.cfg.RateLimitBurst)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(ratelimit.Middleware(limiter))
		r.Use(middleware.RequestSize(s.cfg.MaxBodyBytes))
		r.Use(decompressMiddleware())
		r.Use(middleware.Compress(5, "application/json"))
		r.Use(validateContentType)

		r.Get("/platforms", s.handleListPlatforms)

		r.Post("/documents/inspect", s.handleInspectDocument)
		r.Post("/documents/redact", s.handleRedactDocument)

		r.Post("/uploads", s.handleFinalizeUpload)
		r.Get("/uploads", s.handleListUploads)
		r.Get("/uploads/{uploadID}", s.handleGetUpload)
		r.Get("/uploads/{uploadID}/content", s.handleDownloadUpload)
		r.Get("/uploads/{uploadID}/analytics", s.handleGetAnalytics)
		r.Delete("/uploads/{uploadID}", s.handleDeleteUpload)
	})

	return r
}

// handleHealth returns server health status.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status": "ok",
	})
}

// handleRoot returns API info.
func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"service": "scrub-backend",
		"version": s.version,
	})
}

// respondJSON writes a JSON response.
func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// respondError writes an error JSON response.
func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{
		"error": message,
	})
}
