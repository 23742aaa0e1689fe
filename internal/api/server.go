// Package api provides the operator HTTP API of the labeler station.
package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/canlabel/labeler-station/internal/ratelimit"
	"github.com/canlabel/labeler-station/internal/sse"
)

// ServerConfig holds HTTP concerns that do not belong to any service.
type ServerConfig struct {
	StationName string
	Version     string
	CORSOrigins []string
	// RequestsPerSecond and Burst limit API calls per client address.
	RequestsPerSecond float64
	Burst             int
}

// Server holds dependencies for HTTP handlers.
type Server struct {
	services   *Services
	router     *chi.Mux
	api        huma.API
	sseHandler *sse.Handler
	limiter    *ratelimit.KeyedRateLimiter
	cfg        ServerConfig
	logger     *slog.Logger
	startedAt  time.Time
}

// NewServer creates a new HTTP server with all routes configured.
func NewServer(services *Services, cfg ServerConfig, logger *slog.Logger) *Server {
	if cfg.RequestsPerSecond <= 0 {
		cfg.RequestsPerSecond = DefaultRequestsPerSecond
	}
	if cfg.Burst <= 0 {
		cfg.Burst = DefaultBurst
	}
	if cfg.Version == "" {
		cfg.Version = "dev"
	}

	router := chi.NewRouter()

	s := &Server{
		services:  services,
		router:    router,
		limiter:   ratelimit.New(cfg.RequestsPerSecond, cfg.Burst),
		cfg:       cfg,
		logger:    logger,
		startedAt: time.Now(),
	}
	if services.SSEManager != nil {
		s.sseHandler = sse.NewHandler(services.SSEManager, logger.With(slog.String("component", "sse")))
	}

	s.setupMiddleware()

	humaConfig := huma.DefaultConfig(cfg.StationName+" API", cfg.Version)
	humaConfig.Info.Description = "Operator API of a can labeler station"
	humaConfig.Transformers = append(humaConfig.Transformers, EnvelopeTransformer)
	s.api = humachi.New(router, humaConfig)
	RegisterErrorHandler()

	s.setupRoutes()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// API returns the huma API, used by tests and OpenAPI export.
func (s *Server) API() huma.API {
	return s.api
}

// Shutdown releases the request limiter.
func (s *Server) Shutdown() {
	s.limiter.Stop()
}

// setupMiddleware configures middleware stack.
func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(requestLogger(s.logger))
	s.router.Use(middleware.Recoverer)
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.cfg.CORSOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{"X-Request-ID"},
		MaxAge:         300,
	}))
	s.router.Use(RateLimitMiddleware(s.limiter, s.logger))
}

// setupRoutes registers huma operations and the raw handlers huma cannot describe.
func (s *Server) setupRoutes() {
	s.registerHealthRoutes()
	s.registerCatalogRoutes()
	s.registerWorkflowRoutes()
	s.registerRecordRoutes()
	s.registerScaleRoutes()

	// Streams and exposition formats bypass the JSON envelope.
	if s.sseHandler != nil {
		s.router.Get("/api/v1/events", s.sseHandler.ServeHTTP)
	}
	if s.services.Metrics != nil {
		s.router.Get("/metrics", s.services.Metrics.Handler().ServeHTTP)
	}
}
