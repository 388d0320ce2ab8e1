// Package http exposes the assessment API, health probes, metrics and the
// OpenAPI document over HTTP.
package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/couchcryptid/hydro-assess-service/internal/config"
	"github.com/couchcryptid/hydro-assess-service/internal/domain"
	"github.com/couchcryptid/hydro-assess-service/internal/observability"
)

// Assessor runs the recommendation and design engines for a site.
type Assessor interface {
	Assess(ctx context.Context, in domain.SiteInput) (domain.Assessment, error)
	Recommend(ctx context.Context, in domain.SiteInput) (domain.Recommendation, error)
	Groundwater(ctx context.Context, lat, lon float64) (domain.GroundwaterData, error)
	Rates() domain.Rates
}

// Server exposes the API alongside health, readiness, and metrics routes.
type Server struct {
	httpServer *http.Server
	assessor   Assessor
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// NewServer builds the router for the configured address and CORS origins.
func NewServer(cfg *config.Config, a Assessor, ready sharedobs.ReadinessChecker, metrics *observability.Metrics, logger *slog.Logger) *Server {
	s := &Server{
		assessor: a,
		metrics:  metrics,
		logger:   logger,
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.instrument)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.CORSAllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-Id"},
		MaxAge:         300,
	}))

	r.Get("/healthz", sharedobs.LivenessHandler())
	r.Get("/readyz", sharedobs.ReadinessHandler(ready))
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Get("/api/openapi.yaml", serveOpenAPI)
	r.Mount("/swagger", httpSwagger.Handler(
		httpSwagger.URL("/api/openapi.yaml"),
	))

	r.Route("/api/v1", func(api chi.Router) {
		api.Post("/assessments", s.handleAssess)
		api.Post("/recommendations", s.handleRecommend)
		api.Get("/surfaces", s.handleSurfaces)
		api.Get("/rates", s.handleRates)
		api.Get("/groundwater", s.handleGroundwater)
	})

	s.httpServer = &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}
