// Package api provides the HTTP API for Touch Grass.
package api

import (
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/touchgrass/touchgrass/internal/api/handler"
	"github.com/touchgrass/touchgrass/internal/api/middleware"
	"github.com/touchgrass/touchgrass/internal/resilience"
)

// RouterConfig holds configuration for the router.
type RouterConfig struct {
	Version    string
	BuildTime  string
	Logger     zerolog.Logger
	Metrics    *middleware.Metrics
	RequireTLS bool

	Sessions handler.SessionStore
	Catalog  handler.VibeLister
	Backend  handler.BackendChecker
	Monitor  *resilience.Monitor
	Map      handler.MapConfig
}

// NewRouter creates a new chi router with all API routes configured.
func NewRouter(cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	// Global middleware - order matters
	r.Use(middleware.RequestID) // Generate/propagate request ID first
	r.Use(middleware.Tracing())
	if cfg.Metrics != nil {
		r.Use(cfg.Metrics.Middleware())
	}
	r.Use(middleware.Logger(cfg.Logger))
	r.Use(middleware.Recovery(cfg.Logger))
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.SecurityHeaders)
	r.Use(middleware.RequireTLS(cfg.RequireTLS))
	r.Use(middleware.RequireJSON)

	opsHandler := handler.NewOpsHandler(handler.OpsConfig{
		Version:   cfg.Version,
		BuildTime: cfg.BuildTime,
		Backend:   cfg.Backend,
		Monitor:   cfg.Monitor,
	})
	vibeHandler := handler.NewVibeHandler(cfg.Catalog)
	sessionHandler := handler.NewSessionHandler(cfg.Sessions)
	mapHandler := handler.NewMapHandler(cfg.Map)

	standardRateLimit := middleware.RateLimitByIP(middleware.StandardRateLimit)
	// Detection, geocoding and generation all reach the backend's paid APIs.
	expensiveRateLimit := middleware.RateLimitBySession(middleware.ExpensiveRateLimit)

	r.Route("/v1", func(r chi.Router) {
		r.Route("/ops", func(r chi.Router) {
			r.Get("/health", opsHandler.HealthCheck)
			r.Get("/status", opsHandler.SystemStatus)
		})

		r.Group(func(r chi.Router) {
			r.Use(standardRateLimit)

			r.Get("/vibes", vibeHandler.ListVibes)
			r.Get("/map/config", mapHandler.GetMapConfig)

			r.Post("/sessions", sessionHandler.CreateSession)
			r.Route("/sessions/{"+middleware.SessionParam+"}", func(r chi.Router) {
				r.Get("/", sessionHandler.GetSession)
				r.Delete("/", sessionHandler.DeleteSession)

				r.Put("/position", sessionHandler.ReportPosition)
				r.Put("/mood", sessionHandler.SetMood)
				r.Delete("/mood/location", sessionHandler.ClearMoodLocation)
				r.Put("/vibe", sessionHandler.SelectVibe)
				r.Put("/duration", sessionHandler.SetDuration)
				r.Put("/shape", sessionHandler.SetShape)
				r.Delete("/destination", sessionHandler.ClearDestination)
				r.Get("/map", sessionHandler.GetMap)

				r.Group(func(r chi.Router) {
					r.Use(expensiveRateLimit)
					r.Post("/mood:detect", sessionHandler.DetectVibe)
					r.Put("/destination", sessionHandler.ResolveDestination)
					r.Post("/routes:generate", sessionHandler.GenerateRoute)
				})
			})
		})
	})

	return r
}
