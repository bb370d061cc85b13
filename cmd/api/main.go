// Package main provides the entrypoint for the Touch Grass session API server.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/touchgrass/touchgrass/internal/api"
	"github.com/touchgrass/touchgrass/internal/api/handler"
	"github.com/touchgrass/touchgrass/internal/api/middleware"
	"github.com/touchgrass/touchgrass/internal/backend"
	"github.com/touchgrass/touchgrass/internal/config"
	"github.com/touchgrass/touchgrass/internal/resilience"
	"github.com/touchgrass/touchgrass/internal/session"
	"github.com/touchgrass/touchgrass/internal/telemetry"
	"github.com/touchgrass/touchgrass/internal/vibe"
)

// Version and BuildTime are set at compile time via ldflags.
var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	const serviceName = "touchgrass-api"

	// Setup structured logging
	log := zerolog.New(os.Stdout).
		With().
		Timestamp().
		Str("service", serviceName).
		Str("version", Version).
		Logger()

	cfg, err := config.Load(".env")
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}
	log = log.Level(cfg.Level())
	for _, w := range cfg.Warnings {
		log.Warn().Msg(w)
	}

	log.Info().
		Str("build_time", BuildTime).
		Str("env", cfg.Environment).
		Msg("starting Touch Grass API")

	// Initialize OpenTelemetry
	ctx := context.Background()
	tp, err := telemetry.Init(ctx, telemetry.Config{
		ServiceName:    serviceName,
		ServiceVersion: Version,
		Environment:    cfg.Environment,
		OTLPEndpoint:   cfg.OTLPEndpoint,
		Enabled:        cfg.OTelEnabled,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize telemetry")
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if shutdownErr := tp.Shutdown(shutdownCtx); shutdownErr != nil {
			log.Error().Err(shutdownErr).Msg("failed to shutdown telemetry")
		}
	}()

	if cfg.OTelEnabled {
		log.Info().
			Str("otlp_endpoint", cfg.OTLPEndpoint).
			Msg("OpenTelemetry initialized")
	}

	// Initialize metrics
	httpMetrics, err := middleware.NewMetrics()
	if err != nil {
		log.Error().Err(err).Msg("failed to initialize metrics")
		os.Exit(1) //nolint:gocritic // intentional exit, telemetry cleanup is best-effort
	}
	upstreamMetrics, err := telemetry.NewUpstreamMetrics()
	if err != nil {
		log.Error().Err(err).Msg("failed to initialize upstream metrics")
		os.Exit(1)
	}
	routeMetrics, err := telemetry.NewRouteMetrics()
	if err != nil {
		log.Error().Err(err).Msg("failed to initialize route metrics")
		os.Exit(1)
	}

	// Route backend behind a circuit breaker
	monitor := resilience.NewMonitor()
	client := backend.NewClient(backend.ClientConfig{
		BaseURL: cfg.APIURL,
		Timeout: cfg.BackendTimeout,
		Monitor: monitor,
		Metrics: upstreamMetrics,
		Logger:  log.With().Str("component", "backend").Logger(),
	})
	log.Info().Str("base_url", client.BaseURL()).Msg("route backend configured")

	catalog := vibe.NewCatalog(vibe.CatalogConfig{
		Lister:  client,
		Metrics: upstreamMetrics,
		Logger:  log,
	})

	fallback := cfg.Fallback()
	store := session.NewStore(session.StoreConfig{
		Backend:         client,
		TTL:             cfg.SessionTTL,
		Fallback:        &fallback,
		RouteMetrics:    routeMetrics,
		UpstreamMetrics: upstreamMetrics,
		Logger:          log,
	})

	if cfg.MapboxToken == "" {
		log.Warn().Msg("MAPBOX_TOKEN not set - clients will not be able to draw the map")
	}

	// Create router with configuration
	router := api.NewRouter(api.RouterConfig{
		Version:    Version,
		BuildTime:  BuildTime,
		Logger:     log,
		Metrics:    httpMetrics,
		RequireTLS: cfg.RequireTLS,
		Sessions:   store,
		Catalog:    catalog,
		Backend:    client,
		Monitor:    monitor,
		Map: handler.MapConfig{
			Token:  cfg.MapboxToken,
			Center: &fallback,
		},
	})

	// Create HTTP server. Route generation can take as long as the backend
	// timeout, so writes get that plus headroom.
	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: cfg.BackendTimeout + 15*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Info().
			Str("addr", server.Addr).
			Msg("server listening")

		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server")

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
		os.Exit(1)
	}

	log.Info().Int("open_sessions", store.Len()).Msg("server stopped")
}
