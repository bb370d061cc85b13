package vibe

import (
	"context"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/rs/zerolog"

	"github.com/touchgrass/touchgrass/internal/telemetry"
	"github.com/touchgrass/touchgrass/internal/walk"
)

const catalogKey = "vibes"

// Lister fetches the vibe catalog remotely.
type Lister interface {
	ListVibes(ctx context.Context) ([]walk.VibeInfo, error)
}

// CatalogConfig holds configuration for the catalog.
type CatalogConfig struct {
	Lister Lister

	// TTL for a successfully fetched list. Default: 10 minutes
	TTL time.Duration

	Metrics *telemetry.UpstreamMetrics
	Logger  zerolog.Logger
}

// Catalog lists the available vibes, caching the backend's answer.
type Catalog struct {
	lister  Lister
	cache   *cache.Cache
	metrics *telemetry.UpstreamMetrics
	logger  zerolog.Logger
}

// NewCatalog creates a catalog.
func NewCatalog(cfg CatalogConfig) *Catalog {
	ttl := cfg.TTL
	if ttl == 0 {
		ttl = 10 * time.Minute
	}
	return &Catalog{
		lister:  cfg.Lister,
		cache:   cache.New(ttl, 2*ttl),
		metrics: cfg.Metrics,
		logger:  cfg.Logger,
	}
}

// List never fails: when the backend cannot be reached the fixed fallback
// catalog is returned and nothing is cached, so the next call tries again.
func (c *Catalog) List(ctx context.Context) []walk.VibeInfo {
	if cached, found := c.cache.Get(catalogKey); found {
		c.metrics.RecordCache(ctx, catalogKey, true)
		return clone(cached.([]walk.VibeInfo))
	}
	c.metrics.RecordCache(ctx, catalogKey, false)

	if c.lister == nil {
		return walk.FallbackVibes()
	}

	vibes, err := c.lister.ListVibes(ctx)
	if err != nil {
		c.logger.Warn().Err(err).Msg("vibe catalog unavailable, using fallback")
		return walk.FallbackVibes()
	}

	c.cache.Set(catalogKey, clone(vibes), cache.DefaultExpiration)
	return vibes
}

func clone(v []walk.VibeInfo) []walk.VibeInfo {
	return append([]walk.VibeInfo(nil), v...)
}
