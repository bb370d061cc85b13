// Package destination resolves free-text destinations for one-way walks.
package destination

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/rs/zerolog"

	"github.com/touchgrass/touchgrass/internal/telemetry"
	"github.com/touchgrass/touchgrass/internal/walk"
)

// User-facing messages.
const (
	MessageEmptyInput    = "Enter a destination"
	MessageGeocodeFailed = "Could not find that destination. Try a different address."
)

// ErrNoGeocoder is the cause of every lookup on a resolver built without a
// Geocoder.
var ErrNoGeocoder = errors.New("no geocoder configured")

// Geocoder resolves a query to coordinates.
type Geocoder interface {
	Geocode(ctx context.Context, query string) (walk.ResolvedDestination, error)
}

// ResolverConfig holds configuration for the resolver.
type ResolverConfig struct {
	Geocoder Geocoder

	// MemoTTL is how long a successful lookup is reused. Default: 30 minutes
	MemoTTL time.Duration

	// Memo is shared between resolvers when set; otherwise each resolver
	// gets its own.
	Memo *cache.Cache

	Metrics *telemetry.UpstreamMetrics
	Logger  zerolog.Logger
}

// Resolver holds the current destination for one session.
type Resolver struct {
	geocoder Geocoder
	memo     *cache.Cache
	metrics  *telemetry.UpstreamMetrics
	logger   zerolog.Logger

	mu      sync.RWMutex
	current *walk.ResolvedDestination
}

// NewMemo creates a lookup memo that can be shared across resolvers.
func NewMemo(ttl time.Duration) *cache.Cache {
	if ttl == 0 {
		ttl = 30 * time.Minute
	}
	return cache.New(ttl, 2*ttl)
}

// NewResolver creates a resolver.
func NewResolver(cfg ResolverConfig) *Resolver {
	memo := cfg.Memo
	if memo == nil {
		memo = NewMemo(cfg.MemoTTL)
	}
	return &Resolver{
		geocoder: cfg.Geocoder,
		memo:     memo,
		metrics:  cfg.Metrics,
		logger:   cfg.Logger,
	}
}

// Resolve geocodes text and makes the result current. Any failure, including
// no match, clears the current destination and returns walk.ErrGeocodeFailed.
func (r *Resolver) Resolve(ctx context.Context, text string) (walk.ResolvedDestination, error) {
	query := strings.TrimSpace(text)
	if query == "" {
		return walk.ResolvedDestination{}, &walk.Error{
			Code:    "EMPTY_INPUT",
			Message: MessageEmptyInput,
			Err:     walk.ErrEmptyInput,
		}
	}

	key := normalize(query)
	if cached, found := r.memo.Get(key); found {
		r.metrics.RecordCache(ctx, "geocode", true)
		dest := cached.(walk.ResolvedDestination)
		r.set(&dest)
		return dest, nil
	}
	r.metrics.RecordCache(ctx, "geocode", false)

	var dest walk.ResolvedDestination
	err := ErrNoGeocoder
	if r.geocoder != nil {
		dest, err = r.geocoder.Geocode(ctx, query)
	}
	if err == nil {
		err = dest.Coordinate.Validate()
	}
	if err != nil {
		r.set(nil)
		r.logger.Info().Err(err).Str("query", query).Msg("destination not resolved")
		return walk.ResolvedDestination{}, &walk.Error{
			Code:    "GEOCODE_FAILED",
			Message: MessageGeocodeFailed,
			Err:     walk.ErrGeocodeFailed,
			Cause:   err,
		}
	}

	r.memo.Set(key, dest, cache.DefaultExpiration)
	r.set(&dest)
	return dest, nil
}

// Current returns the resolved destination, if any.
func (r *Resolver) Current() (walk.ResolvedDestination, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.current == nil {
		return walk.ResolvedDestination{}, false
	}
	return *r.current, true
}

// Clear forgets the current destination.
func (r *Resolver) Clear() {
	r.set(nil)
}

func (r *Resolver) set(d *walk.ResolvedDestination) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.current = d
}

// normalize makes "  Pier 39 " and "pier  39" share a memo entry.
func normalize(query string) string {
	return strings.ToLower(strings.Join(strings.Fields(query), " "))
}
