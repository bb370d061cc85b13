package session

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
	"github.com/rs/zerolog"

	"github.com/touchgrass/touchgrass/internal/destination"
	"github.com/touchgrass/touchgrass/internal/location"
	"github.com/touchgrass/touchgrass/internal/render"
	"github.com/touchgrass/touchgrass/internal/telemetry"
	"github.com/touchgrass/touchgrass/internal/vibe"
	"github.com/touchgrass/touchgrass/internal/walk"
)

// ErrNotFound is returned for unknown or expired session IDs.
var ErrNotFound = errors.New("session not found")

// Backend is everything a session needs from the route backend.
type Backend interface {
	vibe.Detector
	destination.Geocoder
	Generator
}

// StoreConfig holds configuration for the session store.
type StoreConfig struct {
	Backend Backend

	// TTL after the last access. Default: 30 minutes
	TTL time.Duration

	// Fallback origin when the device position is unknown. Default: San Francisco
	Fallback *walk.Coordinate

	// ArrowSpacingMeters between map direction arrows. Default: renderer default
	ArrowSpacingMeters float64

	// DestinationMemo is shared by every session. Default: 30 minute memo
	DestinationMemo *cache.Cache

	RouteMetrics    *telemetry.RouteMetrics
	UpstreamMetrics *telemetry.UpstreamMetrics
	Logger          zerolog.Logger
}

// Workspace is one session together with the map it draws on and the
// position its client reports.
type Workspace struct {
	ID        string
	Session   *Session
	Map       *render.GeoJSONSurface
	Position  *location.Reported
	CreatedAt time.Time

	unsubscribe func()
}

// Store keeps workspaces in memory and expires idle ones.
type Store struct {
	items  *cache.Cache
	cfg    StoreConfig
	logger zerolog.Logger
}

// NewStore creates a session store.
func NewStore(cfg StoreConfig) *Store {
	if cfg.TTL == 0 {
		cfg.TTL = 30 * time.Minute
	}
	if cfg.DestinationMemo == nil {
		cfg.DestinationMemo = destination.NewMemo(0)
	}

	items := cache.New(cfg.TTL, cfg.TTL/2)
	items.OnEvicted(func(id string, v interface{}) {
		if ws, ok := v.(*Workspace); ok && ws.unsubscribe != nil {
			ws.unsubscribe()
		}
		cfg.Logger.Debug().Str("session_id", id).Msg("session closed")
	})

	return &Store{items: items, cfg: cfg, logger: cfg.Logger}
}

// Create starts a new session. Its map is kept in step with the route.
func (s *Store) Create() *Workspace {
	id := uuid.NewString()
	log := s.logger.With().Str("session_id", id).Logger()

	position := &location.Reported{}
	sess := New(Config{
		Vibes: vibe.NewResolver(vibe.ResolverConfig{
			Detector: s.cfg.Backend,
			Logger:   log,
		}),
		Destinations: destination.NewResolver(destination.ResolverConfig{
			Geocoder: s.cfg.Backend,
			Memo:     s.cfg.DestinationMemo,
			Metrics:  s.cfg.UpstreamMetrics,
			Logger:   log,
		}),
		Location: location.NewProvider(location.ProviderConfig{
			Positioner: position,
			Fallback:   s.cfg.Fallback,
			Logger:     log,
		}),
		Generator: s.cfg.Backend,
		Metrics:   s.cfg.RouteMetrics,
		Logger:    log,
	})

	surface := render.NewGeoJSONSurface()
	renderer := render.NewRenderer(surface, render.RendererConfig{
		ArrowSpacingMeters: s.cfg.ArrowSpacingMeters,
		Logger:             log,
	})

	ws := &Workspace{
		ID:          id,
		Session:     sess,
		Map:         surface,
		Position:    position,
		CreatedAt:   time.Now(),
		unsubscribe: sess.Subscribe(RenderTo(renderer)),
	}
	s.items.Set(id, ws, cache.DefaultExpiration)

	log.Debug().Msg("session created")
	return ws
}

// Get returns a workspace and extends its lifetime.
func (s *Store) Get(id string) (*Workspace, error) {
	v, found := s.items.Get(id)
	if !found {
		return nil, ErrNotFound
	}
	ws := v.(*Workspace)
	s.items.Set(id, ws, cache.DefaultExpiration)
	return ws, nil
}

// Delete closes a session.
func (s *Store) Delete(id string) error {
	if _, found := s.items.Get(id); !found {
		return ErrNotFound
	}
	s.items.Delete(id)
	return nil
}

// Len returns the number of live sessions.
func (s *Store) Len() int {
	return s.items.ItemCount()
}
