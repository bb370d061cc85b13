// Package location provides the walk's starting coordinate, falling back to a
// fixed point when the device position cannot be read.
package location

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/touchgrass/touchgrass/internal/walk"
)

var (
	// ErrPermissionDenied is returned by positioners when the user refused access.
	ErrPermissionDenied = errors.New("location permission denied")
	// ErrNotSupported is returned when the platform has no positioning at all.
	ErrNotSupported = errors.New("geolocation not supported")
)

// User-facing messages attached to the fallback error.
const (
	MessageUnavailable  = "Could not get your location. Using default location."
	MessageNotSupported = "Geolocation not supported. Using default location."
)

// SanFrancisco is the default fallback: San Francisco city center.
var SanFrancisco = walk.Coordinate{Lat: 37.7749, Lon: -122.4194}

// Positioner reads the device position.
type Positioner interface {
	Position(ctx context.Context) (walk.Coordinate, error)
}

// PositionerFunc adapts a function to Positioner.
type PositionerFunc func(ctx context.Context) (walk.Coordinate, error)

// Position calls f.
func (f PositionerFunc) Position(ctx context.Context) (walk.Coordinate, error) {
	return f(ctx)
}

// Static always reports c.
func Static(c walk.Coordinate) Positioner {
	return PositionerFunc(func(context.Context) (walk.Coordinate, error) { return c, nil })
}

// Denied always fails with ErrPermissionDenied.
func Denied() Positioner {
	return PositionerFunc(func(context.Context) (walk.Coordinate, error) {
		return walk.Coordinate{}, ErrPermissionDenied
	})
}

// ProviderConfig holds configuration for the location provider.
type ProviderConfig struct {
	// Positioner reads the device position. Nil means positioning is unsupported.
	Positioner Positioner

	// Fallback is returned whenever the position cannot be read.
	// Default: SanFrancisco
	Fallback *walk.Coordinate

	// Timeout bounds the single positioning attempt. Default: 10 seconds
	Timeout time.Duration

	Logger zerolog.Logger
}

// Provider acquires the current coordinate.
type Provider struct {
	positioner Positioner
	fallback   walk.Coordinate
	timeout    time.Duration
	logger     zerolog.Logger
}

// NewProvider creates a location provider.
func NewProvider(cfg ProviderConfig) *Provider {
	fallback := SanFrancisco
	if cfg.Fallback != nil {
		fallback = *cfg.Fallback
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	return &Provider{
		positioner: cfg.Positioner,
		fallback:   fallback,
		timeout:    timeout,
		logger:     cfg.Logger,
	}
}

// Fallback returns the coordinate used when positioning fails.
func (p *Provider) Fallback() walk.Coordinate {
	return p.fallback
}

// Acquire makes one positioning attempt. On any failure it still returns a
// usable coordinate (the fallback) together with a non-fatal *walk.Error
// wrapping walk.ErrLocationUnavailable. There is no retry.
func (p *Provider) Acquire(ctx context.Context) (walk.Coordinate, error) {
	if p.positioner == nil {
		return p.fallback, p.unavailable(ErrNotSupported)
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	type result struct {
		c   walk.Coordinate
		err error
	}
	done := make(chan result, 1)
	go func() {
		c, err := p.positioner.Position(ctx)
		done <- result{c, err}
	}()

	var r result
	select {
	case r = <-done:
	case <-ctx.Done():
		r.err = ctx.Err()
	}

	if r.err == nil {
		if err := r.c.Validate(); err != nil {
			r.err = fmt.Errorf("positioner returned %v: %w", r.c, err)
		}
	}
	if r.err != nil {
		return p.fallback, p.unavailable(r.err)
	}

	p.logger.Debug().
		Float64("lat", r.c.Lat).
		Float64("lon", r.c.Lon).
		Msg("device position acquired")
	return r.c, nil
}

func (p *Provider) unavailable(cause error) error {
	e := &walk.Error{
		Code:    "LOCATION_UNAVAILABLE",
		Message: MessageUnavailable,
		Err:     walk.ErrLocationUnavailable,
		Cause:   cause,
	}
	if errors.Is(cause, ErrNotSupported) {
		e.Code = "GEOLOCATION_UNSUPPORTED"
		e.Message = MessageNotSupported
	}

	p.logger.Info().
		Err(cause).
		Float64("fallback_lat", p.fallback.Lat).
		Float64("fallback_lon", p.fallback.Lon).
		Msg("using fallback location")
	return e
}

// Reported is a Positioner fed by a remote client, which reports either its
// position or the reason it has none. Until something is reported it behaves
// as unsupported.
type Reported struct {
	mu  sync.RWMutex
	pos *walk.Coordinate
	err error
}

// Report records a position.
func (r *Reported) Report(c walk.Coordinate) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pos = &c
	r.err = nil
}

// ReportError records why no position is available.
func (r *Reported) ReportError(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pos = nil
	r.err = err
}

// Position returns the last report.
func (r *Reported) Position(context.Context) (walk.Coordinate, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	switch {
	case r.pos != nil:
		return *r.pos, nil
	case r.err != nil:
		return walk.Coordinate{}, r.err
	default:
		return walk.Coordinate{}, ErrNotSupported
	}
}
