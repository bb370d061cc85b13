// Package session owns the state of one walk-planning session and runs the
// generate-route action against it. State changes are published to
// subscribers, one of which is normally the map renderer.
package session

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/touchgrass/touchgrass/internal/backend"
	"github.com/touchgrass/touchgrass/internal/destination"
	"github.com/touchgrass/touchgrass/internal/location"
	"github.com/touchgrass/touchgrass/internal/telemetry"
	"github.com/touchgrass/touchgrass/internal/vibe"
	"github.com/touchgrass/touchgrass/internal/walk"
)

// MessageGenerateFailed is shown when the backend gives no reason.
const MessageGenerateFailed = "Failed to generate route"

// Outcome says what a Generate call did.
type Outcome string

const (
	// OutcomeGenerated means a new route replaced the current one.
	OutcomeGenerated Outcome = "generated"
	// OutcomeVibeDetected means unresolved mood text was detected first and
	// generation stopped there. Calling Generate again proceeds.
	OutcomeVibeDetected Outcome = "vibe_detected"
)

// Generator produces routes.
type Generator interface {
	GenerateRoute(ctx context.Context, req walk.RouteRequest) (walk.RouteResponse, error)
}

// Config holds the collaborators of a session.
type Config struct {
	Vibes        *vibe.Resolver
	Destinations *destination.Resolver
	Location     *location.Provider
	Generator    Generator

	// Shape is the initial route shape. Default: circular
	Shape walk.RouteShape

	// DurationInput is the initial duration field. Default: "30"
	DurationInput string

	Metrics *telemetry.RouteMetrics
	Logger  zerolog.Logger
}

// Session is the explicit owned state of one user's planning flow.
type Session struct {
	vibes        *vibe.Resolver
	destinations *destination.Resolver
	location     *location.Provider
	generator    Generator
	metrics      *telemetry.RouteMetrics
	tracer       trace.Tracer
	logger       zerolog.Logger

	mu            sync.Mutex
	mood          string
	moodDirty     bool
	selected      walk.Vibe
	durationInput string
	duration      *int
	shape         walk.RouteShape
	device        *walk.Coordinate
	locationErr   error
	vibeErr       error
	routeErr      error
	response      *walk.RouteResponse
	responseShape walk.RouteShape
	loading       bool

	notifyMu    sync.Mutex
	subscribers map[int]func(Snapshot)
	nextSub     int
}

// New creates a session. Location is not acquired until AcquireLocation.
func New(cfg Config) *Session {
	shape := cfg.Shape
	if shape == "" {
		shape = walk.ShapeCircular
	}
	durationInput := cfg.DurationInput
	if durationInput == "" {
		durationInput = "30"
	}

	vibes := cfg.Vibes
	if vibes == nil {
		vibes = vibe.NewResolver(vibe.ResolverConfig{Logger: cfg.Logger})
	}
	destinations := cfg.Destinations
	if destinations == nil {
		destinations = destination.NewResolver(destination.ResolverConfig{Logger: cfg.Logger})
	}
	provider := cfg.Location
	if provider == nil {
		provider = location.NewProvider(location.ProviderConfig{Logger: cfg.Logger})
	}

	s := &Session{
		vibes:        vibes,
		destinations: destinations,
		location:     provider,
		generator:    cfg.Generator,
		metrics:      cfg.Metrics,
		tracer:       telemetry.Tracer(),
		logger:       cfg.Logger,
		selected:     walk.DefaultVibe,
		shape:        shape,
		subscribers:  make(map[int]func(Snapshot)),
	}
	s.setDurationLocked(durationInput)
	return s
}

// Subscribe registers fn to receive a snapshot after every state change and
// returns a function that removes it. Subscribers are called outside the
// state lock, one notification at a time.
func (s *Session) Subscribe(fn func(Snapshot)) (unsubscribe func()) {
	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()

	id := s.nextSub
	s.nextSub++
	s.subscribers[id] = fn

	return func() {
		s.notifyMu.Lock()
		defer s.notifyMu.Unlock()
		delete(s.subscribers, id)
	}
}

func (s *Session) notify() {
	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()

	if len(s.subscribers) == 0 {
		return
	}
	snap := s.Snapshot()
	for _, fn := range s.subscribers {
		fn(snap)
	}
}

// AcquireLocation reads the device position. A failure still leaves the
// fallback coordinate in place and records the location error.
func (s *Session) AcquireLocation(ctx context.Context) (walk.Coordinate, error) {
	c, err := s.location.Acquire(ctx)

	s.mu.Lock()
	s.device = &c
	s.locationErr = err
	s.mu.Unlock()

	s.notify()
	return c, err
}

// SetMood replaces the mood text. Non-blank text marks the mood as
// unresolved until the next successful detection.
func (s *Session) SetMood(text string) {
	s.mu.Lock()
	s.mood = text
	s.moodDirty = strings.TrimSpace(text) != ""
	s.mu.Unlock()

	s.notify()
}

// DetectVibe resolves the current mood text. On success the detected vibe
// becomes the selected one. A location the backend could not find is
// reported as the vibe error while the vibe itself is kept. If the mood
// was edited while detection ran, the newer text stays pending.
func (s *Session) DetectVibe(ctx context.Context) (walk.VibeResult, error) {
	s.mu.Lock()
	mood := s.mood
	s.mu.Unlock()

	res, err := s.vibes.Resolve(ctx, mood)

	s.mu.Lock()
	if err != nil {
		s.vibeErr = err
	} else {
		s.selected = res.Vibe
		if s.mood == mood {
			s.moodDirty = false
		}
		s.vibeErr = nil
		if res.LocationError != "" {
			s.vibeErr = &walk.Error{
				Code:    "LOCATION_NOT_FOUND",
				Message: res.LocationError,
				Err:     walk.ErrGeocodeFailed,
			}
		}
	}
	s.mu.Unlock()

	s.notify()
	return res, err
}

// SelectVibe picks a vibe explicitly. The explicit choice wins over mood
// text that has not been detected yet.
func (s *Session) SelectVibe(v walk.Vibe) error {
	if !v.Valid() {
		return &walk.ValidationError{Field: "vibe", Message: "Choose a vibe", Err: walk.ErrInvalidVibe}
	}

	s.mu.Lock()
	s.selected = v
	s.moodDirty = false
	s.mu.Unlock()

	s.notify()
	return nil
}

// ClearResolvedLocation makes routes start from the device position again
// without forgetting the detected vibe.
func (s *Session) ClearResolvedLocation() {
	s.vibes.ClearResolvedLocation()

	s.mu.Lock()
	var werr *walk.Error
	if s.vibeErr != nil && errors.As(s.vibeErr, &werr) && werr.Code == "LOCATION_NOT_FOUND" {
		s.vibeErr = nil
	}
	s.mu.Unlock()

	s.notify()
}

// SetDuration stores the raw duration field. Empty or non-numeric input
// leaves no duration; numeric input is clamped.
func (s *Session) SetDuration(input string) {
	s.mu.Lock()
	s.setDurationLocked(input)
	s.mu.Unlock()

	s.notify()
}

func (s *Session) setDurationLocked(input string) {
	s.durationInput = input
	s.duration = nil
	if d, ok := walk.ParseDuration(input); ok {
		s.duration = &d
	}
}

// SetShape switches between circular and one-way routes. A resolved
// destination is kept across switches but only sent for one-way routes.
func (s *Session) SetShape(shape walk.RouteShape) error {
	if shape != walk.ShapeCircular && shape != walk.ShapeOneWay {
		return &walk.ValidationError{Field: "shape", Message: "Choose a circular or one-way route", Err: walk.ErrValidation}
	}

	s.mu.Lock()
	s.shape = shape
	s.mu.Unlock()

	s.notify()
	return nil
}

// ResolveDestination geocodes a one-way destination. A failure clears any
// previous destination and is shown as the route error.
func (s *Session) ResolveDestination(ctx context.Context, text string) (walk.ResolvedDestination, error) {
	dest, err := s.destinations.Resolve(ctx, text)

	s.mu.Lock()
	s.routeErr = err
	s.mu.Unlock()

	s.notify()
	return dest, err
}

// ClearDestination forgets the resolved destination.
func (s *Session) ClearDestination() {
	s.destinations.Clear()
	s.notify()
}

// CanGenerate reports whether the generate action should be enabled: not
// loading, an origin known, and a duration present for circular routes.
func (s *Session) CanGenerate() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.canGenerateLocked()
}

func (s *Session) canGenerateLocked() bool {
	if s.loading || s.originLocked() == nil {
		return false
	}
	return s.shape == walk.ShapeOneWay || s.duration != nil
}

// originLocked prefers a location named in the mood over the device
// position.
func (s *Session) originLocked() *walk.Coordinate {
	if res, ok := s.vibes.Current(); ok && res.ResolvedLocation != nil {
		c := res.ResolvedLocation.Coordinate
		return &c
	}
	if s.device != nil {
		c := *s.device
		return &c
	}
	return nil
}

// Generate runs the generate-route action:
//  1. no origin fails with walk.ErrLocationUnavailable;
//  2. undetected mood text is detected and the call stops with
//     OutcomeVibeDetected;
//  3. the request is built and validated;
//  4. the backend is called; success replaces the route, failure keeps
//     the previous one and records the route error.
//
// A call while another generation is running fails with walk.ErrBusy.
func (s *Session) Generate(ctx context.Context) (Outcome, error) {
	s.mu.Lock()
	if s.loading {
		s.mu.Unlock()
		return "", walk.ErrBusy
	}

	origin := s.originLocked()
	if origin == nil {
		s.routeErr = &walk.Error{
			Code:    "LOCATION_UNAVAILABLE",
			Message: "Location not available",
			Err:     walk.ErrLocationUnavailable,
		}
		err := s.routeErr
		s.mu.Unlock()
		s.notify()
		return "", err
	}

	if s.moodDirty {
		s.mu.Unlock()
		_, err := s.DetectVibe(ctx)
		return OutcomeVibeDetected, err
	}

	var dest *walk.ResolvedDestination
	if d, ok := s.destinations.Current(); ok {
		dest = &d
	}
	req, err := walk.Build(s.selected, origin, dest, s.duration, s.shape)
	if err != nil {
		s.routeErr = err
		s.mu.Unlock()
		s.notify()
		return "", err
	}

	s.loading = true
	s.mu.Unlock()
	s.notify()

	resp, err := s.submit(ctx, req)

	s.mu.Lock()
	s.loading = false
	if err != nil {
		s.routeErr = err
	} else {
		s.response = &resp
		s.responseShape = req.Shape
		s.routeErr = nil
	}
	s.mu.Unlock()

	s.notify()
	if err != nil {
		return "", err
	}
	return OutcomeGenerated, nil
}

func (s *Session) submit(ctx context.Context, req walk.RouteRequest) (resp walk.RouteResponse, err error) {
	ctx, span := s.tracer.Start(ctx, "session.generate",
		trace.WithAttributes(
			attribute.String("route.vibe", string(req.Vibe)),
			attribute.String("route.shape", string(req.Shape)),
		),
	)
	defer func() {
		places := 0
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		} else {
			places = walk.Curate(resp.Places).Found()
			span.SetAttributes(attribute.Int("route.places", places))
		}
		s.metrics.RecordGeneration(ctx, string(req.Vibe), string(req.Shape), places, err)
		span.End()
	}()

	log := s.logger.With().
		Str("vibe", string(req.Vibe)).
		Str("shape", string(req.Shape)).
		Float64("origin_lat", req.Origin.Lat).
		Float64("origin_lon", req.Origin.Lon).
		Logger()

	if s.generator == nil {
		return walk.RouteResponse{}, &walk.Error{
			Code:    "ROUTE_FAILED",
			Message: MessageGenerateFailed,
			Err:     walk.ErrRouteGenerationFailed,
		}
	}

	resp, err = s.generator.GenerateRoute(ctx, req)
	if err != nil {
		log.Warn().Err(err).Msg("route generation failed")
		return walk.RouteResponse{}, &walk.Error{
			Code:    "ROUTE_FAILED",
			Message: backend.MessageOr(err, MessageGenerateFailed),
			Err:     walk.ErrRouteGenerationFailed,
			Cause:   err,
		}
	}

	log.Info().
		Float64("distance_m", resp.Route.DistanceMeters).
		Int("places", len(resp.Places)).
		Msg("route generated")
	return resp, nil
}
