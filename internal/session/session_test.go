package session_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/touchgrass/touchgrass/internal/backend"
	"github.com/touchgrass/touchgrass/internal/destination"
	"github.com/touchgrass/touchgrass/internal/location"
	"github.com/touchgrass/touchgrass/internal/render"
	"github.com/touchgrass/touchgrass/internal/session"
	"github.com/touchgrass/touchgrass/internal/vibe"
	"github.com/touchgrass/touchgrass/internal/walk"
)

var (
	mission    = walk.Coordinate{Lat: 37.7599, Lon: -122.4148}
	kensington = walk.Coordinate{Lat: 51.4991, Lon: -0.1938}
)

type fakeDetector struct {
	mu     sync.Mutex
	calls  int
	result walk.VibeResult
	err    error
}

func (f *fakeDetector) DetectVibe(_ context.Context, _ string) (walk.VibeResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return f.result, f.err
}

func (f *fakeDetector) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type fakeGeocoder struct {
	dest walk.ResolvedDestination
	err  error
}

func (f *fakeGeocoder) Geocode(_ context.Context, _ string) (walk.ResolvedDestination, error) {
	return f.dest, f.err
}

type fakeGenerator struct {
	mu      sync.Mutex
	reqs    []walk.RouteRequest
	resp    walk.RouteResponse
	err     error
	started chan struct{}
	release chan struct{}
}

func (f *fakeGenerator) GenerateRoute(ctx context.Context, req walk.RouteRequest) (walk.RouteResponse, error) {
	f.mu.Lock()
	f.reqs = append(f.reqs, req)
	resp, err := f.resp, f.err
	started, release := f.started, f.release
	f.mu.Unlock()

	if started != nil {
		close(started)
	}
	if release != nil {
		select {
		case <-release:
		case <-ctx.Done():
			return walk.RouteResponse{}, ctx.Err()
		}
	}
	return resp, err
}

func (f *fakeGenerator) Requests() []walk.RouteRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]walk.RouteRequest(nil), f.reqs...)
}

func (f *fakeGenerator) set(resp walk.RouteResponse, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.resp, f.err = resp, err
}

type harness struct {
	session   *session.Session
	detector  *fakeDetector
	geocoder  *fakeGeocoder
	generator *fakeGenerator
}

func newHarness(t *testing.T, positioner location.Positioner) *harness {
	t.Helper()

	h := &harness{
		detector:  &fakeDetector{result: walk.VibeResult{Vibe: walk.VibeDate, Emoji: "💕"}},
		geocoder:  &fakeGeocoder{dest: walk.ResolvedDestination{Coordinate: walk.Coordinate{Lat: 37.8087, Lon: -122.4098}, FormattedAddress: "Pier 39, San Francisco, CA"}},
		generator: &fakeGenerator{resp: routeResponse(walk.VibeChill, 3)},
	}
	h.session = session.New(session.Config{
		Vibes:        vibe.NewResolver(vibe.ResolverConfig{Detector: h.detector, Logger: zerolog.Nop()}),
		Destinations: destination.NewResolver(destination.ResolverConfig{Geocoder: h.geocoder, Logger: zerolog.Nop()}),
		Location:     location.NewProvider(location.ProviderConfig{Positioner: positioner, Timeout: time.Second, Logger: zerolog.Nop()}),
		Generator:    h.generator,
		Logger:       zerolog.Nop(),
	})
	return h
}

func routeResponse(v walk.Vibe, places int) walk.RouteResponse {
	resp := walk.RouteResponse{
		Vibe: v,
		Route: walk.Route{
			Coordinates: []walk.Coordinate{
				{Lat: 37.7599, Lon: -122.4148},
				{Lat: 37.7620, Lon: -122.4190},
				{Lat: 37.7650, Lon: -122.4210},
			},
			DistanceMeters:  1250,
			DurationMinutes: 16,
		},
	}
	for i := 0; i < places; i++ {
		resp.Places = append(resp.Places, walk.Place{
			ID:   string(rune('a' + i)),
			Name: "Spot",
			Type: "cafe",
			Lat:  37.761 + float64(i)*0.001,
			Lon:  -122.418,
		})
	}
	return resp
}

func TestScenario_EmptyMoodNeverCallsBackend(t *testing.T) {
	h := newHarness(t, location.Static(mission))

	h.session.SetMood("   ")
	_, err := h.session.DetectVibe(context.Background())

	require.Error(t, err)
	assert.ErrorIs(t, err, walk.ErrEmptyInput)
	assert.Zero(t, h.detector.Calls())
	assert.Equal(t, vibe.MessageEmptyInput, h.session.Snapshot().VibeError)
}

func TestScenario_DeniedLocationFallsBack(t *testing.T) {
	h := newHarness(t, location.Denied())
	ctx := context.Background()

	c, err := h.session.AcquireLocation(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, walk.ErrLocationUnavailable)
	assert.Equal(t, location.SanFrancisco, c)

	outcome, err := h.session.Generate(ctx)
	require.NoError(t, err)
	assert.Equal(t, session.OutcomeGenerated, outcome)

	reqs := h.generator.Requests()
	require.Len(t, reqs, 1)
	assert.Equal(t, location.SanFrancisco, reqs[0].Origin)

	snap := h.session.Snapshot()
	assert.Equal(t, location.MessageUnavailable, snap.Error)
	require.NotNil(t, snap.Response)
}

func TestScenario_OneWayWithoutDestination(t *testing.T) {
	h := newHarness(t, location.Static(mission))
	ctx := context.Background()

	_, err := h.session.AcquireLocation(ctx)
	require.NoError(t, err)
	require.NoError(t, h.session.SetShape(walk.ShapeOneWay))

	_, err = h.session.Generate(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, walk.ErrMissingDestination)
	assert.Empty(t, h.generator.Requests())
	assert.Equal(t, walk.Message(err), h.session.Snapshot().Error)
}

func TestScenario_SevenPlacesRenderFive(t *testing.T) {
	h := newHarness(t, location.Static(mission))
	ctx := context.Background()

	resp := routeResponse(walk.VibeChill, 5)
	resp.Places = append(resp.Places,
		walk.Place{ID: "t1", Name: "16th St", Type: "transit_station", Lat: 37.765, Lon: -122.42},
		walk.Place{ID: "t2", Name: "Mission & 18th", Type: "bus_station", Lat: 37.762, Lon: -122.419},
	)
	h.generator.set(resp, nil)

	surface := render.NewGeoJSONSurface()
	unsubscribe := h.session.Subscribe(session.RenderTo(render.NewRenderer(surface, render.RendererConfig{Logger: zerolog.Nop()})))
	defer unsubscribe()

	_, err := h.session.AcquireLocation(ctx)
	require.NoError(t, err)
	_, err = h.session.Generate(ctx)
	require.NoError(t, err)

	places := 0
	for _, id := range surface.Layers() {
		if strings.HasPrefix(id, "route-place-") {
			places++
		}
	}
	assert.Equal(t, 5, places)

	snap := h.session.Snapshot()
	assert.Equal(t, 5, snap.Curation.Found())
	assert.Equal(t, "+2 more places considered", snap.Curation.OverflowLabel())

	resp.Places = append(resp.Places, walk.Place{ID: "x", Name: "Extra", Type: "park"}, walk.Place{ID: "y", Name: "Extra", Type: "museum"})
	h.generator.set(resp, nil)
	_, err = h.session.Generate(ctx)
	require.NoError(t, err)
	assert.Equal(t, "+4 more places considered", h.session.Snapshot().Curation.OverflowLabel())
}

func TestGenerate_NoOrigin(t *testing.T) {
	h := newHarness(t, location.Static(mission))

	_, err := h.session.Generate(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, walk.ErrLocationUnavailable)
	assert.Empty(t, h.generator.Requests())
	assert.Equal(t, "Location not available", h.session.Snapshot().RouteError)
	assert.False(t, h.session.CanGenerate())
}

func TestGenerate_DetectsEditedMoodFirst(t *testing.T) {
	h := newHarness(t, location.Static(mission))
	ctx := context.Background()
	_, _ = h.session.AcquireLocation(ctx)

	h.session.SetMood("date night by the water")
	assert.True(t, h.session.Snapshot().MoodPending)

	outcome, err := h.session.Generate(ctx)
	require.NoError(t, err)
	assert.Equal(t, session.OutcomeVibeDetected, outcome)
	assert.Equal(t, 1, h.detector.Calls())
	assert.Empty(t, h.generator.Requests(), "the first call stops after detection")
	assert.Equal(t, walk.VibeDate, h.session.Snapshot().Vibe)

	outcome, err = h.session.Generate(ctx)
	require.NoError(t, err)
	assert.Equal(t, session.OutcomeGenerated, outcome)
	assert.Equal(t, 1, h.detector.Calls())

	reqs := h.generator.Requests()
	require.Len(t, reqs, 1)
	assert.Equal(t, walk.VibeDate, reqs[0].Vibe)
}

func TestGenerate_FailedDetectionKeepsMoodPending(t *testing.T) {
	h := newHarness(t, location.Static(mission))
	ctx := context.Background()
	_, _ = h.session.AcquireLocation(ctx)

	h.detector.err = &backend.Error{Operation: backend.OpDetectVibe, Status: 500, Message: "Model overloaded", Err: backend.ErrUnavailable}
	h.session.SetMood("chaotic evening")

	outcome, err := h.session.Generate(ctx)
	require.Error(t, err)
	assert.Equal(t, session.OutcomeVibeDetected, outcome)
	assert.ErrorIs(t, err, walk.ErrResolutionFailed)

	snap := h.session.Snapshot()
	assert.True(t, snap.MoodPending)
	assert.Equal(t, "Model overloaded", snap.Error)
	assert.Empty(t, h.generator.Requests())
}

func TestSelectVibe_WinsOverPendingMood(t *testing.T) {
	h := newHarness(t, location.Static(mission))
	ctx := context.Background()
	_, _ = h.session.AcquireLocation(ctx)

	h.session.SetMood("something vague")
	require.NoError(t, h.session.SelectVibe(walk.VibeAesthetic))

	outcome, err := h.session.Generate(ctx)
	require.NoError(t, err)
	assert.Equal(t, session.OutcomeGenerated, outcome)
	assert.Zero(t, h.detector.Calls())
	assert.Equal(t, walk.VibeAesthetic, h.generator.Requests()[0].Vibe)

	assert.ErrorIs(t, h.session.SelectVibe("sleepy"), walk.ErrInvalidVibe)
}

func TestGenerate_UsesLocationNamedInMood(t *testing.T) {
	h := newHarness(t, location.Static(mission))
	ctx := context.Background()
	_, _ = h.session.AcquireLocation(ctx)

	h.detector.result = walk.VibeResult{
		Vibe:             walk.VibeDate,
		ResolvedLocation: &walk.NamedLocation{Coordinate: kensington, Name: "Kensington"},
	}
	h.session.SetMood("date night in Kensington")
	_, err := h.session.DetectVibe(ctx)
	require.NoError(t, err)

	_, err = h.session.Generate(ctx)
	require.NoError(t, err)
	assert.Equal(t, kensington, h.generator.Requests()[0].Origin)

	h.session.ClearResolvedLocation()
	snap := h.session.Snapshot()
	assert.Equal(t, walk.VibeDate, snap.Vibe, "vibe survives clearing the location")
	require.NotNil(t, snap.Origin)
	assert.Equal(t, mission, *snap.Origin)

	_, err = h.session.Generate(ctx)
	require.NoError(t, err)
	assert.Equal(t, mission, h.generator.Requests()[1].Origin)
}

func TestDetectVibe_LocationErrorKeepsVibe(t *testing.T) {
	h := newHarness(t, location.Static(mission))
	ctx := context.Background()

	h.detector.result = walk.VibeResult{Vibe: walk.VibeChaos, LocationError: "Could not find location: Atlantis"}
	h.session.SetMood("pub crawl in Atlantis")
	res, err := h.session.DetectVibe(ctx)
	require.NoError(t, err)
	assert.Equal(t, walk.VibeChaos, res.Vibe)

	snap := h.session.Snapshot()
	assert.Equal(t, walk.VibeChaos, snap.Vibe)
	assert.Equal(t, "Could not find location: Atlantis", snap.VibeError)

	h.session.ClearResolvedLocation()
	assert.Empty(t, h.session.Snapshot().VibeError)
}

func TestGenerate_FailureKeepsPreviousRoute(t *testing.T) {
	h := newHarness(t, location.Static(mission))
	ctx := context.Background()
	_, _ = h.session.AcquireLocation(ctx)

	_, err := h.session.Generate(ctx)
	require.NoError(t, err)
	first := h.session.Snapshot().Response
	require.NotNil(t, first)

	h.generator.set(walk.RouteResponse{}, &backend.Error{
		Operation: backend.OpGenerateRoute,
		Status:    400,
		Message:   "No walkable path found",
		Err:       backend.ErrRejected,
	})
	_, err = h.session.Generate(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, walk.ErrRouteGenerationFailed)
	assert.ErrorIs(t, err, backend.ErrRejected)

	snap := h.session.Snapshot()
	assert.Equal(t, first, snap.Response, "previous route is kept")
	assert.Equal(t, "No walkable path found", snap.RouteError)
	assert.False(t, snap.Loading)

	h.generator.set(walk.RouteResponse{}, errors.New("connection reset"))
	_, err = h.session.Generate(ctx)
	require.Error(t, err)
	assert.Equal(t, session.MessageGenerateFailed, h.session.Snapshot().RouteError)

	h.generator.set(routeResponse(walk.VibeChill, 1), nil)
	_, err = h.session.Generate(ctx)
	require.NoError(t, err)
	assert.Empty(t, h.session.Snapshot().RouteError, "success clears the route error")
}

func TestGenerate_BusyWhileInFlight(t *testing.T) {
	h := newHarness(t, location.Static(mission))
	ctx := context.Background()
	_, _ = h.session.AcquireLocation(ctx)

	h.generator.started = make(chan struct{})
	h.generator.release = make(chan struct{})

	done := make(chan error, 1)
	go func() {
		_, err := h.session.Generate(ctx)
		done <- err
	}()

	select {
	case <-h.generator.started:
	case <-time.After(2 * time.Second):
		t.Fatal("generation did not start")
	}

	assert.True(t, h.session.Snapshot().Loading)
	assert.False(t, h.session.CanGenerate())

	_, err := h.session.Generate(ctx)
	assert.ErrorIs(t, err, walk.ErrBusy)

	close(h.generator.release)
	require.NoError(t, <-done)
	assert.Len(t, h.generator.Requests(), 1)
	assert.False(t, h.session.Snapshot().Loading)
}

func TestGenerate_CircularNeverSendsDestination(t *testing.T) {
	h := newHarness(t, location.Static(mission))
	ctx := context.Background()
	_, _ = h.session.AcquireLocation(ctx)

	_, err := h.session.ResolveDestination(ctx, "Pier 39")
	require.NoError(t, err)

	h.session.SetDuration("5")
	_, err = h.session.Generate(ctx)
	require.NoError(t, err)

	req := h.generator.Requests()[0]
	assert.Nil(t, req.Destination)
	require.NotNil(t, req.Duration)
	assert.Equal(t, walk.MinDuration, *req.Duration)

	require.NoError(t, h.session.SetShape(walk.ShapeOneWay))
	_, err = h.session.Generate(ctx)
	require.NoError(t, err)

	req = h.generator.Requests()[1]
	require.NotNil(t, req.Destination)
	assert.Equal(t, "Pier 39, San Francisco, CA", req.Destination.FormattedAddress)
	assert.Nil(t, req.Duration)
	assert.Equal(t, "One-way", h.session.Snapshot().Summary.ShapeLabel)
}

func TestResolveDestination_FailureClearsDestination(t *testing.T) {
	h := newHarness(t, location.Static(mission))
	ctx := context.Background()

	_, err := h.session.ResolveDestination(ctx, "Pier 39")
	require.NoError(t, err)
	require.NotNil(t, h.session.Snapshot().Destination)

	h.geocoder.err = errors.New("no match")
	_, err = h.session.ResolveDestination(ctx, "nowhere in particular")
	require.Error(t, err)
	assert.ErrorIs(t, err, walk.ErrGeocodeFailed)

	snap := h.session.Snapshot()
	assert.Nil(t, snap.Destination)
	assert.Equal(t, destination.MessageGeocodeFailed, snap.Error)

	h.geocoder.err = nil
	_, err = h.session.ResolveDestination(ctx, "Pier 39")
	require.NoError(t, err)
	h.session.ClearDestination()
	assert.Nil(t, h.session.Snapshot().Destination)
}

func TestCanGenerate(t *testing.T) {
	h := newHarness(t, location.Static(mission))
	ctx := context.Background()
	assert.False(t, h.session.CanGenerate(), "no origin yet")

	_, _ = h.session.AcquireLocation(ctx)
	assert.True(t, h.session.CanGenerate(), "default duration is present")

	h.session.SetDuration("")
	assert.False(t, h.session.CanGenerate())

	h.session.SetDuration("abc")
	assert.False(t, h.session.CanGenerate())

	require.NoError(t, h.session.SetShape(walk.ShapeOneWay))
	assert.True(t, h.session.CanGenerate(), "one-way does not need a duration")

	require.NoError(t, h.session.SetShape(walk.ShapeCircular))
	h.session.SetDuration("200")
	snap := h.session.Snapshot()
	assert.True(t, snap.CanGenerate)
	require.NotNil(t, snap.Duration)
	assert.Equal(t, walk.MaxDuration, *snap.Duration)
	assert.Equal(t, "200", snap.DurationInput)

	assert.ErrorIs(t, h.session.SetShape("zigzag"), walk.ErrValidation)
}

func TestGenerate_CircularWithoutDuration(t *testing.T) {
	h := newHarness(t, location.Static(mission))
	ctx := context.Background()
	_, _ = h.session.AcquireLocation(ctx)

	h.session.SetDuration("")
	_, err := h.session.Generate(ctx)
	assert.ErrorIs(t, err, walk.ErrMissingDuration)
	assert.Empty(t, h.generator.Requests())
}

func TestSnapshot_ErrorPriority(t *testing.T) {
	h := newHarness(t, location.Denied())
	ctx := context.Background()

	h.geocoder.err = errors.New("nope")
	_, _ = h.session.ResolveDestination(ctx, "somewhere")
	assert.Equal(t, destination.MessageGeocodeFailed, h.session.Snapshot().Error)

	h.detector.err = errors.New("boom")
	h.session.SetMood("cozy")
	_, _ = h.session.DetectVibe(ctx)
	assert.Equal(t, vibe.MessageDetectFailed, h.session.Snapshot().Error)

	_, _ = h.session.AcquireLocation(ctx)
	snap := h.session.Snapshot()
	assert.Equal(t, location.MessageUnavailable, snap.Error)
	assert.Equal(t, vibe.MessageDetectFailed, snap.VibeError)
	assert.Equal(t, destination.MessageGeocodeFailed, snap.RouteError)
}

func TestSnapshot_RouteExtras(t *testing.T) {
	h := newHarness(t, location.Static(mission))
	ctx := context.Background()
	_, _ = h.session.AcquireLocation(ctx)

	_, err := h.session.Generate(ctx)
	require.NoError(t, err)

	snap := h.session.Snapshot()
	require.NotNil(t, snap.Summary)
	assert.Equal(t, "1.25 km", snap.Summary.DistanceKm)
	assert.Equal(t, "Circular", snap.Summary.ShapeLabel)
	assert.True(t, strings.HasPrefix(snap.DirectionsLink, "https://www.google.com/maps/dir/?api=1"))
	assert.Equal(t, 3, snap.Curation.Found())
}

func TestSubscribe(t *testing.T) {
	h := newHarness(t, location.Static(mission))

	var mu sync.Mutex
	var moods []string
	unsubscribe := h.session.Subscribe(func(s session.Snapshot) {
		mu.Lock()
		defer mu.Unlock()
		moods = append(moods, s.Mood)
	})

	h.session.SetMood("sunny")
	h.session.SetMood("rainy")
	unsubscribe()
	h.session.SetMood("ignored")

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"sunny", "rainy"}, moods)
}

// blockingDetector holds its first call until release is closed.
type blockingDetector struct {
	mu      sync.Mutex
	texts   []string
	started chan struct{}
	release chan struct{}
}

func (d *blockingDetector) DetectVibe(_ context.Context, text string) (walk.VibeResult, error) {
	d.mu.Lock()
	d.texts = append(d.texts, text)
	first := len(d.texts) == 1
	d.mu.Unlock()

	if first {
		close(d.started)
		<-d.release
	}

	v := walk.VibeChill
	if strings.Contains(text, "date") {
		v = walk.VibeDate
	}
	return walk.VibeResult{Vibe: v}, nil
}

func (d *blockingDetector) Texts() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.texts...)
}

func TestDetectVibe_MoodEditedDuringDetectionStaysPending(t *testing.T) {
	det := &blockingDetector{started: make(chan struct{}), release: make(chan struct{})}
	gen := &fakeGenerator{resp: routeResponse(walk.VibeDate, 2)}
	s := session.New(session.Config{
		Vibes:     vibe.NewResolver(vibe.ResolverConfig{Detector: det, Logger: zerolog.Nop()}),
		Location:  location.NewProvider(location.ProviderConfig{Positioner: location.Static(mission), Logger: zerolog.Nop()}),
		Generator: gen,
		Logger:    zerolog.Nop(),
	})
	ctx := context.Background()
	_, _ = s.AcquireLocation(ctx)

	s.SetMood("quiet park stroll")
	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = s.DetectVibe(ctx)
	}()

	<-det.started
	s.SetMood("date night with wine bars")
	close(det.release)
	<-done

	snap := s.Snapshot()
	assert.Equal(t, "date night with wine bars", snap.Mood)
	assert.True(t, snap.MoodPending, "the newer text was never detected")

	outcome, err := s.Generate(ctx)
	require.NoError(t, err)
	assert.Equal(t, session.OutcomeVibeDetected, outcome)
	assert.Empty(t, gen.Requests())
	assert.Equal(t, []string{"quiet park stroll", "date night with wine bars"}, det.Texts())

	outcome, err = s.Generate(ctx)
	require.NoError(t, err)
	assert.Equal(t, session.OutcomeGenerated, outcome)

	reqs := gen.Requests()
	require.Len(t, reqs, 1)
	assert.Equal(t, walk.VibeDate, reqs[0].Vibe)
}

func TestNew_ZeroConfigFailsWithoutPanicking(t *testing.T) {
	s := session.New(session.Config{Logger: zerolog.Nop()})
	ctx := context.Background()

	s.SetMood("chill")
	_, err := s.DetectVibe(ctx)
	assert.ErrorIs(t, err, walk.ErrResolutionFailed)
	assert.ErrorIs(t, err, vibe.ErrNoDetector)
	assert.True(t, s.Snapshot().MoodPending)

	_, err = s.ResolveDestination(ctx, "Pier 39")
	assert.ErrorIs(t, err, walk.ErrGeocodeFailed)
	assert.ErrorIs(t, err, destination.ErrNoGeocoder)
}
