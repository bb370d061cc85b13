package render_test

import (
	"encoding/json"
	"fmt"
	"strings"
	"testing"

	"github.com/paulmach/orb"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/touchgrass/touchgrass/internal/render"
	"github.com/touchgrass/touchgrass/internal/walk"
)

// recordingSurface logs every command in order.
type recordingSurface struct {
	calls []string
}

func (s *recordingSurface) AddLine(id string, _ []walk.Coordinate, style render.LineStyle) {
	s.calls = append(s.calls, "line:"+id+":"+style.Color)
}

func (s *recordingSurface) AddMarker(id string, m render.Marker) {
	s.calls = append(s.calls, "marker:"+id+":"+string(m.Kind))
}

func (s *recordingSurface) RemoveLayer(id string) {
	s.calls = append(s.calls, "remove:"+id)
}

func (s *recordingSurface) FitBounds(b orb.Bound, padding int) {
	s.calls = append(s.calls, fmt.Sprintf("fit:%d", padding))
}

func scenarioResponse() *walk.RouteResponse {
	places := []walk.Place{
		{ID: "1", Name: "Dolores Park", Type: "park", Lat: 37.7596, Lon: -122.4269, DistanceMeters: 1710},
		{ID: "2", Name: "16th St Mission", Type: "transit_station", Lat: 37.765, Lon: -122.4197},
		{ID: "3", Name: "Ritual Coffee", Type: "cafe", Lat: 37.7564, Lon: -122.4213, DistanceMeters: 1290},
		{ID: "4", Name: "Balmy Alley", Type: "art_gallery", Lat: 37.7518, Lon: -122.4124, DistanceMeters: 2100},
		{ID: "5", Name: "24th St Mission", Type: "bus_station", Lat: 37.7522, Lon: -122.4184},
		{ID: "6", Name: "Mission Library", Type: "library", Lat: 37.7552, Lon: -122.4186, DistanceMeters: 1500},
		{ID: "7", Name: "Tartine", Type: "bakery", Lat: 37.7614, Lon: -122.4241, DistanceMeters: 1300},
	}
	return &walk.RouteResponse{
		Vibe: walk.VibeChill,
		Route: walk.Route{
			Coordinates: []walk.Coordinate{
				{Lat: 37.7749, Lon: -122.4194},
				{Lat: 37.7650, Lon: -122.4200},
				{Lat: 37.7596, Lon: -122.4269},
			},
			DistanceMeters:  2100,
			DurationMinutes: 28,
		},
		Places: places,
	}
}

func countPrefix(ids []string, prefix string) int {
	n := 0
	for _, id := range ids {
		if strings.HasPrefix(id, prefix) {
			n++
		}
	}
	return n
}

func TestRenderer_ScenarioSevenPlacesTwoTransit(t *testing.T) {
	surface := render.NewGeoJSONSurface()
	r := render.NewRenderer(surface, render.RendererConfig{Logger: zerolog.Nop()})

	resp := scenarioResponse()
	r.Refresh(resp, walk.VibeChill)

	layers := surface.Layers()
	assert.Equal(t, 5, countPrefix(layers, "route-place-"))
	assert.Contains(t, layers, render.LayerShadow)
	assert.Contains(t, layers, render.LayerRoute)
	assert.Contains(t, layers, render.LayerStart)
	assert.Positive(t, countPrefix(layers, "route-arrow-"))

	c := walk.Curate(resp.Places)
	assert.Equal(t, "+2 more places considered", c.OverflowLabel())
	assert.Equal(t, 5, c.Found())

	line, ok := surface.Feature(render.LayerRoute)
	require.True(t, ok)
	assert.Equal(t, "#10b981", line.Properties["color"])
	assert.Len(t, line.Geometry.(orb.LineString), 3)

	start, ok := surface.Feature(render.LayerStart)
	require.True(t, ok)
	assert.Equal(t, orb.Point{-122.4194, 37.7749}, start.Geometry)

	first, ok := surface.Feature("route-place-0")
	require.True(t, ok)
	assert.Equal(t, "Dolores Park · Park · 1710m away", first.Properties["label"])

	bound, padding, ok := surface.Viewport()
	require.True(t, ok)
	assert.Equal(t, render.FitPadding, padding)
	assert.Equal(t, orb.Point{-122.4269, 37.7596}, bound.Min)
	assert.Equal(t, orb.Point{-122.4194, 37.7749}, bound.Max)
}

func TestRenderer_Idempotent(t *testing.T) {
	surface := render.NewGeoJSONSurface()
	r := render.NewRenderer(surface, render.RendererConfig{})

	resp := scenarioResponse()
	r.Refresh(resp, walk.VibeDate)
	once, err := json.Marshal(surface.FeatureCollection())
	require.NoError(t, err)

	r.Refresh(resp, walk.VibeDate)
	twice, err := json.Marshal(surface.FeatureCollection())
	require.NoError(t, err)

	assert.JSONEq(t, string(once), string(twice))
}

func TestRenderer_RemovesBeforeDrawing(t *testing.T) {
	surface := &recordingSurface{}
	r := render.NewRenderer(surface, render.RendererConfig{ArrowSpacingMeters: 100000})

	resp := scenarioResponse()
	resp.Places = nil

	r.Refresh(resp, walk.VibeChaos)
	assert.Equal(t, []string{
		"line:route-shadow:#000000",
		"line:route-line:#f59e0b",
		"marker:route-start:start",
		"fit:50",
	}, surface.calls)

	surface.calls = nil
	r.Refresh(resp, walk.VibeAesthetic)
	assert.Equal(t, []string{
		"remove:route-shadow",
		"remove:route-line",
		"remove:route-start",
		"line:route-shadow:#000000",
		"line:route-line:#8b5cf6",
		"marker:route-start:start",
		"fit:50",
	}, surface.calls)
}

func TestRenderer_NilResponseClears(t *testing.T) {
	surface := render.NewGeoJSONSurface()
	r := render.NewRenderer(surface, render.RendererConfig{})

	r.Refresh(scenarioResponse(), walk.VibeChill)
	require.NotEmpty(t, surface.Layers())

	r.Refresh(nil, walk.VibeChill)
	assert.Empty(t, surface.Layers())
	assert.Empty(t, surface.FeatureCollection().Features)
	assert.Nil(t, surface.FeatureCollection().BBox)
}

func TestRenderer_FewerPlaces(t *testing.T) {
	surface := render.NewGeoJSONSurface()
	r := render.NewRenderer(surface, render.RendererConfig{})

	resp := scenarioResponse()
	r.Refresh(resp, walk.VibeChill)
	require.Equal(t, 5, countPrefix(surface.Layers(), "route-place-"))

	resp.Places = resp.Places[:1]
	r.Refresh(resp, walk.VibeChill)
	assert.Equal(t, 1, countPrefix(surface.Layers(), "route-place-"), "stale markers are removed")
}

func TestRenderer_ArrowsPointAlongRoute(t *testing.T) {
	surface := render.NewGeoJSONSurface()
	r := render.NewRenderer(surface, render.RendererConfig{ArrowSpacingMeters: 250})

	resp := &walk.RouteResponse{Route: walk.Route{Coordinates: []walk.Coordinate{
		{Lat: 37.76, Lon: -122.42},
		{Lat: 37.77, Lon: -122.42},
	}}}
	r.Refresh(resp, walk.VibeChill)

	// ~1.1km due north: arrows at 250, 500, 750, 1000m.
	assert.Equal(t, 4, countPrefix(surface.Layers(), "route-arrow-"))
	arrow, ok := surface.Feature("route-arrow-0")
	require.True(t, ok)
	assert.InDelta(t, 0.0, arrow.Properties["rotation"], 0.01)
	assert.Equal(t, "arrow", arrow.Properties["kind"])
}

func TestRenderer_DegenerateRoute(t *testing.T) {
	surface := &recordingSurface{}
	r := render.NewRenderer(surface, render.RendererConfig{})

	r.Refresh(&walk.RouteResponse{Route: walk.Route{Coordinates: []walk.Coordinate{{Lat: 1, Lon: 1}}}}, walk.VibeChill)
	assert.Empty(t, surface.calls)
}

func TestRenderer_Clear(t *testing.T) {
	surface := render.NewGeoJSONSurface()
	r := render.NewRenderer(surface, render.RendererConfig{})

	r.Refresh(scenarioResponse(), walk.VibeChill)
	r.Clear()
	assert.Empty(t, surface.Layers())
}

func TestBounds(t *testing.T) {
	b := render.Bounds([]walk.Coordinate{{Lat: 1, Lon: 5}, {Lat: -2, Lon: 7}, {Lat: 3, Lon: 6}})
	assert.Equal(t, orb.Point{5, -2}, b.Min)
	assert.Equal(t, orb.Point{7, 3}, b.Max)
}
