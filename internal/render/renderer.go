package render

import (
	"fmt"
	"sync"

	"github.com/paulmach/orb"
	"github.com/rs/zerolog"

	"github.com/touchgrass/touchgrass/internal/walk"
	"github.com/touchgrass/touchgrass/pkg/polyline"
)

// Layer ids and styling.
const (
	LayerShadow = "route-shadow"
	LayerRoute  = "route-line"
	LayerStart  = "route-start"

	arrowPrefix = "route-arrow-"
	placePrefix = "route-place-"

	shadowColor = "#000000"
	startColor  = "#FF0000"
	arrowGlyph  = "▲"

	// FitPadding is the viewport padding in pixels.
	FitPadding = 50
)

// RendererConfig holds configuration for the renderer.
type RendererConfig struct {
	// ArrowSpacingMeters between direction arrows. Default: 200
	ArrowSpacingMeters float64

	Logger zerolog.Logger
}

// Renderer owns the route layers on one surface.
type Renderer struct {
	surface      Surface
	arrowSpacing float64
	logger       zerolog.Logger

	mu     sync.Mutex
	layers []string
}

// NewRenderer creates a renderer drawing onto surface.
func NewRenderer(surface Surface, cfg RendererConfig) *Renderer {
	spacing := cfg.ArrowSpacingMeters
	if spacing <= 0 {
		spacing = 200
	}
	return &Renderer{
		surface:      surface,
		arrowSpacing: spacing,
		logger:       cfg.Logger,
	}
}

// Refresh removes everything previously drawn and, when resp carries a
// drawable route, draws it again: shadow and vibe-colored line, direction
// arrows, a start marker, one marker per curated place, then fits the
// viewport to the route. Refreshing twice with the same input leaves the
// surface unchanged.
func (r *Renderer) Refresh(resp *walk.RouteResponse, vibe walk.Vibe) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.clearLocked()

	if resp == nil || len(resp.Route.Coordinates) < 2 {
		return
	}
	coords := resp.Route.Coordinates

	r.line(LayerShadow, coords, LineStyle{Color: shadowColor, Width: 8, Opacity: 0.25})
	r.line(LayerRoute, coords, LineStyle{Color: vibe.Color(), Width: 4, Opacity: 0.8})

	for i, m := range polyline.Sample(toPolyline(coords), r.arrowSpacing) {
		r.marker(fmt.Sprintf("%s%d", arrowPrefix, i), Marker{
			Kind:       MarkerArrow,
			Coordinate: walk.Coordinate{Lat: m.Lat, Lon: m.Lon},
			Color:      vibe.Color(),
			Glyph:      arrowGlyph,
			Rotation:   m.Bearing,
		})
	}

	r.marker(LayerStart, Marker{
		Kind:       MarkerStart,
		Coordinate: coords[0],
		Label:      "Start",
		Color:      startColor,
	})

	curated := walk.Curate(resp.Places)
	for i, p := range curated.Places {
		r.marker(fmt.Sprintf("%s%d", placePrefix, i), Marker{
			Kind:       MarkerPlace,
			Coordinate: p.Coordinate(),
			Label:      walk.MarkerLabel(p),
			Color:      vibe.Color(),
		})
	}

	r.surface.FitBounds(Bounds(coords), FitPadding)

	r.logger.Debug().
		Str("vibe", string(vibe)).
		Int("layers", len(r.layers)).
		Int("places", len(curated.Places)).
		Msg("route rendered")
}

// Clear removes every layer this renderer drew.
func (r *Renderer) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.clearLocked()
}

func (r *Renderer) clearLocked() {
	for _, id := range r.layers {
		r.surface.RemoveLayer(id)
	}
	r.layers = r.layers[:0]
}

func (r *Renderer) line(id string, coords []walk.Coordinate, style LineStyle) {
	r.surface.AddLine(id, coords, style)
	r.layers = append(r.layers, id)
}

func (r *Renderer) marker(id string, m Marker) {
	r.surface.AddMarker(id, m)
	r.layers = append(r.layers, id)
}

// Bounds returns the bounding box of coords.
func Bounds(coords []walk.Coordinate) orb.Bound {
	ls := make(orb.LineString, 0, len(coords))
	for _, c := range coords {
		ls = append(ls, orb.Point{c.Lon, c.Lat})
	}
	return ls.Bound()
}

func toPolyline(coords []walk.Coordinate) []polyline.Coordinate {
	out := make([]polyline.Coordinate, 0, len(coords))
	for _, c := range coords {
		out = append(out, polyline.Coordinate{Lat: c.Lat, Lon: c.Lon})
	}
	return out
}
