// Package render draws a generated walk onto a map surface.
package render

import (
	"github.com/paulmach/orb"

	"github.com/touchgrass/touchgrass/internal/walk"
)

// Surface is a map that accepts primitive drawing commands. Layers are
// addressed by id; adding an id that already exists replaces it.
type Surface interface {
	AddLine(id string, coords []walk.Coordinate, style LineStyle)
	AddMarker(id string, marker Marker)
	RemoveLayer(id string)
	FitBounds(bounds orb.Bound, padding int)
}

// LineStyle describes how a line layer is painted.
type LineStyle struct {
	Color   string
	Width   float64
	Opacity float64
}

// MarkerKind distinguishes the markers the renderer places.
type MarkerKind string

const (
	MarkerStart MarkerKind = "start"
	MarkerPlace MarkerKind = "place"
	MarkerArrow MarkerKind = "arrow"
)

// Marker is a point layer.
type Marker struct {
	Kind       MarkerKind
	Coordinate walk.Coordinate
	Label      string
	Color      string
	Glyph      string
	Rotation   float64 // degrees clockwise from north
}
