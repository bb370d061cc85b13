// Package walk holds the domain model for mood-based walking routes: vibes,
// coordinates, route requests and responses, and the pure transforms over
// them (request building, place curation, deep links).
package walk

import (
	"fmt"
	"strings"
)

// Vibe is a coarse mood category that drives route styling and place ranking.
type Vibe string

const (
	VibeChill     Vibe = "chill"
	VibeDate      Vibe = "date"
	VibeChaos     Vibe = "chaos"
	VibeAesthetic Vibe = "aesthetic"
)

// DefaultVibe is selected before the user picks or detects one.
const DefaultVibe = VibeChill

// Vibes lists every known vibe in display order.
func Vibes() []Vibe {
	return []Vibe{VibeChill, VibeDate, VibeChaos, VibeAesthetic}
}

// ParseVibe converts a case-insensitive vibe name.
func ParseVibe(s string) (Vibe, error) {
	v := Vibe(strings.ToLower(strings.TrimSpace(s)))
	if !v.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidVibe, s)
	}
	return v, nil
}

// Valid reports whether v is one of the four known vibes.
func (v Vibe) Valid() bool {
	switch v {
	case VibeChill, VibeDate, VibeChaos, VibeAesthetic:
		return true
	}
	return false
}

// Color returns the display color used for the route line and markers.
func (v Vibe) Color() string {
	switch v {
	case VibeChill:
		return "#10b981"
	case VibeDate:
		return "#ec4899"
	case VibeChaos:
		return "#f59e0b"
	case VibeAesthetic:
		return "#8b5cf6"
	}
	return "#3b82f6"
}

// Emoji returns the glyph shown next to the vibe name.
func (v Vibe) Emoji() string {
	switch v {
	case VibeChill:
		return "🌿"
	case VibeDate:
		return "💕"
	case VibeChaos:
		return "🍻"
	case VibeAesthetic:
		return "📸"
	}
	return ""
}

// VibeInfo describes a vibe as listed by the catalog.
type VibeInfo struct {
	ID          Vibe
	Name        string
	Emoji       string
	Description string
}

// FallbackVibes is the catalog used when the backend list cannot be fetched.
func FallbackVibes() []VibeInfo {
	return []VibeInfo{
		{ID: VibeChill, Name: "Chill", Emoji: "🌿", Description: "Relaxing walk with parks and quiet spots"},
		{ID: VibeDate, Name: "Date", Emoji: "💕", Description: "Romantic walk with cafes and scenic views"},
		{ID: VibeChaos, Name: "Chaos", Emoji: "🍻", Description: "Energetic walk with bars and nightlife"},
		{ID: VibeAesthetic, Name: "Aesthetic", Emoji: "📸", Description: "Instagram-worthy spots and scenic views"},
	}
}

// Coordinate represents a geographic point.
type Coordinate struct {
	Lat float64
	Lon float64
}

// Validate checks that the coordinate is within valid ranges.
func (c Coordinate) Validate() error {
	if c.Lat < -90 || c.Lat > 90 {
		return fmt.Errorf("latitude %f out of range [-90, 90]", c.Lat)
	}
	if c.Lon < -180 || c.Lon > 180 {
		return fmt.Errorf("longitude %f out of range [-180, 180]", c.Lon)
	}
	return nil
}

// String formats the coordinate as "lat,lon".
func (c Coordinate) String() string {
	return fmt.Sprintf("%g,%g", c.Lat, c.Lon)
}

// NamedLocation is a coordinate resolved from free text.
type NamedLocation struct {
	Coordinate       Coordinate
	Name             string
	FormattedAddress string
}

// Label returns the most specific human-readable name available.
func (l NamedLocation) Label() string {
	if l.FormattedAddress != "" {
		return l.FormattedAddress
	}
	return l.Name
}

// VibeResult is the outcome of classifying a mood text. It is replaced
// wholesale on every new detection.
type VibeResult struct {
	Vibe             Vibe
	Emoji            string
	Description      string
	ResolvedLocation *NamedLocation

	// LocationError is set when the mood named a place that could not be found.
	LocationError string
}

// WithoutLocation returns a copy of r with the resolved location removed.
func (r VibeResult) WithoutLocation() VibeResult {
	r.ResolvedLocation = nil
	return r
}

// ResolvedDestination is a geocoded one-way destination.
type ResolvedDestination struct {
	Coordinate       Coordinate
	FormattedAddress string
}

// RouteShape governs whether a route loops back or ends elsewhere.
type RouteShape string

const (
	ShapeCircular RouteShape = "circular"
	ShapeOneWay   RouteShape = "one-way"
)

// ParseShape converts a shape name. "oneway" and "one_way" are accepted.
func ParseShape(s string) (RouteShape, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "circular", "loop":
		return ShapeCircular, nil
	case "one-way", "oneway", "one_way":
		return ShapeOneWay, nil
	}
	return "", fmt.Errorf("%w: unknown route shape %q", ErrValidation, s)
}

// Label is the short display name of the shape.
func (s RouteShape) Label() string {
	if s == ShapeOneWay {
		return "One-way"
	}
	return "Circular"
}

// RouteRequest is a validated request ready to send to the backend.
type RouteRequest struct {
	Vibe        Vibe
	Origin      Coordinate
	Destination *ResolvedDestination // one-way only
	Duration    *int                 // minutes, circular only
	Shape       RouteShape
}

// Circular reports whether the request is for a loop.
func (r RouteRequest) Circular() bool {
	return r.Shape == ShapeCircular
}

// RouteResponse is the canonical route shape every downstream component sees.
type RouteResponse struct {
	Vibe        Vibe
	Emoji       string
	Description string
	Route       Route
	Places      []Place
	Directions  *Directions
}

// Route is the drawable route geometry with its totals.
type Route struct {
	Coordinates     []Coordinate // ordered, at least two points
	DistanceMeters  float64
	DurationMinutes float64
	Polyline        string
}

// Start returns the first coordinate of the route.
func (r Route) Start() (Coordinate, bool) {
	if len(r.Coordinates) == 0 {
		return Coordinate{}, false
	}
	return r.Coordinates[0], true
}

// End returns the last coordinate of the route.
func (r Route) End() (Coordinate, bool) {
	if len(r.Coordinates) == 0 {
		return Coordinate{}, false
	}
	return r.Coordinates[len(r.Coordinates)-1], true
}

// Directions holds turn-by-turn steps.
type Directions struct {
	Steps []Step
}

// Step is a single turn-by-turn instruction.
type Step struct {
	InstructionHTML string
	DistanceMeters  float64
	DurationMinutes float64
}

// Place is a point of interest returned alongside a route.
type Place struct {
	ID             string
	Name           string
	Type           string
	Address        string
	Lat            float64
	Lon            float64
	DistanceMeters float64
	Rating         *float64
	RatingCount    *int
	Vibes          []Vibe
}

// Coordinate returns the place location.
func (p Place) Coordinate() Coordinate {
	return Coordinate{Lat: p.Lat, Lon: p.Lon}
}

// HasVibe reports whether the place is tagged with v.
func (p Place) HasVibe(v Vibe) bool {
	for _, pv := range p.Vibes {
		if pv == v {
			return true
		}
	}
	return false
}
