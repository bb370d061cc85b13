package walk

import (
	"math"
	"strconv"
	"strings"
)

// Duration bounds in minutes.
const (
	MinDuration = 10
	MaxDuration = 120
)

// ClampDuration forces minutes into [MinDuration, MaxDuration].
func ClampDuration(minutes int) int {
	if minutes < MinDuration {
		return MinDuration
	}
	if minutes > MaxDuration {
		return MaxDuration
	}
	return minutes
}

// ParseDuration reads a raw duration input. Empty or non-numeric input is
// absent; numeric input is clamped into range. Fractional input is truncated.
func ParseDuration(input string) (int, bool) {
	s := strings.TrimSpace(input)
	if s == "" {
		return 0, false
	}

	if n, err := strconv.Atoi(s); err == nil {
		return ClampDuration(n), true
	}

	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) {
		return 0, false
	}
	if f > float64(MaxDuration) {
		return MaxDuration, true
	}
	if f < float64(MinDuration) {
		return MinDuration, true
	}
	return ClampDuration(int(f)), true
}

// Build assembles a validated RouteRequest. Checks run in a fixed order:
// origin, destination (one-way), duration (circular). A destination is only
// carried for one-way routes and a duration only for circular ones.
func Build(vibe Vibe, origin *Coordinate, destination *ResolvedDestination, duration *int, shape RouteShape) (RouteRequest, error) {
	if origin == nil {
		return RouteRequest{}, invalid("origin", ErrMissingOrigin, "Location not available")
	}
	if err := origin.Validate(); err != nil {
		return RouteRequest{}, invalid("origin", ErrInvalidCoordinate, "Your location is not a valid coordinate")
	}

	if shape != ShapeCircular && shape != ShapeOneWay {
		return RouteRequest{}, invalid("shape", ErrValidation, "Choose a circular or one-way route")
	}

	if shape == ShapeOneWay && destination == nil {
		return RouteRequest{}, invalid("destination", ErrMissingDestination, "Choose a destination for a one-way route")
	}

	if shape == ShapeCircular && duration == nil {
		return RouteRequest{}, invalid("duration", ErrMissingDuration, "Choose how long you want to walk")
	}

	if !vibe.Valid() {
		return RouteRequest{}, invalid("vibe", ErrInvalidVibe, "Choose a vibe")
	}

	req := RouteRequest{
		Vibe:   vibe,
		Origin: *origin,
		Shape:  shape,
	}

	switch shape {
	case ShapeOneWay:
		if err := destination.Coordinate.Validate(); err != nil {
			return RouteRequest{}, invalid("destination", ErrInvalidCoordinate, "The destination is not a valid coordinate")
		}
		dest := *destination
		req.Destination = &dest
	case ShapeCircular:
		d := ClampDuration(*duration)
		req.Duration = &d
	}

	return req, nil
}
