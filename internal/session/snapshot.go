package session

import (
	"github.com/touchgrass/touchgrass/internal/render"
	"github.com/touchgrass/touchgrass/internal/walk"
)

// Snapshot is a consistent copy of the session state for display.
type Snapshot struct {
	Mood          string
	MoodPending   bool // mood text not yet detected
	Vibe          walk.Vibe
	VibeResult    *walk.VibeResult
	Origin        *walk.Coordinate
	Destination   *walk.ResolvedDestination
	DurationInput string
	Duration      *int
	Shape         walk.RouteShape
	Loading       bool
	CanGenerate   bool

	Response       *walk.RouteResponse
	Curation       walk.Curation
	Summary        *walk.RouteSummary
	DirectionsLink string

	// Error is the one message to show: location, then vibe, then route.
	Error         string
	LocationError string
	VibeError     string
	RouteError    string
}

// Snapshot copies the current state.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := Snapshot{
		Mood:          s.mood,
		MoodPending:   s.moodDirty,
		Vibe:          s.selected,
		Origin:        s.originLocked(),
		DurationInput: s.durationInput,
		Shape:         s.shape,
		Loading:       s.loading,
		CanGenerate:   s.canGenerateLocked(),
		LocationError: walk.Message(s.locationErr),
		VibeError:     walk.Message(s.vibeErr),
		RouteError:    walk.Message(s.routeErr),
	}

	if res, ok := s.vibes.Current(); ok {
		snap.VibeResult = &res
	}
	if d, ok := s.destinations.Current(); ok {
		snap.Destination = &d
	}
	if s.duration != nil {
		d := *s.duration
		snap.Duration = &d
	}

	switch {
	case snap.LocationError != "":
		snap.Error = snap.LocationError
	case snap.VibeError != "":
		snap.Error = snap.VibeError
	default:
		snap.Error = snap.RouteError
	}

	if s.response != nil {
		resp := *s.response
		snap.Response = &resp
		snap.Curation = walk.Curate(resp.Places)
		summary := walk.Summarize(resp, s.responseShape)
		snap.Summary = &summary
		if link, ok := walk.DirectionsLink(resp.Route, snap.Curation.Places); ok {
			snap.DirectionsLink = link
		}
	}

	return snap
}

// RenderTo returns a subscriber that keeps r in step with the session's
// route. The route is drawn in the vibe it was generated for.
func RenderTo(r *render.Renderer) func(Snapshot) {
	return func(snap Snapshot) {
		v := snap.Vibe
		if snap.Response != nil && snap.Response.Vibe.Valid() {
			v = snap.Response.Vibe
		}
		r.Refresh(snap.Response, v)
	}
}
