package handler

import (
	"github.com/touchgrass/touchgrass/internal/api/models"
	"github.com/touchgrass/touchgrass/internal/session"
	"github.com/touchgrass/touchgrass/internal/walk"
)

func toSession(id string, snap session.Snapshot) models.Session {
	out := models.Session{
		ID:              id,
		Mood:            snap.Mood,
		MoodPending:     snap.MoodPending,
		Vibe:            string(snap.Vibe),
		VibeColor:       snap.Vibe.Color(),
		DurationInput:   snap.DurationInput,
		DurationMinutes: snap.Duration,
		Shape:           string(snap.Shape),
		Loading:         snap.Loading,
		CanGenerate:     snap.CanGenerate,
		Errors: models.SessionErrors{
			Display:  snap.Error,
			Location: snap.LocationError,
			Vibe:     snap.VibeError,
			Route:    snap.RouteError,
		},
	}

	if snap.Origin != nil {
		out.Origin = &models.Point{Lat: snap.Origin.Lat, Lon: snap.Origin.Lon}
	}
	if snap.Destination != nil {
		out.Destination = &models.Destination{
			Point:            toPoint(snap.Destination.Coordinate),
			FormattedAddress: snap.Destination.FormattedAddress,
		}
	}
	if res := snap.VibeResult; res != nil {
		dv := &models.DetectedVibe{
			Vibe:        string(res.Vibe),
			Emoji:       res.Emoji,
			Description: res.Description,
		}
		if loc := res.ResolvedLocation; loc != nil {
			dv.Location = &models.NamedLocation{
				Point:            toPoint(loc.Coordinate),
				Name:             loc.Name,
				FormattedAddress: loc.FormattedAddress,
			}
		}
		out.DetectedVibe = dv
	}
	if snap.Response != nil {
		out.Route = toRoute(snap)
	}
	return out
}

func toRoute(snap session.Snapshot) *models.Route {
	resp := snap.Response

	coords := make([][2]float64, 0, len(resp.Route.Coordinates))
	for _, c := range resp.Route.Coordinates {
		coords = append(coords, [2]float64{c.Lon, c.Lat})
	}

	places := make([]models.Place, 0, len(snap.Curation.Places))
	for _, p := range snap.Curation.Places {
		places = append(places, toPlace(p))
	}

	route := &models.Route{
		Vibe:            string(resp.Vibe),
		Emoji:           resp.Emoji,
		Description:     resp.Description,
		Coordinates:     coords,
		DistanceMeters:  resp.Route.DistanceMeters,
		DurationMinutes: resp.Route.DurationMinutes,
		Places:          places,
		PlacesFound:     snap.Curation.Found(),
		PlacesOverflow:  snap.Curation.OverflowLabel(),
		DirectionsURL:   snap.DirectionsLink,
	}
	if s := snap.Summary; s != nil {
		route.Summary = models.RouteSummary{
			Title:    s.Title,
			Distance: s.DistanceKm,
			Minutes:  s.Minutes,
			Shape:    s.ShapeLabel,
			Steps:    s.Steps,
		}
	}
	if resp.Directions != nil {
		for _, st := range resp.Directions.Steps {
			route.Steps = append(route.Steps, models.Step{
				InstructionHTML: st.InstructionHTML,
				DistanceMeters:  st.DistanceMeters,
				DurationMinutes: st.DurationMinutes,
			})
		}
	}
	return route
}

func toPlace(p walk.Place) models.Place {
	out := models.Place{
		ID:             p.ID,
		Name:           p.Name,
		Type:           p.Type,
		TypeLabel:      walk.TypeLabel(p.Type),
		Label:          walk.MarkerLabel(p),
		Address:        p.Address,
		Lat:            p.Lat,
		Lon:            p.Lon,
		DistanceMeters: p.DistanceMeters,
		Rating:         p.Rating,
		RatingCount:    p.RatingCount,
	}
	for _, v := range p.Vibes {
		out.Vibes = append(out.Vibes, string(v))
	}
	return out
}

func toPoint(c walk.Coordinate) models.Point {
	return models.Point{Lat: c.Lat, Lon: c.Lon}
}
