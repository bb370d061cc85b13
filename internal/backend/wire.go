package backend

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/touchgrass/touchgrass/internal/walk"
)

type errorBody struct {
	Error string `json:"error"`
}

type vibeListResponse struct {
	Vibes []vibeInfo `json:"vibes"`
}

type vibeInfo struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Emoji       string `json:"emoji"`
	Description string `json:"description"`
}

type detectRequest struct {
	Text string `json:"text"`
}

type detectResponse struct {
	Vibe             string        `json:"vibe"`
	Emoji            string        `json:"emoji"`
	Description      string        `json:"description"`
	GeocodedLocation *locationWire `json:"geocoded_location"`
	LocationError    string        `json:"location_error"`
}

func (r detectResponse) toResult() (walk.VibeResult, error) {
	v, err := walk.ParseVibe(r.Vibe)
	if err != nil {
		return walk.VibeResult{}, malformed(OpDetectVibe, err)
	}

	res := walk.VibeResult{
		Vibe:          v,
		Emoji:         r.Emoji,
		Description:   r.Description,
		LocationError: r.LocationError,
	}
	if res.Emoji == "" {
		res.Emoji = v.Emoji()
	}

	if loc := r.GeocodedLocation; loc != nil {
		c, ok := loc.coordinate()
		if ok && c.Validate() == nil {
			res.ResolvedLocation = &walk.NamedLocation{
				Coordinate:       c,
				Name:             loc.Name,
				FormattedAddress: loc.FormattedAddress,
			}
		}
	}
	return res, nil
}

type locationWire struct {
	Latitude         *float64 `json:"latitude"`
	Longitude        *float64 `json:"longitude"`
	FormattedAddress string   `json:"formatted_address"`
	Name             string   `json:"name"`
}

func (l *locationWire) coordinate() (walk.Coordinate, bool) {
	if l == nil || l.Latitude == nil || l.Longitude == nil {
		return walk.Coordinate{}, false
	}
	return walk.Coordinate{Lat: *l.Latitude, Lon: *l.Longitude}, true
}

type geocodeRequest struct {
	Location string `json:"location"`
}

// geocodeResponse accepts the location either at the top level or wrapped.
type geocodeResponse struct {
	locationWire
	Location         *locationWire `json:"location"`
	Result           *locationWire `json:"result"`
	GeocodedLocation *locationWire `json:"geocoded_location"`
}

func (r geocodeResponse) toDestination() (walk.ResolvedDestination, error) {
	for _, loc := range []*locationWire{&r.locationWire, r.Location, r.Result, r.GeocodedLocation} {
		c, ok := loc.coordinate()
		if !ok {
			continue
		}
		if err := c.Validate(); err != nil {
			return walk.ResolvedDestination{}, malformed(OpGeocode, err)
		}
		addr := loc.FormattedAddress
		if addr == "" {
			addr = loc.Name
		}
		return walk.ResolvedDestination{Coordinate: c, FormattedAddress: addr}, nil
	}
	return walk.ResolvedDestination{}, &Error{
		Operation: OpGeocode,
		Code:      "NO_MATCH",
		Status:    200,
		Err:       ErrRejected,
	}
}

type generateRequest struct {
	Vibe        string           `json:"vibe"`
	Latitude    float64          `json:"latitude"`
	Longitude   float64          `json:"longitude"`
	Destination *destinationWire `json:"destination,omitempty"`
	Duration    *int             `json:"duration,omitempty"`
	Circular    bool             `json:"circular"`
}

type destinationWire struct {
	Latitude         float64 `json:"latitude"`
	Longitude        float64 `json:"longitude"`
	FormattedAddress string  `json:"formatted_address,omitempty"`
}

func newGenerateRequest(req walk.RouteRequest) generateRequest {
	out := generateRequest{
		Vibe:      string(req.Vibe),
		Latitude:  req.Origin.Lat,
		Longitude: req.Origin.Lon,
		Duration:  req.Duration,
		Circular:  req.Circular(),
	}
	if req.Destination != nil {
		out.Destination = &destinationWire{
			Latitude:         req.Destination.Coordinate.Lat,
			Longitude:        req.Destination.Coordinate.Lon,
			FormattedAddress: req.Destination.FormattedAddress,
		}
	}
	return out
}

type generateResponse struct {
	Vibe        string          `json:"vibe"`
	Emoji       string          `json:"emoji"`
	Description string          `json:"description"`
	Route       json.RawMessage `json:"route"`
	Places      []placeWire     `json:"places"`
	Waypoints   []placeWire     `json:"waypoints"`
	Directions  *directionsWire `json:"directions"`
	Config      *struct {
		Emoji string `json:"emoji"`
	} `json:"config"`
}

func (r generateResponse) toResponse(requested walk.Vibe) (walk.RouteResponse, error) {
	route, err := decodeRoute(r.Route)
	if err != nil {
		return walk.RouteResponse{}, err
	}

	v, err := walk.ParseVibe(r.Vibe)
	if err != nil {
		v = requested
	}

	emoji := r.Emoji
	if emoji == "" && r.Config != nil {
		emoji = r.Config.Emoji
	}
	if emoji == "" {
		emoji = v.Emoji()
	}

	wirePlaces := r.Places
	if len(wirePlaces) == 0 {
		wirePlaces = r.Waypoints
	}
	places := make([]walk.Place, 0, len(wirePlaces))
	for _, p := range wirePlaces {
		places = append(places, p.toPlace())
	}

	out := walk.RouteResponse{
		Vibe:        v,
		Emoji:       emoji,
		Description: r.Description,
		Route:       route,
		Places:      places,
	}
	if r.Directions != nil {
		out.Directions = r.Directions.toDirections()
	}
	return out, nil
}

type placeWire struct {
	PlaceID          flexString `json:"place_id"`
	ID               flexString `json:"id"`
	Name             string     `json:"name"`
	Type             string     `json:"type"`
	GoogleType       string     `json:"google_type"`
	Address          string     `json:"address"`
	Latitude         *float64   `json:"latitude"`
	Longitude        *float64   `json:"longitude"`
	Distance         *float64   `json:"distance"`
	Rating           *float64   `json:"rating"`
	UserRatingsTotal *int       `json:"user_ratings_total"`
	RatingCount      *int       `json:"rating_count"`
	Vibes            []string   `json:"vibes"`
}

func (p placeWire) toPlace() walk.Place {
	out := walk.Place{
		ID:      string(p.PlaceID),
		Name:    p.Name,
		Type:    p.Type,
		Address: p.Address,
		Rating:  p.Rating,
	}
	if out.ID == "" {
		out.ID = string(p.ID)
	}
	if out.Type == "" {
		out.Type = p.GoogleType
	}
	if p.Latitude != nil {
		out.Lat = *p.Latitude
	}
	if p.Longitude != nil {
		out.Lon = *p.Longitude
	}
	if p.Distance != nil {
		out.DistanceMeters = *p.Distance
	}
	out.RatingCount = p.UserRatingsTotal
	if out.RatingCount == nil {
		out.RatingCount = p.RatingCount
	}
	for _, s := range p.Vibes {
		if v, err := walk.ParseVibe(s); err == nil {
			out.Vibes = append(out.Vibes, v)
		}
	}
	return out
}

type directionsWire struct {
	Steps []stepWire `json:"steps"`
}

type stepWire struct {
	Instruction      string  `json:"instruction"`
	HTMLInstructions string  `json:"html_instructions"`
	Distance         float64 `json:"distance"`
	Duration         float64 `json:"duration"`
}

func (d directionsWire) toDirections() *walk.Directions {
	steps := make([]walk.Step, 0, len(d.Steps))
	for _, s := range d.Steps {
		instruction := s.Instruction
		if instruction == "" {
			instruction = s.HTMLInstructions
		}
		steps = append(steps, walk.Step{
			InstructionHTML: instruction,
			DistanceMeters:  s.Distance,
			DurationMinutes: s.Duration,
		})
	}
	return &walk.Directions{Steps: steps}
}

// flexString accepts a JSON string or number.
type flexString string

func (f *flexString) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = flexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("id must be a string or number: %w", err)
	}
	if _, err := strconv.ParseFloat(n.String(), 64); err != nil {
		return errors.New("id must be a string or number")
	}
	*f = flexString(strings.TrimSpace(n.String()))
	return nil
}
