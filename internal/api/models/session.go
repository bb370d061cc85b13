package models

// Session is the state of one planning session.
type Session struct {
	ID              string        `json:"id"`
	Mood            string        `json:"mood"`
	MoodPending     bool          `json:"moodPending"`
	Vibe            string        `json:"vibe"`
	VibeColor       string        `json:"vibeColor"`
	DetectedVibe    *DetectedVibe `json:"detectedVibe,omitempty"`
	Origin          *Point        `json:"origin,omitempty"`
	Destination     *Destination  `json:"destination,omitempty"`
	DurationInput   string        `json:"durationInput"`
	DurationMinutes *int          `json:"durationMinutes,omitempty"`
	Shape           string        `json:"shape"`
	Loading         bool          `json:"loading"`
	CanGenerate     bool          `json:"canGenerate"`
	Route           *Route        `json:"route,omitempty"`
	Errors          SessionErrors `json:"errors"`
}

// SessionErrors carries every error source plus the one to display.
type SessionErrors struct {
	Display  string `json:"display,omitempty"`
	Location string `json:"location,omitempty"`
	Vibe     string `json:"vibe,omitempty"`
	Route    string `json:"route,omitempty"`
}

// DetectedVibe is the latest mood detection.
type DetectedVibe struct {
	Vibe        string         `json:"vibe"`
	Emoji       string         `json:"emoji"`
	Description string         `json:"description"`
	Location    *NamedLocation `json:"location,omitempty"`
}

// NamedLocation is a place named in the mood text.
type NamedLocation struct {
	Point
	Name             string `json:"name,omitempty"`
	FormattedAddress string `json:"formattedAddress,omitempty"`
}

// Destination is a resolved one-way destination.
type Destination struct {
	Point
	FormattedAddress string `json:"formattedAddress"`
}

// Route is the generated walk.
type Route struct {
	Vibe            string       `json:"vibe"`
	Emoji           string       `json:"emoji,omitempty"`
	Description     string       `json:"description,omitempty"`
	Coordinates     [][2]float64 `json:"coordinates"` // [lon, lat]
	DistanceMeters  float64      `json:"distanceMeters"`
	DurationMinutes float64      `json:"durationMinutes"`
	Summary         RouteSummary `json:"summary"`
	Places          []Place      `json:"places"`
	PlacesFound     int          `json:"placesFound"`
	PlacesOverflow  string       `json:"placesOverflow,omitempty"`
	Steps           []Step       `json:"steps,omitempty"`
	DirectionsURL   string       `json:"directionsUrl,omitempty"`
}

// RouteSummary is the route headline.
type RouteSummary struct {
	Title    string `json:"title"`
	Distance string `json:"distance"`
	Minutes  int    `json:"minutes"`
	Shape    string `json:"shape"`
	Steps    int    `json:"steps"`
}

// Place is a curated point of interest.
type Place struct {
	ID             string   `json:"id,omitempty"`
	Name           string   `json:"name"`
	Type           string   `json:"type,omitempty"`
	TypeLabel      string   `json:"typeLabel"`
	Label          string   `json:"label"`
	Address        string   `json:"address,omitempty"`
	Lat            float64  `json:"lat"`
	Lon            float64  `json:"lon"`
	DistanceMeters float64  `json:"distanceMeters"`
	Rating         *float64 `json:"rating,omitempty"`
	RatingCount    *int     `json:"ratingCount,omitempty"`
	Vibes          []string `json:"vibes,omitempty"`
}

// Step is one turn-by-turn instruction.
type Step struct {
	InstructionHTML string  `json:"instructionHtml"`
	DistanceMeters  float64 `json:"distanceMeters"`
	DurationMinutes float64 `json:"durationMinutes"`
}

// GenerateResponse is returned by the generate action.
type GenerateResponse struct {
	// Outcome is "generated", or "vibe_detected" when the mood was detected
	// first and generate must be called again.
	Outcome string  `json:"outcome"`
	Session Session `json:"session"`
}

// VibeInfo is one entry of the vibe catalog.
type VibeInfo struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Emoji       string `json:"emoji"`
	Description string `json:"description,omitempty"`
	Color       string `json:"color"`
}

// VibeList is the vibe catalog.
type VibeList struct {
	Vibes []VibeInfo `json:"vibes"`
}

// MoodRequest sets the mood text.
type MoodRequest struct {
	Text string `json:"text" validate:"max=500"`
}

// VibeRequest selects a vibe explicitly.
type VibeRequest struct {
	Vibe string `json:"vibe" validate:"required,oneof=chill date chaos aesthetic"`
}

// DurationRequest sets the raw duration field.
type DurationRequest struct {
	Input string `json:"input" validate:"max=16"`
}

// ShapeRequest sets the route shape.
type ShapeRequest struct {
	Shape string `json:"shape" validate:"required,routeshape"`
}

// DestinationRequest resolves a one-way destination.
type DestinationRequest struct {
	Text string `json:"text" validate:"required,max=300"`
}

// PositionRequest reports the device position, or why there is none.
type PositionRequest struct {
	Lat   *float64 `json:"lat,omitempty" validate:"required_without=Error,omitempty,gte=-90,lte=90"`
	Lon   *float64 `json:"lon,omitempty" validate:"required_with=Lat,omitempty,gte=-180,lte=180"`
	Error string   `json:"error,omitempty" validate:"omitempty,oneof=denied unavailable unsupported"`
}

// CreateSessionRequest optionally seeds a new session.
type CreateSessionRequest struct {
	Position *PositionRequest `json:"position,omitempty"`
	Mood     string           `json:"mood,omitempty" validate:"max=500"`
	Shape    string           `json:"shape,omitempty" validate:"omitempty,routeshape"`
}
