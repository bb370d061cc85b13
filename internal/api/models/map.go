package models

// MapConfig is what a client needs to draw the base map.
type MapConfig struct {
	// Token is the map tile access token. Empty when the map is unavailable.
	Token     string `json:"token,omitempty"`
	Available bool   `json:"available"`
	Style     string `json:"style"`
	Zoom      int    `json:"zoom"`
	Center    Point  `json:"center"`
}
