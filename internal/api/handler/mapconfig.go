package handler

import (
	"net/http"

	"github.com/touchgrass/touchgrass/internal/api/models"
	"github.com/touchgrass/touchgrass/internal/api/response"
	"github.com/touchgrass/touchgrass/internal/location"
	"github.com/touchgrass/touchgrass/internal/walk"
)

// DefaultMapStyle is the base map style clients load.
const DefaultMapStyle = "mapbox://styles/mapbox/streets-v12"

// MapConfig holds base map settings.
type MapConfig struct {
	Token string

	// Style URL. Default: DefaultMapStyle
	Style string

	// Zoom level the map opens at. Default: 13
	Zoom int

	// Center used before a position is known. Default: location.SanFrancisco
	Center *walk.Coordinate
}

// MapHandler serves base map settings.
type MapHandler struct {
	cfg models.MapConfig
}

// NewMapHandler creates a new MapHandler.
func NewMapHandler(cfg MapConfig) *MapHandler {
	out := models.MapConfig{
		Token:     cfg.Token,
		Available: cfg.Token != "",
		Style:     cfg.Style,
		Zoom:      cfg.Zoom,
		Center:    toPoint(location.SanFrancisco),
	}
	if out.Style == "" {
		out.Style = DefaultMapStyle
	}
	if out.Zoom == 0 {
		out.Zoom = 13
	}
	if cfg.Center != nil {
		out.Center = toPoint(*cfg.Center)
	}
	return &MapHandler{cfg: out}
}

// GetMapConfig handles GET /v1/map/config.
func (h *MapHandler) GetMapConfig(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, r, http.StatusOK, h.cfg)
}
