package handler

import (
	"context"
	"net/http"

	"github.com/touchgrass/touchgrass/internal/api/models"
	"github.com/touchgrass/touchgrass/internal/api/response"
	"github.com/touchgrass/touchgrass/internal/walk"
)

// VibeLister lists the available vibes.
type VibeLister interface {
	List(ctx context.Context) []walk.VibeInfo
}

// VibeHandler handles the vibe catalog.
type VibeHandler struct {
	catalog VibeLister
}

// NewVibeHandler creates a new VibeHandler.
func NewVibeHandler(catalog VibeLister) *VibeHandler {
	return &VibeHandler{catalog: catalog}
}

// ListVibes handles GET /v1/vibes.
func (h *VibeHandler) ListVibes(w http.ResponseWriter, r *http.Request) {
	vibes := h.catalog.List(r.Context())

	out := models.VibeList{Vibes: make([]models.VibeInfo, 0, len(vibes))}
	for _, v := range vibes {
		out.Vibes = append(out.Vibes, models.VibeInfo{
			ID:          string(v.ID),
			Name:        v.Name,
			Emoji:       v.Emoji,
			Description: v.Description,
			Color:       v.ID.Color(),
		})
	}
	response.JSON(w, r, http.StatusOK, out)
}
