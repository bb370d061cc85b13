package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/touchgrass/touchgrass/internal/api/middleware"
	"github.com/touchgrass/touchgrass/internal/api/models"
	"github.com/touchgrass/touchgrass/internal/api/response"
	"github.com/touchgrass/touchgrass/internal/location"
	"github.com/touchgrass/touchgrass/internal/session"
	"github.com/touchgrass/touchgrass/internal/walk"
)

var errPositionUnavailable = errors.New("position unavailable")

// SessionStore creates and finds sessions.
type SessionStore interface {
	Create() *session.Workspace
	Get(id string) (*session.Workspace, error)
	Delete(id string) error
}

// SessionHandler handles the planning session endpoints. Every mutating
// endpoint answers with the full session state.
type SessionHandler struct {
	store SessionStore
}

// NewSessionHandler creates a new SessionHandler.
func NewSessionHandler(store SessionStore) *SessionHandler {
	return &SessionHandler{store: store}
}

func (h *SessionHandler) workspace(w http.ResponseWriter, r *http.Request) (*session.Workspace, bool) {
	ws, err := h.store.Get(chi.URLParam(r, middleware.SessionParam))
	if err != nil {
		writeError(w, r, err)
		return nil, false
	}
	return ws, true
}

func writeSession(w http.ResponseWriter, r *http.Request, ws *session.Workspace) {
	response.JSON(w, r, http.StatusOK, toSession(ws.ID, ws.Session.Snapshot()))
}

// CreateSession handles POST /v1/sessions. The body is optional; a reported
// position is acquired straight away.
func (h *SessionHandler) CreateSession(w http.ResponseWriter, r *http.Request) {
	var input models.CreateSessionRequest
	if _, ok := decodeOptional(w, r, &input); !ok {
		return
	}

	var shape walk.RouteShape
	if input.Shape != "" {
		var err error
		if shape, err = walk.ParseShape(input.Shape); err != nil {
			writeError(w, r, err)
			return
		}
	}

	ws := h.store.Create()
	if shape != "" {
		if err := ws.Session.SetShape(shape); err != nil {
			_ = h.store.Delete(ws.ID)
			writeError(w, r, err)
			return
		}
	}
	if input.Mood != "" {
		ws.Session.SetMood(input.Mood)
	}
	if input.Position != nil {
		reportPosition(r.Context(), ws, *input.Position)
	}

	response.Created(w, r, "/v1/sessions/"+ws.ID, toSession(ws.ID, ws.Session.Snapshot()))
}

// GetSession handles GET /v1/sessions/{sessionID}.
func (h *SessionHandler) GetSession(w http.ResponseWriter, r *http.Request) {
	if ws, ok := h.workspace(w, r); ok {
		writeSession(w, r, ws)
	}
}

// DeleteSession handles DELETE /v1/sessions/{sessionID}.
func (h *SessionHandler) DeleteSession(w http.ResponseWriter, r *http.Request) {
	if err := h.store.Delete(chi.URLParam(r, middleware.SessionParam)); err != nil {
		writeError(w, r, err)
		return
	}
	response.NoContent(w, r)
}

// ReportPosition handles PUT /v1/sessions/{sessionID}/position. A reported
// failure is not an error: the session falls back to the default origin.
func (h *SessionHandler) ReportPosition(w http.ResponseWriter, r *http.Request) {
	ws, ok := h.workspace(w, r)
	if !ok {
		return
	}
	var input models.PositionRequest
	if !decode(w, r, &input) {
		return
	}

	reportPosition(r.Context(), ws, input)
	writeSession(w, r, ws)
}

func reportPosition(ctx context.Context, ws *session.Workspace, input models.PositionRequest) {
	switch {
	case input.Lat != nil && input.Lon != nil:
		ws.Position.Report(walk.Coordinate{Lat: *input.Lat, Lon: *input.Lon})
	case input.Error == "denied":
		ws.Position.ReportError(location.ErrPermissionDenied)
	case input.Error == "unsupported":
		ws.Position.ReportError(location.ErrNotSupported)
	default:
		ws.Position.ReportError(errPositionUnavailable)
	}
	// The error is recorded on the session and shown from there.
	_, _ = ws.Session.AcquireLocation(ctx)
}

// SetMood handles PUT /v1/sessions/{sessionID}/mood.
func (h *SessionHandler) SetMood(w http.ResponseWriter, r *http.Request) {
	ws, ok := h.workspace(w, r)
	if !ok {
		return
	}
	var input models.MoodRequest
	if !decode(w, r, &input) {
		return
	}

	ws.Session.SetMood(input.Text)
	writeSession(w, r, ws)
}

// DetectVibe handles POST /v1/sessions/{sessionID}/mood:detect.
func (h *SessionHandler) DetectVibe(w http.ResponseWriter, r *http.Request) {
	ws, ok := h.workspace(w, r)
	if !ok {
		return
	}
	if _, err := ws.Session.DetectVibe(r.Context()); err != nil {
		writeError(w, r, err)
		return
	}
	writeSession(w, r, ws)
}

// ClearMoodLocation handles DELETE /v1/sessions/{sessionID}/mood/location.
func (h *SessionHandler) ClearMoodLocation(w http.ResponseWriter, r *http.Request) {
	ws, ok := h.workspace(w, r)
	if !ok {
		return
	}
	ws.Session.ClearResolvedLocation()
	writeSession(w, r, ws)
}

// SelectVibe handles PUT /v1/sessions/{sessionID}/vibe.
func (h *SessionHandler) SelectVibe(w http.ResponseWriter, r *http.Request) {
	ws, ok := h.workspace(w, r)
	if !ok {
		return
	}
	var input models.VibeRequest
	if !decode(w, r, &input) {
		return
	}

	v, err := walk.ParseVibe(input.Vibe)
	if err == nil {
		err = ws.Session.SelectVibe(v)
	}
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeSession(w, r, ws)
}

// SetDuration handles PUT /v1/sessions/{sessionID}/duration. Input that is
// not a number leaves the session without a duration.
func (h *SessionHandler) SetDuration(w http.ResponseWriter, r *http.Request) {
	ws, ok := h.workspace(w, r)
	if !ok {
		return
	}
	var input models.DurationRequest
	if !decode(w, r, &input) {
		return
	}

	ws.Session.SetDuration(input.Input)
	writeSession(w, r, ws)
}

// SetShape handles PUT /v1/sessions/{sessionID}/shape.
func (h *SessionHandler) SetShape(w http.ResponseWriter, r *http.Request) {
	ws, ok := h.workspace(w, r)
	if !ok {
		return
	}
	var input models.ShapeRequest
	if !decode(w, r, &input) {
		return
	}

	shape, err := walk.ParseShape(input.Shape)
	if err == nil {
		err = ws.Session.SetShape(shape)
	}
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeSession(w, r, ws)
}

// ResolveDestination handles PUT /v1/sessions/{sessionID}/destination.
func (h *SessionHandler) ResolveDestination(w http.ResponseWriter, r *http.Request) {
	ws, ok := h.workspace(w, r)
	if !ok {
		return
	}
	var input models.DestinationRequest
	if !decode(w, r, &input) {
		return
	}

	if _, err := ws.Session.ResolveDestination(r.Context(), input.Text); err != nil {
		writeError(w, r, err)
		return
	}
	writeSession(w, r, ws)
}

// ClearDestination handles DELETE /v1/sessions/{sessionID}/destination.
func (h *SessionHandler) ClearDestination(w http.ResponseWriter, r *http.Request) {
	ws, ok := h.workspace(w, r)
	if !ok {
		return
	}
	ws.Session.ClearDestination()
	writeSession(w, r, ws)
}

// GenerateRoute handles POST /v1/sessions/{sessionID}/routes:generate. When
// the mood text has changed since the last detection the vibe is detected
// and the outcome is "vibe_detected"; the client calls again to generate.
func (h *SessionHandler) GenerateRoute(w http.ResponseWriter, r *http.Request) {
	ws, ok := h.workspace(w, r)
	if !ok {
		return
	}

	outcome, err := ws.Session.Generate(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}

	response.JSON(w, r, http.StatusOK, models.GenerateResponse{
		Outcome: string(outcome),
		Session: toSession(ws.ID, ws.Session.Snapshot()),
	})
}

// GetMap handles GET /v1/sessions/{sessionID}/map: the drawn route as a
// GeoJSON FeatureCollection whose bbox is the fitted viewport.
func (h *SessionHandler) GetMap(w http.ResponseWriter, r *http.Request) {
	ws, ok := h.workspace(w, r)
	if !ok {
		return
	}
	response.GeoJSON(w, r, ws.Map.FeatureCollection())
}
