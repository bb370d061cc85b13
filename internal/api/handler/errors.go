package handler

import (
	"errors"
	"net/http"

	"github.com/touchgrass/touchgrass/internal/api/middleware"
	"github.com/touchgrass/touchgrass/internal/api/models"
	"github.com/touchgrass/touchgrass/internal/api/response"
	"github.com/touchgrass/touchgrass/internal/session"
	"github.com/touchgrass/touchgrass/internal/walk"
)

// writeError maps pipeline errors onto problems. The detail is always the
// user-facing message.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	traceID := middleware.GetRequestID(r.Context())
	detail := walk.Message(err)

	var problem *models.Problem
	var verr *walk.ValidationError
	switch {
	case errors.Is(err, session.ErrNotFound):
		problem = models.NewNotFound(traceID, "Session not found")
	case errors.Is(err, walk.ErrBusy):
		problem = models.NewConflict(traceID, detail).WithCode("BUSY")
	case errors.As(err, &verr):
		problem = models.NewUnprocessable(traceID, detail).
			WithCode("VALIDATION").
			WithErrors([]models.FieldError{{Field: verr.Field, Message: verr.Message, Code: "invalid"}})
	case errors.Is(err, walk.ErrValidation), errors.Is(err, walk.ErrInvalidVibe):
		problem = models.NewUnprocessable(traceID, err.Error()).WithCode("VALIDATION")
	case errors.Is(err, walk.ErrEmptyInput):
		problem = models.NewBadRequest(traceID, detail, nil)
	case errors.Is(err, walk.ErrLocationUnavailable), errors.Is(err, walk.ErrGeocodeFailed):
		problem = models.NewUnprocessable(traceID, detail)
	case errors.Is(err, walk.ErrResolutionFailed), errors.Is(err, walk.ErrRouteGenerationFailed):
		problem = models.NewBadGateway(traceID, detail)
	default:
		problem = models.NewInternalError(traceID, detail)
	}

	var werr *walk.Error
	if problem.Code == "" && errors.As(err, &werr) {
		problem.WithCode(werr.Code)
	}
	response.Error(w, r, problem)
}
