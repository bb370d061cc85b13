package walk

import (
	"errors"
)

// Sentinel errors for the route pipeline.
var (
	// ErrLocationUnavailable indicates no device position could be read. It is
	// non-fatal: callers receive a fallback coordinate alongside it.
	ErrLocationUnavailable = errors.New("location unavailable")
	// ErrEmptyInput indicates a blank free-text query. No remote call is made.
	ErrEmptyInput = errors.New("empty input")
	// ErrResolutionFailed indicates the vibe detection service failed.
	ErrResolutionFailed = errors.New("vibe resolution failed")
	// ErrGeocodeFailed indicates a destination could not be resolved.
	ErrGeocodeFailed = errors.New("geocode failed")
	// ErrRouteGenerationFailed indicates the backend could not build a route.
	ErrRouteGenerationFailed = errors.New("route generation failed")
	// ErrBusy indicates a generation is already in flight.
	ErrBusy = errors.New("route generation already in progress")

	// ErrValidation is the parent of every local pre-submission failure.
	ErrValidation = errors.New("validation failed")
	// ErrMissingOrigin indicates no origin coordinate is available.
	ErrMissingOrigin = errors.New("origin is required")
	// ErrMissingDestination indicates a one-way route without a destination.
	ErrMissingDestination = errors.New("destination is required for one-way routes")
	// ErrMissingDuration indicates a circular route without a duration.
	ErrMissingDuration = errors.New("duration is required for circular routes")
	// ErrInvalidVibe indicates an unknown vibe.
	ErrInvalidVibe = errors.New("invalid vibe")
	// ErrInvalidCoordinate indicates a coordinate outside the valid ranges.
	ErrInvalidCoordinate = errors.New("invalid coordinate")
)

// Error is a remote-call failure converted at a component boundary. Message is
// safe to show to the user.
type Error struct {
	Code    string // Machine-readable code, e.g. "DETECT_FAILED"
	Message string // User-displayable message
	Err     error  // Taxonomy sentinel
	Cause   error  // Underlying transport or backend error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

// Unwrap exposes both the taxonomy sentinel and the underlying cause.
func (e *Error) Unwrap() []error {
	errs := make([]error, 0, 2)
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	if e.Cause != nil {
		errs = append(errs, e.Cause)
	}
	return errs
}

// ValidationError is a local failure that blocks an action before submission.
type ValidationError struct {
	Field   string
	Message string
	Err     error
}

func (e *ValidationError) Error() string {
	return e.Message
}

// Unwrap matches both ErrValidation and the specific sentinel.
func (e *ValidationError) Unwrap() []error {
	return []error{ErrValidation, e.Err}
}

func invalid(field string, sentinel error, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message, Err: sentinel}
}

// Message returns a user-displayable message for err.
func Message(err error) string {
	if err == nil {
		return ""
	}

	var werr *Error
	if errors.As(err, &werr) {
		return werr.Message
	}

	var verr *ValidationError
	if errors.As(err, &verr) {
		return verr.Message
	}

	switch {
	case errors.Is(err, ErrBusy):
		return "A route is already being generated"
	case errors.Is(err, ErrLocationUnavailable):
		return "Location not available"
	case errors.Is(err, ErrRouteGenerationFailed):
		return "Failed to generate route"
	}
	return "Something went wrong. Please try again."
}
