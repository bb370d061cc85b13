package backend

import (
	"errors"
	"fmt"
)

// Sentinel errors for backend calls.
var (
	// ErrUnavailable indicates a transport failure, a 5xx, or an open circuit breaker.
	ErrUnavailable = errors.New("route backend unavailable")
	// ErrRateLimited indicates the backend answered 429.
	ErrRateLimited = errors.New("route backend rate limit exceeded")
	// ErrRejected indicates the backend refused the request with a 4xx.
	ErrRejected = errors.New("route backend rejected the request")
	// ErrMalformedResponse indicates a 2xx body that could not be normalized.
	ErrMalformedResponse = errors.New("malformed backend response")
)

// Error describes a failed backend operation.
type Error struct {
	Operation string // e.g. "generate_route"
	Code      string // e.g. "SERVER_502", "CIRCUIT_OPEN"
	Status    int    // HTTP status, 0 when no response was received
	Message   string // text of the backend's {"error": ...} body, if any
	Err       error  // one of the sentinels above
	Cause     error
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	if e.Cause != nil {
		return fmt.Sprintf("backend %s: %s: %v", e.Operation, msg, e.Cause)
	}
	return fmt.Sprintf("backend %s: %s", e.Operation, msg)
}

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

// IsRetryable reports whether trying again later might succeed.
func (e *Error) IsRetryable() bool {
	return errors.Is(e.Err, ErrUnavailable) || errors.Is(e.Err, ErrRateLimited)
}

// MessageOr returns the backend-supplied error text carried by err, or
// fallback when there is none.
func MessageOr(err error, fallback string) string {
	var be *Error
	if errors.As(err, &be) && be.Message != "" {
		return be.Message
	}
	return fallback
}
