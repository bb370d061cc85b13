// Package vibe turns free mood text into one of the known walk vibes.
package vibe

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/touchgrass/touchgrass/internal/backend"
	"github.com/touchgrass/touchgrass/internal/walk"
)

// User-facing messages.
const (
	MessageEmptyInput   = "Please describe how you feel"
	MessageDetectFailed = "Failed to detect vibe"
)

// ErrNoDetector is the cause of every detection on a resolver built
// without a Detector.
var ErrNoDetector = errors.New("no vibe detector configured")

// Detector classifies mood text remotely.
type Detector interface {
	DetectVibe(ctx context.Context, text string) (walk.VibeResult, error)
}

// ResolverConfig holds configuration for the resolver.
type ResolverConfig struct {
	Detector Detector
	Logger   zerolog.Logger
}

// Resolver keeps the latest successful VibeResult.
type Resolver struct {
	detector Detector
	logger   zerolog.Logger

	mu      sync.RWMutex
	current *walk.VibeResult
}

// NewResolver creates a resolver.
func NewResolver(cfg ResolverConfig) *Resolver {
	return &Resolver{
		detector: cfg.Detector,
		logger:   cfg.Logger,
	}
}

// Resolve classifies text. Blank text fails with walk.ErrEmptyInput without
// calling the detector. A detector failure returns walk.ErrResolutionFailed
// and leaves the previous result in place; success replaces it wholesale.
func (r *Resolver) Resolve(ctx context.Context, text string) (walk.VibeResult, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return walk.VibeResult{}, &walk.Error{
			Code:    "EMPTY_INPUT",
			Message: MessageEmptyInput,
			Err:     walk.ErrEmptyInput,
		}
	}

	if r.detector == nil {
		return walk.VibeResult{}, &walk.Error{
			Code:    "DETECT_FAILED",
			Message: MessageDetectFailed,
			Err:     walk.ErrResolutionFailed,
			Cause:   ErrNoDetector,
		}
	}

	res, err := r.detector.DetectVibe(ctx, text)
	if err != nil {
		r.logger.Warn().Err(err).Msg("vibe detection failed")
		return walk.VibeResult{}, &walk.Error{
			Code:    "DETECT_FAILED",
			Message: backend.MessageOr(err, MessageDetectFailed),
			Err:     walk.ErrResolutionFailed,
			Cause:   err,
		}
	}

	r.mu.Lock()
	r.current = &res
	r.mu.Unlock()

	ev := r.logger.Debug().Str("vibe", string(res.Vibe))
	if res.ResolvedLocation != nil {
		ev = ev.Str("location", res.ResolvedLocation.Label())
	}
	ev.Msg("vibe detected")

	return res, nil
}

// Current returns the latest successful result.
func (r *Resolver) Current() (walk.VibeResult, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.current == nil {
		return walk.VibeResult{}, false
	}
	return *r.current, true
}

// ClearResolvedLocation drops the resolved location and keeps the vibe.
func (r *Resolver) ClearResolvedLocation() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.current != nil {
		res := r.current.WithoutLocation()
		r.current = &res
	}
}
