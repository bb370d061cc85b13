// Package backend is the REST client for the touchgrass route backend. It
// normalizes the backend's loosely shaped responses into walk types at the
// boundary so nothing downstream sees wire formats.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/touchgrass/touchgrass/internal/resilience"
	"github.com/touchgrass/touchgrass/internal/telemetry"
	"github.com/touchgrass/touchgrass/internal/walk"
)

const (
	// UpstreamName identifies the backend in health output and metrics.
	UpstreamName = "route-backend"

	// DefaultBaseURL is used when no base URL is configured.
	DefaultBaseURL = "http://localhost:5001/api"

	// DefaultTimeout bounds a single attempt.
	DefaultTimeout = 30 * time.Second

	maxBodyBytes = 8 << 20
)

// Operation names used in errors, spans and metrics.
const (
	OpListVibes     = "list_vibes"
	OpDetectVibe    = "detect_vibe"
	OpGeocode       = "geocode"
	OpGenerateRoute = "generate_route"
	OpHealth        = "health"
)

// ClientConfig holds configuration for the backend client.
type ClientConfig struct {
	// BaseURL including the /api prefix. Defaults to DefaultBaseURL.
	BaseURL string

	// HTTPClient overrides the resilient client built from Timeout.
	HTTPClient resilience.Doer

	// Timeout per attempt. Default: 30 seconds (route generation is slow).
	Timeout time.Duration

	// Monitor receives success and failure reports (optional).
	Monitor *resilience.Monitor

	// Metrics records call durations (optional).
	Metrics *telemetry.UpstreamMetrics

	Logger zerolog.Logger
}

// Client talks to the route backend.
type Client struct {
	baseURL    string
	httpClient resilience.Doer
	monitor    *resilience.Monitor
	metrics    *telemetry.UpstreamMetrics
	tracer     trace.Tracer
	logger     zerolog.Logger
}

// NewClient creates a backend client.
func NewClient(cfg ClientConfig) *Client {
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = DefaultTimeout
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		rcfg := resilience.DefaultConfig(UpstreamName)
		rcfg.Timeout = timeout
		rcfg.Logger = cfg.Logger
		rc := resilience.NewClient(rcfg)
		if cfg.Monitor != nil {
			cfg.Monitor.Track(rc)
		}
		httpClient = rc
	}

	return &Client{
		baseURL:    baseURL,
		httpClient: httpClient,
		monitor:    cfg.Monitor,
		metrics:    cfg.Metrics,
		tracer:     telemetry.Tracer(),
		logger:     cfg.Logger,
	}
}

// BaseURL returns the normalized base URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// ListVibes fetches the vibe catalog. Entries with unknown ids are skipped.
func (c *Client) ListVibes(ctx context.Context) ([]walk.VibeInfo, error) {
	var resp vibeListResponse
	if err := c.call(ctx, OpListVibes, http.MethodGet, "/vibes", nil, &resp); err != nil {
		return nil, err
	}

	vibes := make([]walk.VibeInfo, 0, len(resp.Vibes))
	for _, v := range resp.Vibes {
		id, err := walk.ParseVibe(v.ID)
		if err != nil {
			continue
		}
		info := walk.VibeInfo{ID: id, Name: v.Name, Emoji: v.Emoji, Description: v.Description}
		if info.Emoji == "" {
			info.Emoji = id.Emoji()
		}
		vibes = append(vibes, info)
	}
	if len(vibes) == 0 {
		return nil, malformed(OpListVibes, errors.New("no known vibes in catalog"))
	}
	return vibes, nil
}

// DetectVibe classifies free mood text. The result may carry a resolved
// location when the text named a place.
func (c *Client) DetectVibe(ctx context.Context, text string) (walk.VibeResult, error) {
	var resp detectResponse
	if err := c.call(ctx, OpDetectVibe, http.MethodPost, "/detect-vibe", detectRequest{Text: text}, &resp); err != nil {
		return walk.VibeResult{}, err
	}
	return resp.toResult()
}

// Geocode resolves a destination query.
func (c *Client) Geocode(ctx context.Context, query string) (walk.ResolvedDestination, error) {
	var resp geocodeResponse
	if err := c.call(ctx, OpGeocode, http.MethodPost, "/geocode", geocodeRequest{Location: query}, &resp); err != nil {
		return walk.ResolvedDestination{}, err
	}
	return resp.toDestination()
}

// GenerateRoute submits a validated request and normalizes the response.
func (c *Client) GenerateRoute(ctx context.Context, req walk.RouteRequest) (walk.RouteResponse, error) {
	var resp generateResponse
	if err := c.call(ctx, OpGenerateRoute, http.MethodPost, "/generate-route", newGenerateRequest(req), &resp); err != nil {
		return walk.RouteResponse{}, err
	}

	out, err := resp.toResponse(req.Vibe)
	if err != nil {
		return walk.RouteResponse{}, malformed(OpGenerateRoute, err)
	}

	c.logger.Debug().
		Str("vibe", string(out.Vibe)).
		Int("coordinates", len(out.Route.Coordinates)).
		Int("places", len(out.Places)).
		Float64("distance_m", out.Route.DistanceMeters).
		Msg("route generated")

	return out, nil
}

// Health is the backend's self-reported status.
type Health struct {
	Status     string
	Configured map[string]bool // e.g. "google_maps": true
}

// Health checks the backend.
func (c *Client) Health(ctx context.Context) (Health, error) {
	var raw map[string]json.RawMessage
	if err := c.call(ctx, OpHealth, http.MethodGet, "/health", nil, &raw); err != nil {
		return Health{}, err
	}

	h := Health{Configured: make(map[string]bool)}
	for key, value := range raw {
		if key == "status" {
			_ = json.Unmarshal(value, &h.Status) //nolint:errcheck // non-string status is reported empty
			continue
		}
		if name, ok := strings.CutSuffix(key, "_configured"); ok {
			var b bool
			if json.Unmarshal(value, &b) == nil {
				h.Configured[name] = b
			}
		}
	}
	return h, nil
}

// call performs one JSON round trip. out is only decoded on 2xx.
func (c *Client) call(ctx context.Context, op, method, path string, in, out any) (err error) {
	ctx, span := c.tracer.Start(ctx, "backend."+op,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attribute.String("http.request.method", method)),
	)
	start := time.Now()
	defer func() {
		c.metrics.RecordCall(ctx, op, time.Since(start), err)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	var body io.Reader = http.NoBody
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("marshaling %s request: %w", op, err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("creating %s request: %w", op, err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		code := "REQUEST_FAILED"
		if errors.Is(err, resilience.ErrCircuitOpen) {
			code = "CIRCUIT_OPEN"
		}
		c.reportFailure(err)
		c.logger.Warn().Err(err).Str("operation", op).Msg("backend request failed")
		return &Error{Operation: op, Code: code, Err: ErrUnavailable, Cause: err}
	}
	defer resp.Body.Close()

	span.SetAttributes(attribute.Int("http.response.status_code", resp.StatusCode))

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		c.reportFailure(err)
		return &Error{Operation: op, Code: "READ_FAILED", Status: resp.StatusCode, Err: ErrUnavailable, Cause: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		berr := errorFromResponse(op, resp.StatusCode, respBody)
		if berr.IsRetryable() {
			c.reportFailure(berr)
		} else {
			c.reportSuccess()
		}
		c.logger.Warn().
			Str("operation", op).
			Int("status", resp.StatusCode).
			Str("backend_error", berr.Message).
			Msg("backend returned an error")
		return berr
	}
	c.reportSuccess()

	if err := json.Unmarshal(respBody, out); err != nil {
		return malformed(op, err)
	}
	return nil
}

func (c *Client) reportSuccess() {
	if c.monitor != nil {
		c.monitor.Succeeded(UpstreamName)
	}
}

func (c *Client) reportFailure(err error) {
	if c.monitor != nil {
		c.monitor.Failed(UpstreamName, err)
	}
}

// errorFromResponse maps a non-2xx response onto the error taxonomy, keeping
// the backend's own message when the body is {"error": "..."}.
func errorFromResponse(op string, status int, body []byte) *Error {
	var eb errorBody
	_ = json.Unmarshal(body, &eb) //nolint:errcheck // non-JSON error bodies carry no message
	msg := strings.TrimSpace(eb.Error)

	switch {
	case status == http.StatusTooManyRequests:
		return &Error{Operation: op, Code: "RATE_LIMIT", Status: status, Message: msg, Err: ErrRateLimited}
	case status >= 500:
		return &Error{Operation: op, Code: fmt.Sprintf("SERVER_%d", status), Status: status, Message: msg, Err: ErrUnavailable}
	case status == http.StatusNotFound:
		return &Error{Operation: op, Code: "NOT_FOUND", Status: status, Message: msg, Err: ErrRejected}
	default:
		return &Error{Operation: op, Code: fmt.Sprintf("HTTP_%d", status), Status: status, Message: msg, Err: ErrRejected}
	}
}

func malformed(op string, cause error) *Error {
	return &Error{Operation: op, Code: "MALFORMED_RESPONSE", Err: ErrMalformedResponse, Cause: cause}
}
