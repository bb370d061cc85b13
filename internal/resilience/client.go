package resilience

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"
	"github.com/sony/gobreaker/v2"
)

var (
	// ErrCircuitOpen is returned without contacting the upstream while the breaker is open.
	ErrCircuitOpen = errors.New("circuit breaker is open")
)

// Doer is the subset of *http.Client used by backend clients.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Config holds configuration for the resilient client.
type Config struct {
	// Name identifies the upstream in logs and health output.
	Name string

	// Timeout bounds each individual attempt. Default: 10 seconds
	Timeout time.Duration

	// MaxRetries after the first attempt. Default: 2
	MaxRetries uint64

	// InitialInterval is the first backoff delay. Default: 200ms
	InitialInterval time.Duration

	// MaxInterval caps the backoff delay. Default: 2 seconds
	MaxInterval time.Duration

	Breaker BreakerConfig

	// Transport overrides the default round tripper.
	Transport http.RoundTripper

	Logger zerolog.Logger
}

// DefaultConfig returns the settings used for the route backend.
func DefaultConfig(name string) Config {
	return Config{
		Name:            name,
		Timeout:         10 * time.Second,
		MaxRetries:      2,
		InitialInterval: 200 * time.Millisecond,
		MaxInterval:     2 * time.Second,
		Breaker:         DefaultBreakerConfig(),
		Logger:          zerolog.Nop(),
	}
}

// Client is an http.Client guarded by a circuit breaker with retries.
// Server errors (5xx) and 429 responses count as failures and are retried;
// other responses are handed back to the caller untouched.
type Client struct {
	name       string
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker[*http.Response]
	config     Config
	logger     zerolog.Logger
}

// NewClient creates a resilient client, applying defaults for zero fields.
func NewClient(cfg Config) *Client {
	d := DefaultConfig(cfg.Name)
	if cfg.Timeout == 0 {
		cfg.Timeout = d.Timeout
	}
	if cfg.InitialInterval == 0 {
		cfg.InitialInterval = d.InitialInterval
	}
	if cfg.MaxInterval == 0 {
		cfg.MaxInterval = d.MaxInterval
	}
	cfg.Breaker = cfg.Breaker.withDefaults()

	return &Client{
		name: cfg.Name,
		httpClient: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: cfg.Transport,
		},
		breaker: newBreaker(cfg.Name, cfg.Breaker, cfg.Logger),
		config:  cfg,
		logger:  cfg.Logger,
	}
}

// Name returns the upstream name this client was created for.
func (c *Client) Name() string {
	return c.name
}

// Do sends the request, retrying transient failures with exponential backoff.
// Requests with a body must be rewindable (GetBody set), which is the case for
// requests built by http.NewRequest from a bytes or strings reader.
// When retries are exhausted on a 5xx or 429, the last response is returned
// with a nil error so the caller can read the upstream's error body.
func (c *Client) Do(req *http.Request) (*http.Response, error) {
	ctx := req.Context()

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = c.config.InitialInterval
	bo.MaxInterval = c.config.MaxInterval
	bo.MaxElapsedTime = 0

	policy := backoff.WithContext(backoff.WithMaxRetries(bo, c.config.MaxRetries), ctx)

	var (
		last    *http.Response
		attempt int
	)

	operation := func() error {
		attempt++
		if last != nil {
			drain(last)
			last = nil
		}

		attemptReq, err := rewind(ctx, req)
		if err != nil {
			return backoff.Permanent(err)
		}

		resp, err := c.breaker.Execute(func() (*http.Response, error) { //nolint:bodyclose // returned to caller
			r, err := c.httpClient.Do(attemptReq)
			if err != nil {
				return nil, err
			}
			if retryableStatus(r.StatusCode) {
				return r, &StatusError{StatusCode: r.StatusCode}
			}
			return r, nil
		})

		switch {
		case err == nil:
			last = resp
			return nil
		case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
			return backoff.Permanent(ErrCircuitOpen)
		case ctx.Err() != nil:
			return backoff.Permanent(ctx.Err())
		}

		if resp != nil {
			last = resp
		}
		c.logger.Debug().
			Err(err).
			Str("upstream", c.name).
			Int("attempt", attempt).
			Msg("upstream attempt failed")
		return err
	}

	if err := backoff.Retry(operation, policy); err != nil {
		if last != nil && ctx.Err() == nil {
			return last, nil
		}
		if last != nil {
			drain(last)
		}
		return nil, fmt.Errorf("%s: %w", c.name, err)
	}

	return last, nil
}

// State returns the breaker's current state.
func (c *Client) State() gobreaker.State {
	return c.breaker.State()
}

// Counts returns the breaker's counters for the current generation.
func (c *Client) Counts() gobreaker.Counts {
	return c.breaker.Counts()
}

// StatusError is a retryable upstream status.
type StatusError struct {
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("upstream returned %d %s", e.StatusCode, http.StatusText(e.StatusCode))
}

func retryableStatus(code int) bool {
	return code >= 500 || code == http.StatusTooManyRequests
}

func rewind(ctx context.Context, req *http.Request) (*http.Request, error) {
	clone := req.Clone(ctx)
	if req.Body == nil || req.Body == http.NoBody {
		return clone, nil
	}
	if req.GetBody == nil {
		return nil, errors.New("request body cannot be replayed")
	}
	body, err := req.GetBody()
	if err != nil {
		return nil, fmt.Errorf("replay request body: %w", err)
	}
	clone.Body = body
	return clone, nil
}

func drain(resp *http.Response) {
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
	_ = resp.Body.Close()
}
