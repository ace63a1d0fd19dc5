package openmeteo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"time"

	"github.com/sony/gobreaker"
)

// TransportError is a network-level fetch failure: timeout, DNS,
// connection refused, or a circuit held open after repeated failures.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string { return fmt.Sprintf("transport error: %v", e.Err) }
func (e *TransportError) Unwrap() error { return e.Err }

// RemoteError is a non-success response from the provider, or a
// success status whose body could not be decoded.
type RemoteError struct {
	StatusCode int
	Err        error
}

func (e *RemoteError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("remote error: %v", e.Err)
	}
	return fmt.Sprintf("remote error: status %d", e.StatusCode)
}

func (e *RemoteError) Unwrap() error { return e.Err }

// HourlyPayload is the decoded provider response. Measurement arrays
// are kept untyped so the parser can coerce non-numeric tokens to
// missing instead of failing the decode.
type HourlyPayload struct {
	Hourly map[string][]any `json:"hourly"`
}

// BackoffConfig controls exponential backoff behaviour.
type BackoffConfig struct {
	MaxRetries      int
	InitialInterval time.Duration
	MaxInterval     time.Duration
}

// Client fetches hourly observations from Open-Meteo with a bounded
// timeout, exponential backoff, and a circuit breaker.
type Client struct {
	baseURL string
	client  *http.Client
	backoff BackoffConfig
	circuit *gobreaker.CircuitBreaker
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL overrides the provider endpoint (used by tests).
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = u }
}

// WithBackoff overrides the retry policy.
func WithBackoff(b BackoffConfig) Option {
	return func(c *Client) { c.backoff = b }
}

// NewClient creates a Client. The http.Client carries the fetch
// timeout; 30 seconds is the reference ceiling.
func NewClient(client *http.Client, opts ...Option) *Client {
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "openmeteo",
		MaxRequests: 5,
		Interval:    1 * time.Minute,
		Timeout:     2 * time.Minute,
	})
	c := &Client{
		baseURL: defaultBaseURL,
		client:  client,
		backoff: BackoffConfig{
			MaxRetries:      3,
			InitialInterval: 500 * time.Millisecond,
			MaxInterval:     5 * time.Second,
		},
		circuit: cb,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// FetchHourly executes the query and returns the decoded payload plus
// the exact request URL that produced it, for diagnostics. Failures are
// a *TransportError or a *RemoteError; a successful response with an
// empty hourly block is not an error.
func (c *Client) FetchHourly(ctx context.Context, q Query) (*HourlyPayload, string, error) {
	queryURL := q.URL(c.baseURL)

	resp, err := c.doWithResilience(ctx, queryURL)
	if err != nil {
		return nil, queryURL, err
	}
	defer resp.Body.Close()

	var payload HourlyPayload
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, queryURL, &RemoteError{StatusCode: resp.StatusCode, Err: fmt.Errorf("decode payload: %w", err)}
	}
	return &payload, queryURL, nil
}

// doWithResilience executes the request with retries, exponential
// backoff, and the circuit breaker. Server errors (5xx) and rate
// limiting (429) are retried; other non-2xx statuses fail immediately.
func (c *Client) doWithResilience(ctx context.Context, queryURL string) (*http.Response, error) {
	if c.client == nil {
		return nil, &TransportError{Err: errors.New("http client not configured")}
	}

	var attempt int
	var lastErr error

	for {
		if ctx.Err() != nil {
			return nil, &TransportError{Err: ctx.Err()}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, queryURL, nil)
		if err != nil {
			return nil, &TransportError{Err: err}
		}

		result, err := c.circuit.Execute(func() (interface{}, error) {
			resp, execErr := c.client.Do(req)
			if execErr != nil {
				return nil, &TransportError{Err: execErr}
			}
			if resp.StatusCode < 200 || resp.StatusCode >= 300 {
				io.Copy(io.Discard, resp.Body)
				resp.Body.Close()
				return nil, &RemoteError{StatusCode: resp.StatusCode}
			}
			return resp, nil
		})

		if err == nil {
			return result.(*http.Response), nil
		}

		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, &TransportError{Err: err}
		}

		lastErr = err
		if !retryable(err) || attempt >= c.backoff.MaxRetries {
			return nil, lastErr
		}

		delay := c.backoff.InitialInterval * time.Duration(math.Pow(2, float64(attempt)))
		if c.backoff.MaxInterval > 0 && delay > c.backoff.MaxInterval {
			delay = c.backoff.MaxInterval
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, &TransportError{Err: ctx.Err()}
		case <-timer.C:
		}

		attempt++
	}
}

func retryable(err error) bool {
	var remote *RemoteError
	if errors.As(err, &remote) {
		return remote.StatusCode == http.StatusTooManyRequests || remote.StatusCode >= 500
	}
	var transport *TransportError
	return errors.As(err, &transport)
}
