package httpcap

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"retailmedia-hq/guardrail/pkg/capability"
	"retailmedia-hq/guardrail/pkg/telemetry/tracing"
)

// Config configures a Provider.
type Config struct {
	// Name identifies the provider in logs and metrics. Defaults to "http".
	Name string

	// VisionEndpoint is the base URL of the vision service.
	VisionEndpoint string

	// EntailmentEndpoint is the full URL of the entailment service.
	EntailmentEndpoint string

	// HealthURL is polled by StartHealthChecker. Empty disables polling.
	HealthURL string

	// APIKey is sent as a bearer token when set.
	APIKey string

	// Timeout bounds each HTTP attempt.
	Timeout time.Duration

	// MaxRetries is the number of retries after the first attempt.
	MaxRetries int

	// Backoff is the delay before the first retry; it doubles per retry.
	Backoff time.Duration

	// HealthCheckInterval is how often StartHealthChecker polls.
	HealthCheckInterval time.Duration

	MaxIdleConns        int
	MaxIdleConnsPerHost int
	IdleConnTimeout     time.Duration

	Logger *slog.Logger
}

// DefaultConfig returns a configuration with sensible defaults and no endpoints.
func DefaultConfig() Config {
	return Config{
		Name:                "http",
		Timeout:             10 * time.Second,
		MaxRetries:          2,
		Backoff:             500 * time.Millisecond,
		HealthCheckInterval: 30 * time.Second,
		MaxIdleConns:        20,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     90 * time.Second,
	}
}

// RateLimitError is returned on HTTP 429. It is not retried.
type RateLimitError struct {
	Provider   string
	RetryAfter time.Duration
	Message    string
}

func (e *RateLimitError) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("provider %q rate limited (retry after %s): %s", e.Provider, e.RetryAfter, e.Message)
	}
	return fmt.Sprintf("provider %q rate limited: %s", e.Provider, e.Message)
}

// Health is a snapshot of the provider's health.
type Health struct {
	IsHealthy             bool
	LastCheck             time.Time
	ConsecutiveFailures   int
	LastError             error
	LastSuccessfulRequest time.Time
	TotalRequests         int64
	FailedRequests        int64
}

// client performs JSON requests with retries and health tracking.
type client struct {
	cfg    Config
	http   *http.Client
	logger *slog.Logger

	healthMu sync.RWMutex
	health   Health

	stopOnce           sync.Once
	stopHealthCheck    chan struct{}
	healthCheckStopped chan struct{}
	healthCheckStarted bool
}

func newClient(cfg Config) *client {
	transport := &http.Transport{
		MaxIdleConns:        cfg.MaxIdleConns,
		MaxIdleConnsPerHost: cfg.MaxIdleConnsPerHost,
		IdleConnTimeout:     cfg.IdleConnTimeout,
		ForceAttemptHTTP2:   true,
	}
	now := time.Now()
	return &client{
		cfg:    cfg,
		http:   &http.Client{Transport: transport, Timeout: cfg.Timeout},
		logger: cfg.Logger,
		health: Health{
			IsHealthy:             true,
			LastCheck:             now,
			LastSuccessfulRequest: now,
		},
		stopHealthCheck:    make(chan struct{}),
		healthCheckStopped: make(chan struct{}),
	}
}

// do performs a request, retrying network errors and 5xx answers.
func (c *client) do(ctx context.Context, op, method, url string, body []byte) (*http.Response, error) {
	var lastErr error

	for attempt := 0; attempt <= c.cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			backoff := c.cfg.Backoff << (attempt - 1)
			c.logger.Debug("retrying request",
				"provider", c.cfg.Name,
				"operation", op,
				"attempt", attempt,
				"backoff", backoff,
			)
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(backoff):
			}
		}

		var reader io.Reader
		if body != nil {
			reader = bytes.NewReader(body)
		}
		req, err := http.NewRequestWithContext(ctx, method, url, reader)
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %w", err)
		}
		if body != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		req.Header.Set("Accept", "application/json")
		if c.cfg.APIKey != "" {
			req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
		}
		tracing.Inject(ctx, req.Header)

		resp, err := c.http.Do(req)
		if err != nil {
			lastErr = err
			c.recordRequest(false)
			if ctx.Err() != nil {
				return nil, &capability.TimeoutError{Provider: c.cfg.Name, Operation: op, Timeout: c.cfg.Timeout}
			}
			c.logger.Warn("request failed, will retry",
				"provider", c.cfg.Name,
				"operation", op,
				"attempt", attempt+1,
				"error", err,
			)
			continue
		}

		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			c.recordRequest(true)
			c.updateHealth(true, nil)
			return resp, nil
		}

		errorBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		resp.Body.Close()
		c.recordRequest(false)

		switch {
		case resp.StatusCode == http.StatusTooManyRequests:
			return nil, &RateLimitError{
				Provider:   c.cfg.Name,
				RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After")),
				Message:    string(errorBody),
			}
		case resp.StatusCode == http.StatusNotImplemented:
			return nil, capability.ErrUnsupported
		case resp.StatusCode < 500:
			perr := &capability.ProviderError{
				Provider:   c.cfg.Name,
				Operation:  op,
				StatusCode: resp.StatusCode,
				Message:    string(errorBody),
			}
			if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
				c.updateHealth(false, perr)
			}
			return nil, perr
		default:
			lastErr = &capability.ProviderError{
				Provider:   c.cfg.Name,
				Operation:  op,
				StatusCode: resp.StatusCode,
				Message:    string(errorBody),
			}
			c.logger.Warn("request returned error status, will retry",
				"provider", c.cfg.Name,
				"operation", op,
				"status", resp.StatusCode,
				"attempt", attempt+1,
			)
		}
	}

	c.updateHealth(false, lastErr)
	if _, ok := lastErr.(*capability.ProviderError); ok {
		return nil, lastErr
	}
	return nil, &capability.ProviderError{Provider: c.cfg.Name, Operation: op, Message: "request failed", Cause: lastErr}
}

// doJSON posts reqBody and returns the raw response bytes.
func (c *client) doJSON(ctx context.Context, op, url string, reqBody any) ([]byte, error) {
	data, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	resp, err := c.do(ctx, op, http.MethodPost, url, data)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &capability.ParseError{
			Provider: c.cfg.Name,
			Cause:    fmt.Errorf("failed to read response: %w", err),
		}
	}
	return raw, nil
}

func (c *client) updateHealth(success bool, err error) {
	c.healthMu.Lock()
	defer c.healthMu.Unlock()

	c.health.LastCheck = time.Now()
	if success {
		c.health.IsHealthy = true
		c.health.ConsecutiveFailures = 0
		c.health.LastError = nil
		c.health.LastSuccessfulRequest = time.Now()
		return
	}

	c.health.ConsecutiveFailures++
	c.health.LastError = err
	if c.health.ConsecutiveFailures >= 3 && c.health.IsHealthy {
		c.health.IsHealthy = false
		c.logger.Warn("provider marked unhealthy",
			"provider", c.cfg.Name,
			"consecutive_failures", c.health.ConsecutiveFailures,
			"error", err,
		)
	}
}

func (c *client) recordRequest(success bool) {
	c.healthMu.Lock()
	defer c.healthMu.Unlock()

	c.health.TotalRequests++
	if !success {
		c.health.FailedRequests++
	}
}

func (c *client) snapshot() Health {
	c.healthMu.RLock()
	defer c.healthMu.RUnlock()
	return c.health
}

// parseRetryAfter parses delay-seconds or HTTP-date Retry-After values.
func parseRetryAfter(header string) time.Duration {
	if header == "" {
		return 0
	}
	var seconds int
	if _, err := fmt.Sscanf(header, "%d", &seconds); err == nil {
		return time.Duration(seconds) * time.Second
	}
	if t, err := http.ParseTime(header); err == nil {
		return time.Until(t)
	}
	return 0
}
