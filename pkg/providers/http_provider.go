package providers

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
)

// ClientConfig configures the HTTP transport used for one provider.
type ClientConfig struct {
	// Name is the provider name used in errors and logs.
	Name string

	// ConnectTimeout bounds the wait for response headers. It never bounds
	// reading a streaming body.
	// Default: 30s
	ConnectTimeout time.Duration

	// MaxRetries is the number of extra attempts for network errors and 5xx
	// responses before any body was read.
	// Default: 0
	MaxRetries int

	// HealthCheckInterval is the period of background pings.
	// Default: 30s
	HealthCheckInterval time.Duration

	MaxIdleConns        int
	MaxIdleConnsPerHost int
	IdleConnTimeout     time.Duration
}

const (
	defaultConnectTimeout = 30 * time.Second

	// HealthProbeTimeout is the fixed deadline applied to health pings.
	HealthProbeTimeout = 2 * time.Second

	// unhealthyThreshold is the number of consecutive failures after which a
	// provider is reported unhealthy.
	unhealthyThreshold = 3

	maxErrorBody = 4096
)

// HTTPClient performs upstream calls for one provider with connection
// pooling, optional connect-phase retries and health tracking.
type HTTPClient struct {
	config ClientConfig
	client *http.Client

	health   ProviderHealth
	healthMu sync.RWMutex

	stopOnce           sync.Once
	stopHealthCheck    chan struct{}
	healthCheckStopped chan struct{}
	checkerStarted     bool
}

// NewHTTPClient creates a pooled client for one provider.
func NewHTTPClient(config ClientConfig) *HTTPClient {
	if config.ConnectTimeout <= 0 {
		config.ConnectTimeout = defaultConnectTimeout
	}
	if config.MaxIdleConns == 0 {
		config.MaxIdleConns = 100
	}
	if config.MaxIdleConnsPerHost == 0 {
		config.MaxIdleConnsPerHost = 10
	}
	if config.IdleConnTimeout == 0 {
		config.IdleConnTimeout = 90 * time.Second
	}

	transport := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		MaxIdleConns:          config.MaxIdleConns,
		MaxIdleConnsPerHost:   config.MaxIdleConnsPerHost,
		IdleConnTimeout:       config.IdleConnTimeout,
		ResponseHeaderTimeout: config.ConnectTimeout,
		ForceAttemptHTTP2:     true,
	}

	return &HTTPClient{
		config: config,
		// No client timeout: streaming bodies are bounded by the relay.
		client: &http.Client{Transport: transport},
		health: ProviderHealth{
			IsHealthy:             true,
			LastCheck:             time.Now(),
			LastSuccessfulRequest: time.Now(),
		},
		stopHealthCheck:    make(chan struct{}),
		healthCheckStopped: make(chan struct{}),
	}
}

// Name returns the provider name.
func (c *HTTPClient) Name() string {
	return c.config.Name
}

// IsHealthy returns the current health status.
func (c *HTTPClient) IsHealthy() bool {
	c.healthMu.RLock()
	defer c.healthMu.RUnlock()
	return c.health.IsHealthy
}

// GetHealth returns detailed health information.
func (c *HTTPClient) GetHealth() ProviderHealth {
	c.healthMu.RLock()
	defer c.healthMu.RUnlock()
	return c.health
}

func (c *HTTPClient) updateHealth(success bool, err error) {
	c.healthMu.Lock()
	defer c.healthMu.Unlock()

	c.health.LastCheck = time.Now()

	if success {
		if !c.health.IsHealthy {
			slog.Info("provider marked healthy",
				"provider", c.config.Name,
				"previous_failures", c.health.ConsecutiveFailures,
			)
		}
		c.health.IsHealthy = true
		c.health.ConsecutiveFailures = 0
		c.health.LastError = nil
		c.health.LastSuccessfulRequest = time.Now()
		return
	}

	c.health.ConsecutiveFailures++
	c.health.LastError = err

	if c.health.ConsecutiveFailures >= unhealthyThreshold && c.health.IsHealthy {
		c.health.IsHealthy = false
		slog.Warn("provider marked unhealthy",
			"provider", c.config.Name,
			"consecutive_failures", c.health.ConsecutiveFailures,
			"error", err,
		)
	}
}

func (c *HTTPClient) recordRequest(success bool) {
	c.healthMu.Lock()
	defer c.healthMu.Unlock()

	c.health.TotalRequests++
	if !success {
		c.health.FailedRequests++
	}
}

// Open POSTs body to the adapter's endpoint and returns the response once
// headers arrived with a 2xx status and a body. The caller owns resp.Body.
//
// Non-2xx statuses become *ProviderError (or *AuthError / *RateLimitError),
// all carrying the status code. A 2xx response without a body is a
// *ProviderError as well.
func (c *HTTPClient) Open(ctx context.Context, adapter Adapter, body []byte) (*http.Response, error) {
	headers := adapter.Headers()
	var lastErr error

	for attempt := 0; attempt <= c.config.MaxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(math.Pow(2, float64(attempt-1))) * time.Second
			slog.Debug("retrying request",
				"provider", c.config.Name,
				"attempt", attempt,
				"max_retries", c.config.MaxRetries,
				"backoff", backoff,
			)

			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(backoff):
			}
		}

		resp, retry, err := c.do(ctx, http.MethodPost, adapter.Endpoint(), body, headers)
		if err == nil {
			return resp, nil
		}
		lastErr = err
		if !retry {
			break
		}
	}

	if !errors.Is(lastErr, context.Canceled) {
		c.updateHealth(false, lastErr)
	}
	return nil, lastErr
}

// do performs a single attempt. retry reports whether another attempt may
// succeed.
func (c *HTTPClient) do(ctx context.Context, method, url string, body []byte, headers map[string]string) (*http.Response, bool, error) {
	var bodyReader io.Reader
	if body != nil {
		bodyReader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, bodyReader)
	if err != nil {
		return nil, false, fmt.Errorf("failed to create request: %w", err)
	}
	for key, value := range headers {
		req.Header.Set(key, value)
	}
	if req.Header.Get("Content-Type") == "" && body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))

	slog.Debug("sending request to provider",
		"provider", c.config.Name,
		"method", method,
		"url", url,
	)

	resp, err := c.client.Do(req)
	if err != nil {
		c.recordRequest(false)
		if ctx.Err() != nil {
			return nil, false, ctx.Err()
		}
		if isTimeout(err) {
			return nil, true, &TimeoutError{
				Provider: c.config.Name,
				Timeout:  c.config.ConnectTimeout,
				Phase:    "connect",
			}
		}
		slog.Warn("request failed",
			"provider", c.config.Name,
			"error", err,
		)
		return nil, true, &ProviderError{
			Provider: c.config.Name,
			Message:  "request failed",
			Cause:    err,
		}
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		if resp.Body == nil || resp.Body == http.NoBody {
			c.recordRequest(false)
			if resp.Body != nil {
				resp.Body.Close()
			}
			return nil, false, &ProviderError{
				Provider:   c.config.Name,
				StatusCode: resp.StatusCode,
				Message:    "empty response body",
			}
		}
		c.recordRequest(true)
		c.updateHealth(true, nil)
		return resp, false, nil
	}

	errorBody, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	resp.Body.Close()
	c.recordRequest(false)

	switch resp.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return nil, false, &AuthError{
			Provider:   c.config.Name,
			StatusCode: resp.StatusCode,
			Message:    string(errorBody),
		}

	case http.StatusTooManyRequests:
		return nil, false, &RateLimitError{
			Provider:   c.config.Name,
			RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After")),
			Message:    string(errorBody),
		}
	}

	slog.Warn("request returned error status",
		"provider", c.config.Name,
		"status", resp.StatusCode,
	)
	return nil, resp.StatusCode >= 500, &ProviderError{
		Provider:   c.config.Name,
		StatusCode: resp.StatusCode,
		Message:    string(errorBody),
	}
}

// Ping probes the adapter's health endpoint with HealthProbeTimeout. A failed
// probe only updates health; it is never fatal for callers.
func (c *HTTPClient) Ping(ctx context.Context, adapter Adapter) error {
	pinger, ok := adapter.(Pinger)
	if !ok {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, HealthProbeTimeout)
	defer cancel()

	resp, _, err := c.do(ctx, http.MethodGet, pinger.PingURL(), nil, adapter.Headers())
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			err = &TimeoutError{Provider: c.config.Name, Timeout: HealthProbeTimeout, Phase: "health"}
		}
		c.updateHealth(false, err)
		return err
	}
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxErrorBody))
	resp.Body.Close()
	return nil
}

// Close stops the health checker and releases idle connections.
func (c *HTTPClient) Close() error {
	c.stopOnce.Do(func() {
		close(c.stopHealthCheck)
	})

	if c.checkerStarted {
		select {
		case <-c.healthCheckStopped:
			slog.Debug("health checker stopped", "provider", c.config.Name)
		case <-time.After(5 * time.Second):
			slog.Warn("health checker did not stop in time", "provider", c.config.Name)
		}
	}

	c.client.CloseIdleConnections()
	return nil
}

func isTimeout(err error) bool {
	var netErr interface{ Timeout() bool }
	return errors.As(err, &netErr) && netErr.Timeout()
}

// parseRetryAfter parses the Retry-After header value.
// It supports both delay-seconds and HTTP-date formats.
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
