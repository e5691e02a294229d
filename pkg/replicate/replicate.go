// Package replicate runs predictions on the Replicate API by creating them
// and polling their status a bounded number of times.
package replicate

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"hohl-rocks/relay/pkg/config"
)

// Prediction statuses.
const (
	StatusStarting   = "starting"
	StatusProcessing = "processing"
	StatusSucceeded  = "succeeded"
	StatusFailed     = "failed"
	StatusCanceled   = "canceled"
)

const (
	defaultBaseURL      = "https://api.replicate.com/v1"
	defaultMaxAttempts  = 30
	defaultPollInterval = 2 * time.Second
	maxBodyBytes        = 4 << 20
)

var (
	// ErrNotConfigured is returned when the client has no API token.
	ErrNotConfigured = errors.New("replicate: not configured")

	// ErrPollExhausted is returned when the prediction did not finish within
	// the attempt budget.
	ErrPollExhausted = errors.New("replicate: prediction did not finish in time")
)

// APIError is a non-2xx answer from the Replicate API.
type APIError struct {
	StatusCode int
	Detail     string
}

// Error implements the error interface.
func (e *APIError) Error() string {
	return fmt.Sprintf("replicate: api error (status %d): %s", e.StatusCode, e.Detail)
}

// Input starts a prediction.
type Input struct {
	// Version is the model version id.
	Version string `json:"version"`

	// Input holds the model specific parameters.
	Input map[string]any `json:"input"`
}

// Prediction is the state of one prediction.
type Prediction struct {
	ID     string          `json:"id"`
	Status string          `json:"status"`
	Output json.RawMessage `json:"output,omitempty"`
	Error  any             `json:"error,omitempty"`
	URLs   struct {
		Get    string `json:"get"`
		Cancel string `json:"cancel"`
	} `json:"urls"`
}

// Done reports whether the prediction reached a final status.
func (p *Prediction) Done() bool {
	switch p.Status {
	case StatusSucceeded, StatusFailed, StatusCanceled:
		return true
	}
	return false
}

// Client talks to the Replicate API.
type Client struct {
	token        string
	baseURL      string
	maxAttempts  int
	pollInterval time.Duration
	http         *http.Client
	logger       *slog.Logger
}

// New creates a client from the replicate section.
func New(cfg config.ReplicateConfig) *Client {
	c := &Client{
		token:        cfg.APIToken,
		baseURL:      strings.TrimRight(cfg.BaseURL, "/"),
		maxAttempts:  cfg.MaxAttempts,
		pollInterval: cfg.PollInterval,
		http:         &http.Client{Timeout: 30 * time.Second},
		logger:       slog.Default().With("component", "replicate"),
	}
	if c.baseURL == "" {
		c.baseURL = defaultBaseURL
	}
	if c.maxAttempts <= 0 {
		c.maxAttempts = defaultMaxAttempts
	}
	if c.pollInterval <= 0 {
		c.pollInterval = defaultPollInterval
	}
	return c
}

// Configured reports whether the client has a token.
func (c *Client) Configured() bool {
	return c != nil && c.token != ""
}

// Run creates a prediction and polls it until it reaches a final status.
// At most MaxAttempts polls are made, PollInterval apart.
func (c *Client) Run(ctx context.Context, in Input) (*Prediction, error) {
	if !c.Configured() {
		return nil, ErrNotConfigured
	}
	if strings.TrimSpace(in.Version) == "" {
		return nil, errors.New("replicate: version is required")
	}
	if in.Input == nil {
		in.Input = map[string]any{}
	}

	body, err := json.Marshal(in)
	if err != nil {
		return nil, fmt.Errorf("replicate: failed to encode input: %w", err)
	}

	pred, err := c.do(ctx, http.MethodPost, c.baseURL+"/predictions", body)
	if err != nil {
		return nil, err
	}
	c.logger.InfoContext(ctx, "prediction created", "id", pred.ID, "status", pred.Status)

	getURL := pred.URLs.Get
	if getURL == "" {
		getURL = c.baseURL + "/predictions/" + pred.ID
	}

	for attempt := 1; !pred.Done(); attempt++ {
		if attempt > c.maxAttempts {
			c.logger.WarnContext(ctx, "prediction poll exhausted", "id", pred.ID, "attempts", c.maxAttempts)
			return pred, ErrPollExhausted
		}

		select {
		case <-ctx.Done():
			return pred, ctx.Err()
		case <-time.After(c.pollInterval):
		}

		next, err := c.do(ctx, http.MethodGet, getURL, nil)
		if err != nil {
			return pred, err
		}
		pred = next
		c.logger.DebugContext(ctx, "prediction polled", "id", pred.ID, "status", pred.Status, "attempt", attempt)
	}

	return pred, nil
}

func (c *Client) do(ctx context.Context, method, url string, body []byte) (*Prediction, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, fmt.Errorf("replicate: failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("replicate: request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("replicate: failed to read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var detail struct {
			Detail string `json:"detail"`
		}
		_ = json.Unmarshal(raw, &detail)
		return nil, &APIError{StatusCode: resp.StatusCode, Detail: detail.Detail}
	}

	var pred Prediction
	if err := json.Unmarshal(raw, &pred); err != nil {
		return nil, fmt.Errorf("replicate: failed to parse prediction: %w", err)
	}
	return &pred, nil
}
