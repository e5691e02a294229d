package tavily

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

const (
	defaultBaseURL = "https://api.tavily.com"
	defaultTimeout = 20 * time.Second
	maxBodyBytes   = 2 << 20
)

// Client calls the Tavily search endpoint.
type Client struct {
	apiKey  string
	baseURL string
	http    *http.Client
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient replaces the HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// New creates a client. An empty baseURL selects the public API.
func New(apiKey, baseURL string, timeout time.Duration, opts ...Option) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	c := &Client{
		apiKey:  apiKey,
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// FromConfig creates a client from the search section.
func FromConfig(cfg config.TavilyConfig) *Client {
	return New(cfg.APIKey, cfg.BaseURL, cfg.Timeout)
}

// Configured reports whether the client has an API key.
func (c *Client) Configured() bool {
	return c != nil && c.apiKey != ""
}

// Search runs q and returns the hits in API order.
func (c *Client) Search(ctx context.Context, q Query) ([]Result, error) {
	if !c.Configured() {
		return nil, ErrNoAPIKey
	}
	if strings.TrimSpace(q.Query) == "" {
		return nil, errors.New("tavily: empty query")
	}

	depth := q.SearchDepth
	if depth == "" {
		depth = "basic"
	}
	body, err := json.Marshal(searchRequest{
		Query:          q.Query,
		SearchDepth:    depth,
		MaxResults:     q.MaxResults,
		Days:           q.Days,
		Topic:          q.Topic,
		IncludeDomains: q.IncludeDomains,
		ExcludeDomains: q.ExcludeDomains,
	})
	if err != nil {
		return nil, fmt.Errorf("tavily: failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/search", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("tavily: failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("tavily: request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("tavily: failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		var eb apiErrorBody
		if json.Unmarshal(raw, &eb) == nil {
			apiErr.Message = eb.Detail.Error
		}
		return nil, apiErr
	}

	var sr searchResponse
	if err := json.Unmarshal(raw, &sr); err != nil {
		return nil, fmt.Errorf("tavily: failed to parse response: %w", err)
	}

	slog.DebugContext(ctx, "tavily search",
		"results", len(sr.Results),
		"duration", time.Since(start),
	)
	return sr.Results, nil
}
