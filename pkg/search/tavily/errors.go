package tavily

import (
	"errors"
	"fmt"
)

// ErrNoAPIKey is returned by Search when the client has no API key.
var ErrNoAPIKey = errors.New("tavily: no api key configured")

// APIError is a non-2xx answer from the Tavily API.
type APIError struct {
	// StatusCode is the HTTP status.
	StatusCode int

	// Message is the error detail from the body, if any.
	Message string
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("tavily: api error (status %d): %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("tavily: api error (status %d)", e.StatusCode)
}
