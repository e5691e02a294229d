package providers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"
)

// ProviderError is an upstream HTTP failure: a non-2xx status or a response
// without a body. It always carries the HTTP status code.
type ProviderError struct {
	// Provider is the name of the provider that returned the error
	Provider string

	// StatusCode is the HTTP status code (0 if not applicable)
	StatusCode int

	// Message is the error message
	Message string

	// Cause is the underlying error (if any)
	Cause error
}

// Error implements the error interface.
func (e *ProviderError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("provider %q error (status %d): %s", e.Provider, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("provider %q error: %s", e.Provider, e.Message)
}

// Unwrap returns the underlying error for error chain support.
func (e *ProviderError) Unwrap() error {
	return e.Cause
}

// Code returns the short client-facing code, e.g. "anthropic_http_500".
func (e *ProviderError) Code() string {
	return fmt.Sprintf("%s_http_%d", e.Provider, e.StatusCode)
}

// AuthError represents an authentication failure.
// This occurs when the provider rejects the API key (HTTP 401 or 403).
type AuthError struct {
	// Provider is the name of the provider that rejected authentication
	Provider string

	// StatusCode is 401 or 403
	StatusCode int

	// Message is the error message from the provider
	Message string
}

// Error implements the error interface.
func (e *AuthError) Error() string {
	return fmt.Sprintf("provider %q authentication failed: %s", e.Provider, e.Message)
}

// RateLimitError represents a rate limit exceeded error (HTTP 429).
// It includes the retry-after duration if provided by the provider.
type RateLimitError struct {
	// Provider is the name of the provider that rate limited the request
	Provider string

	// RetryAfter is the duration to wait before retrying (if provided)
	RetryAfter time.Duration

	// Message is the error message from the provider
	Message string
}

// Error implements the error interface.
func (e *RateLimitError) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("provider %q rate limit exceeded (retry after %s): %s",
			e.Provider, e.RetryAfter, e.Message)
	}
	return fmt.Sprintf("provider %q rate limit exceeded: %s", e.Provider, e.Message)
}

// TimeoutError is returned when an upstream call exceeds its deadline,
// either the whole-call bound or the per-read idle bound.
type TimeoutError struct {
	// Provider is the name of the provider where the timeout occurred
	Provider string

	// Timeout is the configured timeout duration
	Timeout time.Duration

	// Phase is "connect", "idle" or "stream"
	Phase string
}

// Error implements the error interface.
func (e *TimeoutError) Error() string {
	if e.Phase != "" {
		return fmt.Sprintf("provider %q %s timeout after %s", e.Provider, e.Phase, e.Timeout)
	}
	return fmt.Sprintf("provider %q request timeout after %s", e.Provider, e.Timeout)
}

// ParseError represents a response parsing failure.
// This occurs when the provider returns a malformed non-streaming response.
// Malformed stream frames never produce a ParseError; they are dropped.
type ParseError struct {
	// Provider is the name of the provider that returned the malformed response
	Provider string

	// RawResponse is the raw response body that failed to parse
	RawResponse string

	// Cause is the underlying parse error
	Cause error
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	return fmt.Sprintf("provider %q response parse error: %v", e.Provider, e.Cause)
}

// Unwrap returns the underlying error for error chain support.
func (e *ParseError) Unwrap() error {
	return e.Cause
}

// ValidationError represents a request validation failure.
type ValidationError struct {
	// Field is the name of the invalid field
	Field string

	// Message describes what is invalid about the field
	Message string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error for field %q: %s", e.Field, e.Message)
}

// StreamError is a failure after the stream started: a broken connection or
// an error event sent in-band by the provider.
type StreamError struct {
	// Provider is the name of the provider where the error occurred
	Provider string

	// Message is the error message
	Message string

	// Cause is the underlying error
	Cause error
}

// Error implements the error interface.
func (e *StreamError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("provider %q stream error: %s: %v", e.Provider, e.Message, e.Cause)
	}
	return fmt.Sprintf("provider %q stream error: %s", e.Provider, e.Message)
}

// Unwrap returns the underlying error for error chain support.
func (e *StreamError) Unwrap() error {
	return e.Cause
}

// ConfigError represents a provider configuration error.
type ConfigError struct {
	// Provider is the name of the provider with invalid configuration
	Provider string

	// Field is the configuration field that is invalid
	Field string

	// Message describes the configuration error
	Message string
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	return fmt.Sprintf("provider %q configuration error for field %q: %s",
		e.Provider, e.Field, e.Message)
}

// StatusCode extracts the upstream HTTP status from err, or 0.
func StatusCode(err error) int {
	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe.StatusCode
	}
	var ae *AuthError
	if errors.As(err, &ae) {
		return ae.StatusCode
	}
	var re *RateLimitError
	if errors.As(err, &re) {
		return http.StatusTooManyRequests
	}
	return 0
}

// IsUpstreamHTTPError reports whether err is an upstream status failure.
func IsUpstreamHTTPError(err error) bool {
	return StatusCode(err) != 0
}

// ClientMessage converts err into the short message sent to browser clients.
// Upstream bodies and keys never leak into it.
func ClientMessage(err error) string {
	if err == nil {
		return ""
	}

	var te *TimeoutError
	if errors.As(err, &te) {
		return "upstream timeout"
	}
	var se *StreamError
	if errors.As(err, &se) {
		return se.Message
	}

	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe.Code()
	}
	var ae *AuthError
	if errors.As(err, &ae) {
		return (&ProviderError{Provider: ae.Provider, StatusCode: ae.StatusCode}).Code()
	}
	var re *RateLimitError
	if errors.As(err, &re) {
		return (&ProviderError{Provider: re.Provider, StatusCode: http.StatusTooManyRequests}).Code()
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return "upstream timeout"
	}
	return err.Error()
}
