package proxy

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"hohl-rocks/relay/pkg/providers"
	"hohl-rocks/relay/pkg/replicate"
	"hohl-rocks/relay/pkg/routing"
	"hohl-rocks/relay/pkg/search/tavily"
)

// RequestError represents an invalid client request.
type RequestError struct {
	// Message is logged, never sent.
	Message string

	// Code is the client-facing error code.
	Code string

	// StatusCode defaults to 400.
	StatusCode int
}

// Error implements the error interface.
func (e *RequestError) Error() string {
	return fmt.Sprintf("invalid request (%s): %s", e.Code, e.Message)
}

// HandleError maps err to an HTTP status and a client error code. Details
// of upstream failures stay in the logs.
func HandleError(err error) (int, string) {
	if err == nil {
		return http.StatusOK, ""
	}

	var reqErr *RequestError
	if errors.As(err, &reqErr) {
		status := reqErr.StatusCode
		if status == 0 {
			status = http.StatusBadRequest
		}
		return status, reqErr.Code
	}

	if errors.Is(err, routing.ErrNoProviderConfigured) {
		return http.StatusServiceUnavailable, "no_provider_configured"
	}

	if errors.Is(err, replicate.ErrNotConfigured) {
		return http.StatusServiceUnavailable, "replicate_not_configured"
	}
	if errors.Is(err, replicate.ErrPollExhausted) {
		return http.StatusGatewayTimeout, "replicate_timeout"
	}
	var repErr *replicate.APIError
	if errors.As(err, &repErr) {
		return http.StatusBadGateway, fmt.Sprintf("replicate_http_%d", repErr.StatusCode)
	}

	if errors.Is(err, tavily.ErrNoAPIKey) {
		return http.StatusServiceUnavailable, "search_not_configured"
	}
	var searchErr *tavily.APIError
	if errors.As(err, &searchErr) {
		return http.StatusBadGateway, fmt.Sprintf("search_http_%d", searchErr.StatusCode)
	}

	var valErr *providers.ValidationError
	if errors.As(err, &valErr) {
		return http.StatusBadRequest, CodeInvalidBody
	}

	var timeoutErr *providers.TimeoutError
	if errors.As(err, &timeoutErr) || errors.Is(err, context.DeadlineExceeded) {
		return http.StatusGatewayTimeout, providers.ClientMessage(err)
	}
	if providers.IsUpstreamHTTPError(err) {
		return http.StatusBadGateway, providers.ClientMessage(err)
	}

	return http.StatusInternalServerError, CodeInternal
}
