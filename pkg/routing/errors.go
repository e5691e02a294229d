package routing

import (
	"errors"
	"fmt"
	"strings"
)

// Common routing errors that can be checked with errors.Is().
var (
	// ErrNoProviderConfigured is returned when no credential carries an API key.
	ErrNoProviderConfigured = errors.New("no provider configured")

	// ErrAllProvidersFailed is returned when every provider in the chain failed
	// before streaming started.
	ErrAllProvidersFailed = errors.New("all providers failed")
)

// AllProvidersFailedError is returned when all fallback attempts have been
// exhausted. It unwraps to the error of the last attempted provider, so the
// client-facing message reflects that failure.
type AllProvidersFailedError struct {
	// Attempted contains the providers in the order they were tried.
	Attempted []string

	// LastError is the error from the last attempted provider.
	LastError error
}

// Error implements the error interface.
func (e *AllProvidersFailedError) Error() string {
	return fmt.Sprintf("all providers failed (attempted: %s, last error: %v)",
		strings.Join(e.Attempted, ", "), e.LastError)
}

// Is implements error matching for errors.Is().
func (e *AllProvidersFailedError) Is(target error) bool {
	return target == ErrAllProvidersFailed
}

// Unwrap returns the wrapped error for error chain traversal.
func (e *AllProvidersFailedError) Unwrap() error {
	return e.LastError
}
