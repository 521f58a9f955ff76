package client

import (
	"errors"
	"fmt"
)

// Common errors returned by the client.
var (
	// ErrRetryExhausted matches any FetchError via errors.Is.
	ErrRetryExhausted = errors.New("retry attempts exhausted")

	// ErrContextCancelled is returned when the context is cancelled during
	// a backoff or spacing wait.
	ErrContextCancelled = errors.New("context cancelled")
)

// HTTPError is a non-2xx response from the API.
type HTTPError struct {
	StatusCode int
	Status     string
}

// Error implements the error interface.
func (e *HTTPError) Error() string {
	return fmt.Sprintf("unexpected status %s", e.Status)
}

// FetchError reports a logical request that failed after exhausting all
// retry attempts. It is the terminal fetch failure the aggregation driver
// isolates per indicator.
type FetchError struct {
	Endpoint string
	Attempts int
	Err      error
}

// Error implements the error interface.
func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s: %v after %d attempts: %v",
		e.Endpoint, ErrRetryExhausted, e.Attempts, e.Err)
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *FetchError) Unwrap() error {
	return e.Err
}

// Is reports ErrRetryExhausted as a match so callers can test for exhaustion
// without knowing the concrete type.
func (e *FetchError) Is(target error) bool {
	return target == ErrRetryExhausted
}
