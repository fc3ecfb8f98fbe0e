package openrouter

import (
	"errors"
	"fmt"
)

// ErrAuthentication is returned when the provider rejects the API key.
// It is terminal: authentication failures are never retried.
var ErrAuthentication = errors.New("openrouter: invalid API key")

// ErrRateLimited classifies a 429 response. It is handled inside the client
// with backoff and only escapes as the cause of a RetriesExhaustedError.
var ErrRateLimited = errors.New("openrouter: rate limited")

// RetriesExhaustedError is returned once the retry budget is spent without a
// usable response. Last carries the final observed failure.
type RetriesExhaustedError struct {
	Attempts int
	Last     error
}

func (e *RetriesExhaustedError) Error() string {
	return fmt.Sprintf("openrouter: failed after %d attempts: %v", e.Attempts, e.Last)
}

func (e *RetriesExhaustedError) Unwrap() error {
	return e.Last
}
