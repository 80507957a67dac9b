package graph

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrStop is returned by an iteration callback to halt pagination early.
// ForeachMessage swallows it and returns nil; no further pages are fetched.
var ErrStop = errors.New("graph: stop iteration")

// APIError describes a failed Graph request with enough context to diagnose
// it without re-running: status, provider error code, attempt count, and a
// body snippet for malformed responses.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
	Attempts   int
	Body       string
}

func (e *APIError) Error() string {
	msg := fmt.Sprintf("graph: request failed with status %d", e.StatusCode)
	if e.Code != "" {
		msg += fmt.Sprintf(" (%s)", e.Code)
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Attempts > 1 {
		msg += fmt.Sprintf(" after %d attempts", e.Attempts)
	}
	if e.Body != "" {
		msg += fmt.Sprintf("; body: %s", e.Body)
	}
	return msg
}

// Transient reports whether the error is worth retrying.
func (e *APIError) Transient() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500
}

// IsUnauthorized reports whether err is a 401 from the API.
func IsUnauthorized(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusUnauthorized
}

// IsRateLimited reports whether err is a 429 from the API.
func IsRateLimited(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusTooManyRequests
}
