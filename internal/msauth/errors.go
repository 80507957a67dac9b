package msauth

import (
	"errors"
	"fmt"
)

var (
	// ErrNeedsReauth indicates the cached token expired and could not be
	// silently refreshed. The cache has been cleared; a new device-code
	// flow is required.
	ErrNeedsReauth = errors.New("msauth: re-authentication required")

	// ErrAuthDenied indicates the user explicitly declined the
	// authorization request.
	ErrAuthDenied = errors.New("msauth: authorization denied")

	// ErrAuthTimeout indicates the device code expired before the user
	// completed sign-in.
	ErrAuthTimeout = errors.New("msauth: device code expired before authorization completed")
)

// ConfigError reports invalid or missing authentication configuration.
type ConfigError struct {
	Reason string
}

func (e *ConfigError) Error() string {
	return "msauth: invalid configuration: " + e.Reason
}

// ProviderError is a terminal error returned by the identity provider's
// token endpoint, other than the retriable device-flow states.
type ProviderError struct {
	Code        string
	Description string
}

func (e *ProviderError) Error() string {
	if e.Description == "" {
		return fmt.Sprintf("msauth: provider error %q", e.Code)
	}
	return fmt.Sprintf("msauth: provider error %q: %s", e.Code, e.Description)
}
