package logging

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"os"
	"strings"
)

// Common log attribute keys for consistent naming across the codebase.
const (
	KeyOperation  = "operation"
	KeyStatus     = "status"
	KeyError      = "error"
	KeyAttempt    = "attempt"
	KeyPage       = "page"
	KeyTenant     = "tenant"
	KeySenderHash = "sender_hash"
	KeyMatches    = "matches"
)

// Status values for consistent logging.
const (
	StatusSuccess = "success"
	StatusError   = "error"
	StatusPending = "pending"
)

// Setup installs a text handler writing to stderr at the given level and
// returns the logger.
func Setup(level slog.Level) *slog.Logger {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)
	return logger
}

// WithOperation returns a logger with the operation attribute set.
func WithOperation(logger *slog.Logger, operation string) *slog.Logger {
	return logger.With(slog.String(KeyOperation, operation))
}

// Operation returns a slog attribute for the operation name.
func Operation(op string) slog.Attr {
	return slog.String(KeyOperation, op)
}

// Status returns a slog attribute for the status.
func Status(status string) slog.Attr {
	return slog.String(KeyStatus, status)
}

// Attempt returns a slog attribute for a retry attempt number.
func Attempt(n int) slog.Attr {
	return slog.Int(KeyAttempt, n)
}

// Page returns a slog attribute for a pagination page number.
func Page(n int) slog.Attr {
	return slog.Int(KeyPage, n)
}

// Matches returns a slog attribute for a filter match count.
func Matches(n int) slog.Attr {
	return slog.Int(KeyMatches, n)
}

// Err returns a slog attribute for an error.
// If err is nil, returns an empty Group attribute that will be omitted from
// output. This allows safely passing Err(maybeNilErr) without adding empty
// attributes.
func Err(err error) slog.Attr {
	if err == nil {
		return slog.Group("")
	}
	return slog.String(KeyError, err.Error())
}

// AnonymizeEmail returns a hashed representation of an email for logging
// purposes. This allows correlation of log entries without exposing PII.
func AnonymizeEmail(email string) string {
	if email == "" {
		return ""
	}
	hash := sha256.Sum256([]byte(strings.ToLower(email)))
	return "user:" + hex.EncodeToString(hash[:8])
}

// SenderHash returns a slog attribute with the anonymized sender address.
func SenderHash(email string) slog.Attr {
	return slog.String(KeySenderHash, AnonymizeEmail(email))
}

// SanitizeToken returns a masked version of a token for logging.
// It returns a length indicator without exposing any token content,
// as even partial token prefixes can aid attacks.
func SanitizeToken(token string) string {
	if token == "" {
		return "<empty>"
	}
	return fmt.Sprintf("[token:%d chars]", len(token))
}

// ExtractDomain extracts the domain part from an email address.
// This is useful for lower-cardinality logging where the full address would
// create too many unique values.
func ExtractDomain(email string) string {
	if email == "" {
		return ""
	}
	parts := strings.Split(email, "@")
	if len(parts) != 2 {
		return ""
	}
	return parts[1]
}

// Domain returns a slog attribute for the sender domain (lower cardinality
// than the full address).
func Domain(email string) slog.Attr {
	return slog.String("sender_domain", ExtractDomain(email))
}
