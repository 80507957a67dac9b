// Package logging provides structured logging utilities for the
// outlook-mail-reader application.
//
// This package centralizes logging patterns to ensure consistent, structured
// logging throughout the codebase using the standard library's slog package.
//
// # Key Features
//
//   - Structured logging with slog
//   - PII sanitization (email anonymization)
//   - Consistent attribute naming across the codebase
//
// # Usage Patterns
//
// Create a logger with standard attributes:
//
//	logger := logging.WithOperation(slog.Default(), "graph.list_messages")
//	logger.Info("page fetched", logging.Page(2))
//
// Sanitize sensitive data before logging:
//
//	logger.Info("sender filter applied",
//	    logging.SenderHash(senderEmail))
//
// # Security Considerations
//
// This package is designed with security in mind:
//   - Sender addresses are hashed to prevent PII leakage while allowing correlation
//   - Tokens are never logged directly
package logging
