// Package logging provides structured logging utilities for mcpmail.
//
// This package centralizes logging patterns to ensure consistent, structured logging
// throughout the codebase using the standard library's slog package.
//
// # Usage Patterns
//
// Build the process logger from the --log-format and --debug settings:
//
//	format, err := logging.ParseFormat(os.Getenv("LOG_FORMAT"))
//	if err != nil {
//	    return err
//	}
//	slog.SetDefault(logging.New(os.Stderr, logging.Options{Format: format, Debug: debug}))
//
// Create a logger with standard attributes:
//
//	logger := logging.WithOperation(slog.Default(), "device_auth")
//	logger.Debug("calling server",
//	    logging.Method("tools/call"),
//	    logging.RequestID(3))
//
// Sanitize sensitive data before logging:
//
//	logger.Info("session established",
//	    logging.Session(token))
//
// # Security Considerations
//
//   - Usernames are hashed to prevent PII leakage while allowing correlation
//   - Session tokens and flow caches are never logged directly
package logging
