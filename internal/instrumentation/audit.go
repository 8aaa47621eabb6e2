package instrumentation

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/trace"

	"github.com/teemow/mcpmail/internal/logging"
)

// AuthAttempt captures one device authentication attempt for audit logging,
// from the challenge request to its terminal outcome.
//
// # Privacy Considerations
//
// Username contains PII. It is only logged in full when the AuditLogger
// is configured with IncludePII.
type AuthAttempt struct {
	// Result is one of AuthResultSuccess, AuthResultPending, AuthResultFailure
	Result string

	// Identity returned by a successful attempt
	Username  string
	AccountID string

	// Execution details
	StartTime time.Time
	Duration  time.Duration
	Message   string
	Error     string

	// Tracing context
	TraceID string
	SpanID  string
}

// NewAuthAttempt creates a new AuthAttempt with timing started.
func NewAuthAttempt() *AuthAttempt {
	return &AuthAttempt{StartTime: time.Now()}
}

// WithSpanContext extracts trace context from the current span.
func (a *AuthAttempt) WithSpanContext(ctx context.Context) *AuthAttempt {
	span := trace.SpanFromContext(ctx)
	if span.SpanContext().IsValid() {
		a.TraceID = span.SpanContext().TraceID().String()
		a.SpanID = span.SpanContext().SpanID().String()
	}
	return a
}

// Succeeded marks the attempt as authenticated for the given identity.
func (a *AuthAttempt) Succeeded(username, accountID string) *AuthAttempt {
	a.Result = AuthResultSuccess
	a.Username = username
	a.AccountID = accountID
	a.Duration = time.Since(a.StartTime)
	return a
}

// Pending marks the attempt as not yet completed by the user.
func (a *AuthAttempt) Pending() *AuthAttempt {
	a.Result = AuthResultPending
	a.Duration = time.Since(a.StartTime)
	return a
}

// Failed marks the attempt as failed with a server message and/or error.
func (a *AuthAttempt) Failed(message string, err error) *AuthAttempt {
	a.Result = AuthResultFailure
	a.Message = message
	if err != nil {
		a.Error = err.Error()
	}
	a.Duration = time.Since(a.StartTime)
	return a
}

// LogAttrs returns slog attributes with the username anonymized.
func (a *AuthAttempt) LogAttrs() []slog.Attr {
	attrs := []slog.Attr{
		slog.String("result", a.Result),
		slog.Duration("duration", a.Duration),
	}
	if a.Username != "" {
		attrs = append(attrs,
			logging.UserHash(a.Username),
			slog.String("user_domain", ExtractUserDomain(a.Username)),
		)
	}
	return a.appendOptional(attrs)
}

// LogAuditAttrs returns slog attributes including the full username.
func (a *AuthAttempt) LogAuditAttrs() []slog.Attr {
	attrs := []slog.Attr{
		slog.String("result", a.Result),
		slog.Duration("duration", a.Duration),
	}
	if a.Username != "" {
		attrs = append(attrs, slog.String("user", a.Username))
	}
	return a.appendOptional(attrs)
}

func (a *AuthAttempt) appendOptional(attrs []slog.Attr) []slog.Attr {
	if a.AccountID != "" {
		attrs = append(attrs, slog.String("account_id", a.AccountID))
	}
	if a.Message != "" {
		attrs = append(attrs, slog.String("message", a.Message))
	}
	if a.TraceID != "" {
		attrs = append(attrs, slog.String("trace_id", a.TraceID))
	}
	if a.SpanID != "" {
		attrs = append(attrs, slog.String("span_id", a.SpanID))
	}
	if a.Error != "" {
		attrs = append(attrs, slog.String("error", a.Error))
	}
	return attrs
}

// AuditLogger provides structured audit logging for authentication attempts.
type AuditLogger struct {
	logger     *slog.Logger
	includePII bool
	enabled    bool
}

// NewAuditLogger creates a new AuditLogger with the given slog.Logger.
// By default, PII is not included in logs.
func NewAuditLogger(logger *slog.Logger) *AuditLogger {
	return NewAuditLoggerWithConfig(logger, AuditLoggingConfig{Enabled: true})
}

// NewAuditLoggerWithConfig creates a new AuditLogger with the given configuration.
func NewAuditLoggerWithConfig(logger *slog.Logger, config AuditLoggingConfig) *AuditLogger {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuditLogger{
		logger:     logger,
		includePII: config.IncludePII,
		enabled:    config.Enabled,
	}
}

// LogAuthAttempt logs a terminal authentication attempt. A nil receiver is a no-op.
func (al *AuditLogger) LogAuthAttempt(a *AuthAttempt) {
	if al == nil || !al.enabled {
		return
	}

	var attrs []slog.Attr
	if al.includePII {
		attrs = a.LogAuditAttrs()
	} else {
		attrs = a.LogAttrs()
	}

	args := make([]any, len(attrs))
	for i, attr := range attrs {
		args[i] = attr
	}

	switch a.Result {
	case AuthResultSuccess:
		al.logger.Info("device_auth_succeeded", args...)
	case AuthResultPending:
		al.logger.Info("device_auth_pending", args...)
	default:
		al.logger.Warn("device_auth_failed", args...)
	}
}
