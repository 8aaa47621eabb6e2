package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/teemow/mcpmail/internal/instrumentation"
	"github.com/teemow/mcpmail/internal/logging"
	"github.com/teemow/mcpmail/internal/mcp"
)

// Tool names used by the device sign-in.
const (
	ToolAuthenticate = "authenticate_account"
	ToolComplete     = "complete_authentication"
)

// State is the position of a Flow in the device sign-in sequence.
type State int

const (
	StateNotStarted State = iota
	StateChallengeIssued
	StateAwaitingUserCompletion
	StateAuthenticated
	StateFailed
	StateStillPending
)

func (s State) String() string {
	switch s {
	case StateNotStarted:
		return "not_started"
	case StateChallengeIssued:
		return "challenge_issued"
	case StateAwaitingUserCompletion:
		return "awaiting_user_completion"
	case StateAuthenticated:
		return "authenticated"
	case StateFailed:
		return "failed"
	case StateStillPending:
		return "still_pending"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Terminal reports whether no further step is possible from s.
func (s State) Terminal() bool {
	return s == StateAuthenticated || s == StateFailed || s == StateStillPending
}

// ToolCaller is the part of the MCP client the flow needs.
type ToolCaller interface {
	CallTool(ctx context.Context, name string, args map[string]any) (json.RawMessage, error)
}

// WaitFunc presents the challenge to the user and returns once they signal
// that sign-in is done. Returning an error abandons the flow.
type WaitFunc func(ctx context.Context, challenge *Challenge) error

// Flow drives one device sign-in attempt. A Flow is single use: once it
// reaches a terminal state, start a new Flow (and so a fresh challenge).
type Flow struct {
	caller  ToolCaller
	logger  *slog.Logger
	metrics *instrumentation.Metrics
	audit   *instrumentation.AuditLogger
	now     func() time.Time

	mu        sync.Mutex
	state     State
	challenge *Challenge
	attempt   *instrumentation.AuthAttempt
}

// Option configures a Flow.
type Option func(*Flow)

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(f *Flow) {
		if logger != nil {
			f.logger = logger
		}
	}
}

// WithMetrics records device_auth_total for each terminal outcome.
func WithMetrics(m *instrumentation.Metrics) Option {
	return func(f *Flow) {
		f.metrics = m
	}
}

// WithAuditLogger writes an audit entry for each terminal outcome.
func WithAuditLogger(al *instrumentation.AuditLogger) Option {
	return func(f *Flow) {
		f.audit = al
	}
}

// NewFlow creates a flow that talks to the server through caller.
func NewFlow(caller ToolCaller, opts ...Option) *Flow {
	f := &Flow{
		caller: caller,
		logger: slog.Default(),
		now:    time.Now,
		state:  StateNotStarted,
	}
	for _, opt := range opts {
		opt(f)
	}
	f.logger = logging.WithOperation(f.logger, "device_auth")
	return f
}

// State returns the current state.
func (f *Flow) State() State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

// Challenge returns the issued challenge, or nil before Start succeeds.
func (f *Flow) Challenge() *Challenge {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.challenge
}

// Start requests a device code from the server. Any failure ends the flow.
func (f *Flow) Start(ctx context.Context) (*Challenge, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	switch {
	case f.state.Terminal():
		return nil, ErrFlowFinished
	case f.state != StateNotStarted:
		return nil, ErrFlowStarted
	}

	f.attempt = instrumentation.NewAuthAttempt().WithSpanContext(ctx)

	raw, err := f.caller.CallTool(ctx, ToolAuthenticate, map[string]any{})
	if err != nil {
		err = fmt.Errorf("%s: %w", ToolAuthenticate, err)
		f.fail(ctx, "", err)
		return nil, err
	}

	text, err := toolText(ToolAuthenticate, raw, ErrInvalidChallenge)
	if err != nil {
		f.fail(ctx, "", err)
		return nil, err
	}

	challenge, err := parseChallenge(text, f.now())
	if err != nil {
		f.fail(ctx, "", err)
		return nil, err
	}

	f.challenge = challenge
	f.state = StateChallengeIssued

	f.logger.Info("device authentication challenge issued",
		slog.String("verification_url", challenge.VerificationURL),
		slog.Duration("expires_in", challenge.ExpiresIn),
	)

	return challenge, nil
}

// Complete asks the server whether the user finished signing in, passing
// the challenge's flow_cache back unchanged. A pending or rejected sign-in
// is reported through the Outcome, not as an error.
func (f *Flow) Complete(ctx context.Context) (*Outcome, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	switch f.state {
	case StateChallengeIssued, StateAwaitingUserCompletion:
	case StateNotStarted:
		return nil, ErrNoChallenge
	default:
		return nil, ErrFlowFinished
	}
	f.state = StateAwaitingUserCompletion

	args := map[string]any{"flow_cache": f.challenge.FlowCache}
	raw, err := f.caller.CallTool(ctx, ToolComplete, args)
	if err != nil {
		err = fmt.Errorf("%s: %w", ToolComplete, err)
		f.fail(ctx, "", err)
		return nil, err
	}

	text, err := toolText(ToolComplete, raw, ErrInvalidOutcome)
	if err != nil {
		f.fail(ctx, "", err)
		return nil, err
	}

	outcome, err := parseOutcome(text)
	if err != nil {
		f.fail(ctx, "", err)
		return nil, err
	}

	switch {
	case outcome.Authenticated():
		f.state = StateAuthenticated
		f.finish(ctx, f.attempt.Succeeded(outcome.Account.Username, outcome.Account.AccountID))
	case outcome.Pending():
		f.state = StateStillPending
		f.finish(ctx, f.attempt.Pending())
	default:
		f.fail(ctx, outcome.Message, nil)
	}

	return outcome, nil
}

// Run performs the whole sequence: Start, hand the challenge to wait, then
// Complete. The flow sets no deadline of its own; ctx and wait decide how
// long the user gets.
func (f *Flow) Run(ctx context.Context, wait WaitFunc) (*Outcome, error) {
	challenge, err := f.Start(ctx)
	if err != nil {
		return nil, err
	}

	f.mu.Lock()
	f.state = StateAwaitingUserCompletion
	f.mu.Unlock()

	if err := wait(ctx, challenge); err != nil {
		f.mu.Lock()
		f.fail(ctx, "abandoned while waiting for the user", err)
		f.mu.Unlock()
		return nil, fmt.Errorf("waiting for sign-in: %w", err)
	}

	return f.Complete(ctx)
}

// toolText extracts the text payload of a tool result. A result flagged
// as an error comes back as *mcp.ToolError; anything else unusable is
// wrapped in invalid.
func toolText(tool string, raw json.RawMessage, invalid error) (string, error) {
	result, err := mcp.ParseToolResult(raw)
	if err != nil {
		return "", fmt.Errorf("%w: %w", invalid, err)
	}
	result.Tool = tool
	if err := result.Err(); err != nil {
		return "", err
	}

	text, ok := result.Text()
	if !ok {
		return "", fmt.Errorf("%w: %s returned no text content", invalid, tool)
	}
	return text, nil
}

// fail moves the flow to StateFailed. The caller must hold f.mu.
func (f *Flow) fail(ctx context.Context, message string, err error) {
	f.state = StateFailed
	if f.attempt == nil {
		f.attempt = instrumentation.NewAuthAttempt()
	}
	f.finish(ctx, f.attempt.Failed(message, err))
}

func (f *Flow) finish(ctx context.Context, attempt *instrumentation.AuthAttempt) {
	f.metrics.RecordDeviceAuth(ctx, attempt.Result)
	f.audit.LogAuthAttempt(attempt)

	f.logger.Debug("device authentication finished",
		slog.String("state", f.state.String()),
		logging.Status(attempt.Result),
		slog.Duration(logging.KeyDuration, attempt.Duration),
	)
}
