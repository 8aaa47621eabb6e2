package auth

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

var (
	// ErrInvalidChallenge is returned when authenticate_account does not
	// yield a usable challenge.
	ErrInvalidChallenge = errors.New("invalid authentication challenge")

	// ErrInvalidOutcome is returned when complete_authentication answers
	// without a status, or reports success without an identity.
	ErrInvalidOutcome = errors.New("invalid authentication outcome")

	// ErrNoChallenge is returned when completion is attempted before a
	// challenge has been issued.
	ErrNoChallenge = errors.New("no authentication challenge issued")

	// ErrFlowStarted is returned when Start is called on a flow that already
	// holds a challenge.
	ErrFlowStarted = errors.New("authentication flow already started")

	// ErrFlowFinished is returned for any step attempted after the flow has
	// reached a terminal state. Start a new Flow instead.
	ErrFlowFinished = errors.New("authentication flow already finished")
)

// Account identifies a signed-in account on the server.
type Account struct {
	AccountID string `json:"account_id"`
	Username  string `json:"username"`
}

// Challenge is what the user needs to complete a device sign-in out of band.
type Challenge struct {
	VerificationURL string
	DeviceCode      string

	// ExpiresIn is advisory only; the flow never enforces it.
	ExpiresIn time.Duration

	// IssuedAt is when the challenge was received.
	IssuedAt time.Time

	// FlowCache correlates the challenge with its completion call. It is
	// kept as raw JSON and sent back exactly as received.
	FlowCache json.RawMessage
}

// ExpiresAt returns when the server said the device code stops working,
// or the zero time if it did not say.
func (c *Challenge) ExpiresAt() time.Time {
	if c.ExpiresIn <= 0 {
		return time.Time{}
	}
	return c.IssuedAt.Add(c.ExpiresIn)
}

// flowCacheKeys are tried in order when reading the correlation token.
var flowCacheKeys = []string{"_flow_cache", "flow_cache"}

func parseChallenge(text string, issuedAt time.Time) (*Challenge, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(text), &fields); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidChallenge, err)
	}

	c := &Challenge{IssuedAt: issuedAt}

	if err := requiredString(fields, "verification_url", &c.VerificationURL); err != nil {
		return nil, err
	}
	if err := requiredString(fields, "device_code", &c.DeviceCode); err != nil {
		return nil, err
	}

	if raw, ok := fields["expires_in"]; ok && !isNull(raw) {
		var seconds float64
		if err := json.Unmarshal(raw, &seconds); err != nil {
			return nil, fmt.Errorf("%w: expires_in: %w", ErrInvalidChallenge, err)
		}
		c.ExpiresIn = time.Duration(seconds * float64(time.Second))
	}

	for _, key := range flowCacheKeys {
		if raw, ok := fields[key]; ok && !isNull(raw) {
			c.FlowCache = append(json.RawMessage(nil), raw...)
			break
		}
	}
	if c.FlowCache == nil {
		return nil, fmt.Errorf("%w: missing flow_cache", ErrInvalidChallenge)
	}

	return c, nil
}

func requiredString(fields map[string]json.RawMessage, key string, dst *string) error {
	raw, ok := fields[key]
	if !ok {
		return fmt.Errorf("%w: missing %s", ErrInvalidChallenge, key)
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrInvalidChallenge, key, err)
	}
	if *dst == "" {
		return fmt.Errorf("%w: empty %s", ErrInvalidChallenge, key)
	}
	return nil
}

func isNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}

// Outcome statuses reported by complete_authentication.
const (
	StatusSuccess = "success"
	StatusPending = "pending"
)

// Outcome is the result of a completion call. Pending and failed outcomes
// are not errors; only an authenticated outcome carries an Account.
type Outcome struct {
	Status  string
	Message string
	Account *Account
}

// Authenticated reports whether the sign-in succeeded.
func (o *Outcome) Authenticated() bool {
	return o.Status == StatusSuccess && o.Account != nil
}

// Pending reports whether the user has not finished signing in yet.
// The caller must start a new Flow to try again.
func (o *Outcome) Pending() bool {
	return o.Status == StatusPending
}

// Failed reports whether the server rejected the sign-in.
func (o *Outcome) Failed() bool {
	return !o.Authenticated() && !o.Pending()
}

type outcomePayload struct {
	Status    *string `json:"status"`
	Message   string  `json:"message"`
	Username  string  `json:"username"`
	AccountID string  `json:"account_id"`
}

func parseOutcome(text string) (*Outcome, error) {
	var p outcomePayload
	if err := json.Unmarshal([]byte(text), &p); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidOutcome, err)
	}
	if p.Status == nil {
		return nil, fmt.Errorf("%w: missing status", ErrInvalidOutcome)
	}

	o := &Outcome{Status: *p.Status, Message: p.Message}
	if o.Status == StatusSuccess {
		if p.AccountID == "" || p.Username == "" {
			return nil, fmt.Errorf("%w: success without account_id or username", ErrInvalidOutcome)
		}
		o.Account = &Account{AccountID: p.AccountID, Username: p.Username}
	}
	return o, nil
}
