package auth

import (
	"testing"
	"time"
)

func TestChallenge_ExpiresAt(t *testing.T) {
	issued := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)

	c := &Challenge{IssuedAt: issued, ExpiresIn: 15 * time.Minute}
	if got, want := c.ExpiresAt(), issued.Add(15*time.Minute); !got.Equal(want) {
		t.Errorf("ExpiresAt() = %v, want %v", got, want)
	}

	c = &Challenge{IssuedAt: issued}
	if !c.ExpiresAt().IsZero() {
		t.Errorf("ExpiresAt() without expires_in = %v, want zero", c.ExpiresAt())
	}
}

func TestParseOutcome(t *testing.T) {
	tests := []struct {
		text          string
		authenticated bool
		pending       bool
		failed        bool
	}{
		{`{"status":"success","username":"alice","account_id":"abc123"}`, true, false, false},
		{`{"status":"pending"}`, false, true, false},
		{`{"status":"error","message":"denied"}`, false, false, true},
		{`{"status":"expired"}`, false, false, true},
	}

	for _, tt := range tests {
		o, err := parseOutcome(tt.text)
		if err != nil {
			t.Errorf("parseOutcome(%s): %v", tt.text, err)
			continue
		}
		if o.Authenticated() != tt.authenticated || o.Pending() != tt.pending || o.Failed() != tt.failed {
			t.Errorf("parseOutcome(%s) = %+v: authenticated=%v pending=%v failed=%v",
				tt.text, o, o.Authenticated(), o.Pending(), o.Failed())
		}
	}
}
