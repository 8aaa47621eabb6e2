package mcp

import (
	"net/http"
	"sync"
)

// DefaultSessionHeader is the header the streamable HTTP transport uses to
// carry the session token.
const DefaultSessionHeader = "Mcp-Session-Id"

// SessionTracker remembers the session token handed out by the server and
// attaches it to every later request. The token is opaque: it is never
// validated, parsed or expired by the client.
type SessionTracker struct {
	header string

	mu    sync.RWMutex
	token string
}

// NewSessionTracker creates a tracker for the given header name.
// An empty name selects DefaultSessionHeader.
func NewSessionTracker(header string) *SessionTracker {
	if header == "" {
		header = DefaultSessionHeader
	}
	return &SessionTracker{header: http.CanonicalHeaderKey(header)}
}

// Header returns the session header name.
func (s *SessionTracker) Header() string {
	return s.header
}

// Token returns the current session token, or "" if none is known yet.
func (s *SessionTracker) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// Annotate sets the session header on h if a token is known.
func (s *SessionTracker) Annotate(h http.Header) {
	if token := s.Token(); token != "" {
		h.Set(s.header, token)
	}
}

// Observe stores the session token carried by a response, replacing any
// previous value. Responses without the header (or with an empty value)
// leave the current token in place. It reports whether the token changed.
func (s *SessionTracker) Observe(h http.Header) bool {
	token := h.Get(s.header)
	if token == "" {
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if token == s.token {
		return false
	}
	s.token = token
	return true
}
