package mcp

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSessionTracker_AnnotateWithoutToken(t *testing.T) {
	s := NewSessionTracker("")
	h := http.Header{}

	s.Annotate(h)

	assert.Empty(t, h.Get(DefaultSessionHeader))
	assert.Empty(t, s.Token())
}

func TestSessionTracker_ObserveThenAnnotate(t *testing.T) {
	s := NewSessionTracker("")

	changed := s.Observe(http.Header{"Mcp-Session-Id": []string{"abc"}})
	assert.True(t, changed)

	h := http.Header{}
	s.Annotate(h)
	assert.Equal(t, "abc", h.Get("MCP-Session-Id"))
}

func TestSessionTracker_OverwriteOnlyWithNonEmpty(t *testing.T) {
	s := NewSessionTracker("")

	s.Observe(http.Header{"Mcp-Session-Id": []string{"first"}})
	assert.False(t, s.Observe(http.Header{}))
	assert.False(t, s.Observe(http.Header{"Mcp-Session-Id": []string{""}}))
	assert.Equal(t, "first", s.Token())

	assert.False(t, s.Observe(http.Header{"Mcp-Session-Id": []string{"first"}}))
	assert.True(t, s.Observe(http.Header{"Mcp-Session-Id": []string{"second"}}))
	assert.Equal(t, "second", s.Token())
}

func TestSessionTracker_CustomHeader(t *testing.T) {
	s := NewSessionTracker("x-session")
	assert.Equal(t, "X-Session", s.Header())

	s.Observe(http.Header{"X-Session": []string{"tok"}})
	assert.Equal(t, "tok", s.Token())

	h := http.Header{}
	s.Annotate(h)
	assert.Equal(t, "tok", h.Get("x-session"))
	assert.Empty(t, h.Get(DefaultSessionHeader))
}
