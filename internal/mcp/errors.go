package mcp

import (
	"errors"
	"fmt"
)

var (
	// ErrTransport matches any *TransportError via errors.Is.
	ErrTransport = errors.New("mcp transport failure")

	// ErrNoEventPayload is returned when an event-stream body carries no usable data record.
	ErrNoEventPayload = errors.New("no valid payload in event stream")

	// ErrEmptyEnvelope is returned when a response object has neither result nor error.
	ErrEmptyEnvelope = errors.New("response envelope has neither result nor error")

	// ErrNoTextContent is returned when a tool result has no text content block.
	ErrNoTextContent = errors.New("tool result has no text content")

	// ErrResponseTooLarge is returned when a response body exceeds maxResponseBytes.
	ErrResponseTooLarge = errors.New("response body too large")
)

// TransportError reports that the HTTP exchange itself failed: the connection
// could not be made, was reset, or did not finish within the timeout. The
// caller may retry; the client never does.
type TransportError struct {
	URL     string
	Timeout bool
	Err     error
}

func (e *TransportError) Error() string {
	if e.Timeout {
		return fmt.Sprintf("request to %s timed out: %v", e.URL, e.Err)
	}
	return fmt.Sprintf("request to %s failed: %v", e.URL, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// Is lets errors.Is(err, ErrTransport) match any TransportError.
func (e *TransportError) Is(target error) bool { return target == ErrTransport }

// StatusError is returned when the server answers with a status other than 200.
// The body is kept verbatim and is never decoded.
type StatusError struct {
	StatusCode int
	Body       []byte
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("MCP server returned %d: %s", e.StatusCode, truncate(string(e.Body), 512))
}

// DecodeError reports a response body that could not be turned into a result
// envelope, or a tool result that could not be read.
type DecodeError struct {
	ContentType string
	Err         error
}

func (e *DecodeError) Error() string {
	if e.ContentType != "" {
		return fmt.Sprintf("decode %s response: %v", e.ContentType, e.Err)
	}
	return fmt.Sprintf("decode response: %v", e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// ToolError is returned when a tool result is flagged with isError.
type ToolError struct {
	Tool string
	Text string
}

func (e *ToolError) Error() string {
	if e.Tool != "" {
		return fmt.Sprintf("tool %s returned error: %s", e.Tool, e.Text)
	}
	return fmt.Sprintf("tool returned error: %s", e.Text)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
