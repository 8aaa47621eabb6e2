package mcp

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

const (
	contentTypeJSON        = "application/json"
	contentTypeEventStream = "text/event-stream"

	eventDataPrefix = "data:"
	eventDone       = "[DONE]"
)

// emptyResult is returned for an explicit "result": null.
var emptyResult = json.RawMessage(`{}`)

// Encode serializes a call envelope. HTML escaping is disabled so that
// opaque string values (such as a flow_cache token) go out exactly as they
// were received.
func Encode(req *Request) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(req); err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// StreamObserver sees every raw event-stream line before it is parsed.
type StreamObserver func(line string)

// Decoder turns an HTTP reply into the result of a JSON-RPC call.
type Decoder struct {
	observer StreamObserver
}

// DecoderOption configures a Decoder.
type DecoderOption func(*Decoder)

// WithStreamObserver installs a hook that receives raw event-stream lines.
func WithStreamObserver(fn StreamObserver) DecoderOption {
	return func(d *Decoder) {
		d.observer = fn
	}
}

// NewDecoder creates a Decoder.
func NewDecoder(opts ...DecoderOption) *Decoder {
	d := &Decoder{}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Decode is a convenience for NewDecoder().Decode.
func Decode(status int, header http.Header, body []byte) (json.RawMessage, error) {
	return NewDecoder().Decode(status, header, body)
}

// Decode validates the status, picks the decode path from the content type
// and returns the result value of the envelope.
//
// A non-200 status is a *StatusError and the body is not inspected. An
// envelope carrying error is an *RPCError regardless of encoding. Anything
// that cannot be read as an envelope is a *DecodeError.
func (d *Decoder) Decode(status int, header http.Header, body []byte) (json.RawMessage, error) {
	if status != http.StatusOK {
		return nil, &StatusError{StatusCode: status, Body: body}
	}

	contentType := header.Get("Content-Type")

	payload := body
	if strings.Contains(contentType, contentTypeEventStream) {
		var err error
		payload, err = d.firstEventPayload(body)
		if err != nil {
			return nil, &DecodeError{ContentType: contentType, Err: err}
		}
	}

	return decodeEnvelope(contentType, payload)
}

// firstEventPayload returns the first data record of an event stream that
// is neither blank nor the [DONE] sentinel. Server-initiated messages
// (notifications and requests, which carry a method) may precede the
// response on the same stream and are skipped.
func (d *Decoder) firstEventPayload(body []byte) ([]byte, error) {
	scanner := bufio.NewScanner(bytes.NewReader(body))
	scanner.Buffer(make([]byte, 0, 64*1024), maxResponseBytes)

	lines := 0
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")
		lines++
		if d.observer != nil {
			d.observer(line)
		}

		data, ok := strings.CutPrefix(line, eventDataPrefix)
		if !ok {
			continue
		}
		data = strings.TrimPrefix(data, " ")

		trimmed := strings.TrimSpace(data)
		if trimmed == "" || trimmed == eventDone {
			continue
		}
		if isServerMessage(data) {
			continue
		}
		return []byte(data), nil
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan event stream: %w", err)
	}
	return nil, fmt.Errorf("%w (%d lines)", ErrNoEventPayload, lines)
}

func isServerMessage(data string) bool {
	var probe struct {
		Method *string `json:"method"`
	}
	if err := json.Unmarshal([]byte(data), &probe); err != nil {
		return false
	}
	return probe.Method != nil
}

func decodeEnvelope(contentType string, payload []byte) (json.RawMessage, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(payload, &fields); err != nil {
		return nil, &DecodeError{ContentType: contentType, Err: err}
	}

	if raw, ok := fields["error"]; ok && !isNull(raw) {
		var rpcErr RPCError
		if err := json.Unmarshal(raw, &rpcErr); err != nil {
			return nil, &DecodeError{ContentType: contentType, Err: fmt.Errorf("malformed error object: %w", err)}
		}
		return nil, &rpcErr
	}

	result, ok := fields["result"]
	if !ok {
		return nil, &DecodeError{ContentType: contentType, Err: ErrEmptyEnvelope}
	}
	if isNull(result) {
		return emptyResult, nil
	}
	return result, nil
}

func isNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}
