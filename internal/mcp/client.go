package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync/atomic"
	"time"

	mcpgo "github.com/mark3labs/mcp-go/mcp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/teemow/mcpmail/internal/instrumentation"
	"github.com/teemow/mcpmail/internal/logging"
)

// protocolVersion is the MCP protocol version advertised during initialize.
const protocolVersion = "2024-11-05"

// InitializeResult is the result of the initialize handshake.
type InitializeResult struct {
	ProtocolVersion string                   `json:"protocolVersion"`
	ServerInfo      mcpgo.Implementation     `json:"serverInfo"`
	Capabilities    mcpgo.ServerCapabilities `json:"capabilities"`
	Instructions    string                   `json:"instructions,omitempty"`
}

type initializeParams struct {
	ProtocolVersion string                   `json:"protocolVersion"`
	Capabilities    mcpgo.ClientCapabilities `json:"capabilities"`
	ClientInfo      mcpgo.Implementation     `json:"clientInfo"`
}

type callToolParams struct {
	Name      string         `json:"name"`
	Arguments map[string]any `json:"arguments"`
}

type toolsListResult struct {
	Tools []Tool `json:"tools"`
}

// Client speaks JSON-RPC to one MCP server over the streamable HTTP
// transport. It owns its request id counter and session token; nothing is
// shared between clients.
//
// Calls are expected to be made sequentially. Concurrent use does not
// corrupt state but gives no ordering guarantees.
type Client struct {
	endpoint   string
	clientInfo mcpgo.Implementation
	exchanger  Exchanger
	closer     func() error
	session    *SessionTracker
	decoder    *Decoder
	metrics    *instrumentation.Metrics
	logger     *slog.Logger
	nextID     atomic.Int64
}

// Option configures a Client.
type Option func(*Client)

// WithExchanger replaces the HTTP transport, mainly for tests.
func WithExchanger(e Exchanger) Option {
	return func(c *Client) {
		c.exchanger = e
		c.closer = nil
		if closer, ok := e.(interface{ Close() error }); ok {
			c.closer = closer.Close
		}
	}
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithMetrics sets the metrics recorder.
func WithMetrics(m *instrumentation.Metrics) Option {
	return func(c *Client) {
		c.metrics = m
	}
}

// WithDecoder sets the response decoder.
func WithDecoder(d *Decoder) Option {
	return func(c *Client) {
		if d != nil {
			c.decoder = d
		}
	}
}

// NewClient creates a client for the server described by cfg.
func NewClient(cfg Config, opts ...Option) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	name := cfg.ClientName
	if name == "" {
		name = DefaultClientName
	}

	c := &Client{
		endpoint:   cfg.Endpoint(),
		clientInfo: mcpgo.Implementation{Name: name, Version: cfg.ClientVersion},
		session:    NewSessionTracker(cfg.SessionHeader),
		logger:     slog.Default(),
	}

	for _, opt := range opts {
		opt(c)
	}

	if c.decoder == nil {
		logger := c.logger
		c.decoder = NewDecoder(WithStreamObserver(func(line string) {
			logger.Debug("event stream line", slog.String("line", truncate(line, 200)))
		}))
	}

	if c.exchanger == nil {
		t := NewHTTPTransport(HTTPConfig{
			Timeout:   cfg.Timeout,
			Token:     cfg.Token,
			UserAgent: name + "/" + cfg.ClientVersion,
			Logger:    c.logger,
		})
		c.exchanger = t
		c.closer = t.Close
	}

	return c, nil
}

// Endpoint returns the URL requests are posted to.
func (c *Client) Endpoint() string {
	return c.endpoint
}

// SessionID returns the session token assigned by the server, if any.
func (c *Client) SessionID() string {
	return c.session.Token()
}

// Initialize performs the initialize handshake.
func (c *Client) Initialize(ctx context.Context) (*InitializeResult, error) {
	params := initializeParams{
		ProtocolVersion: protocolVersion,
		Capabilities:    mcpgo.ClientCapabilities{},
		ClientInfo:      c.clientInfo,
	}

	raw, err := c.Call(ctx, string(mcpgo.MethodInitialize), params)
	if err != nil {
		return nil, fmt.Errorf("initialize: %w", err)
	}

	var result InitializeResult
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, fmt.Errorf("initialize: %w", &DecodeError{Err: err})
	}

	c.logger.Info("MCP server initialized",
		slog.String("server_name", result.ServerInfo.Name),
		slog.String("server_version", result.ServerInfo.Version),
		slog.String("protocol_version", result.ProtocolVersion),
		logging.Session(c.session.Token()),
	)

	return &result, nil
}

// ListTools calls tools/list and returns the tool descriptors.
func (c *Client) ListTools(ctx context.Context) ([]Tool, error) {
	raw, err := c.Call(ctx, string(mcpgo.MethodToolsList), nil)
	if err != nil {
		return nil, fmt.Errorf("tools/list: %w", err)
	}

	var result toolsListResult
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, fmt.Errorf("tools/list: %w", &DecodeError{Err: err})
	}
	return result.Tools, nil
}

// CallTool invokes a tool and returns its result uninterpreted.
// Nil args are sent as an empty object.
func (c *Client) CallTool(ctx context.Context, name string, args map[string]any) (json.RawMessage, error) {
	if args == nil {
		args = map[string]any{}
	}

	ctx, span := instrumentation.StartToolSpan(ctx, name)
	defer span.End()

	start := time.Now()
	raw, err := c.Call(ctx, string(mcpgo.MethodToolsCall), callToolParams{Name: name, Arguments: args})
	duration := time.Since(start)

	if err != nil {
		instrumentation.SetSpanError(span, err)
		c.metrics.RecordToolInvocation(ctx, name, instrumentation.StatusError, duration)
		return nil, fmt.Errorf("tools/call %s: %w", name, err)
	}

	instrumentation.SetSpanSuccess(span)
	c.metrics.RecordToolInvocation(ctx, name, instrumentation.StatusSuccess, duration)
	return raw, nil
}

// CallToolResult invokes a tool and parses its content blocks.
func (c *Client) CallToolResult(ctx context.Context, name string, args map[string]any) (*ToolResult, error) {
	raw, err := c.CallTool(ctx, name, args)
	if err != nil {
		return nil, err
	}
	result, err := ParseToolResult(raw)
	if err != nil {
		return nil, fmt.Errorf("tools/call %s: %w", name, err)
	}
	result.Tool = name
	return result, nil
}

// Call sends one JSON-RPC request and returns the decoded result value.
// Every call gets a fresh id, including calls that fail.
func (c *Client) Call(ctx context.Context, method string, params any) (json.RawMessage, error) {
	id := c.nextID.Add(1)

	ctx, span := instrumentation.StartRPCSpan(ctx, method, id)
	defer span.End()

	start := time.Now()
	result, err := c.roundTrip(ctx, id, method, params, span)
	duration := time.Since(start)

	status := statusOf(err)
	c.metrics.RecordRPCRequest(ctx, method, status, duration)

	if err != nil {
		instrumentation.SetSpanError(span, err)
		c.logger.Debug("rpc call failed",
			logging.Method(method),
			logging.RequestID(id),
			logging.Status(status),
			slog.Duration(logging.KeyDuration, duration),
			logging.Err(err),
		)
		return nil, err
	}

	instrumentation.SetSpanSuccess(span)
	c.logger.Debug("rpc call completed",
		logging.Method(method),
		logging.RequestID(id),
		logging.Status(status),
		slog.Duration(logging.KeyDuration, duration),
	)
	return result, nil
}

func (c *Client) roundTrip(ctx context.Context, id int64, method string, params any, span trace.Span) (json.RawMessage, error) {
	body, err := Encode(NewRequest(id, method, params))
	if err != nil {
		return nil, err
	}

	header := http.Header{}
	c.session.Annotate(header)

	reply, err := c.exchanger.Exchange(ctx, c.endpoint, body, header)
	if err != nil {
		return nil, err
	}

	span.SetAttributes(
		attribute.Int(instrumentation.SpanAttrStatusCode, reply.StatusCode),
		attribute.String(instrumentation.SpanAttrContentType, reply.Header.Get("Content-Type")),
	)

	// The session header is honored even on error statuses.
	if c.session.Observe(reply.Header) {
		c.metrics.RecordSessionChange(ctx)
		c.logger.Debug("session token assigned", logging.Session(c.session.Token()))
	}

	return c.decoder.Decode(reply.StatusCode, reply.Header, reply.Body)
}

// Close releases the client's transport resources.
func (c *Client) Close() error {
	if c.closer == nil {
		return nil
	}
	return c.closer()
}

func statusOf(err error) string {
	if err == nil {
		return instrumentation.StatusSuccess
	}

	var (
		transportErr *TransportError
		statusErr    *StatusError
		decodeErr    *DecodeError
		rpcErr       *RPCError
	)
	switch {
	case errors.As(err, &transportErr):
		return instrumentation.StatusTransportError
	case errors.As(err, &statusErr):
		return instrumentation.StatusHTTPError
	case errors.As(err, &decodeErr):
		return instrumentation.StatusDecodeError
	case errors.As(err, &rpcErr):
		return instrumentation.StatusRPCError
	default:
		return instrumentation.StatusError
	}
}
