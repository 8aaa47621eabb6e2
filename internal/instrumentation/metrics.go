package instrumentation

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metric attribute keys
const (
	attrMethod = "method"
	attrStatus = "status"
	attrResult = "result"
	attrTool   = "tool"
)

// Metrics provides methods for recording client-side observability metrics.
// A zero Metrics value is a valid no-op recorder.
type Metrics struct {
	// JSON-RPC metrics
	rpcRequestsTotal   metric.Int64Counter
	rpcRequestDuration metric.Float64Histogram
	sessionChanges     metric.Int64Counter

	// Tool metrics
	toolInvocationsTotal metric.Int64Counter
	toolDuration         metric.Float64Histogram

	// Device authentication metrics
	deviceAuthTotal metric.Int64Counter
}

// NewMetrics creates a new Metrics instance with all metrics initialized.
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	m := &Metrics{}

	var err error

	m.rpcRequestsTotal, err = meter.Int64Counter(
		"rpc_requests_total",
		metric.WithDescription("Total number of JSON-RPC requests sent to the MCP server"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create rpc_requests_total counter: %w", err)
	}

	m.rpcRequestDuration, err = meter.Float64Histogram(
		"rpc_request_duration_seconds",
		metric.WithDescription("JSON-RPC round trip duration in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.01, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0, 30.0, 60.0),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create rpc_request_duration_seconds histogram: %w", err)
	}

	m.sessionChanges, err = meter.Int64Counter(
		"session_token_changes_total",
		metric.WithDescription("Number of times the server assigned a new session token"),
		metric.WithUnit("{change}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create session_token_changes_total counter: %w", err)
	}

	m.toolInvocationsTotal, err = meter.Int64Counter(
		"mcp_tool_invocations_total",
		metric.WithDescription("Total number of MCP tool invocations"),
		metric.WithUnit("{invocation}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create mcp_tool_invocations_total counter: %w", err)
	}

	m.toolDuration, err = meter.Float64Histogram(
		"mcp_tool_duration_seconds",
		metric.WithDescription("MCP tool call duration in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.01, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0, 30.0, 60.0),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create mcp_tool_duration_seconds histogram: %w", err)
	}

	m.deviceAuthTotal, err = meter.Int64Counter(
		"device_auth_total",
		metric.WithDescription("Total number of completed device authentication attempts"),
		metric.WithUnit("{attempt}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create device_auth_total counter: %w", err)
	}

	return m, nil
}

// RecordRPCRequest records a JSON-RPC call with method, status and duration.
//
// Parameters:
//   - method: JSON-RPC method (initialize, tools/list, tools/call)
//   - status: StatusSuccess or one of the failure kinds (StatusTransportError, ...)
//   - duration: Time taken for the full exchange including decoding
func (m *Metrics) RecordRPCRequest(ctx context.Context, method, status string, duration time.Duration) {
	if m == nil || m.rpcRequestsTotal == nil || m.rpcRequestDuration == nil {
		return // Instrumentation not initialized
	}

	attrs := []attribute.KeyValue{
		attribute.String(attrMethod, method),
		attribute.String(attrStatus, status),
	}

	m.rpcRequestsTotal.Add(ctx, 1, metric.WithAttributes(attrs...))
	m.rpcRequestDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(attrs...))
}

// RecordSessionChange records that the server handed out a new session token.
func (m *Metrics) RecordSessionChange(ctx context.Context) {
	if m == nil || m.sessionChanges == nil {
		return
	}

	m.sessionChanges.Add(ctx, 1)
}

// RecordToolInvocation records an MCP tool call with tool name, status, and duration.
func (m *Metrics) RecordToolInvocation(ctx context.Context, toolName, status string, duration time.Duration) {
	if m == nil || m.toolInvocationsTotal == nil || m.toolDuration == nil {
		return
	}

	attrs := []attribute.KeyValue{
		attribute.String(attrTool, toolName),
		attribute.String(attrStatus, status),
	}

	m.toolInvocationsTotal.Add(ctx, 1, metric.WithAttributes(attrs...))
	m.toolDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(attrs...))
}

// RecordDeviceAuth records the result of a device authentication attempt.
// Result should be one of: "success", "pending", "failure"
func (m *Metrics) RecordDeviceAuth(ctx context.Context, result string) {
	if m == nil || m.deviceAuthTotal == nil {
		return
	}

	m.deviceAuthTotal.Add(ctx, 1, metric.WithAttributes(attribute.String(attrResult, result)))
}
