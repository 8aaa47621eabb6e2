// Package instrumentation provides OpenTelemetry instrumentation for the
// mcpmail client.
//
// Instrumentation is opt-in. When enabled, it records:
//   - OpenTelemetry metrics for JSON-RPC calls, tool invocations and device authentication
//   - Client spans for each JSON-RPC exchange (mcp.<method>) and tool call (tool.<name>)
//   - Prometheus export via a /metrics endpoint, or OTLP/stdout export
//
// # Metrics
//
// JSON-RPC Metrics:
//   - rpc_requests_total: Counter of requests by method and status
//   - rpc_request_duration_seconds: Histogram of round trip durations
//   - session_token_changes_total: Counter of session tokens assigned by the server
//
// MCP Tool Metrics:
//   - mcp_tool_invocations_total: Counter of tool invocations by tool name and status
//   - mcp_tool_duration_seconds: Histogram of tool call durations
//
// Device Authentication Metrics:
//   - device_auth_total: Counter of completed login attempts by result
//
// # Configuration
//
// Instrumentation can be configured via environment variables:
//   - INSTRUMENTATION_ENABLED: Enable/disable instrumentation (default: false)
//   - METRICS_EXPORTER: Metrics exporter type (prometheus, otlp, stdout, default: prometheus)
//   - TRACING_EXPORTER: Tracing exporter type (otlp, stdout, none, default: none)
//   - OTEL_EXPORTER_OTLP_ENDPOINT: OTLP endpoint for traces/metrics
//   - OTEL_TRACES_SAMPLER_ARG: Sampling rate (0.0 to 1.0, default: 1.0)
//   - OTEL_SERVICE_NAME: Service name (default: mcpmail)
//   - AUDIT_LOGGING_ENABLED / AUDIT_LOGGING_INCLUDE_PII: audit log behavior
//
// # Example Usage
//
//	provider, err := instrumentation.NewProvider(ctx, instrumentation.DefaultConfig())
//	if err != nil {
//		return err
//	}
//	defer provider.Shutdown(ctx)
//
//	recorder := provider.Metrics()
//	recorder.RecordRPCRequest(ctx, "tools/call", instrumentation.StatusSuccess, time.Since(start))
package instrumentation
