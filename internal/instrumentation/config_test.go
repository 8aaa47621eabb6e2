package instrumentation

import (
	"strings"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	t.Setenv("OTEL_SERVICE_NAME", "")
	t.Setenv("INSTRUMENTATION_ENABLED", "")
	t.Setenv("METRICS_EXPORTER", "")
	t.Setenv("TRACING_EXPORTER", "")
	t.Setenv("OTEL_TRACES_SAMPLER_ARG", "")

	config := DefaultConfig()

	if config.ServiceName != "mcpmail" {
		t.Errorf("expected ServiceName 'mcpmail', got %q", config.ServiceName)
	}
	if config.Enabled {
		t.Error("expected Enabled to be false by default")
	}
	if config.MetricsExporter != ExporterPrometheus {
		t.Errorf("expected MetricsExporter 'prometheus', got %q", config.MetricsExporter)
	}
	if config.TracingExporter != ExporterNone {
		t.Errorf("expected TracingExporter 'none', got %q", config.TracingExporter)
	}
	if config.TraceSamplingRate != 1.0 {
		t.Errorf("expected TraceSamplingRate 1.0, got %f", config.TraceSamplingRate)
	}
	if !config.AuditLogging.Enabled {
		t.Error("expected audit logging enabled by default")
	}
}

func TestDefaultConfig_FromEnv(t *testing.T) {
	t.Setenv("OTEL_SERVICE_NAME", "test-service")
	t.Setenv("INSTRUMENTATION_ENABLED", "true")
	t.Setenv("METRICS_EXPORTER", "stdout")
	t.Setenv("TRACING_EXPORTER", "otlp")
	t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4318")
	t.Setenv("OTEL_TRACES_SAMPLER_ARG", "0.5")
	t.Setenv("AUDIT_LOGGING_INCLUDE_PII", "true")

	config := DefaultConfig()

	if config.ServiceName != "test-service" {
		t.Errorf("expected ServiceName 'test-service', got %q", config.ServiceName)
	}
	if !config.Enabled {
		t.Error("expected Enabled to be true")
	}
	if config.MetricsExporter != ExporterStdout {
		t.Errorf("expected MetricsExporter 'stdout', got %q", config.MetricsExporter)
	}
	if config.TracingExporter != ExporterOTLP {
		t.Errorf("expected TracingExporter 'otlp', got %q", config.TracingExporter)
	}
	if config.OTLPEndpoint != "localhost:4318" {
		t.Errorf("expected OTLPEndpoint 'localhost:4318', got %q", config.OTLPEndpoint)
	}
	if config.TraceSamplingRate != 0.5 {
		t.Errorf("expected TraceSamplingRate 0.5, got %f", config.TraceSamplingRate)
	}
	if !config.AuditLogging.IncludePII {
		t.Error("expected IncludePII to be true")
	}
}

func TestDefaultConfig_InvalidEnvFallsBack(t *testing.T) {
	t.Setenv("INSTRUMENTATION_ENABLED", "not-a-bool")
	t.Setenv("OTEL_TRACES_SAMPLER_ARG", "abc")

	config := DefaultConfig()

	if config.Enabled {
		t.Error("expected invalid bool to fall back to false")
	}
	if config.TraceSamplingRate != 1.0 {
		t.Errorf("expected invalid float to fall back to 1.0, got %f", config.TraceSamplingRate)
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name        string
		config      Config
		errContains string
	}{
		{
			name:   "valid defaults",
			config: Config{MetricsExporter: ExporterPrometheus, TracingExporter: ExporterNone, TraceSamplingRate: 1},
		},
		{
			name:        "sampling rate too high",
			config:      Config{TraceSamplingRate: 1.5},
			errContains: "sampling rate",
		},
		{
			name:        "sampling rate negative",
			config:      Config{TraceSamplingRate: -0.1},
			errContains: "sampling rate",
		},
		{
			name:        "unknown metrics exporter",
			config:      Config{MetricsExporter: "graphite"},
			errContains: "invalid metrics exporter",
		},
		{
			name:        "unknown tracing exporter",
			config:      Config{TracingExporter: "jaeger"},
			errContains: "invalid tracing exporter",
		},
		{
			name:        "otlp tracing without endpoint",
			config:      Config{TracingExporter: ExporterOTLP},
			errContains: "OTLP endpoint is required",
		},
		{
			name:        "otlp metrics without endpoint",
			config:      Config{MetricsExporter: ExporterOTLP},
			errContains: "OTLP endpoint is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if tt.errContains == "" {
				if err != nil {
					t.Errorf("Validate() unexpected error: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("Validate() expected error containing %q, got nil", tt.errContains)
			}
			if !strings.Contains(err.Error(), tt.errContains) {
				t.Errorf("Validate() error = %v, want error containing %q", err, tt.errContains)
			}
		})
	}
}
