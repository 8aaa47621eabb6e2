package server

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/teemow/mcpmail/internal/instrumentation"
)

func TestNewMetricsServer(t *testing.T) {
	tests := []struct {
		name        string
		config      MetricsServerConfig
		expectError bool
		errContains string
	}{
		{
			name: "valid config",
			config: MetricsServerConfig{
				Addr:     "127.0.0.1:9090",
				Provider: createTestProvider(t),
			},
		},
		{
			name: "default addr",
			config: MetricsServerConfig{
				Provider: createTestProvider(t),
			},
		},
		{
			name:        "nil provider",
			config:      MetricsServerConfig{Addr: ":9090"},
			expectError: true,
			errContains: "instrumentation provider is required",
		},
		{
			name: "disabled provider",
			config: MetricsServerConfig{
				Addr:     ":9090",
				Provider: createDisabledProvider(t),
			},
			expectError: true,
			errContains: "instrumentation provider is not enabled",
		},
		{
			name: "stdout exporter",
			config: MetricsServerConfig{
				Addr:     ":9090",
				Provider: createStdoutProvider(t),
			},
			expectError: true,
			errContains: "requires the prometheus exporter",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server, err := NewMetricsServer(tt.config)

			if tt.expectError {
				if err == nil {
					t.Errorf("NewMetricsServer() expected error, got nil")
				} else if !strings.Contains(err.Error(), tt.errContains) {
					t.Errorf("NewMetricsServer() error = %v, want error containing %q", err, tt.errContains)
				}
				return
			}
			if err != nil {
				t.Fatalf("NewMetricsServer() unexpected error: %v", err)
			}
			if server == nil {
				t.Fatal("NewMetricsServer() returned nil server")
			}
			if server.Addr() == "" {
				t.Error("Addr() is empty")
			}
		})
	}
}

func TestMetricsServer_Handler(t *testing.T) {
	provider := createTestProvider(t)
	provider.Metrics().RecordRPCRequest(context.Background(), "tools/list", instrumentation.StatusSuccess, 20*time.Millisecond)

	server, err := NewMetricsServer(MetricsServerConfig{Provider: provider})
	if err != nil {
		t.Fatalf("NewMetricsServer() error = %v", err)
	}

	ts := httptest.NewServer(server.Handler())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/metrics")
	if err != nil {
		t.Fatalf("GET /metrics error = %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("GET /metrics status = %d, want %d", resp.StatusCode, http.StatusOK)
	}
	if !strings.Contains(string(body), "rpc_requests_total") {
		t.Errorf("GET /metrics body does not contain rpc_requests_total")
	}

	resp, err = http.Get(ts.URL + "/healthz")
	if err != nil {
		t.Fatalf("GET /healthz error = %v", err)
	}
	body, _ = io.ReadAll(resp.Body)
	resp.Body.Close()

	if resp.StatusCode != http.StatusOK || string(body) != "ok" {
		t.Errorf("GET /healthz = %d %q, want 200 \"ok\"", resp.StatusCode, body)
	}
}

func TestMetricsServer_StartAndShutdown(t *testing.T) {
	server, err := NewMetricsServer(MetricsServerConfig{
		Addr:     "127.0.0.1:0",
		Provider: createTestProvider(t),
	})
	if err != nil {
		t.Fatalf("NewMetricsServer() error = %v", err)
	}

	if err := server.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if strings.HasSuffix(server.Addr(), ":0") {
		t.Errorf("Addr() = %q, want the bound port", server.Addr())
	}
	if err := server.Start(); err == nil {
		t.Error("second Start() expected error, got nil")
	}

	resp, err := http.Get("http://" + server.Addr() + "/healthz")
	if err != nil {
		t.Fatalf("GET /healthz error = %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("GET /healthz status = %d, want %d", resp.StatusCode, http.StatusOK)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		t.Errorf("Shutdown() error = %v", err)
	}

	if _, err := http.Get("http://" + server.Addr() + "/healthz"); err == nil {
		t.Error("GET /healthz after Shutdown() expected error, got nil")
	}
}

func TestMetricsServer_ShutdownWithoutStart(t *testing.T) {
	server, err := NewMetricsServer(MetricsServerConfig{
		Addr:     "127.0.0.1:9091",
		Provider: createTestProvider(t),
	})
	if err != nil {
		t.Fatalf("NewMetricsServer() error = %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		t.Errorf("Shutdown() without Start() error = %v", err)
	}
	if server.Addr() != "127.0.0.1:9091" {
		t.Errorf("Addr() = %q, want %q", server.Addr(), "127.0.0.1:9091")
	}
}

// Helper functions

func createTestProvider(t *testing.T) *instrumentation.Provider {
	t.Helper()
	return newProvider(t, instrumentation.Config{
		ServiceName:     "test-service",
		ServiceVersion:  "1.0.0",
		Enabled:         true,
		MetricsExporter: instrumentation.ExporterPrometheus,
		TracingExporter: instrumentation.ExporterNone,
	})
}

func createStdoutProvider(t *testing.T) *instrumentation.Provider {
	t.Helper()
	return newProvider(t, instrumentation.Config{
		ServiceName:     "test-service",
		ServiceVersion:  "1.0.0",
		Enabled:         true,
		MetricsExporter: instrumentation.ExporterStdout,
		TracingExporter: instrumentation.ExporterNone,
	})
}

func createDisabledProvider(t *testing.T) *instrumentation.Provider {
	t.Helper()
	return newProvider(t, instrumentation.Config{
		ServiceName:    "test-service",
		ServiceVersion: "1.0.0",
		Enabled:        false,
	})
}

func newProvider(t *testing.T, config instrumentation.Config) *instrumentation.Provider {
	t.Helper()
	ctx := context.Background()
	provider, err := instrumentation.NewProvider(ctx, config)
	if err != nil {
		t.Fatalf("failed to create test provider: %v", err)
	}
	t.Cleanup(func() {
		_ = provider.Shutdown(ctx)
	})
	return provider
}
