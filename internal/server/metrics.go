package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/teemow/mcpmail/internal/instrumentation"
)

const (
	// DefaultMetricsAddr is the default address for the metrics server.
	DefaultMetricsAddr = "127.0.0.1:9090"

	// DefaultMetricsReadTimeout is the default read timeout for the metrics server.
	DefaultMetricsReadTimeout = 10 * time.Second

	// DefaultMetricsWriteTimeout is the default write timeout for the metrics server.
	DefaultMetricsWriteTimeout = 10 * time.Second

	// DefaultMetricsIdleTimeout is the default idle timeout for the metrics server.
	DefaultMetricsIdleTimeout = 60 * time.Second

	// DefaultShutdownTimeout is the default timeout for graceful server shutdown.
	DefaultShutdownTimeout = 30 * time.Second
)

// MetricsServerConfig holds configuration for the metrics server.
type MetricsServerConfig struct {
	// Addr is the address to bind to (e.g. "127.0.0.1:9090", ":0").
	Addr string

	// Provider must be enabled and export metrics through Prometheus.
	Provider *instrumentation.Provider

	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

// MetricsServer exposes the client's Prometheus metrics while a command runs.
type MetricsServer struct {
	addr   string
	logger *slog.Logger

	mu         sync.Mutex
	httpServer *http.Server
	listener   net.Listener
	done       chan struct{}
}

// NewMetricsServer creates a metrics server. It fails when the provider cannot
// be scraped over HTTP.
func NewMetricsServer(config MetricsServerConfig) (*MetricsServer, error) {
	if config.Addr == "" {
		config.Addr = DefaultMetricsAddr
	}
	if config.Provider == nil {
		return nil, fmt.Errorf("instrumentation provider is required for metrics server")
	}
	if !config.Provider.Enabled() {
		return nil, fmt.Errorf("instrumentation provider is not enabled")
	}
	if !config.Provider.HasPrometheusExporter() {
		return nil, fmt.Errorf("metrics server requires the %s exporter", instrumentation.ExporterPrometheus)
	}
	if config.Logger == nil {
		config.Logger = slog.Default()
	}

	return &MetricsServer{
		addr:   config.Addr,
		logger: config.Logger.With("component", "metrics_server"),
	}, nil
}

// Handler returns the HTTP handler serving /metrics and /healthz.
func (s *MetricsServer) Handler() http.Handler {
	mux := http.NewServeMux()

	// The OpenTelemetry prometheus exporter registers with the default registry.
	mux.Handle("/metrics", promhttp.Handler())

	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	return mux
}

// Start binds the listener and serves in the background. It returns once the
// address is bound, so Addr reports the actual port when ":0" was requested.
func (s *MetricsServer) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.httpServer != nil {
		return fmt.Errorf("metrics server already started")
	}

	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.addr, err)
	}

	s.listener = ln
	s.done = make(chan struct{})
	s.httpServer = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: DefaultMetricsReadTimeout,
		WriteTimeout:      DefaultMetricsWriteTimeout,
		IdleTimeout:       DefaultMetricsIdleTimeout,
	}

	s.logger.Info("starting metrics server", "addr", ln.Addr().String())

	go func(srv *http.Server, done chan struct{}) {
		defer close(done)
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("metrics server stopped", "error", err)
		}
	}(s.httpServer, s.done)

	return nil
}

// Shutdown gracefully shuts down the metrics server. It is a no-op if the
// server was never started.
func (s *MetricsServer) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	srv, done := s.httpServer, s.done
	s.mu.Unlock()

	if srv == nil {
		return nil
	}

	s.logger.Info("shutting down metrics server")
	if err := srv.Shutdown(ctx); err != nil {
		return err
	}

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Addr returns the bound address once started, otherwise the configured one.
func (s *MetricsServer) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return s.addr
}
