package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/teemow/mcpmail/internal/instrumentation"
	"github.com/teemow/mcpmail/internal/logging"
	"github.com/teemow/mcpmail/internal/mcp"
	"github.com/teemow/mcpmail/internal/server"
)

// session is everything a command needs to talk to the server: an
// initialized client plus the instrumentation around it.
type session struct {
	client   *mcp.Client
	server   *mcp.InitializeResult
	provider *instrumentation.Provider
	audit    *instrumentation.AuditLogger
	metrics  *server.MetricsServer
	logger   *slog.Logger
}

// openSession sets up instrumentation, starts the metrics server when
// requested and performs the initialize handshake.
func openSession(ctx context.Context, opts *rootOptions) (_ *session, err error) {
	logger := opts.logger
	if logger == nil {
		logger = slog.Default()
	}

	instrConfig := instrumentation.DefaultConfig()
	instrConfig.ServiceVersion = version
	if opts.metricsAddr != "" {
		instrConfig.Enabled = true
		instrConfig.MetricsExporter = instrumentation.ExporterPrometheus
	}

	provider, err := instrumentation.NewProvider(ctx, instrConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create instrumentation provider: %w", err)
	}

	s := &session{
		provider: provider,
		audit:    instrumentation.NewAuditLoggerWithConfig(logger, instrConfig.AuditLogging),
		logger:   logger,
	}
	defer func() {
		if err != nil {
			if closeErr := s.Close(); closeErr != nil {
				logger.Debug("cleanup after failed session setup", logging.Err(closeErr))
			}
		}
	}()

	if opts.metricsAddr != "" {
		s.metrics, err = server.NewMetricsServer(server.MetricsServerConfig{
			Addr:     opts.metricsAddr,
			Provider: provider,
			Logger:   logger,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create metrics server: %w", err)
		}
		if err = s.metrics.Start(); err != nil {
			return nil, fmt.Errorf("metrics server failed to start: %w", err)
		}
	}

	s.client, err = mcp.NewClient(opts.clientConfig(),
		mcp.WithLogger(logger),
		mcp.WithMetrics(provider.Metrics()),
	)
	if err != nil {
		return nil, err
	}

	s.server, err = s.client.Initialize(ctx)
	if err != nil {
		return nil, fmt.Errorf("initialize %s: %w", s.client.Endpoint(), err)
	}

	logger.Debug("connected",
		slog.String("server", s.server.ServerInfo.Name),
		slog.String("server_version", s.server.ServerInfo.Version),
		slog.String("protocol_version", s.server.ProtocolVersion),
		logging.Session(s.client.SessionID()),
	)
	return s, nil
}

// Close releases the client, stops the metrics server and flushes telemetry.
func (s *session) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), server.DefaultShutdownTimeout)
	defer cancel()

	var errs []error
	if s.client != nil {
		errs = append(errs, s.client.Close())
	}
	if s.metrics != nil {
		errs = append(errs, s.metrics.Shutdown(ctx))
	}
	if s.provider != nil {
		errs = append(errs, s.provider.Shutdown(ctx))
	}
	return errors.Join(errs...)
}

// withSession opens a session, runs fn and closes the session again.
func withSession(ctx context.Context, opts *rootOptions, fn func(*session) error) error {
	s, err := openSession(ctx, opts)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := s.Close(); closeErr != nil {
			s.logger.Warn("error during shutdown", logging.Err(closeErr))
		}
	}()
	return fn(s)
}
