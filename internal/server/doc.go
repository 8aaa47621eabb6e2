// Package server hosts the HTTP surfaces mcpmail exposes while a command runs.
//
// MetricsServer serves the OpenTelemetry Prometheus exporter on /metrics
// together with a /healthz probe. It is started by the CLI when
// --metrics-addr is set and shut down before the process exits:
//
//	srv, err := server.NewMetricsServer(server.MetricsServerConfig{
//		Addr:     "127.0.0.1:9090",
//		Provider: provider,
//	})
//	if err != nil {
//		return err
//	}
//	if err := srv.Start(); err != nil {
//		return err
//	}
//	defer srv.Shutdown(ctx)
package server
