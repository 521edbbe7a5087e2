package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"

	"github.com/teemow/driveingest/internal/config"
	"github.com/teemow/driveingest/internal/instrumentation"
	"github.com/teemow/driveingest/internal/logging"
	"github.com/teemow/driveingest/internal/server"
	"github.com/teemow/driveingest/internal/tools/docs_tools"
	"github.com/teemow/driveingest/internal/tools/drive_tools"
)

// Supported MCP transports.
const (
	TransportStdio          = "stdio"
	TransportStreamableHTTP = "streamable-http"
)

// MetricsConfig holds configuration for the metrics server
type MetricsConfig struct {
	// Enabled determines whether to start the metrics server (default: true)
	Enabled bool

	// Addr is the address for the metrics server (e.g., ":9090")
	Addr string
}

type serveOptions struct {
	flags     ingestFlags
	transport string
	httpAddr  string
	metrics   MetricsConfig
}

func newServeCmd() *cobra.Command {
	var opts serveOptions

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the MCP server",
		Long: `Start the Model Context Protocol (MCP) server exposing Drive folder
ingestion to AI assistants.

Tools:
  - drive_ingest_folder: ingest a folder (folderId, recursive, loadTrashed)
  - docs_extract_text: plain text of a single Google Doc (documentId)

Supports multiple transport types:
  - stdio: Standard input/output (default)
  - streamable-http: Streamable HTTP transport on --http-addr at /mcp

The ingestion flags set the server defaults; recursive and loadTrashed can
be overridden per tool call. With streamable-http a separate metrics server
exposes /metrics, /healthz and /readyz on --metrics-addr.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !cmd.Flags().Changed("metrics-enabled") {
				if v, ok := os.LookupEnv("METRICS_ENABLED"); ok {
					opts.metrics.Enabled = v == "true"
				}
			}
			if !cmd.Flags().Changed("metrics-addr") {
				if addr := os.Getenv("METRICS_ADDR"); addr != "" {
					opts.metrics.Addr = addr
				}
			}

			cfg := opts.flags.apply(cmd, config.DefaultConfig())

			ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			return runServe(ctx, cfg, opts, cmd.ErrOrStderr())
		},
	}

	addConfigFlags(cmd, &opts.flags)
	cmd.Flags().StringVar(&opts.transport, "transport", TransportStdio, "Transport type: stdio or streamable-http")
	cmd.Flags().StringVar(&opts.httpAddr, "http-addr", server.DefaultHTTPAddr, "HTTP server address (for streamable-http transport)")
	cmd.Flags().BoolVar(&opts.metrics.Enabled, "metrics-enabled", true, "Enable the metrics server on a dedicated port. Can also use METRICS_ENABLED env var.")
	cmd.Flags().StringVar(&opts.metrics.Addr, "metrics-addr", server.DefaultMetricsAddr, "Metrics server address. Can also use METRICS_ADDR env var.")

	return cmd
}

func runServe(ctx context.Context, cfg config.Config, opts serveOptions, stderr io.Writer) error {
	if opts.transport != TransportStdio && opts.transport != TransportStreamableHTTP {
		return fmt.Errorf("unsupported transport type: %s (supported: stdio, streamable-http)", opts.transport)
	}

	logger := logging.NewLogger(stderr, opts.flags.logFormat, opts.flags.debug)

	instrConfig := instrumentation.DefaultConfig()
	instrConfig.ServiceVersion = version
	instrConfig.Component = instrumentation.ComponentServer
	provider, err := instrumentation.NewProvider(ctx, instrConfig)
	if err != nil {
		return fmt.Errorf("failed to create instrumentation provider: %w", err)
	}
	defer func() {
		if err := provider.Shutdown(context.WithoutCancel(ctx)); err != nil {
			logger.Warn("instrumentation shutdown failed", logging.Err(err))
		}
	}()

	serverContext, err := server.NewServerContext(ctx, cfg,
		server.WithLogger(logger),
		server.WithMetrics(provider.Metrics()),
	)
	if err != nil {
		return err
	}
	defer serverContext.Shutdown()

	mcpSrv := newMCPServer()
	if err := registerAllTools(mcpSrv, serverContext); err != nil {
		return err
	}

	if opts.transport == TransportStdio {
		return runStdioServer(mcpSrv, logger)
	}
	return runStreamableHTTPServer(ctx, mcpSrv, opts, provider, instrConfig.PrometheusEndpoint, logger)
}

func newMCPServer() *mcpserver.MCPServer {
	return mcpserver.NewMCPServer("driveingest", version,
		mcpserver.WithToolCapabilities(true),
		mcpserver.WithRecovery(),
	)
}

func runStdioServer(mcpSrv *mcpserver.MCPServer, logger *slog.Logger) error {
	errLogger := slog.NewLogLogger(logger.Handler(), slog.LevelError)
	if err := mcpserver.ServeStdio(mcpSrv, mcpserver.WithErrorLogger(errLogger)); err != nil {
		return fmt.Errorf("server stopped with error: %w", err)
	}
	return nil
}

// registerAllTools registers every MCP tool group.
func registerAllTools(mcpSrv *mcpserver.MCPServer, sc *server.ServerContext) error {
	registrations := []struct {
		name     string
		register func() error
	}{
		{name: "Drive", register: func() error { return drive_tools.RegisterDriveTools(mcpSrv, sc) }},
		{name: "Docs", register: func() error { return docs_tools.RegisterDocsTools(mcpSrv, sc) }},
	}

	for _, reg := range registrations {
		if err := reg.register(); err != nil {
			return fmt.Errorf("failed to register %s tools: %w", reg.name, err)
		}
	}
	return nil
}

func runStreamableHTTPServer(ctx context.Context, mcpSrv *mcpserver.MCPServer, opts serveOptions, provider *instrumentation.Provider, metricsPath string, logger *slog.Logger) error {
	var metricsServer *server.MetricsServer
	if opts.metrics.Enabled && provider.PrometheusEnabled() {
		var err error
		metricsServer, err = server.NewMetricsServer(server.MetricsServerConfig{
			Addr:                    opts.metrics.Addr,
			MetricsPath:             metricsPath,
			InstrumentationProvider: provider,
			Logger:                  logger,
		})
		if err != nil {
			return fmt.Errorf("failed to create metrics server: %w", err)
		}
		if err := metricsServer.Listen(); err != nil {
			return fmt.Errorf("metrics server failed to start: %w", err)
		}
		go func() {
			if err := metricsServer.Serve(); err != nil {
				logger.Error("metrics server stopped", logging.Err(err))
			}
		}()
	} else if opts.metrics.Enabled {
		logger.Info("metrics server disabled: prometheus exporter is not active")
	}

	httpServer := server.NewMCPHTTPServer(mcpSrv, opts.httpAddr, logger)
	if err := httpServer.Listen(); err != nil {
		return err
	}

	serverDone := make(chan error, 1)
	go func() {
		serverDone <- httpServer.Serve()
	}()

	var serveErr error
	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case serveErr = <-serverDone:
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), server.DefaultShutdownTimeout)
	defer cancel()

	if metricsServer != nil {
		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			logger.Warn("metrics server shutdown failed", logging.Err(err))
		}
	}
	if serveErr != nil {
		return fmt.Errorf("HTTP server stopped with error: %w", serveErr)
	}
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("error shutting down HTTP server: %w", err)
	}

	logger.Info("HTTP server gracefully stopped")
	return nil
}
