package server

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	oauthgoogle "golang.org/x/oauth2/google"
	"google.golang.org/api/option"

	"github.com/teemow/driveingest/internal/config"
	"github.com/teemow/driveingest/internal/docs"
	"github.com/teemow/driveingest/internal/google"
	"github.com/teemow/driveingest/internal/ingest"
	"github.com/teemow/driveingest/internal/instrumentation"
	"github.com/teemow/driveingest/internal/logging"
)

// ServerContext holds the state shared by all MCP tool invocations.
// Credentials and the Docs client are created on first use and cached.
type ServerContext struct {
	ctx     context.Context
	cancel  context.CancelFunc
	cfg     config.Config
	logger  *slog.Logger
	metrics *instrumentation.Metrics

	driveOpts []option.ClientOption
	docsOpts  []option.ClientOption

	mu         sync.Mutex
	creds      *oauthgoogle.Credentials
	docsClient *docs.Client
	shutdown   bool
}

// ContextOption configures a ServerContext.
type ContextOption func(*ServerContext)

// WithLogger sets the logger handed to tool handlers and API clients.
func WithLogger(logger *slog.Logger) ContextOption {
	return func(sc *ServerContext) {
		if logger != nil {
			sc.logger = logger
		}
	}
}

// WithMetrics sets the metrics recorder.
func WithMetrics(m *instrumentation.Metrics) ContextOption {
	return func(sc *ServerContext) {
		if m != nil {
			sc.metrics = m
		}
	}
}

// WithCredentials skips credential resolution and uses creds.
func WithCredentials(creds *oauthgoogle.Credentials) ContextOption {
	return func(sc *ServerContext) { sc.creds = creds }
}

// WithDriveClientOptions passes extra client options to every Drive service.
func WithDriveClientOptions(opts ...option.ClientOption) ContextOption {
	return func(sc *ServerContext) { sc.driveOpts = append(sc.driveOpts, opts...) }
}

// WithDocsClientOptions passes extra client options to the Docs service.
func WithDocsClientOptions(opts ...option.ClientOption) ContextOption {
	return func(sc *ServerContext) { sc.docsOpts = append(sc.docsOpts, opts...) }
}

// NewServerContext validates cfg and returns a context whose lifetime is
// bounded by ctx and Shutdown.
func NewServerContext(ctx context.Context, cfg config.Config, opts ...ContextOption) (*ServerContext, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", google.ErrConfiguration, err)
	}

	shutdownCtx, cancel := context.WithCancel(ctx)
	sc := &ServerContext{
		ctx:     shutdownCtx,
		cancel:  cancel,
		cfg:     cfg,
		logger:  slog.Default(),
		metrics: &instrumentation.Metrics{},
	}
	for _, opt := range opts {
		opt(sc)
	}
	return sc, nil
}

// Context returns the server context.
func (sc *ServerContext) Context() context.Context {
	return sc.ctx
}

// Config returns the base ingestion configuration.
func (sc *ServerContext) Config() config.Config {
	return sc.cfg
}

// Logger returns the server logger.
func (sc *ServerContext) Logger() *slog.Logger {
	return sc.logger
}

// Metrics returns the metrics recorder. It is never nil.
func (sc *ServerContext) Metrics() *instrumentation.Metrics {
	return sc.metrics
}

// credentials resolves credentials once. Callers must hold sc.mu.
func (sc *ServerContext) credentials(ctx context.Context) (*oauthgoogle.Credentials, error) {
	if sc.creds != nil {
		return sc.creds, nil
	}
	creds, err := google.ResolveCredentials(ctx, sc.cfg.ServiceAccountKey)
	if err != nil {
		return nil, err
	}
	if email := google.ClientEmail(creds); email != "" {
		sc.logger.InfoContext(ctx, "using service account credentials", logging.Principal(email))
	} else {
		sc.logger.InfoContext(ctx, "using application default credentials")
	}
	sc.creds = creds
	return creds, nil
}

// Ingestor builds an Ingestor for cfg that shares the cached credentials.
// cfg usually derives from Config with per-call overrides applied.
func (sc *ServerContext) Ingestor(ctx context.Context, cfg config.Config) (*ingest.Ingestor, error) {
	sc.mu.Lock()
	if sc.shutdown {
		sc.mu.Unlock()
		return nil, fmt.Errorf("server is shutting down")
	}
	creds, err := sc.credentials(ctx)
	sc.mu.Unlock()
	if err != nil {
		return nil, err
	}

	return ingest.New(ctx, cfg,
		ingest.WithCredentials(creds),
		ingest.WithLogger(sc.logger),
		ingest.WithMetrics(sc.metrics),
		ingest.WithDriveClientOptions(sc.driveOpts...),
		ingest.WithDocsClientOptions(sc.docsOpts...),
	)
}

// DocsClient returns the cached Docs client, creating it on first use.
func (sc *ServerContext) DocsClient(ctx context.Context) (*docs.Client, error) {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	if sc.shutdown {
		return nil, fmt.Errorf("server is shutting down")
	}
	if sc.docsClient != nil {
		return sc.docsClient, nil
	}

	creds, err := sc.credentials(ctx)
	if err != nil {
		return nil, err
	}
	client, err := docs.NewClient(sc.ctx, creds,
		docs.WithLogger(sc.logger),
		docs.WithMetrics(sc.metrics),
		docs.WithClientOptions(sc.docsOpts...))
	if err != nil {
		return nil, err
	}
	sc.docsClient = client
	return client, nil
}

// Shutdown cancels the server context. Later client requests fail.
func (sc *ServerContext) Shutdown() {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	if sc.shutdown {
		return
	}
	sc.shutdown = true
	sc.cancel()
}

// IsShutdown reports whether Shutdown has been called.
func (sc *ServerContext) IsShutdown() bool {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	return sc.shutdown
}
