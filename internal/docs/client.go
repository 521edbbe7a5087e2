package docs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/oauth2/google"
	docs "google.golang.org/api/docs/v1"
	"google.golang.org/api/option"

	"github.com/teemow/driveingest/internal/instrumentation"
	"github.com/teemow/driveingest/internal/logging"
)

// ErrRemoteFetch is returned when a documents.get call fails.
var ErrRemoteFetch = errors.New("remote fetch error")

// Client wraps the Google Docs API service
type Client struct {
	service    *docs.Service
	logger     *slog.Logger
	metrics    *instrumentation.Metrics
	clientOpts []option.ClientOption
}

// Option configures a Client.
type Option func(*Client)

// WithLogger sets the client logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithMetrics sets the recorder for Google API operation metrics.
func WithMetrics(metrics *instrumentation.Metrics) Option {
	return func(c *Client) {
		c.metrics = metrics
	}
}

// WithClientOptions appends Google API client options used when NewClient
// builds the Docs service.
func WithClientOptions(opts ...option.ClientOption) Option {
	return func(c *Client) {
		c.clientOpts = append(c.clientOpts, opts...)
	}
}

// NewClient creates a Docs client authenticated with creds.
func NewClient(ctx context.Context, creds *google.Credentials, opts ...Option) (*Client, error) {
	c := newClient(opts...)

	clientOpts := make([]option.ClientOption, 0, len(c.clientOpts)+1)
	if creds != nil {
		clientOpts = append(clientOpts, option.WithCredentials(creds))
	}
	clientOpts = append(clientOpts, c.clientOpts...)

	service, err := docs.NewService(ctx, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Docs service: %w", err)
	}
	c.service = service
	return c, nil
}

// NewClientWithService wraps an already constructed Docs service.
func NewClientWithService(service *docs.Service, opts ...Option) *Client {
	c := newClient(opts...)
	c.service = service
	return c
}

func newClient(opts ...Option) *Client {
	c := &Client{
		logger:  slog.Default(),
		metrics: &instrumentation.Metrics{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// GetDocument retrieves a Google Doc by document ID.
func (c *Client) GetDocument(ctx context.Context, documentID string) (*docs.Document, error) {
	if documentID == "" {
		return nil, fmt.Errorf("%w: documentID is required", ErrRemoteFetch)
	}

	start := time.Now()
	ctx, span := instrumentation.StartGoogleAPISpan(ctx, instrumentation.ServiceDocs, instrumentation.OperationGet,
		instrumentation.FileID(documentID))
	defer span.End()

	doc, err := c.service.Documents.Get(documentID).Context(ctx).Do()

	status := instrumentation.StatusSuccess
	if err != nil {
		status = instrumentation.StatusError
	}
	c.metrics.RecordGoogleAPIOperation(ctx, instrumentation.ServiceDocs, instrumentation.OperationGet, status, time.Since(start))

	if err != nil {
		instrumentation.SetSpanError(span, err)
		return nil, fmt.Errorf("%w: failed to get document %s: %w", ErrRemoteFetch, documentID, err)
	}
	instrumentation.SetSpanSuccess(span)

	return doc, nil
}

// ExtractText fetches documentID and returns its body text.
func (c *Client) ExtractText(ctx context.Context, documentID string) (string, error) {
	doc, err := c.GetDocument(ctx, documentID)
	if err != nil {
		return "", err
	}

	text := DocumentText(doc)
	c.logger.DebugContext(ctx, "extracted document text",
		logging.FileID(documentID),
		slog.Int("chars", len(text)))

	return text, nil
}
