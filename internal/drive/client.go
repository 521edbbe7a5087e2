package drive

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"golang.org/x/oauth2/google"
	drive "google.golang.org/api/drive/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"github.com/teemow/driveingest/internal/instrumentation"
	"github.com/teemow/driveingest/internal/logging"
)

// DefaultChunkSize is the number of bytes requested per ranged media download.
const DefaultChunkSize int64 = 100 * 1024 * 1024

// pageSize is the maximum page size accepted by files.list.
const pageSize = 1000

// ErrRemoteList is returned when a files.list call fails.
var ErrRemoteList = errors.New("remote list error")

// Client wraps the Google Drive API service
type Client struct {
	service    *drive.Service
	logger     *slog.Logger
	metrics    *instrumentation.Metrics
	chunkSize  int64
	clientOpts []option.ClientOption
}

// Option configures a Client.
type Option func(*Client)

// WithChunkSize sets the number of bytes requested per download chunk.
// Non-positive values keep DefaultChunkSize.
func WithChunkSize(size int64) Option {
	return func(c *Client) {
		if size > 0 {
			c.chunkSize = size
		}
	}
}

// WithLogger sets the logger used for download failures and walk progress.
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

// WithClientOptions appends Google API client options used when NewClient builds
// the Drive service, e.g. option.WithEndpoint for a local test server.
func WithClientOptions(opts ...option.ClientOption) Option {
	return func(c *Client) {
		c.clientOpts = append(c.clientOpts, opts...)
	}
}

// NewClient creates a Drive client authenticated with creds.
func NewClient(ctx context.Context, creds *google.Credentials, opts ...Option) (*Client, error) {
	c := newClient(opts...)

	clientOpts := make([]option.ClientOption, 0, len(c.clientOpts)+1)
	if creds != nil {
		clientOpts = append(clientOpts, option.WithCredentials(creds))
	}
	clientOpts = append(clientOpts, c.clientOpts...)

	service, err := drive.NewService(ctx, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Drive service: %w", err)
	}
	c.service = service
	return c, nil
}

// NewClientWithService wraps an already constructed Drive service.
func NewClientWithService(service *drive.Service, opts ...Option) *Client {
	c := newClient(opts...)
	c.service = service
	return c
}

func newClient(opts ...Option) *Client {
	c := &Client{
		logger:    slog.Default(),
		metrics:   &instrumentation.Metrics{},
		chunkSize: DefaultChunkSize,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ChunkSize returns the configured download chunk size.
func (c *Client) ChunkSize() int64 {
	return c.chunkSize
}

// ListChildren returns every direct child of folderID, following page tokens
// until the listing is exhausted. Trashed children are included.
func (c *Client) ListChildren(ctx context.Context, folderID string) ([]*Entry, error) {
	start := time.Now()
	ctx, span := instrumentation.StartGoogleAPISpan(ctx, instrumentation.ServiceDrive, instrumentation.OperationList,
		instrumentation.FolderID(folderID))
	defer span.End()

	var entries []*Entry
	err := c.service.Files.List().
		Q(ChildrenQuery(folderID)).
		PageSize(pageSize).
		SupportsAllDrives(true).
		IncludeItemsFromAllDrives(true).
		Fields("nextPageToken, files(id, name, mimeType, parents, trashed)").
		Pages(ctx, func(page *drive.FileList) error {
			for _, f := range page.Files {
				entries = append(entries, toEntry(f))
			}
			return nil
		})
	c.record(ctx, instrumentation.OperationList, start, err)
	if err != nil {
		instrumentation.SetSpanError(span, err)
		return nil, fmt.Errorf("%w: failed to list children of folder %s: %w", ErrRemoteList, folderID, err)
	}
	instrumentation.SetSpanSuccess(span)

	c.logger.DebugContext(ctx, "listed folder",
		logging.FolderID(folderID),
		slog.Int("children", len(entries)))

	return entries, nil
}

// ListFiles returns the non-folder entries under folderID in listing order.
// Sub-folders are descended into when recursive is true and skipped otherwise.
// Each folder is listed at most once and each file is returned at most once,
// even when the folder graph contains shortcuts back to an ancestor or files
// with several parents.
func (c *Client) ListFiles(ctx context.Context, folderID string, recursive bool) ([]*Entry, error) {
	visited := map[string]bool{folderID: true}
	seen := make(map[string]bool)
	var files []*Entry

	var walk func(id string) error
	walk = func(id string) error {
		children, err := c.ListChildren(ctx, id)
		if err != nil {
			return err
		}

		for _, entry := range children {
			if entry.IsFolder() {
				if !recursive || visited[entry.ID] {
					continue
				}
				visited[entry.ID] = true
				if err := walk(entry.ID); err != nil {
					return err
				}
				continue
			}

			if seen[entry.ID] {
				continue
			}
			seen[entry.ID] = true
			files = append(files, entry)
		}
		return nil
	}

	if err := walk(folderID); err != nil {
		return nil, err
	}
	return files, nil
}

// FetchContent downloads the full media content of fileID.
//
// It never returns an error: any failure is logged at error level and reported
// as (nil, false). An empty file yields an empty, non-nil slice.
func (c *Client) FetchContent(ctx context.Context, fileID string) ([]byte, bool) {
	start := time.Now()
	ctx, span := instrumentation.StartGoogleAPISpan(ctx, instrumentation.ServiceDrive, instrumentation.OperationDownload,
		instrumentation.FileID(fileID))
	defer span.End()

	data, err := c.download(ctx, fileID)
	c.record(ctx, instrumentation.OperationDownload, start, err)
	if err != nil {
		instrumentation.SetSpanError(span, err)
		c.logger.ErrorContext(ctx, "failed to download file",
			logging.FileID(fileID),
			slog.Int("http_status", APIStatus(err)),
			logging.Err(err))
		return nil, false
	}
	instrumentation.SetSpanSuccess(span)

	c.logger.DebugContext(ctx, "downloaded file",
		logging.FileID(fileID),
		slog.Int("bytes", len(data)))

	return data, true
}

// download fetches the media in ranged chunks until the server reports a complete
// body, the Content-Range total is reached, or a short chunk arrives.
func (c *Client) download(ctx context.Context, fileID string) ([]byte, error) {
	var buf bytes.Buffer
	var offset int64

	for {
		call := c.service.Files.Get(fileID).SupportsAllDrives(true).Context(ctx)
		call.Header().Set("Range", fmt.Sprintf("bytes=%d-%d", offset, offset+c.chunkSize-1))

		resp, err := call.Download()
		if err != nil {
			// 416 means the range starts at or past the end: an empty file at
			// offset 0, or a body that ended exactly on a chunk boundary.
			if APIStatus(err) == http.StatusRequestedRangeNotSatisfiable {
				break
			}
			return nil, fmt.Errorf("failed to download file %s at offset %d: %w", fileID, offset, err)
		}

		n, err := io.Copy(&buf, resp.Body)
		_ = resp.Body.Close()
		if err != nil {
			return nil, fmt.Errorf("failed to read content of file %s: %w", fileID, err)
		}
		offset += n

		if resp.StatusCode != http.StatusPartialContent || n == 0 {
			break
		}
		if total, ok := contentRangeTotal(resp.Header.Get("Content-Range")); ok {
			if offset >= total {
				break
			}
		} else if n < c.chunkSize {
			break
		}
	}

	data := buf.Bytes()
	if data == nil {
		data = []byte{}
	}
	return data, nil
}

func (c *Client) record(ctx context.Context, operation string, start time.Time, err error) {
	status := instrumentation.StatusSuccess
	if err != nil {
		status = instrumentation.StatusError
	}
	c.metrics.RecordGoogleAPIOperation(ctx, instrumentation.ServiceDrive, operation, status, time.Since(start))
}

// ChildrenQuery builds the files.list query selecting the children of folderID.
func ChildrenQuery(folderID string) string {
	return fmt.Sprintf("'%s' in parents", escapeQueryValue(folderID))
}

func escapeQueryValue(v string) string {
	v = strings.ReplaceAll(v, `\`, `\\`)
	return strings.ReplaceAll(v, `'`, `\'`)
}

// contentRangeTotal parses the complete length from a "bytes a-b/total" header.
func contentRangeTotal(header string) (int64, bool) {
	i := strings.LastIndex(header, "/")
	if i < 0 || header[i+1:] == "*" {
		return 0, false
	}
	total, err := strconv.ParseInt(header[i+1:], 10, 64)
	if err != nil {
		return 0, false
	}
	return total, true
}

// APIStatus returns the HTTP status code carried by a Google API error, or 0.
func APIStatus(err error) int {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		return apiErr.Code
	}
	return 0
}
