package ingest

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"
	oauthgoogle "golang.org/x/oauth2/google"
	"google.golang.org/api/option"

	"github.com/teemow/driveingest/internal/config"
	"github.com/teemow/driveingest/internal/docs"
	"github.com/teemow/driveingest/internal/document"
	"github.com/teemow/driveingest/internal/drive"
	"github.com/teemow/driveingest/internal/google"
	"github.com/teemow/driveingest/internal/instrumentation"
	"github.com/teemow/driveingest/internal/logging"
	"github.com/teemow/driveingest/internal/transform"
)

// Lister enumerates the files below a Drive folder.
type Lister interface {
	ListFiles(ctx context.Context, folderID string, recursive bool) ([]*drive.Entry, error)
}

// ContentFetcher downloads binary file content. ok is false when the download failed.
type ContentFetcher interface {
	FetchContent(ctx context.Context, fileID string) (data []byte, ok bool)
}

// TextExtractor returns the text of a native Google Doc.
type TextExtractor interface {
	ExtractText(ctx context.Context, documentID string) (string, error)
}

// Transformer converts a staged file into documents. name is the Drive file
// name; path is the local file holding its content.
type Transformer interface {
	Transform(ctx context.Context, name, path string) ([]document.Document, error)
}

// Summary describes the outcome of one IngestFolder run.
type Summary struct {
	RunID              string        `json:"runId"`
	FolderID           string        `json:"folderId"`
	Listed             int           `json:"listed"`
	Documents          int           `json:"documents"`
	SkippedTrashed     int           `json:"skippedTrashed"`
	SkippedUnsupported int           `json:"skippedUnsupported"`
	FailedDownloads    int           `json:"failedDownloads"`
	Duration           time.Duration `json:"duration"`
}

// Ingestor runs folder ingestions with a fixed configuration.
type Ingestor struct {
	cfg         config.Config
	lister      Lister
	fetcher     ContentFetcher
	extractor   TextExtractor
	transformer Transformer
	logger      *slog.Logger
	metrics     *instrumentation.Metrics

	creds     *oauthgoogle.Credentials
	driveOpts []option.ClientOption
	docsOpts  []option.ClientOption
}

// Option configures an Ingestor.
type Option func(*Ingestor)

// WithLister replaces the Drive listing walker.
func WithLister(l Lister) Option {
	return func(i *Ingestor) { i.lister = l }
}

// WithContentFetcher replaces the Drive media downloader.
func WithContentFetcher(f ContentFetcher) Option {
	return func(i *Ingestor) { i.fetcher = f }
}

// WithTextExtractor replaces the Google Docs text extractor.
func WithTextExtractor(e TextExtractor) Option {
	return func(i *Ingestor) { i.extractor = e }
}

// WithTransformer replaces the default file transformer.
func WithTransformer(t Transformer) Option {
	return func(i *Ingestor) { i.transformer = t }
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(i *Ingestor) {
		if logger != nil {
			i.logger = logger
		}
	}
}

// WithMetrics sets the metrics recorder.
func WithMetrics(m *instrumentation.Metrics) Option {
	return func(i *Ingestor) {
		if m != nil {
			i.metrics = m
		}
	}
}

// WithCredentials uses creds instead of resolving them from the configuration.
func WithCredentials(creds *oauthgoogle.Credentials) Option {
	return func(i *Ingestor) { i.creds = creds }
}

// WithDriveClientOptions passes extra client options to the Drive service.
func WithDriveClientOptions(opts ...option.ClientOption) Option {
	return func(i *Ingestor) { i.driveOpts = append(i.driveOpts, opts...) }
}

// WithDocsClientOptions passes extra client options to the Docs service.
func WithDocsClientOptions(opts ...option.ClientOption) Option {
	return func(i *Ingestor) { i.docsOpts = append(i.docsOpts, opts...) }
}

// New validates cfg and builds an Ingestor. Credentials are resolved once and
// shared by the Drive and Docs clients; they are not resolved at all when every
// remote collaborator is injected.
func New(ctx context.Context, cfg config.Config, opts ...Option) (*Ingestor, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", google.ErrConfiguration, err)
	}

	i := &Ingestor{
		cfg:     cfg,
		logger:  slog.Default(),
		metrics: &instrumentation.Metrics{},
	}
	for _, opt := range opts {
		opt(i)
	}

	if i.transformer == nil {
		i.transformer = transform.New(transform.WithLogger(i.logger))
	}

	if i.lister != nil && i.fetcher != nil && i.extractor != nil {
		return i, nil
	}

	if i.creds == nil {
		creds, err := google.ResolveCredentials(ctx, cfg.ServiceAccountKey)
		if err != nil {
			return nil, err
		}
		i.creds = creds
	}
	if email := google.ClientEmail(i.creds); email != "" {
		i.logger.InfoContext(ctx, "using service account credentials", logging.Principal(email))
	} else {
		i.logger.InfoContext(ctx, "using application default credentials")
	}

	if i.lister == nil || i.fetcher == nil {
		driveClient, err := drive.NewClient(ctx, i.creds,
			drive.WithChunkSize(cfg.ChunkSize()),
			drive.WithLogger(i.logger),
			drive.WithMetrics(i.metrics),
			drive.WithClientOptions(i.driveOpts...))
		if err != nil {
			return nil, err
		}
		if i.lister == nil {
			i.lister = driveClient
		}
		if i.fetcher == nil {
			i.fetcher = driveClient
		}
	}

	if i.extractor == nil {
		docsClient, err := docs.NewClient(ctx, i.creds,
			docs.WithLogger(i.logger),
			docs.WithMetrics(i.metrics),
			docs.WithClientOptions(i.docsOpts...))
		if err != nil {
			return nil, err
		}
		i.extractor = docsClient
	}

	return i, nil
}

// IngestFolder is a convenience wrapper that builds an Ingestor from cfg and
// ingests folderID.
func IngestFolder(ctx context.Context, folderID string, cfg config.Config, opts ...Option) ([]document.Document, error) {
	i, err := New(ctx, cfg, opts...)
	if err != nil {
		return nil, err
	}
	return i.IngestFolder(ctx, folderID)
}

// Config returns the configuration the Ingestor was built with.
func (i *Ingestor) Config() config.Config {
	return i.cfg
}

// IngestFolder returns the documents for every eligible entry under folderID,
// in listing order.
func (i *Ingestor) IngestFolder(ctx context.Context, folderID string) ([]document.Document, error) {
	out, _, err := i.Run(ctx, folderID)
	return out, err
}

// Run is IngestFolder that also reports a Summary of the run.
func (i *Ingestor) Run(ctx context.Context, folderID string) ([]document.Document, Summary, error) {
	start := time.Now()
	summary := Summary{RunID: uuid.NewString(), FolderID: folderID}
	logger := logging.WithRun(logging.WithOperation(i.logger, "ingest_folder"), summary.RunID)

	ctx, span := instrumentation.StartIngestSpan(ctx, summary.RunID, folderID, i.cfg.Recursive)
	defer span.End()

	out, err := i.run(ctx, logger, folderID, &summary)
	summary.Duration = time.Since(start)

	status := instrumentation.StatusSuccess
	if err != nil {
		status = instrumentation.StatusError
		instrumentation.SetSpanError(span, err)
		logger.ErrorContext(ctx, "folder ingestion failed",
			logging.FolderID(folderID),
			logging.Duration(summary.Duration),
			logging.Err(err))
	} else {
		instrumentation.SetSpanSuccess(span)
		logger.InfoContext(ctx, "folder ingestion finished",
			logging.FolderID(folderID),
			slog.Int("listed", summary.Listed),
			slog.Int("documents", summary.Documents),
			slog.Int("skipped_trashed", summary.SkippedTrashed),
			slog.Int("skipped_unsupported", summary.SkippedUnsupported),
			slog.Int("failed_downloads", summary.FailedDownloads),
			logging.Duration(summary.Duration))
	}
	i.metrics.RecordRun(ctx, status, summary.Duration)

	if err != nil {
		return nil, summary, err
	}
	return out, summary, nil
}

func (i *Ingestor) run(ctx context.Context, logger *slog.Logger, folderID string, summary *Summary) ([]document.Document, error) {
	entries, err := i.lister.ListFiles(ctx, folderID, i.cfg.Recursive)
	if err != nil {
		return nil, fmt.Errorf("failed to list folder %s: %w", folderID, err)
	}
	summary.Listed = len(entries)

	out := make([]document.Document, 0, len(entries))
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		entryLogger := logger.With(logging.FileID(entry.ID), logging.FileName(entry.Name), logging.MimeType(entry.MimeType))

		switch {
		case entry.Trashed && !i.cfg.LoadTrashedFiles:
			entryLogger.DebugContext(ctx, "skipping trashed file")
			summary.SkippedTrashed++
			i.metrics.RecordSkippedEntry(ctx, instrumentation.SkipReasonTrashed)

		case entry.IsGoogleDoc():
			text, err := i.extractor.ExtractText(ctx, entry.ID)
			if err != nil {
				return nil, fmt.Errorf("failed to read Google Doc %q: %w", entry.Name, err)
			}
			out = append(out, document.New(text, map[string]any{document.MetaDocumentID: entry.ID}))
			i.metrics.RecordDocuments(ctx, instrumentation.DocumentKindGoogleDoc, 1)

		case entry.IsGoogleNative():
			entryLogger.DebugContext(ctx, "Google Drive file type is not supported")
			summary.SkippedUnsupported++
			i.metrics.RecordSkippedEntry(ctx, instrumentation.SkipReasonUnsupported)

		default:
			fileDocs, ok, err := i.ingestFile(ctx, entryLogger, entry)
			if err != nil {
				return nil, err
			}
			if !ok {
				summary.FailedDownloads++
				i.metrics.RecordSkippedEntry(ctx, instrumentation.SkipReasonDownload)
				continue
			}
			out = append(out, fileDocs...)
			i.metrics.RecordDocuments(ctx, instrumentation.DocumentKindFile, len(fileDocs))
		}
	}

	summary.Documents = len(out)
	return out, nil
}

// ingestFile downloads entry, stages it in a temp file and transforms it.
// ok is false when the download failed and the entry should be skipped.
func (i *Ingestor) ingestFile(ctx context.Context, logger *slog.Logger, entry *drive.Entry) (fileDocs []document.Document, ok bool, err error) {
	data, ok := i.fetcher.FetchContent(ctx, entry.ID)
	if !ok {
		logger.WarnContext(ctx, "skipping file after failed download")
		return nil, false, nil
	}

	tmp, err := os.CreateTemp(i.cfg.TempDir, "driveingest-*")
	if err != nil {
		return nil, true, fmt.Errorf("failed to create temp file for %q: %w", entry.Name, err)
	}
	defer func() {
		if err := os.Remove(tmp.Name()); err != nil && !errors.Is(err, fs.ErrNotExist) {
			logger.WarnContext(ctx, "failed to remove temp file", slog.String("path", tmp.Name()), logging.Err(err))
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return nil, true, fmt.Errorf("failed to stage %q: %w", entry.Name, err)
	}
	if err := tmp.Close(); err != nil {
		return nil, true, fmt.Errorf("failed to stage %q: %w", entry.Name, err)
	}

	fileDocs, err = i.transformer.Transform(ctx, entry.Name, tmp.Name())
	if err != nil {
		return nil, true, fmt.Errorf("failed to transform %q: %w", entry.Name, err)
	}

	for idx := range fileDocs {
		meta := fileDocs[idx].Metadata
		if meta == nil {
			meta = make(map[string]any)
			fileDocs[idx].Metadata = meta
		}
		if _, exists := meta[document.MetaDriveFileID]; !exists {
			meta[document.MetaDriveFileID] = entry.ID
		}
		if _, exists := meta[document.MetaMimeType]; !exists {
			meta[document.MetaMimeType] = entry.MimeType
		}
	}

	logger.DebugContext(ctx, "transformed file", slog.Int("documents", len(fileDocs)))
	return fileDocs, true, nil
}
