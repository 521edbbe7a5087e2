package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"
	"unicode/utf8"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/teemow/driveingest/internal/config"
	"github.com/teemow/driveingest/internal/document"
	"github.com/teemow/driveingest/internal/ingest"
	"github.com/teemow/driveingest/internal/instrumentation"
	"github.com/teemow/driveingest/internal/logging"
)

// Output formats of the ingest command.
const (
	OutputJSONL = "jsonl"
	OutputJSON  = "json"
	OutputTable = "table"
)

const previewRunes = 60

// ingestFlags holds the raw flag values of the ingest command.
type ingestFlags struct {
	serviceAccountKey string
	recursive         bool
	loadTrashed       bool
	tempDir           string
	chunkSize         int64
	output            string
	logFormat         string
	debug             bool
}

func newIngestCmd() *cobra.Command {
	var flags ingestFlags

	cmd := &cobra.Command{
		Use:   "ingest <folder-id>",
		Short: "Ingest a Google Drive folder and print the documents",
		Long: `Ingest every eligible file of a Google Drive folder.

Google Docs are read through the Docs API. Other files are downloaded in
ranged chunks, staged in a temporary file and converted by extension.
Google-native formats other than Docs are skipped, as are trashed files
unless --load-trashed is set.

Credentials:
  --service-account-key or GDRIVE_SERVICE_ACCOUNT_KEY selects a service
  account key file. Without one, Application Default Credentials are used.

Every flag falls back to its GDRIVE_* environment variable when not set.
Documents are written to stdout; logs go to stderr.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := flags.apply(cmd, config.DefaultConfig())

			ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			return runIngest(ctx, args[0], cfg, flags, cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}

	addConfigFlags(cmd, &flags)
	cmd.Flags().StringVarP(&flags.output, "output", "o", OutputJSONL, "Output format: jsonl, json or table")

	return cmd
}

// addConfigFlags registers the ingestion and logging flags shared by ingest and serve.
func addConfigFlags(cmd *cobra.Command, flags *ingestFlags) {
	cmd.Flags().StringVar(&flags.serviceAccountKey, "service-account-key", "", "Path to a service account key file. Can also use "+config.EnvServiceAccountKey+" env var.")
	cmd.Flags().BoolVarP(&flags.recursive, "recursive", "r", false, "Descend into subfolders. Can also use "+config.EnvRecursive+" env var.")
	cmd.Flags().BoolVar(&flags.loadTrashed, "load-trashed", false, "Include trashed files. Can also use "+config.EnvLoadTrashedFiles+" env var.")
	cmd.Flags().StringVar(&flags.tempDir, "temp-dir", "", "Directory for staging downloads (default: OS temp dir). Can also use "+config.EnvTempDir+" env var.")
	cmd.Flags().Int64Var(&flags.chunkSize, "chunk-size", config.DefaultDownloadChunkSize, "Bytes per ranged download request. Can also use "+config.EnvDownloadChunkSize+" env var.")
	cmd.Flags().StringVar(&flags.logFormat, "log-format", logging.FormatText, "Log format: text or json")
	cmd.Flags().BoolVar(&flags.debug, "debug", false, "Enable debug logging")
}

// apply overlays the flags the user set explicitly on cfg.
func (f ingestFlags) apply(cmd *cobra.Command, cfg config.Config) config.Config {
	changed := cmd.Flags().Changed
	if changed("service-account-key") {
		cfg.ServiceAccountKey = f.serviceAccountKey
	}
	if changed("recursive") {
		cfg.Recursive = f.recursive
	}
	if changed("load-trashed") {
		cfg.LoadTrashedFiles = f.loadTrashed
	}
	if changed("temp-dir") {
		cfg.TempDir = f.tempDir
	}
	if changed("chunk-size") {
		cfg.DownloadChunkSize = f.chunkSize
	}
	return cfg
}

func runIngest(ctx context.Context, folderID string, cfg config.Config, flags ingestFlags, stdout, stderr io.Writer, opts ...ingest.Option) error {
	switch flags.output {
	case OutputJSONL, OutputJSON, OutputTable:
	default:
		return fmt.Errorf("unsupported output format %q (supported: jsonl, json, table)", flags.output)
	}

	logger := logging.NewLogger(stderr, flags.logFormat, flags.debug)

	instrConfig := instrumentation.DefaultConfig()
	instrConfig.ServiceVersion = version
	instrConfig.Component = instrumentation.ComponentCLI
	provider, err := instrumentation.NewProvider(ctx, instrConfig)
	if err != nil {
		return fmt.Errorf("failed to create instrumentation provider: %w", err)
	}
	defer func() {
		if err := provider.Shutdown(context.WithoutCancel(ctx)); err != nil {
			logger.Warn("instrumentation shutdown failed", logging.Err(err))
		}
	}()

	opts = append([]ingest.Option{
		ingest.WithLogger(logger),
		ingest.WithMetrics(provider.Metrics()),
	}, opts...)

	ingestor, err := ingest.New(ctx, cfg, opts...)
	if err != nil {
		return err
	}

	docs, summary, err := ingestor.Run(ctx, folderID)
	if err != nil {
		return err
	}

	return writeDocuments(stdout, flags.output, docs, summary)
}

func writeDocuments(w io.Writer, format string, docs []document.Document, summary ingest.Summary) error {
	switch format {
	case OutputJSON:
		if docs == nil {
			docs = []document.Document{}
		}
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(struct {
			Summary   ingest.Summary      `json:"summary"`
			Documents []document.Document `json:"documents"`
		}{summary, docs})

	case OutputTable:
		return writeTable(w, docs, summary)

	default:
		enc := json.NewEncoder(w)
		for _, doc := range docs {
			if err := enc.Encode(doc); err != nil {
				return err
			}
		}
		return nil
	}
}

func writeTable(w io.Writer, docs []document.Document, summary ingest.Summary) error {
	if len(docs) > 0 {
		table := tablewriter.NewWriter(w)
		table.SetHeader([]string{"Source", "Name", "Mime Type", "Chars", "Preview"})
		table.SetBorder(false)
		table.SetAutoWrapText(false)
		table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
		table.SetAlignment(tablewriter.ALIGN_LEFT)
		table.SetCenterSeparator("")
		table.SetColumnSeparator("")
		table.SetRowSeparator("")
		table.SetHeaderLine(false)
		table.SetTablePadding("\t")
		table.SetNoWhiteSpace(true)

		for _, doc := range docs {
			source := doc.MetaString(document.MetaDriveFileID)
			if source == "" {
				source = doc.MetaString(document.MetaDocumentID)
			}
			table.Append([]string{
				source,
				doc.MetaString(document.MetaFileName),
				doc.MetaString(document.MetaMimeType),
				strconv.Itoa(utf8.RuneCountInString(doc.Text)),
				preview(doc.Text),
			})
		}
		table.Render()
	}

	_, err := fmt.Fprintf(w, "\n%d documents from %d entries (trashed skipped: %d, unsupported: %d, failed downloads: %d) in %s\n",
		summary.Documents, summary.Listed, summary.SkippedTrashed, summary.SkippedUnsupported, summary.FailedDownloads,
		summary.Duration.Round(time.Millisecond))
	return err
}

// preview returns the first previewRunes runes of text on a single line.
func preview(text string) string {
	text = strings.Join(strings.Fields(text), " ")
	if utf8.RuneCountInString(text) <= previewRunes {
		return text
	}
	return string([]rune(text)[:previewRunes]) + "..."
}
