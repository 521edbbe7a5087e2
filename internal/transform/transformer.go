package transform

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"github.com/mholt/archiver/v4"

	"github.com/teemow/driveingest/internal/document"
	"github.com/teemow/driveingest/internal/logging"
)

// DefaultMaxArchiveDepth bounds how many archives may be nested inside each other.
const DefaultMaxArchiveDepth = 3

var textExtensions = map[string]bool{
	".txt":      true,
	".md":       true,
	".markdown": true,
	".csv":      true,
	".tsv":      true,
	".json":     true,
	".xml":      true,
	".yaml":     true,
	".yml":      true,
	".log":      true,
	".rst":      true,
	".ini":      true,
	".toml":     true,
}

var htmlExtensions = map[string]bool{
	".html": true,
	".htm":  true,
}

// elements whose content is never visible text
var hiddenElements = map[string]bool{
	"script":   true,
	"style":    true,
	"noscript": true,
	"template": true,
}

type source interface {
	io.Reader
	io.ReaderAt
	io.Seeker
}

// FileTransformer converts files on disk into documents.
type FileTransformer struct {
	logger          *slog.Logger
	maxArchiveDepth int
}

// Option configures a FileTransformer.
type Option func(*FileTransformer)

// WithLogger sets the logger for skipped files and archive members.
func WithLogger(logger *slog.Logger) Option {
	return func(t *FileTransformer) {
		if logger != nil {
			t.logger = logger
		}
	}
}

// WithMaxArchiveDepth sets how deep nested archives are opened.
// Zero disables archive extraction.
func WithMaxArchiveDepth(depth int) Option {
	return func(t *FileTransformer) {
		if depth >= 0 {
			t.maxArchiveDepth = depth
		}
	}
}

// New creates a FileTransformer.
func New(opts ...Option) *FileTransformer {
	t := &FileTransformer{
		logger:          slog.Default(),
		maxArchiveDepth: DefaultMaxArchiveDepth,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Transform reads the file at filePath and returns its documents. name is the
// original file name and selects the reader; filePath is usually a temp file.
func (t *FileTransformer) Transform(ctx context.Context, name, filePath string) ([]document.Document, error) {
	f, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", name, err)
	}
	defer f.Close()

	return t.transform(ctx, name, f, 0)
}

func (t *FileTransformer) transform(ctx context.Context, name string, src source, depth int) ([]document.Document, error) {
	ext := strings.ToLower(path.Ext(name))

	switch {
	case textExtensions[ext]:
		data, err := io.ReadAll(src)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", name, err)
		}
		return []document.Document{newDocument(name, string(data))}, nil

	case htmlExtensions[ext]:
		text, err := htmlText(src)
		if err != nil {
			return nil, fmt.Errorf("failed to parse HTML %s: %w", name, err)
		}
		return []document.Document{newDocument(name, text)}, nil
	}

	if depth < t.maxArchiveDepth {
		docs, handled, err := t.extract(ctx, name, src, depth)
		if handled || err != nil {
			return docs, err
		}
	}

	if _, err := src.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("failed to rewind %s: %w", name, err)
	}
	data, err := io.ReadAll(src)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", name, err)
	}
	if len(bytes.TrimSpace(data)) == 0 || !utf8.Valid(data) {
		t.logger.DebugContext(ctx, "no text content, skipping file", logging.FileName(name))
		return nil, nil
	}
	return []document.Document{newDocument(name, string(data))}, nil
}

// extract opens src as an archive or compressed stream. handled is false when
// src is neither.
func (t *FileTransformer) extract(ctx context.Context, name string, src source, depth int) ([]document.Document, bool, error) {
	format, stream, err := archiver.Identify(path.Base(name), src)
	if errors.Is(err, archiver.ErrNoMatch) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to identify %s: %w", name, err)
	}

	switch f := format.(type) {
	case archiver.Extractor:
		var docs []document.Document
		handler := func(ctx context.Context, file archiver.File) error {
			if file.IsDir() {
				return nil
			}
			memberName := name + "/" + strings.TrimPrefix(file.NameInArchive, "/")

			rc, err := file.Open()
			if err != nil {
				return fmt.Errorf("failed to open %s: %w", memberName, err)
			}
			data, err := io.ReadAll(rc)
			_ = rc.Close()
			if err != nil {
				return fmt.Errorf("failed to read %s: %w", memberName, err)
			}

			memberDocs, err := t.transform(ctx, memberName, bytes.NewReader(data), depth+1)
			if err != nil {
				return err
			}
			docs = append(docs, memberDocs...)
			return nil
		}
		if err := f.Extract(ctx, stream, nil, handler); err != nil {
			return nil, true, fmt.Errorf("failed to extract %s: %w", name, err)
		}
		t.logger.DebugContext(ctx, "extracted archive",
			logging.FileName(name),
			slog.Int("documents", len(docs)))
		return docs, true, nil

	case archiver.Decompressor:
		rc, err := f.OpenReader(stream)
		if err != nil {
			return nil, true, fmt.Errorf("failed to decompress %s: %w", name, err)
		}
		data, err := io.ReadAll(rc)
		_ = rc.Close()
		if err != nil {
			return nil, true, fmt.Errorf("failed to decompress %s: %w", name, err)
		}
		inner := strings.TrimSuffix(name, path.Ext(name))
		docs, err := t.transform(ctx, inner, bytes.NewReader(data), depth+1)
		return docs, true, err
	}

	return nil, false, nil
}

func newDocument(name, text string) document.Document {
	return document.New(text, map[string]any{document.MetaFileName: name})
}

// htmlText returns the visible text of an HTML document with runs of
// whitespace collapsed to single spaces.
func htmlText(r io.Reader) (string, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return "", err
	}

	var parts []string
	collectText(doc.Selection, &parts)
	return strings.Join(strings.Fields(strings.Join(parts, " ")), " "), nil
}

func collectText(s *goquery.Selection, parts *[]string) {
	s.Contents().Each(func(_ int, child *goquery.Selection) {
		name := goquery.NodeName(child)
		switch {
		case name == "#text":
			*parts = append(*parts, child.Text())
		case hiddenElements[name]:
		default:
			collectText(child, parts)
		}
	})
}
