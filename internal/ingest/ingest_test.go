package ingest

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teemow/driveingest/internal/config"
	"github.com/teemow/driveingest/internal/docs"
	"github.com/teemow/driveingest/internal/document"
	"github.com/teemow/driveingest/internal/drive"
	"github.com/teemow/driveingest/internal/google"
)

type fakeLister struct {
	entries   []*drive.Entry
	err       error
	recursive []bool
}

func (f *fakeLister) ListFiles(_ context.Context, _ string, recursive bool) ([]*drive.Entry, error) {
	f.recursive = append(f.recursive, recursive)
	if f.err != nil {
		return nil, f.err
	}
	return f.entries, nil
}

type fakeFetcher struct {
	content map[string][]byte
	calls   []string
}

func (f *fakeFetcher) FetchContent(_ context.Context, fileID string) ([]byte, bool) {
	f.calls = append(f.calls, fileID)
	data, ok := f.content[fileID]
	return data, ok
}

type fakeExtractor struct {
	texts map[string]string
	err   error
}

func (f *fakeExtractor) ExtractText(_ context.Context, documentID string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return f.texts[documentID], nil
}

// recordingTransformer remembers every staged path and its content.
type recordingTransformer struct {
	paths    []string
	contents []string
	err      error
	metadata map[string]any
}

func (r *recordingTransformer) Transform(_ context.Context, name, path string) ([]document.Document, error) {
	r.paths = append(r.paths, path)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	r.contents = append(r.contents, string(data))
	if r.err != nil {
		return nil, r.err
	}

	meta := map[string]any{document.MetaFileName: name}
	for k, v := range r.metadata {
		meta[k] = v
	}
	return []document.Document{document.New(string(data), meta)}, nil
}

func textFile(id, name string) *drive.Entry {
	return &drive.Entry{ID: id, Name: name, MimeType: "text/plain", Parents: []string{"root"}}
}

func googleDoc(id, name string) *drive.Entry {
	return &drive.Entry{ID: id, Name: name, MimeType: drive.GoogleDocMimeType, Parents: []string{"root"}}
}

func newTestIngestor(t *testing.T, cfg config.Config, lister Lister, fetcher ContentFetcher, extractor TextExtractor, opts ...Option) *Ingestor {
	t.Helper()

	all := append([]Option{
		WithLister(lister),
		WithContentFetcher(fetcher),
		WithTextExtractor(extractor),
		WithLogger(slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))),
	}, opts...)

	i, err := New(context.Background(), cfg, all...)
	require.NoError(t, err)
	return i
}

func TestIngestFolder_DocAndFile(t *testing.T) {
	lister := &fakeLister{entries: []*drive.Entry{googleDoc("d1", "Design"), textFile("f1", "notes.txt")}}
	fetcher := &fakeFetcher{content: map[string][]byte{"f1": []byte("hello")}}
	extractor := &fakeExtractor{texts: map[string]string{"d1": "ABC"}}

	i := newTestIngestor(t, config.Config{}, lister, fetcher, extractor)

	got, err := i.IngestFolder(context.Background(), "root")
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, "ABC", got[0].Text)
	assert.Equal(t, map[string]any{document.MetaDocumentID: "d1"}, got[0].Metadata)

	assert.Equal(t, "hello", got[1].Text)
	assert.Equal(t, "notes.txt", got[1].MetaString(document.MetaFileName))
	assert.Equal(t, "f1", got[1].MetaString(document.MetaDriveFileID))
	assert.Equal(t, "text/plain", got[1].MetaString(document.MetaMimeType))

	assert.Equal(t, []string{"f1"}, fetcher.calls, "Google Docs are never downloaded")
	assert.NotEqual(t, got[0].ID, got[1].ID)
}

func TestIngestFolder_TrashedPolicy(t *testing.T) {
	trashed := textFile("f2", "old.txt")
	trashed.Trashed = true
	trashedDoc := googleDoc("d2", "Old design")
	trashedDoc.Trashed = true

	tests := []struct {
		name        string
		loadTrashed bool
		wantTexts   []string
	}{
		{name: "trashed skipped by default", loadTrashed: false, wantTexts: []string{"live"}},
		{name: "trashed included when enabled", loadTrashed: true, wantTexts: []string{"live", "old", "old doc"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lister := &fakeLister{entries: []*drive.Entry{textFile("f1", "live.txt"), trashed, trashedDoc}}
			fetcher := &fakeFetcher{content: map[string][]byte{"f1": []byte("live"), "f2": []byte("old")}}
			extractor := &fakeExtractor{texts: map[string]string{"d2": "old doc"}}

			i := newTestIngestor(t, config.Config{LoadTrashedFiles: tt.loadTrashed}, lister, fetcher, extractor)

			got, summary, err := i.Run(context.Background(), "root")
			require.NoError(t, err)

			var texts []string
			for _, d := range got {
				texts = append(texts, d.Text)
			}
			assert.Equal(t, tt.wantTexts, texts)
			if !tt.loadTrashed {
				assert.Equal(t, 2, summary.SkippedTrashed)
				assert.Equal(t, []string{"f1"}, fetcher.calls)
			}
		})
	}
}

func TestIngestFolder_UnsupportedGoogleFormatsSkipped(t *testing.T) {
	lister := &fakeLister{entries: []*drive.Entry{
		{ID: "s1", Name: "Budget", MimeType: "application/vnd.google-apps.spreadsheet"},
		{ID: "p1", Name: "Deck", MimeType: "application/vnd.google-apps.presentation"},
		textFile("f1", "notes.txt"),
	}}
	fetcher := &fakeFetcher{content: map[string][]byte{"f1": []byte("hello")}}

	i := newTestIngestor(t, config.Config{}, lister, fetcher, &fakeExtractor{})

	got, summary, err := i.Run(context.Background(), "root")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "hello", got[0].Text)
	assert.Equal(t, []string{"f1"}, fetcher.calls)
	assert.Equal(t, 2, summary.SkippedUnsupported)
	assert.Equal(t, 3, summary.Listed)
	assert.Equal(t, 1, summary.Documents)
}

func TestIngestFolder_FailedDownloadContinues(t *testing.T) {
	lister := &fakeLister{entries: []*drive.Entry{
		textFile("broken", "broken.txt"),
		textFile("f2", "second.txt"),
	}}
	fetcher := &fakeFetcher{content: map[string][]byte{"f2": []byte("second")}}
	transformer := &recordingTransformer{}

	i := newTestIngestor(t, config.Config{}, lister, fetcher, &fakeExtractor{}, WithTransformer(transformer))

	got, summary, err := i.Run(context.Background(), "root")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "second", got[0].Text)
	assert.Equal(t, []string{"broken", "f2"}, fetcher.calls)
	assert.Equal(t, 1, summary.FailedDownloads)
	assert.Len(t, transformer.paths, 1, "no temp file is staged for a failed download")
}

func TestIngestFolder_TempFileRemoved(t *testing.T) {
	transformErr := errors.New("corrupt file")

	tests := []struct {
		name    string
		err     error
		wantErr bool
	}{
		{name: "after success"},
		{name: "after transformer error", err: transformErr, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tempDir := t.TempDir()
			lister := &fakeLister{entries: []*drive.Entry{textFile("f1", "notes.txt"), textFile("f2", "later.txt")}}
			fetcher := &fakeFetcher{content: map[string][]byte{"f1": []byte("hello"), "f2": []byte("later")}}
			transformer := &recordingTransformer{err: tt.err}

			i := newTestIngestor(t, config.Config{TempDir: tempDir}, lister, fetcher, &fakeExtractor{},
				WithTransformer(transformer))

			got, err := i.IngestFolder(context.Background(), "root")
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, transformErr)
				assert.Contains(t, err.Error(), "notes.txt")
				assert.Nil(t, got)
				assert.Equal(t, []string{"f1"}, fetcher.calls, "transformer errors abort the run")
			} else {
				require.NoError(t, err)
				assert.Len(t, got, 2)
			}

			require.NotEmpty(t, transformer.paths)
			assert.Equal(t, "hello", transformer.contents[0])
			for _, p := range transformer.paths {
				assert.Equal(t, tempDir, filepath.Dir(p))
				_, statErr := os.Stat(p)
				assert.True(t, os.IsNotExist(statErr), "temp file %s must be removed", p)
			}

			leftovers, err := os.ReadDir(tempDir)
			require.NoError(t, err)
			assert.Empty(t, leftovers)
		})
	}
}

func TestIngestFolder_TransformerMetadataWins(t *testing.T) {
	lister := &fakeLister{entries: []*drive.Entry{textFile("f1", "notes.txt")}}
	fetcher := &fakeFetcher{content: map[string][]byte{"f1": []byte("hello")}}
	transformer := &recordingTransformer{metadata: map[string]any{document.MetaMimeType: "text/markdown"}}

	i := newTestIngestor(t, config.Config{}, lister, fetcher, &fakeExtractor{}, WithTransformer(transformer))

	got, err := i.IngestFolder(context.Background(), "root")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "text/markdown", got[0].MetaString(document.MetaMimeType))
	assert.Equal(t, "f1", got[0].MetaString(document.MetaDriveFileID))
}

func TestIngestFolder_EmptyFile(t *testing.T) {
	lister := &fakeLister{entries: []*drive.Entry{textFile("f1", "empty.txt")}}
	fetcher := &fakeFetcher{content: map[string][]byte{"f1": {}}}
	transformer := &recordingTransformer{}

	i := newTestIngestor(t, config.Config{}, lister, fetcher, &fakeExtractor{}, WithTransformer(transformer))

	got, err := i.IngestFolder(context.Background(), "root")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "", got[0].Text)
}

func TestIngestFolder_RecursiveForwarded(t *testing.T) {
	for _, recursive := range []bool{false, true} {
		t.Run(fmt.Sprintf("recursive=%v", recursive), func(t *testing.T) {
			lister := &fakeLister{}
			i := newTestIngestor(t, config.Config{Recursive: recursive}, lister, &fakeFetcher{}, &fakeExtractor{})

			got, err := i.IngestFolder(context.Background(), "root")
			require.NoError(t, err)
			assert.Empty(t, got)
			assert.Equal(t, []bool{recursive}, lister.recursive)
		})
	}
}

func TestIngestFolder_ErrorsPropagate(t *testing.T) {
	listErr := fmt.Errorf("%w: quota exceeded", drive.ErrRemoteList)
	fetchErr := fmt.Errorf("%w: not found", docs.ErrRemoteFetch)

	tests := []struct {
		name      string
		lister    *fakeLister
		extractor *fakeExtractor
		want      error
	}{
		{
			name:      "listing failure",
			lister:    &fakeLister{err: listErr},
			extractor: &fakeExtractor{},
			want:      drive.ErrRemoteList,
		},
		{
			name:      "document fetch failure",
			lister:    &fakeLister{entries: []*drive.Entry{googleDoc("d1", "Design")}},
			extractor: &fakeExtractor{err: fetchErr},
			want:      docs.ErrRemoteFetch,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			i := newTestIngestor(t, config.Config{}, tt.lister, &fakeFetcher{}, tt.extractor)

			got, summary, err := i.Run(context.Background(), "root")
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.want)
			assert.Nil(t, got)
			assert.Equal(t, "root", summary.FolderID)
			assert.NotEmpty(t, summary.RunID)
		})
	}
}

func TestIngestFolder_ContextCanceled(t *testing.T) {
	lister := &fakeLister{entries: []*drive.Entry{textFile("f1", "notes.txt")}}
	fetcher := &fakeFetcher{content: map[string][]byte{"f1": []byte("hello")}}
	i := newTestIngestor(t, config.Config{}, lister, fetcher, &fakeExtractor{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := i.IngestFolder(ctx, "root")
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, fetcher.calls)
}

func TestNew_InvalidConfig(t *testing.T) {
	_, err := New(context.Background(), config.Config{DownloadChunkSize: -1},
		WithLister(&fakeLister{}), WithContentFetcher(&fakeFetcher{}), WithTextExtractor(&fakeExtractor{}))
	require.Error(t, err)
	assert.ErrorIs(t, err, google.ErrConfiguration)
}

func TestNew_MissingCredentials(t *testing.T) {
	t.Setenv("GOOGLE_APPLICATION_CREDENTIALS", filepath.Join(t.TempDir(), "missing.json"))

	_, err := New(context.Background(), config.Config{})
	require.Error(t, err)
	assert.ErrorIs(t, err, google.ErrConfiguration)
}

func TestNew_DefaultTransformer(t *testing.T) {
	i := newTestIngestor(t, config.Config{}, &fakeLister{}, &fakeFetcher{}, &fakeExtractor{})
	assert.NotNil(t, i.transformer)
}
