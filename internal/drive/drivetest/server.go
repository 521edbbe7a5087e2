// Package drivetest provides an in-process fake of the Drive v3 files API
// for tests that exercise listing and media download.
package drivetest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	drive "google.golang.org/api/drive/v3"
	"google.golang.org/api/option"
)

const folderMimeType = "application/vnd.google-apps.folder"

var parentsQuery = regexp.MustCompile(`^'((?:[^'\\]|\\.)*)' in parents$`)

// Server is a fake Drive API backed by an in-memory file tree.
type Server struct {
	*httptest.Server

	// PageSize is the number of files returned per files.list page.
	PageSize int

	// IgnoreRange makes media downloads answer 200 with the full body.
	IgnoreRange bool

	// OmitContentRange drops the Content-Range header from ranged media
	// responses, so clients only see the 206 status.
	OmitContentRange bool

	mu           sync.Mutex
	order        []string
	files        map[string]*drive.File
	content      map[string][]byte
	failList     map[string]int
	failDownload map[string]int
	listCalls    map[string]int
	mediaCalls   map[string]int
	ranges       map[string][]string
}

// NewServer starts a fake Drive server that is closed when the test ends.
func NewServer(t testing.TB) *Server {
	t.Helper()

	s := &Server{
		PageSize:     100,
		files:        make(map[string]*drive.File),
		content:      make(map[string][]byte),
		failList:     make(map[string]int),
		failDownload: make(map[string]int),
		listCalls:    make(map[string]int),
		mediaCalls:   make(map[string]int),
		ranges:       make(map[string][]string),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/files", s.handleList)
	mux.HandleFunc("/files/", s.handleGet)
	s.Server = httptest.NewServer(mux)
	t.Cleanup(s.Close)

	return s
}

// ClientOptions returns options that point a Drive client at the fake.
func (s *Server) ClientOptions() []option.ClientOption {
	return []option.ClientOption{
		option.WithEndpoint(s.URL + "/"),
		option.WithHTTPClient(s.Client()),
	}
}

// Service returns a Drive service talking to the fake.
func (s *Server) Service(t testing.TB) *drive.Service {
	t.Helper()

	svc, err := drive.NewService(context.Background(), s.ClientOptions()...)
	if err != nil {
		t.Fatalf("failed to create Drive service: %v", err)
	}
	return svc
}

// AddFolder adds a folder under the given parents.
func (s *Server) AddFolder(id, name string, parents ...string) {
	s.add(&drive.File{Id: id, Name: name, MimeType: folderMimeType, Parents: parents}, nil)
}

// AddFile adds a file with media content under the given parents.
func (s *Server) AddFile(id, name, mimeType string, content []byte, parents ...string) {
	s.add(&drive.File{Id: id, Name: name, MimeType: mimeType, Parents: parents}, content)
}

// Trash marks the file as trashed.
func (s *Server) Trash(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if f, ok := s.files[id]; ok {
		f.Trashed = true
	}
}

// FailList makes files.list for folderID answer with status.
func (s *Server) FailList(folderID string, status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failList[folderID] = status
}

// FailDownload makes media downloads of fileID answer with status.
func (s *Server) FailDownload(fileID string, status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failDownload[fileID] = status
}

// ListCalls returns how many files.list requests were made for folderID.
func (s *Server) ListCalls(folderID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.listCalls[folderID]
}

// MediaCalls returns how many media requests were made for fileID.
func (s *Server) MediaCalls(fileID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mediaCalls[fileID]
}

// Ranges returns the Range headers received for fileID in request order.
func (s *Server) Ranges(fileID string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.ranges[fileID])
}

func (s *Server) add(f *drive.File, content []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.files[f.Id]; !exists {
		s.order = append(s.order, f.Id)
	}
	s.files[f.Id] = f
	if content != nil {
		s.content[f.Id] = content
	}
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	m := parentsQuery.FindStringSubmatch(r.URL.Query().Get("q"))
	if m == nil {
		writeError(w, http.StatusBadRequest, "unsupported query")
		return
	}
	folderID := unescape(m[1])

	s.mu.Lock()
	defer s.mu.Unlock()

	s.listCalls[folderID]++
	if status, ok := s.failList[folderID]; ok {
		writeError(w, status, "list failed")
		return
	}

	var children []*drive.File
	for _, id := range s.order {
		f := s.files[id]
		if slices.Contains(f.Parents, folderID) {
			children = append(children, f)
		}
	}

	offset := 0
	if tok := r.URL.Query().Get("pageToken"); tok != "" {
		n, err := strconv.Atoi(tok)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid page token")
			return
		}
		offset = n
	}

	end := min(offset+s.PageSize, len(children))
	resp := &drive.FileList{Files: children[offset:end]}
	if end < len(children) {
		resp.NextPageToken = strconv.Itoa(end)
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/files/")

	s.mu.Lock()
	f, found := s.files[id]
	content := s.content[id]
	failStatus, failing := s.failDownload[id]
	if r.URL.Query().Get("alt") == "media" {
		s.mediaCalls[id]++
		s.ranges[id] = append(s.ranges[id], r.Header.Get("Range"))
	}
	s.mu.Unlock()

	if !found {
		writeError(w, http.StatusNotFound, fmt.Sprintf("File not found: %s.", id))
		return
	}

	if r.URL.Query().Get("alt") != "media" {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(f)
		return
	}

	if failing {
		writeError(w, failStatus, "download failed")
		return
	}

	if s.IgnoreRange {
		w.Header().Set("Content-Type", "application/octet-stream")
		_, _ = w.Write(content)
		return
	}
	w.Header().Set("Content-Type", "application/octet-stream")
	if s.OmitContentRange {
		w = noContentRange{w}
	}
	http.ServeContent(w, r, f.Name, time.Time{}, bytes.NewReader(content))
}

type noContentRange struct {
	http.ResponseWriter
}

func (w noContentRange) WriteHeader(status int) {
	w.Header().Del("Content-Range")
	w.ResponseWriter.WriteHeader(status)
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"error": map[string]any{
			"code":    status,
			"message": message,
		},
	})
}

func unescape(v string) string {
	var b strings.Builder
	escaped := false
	for _, r := range v {
		if !escaped && r == '\\' {
			escaped = true
			continue
		}
		escaped = false
		b.WriteRune(r)
	}
	return b.String()
}
