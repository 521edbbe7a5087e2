// Package docstest provides an in-process fake of the Docs v1 documents API.
package docstest

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	docs "google.golang.org/api/docs/v1"
	"google.golang.org/api/option"
)

// Server serves documents.get from an in-memory document set.
type Server struct {
	*httptest.Server

	mu    sync.Mutex
	docs  map[string]*docs.Document
	fail  map[string]int
	calls map[string]int
}

// NewServer starts a fake Docs server that is closed when the test ends.
func NewServer(t testing.TB) *Server {
	t.Helper()

	s := &Server{
		docs:  make(map[string]*docs.Document),
		fail:  make(map[string]int),
		calls: make(map[string]int),
	}
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/documents/", s.handleGet)
	s.Server = httptest.NewServer(mux)
	t.Cleanup(s.Close)

	return s
}

// ClientOptions returns options that point a Docs client at the fake.
func (s *Server) ClientOptions() []option.ClientOption {
	return []option.ClientOption{
		option.WithEndpoint(s.URL + "/"),
		option.WithHTTPClient(s.Client()),
	}
}

// Service returns a Docs service talking to the fake.
func (s *Server) Service(t testing.TB) *docs.Service {
	t.Helper()

	svc, err := docs.NewService(context.Background(), s.ClientOptions()...)
	if err != nil {
		t.Fatalf("failed to create Docs service: %v", err)
	}
	return svc
}

// AddDocument registers a document whose body is content.
func (s *Server) AddDocument(id string, content ...*docs.StructuralElement) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.docs[id] = &docs.Document{DocumentId: id, Body: &docs.Body{Content: content}}
}

// Fail makes documents.get for id answer with status.
func (s *Server) Fail(id string, status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fail[id] = status
}

// Calls returns the number of documents.get requests made for id.
func (s *Server) Calls(id string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[id]
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/v1/documents/")

	s.mu.Lock()
	s.calls[id]++
	doc, found := s.docs[id]
	status, failing := s.fail[id]
	s.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	switch {
	case failing:
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(map[string]any{"error": map[string]any{"code": status, "message": "get failed"}})
	case !found:
		w.WriteHeader(http.StatusNotFound)
		_ = json.NewEncoder(w).Encode(map[string]any{"error": map[string]any{"code": http.StatusNotFound, "message": "Requested entity was not found."}})
	default:
		_ = json.NewEncoder(w).Encode(doc)
	}
}

// Paragraph builds a paragraph element from text runs.
func Paragraph(runs ...string) *docs.StructuralElement {
	elems := make([]*docs.ParagraphElement, 0, len(runs))
	for _, run := range runs {
		elems = append(elems, &docs.ParagraphElement{TextRun: &docs.TextRun{Content: run}})
	}
	return &docs.StructuralElement{Paragraph: &docs.Paragraph{Elements: elems}}
}

// Table builds a table element; each cell holds the given elements.
func Table(rows ...[][]*docs.StructuralElement) *docs.StructuralElement {
	table := &docs.Table{Rows: int64(len(rows))}
	for _, row := range rows {
		tr := &docs.TableRow{}
		for _, cell := range row {
			tr.TableCells = append(tr.TableCells, &docs.TableCell{Content: cell})
		}
		table.TableRows = append(table.TableRows, tr)
	}
	return &docs.StructuralElement{Table: table}
}

// TableOfContents builds a table of contents holding content.
func TableOfContents(content ...*docs.StructuralElement) *docs.StructuralElement {
	return &docs.StructuralElement{TableOfContents: &docs.TableOfContents{Content: content}}
}

// SectionBreak builds an element that carries no text.
func SectionBreak() *docs.StructuralElement {
	return &docs.StructuralElement{SectionBreak: &docs.SectionBreak{}}
}
