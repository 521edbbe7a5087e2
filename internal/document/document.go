// Package document defines the unit of output produced by ingestion.
package document

import (
	"github.com/google/uuid"
)

// Metadata keys set during ingestion.
const (
	MetaDocumentID  = "document_id"
	MetaFileName    = "file_name"
	MetaDriveFileID = "drive_file_id"
	MetaMimeType    = "mime_type"
)

// Document is a piece of text plus metadata ready for indexing.
// Documents are not modified after creation; ownership passes to the caller.
type Document struct {
	ID       string         `json:"id"`
	Text     string         `json:"text"`
	Metadata map[string]any `json:"metadata"`
}

// New returns a Document with a freshly generated ID.
// A nil metadata map is replaced by an empty one.
func New(text string, metadata map[string]any) Document {
	if metadata == nil {
		metadata = make(map[string]any)
	}
	return Document{
		ID:       uuid.NewString(),
		Text:     text,
		Metadata: metadata,
	}
}

// MetaString returns the string metadata value for key, or "".
func (d Document) MetaString(key string) string {
	if v, ok := d.Metadata[key].(string); ok {
		return v
	}
	return ""
}
