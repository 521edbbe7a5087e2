package drive

import (
	"strings"

	drive "google.golang.org/api/drive/v3"
)

const (
	// FolderMimeType is the MIME type for Google Drive folders
	FolderMimeType = "application/vnd.google-apps.folder"

	// GoogleDocMimeType is the MIME type for native Google Docs
	GoogleDocMimeType = "application/vnd.google-apps.document"

	// googleAppsMarker appears in the MIME type of every Google-native format
	googleAppsMarker = "google-apps"
)

// Entry is a file or folder as reported by files.list.
type Entry struct {
	// ID is the Drive file ID
	ID string `json:"id"`

	// Name is the display name of the file
	Name string `json:"name"`

	// MimeType is the Drive MIME type
	MimeType string `json:"mimeType"`

	// Trashed indicates whether the file is in the trash
	Trashed bool `json:"trashed"`

	// Parents are the IDs of the parent folders
	Parents []string `json:"parents,omitempty"`
}

// IsFolder reports whether the entry is a Drive folder.
func (e *Entry) IsFolder() bool {
	return e.MimeType == FolderMimeType
}

// IsGoogleDoc reports whether the entry is a native Google Doc.
func (e *Entry) IsGoogleDoc() bool {
	return e.MimeType == GoogleDocMimeType
}

// IsGoogleNative reports whether the entry is any Google-native format
// (Docs, Sheets, Slides, Forms, ...). Native formats have no downloadable media.
func (e *Entry) IsGoogleNative() bool {
	return strings.Contains(e.MimeType, googleAppsMarker)
}

func toEntry(f *drive.File) *Entry {
	return &Entry{
		ID:       f.Id,
		Name:     f.Name,
		MimeType: f.MimeType,
		Trashed:  f.Trashed,
		Parents:  f.Parents,
	}
}
