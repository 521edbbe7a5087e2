package google

import (
	docs "google.golang.org/api/docs/v1"
	drive "google.golang.org/api/drive/v3"
)

// ReadOnlyScopes are the OAuth scopes requested for ingestion.
//
// The scopes provide access to:
//   - Google Drive: read-only (listing and media download)
//   - Google Docs: read-only (structured document content)
func ReadOnlyScopes() []string {
	return []string{
		drive.DriveReadonlyScope,
		docs.DocumentsReadonlyScope,
	}
}
