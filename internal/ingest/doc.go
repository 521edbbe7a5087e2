// Package ingest converts the contents of a Google Drive folder into documents.
//
// An Ingestor lists the folder (optionally recursively), then handles each
// entry in listing order:
//
//   - trashed entries are skipped unless trashed files are enabled
//   - Google Docs are fetched through the Docs API and flattened to text
//   - other Google-native formats (Sheets, Slides, ...) are skipped
//   - everything else is downloaded, staged in a temporary file and handed to
//     a Transformer
//
// Listing, Docs and transformer failures abort the run. A failed binary
// download only skips that entry.
package ingest
