// Package drive_tools provides the MCP tool that ingests a Google Drive folder.
//
// drive_ingest_folder walks a folder with the server's service account,
// converts every supported entry to documents and returns them together
// with a run summary. The recursive and loadTrashed arguments override the
// server configuration for a single call.
package drive_tools
