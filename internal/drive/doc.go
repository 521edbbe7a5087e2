// Package drive lists folder contents and downloads file media from Google Drive.
//
// The Client walks a folder tree through files.list (shared drives included),
// optionally descending into subfolders, and downloads binary content through
// files.get?alt=media in ranged chunks. Listing failures are returned wrapped in
// ErrRemoteList. Download failures are logged and reported as a missing result
// instead of an error, so one unreadable file never aborts a folder ingestion.
//
// Example usage:
//
//	client, err := drive.NewClient(ctx, creds, drive.WithLogger(logger))
//	if err != nil {
//	    return err
//	}
//
//	entries, err := client.ListFiles(ctx, folderID, true)
//	if err != nil {
//	    return err
//	}
//	for _, e := range entries {
//	    data, ok := client.FetchContent(ctx, e.ID)
//	    ...
//	}
package drive
