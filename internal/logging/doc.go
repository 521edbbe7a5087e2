// Package logging provides structured logging utilities for driveingest.
//
// This package centralizes logging patterns to ensure consistent, structured logging
// throughout the codebase using the standard library's slog package.
//
// # Key Features
//
//   - Structured logging with slog
//   - Consistent attribute naming for Drive entities (folder, file, MIME type)
//   - Service account identities are hashed before they reach log output
//   - A handler factory shared by the CLI commands
//
// # Usage Patterns
//
// Create a logger with standard attributes:
//
//	logger := logging.WithOperation(slog.Default(), "drive.list")
//	logger.Info("listing folder",
//	    logging.FolderID(folderID))
//
// Attach errors safely, even when they may be nil:
//
//	logger.Error("download failed", logging.FileID(id), logging.Err(err))
package logging
