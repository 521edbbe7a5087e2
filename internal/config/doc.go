// Package config holds the caller-supplied settings for a Drive ingestion run.
//
// Values are read from environment variables by DefaultConfig and may be
// overridden by command-line flags before Validate is called:
//
//	GDRIVE_SERVICE_ACCOUNT_KEY   path to a service account JSON key (optional)
//	GDRIVE_RECURSIVE             descend into sub-folders (default: false)
//	GDRIVE_LOAD_TRASHED_FILES    ingest entries that are in the trash (default: false)
//	GDRIVE_TEMP_DIR              directory for temporary download files (default: OS temp dir)
//	GDRIVE_DOWNLOAD_CHUNK_SIZE   bytes requested per media download chunk (default: 100 MiB)
package config
