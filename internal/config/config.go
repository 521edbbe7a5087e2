package config

import (
	"fmt"
	"os"
	"strconv"
)

// DefaultDownloadChunkSize is the number of bytes requested per ranged media download.
const DefaultDownloadChunkSize int64 = 100 * 1024 * 1024

// Environment variable names.
const (
	EnvServiceAccountKey = "GDRIVE_SERVICE_ACCOUNT_KEY"
	EnvRecursive         = "GDRIVE_RECURSIVE"
	EnvLoadTrashedFiles  = "GDRIVE_LOAD_TRASHED_FILES"
	EnvTempDir           = "GDRIVE_TEMP_DIR"
	EnvDownloadChunkSize = "GDRIVE_DOWNLOAD_CHUNK_SIZE"
)

// Config holds the settings for a single ingestion run.
type Config struct {
	// ServiceAccountKey is the path to a service account key file.
	// When empty, Application Default Credentials are used.
	ServiceAccountKey string

	// Recursive enables descending into sub-folders.
	Recursive bool

	// LoadTrashedFiles includes entries that are in the trash.
	LoadTrashedFiles bool

	// TempDir is where downloaded content is staged before transformation.
	// Empty means the OS default temporary directory.
	TempDir string

	// DownloadChunkSize is the number of bytes requested per media download chunk.
	// Zero means DefaultDownloadChunkSize.
	DownloadChunkSize int64
}

// DefaultConfig returns a Config populated from environment variables.
func DefaultConfig() Config {
	return Config{
		ServiceAccountKey: os.Getenv(EnvServiceAccountKey),
		Recursive:         getEnvBoolOrDefault(EnvRecursive, false),
		LoadTrashedFiles:  getEnvBoolOrDefault(EnvLoadTrashedFiles, false),
		TempDir:           os.Getenv(EnvTempDir),
		DownloadChunkSize: getEnvInt64OrDefault(EnvDownloadChunkSize, DefaultDownloadChunkSize),
	}
}

// ChunkSize returns the effective download chunk size.
func (c Config) ChunkSize() int64 {
	if c.DownloadChunkSize <= 0 {
		return DefaultDownloadChunkSize
	}
	return c.DownloadChunkSize
}

// Validate checks if the configuration is usable.
func (c *Config) Validate() error {
	if c.DownloadChunkSize < 0 {
		return fmt.Errorf("download chunk size must not be negative, got %d", c.DownloadChunkSize)
	}

	if c.ServiceAccountKey != "" {
		info, err := os.Stat(c.ServiceAccountKey)
		if err != nil {
			return fmt.Errorf("service account key %s is not readable: %w", c.ServiceAccountKey, err)
		}
		if info.IsDir() {
			return fmt.Errorf("service account key %s is a directory", c.ServiceAccountKey)
		}
	}

	if c.TempDir != "" {
		info, err := os.Stat(c.TempDir)
		if err != nil {
			return fmt.Errorf("temp dir %s is not accessible: %w", c.TempDir, err)
		}
		if !info.IsDir() {
			return fmt.Errorf("temp dir %s is not a directory", c.TempDir)
		}
	}

	return nil
}

// getEnvBoolOrDefault returns the boolean value of an environment variable or a default value.
func getEnvBoolOrDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		parsed, err := strconv.ParseBool(value)
		if err != nil {
			return defaultValue
		}
		return parsed
	}
	return defaultValue
}

// getEnvInt64OrDefault returns the int64 value of an environment variable or a default value.
func getEnvInt64OrDefault(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		parsed, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return defaultValue
		}
		return parsed
	}
	return defaultValue
}
