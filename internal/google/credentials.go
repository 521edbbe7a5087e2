package google

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"golang.org/x/oauth2/google"
)

// ErrConfiguration is returned when no usable credential source is configured
// or the configured key file is malformed.
var ErrConfiguration = errors.New("configuration error")

// ServiceAccountKey represents the fields of a service account key file that are
// checked before the key is handed to the oauth2 library.
type ServiceAccountKey struct {
	Type         string `json:"type"`
	ProjectID    string `json:"project_id"`
	PrivateKeyID string `json:"private_key_id"`
	PrivateKey   string `json:"private_key"`
	ClientEmail  string `json:"client_email"`
	TokenURI     string `json:"token_uri"`
}

// ResolveCredentials returns credentials scoped to read-only Drive access.
// A non-empty keyFile is loaded as a service account key; otherwise
// Application Default Credentials are used. Every failure wraps ErrConfiguration.
func ResolveCredentials(ctx context.Context, keyFile string) (*google.Credentials, error) {
	if keyFile != "" {
		return LoadServiceAccount(ctx, keyFile)
	}

	creds, err := google.FindDefaultCredentials(ctx, ReadOnlyScopes()...)
	if err != nil {
		return nil, fmt.Errorf("%w: no service account key configured and default credentials not found: %w", ErrConfiguration, err)
	}
	return creds, nil
}

// LoadServiceAccount loads credentials from a service account key file.
func LoadServiceAccount(ctx context.Context, keyFile string) (*google.Credentials, error) {
	keyData, err := os.ReadFile(keyFile)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read service account key %s: %w", ErrConfiguration, keyFile, err)
	}

	saKey, err := ParseServiceAccountKey(keyData)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrConfiguration, keyFile, err)
	}

	creds, err := google.CredentialsFromJSON(ctx, keyData, ReadOnlyScopes()...)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to load service account key for %s: %w", ErrConfiguration, saKey.ClientEmail, err)
	}
	return creds, nil
}

// ParseServiceAccountKey validates the shape of a service account key file.
func ParseServiceAccountKey(data []byte) (*ServiceAccountKey, error) {
	var saKey ServiceAccountKey
	if err := json.Unmarshal(data, &saKey); err != nil {
		return nil, fmt.Errorf("failed to parse service account key: %w", err)
	}
	if saKey.Type != "service_account" {
		return nil, fmt.Errorf("invalid service account key type: %q", saKey.Type)
	}
	if saKey.ClientEmail == "" {
		return nil, fmt.Errorf("missing client_email in service account key")
	}
	if saKey.PrivateKey == "" {
		return nil, fmt.Errorf("missing private_key in service account key")
	}
	return &saKey, nil
}

// ClientEmail returns the service account email embedded in creds, if any.
func ClientEmail(creds *google.Credentials) string {
	if creds == nil || len(creds.JSON) == 0 {
		return ""
	}
	var saKey ServiceAccountKey
	if err := json.Unmarshal(creds.JSON, &saKey); err != nil {
		return ""
	}
	return saKey.ClientEmail
}
