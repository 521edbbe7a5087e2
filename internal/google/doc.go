// Package google resolves the credentials used for every Drive and Docs API call
// made during an ingestion run.
//
// Credentials come either from a service account key file or, when no key file is
// configured, from Application Default Credentials (GOOGLE_APPLICATION_CREDENTIALS,
// gcloud user credentials, or the GCE/GKE metadata server). Both sources are scoped
// to read-only Drive and Docs access.
//
// The returned *google.Credentials is an opaque capability: callers pass it by
// reference into client constructors and never store it globally.
package google
