// Package docs_tools provides the MCP tool that reads the plain text of a
// single Google Doc, using the same extraction as folder ingestion.
package docs_tools
