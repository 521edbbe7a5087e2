// Package cmd implements the driveingest command line interface.
//
// Subcommands:
//   - ingest: ingest a Drive folder and print the documents
//   - serve: run the MCP server over stdio or streamable HTTP
//   - generate-docs: print the MCP tool reference as markdown
//   - version: print the build version
package cmd
