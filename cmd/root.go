package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

// rootCmd represents the base command for the driveingest application
var rootCmd = &cobra.Command{
	Use:   "driveingest",
	Short: "Turns the files of a Google Drive folder into text documents",
	Long: `driveingest lists a Google Drive folder with a service account, reads
Google Docs through the Docs API and downloads every other file, converting
each into plain-text documents with Drive provenance metadata.

It can run as:
  - A one-shot CLI (driveingest ingest <folder-id>)
  - An MCP (Model Context Protocol) server for AI assistants`,
	SilenceUsage: true,
}

// version will be set by main
var version = "dev"

// SetVersion sets the version for the root command
func SetVersion(v string) {
	version = v
	rootCmd.Version = v
}

// Execute is the main entry point for the CLI application
func Execute() {
	rootCmd.SetVersionTemplate(`{{printf "driveingest version %s\n" .Version}}`)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(newIngestCmd())
	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newGenerateDocsCmd())
	rootCmd.AddCommand(newVersionCmd())
}
