package cmd

import (
	"context"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teemow/driveingest/internal/config"
	"github.com/teemow/driveingest/internal/server"
	"github.com/teemow/driveingest/internal/tools/docs_tools"
	"github.com/teemow/driveingest/internal/tools/drive_tools"
)

func TestRunServe_UnsupportedTransport(t *testing.T) {
	err := runServe(context.Background(), config.Config{}, serveOptions{transport: "sse"}, &strings.Builder{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported transport type: sse")
}

func TestRegisterAllTools(t *testing.T) {
	sc, err := server.NewServerContext(context.Background(), config.Config{})
	require.NoError(t, err)
	defer sc.Shutdown()

	mcpSrv := newMCPServer()
	require.NoError(t, registerAllTools(mcpSrv, sc))

	var names []string
	for _, st := range mcpSrv.ListTools() {
		names = append(names, st.Tool.Name)
	}
	assert.ElementsMatch(t, []string{drive_tools.ToolIngestFolder, docs_tools.ToolExtractText}, names)
}

func TestGenerateToolsMarkdown(t *testing.T) {
	sc, err := server.NewServerContext(context.Background(), config.Config{})
	require.NoError(t, err)
	defer sc.Shutdown()

	mcpSrv := newMCPServer()
	require.NoError(t, registerAllTools(mcpSrv, sc))

	var tools []mcp.Tool
	for _, st := range mcpSrv.ListTools() {
		tools = append(tools, st.Tool)
	}
	md := generateToolsMarkdown(tools)

	assert.Contains(t, md, "# MCP Tools Reference")
	assert.Contains(t, md, "## Google Drive Tools")
	assert.Contains(t, md, "## Google Docs Tools")
	assert.Contains(t, md, "### drive_ingest_folder")
	assert.Contains(t, md, "- `folderId` (required): The ID of the Drive folder to ingest")
	assert.Contains(t, md, "- `recursive` (optional): ")
	assert.Contains(t, md, "- `documentId` (required): ")
	assert.Less(t, strings.Index(md, "## Google Docs Tools"), strings.Index(md, "## Google Drive Tools"))
}

func TestGetCategoryFromToolName(t *testing.T) {
	assert.Equal(t, "Google Drive Tools", getCategoryFromToolName("drive_ingest_folder"))
	assert.Equal(t, "Google Docs Tools", getCategoryFromToolName("docs_extract_text"))
	assert.Equal(t, "Other", getCategoryFromToolName("misc"))
}

func TestVersionCmd(t *testing.T) {
	var out strings.Builder
	cmd := newVersionCmd()
	cmd.SetOut(&out)
	cmd.SetArgs(nil)
	require.NoError(t, cmd.Execute())
	assert.Equal(t, "driveingest version "+version+"\n", out.String())
}
