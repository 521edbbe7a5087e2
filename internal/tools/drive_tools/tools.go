package drive_tools

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/driveingest/internal/document"
	"github.com/teemow/driveingest/internal/ingest"
	"github.com/teemow/driveingest/internal/server"
	"github.com/teemow/driveingest/internal/tools/common"
)

// ToolIngestFolder is the name of the folder ingestion tool.
const ToolIngestFolder = "drive_ingest_folder"

// IngestResult is the JSON payload returned by drive_ingest_folder.
type IngestResult struct {
	Summary   ingest.Summary      `json:"summary"`
	Documents []document.Document `json:"documents"`
}

// RegisterDriveTools registers the Drive ingestion tools with the MCP server.
func RegisterDriveTools(s *mcpserver.MCPServer, sc *server.ServerContext) error {
	cfg := sc.Config()

	ingestTool := mcp.NewTool(ToolIngestFolder,
		mcp.WithDescription("Ingest every supported file in a Google Drive folder as text documents. "+
			"Google Docs are read through the Docs API; other files are downloaded and converted by extension."),
		mcp.WithString("folderId",
			mcp.Required(),
			mcp.Description("The ID of the Drive folder to ingest"),
		),
		mcp.WithBoolean("recursive",
			mcp.Description(fmt.Sprintf("Descend into subfolders (default: %t)", cfg.Recursive)),
		),
		mcp.WithBoolean("loadTrashed",
			mcp.Description(fmt.Sprintf("Include files that are in the trash (default: %t)", cfg.LoadTrashedFiles)),
		),
	)

	s.AddTool(ingestTool, common.InstrumentedToolHandler(ToolIngestFolder, sc, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return handleIngestFolder(ctx, request, sc)
	}))

	return nil
}

func handleIngestFolder(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	folderID := common.StringArg(request, "folderId")
	if folderID == "" {
		return mcp.NewToolResultError("folderId is required"), nil
	}

	cfg := sc.Config()
	cfg.Recursive = common.BoolArg(request, "recursive", cfg.Recursive)
	cfg.LoadTrashedFiles = common.BoolArg(request, "loadTrashed", cfg.LoadTrashedFiles)

	ingestor, err := sc.Ingestor(ctx, cfg)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to create ingestor: %v", err)), nil
	}

	docs, summary, err := ingestor.Run(ctx, folderID)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to ingest folder %s: %v", folderID, err)), nil
	}
	if docs == nil {
		docs = []document.Document{}
	}

	return common.JSONResult(IngestResult{Summary: summary, Documents: docs}), nil
}
