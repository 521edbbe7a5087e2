package docs_tools

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/driveingest/internal/server"
	"github.com/teemow/driveingest/internal/tools/common"
)

// ToolExtractText is the name of the Docs text extraction tool.
const ToolExtractText = "docs_extract_text"

// RegisterDocsTools registers the Google Docs tools with the MCP server.
func RegisterDocsTools(s *mcpserver.MCPServer, sc *server.ServerContext) error {
	extractTool := mcp.NewTool(ToolExtractText,
		mcp.WithDescription("Get the plain text of a Google Doc: paragraphs, tables and tables of contents in document order"),
		mcp.WithString("documentId",
			mcp.Required(),
			mcp.Description("The ID of the Google Doc"),
		),
	)

	s.AddTool(extractTool, common.InstrumentedToolHandler(ToolExtractText, sc, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return handleExtractText(ctx, request, sc)
	}))

	return nil
}

func handleExtractText(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	documentID := common.StringArg(request, "documentId")
	if documentID == "" {
		return mcp.NewToolResultError("documentId is required"), nil
	}

	client, err := sc.DocsClient(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to create Docs client: %v", err)), nil
	}

	text, err := client.ExtractText(ctx, documentID)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to get document: %v", err)), nil
	}

	return mcp.NewToolResultText(text), nil
}
