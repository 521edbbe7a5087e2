package common

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/teemow/driveingest/internal/instrumentation"
	"github.com/teemow/driveingest/internal/logging"
	"github.com/teemow/driveingest/internal/server"
)

// ToolHandler is the signature of an MCP tool handler. It is an alias so
// wrapped handlers can be passed straight to server.MCPServer.AddTool.
type ToolHandler = func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error)

// InstrumentedToolHandler wraps a tool handler with a span, invocation
// metrics and a completion log line.
//
// Usage:
//
//	s.AddTool(myTool, common.InstrumentedToolHandler("my_tool", sc, handler))
func InstrumentedToolHandler(toolName string, sc *server.ServerContext, handler ToolHandler) ToolHandler {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		ctx, span := instrumentation.StartToolSpan(ctx, toolName)
		defer span.End()

		start := time.Now()
		result, err := handler(ctx, request)
		duration := time.Since(start)

		status := instrumentation.StatusSuccess
		logger := sc.Logger().With(logging.Tool(toolName))
		switch {
		case err != nil:
			status = instrumentation.StatusError
			instrumentation.SetSpanError(span, err)
			logger.ErrorContext(ctx, "tool invocation failed", logging.Duration(duration), logging.Err(err))
		case result != nil && result.IsError:
			status = instrumentation.StatusError
			instrumentation.SetSpanError(span, errors.New(ResultText(result)))
			logger.WarnContext(ctx, "tool returned an error result", logging.Duration(duration))
		default:
			instrumentation.SetSpanSuccess(span)
			logger.DebugContext(ctx, "tool invocation finished", logging.Duration(duration))
		}

		sc.Metrics().RecordToolInvocation(ctx, toolName, status, duration)
		return result, err
	}
}

// JSONResult renders v as an indented JSON text result.
func JSONResult(v any) *mcp.CallToolResult {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to serialize result: %v", err))
	}
	return mcp.NewToolResultText(string(data))
}

// ResultText concatenates the text content of result.
func ResultText(result *mcp.CallToolResult) string {
	if result == nil {
		return ""
	}
	var text string
	for _, c := range result.Content {
		if tc, ok := c.(mcp.TextContent); ok {
			text += tc.Text
		}
	}
	return text
}

// StringArg returns the string argument key, or "" when it is absent or not a string.
func StringArg(request mcp.CallToolRequest, key string) string {
	v, _ := request.GetArguments()[key].(string)
	return v
}

// BoolArg returns the bool argument key, or def when it is absent or not a bool.
func BoolArg(request mcp.CallToolRequest, key string, def bool) bool {
	if v, ok := request.GetArguments()[key].(bool); ok {
		return v
	}
	return def
}
