package drive_tools

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"testing"

	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
	oauthgoogle "golang.org/x/oauth2/google"

	"github.com/teemow/driveingest/internal/config"
	"github.com/teemow/driveingest/internal/docs/docstest"
	"github.com/teemow/driveingest/internal/drive"
	"github.com/teemow/driveingest/internal/drive/drivetest"
	"github.com/teemow/driveingest/internal/server"
)

type rpcResponse struct {
	Result *struct {
		Content []struct {
			Type string `json:"type"`
			Text string `json:"text"`
		} `json:"content"`
		IsError bool `json:"isError"`
		Tools   []struct {
			Name string `json:"name"`
		} `json:"tools"`
	} `json:"result"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

func call(t *testing.T, s *mcpserver.MCPServer, method string, params any) rpcResponse {
	t.Helper()

	req, err := json.Marshal(map[string]any{"jsonrpc": "2.0", "id": 1, "method": method, "params": params})
	require.NoError(t, err)

	raw, err := json.Marshal(s.HandleMessage(context.Background(), req))
	require.NoError(t, err)

	var resp rpcResponse
	require.NoError(t, json.Unmarshal(raw, &resp))
	require.Nil(t, resp.Error, "rpc error")
	require.NotNil(t, resp.Result)
	return resp
}

type fixture struct {
	drive *drivetest.Server
	mcp   *mcpserver.MCPServer
}

func newFixture(t *testing.T, cfg config.Config) *fixture {
	t.Helper()

	driveSrv := drivetest.NewServer(t)
	docsSrv := docstest.NewServer(t)

	driveSrv.AddFile("d1", "Plan", drive.GoogleDocMimeType, nil, "root")
	docsSrv.AddDocument("d1", docstest.Paragraph("plan ", "text"))
	driveSrv.AddFile("f1", "a.txt", "text/plain", []byte("alpha"), "root")
	driveSrv.AddFolder("sub", "sub", "root")
	driveSrv.AddFile("f2", "b.txt", "text/plain", []byte("beta"), "sub")
	driveSrv.AddFile("f3", "c.txt", "text/plain", []byte("gamma"), "root")
	driveSrv.Trash("f3")

	creds := &oauthgoogle.Credentials{TokenSource: oauth2.StaticTokenSource(&oauth2.Token{AccessToken: "test"})}
	cfg.TempDir = t.TempDir()
	sc, err := server.NewServerContext(context.Background(), cfg,
		server.WithCredentials(creds),
		server.WithDriveClientOptions(driveSrv.ClientOptions()...),
		server.WithDocsClientOptions(docsSrv.ClientOptions()...),
	)
	require.NoError(t, err)
	t.Cleanup(sc.Shutdown)

	s := mcpserver.NewMCPServer("driveingest-test", "0.0.0", mcpserver.WithToolCapabilities(true))
	require.NoError(t, RegisterDriveTools(s, sc))

	return &fixture{drive: driveSrv, mcp: s}
}

func (f *fixture) ingest(t *testing.T, args map[string]any) (IngestResult, rpcResponse) {
	t.Helper()

	resp := call(t, f.mcp, "tools/call", map[string]any{"name": ToolIngestFolder, "arguments": args})
	var result IngestResult
	if !resp.Result.IsError {
		require.Len(t, resp.Result.Content, 1)
		require.NoError(t, json.Unmarshal([]byte(resp.Result.Content[0].Text), &result))
	}
	return result, resp
}

func texts(result IngestResult) []string {
	out := make([]string, 0, len(result.Documents))
	for _, d := range result.Documents {
		out = append(out, d.Text)
	}
	return out
}

func TestRegisterDriveTools(t *testing.T) {
	f := newFixture(t, config.Config{})

	resp := call(t, f.mcp, "tools/list", map[string]any{})
	require.Len(t, resp.Result.Tools, 1)
	assert.Equal(t, ToolIngestFolder, resp.Result.Tools[0].Name)
}

func TestIngestFolder_Defaults(t *testing.T) {
	f := newFixture(t, config.Config{})

	result, _ := f.ingest(t, map[string]any{"folderId": "root"})

	assert.Equal(t, []string{"plan text", "alpha"}, texts(result))
	assert.Equal(t, "root", result.Summary.FolderID)
	assert.Equal(t, 1, result.Summary.SkippedTrashed)
	assert.Zero(t, f.drive.ListCalls("sub"))
}

func TestIngestFolder_Overrides(t *testing.T) {
	f := newFixture(t, config.Config{})

	result, _ := f.ingest(t, map[string]any{"folderId": "root", "recursive": true, "loadTrashed": true})

	assert.ElementsMatch(t, []string{"plan text", "alpha", "beta", "gamma"}, texts(result))
	assert.Zero(t, result.Summary.SkippedTrashed)
	assert.Equal(t, 1, f.drive.ListCalls("sub"))
}

func TestIngestFolder_ServerConfigDefaults(t *testing.T) {
	f := newFixture(t, config.Config{Recursive: true})

	result, _ := f.ingest(t, map[string]any{"folderId": "root"})
	assert.Contains(t, texts(result), "beta")

	result, _ = f.ingest(t, map[string]any{"folderId": "root", "recursive": false})
	assert.NotContains(t, texts(result), "beta")
}

func TestIngestFolder_Errors(t *testing.T) {
	tests := []struct {
		name    string
		args    map[string]any
		setup   func(f *fixture)
		wantErr string
	}{
		{
			name:    "missing folder id",
			args:    map[string]any{},
			wantErr: "folderId is required",
		},
		{
			name: "listing failure",
			args: map[string]any{"folderId": "root"},
			setup: func(f *fixture) {
				f.drive.FailList("root", http.StatusForbidden)
			},
			wantErr: "Failed to ingest folder root",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, config.Config{})
			if tt.setup != nil {
				tt.setup(f)
			}

			_, resp := f.ingest(t, tt.args)
			require.True(t, resp.Result.IsError)
			require.NotEmpty(t, resp.Result.Content)
			assert.Contains(t, resp.Result.Content[0].Text, tt.wantErr)
		})
	}
}

func TestIngestFolder_EmptyFolder(t *testing.T) {
	f := newFixture(t, config.Config{})
	f.drive.AddFolder("empty", "empty", "root")

	_, resp := f.ingest(t, map[string]any{"folderId": "empty"})
	require.False(t, resp.Result.IsError)
	assert.Contains(t, resp.Result.Content[0].Text, fmt.Sprintf("%q: []", "documents"))
}
