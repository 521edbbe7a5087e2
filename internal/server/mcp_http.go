package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	mcpserver "github.com/mark3labs/mcp-go/server"
)

const (
	// DefaultHTTPAddr is the default listen address of the MCP HTTP transport.
	DefaultHTTPAddr = ":8080"

	// MCPEndpointPath is where the streamable HTTP transport is mounted.
	MCPEndpointPath = "/mcp"
)

// MCPHTTPServer serves an MCP server over the streamable HTTP transport.
// Folder ingestion can stream for minutes, so no write timeout is applied.
type MCPHTTPServer struct {
	mcpServer *mcpserver.MCPServer
	addr      string
	logger    *slog.Logger

	mu         sync.Mutex
	httpServer *http.Server
	listener   net.Listener
}

// NewMCPHTTPServer returns an unstarted streamable HTTP server for mcpSrv.
func NewMCPHTTPServer(mcpSrv *mcpserver.MCPServer, addr string, logger *slog.Logger) *MCPHTTPServer {
	if addr == "" {
		addr = DefaultHTTPAddr
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &MCPHTTPServer{mcpServer: mcpSrv, addr: addr, logger: logger}
}

// Handler returns the mux with the MCP endpoint mounted.
func (s *MCPHTTPServer) Handler() http.Handler {
	streamable := mcpserver.NewStreamableHTTPServer(s.mcpServer,
		mcpserver.WithEndpointPath(MCPEndpointPath),
	)

	mux := http.NewServeMux()
	mux.Handle(MCPEndpointPath, streamable)
	return mux
}

// Listen binds the configured address.
func (s *MCPHTTPServer) Listen() error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.addr, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.listener = ln
	s.httpServer = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return nil
}

// Serve blocks until the server stops. It returns nil after Shutdown.
func (s *MCPHTTPServer) Serve() error {
	s.mu.Lock()
	srv, ln := s.httpServer, s.listener
	s.mu.Unlock()
	if srv == nil {
		return fmt.Errorf("MCP HTTP server is not listening")
	}

	s.logger.Info("starting MCP server", "transport", "streamable-http", "addr", ln.Addr().String(), "path", MCPEndpointPath)
	if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown gracefully shuts down the server.
func (s *MCPHTTPServer) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	srv := s.httpServer
	s.mu.Unlock()
	if srv == nil {
		return nil
	}
	return srv.Shutdown(ctx)
}

// Addr returns the bound address once listening, otherwise the configured one.
func (s *MCPHTTPServer) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return s.addr
}
