package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	mcpserver "github.com/mark3labs/mcp-go/server"
)

// HTTPServer serves the MCP protocol over streamable HTTP alongside
// health check endpoints.
type HTTPServer struct {
	mcpServer     *mcpserver.MCPServer
	serverContext *ServerContext
	healthChecker *HealthChecker
	httpServer    *http.Server
}

// HTTPServerConfig configures an HTTPServer.
type HTTPServerConfig struct {
	Addr          string
	MCPServer     *mcpserver.MCPServer
	ServerContext *ServerContext
}

// NewHTTPServer creates an HTTP server that exposes the MCP endpoint
// at /mcp and health probes at /healthz and /readyz.
func NewHTTPServer(cfg HTTPServerConfig) (*HTTPServer, error) {
	if cfg.MCPServer == nil {
		return nil, fmt.Errorf("MCP server is required")
	}
	if cfg.ServerContext == nil {
		return nil, fmt.Errorf("server context is required")
	}
	addr := cfg.Addr
	if addr == "" {
		addr = ":8080"
	}

	s := &HTTPServer{
		mcpServer:     cfg.MCPServer,
		serverContext: cfg.ServerContext,
		healthChecker: NewHealthChecker(cfg.ServerContext),
	}

	mux := http.NewServeMux()
	s.healthChecker.RegisterHealthEndpoints(mux)

	streamable := mcpserver.NewStreamableHTTPServer(s.mcpServer,
		mcpserver.WithEndpointPath("/mcp"),
	)
	mux.Handle("/mcp", streamable)

	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return s, nil
}

// HealthChecker returns the server's health checker.
func (s *HTTPServer) HealthChecker() *HealthChecker {
	return s.healthChecker
}

// Addr returns the configured listen address.
func (s *HTTPServer) Addr() string {
	return s.httpServer.Addr
}

// Start begins serving and blocks until the server stops.
func (s *HTTPServer) Start() error {
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *HTTPServer) Shutdown(ctx context.Context) error {
	s.healthChecker.SetReady(false)
	return s.httpServer.Shutdown(ctx)
}
