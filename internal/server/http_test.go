package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	mcpserver "github.com/mark3labs/mcp-go/server"
)

func newTestHTTPServer(t *testing.T, addr string) *HTTPServer {
	t.Helper()
	sc := NewServerContext(context.Background(), "test", true)
	t.Cleanup(func() { _ = sc.Shutdown() })

	mcpSrv := mcpserver.NewMCPServer("mockbox", "test",
		mcpserver.WithToolCapabilities(true),
	)
	s, err := NewHTTPServer(HTTPServerConfig{
		Addr:          addr,
		MCPServer:     mcpSrv,
		ServerContext: sc,
	})
	if err != nil {
		t.Fatalf("NewHTTPServer returned error: %v", err)
	}
	return s
}

func TestNewHTTPServer_Validation(t *testing.T) {
	sc := NewServerContext(context.Background(), "test", true)
	defer sc.Shutdown()
	mcpSrv := mcpserver.NewMCPServer("mockbox", "test")

	if _, err := NewHTTPServer(HTTPServerConfig{ServerContext: sc}); err == nil {
		t.Error("expected error when MCP server is missing")
	}
	if _, err := NewHTTPServer(HTTPServerConfig{MCPServer: mcpSrv}); err == nil {
		t.Error("expected error when server context is missing")
	}
}

func TestNewHTTPServer_DefaultAddr(t *testing.T) {
	s := newTestHTTPServer(t, "")
	if s.Addr() != ":8080" {
		t.Errorf("expected default addr :8080, got %s", s.Addr())
	}
}

func TestHTTPServer_HealthEndpoints(t *testing.T) {
	s := newTestHTTPServer(t, ":8080")

	for _, path := range []string{"/healthz", "/readyz", "/healthz/detailed"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		rec := httptest.NewRecorder()
		s.httpServer.Handler.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Errorf("GET %s returned status %d, want 200", path, rec.Code)
		}
	}
}

func TestHTTPServer_ShutdownMarksUnready(t *testing.T) {
	s := newTestHTTPServer(t, ":8080")

	if err := s.Shutdown(context.Background()); err != nil {
		t.Fatalf("Shutdown returned error: %v", err)
	}
	if s.HealthChecker().IsReady() {
		t.Error("expected health checker to report not ready after shutdown")
	}
}
