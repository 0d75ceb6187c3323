package server

import (
	"context"
	"log/slog"
	"sync"

	"github.com/teemow/mockbox/internal/github"
	"github.com/teemow/mockbox/internal/gmail"
	"github.com/teemow/mockbox/internal/instrumentation"
)

// ServerContext holds the shared state for the MCP server: the simulated
// backend stores, the logger, and the instrumentation provider.
type ServerContext struct {
	ctx    context.Context
	cancel context.CancelFunc

	gmailStore  *gmail.Store
	githubStore *github.Store

	logger   *slog.Logger
	provider *instrumentation.Provider

	version  string
	readOnly bool

	mu       sync.RWMutex
	shutdown bool
}

// NewServerContext creates a new server context with freshly initialized
// stores. When readOnly is true, tool registration skips all mutating tools.
func NewServerContext(ctx context.Context, version string, readOnly bool) *ServerContext {
	shutdownCtx, cancel := context.WithCancel(ctx)

	return &ServerContext{
		ctx:         shutdownCtx,
		cancel:      cancel,
		gmailStore:  gmail.NewStore(),
		githubStore: github.NewStore(),
		logger:      slog.Default(),
		version:     version,
		readOnly:    readOnly,
	}
}

// Context returns the server context.
func (sc *ServerContext) Context() context.Context {
	return sc.ctx
}

// GmailStore returns the simulated Gmail store.
func (sc *ServerContext) GmailStore() *gmail.Store {
	return sc.gmailStore
}

// GithubStore returns the simulated GitHub store.
func (sc *ServerContext) GithubStore() *github.Store {
	return sc.githubStore
}

// Logger returns the structured logger for the server.
func (sc *ServerContext) Logger() *slog.Logger {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.logger
}

// SetLogger replaces the server logger.
func (sc *ServerContext) SetLogger(logger *slog.Logger) {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	if logger != nil {
		sc.logger = logger
	}
}

// SetInstrumentation attaches an instrumentation provider to the context.
func (sc *ServerContext) SetInstrumentation(provider *instrumentation.Provider) {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	sc.provider = provider
}

// Instrumentation returns the instrumentation provider, or nil when
// instrumentation is not configured.
func (sc *ServerContext) Instrumentation() *instrumentation.Provider {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.provider
}

// Metrics returns the metrics recorder. It never returns nil: without a
// configured provider a no-op recorder is returned so callers can record
// unconditionally.
func (sc *ServerContext) Metrics() *instrumentation.Metrics {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	if sc.provider == nil || sc.provider.Metrics() == nil {
		return &instrumentation.Metrics{}
	}
	return sc.provider.Metrics()
}

// Version returns the server version string.
func (sc *ServerContext) Version() string {
	return sc.version
}

// ReadOnly returns whether mutating tools are disabled.
func (sc *ServerContext) ReadOnly() bool {
	return sc.readOnly
}

// IsShutdown returns whether the server has been shutdown.
func (sc *ServerContext) IsShutdown() bool {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.shutdown
}

// Shutdown shuts down the server context.
func (sc *ServerContext) Shutdown() error {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	if sc.shutdown {
		return nil
	}

	sc.shutdown = true
	sc.cancel()
	return nil
}
