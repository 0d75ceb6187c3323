package cmd

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/mockbox/internal/instrumentation"
	"github.com/teemow/mockbox/internal/server"
	"github.com/teemow/mockbox/internal/tools/github_tools"
	"github.com/teemow/mockbox/internal/tools/gmail_tools"
)

// MetricsConfig holds configuration for the metrics server
type MetricsConfig struct {
	Enabled bool
	Addr    string
}

func newServeCmd() *cobra.Command {
	var (
		debugMode     bool
		transport     string
		httpAddr      string
		seedFile      string
		yolo          bool
		metricsConfig MetricsConfig
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the MCP server",
		Long: `Start mockbox as an MCP server exposing the simulated GitHub and
Gmail backends as tools.

Supports two transport types:
  - stdio: Standard input/output (default, for direct MCP client integration)
  - streamable-http: Streamable HTTP transport with health endpoints

The server starts in read-only mode by default: only tools that inspect
simulated state are registered. Use --yolo to also register tools that
mutate state (sending messages, pushing files, deleting resources).

Initial state can be loaded from a YAML seed file via --seed-file or the
MOCKBOX_SEED_FILE environment variable.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			applyMetricsEnvOverrides(&metricsConfig,
				cmd.Flags().Changed("metrics-enabled"),
				cmd.Flags().Changed("metrics-addr"))
			return runServe(debugMode, transport, httpAddr, seedFile, yolo, metricsConfig)
		},
	}

	cmd.Flags().BoolVar(&debugMode, "debug", false, "Enable debug logging")
	cmd.Flags().StringVar(&transport, "transport", "stdio", "Transport type: stdio or streamable-http")
	cmd.Flags().StringVar(&httpAddr, "http-addr", ":8080", "HTTP server address (for streamable-http transport)")
	cmd.Flags().StringVar(&seedFile, "seed-file", "", "Path to a YAML seed file applied at startup (env: MOCKBOX_SEED_FILE)")
	cmd.Flags().BoolVar(&yolo, "yolo", false, "Enable write operations (send, modify, delete, push). Default is read-only mode.")
	cmd.Flags().BoolVar(&metricsConfig.Enabled, "metrics-enabled", true, "Enable Prometheus metrics server (env: METRICS_ENABLED)")
	cmd.Flags().StringVar(&metricsConfig.Addr, "metrics-addr", ":9090", "Metrics server address (env: METRICS_ADDR)")

	return cmd
}

// applyMetricsEnvOverrides fills metrics settings from the environment.
// An explicitly set flag always wins over the environment.
func applyMetricsEnvOverrides(cfg *MetricsConfig, enabledSet, addrSet bool) {
	if !enabledSet {
		if v := os.Getenv("METRICS_ENABLED"); v != "" {
			cfg.Enabled = v == "true"
		}
	}
	if !addrSet {
		if addr := os.Getenv("METRICS_ADDR"); addr != "" {
			cfg.Addr = addr
		}
	}
}

func runServe(debugMode bool, transport, httpAddr, seedFile string, yolo bool, metricsConfig MetricsConfig) error {
	// Setup graceful shutdown
	shutdownCtx, cancel := signal.NotifyContext(context.Background(),
		os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// Structured logs go to stderr so stdio transport stays clean
	logLevel := slog.LevelInfo
	if debugMode {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel}))
	slog.SetDefault(logger)

	if seedFile == "" {
		seedFile = os.Getenv("MOCKBOX_SEED_FILE")
	}

	// Initialize instrumentation provider
	instrConfig := instrumentation.DefaultConfig()
	instrConfig.ServiceVersion = version

	provider, err := instrumentation.NewProvider(shutdownCtx, instrConfig)
	if err != nil {
		return fmt.Errorf("failed to create instrumentation provider: %w", err)
	}
	defer func() {
		if err := provider.Shutdown(shutdownCtx); err != nil {
			if transport != "stdio" {
				log.Printf("Error during instrumentation shutdown: %v", err)
			}
		}
	}()

	// Start metrics server if enabled and not in stdio mode
	var metricsServer *server.MetricsServer
	if transport != "stdio" && metricsConfig.Enabled && provider.Enabled() {
		var err error
		metricsServer, err = server.NewMetricsServer(server.MetricsServerConfig{
			Addr:                    metricsConfig.Addr,
			InstrumentationProvider: provider,
		})
		if err != nil {
			return fmt.Errorf("failed to create metrics server: %w", err)
		}

		go func() {
			if err := metricsServer.Start(); err != nil && err != http.ErrServerClosed {
				log.Printf("Metrics server error: %v", err)
			}
		}()
		log.Printf("Metrics server listening on %s", metricsServer.Addr())
	}

	// readOnly is the inverse of yolo
	readOnly := !yolo

	// Create server context holding the simulated backends
	serverContext := server.NewServerContext(shutdownCtx, version, readOnly)
	serverContext.SetLogger(logger)
	if provider.Enabled() {
		serverContext.SetInstrumentation(provider)
	}
	defer func() {
		if metricsServer != nil {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := metricsServer.Shutdown(shutdownCtx); err != nil {
				log.Printf("Error during metrics server shutdown: %v", err)
			}
		}
		if err := serverContext.Shutdown(); err != nil {
			if transport != "stdio" {
				log.Printf("Error during server context shutdown: %v", err)
			}
		}
	}()

	// Apply initial simulated state from the seed file
	if seedFile != "" {
		seed, err := server.LoadSeedFile(seedFile)
		if err != nil {
			return fmt.Errorf("failed to load seed file: %w", err)
		}
		if err := serverContext.ApplySeed(seed); err != nil {
			return fmt.Errorf("failed to apply seed file: %w", err)
		}
		if transport != "stdio" {
			log.Printf("Applied seed file %s", seedFile)
		}
	}

	// Create MCP server
	mcpSrv := mcpserver.NewMCPServer("mockbox", version,
		mcpserver.WithToolCapabilities(true),
	)

	// Log the mode for visibility (only for non-stdio transports)
	if transport != "stdio" {
		if readOnly {
			log.Println("Starting server in READ-ONLY mode (use --yolo to enable write operations)")
		} else {
			log.Println("Starting server with WRITE operations enabled (--yolo flag is set)")
		}
	}

	// Register all tools
	if err := registerAllTools(mcpSrv, serverContext, readOnly); err != nil {
		return err
	}

	// Start the appropriate server based on transport type
	switch transport {
	case "stdio":
		return runStdioServer(mcpSrv)
	case "streamable-http":
		fmt.Printf("Starting mockbox MCP server with %s transport...\n", transport)
		return runStreamableHTTPServer(shutdownCtx, mcpSrv, serverContext, httpAddr)
	default:
		return fmt.Errorf("unsupported transport type: %s (supported: stdio, streamable-http)", transport)
	}
}

func runStdioServer(mcpSrv *mcpserver.MCPServer) error {
	serverDone := make(chan error, 1)
	go func() {
		defer close(serverDone)
		if err := mcpserver.ServeStdio(mcpSrv); err != nil {
			serverDone <- err
		}
	}()

	err := <-serverDone
	if err != nil {
		return fmt.Errorf("server stopped with error: %w", err)
	}
	return nil
}

func runStreamableHTTPServer(ctx context.Context, mcpSrv *mcpserver.MCPServer, serverContext *server.ServerContext, addr string) error {
	httpServer, err := server.NewHTTPServer(server.HTTPServerConfig{
		Addr:          addr,
		MCPServer:     mcpSrv,
		ServerContext: serverContext,
	})
	if err != nil {
		return fmt.Errorf("failed to create HTTP server: %w", err)
	}

	serverDone := make(chan error, 1)
	go func() {
		defer close(serverDone)
		if err := httpServer.Start(); err != nil && err != http.ErrServerClosed {
			serverDone <- err
		}
	}()
	log.Printf("HTTP server listening on %s", httpServer.Addr())

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), server.DefaultShutdownTimeout)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("HTTP server shutdown: %w", err)
		}
		return nil
	case err := <-serverDone:
		if err != nil {
			return fmt.Errorf("server stopped with error: %w", err)
		}
		return nil
	}
}

// registerAllTools registers all MCP tools on the server
func registerAllTools(mcpSrv *mcpserver.MCPServer, ctx *server.ServerContext, readOnly bool) error {
	type toolRegistration struct {
		name     string
		register func() error
	}

	registrations := []toolRegistration{
		{
			name: "Gmail",
			register: func() error {
				return gmail_tools.RegisterGmailTools(mcpSrv, ctx, readOnly)
			},
		},
		{
			name: "GitHub",
			register: func() error {
				return github_tools.RegisterGithubTools(mcpSrv, ctx, readOnly)
			},
		},
	}

	for _, reg := range registrations {
		if err := reg.register(); err != nil {
			return fmt.Errorf("failed to register %s: %w", reg.name, err)
		}
	}

	return nil
}
