package github_tools

import (
	"fmt"

	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/mockbox/internal/server"
)

// stringArg returns a string argument or "" when absent.
func stringArg(args map[string]interface{}, name string) string {
	v, _ := args[name].(string)
	return v
}

// boolArg returns a bool argument or def when absent.
func boolArg(args map[string]interface{}, name string, def bool) bool {
	if v, ok := args[name].(bool); ok {
		return v
	}
	return def
}

// intArg returns an int argument or def when absent. JSON numbers arrive as
// float64.
func intArg(args map[string]interface{}, name string, def int) int {
	if v, ok := args[name].(float64); ok {
		return int(v)
	}
	return def
}

// RegisterGithubTools registers all GitHub simulation tools with the MCP
// server. Write tools are skipped in read-only mode.
func RegisterGithubTools(s *mcpserver.MCPServer, sc *server.ServerContext, readOnly bool) error {
	if err := RegisterFileTools(s, sc, readOnly); err != nil {
		return fmt.Errorf("failed to register file tools: %w", err)
	}
	if err := RegisterRepositoryTools(s, sc, readOnly); err != nil {
		return fmt.Errorf("failed to register repository tools: %w", err)
	}
	if err := RegisterBranchTools(s, sc, readOnly); err != nil {
		return fmt.Errorf("failed to register branch tools: %w", err)
	}
	if err := RegisterCommitTools(s, sc); err != nil {
		return fmt.Errorf("failed to register commit tools: %w", err)
	}
	if err := RegisterSearchTools(s, sc); err != nil {
		return fmt.Errorf("failed to register search tools: %w", err)
	}
	return nil
}
