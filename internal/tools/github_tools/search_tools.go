package github_tools

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/mockbox/internal/server"
	"github.com/teemow/mockbox/internal/tools/common"
)

// RegisterSearchTools registers code search tools with the MCP server.
// Search tools are read-only.
func RegisterSearchTools(s *mcpserver.MCPServer, sc *server.ServerContext) error {
	searchCodeTool := mcp.NewTool("github_search_code",
		mcp.WithDescription("Search file contents at the default branch head; supports quoted phrases and qualifiers like language:, repo:, path:"),
		mcp.WithString("query",
			mcp.Required(),
			mcp.Description("Search query"),
		),
		mcp.WithString("sort",
			mcp.Description("'best match' or 'indexed' (default: best match)"),
		),
		mcp.WithString("order",
			mcp.Description("asc or desc, only meaningful with sort=indexed (default: desc)"),
		),
		mcp.WithNumber("page",
			mcp.Description("Page number, 1-based (default: 1)"),
		),
		mcp.WithNumber("perPage",
			mcp.Description("Results per page (default: 30)"),
		),
	)

	s.AddTool(searchCodeTool, common.InstrumentedToolHandlerWithService(
		"github_search_code", "github", "search_code", sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			args := request.GetArguments()
			resp, err := sc.GithubStore().SearchCode(
				stringArg(args, "query"), stringArg(args, "sort"), stringArg(args, "order"),
				intArg(args, "page", 1), intArg(args, "perPage", 30))
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			return common.JSONResult(resp)
		}))

	return nil
}
