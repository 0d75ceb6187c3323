package github_tools

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/mockbox/internal/server"
	"github.com/teemow/mockbox/internal/tools/common"
)

// RegisterRepositoryTools registers repository-level tools with the MCP server
func RegisterRepositoryTools(s *mcpserver.MCPServer, sc *server.ServerContext, readOnly bool) error {
	// Search repositories tool
	searchReposTool := mcp.NewTool("github_search_repositories",
		mcp.WithDescription("Search repositories with GitHub query syntax (terms plus qualifiers like language:, user:, stars:)"),
		mcp.WithString("query",
			mcp.Required(),
			mcp.Description("Search query"),
		),
		mcp.WithString("sort",
			mcp.Description("Sort by stars, forks or updated (default: best match)"),
		),
		mcp.WithString("order",
			mcp.Description("asc or desc (default: desc)"),
		),
		mcp.WithNumber("page",
			mcp.Description("Page number, 1-based (default: 1)"),
		),
		mcp.WithNumber("perPage",
			mcp.Description("Results per page (default: 30)"),
		),
	)

	s.AddTool(searchReposTool, common.InstrumentedToolHandlerWithService(
		"github_search_repositories", "github", "search_repositories", sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			args := request.GetArguments()
			resp, err := sc.GithubStore().SearchRepositories(
				stringArg(args, "query"), stringArg(args, "sort"), stringArg(args, "order"),
				intArg(args, "page", 1), intArg(args, "perPage", 30))
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			return common.JSONResult(resp)
		}))

	if readOnly {
		return nil
	}

	// Create repository tool
	createRepoTool := mcp.NewTool("github_create_repository",
		mcp.WithDescription("Create a repository owned by the authenticated user"),
		mcp.WithString("name",
			mcp.Required(),
			mcp.Description("Repository name"),
		),
		mcp.WithString("description",
			mcp.Description("Repository description"),
		),
		mcp.WithBoolean("private",
			mcp.Description("Create as private (default: false)"),
		),
		mcp.WithBoolean("autoInit",
			mcp.Description("Create an initial commit with a README on 'main' (default: false)"),
		),
	)

	s.AddTool(createRepoTool, common.InstrumentedToolHandlerWithService(
		"github_create_repository", "github", "create_repository", sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			args := request.GetArguments()
			name := stringArg(args, "name")
			if name == "" {
				return mcp.NewToolResultError("name is required"), nil
			}
			resp, err := sc.GithubStore().CreateRepository(name,
				stringArg(args, "description"),
				boolArg(args, "private", false),
				boolArg(args, "autoInit", false))
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			return common.JSONResult(resp)
		}))

	// Fork repository tool
	forkRepoTool := mcp.NewTool("github_fork_repository",
		mcp.WithDescription("Fork a repository to the authenticated user or an organization"),
		mcp.WithString("owner",
			mcp.Required(),
			mcp.Description("Owner of the repository to fork"),
		),
		mcp.WithString("repo",
			mcp.Required(),
			mcp.Description("Name of the repository to fork"),
		),
		mcp.WithString("organization",
			mcp.Description("Organization to fork into (default: the authenticated user)"),
		),
	)

	s.AddTool(forkRepoTool, common.InstrumentedToolHandlerWithService(
		"github_fork_repository", "github", "fork_repository", sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			args := request.GetArguments()
			owner, repo, errResult := ownerRepoFromArgs(args)
			if errResult != nil {
				return errResult, nil
			}
			resp, err := sc.GithubStore().ForkRepository(owner, repo, stringArg(args, "organization"))
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			return common.JSONResult(resp)
		}))

	return nil
}
