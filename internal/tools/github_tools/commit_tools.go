package github_tools

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/mockbox/internal/server"
	"github.com/teemow/mockbox/internal/tools/common"
)

// RegisterCommitTools registers commit tools with the MCP server. Commit
// tools are read-only.
func RegisterCommitTools(s *mcpserver.MCPServer, sc *server.ServerContext) error {
	// List commits tool
	listCommitsTool := mcp.NewTool("github_list_commits",
		mcp.WithDescription("List commits reachable from a branch or commit, newest first"),
		mcp.WithString("owner",
			mcp.Required(),
			mcp.Description("Repository owner login"),
		),
		mcp.WithString("repo",
			mcp.Required(),
			mcp.Description("Repository name"),
		),
		mcp.WithString("sha",
			mcp.Description("Branch name or commit SHA to start from (default: the default branch)"),
		),
		mcp.WithString("path",
			mcp.Description("Only commits touching this file path"),
		),
		mcp.WithNumber("page",
			mcp.Description("Page number, 1-based (default: 1)"),
		),
		mcp.WithNumber("perPage",
			mcp.Description("Results per page (default: 30)"),
		),
	)

	s.AddTool(listCommitsTool, common.InstrumentedToolHandlerWithService(
		"github_list_commits", "github", "list_commits", sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			args := request.GetArguments()
			owner, repo, errResult := ownerRepoFromArgs(args)
			if errResult != nil {
				return errResult, nil
			}
			commits, err := sc.GithubStore().ListCommits(owner, repo,
				stringArg(args, "sha"), stringArg(args, "path"),
				intArg(args, "page", 1), intArg(args, "perPage", 30))
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			return common.JSONResult(commits)
		}))

	// Get commit tool
	getCommitTool := mcp.NewTool("github_get_commit",
		mcp.WithDescription("Get a commit with stats and changed files"),
		mcp.WithString("owner",
			mcp.Required(),
			mcp.Description("Repository owner login"),
		),
		mcp.WithString("repo",
			mcp.Required(),
			mcp.Description("Repository name"),
		),
		mcp.WithString("sha",
			mcp.Required(),
			mcp.Description("Branch name or commit SHA"),
		),
		mcp.WithNumber("page",
			mcp.Description("File-list page number; 0 returns the full file list"),
		),
		mcp.WithNumber("perPage",
			mcp.Description("Files per page when paging (default: 30)"),
		),
	)

	s.AddTool(getCommitTool, common.InstrumentedToolHandlerWithService(
		"github_get_commit", "github", "get_commit", sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			args := request.GetArguments()
			owner, repo, errResult := ownerRepoFromArgs(args)
			if errResult != nil {
				return errResult, nil
			}
			sha := stringArg(args, "sha")
			if sha == "" {
				return mcp.NewToolResultError("sha is required"), nil
			}
			commit, err := sc.GithubStore().GetCommit(owner, repo, sha,
				intArg(args, "page", 0), intArg(args, "perPage", 0))
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			return common.JSONResult(commit)
		}))

	return nil
}
