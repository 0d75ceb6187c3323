package github_tools

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/mockbox/internal/server"
	"github.com/teemow/mockbox/internal/tools/common"
)

// RegisterBranchTools registers branch tools with the MCP server
func RegisterBranchTools(s *mcpserver.MCPServer, sc *server.ServerContext, readOnly bool) error {
	// List branches tool
	listBranchesTool := mcp.NewTool("github_list_branches",
		mcp.WithDescription("List repository branches sorted by name"),
		mcp.WithString("owner",
			mcp.Required(),
			mcp.Description("Repository owner login"),
		),
		mcp.WithString("repo",
			mcp.Required(),
			mcp.Description("Repository name"),
		),
		mcp.WithNumber("page",
			mcp.Description("Page number, 1-based (default: 1)"),
		),
		mcp.WithNumber("perPage",
			mcp.Description("Results per page (default: 30)"),
		),
	)

	s.AddTool(listBranchesTool, common.InstrumentedToolHandlerWithService(
		"github_list_branches", "github", "list_branches", sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			args := request.GetArguments()
			owner, repo, errResult := ownerRepoFromArgs(args)
			if errResult != nil {
				return errResult, nil
			}
			branches, err := sc.GithubStore().ListBranches(owner, repo,
				intArg(args, "page", 1), intArg(args, "perPage", 30))
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			return common.JSONResult(branches)
		}))

	if readOnly {
		return nil
	}

	// Create branch tool
	createBranchTool := mcp.NewTool("github_create_branch",
		mcp.WithDescription("Create a branch ref pointing at a commit"),
		mcp.WithString("owner",
			mcp.Required(),
			mcp.Description("Repository owner login"),
		),
		mcp.WithString("repo",
			mcp.Required(),
			mcp.Description("Repository name"),
		),
		mcp.WithString("branch",
			mcp.Required(),
			mcp.Description("Name of the branch to create"),
		),
		mcp.WithString("sha",
			mcp.Required(),
			mcp.Description("Commit SHA the new branch points at"),
		),
	)

	s.AddTool(createBranchTool, common.InstrumentedToolHandlerWithService(
		"github_create_branch", "github", "create_branch", sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			args := request.GetArguments()
			owner, repo, errResult := ownerRepoFromArgs(args)
			if errResult != nil {
				return errResult, nil
			}
			ref, err := sc.GithubStore().CreateBranch(owner, repo,
				stringArg(args, "branch"), stringArg(args, "sha"))
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			return common.JSONResult(ref)
		}))

	return nil
}
