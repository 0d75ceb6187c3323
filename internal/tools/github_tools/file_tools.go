package github_tools

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/mockbox/internal/github"
	"github.com/teemow/mockbox/internal/server"
	"github.com/teemow/mockbox/internal/tools/common"
)

// RegisterFileTools registers repository-file tools with the MCP server
func RegisterFileTools(s *mcpserver.MCPServer, sc *server.ServerContext, readOnly bool) error {
	// Get file contents tool
	getFileTool := mcp.NewTool("github_get_file_contents",
		mcp.WithDescription("Get the contents of a file or directory in a repository"),
		mcp.WithString("owner",
			mcp.Required(),
			mcp.Description("Repository owner login"),
		),
		mcp.WithString("repo",
			mcp.Required(),
			mcp.Description("Repository name"),
		),
		mcp.WithString("path",
			mcp.Description("File or directory path; '/' or empty lists the repository root"),
		),
		mcp.WithString("ref",
			mcp.Description("Branch, tag or commit SHA (default: the default branch)"),
		),
	)

	s.AddTool(getFileTool, common.InstrumentedToolHandlerWithService(
		"github_get_file_contents", "github", "get_file_contents", sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			args := request.GetArguments()
			owner, repo, errResult := ownerRepoFromArgs(args)
			if errResult != nil {
				return errResult, nil
			}
			path := stringArg(args, "path")
			if path == "" {
				path = "/"
			}
			resp, err := sc.GithubStore().GetFileContents(owner, repo, path, stringArg(args, "ref"))
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			if resp.Entries != nil {
				return common.JSONResult(resp.Entries)
			}
			return common.JSONResult(resp.File)
		}))

	if readOnly {
		return nil
	}

	// Create or update file tool
	createFileTool := mcp.NewTool("github_create_or_update_file",
		mcp.WithDescription("Create a file or update an existing one with a single commit"),
		mcp.WithString("owner",
			mcp.Required(),
			mcp.Description("Repository owner login"),
		),
		mcp.WithString("repo",
			mcp.Required(),
			mcp.Description("Repository name"),
		),
		mcp.WithString("path",
			mcp.Required(),
			mcp.Description("Path of the file to write"),
		),
		mcp.WithString("message",
			mcp.Required(),
			mcp.Description("Commit message"),
		),
		mcp.WithString("content",
			mcp.Required(),
			mcp.Description("New file content, base64-encoded"),
		),
		mcp.WithString("branch",
			mcp.Required(),
			mcp.Description("Branch to commit to"),
		),
		mcp.WithString("sha",
			mcp.Description("Blob SHA of the file being replaced; required when updating an existing file"),
		),
	)

	s.AddTool(createFileTool, common.InstrumentedToolHandlerWithService(
		"github_create_or_update_file", "github", "create_or_update_file", sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			args := request.GetArguments()
			owner, repo, errResult := ownerRepoFromArgs(args)
			if errResult != nil {
				return errResult, nil
			}
			resp, err := sc.GithubStore().CreateOrUpdateFile(owner, repo,
				stringArg(args, "path"), stringArg(args, "message"),
				stringArg(args, "content"), stringArg(args, "branch"),
				stringArg(args, "sha"))
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			return common.JSONResult(resp)
		}))

	// Push files tool
	pushFilesTool := mcp.NewTool("github_push_files",
		mcp.WithDescription("Push several files in one commit on top of the branch head"),
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
			mcp.Description("Branch to push to"),
		),
		mcp.WithString("message",
			mcp.Required(),
			mcp.Description("Commit message"),
		),
		mcp.WithArray("files",
			mcp.Required(),
			mcp.Description("Files to write: objects with path and plain-text content"),
		),
		mcp.WithString("authorDate",
			mcp.Description("ISO 8601 author date override (YYYY-MM-DDTHH:MM:SSZ)"),
		),
		mcp.WithString("committerDate",
			mcp.Description("ISO 8601 committer date override (YYYY-MM-DDTHH:MM:SSZ)"),
		),
	)

	s.AddTool(pushFilesTool, common.InstrumentedToolHandlerWithService(
		"github_push_files", "github", "push_files", sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			args := request.GetArguments()
			owner, repo, errResult := ownerRepoFromArgs(args)
			if errResult != nil {
				return errResult, nil
			}
			files, err := filesFromArgs(args)
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			resp, err := sc.GithubStore().PushFiles(owner, repo,
				stringArg(args, "branch"), files, stringArg(args, "message"),
				stringArg(args, "authorDate"), stringArg(args, "committerDate"))
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			return common.JSONResult(resp)
		}))

	return nil
}

// ownerRepoFromArgs extracts the required owner and repo arguments.
func ownerRepoFromArgs(args map[string]interface{}) (string, string, *mcp.CallToolResult) {
	owner := stringArg(args, "owner")
	if owner == "" {
		return "", "", mcp.NewToolResultError("owner is required")
	}
	repo := stringArg(args, "repo")
	if repo == "" {
		return "", "", mcp.NewToolResultError("repo is required")
	}
	return owner, repo, nil
}

// filesFromArgs parses the files argument of github_push_files.
func filesFromArgs(args map[string]interface{}) ([]github.FileSpec, error) {
	raw, ok := args["files"].([]interface{})
	if !ok {
		return nil, fmt.Errorf("files must be an array of objects with path and content")
	}

	files := make([]github.FileSpec, 0, len(raw))
	for i, item := range raw {
		obj, ok := item.(map[string]interface{})
		if !ok {
			return nil, fmt.Errorf("files[%d] must be an object", i)
		}
		files = append(files, github.FileSpec{
			Path:    stringArg(obj, "path"),
			Content: stringArg(obj, "content"),
		})
	}
	return files, nil
}
