package gmail_tools

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/mockbox/internal/gmail"
	"github.com/teemow/mockbox/internal/server"
	"github.com/teemow/mockbox/internal/tools/common"
)

// RegisterThreadTools registers thread-related tools with the MCP server
func RegisterThreadTools(s *mcpserver.MCPServer, sc *server.ServerContext, readOnly bool) error {
	// Get thread tool
	getThreadTool := mcp.NewTool("gmail_get_thread",
		mcp.WithDescription("Get a Gmail thread with its messages sorted by date"),
		withUserID(),
		mcp.WithString("threadId",
			mcp.Required(),
			mcp.Description("The id of the thread to retrieve"),
		),
		mcp.WithString("format",
			mcp.Description("Response format: minimal, metadata or full (default: full)"),
		),
		mcp.WithString("metadataHeaders",
			mcp.Description("Header names to include with format=metadata, comma-separated"),
		),
	)

	s.AddTool(getThreadTool, common.InstrumentedToolHandlerWithService(
		"gmail_get_thread", "gmail", "threads.get", sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			args := request.GetArguments()
			threadID := stringArg(args, "threadId")
			if threadID == "" {
				return mcp.NewToolResultError("threadId is required"), nil
			}
			format := gmail.FormatFull
			if f := stringArg(args, "format"); f != "" {
				format = gmail.Format(f)
			}
			thread, err := sc.GmailStore().GetThread(userIDFromArgs(args), threadID, format,
				stringSliceArg(args, "metadataHeaders"))
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			return common.JSONResult(thread)
		}))

	// List threads tool
	listThreadsTool := mcp.NewTool("gmail_list_threads",
		mcp.WithDescription("List Gmail threads matching a query; a thread matches if any of its messages match"),
		withUserID(),
		mcp.WithString("q",
			mcp.Description("Gmail search query (e.g., 'in:inbox', 'from:user@example.com')"),
		),
		mcp.WithString("labelIds",
			mcp.Description("Label ids the threads must carry, comma-separated"),
		),
		mcp.WithNumber("maxResults",
			mcp.Description("Maximum number of results to return, 1-500 (default: 100)"),
		),
		mcp.WithBoolean("includeSpamTrash",
			mcp.Description("Include threads in TRASH and SPAM (default: false)"),
		),
	)

	s.AddTool(listThreadsTool, common.InstrumentedToolHandlerWithService(
		"gmail_list_threads", "gmail", "threads.list", sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			args := request.GetArguments()
			resp, err := sc.GmailStore().ListThreads(userIDFromArgs(args), gmail.ListThreadsRequest{
				Query:            stringArg(args, "q"),
				LabelIDs:         stringSliceArg(args, "labelIds"),
				MaxResults:       intArg(args, "maxResults", 0),
				IncludeSpamTrash: boolArg(args, "includeSpamTrash", false),
			})
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			return common.JSONResult(resp)
		}))

	if readOnly {
		return nil
	}

	// Modify thread tool
	modifyThreadTool := mcp.NewTool("gmail_modify_thread",
		mcp.WithDescription("Add and/or remove labels on every message of a Gmail thread"),
		withUserID(),
		mcp.WithString("threadId",
			mcp.Required(),
			mcp.Description("The id of the thread to modify"),
		),
		mcp.WithString("addLabelIds", mcp.Description("Label ids to add, comma-separated")),
		mcp.WithString("removeLabelIds", mcp.Description("Label ids to remove, comma-separated")),
	)

	s.AddTool(modifyThreadTool, common.InstrumentedToolHandlerWithService(
		"gmail_modify_thread", "gmail", "threads.modify", sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			args := request.GetArguments()
			threadID := stringArg(args, "threadId")
			if threadID == "" {
				return mcp.NewToolResultError("threadId is required"), nil
			}
			thread, err := sc.GmailStore().ModifyThread(userIDFromArgs(args), threadID,
				stringSliceArg(args, "addLabelIds"), stringSliceArg(args, "removeLabelIds"))
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			return common.JSONResult(thread)
		}))

	// Trash thread tool
	trashThreadTool := mcp.NewTool("gmail_trash_thread",
		mcp.WithDescription("Move every message of a Gmail thread to TRASH"),
		withUserID(),
		mcp.WithString("threadId",
			mcp.Required(),
			mcp.Description("The id of the thread to trash"),
		),
	)

	s.AddTool(trashThreadTool, common.InstrumentedToolHandlerWithService(
		"gmail_trash_thread", "gmail", "threads.trash", sc,
		handleThreadStateChange(sc, sc.GmailStore().TrashThread)))

	// Untrash thread tool
	untrashThreadTool := mcp.NewTool("gmail_untrash_thread",
		mcp.WithDescription("Restore every message of a Gmail thread from TRASH"),
		withUserID(),
		mcp.WithString("threadId",
			mcp.Required(),
			mcp.Description("The id of the thread to untrash"),
		),
	)

	s.AddTool(untrashThreadTool, common.InstrumentedToolHandlerWithService(
		"gmail_untrash_thread", "gmail", "threads.untrash", sc,
		handleThreadStateChange(sc, sc.GmailStore().UntrashThread)))

	// Delete thread tool
	deleteThreadTool := mcp.NewTool("gmail_delete_thread",
		mcp.WithDescription("Permanently delete a Gmail thread and all of its messages"),
		withUserID(),
		mcp.WithString("threadId",
			mcp.Required(),
			mcp.Description("The id of the thread to delete"),
		),
	)

	s.AddTool(deleteThreadTool, common.InstrumentedToolHandlerWithService(
		"gmail_delete_thread", "gmail", "threads.delete", sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			args := request.GetArguments()
			threadID := stringArg(args, "threadId")
			if threadID == "" {
				return mcp.NewToolResultError("threadId is required"), nil
			}
			if err := sc.GmailStore().DeleteThread(userIDFromArgs(args), threadID); err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			return mcp.NewToolResultText(fmt.Sprintf("Thread %s deleted successfully", threadID)), nil
		}))

	return nil
}

func handleThreadStateChange(sc *server.ServerContext, op func(string, string) (*gmail.RenderedThread, error)) common.ToolHandler {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := request.GetArguments()
		threadID := stringArg(args, "threadId")
		if threadID == "" {
			return mcp.NewToolResultError("threadId is required"), nil
		}
		thread, err := op(userIDFromArgs(args), threadID)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return common.JSONResult(thread)
	}
}
