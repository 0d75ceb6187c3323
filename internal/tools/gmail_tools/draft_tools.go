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

// RegisterDraftTools registers draft-related tools with the MCP server
func RegisterDraftTools(s *mcpserver.MCPServer, sc *server.ServerContext, readOnly bool) error {
	// Get draft tool
	getDraftTool := mcp.NewTool("gmail_get_draft",
		mcp.WithDescription("Get a Gmail draft by id"),
		withUserID(),
		mcp.WithString("draftId",
			mcp.Required(),
			mcp.Description("The id of the draft to retrieve"),
		),
		mcp.WithString("format",
			mcp.Description("Response format: minimal, metadata, full or raw (default: full)"),
		),
	)

	s.AddTool(getDraftTool, common.InstrumentedToolHandlerWithService(
		"gmail_get_draft", "gmail", "drafts.get", sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			args := request.GetArguments()
			draftID := stringArg(args, "draftId")
			if draftID == "" {
				return mcp.NewToolResultError("draftId is required"), nil
			}
			format := gmail.FormatFull
			if f := stringArg(args, "format"); f != "" {
				format = gmail.Format(f)
			}
			draft, err := sc.GmailStore().GetDraft(userIDFromArgs(args), draftID, format)
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			return common.JSONResult(draft)
		}))

	// List drafts tool
	listDraftsTool := mcp.NewTool("gmail_list_drafts",
		mcp.WithDescription("List Gmail drafts, optionally filtered by a search query"),
		withUserID(),
		mcp.WithString("q",
			mcp.Description("Gmail search query matched against the draft messages"),
		),
		mcp.WithNumber("maxResults",
			mcp.Description("Maximum number of results to return, 1-500 (default: 100)"),
		),
	)

	s.AddTool(listDraftsTool, common.InstrumentedToolHandlerWithService(
		"gmail_list_drafts", "gmail", "drafts.list", sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			args := request.GetArguments()
			resp, err := sc.GmailStore().ListDrafts(userIDFromArgs(args),
				stringArg(args, "q"), intArg(args, "maxResults", 0))
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			return common.JSONResult(resp)
		}))

	if readOnly {
		return nil
	}

	// Create draft tool
	createDraftTool := mcp.NewTool("gmail_create_draft",
		mcp.WithDescription("Create a Gmail draft from a raw message or structured fields"),
		withUserID(),
		mcp.WithString("raw", mcp.Description("Base64url-encoded RFC 2822 message; takes precedence over the structured fields")),
		mcp.WithString("from", mcp.Description("Sender address")),
		mcp.WithString("to", mcp.Description("Recipient address(es), comma-separated")),
		mcp.WithString("cc", mcp.Description("CC address(es), comma-separated")),
		mcp.WithString("bcc", mcp.Description("BCC address(es), comma-separated")),
		mcp.WithString("subject", mcp.Description("Message subject")),
		mcp.WithString("body", mcp.Description("Message body text")),
		mcp.WithString("threadId", mcp.Description("Existing thread to attach the draft to")),
		mcp.WithArray("attachments", mcp.Description("Attachments: objects with filename, mimeType and base64 data")),
	)

	s.AddTool(createDraftTool, common.InstrumentedToolHandlerWithService(
		"gmail_create_draft", "gmail", "drafts.create", sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			args := request.GetArguments()
			req, err := messageRequestFromArgs(args)
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			draft, err := sc.GmailStore().CreateDraft(userIDFromArgs(args), req)
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			return common.JSONResult(draft)
		}))

	// Update draft tool
	updateDraftTool := mcp.NewTool("gmail_update_draft",
		mcp.WithDescription("Replace the message of an existing Gmail draft"),
		withUserID(),
		mcp.WithString("draftId",
			mcp.Required(),
			mcp.Description("The id of the draft to update"),
		),
		mcp.WithString("raw", mcp.Description("Base64url-encoded RFC 2822 message; takes precedence over the structured fields")),
		mcp.WithString("from", mcp.Description("Sender address")),
		mcp.WithString("to", mcp.Description("Recipient address(es), comma-separated")),
		mcp.WithString("cc", mcp.Description("CC address(es), comma-separated")),
		mcp.WithString("bcc", mcp.Description("BCC address(es), comma-separated")),
		mcp.WithString("subject", mcp.Description("Message subject")),
		mcp.WithString("body", mcp.Description("Message body text")),
		mcp.WithString("threadId", mcp.Description("Thread to attach the draft to")),
		mcp.WithArray("attachments", mcp.Description("Attachments: objects with filename, mimeType and base64 data")),
	)

	s.AddTool(updateDraftTool, common.InstrumentedToolHandlerWithService(
		"gmail_update_draft", "gmail", "drafts.update", sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			args := request.GetArguments()
			draftID := stringArg(args, "draftId")
			if draftID == "" {
				return mcp.NewToolResultError("draftId is required"), nil
			}
			req, err := messageRequestFromArgs(args)
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			draft, err := sc.GmailStore().UpdateDraft(userIDFromArgs(args), draftID, req)
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			return common.JSONResult(draft)
		}))

	// Delete draft tool
	deleteDraftTool := mcp.NewTool("gmail_delete_draft",
		mcp.WithDescription("Delete a Gmail draft"),
		withUserID(),
		mcp.WithString("draftId",
			mcp.Required(),
			mcp.Description("The id of the draft to delete"),
		),
	)

	s.AddTool(deleteDraftTool, common.InstrumentedToolHandlerWithService(
		"gmail_delete_draft", "gmail", "drafts.delete", sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			args := request.GetArguments()
			draftID := stringArg(args, "draftId")
			if draftID == "" {
				return mcp.NewToolResultError("draftId is required"), nil
			}
			if err := sc.GmailStore().DeleteDraft(userIDFromArgs(args), draftID); err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			return mcp.NewToolResultText(fmt.Sprintf("Draft %s deleted successfully", draftID)), nil
		}))

	// Send draft tool
	sendDraftTool := mcp.NewTool("gmail_send_draft",
		mcp.WithDescription("Send an existing Gmail draft; the draft is deleted and the sent message returned"),
		withUserID(),
		mcp.WithString("draftId",
			mcp.Required(),
			mcp.Description("The id of the draft to send"),
		),
	)

	s.AddTool(sendDraftTool, common.InstrumentedToolHandlerWithService(
		"gmail_send_draft", "gmail", "drafts.send", sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			args := request.GetArguments()
			draftID := stringArg(args, "draftId")
			if draftID == "" {
				return mcp.NewToolResultError("draftId is required"), nil
			}
			ref, err := sc.GmailStore().SendDraft(userIDFromArgs(args), draftID)
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			return common.JSONResult(ref)
		}))

	return nil
}
