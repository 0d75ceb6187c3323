package gmail_tools

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/mockbox/internal/server"
	"github.com/teemow/mockbox/internal/tools/common"
)

// RegisterAttachmentTools registers attachment-related tools with the MCP
// server. Attachment tools are read-only.
func RegisterAttachmentTools(s *mcpserver.MCPServer, sc *server.ServerContext) error {
	// Get attachment tool
	getAttachmentTool := mcp.NewTool("gmail_get_attachment",
		mcp.WithDescription("Get an attachment referenced by a Gmail message"),
		withUserID(),
		mcp.WithString("messageId",
			mcp.Required(),
			mcp.Description("The id of the message referencing the attachment"),
		),
		mcp.WithString("attachmentId",
			mcp.Required(),
			mcp.Description("The id of the attachment to retrieve"),
		),
		mcp.WithBoolean("metadataOnly",
			mcp.Description("Return filename, mime type and size without the content (default: false)"),
		),
	)

	s.AddTool(getAttachmentTool, common.InstrumentedToolHandlerWithService(
		"gmail_get_attachment", "gmail", "attachments.get", sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			args := request.GetArguments()

			messageID := stringArg(args, "messageId")
			if messageID == "" {
				return mcp.NewToolResultError("messageId is required"), nil
			}
			attachmentID := stringArg(args, "attachmentId")
			if attachmentID == "" {
				return mcp.NewToolResultError("attachmentId is required"), nil
			}

			userID := userIDFromArgs(args)
			var err error
			var att interface{}
			if boolArg(args, "metadataOnly", false) {
				att, err = sc.GmailStore().GetAttachmentMetadata(userID, messageID, attachmentID)
			} else {
				att, err = sc.GmailStore().GetAttachment(userID, messageID, attachmentID)
			}
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			return common.JSONResult(att)
		}))

	// Attachment stats tool
	statsTool := mcp.NewTool("gmail_attachment_stats",
		mcp.WithDescription("Report totals for the global attachment table (count, bytes, per mime type)"),
	)

	s.AddTool(statsTool, common.InstrumentedToolHandlerWithService(
		"gmail_attachment_stats", "gmail", "attachments.stats", sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return common.JSONResult(sc.GmailStore().AttachmentStatsReport())
		}))

	return nil
}
