package gmail_tools

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/mockbox/internal/gmail"
	"github.com/teemow/mockbox/internal/server"
	"github.com/teemow/mockbox/internal/tools/batch"
	"github.com/teemow/mockbox/internal/tools/common"
)

// RegisterMessageTools registers message-related tools with the MCP server
func RegisterMessageTools(s *mcpserver.MCPServer, sc *server.ServerContext, readOnly bool) error {
	// Get message tool
	getMessageTool := mcp.NewTool("gmail_get_message",
		mcp.WithDescription("Get a Gmail message by id"),
		withUserID(),
		mcp.WithString("messageId",
			mcp.Required(),
			mcp.Description("The id of the message to retrieve"),
		),
		mcp.WithString("format",
			mcp.Description("Response format: minimal, metadata, full or raw (default: full)"),
		),
		mcp.WithString("metadataHeaders",
			mcp.Description("Header names to include with format=metadata, comma-separated"),
		),
	)

	s.AddTool(getMessageTool, common.InstrumentedToolHandlerWithService(
		"gmail_get_message", "gmail", "messages.get", sc, handleGetMessage(sc)))

	// List messages tool
	listMessagesTool := mcp.NewTool("gmail_list_messages",
		mcp.WithDescription("List Gmail messages matching a query"),
		withUserID(),
		mcp.WithString("q",
			mcp.Description("Gmail search query (e.g., 'in:inbox', 'from:user@example.com')"),
		),
		mcp.WithString("labelIds",
			mcp.Description("Label ids the messages must carry, comma-separated"),
		),
		mcp.WithNumber("maxResults",
			mcp.Description("Maximum number of results to return, 1-500 (default: 100)"),
		),
		mcp.WithBoolean("includeSpamTrash",
			mcp.Description("Include messages in TRASH and SPAM (default: false)"),
		),
	)

	s.AddTool(listMessagesTool, common.InstrumentedToolHandlerWithService(
		"gmail_list_messages", "gmail", "messages.list", sc, handleListMessages(sc)))

	if readOnly {
		return nil
	}

	// Send message tool
	sendMessageTool := mcp.NewTool("gmail_send_message",
		mcp.WithDescription("Send a message: a raw base64url RFC 2822 message, or to/subject/body fields with optional attachments"),
		withUserID(),
		mcp.WithString("raw", mcp.Description("Base64url-encoded RFC 2822 message; takes precedence over the structured fields")),
		mcp.WithString("from", mcp.Description("Sender address (default: the user's profile address)")),
		mcp.WithString("to", mcp.Description("Recipient address(es), comma-separated")),
		mcp.WithString("cc", mcp.Description("CC address(es), comma-separated")),
		mcp.WithString("bcc", mcp.Description("BCC address(es), comma-separated")),
		mcp.WithString("subject", mcp.Description("Message subject")),
		mcp.WithString("body", mcp.Description("Message body text")),
		mcp.WithString("threadId", mcp.Description("Existing thread to append to")),
		mcp.WithString("internalDate", mcp.Description("Epoch milliseconds override for the stored date")),
		mcp.WithArray("attachments", mcp.Description("Attachments: objects with filename, mimeType and base64 data")),
	)

	s.AddTool(sendMessageTool, common.InstrumentedToolHandlerWithService(
		"gmail_send_message", "gmail", "messages.send", sc, handleStoreMessage(sc, sc.GmailStore().SendMessage)))

	// Insert message tool (like receiving a message, skips the sent path)
	insertMessageTool := mcp.NewTool("gmail_insert_message",
		mcp.WithDescription("Insert a message directly into the mailbox, like receiving it (no SENT label)"),
		withUserID(),
		mcp.WithString("raw", mcp.Description("Base64url-encoded RFC 2822 message; takes precedence over the structured fields")),
		mcp.WithString("from", mcp.Description("Sender address")),
		mcp.WithString("to", mcp.Description("Recipient address(es), comma-separated")),
		mcp.WithString("cc", mcp.Description("CC address(es), comma-separated")),
		mcp.WithString("bcc", mcp.Description("BCC address(es), comma-separated")),
		mcp.WithString("subject", mcp.Description("Message subject")),
		mcp.WithString("body", mcp.Description("Message body text")),
		mcp.WithString("threadId", mcp.Description("Existing thread to append to")),
		mcp.WithString("labelIds", mcp.Description("Label ids to apply, comma-separated")),
		mcp.WithString("internalDate", mcp.Description("Epoch milliseconds override for the stored date")),
		mcp.WithArray("attachments", mcp.Description("Attachments: objects with filename, mimeType and base64 data")),
	)

	s.AddTool(insertMessageTool, common.InstrumentedToolHandlerWithService(
		"gmail_insert_message", "gmail", "messages.insert", sc, handleStoreMessage(sc, sc.GmailStore().InsertMessage)))

	// Import message tool
	importMessageTool := mcp.NewTool("gmail_import_message",
		mcp.WithDescription("Import a message into the mailbox (same semantics as insert)"),
		withUserID(),
		mcp.WithString("raw", mcp.Description("Base64url-encoded RFC 2822 message; takes precedence over the structured fields")),
		mcp.WithString("from", mcp.Description("Sender address")),
		mcp.WithString("to", mcp.Description("Recipient address(es), comma-separated")),
		mcp.WithString("subject", mcp.Description("Message subject")),
		mcp.WithString("body", mcp.Description("Message body text")),
		mcp.WithString("threadId", mcp.Description("Existing thread to append to")),
		mcp.WithString("labelIds", mcp.Description("Label ids to apply, comma-separated")),
		mcp.WithString("internalDate", mcp.Description("Epoch milliseconds override for the stored date")),
		mcp.WithArray("attachments", mcp.Description("Attachments: objects with filename, mimeType and base64 data")),
	)

	s.AddTool(importMessageTool, common.InstrumentedToolHandlerWithService(
		"gmail_import_message", "gmail", "messages.import", sc, handleStoreMessage(sc, sc.GmailStore().ImportMessage)))

	// Modify message tool
	modifyMessageTool := mcp.NewTool("gmail_modify_message",
		mcp.WithDescription("Add and/or remove labels on a Gmail message"),
		withUserID(),
		mcp.WithString("messageId",
			mcp.Required(),
			mcp.Description("The id of the message to modify"),
		),
		mcp.WithString("addLabelIds", mcp.Description("Label ids to add, comma-separated")),
		mcp.WithString("removeLabelIds", mcp.Description("Label ids to remove, comma-separated")),
	)

	s.AddTool(modifyMessageTool, common.InstrumentedToolHandlerWithService(
		"gmail_modify_message", "gmail", "messages.modify", sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			args := request.GetArguments()
			messageID := stringArg(args, "messageId")
			if messageID == "" {
				return mcp.NewToolResultError("messageId is required"), nil
			}
			msg, err := sc.GmailStore().ModifyMessage(userIDFromArgs(args), messageID,
				stringSliceArg(args, "addLabelIds"), stringSliceArg(args, "removeLabelIds"))
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			return common.JSONResult(msg)
		}))

	// Trash messages tool (supports single or multiple messages)
	trashMessagesTool := mcp.NewTool("gmail_trash_messages",
		mcp.WithDescription("Move one or more Gmail messages to TRASH"),
		withUserID(),
		mcp.WithString("messageIds",
			mcp.Required(),
			mcp.Description("Message id (string) or array of message ids to trash"),
		),
	)

	s.AddTool(trashMessagesTool, common.InstrumentedToolHandlerWithService(
		"gmail_trash_messages", "gmail", "messages.trash", sc,
		handleMessageBatch(sc, "trashed", func(userID, messageID string) error {
			_, err := sc.GmailStore().TrashMessage(userID, messageID)
			return err
		})))

	// Untrash messages tool
	untrashMessagesTool := mcp.NewTool("gmail_untrash_messages",
		mcp.WithDescription("Restore one or more Gmail messages from TRASH"),
		withUserID(),
		mcp.WithString("messageIds",
			mcp.Required(),
			mcp.Description("Message id (string) or array of message ids to untrash"),
		),
	)

	s.AddTool(untrashMessagesTool, common.InstrumentedToolHandlerWithService(
		"gmail_untrash_messages", "gmail", "messages.untrash", sc,
		handleMessageBatch(sc, "untrashed", func(userID, messageID string) error {
			_, err := sc.GmailStore().UntrashMessage(userID, messageID)
			return err
		})))

	// Delete message tool
	deleteMessageTool := mcp.NewTool("gmail_delete_message",
		mcp.WithDescription("Permanently delete a Gmail message (bypasses TRASH)"),
		withUserID(),
		mcp.WithString("messageId",
			mcp.Required(),
			mcp.Description("The id of the message to delete"),
		),
	)

	s.AddTool(deleteMessageTool, common.InstrumentedToolHandlerWithService(
		"gmail_delete_message", "gmail", "messages.delete", sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			args := request.GetArguments()
			messageID := stringArg(args, "messageId")
			if messageID == "" {
				return mcp.NewToolResultError("messageId is required"), nil
			}
			if err := sc.GmailStore().DeleteMessage(userIDFromArgs(args), messageID); err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			return mcp.NewToolResultText(fmt.Sprintf("Message %s deleted successfully", messageID)), nil
		}))

	// Batch modify tool
	batchModifyTool := mcp.NewTool("gmail_batch_modify_messages",
		mcp.WithDescription("Add and/or remove labels on several Gmail messages at once; fails as a unit if any message is unknown"),
		withUserID(),
		mcp.WithString("messageIds",
			mcp.Required(),
			mcp.Description("Message id (string) or array of message ids to modify"),
		),
		mcp.WithString("addLabelIds", mcp.Description("Label ids to add, comma-separated")),
		mcp.WithString("removeLabelIds", mcp.Description("Label ids to remove, comma-separated")),
	)

	s.AddTool(batchModifyTool, common.InstrumentedToolHandlerWithService(
		"gmail_batch_modify_messages", "gmail", "messages.batchModify", sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			args := request.GetArguments()
			messageIDs, err := batch.ParseStringOrArray(args["messageIds"], "messageIds")
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			if err := sc.GmailStore().BatchModifyMessages(userIDFromArgs(args), messageIDs,
				stringSliceArg(args, "addLabelIds"), stringSliceArg(args, "removeLabelIds")); err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			return mcp.NewToolResultText(fmt.Sprintf("Modified %d message(s)", len(messageIDs))), nil
		}))

	// Batch delete tool
	batchDeleteTool := mcp.NewTool("gmail_batch_delete_messages",
		mcp.WithDescription("Permanently delete several Gmail messages at once; fails as a unit if any message is unknown"),
		withUserID(),
		mcp.WithString("messageIds",
			mcp.Required(),
			mcp.Description("Message id (string) or array of message ids to delete"),
		),
	)

	s.AddTool(batchDeleteTool, common.InstrumentedToolHandlerWithService(
		"gmail_batch_delete_messages", "gmail", "messages.batchDelete", sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			args := request.GetArguments()
			messageIDs, err := batch.ParseStringOrArray(args["messageIds"], "messageIds")
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			if err := sc.GmailStore().BatchDeleteMessages(userIDFromArgs(args), messageIDs); err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			return mcp.NewToolResultText(fmt.Sprintf("Deleted %d message(s)", len(messageIDs))), nil
		}))

	return nil
}

func handleGetMessage(sc *server.ServerContext) common.ToolHandler {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := request.GetArguments()

		messageID := stringArg(args, "messageId")
		if messageID == "" {
			return mcp.NewToolResultError("messageId is required"), nil
		}

		format := gmail.FormatFull
		if f := stringArg(args, "format"); f != "" {
			format = gmail.Format(f)
		}

		msg, err := sc.GmailStore().GetMessage(userIDFromArgs(args), messageID, format,
			stringSliceArg(args, "metadataHeaders"))
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return common.JSONResult(msg)
	}
}

func handleListMessages(sc *server.ServerContext) common.ToolHandler {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := request.GetArguments()

		resp, err := sc.GmailStore().ListMessages(userIDFromArgs(args), gmail.ListMessagesRequest{
			Query:            stringArg(args, "q"),
			LabelIDs:         stringSliceArg(args, "labelIds"),
			MaxResults:       intArg(args, "maxResults", 0),
			IncludeSpamTrash: boolArg(args, "includeSpamTrash", false),
		})
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return common.JSONResult(resp)
	}
}

// handleStoreMessage builds a handler for the send/insert/import family; they
// share the argument shape and differ only in the store method.
func handleStoreMessage(sc *server.ServerContext, store func(string, gmail.SendMessageRequest) (*gmail.MessageRef, error)) common.ToolHandler {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := request.GetArguments()

		req, err := messageRequestFromArgs(args)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		ref, err := store(userIDFromArgs(args), req)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return common.JSONResult(ref)
	}
}

// handleMessageBatch builds a handler that applies a per-message operation to
// a string-or-array messageIds argument with per-id results.
func handleMessageBatch(sc *server.ServerContext, verb string, op func(userID, messageID string) error) common.ToolHandler {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := request.GetArguments()

		messageIDs, err := batch.ParseStringOrArray(args["messageIds"], "messageIds")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		userID := userIDFromArgs(args)
		results := batch.ProcessBatch(messageIDs, func(messageID string) (string, error) {
			if err := op(userID, messageID); err != nil {
				return "", err
			}
			return fmt.Sprintf("Message %s %s successfully", messageID, verb), nil
		})

		return mcp.NewToolResultText(batch.FormatResults(results)), nil
	}
}
