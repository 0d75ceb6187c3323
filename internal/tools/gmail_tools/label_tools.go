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

// RegisterLabelTools registers label-related tools with the MCP server
func RegisterLabelTools(s *mcpserver.MCPServer, sc *server.ServerContext, readOnly bool) error {
	// Get label tool
	getLabelTool := mcp.NewTool("gmail_get_label",
		mcp.WithDescription("Get a Gmail label with its live message and thread statistics"),
		withUserID(),
		mcp.WithString("labelId",
			mcp.Required(),
			mcp.Description("The id of the label to retrieve"),
		),
	)

	s.AddTool(getLabelTool, common.InstrumentedToolHandlerWithService(
		"gmail_get_label", "gmail", "labels.get", sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			args := request.GetArguments()
			labelID := stringArg(args, "labelId")
			if labelID == "" {
				return mcp.NewToolResultError("labelId is required"), nil
			}
			label, err := sc.GmailStore().GetLabel(userIDFromArgs(args), labelID)
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			return common.JSONResult(label)
		}))

	// List labels tool
	listLabelsTool := mcp.NewTool("gmail_list_labels",
		mcp.WithDescription("List all Gmail labels, system labels first"),
		withUserID(),
	)

	s.AddTool(listLabelsTool, common.InstrumentedToolHandlerWithService(
		"gmail_list_labels", "gmail", "labels.list", sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			args := request.GetArguments()
			labels, err := sc.GmailStore().ListLabels(userIDFromArgs(args))
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			return common.JSONResult(map[string]interface{}{"labels": labels})
		}))

	// Verify label counts tool (diagnostic, read by default; fix requires write mode)
	verifyTool := mcp.NewTool("gmail_verify_label_counts",
		mcp.WithDescription("Recompute label statistics from messages and report drift; set fix=true to repair"),
		withUserID(),
		mcp.WithBoolean("fix",
			mcp.Description("Repair drifted counts instead of only reporting them (requires write mode)"),
		),
	)

	s.AddTool(verifyTool, common.InstrumentedToolHandlerWithService(
		"gmail_verify_label_counts", "gmail", "labels.verifyCounts", sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			args := request.GetArguments()
			fix := boolArg(args, "fix", false)
			if fix && readOnly {
				return mcp.NewToolResultError("fix=true is not available in read-only mode"), nil
			}
			drift, err := sc.GmailStore().VerifyLabelCounts(userIDFromArgs(args), fix)
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			return common.JSONResult(map[string]interface{}{"drift": drift, "fixed": fix})
		}))

	if readOnly {
		return nil
	}

	// Create label tool
	createLabelTool := mcp.NewTool("gmail_create_label",
		mcp.WithDescription("Create a user label"),
		withUserID(),
		mcp.WithString("name",
			mcp.Required(),
			mcp.Description("Label name; system label names are reserved"),
		),
		mcp.WithString("messageListVisibility", mcp.Description("show or hide (default: show)")),
		mcp.WithString("labelListVisibility", mcp.Description("labelShow, labelHide or labelShowIfUnread (default: labelShow)")),
	)

	s.AddTool(createLabelTool, common.InstrumentedToolHandlerWithService(
		"gmail_create_label", "gmail", "labels.create", sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			args := request.GetArguments()
			label, err := sc.GmailStore().CreateLabel(userIDFromArgs(args), gmail.LabelInput{
				Name:                  stringArg(args, "name"),
				MessageListVisibility: stringArg(args, "messageListVisibility"),
				LabelListVisibility:   stringArg(args, "labelListVisibility"),
			})
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			return common.JSONResult(label)
		}))

	// Update label tool
	updateLabelTool := mcp.NewTool("gmail_update_label",
		mcp.WithDescription("Rename a user label or change its visibility; system labels are immutable"),
		withUserID(),
		mcp.WithString("labelId",
			mcp.Required(),
			mcp.Description("The id of the label to update"),
		),
		mcp.WithString("name", mcp.Description("New label name")),
		mcp.WithString("messageListVisibility", mcp.Description("show or hide")),
		mcp.WithString("labelListVisibility", mcp.Description("labelShow, labelHide or labelShowIfUnread")),
	)

	s.AddTool(updateLabelTool, common.InstrumentedToolHandlerWithService(
		"gmail_update_label", "gmail", "labels.update", sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			args := request.GetArguments()
			labelID := stringArg(args, "labelId")
			if labelID == "" {
				return mcp.NewToolResultError("labelId is required"), nil
			}
			label, err := sc.GmailStore().UpdateLabel(userIDFromArgs(args), labelID, gmail.LabelInput{
				Name:                  stringArg(args, "name"),
				MessageListVisibility: stringArg(args, "messageListVisibility"),
				LabelListVisibility:   stringArg(args, "labelListVisibility"),
			})
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			return common.JSONResult(label)
		}))

	// Delete label tool
	deleteLabelTool := mcp.NewTool("gmail_delete_label",
		mcp.WithDescription("Delete a user label and remove it from every message and draft"),
		withUserID(),
		mcp.WithString("labelId",
			mcp.Required(),
			mcp.Description("The id of the label to delete"),
		),
	)

	s.AddTool(deleteLabelTool, common.InstrumentedToolHandlerWithService(
		"gmail_delete_label", "gmail", "labels.delete", sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			args := request.GetArguments()
			labelID := stringArg(args, "labelId")
			if labelID == "" {
				return mcp.NewToolResultError("labelId is required"), nil
			}
			if err := sc.GmailStore().DeleteLabel(userIDFromArgs(args), labelID); err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			return mcp.NewToolResultText(fmt.Sprintf("Label %s deleted successfully", labelID)), nil
		}))

	return nil
}
