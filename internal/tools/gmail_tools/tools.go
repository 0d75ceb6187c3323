package gmail_tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/mockbox/internal/gmail"
	"github.com/teemow/mockbox/internal/server"
	"github.com/teemow/mockbox/internal/tools/common"
)

// userIDFromArgs extracts the userId from request arguments, defaulting to "me"
func userIDFromArgs(args map[string]interface{}) string {
	userID := "me"
	if v, ok := args["userId"].(string); ok && v != "" {
		userID = v
	}
	return userID
}

// stringArg returns a string argument or "" when absent.
func stringArg(args map[string]interface{}, name string) string {
	v, _ := args[name].(string)
	return v
}

// boolArg returns a bool argument or def when absent.
func boolArg(args map[string]interface{}, name string, def bool) bool {
	if v, ok := args[name].(bool); ok {
		return v
	}
	return def
}

// intArg returns an int argument or def when absent. JSON numbers arrive as
// float64.
func intArg(args map[string]interface{}, name string, def int) int {
	if v, ok := args[name].(float64); ok {
		return int(v)
	}
	return def
}

// stringSliceArg accepts an array of strings or a comma-separated string.
func stringSliceArg(args map[string]interface{}, name string) []string {
	switch v := args[name].(type) {
	case string:
		if v == "" {
			return nil
		}
		parts := strings.Split(v, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, p)
			}
		}
		return out
	case []interface{}:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if str, ok := item.(string); ok && str != "" {
				out = append(out, str)
			}
		}
		return out
	}
	return nil
}

// attachmentsFromArgs parses the attachments argument into attachment inputs.
func attachmentsFromArgs(args map[string]interface{}) ([]gmail.AttachmentInput, error) {
	raw, ok := args["attachments"].([]interface{})
	if !ok {
		if args["attachments"] != nil {
			return nil, fmt.Errorf("attachments must be an array of objects")
		}
		return nil, nil
	}

	atts := make([]gmail.AttachmentInput, 0, len(raw))
	for i, item := range raw {
		obj, ok := item.(map[string]interface{})
		if !ok {
			return nil, fmt.Errorf("attachments[%d] must be an object", i)
		}
		att := gmail.AttachmentInput{
			Filename: stringArg(obj, "filename"),
			MimeType: stringArg(obj, "mimeType"),
			Data:     stringArg(obj, "data"),
		}
		atts = append(atts, att)
	}
	return atts, nil
}

// messageRequestFromArgs builds a message payload from tool arguments. The
// same shape is used by send, insert, import and the draft operations.
func messageRequestFromArgs(args map[string]interface{}) (gmail.SendMessageRequest, error) {
	atts, err := attachmentsFromArgs(args)
	if err != nil {
		return gmail.SendMessageRequest{}, err
	}

	return gmail.SendMessageRequest{
		Raw:          stringArg(args, "raw"),
		From:         stringArg(args, "from"),
		To:           stringSliceArg(args, "to"),
		Cc:           stringSliceArg(args, "cc"),
		Bcc:          stringSliceArg(args, "bcc"),
		Subject:      stringArg(args, "subject"),
		Body:         stringArg(args, "body"),
		ThreadID:     stringArg(args, "threadId"),
		LabelIDs:     stringSliceArg(args, "labelIds"),
		InternalDate: stringArg(args, "internalDate"),
		Attachments:  atts,
	}, nil
}

// withUserID is a convenience for the common mcp.WithString userId option.
func withUserID() mcp.ToolOption {
	return mcp.WithString("userId",
		mcp.Description("User id or email address (default: 'me')"),
	)
}

// RegisterGmailTools registers all Gmail simulation tools with the MCP server.
// Write tools are skipped in read-only mode.
func RegisterGmailTools(s *mcpserver.MCPServer, sc *server.ServerContext, readOnly bool) error {
	if err := RegisterMessageTools(s, sc, readOnly); err != nil {
		return fmt.Errorf("failed to register message tools: %w", err)
	}
	if err := RegisterDraftTools(s, sc, readOnly); err != nil {
		return fmt.Errorf("failed to register draft tools: %w", err)
	}
	if err := RegisterLabelTools(s, sc, readOnly); err != nil {
		return fmt.Errorf("failed to register label tools: %w", err)
	}
	if err := RegisterThreadTools(s, sc, readOnly); err != nil {
		return fmt.Errorf("failed to register thread tools: %w", err)
	}
	if err := RegisterAttachmentTools(s, sc); err != nil {
		return fmt.Errorf("failed to register attachment tools: %w", err)
	}

	// Profile tool
	getProfileTool := mcp.NewTool("gmail_get_profile",
		mcp.WithDescription("Get the Gmail profile (email address, message and thread totals, history id) of a user"),
		withUserID(),
	)

	s.AddTool(getProfileTool, common.InstrumentedToolHandlerWithService(
		"gmail_get_profile", "gmail", "users.getProfile", sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			args := request.GetArguments()
			profile, err := sc.GmailStore().GetProfile(userIDFromArgs(args))
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			return common.JSONResult(profile)
		}))

	return nil
}
