package gmail_tools

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/mockbox/internal/server"
)

func newTestContext(t *testing.T) *server.ServerContext {
	t.Helper()
	return server.NewServerContext(context.Background(), "test", false)
}

func callRequest(args map[string]interface{}) mcp.CallToolRequest {
	req := mcp.CallToolRequest{}
	req.Params.Arguments = args
	return req
}

func resultText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	if result == nil || len(result.Content) == 0 {
		t.Fatal("expected result content")
	}
	text, ok := mcp.AsTextContent(result.Content[0])
	if !ok {
		t.Fatal("expected text content")
	}
	return text.Text
}

func TestUserIDFromArgs(t *testing.T) {
	if got := userIDFromArgs(map[string]interface{}{"userId": "alice"}); got != "alice" {
		t.Errorf("userIDFromArgs() = %v, want alice", got)
	}
	if got := userIDFromArgs(map[string]interface{}{}); got != "me" {
		t.Errorf("userIDFromArgs() = %v, want me", got)
	}
}

func TestStringSliceArg(t *testing.T) {
	args := map[string]interface{}{
		"commaSeparated": "a@example.com, b@example.com",
		"array":          []interface{}{"x", "y"},
		"empty":          "",
	}

	if got := stringSliceArg(args, "commaSeparated"); len(got) != 2 || got[1] != "b@example.com" {
		t.Errorf("stringSliceArg(commaSeparated) = %v", got)
	}
	if got := stringSliceArg(args, "array"); len(got) != 2 || got[0] != "x" {
		t.Errorf("stringSliceArg(array) = %v", got)
	}
	if got := stringSliceArg(args, "empty"); got != nil {
		t.Errorf("stringSliceArg(empty) = %v, want nil", got)
	}
	if got := stringSliceArg(args, "absent"); got != nil {
		t.Errorf("stringSliceArg(absent) = %v, want nil", got)
	}
}

func TestMessageRequestFromArgs(t *testing.T) {
	req, err := messageRequestFromArgs(map[string]interface{}{
		"to":      "alice@example.com",
		"subject": "Hello",
		"body":    "Hi",
		"attachments": []interface{}{
			map[string]interface{}{"filename": "a.txt", "mimeType": "text/plain", "data": "aGk="},
		},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(req.To) != 1 || req.To[0] != "alice@example.com" {
		t.Errorf("To = %v", req.To)
	}
	if len(req.Attachments) != 1 || req.Attachments[0].Filename != "a.txt" {
		t.Errorf("Attachments = %v", req.Attachments)
	}

	if _, err := messageRequestFromArgs(map[string]interface{}{"attachments": "nope"}); err == nil {
		t.Error("expected error for non-array attachments")
	}
}

func TestRegisterGmailTools(t *testing.T) {
	sc := newTestContext(t)

	s := mcpserver.NewMCPServer("test", "0.0.0")
	if err := RegisterGmailTools(s, sc, false); err != nil {
		t.Fatalf("RegisterGmailTools() error = %v", err)
	}

	s = mcpserver.NewMCPServer("test", "0.0.0")
	if err := RegisterGmailTools(s, sc, true); err != nil {
		t.Fatalf("RegisterGmailTools(readOnly) error = %v", err)
	}
}

func TestSendAndGetMessageHandlers(t *testing.T) {
	sc := newTestContext(t)

	send := handleStoreMessage(sc, sc.GmailStore().SendMessage)
	result, err := send(context.Background(), callRequest(map[string]interface{}{
		"to":      "alice@example.com",
		"subject": "Hello",
		"body":    "Hi Alice",
	}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.IsError {
		t.Fatalf("send failed: %s", resultText(t, result))
	}

	var ref struct {
		ID       string `json:"id"`
		ThreadID string `json:"threadId"`
	}
	if err := json.Unmarshal([]byte(resultText(t, result)), &ref); err != nil {
		t.Fatalf("failed to parse send result: %v", err)
	}
	if ref.ID == "" || ref.ThreadID == "" {
		t.Fatalf("expected message and thread ids, got %+v", ref)
	}

	get := handleGetMessage(sc)
	result, err = get(context.Background(), callRequest(map[string]interface{}{
		"messageId": ref.ID,
	}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.IsError {
		t.Fatalf("get failed: %s", resultText(t, result))
	}

	var msg struct {
		ID      string `json:"id"`
		Subject string `json:"subject"`
	}
	if err := json.Unmarshal([]byte(resultText(t, result)), &msg); err != nil {
		t.Fatalf("failed to parse get result: %v", err)
	}
	if msg.Subject != "Hello" {
		t.Errorf("Subject = %q, want Hello", msg.Subject)
	}
}

func TestGetMessageHandler_Errors(t *testing.T) {
	sc := newTestContext(t)
	get := handleGetMessage(sc)

	result, err := get(context.Background(), callRequest(map[string]interface{}{}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.IsError {
		t.Error("expected error result for missing messageId")
	}

	result, err = get(context.Background(), callRequest(map[string]interface{}{
		"messageId": "msg_999",
	}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.IsError {
		t.Error("expected error result for unknown message")
	}
}

func TestListMessagesHandler(t *testing.T) {
	sc := newTestContext(t)

	send := handleStoreMessage(sc, sc.GmailStore().SendMessage)
	for _, subject := range []string{"first", "second"} {
		result, err := send(context.Background(), callRequest(map[string]interface{}{
			"to":      "alice@example.com",
			"subject": subject,
			"body":    "body",
		}))
		if err != nil || result.IsError {
			t.Fatalf("send %q failed: %v %v", subject, err, result)
		}
	}

	list := handleListMessages(sc)
	result, err := list(context.Background(), callRequest(map[string]interface{}{
		"q": "subject:first",
	}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.IsError {
		t.Fatalf("list failed: %s", resultText(t, result))
	}

	var resp struct {
		Messages           []struct{ ID string } `json:"messages"`
		ResultSizeEstimate int                   `json:"resultSizeEstimate"`
	}
	if err := json.Unmarshal([]byte(resultText(t, result)), &resp); err != nil {
		t.Fatalf("failed to parse list result: %v", err)
	}
	if resp.ResultSizeEstimate != 1 {
		t.Errorf("ResultSizeEstimate = %d, want 1", resp.ResultSizeEstimate)
	}
}
