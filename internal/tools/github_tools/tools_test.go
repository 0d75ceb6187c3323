package github_tools

import (
	"context"
	"testing"

	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/mockbox/internal/server"
)

func TestArgHelpers(t *testing.T) {
	args := map[string]interface{}{
		"owner":   "octocat",
		"page":    float64(2),
		"private": true,
	}

	if got := stringArg(args, "owner"); got != "octocat" {
		t.Errorf("stringArg(owner) = %v", got)
	}
	if got := stringArg(args, "absent"); got != "" {
		t.Errorf("stringArg(absent) = %v, want empty", got)
	}
	if got := intArg(args, "page", 1); got != 2 {
		t.Errorf("intArg(page) = %v, want 2", got)
	}
	if got := intArg(args, "absent", 30); got != 30 {
		t.Errorf("intArg(absent) = %v, want 30", got)
	}
	if got := boolArg(args, "private", false); !got {
		t.Error("boolArg(private) = false, want true")
	}
	if got := boolArg(args, "absent", true); !got {
		t.Error("boolArg(absent) = false, want default true")
	}
}

func TestOwnerRepoFromArgs(t *testing.T) {
	if _, _, errResult := ownerRepoFromArgs(map[string]interface{}{"repo": "widgets"}); errResult == nil {
		t.Error("expected error result for missing owner")
	}
	if _, _, errResult := ownerRepoFromArgs(map[string]interface{}{"owner": "octocat"}); errResult == nil {
		t.Error("expected error result for missing repo")
	}

	owner, repo, errResult := ownerRepoFromArgs(map[string]interface{}{"owner": "octocat", "repo": "widgets"})
	if errResult != nil {
		t.Fatalf("unexpected error result")
	}
	if owner != "octocat" || repo != "widgets" {
		t.Errorf("got %s/%s", owner, repo)
	}
}

func TestFilesFromArgs(t *testing.T) {
	files, err := filesFromArgs(map[string]interface{}{
		"files": []interface{}{
			map[string]interface{}{"path": "README.md", "content": "# hi"},
			map[string]interface{}{"path": "docs/guide.md", "content": "guide"},
		},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(files) != 2 || files[1].Path != "docs/guide.md" {
		t.Errorf("files = %+v", files)
	}

	if _, err := filesFromArgs(map[string]interface{}{"files": "nope"}); err == nil {
		t.Error("expected error for non-array files")
	}
	if _, err := filesFromArgs(map[string]interface{}{"files": []interface{}{"nope"}}); err == nil {
		t.Error("expected error for non-object file entry")
	}
}

func TestRegisterGithubTools(t *testing.T) {
	sc := server.NewServerContext(context.Background(), "test", false)

	s := mcpserver.NewMCPServer("test", "0.0.0")
	if err := RegisterGithubTools(s, sc, false); err != nil {
		t.Fatalf("RegisterGithubTools() error = %v", err)
	}

	s = mcpserver.NewMCPServer("test", "0.0.0")
	if err := RegisterGithubTools(s, sc, true); err != nil {
		t.Fatalf("RegisterGithubTools(readOnly) error = %v", err)
	}
}
