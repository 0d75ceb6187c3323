package github

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teemow/mockbox/internal/simerr"
)

func b64(s string) string {
	return base64.StdEncoding.EncodeToString([]byte(s))
}

func newRepoStore(t *testing.T, name string) *Store {
	t.Helper()
	s := newTestStore(t)
	_, err := s.CreateRepository(name, "", false, true)
	require.NoError(t, err)
	return s
}

func TestCreateFile(t *testing.T) {
	s := newRepoStore(t, "widgets")

	resp, err := s.CreateOrUpdateFile("octocat", "widgets", "README.md", "add readme", b64("# Widgets\n"), "main", "")
	require.NoError(t, err)

	assert.Equal(t, "README.md", resp.Content.Name)
	assert.Equal(t, "README.md", resp.Content.Path)
	assert.Equal(t, blobSHA([]byte("# Widgets\n")), resp.Content.SHA)
	assert.Equal(t, len("# Widgets\n"), resp.Content.Size)
	assert.Equal(t, "file", resp.Content.Type)
	assert.Equal(t, "add readme", resp.Commit.Message)
	assert.Len(t, resp.Commit.SHA, 40)

	branches, err := s.ListBranches("octocat", "widgets", 1, 30)
	require.NoError(t, err)
	assert.Equal(t, resp.Commit.SHA, branches[0].Commit.SHA)

	contents, err := s.GetFileContents("octocat", "widgets", "README.md", "main")
	require.NoError(t, err)
	require.NotNil(t, contents.File)
	assert.Equal(t, "base64", contents.File.Encoding)
	assert.Equal(t, b64("# Widgets\n"), contents.File.Content)

	root, err := s.GetFileContents("octocat", "widgets", "/", "main")
	require.NoError(t, err)
	require.Len(t, root.Entries, 1)
	assert.Equal(t, "README.md", root.Entries[0].Name)
	assert.Equal(t, "file", root.Entries[0].Type)
}

func TestUpdateFileRequiresMatchingSHA(t *testing.T) {
	s := newRepoStore(t, "widgets")

	created, err := s.CreateOrUpdateFile("octocat", "widgets", "README.md", "add", b64("v1"), "main", "")
	require.NoError(t, err)

	_, err = s.CreateOrUpdateFile("octocat", "widgets", "README.md", "update", b64("v2"), "main", "")
	var ve *simerr.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Contains(t, ve.Message, "must be provided when updating")

	_, err = s.CreateOrUpdateFile("octocat", "widgets", "README.md", "update", b64("v2"), "main",
		"0000000000000000000000000000000000000000")
	var ce *simerr.ConflictError
	require.ErrorAs(t, err, &ce)

	updated, err := s.CreateOrUpdateFile("octocat", "widgets", "README.md", "update", b64("v2"), "main", created.Content.SHA)
	require.NoError(t, err)
	assert.Equal(t, blobSHA([]byte("v2")), updated.Content.SHA)

	contents, err := s.GetFileContents("octocat", "widgets", "README.md", "main")
	require.NoError(t, err)
	assert.Equal(t, b64("v2"), contents.File.Content)
}

func TestCreateFilePathValidation(t *testing.T) {
	s := newRepoStore(t, "widgets")

	for _, path := range []string{
		"///",
		"docs/../secret.txt",
		`docs\readme.md`,
		"docs//readme.md",
		"CON/readme.md",
	} {
		_, err := s.CreateOrUpdateFile("octocat", "widgets", path, "msg", b64("x"), "main", "")
		var ve *simerr.ValidationError
		assert.ErrorAs(t, err, &ve, path)
	}
}

func TestCreateFileRejectsInvalidContent(t *testing.T) {
	s := newRepoStore(t, "widgets")

	_, err := s.CreateOrUpdateFile("octocat", "widgets", "a.txt", "msg", "not-base64!!!", "main", "")
	var ve *simerr.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Contains(t, ve.Message, "base64")
}

func TestCreateFileOnArchivedRepository(t *testing.T) {
	s := newRepoStore(t, "widgets")
	s.repositories[0].Archived = true

	_, err := s.CreateOrUpdateFile("octocat", "widgets", "a.txt", "msg", b64("x"), "main", "")
	var fe *simerr.ForbiddenError
	require.ErrorAs(t, err, &fe)
}

func TestCreateFileOnMissingBranch(t *testing.T) {
	s := newRepoStore(t, "widgets")

	_, err := s.CreateOrUpdateFile("octocat", "widgets", "a.txt", "msg", b64("x"), "release", "")
	var nf *simerr.NotFoundError
	require.ErrorAs(t, err, &nf)
}

func TestGetFileContentsDirectorySynthesis(t *testing.T) {
	s := newRepoStore(t, "widgets")

	_, err := s.PushFiles("octocat", "widgets", "main", []FileSpec{
		{Path: "docs/guide.md", Content: "guide"},
		{Path: "docs/api/reference.md", Content: "reference"},
		{Path: "README.md", Content: "readme"},
	}, "add docs", "", "")
	require.NoError(t, err)

	resp, err := s.GetFileContents("octocat", "widgets", "docs", "main")
	require.NoError(t, err)
	require.Len(t, resp.Entries, 2)
	assert.Equal(t, "dir", resp.Entries[0].Type)
	assert.Equal(t, "docs/api", resp.Entries[0].Path)
	assert.Equal(t, "docs/guide.md", resp.Entries[1].Path)
	assert.Equal(t, "file", resp.Entries[1].Type)

	root, err := s.GetFileContents("octocat", "widgets", "/", "")
	require.NoError(t, err)
	names := make([]string, 0, len(root.Entries))
	for _, e := range root.Entries {
		names = append(names, e.Name)
	}
	assert.ElementsMatch(t, []string{"docs", "README.md"}, names)

	_, err = s.GetFileContents("octocat", "widgets", "missing/dir", "main")
	var nf *simerr.NotFoundError
	require.ErrorAs(t, err, &nf)
}

func TestGetFileContentsUnknownRef(t *testing.T) {
	s := newRepoStore(t, "widgets")

	_, err := s.GetFileContents("octocat", "widgets", "/", "no-such-ref")
	var nf *simerr.NotFoundError
	require.ErrorAs(t, err, &nf)
}

func TestPushFiles(t *testing.T) {
	s := newRepoStore(t, "widgets")

	resp, err := s.PushFiles("octocat", "widgets", "main", []FileSpec{
		{Path: "main.go", Content: "package main\n"},
		{Path: "go.mod", Content: "module widgets\n"},
	}, "initial layout", "", "")
	require.NoError(t, err)

	assert.Len(t, resp.CommitSHA, 40)
	assert.Equal(t, "Successfully pushed 2 file(s) (with changes) to octocat/widgets/main.", resp.Message)

	c, err := s.GetCommit("octocat", "widgets", resp.CommitSHA, 0, 0)
	require.NoError(t, err)
	assert.Len(t, c.Files, 2)
	assert.Equal(t, "initial layout", c.Commit.Message)
	for _, f := range c.Files {
		assert.Equal(t, "added", f.Status)
	}

	contents, err := s.GetFileContents("octocat", "widgets", "main.go", "main")
	require.NoError(t, err)
	assert.Equal(t, b64("package main\n"), contents.File.Content)
}

func TestPushFilesSkipsUnchangedFiles(t *testing.T) {
	s := newRepoStore(t, "widgets")

	_, err := s.PushFiles("octocat", "widgets", "main", []FileSpec{
		{Path: "a.txt", Content: "same"},
		{Path: "b.txt", Content: "old"},
	}, "first", "", "")
	require.NoError(t, err)

	resp, err := s.PushFiles("octocat", "widgets", "main", []FileSpec{
		{Path: "a.txt", Content: "same"},
		{Path: "b.txt", Content: "new"},
	}, "second", "", "")
	require.NoError(t, err)

	assert.Equal(t, "Successfully pushed 1 file(s) (with changes) to octocat/widgets/main.", resp.Message)

	c, err := s.GetCommit("octocat", "widgets", resp.CommitSHA, 0, 0)
	require.NoError(t, err)
	require.Len(t, c.Files, 1)
	assert.Equal(t, "b.txt", c.Files[0].Filename)
	assert.Equal(t, "modified", c.Files[0].Status)

	// The unchanged file is still present at the new head.
	contents, err := s.GetFileContents("octocat", "widgets", "a.txt", "main")
	require.NoError(t, err)
	assert.Equal(t, b64("same"), contents.File.Content)
}

func TestPushFilesValidation(t *testing.T) {
	s := newRepoStore(t, "widgets")

	_, err := s.PushFiles("octocat", "widgets", "main", nil, "msg", "", "")
	var ve *simerr.ValidationError
	require.ErrorAs(t, err, &ve)

	_, err = s.PushFiles("octocat", "widgets", "main", []FileSpec{{Path: " ", Content: "x"}}, "msg", "", "")
	require.ErrorAs(t, err, &ve)

	_, err = s.PushFiles("octocat", "widgets", "release", []FileSpec{{Path: "a", Content: "x"}}, "msg", "", "")
	var nf *simerr.NotFoundError
	require.ErrorAs(t, err, &nf)

	_, err = s.PushFiles("octocat", "widgets", "main", []FileSpec{{Path: "a", Content: "x"}}, "msg", "last tuesday", "")
	require.ErrorAs(t, err, &ve)
	assert.Contains(t, ve.Message, "ISO 8601")
}

func TestPushFilesHonorsCommitterDate(t *testing.T) {
	s := newRepoStore(t, "widgets")

	resp, err := s.PushFiles("octocat", "widgets", "main", []FileSpec{
		{Path: "a.txt", Content: "x"},
	}, "dated", "2026-01-02T03:04:05Z", "2026-01-02T03:04:06Z")
	require.NoError(t, err)

	c, err := s.GetCommit("octocat", "widgets", resp.CommitSHA, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, "2026-01-02T03:04:05Z", c.Commit.Author.Date)
	assert.Equal(t, "2026-01-02T03:04:06Z", c.Commit.Committer.Date)
}
