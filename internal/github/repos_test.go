package github

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teemow/mockbox/internal/simerr"
)

func TestCreateRepository(t *testing.T) {
	s := newTestStore(t)

	resp, err := s.CreateRepository("widgets", "A widget factory", false, false)
	require.NoError(t, err)

	assert.Equal(t, 1, resp.ID)
	assert.Equal(t, "widgets", resp.Name)
	assert.Equal(t, "octocat/widgets", resp.FullName)
	assert.Equal(t, "octocat", resp.Owner.Login)
	assert.False(t, resp.Private)
	assert.False(t, resp.Fork)
	assert.Empty(t, resp.DefaultBranch)
	assert.Equal(t, repoNodeID(1), resp.NodeID)

	// Without auto_init there are no branches.
	branches, err := s.ListBranches("octocat", "widgets", 1, 30)
	require.NoError(t, err)
	assert.Empty(t, branches)
}

func TestCreateRepositoryAutoInit(t *testing.T) {
	s := newTestStore(t)

	resp, err := s.CreateRepository("widgets", "", true, true)
	require.NoError(t, err)
	assert.Equal(t, "main", resp.DefaultBranch)
	assert.True(t, resp.Private)

	branches, err := s.ListBranches("octocat", "widgets", 1, 30)
	require.NoError(t, err)
	require.Len(t, branches, 1)
	assert.Equal(t, "main", branches[0].Name)

	commits, err := s.ListCommits("octocat", "widgets", "", "", 1, 30)
	require.NoError(t, err)
	require.Len(t, commits, 1)
	assert.Equal(t, "Initial commit", commits[0].Commit.Message)
	assert.Empty(t, commits[0].Parents)
}

func TestCreateRepositoryDuplicate(t *testing.T) {
	s := newTestStore(t)

	_, err := s.CreateRepository("widgets", "", false, false)
	require.NoError(t, err)

	_, err = s.CreateRepository("widgets", "", false, false)
	var ue *simerr.UnprocessableEntityError
	require.ErrorAs(t, err, &ue)
}

func TestCreateRepositoryNameValidation(t *testing.T) {
	s := newTestStore(t)

	for _, name := range []string{
		"",
		"   ",
		"has space",
		".hidden",
		"trailing.",
		"-leading",
		"trailing_",
		"double--hyphen",
		"git",
		"CON",
	} {
		_, err := s.CreateRepository(name, "", false, false)
		var ve *simerr.ValidationError
		assert.ErrorAs(t, err, &ve, "name %q", name)
	}
}

func seedHubotRepo(t *testing.T, s *Store) {
	t.Helper()
	err := s.ApplySeed(Seed{
		Users: []SeedUser{{Login: "hubot", Name: "Hubot", Email: "hubot@example.com"}},
		Repositories: []SeedRepository{{
			Name:  "upstream",
			Owner: "hubot",
			Files: []FileSpec{{Path: "README.md", Content: "upstream readme"}},
		}},
	})
	require.NoError(t, err)
}

func TestForkRepository(t *testing.T) {
	s := newTestStore(t)
	seedHubotRepo(t, s)

	resp, err := s.ForkRepository("hubot", "upstream", "")
	require.NoError(t, err)

	assert.Equal(t, "octocat/upstream", resp.FullName)
	assert.Equal(t, "octocat", resp.Owner.Login)
	assert.True(t, resp.Fork)

	// Branch refs are copied into the fork.
	branches, err := s.ListBranches("octocat", "upstream", 1, 30)
	require.NoError(t, err)
	require.Len(t, branches, 1)
	assert.Equal(t, "main", branches[0].Name)

	source := s.findRepository("hubot/upstream")
	assert.Equal(t, 1, source.ForksCount)
}

func TestForkRepositoryTwice(t *testing.T) {
	s := newTestStore(t)
	seedHubotRepo(t, s)

	_, err := s.ForkRepository("hubot", "upstream", "")
	require.NoError(t, err)

	_, err = s.ForkRepository("hubot", "upstream", "")
	var ue *simerr.UnprocessableEntityError
	require.ErrorAs(t, err, &ue)
	assert.Contains(t, ue.Message, "already been forked")
}

func TestForkRepositoryForkingDisabled(t *testing.T) {
	s := newTestStore(t)
	seedHubotRepo(t, s)
	s.findRepository("hubot/upstream").AllowForking = false

	_, err := s.ForkRepository("hubot", "upstream", "")
	var fe *simerr.ForbiddenError
	require.ErrorAs(t, err, &fe)
}

func TestForkRepositoryUnknownOrganization(t *testing.T) {
	s := newTestStore(t)
	seedHubotRepo(t, s)

	_, err := s.ForkRepository("hubot", "upstream", "acme")
	var nf *simerr.NotFoundError
	require.ErrorAs(t, err, &nf)
}

func searchFixture(t *testing.T) *Store {
	t.Helper()
	s := newTestStore(t)
	require.NoError(t, s.ApplySeed(Seed{
		Users: []SeedUser{{Login: "hubot"}},
		Repositories: []SeedRepository{
			{Name: "widget-factory", Description: "Builds widgets fast", Language: "Go"},
			{Name: "widget-docs", Description: "Documentation for the widget factory"},
			{Name: "gadgets", Owner: "hubot", Description: "A gadget library", Private: true},
		},
	}))
	s.findRepository("octocat/widget-factory").StargazersCount = 50
	s.findRepository("octocat/widget-docs").StargazersCount = 5
	return s
}

func TestSearchRepositoriesTerms(t *testing.T) {
	s := searchFixture(t)

	resp, err := s.SearchRepositories("widget", "", "desc", 1, 30)
	require.NoError(t, err)
	assert.Equal(t, 2, resp.SearchResults.TotalCount)
	assert.False(t, resp.SearchResults.IncompleteResults)

	// Word boundary matching: "widg" is not a word in any field.
	resp, err = s.SearchRepositories("widg", "", "desc", 1, 30)
	require.NoError(t, err)
	assert.Zero(t, resp.SearchResults.TotalCount)

	resp, err = s.SearchRepositories(`"gadget library"`, "", "desc", 1, 30)
	require.NoError(t, err)
	require.Equal(t, 1, resp.SearchResults.TotalCount)
	assert.Equal(t, "hubot/gadgets", resp.SearchResults.Items[0].FullName)
}

func TestSearchRepositoriesQualifiers(t *testing.T) {
	s := searchFixture(t)

	tests := []struct {
		query string
		want  []string
	}{
		{"widget user:octocat", []string{"octocat/widget-factory", "octocat/widget-docs"}},
		{"gadget is:private", []string{"hubot/gadgets"}},
		{"widget is:public language:go", []string{"octocat/widget-factory"}},
		{"widget stars:>=10", []string{"octocat/widget-factory"}},
		{"widget stars:1..10", []string{"octocat/widget-docs"}},
		{"widget in:name", []string{"octocat/widget-factory", "octocat/widget-docs"}},
		{"factory in:description", []string{"octocat/widget-docs"}},
	}
	for _, tc := range tests {
		resp, err := s.SearchRepositories(tc.query, "", "desc", 1, 30)
		require.NoError(t, err, tc.query)
		got := make([]string, 0, len(resp.SearchResults.Items))
		for _, r := range resp.SearchResults.Items {
			got = append(got, r.FullName)
		}
		assert.ElementsMatch(t, tc.want, got, tc.query)
	}
}

func TestSearchRepositoriesSort(t *testing.T) {
	s := searchFixture(t)

	resp, err := s.SearchRepositories("widget", "stars", "desc", 1, 30)
	require.NoError(t, err)
	require.Len(t, resp.SearchResults.Items, 2)
	assert.Equal(t, "octocat/widget-factory", resp.SearchResults.Items[0].FullName)

	resp, err = s.SearchRepositories("widget", "stars", "asc", 1, 30)
	require.NoError(t, err)
	assert.Equal(t, "octocat/widget-docs", resp.SearchResults.Items[0].FullName)

	_, err = s.SearchRepositories("widget", "score", "desc", 1, 30)
	var ie *simerr.InvalidInputError
	require.ErrorAs(t, err, &ie)
	assert.Equal(t, "Invalid sort option. Use 'stars', 'forks', or 'updated'.", ie.Message)
}

func TestSearchRepositoriesInvalidQueries(t *testing.T) {
	s := searchFixture(t)

	var ie *simerr.InvalidInputError

	_, err := s.SearchRepositories("", "", "desc", 1, 30)
	require.ErrorAs(t, err, &ie)

	_, err = s.SearchRepositories(`"unterminated`, "", "desc", 1, 30)
	require.ErrorAs(t, err, &ie)
	assert.Equal(t, "Invalid query syntax: Mismatched quotes.", ie.Message)

	_, err = s.SearchRepositories("widget", "", "desc", 0, 30)
	require.ErrorAs(t, err, &ie)

	_, err = s.SearchRepositories("widget", "", "desc", 1, 101)
	require.ErrorAs(t, err, &ie)
}

func TestSearchRepositoriesPagination(t *testing.T) {
	s := searchFixture(t)

	resp, err := s.SearchRepositories("widget", "stars", "desc", 2, 1)
	require.NoError(t, err)
	assert.Equal(t, 2, resp.SearchResults.TotalCount)
	require.Len(t, resp.SearchResults.Items, 1)
	assert.Equal(t, "octocat/widget-docs", resp.SearchResults.Items[0].FullName)
}
