package github

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teemow/mockbox/internal/simerr"
)

func TestCreateBranch(t *testing.T) {
	s, shas := historyStore(t)

	ref, err := s.CreateBranch("octocat", "widgets", "release", shas[0])
	require.NoError(t, err)

	assert.Equal(t, "refs/heads/release", ref.Ref)
	assert.Equal(t, "commit", ref.Object.Type)
	assert.Equal(t, shas[0], ref.Object.SHA)
	assert.Equal(t, refNodeID("octocat/widgets", "refs/heads/release"), ref.NodeID)

	branches, err := s.ListBranches("octocat", "widgets", 1, 30)
	require.NoError(t, err)
	require.Len(t, branches, 2)
	assert.Equal(t, "main", branches[0].Name)
	assert.Equal(t, "release", branches[1].Name)
}

func TestCreateBranchValidation(t *testing.T) {
	s, shas := historyStore(t)

	var ue *simerr.UnprocessableEntityError

	_, err := s.CreateBranch("octocat", "widgets", "", shas[0])
	require.ErrorAs(t, err, &ue)

	_, err = s.CreateBranch("octocat", "widgets", "release", "not-a-sha")
	require.ErrorAs(t, err, &ue)

	_, err = s.CreateBranch("octocat", "widgets", "main", shas[0])
	require.ErrorAs(t, err, &ue)
	assert.Contains(t, ue.Message, "already exists")
}

func TestCreateBranchUnknownCommit(t *testing.T) {
	s, _ := historyStore(t)

	_, err := s.CreateBranch("octocat", "widgets", "release",
		"0000000000000000000000000000000000000000")
	var nf *simerr.NotFoundError
	require.ErrorAs(t, err, &nf)
}

func TestCreateBranchUnknownRepository(t *testing.T) {
	s, shas := historyStore(t)

	_, err := s.CreateBranch("octocat", "missing", "release", shas[0])
	var nf *simerr.NotFoundError
	require.ErrorAs(t, err, &nf)
}

func TestListBranchesPagination(t *testing.T) {
	s, shas := historyStore(t)

	for _, name := range []string{"alpha", "beta"} {
		_, err := s.CreateBranch("octocat", "widgets", name, shas[0])
		require.NoError(t, err)
	}

	branches, err := s.ListBranches("octocat", "widgets", 1, 2)
	require.NoError(t, err)
	require.Len(t, branches, 2)
	assert.Equal(t, "alpha", branches[0].Name)
	assert.Equal(t, "beta", branches[1].Name)

	branches, err = s.ListBranches("octocat", "widgets", 2, 2)
	require.NoError(t, err)
	require.Len(t, branches, 1)
	assert.Equal(t, "main", branches[0].Name)
}

func TestListBranchesValidation(t *testing.T) {
	s, _ := historyStore(t)

	var ve *simerr.ValidationError

	_, err := s.ListBranches("octo cat", "widgets", 1, 30)
	require.ErrorAs(t, err, &ve)

	_, err = s.ListBranches("octocat", "widgets", 0, 30)
	require.ErrorAs(t, err, &ve)

	_, err = s.ListBranches("octocat", "widgets", 1, 0)
	require.ErrorAs(t, err, &ve)
}
