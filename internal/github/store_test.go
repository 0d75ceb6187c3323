package github

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teemow/mockbox/internal/simerr"
)

// newTestStore returns a store with a deterministic clock that advances one
// second per observation.
func newTestStore(t *testing.T) *Store {
	t.Helper()
	s := NewStore()
	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	var tick int
	s.now = func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Second)
	}
	return s
}

func TestNewStoreSeedsAuthenticatedUser(t *testing.T) {
	s := NewStore()

	u := s.AuthenticatedUser()
	assert.Equal(t, "octocat", u.Login)
	assert.Equal(t, 1, u.ID)
	assert.Equal(t, "User", u.Type)
}

func TestResetDropsState(t *testing.T) {
	s := newTestStore(t)

	_, err := s.CreateRepository("scratch", "", false, true)
	require.NoError(t, err)

	s.Reset()

	_, err = s.GetFileContents("octocat", "scratch", "/", "")
	var nf *simerr.NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, "octocat", s.AuthenticatedUser().Login)
}

func TestResolveRefFallsBackToBranchHeadSHA(t *testing.T) {
	s := newTestStore(t)

	_, err := s.CreateRepository("widgets", "", false, true)
	require.NoError(t, err)

	branches, err := s.ListBranches("octocat", "widgets", 1, 30)
	require.NoError(t, err)
	require.Len(t, branches, 1)
	head := branches[0].Commit.SHA

	resp, err := s.GetFileContents("octocat", "widgets", "/", head)
	require.NoError(t, err)
	assert.Empty(t, resp.Entries)
}
