package gmail

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teemow/mockbox/internal/simerr"
)

// seedThread inserts two messages into one thread and a third standalone
// message, returning the shared thread id.
func seedThread(t *testing.T, s *Store) string {
	t.Helper()
	first, err := s.InsertMessage("me", SendMessageRequest{
		From: "a@x.com", To: []string{"me@gmail.com"},
		Subject: "planning", Body: "first", InternalDate: "1714000000000",
	})
	require.NoError(t, err)
	_, err = s.InsertMessage("me", SendMessageRequest{
		From: "b@x.com", To: []string{"me@gmail.com"},
		Subject: "Re: planning", Body: "second", InternalDate: "1715000000000",
		ThreadID: first.ThreadID,
	})
	require.NoError(t, err)
	_, err = s.InsertMessage("me", SendMessageRequest{
		From: "c@x.com", To: []string{"me@gmail.com"},
		Subject: "unrelated", Body: "other", InternalDate: "1713000000000",
	})
	require.NoError(t, err)
	return first.ThreadID
}

func TestGetThreadSortsMessagesAscending(t *testing.T) {
	s := newTestStore(t)
	threadID := seedThread(t, s)

	th, err := s.GetThread("me", threadID, FormatFull, nil)
	require.NoError(t, err)
	require.Len(t, th.Messages, 2)
	assert.Equal(t, "first", th.Messages[0].Body)
	assert.Equal(t, "second", th.Messages[1].Body)

	_, err = s.GetThread("me", "thread-404", FormatFull, nil)
	var nf *simerr.NotFoundError
	require.ErrorAs(t, err, &nf)
}

func TestListThreadsMatchesAnyMessage(t *testing.T) {
	s := newTestStore(t)
	threadID := seedThread(t, s)

	resp, err := s.ListThreads("me", ListThreadsRequest{Query: "from:a@x.com"})
	require.NoError(t, err)
	require.Len(t, resp.Threads, 1)
	assert.Equal(t, threadID, resp.Threads[0].ID)

	// No query: both threads, most recent activity first.
	resp, err = s.ListThreads("me", ListThreadsRequest{})
	require.NoError(t, err)
	require.Len(t, resp.Threads, 2)
	assert.Equal(t, threadID, resp.Threads[0].ID)
}

func TestModifyThreadAppliesToAllMessages(t *testing.T) {
	s := newTestStore(t)
	threadID := seedThread(t, s)

	th, err := s.ModifyThread("me", threadID, []string{"STARRED"}, []string{"UNREAD"})
	require.NoError(t, err)
	require.Len(t, th.Messages, 2)
	for _, m := range th.Messages {
		assert.Contains(t, m.LabelIDs, LabelStarred)
		assert.NotContains(t, m.LabelIDs, LabelUnread)
	}

	_, err = s.ModifyThread("me", threadID, nil, nil)
	var verr *simerr.ValidationError
	require.ErrorAs(t, err, &verr)
}

func TestTrashThreadAndUntrash(t *testing.T) {
	s := newTestStore(t)
	threadID := seedThread(t, s)

	th, err := s.TrashThread("me", threadID)
	require.NoError(t, err)
	for _, m := range th.Messages {
		assert.Contains(t, m.LabelIDs, LabelTrash)
		assert.NotContains(t, m.LabelIDs, LabelInbox)
	}

	// Trashed threads disappear from the default listing.
	resp, err := s.ListThreads("me", ListThreadsRequest{})
	require.NoError(t, err)
	assert.Len(t, resp.Threads, 1)

	th, err = s.UntrashThread("me", threadID)
	require.NoError(t, err)
	for _, m := range th.Messages {
		assert.NotContains(t, m.LabelIDs, LabelTrash)
		assert.Contains(t, m.LabelIDs, LabelInbox)
	}
}

func TestDeleteThreadRemovesMessages(t *testing.T) {
	s := newTestStore(t)
	threadID := seedThread(t, s)

	th, err := s.GetThread("me", threadID, FormatMinimal, nil)
	require.NoError(t, err)
	ids := make([]string, 0, len(th.Messages))
	for _, m := range th.Messages {
		ids = append(ids, m.ID)
	}

	require.NoError(t, s.DeleteThread("me", threadID))

	var nf *simerr.NotFoundError
	_, err = s.GetThread("me", threadID, FormatMinimal, nil)
	require.ErrorAs(t, err, &nf)
	for _, id := range ids {
		_, err = s.GetMessage("me", id, FormatMinimal, nil)
		require.ErrorAs(t, err, &nf)
	}

	profile, err := s.GetProfile("me")
	require.NoError(t, err)
	assert.Equal(t, 1, profile.MessagesTotal)
	assert.Equal(t, 1, profile.ThreadsTotal)
}
