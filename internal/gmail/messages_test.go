package gmail

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teemow/mockbox/internal/simerr"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s := NewStore()
	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	// Advance one second per call so internalDate ordering is deterministic.
	calls := 0
	s.now = func() time.Time {
		calls++
		return base.Add(time.Duration(calls) * time.Second)
	}
	return s
}

func TestSendMessageAssignsSentLabelAndThread(t *testing.T) {
	s := newTestStore(t)

	ref, err := s.SendMessage("me", SendMessageRequest{
		To:      []string{"alice@example.com"},
		Subject: "Hello",
		Body:    "Hi Alice",
	})
	require.NoError(t, err)

	assert.Equal(t, "msg_1", ref.ID)
	assert.Equal(t, "thread-1", ref.ThreadID)
	assert.Equal(t, []string{LabelSent}, ref.LabelIDs)

	profile, err := s.GetProfile("me")
	require.NoError(t, err)
	assert.Equal(t, 1, profile.MessagesTotal)
	assert.Equal(t, 1, profile.ThreadsTotal)
}

func TestSendMessageRequiresRecipient(t *testing.T) {
	s := newTestStore(t)

	_, err := s.SendMessage("me", SendMessageRequest{Subject: "no recipients"})
	var verr *simerr.ValidationError
	require.ErrorAs(t, err, &verr)
}

func TestSendMessageIntoExistingThread(t *testing.T) {
	s := newTestStore(t)

	first, err := s.SendMessage("me", SendMessageRequest{
		To: []string{"alice@example.com"}, Subject: "start", Body: "a",
	})
	require.NoError(t, err)

	second, err := s.SendMessage("me", SendMessageRequest{
		To: []string{"alice@example.com"}, Subject: "Re: start", Body: "b",
		ThreadID: first.ThreadID,
	})
	require.NoError(t, err)
	assert.Equal(t, first.ThreadID, second.ThreadID)

	_, err = s.SendMessage("me", SendMessageRequest{
		To: []string{"alice@example.com"}, Body: "c", ThreadID: "thread-999",
	})
	var nf *simerr.NotFoundError
	require.ErrorAs(t, err, &nf)
}

func TestSendMessageStripsInboxWhenSent(t *testing.T) {
	s := newTestStore(t)

	ref, err := s.SendMessage("me", SendMessageRequest{
		To: []string{"alice@example.com"}, Body: "x",
		LabelIDs: []string{"inbox", "important"},
	})
	require.NoError(t, err)
	assert.NotContains(t, ref.LabelIDs, LabelInbox)
	assert.Contains(t, ref.LabelIDs, LabelImportant)
}

func TestInsertMessageDefaultsToInboxUnread(t *testing.T) {
	s := newTestStore(t)

	ref, err := s.InsertMessage("me", SendMessageRequest{
		From: "bob@example.com",
		To:   []string{"me@gmail.com"},
		Body: "incoming",
	})
	require.NoError(t, err)
	assert.Equal(t, "message-1", ref.ID)
	assert.ElementsMatch(t, []string{LabelInbox, LabelUnread}, ref.LabelIDs)

	m, err := s.GetMessage("me", ref.ID, FormatFull, nil)
	require.NoError(t, err)
	assert.False(t, m.IsRead)
	assert.Equal(t, "bob@example.com", m.Sender)
}

func TestInternalDateValidation(t *testing.T) {
	s := newTestStore(t)

	tests := []struct {
		name         string
		internalDate string
		wantErr      bool
	}{
		{"milliseconds accepted", "1714000000000", false},
		{"seconds rejected", "1714000000", true},
		{"non-numeric rejected", "yesterday", true},
		{"wrong width rejected", "171400000000", true},
		{"empty uses clock", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.InsertMessage("me", SendMessageRequest{
				From: "a@b.c", To: []string{"me@gmail.com"}, Body: "x",
				InternalDate: tt.internalDate,
			})
			if tt.wantErr {
				var verr *simerr.ValidationError
				assert.ErrorAs(t, err, &verr)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestGetMessageFormats(t *testing.T) {
	s := newTestStore(t)

	ref, err := s.SendMessage("me", SendMessageRequest{
		To: []string{"alice@example.com"}, Subject: "subject line", Body: "body text",
	})
	require.NoError(t, err)

	minimal, err := s.GetMessage("me", ref.ID, FormatMinimal, nil)
	require.NoError(t, err)
	assert.Nil(t, minimal.Payload)
	assert.Empty(t, minimal.Body)
	assert.Equal(t, ref.ID, minimal.ID)

	metadata, err := s.GetMessage("me", ref.ID, FormatMetadata, []string{"Subject"})
	require.NoError(t, err)
	require.NotNil(t, metadata.Payload)
	require.Len(t, metadata.Payload.Headers, 1)
	assert.Equal(t, "Subject", metadata.Payload.Headers[0].Name)
	assert.Empty(t, metadata.Body)

	full, err := s.GetMessage("me", ref.ID, FormatFull, nil)
	require.NoError(t, err)
	require.NotNil(t, full.Payload)
	assert.Equal(t, "body text", full.Body)

	raw, err := s.GetMessage("me", ref.ID, FormatRaw, nil)
	require.NoError(t, err)
	assert.NotEmpty(t, raw.Raw)
	assert.Nil(t, raw.Payload)

	_, err = s.GetMessage("me", ref.ID, Format("xml"), nil)
	var ferr *simerr.InvalidFormatValueError
	require.ErrorAs(t, err, &ferr)
}

func TestListMessagesSortsAndFilters(t *testing.T) {
	s := newTestStore(t)

	old, err := s.InsertMessage("me", SendMessageRequest{
		From: "a@x.com", To: []string{"me@gmail.com"}, Body: "old",
		InternalDate: "1714000000000",
	})
	require.NoError(t, err)
	newer, err := s.InsertMessage("me", SendMessageRequest{
		From: "b@x.com", To: []string{"me@gmail.com"}, Body: "new",
		InternalDate: "1715000000000",
	})
	require.NoError(t, err)

	resp, err := s.ListMessages("me", ListMessagesRequest{})
	require.NoError(t, err)
	require.Len(t, resp.Messages, 2)
	assert.Equal(t, newer.ID, resp.Messages[0].ID)
	assert.Equal(t, old.ID, resp.Messages[1].ID)
	assert.Empty(t, resp.NextPageToken)

	resp, err = s.ListMessages("me", ListMessagesRequest{MaxResults: 1})
	require.NoError(t, err)
	assert.Len(t, resp.Messages, 1)

	_, err = s.ListMessages("me", ListMessagesRequest{MaxResults: 501})
	var merr *simerr.InvalidMaxResultsValueError
	require.ErrorAs(t, err, &merr)
}

func TestListMessagesExcludesTrashAndSpam(t *testing.T) {
	s := newTestStore(t)

	ref, err := s.InsertMessage("me", SendMessageRequest{
		From: "a@x.com", To: []string{"me@gmail.com"}, Body: "soon gone",
	})
	require.NoError(t, err)
	_, err = s.TrashMessage("me", ref.ID)
	require.NoError(t, err)

	resp, err := s.ListMessages("me", ListMessagesRequest{})
	require.NoError(t, err)
	assert.Empty(t, resp.Messages)

	resp, err = s.ListMessages("me", ListMessagesRequest{IncludeSpamTrash: true})
	require.NoError(t, err)
	assert.Len(t, resp.Messages, 1)
}

func TestModifyMessageLabels(t *testing.T) {
	s := newTestStore(t)

	ref, err := s.InsertMessage("me", SendMessageRequest{
		From: "a@x.com", To: []string{"me@gmail.com"}, Body: "x",
	})
	require.NoError(t, err)

	m, err := s.ModifyMessage("me", ref.ID, []string{"starred"}, []string{"UNREAD"})
	require.NoError(t, err)
	assert.Contains(t, m.LabelIDs, LabelStarred)
	assert.NotContains(t, m.LabelIDs, LabelUnread)
	assert.True(t, m.IsRead)

	_, err = s.ModifyMessage("me", ref.ID, nil, nil)
	var verr *simerr.ValidationError
	require.ErrorAs(t, err, &verr)

	// Adding TRASH through modify also strips INBOX.
	m, err = s.ModifyMessage("me", ref.ID, []string{"TRASH"}, nil)
	require.NoError(t, err)
	assert.NotContains(t, m.LabelIDs, LabelInbox)
}

func TestBatchModifyValidatesBeforeMutating(t *testing.T) {
	s := newTestStore(t)

	ref, err := s.InsertMessage("me", SendMessageRequest{
		From: "a@x.com", To: []string{"me@gmail.com"}, Body: "x",
	})
	require.NoError(t, err)

	err = s.BatchModifyMessages("me", []string{ref.ID, "message-404"}, []string{"STARRED"}, nil)
	var nf *simerr.NotFoundError
	require.ErrorAs(t, err, &nf)

	// The existing message must be untouched.
	m, err := s.GetMessage("me", ref.ID, FormatMinimal, nil)
	require.NoError(t, err)
	assert.NotContains(t, m.LabelIDs, LabelStarred)

	require.NoError(t, s.BatchModifyMessages("me", []string{ref.ID}, []string{"STARRED"}, nil))
	m, err = s.GetMessage("me", ref.ID, FormatMinimal, nil)
	require.NoError(t, err)
	assert.Contains(t, m.LabelIDs, LabelStarred)
}

func TestTrashUntrashRoundTrip(t *testing.T) {
	s := newTestStore(t)

	ref, err := s.InsertMessage("me", SendMessageRequest{
		From: "a@x.com", To: []string{"me@gmail.com"}, Body: "x",
	})
	require.NoError(t, err)

	m, err := s.TrashMessage("me", ref.ID)
	require.NoError(t, err)
	assert.Contains(t, m.LabelIDs, LabelTrash)
	assert.NotContains(t, m.LabelIDs, LabelInbox)

	m, err = s.UntrashMessage("me", ref.ID)
	require.NoError(t, err)
	assert.NotContains(t, m.LabelIDs, LabelTrash)
	assert.Contains(t, m.LabelIDs, LabelInbox)
}

func TestUntrashSentMessageDoesNotRestoreInbox(t *testing.T) {
	s := newTestStore(t)

	ref, err := s.SendMessage("me", SendMessageRequest{
		To: []string{"a@x.com"}, Body: "x",
	})
	require.NoError(t, err)

	_, err = s.TrashMessage("me", ref.ID)
	require.NoError(t, err)
	m, err := s.UntrashMessage("me", ref.ID)
	require.NoError(t, err)
	assert.NotContains(t, m.LabelIDs, LabelInbox)
	assert.Contains(t, m.LabelIDs, LabelSent)
}

func TestDeleteMessageRemovesEmptyThread(t *testing.T) {
	s := newTestStore(t)

	ref, err := s.SendMessage("me", SendMessageRequest{
		To: []string{"a@x.com"}, Body: "x",
	})
	require.NoError(t, err)

	require.NoError(t, s.DeleteMessage("me", ref.ID))

	_, err = s.GetMessage("me", ref.ID, FormatMinimal, nil)
	var nf *simerr.NotFoundError
	require.ErrorAs(t, err, &nf)

	_, err = s.GetThread("me", ref.ThreadID, FormatMinimal, nil)
	require.ErrorAs(t, err, &nf)

	profile, err := s.GetProfile("me")
	require.NoError(t, err)
	assert.Equal(t, 0, profile.MessagesTotal)
}

func TestBatchDeleteValidatesAllIDsFirst(t *testing.T) {
	s := newTestStore(t)

	ref, err := s.InsertMessage("me", SendMessageRequest{
		From: "a@x.com", To: []string{"me@gmail.com"}, Body: "x",
	})
	require.NoError(t, err)

	err = s.BatchDeleteMessages("me", []string{ref.ID, "missing"})
	var nf *simerr.NotFoundError
	require.ErrorAs(t, err, &nf)

	_, err = s.GetMessage("me", ref.ID, FormatMinimal, nil)
	require.NoError(t, err)

	require.NoError(t, s.BatchDeleteMessages("me", []string{ref.ID}))
}

func TestUserResolutionByEmail(t *testing.T) {
	s := newTestStore(t)

	_, err := s.GetProfile("me@gmail.com")
	require.NoError(t, err)

	_, err = s.GetProfile("nobody@example.com")
	var nf *simerr.NotFoundError
	require.ErrorAs(t, err, &nf)
}

func TestVerifyLabelCountsReportsDrift(t *testing.T) {
	s := newTestStore(t)

	_, err := s.InsertMessage("me", SendMessageRequest{
		From: "a@x.com", To: []string{"me@gmail.com"}, Body: "x",
	})
	require.NoError(t, err)

	drift, err := s.VerifyLabelCounts("me", false)
	require.NoError(t, err)
	assert.Empty(t, drift)

	// Introduce drift directly, the way a hand-written fixture could.
	s.users["me"].Labels[LabelInbox].MessagesTotal = 42

	drift, err = s.VerifyLabelCounts("me", false)
	require.NoError(t, err)
	require.Len(t, drift, 1)
	assert.Equal(t, LabelInbox, drift[0].LabelID)
	assert.Equal(t, 42, drift[0].Stored)
	assert.Equal(t, 1, drift[0].Actual)

	// Without fix the stored value stays wrong.
	assert.Equal(t, 42, s.users["me"].Labels[LabelInbox].MessagesTotal)

	_, err = s.VerifyLabelCounts("me", true)
	require.NoError(t, err)
	assert.Equal(t, 1, s.users["me"].Labels[LabelInbox].MessagesTotal)
}
