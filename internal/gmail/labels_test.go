package gmail

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teemow/mockbox/internal/simerr"
)

func TestCreateLabel(t *testing.T) {
	s := newTestStore(t)

	l, err := s.CreateLabel("me", LabelInput{Name: "Work"})
	require.NoError(t, err)
	assert.Equal(t, "Label_11", l.ID)
	assert.Equal(t, "Work", l.Name)
	assert.Equal(t, "user", l.Type)
	assert.Equal(t, "show", l.MessageListVisibility)
	assert.Equal(t, "labelShow", l.LabelListVisibility)

	l2, err := s.CreateLabel("me", LabelInput{Name: "Personal"})
	require.NoError(t, err)
	assert.Equal(t, "Label_12", l2.ID)
}

func TestCreateLabelValidation(t *testing.T) {
	s := newTestStore(t)

	_, err := s.CreateLabel("me", LabelInput{Name: "Existing"})
	require.NoError(t, err)

	var verr *simerr.ValidationError
	tests := []struct {
		name  string
		input LabelInput
	}{
		{"empty name", LabelInput{}},
		{"reserved system name", LabelInput{Name: "inbox"}},
		{"bad message visibility", LabelInput{Name: "X", MessageListVisibility: "visible"}},
		{"bad label visibility", LabelInput{Name: "X", LabelListVisibility: "always"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.CreateLabel("me", tt.input)
			assert.ErrorAs(t, err, &verr)
		})
	}

	_, err = s.CreateLabel("me", LabelInput{Name: "existing"})
	var cerr *simerr.ConflictError
	require.ErrorAs(t, err, &cerr)
}

func TestGetLabelNormalizesSystemIDs(t *testing.T) {
	s := newTestStore(t)

	l, err := s.GetLabel("me", "inbox")
	require.NoError(t, err)
	assert.Equal(t, LabelInbox, l.ID)

	_, err = s.GetLabel("me", "Label_999")
	var nf *simerr.NotFoundError
	require.ErrorAs(t, err, &nf)
}

func TestListLabelsOrder(t *testing.T) {
	s := newTestStore(t)

	_, err := s.CreateLabel("me", LabelInput{Name: "Zebra"})
	require.NoError(t, err)
	_, err = s.CreateLabel("me", LabelInput{Name: "Alpha"})
	require.NoError(t, err)

	labels, err := s.ListLabels("me")
	require.NoError(t, err)
	require.Len(t, labels, len(seededSystemLabels)+2)

	for i, name := range seededSystemLabels {
		assert.Equal(t, name, labels[i].ID)
	}
	assert.Equal(t, "Label_11", labels[len(seededSystemLabels)].ID)
	assert.Equal(t, "Label_12", labels[len(seededSystemLabels)+1].ID)
}

func TestUpdateLabel(t *testing.T) {
	s := newTestStore(t)

	l, err := s.CreateLabel("me", LabelInput{Name: "Old"})
	require.NoError(t, err)

	updated, err := s.UpdateLabel("me", l.ID, LabelInput{Name: "New", LabelListVisibility: "labelHide"})
	require.NoError(t, err)
	assert.Equal(t, "New", updated.Name)
	assert.Equal(t, "labelHide", updated.LabelListVisibility)
	// Untouched fields keep their values.
	assert.Equal(t, "show", updated.MessageListVisibility)

	_, err = s.UpdateLabel("me", LabelInbox, LabelInput{Name: "Mailbox"})
	var verr *simerr.ValidationError
	require.ErrorAs(t, err, &verr)

	other, err := s.CreateLabel("me", LabelInput{Name: "Taken"})
	require.NoError(t, err)
	_, err = s.UpdateLabel("me", l.ID, LabelInput{Name: "taken"})
	var cerr *simerr.ConflictError
	require.ErrorAs(t, err, &cerr)
	_ = other
}

func TestDeleteLabelStripsMessages(t *testing.T) {
	s := newTestStore(t)

	l, err := s.CreateLabel("me", LabelInput{Name: "Project"})
	require.NoError(t, err)
	ref, err := s.InsertMessage("me", SendMessageRequest{
		From: "a@x.com", To: []string{"me@gmail.com"}, Body: "x",
		LabelIDs: []string{LabelInbox, l.ID},
	})
	require.NoError(t, err)

	require.NoError(t, s.DeleteLabel("me", l.ID))

	m, err := s.GetMessage("me", ref.ID, FormatMinimal, nil)
	require.NoError(t, err)
	assert.NotContains(t, m.LabelIDs, l.ID)

	err = s.DeleteLabel("me", LabelInbox)
	var verr *simerr.ValidationError
	require.ErrorAs(t, err, &verr)
}

func TestLabelStatsTrackMessages(t *testing.T) {
	s := newTestStore(t)

	_, err := s.InsertMessage("me", SendMessageRequest{
		From: "a@x.com", To: []string{"me@gmail.com"}, Body: "one",
	})
	require.NoError(t, err)
	ref, err := s.InsertMessage("me", SendMessageRequest{
		From: "b@x.com", To: []string{"me@gmail.com"}, Body: "two",
	})
	require.NoError(t, err)

	inbox, err := s.GetLabel("me", LabelInbox)
	require.NoError(t, err)
	assert.Equal(t, 2, inbox.MessagesTotal)
	assert.Equal(t, 2, inbox.MessagesUnread)
	assert.Equal(t, 2, inbox.ThreadsTotal)

	_, err = s.ModifyMessage("me", ref.ID, nil, []string{LabelUnread})
	require.NoError(t, err)

	inbox, err = s.GetLabel("me", LabelInbox)
	require.NoError(t, err)
	assert.Equal(t, 2, inbox.MessagesTotal)
	assert.Equal(t, 1, inbox.MessagesUnread)
}
