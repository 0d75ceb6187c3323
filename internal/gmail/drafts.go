package gmail

import (
	"fmt"
	"sort"

	"github.com/teemow/mockbox/internal/simerr"
)

// ListDraftsResponse is a single page of draft refs.
type ListDraftsResponse struct {
	Drafts             []DraftRef `json:"drafts"`
	NextPageToken      string     `json:"nextPageToken,omitempty"`
	ResultSizeEstimate int        `json:"resultSizeEstimate"`
}

// DraftQueryEvaluator evaluates search queries against drafts by matching
// the embedded message.
type DraftQueryEvaluator struct {
	inner *QueryEvaluator
}

func (s *Store) newDraftQueryEvaluator(u *userState) *DraftQueryEvaluator {
	return &DraftQueryEvaluator{inner: s.newQueryEvaluator(u)}
}

// Matches reports whether the draft's message satisfies the query.
func (e *DraftQueryEvaluator) Matches(query string, d *Draft) (bool, error) {
	if d.Message == nil {
		return false, nil
	}
	return e.inner.Matches(query, d.Message)
}

// CreateDraft stores a new draft. Unlike send, a draft does not need
// recipients yet; they are required when the draft is sent.
func (s *Store) CreateDraft(userID string, req SendMessageRequest) (*Draft, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, err := s.user(userID)
	if err != nil {
		return nil, err
	}

	id := fmt.Sprintf("draft-%d", s.nextID("draft"))
	m, err := s.buildDraftMessage(u, id, req)
	if err != nil {
		return nil, err
	}

	d := &Draft{ID: id, Message: m}
	u.Drafts[id] = d
	s.bumpHistory(u)
	return cloneDraft(d), nil
}

// buildDraftMessage assembles the message stored inside a draft. The caller
// holds the lock. Draft messages live only in the draft table, never in the
// message table, until the draft is sent.
func (s *Store) buildDraftMessage(u *userState, draftID string, req SendMessageRequest) (*Message, error) {
	sender := u.Profile.EmailAddress
	if req.From != "" {
		sender = req.From
	}
	to, cc, bcc := req.To, req.Cc, req.Bcc
	subject, body := req.Subject, req.Body
	attachments := req.Attachments

	if req.Raw != "" {
		parsed, err := ParseMIMEMessage(req.Raw)
		if err != nil {
			return nil, simerr.Validation(fmt.Sprintf("invalid raw message: %v", err))
		}
		if parsed.From != "" {
			sender = parsed.From
		}
		to, cc, bcc = parsed.To, parsed.Cc, parsed.Bcc
		subject, body = parsed.Subject, parsed.Body
		attachments = parsed.Attachments
	}

	if err := validateInternalDate(req.InternalDate); err != nil {
		return nil, err
	}
	if req.ThreadID != "" {
		if _, ok := u.Threads[req.ThreadID]; !ok {
			return nil, simerr.NotFound(fmt.Sprintf("thread '%s' not found", req.ThreadID))
		}
	}

	atts, err := s.registerAttachments(draftID, attachments)
	if err != nil {
		return nil, err
	}

	internalDate := req.InternalDate
	if internalDate == "" {
		internalDate = s.nowMillis()
	}
	size := len(body)
	for _, att := range atts {
		size += att.Size
	}

	return &Message{
		ID:           draftID + "_msg",
		ThreadID:     req.ThreadID,
		LabelIDs:     []string{LabelDraft},
		Snippet:      makeSnippet(body),
		HistoryID:    u.Profile.HistoryID,
		InternalDate: internalDate,
		SizeEstimate: size,
		Payload:      buildPayload(sender, to, subject, body, atts),
		Raw:          req.Raw,
		Sender:       sender,
		To:           to,
		Cc:           cc,
		Bcc:          bcc,
		Subject:      subject,
		Body:         body,
	}, nil
}

// GetDraft returns a draft with its message shaped by format.
func (s *Store) GetDraft(userID, draftID string, format Format) (*Draft, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, err := s.user(userID)
	if err != nil {
		return nil, err
	}
	d, ok := u.Drafts[draftID]
	if !ok {
		return nil, simerr.NotFound(fmt.Sprintf("draft '%s' not found", draftID))
	}
	m, err := renderMessage(d.Message, format, nil)
	if err != nil {
		return nil, err
	}
	return &Draft{ID: d.ID, Message: m}, nil
}

// ListDrafts filters drafts by query and returns refs sorted by the embedded
// message's internalDate descending.
func (s *Store) ListDrafts(userID, query string, maxResults int) (*ListDraftsResponse, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, err := s.user(userID)
	if err != nil {
		return nil, err
	}
	limit, err := normalizeMaxResults(maxResults)
	if err != nil {
		return nil, err
	}

	eval := s.newDraftQueryEvaluator(u)
	var matched []*Draft
	for _, d := range u.Drafts {
		ok, err := eval.Matches(query, d)
		if err != nil {
			return nil, err
		}
		if ok {
			matched = append(matched, d)
		}
	}

	sort.SliceStable(matched, func(i, j int) bool {
		a, b := matched[i].Message, matched[j].Message
		if a.InternalDate != b.InternalDate {
			return a.InternalDate > b.InternalDate
		}
		return matched[i].ID > matched[j].ID
	})
	if len(matched) > limit {
		matched = matched[:limit]
	}

	resp := &ListDraftsResponse{Drafts: []DraftRef{}, ResultSizeEstimate: len(matched)}
	for _, d := range matched {
		resp.Drafts = append(resp.Drafts, DraftRef{
			ID:      d.ID,
			Message: &MessageRef{ID: d.Message.ID, ThreadID: d.Message.ThreadID},
		})
	}
	return resp, nil
}

// UpdateDraft replaces the draft's message in place, keeping the draft id.
func (s *Store) UpdateDraft(userID, draftID string, req SendMessageRequest) (*Draft, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, err := s.user(userID)
	if err != nil {
		return nil, err
	}
	d, ok := u.Drafts[draftID]
	if !ok {
		return nil, simerr.NotFound(fmt.Sprintf("draft '%s' not found", draftID))
	}

	old := d.Message
	m, err := s.buildDraftMessage(u, draftID, req)
	if err != nil {
		return nil, err
	}
	d.Message = m
	if old != nil {
		s.releaseDraftOrphans(old, m)
	}
	s.bumpHistory(u)
	return cloneDraft(d), nil
}

// releaseDraftOrphans removes attachments referenced by the old draft
// message that the replacement no longer carries and nothing else uses.
func (s *Store) releaseDraftOrphans(old, replacement *Message) {
	kept := map[string]struct{}{}
	for _, id := range collectAttachmentIDs(replacement.Payload) {
		kept[id] = struct{}{}
	}
	for _, id := range collectAttachmentIDs(old.Payload) {
		if _, ok := kept[id]; ok {
			continue
		}
		if s.attachmentRefCount(id) == 0 {
			delete(s.attachments, id)
		}
	}
}

// DeleteDraft permanently removes a draft and its orphaned attachments.
func (s *Store) DeleteDraft(userID, draftID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, err := s.user(userID)
	if err != nil {
		return err
	}
	d, ok := u.Drafts[draftID]
	if !ok {
		return simerr.NotFound(fmt.Sprintf("draft '%s' not found", draftID))
	}
	if d.Message != nil {
		s.releaseAttachments(d.Message.Payload)
	}
	delete(u.Drafts, draftID)
	s.bumpHistory(u)
	return nil
}

// SendDraft materializes a draft through the regular send path and deletes
// the draft. The draft's recipients must be present by now.
func (s *Store) SendDraft(userID, draftID string) (*MessageRef, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, err := s.user(userID)
	if err != nil {
		return nil, err
	}
	d, ok := u.Drafts[draftID]
	if !ok {
		return nil, simerr.NotFound(fmt.Sprintf("draft '%s' not found", draftID))
	}
	m := d.Message
	if m == nil {
		return nil, simerr.Validation(fmt.Sprintf("draft '%s' has no message", draftID))
	}

	req := SendMessageRequest{
		From:     m.Sender,
		To:       m.To,
		Cc:       m.Cc,
		Bcc:      m.Bcc,
		Subject:  m.Subject,
		Body:     m.Body,
		ThreadID: m.ThreadID,
	}
	for _, attID := range collectAttachmentIDs(m.Payload) {
		att, ok := s.attachments[attID]
		if !ok {
			continue
		}
		req.Attachments = append(req.Attachments, AttachmentInput{
			Filename: att.Filename,
			MimeType: att.MimeType,
			Data:     att.Data,
		})
	}

	sent, err := s.addMessage(u, req, addMessageOptions{
		idFormat:      "msg_%d",
		forcedLabels:  []string{LabelSent},
		requireSender: true,
	})
	if err != nil {
		return nil, err
	}

	s.releaseAttachments(m.Payload)
	delete(u.Drafts, draftID)
	u.recomputeStats()
	return &MessageRef{ID: sent.ID, ThreadID: sent.ThreadID, LabelIDs: append([]string(nil), sent.LabelIDs...)}, nil
}

func cloneDraft(d *Draft) *Draft {
	cp := &Draft{ID: d.ID}
	if d.Message != nil {
		cp.Message = cloneMessage(d.Message)
	}
	return cp
}
