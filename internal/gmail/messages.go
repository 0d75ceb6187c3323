package gmail

import (
	"fmt"
	"sort"
	"strings"

	"github.com/teemow/mockbox/internal/simerr"
)

// SendMessageRequest carries the payload for messages.send, messages.insert
// and messages.import. Raw takes precedence over the structured fields.
type SendMessageRequest struct {
	Raw          string            `json:"raw,omitempty"`
	From         string            `json:"from,omitempty"`
	To           []string          `json:"to,omitempty"`
	Cc           []string          `json:"cc,omitempty"`
	Bcc          []string          `json:"bcc,omitempty"`
	Subject      string            `json:"subject,omitempty"`
	Body         string            `json:"body,omitempty"`
	ThreadID     string            `json:"threadId,omitempty"`
	LabelIDs     []string          `json:"labelIds,omitempty"`
	InternalDate string            `json:"internalDate,omitempty"`
	Attachments  []AttachmentInput `json:"attachments,omitempty"`
}

// ListMessagesRequest mirrors the messages.list parameters.
type ListMessagesRequest struct {
	Query            string
	LabelIDs         []string
	MaxResults       int
	IncludeSpamTrash bool
}

// ListMessagesResponse is a single page; the store has no pagination backing
// store, so NextPageToken is always empty.
type ListMessagesResponse struct {
	Messages           []MessageRef `json:"messages"`
	NextPageToken      string       `json:"nextPageToken,omitempty"`
	ResultSizeEstimate int          `json:"resultSizeEstimate"`
}

// SendMessage validates, stores and "sends" a message: it gets the SENT
// label, joins or creates a thread, and updates profile and label
// statistics.
func (s *Store) SendMessage(userID string, req SendMessageRequest) (*MessageRef, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, err := s.user(userID)
	if err != nil {
		return nil, err
	}
	m, err := s.addMessage(u, req, addMessageOptions{
		idFormat:      "msg_%d",
		forcedLabels:  []string{LabelSent},
		requireSender: true,
	})
	if err != nil {
		return nil, err
	}
	return &MessageRef{ID: m.ID, ThreadID: m.ThreadID, LabelIDs: append([]string(nil), m.LabelIDs...)}, nil
}

// InsertMessage stores a message without the sending side effects, the way
// messages.insert delivers mail directly into a mailbox.
func (s *Store) InsertMessage(userID string, req SendMessageRequest) (*MessageRef, error) {
	return s.receiveMessage(userID, req)
}

// ImportMessage behaves like InsertMessage; the simulation does not apply
// spam classification on import.
func (s *Store) ImportMessage(userID string, req SendMessageRequest) (*MessageRef, error) {
	return s.receiveMessage(userID, req)
}

func (s *Store) receiveMessage(userID string, req SendMessageRequest) (*MessageRef, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, err := s.user(userID)
	if err != nil {
		return nil, err
	}
	opts := addMessageOptions{idFormat: "message-%d"}
	if len(req.LabelIDs) == 0 {
		opts.forcedLabels = []string{LabelInbox, LabelUnread}
	}
	m, err := s.addMessage(u, req, opts)
	if err != nil {
		return nil, err
	}
	return &MessageRef{ID: m.ID, ThreadID: m.ThreadID, LabelIDs: append([]string(nil), m.LabelIDs...)}, nil
}

type addMessageOptions struct {
	idFormat      string
	forcedLabels  []string
	requireSender bool
}

// addMessage is the shared storage path for send, insert, import and draft
// materialization. The caller holds the lock.
func (s *Store) addMessage(u *userState, req SendMessageRequest, opts addMessageOptions) (*Message, error) {
	sender := u.Profile.EmailAddress
	if req.From != "" {
		sender = req.From
	}
	to, cc, bcc := req.To, req.Cc, req.Bcc
	subject, body := req.Subject, req.Body
	attachments := req.Attachments
	raw := req.Raw

	if raw != "" {
		parsed, err := ParseMIMEMessage(raw)
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

	if len(to) == 0 && len(cc) == 0 && len(bcc) == 0 {
		return nil, simerr.Validation("at least one recipient (to, cc or bcc) is required")
	}
	if opts.requireSender && sender == "" {
		return nil, simerr.Validation("sender address could not be determined")
	}
	if err := validateInternalDate(req.InternalDate); err != nil {
		return nil, err
	}
	if req.ThreadID != "" {
		if _, ok := u.Threads[req.ThreadID]; !ok {
			return nil, simerr.NotFound(fmt.Sprintf("thread '%s' not found", req.ThreadID))
		}
	}

	labelIDs := append([]string(nil), opts.forcedLabels...)
	for _, id := range req.LabelIDs {
		id = NormalizeLabelID(id)
		if id == "" || hasLabel(labelIDs, id) {
			continue
		}
		labelIDs = append(labelIDs, id)
	}
	labelIDs = applyInboxExclusivity(labelIDs)
	for _, id := range labelIDs {
		u.ensureLabel(id)
	}

	id := fmt.Sprintf(opts.idFormat, s.nextID("message"))

	atts, err := s.registerAttachments(id, attachments)
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

	historyID := s.bumpHistory(u)
	m := &Message{
		ID:           id,
		LabelIDs:     labelIDs,
		Snippet:      makeSnippet(body),
		HistoryID:    historyID,
		InternalDate: internalDate,
		SizeEstimate: size,
		Payload:      buildPayload(sender, to, subject, body, atts),
		Raw:          raw,
		Sender:       sender,
		To:           to,
		Cc:           cc,
		Bcc:          bcc,
		Subject:      subject,
		Body:         body,
	}

	threadID := req.ThreadID
	if threadID == "" {
		threadID = fmt.Sprintf("thread-%d", s.nextID("thread"))
		u.Threads[threadID] = &Thread{ID: threadID, HistoryID: historyID}
	}
	m.ThreadID = threadID
	t := u.Threads[threadID]
	t.MessageIDs = append(t.MessageIDs, id)
	t.HistoryID = historyID
	t.Snippet = m.Snippet

	u.Messages[id] = m
	u.recomputeStats()
	return m, nil
}

// GetMessage returns a message shaped by the requested format. For metadata,
// metadataHeaders restricts which payload headers are returned.
func (s *Store) GetMessage(userID, messageID string, format Format, metadataHeaders []string) (*Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, err := s.user(userID)
	if err != nil {
		return nil, err
	}
	m, ok := u.Messages[messageID]
	if !ok {
		return nil, simerr.NotFound(fmt.Sprintf("message '%s' not found", messageID))
	}
	return renderMessage(m, format, metadataHeaders)
}

func renderMessage(m *Message, format Format, metadataHeaders []string) (*Message, error) {
	if format == "" {
		format = FormatFull
	}
	cp := cloneMessage(m)
	switch format {
	case FormatMinimal:
		cp.Payload = nil
		cp.Raw = ""
		cp.Body = ""
		cp.Subject = ""
		cp.Sender = ""
		cp.To, cp.Cc, cp.Bcc = nil, nil, nil
	case FormatMetadata:
		cp.Raw = ""
		cp.Body = ""
		if cp.Payload != nil {
			headers := cp.Payload.Headers
			if len(metadataHeaders) > 0 {
				var filtered []Header
				for _, h := range headers {
					for _, want := range metadataHeaders {
						if strings.EqualFold(h.Name, want) {
							filtered = append(filtered, h)
							break
						}
					}
				}
				headers = filtered
			}
			cp.Payload = &Part{MimeType: cp.Payload.MimeType, Headers: headers}
		}
	case FormatFull:
		cp.Raw = ""
	case FormatRaw:
		if cp.Raw == "" {
			raw, err := BuildMIMEMessage(m.Sender, m.To, m.Cc, m.Bcc, m.Subject, m.Body, nil, messageTime(m))
			if err == nil {
				cp.Raw = raw
			}
		}
		cp.Payload = nil
	default:
		return nil, simerr.InvalidFormatValue(fmt.Sprintf(
			"format '%s' is not supported; use minimal, metadata, full or raw", format))
	}
	return cp, nil
}

// ListMessages filters by labels and query, excludes TRASH and SPAM unless
// asked otherwise, and returns ids sorted by internalDate descending.
func (s *Store) ListMessages(userID string, req ListMessagesRequest) (*ListMessagesResponse, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, err := s.user(userID)
	if err != nil {
		return nil, err
	}

	maxResults, err := normalizeMaxResults(req.MaxResults)
	if err != nil {
		return nil, err
	}

	wantLabels := make([]string, 0, len(req.LabelIDs))
	for _, id := range req.LabelIDs {
		wantLabels = append(wantLabels, NormalizeLabelID(id))
	}

	eval := s.newQueryEvaluator(u)
	var matched []*Message
	for _, m := range u.Messages {
		if !req.IncludeSpamTrash && (hasLabel(m.LabelIDs, LabelTrash) || hasLabel(m.LabelIDs, LabelSpam)) {
			continue
		}
		if !messageHasAllLabels(m, wantLabels) {
			continue
		}
		ok, err := eval.Matches(req.Query, m)
		if err != nil {
			return nil, err
		}
		if ok {
			matched = append(matched, m)
		}
	}

	sortMessagesByDateDesc(matched)
	if len(matched) > maxResults {
		matched = matched[:maxResults]
	}

	resp := &ListMessagesResponse{Messages: []MessageRef{}, ResultSizeEstimate: len(matched)}
	for _, m := range matched {
		resp.Messages = append(resp.Messages, MessageRef{ID: m.ID, ThreadID: m.ThreadID})
	}
	return resp, nil
}

func messageHasAllLabels(m *Message, labels []string) bool {
	for _, id := range labels {
		if !hasLabel(m.LabelIDs, id) {
			return false
		}
	}
	return true
}

func sortMessagesByDateDesc(msgs []*Message) {
	sort.SliceStable(msgs, func(i, j int) bool {
		if msgs[i].InternalDate != msgs[j].InternalDate {
			return msgs[i].InternalDate > msgs[j].InternalDate
		}
		return msgs[i].ID > msgs[j].ID
	})
}

// normalizeMaxResults defaults to 100 and enforces the 1..500 API bounds.
func normalizeMaxResults(v int) (int, error) {
	if v == 0 {
		return 100, nil
	}
	if v < 1 || v > 500 {
		return 0, simerr.InvalidMaxResultsValue(fmt.Sprintf("maxResults %d must be between 1 and 500", v))
	}
	return v, nil
}

// ModifyMessage adds and removes labels on a message.
func (s *Store) ModifyMessage(userID, messageID string, addLabelIDs, removeLabelIDs []string) (*Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, err := s.user(userID)
	if err != nil {
		return nil, err
	}
	m, ok := u.Messages[messageID]
	if !ok {
		return nil, simerr.NotFound(fmt.Sprintf("message '%s' not found", messageID))
	}
	if len(addLabelIDs) == 0 && len(removeLabelIDs) == 0 {
		return nil, simerr.Validation("at least one of addLabelIds or removeLabelIds must be provided")
	}

	applyLabelChanges(u, m, addLabelIDs, removeLabelIDs)
	m.HistoryID = s.bumpHistory(u)
	u.recomputeStats()
	return cloneMessage(m), nil
}

func applyLabelChanges(u *userState, m *Message, addLabelIDs, removeLabelIDs []string) {
	for _, id := range addLabelIDs {
		id = NormalizeLabelID(id)
		if id == "" {
			continue
		}
		u.ensureLabel(id)
		if !hasLabel(m.LabelIDs, id) {
			m.LabelIDs = append(m.LabelIDs, id)
		}
	}
	for _, id := range removeLabelIDs {
		m.LabelIDs = removeLabel(m.LabelIDs, NormalizeLabelID(id))
	}
	m.LabelIDs = applyInboxExclusivity(m.LabelIDs)
}

// BatchModifyMessages applies the same label changes to several messages.
// All ids are validated before the first mutation.
func (s *Store) BatchModifyMessages(userID string, messageIDs, addLabelIDs, removeLabelIDs []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, err := s.user(userID)
	if err != nil {
		return err
	}
	if len(messageIDs) == 0 {
		return simerr.Validation("ids must be provided")
	}
	for _, id := range messageIDs {
		if _, ok := u.Messages[id]; !ok {
			return simerr.NotFound(fmt.Sprintf("message '%s' not found", id))
		}
	}
	for _, id := range messageIDs {
		applyLabelChanges(u, u.Messages[id], addLabelIDs, removeLabelIDs)
	}
	s.bumpHistory(u)
	u.recomputeStats()
	return nil
}

// TrashMessage adds TRASH and removes INBOX.
func (s *Store) TrashMessage(userID, messageID string) (*Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, err := s.user(userID)
	if err != nil {
		return nil, err
	}
	m, ok := u.Messages[messageID]
	if !ok {
		return nil, simerr.NotFound(fmt.Sprintf("message '%s' not found", messageID))
	}
	if !hasLabel(m.LabelIDs, LabelTrash) {
		m.LabelIDs = append(m.LabelIDs, LabelTrash)
	}
	m.LabelIDs = removeLabel(m.LabelIDs, LabelInbox)
	m.HistoryID = s.bumpHistory(u)
	u.recomputeStats()
	return cloneMessage(m), nil
}

// UntrashMessage removes TRASH and restores INBOX unless the message is sent
// mail or a draft.
func (s *Store) UntrashMessage(userID, messageID string) (*Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, err := s.user(userID)
	if err != nil {
		return nil, err
	}
	m, ok := u.Messages[messageID]
	if !ok {
		return nil, simerr.NotFound(fmt.Sprintf("message '%s' not found", messageID))
	}
	m.LabelIDs = removeLabel(m.LabelIDs, LabelTrash)
	if !hasLabel(m.LabelIDs, LabelSent) && !hasLabel(m.LabelIDs, LabelDraft) && !hasLabel(m.LabelIDs, LabelInbox) {
		m.LabelIDs = append(m.LabelIDs, LabelInbox)
	}
	m.HistoryID = s.bumpHistory(u)
	u.recomputeStats()
	return cloneMessage(m), nil
}

// DeleteMessage permanently removes a message, its orphaned attachments and,
// if it was the last message, its thread.
func (s *Store) DeleteMessage(userID, messageID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, err := s.user(userID)
	if err != nil {
		return err
	}
	return s.deleteMessageLocked(u, messageID)
}

func (s *Store) deleteMessageLocked(u *userState, messageID string) error {
	m, ok := u.Messages[messageID]
	if !ok {
		return simerr.NotFound(fmt.Sprintf("message '%s' not found", messageID))
	}
	s.releaseAttachments(m.Payload)
	delete(u.Messages, messageID)

	if t, ok := u.Threads[m.ThreadID]; ok {
		t.MessageIDs = removeLabel(t.MessageIDs, messageID)
		if len(t.MessageIDs) == 0 {
			delete(u.Threads, m.ThreadID)
		}
	}
	s.bumpHistory(u)
	u.recomputeStats()
	return nil
}

// BatchDeleteMessages removes several messages. All ids are validated before
// the first deletion.
func (s *Store) BatchDeleteMessages(userID string, messageIDs []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, err := s.user(userID)
	if err != nil {
		return err
	}
	if len(messageIDs) == 0 {
		return simerr.Validation("ids must be provided")
	}
	for _, id := range messageIDs {
		if _, ok := u.Messages[id]; !ok {
			return simerr.NotFound(fmt.Sprintf("message '%s' not found", id))
		}
	}
	for _, id := range messageIDs {
		if err := s.deleteMessageLocked(u, id); err != nil {
			return err
		}
	}
	return nil
}
