package gmail

import (
	"fmt"
	"sort"

	"github.com/teemow/mockbox/internal/simerr"
)

// ThreadRef identifies a thread in list responses.
type ThreadRef struct {
	ID        string `json:"id"`
	Snippet   string `json:"snippet,omitempty"`
	HistoryID string `json:"historyId"`
}

// ListThreadsRequest mirrors the threads.list parameters.
type ListThreadsRequest struct {
	Query            string
	LabelIDs         []string
	MaxResults       int
	IncludeSpamTrash bool
}

// ListThreadsResponse is a single page of thread refs.
type ListThreadsResponse struct {
	Threads            []ThreadRef `json:"threads"`
	NextPageToken      string      `json:"nextPageToken,omitempty"`
	ResultSizeEstimate int         `json:"resultSizeEstimate"`
}

// GetThread returns a thread with its messages expanded, sorted by
// internalDate ascending, each shaped by format.
func (s *Store) GetThread(userID, threadID string, format Format, metadataHeaders []string) (*RenderedThread, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, err := s.user(userID)
	if err != nil {
		return nil, err
	}
	t, ok := u.Threads[threadID]
	if !ok {
		return nil, simerr.NotFound(fmt.Sprintf("thread '%s' not found", threadID))
	}

	msgs := u.threadMessages(t)
	sort.SliceStable(msgs, func(i, j int) bool {
		if msgs[i].InternalDate != msgs[j].InternalDate {
			return msgs[i].InternalDate < msgs[j].InternalDate
		}
		return msgs[i].ID < msgs[j].ID
	})

	rendered := &RenderedThread{ID: t.ID, HistoryID: t.HistoryID, Snippet: t.Snippet}
	for _, m := range msgs {
		rm, err := renderMessage(m, format, metadataHeaders)
		if err != nil {
			return nil, err
		}
		rendered.Messages = append(rendered.Messages, rm)
	}
	return rendered, nil
}

func (u *userState) threadMessages(t *Thread) []*Message {
	msgs := make([]*Message, 0, len(t.MessageIDs))
	for _, id := range t.MessageIDs {
		if m, ok := u.Messages[id]; ok {
			msgs = append(msgs, m)
		}
	}
	return msgs
}

// ListThreads returns threads in which at least one message matches the
// query and labels. TRASH and SPAM messages are invisible to the match
// unless includeSpamTrash is set.
func (s *Store) ListThreads(userID string, req ListThreadsRequest) (*ListThreadsResponse, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, err := s.user(userID)
	if err != nil {
		return nil, err
	}
	limit, err := normalizeMaxResults(req.MaxResults)
	if err != nil {
		return nil, err
	}

	wantLabels := make([]string, 0, len(req.LabelIDs))
	for _, id := range req.LabelIDs {
		wantLabels = append(wantLabels, NormalizeLabelID(id))
	}

	eval := s.newQueryEvaluator(u)
	type scored struct {
		t      *Thread
		latest string
	}
	var matched []scored
	for _, t := range u.Threads {
		include := false
		latest := ""
		for _, m := range u.threadMessages(t) {
			if !req.IncludeSpamTrash && (hasLabel(m.LabelIDs, LabelTrash) || hasLabel(m.LabelIDs, LabelSpam)) {
				continue
			}
			if m.InternalDate > latest {
				latest = m.InternalDate
			}
			if include {
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
				include = true
			}
		}
		if include {
			matched = append(matched, scored{t: t, latest: latest})
		}
	}

	sort.SliceStable(matched, func(i, j int) bool {
		if matched[i].latest != matched[j].latest {
			return matched[i].latest > matched[j].latest
		}
		return matched[i].t.ID > matched[j].t.ID
	})
	if len(matched) > limit {
		matched = matched[:limit]
	}

	resp := &ListThreadsResponse{Threads: []ThreadRef{}, ResultSizeEstimate: len(matched)}
	for _, sc := range matched {
		resp.Threads = append(resp.Threads, ThreadRef{ID: sc.t.ID, Snippet: sc.t.Snippet, HistoryID: sc.t.HistoryID})
	}
	return resp, nil
}

// ModifyThread applies label changes to every message in the thread.
func (s *Store) ModifyThread(userID, threadID string, addLabelIDs, removeLabelIDs []string) (*RenderedThread, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, err := s.user(userID)
	if err != nil {
		return nil, err
	}
	t, ok := u.Threads[threadID]
	if !ok {
		return nil, simerr.NotFound(fmt.Sprintf("thread '%s' not found", threadID))
	}
	if len(addLabelIDs) == 0 && len(removeLabelIDs) == 0 {
		return nil, simerr.Validation("at least one of addLabelIds or removeLabelIds must be provided")
	}

	historyID := s.bumpHistory(u)
	for _, m := range u.threadMessages(t) {
		applyLabelChanges(u, m, addLabelIDs, removeLabelIDs)
		m.HistoryID = historyID
	}
	t.HistoryID = historyID
	u.recomputeStats()
	return s.renderThreadLocked(u, t)
}

func (s *Store) renderThreadLocked(u *userState, t *Thread) (*RenderedThread, error) {
	rendered := &RenderedThread{ID: t.ID, HistoryID: t.HistoryID, Snippet: t.Snippet}
	msgs := u.threadMessages(t)
	sort.SliceStable(msgs, func(i, j int) bool { return msgs[i].InternalDate < msgs[j].InternalDate })
	for _, m := range msgs {
		rendered.Messages = append(rendered.Messages, cloneMessage(m))
	}
	return rendered, nil
}

// TrashThread trashes every message in the thread.
func (s *Store) TrashThread(userID, threadID string) (*RenderedThread, error) {
	return s.setThreadTrashed(userID, threadID, true)
}

// UntrashThread untrashes every message in the thread.
func (s *Store) UntrashThread(userID, threadID string) (*RenderedThread, error) {
	return s.setThreadTrashed(userID, threadID, false)
}

func (s *Store) setThreadTrashed(userID, threadID string, trashed bool) (*RenderedThread, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, err := s.user(userID)
	if err != nil {
		return nil, err
	}
	t, ok := u.Threads[threadID]
	if !ok {
		return nil, simerr.NotFound(fmt.Sprintf("thread '%s' not found", threadID))
	}

	historyID := s.bumpHistory(u)
	for _, m := range u.threadMessages(t) {
		if trashed {
			if !hasLabel(m.LabelIDs, LabelTrash) {
				m.LabelIDs = append(m.LabelIDs, LabelTrash)
			}
			m.LabelIDs = removeLabel(m.LabelIDs, LabelInbox)
		} else {
			m.LabelIDs = removeLabel(m.LabelIDs, LabelTrash)
			if !hasLabel(m.LabelIDs, LabelSent) && !hasLabel(m.LabelIDs, LabelDraft) && !hasLabel(m.LabelIDs, LabelInbox) {
				m.LabelIDs = append(m.LabelIDs, LabelInbox)
			}
		}
		m.HistoryID = historyID
	}
	t.HistoryID = historyID
	u.recomputeStats()
	return s.renderThreadLocked(u, t)
}

// DeleteThread permanently removes a thread and all of its messages,
// releasing orphaned attachments.
func (s *Store) DeleteThread(userID, threadID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, err := s.user(userID)
	if err != nil {
		return err
	}
	t, ok := u.Threads[threadID]
	if !ok {
		return simerr.NotFound(fmt.Sprintf("thread '%s' not found", threadID))
	}

	for _, id := range append([]string(nil), t.MessageIDs...) {
		if m, ok := u.Messages[id]; ok {
			s.releaseAttachments(m.Payload)
			delete(u.Messages, id)
		}
	}
	delete(u.Threads, threadID)
	s.bumpHistory(u)
	u.recomputeStats()
	return nil
}
