// Package gmail implements an in-memory simulation of the Gmail REST API:
// messages, drafts, labels, threads, attachments and the search query
// language. All state lives in a Store; operations validate their input
// fully before mutating and fail with the typed errors from
// internal/simerr.
package gmail

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/teemow/mockbox/internal/simerr"
)

// DefaultUserID is the seeded account every fresh store contains.
const DefaultUserID = "me"

const defaultEmailAddress = "me@gmail.com"

// seededSystemLabels are created for every user. STARRED is recognized as a
// system name but only materializes when first used.
var seededSystemLabels = []string{
	LabelInbox, LabelUnread, LabelImportant, LabelSent, LabelDraft, LabelTrash, LabelSpam,
}

var systemLabelSet = map[string]struct{}{
	LabelInbox:     {},
	LabelUnread:    {},
	LabelImportant: {},
	LabelSent:      {},
	LabelDraft:     {},
	LabelTrash:     {},
	LabelSpam:      {},
	LabelStarred:   {},
}

type userState struct {
	Profile  Profile
	Messages map[string]*Message
	Drafts   map[string]*Draft
	Threads  map[string]*Thread
	Labels   map[string]*Label
}

// Store holds the complete simulated Gmail state for all users.
type Store struct {
	mu          sync.RWMutex
	users       map[string]*userState
	attachments map[string]*Attachment
	counters    map[string]int

	// now is replaceable in tests for deterministic internalDate values.
	now func() time.Time
}

// NewStore returns a store seeded with the default user, its profile and the
// system labels.
func NewStore() *Store {
	s := &Store{now: time.Now}
	s.reset()
	return s
}

// Reset drops all state and re-seeds the default user.
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reset()
}

func (s *Store) reset() {
	s.users = map[string]*userState{
		DefaultUserID: newUserState(defaultEmailAddress),
	}
	s.attachments = map[string]*Attachment{}
	// The label counter starts at 10 so seeded fixtures can use low ids
	// without colliding with Label_11, Label_12, ...
	s.counters = map[string]int{
		"message": 0,
		"thread":  0,
		"draft":   0,
		"label":   10,
		"history": 1,
	}
}

func newUserState(email string) *userState {
	u := &userState{
		Profile:  Profile{EmailAddress: email, HistoryID: "1"},
		Messages: map[string]*Message{},
		Drafts:   map[string]*Draft{},
		Threads:  map[string]*Thread{},
		Labels:   map[string]*Label{},
	}
	for _, name := range seededSystemLabels {
		u.Labels[name] = newSystemLabel(name)
	}
	return u
}

func newSystemLabel(name string) *Label {
	return &Label{
		ID:                    name,
		Name:                  name,
		Type:                  "system",
		MessageListVisibility: "show",
		LabelListVisibility:   "labelShow",
	}
}

// user resolves a userId either by key or by profile email address.
func (s *Store) user(userID string) (*userState, error) {
	if userID == "" {
		return nil, simerr.Validation("userId must be provided")
	}
	if u, ok := s.users[userID]; ok {
		return u, nil
	}
	for _, u := range s.users {
		if strings.EqualFold(u.Profile.EmailAddress, userID) {
			return u, nil
		}
	}
	return nil, simerr.NotFound(fmt.Sprintf("user '%s' not found", userID))
}

// AddUser creates an account with its system labels. Used by seeding.
func (s *Store) AddUser(userID, email string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if userID == "" {
		return simerr.Validation("userId must be provided")
	}
	if _, ok := s.users[userID]; ok {
		return simerr.Conflict(fmt.Sprintf("user '%s' already exists", userID))
	}
	if email == "" {
		email = userID
	}
	s.users[userID] = newUserState(email)
	return nil
}

// GetProfile returns the user's profile document.
func (s *Store) GetProfile(userID string) (*Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, err := s.user(userID)
	if err != nil {
		return nil, err
	}
	p := u.Profile
	return &p, nil
}

func (s *Store) nextID(kind string) int {
	s.counters[kind]++
	return s.counters[kind]
}

func (s *Store) nowMillis() string {
	return strconv.FormatInt(s.now().UnixMilli(), 10)
}

// bumpHistory advances the global history counter and stamps the user's
// profile with it. Returns the new history id.
func (s *Store) bumpHistory(u *userState) string {
	id := strconv.Itoa(s.nextID("history"))
	u.Profile.HistoryID = id
	return id
}

// NormalizeLabelID maps case-insensitive matches of system label names to
// their canonical uppercase form and leaves user label ids untouched.
func NormalizeLabelID(id string) string {
	trimmed := strings.TrimSpace(id)
	upper := strings.ToUpper(trimmed)
	if _, ok := systemLabelSet[upper]; ok {
		return upper
	}
	return trimmed
}

func isSystemLabelID(id string) bool {
	_, ok := systemLabelSet[strings.ToUpper(id)]
	return ok
}

// ensureLabel materializes a label id on the user, creating system labels on
// demand (STARRED) and user labels named after their id.
func (u *userState) ensureLabel(id string) {
	if _, ok := u.Labels[id]; ok {
		return
	}
	if isSystemLabelID(id) {
		u.Labels[id] = newSystemLabel(id)
		return
	}
	u.Labels[id] = &Label{
		ID:                    id,
		Name:                  id,
		Type:                  "user",
		MessageListVisibility: "show",
		LabelListVisibility:   "labelShow",
	}
}

func containsString(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}

func hasLabel(labelIDs []string, id string) bool {
	return containsString(labelIDs, id)
}

func removeLabel(labelIDs []string, id string) []string {
	out := labelIDs[:0]
	for _, l := range labelIDs {
		if l != id {
			out = append(out, l)
		}
	}
	return out
}

// applyInboxExclusivity drops INBOX when SENT, DRAFT or TRASH is present.
func applyInboxExclusivity(labelIDs []string) []string {
	if hasLabel(labelIDs, LabelSent) || hasLabel(labelIDs, LabelDraft) || hasLabel(labelIDs, LabelTrash) {
		return removeLabel(labelIDs, LabelInbox)
	}
	return labelIDs
}

func messageIsRead(m *Message) bool {
	return !hasLabel(m.LabelIDs, LabelUnread)
}

// validateInternalDate accepts only 13-digit epoch-millisecond strings.
// Second-resolution timestamps are a common caller mistake and are rejected
// explicitly.
func validateInternalDate(v string) error {
	if v == "" {
		return nil
	}
	if _, err := strconv.ParseInt(v, 10, 64); err != nil {
		return simerr.Validation(fmt.Sprintf("internalDate '%s' is not a numeric timestamp", v))
	}
	if len(v) == 10 {
		return simerr.Validation(fmt.Sprintf("internalDate '%s' looks like epoch seconds; epoch milliseconds are required", v))
	}
	if len(v) != 13 {
		return simerr.Validation(fmt.Sprintf("internalDate '%s' must be a 13-digit epoch-millisecond timestamp", v))
	}
	return nil
}

func makeSnippet(body string) string {
	if len(body) > 100 {
		return body[:100]
	}
	return body
}

// recomputeStats rebuilds per-label statistics and the profile totals from
// the message and thread tables. Mutating operations call this after every
// change, which keeps the bookkeeping trivially consistent.
func (u *userState) recomputeStats() {
	for _, l := range u.Labels {
		l.MessagesTotal = 0
		l.MessagesUnread = 0
		l.ThreadsTotal = 0
		l.ThreadsUnread = 0
	}
	for _, m := range u.Messages {
		unread := !messageIsRead(m)
		for _, id := range m.LabelIDs {
			l, ok := u.Labels[id]
			if !ok {
				continue
			}
			l.MessagesTotal++
			if unread {
				l.MessagesUnread++
			}
		}
	}
	for _, t := range u.Threads {
		seen := map[string]struct{}{}
		unseen := map[string]struct{}{}
		for _, mid := range t.MessageIDs {
			m, ok := u.Messages[mid]
			if !ok {
				continue
			}
			unread := !messageIsRead(m)
			for _, id := range m.LabelIDs {
				seen[id] = struct{}{}
				if unread {
					unseen[id] = struct{}{}
				}
			}
		}
		for id := range seen {
			if l, ok := u.Labels[id]; ok {
				l.ThreadsTotal++
			}
		}
		for id := range unseen {
			if l, ok := u.Labels[id]; ok {
				l.ThreadsUnread++
			}
		}
	}
	u.Profile.MessagesTotal = len(u.Messages)
	u.Profile.ThreadsTotal = len(u.Threads)
}

// LabelCountDrift describes a mismatch between a label's stored statistics
// and the values recomputed from the message table.
type LabelCountDrift struct {
	LabelID string `json:"labelId"`
	Field   string `json:"field"`
	Stored  int    `json:"stored"`
	Actual  int    `json:"actual"`
}

// VerifyLabelCounts recomputes label statistics for a user and reports any
// drift against the stored values. With fix set the stored values are
// repaired. Drift can only be introduced by seed fixtures that carry their
// own counts.
func (s *Store) VerifyLabelCounts(userID string, fix bool) ([]LabelCountDrift, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, err := s.user(userID)
	if err != nil {
		return nil, err
	}

	stored := map[string]Label{}
	for id, l := range u.Labels {
		stored[id] = *l
	}
	u.recomputeStats()

	var drift []LabelCountDrift
	ids := make([]string, 0, len(u.Labels))
	for id := range u.Labels {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		actual := u.Labels[id]
		prev := stored[id]
		for _, c := range []struct {
			field          string
			stored, actual int
		}{
			{"messagesTotal", prev.MessagesTotal, actual.MessagesTotal},
			{"messagesUnread", prev.MessagesUnread, actual.MessagesUnread},
			{"threadsTotal", prev.ThreadsTotal, actual.ThreadsTotal},
			{"threadsUnread", prev.ThreadsUnread, actual.ThreadsUnread},
		} {
			if c.stored != c.actual {
				drift = append(drift, LabelCountDrift{LabelID: id, Field: c.field, Stored: c.stored, Actual: c.actual})
			}
		}
	}

	if !fix {
		// Restore the stored values; verification must not mutate.
		for id, prev := range stored {
			l := u.Labels[id]
			l.MessagesTotal = prev.MessagesTotal
			l.MessagesUnread = prev.MessagesUnread
			l.ThreadsTotal = prev.ThreadsTotal
			l.ThreadsUnread = prev.ThreadsUnread
		}
	}
	return drift, nil
}

// ---- address helpers ----

// extractEmail pulls the bare address out of both "Name <a@b.c>" and
// "a@b.c" forms.
func extractEmail(addr string) string {
	addr = strings.TrimSpace(addr)
	if i := strings.LastIndex(addr, "<"); i >= 0 {
		if j := strings.Index(addr[i:], ">"); j > 0 {
			return strings.TrimSpace(addr[i+1 : i+j])
		}
	}
	return addr
}

func addressesEqual(a, b string) bool {
	return strings.EqualFold(extractEmail(a), extractEmail(b))
}

// splitAddressList splits a comma-separated recipient list, dropping empty
// entries.
func splitAddressList(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// ---- copy helpers ----

func clonePart(p *Part) *Part {
	if p == nil {
		return nil
	}
	cp := *p
	if p.Body != nil {
		b := *p.Body
		cp.Body = &b
	}
	cp.Headers = append([]Header(nil), p.Headers...)
	cp.Parts = nil
	for _, sub := range p.Parts {
		cp.Parts = append(cp.Parts, clonePart(sub))
	}
	return &cp
}

func cloneMessage(m *Message) *Message {
	cp := *m
	cp.LabelIDs = append([]string(nil), m.LabelIDs...)
	cp.To = append([]string(nil), m.To...)
	cp.Cc = append([]string(nil), m.Cc...)
	cp.Bcc = append([]string(nil), m.Bcc...)
	cp.Payload = clonePart(m.Payload)
	cp.IsRead = messageIsRead(m)
	return &cp
}
