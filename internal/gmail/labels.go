package gmail

import (
	"fmt"
	"sort"
	"strings"

	"github.com/teemow/mockbox/internal/simerr"
)

var validMessageListVisibility = map[string]struct{}{"show": {}, "hide": {}}

var validLabelListVisibility = map[string]struct{}{
	"labelShow":         {},
	"labelHide":         {},
	"labelShowIfUnread": {},
}

// LabelInput carries create/update parameters for user labels.
type LabelInput struct {
	Name                  string `json:"name"`
	MessageListVisibility string `json:"messageListVisibility,omitempty"`
	LabelListVisibility   string `json:"labelListVisibility,omitempty"`
}

func validateLabelVisibility(in LabelInput) error {
	if in.MessageListVisibility != "" {
		if _, ok := validMessageListVisibility[in.MessageListVisibility]; !ok {
			return simerr.Validation(fmt.Sprintf(
				"messageListVisibility '%s' is not valid; use show or hide", in.MessageListVisibility))
		}
	}
	if in.LabelListVisibility != "" {
		if _, ok := validLabelListVisibility[in.LabelListVisibility]; !ok {
			return simerr.Validation(fmt.Sprintf(
				"labelListVisibility '%s' is not valid; use labelShow, labelHide or labelShowIfUnread", in.LabelListVisibility))
		}
	}
	return nil
}

// CreateLabel creates a user label. Names are unique case-insensitively and
// system names are reserved.
func (s *Store) CreateLabel(userID string, in LabelInput) (*Label, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, err := s.user(userID)
	if err != nil {
		return nil, err
	}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, simerr.Validation("label name must be provided")
	}
	if isSystemLabelID(name) {
		return nil, simerr.Validation(fmt.Sprintf("label name '%s' is reserved for system labels", name))
	}
	if err := validateLabelVisibility(in); err != nil {
		return nil, err
	}
	for _, l := range u.Labels {
		if strings.EqualFold(l.Name, name) {
			return nil, simerr.Conflict(fmt.Sprintf("label '%s' already exists", name))
		}
	}

	l := &Label{
		ID:                    fmt.Sprintf("Label_%d", s.nextID("label")),
		Name:                  name,
		Type:                  "user",
		MessageListVisibility: in.MessageListVisibility,
		LabelListVisibility:   in.LabelListVisibility,
	}
	if l.MessageListVisibility == "" {
		l.MessageListVisibility = "show"
	}
	if l.LabelListVisibility == "" {
		l.LabelListVisibility = "labelShow"
	}
	u.Labels[l.ID] = l
	s.bumpHistory(u)
	cp := *l
	return &cp, nil
}

// GetLabel returns a label with its live statistics.
func (s *Store) GetLabel(userID, labelID string) (*Label, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, err := s.user(userID)
	if err != nil {
		return nil, err
	}
	l, ok := u.Labels[NormalizeLabelID(labelID)]
	if !ok {
		return nil, simerr.NotFound(fmt.Sprintf("label '%s' not found", labelID))
	}
	cp := *l
	return &cp, nil
}

// ListLabels returns system labels first (in their canonical order), then
// user labels sorted by id.
func (s *Store) ListLabels(userID string) ([]*Label, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, err := s.user(userID)
	if err != nil {
		return nil, err
	}

	var system, user []*Label
	for _, l := range u.Labels {
		cp := *l
		if l.Type == "system" {
			system = append(system, &cp)
		} else {
			user = append(user, &cp)
		}
	}
	rank := map[string]int{}
	for i, name := range seededSystemLabels {
		rank[name] = i
	}
	sort.Slice(system, func(i, j int) bool {
		ri, iOK := rank[system[i].ID]
		rj, jOK := rank[system[j].ID]
		if iOK && jOK {
			return ri < rj
		}
		if iOK != jOK {
			return iOK
		}
		return system[i].ID < system[j].ID
	})
	sort.Slice(user, func(i, j int) bool { return user[i].ID < user[j].ID })
	return append(system, user...), nil
}

// UpdateLabel renames a user label or changes its visibility. Empty fields
// keep their current value, which also covers patch semantics.
func (s *Store) UpdateLabel(userID, labelID string, in LabelInput) (*Label, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, err := s.user(userID)
	if err != nil {
		return nil, err
	}
	l, ok := u.Labels[labelID]
	if !ok {
		return nil, simerr.NotFound(fmt.Sprintf("label '%s' not found", labelID))
	}
	if l.Type == "system" {
		return nil, simerr.Validation(fmt.Sprintf("system label '%s' cannot be modified", labelID))
	}
	if err := validateLabelVisibility(in); err != nil {
		return nil, err
	}
	if name := strings.TrimSpace(in.Name); name != "" && !strings.EqualFold(name, l.Name) {
		if isSystemLabelID(name) {
			return nil, simerr.Validation(fmt.Sprintf("label name '%s' is reserved for system labels", name))
		}
		for _, other := range u.Labels {
			if other.ID != l.ID && strings.EqualFold(other.Name, name) {
				return nil, simerr.Conflict(fmt.Sprintf("label '%s' already exists", name))
			}
		}
		l.Name = name
	} else if name != "" {
		l.Name = name
	}
	if in.MessageListVisibility != "" {
		l.MessageListVisibility = in.MessageListVisibility
	}
	if in.LabelListVisibility != "" {
		l.LabelListVisibility = in.LabelListVisibility
	}
	s.bumpHistory(u)
	cp := *l
	return &cp, nil
}

// DeleteLabel removes a user label and strips its id from every message and
// draft.
func (s *Store) DeleteLabel(userID, labelID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, err := s.user(userID)
	if err != nil {
		return err
	}
	l, ok := u.Labels[labelID]
	if !ok {
		return simerr.NotFound(fmt.Sprintf("label '%s' not found", labelID))
	}
	if l.Type == "system" {
		return simerr.Validation(fmt.Sprintf("system label '%s' cannot be deleted", labelID))
	}

	delete(u.Labels, labelID)
	for _, m := range u.Messages {
		m.LabelIDs = removeLabel(m.LabelIDs, labelID)
	}
	for _, d := range u.Drafts {
		if d.Message != nil {
			d.Message.LabelIDs = removeLabel(d.Message.LabelIDs, labelID)
		}
	}
	s.bumpHistory(u)
	u.recomputeStats()
	return nil
}
