package gmail

import (
	"fmt"
)

// Seed is the Gmail half of a fixture file. Messages within a user may share
// a thread by naming the same thread key; keys are local to the fixture and
// are mapped to generated thread ids on load.
type Seed struct {
	Users []SeedUser `yaml:"users"`
}

// SeedUser describes one account to create.
type SeedUser struct {
	ID           string        `yaml:"id"`
	EmailAddress string        `yaml:"emailAddress"`
	Labels       []LabelInput  `yaml:"labels"`
	Messages     []SeedMessage `yaml:"messages"`
	Drafts       []SeedMessage `yaml:"drafts"`
}

// SeedMessage describes one message or draft to store.
type SeedMessage struct {
	Sender       string            `yaml:"sender"`
	To           []string          `yaml:"to"`
	Cc           []string          `yaml:"cc"`
	Bcc          []string          `yaml:"bcc"`
	Subject      string            `yaml:"subject"`
	Body         string            `yaml:"body"`
	LabelIDs     []string          `yaml:"labelIds"`
	ThreadKey    string            `yaml:"threadKey"`
	InternalDate string            `yaml:"internalDate"`
	Attachments  []AttachmentInput `yaml:"attachments"`
}

// ApplySeed loads fixture users, labels, messages and drafts into the store.
func (s *Store) ApplySeed(seed Seed) error {
	for _, su := range seed.Users {
		userID := su.ID
		if userID == "" {
			return fmt.Errorf("seed user is missing an id")
		}
		if _, err := s.GetProfile(userID); err != nil {
			if err := s.AddUser(userID, su.EmailAddress); err != nil {
				return fmt.Errorf("seeding user %q: %w", userID, err)
			}
		}

		for _, li := range su.Labels {
			if _, err := s.CreateLabel(userID, li); err != nil {
				return fmt.Errorf("seeding label %q for user %q: %w", li.Name, userID, err)
			}
		}

		threadIDs := map[string]string{}
		for i, sm := range su.Messages {
			req := seedMessageRequest(sm)
			if key := sm.ThreadKey; key != "" {
				if id, ok := threadIDs[key]; ok {
					req.ThreadID = id
				}
			}
			ref, err := s.InsertMessage(userID, req)
			if err != nil {
				return fmt.Errorf("seeding message %d for user %q: %w", i, userID, err)
			}
			if sm.ThreadKey != "" {
				threadIDs[sm.ThreadKey] = ref.ThreadID
			}
		}

		for i, sd := range su.Drafts {
			req := seedMessageRequest(sd)
			if key := sd.ThreadKey; key != "" {
				if id, ok := threadIDs[key]; ok {
					req.ThreadID = id
				}
			}
			if _, err := s.CreateDraft(userID, req); err != nil {
				return fmt.Errorf("seeding draft %d for user %q: %w", i, userID, err)
			}
		}
	}
	return nil
}

func seedMessageRequest(sm SeedMessage) SendMessageRequest {
	return SendMessageRequest{
		From:         sm.Sender,
		To:           sm.To,
		Cc:           sm.Cc,
		Bcc:          sm.Bcc,
		Subject:      sm.Subject,
		Body:         sm.Body,
		LabelIDs:     sm.LabelIDs,
		InternalDate: sm.InternalDate,
		Attachments:  sm.Attachments,
	}
}
