package gmail

import (
	"encoding/base64"
	"fmt"

	"github.com/teemow/mockbox/internal/simerr"
)

const (
	// MaxAttachmentSize is the per-attachment limit (25MB).
	MaxAttachmentSize = 25 * 1024 * 1024
	// MaxMessageAttachmentsSize is the combined limit per message (100MB).
	MaxMessageAttachmentsSize = 100 * 1024 * 1024
)

// AttachmentStats summarizes the global attachment table.
type AttachmentStats struct {
	Count      int            `json:"count"`
	TotalBytes int            `json:"totalBytes"`
	ByMimeType map[string]int `json:"byMimeType"`
}

// registerAttachments validates and stores attachment content for a message,
// returning the stored records in input order. Ids are derived from the
// owning message so they stay stable and readable.
func (s *Store) registerAttachments(msgID string, inputs []AttachmentInput) ([]*Attachment, error) {
	var total int
	atts := make([]*Attachment, 0, len(inputs))
	for i, in := range inputs {
		if in.Filename == "" {
			return nil, simerr.Validation("attachment filename must be provided")
		}
		decoded, err := decodeBase64(in.Data)
		if err != nil {
			return nil, simerr.Validation(fmt.Sprintf("attachment '%s' content is not valid base64", in.Filename))
		}
		size := len(decoded)
		if size > MaxAttachmentSize {
			return nil, simerr.Validation(fmt.Sprintf(
				"attachment '%s' is %d bytes; the per-attachment limit is %d bytes", in.Filename, size, MaxAttachmentSize))
		}
		total += size
		if total > MaxMessageAttachmentsSize {
			return nil, simerr.Validation(fmt.Sprintf(
				"total attachment size exceeds the %d byte per-message limit", MaxMessageAttachmentsSize))
		}
		mimeType := in.MimeType
		if mimeType == "" {
			mimeType = "application/octet-stream"
		}
		atts = append(atts, &Attachment{
			ID:       fmt.Sprintf("att_%s_%03d", msgID, i+1),
			Filename: in.Filename,
			MimeType: mimeType,
			Size:     size,
			Data:     base64.URLEncoding.EncodeToString(decoded),
		})
	}
	for _, att := range atts {
		s.attachments[att.ID] = att
	}
	return atts, nil
}

// collectAttachmentIDs walks a payload tree and gathers every attachment
// reference.
func collectAttachmentIDs(p *Part) []string {
	if p == nil {
		return nil
	}
	var ids []string
	if p.Body != nil && p.Body.AttachmentID != "" {
		ids = append(ids, p.Body.AttachmentID)
	}
	for _, sub := range p.Parts {
		ids = append(ids, collectAttachmentIDs(sub)...)
	}
	return ids
}

// attachmentRefCount counts references to an attachment id across every
// user's messages and drafts. A linear scan, matching the rest of the store.
func (s *Store) attachmentRefCount(id string) int {
	count := 0
	for _, u := range s.users {
		for _, m := range u.Messages {
			for _, ref := range collectAttachmentIDs(m.Payload) {
				if ref == id {
					count++
				}
			}
		}
		for _, d := range u.Drafts {
			if d.Message == nil {
				continue
			}
			for _, ref := range collectAttachmentIDs(d.Message.Payload) {
				if ref == id {
					count++
				}
			}
		}
	}
	return count
}

// releaseAttachments removes attachments referenced by the given payload
// whose only remaining reference is the document about to be deleted. Call
// this before removing the message or draft from its table.
func (s *Store) releaseAttachments(payload *Part) {
	for _, id := range collectAttachmentIDs(payload) {
		if s.attachmentRefCount(id) <= 1 {
			delete(s.attachments, id)
		}
	}
}

// buildPayload constructs the stored payload tree for a message. With
// attachments the result is multipart/mixed: a text part with inline base64url
// data followed by one part per attachment referencing the attachment table.
func buildPayload(from string, to []string, subject, body string, atts []*Attachment) *Part {
	headers := []Header{
		{Name: "From", Value: from},
		{Name: "To", Value: joinAddresses(to)},
		{Name: "Subject", Value: subject},
	}

	textPart := &Part{
		PartID:   "0",
		MimeType: "text/plain",
		Headers:  []Header{{Name: "Content-Type", Value: `text/plain; charset="UTF-8"`}},
		Body: &PartBody{
			Size: len(body),
			Data: base64.URLEncoding.EncodeToString([]byte(body)),
		},
	}

	if len(atts) == 0 {
		textPart.PartID = ""
		textPart.Headers = headers
		return textPart
	}

	root := &Part{
		MimeType: "multipart/mixed",
		Headers:  headers,
		Parts:    []*Part{textPart},
	}
	for i, att := range atts {
		root.Parts = append(root.Parts, &Part{
			PartID:   fmt.Sprintf("%d", i+1),
			MimeType: att.MimeType,
			Filename: att.Filename,
			Headers: []Header{
				{Name: "Content-Type", Value: att.MimeType},
				{Name: "Content-Disposition", Value: fmt.Sprintf(`attachment; filename=%q`, att.Filename)},
			},
			Body: &PartBody{
				AttachmentID: att.ID,
				Size:         att.Size,
			},
		})
	}
	return root
}

func joinAddresses(addrs []string) string {
	out := ""
	for i, a := range addrs {
		if i > 0 {
			out += ", "
		}
		out += a
	}
	return out
}

// GetAttachment returns an attachment's content, verifying the message
// actually references it.
func (s *Store) GetAttachment(userID, messageID, attachmentID string) (*Attachment, error) {
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
	if !containsString(collectAttachmentIDs(m.Payload), attachmentID) {
		return nil, simerr.NotFound(fmt.Sprintf("attachment '%s' not found on message '%s'", attachmentID, messageID))
	}
	att, ok := s.attachments[attachmentID]
	if !ok {
		return nil, simerr.NotFound(fmt.Sprintf("attachment '%s' not found", attachmentID))
	}
	cp := *att
	return &cp, nil
}

// GetAttachmentMetadata returns an attachment without its content.
func (s *Store) GetAttachmentMetadata(userID, messageID, attachmentID string) (*Attachment, error) {
	att, err := s.GetAttachment(userID, messageID, attachmentID)
	if err != nil {
		return nil, err
	}
	att.Data = ""
	return att, nil
}

// AttachmentStatsReport summarizes the attachment table.
func (s *Store) AttachmentStatsReport() AttachmentStats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	stats := AttachmentStats{ByMimeType: map[string]int{}}
	for _, att := range s.attachments {
		stats.Count++
		stats.TotalBytes += att.Size
		stats.ByMimeType[att.MimeType]++
	}
	return stats
}
