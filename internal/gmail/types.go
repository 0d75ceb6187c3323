package gmail

// Format selects how much of a message or draft document an operation returns.
type Format string

const (
	FormatMinimal  Format = "minimal"
	FormatMetadata Format = "metadata"
	FormatFull     Format = "full"
	FormatRaw      Format = "raw"
)

// System label ids. User labels keep whatever case they were created with;
// these are always stored uppercase.
const (
	LabelInbox     = "INBOX"
	LabelUnread    = "UNREAD"
	LabelImportant = "IMPORTANT"
	LabelSent      = "SENT"
	LabelDraft     = "DRAFT"
	LabelTrash     = "TRASH"
	LabelSpam      = "SPAM"
	LabelStarred   = "STARRED"
)

// Profile mirrors the users.getProfile response document.
type Profile struct {
	EmailAddress  string `json:"emailAddress" yaml:"emailAddress"`
	MessagesTotal int    `json:"messagesTotal" yaml:"messagesTotal"`
	ThreadsTotal  int    `json:"threadsTotal" yaml:"threadsTotal"`
	HistoryID     string `json:"historyId" yaml:"historyId"`
}

// Header is a single RFC 2822 header on a message part.
type Header struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// PartBody holds the content of a message part, either inline (Data) or by
// reference into the attachment table (AttachmentID).
type PartBody struct {
	AttachmentID string `json:"attachmentId,omitempty"`
	Size         int    `json:"size"`
	Data         string `json:"data,omitempty"`
}

// Part is a node in a message's MIME payload tree.
type Part struct {
	PartID   string    `json:"partId,omitempty"`
	MimeType string    `json:"mimeType"`
	Filename string    `json:"filename,omitempty"`
	Headers  []Header  `json:"headers,omitempty"`
	Body     *PartBody `json:"body,omitempty"`
	Parts    []*Part   `json:"parts,omitempty"`
}

// Message is a stored Gmail message. Sender, To, Cc, Bcc, Subject and Body
// duplicate information from the payload headers so list and search
// operations do not have to re-parse MIME on every call.
type Message struct {
	ID           string   `json:"id"`
	ThreadID     string   `json:"threadId"`
	LabelIDs     []string `json:"labelIds"`
	Snippet      string   `json:"snippet"`
	HistoryID    string   `json:"historyId"`
	InternalDate string   `json:"internalDate"`
	SizeEstimate int      `json:"sizeEstimate"`
	Payload      *Part    `json:"payload,omitempty"`
	Raw          string   `json:"raw,omitempty"`

	Sender  string   `json:"sender,omitempty" yaml:"sender"`
	To      []string `json:"to,omitempty" yaml:"to"`
	Cc      []string `json:"cc,omitempty" yaml:"cc"`
	Bcc     []string `json:"bcc,omitempty" yaml:"bcc"`
	Subject string   `json:"subject,omitempty" yaml:"subject"`
	Body    string   `json:"body,omitempty" yaml:"body"`
	IsRead  bool     `json:"isRead"`
}

// MessageRef identifies a message in list and mutation responses.
type MessageRef struct {
	ID       string   `json:"id"`
	ThreadID string   `json:"threadId"`
	LabelIDs []string `json:"labelIds,omitempty"`
}

// Draft wraps an unsent message.
type Draft struct {
	ID      string   `json:"id"`
	Message *Message `json:"message"`
}

// DraftRef identifies a draft in list responses.
type DraftRef struct {
	ID      string      `json:"id"`
	Message *MessageRef `json:"message,omitempty"`
}

// Thread groups messages by conversation. Messages are stored by id and
// rendered on read so a thread never holds stale message copies.
type Thread struct {
	ID         string   `json:"id"`
	HistoryID  string   `json:"historyId"`
	Snippet    string   `json:"snippet,omitempty"`
	MessageIDs []string `json:"-"`
}

// RenderedThread is a thread with its messages expanded for get responses.
type RenderedThread struct {
	ID        string     `json:"id"`
	HistoryID string     `json:"historyId"`
	Snippet   string     `json:"snippet,omitempty"`
	Messages  []*Message `json:"messages,omitempty"`
}

// Label is a system or user label with its live statistics.
type Label struct {
	ID                    string `json:"id"`
	Name                  string `json:"name"`
	Type                  string `json:"type"`
	MessageListVisibility string `json:"messageListVisibility,omitempty"`
	LabelListVisibility   string `json:"labelListVisibility,omitempty"`
	MessagesTotal         int    `json:"messagesTotal"`
	MessagesUnread        int    `json:"messagesUnread"`
	ThreadsTotal          int    `json:"threadsTotal"`
	ThreadsUnread         int    `json:"threadsUnread"`
}

// Attachment is stored once in the global attachment table and referenced
// from message parts by id.
type Attachment struct {
	ID       string `json:"attachmentId"`
	Filename string `json:"filename" yaml:"filename"`
	MimeType string `json:"mimeType" yaml:"mimeType"`
	Size     int    `json:"size"`
	Data     string `json:"data,omitempty" yaml:"data"`
}

// AttachmentInput carries attachment content into send and draft operations.
// Data is standard base64.
type AttachmentInput struct {
	Filename string `json:"filename" yaml:"filename"`
	MimeType string `json:"mimeType" yaml:"mimeType"`
	Data     string `json:"data" yaml:"data"`
}
