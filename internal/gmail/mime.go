package gmail

import (
	"encoding/base64"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/mail"
	"net/textproto"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ParsedMessage is the result of decoding a raw RFC 2822 message as accepted
// by messages.send and drafts.create.
type ParsedMessage struct {
	Headers map[string]string
	From    string
	To      []string
	Cc      []string
	Bcc     []string
	Subject string
	Body    string
	// Attachments holds any parts that carried a filename. Data is standard
	// base64 of the decoded part content.
	Attachments []AttachmentInput
}

// decodeBase64 accepts base64url (the Gmail API convention) and falls back to
// standard base64, with and without padding.
func decodeBase64(s string) ([]byte, error) {
	for _, enc := range []*base64.Encoding{
		base64.URLEncoding, base64.RawURLEncoding, base64.StdEncoding, base64.RawStdEncoding,
	} {
		if data, err := enc.DecodeString(s); err == nil {
			return data, nil
		}
	}
	return nil, fmt.Errorf("content is not valid base64")
}

// ParseMIMEMessage decodes a base64url raw message and extracts headers,
// recipients, the first text/plain body and any attachment parts.
func ParseMIMEMessage(raw string) (*ParsedMessage, error) {
	data, err := decodeBase64(raw)
	if err != nil {
		return nil, fmt.Errorf("decoding raw message: %w", err)
	}

	msg, err := mail.ReadMessage(strings.NewReader(string(data)))
	if err != nil {
		return nil, fmt.Errorf("parsing RFC 2822 message: %w", err)
	}

	parsed := &ParsedMessage{Headers: map[string]string{}}
	for k := range msg.Header {
		parsed.Headers[k] = msg.Header.Get(k)
	}
	parsed.From = msg.Header.Get("From")
	parsed.Subject = msg.Header.Get("Subject")
	parsed.To = splitAddressList(msg.Header.Get("To"))
	parsed.Cc = splitAddressList(msg.Header.Get("Cc"))
	parsed.Bcc = splitAddressList(msg.Header.Get("Bcc"))

	contentType := msg.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "text/plain"
	}
	mediaType, params, err := mime.ParseMediaType(contentType)
	if err != nil {
		mediaType = "text/plain"
	}

	if strings.HasPrefix(mediaType, "multipart/") {
		boundary := params["boundary"]
		if boundary == "" {
			return nil, fmt.Errorf("multipart message without boundary")
		}
		if err := parseMultipartBody(msg.Body, boundary, parsed); err != nil {
			return nil, err
		}
	} else {
		body, err := io.ReadAll(msg.Body)
		if err != nil {
			return nil, fmt.Errorf("reading message body: %w", err)
		}
		parsed.Body = decodePartContent(textproto.MIMEHeader{
			"Content-Transfer-Encoding": {msg.Header.Get("Content-Transfer-Encoding")},
		}, body)
	}

	return parsed, nil
}

func parseMultipartBody(r io.Reader, boundary string, parsed *ParsedMessage) error {
	mr := multipart.NewReader(r, boundary)
	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("reading multipart body: %w", err)
		}

		content, err := io.ReadAll(part)
		if err != nil {
			return fmt.Errorf("reading part content: %w", err)
		}

		partType, partParams, _ := mime.ParseMediaType(part.Header.Get("Content-Type"))
		filename := part.FileName()

		switch {
		case strings.HasPrefix(partType, "multipart/"):
			if b := partParams["boundary"]; b != "" {
				if err := parseMultipartBody(strings.NewReader(string(content)), b, parsed); err != nil {
					return err
				}
			}
		case filename != "":
			decoded := decodePartContent(part.Header, content)
			parsed.Attachments = append(parsed.Attachments, AttachmentInput{
				Filename: filename,
				MimeType: partType,
				Data:     base64.StdEncoding.EncodeToString([]byte(decoded)),
			})
		case partType == "text/plain" && parsed.Body == "":
			parsed.Body = decodePartContent(part.Header, content)
		}
	}
}

// decodePartContent applies the part's Content-Transfer-Encoding. Unknown or
// absent encodings pass the content through unchanged.
func decodePartContent(header textproto.MIMEHeader, content []byte) string {
	switch strings.ToLower(strings.TrimSpace(header.Get("Content-Transfer-Encoding"))) {
	case "base64":
		if data, err := decodeBase64(strings.TrimSpace(string(content))); err == nil {
			return string(data)
		}
	}
	return string(content)
}

// BuildMIMEMessage assembles an RFC 2822 message and returns it base64url
// encoded, the form messages.send accepts as `raw`. Attachments produce a
// multipart/mixed message.
func BuildMIMEMessage(from string, to, cc, bcc []string, subject, body string, attachments []AttachmentInput, date time.Time) (string, error) {
	if len(to) == 0 && len(cc) == 0 && len(bcc) == 0 {
		return "", fmt.Errorf("at least one recipient is required")
	}

	var sb strings.Builder
	writeHeader := func(name, value string) {
		if value != "" {
			fmt.Fprintf(&sb, "%s: %s\r\n", name, value)
		}
	}

	writeHeader("From", from)
	writeHeader("To", strings.Join(to, ", "))
	writeHeader("Cc", strings.Join(cc, ", "))
	writeHeader("Bcc", strings.Join(bcc, ", "))
	writeHeader("Subject", subject)
	writeHeader("Date", date.UTC().Format(time.RFC1123Z))
	writeHeader("Message-ID", fmt.Sprintf("<%s@mail.gmail.com>", uuid.NewString()))
	writeHeader("MIME-Version", "1.0")

	if len(attachments) == 0 {
		writeHeader("Content-Type", `text/plain; charset="UTF-8"`)
		sb.WriteString("\r\n")
		sb.WriteString(body)
		return base64.URLEncoding.EncodeToString([]byte(sb.String())), nil
	}

	var bodyBuf strings.Builder
	mw := multipart.NewWriter(&bodyBuf)

	textHeader := textproto.MIMEHeader{}
	textHeader.Set("Content-Type", `text/plain; charset="UTF-8"`)
	textPart, err := mw.CreatePart(textHeader)
	if err != nil {
		return "", fmt.Errorf("creating text part: %w", err)
	}
	if _, err := textPart.Write([]byte(body)); err != nil {
		return "", fmt.Errorf("writing text part: %w", err)
	}

	for _, att := range attachments {
		decoded, err := decodeBase64(att.Data)
		if err != nil {
			return "", fmt.Errorf("attachment %q: %w", att.Filename, err)
		}
		mimeType := att.MimeType
		if mimeType == "" {
			mimeType = "application/octet-stream"
		}
		partHeader := textproto.MIMEHeader{}
		partHeader.Set("Content-Type", mimeType)
		partHeader.Set("Content-Transfer-Encoding", "base64")
		partHeader.Set("Content-Disposition", fmt.Sprintf(`attachment; filename=%q`, att.Filename))
		p, err := mw.CreatePart(partHeader)
		if err != nil {
			return "", fmt.Errorf("creating attachment part: %w", err)
		}
		if _, err := p.Write([]byte(base64.StdEncoding.EncodeToString(decoded))); err != nil {
			return "", fmt.Errorf("writing attachment part: %w", err)
		}
	}
	if err := mw.Close(); err != nil {
		return "", fmt.Errorf("finalizing multipart body: %w", err)
	}

	writeHeader("Content-Type", fmt.Sprintf(`multipart/mixed; boundary=%q`, mw.Boundary()))
	sb.WriteString("\r\n")
	sb.WriteString(bodyBuf.String())

	return base64.URLEncoding.EncodeToString([]byte(sb.String())), nil
}
