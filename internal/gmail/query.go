package gmail

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/teemow/mockbox/internal/simerr"
)

// QueryEvaluator evaluates the Gmail search mini-language against stored
// messages. Grammar, lowest precedence first:
//
//	query   = and ( "OR" and )*
//	and     = unary+
//	unary   = "-" unary | "(" query ")" | "{" unary+ "}" | term
//
// Adjacent terms AND together; a braced group ORs its members; "-" negates a
// term or group.
type QueryEvaluator struct {
	store *Store
	user  *userState
	now   time.Time
}

func (s *Store) newQueryEvaluator(u *userState) *QueryEvaluator {
	return &QueryEvaluator{store: s, user: u, now: s.now()}
}

// Matches reports whether the message satisfies the query. An empty query
// matches everything.
func (e *QueryEvaluator) Matches(query string, m *Message) (bool, error) {
	tokens := tokenizeQuery(query)
	if len(tokens) == 0 {
		return true, nil
	}
	p := &queryParser{tokens: tokens}
	expr, err := p.parseOr()
	if err != nil {
		return false, err
	}
	if !p.done() {
		return false, simerr.InvalidInput(fmt.Sprintf("unexpected token '%s' in query", p.peek()))
	}
	return expr(e, m), nil
}

// tokenizeQuery pads grouping characters with spaces and splits on
// whitespace, keeping double-quoted phrases (including operator:"quoted
// value" forms) as single tokens.
func tokenizeQuery(q string) []string {
	for _, ch := range []string{"(", ")", "{", "}"} {
		q = strings.ReplaceAll(q, ch, " "+ch+" ")
	}

	var tokens []string
	var cur strings.Builder
	inQuotes := false
	for _, r := range q {
		switch {
		case r == '"':
			inQuotes = !inQuotes
		case !inQuotes && (r == ' ' || r == '\t' || r == '\n'):
			if cur.Len() > 0 {
				tokens = append(tokens, cur.String())
				cur.Reset()
			}
		default:
			cur.WriteRune(r)
		}
	}
	if cur.Len() > 0 {
		tokens = append(tokens, cur.String())
	}
	return tokens
}

type queryExpr func(e *QueryEvaluator, m *Message) bool

type queryParser struct {
	tokens []string
	pos    int
}

func (p *queryParser) done() bool { return p.pos >= len(p.tokens) }

func (p *queryParser) peek() string {
	if p.done() {
		return ""
	}
	return p.tokens[p.pos]
}

func (p *queryParser) next() string {
	t := p.peek()
	p.pos++
	return t
}

func (p *queryParser) parseOr() (queryExpr, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for !p.done() && p.peek() == "OR" {
		p.next()
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		l, r := left, right
		left = func(e *QueryEvaluator, m *Message) bool { return l(e, m) || r(e, m) }
	}
	return left, nil
}

func (p *queryParser) parseAnd() (queryExpr, error) {
	var exprs []queryExpr
	for !p.done() {
		t := p.peek()
		if t == "OR" || t == ")" || t == "}" {
			break
		}
		expr, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		exprs = append(exprs, expr)
	}
	if len(exprs) == 0 {
		return nil, simerr.InvalidInput("empty query group")
	}
	return func(e *QueryEvaluator, m *Message) bool {
		for _, ex := range exprs {
			if !ex(e, m) {
				return false
			}
		}
		return true
	}, nil
}

func (p *queryParser) parseUnary() (queryExpr, error) {
	t := p.peek()
	switch {
	case t == "-":
		p.next()
		inner, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return func(e *QueryEvaluator, m *Message) bool { return !inner(e, m) }, nil
	case strings.HasPrefix(t, "-") && len(t) > 1:
		p.next()
		term := t[1:]
		return func(e *QueryEvaluator, m *Message) bool { return !e.matchTerm(term, m) }, nil
	case t == "(":
		p.next()
		inner, err := p.parseOr()
		if err != nil {
			return nil, err
		}
		if p.next() != ")" {
			return nil, simerr.InvalidInput("unbalanced parentheses in query")
		}
		return inner, nil
	case t == "{":
		p.next()
		var exprs []queryExpr
		for !p.done() && p.peek() != "}" {
			expr, err := p.parseUnary()
			if err != nil {
				return nil, err
			}
			exprs = append(exprs, expr)
		}
		if p.next() != "}" {
			return nil, simerr.InvalidInput("unbalanced braces in query")
		}
		if len(exprs) == 0 {
			return nil, simerr.InvalidInput("empty brace group in query")
		}
		return func(e *QueryEvaluator, m *Message) bool {
			for _, ex := range exprs {
				if ex(e, m) {
					return true
				}
			}
			return false
		}, nil
	default:
		p.next()
		return func(e *QueryEvaluator, m *Message) bool { return e.matchTerm(t, m) }, nil
	}
}

// matchTerm evaluates a single operator:value or bare-word term.
func (e *QueryEvaluator) matchTerm(term string, m *Message) bool {
	if op, value, ok := strings.Cut(term, ":"); ok && value != "" {
		return e.matchOperator(strings.ToLower(op), value, m)
	}

	if strings.HasPrefix(term, "+") && len(term) > 1 {
		return wordBoundaryMatch(term[1:], e.searchableText(m))
	}

	return strings.Contains(strings.ToLower(e.searchableText(m)), strings.ToLower(term))
}

func (e *QueryEvaluator) searchableText(m *Message) string {
	parts := []string{m.Subject, m.Body, m.Sender}
	parts = append(parts, m.To...)
	parts = append(parts, m.Cc...)
	parts = append(parts, m.Bcc...)
	return strings.Join(parts, " ")
}

func wordBoundaryMatch(word, text string) bool {
	re, err := regexp.Compile(`(?i)\b` + regexp.QuoteMeta(word) + `\b`)
	if err != nil {
		return false
	}
	return re.MatchString(text)
}

func (e *QueryEvaluator) matchOperator(op, value string, m *Message) bool {
	lower := strings.ToLower(value)
	switch op {
	case "from":
		return addressesEqual(m.Sender, value) ||
			strings.Contains(strings.ToLower(m.Sender), lower)
	case "to":
		for _, to := range m.To {
			if addressesEqual(to, value) || strings.Contains(strings.ToLower(to), lower) {
				return true
			}
		}
		return false
	case "cc":
		return strings.Contains(strings.ToLower(strings.Join(m.Cc, ", ")), lower)
	case "bcc":
		return strings.Contains(strings.ToLower(strings.Join(m.Bcc, ", ")), lower)
	case "label":
		return hasLabel(m.LabelIDs, e.resolveLabelQuery(value))
	case "subject":
		return strings.Contains(strings.ToLower(m.Subject), lower)
	case "filename":
		for _, name := range attachmentFilenames(m.Payload) {
			if strings.Contains(strings.ToLower(name), lower) {
				return true
			}
		}
		return false
	case "after":
		d, err := parseQueryDate(value)
		if err != nil {
			return false
		}
		return messageTime(m).Compare(d) >= 0
	case "before":
		d, err := parseQueryDate(value)
		if err != nil {
			return false
		}
		return messageTime(m).Before(d)
	case "older_than":
		cutoff, err := applyPeriod(e.now, value, -1)
		if err != nil {
			return false
		}
		return messageTime(m).Before(cutoff)
	case "newer_than":
		cutoff, err := applyPeriod(e.now, value, -1)
		if err != nil {
			return false
		}
		return messageTime(m).Compare(cutoff) >= 0
	case "size", "larger":
		n, err := parseQuerySize(value)
		if err != nil {
			return false
		}
		return m.SizeEstimate > n
	case "smaller":
		n, err := parseQuerySize(value)
		if err != nil {
			return false
		}
		return m.SizeEstimate < n
	case "is":
		switch lower {
		case "unread":
			return hasLabel(m.LabelIDs, LabelUnread)
		case "read":
			return !hasLabel(m.LabelIDs, LabelUnread)
		case "starred":
			return hasLabel(m.LabelIDs, LabelStarred)
		case "important":
			return hasLabel(m.LabelIDs, LabelImportant)
		case "sent":
			return hasLabel(m.LabelIDs, LabelSent)
		case "draft":
			return hasLabel(m.LabelIDs, LabelDraft)
		}
		return false
	case "has":
		return e.matchHas(lower, m)
	case "in":
		switch lower {
		case "anywhere":
			return true
		case "inbox":
			return hasLabel(m.LabelIDs, LabelInbox)
		case "sent":
			return hasLabel(m.LabelIDs, LabelSent)
		case "trash":
			return hasLabel(m.LabelIDs, LabelTrash)
		case "spam":
			return hasLabel(m.LabelIDs, LabelSpam)
		case "drafts":
			return hasLabel(m.LabelIDs, LabelDraft)
		}
		return false
	case "category":
		return hasLabel(m.LabelIDs, "CATEGORY_"+strings.ToUpper(value))
	case "list":
		return strings.Contains(strings.ToLower(headerValue(m, "List-ID")), lower)
	case "deliveredto":
		for _, addr := range append(append(append([]string{}, m.To...), m.Cc...), m.Bcc...) {
			if addressesEqual(addr, value) {
				return true
			}
		}
		return false
	case "rfc822msgid":
		return strings.EqualFold(strings.Trim(headerValue(m, "Message-ID"), "<>"), strings.Trim(value, "<>"))
	}
	// Unknown operators never match, mirroring a search that finds nothing.
	return false
}

// resolveLabelQuery maps a label: value to a label id: system names
// normalize, user label names resolve case-insensitively to their id.
func (e *QueryEvaluator) resolveLabelQuery(value string) string {
	id := NormalizeLabelID(value)
	if isSystemLabelID(id) {
		return id
	}
	for _, l := range e.user.Labels {
		if strings.EqualFold(l.Name, value) {
			return l.ID
		}
	}
	return id
}

func (e *QueryEvaluator) matchHas(kind string, m *Message) bool {
	switch kind {
	case "attachment":
		return len(attachmentFilenames(m.Payload)) > 0
	case "userlabels":
		for _, id := range m.LabelIDs {
			if !isSystemLabelID(id) && !strings.HasPrefix(id, "CATEGORY_") {
				return true
			}
		}
		return false
	case "nouserlabels":
		return !e.matchHas("userlabels", m)
	case "pdf", "image", "video", "audio", "document", "spreadsheet", "presentation":
		return e.hasAttachmentOfKind(kind, m)
	}
	return false
}

var attachmentKinds = map[string]struct {
	mimePrefixes []string
	extensions   []string
}{
	"pdf":          {[]string{"application/pdf"}, []string{".pdf"}},
	"image":        {[]string{"image/"}, []string{".png", ".jpg", ".jpeg", ".gif", ".bmp", ".webp"}},
	"video":        {[]string{"video/"}, []string{".mp4", ".mov", ".avi", ".mkv", ".webm"}},
	"audio":        {[]string{"audio/"}, []string{".mp3", ".wav", ".ogg", ".flac", ".m4a"}},
	"document":     {[]string{"application/msword", "application/vnd.openxmlformats-officedocument.wordprocessingml"}, []string{".doc", ".docx", ".odt"}},
	"spreadsheet":  {[]string{"application/vnd.ms-excel", "application/vnd.openxmlformats-officedocument.spreadsheetml"}, []string{".xls", ".xlsx", ".ods", ".csv"}},
	"presentation": {[]string{"application/vnd.ms-powerpoint", "application/vnd.openxmlformats-officedocument.presentationml"}, []string{".ppt", ".pptx", ".odp"}},
}

func (e *QueryEvaluator) hasAttachmentOfKind(kind string, m *Message) bool {
	spec, ok := attachmentKinds[kind]
	if !ok {
		return false
	}
	match := false
	walkPayload(m.Payload, func(p *Part) {
		if match || p.Filename == "" {
			return
		}
		mt := strings.ToLower(p.MimeType)
		for _, prefix := range spec.mimePrefixes {
			if strings.HasPrefix(mt, prefix) {
				match = true
				return
			}
		}
		name := strings.ToLower(p.Filename)
		for _, ext := range spec.extensions {
			if strings.HasSuffix(name, ext) {
				match = true
				return
			}
		}
	})
	return match
}

func walkPayload(p *Part, fn func(*Part)) {
	if p == nil {
		return
	}
	fn(p)
	for _, sub := range p.Parts {
		walkPayload(sub, fn)
	}
}

func attachmentFilenames(p *Part) []string {
	var names []string
	walkPayload(p, func(part *Part) {
		if part.Filename != "" {
			names = append(names, part.Filename)
		}
	})
	return names
}

func headerValue(m *Message, name string) string {
	if m.Payload == nil {
		return ""
	}
	for _, h := range m.Payload.Headers {
		if strings.EqualFold(h.Name, name) {
			return h.Value
		}
	}
	return ""
}

func messageTime(m *Message) time.Time {
	ms, err := strconv.ParseInt(m.InternalDate, 10, 64)
	if err != nil {
		return time.Time{}
	}
	return time.UnixMilli(ms).UTC()
}

// parseQueryDate accepts YYYY/MM/DD, YYYY-MM-DD and epoch-second forms.
func parseQueryDate(v string) (time.Time, error) {
	for _, layout := range []string{"2006/01/02", "2006-01-02"} {
		if t, err := time.Parse(layout, v); err == nil {
			return t.UTC(), nil
		}
	}
	if secs, err := strconv.ParseInt(v, 10, 64); err == nil {
		return time.Unix(secs, 0).UTC(), nil
	}
	return time.Time{}, fmt.Errorf("unsupported date format %q", v)
}

// applyPeriod shifts t by sign*N days/months/years for the Nd/Nm/Ny forms.
func applyPeriod(t time.Time, period string, sign int) (time.Time, error) {
	if len(period) < 2 {
		return time.Time{}, fmt.Errorf("unsupported period %q", period)
	}
	n, err := strconv.Atoi(period[:len(period)-1])
	if err != nil || n < 0 {
		return time.Time{}, fmt.Errorf("unsupported period %q", period)
	}
	switch period[len(period)-1] {
	case 'd':
		return t.AddDate(0, 0, sign*n), nil
	case 'm':
		return t.AddDate(0, sign*n, 0), nil
	case 'y':
		return t.AddDate(sign*n, 0, 0), nil
	}
	return time.Time{}, fmt.Errorf("unsupported period %q", period)
}

// parseQuerySize parses byte counts with optional K/M/G suffixes.
func parseQuerySize(v string) (int, error) {
	mult := 1
	lower := strings.ToLower(v)
	switch {
	case strings.HasSuffix(lower, "k"):
		mult, lower = 1024, lower[:len(lower)-1]
	case strings.HasSuffix(lower, "m"):
		mult, lower = 1024*1024, lower[:len(lower)-1]
	case strings.HasSuffix(lower, "g"):
		mult, lower = 1024*1024*1024, lower[:len(lower)-1]
	}
	n, err := strconv.Atoi(lower)
	if err != nil {
		return 0, fmt.Errorf("unsupported size %q", v)
	}
	return n * mult, nil
}
