package gmail

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"go.uber.org/zap"
	gm "google.golang.org/api/gmail/v1"

	"github.com/brieflab/mailbrief/internal/mailstore"
	"github.com/brieflab/mailbrief/internal/types"
)

// maxResults caps a single listing query.
const maxResults = 100

// Store is a Gmail-backed mail store.
type Store struct {
	svc *gm.Service
	log *zap.Logger
}

// Open authenticates against Gmail and returns a connected Store.
func Open(ctx context.Context, credentialsPath string, log *zap.Logger) (*Store, error) {
	svc, err := newService(ctx, credentialsPath)
	if err != nil {
		return nil, fmt.Errorf("gmail service: %w", err)
	}
	return &Store{svc: svc, log: log}, nil
}

// Close is a no-op: the Gmail service holds no persistent connection.
func (s *Store) Close() error { return nil }

// Inbox returns inbox messages received within the lookback window.
func (s *Store) Inbox(ctx context.Context, lookbackDays int, unreadOrFlaggedOnly bool) ([]mailstore.Record, error) {
	query := fmt.Sprintf("in:inbox newer_than:%dd", lookbackDays)
	if unreadOrFlaggedOnly {
		query += " (is:unread OR is:starred)"
	}
	return s.search(ctx, query)
}

// Overdue returns old flagged and old unread messages. The two queries
// overlap on old flagged-unread mail; the collector dedups by entry id.
func (s *Store) Overdue(ctx context.Context, olderThanDays int) ([]mailstore.Record, error) {
	starred, err := s.search(ctx, fmt.Sprintf("in:inbox is:starred older_than:%dd", olderThanDays))
	if err != nil {
		return nil, err
	}
	unread, err := s.search(ctx, fmt.Sprintf("in:inbox is:unread older_than:%dd", olderThanDays))
	if err != nil {
		return nil, err
	}
	return append(starred, unread...), nil
}

// ResolveAddress satisfies the resolver boundary. Gmail always reports SMTP
// addresses, so directory-service paths cannot occur and resolution fails.
func (s *Store) ResolveAddress(raw string) (string, error) {
	if strings.Contains(raw, "@") {
		return raw, nil
	}
	return "", fmt.Errorf("gmail: cannot resolve non-SMTP address %q", raw)
}

// SendDigest delivers the rendered digest through the Gmail send API.
func (s *Store) SendDigest(ctx context.Context, to, subject, htmlBody string) error {
	var b strings.Builder
	fmt.Fprintf(&b, "To: %s\r\n", to)
	fmt.Fprintf(&b, "Subject: %s\r\n", subject)
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/html; charset=\"utf-8\"\r\n")
	b.WriteString("\r\n")
	b.WriteString(htmlBody)

	msg := &gm.Message{
		Raw: base64.URLEncoding.EncodeToString([]byte(b.String())),
	}
	if _, err := s.svc.Users.Messages.Send("me", msg).Context(ctx).Do(); err != nil {
		return fmt.Errorf("send digest: %w", err)
	}
	s.log.Info("digest sent", zap.String("to", to), zap.String("subject", subject))
	return nil
}

// search lists matching messages and fetches each one's metadata and body.
func (s *Store) search(ctx context.Context, query string) ([]mailstore.Record, error) {
	resp, err := s.svc.Users.Messages.List("me").
		Q(query).
		MaxResults(maxResults).
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("list messages (%s): %w", query, err)
	}

	records := make([]mailstore.Record, 0, len(resp.Messages))
	for _, m := range resp.Messages {
		detail, err := s.svc.Users.Messages.Get("me", m.Id).
			Format("full").
			Context(ctx).
			Do()
		if err != nil {
			// An unreadable message still reaches the pipeline as an
			// error record so the digest accounts for it.
			s.log.Warn("failed to read message", zap.String("id", m.Id), zap.Error(err))
			records = append(records, errRecord{err})
			continue
		}
		records = append(records, toRecord(detail))
	}
	return records, nil
}

// toRecord converts an API message into a materialized record.
func toRecord(msg *gm.Message) *mailstore.MemRecord {
	headers := headerMap(msg.Payload.Headers)

	name, addr := parseFrom(headers["From"])
	rec := &mailstore.MemRecord{
		ID:          msg.Id,
		Subj:        headers["Subject"],
		FromName:    name,
		FromAddr:    addr,
		Received:    time.UnixMilli(msg.InternalDate),
		Import:      types.ImportanceNormal,
		Attachments: len(extractAttachments(msg.Payload)),
		BodyText:    extractBody(msg.Payload),
	}

	var categories []string
	for _, l := range msg.LabelIds {
		switch {
		case l == "UNREAD":
			rec.IsUnread = true
		case l == "STARRED":
			rec.Flag = types.FlagMarked
		case l == "IMPORTANT":
			rec.Import = types.ImportanceHigh
		case strings.HasPrefix(l, "CATEGORY_"):
			if cat := strings.ToLower(strings.TrimPrefix(l, "CATEGORY_")); cat != "" {
				categories = append(categories, strings.ToUpper(cat[:1])+cat[1:])
			}
		}
	}
	rec.Cats = strings.Join(categories, ",")
	return rec
}

// parseFrom splits an RFC 5322 From header into display name and address.
func parseFrom(from string) (name, addr string) {
	if from == "" {
		return "", ""
	}
	parsed, err := mail.ParseAddress(from)
	if err != nil {
		return from, from
	}
	if parsed.Name == "" {
		return parsed.Address, parsed.Address
	}
	return parsed.Name, parsed.Address
}

// extractBody gets the plain text body from a message payload. Multipart
// messages are walked recursively, preferring text/plain over text/html.
func extractBody(payload *gm.MessagePart) string {
	if payload == nil {
		return ""
	}
	if payload.Body != nil && payload.Body.Data != "" {
		if decoded, err := decodeBase64URL(payload.Body.Data); err == nil {
			return decoded
		}
	}

	for _, part := range payload.Parts {
		if part.MimeType == "text/plain" && part.Body != nil && part.Body.Data != "" {
			if decoded, err := decodeBase64URL(part.Body.Data); err == nil {
				return decoded
			}
		}
		if len(part.Parts) > 0 {
			if body := extractBody(part); body != "" {
				return body
			}
		}
	}

	for _, part := range payload.Parts {
		if part.MimeType == "text/html" && part.Body != nil && part.Body.Data != "" {
			if decoded, err := decodeBase64URL(part.Body.Data); err == nil {
				return decoded
			}
		}
	}
	return ""
}

// extractAttachments collects attachment metadata from a payload tree.
func extractAttachments(payload *gm.MessagePart) []string {
	var names []string
	var scan func(parts []*gm.MessagePart)
	scan = func(parts []*gm.MessagePart) {
		for _, part := range parts {
			if part.Filename != "" {
				names = append(names, part.Filename)
			}
			if len(part.Parts) > 0 {
				scan(part.Parts)
			}
		}
	}
	if payload != nil {
		scan(payload.Parts)
	}
	return names
}

func headerMap(headers []*gm.MessagePartHeader) map[string]string {
	m := make(map[string]string, len(headers))
	for _, h := range headers {
		m[h.Name] = h.Value
	}
	return m
}

// decodeBase64URL decodes Gmail's base64url-encoded content, tolerating
// missing padding.
func decodeBase64URL(data string) (string, error) {
	decoded, err := base64.RawURLEncoding.DecodeString(strings.TrimRight(data, "="))
	if err != nil {
		return "", err
	}
	return string(decoded), nil
}

// errRecord is a record whose source message could not be fetched. Every
// accessor fails, which the normalizer turns into a placeholder item.
type errRecord struct{ err error }

func (r errRecord) EntryID() (string, error)         { return "", r.err }
func (r errRecord) Subject() (string, error)         { return "", r.err }
func (r errRecord) SenderName() (string, error)      { return "", r.err }
func (r errRecord) SenderAddress() (string, error)   { return "", r.err }
func (r errRecord) ReceivedTime() (time.Time, error) { return time.Time{}, r.err }
func (r errRecord) Importance() (int, error)         { return 0, r.err }
func (r errRecord) FlagStatus() (int, error)         { return 0, r.err }
func (r errRecord) Unread() (bool, error)            { return false, r.err }
func (r errRecord) AttachmentCount() (int, error)    { return 0, r.err }
func (r errRecord) Categories() (string, error)      { return "", r.err }
func (r errRecord) Body() (string, error)            { return "", r.err }
