// Package imapstore implements the mail store boundary for plain IMAP
// mailboxes, with digest delivery over SMTP.
package imapstore

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net"
	"strings"
	"time"

	"github.com/emersion/go-imap/v2"
	"github.com/emersion/go-imap/v2/imapclient"
	"github.com/emersion/go-message/mail"
	"go.uber.org/zap"

	"github.com/brieflab/mailbrief/internal/mailstore"
	"github.com/brieflab/mailbrief/internal/types"
)

// Options configures the IMAP connection and the SMTP delivery path.
type Options struct {
	Host     string
	Port     int
	Username string
	Password string
	TLS      bool

	SMTP SMTPOptions
}

// Store is an IMAP-backed mail store.
type Store struct {
	opts Options
	log  *zap.Logger
}

// Open validates the options and returns a Store. Connections are dialed
// per query: each run issues at most a handful of commands and a held-open
// session buys nothing.
func Open(opts Options, log *zap.Logger) (*Store, error) {
	if opts.Host == "" {
		return nil, fmt.Errorf("imap: host is required")
	}
	if opts.Port == 0 {
		opts.Port = 993
	}
	return &Store{opts: opts, log: log}, nil
}

// Close is a no-op: sessions are per-query.
func (s *Store) Close() error { return nil }

// Inbox returns inbox messages received within the lookback window.
func (s *Store) Inbox(ctx context.Context, lookbackDays int, unreadOrFlaggedOnly bool) ([]mailstore.Record, error) {
	criteria := &imap.SearchCriteria{
		Since: time.Now().AddDate(0, 0, -lookbackDays),
	}
	if unreadOrFlaggedOnly {
		criteria.Or = [][2]imap.SearchCriteria{{
			{NotFlag: []imap.Flag{imap.FlagSeen}},
			{Flag: []imap.Flag{imap.FlagFlagged}},
		}}
	}
	return s.fetch(ctx, criteria)
}

// Overdue returns old flagged and old unread messages as two overlapping
// result sets; the collector dedups by entry id.
func (s *Store) Overdue(ctx context.Context, olderThanDays int) ([]mailstore.Record, error) {
	cutoff := time.Now().AddDate(0, 0, -olderThanDays)

	flagged, err := s.fetch(ctx, &imap.SearchCriteria{
		Before: cutoff,
		Flag:   []imap.Flag{imap.FlagFlagged},
	})
	if err != nil {
		return nil, err
	}
	unread, err := s.fetch(ctx, &imap.SearchCriteria{
		Before:  cutoff,
		NotFlag: []imap.Flag{imap.FlagSeen},
	})
	if err != nil {
		return nil, err
	}
	return append(flagged, unread...), nil
}

// ResolveAddress satisfies the resolver boundary. IMAP envelopes carry SMTP
// addresses, so directory-service paths cannot be resolved here.
func (s *Store) ResolveAddress(raw string) (string, error) {
	if strings.Contains(raw, "@") {
		return raw, nil
	}
	return "", fmt.Errorf("imap: cannot resolve non-SMTP address %q", raw)
}

// SendDigest delivers the rendered digest over SMTP.
func (s *Store) SendDigest(ctx context.Context, to, subject, htmlBody string) error {
	if err := sendHTML(s.opts.SMTP, to, subject, htmlBody); err != nil {
		return fmt.Errorf("smtp delivery: %w", err)
	}
	s.log.Info("digest sent", zap.String("to", to), zap.String("subject", subject))
	return nil
}

// connect dials, authenticates, and selects INBOX. The dial honors the
// context so a cancelled run does not block on a dead server. The caller
// logs out.
func (s *Store) connect(ctx context.Context) (*imapclient.Client, error) {
	addr := fmt.Sprintf("%s:%d", s.opts.Host, s.opts.Port)

	var client *imapclient.Client
	if s.opts.TLS {
		dialer := tls.Dialer{Config: &tls.Config{ServerName: s.opts.Host}}
		conn, err := dialer.DialContext(ctx, "tcp", addr)
		if err != nil {
			return nil, fmt.Errorf("connect to %s: %w", addr, err)
		}
		client = imapclient.New(conn, nil)
	} else {
		var dialer net.Dialer
		conn, err := dialer.DialContext(ctx, "tcp", addr)
		if err != nil {
			return nil, fmt.Errorf("connect to %s: %w", addr, err)
		}
		client, err = imapclient.NewStartTLS(conn, &imapclient.Options{
			TLSConfig: &tls.Config{ServerName: s.opts.Host},
		})
		if err != nil {
			conn.Close()
			return nil, fmt.Errorf("starttls with %s: %w", addr, err)
		}
	}

	if err := client.Login(s.opts.Username, s.opts.Password).Wait(); err != nil {
		_ = client.Logout().Wait()
		return nil, fmt.Errorf("login as %s: %w", s.opts.Username, err)
	}
	if _, err := client.Select("INBOX", nil).Wait(); err != nil {
		_ = client.Logout().Wait()
		return nil, fmt.Errorf("select INBOX: %w", err)
	}
	return client, nil
}

// fetch searches INBOX and materializes each matching message. IMAP
// commands after the dial are not context-aware, so cancellation is
// re-checked before each session.
func (s *Store) fetch(ctx context.Context, criteria *imap.SearchCriteria) ([]mailstore.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	client, err := s.connect(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = client.Logout().Wait() }()

	searchData, err := client.UIDSearch(criteria, nil).Wait()
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}
	uids := searchData.AllUIDs()
	if len(uids) == 0 {
		return nil, nil
	}

	bodySection := &imap.FetchItemBodySection{Peek: true}
	fetchCmd := client.Fetch(imap.UIDSetNum(uids...), &imap.FetchOptions{
		Envelope:     true,
		Flags:        true,
		UID:          true,
		InternalDate: true,
		BodySection:  []*imap.FetchItemBodySection{bodySection},
	})

	var records []mailstore.Record
	for {
		msg := fetchCmd.Next()
		if msg == nil {
			break
		}
		buf, err := msg.Collect()
		if err != nil {
			s.log.Warn("failed to collect message", zap.Error(err))
			continue
		}
		records = append(records, toRecord(buf, buf.FindBodySection(bodySection)))
	}
	if err := fetchCmd.Close(); err != nil {
		return records, fmt.Errorf("fetch: %w", err)
	}
	return records, nil
}

// toRecord converts a fetched message buffer into a materialized record.
func toRecord(buf *imapclient.FetchMessageBuffer, raw []byte) *mailstore.MemRecord {
	rec := &mailstore.MemRecord{
		ID:       fmt.Sprintf("uid-%d", buf.UID),
		Received: buf.InternalDate,
		Import:   types.ImportanceNormal,
		IsUnread: true,
	}

	if buf.Envelope != nil {
		rec.Subj = buf.Envelope.Subject
		if buf.Envelope.MessageID != "" {
			rec.ID = buf.Envelope.MessageID
		}
		if rec.Received.IsZero() {
			rec.Received = buf.Envelope.Date
		}
		if len(buf.Envelope.From) > 0 {
			from := buf.Envelope.From[0]
			rec.FromName = from.Name
			rec.FromAddr = from.Addr()
			if rec.FromName == "" {
				rec.FromName = rec.FromAddr
			}
		}
	}

	var keywords []string
	for _, flag := range buf.Flags {
		switch flag {
		case imap.FlagSeen:
			rec.IsUnread = false
		case imap.FlagFlagged:
			rec.Flag = types.FlagMarked
		case imap.FlagAnswered, imap.FlagDeleted, imap.FlagDraft:
			// system flags with no triage meaning
		default:
			keywords = append(keywords, strings.TrimPrefix(string(flag), "\\"))
		}
	}
	rec.Cats = strings.Join(keywords, ",")

	if len(raw) > 0 {
		body, attachments, importance := parseMessage(raw)
		rec.BodyText = body
		rec.Attachments = attachments
		if importance != 0 {
			rec.Import = importance
		}
	}
	return rec
}

// parseMessage walks the MIME structure for the text body, the attachment
// count, and a priority header if present.
func parseMessage(raw []byte) (body string, attachments int, importance int) {
	mr, err := mail.CreateReader(bytes.NewReader(raw))
	if err != nil {
		return "", 0, 0
	}

	importance = importanceFromHeader(mr.Header.Get("X-Priority"), mr.Header.Get("Importance"))

	var plain, html string
	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			break
		}
		switch h := part.Header.(type) {
		case *mail.InlineHeader:
			ct, _, _ := h.ContentType()
			data, err := io.ReadAll(part.Body)
			if err != nil {
				continue
			}
			switch ct {
			case "text/plain":
				if plain == "" {
					plain = string(data)
				}
			case "text/html":
				if html == "" {
					html = string(data)
				}
			}
		case *mail.AttachmentHeader:
			attachments++
		}
	}

	if plain != "" {
		return plain, attachments, importance
	}
	return html, attachments, importance
}

// importanceFromHeader maps X-Priority / Importance headers to the 0/1/2
// scale. Unknown values mean Normal.
func importanceFromHeader(xPriority, imp string) int {
	switch strings.TrimSpace(strings.SplitN(xPriority, " ", 2)[0]) {
	case "1", "2":
		return types.ImportanceHigh
	case "5":
		return types.ImportanceLow
	}
	switch strings.ToLower(strings.TrimSpace(imp)) {
	case "high":
		return types.ImportanceHigh
	case "low":
		return types.ImportanceLow
	}
	return 0
}
