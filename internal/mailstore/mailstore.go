// Package mailstore defines the boundary between the triage pipeline and
// the platform-specific mailbox backends.
package mailstore

import (
	"context"
	"time"
)

// Record is one raw mail record as exposed by a backend. Every accessor is
// fallible: backends bridge to external systems (API payloads, IMAP
// envelopes) where any individual field can be missing or unreadable. The
// normalizer substitutes documented defaults for failed accessors and never
// aborts the batch.
type Record interface {
	EntryID() (string, error)
	Subject() (string, error)
	SenderName() (string, error)
	// SenderAddress may return a directory-service path instead of an SMTP
	// address; callers resolve those through the store's AddressResolver.
	SenderAddress() (string, error)
	ReceivedTime() (time.Time, error)
	Importance() (int, error)
	FlagStatus() (int, error)
	Unread() (bool, error)
	AttachmentCount() (int, error)
	Categories() (string, error)
	Body() (string, error)
}

// AddressResolver resolves a directory-service sender path to an SMTP
// address.
type AddressResolver interface {
	ResolveAddress(raw string) (string, error)
}

// Store is a connected mailbox backend.
type Store interface {
	AddressResolver

	// Inbox returns inbox records received within the lookback window.
	// When unreadOrFlaggedOnly is set, read and unflagged mail is filtered
	// at the source.
	Inbox(ctx context.Context, lookbackDays int, unreadOrFlaggedOnly bool) ([]Record, error)

	// Overdue returns flagged or unread records older than the given
	// number of days. Implementations may issue overlapping queries; the
	// collector dedups by entry id.
	Overdue(ctx context.Context, olderThanDays int) ([]Record, error)

	// SendDigest delivers the rendered digest to the recipient.
	SendDigest(ctx context.Context, to, subject, htmlBody string) error

	Close() error
}

// MemRecord is a Record backed by plain fields. Backends that materialize
// full messages in memory wrap them in a MemRecord; its accessors never fail.
type MemRecord struct {
	ID          string
	Subj        string
	FromName    string
	FromAddr    string
	Received    time.Time
	Import      int
	Flag        int
	IsUnread    bool
	Attachments int
	Cats        string
	BodyText    string
}

func (r *MemRecord) EntryID() (string, error)         { return r.ID, nil }
func (r *MemRecord) Subject() (string, error)         { return r.Subj, nil }
func (r *MemRecord) SenderName() (string, error)      { return r.FromName, nil }
func (r *MemRecord) SenderAddress() (string, error)   { return r.FromAddr, nil }
func (r *MemRecord) ReceivedTime() (time.Time, error) { return r.Received, nil }
func (r *MemRecord) Importance() (int, error)         { return r.Import, nil }
func (r *MemRecord) FlagStatus() (int, error)         { return r.Flag, nil }
func (r *MemRecord) Unread() (bool, error)            { return r.IsUnread, nil }
func (r *MemRecord) AttachmentCount() (int, error)    { return r.Attachments, nil }
func (r *MemRecord) Categories() (string, error)      { return r.Cats, nil }
func (r *MemRecord) Body() (string, error)            { return r.BodyText, nil }
