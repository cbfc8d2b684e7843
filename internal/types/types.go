// Package types defines core data structures for mailbrief.
package types

import "time"

// Importance levels as reported by the mail store (0/1/2 scale).
const (
	ImportanceLow    = 0
	ImportanceNormal = 1
	ImportanceHigh   = 2
)

// Flag states as reported by the mail store.
const (
	FlagNone     = 0
	FlagComplete = 1
	FlagMarked   = 2
)

// ErrorEntryID marks an item that could not be read from the mail store.
// Such items still flow through the pipeline so the digest accounts for them.
const ErrorEntryID = "error"

// UnknownSender and UnknownAddress are the normalizer's sender fallbacks.
const (
	UnknownSender  = "Unknown"
	UnknownAddress = "unknown@unknown.com"
)

// MailItem is the canonical, fully-populated view of one mail record after
// normalization. Every field needed for scoring exists; missing source fields
// are replaced with documented defaults rather than zero values that would
// break comparisons downstream.
type MailItem struct {
	EntryID        string    `json:"entry_id"`
	Subject        string    `json:"subject"`
	SenderName     string    `json:"sender_name"`
	SenderEmail    string    `json:"sender_email"`
	ReceivedTime   time.Time `json:"received_time"`
	Importance     int       `json:"importance"`
	IsFlagged      bool      `json:"is_flagged"`
	IsUnread       bool      `json:"is_unread"`
	IsVIPSender    bool      `json:"is_vip_sender"`
	HasAttachments bool      `json:"has_attachments"`
	Categories     []string  `json:"categories,omitempty"`
	Folder         string    `json:"folder"`
	BodyPreview    string    `json:"body_preview,omitempty"`

	Derived Derived `json:"derived"`
}

// Derived holds the triage output for an item. It stays empty until the
// scorer and classifier run; keeping it apart from the observed fields
// avoids partially-populated items in transit.
type Derived struct {
	PriorityScore     int      `json:"priority_score"`
	PriorityReasons   []string `json:"priority_reasons,omitempty"`
	PriorityLabel     string   `json:"priority_label,omitempty"`
	StatusLabel       string   `json:"status_label,omitempty"`
	GroupLabel        string   `json:"group_label,omitempty"`
	RecommendedAction string   `json:"recommended_action,omitempty"`
	WhyItMatters      string   `json:"why_it_matters,omitempty"`
	AISummary         string   `json:"ai_summary,omitempty"`
}

// IsError reports whether the item is a normalization-failure placeholder.
func (m MailItem) IsError() bool {
	return m.EntryID == ErrorEntryID
}

// Digest run modes.
const (
	ModeAuto    = "auto"
	ModeMorning = "morning"
	ModeEvening = "evening"
	ModeForce   = "force"
)

// Grouping modes for the digest layout.
const (
	GroupDaily    = "daily"
	GroupBucketed = "bucketed"
)

// ValidGroupings is the set of allowed grouping values.
var ValidGroupings = []string{GroupDaily, GroupBucketed}

// IsValidGrouping checks if a grouping string is valid.
func IsValidGrouping(g string) bool {
	for _, v := range ValidGroupings {
		if v == g {
			return true
		}
	}
	return false
}

// RunRecord is one entry in the run ledger: a single digest invocation.
type RunRecord struct {
	ID        string `json:"id"`
	Mode      string `json:"mode"`
	Grouping  string `json:"grouping"`
	Items     int    `json:"items"`
	Groups    int    `json:"groups"`
	SentTo    string `json:"sent_to,omitempty"`
	Status    string `json:"status"`
	Error     string `json:"error,omitempty"`
	StartedAt string `json:"started_at"`
}

// Run statuses recorded in the ledger.
const (
	RunStatusSent      = "sent"
	RunStatusPreviewed = "previewed"
	RunStatusFailed    = "failed"
)
