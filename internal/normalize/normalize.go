// Package normalize converts raw mail store records into canonical MailItems.
//
// Normalization never fails: each field falls back to a documented default
// when its accessor errors, and a record that cannot even be identified
// becomes a placeholder error item so the digest output stays traceable to
// the input count.
package normalize

import (
	"strings"
	"time"

	"github.com/brieflab/mailbrief/internal/mailstore"
	"github.com/brieflab/mailbrief/internal/policy"
	"github.com/brieflab/mailbrief/internal/types"
)

// PreviewBudget is the body preview length in characters. Fixed at 200 to
// match the briefing deployment profile.
const PreviewBudget = 200

// ErrorSubject is the subject of a placeholder item for an unreadable record.
const ErrorSubject = "(Error reading item)"

// Normalize converts one raw record into a MailItem. A record whose entry id
// cannot be read yields the error placeholder; any other accessor failure is
// recovered with a field default.
func Normalize(rec mailstore.Record, folder string, pol *policy.Policy, res mailstore.AddressResolver) types.MailItem {
	id, err := rec.EntryID()
	if err != nil || id == "" {
		return errorItem(folder)
	}

	item := types.MailItem{
		EntryID: id,
		Folder:  folder,
	}

	item.Subject = stringOr(rec.Subject, "(No subject)")
	item.SenderName = stringOr(rec.SenderName, types.UnknownSender)
	item.SenderEmail = senderEmail(rec, item.SenderName, res)

	if t, err := rec.ReceivedTime(); err == nil && !t.IsZero() {
		item.ReceivedTime = t
	} else {
		item.ReceivedTime = time.Now()
	}

	if imp, err := rec.Importance(); err == nil {
		item.Importance = imp
	} else {
		item.Importance = types.ImportanceNormal
	}

	if flag, err := rec.FlagStatus(); err == nil {
		item.IsFlagged = flag > types.FlagNone
	}
	if unread, err := rec.Unread(); err == nil {
		item.IsUnread = unread
	}
	if n, err := rec.AttachmentCount(); err == nil {
		item.HasAttachments = n > 0
	}

	if cats, err := rec.Categories(); err == nil {
		item.Categories = splitCategories(cats)
	}
	if body, err := rec.Body(); err == nil {
		item.BodyPreview = Preview(body)
	}

	item.IsVIPSender = pol.IsVIP(item.SenderEmail)
	return item
}

// Keep implements the pre-filter profile: it decides whether a normalized
// item enters the pipeline. A flagged item is always kept; the user's
// explicit mark overrides ignore patterns and the VIP restriction.
func Keep(item *types.MailItem, pol *policy.Policy, unreadOrFlaggedOnly bool) bool {
	if item.IsFlagged || item.IsError() {
		return true
	}
	if pol.MatchesIgnorePattern(item.Subject) {
		return false
	}
	if unreadOrFlaggedOnly && item.IsUnread && !item.IsVIPSender {
		return false
	}
	return true
}

// Preview truncates body text to the preview budget and collapses newlines
// and carriage returns into single spaces. The budget counts characters, not
// bytes, so a multi-byte rune is never split.
func Preview(body string) string {
	if len(body) > PreviewBudget {
		if runes := []rune(body); len(runes) > PreviewBudget {
			body = string(runes[:PreviewBudget])
		}
	}
	body = strings.ReplaceAll(body, "\r", " ")
	return strings.ReplaceAll(body, "\n", " ")
}

// senderEmail resolves the raw sender address. Addresses containing @ are
// used verbatim; directory-service paths go through the resolver, falling
// back to the display name and finally the unknown sentinel.
func senderEmail(rec mailstore.Record, displayName string, res mailstore.AddressResolver) string {
	raw, err := rec.SenderAddress()
	if err != nil || raw == "" {
		return types.UnknownAddress
	}
	if strings.Contains(raw, "@") {
		return raw
	}

	// A leading slash marks an X.500 distinguished name from a directory
	// service (e.g. legacy Exchange DN paths).
	if strings.HasPrefix(raw, "/") && res != nil {
		if resolved, err := res.ResolveAddress(raw); err == nil && strings.Contains(resolved, "@") {
			return resolved
		}
	}
	if displayName != "" && displayName != types.UnknownSender {
		return displayName
	}
	return types.UnknownAddress
}

// splitCategories splits a comma-separated category string into trimmed,
// non-empty tokens.
func splitCategories(raw string) []string {
	if raw == "" {
		return nil
	}
	var cats []string
	for _, c := range strings.Split(raw, ",") {
		if c = strings.TrimSpace(c); c != "" {
			cats = append(cats, c)
		}
	}
	return cats
}

func stringOr(get func() (string, error), fallback string) string {
	s, err := get()
	if err != nil || s == "" {
		return fallback
	}
	return s
}

func errorItem(folder string) types.MailItem {
	return types.MailItem{
		EntryID:      types.ErrorEntryID,
		Subject:      ErrorSubject,
		SenderName:   types.UnknownSender,
		SenderEmail:  types.UnknownAddress,
		ReceivedTime: time.Now(),
		Importance:   types.ImportanceLow,
		Folder:       folder,
	}
}
