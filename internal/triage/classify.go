package triage

import (
	"strings"

	"github.com/brieflab/mailbrief/internal/policy"
	"github.com/brieflab/mailbrief/internal/types"
)

// criticalVocabulary is the fixed keyword list scanned for the
// why-it-matters explanation, independent of configured keyword rules.
var criticalVocabulary = []string{
	"urgent", "asap", "contract", "invoice", "payment", "tender", "proposal",
}

// Classify derives the categorical labels for one item. It is a pure
// function of (item, policy); the AI summary slot stays empty here and is
// only ever filled by the summarization collaborator.
func Classify(item *types.MailItem, pol *policy.Policy) types.Derived {
	return types.Derived{
		PriorityLabel:     priorityLabel(item.Importance),
		StatusLabel:       statusLabel(item),
		GroupLabel:        pol.GroupFor(item.SenderEmail),
		RecommendedAction: recommendedAction(item, pol),
		WhyItMatters:      whyItMatters(item, pol),
	}
}

// priorityLabel maps the raw importance scale to a display label. Low (0)
// and unrecognized values deliberately collapse to "Normal": the digest
// only distinguishes items pushed up, never down.
func priorityLabel(importance int) string {
	if importance == types.ImportanceHigh {
		return "High"
	}
	return "Normal"
}

func statusLabel(item *types.MailItem) string {
	switch {
	case item.IsVIPSender:
		return "VIP"
	case item.IsFlagged:
		return "Flagged"
	default:
		return "Unread"
	}
}

// recommendedAction returns the first matching keyword rule's suggestion,
// falling back to a default derived from flag state and importance. Rules
// without a suggestion are skipped here, not answered with a placeholder.
// The summarization service may later overwrite this; the value here is
// always the baseline.
func recommendedAction(item *types.MailItem, pol *policy.Policy) string {
	text := item.Subject + " " + item.BodyPreview
	for _, rule := range pol.KeywordRules {
		if rule.Suggest != "" && rule.Matches(text) {
			return rule.Suggest
		}
	}

	switch {
	case item.IsFlagged && item.Importance == types.ImportanceHigh:
		return "Urgent - respond today"
	case item.IsFlagged:
		return "Follow up required"
	case item.Importance == types.ImportanceHigh:
		return "Review urgently"
	default:
		return "Review and respond"
	}
}

func whyItMatters(item *types.MailItem, pol *policy.Policy) string {
	var notes []string

	if pol.IsVIPSender(item.SenderEmail) {
		notes = append(notes, "VIP sender")
	} else if pol.IsVIPDomain(item.SenderEmail) {
		notes = append(notes, "Key customer/partner")
	}
	if item.Importance == types.ImportanceHigh {
		notes = append(notes, "marked urgent")
	}
	if item.IsFlagged {
		notes = append(notes, "flagged for follow-up")
	}

	text := strings.ToLower(item.Subject + " " + item.BodyPreview)
	var found []string
	for _, kw := range criticalVocabulary {
		if strings.Contains(text, kw) {
			found = append(found, kw)
		}
	}
	if len(found) > 0 {
		notes = append(notes, "contains: "+strings.Join(found, ", "))
	}

	if len(notes) == 0 {
		return "Requires attention"
	}
	return strings.Join(notes, "; ")
}
