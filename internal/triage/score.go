// Package triage scores, labels, and groups normalized mail items.
//
// Scoring is an additive point model over a base of 50. Every applicable
// signal contributes its delta and a human-readable reason; nothing is
// mutually exclusive, so a score is always explainable by replaying its
// reason trail.
package triage

import (
	"github.com/brieflab/mailbrief/internal/policy"
	"github.com/brieflab/mailbrief/internal/types"
)

// Score bounds and signal deltas.
const (
	BaseScore = 50
	MaxScore  = 100
	MinScore  = 0

	deltaVIPSender       = 40
	deltaVIPDomain       = 30
	deltaHighImportance  = 20
	deltaFlagged         = 15
	deltaUnread          = 10
	deltaCriticalKeyword = 50
	deltaHighKeyword     = 25
	deltaDownranked      = -20
)

// Score computes the priority score and reason trail for one item. The
// result is clamped to [0, 100]: raw totals above 100 cap, and a heavily
// downranked total floors at 0 rather than going negative.
func Score(item *types.MailItem, pol *policy.Policy) (int, []string) {
	score := BaseScore
	var reasons []string

	if pol.IsVIPSender(item.SenderEmail) {
		score += deltaVIPSender
		reasons = append(reasons, "VIP sender")
	}
	if pol.IsVIPDomain(item.SenderEmail) {
		score += deltaVIPDomain
		reasons = append(reasons, "VIP domain")
	}
	if item.Importance == types.ImportanceHigh {
		score += deltaHighImportance
		reasons = append(reasons, "High importance")
	}
	if item.IsFlagged {
		score += deltaFlagged
		reasons = append(reasons, "Flagged")
	}
	if item.IsUnread {
		score += deltaUnread
		reasons = append(reasons, "Unread")
	}

	text := item.Subject + " " + item.BodyPreview
	for _, rule := range pol.KeywordRules {
		if !rule.Matches(text) {
			continue
		}
		suggest := rule.Suggest
		if suggest == "" {
			suggest = "Match"
		}
		switch rule.Priority {
		case policy.TierCritical:
			score += deltaCriticalKeyword
			reasons = append(reasons, "Critical keyword: "+suggest)
		case policy.TierHigh:
			score += deltaHighKeyword
			reasons = append(reasons, "High priority keyword: "+suggest)
		}
	}

	if pol.IsDownrankedDomain(item.SenderEmail) {
		score += deltaDownranked
		reasons = append(reasons, "Downranked domain")
	}

	if score > MaxScore {
		score = MaxScore
	}
	if score < MinScore {
		score = MinScore
	}

	if len(reasons) == 0 {
		reasons = []string{"Normal priority"}
	}
	return score, reasons
}
