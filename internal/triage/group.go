package triage

import (
	"sort"

	"github.com/brieflab/mailbrief/internal/policy"
	"github.com/brieflab/mailbrief/internal/types"
)

// Bucket names for bucketed grouping mode.
const (
	BucketHighPriority    = "high_priority"
	BucketCustomersTeam   = "customers_team"
	BucketCustomersDirect = "customers_direct"
	BucketInternal        = "internal"
	BucketLowPriority     = "low_priority"
	BucketIgnored         = "ignored"
)

// BucketOrder is the fixed presentation order of bucketed-mode groups.
var BucketOrder = []string{
	BucketHighPriority,
	BucketCustomersTeam,
	BucketCustomersDirect,
	BucketInternal,
	BucketLowPriority,
	BucketIgnored,
}

// highPriorityThreshold is the score at or above which an item lands in the
// high_priority bucket regardless of sender relationship.
const highPriorityThreshold = 90

// DayKey is the partition key format for daily grouping.
const DayKey = "2006-01-02"

// Group partitions scored items into named groups under the given mode.
// Both modes are deterministic: ordering depends only on the documented
// sort keys, never on input order or randomness.
func Group(items []types.MailItem, pol *policy.Policy, mode string) map[string][]types.MailItem {
	if mode == types.GroupBucketed {
		return groupBucketed(items, pol)
	}
	return groupDaily(items)
}

// GroupKeys returns the presentation order of group keys for a grouping
// produced by Group: the fixed bucket order for bucketed mode, newest day
// first for daily mode.
func GroupKeys(groups map[string][]types.MailItem, mode string) []string {
	if mode == types.GroupBucketed {
		var keys []string
		for _, b := range BucketOrder {
			if len(groups[b]) > 0 {
				keys = append(keys, b)
			}
		}
		return keys
	}

	keys := make([]string, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}
	sort.Sort(sort.Reverse(sort.StringSlice(keys)))
	return keys
}

// groupBucketed partitions by relationship tier. An ignored-domain sender
// short-circuits every other rule for that item.
func groupBucketed(items []types.MailItem, pol *policy.Policy) map[string][]types.MailItem {
	groups := make(map[string][]types.MailItem)

	for _, item := range items {
		var bucket string
		switch {
		case !item.IsFlagged && pol.IsIgnoredDomain(item.SenderEmail):
			bucket = BucketIgnored
		case item.Derived.PriorityScore >= highPriorityThreshold:
			bucket = BucketHighPriority
		case item.Derived.GroupLabel != "":
			bucket = BucketCustomersTeam
		case pol.IsInternal(item.SenderEmail):
			bucket = BucketInternal
		case policy.Domain(item.SenderEmail) != "" && !pol.IsIgnoredDomain(item.SenderEmail):
			bucket = BucketCustomersDirect
		default:
			bucket = BucketLowPriority
		}
		groups[bucket] = append(groups[bucket], item)
	}

	for _, bucket := range groups {
		sort.SliceStable(bucket, func(i, j int) bool {
			if bucket[i].Derived.PriorityScore != bucket[j].Derived.PriorityScore {
				return bucket[i].Derived.PriorityScore > bucket[j].Derived.PriorityScore
			}
			return bucket[i].ReceivedTime.After(bucket[j].ReceivedTime)
		})
	}
	return groups
}

// groupDaily sorts all items globally (flagged before unread, flagged items
// by importance, ties by recency) and partitions by the calendar date of
// the received timestamp. The timestamp's own date component is used as-is;
// its timezone is treated as already display-local and never reinterpreted.
func groupDaily(items []types.MailItem) map[string][]types.MailItem {
	sorted := make([]types.MailItem, len(items))
	copy(sorted, items)

	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := &sorted[i], &sorted[j]
		if a.IsFlagged != b.IsFlagged {
			return a.IsFlagged
		}
		if a.IsFlagged && a.Importance != b.Importance {
			return a.Importance > b.Importance
		}
		return a.ReceivedTime.After(b.ReceivedTime)
	})

	groups := make(map[string][]types.MailItem)
	for _, item := range sorted {
		key := item.ReceivedTime.Format(DayKey)
		groups[key] = append(groups[key], item)
	}
	return groups
}
