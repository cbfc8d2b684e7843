// Package collect runs the batch triage pipeline: it pulls raw records from
// the mail store, normalizes and filters them, and applies the scorer and
// classifier to each surviving item.
package collect

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/brieflab/mailbrief/internal/mailstore"
	"github.com/brieflab/mailbrief/internal/normalize"
	"github.com/brieflab/mailbrief/internal/policy"
	"github.com/brieflab/mailbrief/internal/triage"
	"github.com/brieflab/mailbrief/internal/types"
)

// Options controls the collection windows and filtering profile.
type Options struct {
	LookbackDays        int
	OverdueDays         int
	UnreadOrFlaggedOnly bool
	IncludeOverdue      bool
}

// Collector drives one batch run against a mail store.
type Collector struct {
	store mailstore.Store
	pol   *policy.Policy
	log   *zap.Logger
}

// New returns a Collector bound to a store and a per-run policy.
func New(store mailstore.Store, pol *policy.Policy, log *zap.Logger) *Collector {
	return &Collector{store: store, pol: pol, log: log}
}

// Collect fetches, normalizes, filters, scores, and classifies the batch.
// A mail store failure is a run-level error; per-record failures degrade to
// placeholder items instead of aborting.
func (c *Collector) Collect(ctx context.Context, opts Options) ([]types.MailItem, error) {
	inbox, err := c.store.Inbox(ctx, opts.LookbackDays, opts.UnreadOrFlaggedOnly)
	if err != nil {
		return nil, fmt.Errorf("query inbox: %w", err)
	}
	c.log.Info("collected inbox records",
		zap.Int("count", len(inbox)),
		zap.Int("lookback_days", opts.LookbackDays))

	batches := []struct {
		folder  string
		records []mailstore.Record
	}{
		{"Inbox", inbox},
	}

	if opts.IncludeOverdue {
		overdue, err := c.store.Overdue(ctx, opts.OverdueDays)
		if err != nil {
			return nil, fmt.Errorf("query overdue: %w", err)
		}
		c.log.Info("collected overdue records", zap.Int("count", len(overdue)))
		batches = append(batches, struct {
			folder  string
			records []mailstore.Record
		}{"Overdue", overdue})
	}

	// The overdue query overlaps the inbox window (flagged and old-unread
	// result sets intersect), so dedup by entry id, first seen wins.
	seen := make(map[string]bool)
	var items []types.MailItem
	var filtered, errored int

	for _, batch := range batches {
		for _, rec := range batch.records {
			item := normalize.Normalize(rec, batch.folder, c.pol, c.store)
			if item.IsError() {
				errored++
				items = append(items, item)
				continue
			}
			if seen[item.EntryID] {
				continue
			}
			seen[item.EntryID] = true

			if !normalize.Keep(&item, c.pol, opts.UnreadOrFlaggedOnly) {
				filtered++
				continue
			}
			items = append(items, item)
		}
	}

	for i := range items {
		score, reasons := triage.Score(&items[i], c.pol)
		derived := triage.Classify(&items[i], c.pol)
		derived.PriorityScore = score
		derived.PriorityReasons = reasons
		items[i].Derived = derived
	}

	c.log.Info("triage complete",
		zap.Int("items", len(items)),
		zap.Int("filtered", filtered),
		zap.Int("unreadable", errored))
	return items, nil
}
