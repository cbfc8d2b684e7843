package collect

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/brieflab/mailbrief/internal/mailstore"
	"github.com/brieflab/mailbrief/internal/policy"
	"github.com/brieflab/mailbrief/internal/types"
)

// fakeStore serves canned records and never touches the network.
type fakeStore struct {
	inbox      []mailstore.Record
	overdue    []mailstore.Record
	inboxErr   error
	overdueErr error
}

func (s *fakeStore) Inbox(ctx context.Context, lookbackDays int, unreadOrFlaggedOnly bool) ([]mailstore.Record, error) {
	return s.inbox, s.inboxErr
}

func (s *fakeStore) Overdue(ctx context.Context, olderThanDays int) ([]mailstore.Record, error) {
	return s.overdue, s.overdueErr
}

func (s *fakeStore) ResolveAddress(raw string) (string, error) {
	return "", errors.New("no resolver")
}

func (s *fakeStore) SendDigest(ctx context.Context, to, subject, htmlBody string) error {
	return nil
}

func (s *fakeStore) Close() error { return nil }

// unreadableRecord fails every accessor.
type unreadableRecord struct{}

var errGone = errors.New("message gone")

func (unreadableRecord) EntryID() (string, error)         { return "", errGone }
func (unreadableRecord) Subject() (string, error)         { return "", errGone }
func (unreadableRecord) SenderName() (string, error)      { return "", errGone }
func (unreadableRecord) SenderAddress() (string, error)   { return "", errGone }
func (unreadableRecord) ReceivedTime() (time.Time, error) { return time.Time{}, errGone }
func (unreadableRecord) Importance() (int, error)         { return 0, errGone }
func (unreadableRecord) FlagStatus() (int, error)         { return 0, errGone }
func (unreadableRecord) Unread() (bool, error)            { return false, errGone }
func (unreadableRecord) AttachmentCount() (int, error)    { return 0, errGone }
func (unreadableRecord) Categories() (string, error)      { return "", errGone }
func (unreadableRecord) Body() (string, error)            { return "", errGone }

func testPolicy(t *testing.T) *policy.Policy {
	t.Helper()
	p, err := policy.New(policy.Spec{
		VIPSenders: []string{"ceo@bigcorp.com"},
		KeywordRules: []policy.KeywordSpec{
			{Pattern: "urgent", Priority: policy.TierCritical, Suggest: "Respond today"},
		},
		ReportTo: "me@mycompany.com",
	})
	if err != nil {
		t.Fatal(err)
	}
	return p
}

func record(id, from, subject string, flagged bool) *mailstore.MemRecord {
	flag := types.FlagNone
	if flagged {
		flag = types.FlagMarked
	}
	return &mailstore.MemRecord{
		ID:       id,
		Subj:     subject,
		FromAddr: from,
		Received: time.Date(2026, 8, 28, 9, 0, 0, 0, time.UTC),
		Flag:     flag,
		IsUnread: true,
	}
}

func TestCollectDedupsAcrossBatches(t *testing.T) {
	store := &fakeStore{
		inbox: []mailstore.Record{
			record("a", "x@one.com", "first", true),
			record("b", "y@two.com", "second", true),
		},
		overdue: []mailstore.Record{
			record("a", "x@one.com", "first", true),
			record("c", "z@three.com", "third", true),
		},
	}

	c := New(store, testPolicy(t), zap.NewNop())
	items, err := c.Collect(context.Background(), Options{
		LookbackDays:   2,
		OverdueDays:    30,
		IncludeOverdue: true,
	})
	if err != nil {
		t.Fatal(err)
	}

	if len(items) != 3 {
		t.Fatalf("expected 3 deduped items, got %d", len(items))
	}
	seen := make(map[string]string)
	for _, item := range items {
		if prev, dup := seen[item.EntryID]; dup {
			t.Errorf("duplicate entry id %q (folders %q and %q)", item.EntryID, prev, item.Folder)
		}
		seen[item.EntryID] = item.Folder
	}
	if seen["a"] != "Inbox" {
		t.Errorf("first-seen should win: item a folder = %q, want Inbox", seen["a"])
	}
	if seen["c"] != "Overdue" {
		t.Errorf("item c folder = %q, want Overdue", seen["c"])
	}
}

func TestCollectScoresEveryItem(t *testing.T) {
	store := &fakeStore{
		inbox: []mailstore.Record{
			record("a", "ceo@bigcorp.com", "urgent question", false),
			record("b", "y@two.com", "newsletter", false),
		},
	}

	c := New(store, testPolicy(t), zap.NewNop())
	items, err := c.Collect(context.Background(), Options{LookbackDays: 2})
	if err != nil {
		t.Fatal(err)
	}

	for _, item := range items {
		if item.Derived.PriorityScore == 0 && len(item.Derived.PriorityReasons) == 0 {
			t.Errorf("item %q was not scored", item.EntryID)
		}
		if item.Derived.RecommendedAction == "" {
			t.Errorf("item %q was not classified", item.EntryID)
		}
	}
}

func TestCollectKeepsUnreadableRecords(t *testing.T) {
	store := &fakeStore{
		inbox: []mailstore.Record{
			unreadableRecord{},
			record("a", "x@one.com", "hello", false),
			unreadableRecord{},
		},
	}

	c := New(store, testPolicy(t), zap.NewNop())
	items, err := c.Collect(context.Background(), Options{LookbackDays: 2})
	if err != nil {
		t.Fatal(err)
	}

	var placeholders int
	for _, item := range items {
		if item.IsError() {
			placeholders++
		}
	}
	if placeholders != 2 {
		t.Errorf("expected 2 error placeholders, got %d (items %d)", placeholders, len(items))
	}
}

func TestCollectAppliesPrefilter(t *testing.T) {
	store := &fakeStore{
		inbox: []mailstore.Record{
			record("vip", "ceo@bigcorp.com", "status", false),
			record("drop", "y@two.com", "status", false),
			record("keep", "z@three.com", "status", true),
		},
	}

	c := New(store, testPolicy(t), zap.NewNop())
	items, err := c.Collect(context.Background(), Options{
		LookbackDays:        2,
		UnreadOrFlaggedOnly: true,
	})
	if err != nil {
		t.Fatal(err)
	}

	got := make(map[string]bool)
	for _, item := range items {
		got[item.EntryID] = true
	}
	if !got["vip"] || !got["keep"] || got["drop"] {
		t.Errorf("prefilter result wrong: %v", got)
	}
}

func TestCollectStoreErrors(t *testing.T) {
	c := New(&fakeStore{inboxErr: errors.New("connection reset")}, testPolicy(t), zap.NewNop())
	if _, err := c.Collect(context.Background(), Options{LookbackDays: 2}); err == nil {
		t.Fatal("inbox failure should abort the run")
	}

	c = New(&fakeStore{
		inbox:      []mailstore.Record{record("a", "x@one.com", "hello", false)},
		overdueErr: errors.New("connection reset"),
	}, testPolicy(t), zap.NewNop())
	if _, err := c.Collect(context.Background(), Options{LookbackDays: 2, IncludeOverdue: true}); err == nil {
		t.Fatal("overdue failure should abort the run")
	}
}
