package triage

import (
	"reflect"
	"testing"

	"github.com/brieflab/mailbrief/internal/policy"
	"github.com/brieflab/mailbrief/internal/types"
)

func testPolicy(t *testing.T) *policy.Policy {
	t.Helper()
	p, err := policy.New(policy.Spec{
		VIPSenders:      []string{"ceo@bigcorp.com"},
		VIPDomains:      []string{"keyclient.com"},
		IgnoreDomains:   []string{"newsletter.example"},
		DownrankDomains: []string{"promo.example"},
		GroupMappings:   map[string]string{"acme.io": "Acme Team"},
		KeywordRules: []policy.KeywordSpec{
			{Pattern: "urgent", Priority: policy.TierCritical, Suggest: "Respond today"},
			{Pattern: "outage", Priority: policy.TierCritical, Suggest: "Escalate"},
			{Pattern: "invoice", Priority: policy.TierHigh, Suggest: "Check billing"},
		},
		ReportTo: "me@mycompany.com",
	})
	if err != nil {
		t.Fatalf("build policy: %v", err)
	}
	return p
}

func TestScore(t *testing.T) {
	pol := testPolicy(t)

	tests := []struct {
		name        string
		item        types.MailItem
		wantScore   int
		wantReasons []string
	}{
		{
			name:        "no signals",
			item:        types.MailItem{SenderEmail: "someone@plain.com", Subject: "hello"},
			wantScore:   50,
			wantReasons: []string{"Normal priority"},
		},
		{
			name: "vip sender high importance flagged caps at 100",
			item: types.MailItem{
				SenderEmail: "ceo@bigcorp.com",
				Subject:     "board meeting",
				Importance:  types.ImportanceHigh,
				IsFlagged:   true,
			},
			wantScore:   100,
			wantReasons: []string{"VIP sender", "High importance", "Flagged"},
		},
		{
			name: "vip domain unread",
			item: types.MailItem{
				SenderEmail: "rep@keyclient.com",
				Subject:     "status update",
				IsUnread:    true,
			},
			wantScore:   90,
			wantReasons: []string{"VIP domain", "Unread"},
		},
		{
			name: "keyword deltas accumulate and cap",
			item: types.MailItem{
				SenderEmail: "ops@plain.com",
				Subject:     "URGENT outage",
				BodyPreview: "invoice attached",
				IsFlagged:   true,
			},
			wantScore: 100,
			wantReasons: []string{
				"Flagged",
				"Critical keyword: Respond today",
				"Critical keyword: Escalate",
				"High priority keyword: Check billing",
			},
		},
		{
			name: "keyword scans body preview",
			item: types.MailItem{
				SenderEmail: "acct@plain.com",
				Subject:     "monthly statement",
				BodyPreview: "your invoice is ready",
			},
			wantScore:   75,
			wantReasons: []string{"High priority keyword: Check billing"},
		},
		{
			name: "downranked domain",
			item: types.MailItem{
				SenderEmail: "deals@promo.example",
				Subject:     "sale ends soon",
			},
			wantScore:   30,
			wantReasons: []string{"Downranked domain"},
		},
		{
			name: "downrank applies after positive signals",
			item: types.MailItem{
				SenderEmail: "deals@promo.example",
				Subject:     "weekly deals",
				IsUnread:    true,
			},
			wantScore:   40,
			wantReasons: []string{"Unread", "Downranked domain"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			score, reasons := Score(&tt.item, pol)
			if score != tt.wantScore {
				t.Errorf("score = %d, want %d", score, tt.wantScore)
			}
			if !reflect.DeepEqual(reasons, tt.wantReasons) {
				t.Errorf("reasons = %v, want %v", reasons, tt.wantReasons)
			}
		})
	}
}

func TestScoreSuggestlessRule(t *testing.T) {
	pol, err := policy.New(policy.Spec{
		KeywordRules: []policy.KeywordSpec{
			{Pattern: "renewal", Priority: policy.TierHigh},
		},
		ReportTo: "me@mycompany.com",
	})
	if err != nil {
		t.Fatal(err)
	}

	item := types.MailItem{SenderEmail: "a@b.com", Subject: "contract renewal", IsFlagged: true}
	score, reasons := Score(&item, pol)
	if score != 90 {
		t.Errorf("score = %d, want 90", score)
	}
	want := []string{"Flagged", "High priority keyword: Match"}
	if !reflect.DeepEqual(reasons, want) {
		t.Errorf("reasons = %v, want %v", reasons, want)
	}
}

func TestScoreBounds(t *testing.T) {
	pol := testPolicy(t)

	// Every positive signal at once.
	max := types.MailItem{
		SenderEmail: "ceo@bigcorp.com",
		Subject:     "urgent outage invoice",
		Importance:  types.ImportanceHigh,
		IsFlagged:   true,
		IsUnread:    true,
	}
	if score, _ := Score(&max, pol); score != 100 {
		t.Errorf("maxed item score = %d, want 100", score)
	}
}

func TestScoreIdempotent(t *testing.T) {
	pol := testPolicy(t)
	item := types.MailItem{
		SenderEmail: "rep@keyclient.com",
		Subject:     "urgent invoice",
		IsUnread:    true,
	}

	s1, r1 := Score(&item, pol)
	s2, r2 := Score(&item, pol)
	if s1 != s2 || !reflect.DeepEqual(r1, r2) {
		t.Errorf("scoring is not deterministic: (%d, %v) vs (%d, %v)", s1, r1, s2, r2)
	}
}
