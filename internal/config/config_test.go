package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/brieflab/mailbrief/internal/types"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "mailbrief.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

const validYAML = `
mailstore:
  provider: gmail
  credentials: /etc/mailbrief/credentials.json
behaviour:
  lookback_days_inbox: 3
  overdue_days: 14
  grouping: bucketed
priorities:
  vip_senders:
    - ceo@bigcorp.com
  keyword_rules:
    - pattern: urgent
      priority: critical
      suggest: Respond today
report:
  to: me@mycompany.com
`

func TestLoad(t *testing.T) {
	cfg, err := Load(writeConfig(t, validYAML))
	if err != nil {
		t.Fatal(err)
	}

	if cfg.Mailstore.Provider != "gmail" {
		t.Errorf("provider = %q", cfg.Mailstore.Provider)
	}
	if cfg.Behaviour.LookbackDaysInbox != 3 {
		t.Errorf("lookback = %d, want 3", cfg.Behaviour.LookbackDaysInbox)
	}
	if cfg.Behaviour.Grouping != types.GroupBucketed {
		t.Errorf("grouping = %q", cfg.Behaviour.Grouping)
	}
	if cfg.Report.To != "me@mycompany.com" {
		t.Errorf("report.to = %q", cfg.Report.To)
	}

	pol, err := cfg.Policy()
	if err != nil {
		t.Fatal(err)
	}
	if !pol.IsVIPSender("ceo@bigcorp.com") {
		t.Error("vip sender list not applied to policy")
	}
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, `
mailstore:
  provider: gmail
  credentials: /tmp/c.json
report:
  to: me@mycompany.com
`))
	if err != nil {
		t.Fatal(err)
	}

	if cfg.Behaviour.LookbackDaysInbox != 2 {
		t.Errorf("default lookback = %d, want 2", cfg.Behaviour.LookbackDaysInbox)
	}
	if cfg.Behaviour.Grouping != types.GroupDaily {
		t.Errorf("default grouping = %q, want daily", cfg.Behaviour.Grouping)
	}
	if !cfg.Behaviour.IncludeUnreadOrFlagged {
		t.Error("default profile should restrict to unread or flagged")
	}
	if cfg.Report.MaxItemsPerSection != 20 {
		t.Errorf("default max items = %d", cfg.Report.MaxItemsPerSection)
	}
	if cfg.DBPath == "" {
		t.Error("default db path missing")
	}
}

func TestLoadValidation(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{
			name: "missing file",
			yaml: "",
			want: "",
		},
		{
			name: "unknown provider",
			yaml: "mailstore:\n  provider: exchange\nreport:\n  to: me@x.com\n",
			want: "unknown provider",
		},
		{
			name: "gmail without credentials",
			yaml: "mailstore:\n  provider: gmail\nreport:\n  to: me@x.com\n",
			want: "requires credentials",
		},
		{
			name: "imap without host",
			yaml: "mailstore:\n  provider: imap\nreport:\n  to: me@x.com\n",
			want: "requires imap.host",
		},
		{
			name: "missing recipient",
			yaml: "mailstore:\n  provider: gmail\n  credentials: /tmp/c.json\n",
			want: "report: to is required",
		},
		{
			name: "bad grouping",
			yaml: "mailstore:\n  provider: gmail\n  credentials: /tmp/c.json\nbehaviour:\n  grouping: weekly\nreport:\n  to: me@x.com\n",
			want: "unknown grouping",
		},
		{
			name: "ai enabled without url",
			yaml: "mailstore:\n  provider: gmail\n  credentials: /tmp/c.json\nai_analysis:\n  enabled: true\nreport:\n  to: me@x.com\n",
			want: "base_url is empty",
		},
		{
			name: "bad keyword regex fails startup",
			yaml: "mailstore:\n  provider: gmail\n  credentials: /tmp/c.json\npriorities:\n  keyword_rules:\n    - pattern: '(unclosed'\n      priority: critical\nreport:\n  to: me@x.com\n",
			want: "compile pattern",
		},
		{
			name: "bad keyword tier fails startup",
			yaml: "mailstore:\n  provider: gmail\n  credentials: /tmp/c.json\npriorities:\n  keyword_rules:\n    - pattern: urgent\n      priority: medium\nreport:\n  to: me@x.com\n",
			want: "invalid priority",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var path string
			if tt.yaml == "" {
				path = filepath.Join(t.TempDir(), "missing.yaml")
			} else {
				path = writeConfig(t, tt.yaml)
			}
			_, err := Load(path)
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if tt.want != "" && !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q does not mention %q", err, tt.want)
			}
		})
	}
}

func TestOverrideFromEnv(t *testing.T) {
	t.Setenv("MAILBRIEF_REPORT_TO", "override@mycompany.com")
	t.Setenv("MAILBRIEF_DB", "/var/lib/mailbrief/runs.db")

	cfg, err := Load(writeConfig(t, validYAML))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Report.To != "override@mycompany.com" {
		t.Errorf("report.to = %q, env override not applied", cfg.Report.To)
	}
	if cfg.DBPath != "/var/lib/mailbrief/runs.db" {
		t.Errorf("db path = %q, env override not applied", cfg.DBPath)
	}
}
