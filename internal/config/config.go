// Package config loads and validates the mailbrief configuration file.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/brieflab/mailbrief/internal/policy"
	"github.com/brieflab/mailbrief/internal/types"
)

// MailstoreConfig selects and configures the mail store adapter.
type MailstoreConfig struct {
	// Provider is "gmail" or "imap".
	Provider string `yaml:"provider"`

	// Credentials is the path to the Gmail OAuth2 credentials.json;
	// token.json is expected next to it.
	Credentials string `yaml:"credentials"`

	IMAP IMAPConfig `yaml:"imap"`
	SMTP SMTPConfig `yaml:"smtp"`
}

// IMAPConfig holds IMAP connection settings for the imap provider.
type IMAPConfig struct {
	Host        string `yaml:"host"`
	Port        int    `yaml:"port"`
	Username    string `yaml:"username"`
	PasswordEnv string `yaml:"password_env"`
	TLS         bool   `yaml:"tls"`
}

// SMTPConfig holds SMTP delivery settings for the imap provider.
type SMTPConfig struct {
	Host        string `yaml:"host"`
	Port        int    `yaml:"port"`
	Username    string `yaml:"username"`
	PasswordEnv string `yaml:"password_env"`
	From        string `yaml:"from"`
}

// BehaviourConfig controls collection windows and filtering profile.
type BehaviourConfig struct {
	LookbackDaysInbox      int    `yaml:"lookback_days_inbox"`
	OverdueDays            int    `yaml:"overdue_days"`
	IncludeUnreadOrFlagged bool   `yaml:"include_unread_or_flagged_only"`
	Grouping               string `yaml:"grouping"`
	OnlyWhenStoreReachable bool   `yaml:"only_when_store_reachable"`
}

// PrioritiesConfig is the raw priority policy as written in YAML.
type PrioritiesConfig struct {
	VIPSenders      []string             `yaml:"vip_senders"`
	VIPDomains      []string             `yaml:"vip_domains"`
	IgnoreDomains   []string             `yaml:"ignore_domains"`
	DownrankDomains []string             `yaml:"downrank_domains"`
	GroupMappings   map[string]string    `yaml:"group_mappings"`
	IgnoreMatch     []string             `yaml:"ignore_match"`
	KeywordRules    []policy.KeywordSpec `yaml:"keyword_rules"`
}

// AIConfig configures the optional summarization service.
type AIConfig struct {
	Enabled   bool   `yaml:"enabled"`
	BaseURL   string `yaml:"base_url"`
	APIKeyEnv string `yaml:"api_key_env"`
	Criteria  string `yaml:"criteria"`
}

// ReportConfig controls digest delivery and presentation.
type ReportConfig struct {
	To                 string `yaml:"to"`
	SubjectTemplate    string `yaml:"subject_template"`
	PreviewHTML        string `yaml:"preview_html"`
	MaxItemsPerSection int    `yaml:"max_items_per_section"`
}

// Config is the full configuration surface.
type Config struct {
	Mailstore  MailstoreConfig  `yaml:"mailstore"`
	Behaviour  BehaviourConfig  `yaml:"behaviour"`
	Priorities PrioritiesConfig `yaml:"priorities"`
	AI         AIConfig         `yaml:"ai_analysis"`
	Report     ReportConfig     `yaml:"report"`

	// DBPath locates the run ledger database.
	DBPath string `yaml:"db_path"`
}

// Load reads, overrides, and validates the configuration at path.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config %s: %w", path, err)
	}
	defer f.Close()

	cfg := defaults()
	if err := yaml.NewDecoder(f).Decode(cfg); err != nil {
		return nil, fmt.Errorf("decode config %s: %w", path, err)
	}

	overrideFromEnv(cfg)

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func defaults() *Config {
	return &Config{
		Mailstore: MailstoreConfig{Provider: "gmail"},
		Behaviour: BehaviourConfig{
			LookbackDaysInbox:      2,
			OverdueDays:            30,
			IncludeUnreadOrFlagged: true,
			Grouping:               types.GroupDaily,
		},
		AI: AIConfig{
			APIKeyEnv: "MAILBRIEF_AI_KEY",
			Criteria:  "flagged_high",
		},
		Report: ReportConfig{
			SubjectTemplate:    "Daily Mail Briefing - {{timestamp}}",
			MaxItemsPerSection: 20,
		},
		DBPath: ".mailbrief/runs.db",
	}
}

// overrideFromEnv applies environment overrides for deployment settings
// that should not live in the config file.
func overrideFromEnv(cfg *Config) {
	if to := os.Getenv("MAILBRIEF_REPORT_TO"); to != "" {
		cfg.Report.To = to
	}
	if url := os.Getenv("MAILBRIEF_AI_URL"); url != "" {
		cfg.AI.BaseURL = url
	}
	if db := os.Getenv("MAILBRIEF_DB"); db != "" {
		cfg.DBPath = db
	}
}

func (c *Config) validate() error {
	switch c.Mailstore.Provider {
	case "gmail":
		if c.Mailstore.Credentials == "" {
			return fmt.Errorf("mailstore: gmail provider requires credentials path")
		}
	case "imap":
		if c.Mailstore.IMAP.Host == "" {
			return fmt.Errorf("mailstore: imap provider requires imap.host")
		}
		if c.Mailstore.SMTP.Host == "" {
			return fmt.Errorf("mailstore: imap provider requires smtp.host for delivery")
		}
	default:
		return fmt.Errorf("mailstore: unknown provider %q (must be gmail or imap)", c.Mailstore.Provider)
	}

	if !types.IsValidGrouping(c.Behaviour.Grouping) {
		return fmt.Errorf("behaviour: unknown grouping %q (must be daily or bucketed)", c.Behaviour.Grouping)
	}
	if c.Behaviour.LookbackDaysInbox <= 0 {
		return fmt.Errorf("behaviour: lookback_days_inbox must be positive")
	}
	if c.Report.To == "" {
		return fmt.Errorf("report: to is required")
	}
	if c.AI.Enabled && c.AI.BaseURL == "" {
		return fmt.Errorf("ai_analysis: enabled but base_url is empty")
	}

	// Compile the policy once here so a malformed keyword regex is a
	// startup error, not a mid-run surprise.
	if _, err := c.Policy(); err != nil {
		return fmt.Errorf("priorities: %w", err)
	}
	return nil
}

// Policy builds the compiled priority policy from the configuration.
func (c *Config) Policy() (*policy.Policy, error) {
	return policy.New(policy.Spec{
		VIPSenders:      c.Priorities.VIPSenders,
		VIPDomains:      c.Priorities.VIPDomains,
		IgnoreDomains:   c.Priorities.IgnoreDomains,
		DownrankDomains: c.Priorities.DownrankDomains,
		GroupMappings:   c.Priorities.GroupMappings,
		IgnoreMatch:     c.Priorities.IgnoreMatch,
		KeywordRules:    c.Priorities.KeywordRules,
		ReportTo:        c.Report.To,
	})
}
