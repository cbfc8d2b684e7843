package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/brieflab/mailbrief/internal/collect"
	"github.com/brieflab/mailbrief/internal/gmail"
	"github.com/brieflab/mailbrief/internal/imapstore"
	"github.com/brieflab/mailbrief/internal/mailstore"
	"github.com/brieflab/mailbrief/internal/summarize"
	"github.com/brieflab/mailbrief/internal/triage"
	"github.com/brieflab/mailbrief/internal/types"
)

// openStore builds the configured mail store adapter.
func openStore(ctx context.Context) (mailstore.Store, error) {
	ms := cfg.Mailstore
	switch ms.Provider {
	case "gmail":
		return gmail.Open(ctx, ms.Credentials, logger)
	case "imap":
		return imapstore.Open(imapstore.Options{
			Host:     ms.IMAP.Host,
			Port:     ms.IMAP.Port,
			Username: ms.IMAP.Username,
			Password: os.Getenv(ms.IMAP.PasswordEnv),
			TLS:      ms.IMAP.TLS,
			SMTP: imapstore.SMTPOptions{
				Host:     ms.SMTP.Host,
				Port:     ms.SMTP.Port,
				Username: ms.SMTP.Username,
				Password: os.Getenv(ms.SMTP.PasswordEnv),
				From:     ms.SMTP.From,
			},
		}, logger)
	}
	return nil, fmt.Errorf("unknown mailstore provider %q", ms.Provider)
}

// triageBatch runs collection, triage, optional summarization, and grouping.
func triageBatch(ctx context.Context, store mailstore.Store, lookbackDays int) ([]types.MailItem, map[string][]types.MailItem, error) {
	pol, err := cfg.Policy()
	if err != nil {
		return nil, nil, err
	}

	collector := collect.New(store, pol, logger)
	items, err := collector.Collect(ctx, collect.Options{
		LookbackDays:        lookbackDays,
		OverdueDays:         cfg.Behaviour.OverdueDays,
		UnreadOrFlaggedOnly: cfg.Behaviour.IncludeUnreadOrFlagged,
		IncludeOverdue:      cfg.Behaviour.OverdueDays > 0,
	})
	if err != nil {
		return nil, nil, err
	}

	if cfg.AI.Enabled {
		client := summarize.New(cfg.AI.BaseURL, cfg.AI.APIKeyEnv, cfg.AI.Criteria, logger)
		client.Apply(ctx, items)
	}

	groups := triage.Group(items, pol, cfg.Behaviour.Grouping)
	return items, groups, nil
}

// resolveLookback applies a --since override like "3d" or "12h" to the
// configured lookback window.
func resolveLookback(since string) (int, error) {
	lookback := cfg.Behaviour.LookbackDaysInbox
	if since == "" {
		return lookback, nil
	}

	unit := since[len(since)-1:]
	n, err := strconv.Atoi(strings.TrimSuffix(since, unit))
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid --since value %q (use e.g. 1d or 12h)", since)
	}
	switch unit {
	case "d":
		lookback = n
	case "h":
		lookback = n / 24
		if lookback < 1 {
			lookback = 1
		}
	default:
		return 0, fmt.Errorf("invalid --since unit %q (use d or h)", unit)
	}
	logger.Info("lookback overridden", zap.Int("days", lookback), zap.String("since", since))
	return lookback, nil
}
