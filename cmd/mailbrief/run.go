package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/brieflab/mailbrief/internal/db"
	"github.com/brieflab/mailbrief/internal/display"
	"github.com/brieflab/mailbrief/internal/render"
	"github.com/brieflab/mailbrief/internal/sched"
	"github.com/brieflab/mailbrief/internal/types"
)

var (
	runMode  string
	runSince string
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Collect, triage, and send the mail briefing",
	Long: "Run collects the configured mail window, scores and labels every\n" +
		"item, renders the HTML digest, and sends it to the report address.\n" +
		"In auto mode the run is gated to weekday briefing windows and\n" +
		"suppressed when this window's digest already went out.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		if !validMode(runMode) {
			return fmt.Errorf("unknown mode %q (use auto, morning, evening, or force)", runMode)
		}

		guard := sched.New()
		if !guard.ShouldRun(runMode) {
			display.SuccessMsg("Outside briefing window, nothing to do")
			return nil
		}

		mode := runMode
		if mode == types.ModeAuto || mode == types.ModeForce {
			mode = guard.ModeFromTime()
		}

		ledger, err := db.Open(cfg.DBPath)
		if err != nil {
			return fmt.Errorf("open run ledger: %w", err)
		}
		defer ledger.Close()

		if runMode == types.ModeAuto && guard.AlreadyRan(mode, ledger.LastRun(mode)) {
			display.SuccessMsg("The %s briefing already went out today", mode)
			return nil
		}

		lookback, err := resolveLookback(runSince)
		if err != nil {
			return err
		}

		store, err := openStore(ctx)
		if err != nil {
			if cfg.Behaviour.OnlyWhenStoreReachable {
				logger.Warn("mail store unreachable, skipping run", zap.Error(err))
				display.SuccessMsg("Mail store unreachable, skipping this run")
				return nil
			}
			return fmt.Errorf("open mail store: %w", err)
		}
		defer store.Close()

		items, groups, err := triageBatch(ctx, store, lookback)
		if err != nil {
			recordRun(ledger, mode, 0, 0, "", types.RunStatusFailed, err.Error())
			return err
		}

		html, err := render.Render(groups, render.Options{
			Mode:               mode,
			Grouping:           cfg.Behaviour.Grouping,
			MaxItemsPerSection: cfg.Report.MaxItemsPerSection,
		})
		if err != nil {
			recordRun(ledger, mode, len(items), len(groups), "", types.RunStatusFailed, err.Error())
			return err
		}

		if cfg.Report.PreviewHTML != "" {
			if err := render.SavePreview(cfg.Report.PreviewHTML, html); err != nil {
				logger.Warn("save preview failed", zap.Error(err))
			}
		}

		subject := render.Subject(cfg.Report.SubjectTemplate, mode, time.Now())
		if err := store.SendDigest(ctx, cfg.Report.To, subject, html); err != nil {
			recordRun(ledger, mode, len(items), len(groups), cfg.Report.To, types.RunStatusFailed, err.Error())
			return fmt.Errorf("send digest: %w", err)
		}

		recordRun(ledger, mode, len(items), len(groups), cfg.Report.To, types.RunStatusSent, "")
		display.SuccessMsg("Sent %s briefing to %s (%d items in %d groups)",
			mode, cfg.Report.To, len(items), len(groups))
		return nil
	},
}

func validMode(mode string) bool {
	switch mode {
	case types.ModeAuto, types.ModeMorning, types.ModeEvening, types.ModeForce:
		return true
	}
	return false
}

func recordRun(ledger *db.DB, mode string, items, groups int, sentTo, status, errMsg string) {
	rec := &types.RunRecord{
		Mode:     mode,
		Grouping: cfg.Behaviour.Grouping,
		Items:    items,
		Groups:   groups,
		SentTo:   sentTo,
		Status:   status,
		Error:    errMsg,
	}
	if err := ledger.InsertRun(rec); err != nil {
		logger.Warn("record run failed", zap.Error(err))
	}
}

func init() {
	runCmd.Flags().StringVar(&runMode, "mode", types.ModeAuto, "Briefing mode: auto, morning, evening, or force")
	runCmd.Flags().StringVar(&runSince, "since", "", "Override the inbox lookback window (e.g. 3d, 12h)")

	rootCmd.AddCommand(runCmd)
}
