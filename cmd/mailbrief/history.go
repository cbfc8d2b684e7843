package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/brieflab/mailbrief/internal/db"
	"github.com/brieflab/mailbrief/internal/display"
	"github.com/brieflab/mailbrief/internal/types"
)

var historyLimit int

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recent briefing runs",
	RunE: func(cmd *cobra.Command, args []string) error {
		ledger, err := db.Open(cfg.DBPath)
		if err != nil {
			return fmt.Errorf("open run ledger: %w", err)
		}
		defer ledger.Close()

		runs, err := ledger.ListRuns(historyLimit)
		if err != nil {
			return fmt.Errorf("list runs: %w", err)
		}

		if jsonOutput {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(runs)
		}

		if len(runs) == 0 {
			fmt.Println(display.Muted.Render("No runs recorded yet"))
			return nil
		}

		display.Header(fmt.Sprintf("Briefing runs (%d of %d)", len(runs), ledger.RunCount()))
		for _, r := range runs {
			fmt.Printf("  %s  %-8s %-9s %s  %s\n",
				formatStarted(r.StartedAt),
				r.Mode,
				statusBadge(r.Status),
				display.Dim.Render(fmt.Sprintf("%d items / %d groups", r.Items, r.Groups)),
				runDetail(r),
			)
		}
		return nil
	},
}

func formatStarted(started string) string {
	if t, err := time.Parse(time.RFC3339, started); err == nil {
		return t.Format("2006-01-02 15:04")
	}
	return started
}

func statusBadge(status string) string {
	switch status {
	case types.RunStatusSent:
		return display.Success.Render(status)
	case types.RunStatusFailed:
		return display.ErrStyle.Render(status)
	}
	return display.Muted.Render(status)
}

func runDetail(r *types.RunRecord) string {
	if r.Error != "" {
		return display.ErrStyle.Render(display.Truncate(r.Error, 48))
	}
	if r.SentTo != "" {
		return display.Muted.Render("to " + r.SentTo)
	}
	return ""
}

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "Maximum number of runs to show")

	rootCmd.AddCommand(historyCmd)
}
