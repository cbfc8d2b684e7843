package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/brieflab/mailbrief/internal/db"
	"github.com/brieflab/mailbrief/internal/display"
	"github.com/brieflab/mailbrief/internal/render"
	"github.com/brieflab/mailbrief/internal/sched"
	"github.com/brieflab/mailbrief/internal/triage"
	"github.com/brieflab/mailbrief/internal/types"
)

var (
	previewMode  string
	previewSince string
	previewOut   string
)

var previewCmd = &cobra.Command{
	Use:   "preview",
	Short: "Run the triage pipeline without sending anything",
	Long: "Preview collects and triages mail exactly like run, writes the\n" +
		"rendered digest HTML to disk, and prints the triage result to the\n" +
		"terminal. No mail is sent and no scheduler gate applies.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		mode := previewMode
		if mode == types.ModeAuto || mode == types.ModeForce {
			mode = sched.New().ModeFromTime()
		} else if !validMode(mode) {
			return fmt.Errorf("unknown mode %q (use auto, morning, evening, or force)", previewMode)
		}

		lookback, err := resolveLookback(previewSince)
		if err != nil {
			return err
		}

		store, err := openStore(ctx)
		if err != nil {
			return fmt.Errorf("open mail store: %w", err)
		}
		defer store.Close()

		items, groups, err := triageBatch(ctx, store, lookback)
		if err != nil {
			return err
		}

		html, err := render.Render(groups, render.Options{
			Mode:               mode,
			Grouping:           cfg.Behaviour.Grouping,
			MaxItemsPerSection: cfg.Report.MaxItemsPerSection,
		})
		if err != nil {
			return err
		}

		outPath := previewOut
		if outPath == "" {
			outPath = cfg.Report.PreviewHTML
		}
		if outPath != "" {
			if err := render.SavePreview(outPath, html); err != nil {
				return err
			}
		}

		if ledger, err := db.Open(cfg.DBPath); err == nil {
			recordRun(ledger, mode, len(items), len(groups), "", types.RunStatusPreviewed, "")
			ledger.Close()
		} else {
			logger.Warn("open run ledger failed", zap.Error(err))
		}

		if jsonOutput {
			return printPreviewJSON(mode, outPath, items, groups)
		}
		printPreview(mode, outPath, items, groups)
		return nil
	},
}

func printPreview(mode, outPath string, items []types.MailItem, groups map[string][]types.MailItem) {
	display.Header(fmt.Sprintf("Mail briefing preview (%s) - %d items", mode, len(items)))

	keys := triage.GroupKeys(groups, cfg.Behaviour.Grouping)
	for _, key := range keys {
		group := groups[key]
		display.SectionHeader(sectionLabel(key), len(group))
		for _, item := range group {
			display.ItemLine(item.Derived.PriorityScore, item.Subject,
				item.SenderEmail, item.ReceivedTime, item.Derived.RecommendedAction)
		}
	}

	fmt.Println()
	if outPath != "" {
		display.SuccessMsg("Digest HTML written to %s", outPath)
	}
	display.SuccessMsg("Preview only, nothing was sent")
}

func printPreviewJSON(mode, outPath string, items []types.MailItem, groups map[string][]types.MailItem) error {
	out := struct {
		Mode     string                      `json:"mode"`
		Grouping string                      `json:"grouping"`
		Items    int                         `json:"items"`
		Preview  string                      `json:"preview_html,omitempty"`
		Groups   map[string][]types.MailItem `json:"groups"`
	}{
		Mode:     mode,
		Grouping: cfg.Behaviour.Grouping,
		Items:    len(items),
		Preview:  outPath,
		Groups:   groups,
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

// sectionLabel renders a group key for the terminal listing.
func sectionLabel(key string) string {
	if cfg.Behaviour.Grouping == types.GroupDaily {
		if t, err := time.Parse(triage.DayKey, key); err == nil {
			return t.Format("Monday, 2 January")
		}
	}
	return key
}

func init() {
	previewCmd.Flags().StringVar(&previewMode, "mode", types.ModeAuto, "Briefing mode label: auto, morning, evening, or force")
	previewCmd.Flags().StringVar(&previewSince, "since", "", "Override the inbox lookback window (e.g. 3d, 12h)")
	previewCmd.Flags().StringVarP(&previewOut, "out", "o", "", "Write digest HTML to this path (default: report.preview_html)")

	rootCmd.AddCommand(previewCmd)
}
