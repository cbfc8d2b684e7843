// Package display provides terminal formatting for mailbrief output.
package display

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
)

var (
	// Styles
	Muted    = lipgloss.NewStyle().Foreground(lipgloss.Color("#6b7280"))
	Dim      = lipgloss.NewStyle().Foreground(lipgloss.Color("#9ca3af"))
	Bold     = lipgloss.NewStyle().Bold(true)
	Success  = lipgloss.NewStyle().Foreground(lipgloss.Color("#16a34a"))
	ErrStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#dc2626"))

	criticalStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#dc2626"))
	highStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#d97706"))
	normalStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#6b7280"))
)

// ScoreDot returns a colored dot for a priority score.
func ScoreDot(score int) string {
	switch {
	case score >= 90:
		return criticalStyle.Render("●")
	case score >= 70:
		return highStyle.Render("●")
	default:
		return normalStyle.Render("○")
	}
}

// ScoreLabel returns a fixed-width styled score.
func ScoreLabel(score int) string {
	label := fmt.Sprintf("%3d", score)
	switch {
	case score >= 90:
		return criticalStyle.Render(label)
	case score >= 70:
		return highStyle.Render(label)
	default:
		return normalStyle.Render(label)
	}
}

// TimeAgo formats a timestamp as a relative time.
func TimeAgo(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	d := time.Since(t)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	case d < 7*24*time.Hour:
		return fmt.Sprintf("%dd ago", int(d.Hours()/24))
	default:
		return t.Format("Jan 2")
	}
}

// Truncate shortens a string to maxLen, adding ellipsis if needed.
func Truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}

// SuccessMsg prints a green checkmark + message.
func SuccessMsg(format string, args ...any) {
	fmt.Println(Success.Render("✓") + " " + fmt.Sprintf(format, args...))
}

// ErrorMsg prints a red X + message to stderr.
func ErrorMsg(format string, args ...any) {
	fmt.Fprintln(os.Stderr, ErrStyle.Render("✗")+" "+fmt.Sprintf(format, args...))
}

// Header prints a section header.
func Header(title string) {
	fmt.Println(Bold.Render(title))
}

// ItemLine prints one triaged item in the preview listing.
func ItemLine(score int, subject, sender string, received time.Time, action string) {
	fmt.Printf("  %s %s  %s  %s\n",
		ScoreDot(score),
		ScoreLabel(score),
		Bold.Render(Truncate(subject, 52)),
		Dim.Render(TimeAgo(received)),
	)
	detail := sender
	if action != "" {
		detail += "  ·  " + action
	}
	fmt.Printf("        %s\n", Muted.Render(Truncate(detail, 72)))
}

// SectionHeader prints a group heading with its item count.
func SectionHeader(title string, count int) {
	fmt.Printf("\n%s %s\n", Bold.Render(title), Dim.Render(fmt.Sprintf("(%d)", count)))
}

// ReasonTrail joins a reason list for display.
func ReasonTrail(reasons []string) string {
	return strings.Join(reasons, ", ")
}
