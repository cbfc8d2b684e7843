// Package render turns grouped, labeled items into the digest HTML document.
// It is pure presentation: every label, score, and reason is emitted as
// produced by the triage pipeline, never re-derived here.
package render

import (
	"fmt"
	"html/template"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/brieflab/mailbrief/internal/triage"
	"github.com/brieflab/mailbrief/internal/types"
)

// Options controls presentation limits.
type Options struct {
	Mode               string
	Grouping           string
	MaxItemsPerSection int
}

// section is one rendered group.
type section struct {
	Title    string
	Items    []types.MailItem
	Overflow int
}

type digestContext struct {
	Timestamp  string
	Mode       string
	TotalItems int
	Sections   []section
}

// sectionTitles maps bucket keys to display titles. Daily keys are dates
// and format themselves.
var sectionTitles = map[string]string{
	triage.BucketHighPriority:    "High Priority",
	triage.BucketCustomersTeam:   "Customers - Team",
	triage.BucketCustomersDirect: "Customers - Direct",
	triage.BucketInternal:        "Internal",
	triage.BucketLowPriority:     "Low Priority",
	triage.BucketIgnored:         "Ignored",
}

// Render produces the digest HTML for grouped items.
func Render(groups map[string][]types.MailItem, opts Options) (string, error) {
	keys := triage.GroupKeys(groups, opts.Grouping)

	ctx := digestContext{
		Timestamp: time.Now().Format("2006-01-02 15:04"),
		Mode:      titleCase(opts.Mode),
	}
	for _, key := range keys {
		items := groups[key]
		ctx.TotalItems += len(items)

		sec := section{Title: sectionTitle(key, opts.Grouping), Items: items}
		if opts.MaxItemsPerSection > 0 && len(items) > opts.MaxItemsPerSection {
			sec.Items = items[:opts.MaxItemsPerSection]
			sec.Overflow = len(items) - opts.MaxItemsPerSection
		}
		ctx.Sections = append(ctx.Sections, sec)
	}

	var b strings.Builder
	if err := digestTemplate.Execute(&b, ctx); err != nil {
		return "", fmt.Errorf("render digest: %w", err)
	}
	return b.String(), nil
}

// Subject expands the configured subject template. Supported placeholders:
// {{timestamp}} and {{mode}}.
func Subject(tmpl, mode string, now time.Time) string {
	if tmpl == "" {
		tmpl = "Daily Mail Briefing - {{timestamp}}"
	}
	s := strings.ReplaceAll(tmpl, "{{timestamp}}", now.Format("2006-01-02 15:04"))
	return strings.ReplaceAll(s, "{{mode}}", titleCase(mode))
}

// SavePreview writes the rendered HTML next to the configured preview path,
// creating parent directories as needed.
func SavePreview(path, html string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create preview directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(html), 0o644); err != nil {
		return fmt.Errorf("write preview: %w", err)
	}
	return nil
}

func sectionTitle(key, grouping string) string {
	if grouping == types.GroupBucketed {
		if title, ok := sectionTitles[key]; ok {
			return title
		}
		return key
	}
	if t, err := time.Parse(triage.DayKey, key); err == nil {
		return t.Format("Monday, 2 January 2006")
	}
	return key
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

var digestTemplate = template.Must(template.New("digest").Funcs(template.FuncMap{
	"clock":   func(t time.Time) string { return t.Format("15:04") },
	"reasons": func(rs []string) string { return strings.Join(rs, ", ") },
	"truncate": func(s string) string {
		if len(s) <= 60 {
			return s
		}
		return s[:57] + "..."
	},
}).Parse(digestHTML))

const digestHTML = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<style>
  body { font-family: Segoe UI, Arial, sans-serif; color: #1f2937; margin: 0; padding: 16px; }
  h1 { font-size: 20px; margin-bottom: 4px; }
  h2 { font-size: 16px; border-bottom: 1px solid #e5e7eb; padding-bottom: 4px; margin-top: 24px; }
  .meta { color: #6b7280; font-size: 12px; }
  .item { margin: 12px 0; padding: 8px 12px; border-left: 3px solid #d1d5db; }
  .item.high { border-left-color: #dc2626; }
  .item.error { border-left-color: #d97706; background: #fffbeb; }
  .subject { font-weight: 600; }
  .score { color: #6b7280; font-size: 12px; }
  .labels { font-size: 12px; color: #374151; }
  .why { font-size: 12px; color: #6b7280; font-style: italic; }
  .summary { font-size: 12px; color: #1d4ed8; }
  .overflow { color: #9ca3af; font-size: 12px; }
</style>
</head>
<body>
<h1>Mail Briefing - {{.Mode}}</h1>
<p class="meta">Generated {{.Timestamp}} &middot; {{.TotalItems}} items</p>
{{range .Sections}}
<h2>{{.Title}}</h2>
{{range .Items}}
<div class="item{{if ge .Derived.PriorityScore 90}} high{{end}}{{if .IsError}} error{{end}}">
  <div class="subject">{{truncate .Subject}}</div>
  <div class="meta">{{.SenderName}} &lt;{{.SenderEmail}}&gt; &middot; {{clock .ReceivedTime}}</div>
  <div class="score">Score {{.Derived.PriorityScore}} - {{reasons .Derived.PriorityReasons}}</div>
  <div class="labels">{{.Derived.StatusLabel}} &middot; {{.Derived.PriorityLabel}}{{with .Derived.GroupLabel}} &middot; {{.}}{{end}} &middot; {{.Derived.RecommendedAction}}</div>
  <div class="why">{{.Derived.WhyItMatters}}</div>
  {{with .Derived.AISummary}}<div class="summary">{{.}}</div>{{end}}
</div>
{{end}}
{{with .Overflow}}<p class="overflow">... and {{.}} more</p>{{end}}
{{end}}
</body>
</html>
`
