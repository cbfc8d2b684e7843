package sched

import (
	"testing"
	"time"

	"github.com/brieflab/mailbrief/internal/types"
)

func at(t *testing.T, value string) func() time.Time {
	t.Helper()
	ts, err := time.Parse(time.RFC3339, value)
	if err != nil {
		t.Fatal(err)
	}
	return func() time.Time { return ts }
}

func TestShouldRun(t *testing.T) {
	tests := []struct {
		name string
		now  string
		mode string
		want bool
	}{
		{"auto in morning window", "2026-08-28T09:30:00Z", types.ModeAuto, true},
		{"auto in evening window", "2026-08-28T17:15:00Z", types.ModeAuto, true},
		{"auto before morning window", "2026-08-28T08:59:00Z", types.ModeAuto, false},
		{"auto at window end", "2026-08-28T10:00:00Z", types.ModeAuto, false},
		{"auto midday", "2026-08-28T13:00:00Z", types.ModeAuto, false},
		{"auto on saturday", "2026-08-29T09:30:00Z", types.ModeAuto, false},
		{"auto on sunday", "2026-08-30T17:30:00Z", types.ModeAuto, false},
		{"force on sunday midnight", "2026-08-30T00:05:00Z", types.ModeForce, true},
		{"explicit morning outside window", "2026-08-28T14:00:00Z", types.ModeMorning, true},
		{"explicit evening on weekend", "2026-08-29T20:00:00Z", types.ModeEvening, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := NewAt(at(t, tt.now))
			if got := g.ShouldRun(tt.mode); got != tt.want {
				t.Errorf("ShouldRun(%s) at %s = %v, want %v", tt.mode, tt.now, got, tt.want)
			}
		})
	}
}

func TestModeFromTime(t *testing.T) {
	if got := NewAt(at(t, "2026-08-28T09:30:00Z")).ModeFromTime(); got != types.ModeMorning {
		t.Errorf("09:30 mode = %q, want morning", got)
	}
	if got := NewAt(at(t, "2026-08-28T12:00:00Z")).ModeFromTime(); got != types.ModeEvening {
		t.Errorf("12:00 mode = %q, want evening", got)
	}
}

func TestAlreadyRan(t *testing.T) {
	g := NewAt(at(t, "2026-08-28T09:45:00Z"))

	tests := []struct {
		name string
		mode string
		last string
		want bool
	}{
		{"same morning window", types.ModeMorning, "2026-08-28T09:10:00Z", true},
		{"yesterday's morning", types.ModeMorning, "2026-08-27T09:10:00Z", false},
		{"today outside window", types.ModeMorning, "2026-08-28T08:00:00Z", false},
		{"evening run does not block morning", types.ModeMorning, "2026-08-28T17:10:00Z", false},
		{"no prior run", types.ModeMorning, "", false},
		{"unparseable timestamp", types.ModeMorning, "not-a-time", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := g.AlreadyRan(tt.mode, tt.last); got != tt.want {
				t.Errorf("AlreadyRan(%s, %q) = %v, want %v", tt.mode, tt.last, got, tt.want)
			}
		})
	}
}

func TestAlreadyRanEvening(t *testing.T) {
	g := NewAt(at(t, "2026-08-28T17:45:00Z"))
	if !g.AlreadyRan(types.ModeEvening, "2026-08-28T17:05:00Z") {
		t.Error("same evening window should count as already ran")
	}
	if g.AlreadyRan(types.ModeEvening, "2026-08-28T09:30:00Z") {
		t.Error("morning run should not block the evening briefing")
	}
}
