// Package sched gates digest runs by weekday and time-of-day windows.
package sched

import (
	"time"

	"github.com/brieflab/mailbrief/internal/types"
)

// Briefing windows (local time, hour of day).
const (
	morningStart = 9
	morningEnd   = 10
	eveningStart = 17
	eveningEnd   = 18
)

// Guard decides whether a run should proceed.
type Guard struct {
	now func() time.Time
}

// New returns a Guard using the real clock.
func New() *Guard {
	return NewAt(time.Now)
}

// NewAt returns a Guard with an injectable clock.
func NewAt(now func() time.Time) *Guard {
	return &Guard{now: now}
}

// ShouldRun reports whether the given mode may execute now. Force always
// runs; explicit morning/evening are manual invocations allowed any time;
// auto applies the weekday and window gates.
func (g *Guard) ShouldRun(mode string) bool {
	switch mode {
	case types.ModeForce, types.ModeMorning, types.ModeEvening:
		return true
	case types.ModeAuto:
		t := g.now()
		if wd := t.Weekday(); wd == time.Saturday || wd == time.Sunday {
			return false
		}
		h := t.Hour()
		return (h >= morningStart && h < morningEnd) || (h >= eveningStart && h < eveningEnd)
	}
	return true
}

// ModeFromTime resolves auto/force into a concrete briefing mode: morning
// before noon, evening after.
func (g *Guard) ModeFromTime() string {
	if g.now().Hour() < 12 {
		return types.ModeMorning
	}
	return types.ModeEvening
}

// AlreadyRan reports whether a prior run timestamp falls in today's window
// for the given mode, which suppresses a duplicate auto run.
func (g *Guard) AlreadyRan(mode, lastStarted string) bool {
	if lastStarted == "" {
		return false
	}
	last, err := time.Parse(time.RFC3339, lastStarted)
	if err != nil {
		return false
	}
	now := g.now()
	if last.Year() != now.Year() || last.YearDay() != now.YearDay() {
		return false
	}
	switch mode {
	case types.ModeMorning:
		return last.Hour() >= morningStart && last.Hour() < morningEnd
	case types.ModeEvening:
		return last.Hour() >= eveningStart && last.Hour() < eveningEnd
	}
	return false
}
