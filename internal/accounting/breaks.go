// Package accounting turns scan moments into worked intervals: break
// deduction, interval resolution against the ledger, double-scan protection
// and the facility maintenance split.
package accounting

import (
	"time"

	"timeclock/internal/clock"
)

// Window is a fixed daily break.
type Window struct {
	Name  string
	Start clock.TimeOfDay
	End   clock.TimeOfDay
}

// Length returns the window duration.
func (w Window) Length() time.Duration {
	return w.End.Sub(w.Start)
}

// DefaultBreaks are the morning and midday breaks.
func DefaultBreaks() []Window {
	return []Window{
		{Name: "morning", Start: clock.At(9, 0, 0), End: clock.At(9, 10, 0)},
		{Name: "lunch", Start: clock.At(12, 30, 0), End: clock.At(13, 0, 0)},
	}
}

// BreakSchedule computes how much of an interval falls inside break windows.
type BreakSchedule struct {
	windows []Window
}

func NewBreakSchedule(windows []Window) BreakSchedule {
	valid := make([]Window, 0, len(windows))
	for _, w := range windows {
		if w.Start.Valid() && w.End.Valid() && w.End > w.Start {
			valid = append(valid, w)
		}
	}
	return BreakSchedule{windows: valid}
}

// Windows returns the configured break windows.
func (b BreakSchedule) Windows() []Window {
	return append([]Window(nil), b.windows...)
}

// Overlap returns the break time inside [entry, exit). An exit earlier than
// entry is read as the next day.
func (b BreakSchedule) Overlap(entry, exit clock.TimeOfDay) time.Duration {
	if !entry.Valid() || !exit.Valid() {
		return 0
	}
	from, to := entry.Seconds(), exit.Seconds()
	if to < from {
		to += clock.SecondsPerDay
	}
	return time.Duration(b.overlapSeconds(from, to)) * time.Second
}

// overlapSeconds works on an unwrapped axis where to may exceed one day, so
// each window is checked on both days.
func (b BreakSchedule) overlapSeconds(from, to int) int {
	total := 0
	for _, w := range b.windows {
		for _, shift := range [2]int{0, clock.SecondsPerDay} {
			start := w.Start.Seconds() + shift
			end := w.End.Seconds() + shift
			lo := max(from, start)
			hi := min(to, end)
			if hi > lo {
				total += hi - lo
			}
		}
	}
	return total
}
