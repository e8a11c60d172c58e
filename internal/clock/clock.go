// Package clock supplies the terminal's notion of "now" in a fixed-offset
// zone, the daily cutoff and the weekday buckets used by schedules.
package clock

import (
	"fmt"
	"sync"
	"time"
)

// DefaultOffsetHours is the shop floor's fixed UTC offset.
const DefaultOffsetHours = -5

// Clock supplies the current instant.
type Clock interface {
	Now() time.Time
}

// Zone returns a fixed-offset location such as UTC-5.
func Zone(offsetHours int) *time.Location {
	name := fmt.Sprintf("UTC%+d", offsetHours)
	if offsetHours == 0 {
		name = "UTC"
	}
	return time.FixedZone(name, offsetHours*3600)
}

// System reads the machine clock and converts it to the configured zone.
type System struct {
	loc *time.Location
}

func NewSystem(offsetHours int) *System {
	return &System{loc: Zone(offsetHours)}
}

func (s *System) Now() time.Time {
	return time.Now().In(s.loc)
}

// Location returns the zone all times are reported in.
func (s *System) Location() *time.Location {
	return s.loc
}

// Fixed is a manually driven clock.
type Fixed struct {
	mu  sync.Mutex
	now time.Time
}

func NewFixed(now time.Time) *Fixed {
	return &Fixed{now: now}
}

func (f *Fixed) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *Fixed) Set(now time.Time) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.now = now
}

func (f *Fixed) Advance(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.now = f.now.Add(d)
}

// DateOf truncates t to midnight in t's location.
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// SameDate reports whether a and b fall on the same calendar date.
func SameDate(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// Cutoffs is the nominal end of shift per weekday: one short day, the rest default.
type Cutoffs struct {
	Default  TimeOfDay
	ShortDay time.Weekday
	Short    TimeOfDay
}

// DefaultCutoffs ends Friday at 15:30 and every other day at 16:30.
func DefaultCutoffs() Cutoffs {
	return Cutoffs{
		Default:  At(16, 30, 0),
		ShortDay: time.Friday,
		Short:    At(15, 30, 0),
	}
}

// For returns the cutoff for the weekday of date.
func (c Cutoffs) For(date time.Time) TimeOfDay {
	if date.Weekday() == c.ShortDay {
		return c.Short
	}
	return c.Default
}

// Clamp returns the wall-clock time of t, never later than that day's cutoff.
func (c Cutoffs) Clamp(t time.Time) TimeOfDay {
	return Min(FromTime(t), c.For(t))
}

// Bucket groups weekdays that share a schedule.
type Bucket string

const (
	BucketMonThu   Bucket = "mon_thu"
	BucketFriday   Bucket = "friday"
	BucketSaturday Bucket = "saturday"
	BucketNone     Bucket = ""
)

// BucketOf maps a weekday to its schedule bucket. Sunday has none.
func BucketOf(day time.Weekday) Bucket {
	switch day {
	case time.Monday, time.Tuesday, time.Wednesday, time.Thursday:
		return BucketMonThu
	case time.Friday:
		return BucketFriday
	case time.Saturday:
		return BucketSaturday
	default:
		return BucketNone
	}
}
