package clock

import (
	"fmt"
	"strings"
	"time"
)

// SecondsPerDay is the length of a wall-clock day.
const SecondsPerDay = 24 * 60 * 60

// TimeOfDay is a naive local wall-clock time, stored as seconds since midnight.
// It never carries timezone information.
type TimeOfDay int

// Invalid marks a missing or unparsable time of day.
const Invalid TimeOfDay = -1

var timeLayouts = []string{
	"15:04:05",
	"15:04",
	"3:04:05 PM",
	"3:04 PM",
	"15:04:05.000000",
}

// At builds a TimeOfDay from hour, minute and second.
func At(hour, minute, second int) TimeOfDay {
	return TimeOfDay(hour*3600 + minute*60 + second)
}

// FromTime returns the wall-clock part of t in t's own location.
func FromTime(t time.Time) TimeOfDay {
	return At(t.Hour(), t.Minute(), t.Second())
}

// Parse accepts "HH:MM", "HH:MM:SS" and 12-hour variants.
func Parse(s string) (TimeOfDay, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Invalid, fmt.Errorf("empty time of day")
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return FromTime(t), nil
		}
	}
	return Invalid, fmt.Errorf("invalid time of day %q", s)
}

// MustParse is Parse for literals known to be valid.
func MustParse(s string) TimeOfDay {
	t, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return t
}

// Valid reports whether t lies within a single day.
func (t TimeOfDay) Valid() bool {
	return t >= 0 && t < SecondsPerDay
}

// Seconds returns seconds since midnight.
func (t TimeOfDay) Seconds() int {
	return int(t)
}

// Sub returns t-u as a duration.
func (t TimeOfDay) Sub(u TimeOfDay) time.Duration {
	return time.Duration(t-u) * time.Second
}

// On places t on the calendar date of day, in day's location.
func (t TimeOfDay) On(day time.Time) time.Time {
	y, m, d := day.Date()
	return time.Date(y, m, d, 0, 0, int(t), 0, day.Location())
}

func (t TimeOfDay) String() string {
	if !t.Valid() {
		return ""
	}
	s := int(t)
	return fmt.Sprintf("%02d:%02d:%02d", s/3600, s%3600/60, s%60)
}

// HHMM formats t without seconds.
func (t TimeOfDay) HHMM() string {
	if !t.Valid() {
		return ""
	}
	s := int(t)
	return fmt.Sprintf("%02d:%02d", s/3600, s%3600/60)
}

func (t TimeOfDay) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

func (t *TimeOfDay) UnmarshalText(text []byte) error {
	if len(strings.TrimSpace(string(text))) == 0 {
		*t = Invalid
		return nil
	}
	v, err := Parse(string(text))
	if err != nil {
		return err
	}
	*t = v
	return nil
}

// Min returns the earlier of a and b.
func Min(a, b TimeOfDay) TimeOfDay {
	if a < b {
		return a
	}
	return b
}
