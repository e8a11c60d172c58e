package accounting

import (
	"time"

	"timeclock/internal/clock"
	"timeclock/internal/models"
)

// FacilityWindow is one bucket's maintenance window.
type FacilityWindow struct {
	Start clock.TimeOfDay
	End   clock.TimeOfDay
	Close clock.TimeOfDay
}

// Contains reports whether now lies in [Start, End], both inclusive.
func (w FacilityWindow) Contains(now clock.TimeOfDay) bool {
	return w.Start <= now && now <= w.End
}

// FacilityConfig describes the automatic maintenance booking.
type FacilityConfig struct {
	Enabled       bool
	ActivityCode  string
	ActivityLabel string
	OrderID       string
	Windows       map[clock.Bucket]FacilityWindow
}

// DefaultFacility books 16:20-17:00 (close 16:30) Monday to Thursday and
// 15:20-16:00 (close 15:30) on Friday.
func DefaultFacility() FacilityConfig {
	return FacilityConfig{
		Enabled:       true,
		ActivityCode:  "29",
		ActivityLabel: "ADECUACIÓN LOCATIVA",
		OrderID:       "0000",
		Windows: map[clock.Bucket]FacilityWindow{
			clock.BucketMonThu: {Start: clock.At(16, 20, 0), End: clock.At(17, 0, 0), Close: clock.At(16, 30, 0)},
			clock.BucketFriday: {Start: clock.At(15, 20, 0), End: clock.At(16, 0, 0), Close: clock.At(15, 30, 0)},
		},
	}
}

// WindowFor returns the window that applies on date. Weekends never apply.
func (c FacilityConfig) WindowFor(date time.Time) (FacilityWindow, bool) {
	if !c.Enabled {
		return FacilityWindow{}, false
	}
	switch date.Weekday() {
	case time.Saturday, time.Sunday:
		return FacilityWindow{}, false
	}
	w, ok := c.Windows[clock.BucketOf(date.Weekday())]
	if !ok || !w.Start.Valid() || !w.End.Valid() || !w.Close.Valid() {
		return FacilityWindow{}, false
	}
	return w, true
}

// Splitter books the tail of a scan inside the maintenance window to the
// facility activity.
type Splitter struct {
	config FacilityConfig
	calc   Calculator
}

func NewSplitter(config FacilityConfig, calc Calculator) Splitter {
	return Splitter{config: config, calc: calc}
}

// Split returns the primary event followed, when now falls inside today's
// window and before its close time, by a synthetic event from now to close.
// A tail worth zero hours is omitted.
func (s Splitter) Split(primary models.WorkEvent, now clock.TimeOfDay) []models.WorkEvent {
	records := []models.WorkEvent{primary}

	w, ok := s.config.WindowFor(primary.Date)
	if !ok || !w.Contains(now) {
		return records
	}

	if now >= w.Close {
		return records
	}

	hours := s.calc.Hours(now, w.Close)
	if !hours.IsPositive() {
		return records
	}

	return append(records, models.WorkEvent{
		SubjectID:       primary.SubjectID,
		SubjectName:     primary.SubjectName,
		Date:            primary.Date,
		ActivityCode:    s.config.ActivityCode,
		ActivityLabel:   s.config.ActivityLabel,
		OrderID:         s.config.OrderID,
		Client:          models.NotAvailable,
		Reference:       models.NotAvailable,
		ItemDescription: s.config.ActivityLabel,
		Quantities:      models.NotAvailable,
		IntervalStart:   now,
		IntervalEnd:     w.Close,
		WorkedHours:     hours,
		ExactTimestamp:  w.Close,
		Process:         models.ProcessFacility,
		Synthetic:       true,
	})
}
