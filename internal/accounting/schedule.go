package accounting

import (
	"time"

	"timeclock/internal/clock"

	"github.com/shopspring/decimal"
)

// Schedule is the nominal shift of a weekday bucket.
type Schedule struct {
	Start          clock.TimeOfDay
	End            clock.TimeOfDay
	NominalHours   decimal.Decimal
	EntryTolerance time.Duration
	ExitTolerance  time.Duration
}

func DefaultSchedules() map[clock.Bucket]Schedule {
	tol := 15 * time.Minute
	return map[clock.Bucket]Schedule{
		clock.BucketMonThu: {
			Start: clock.At(7, 0, 0), End: clock.At(16, 30, 0),
			NominalHours: decimal.RequireFromString("8.5"), EntryTolerance: tol, ExitTolerance: tol,
		},
		clock.BucketFriday: {
			Start: clock.At(7, 0, 0), End: clock.At(15, 30, 0),
			NominalHours: decimal.RequireFromString("7.5"), EntryTolerance: tol, ExitTolerance: tol,
		},
		clock.BucketSaturday: {
			Start: clock.At(7, 0, 0), End: clock.At(12, 0, 0),
			NominalHours: decimal.NewFromInt(5), EntryTolerance: tol, ExitTolerance: tol,
		},
	}
}

// ShiftAnalysis compares a worked day against its schedule.
type ShiftAnalysis struct {
	Bucket       clock.Bucket    `json:"bucket"`
	Scheduled    bool            `json:"scheduled"`
	Late         bool            `json:"late"`
	LateBy       time.Duration   `json:"late_by"`
	EarlyExit    bool            `json:"early_exit"`
	EarlyBy      time.Duration   `json:"early_by"`
	Overtime     bool            `json:"overtime"`
	OvertimeBy   time.Duration   `json:"overtime_by"`
	WorkedHours  decimal.Decimal `json:"worked_hours"`
	NominalHours decimal.Decimal `json:"nominal_hours"`
	Balance      decimal.Decimal `json:"balance"`
}

// AnalyzeShift classifies the first entry and last exit of a day against the
// bucket schedule for date. Deviations inside the tolerances are ignored.
func AnalyzeShift(schedules map[clock.Bucket]Schedule, date time.Time, entry, exit clock.TimeOfDay, worked decimal.Decimal) ShiftAnalysis {
	bucket := clock.BucketOf(date.Weekday())
	a := ShiftAnalysis{Bucket: bucket, WorkedHours: worked, NominalHours: decimal.Zero}

	s, ok := schedules[bucket]
	if !ok {
		a.Balance = worked
		return a
	}
	a.Scheduled = true
	a.NominalHours = s.NominalHours
	a.Balance = worked.Sub(s.NominalHours)

	if entry.Valid() {
		if late := entry.Sub(s.Start); late > s.EntryTolerance {
			a.Late = true
			a.LateBy = late
		}
	}
	if exit.Valid() {
		if early := s.End.Sub(exit); early > s.ExitTolerance {
			a.EarlyExit = true
			a.EarlyBy = early
		}
		if over := exit.Sub(s.End); over > s.ExitTolerance {
			a.Overtime = true
			a.OvertimeBy = over
		}
	}
	return a
}
