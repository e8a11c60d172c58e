package service

import (
	"context"

	"timeclock/internal/accounting"
	"timeclock/internal/clock"
	"timeclock/internal/models"
)

// DayReport is a subject's day so far with its schedule comparison.
type DayReport struct {
	models.DaySummary
	Analysis accounting.ShiftAnalysis `json:"analysis"`
}

// Today summarizes the subject's records on the current date from the
// local history, so queued records are included before they sync.
func (s *Submitter) Today(ctx context.Context, subjectID string) (DayReport, error) {
	now := s.deps.Clock.Now()
	summary, err := s.deps.History.DaySummary(ctx, models.NormalizeCode(subjectID), now)
	if err != nil {
		return DayReport{}, err
	}

	entry, exit := clock.Invalid, clock.Invalid
	for _, r := range summary.Records {
		if !entry.Valid() || (r.IntervalStart.Valid() && r.IntervalStart < entry) {
			entry = r.IntervalStart
		}
		if r.IntervalEnd > exit {
			exit = r.IntervalEnd
		}
	}

	return DayReport{
		DaySummary: summary,
		Analysis:   accounting.AnalyzeShift(s.Rules().Schedules, clock.DateOf(now), entry, exit, summary.TotalHours),
	}, nil
}
