package accounting

import (
	"context"
	"errors"
	"fmt"
	"time"

	"timeclock/internal/metrics"
	"timeclock/internal/models"

	"github.com/rs/zerolog"
)

// ErrHistoryUnavailable is returned under PolicyFailClosed when no history source answers.
var ErrHistoryUnavailable = errors.New("event history unavailable")

// EventFinder returns a subject's events for a date, in the order they were recorded.
type EventFinder interface {
	FindEvents(ctx context.Context, subjectID string, date time.Time) ([]models.WorkEvent, error)
}

// history queries the ledger and applies the configured policy on failure.
type history struct {
	component string
	policy    Policy
	remote    EventFinder
	local     EventFinder
	logger    *zerolog.Logger
}

// events returns the subject's events and whether the answer is a fail-open default.
func (h history) events(ctx context.Context, subjectID string, date time.Time) ([]models.WorkEvent, bool, error) {
	events, err := h.remote.FindEvents(ctx, subjectID, date)
	if err == nil {
		return events, false, nil
	}

	switch h.policy {
	case PolicyFailClosed:
		h.logger.Warn().Err(err).
			Str("component", h.component).
			Str("subject_id", subjectID).
			Msg("ledger history unavailable, rejecting")
		return nil, false, fmt.Errorf("%s: %w: %v", h.component, ErrHistoryUnavailable, err)
	case PolicyLocalHistory:
		if h.local != nil {
			local, lerr := h.local.FindEvents(ctx, subjectID, date)
			if lerr == nil {
				h.logger.Info().Err(err).
					Str("component", h.component).
					Str("subject_id", subjectID).
					Int("events", len(local)).
					Msg("ledger history unavailable, using local history")
				return local, false, nil
			}
			err = errors.Join(err, lerr)
		}
	}

	h.logger.Warn().Err(err).
		Bool("fail_open", true).
		Str("component", h.component).
		Str("subject_id", subjectID).
		Str("date", date.Format("2006-01-02")).
		Msg("ledger history unavailable, assuming no events today")
	metrics.IncFailOpen(h.component)
	return nil, true, nil
}
