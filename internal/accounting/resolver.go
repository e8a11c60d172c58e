package accounting

import (
	"context"
	"time"

	"timeclock/internal/clock"

	"github.com/rs/zerolog"
)

// Resolution is the interval a new event covers.
type Resolution struct {
	Start clock.TimeOfDay
	End   clock.TimeOfDay
	// FirstOfDay is set when the interval starts at the daily start time.
	FirstOfDay bool
	// FailedOpen is set when the ledger could not be read and the default was assumed.
	FailedOpen bool
	// Empty is set when Start is not before End; the interval is worth zero hours.
	Empty bool
}

// Resolver finds where a new interval begins.
type Resolver struct {
	rules   Rules
	history history
	logger  *zerolog.Logger
}

// NewResolver builds a resolver over the ledger. local is only consulted
// under PolicyLocalHistory and may be nil.
func NewResolver(rules Rules, remote, local EventFinder, logger *zerolog.Logger) *Resolver {
	return &Resolver{
		rules: rules,
		history: history{
			component: "resolver",
			policy:    rules.ResolverPolicy,
			remote:    remote,
			local:     local,
			logger:    logger,
		},
		logger: logger,
	}
}

// Resolve chains the new interval from the subject's last event today, or
// from the daily start when there is none. Both ends are clamped to the cutoff.
func (r *Resolver) Resolve(ctx context.Context, subjectID string, now time.Time) (Resolution, error) {
	date := clock.DateOf(now)
	cutoff := r.rules.Cutoffs.For(date)

	res := Resolution{
		Start:      r.rules.DayStart,
		End:        r.rules.AccountingNow(now),
		FirstOfDay: true,
	}

	events, failedOpen, err := r.history.events(ctx, subjectID, date)
	if err != nil {
		return Resolution{}, err
	}
	res.FailedOpen = failedOpen

	if len(events) > 0 {
		last := events[len(events)-1]
		if last.ExactTimestamp.Valid() {
			res.Start = clock.Min(last.ExactTimestamp, cutoff)
			res.FirstOfDay = false
		} else {
			r.logger.Warn().
				Str("subject_id", subjectID).
				Str("date", date.Format("2006-01-02")).
				Msg("malformed exact timestamp on last event, using daily start")
		}
	}

	if res.Start >= res.End {
		res.Empty = true
		r.logger.Warn().
			Str("subject_id", subjectID).
			Str("start", res.Start.String()).
			Str("end", res.End.String()).
			Msg("interval start is not before end, worked hours forced to zero")
	}
	return res, nil
}
