package accounting

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"timeclock/internal/clock"

	"github.com/rs/zerolog"
)

// ErrCooldownActive matches every *CooldownError.
var ErrCooldownActive = errors.New("cooldown active")

// CooldownError rejects a scan that came too soon after the previous one.
type CooldownError struct {
	Remaining time.Duration
}

func (e *CooldownError) Error() string {
	return fmt.Sprintf("cooldown active: wait %d seconds", e.Seconds())
}

func (e *CooldownError) Is(target error) bool {
	return target == ErrCooldownActive
}

// Seconds returns the remaining wait rounded up to whole seconds.
func (e *CooldownError) Seconds() int {
	return int(math.Ceil(e.Remaining.Seconds()))
}

// Guard rejects double scans from the same subject.
type Guard struct {
	rules   Rules
	history history
	logger  *zerolog.Logger
}

// NewGuard builds a guard over the ledger. local is only consulted under
// PolicyLocalHistory and may be nil.
func NewGuard(rules Rules, remote, local EventFinder, logger *zerolog.Logger) *Guard {
	return &Guard{
		rules: rules,
		history: history{
			component: "guard",
			policy:    rules.GuardPolicy,
			remote:    remote,
			local:     local,
			logger:    logger,
		},
		logger: logger,
	}
}

// Check returns a *CooldownError when the subject's last event today is
// closer to now than the cooldown. Elapsed time is measured on the real
// wall clock, not the cutoff-clamped one, so scans after the cutoff are
// still accepted. A tail event closing after now blocks the subject until
// the cooldown after its close has passed.
func (g *Guard) Check(ctx context.Context, subjectID string, now time.Time) error {
	if g.rules.Cooldown <= 0 {
		return nil
	}
	date := clock.DateOf(now)

	events, failedOpen, err := g.history.events(ctx, subjectID, date)
	if err != nil {
		return err
	}
	if failedOpen || len(events) == 0 {
		return nil
	}

	last := events[len(events)-1]
	if !last.ExactTimestamp.Valid() {
		return nil
	}

	elapsed := clock.FromTime(now).Sub(last.ExactTimestamp)
	if elapsed >= g.rules.Cooldown {
		return nil
	}

	remaining := g.rules.Cooldown - elapsed
	g.logger.Info().
		Str("subject_id", subjectID).
		Str("last", last.ExactTimestamp.String()).
		Dur("remaining", remaining).
		Msg("scan rejected by cooldown")
	return &CooldownError{Remaining: remaining}
}
