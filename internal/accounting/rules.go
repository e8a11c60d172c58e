package accounting

import (
	"fmt"
	"time"

	"timeclock/internal/clock"
)

// Policy decides what happens when the ledger cannot answer a history query.
type Policy string

const (
	// PolicyFailOpen treats the subject as having no events today.
	PolicyFailOpen Policy = "fail_open"
	// PolicyLocalHistory consults the local history mirror, then fails open.
	PolicyLocalHistory Policy = "local_history"
	// PolicyFailClosed rejects the submission.
	PolicyFailClosed Policy = "fail_closed"
)

// ParsePolicy accepts the configuration spelling of a policy. Empty means fail open.
func ParsePolicy(s string) (Policy, error) {
	switch Policy(s) {
	case "", PolicyFailOpen:
		return PolicyFailOpen, nil
	case PolicyLocalHistory, PolicyFailClosed:
		return Policy(s), nil
	default:
		return "", fmt.Errorf("unknown history policy %q", s)
	}
}

// Rules is the business policy the accounting engine runs with.
type Rules struct {
	DayStart       clock.TimeOfDay
	Cutoffs        clock.Cutoffs
	Breaks         []Window
	Schedules      map[clock.Bucket]Schedule
	Facility       FacilityConfig
	Cooldown       time.Duration
	GuardPolicy    Policy
	ResolverPolicy Policy
}

// DefaultRules mirrors the shop's standard working day.
func DefaultRules() Rules {
	return Rules{
		DayStart:       clock.At(7, 0, 0),
		Cutoffs:        clock.DefaultCutoffs(),
		Breaks:         DefaultBreaks(),
		Schedules:      DefaultSchedules(),
		Facility:       DefaultFacility(),
		Cooldown:       60 * time.Second,
		GuardPolicy:    PolicyFailOpen,
		ResolverPolicy: PolicyFailOpen,
	}
}

// AccountingNow is the wall-clock part of now clamped to the day's cutoff.
func (r Rules) AccountingNow(now time.Time) clock.TimeOfDay {
	return r.Cutoffs.Clamp(now)
}
