package accounting

import (
	"timeclock/internal/clock"

	"github.com/shopspring/decimal"
)

// HoursPrecision is the number of decimals kept in worked hours.
const HoursPrecision = 3

var secondsPerHour = decimal.NewFromInt(3600)

// Calculator computes net worked hours.
type Calculator struct {
	breaks BreakSchedule
}

func NewCalculator(breaks BreakSchedule) Calculator {
	return Calculator{breaks: breaks}
}

// Hours returns elapsed hours between entry and exit minus break overlap,
// rounded to HoursPrecision and never negative. An exit earlier than entry
// is an overnight shift. Invalid inputs yield zero.
func (c Calculator) Hours(entry, exit clock.TimeOfDay) decimal.Decimal {
	if !entry.Valid() || !exit.Valid() {
		return decimal.Zero
	}
	from, to := entry.Seconds(), exit.Seconds()
	if to < from {
		to += clock.SecondsPerDay
	}
	net := to - from - c.breaks.overlapSeconds(from, to)
	if net <= 0 {
		return decimal.Zero
	}
	return decimal.NewFromInt(int64(net)).Div(secondsPerHour).Round(HoursPrecision)
}
