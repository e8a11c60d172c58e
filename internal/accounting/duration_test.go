package accounting

import (
	"testing"
	"time"

	"timeclock/internal/clock"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func assertHours(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	assert.True(t, decimal.RequireFromString(want).Equal(got), "want %s hours, got %s", want, got)
}

func TestBreakSchedule_Overlap(t *testing.T) {
	b := NewBreakSchedule(DefaultBreaks())
	at := clock.MustParse

	tests := []struct {
		name        string
		entry, exit string
		want        time.Duration
	}{
		{"full containment of morning break", "08:30", "09:30", 10 * time.Minute},
		{"exactly the morning break", "09:00", "09:10", 10 * time.Minute},
		{"partial overlap at start", "09:05", "09:30", 5 * time.Minute},
		{"partial overlap at end", "08:00", "09:04", 4 * time.Minute},
		{"ends at break start", "08:00", "09:00", 0},
		{"starts at break end", "09:10", "10:00", 0},
		{"both breaks", "07:00", "16:30", 40 * time.Minute},
		{"inside lunch", "12:40", "12:50", 10 * time.Minute},
		{"no overlap", "14:00", "15:00", 0},
		{"overnight crossing no break", "23:00", "01:00", 0},
		{"overnight crossing next morning break", "22:00", "09:05", 5 * time.Minute},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, b.Overlap(at(tt.entry), at(tt.exit)))
		})
	}
}

func TestBreakSchedule_IgnoresInvalidWindows(t *testing.T) {
	b := NewBreakSchedule([]Window{
		{Name: "backwards", Start: clock.At(10, 0, 0), End: clock.At(9, 0, 0)},
		{Name: "ok", Start: clock.At(9, 0, 0), End: clock.At(9, 10, 0)},
	})
	assert.Len(t, b.Windows(), 1)
	assert.Equal(t, 10*time.Minute, b.Windows()[0].Length())
}

func TestCalculator_Hours(t *testing.T) {
	calc := NewCalculator(NewBreakSchedule(DefaultBreaks()))
	at := clock.MustParse

	tests := []struct {
		name        string
		entry, exit string
		want        string
	}{
		{"overnight wraparound", "23:00", "01:00", "2"},
		{"full morning break deducted", "08:30", "09:30", "0.833"},
		{"partial morning break deducted", "09:05", "09:30", "0.333"},
		{"chained interval", "10:00", "11:30", "1.5"},
		{"full day", "07:00", "16:30", "8.833"},
		{"facility tail", "16:25", "16:30", "0.083"},
		{"same time", "10:00", "10:00", "0"},
		{"entirely inside a break", "12:35", "12:55", "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assertHours(t, tt.want, calc.Hours(at(tt.entry), at(tt.exit)))
		})
	}
}

func TestCalculator_InvalidInputs(t *testing.T) {
	calc := NewCalculator(NewBreakSchedule(DefaultBreaks()))
	assertHours(t, "0", calc.Hours(clock.Invalid, clock.At(10, 0, 0)))
	assertHours(t, "0", calc.Hours(clock.At(10, 0, 0), clock.Invalid))
}

func TestCalculator_NeverNegative(t *testing.T) {
	calc := NewCalculator(NewBreakSchedule(DefaultBreaks()))
	for entry := 0; entry < clock.SecondsPerDay; entry += 17 * 60 {
		for exit := 0; exit < clock.SecondsPerDay; exit += 23 * 60 {
			got := calc.Hours(clock.TimeOfDay(entry), clock.TimeOfDay(exit))
			assert.False(t, got.IsNegative(), "entry=%d exit=%d", entry, exit)
		}
	}
}
