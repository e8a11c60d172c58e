package clock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		in   string
		want TimeOfDay
		ok   bool
	}{
		{"07:00", At(7, 0, 0), true},
		{"7:00", At(7, 0, 0), true},
		{"16:25:30", At(16, 25, 30), true},
		{" 09:10 ", At(9, 10, 0), true},
		{"4:30 PM", At(16, 30, 0), true},
		{"", Invalid, false},
		{"25:00", Invalid, false},
		{"later", Invalid, false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := Parse(tt.in)
			if !tt.ok {
				assert.Error(t, err)
				assert.False(t, got.Valid())
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestTimeOfDayFormatting(t *testing.T) {
	tod := At(9, 5, 7)
	assert.Equal(t, "09:05:07", tod.String())
	assert.Equal(t, "09:05", tod.HHMM())
	assert.Equal(t, "", Invalid.String())

	text, err := tod.MarshalText()
	require.NoError(t, err)

	var back TimeOfDay
	require.NoError(t, back.UnmarshalText(text))
	assert.Equal(t, tod, back)

	require.NoError(t, back.UnmarshalText([]byte("")))
	assert.Equal(t, Invalid, back)
}

func TestTimeOfDayOn(t *testing.T) {
	loc := Zone(-5)
	day := time.Date(2026, 10, 19, 13, 0, 0, 0, loc)
	got := At(10, 0, 0).On(day)
	assert.Equal(t, time.Date(2026, 10, 19, 10, 0, 0, 0, loc), got)
	assert.Equal(t, 90*time.Minute, At(11, 30, 0).Sub(At(10, 0, 0)))
}

func TestCutoffs(t *testing.T) {
	loc := Zone(-5)
	c := DefaultCutoffs()

	monday := time.Date(2026, 10, 19, 17, 45, 0, 0, loc)
	friday := time.Date(2026, 10, 23, 15, 45, 0, 0, loc)
	early := time.Date(2026, 10, 19, 10, 15, 0, 0, loc)

	assert.Equal(t, At(16, 30, 0), c.For(monday))
	assert.Equal(t, At(15, 30, 0), c.For(friday))

	assert.Equal(t, At(16, 30, 0), c.Clamp(monday))
	assert.Equal(t, At(15, 30, 0), c.Clamp(friday))
	assert.Equal(t, At(10, 15, 0), c.Clamp(early))
}

func TestBucketOf(t *testing.T) {
	assert.Equal(t, BucketMonThu, BucketOf(time.Monday))
	assert.Equal(t, BucketMonThu, BucketOf(time.Thursday))
	assert.Equal(t, BucketFriday, BucketOf(time.Friday))
	assert.Equal(t, BucketSaturday, BucketOf(time.Saturday))
	assert.Equal(t, BucketNone, BucketOf(time.Sunday))
}

func TestFixedClock(t *testing.T) {
	start := time.Date(2026, 10, 19, 8, 0, 0, 0, Zone(-5))
	c := NewFixed(start)
	c.Advance(10 * time.Second)
	assert.Equal(t, start.Add(10*time.Second), c.Now())
	assert.True(t, SameDate(start, c.Now()))
	assert.Equal(t, time.Date(2026, 10, 19, 0, 0, 0, 0, start.Location()), DateOf(c.Now()))
}

func TestSystemClockZone(t *testing.T) {
	s := NewSystem(-5)
	_, offset := s.Now().Zone()
	assert.Equal(t, -5*3600, offset)
	assert.Equal(t, "UTC-5", s.Location().String())
}
