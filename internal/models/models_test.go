package models

import (
	"encoding/json"
	"testing"
	"time"

	"timeclock/internal/clock"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLookupCache_Find(t *testing.T) {
	cache := LookupCache{
		Subjects:   []Subject{{Code: "1020304050", Name: "ANA TORRES"}},
		Activities: []Activity{{Code: "12", Label: "SOLDADURA"}},
		Orders:     []Order{{ID: "OP-123", Reference: "R-9", Client: "ACME"}},
	}

	t.Run("FindSubject", func(t *testing.T) {
		s, ok := cache.FindSubject(" 1020304050.0 ")
		assert.True(t, ok)
		assert.Equal(t, "ANA TORRES", s.Name)

		_, ok = cache.FindSubject("999")
		assert.False(t, ok)
	})

	t.Run("FindActivity", func(t *testing.T) {
		a, ok := cache.FindActivity("12")
		assert.True(t, ok)
		assert.Equal(t, "SOLDADURA", a.Label)
	})

	t.Run("FindOrderIgnoresCase", func(t *testing.T) {
		o, ok := cache.FindOrder("op-123")
		assert.True(t, ok)
		assert.Equal(t, "ACME", o.Client)
	})

	assert.False(t, cache.Empty())
	assert.True(t, LookupCache{}.Empty())
}

func TestScanRequest_Validate(t *testing.T) {
	got, err := ScanRequest{SubjectCode: " 1020 ", ActivityCode: "29", OrderCode: "123"}.Validate()
	require.NoError(t, err)
	assert.Equal(t, ScanRequest{SubjectCode: "1020", ActivityCode: "29", OrderCode: "123"}, got)

	_, err = ScanRequest{SubjectCode: "12", ActivityCode: "29", OrderCode: "123"}.Validate()
	assert.ErrorIs(t, err, ErrInvalidCode)

	_, err = ScanRequest{SubjectCode: "1020", ActivityCode: " ", OrderCode: "123"}.Validate()
	assert.ErrorIs(t, err, ErrInvalidCode)

	_, err = ScanRequest{SubjectCode: "1020", ActivityCode: "29"}.Validate()
	assert.ErrorIs(t, err, ErrInvalidCode)
}

func TestPendingSubmission_JSONIsFlat(t *testing.T) {
	loc := clock.Zone(-5)
	p := PendingSubmission{
		WorkEvent: WorkEvent{
			SubjectID:      "1020",
			Date:           time.Date(2026, 10, 19, 0, 0, 0, 0, loc),
			IntervalStart:  clock.At(7, 0, 0),
			IntervalEnd:    clock.At(10, 0, 0),
			ExactTimestamp: clock.At(10, 0, 0),
			WorkedHours:    decimal.RequireFromString("2.833"),
		},
		PendingID: "abc",
		QueuedAt:  time.Date(2026, 10, 19, 10, 0, 1, 0, loc),
	}

	data, err := json.Marshal(p)
	require.NoError(t, err)

	var raw map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.Equal(t, "abc", raw["pending_id"])
	assert.Equal(t, "1020", raw["subject_id"])
	assert.Equal(t, "07:00:00", raw["interval_start"])

	var back PendingSubmission
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, clock.At(10, 0, 0), back.ExactTimestamp)
	assert.True(t, back.WorkedHours.Equal(p.WorkedHours))
	assert.Equal(t, "2026-10-19", back.DateKey())
	assert.True(t, back.OnDate(p.Date))
}
