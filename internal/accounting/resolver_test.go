package accounting

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"timeclock/internal/clock"
	"timeclock/internal/models"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeFinder struct {
	events []models.WorkEvent
	err    error
	calls  int
}

func (f *fakeFinder) FindEvents(_ context.Context, _ string, _ time.Time) ([]models.WorkEvent, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.events, nil
}

var loc = clock.Zone(-5)

func monday(h, m, s int) time.Time {
	return time.Date(2026, 10, 19, h, m, s, 0, loc)
}

func eventAt(ts clock.TimeOfDay) models.WorkEvent {
	return models.WorkEvent{SubjectID: "1020", Date: monday(0, 0, 0), ExactTimestamp: ts}
}

func discard() *zerolog.Logger {
	l := zerolog.New(io.Discard)
	return &l
}

func TestResolver_FirstEventOfDay(t *testing.T) {
	r := NewResolver(DefaultRules(), &fakeFinder{}, nil, discard())

	res, err := r.Resolve(context.Background(), "1020", monday(9, 45, 0))
	require.NoError(t, err)
	assert.Equal(t, clock.At(7, 0, 0), res.Start)
	assert.Equal(t, clock.At(9, 45, 0), res.End)
	assert.True(t, res.FirstOfDay)
	assert.False(t, res.Empty)
}

func TestResolver_ChainsFromLastEvent(t *testing.T) {
	finder := &fakeFinder{events: []models.WorkEvent{
		eventAt(clock.At(8, 0, 0)),
		eventAt(clock.At(10, 0, 0)),
	}}
	rules := DefaultRules()
	r := NewResolver(rules, finder, nil, discard())

	res, err := r.Resolve(context.Background(), "1020", monday(11, 30, 0))
	require.NoError(t, err)
	assert.Equal(t, clock.At(10, 0, 0), res.Start)
	assert.Equal(t, clock.At(11, 30, 0), res.End)
	assert.False(t, res.FirstOfDay)

	calc := NewCalculator(NewBreakSchedule(rules.Breaks))
	assertHours(t, "1.5", calc.Hours(res.Start, res.End))
}

func TestResolver_ClampsToCutoff(t *testing.T) {
	finder := &fakeFinder{events: []models.WorkEvent{eventAt(clock.At(18, 0, 0))}}
	r := NewResolver(DefaultRules(), finder, nil, discard())

	res, err := r.Resolve(context.Background(), "1020", monday(19, 0, 0))
	require.NoError(t, err)
	assert.Equal(t, clock.At(16, 30, 0), res.Start)
	assert.Equal(t, clock.At(16, 30, 0), res.End)
	assert.True(t, res.Empty)
}

func TestResolver_MalformedTimestampUsesDailyStart(t *testing.T) {
	finder := &fakeFinder{events: []models.WorkEvent{eventAt(clock.Invalid)}}
	r := NewResolver(DefaultRules(), finder, nil, discard())

	res, err := r.Resolve(context.Background(), "1020", monday(8, 0, 0))
	require.NoError(t, err)
	assert.Equal(t, clock.At(7, 0, 0), res.Start)
	assert.True(t, res.FirstOfDay)
}

func TestResolver_BeforeDailyStartIsEmpty(t *testing.T) {
	r := NewResolver(DefaultRules(), &fakeFinder{}, nil, discard())

	res, err := r.Resolve(context.Background(), "1020", monday(6, 40, 0))
	require.NoError(t, err)
	assert.True(t, res.Empty)
}

func TestResolver_Policies(t *testing.T) {
	down := &fakeFinder{err: errors.New("dial tcp: i/o timeout")}
	local := &fakeFinder{events: []models.WorkEvent{eventAt(clock.At(9, 30, 0))}}

	t.Run("FailOpen", func(t *testing.T) {
		r := NewResolver(DefaultRules(), down, local, discard())
		res, err := r.Resolve(context.Background(), "1020", monday(10, 0, 0))
		require.NoError(t, err)
		assert.True(t, res.FailedOpen)
		assert.Equal(t, clock.At(7, 0, 0), res.Start)
		assert.Equal(t, 0, local.calls)
	})

	t.Run("LocalHistory", func(t *testing.T) {
		rules := DefaultRules()
		rules.ResolverPolicy = PolicyLocalHistory
		r := NewResolver(rules, down, local, discard())
		res, err := r.Resolve(context.Background(), "1020", monday(10, 0, 0))
		require.NoError(t, err)
		assert.False(t, res.FailedOpen)
		assert.Equal(t, clock.At(9, 30, 0), res.Start)
	})

	t.Run("LocalHistoryAlsoDown", func(t *testing.T) {
		rules := DefaultRules()
		rules.ResolverPolicy = PolicyLocalHistory
		r := NewResolver(rules, down, &fakeFinder{err: errors.New("disk")}, discard())
		res, err := r.Resolve(context.Background(), "1020", monday(10, 0, 0))
		require.NoError(t, err)
		assert.True(t, res.FailedOpen)
		assert.Equal(t, clock.At(7, 0, 0), res.Start)
	})

	t.Run("FailClosed", func(t *testing.T) {
		rules := DefaultRules()
		rules.ResolverPolicy = PolicyFailClosed
		r := NewResolver(rules, down, local, discard())
		_, err := r.Resolve(context.Background(), "1020", monday(10, 0, 0))
		assert.ErrorIs(t, err, ErrHistoryUnavailable)
	})
}

func TestParsePolicy(t *testing.T) {
	p, err := ParsePolicy("")
	require.NoError(t, err)
	assert.Equal(t, PolicyFailOpen, p)

	p, err = ParsePolicy("local_history")
	require.NoError(t, err)
	assert.Equal(t, PolicyLocalHistory, p)

	_, err = ParsePolicy("maybe")
	assert.Error(t, err)
}
