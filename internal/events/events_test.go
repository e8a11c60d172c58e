package events

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventBus_PublishToSubscribers(t *testing.T) {
	bus := NewEventBus()
	var got []string
	bus.Subscribe(TypeSubmissionQueued, func(e Event) error {
		var payload struct {
			PendingID string `json:"pending_id"`
		}
		require.NoError(t, e.Decode(&payload))
		got = append(got, payload.PendingID)
		assert.False(t, e.CreatedAt.IsZero())
		return nil
	})
	bus.Subscribe(TypeConnectivityRestored, func(Event) error {
		t.Fatal("unexpected handler")
		return nil
	})

	err := bus.Publish(NewEvent(TypeSubmissionQueued, map[string]string{"pending_id": "abc"}))
	require.NoError(t, err)
	assert.Equal(t, []string{"abc"}, got)
}

func TestEventBus_AllHandlersRun(t *testing.T) {
	bus := NewEventBus()
	calls := 0
	bus.Subscribe(TypeConnectivityRestored, func(Event) error {
		calls++
		return errors.New("first")
	})
	bus.Subscribe(TypeConnectivityRestored, func(Event) error {
		calls++
		return errors.New("second")
	})

	err := bus.Publish(NewEvent(TypeConnectivityRestored, nil))
	assert.EqualError(t, err, "first")
	assert.Equal(t, 2, calls)
}

func TestEventBus_NilIsNoop(t *testing.T) {
	var bus *EventBus
	assert.NoError(t, bus.Publish(NewEvent(TypeQueueSynced, nil)))
}
