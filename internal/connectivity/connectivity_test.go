package connectivity

import (
	"context"
	"io"
	"net"
	"sync/atomic"
	"testing"
	"time"

	"timeclock/internal/events"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discard() *zerolog.Logger {
	l := zerolog.New(io.Discard)
	return &l
}

func TestProbe_AnyHostReachable(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()
	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			_ = conn.Close()
		}
	}()

	closed, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	deadAddr := closed.Addr().String()
	require.NoError(t, closed.Close())

	p := NewProbe([]string{deadAddr, ln.Addr().String()}, time.Second)
	assert.True(t, p.Online(context.Background()))

	p = NewProbe([]string{deadAddr}, 200*time.Millisecond)
	assert.False(t, p.Online(context.Background()))
}

type toggle struct{ online atomic.Bool }

func (t *toggle) Online(context.Context) bool { return t.online.Load() }

func TestMonitor_PublishesRestoration(t *testing.T) {
	bus := events.NewEventBus()
	restored := 0
	lost := 0
	bus.Subscribe(events.TypeConnectivityRestored, func(events.Event) error {
		restored++
		return nil
	})
	bus.Subscribe(events.TypeConnectivityLost, func(events.Event) error {
		lost++
		return nil
	})

	p := &toggle{}
	p.online.Store(true)
	m := NewMonitor(p, bus, discard())
	ctx := context.Background()

	assert.True(t, m.Online(ctx))
	assert.Equal(t, 0, restored, "first observation is not a restoration")

	m.MarkOffline()
	assert.Equal(t, 1, lost)
	m.MarkOffline()
	assert.Equal(t, 1, lost)

	assert.True(t, m.Online(ctx))
	assert.Equal(t, 1, restored)
	assert.True(t, m.Online(ctx))
	assert.Equal(t, 1, restored)
}

func TestStatic(t *testing.T) {
	assert.True(t, Static(true).Online(context.Background()))
	assert.False(t, Static(false).Online(context.Background()))
}
