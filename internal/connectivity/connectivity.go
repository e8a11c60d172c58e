// Package connectivity decides whether the remote ledger is worth calling.
package connectivity

import (
	"context"
	"net"
	"sync"
	"time"

	"timeclock/internal/events"

	"github.com/rs/zerolog"
)

// DefaultHosts are dialed in order; one success means online.
var DefaultHosts = []string{"www.google.com:80", "8.8.8.8:53"}

const DefaultTimeout = 3 * time.Second

// Prober reports whether the network is reachable.
type Prober interface {
	Online(ctx context.Context) bool
}

// Probe dials TCP hosts with a short timeout.
type Probe struct {
	Hosts   []string
	Timeout time.Duration
	dialer  func(ctx context.Context, network, address string) (net.Conn, error)
}

func NewProbe(hosts []string, timeout time.Duration) *Probe {
	if len(hosts) == 0 {
		hosts = DefaultHosts
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	d := &net.Dialer{Timeout: timeout}
	return &Probe{Hosts: hosts, Timeout: timeout, dialer: d.DialContext}
}

func (p *Probe) Online(ctx context.Context) bool {
	for _, host := range p.Hosts {
		dctx, cancel := context.WithTimeout(ctx, p.Timeout)
		conn, err := p.dialer(dctx, "tcp", host)
		cancel()
		if err == nil {
			_ = conn.Close()
			return true
		}
	}
	return false
}

// Static is a Prober with a fixed answer.
type Static bool

func (s Static) Online(context.Context) bool { return bool(s) }

// Monitor polls a Prober and publishes transitions on the event bus.
type Monitor struct {
	prober Prober
	bus    *events.EventBus
	logger *zerolog.Logger

	mu     sync.Mutex
	online bool
	known  bool
}

func NewMonitor(prober Prober, bus *events.EventBus, logger *zerolog.Logger) *Monitor {
	return &Monitor{prober: prober, bus: bus, logger: logger}
}

// Online probes once and records the result.
func (m *Monitor) Online(ctx context.Context) bool {
	online := m.prober.Online(ctx)
	m.record(online)
	return online
}

// MarkOffline records a failed remote call so the next successful probe
// counts as a restoration.
func (m *Monitor) MarkOffline() {
	m.record(false)
}

func (m *Monitor) record(online bool) {
	m.mu.Lock()
	changed := !m.known || m.online != online
	wasKnown := m.known
	m.online, m.known = online, true
	m.mu.Unlock()

	if !changed {
		return
	}
	if online {
		if wasKnown {
			m.logger.Info().Msg("connectivity restored")
			if err := m.bus.Publish(events.NewEvent(events.TypeConnectivityRestored, nil)); err != nil {
				m.logger.Error().Err(err).Msg("connectivity restored handler failed")
			}
		}
		return
	}
	m.logger.Warn().Msg("connectivity lost")
	_ = m.bus.Publish(events.NewEvent(events.TypeConnectivityLost, nil))
}

// Start probes every interval until ctx is done.
func (m *Monitor) Start(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	m.Online(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.Online(ctx)
		}
	}
}
