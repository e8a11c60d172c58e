package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"timeclock/internal/events"
	"timeclock/internal/metrics"
)

// SyncReport counts the outcome of one replay of the offline queue.
type SyncReport struct {
	Synchronized int  `json:"synchronized"`
	Failed       int  `json:"failed"`
	StillPending int  `json:"still_pending"`
	Offline      bool `json:"offline,omitempty"`
}

// Sweeper replays the offline queue against the ledger.
type Sweeper struct {
	deps Deps
	mu   sync.Mutex
}

func NewSweeper(deps Deps) *Sweeper {
	return &Sweeper{deps: deps}
}

// Sweep appends every queued record in queue order. Successes are removed
// from the queue one at a time; failures stay queued and the sweep moves on.
// Concurrent calls are serialized.
func (s *Sweeper) Sweep(ctx context.Context) (SyncReport, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	log := s.deps.Logger
	pending := s.deps.Queue.Pending()
	if len(pending) == 0 {
		return SyncReport{}, nil
	}
	if !s.deps.online(ctx) {
		log.Info().Int("pending", len(pending)).Msg("offline, sync skipped")
		return SyncReport{StillPending: len(pending), Offline: true}, nil
	}

	var report SyncReport
	for _, p := range pending {
		if err := ctx.Err(); err != nil {
			break
		}
		if err := s.deps.Ledger.Append(ctx, p.WorkEvent); err != nil {
			report.Failed++
			log.Warn().Err(err).Str("pending_id", p.PendingID).Msg("queued record not synchronized")
			continue
		}
		if err := s.deps.Queue.Remove(p.PendingID); err != nil {
			// The record is in the ledger but still queued; the next sweep appends it again.
			report.Synchronized++
			report.StillPending = s.deps.Queue.Len()
			s.record(report)
			return report, fmt.Errorf("remove synchronized record %s: %w", p.PendingID, err)
		}
		report.Synchronized++
		if s.deps.History != nil {
			if err := s.deps.History.MarkSynced(ctx, p.PendingID); err != nil {
				log.Error().Err(err).Str("pending_id", p.PendingID).Msg("local history not marked synced")
			}
		}
	}
	report.StillPending = s.deps.Queue.Len()
	s.record(report)
	return report, nil
}

func (s *Sweeper) record(report SyncReport) {
	metrics.AddSync("synchronized", report.Synchronized)
	metrics.AddSync("failed", report.Failed)
	if report.Failed > 0 {
		s.deps.markOffline()
	}
	s.deps.Logger.Info().
		Int("synchronized", report.Synchronized).
		Int("failed", report.Failed).
		Int("still_pending", report.StillPending).
		Msg("offline queue swept")
	s.deps.publish(events.TypeQueueSynced, report)
}

// Subscribe sweeps in the background whenever connectivity is restored.
func (s *Sweeper) Subscribe(ctx context.Context, bus *events.EventBus) {
	bus.Subscribe(events.TypeConnectivityRestored, func(events.Event) error {
		go s.sweepAndLog(ctx)
		return nil
	})
}

// Start sweeps every interval until ctx is done.
func (s *Sweeper) Start(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.sweepAndLog(ctx)
		}
	}
}

func (s *Sweeper) sweepAndLog(ctx context.Context) {
	if _, err := s.Sweep(ctx); err != nil {
		s.deps.Logger.Error().Err(err).Msg("sync failed")
	}
}
