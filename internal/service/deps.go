// Package service sequences a scan into ledger records and replays the
// offline queue.
package service

import (
	"context"
	"time"

	"timeclock/internal/accounting"
	"timeclock/internal/clock"
	"timeclock/internal/connectivity"
	"timeclock/internal/events"
	"timeclock/internal/ledger"
	"timeclock/internal/models"

	"github.com/rs/zerolog"
)

// Directory resolves scanned codes.
type Directory interface {
	Subject(ctx context.Context, code string) (models.Subject, error)
	Activity(ctx context.Context, code string) (models.Activity, error)
	Order(ctx context.Context, id string) (models.Order, error)
}

// Queue is the durable offline queue.
type Queue interface {
	Enqueue(event models.WorkEvent, queuedAt time.Time) (models.PendingSubmission, error)
	Pending() []models.PendingSubmission
	Remove(id string) error
	Len() int
}

// History is the local append-only mirror of produced records.
type History interface {
	accounting.EventFinder
	AppendEvent(ctx context.Context, e models.WorkEvent, pendingID string) error
	MarkSynced(ctx context.Context, pendingID string) error
	DaySummary(ctx context.Context, subjectID string, date time.Time) (models.DaySummary, error)
}

// offlineMarker is implemented by probers that track connectivity state.
type offlineMarker interface {
	MarkOffline()
}

// Deps are the collaborators of the submitter and the sweeper.
type Deps struct {
	Ledger    ledger.Gateway
	Directory Directory
	Queue     Queue
	History   History
	Prober    connectivity.Prober
	Bus       *events.EventBus
	Clock     clock.Clock
	Logger    *zerolog.Logger
}

func (d Deps) online(ctx context.Context) bool {
	if d.Prober == nil {
		return true
	}
	return d.Prober.Online(ctx)
}

func (d Deps) markOffline() {
	if m, ok := d.Prober.(offlineMarker); ok {
		m.MarkOffline()
	}
}

func (d Deps) publish(eventType string, payload any) {
	if err := d.Bus.Publish(events.NewEvent(eventType, payload)); err != nil {
		d.Logger.Error().Err(err).Str("event", eventType).Msg("event handler failed")
	}
}
