package storage

import (
	"fmt"
	"sync"
	"time"

	"timeclock/internal/metrics"
	"timeclock/internal/models"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

type queueFile struct {
	PendingSubmissions []models.PendingSubmission `json:"pending_submissions"`
}

// Queue is the durable offline queue. Entries keep insertion order.
type Queue struct {
	path   string
	mu     sync.Mutex
	items  []models.PendingSubmission
	logger *zerolog.Logger
}

// OpenQueue loads the queue file. A corrupt file is moved aside and
// reported as an error so queued work is never silently dropped.
func OpenQueue(path string, logger *zerolog.Logger) (*Queue, error) {
	var f queueFile
	if _, err := readJSON(path, &f); err != nil {
		return nil, err
	}
	q := &Queue{path: path, items: f.PendingSubmissions, logger: logger}
	metrics.SetQueuePending(len(q.items))
	if len(q.items) > 0 {
		logger.Info().Int("pending", len(q.items)).Str("path", path).Msg("offline queue loaded")
	}
	return q, nil
}

// Enqueue stores event durably and returns the queued entry.
func (q *Queue) Enqueue(event models.WorkEvent, queuedAt time.Time) (models.PendingSubmission, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	p := models.PendingSubmission{
		WorkEvent: event,
		PendingID: uuid.NewString(),
		QueuedAt:  queuedAt,
	}
	items := append(append([]models.PendingSubmission(nil), q.items...), p)
	if err := writeJSON(q.path, queueFile{PendingSubmissions: items}); err != nil {
		return models.PendingSubmission{}, fmt.Errorf("enqueue: %w", err)
	}
	q.items = items
	metrics.SetQueuePending(len(q.items))

	q.logger.Info().
		Str("pending_id", p.PendingID).
		Str("subject_id", event.SubjectID).
		Str("order_id", event.OrderID).
		Msg("submission queued for sync")
	return p, nil
}

// Pending returns a copy of the queue in order.
func (q *Queue) Pending() []models.PendingSubmission {
	q.mu.Lock()
	defer q.mu.Unlock()
	return append([]models.PendingSubmission(nil), q.items...)
}

func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// Remove deletes the entry with id. Removing an unknown id is a no-op.
func (q *Queue) Remove(id string) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	items := make([]models.PendingSubmission, 0, len(q.items))
	for _, p := range q.items {
		if p.PendingID != id {
			items = append(items, p)
		}
	}
	if len(items) == len(q.items) {
		return nil
	}
	if err := writeJSON(q.path, queueFile{PendingSubmissions: items}); err != nil {
		return fmt.Errorf("remove %s: %w", id, err)
	}
	q.items = items
	metrics.SetQueuePending(len(q.items))
	return nil
}
