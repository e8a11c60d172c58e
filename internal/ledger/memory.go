package ledger

import (
	"context"
	"sync"
	"time"

	"timeclock/internal/models"
)

// Memory is an in-process ledger. SetFailure makes every call fail with
// ErrUnavailable until cleared.
type Memory struct {
	mu         sync.Mutex
	events     []models.WorkEvent
	subjects   []models.Subject
	activities []models.Activity
	orders     []models.Order
	failure    error
}

func NewMemory() *Memory {
	return &Memory{}
}

// Seed replaces the lookup tables.
func (m *Memory) Seed(subjects []models.Subject, activities []models.Activity, orders []models.Order) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.subjects = append([]models.Subject(nil), subjects...)
	m.activities = append([]models.Activity(nil), activities...)
	m.orders = append([]models.Order(nil), orders...)
}

// SetFailure makes calls fail; nil restores the ledger.
func (m *Memory) SetFailure(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failure = err
}

// Events returns every appended row.
func (m *Memory) Events() []models.WorkEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]models.WorkEvent(nil), m.events...)
}

func (m *Memory) check(op string) error {
	if m.failure != nil {
		return unavailable(op, m.failure)
	}
	return nil
}

func (m *Memory) FindEvents(_ context.Context, subjectID string, date time.Time) ([]models.WorkEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.check("find events"); err != nil {
		return nil, err
	}
	var out []models.WorkEvent
	for _, e := range m.events {
		if models.SameCode(e.SubjectID, subjectID) && e.OnDate(date) {
			out = append(out, e)
		}
	}
	return out, nil
}

func (m *Memory) Append(_ context.Context, event models.WorkEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.check("append"); err != nil {
		return err
	}
	m.events = append(m.events, event)
	return nil
}

func (m *Memory) Subjects(_ context.Context) ([]models.Subject, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.check("read subjects"); err != nil {
		return nil, err
	}
	return append([]models.Subject(nil), m.subjects...), nil
}

func (m *Memory) Activities(_ context.Context) ([]models.Activity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.check("read activities"); err != nil {
		return nil, err
	}
	return append([]models.Activity(nil), m.activities...), nil
}

func (m *Memory) Orders(_ context.Context) ([]models.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.check("read orders"); err != nil {
		return nil, err
	}
	return append([]models.Order(nil), m.orders...), nil
}
