// Package ledger is the gateway to the shared append-only ledger of work
// events and its lookup tables.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"timeclock/internal/models"
)

var (
	// ErrUnavailable wraps every transport, auth or quota failure. It is recoverable.
	ErrUnavailable = errors.New("ledger unavailable")
	// ErrNotFound is returned when a lookup key has no row.
	ErrNotFound = errors.New("not found")
)

// Lookups reads the lookup tables. Each call returns the full current row set.
type Lookups interface {
	Subjects(ctx context.Context) ([]models.Subject, error)
	Activities(ctx context.Context) ([]models.Activity, error)
	Orders(ctx context.Context) ([]models.Order, error)
}

// Gateway is the ledger contract the accounting core depends on.
type Gateway interface {
	Lookups
	// FindEvents returns the subject's events on date in ledger order.
	FindEvents(ctx context.Context, subjectID string, date time.Time) ([]models.WorkEvent, error)
	// Append inserts one row atomically.
	Append(ctx context.Context, event models.WorkEvent) error
}

// Worksheets names the tabs of the ledger workbook.
type Worksheets struct {
	Events     string
	Subjects   string
	Activities string
	Orders     string
}

func DefaultWorksheets() Worksheets {
	return Worksheets{
		Events:     "Registros",
		Subjects:   "Datos_colab",
		Activities: "Servicio",
		Orders:     "OPS",
	}
}

// FindSubject looks a subject code up in the subjects table.
func FindSubject(ctx context.Context, l Lookups, code string) (models.Subject, error) {
	subjects, err := l.Subjects(ctx)
	if err != nil {
		return models.Subject{}, err
	}
	cache := models.LookupCache{Subjects: subjects}
	if s, ok := cache.FindSubject(code); ok {
		return s, nil
	}
	return models.Subject{}, fmt.Errorf("subject %s: %w", code, ErrNotFound)
}

// FindActivity looks an activity code up in the activities table.
func FindActivity(ctx context.Context, l Lookups, code string) (models.Activity, error) {
	activities, err := l.Activities(ctx)
	if err != nil {
		return models.Activity{}, err
	}
	cache := models.LookupCache{Activities: activities}
	if a, ok := cache.FindActivity(code); ok {
		return a, nil
	}
	return models.Activity{}, fmt.Errorf("activity %s: %w", code, ErrNotFound)
}

// FindOrder looks an order id up in the orders table.
func FindOrder(ctx context.Context, l Lookups, id string) (models.Order, error) {
	orders, err := l.Orders(ctx)
	if err != nil {
		return models.Order{}, err
	}
	cache := models.LookupCache{Orders: orders}
	if o, ok := cache.FindOrder(id); ok {
		return o, nil
	}
	return models.Order{}, fmt.Errorf("order %s: %w", id, ErrNotFound)
}

func unavailable(op string, err error) error {
	return fmt.Errorf("%w: %s: %v", ErrUnavailable, op, err)
}
