package models

import (
	"time"

	"timeclock/internal/clock"

	"github.com/shopspring/decimal"
)

// Process labels written to the ledger.
const (
	ProcessProduction = "PRODUCCION"
	ProcessFacility   = "PRODUCCIÓN"
)

// NotAvailable fills descriptive columns that have no value.
const NotAvailable = "N/A"

// NotFound is the placeholder used when an activity or order is not in any lookup table.
const NotFound = "NO ENCONTRADO"

// WorkEvent is one ledger row. It is never modified after it is built.
type WorkEvent struct {
	SubjectID       string          `json:"subject_id"`
	SubjectName     string          `json:"subject_name"`
	Date            time.Time       `json:"date"`
	ActivityCode    string          `json:"activity_code"`
	ActivityLabel   string          `json:"activity_label"`
	OrderID         string          `json:"order_id"`
	Client          string          `json:"client"`
	Reference       string          `json:"reference"`
	ItemDescription string          `json:"item_description"`
	Quantities      string          `json:"quantities"`
	IntervalStart   clock.TimeOfDay `json:"interval_start"`
	IntervalEnd     clock.TimeOfDay `json:"interval_end"`
	WorkedHours     decimal.Decimal `json:"worked_hours"`
	ExactTimestamp  clock.TimeOfDay `json:"exact_timestamp"`
	Process         string          `json:"process"`

	// Synthetic marks the auto-booked facility maintenance tail.
	Synthetic bool `json:"synthetic,omitempty"`
}

// DateKey returns the event date as YYYY-MM-DD.
func (e WorkEvent) DateKey() string {
	return e.Date.Format("2006-01-02")
}

// OnDate reports whether the event belongs to the calendar date of day.
func (e WorkEvent) OnDate(day time.Time) bool {
	return clock.SameDate(e.Date, day)
}

// PendingSubmission is a WorkEvent waiting in the offline queue.
type PendingSubmission struct {
	WorkEvent
	PendingID string    `json:"pending_id"`
	QueuedAt  time.Time `json:"queued_at"`
}

// DaySummary aggregates one subject's records for a date.
type DaySummary struct {
	SubjectID   string          `json:"subject_id"`
	SubjectName string          `json:"subject_name"`
	Date        string          `json:"date"`
	TotalHours  decimal.Decimal `json:"total_hours"`
	Records     []WorkEvent     `json:"records"`
	Pending     int             `json:"pending"`
}
