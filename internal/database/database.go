package database

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"timeclock/internal/clock"
	"timeclock/internal/models"

	_ "github.com/mattn/go-sqlite3" // sqlite3 driver
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// Record states of the local history mirror.
const (
	StateSynced  = "synced"
	StatePending = "pending"
)

const dateLayout = "2006-01-02"

// DB is the local append-only history mirror of every record this terminal produced.
type DB struct {
	*sql.DB
	path   string
	loc    *time.Location
	logger *zerolog.Logger
}

// NewDB opens the history database and creates its tables.
func NewDB(path string, loc *time.Location, logger *zerolog.Logger) (*DB, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	dsn := path + "?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000"
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if loc == nil {
		loc = clock.Zone(clock.DefaultOffsetHours)
	}
	instance := &DB{DB: db, path: path, loc: loc, logger: logger}
	if err := instance.createTables(); err != nil {
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	logger.Info().Str("path", path).Msg("History database initialized")
	return instance, nil
}

// Path returns the database file path.
func (db *DB) Path() string {
	return db.path
}

func (db *DB) createTables() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS work_events (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			subject_id TEXT NOT NULL,
			subject_name TEXT NOT NULL,
			date TEXT NOT NULL,
			activity_code TEXT NOT NULL,
			activity_label TEXT NOT NULL,
			order_id TEXT NOT NULL,
			client TEXT NOT NULL DEFAULT '',
			reference TEXT NOT NULL DEFAULT '',
			item_description TEXT NOT NULL DEFAULT '',
			quantities TEXT NOT NULL DEFAULT '',
			interval_start TEXT NOT NULL,
			interval_end TEXT NOT NULL,
			worked_hours TEXT NOT NULL,
			exact_timestamp TEXT NOT NULL,
			process TEXT NOT NULL,
			synthetic BOOLEAN NOT NULL DEFAULT 0,
			state TEXT NOT NULL DEFAULT 'synced',
			pending_id TEXT,
			recorded_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE INDEX IF NOT EXISTS idx_work_events_subject_date ON work_events(subject_id, date)`,
		`CREATE INDEX IF NOT EXISTS idx_work_events_pending ON work_events(pending_id)`,
	}

	for _, q := range queries {
		if _, err := db.Exec(q); err != nil {
			return err
		}
	}
	return nil
}

// AppendEvent mirrors one record. A non-empty pendingID marks it as waiting
// in the offline queue.
func (db *DB) AppendEvent(ctx context.Context, e models.WorkEvent, pendingID string) error {
	state := StateSynced
	var pid sql.NullString
	if pendingID != "" {
		state = StatePending
		pid = sql.NullString{String: pendingID, Valid: true}
	}

	_, err := db.ExecContext(ctx, `
		INSERT INTO work_events (
			subject_id, subject_name, date, activity_code, activity_label, order_id,
			client, reference, item_description, quantities, interval_start, interval_end,
			worked_hours, exact_timestamp, process, synthetic, state, pending_id
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		models.NormalizeCode(e.SubjectID), e.SubjectName, e.Date.Format(dateLayout),
		e.ActivityCode, e.ActivityLabel, e.OrderID,
		e.Client, e.Reference, e.ItemDescription, e.Quantities,
		e.IntervalStart.String(), e.IntervalEnd.String(),
		e.WorkedHours.String(), e.ExactTimestamp.String(), e.Process, e.Synthetic,
		state, pid,
	)
	if err != nil {
		return fmt.Errorf("append history: %w", err)
	}
	return nil
}

// MarkSynced flips the record of a replayed queue entry to synced.
func (db *DB) MarkSynced(ctx context.Context, pendingID string) error {
	_, err := db.ExecContext(ctx,
		`UPDATE work_events SET state = ? WHERE pending_id = ?`, StateSynced, pendingID)
	if err != nil {
		return fmt.Errorf("mark synced: %w", err)
	}
	return nil
}

// FindEvents returns the subject's mirrored records on date in insertion order.
func (db *DB) FindEvents(ctx context.Context, subjectID string, date time.Time) ([]models.WorkEvent, error) {
	events, _, err := db.events(ctx, subjectID, date)
	return events, err
}

func (db *DB) events(ctx context.Context, subjectID string, date time.Time) ([]models.WorkEvent, int, error) {
	return db.query(ctx, "subject_id = ? AND date = ?",
		models.NormalizeCode(subjectID), date.In(db.loc).Format(dateLayout))
}

func (db *DB) query(ctx context.Context, where string, args ...any) ([]models.WorkEvent, int, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT subject_id, subject_name, date, activity_code, activity_label, order_id,
			client, reference, item_description, quantities, interval_start, interval_end,
			worked_hours, exact_timestamp, process, synthetic, state
		FROM work_events
		WHERE `+where+`
		ORDER BY id`, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	var (
		events  []models.WorkEvent
		pending int
	)
	for rows.Next() {
		var (
			e                      models.WorkEvent
			day, start, end, exact string
			hours, state           string
		)
		if err := rows.Scan(
			&e.SubjectID, &e.SubjectName, &day, &e.ActivityCode, &e.ActivityLabel, &e.OrderID,
			&e.Client, &e.Reference, &e.ItemDescription, &e.Quantities, &start, &end,
			&hours, &exact, &e.Process, &e.Synthetic, &state,
		); err != nil {
			return nil, 0, fmt.Errorf("scan history: %w", err)
		}
		e.Date, err = time.ParseInLocation(dateLayout, day, db.loc)
		if err != nil {
			return nil, 0, fmt.Errorf("history date %q: %w", day, err)
		}
		e.IntervalStart = parseTime(start)
		e.IntervalEnd = parseTime(end)
		e.ExactTimestamp = parseTime(exact)
		e.WorkedHours, err = decimal.NewFromString(hours)
		if err != nil {
			db.logger.Warn().Str("hours", hours).Msg("unparsable hours in history")
			e.WorkedHours = decimal.Zero
		}
		if state == StatePending {
			pending++
		}
		events = append(events, e)
	}
	return events, pending, rows.Err()
}

// DaySummary totals the subject's records on date.
func (db *DB) DaySummary(ctx context.Context, subjectID string, date time.Time) (models.DaySummary, error) {
	events, pending, err := db.events(ctx, subjectID, date)
	if err != nil {
		return models.DaySummary{}, err
	}

	summary := models.DaySummary{
		SubjectID:  models.NormalizeCode(subjectID),
		Date:       date.In(db.loc).Format(dateLayout),
		TotalHours: decimal.Zero,
		Records:    events,
		Pending:    pending,
	}
	for _, e := range events {
		summary.TotalHours = summary.TotalHours.Add(e.WorkedHours)
		if summary.SubjectName == "" {
			summary.SubjectName = e.SubjectName
		}
	}
	return summary, nil
}

func parseTime(s string) clock.TimeOfDay {
	t, err := clock.Parse(s)
	if err != nil {
		return clock.Invalid
	}
	return t
}
