package database

import (
	"context"
	"fmt"
	"time"

	"bayline/internal/models"
)

// CreateLogEntry appends one row to the call log. Rows are never updated or
// deleted.
func (db *DB) CreateLogEntry(ctx context.Context, entry *models.LogEntry) error {
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now()
	}

	query := `INSERT INTO call_log (id, timestamp, summary, appt_date, appt_time, phone, email)
              VALUES (?, ?, ?, ?, ?, ?, ?)`
	_, err := db.db.ExecContext(ctx, query,
		entry.ID,
		entry.Timestamp,
		entry.Summary,
		entry.ApptDate,
		entry.ApptTime,
		entry.Phone,
		entry.Email,
	)
	if err != nil {
		return fmt.Errorf("failed to create log entry: %w", err)
	}
	return nil
}

// ListLogEntries returns the most recent entries, newest first.
func (db *DB) ListLogEntries(ctx context.Context, limit int) ([]models.LogEntry, error) {
	query := `SELECT id, timestamp, summary, appt_date, appt_time, phone, email
              FROM call_log ORDER BY timestamp DESC LIMIT ?`
	rows, err := db.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list log entries: %w", err)
	}
	defer rows.Close()

	var entries []models.LogEntry
	for rows.Next() {
		var e models.LogEntry
		if err := rows.Scan(&e.ID, &e.Timestamp, &e.Summary, &e.ApptDate, &e.ApptTime, &e.Phone, &e.Email); err != nil {
			return nil, fmt.Errorf("failed to scan log entry: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
