package database

import (
	"context"
	"fmt"
	"time"

	"bayline/internal/models"
)

func (db *DB) CreateSheetTask(ctx context.Context, task *models.SheetTask) error {
	query := `INSERT INTO sheet_queue (task_type, entry_id, payload, status, retry_count, last_error, created_at, next_retry_at)
              VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	now := time.Now()
	result, err := db.db.ExecContext(ctx, query,
		task.TaskType,
		task.EntryID,
		task.Payload,
		task.Status,
		task.RetryCount,
		task.LastError,
		now,
		task.NextRetryAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create sheet task: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	task.ID = id
	task.CreatedAt = now

	return nil
}

func (db *DB) GetPendingSheetTasks(ctx context.Context, limit int) ([]models.SheetTask, error) {
	query := `SELECT id, task_type, entry_id, payload, status, retry_count, last_error, created_at, processed_at, next_retry_at
              FROM sheet_queue
              WHERE status IN ('pending', 'retry') AND (next_retry_at IS NULL OR next_retry_at <= ?)
              ORDER BY created_at ASC LIMIT ?`
	rows, err := db.db.QueryContext(ctx, query, time.Now(), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get pending sheet tasks: %w", err)
	}
	defer rows.Close()

	var tasks []models.SheetTask
	for rows.Next() {
		var t models.SheetTask
		err := rows.Scan(
			&t.ID, &t.TaskType, &t.EntryID, &t.Payload, &t.Status, &t.RetryCount, &t.LastError, &t.CreatedAt, &t.ProcessedAt, &t.NextRetryAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan sheet task: %w", err)
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

func (db *DB) GetFailedSheetTasks(ctx context.Context) ([]models.SheetTask, error) {
	query := `SELECT id, task_type, entry_id, payload, status, retry_count, last_error, created_at, processed_at, next_retry_at
              FROM sheet_queue WHERE status = 'failed' ORDER BY created_at ASC`
	rows, err := db.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to get failed sheet tasks: %w", err)
	}
	defer rows.Close()

	var tasks []models.SheetTask
	for rows.Next() {
		var t models.SheetTask
		err := rows.Scan(
			&t.ID, &t.TaskType, &t.EntryID, &t.Payload, &t.Status, &t.RetryCount, &t.LastError, &t.CreatedAt, &t.ProcessedAt, &t.NextRetryAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan sheet task: %w", err)
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

func (db *DB) UpdateSheetTaskStatus(ctx context.Context, id int64, status, errMsg string, nextRetryAt *time.Time) error {
	var query string
	var args []interface{}
	now := time.Now()

	switch status {
	case models.TaskStatusRetry:
		query = `UPDATE sheet_queue SET status = ?, last_error = ?, next_retry_at = ?, retry_count = retry_count + 1 WHERE id = ?`
		args = []interface{}{status, errMsg, nextRetryAt, id}
	case models.TaskStatusCompleted, models.TaskStatusFailed:
		query = `UPDATE sheet_queue SET status = ?, last_error = ?, next_retry_at = ?, processed_at = ? WHERE id = ?`
		args = []interface{}{status, errMsg, nextRetryAt, &now, id}
	default:
		query = `UPDATE sheet_queue SET status = ?, last_error = ?, next_retry_at = ? WHERE id = ?`
		args = []interface{}{status, errMsg, nextRetryAt, id}
	}

	if _, err := db.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to update sheet task %d: %w", id, err)
	}
	return nil
}
