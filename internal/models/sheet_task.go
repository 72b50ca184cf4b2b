package models

import "time"

// SheetTask is one unit of work for the sheet log worker, persisted in the
// local queue table until the append to the external sheet succeeds.
type SheetTask struct {
	ID          int64      `json:"id"`
	TaskType    string     `json:"task_type"`
	EntryID     string     `json:"entry_id"`
	Payload     string     `json:"payload"`
	Status      string     `json:"status"`
	RetryCount  int        `json:"retry_count"`
	LastError   *string    `json:"last_error,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	ProcessedAt *time.Time `json:"processed_at,omitempty"`
	NextRetryAt *time.Time `json:"next_retry_at,omitempty"`
}
