package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"bayline/internal/database"
	"bayline/internal/domain"
	"bayline/internal/models"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const TaskAppendLog = "append_log"

// LogWorker makes the call log durable and delivers it to the external
// spreadsheet. Record persists synchronously; the sheet append happens on the
// worker loop with backoff, so a Sheets outage never blocks a booking.
type LogWorker struct {
	db            *database.DB
	sheets        domain.SheetAppender
	redis         *redis.Client
	retryPolicy   RetryPolicy
	queue         chan models.SheetTask
	redisQueueKey string
	deadLetterKey string
	pollInterval  time.Duration
	batchSize     int
	logger        zerolog.Logger
}

func NewLogWorker(db *database.DB, sheets domain.SheetAppender, redisClient *redis.Client, retry RetryPolicy, logger zerolog.Logger) *LogWorker {
	if retry.MaxRetries == 0 {
		retry.MaxRetries = 5
	}
	if retry.InitialDelay == 0 {
		retry.InitialDelay = 2 * time.Second
	}
	if retry.MaxDelay == 0 {
		retry.MaxDelay = time.Minute
	}
	if retry.BackoffFactor == 0 {
		retry.BackoffFactor = 2
	}

	return &LogWorker{
		db:            db,
		sheets:        sheets,
		redis:         redisClient,
		retryPolicy:   retry,
		queue:         make(chan models.SheetTask, models.WorkerQueueSize),
		redisQueueKey: "log:queue",
		deadLetterKey: "log:deadletter",
		pollInterval:  2 * time.Second,
		batchSize:     20,
		logger:        logger,
	}
}

// Record appends the entry to the local call log and schedules its sheet
// append. The local write is the durability point; everything after it is
// best-effort.
func (w *LogWorker) Record(ctx context.Context, entry models.LogEntry) error {
	if err := w.db.CreateLogEntry(ctx, &entry); err != nil {
		return fmt.Errorf("persist log entry: %w", err)
	}

	payload, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("encode log entry: %w", err)
	}

	task := models.SheetTask{
		TaskType: TaskAppendLog,
		EntryID:  entry.ID,
		Payload:  string(payload),
		Status:   models.TaskStatusPending,
	}
	if err := w.db.CreateSheetTask(ctx, &task); err != nil {
		return fmt.Errorf("persist sheet task: %w", err)
	}

	// Wake the loop promptly; the poll loop picks the task up anyway if both
	// the redis push and the channel fail.
	if w.redis != nil {
		err := w.pushRedis(ctx, task)
		if err == nil {
			return nil
		}
		w.logger.Warn().Err(err).Msg("redis push failed, using in-memory queue")
	}

	select {
	case w.queue <- task:
	default:
	}

	return nil
}

// Start runs the delivery loop until ctx is done.
func (w *LogWorker) Start(ctx context.Context) {
	w.logger.Info().Msg("log worker started")
	defer w.logger.Info().Msg("log worker stopped")

	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case task := <-w.queue:
			w.process(ctx, &task)
		case <-ticker.C:
			w.drainRedis(ctx)
			w.processPending(ctx)
		}
	}
}

func (w *LogWorker) processPending(ctx context.Context) {
	tasks, err := w.db.GetPendingSheetTasks(ctx, w.batchSize)
	if err != nil {
		w.logger.Error().Err(err).Msg("load pending sheet tasks")
		return
	}
	for i := range tasks {
		w.process(ctx, &tasks[i])
	}
}

func (w *LogWorker) process(ctx context.Context, task *models.SheetTask) {
	if w.sheets == nil {
		// No sheet configured; the local call log is the only destination.
		w.complete(ctx, task)
		return
	}

	entry, err := decodeEntry(task.Payload)
	if err != nil {
		w.fail(ctx, task, err)
		return
	}

	if err := w.sheets.AppendLogRow(ctx, entry); err != nil {
		w.retryOrFail(ctx, task, err)
		return
	}

	w.complete(ctx, task)
}

func (w *LogWorker) complete(ctx context.Context, task *models.SheetTask) {
	if err := w.db.UpdateSheetTaskStatus(ctx, task.ID, models.TaskStatusCompleted, "", nil); err != nil {
		w.logger.Error().Err(err).Int64("task_id", task.ID).Msg("mark task completed")
	}
}

func (w *LogWorker) retryOrFail(ctx context.Context, task *models.SheetTask, cause error) {
	attempt := task.RetryCount + 1
	if attempt >= w.retryPolicy.MaxRetries {
		w.fail(ctx, task, cause)
		return
	}

	nextTime := time.Now().Add(w.retryPolicy.NextDelay(attempt))
	if err := w.db.UpdateSheetTaskStatus(ctx, task.ID, models.TaskStatusRetry, cause.Error(), &nextTime); err != nil {
		w.logger.Error().Err(err).Int64("task_id", task.ID).Msg("mark task retry")
	}
}

func (w *LogWorker) fail(ctx context.Context, task *models.SheetTask, cause error) {
	w.logger.Error().Err(cause).Int64("task_id", task.ID).Str("entry_id", task.EntryID).Msg("sheet delivery gave up")
	if err := w.db.UpdateSheetTaskStatus(ctx, task.ID, models.TaskStatusFailed, cause.Error(), nil); err != nil {
		w.logger.Error().Err(err).Int64("task_id", task.ID).Msg("mark task failed")
	}
	w.pushDeadLetter(ctx, task)
}

func (w *LogWorker) pushRedis(ctx context.Context, task models.SheetTask) error {
	if w.redis == nil {
		return errors.New("redis client is nil")
	}
	data, err := json.Marshal(task)
	if err != nil {
		return err
	}
	return w.redis.LPush(ctx, w.redisQueueKey, data).Err()
}

func (w *LogWorker) drainRedis(ctx context.Context) {
	if w.redis == nil {
		return
	}
	for i := 0; i < w.batchSize; i++ {
		data, err := w.redis.RPop(ctx, w.redisQueueKey).Result()
		if err == redis.Nil {
			return
		}
		if err != nil {
			w.logger.Warn().Err(err).Msg("redis pop failed")
			return
		}

		var task models.SheetTask
		if err := json.Unmarshal([]byte(data), &task); err != nil {
			w.logger.Error().Err(err).Msg("decode queued task")
			continue
		}
		w.process(ctx, &task)
	}
}

func (w *LogWorker) pushDeadLetter(ctx context.Context, task *models.SheetTask) {
	if w.redis == nil {
		return
	}
	data, err := json.Marshal(task)
	if err != nil {
		w.logger.Error().Err(err).Int64("task_id", task.ID).Msg("encode deadletter")
		return
	}
	if err := w.redis.LPush(ctx, w.deadLetterKey, data).Err(); err != nil {
		w.logger.Error().Err(err).Int64("task_id", task.ID).Msg("deadletter push")
	}
}

func decodeEntry(raw string) (models.LogEntry, error) {
	var entry models.LogEntry
	if err := json.Unmarshal([]byte(raw), &entry); err != nil {
		return entry, fmt.Errorf("decode entry payload: %w", err)
	}
	return entry, nil
}
