package models

const (
	BookingConfirmed = "confirmed"
	BookingDenied    = "denied"
	BookingFailed    = "failed"
)

const (
	TaskStatusPending   = "pending"
	TaskStatusRetry     = "retry"
	TaskStatusCompleted = "completed"
	TaskStatusFailed    = "failed"
)

const (
	// DefaultDurationHours is applied when a service name is not in the
	// catalog. Kept for compatibility with free-form tool-call input.
	DefaultDurationHours = 1

	// WorkerQueueSize bounds the in-memory fallback queue of the log worker.
	WorkerQueueSize = 256

	// ProjectionCacheTTL seconds a cached appointment range stays valid.
	ProjectionCacheTTL = 5 * 60
)
