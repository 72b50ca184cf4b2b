package domain

import (
	"context"
	"time"

	"bayline/internal/models"
	"bayline/internal/schedule"
)

// CalendarStore is the durable source of truth for booked intervals. Each bay
// maps to one external calendar.
type CalendarStore interface {
	// ListBusy returns the busy intervals of one calendar inside [min, max).
	ListBusy(ctx context.Context, calendarID string, min, max time.Time) ([]schedule.Window, error)
	// Insert persists one appointment as an event and returns the event ID.
	Insert(ctx context.Context, calendarID string, appt models.Appointment) (string, error)
	// ListAppointments reads back the appointment projection across all
	// configured calendars inside [min, max).
	ListAppointments(ctx context.Context, min, max time.Time) ([]models.Appointment, error)
}

// LogRecorder accepts log entries for eventual delivery. Recording must be
// cheap and must never fail a booking that already committed.
type LogRecorder interface {
	Record(ctx context.Context, entry models.LogEntry) error
}

// SheetAppender writes one log row to the external spreadsheet.
type SheetAppender interface {
	AppendLogRow(ctx context.Context, entry models.LogEntry) error
}

// ProjectionCache holds read-side appointment snapshots. It has no authority:
// availability decisions never consult it.
type ProjectionCache interface {
	GetRange(ctx context.Context, min, max time.Time) ([]models.Appointment, bool, error)
	SetRange(ctx context.Context, min, max time.Time, appts []models.Appointment) error
	Invalidate(ctx context.Context) error
}

type EventPublisher interface {
	PublishJSON(eventType string, payload interface{}) error
}

// BookingService is the public contract of the scheduling core: the three
// conversational operations plus the rendering projection.
type BookingService interface {
	CheckAvailability(ctx context.Context, start, serviceName string) (models.Verdict, error)
	Book(ctx context.Context, req models.BookingRequest) (models.Appointment, error)
	LogCall(ctx context.Context, summary string) (models.LogEntry, error)
	ListAppointments(ctx context.Context, min, max time.Time) ([]models.Appointment, error)
}
