package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"bayline/internal/catalog"
	"bayline/internal/domain"
	"bayline/internal/events"
	"bayline/internal/metrics"
	"bayline/internal/models"
	"bayline/internal/schedule"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// BookingService implements the scheduling core. All calendar reads go
// straight to the store; the projection cache only serves ListAppointments.
type BookingService struct {
	store    domain.CalendarStore
	recorder domain.LogRecorder
	cache    domain.ProjectionCache
	eventBus domain.EventPublisher
	catalog  *catalog.Catalog
	rules    schedule.Rules
	bays     []models.Bay
	logger   *zerolog.Logger
}

func NewBookingService(
	store domain.CalendarStore,
	recorder domain.LogRecorder,
	cache domain.ProjectionCache,
	eventBus domain.EventPublisher,
	cat *catalog.Catalog,
	rules schedule.Rules,
	bays []models.Bay,
	logger *zerolog.Logger,
) *BookingService {
	return &BookingService{
		store:    store,
		recorder: recorder,
		cache:    cache,
		eventBus: eventBus,
		catalog:  cat,
		rules:    rules,
		bays:     bays,
		logger:   logger,
	}
}

// CheckAvailability answers whether any bay can take the requested slot and
// which one. Read-only: a positive verdict reserves nothing.
func (s *BookingService) CheckAvailability(ctx context.Context, start, serviceName string) (models.Verdict, error) {
	startAt, err := schedule.ParseCivil(start, s.rules.Location)
	if err != nil {
		return models.Verdict{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	window := schedule.At(startAt, s.duration(serviceName))
	if !s.rules.Admissible(window) {
		return models.Verdict{Available: false, Message: "No slots available."}, nil
	}

	busy, err := s.busySnapshot(ctx, window)
	if err != nil {
		return models.Verdict{}, err
	}

	bayID, ok := s.rules.Assign(window, s.bays, busy)
	if !ok {
		return models.Verdict{Available: false, Message: "No slots available."}, nil
	}

	return models.Verdict{
		Available: true,
		BayID:     bayID,
		Message:   fmt.Sprintf("%s is available.", s.bayName(bayID)),
	}, nil
}

// Book runs the booking transaction: re-validate the caller's bay against a
// fresh snapshot, persist the calendar event, then record the log entry. The
// log is best-effort after the persist; a failed persist writes no log.
func (s *BookingService) Book(ctx context.Context, req models.BookingRequest) (models.Appointment, error) {
	bay, ok := s.bayByID(req.BayID)
	if !ok {
		return models.Appointment{}, fmt.Errorf("%w: unknown bay %q", ErrInvalidInput, req.BayID)
	}
	if strings.TrimSpace(req.CustomerName) == "" {
		return models.Appointment{}, fmt.Errorf("%w: customer name is required", ErrInvalidInput)
	}

	startAt, err := schedule.ParseCivil(req.Start, s.rules.Location)
	if err != nil {
		return models.Appointment{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	window := schedule.At(startAt, s.duration(req.ServiceName))

	// The suggested bay may have been taken since checkAvailability, so the
	// target is checked once more against a fresh busy snapshot. Only the
	// target: a denial sends the caller back through availability.
	fresh, err := s.store.ListBusy(ctx, bay.CalendarID, window.Start, window.End)
	if err != nil {
		metrics.IncBooking(models.BookingFailed)
		return models.Appointment{}, fmt.Errorf("%w: busy lookup: %v", ErrPersistence, err)
	}
	if !s.rules.Available(window, bay.ID, schedule.BusySet{bay.ID: fresh}) {
		s.recordDenial(ctx, req, window)
		metrics.IncBooking(models.BookingDenied)
		return models.Appointment{}, fmt.Errorf("%w: %s at %s", ErrSlotUnavailable, bay.ID, req.Start)
	}

	appt := models.Appointment{
		BayID:        bay.ID,
		Start:        window.Start,
		End:          window.End,
		ServiceName:  req.ServiceName,
		CustomerName: req.CustomerName,
		Contact:      req.Contact,
		Vehicle:      req.Vehicle,
		CreatedAt:    time.Now(),
	}

	eventID, err := s.store.Insert(ctx, bay.CalendarID, appt)
	if err != nil {
		metrics.IncBooking(models.BookingFailed)
		return models.Appointment{}, fmt.Errorf("%w: calendar insert: %v", ErrPersistence, err)
	}
	appt.ID = eventID

	s.recordConfirmation(ctx, appt)
	s.publish(events.EventBookingConfirmed, appt, "")
	s.invalidateProjection(ctx)
	metrics.IncBooking(models.BookingConfirmed)

	s.logger.Info().
		Str("appointment_id", appt.ID).
		Str("bay_id", appt.BayID).
		Str("service", appt.ServiceName).
		Time("start", appt.Start).
		Msg("booking confirmed")

	return appt, nil
}

// LogCall records a free-form call summary.
func (s *BookingService) LogCall(ctx context.Context, summary string) (models.LogEntry, error) {
	if strings.TrimSpace(summary) == "" {
		return models.LogEntry{}, fmt.Errorf("%w: summary is required", ErrInvalidInput)
	}

	entry := models.LogEntry{
		ID:        uuid.NewString(),
		Timestamp: time.Now(),
		Summary:   summary,
	}
	if err := s.recorder.Record(ctx, entry); err != nil {
		return models.LogEntry{}, fmt.Errorf("%w: record call log: %v", ErrPersistence, err)
	}

	_ = s.eventBus.PublishJSON(events.EventCallLogged, entry)
	return entry, nil
}

// ListAppointments serves the rendering projection, cache first.
func (s *BookingService) ListAppointments(ctx context.Context, min, max time.Time) ([]models.Appointment, error) {
	if appts, ok, err := s.cache.GetRange(ctx, min, max); err == nil && ok {
		return appts, nil
	} else if err != nil {
		s.logger.Warn().Err(err).Msg("projection cache read")
	}

	appts, err := s.store.ListAppointments(ctx, min, max)
	if err != nil {
		return nil, fmt.Errorf("list appointments: %w", err)
	}

	if err := s.cache.SetRange(ctx, min, max, appts); err != nil {
		s.logger.Warn().Err(err).Msg("projection cache write")
	}
	return appts, nil
}

// duration resolves the booked duration, counting fallback hits for unknown
// service names.
func (s *BookingService) duration(serviceName string) time.Duration {
	if _, ok := s.catalog.Lookup(serviceName); !ok {
		s.logger.Warn().Str("service", serviceName).Msg("unknown service, default duration applied")
		metrics.IncCatalogFallback()
	}
	return s.catalog.Duration(serviceName)
}

// busySnapshot reads the busy intervals of every bay for the window's span.
func (s *BookingService) busySnapshot(ctx context.Context, w schedule.Window) (schedule.BusySet, error) {
	busy := make(schedule.BusySet, len(s.bays))
	for _, bay := range s.bays {
		windows, err := s.store.ListBusy(ctx, bay.CalendarID, w.Start, w.End)
		if err != nil {
			return nil, fmt.Errorf("busy lookup for %s: %w", bay.ID, err)
		}
		busy[bay.ID] = windows
	}
	return busy, nil
}

func (s *BookingService) bayByID(id string) (models.Bay, bool) {
	for _, b := range s.bays {
		if b.ID == id {
			return b, true
		}
	}
	return models.Bay{}, false
}

func (s *BookingService) bayName(id string) string {
	if b, ok := s.bayByID(id); ok && b.Name != "" {
		return b.Name
	}
	return id
}

func (s *BookingService) recordConfirmation(ctx context.Context, appt models.Appointment) {
	entry := models.LogEntry{
		ID:        uuid.NewString(),
		Timestamp: time.Now(),
		Summary:   fmt.Sprintf("Booked: %s, %s", appt.CustomerName, appt.ServiceName),
		ApptDate:  appt.Start.Format("1/2/2006"),
		ApptTime:  appt.Start.Format("3:04:05 PM"),
		Phone:     appt.Contact.Phone,
		Email:     appt.Contact.Email,
	}
	if err := s.recorder.Record(ctx, entry); err != nil {
		// The appointment is already on the calendar; the booking stands.
		s.logger.Error().Err(err).Str("appointment_id", appt.ID).Msg("record booking log")
	}
}

func (s *BookingService) recordDenial(ctx context.Context, req models.BookingRequest, w schedule.Window) {
	entry := models.LogEntry{
		ID:        uuid.NewString(),
		Timestamp: time.Now(),
		Summary:   fmt.Sprintf("Online Booking Denied: %s, %s", req.CustomerName, req.ServiceName),
		ApptDate:  w.Start.Format("1/2/2006"),
		ApptTime:  w.Start.Format("3:04:05 PM"),
		Phone:     req.Contact.Phone,
		Email:     req.Contact.Email,
	}
	if err := s.recorder.Record(ctx, entry); err != nil {
		s.logger.Error().Err(err).Msg("record denial log")
	}

	s.publish(events.EventBookingDenied, models.Appointment{
		BayID:        req.BayID,
		Start:        w.Start,
		End:          w.End,
		ServiceName:  req.ServiceName,
		CustomerName: req.CustomerName,
		Vehicle:      req.Vehicle,
	}, "slot no longer available")
}

func (s *BookingService) publish(eventType string, appt models.Appointment, reason string) {
	payload := events.BookingEventPayload{
		AppointmentID: appt.ID,
		BayID:         appt.BayID,
		ServiceName:   appt.ServiceName,
		CustomerName:  appt.CustomerName,
		Start:         appt.Start,
		End:           appt.End,
		Vehicle:       appt.Vehicle.String(),
		Reason:        reason,
	}
	if err := s.eventBus.PublishJSON(eventType, payload); err != nil {
		s.logger.Warn().Err(err).Str("event", eventType).Msg("publish event")
	}
}

func (s *BookingService) invalidateProjection(ctx context.Context) {
	if err := s.cache.Invalidate(ctx); err != nil {
		s.logger.Warn().Err(err).Msg("invalidate projection cache")
	}
}
