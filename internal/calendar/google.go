package calendar

import (
	"context"
	"fmt"
	"os"
	"sort"
	"time"

	"bayline/internal/metrics"
	"bayline/internal/models"
	"bayline/internal/schedule"

	"golang.org/x/oauth2/google"
	gcal "google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"
)

// GoogleStore talks to Google Calendar, one calendar per bay. Auth is a
// service account loaded from a JSON credentials file.
type GoogleStore struct {
	service  *gcal.Service
	bays     []models.Bay
	timezone string
}

func NewGoogleStore(ctx context.Context, credentialsFile string, bays []models.Bay, timezone string) (*GoogleStore, error) {
	credentialsJSON, err := os.ReadFile(credentialsFile)
	if err != nil {
		return nil, fmt.Errorf("unable to read credentials file: %w", err)
	}

	jwtConfig, err := google.JWTConfigFromJSON(credentialsJSON, gcal.CalendarScope)
	if err != nil {
		return nil, fmt.Errorf("unable to parse credentials: %w", err)
	}

	srv, err := gcal.NewService(ctx, option.WithHTTPClient(jwtConfig.Client(ctx)))
	if err != nil {
		return nil, fmt.Errorf("unable to create Calendar service: %w", err)
	}

	return &GoogleStore{service: srv, bays: bays, timezone: timezone}, nil
}

// ListBusy queries the FreeBusy API for one calendar.
func (s *GoogleStore) ListBusy(ctx context.Context, calendarID string, min, max time.Time) ([]schedule.Window, error) {
	req := &gcal.FreeBusyRequest{
		TimeMin:  min.Format(time.RFC3339),
		TimeMax:  max.Format(time.RFC3339),
		TimeZone: s.timezone,
		Items:    []*gcal.FreeBusyRequestItem{{Id: calendarID}},
	}

	resp, err := s.service.Freebusy.Query(req).Context(ctx).Do()
	if err != nil {
		metrics.IncCalendarRequest("freebusy", "error")
		return nil, fmt.Errorf("freebusy query: %w", err)
	}
	metrics.IncCalendarRequest("freebusy", "ok")

	cal, ok := resp.Calendars[calendarID]
	if !ok {
		return nil, fmt.Errorf("calendar %s missing from freebusy response", calendarID)
	}

	busy := make([]schedule.Window, 0, len(cal.Busy))
	for _, period := range cal.Busy {
		start, err := time.Parse(time.RFC3339, period.Start)
		if err != nil {
			return nil, fmt.Errorf("parse busy start %q: %w", period.Start, err)
		}
		end, err := time.Parse(time.RFC3339, period.End)
		if err != nil {
			return nil, fmt.Errorf("parse busy end %q: %w", period.End, err)
		}
		busy = append(busy, schedule.Window{Start: start, End: end})
	}

	return busy, nil
}

// Insert writes one appointment as a calendar event. The event carries an
// explicit timezone so the store interprets the dateTime as shop wall-clock.
func (s *GoogleStore) Insert(ctx context.Context, calendarID string, appt models.Appointment) (string, error) {
	event := &gcal.Event{
		Summary:     appt.Summary(),
		Description: EncodeDescription(appt.Contact, appt.Vehicle),
		Start:       &gcal.EventDateTime{DateTime: appt.Start.Format(time.RFC3339), TimeZone: s.timezone},
		End:         &gcal.EventDateTime{DateTime: appt.End.Format(time.RFC3339), TimeZone: s.timezone},
	}

	created, err := s.service.Events.Insert(calendarID, event).Context(ctx).Do()
	if err != nil {
		metrics.IncCalendarRequest("insert", "error")
		return "", fmt.Errorf("insert event: %w", err)
	}
	metrics.IncCalendarRequest("insert", "ok")

	return created.Id, nil
}

// ListAppointments reads events of every configured bay back into the
// appointment projection, sorted by start time.
func (s *GoogleStore) ListAppointments(ctx context.Context, min, max time.Time) ([]models.Appointment, error) {
	loc := schedule.Location(s.timezone)
	var appts []models.Appointment

	for _, bay := range s.bays {
		list, err := s.service.Events.List(bay.CalendarID).
			TimeMin(min.Format(time.RFC3339)).
			TimeMax(max.Format(time.RFC3339)).
			SingleEvents(true).
			OrderBy("startTime").
			Context(ctx).
			Do()
		if err != nil {
			metrics.IncCalendarRequest("list", "error")
			return nil, fmt.Errorf("list events for %s: %w", bay.ID, err)
		}
		metrics.IncCalendarRequest("list", "ok")

		for _, event := range list.Items {
			appt, err := eventToAppointment(event, bay.ID, loc)
			if err != nil {
				// All-day or malformed events are not bookings; skip them.
				continue
			}
			appts = append(appts, appt)
		}
	}

	sort.Slice(appts, func(i, j int) bool { return appts[i].Start.Before(appts[j].Start) })
	return appts, nil
}

func eventToAppointment(event *gcal.Event, bayID string, loc *time.Location) (models.Appointment, error) {
	if event.Start == nil || event.End == nil || event.Start.DateTime == "" || event.End.DateTime == "" {
		return models.Appointment{}, fmt.Errorf("event %s has no dateTime bounds", event.Id)
	}

	start, err := time.Parse(time.RFC3339, event.Start.DateTime)
	if err != nil {
		return models.Appointment{}, fmt.Errorf("parse event start: %w", err)
	}
	end, err := time.Parse(time.RFC3339, event.End.DateTime)
	if err != nil {
		return models.Appointment{}, fmt.Errorf("parse event end: %w", err)
	}

	serviceName, customerName := ParseSummary(event.Summary)
	contact, vehicle := ParseDescription(event.Description)

	appt := models.Appointment{
		ID:           event.Id,
		BayID:        bayID,
		Start:        start.In(loc),
		End:          end.In(loc),
		ServiceName:  serviceName,
		CustomerName: customerName,
		Contact:      contact,
		Vehicle:      vehicle,
	}
	if event.Created != "" {
		if created, err := time.Parse(time.RFC3339, event.Created); err == nil {
			appt.CreatedAt = created
		}
	}
	return appt, nil
}
