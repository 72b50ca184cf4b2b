package calendar

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"bayline/internal/models"
	"bayline/internal/schedule"

	"github.com/google/uuid"
)

// MemoryStore is an in-process CalendarStore for tests and local runs. It
// keeps the same semantics as the Google adapter: half-open intervals, one
// calendar per bay, projection sorted by start.
type MemoryStore struct {
	mu     sync.RWMutex
	bays   []models.Bay
	events map[string][]models.Appointment // keyed by calendar ID

	insertErr error
}

func NewMemoryStore(bays []models.Bay) *MemoryStore {
	return &MemoryStore{
		bays:   bays,
		events: make(map[string][]models.Appointment),
	}
}

func (s *MemoryStore) ListBusy(ctx context.Context, calendarID string, min, max time.Time) ([]schedule.Window, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := schedule.Window{Start: min, End: max}
	var busy []schedule.Window
	for _, appt := range s.events[calendarID] {
		w := schedule.Window{Start: appt.Start, End: appt.End}
		if w.Overlaps(query) {
			busy = append(busy, w)
		}
	}
	return busy, nil
}

func (s *MemoryStore) Insert(ctx context.Context, calendarID string, appt models.Appointment) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.insertErr != nil {
		return "", s.insertErr
	}

	if appt.ID == "" {
		appt.ID = uuid.NewString()
	}
	if appt.CreatedAt.IsZero() {
		appt.CreatedAt = time.Now()
	}
	s.events[calendarID] = append(s.events[calendarID], appt)
	return appt.ID, nil
}

func (s *MemoryStore) ListAppointments(ctx context.Context, min, max time.Time) ([]models.Appointment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := schedule.Window{Start: min, End: max}
	var appts []models.Appointment
	for _, bay := range s.bays {
		for _, appt := range s.events[bay.CalendarID] {
			if (schedule.Window{Start: appt.Start, End: appt.End}).Overlaps(query) {
				appt.BayID = bay.ID
				appts = append(appts, appt)
			}
		}
	}

	sort.Slice(appts, func(i, j int) bool { return appts[i].Start.Before(appts[j].Start) })
	return appts, nil
}

// FailInserts makes every subsequent Insert fail, for exercising the
// persistence-error path.
func (s *MemoryStore) FailInserts(on bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if on {
		s.insertErr = fmt.Errorf("calendar store unavailable")
	} else {
		s.insertErr = nil
	}
}

// Count reports stored events for one calendar.
func (s *MemoryStore) Count(calendarID string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.events[calendarID])
}
