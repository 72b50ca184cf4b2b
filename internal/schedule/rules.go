package schedule

import (
	"time"

	"bayline/internal/models"
)

// Rules holds the shop's operating constraints. Passed in at construction so
// tests and multi-shop setups never share module state.
type Rules struct {
	OpenHour  int
	CloseHour int
	ClosedDay time.Weekday
	Location  *time.Location
}

// BusySet maps bay ID to the intervals already booked for it.
type BusySet map[string][]Window

// WithinHours reports whether the window fits entirely inside the operating
// day the window starts on. Ending exactly at closing is fine. The bounds are
// built as wall-clock instants so sub-minute starts cannot slip past closing.
func (r Rules) WithinHours(w Window) bool {
	start := w.Start.In(r.Location)
	end := w.End.In(r.Location)

	y, m, d := start.Date()
	openAt := time.Date(y, m, d, r.OpenHour, 0, 0, 0, r.Location)
	closeAt := time.Date(y, m, d, r.CloseHour, 0, 0, 0, r.Location)
	return !start.Before(openAt) && !end.After(closeAt)
}

// Admissible applies the calendar-independent rules: operating hours and the
// closed weekday.
func (r Rules) Admissible(w Window) bool {
	if !w.End.After(w.Start) {
		return false
	}
	if w.Start.In(r.Location).Weekday() == r.ClosedDay {
		return false
	}
	return r.WithinHours(w)
}

// Available is the full gate for one bay: admissible and overlapping nothing
// already booked there. Unavailability is a plain false, never an error.
func (r Rules) Available(w Window, bayID string, busy BusySet) bool {
	if !r.Admissible(w) {
		return false
	}
	for _, b := range busy[bayID] {
		if w.Overlaps(b) {
			return false
		}
	}
	return true
}

// Assign picks the first bay, in configured order, that can take the window.
// Greedy on purpose: two interchangeable bays need no load balancing.
func (r Rules) Assign(w Window, bays []models.Bay, busy BusySet) (string, bool) {
	for _, bay := range bays {
		if r.Available(w, bay.ID, busy) {
			return bay.ID, true
		}
	}
	return "", false
}
