package schedule

import "time"

// Window is a half-open interval [Start, End) occupying one bay.
type Window struct {
	Start time.Time
	End   time.Time
}

// At builds a window of the given duration. Adding the duration to the start
// instant means a window spanning a DST transition keeps the offset in effect
// at its start, which is how the calendar store interprets a civil dateTime
// with an explicit timezone.
func At(start time.Time, d time.Duration) Window {
	return Window{Start: start, End: start.Add(d)}
}

// Overlaps reports whether two windows share any time. Touching endpoints do
// not overlap: a 10:00-11:00 job and an 11:00-12:00 job fit in one bay.
func (w Window) Overlaps(o Window) bool {
	return w.Start.Before(o.End) && w.End.After(o.Start)
}

func (w Window) Duration() time.Duration {
	return w.End.Sub(w.Start)
}

func (w Window) IsZero() bool {
	return w.Start.IsZero() && w.End.IsZero()
}
