package schedule

import (
	"fmt"
	"time"
)

// civilLayouts are tried in order when parsing caller-supplied date strings.
// The voice runtime is instructed to send naive ISO 8601 ("2024-11-25T10:00:00"),
// the web form sends "2006-01-02T15:04", and resync from the calendar store
// yields RFC3339 with an offset.
var civilLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
}

// ParseCivil parses a date-time string into an instant in the shop's
// timezone. Strings without an offset are treated as shop wall-clock time;
// strings with an offset are converted into it.
func ParseCivil(raw string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.UTC
	}

	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t.In(loc), nil
	}

	for _, layout := range civilLayouts {
		if t, err := time.ParseInLocation(layout, raw, loc); err == nil {
			return t, nil
		}
	}

	return time.Time{}, fmt.Errorf("cannot parse date-time %q", raw)
}

// Location resolves a timezone name, falling back to UTC on anything invalid.
func Location(name string) *time.Location {
	if name == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return time.UTC
	}
	return loc
}
