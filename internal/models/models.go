package models

import (
	"fmt"
	"strings"
	"time"
)

// Service is a catalog entry. Duration and price are captured by value on
// every appointment, so later catalog edits never change existing bookings.
type Service struct {
	ID            string  `yaml:"id" json:"id"`
	Name          string  `yaml:"name" json:"name"`
	DurationHours int     `yaml:"duration_hours" json:"duration_hours"`
	Price         float64 `yaml:"price" json:"price"`
}

// Bay is one physical service bay, the unit of scheduling exclusivity.
// CalendarID points at the external calendar that owns its busy intervals.
type Bay struct {
	ID         string `yaml:"id" json:"id"`
	Name       string `yaml:"name" json:"name"`
	CalendarID string `yaml:"calendar_id" json:"calendar_id"`
}

type Contact struct {
	Phone string `json:"phone,omitempty"`
	Email string `json:"email,omitempty"`
}

type Vehicle struct {
	Year  string `json:"year,omitempty"`
	Make  string `json:"make,omitempty"`
	Model string `json:"model,omitempty"`
}

// String renders "<year> <make> <model>" with empty parts dropped.
func (v Vehicle) String() string {
	parts := make([]string, 0, 3)
	for _, p := range []string{v.Year, v.Make, v.Model} {
		if strings.TrimSpace(p) != "" {
			parts = append(parts, strings.TrimSpace(p))
		}
	}
	return strings.Join(parts, " ")
}

func (v Vehicle) IsZero() bool {
	return v.Year == "" && v.Make == "" && v.Model == ""
}

// Appointment is the read projection of one calendar event. The calendar
// store owns the durable record; this struct is never mutated after creation.
type Appointment struct {
	ID           string    `json:"id"`
	BayID        string    `json:"bay_id"`
	Start        time.Time `json:"start"`
	End          time.Time `json:"end"`
	ServiceName  string    `json:"service_name"`
	CustomerName string    `json:"customer_name"`
	Contact      Contact   `json:"contact"`
	Vehicle      Vehicle   `json:"vehicle"`
	CreatedAt    time.Time `json:"created_at,omitempty"`
}

// Summary builds the calendar event summary line. The format is load-bearing:
// existing stored events are parsed back with it.
func (a Appointment) Summary() string {
	return fmt.Sprintf("%s - %s", a.ServiceName, a.CustomerName)
}

// LogEntry is one append-only row of the call/booking log.
type LogEntry struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	Summary   string    `json:"summary"`
	ApptDate  string    `json:"appt_date,omitempty"`
	ApptTime  string    `json:"appt_time,omitempty"`
	Phone     string    `json:"phone,omitempty"`
	Email     string    `json:"email,omitempty"`
}
