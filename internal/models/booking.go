package models

// BookingRequest is the input of the booking transaction. Start is the raw
// civil date-time string exactly as the caller supplied it; parsing and
// validation happen inside the transaction.
type BookingRequest struct {
	BayID        string  `json:"bay_id"`
	Start        string  `json:"start"`
	ServiceName  string  `json:"service_name"`
	CustomerName string  `json:"customer_name"`
	Contact      Contact `json:"contact"`
	Vehicle      Vehicle `json:"vehicle"`
}

// Verdict is the outcome of an availability check.
type Verdict struct {
	Available bool   `json:"available"`
	BayID     string `json:"bay_id,omitempty"`
	Message   string `json:"message"`
}

// BookingResult reports the terminal outcome of a booking attempt.
type BookingResult struct {
	Status        string `json:"status"`
	AppointmentID string `json:"appointment_id,omitempty"`
	Message       string `json:"message,omitempty"`
}
