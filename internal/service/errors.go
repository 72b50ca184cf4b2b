package service

import "errors"

// Unavailability inside a valid request is a Verdict, never an error. These
// sentinels cover the genuinely broken cases so the transport layer can map
// them to distinct responses with errors.Is.
var (
	// ErrInvalidInput marks an unparseable or incomplete request.
	ErrInvalidInput = errors.New("invalid input")

	// ErrSlotUnavailable marks a booking attempt whose target bay was taken
	// between suggestion and confirmation.
	ErrSlotUnavailable = errors.New("slot unavailable")

	// ErrPersistence marks a failed write to the calendar store.
	ErrPersistence = errors.New("persistence failure")
)
