package events

import (
	"encoding/json"
	"sync"
	"time"
)

const (
	EventBookingConfirmed = "booking_confirmed"
	EventBookingDenied    = "booking_denied"
	EventCallLogged       = "call_logged"
)

// BookingEventPayload is the appointment snapshot carried by booking events.
// Denials carry the requested time and customer identity so staff can
// reconcile conflicts by hand.
type BookingEventPayload struct {
	AppointmentID string    `json:"appointment_id,omitempty"`
	BayID         string    `json:"bay_id,omitempty"`
	ServiceName   string    `json:"service_name"`
	CustomerName  string    `json:"customer_name"`
	Start         time.Time `json:"start"`
	End           time.Time `json:"end,omitempty"`
	Vehicle       string    `json:"vehicle,omitempty"`
	Reason        string    `json:"reason,omitempty"`
}

// Event is a lightweight in-process domain event.
type Event struct {
	Type      string
	Payload   []byte
	CreatedAt time.Time
}

// Handler reacts to an event. Handlers run synchronously on the publishing
// goroutine; anything slow belongs behind a queue.
type Handler func(event *Event) error

// Bus provides in-process pub/sub.
type Bus struct {
	subscribers map[string][]Handler
	mu          sync.RWMutex
}

func NewBus() *Bus {
	return &Bus{subscribers: make(map[string][]Handler)}
}

// Subscribe registers a handler for a given event type.
func (b *Bus) Subscribe(eventType string, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subscribers[eventType] = append(b.subscribers[eventType], handler)
}

// Publish notifies subscribers of the event type. Handler errors are the
// handlers' problem; publishing never fails the caller.
func (b *Bus) Publish(event *Event) {
	b.mu.RLock()
	handlers := append([]Handler(nil), b.subscribers[event.Type]...)
	b.mu.RUnlock()

	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now()
	}

	for _, handler := range handlers {
		_ = handler(event)
	}
}

// PublishJSON serializes the payload and publishes an event.
func (b *Bus) PublishJSON(eventType string, payload interface{}) error {
	if b == nil {
		return nil
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	b.Publish(&Event{Type: eventType, Payload: raw, CreatedAt: time.Now()})
	return nil
}
