package tools

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"bayline/internal/calendar"
	"bayline/internal/catalog"
	"bayline/internal/events"
	"bayline/internal/models"
	"bayline/internal/repository"
	"bayline/internal/schedule"
	"bayline/internal/service"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type nopRecorder struct{}

func (nopRecorder) Record(ctx context.Context, entry models.LogEntry) error { return nil }

type panicService struct {
	*service.BookingService
}

func (panicService) CheckAvailability(ctx context.Context, start, serviceName string) (models.Verdict, error) {
	panic("store exploded")
}

func newAdapter(t *testing.T) (*Adapter, *calendar.MemoryStore) {
	t.Helper()
	loc, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)

	bays := []models.Bay{
		{ID: "bay1", Name: "Bay 1", CalendarID: "cal-bay1"},
		{ID: "bay2", Name: "Bay 2", CalendarID: "cal-bay2"},
	}
	store := calendar.NewMemoryStore(bays)
	logger := zerolog.Nop()

	svc := service.NewBookingService(
		store,
		nopRecorder{},
		repository.NewMemoryProjectionCache(time.Minute),
		events.NewBus(),
		catalog.New([]models.Service{
			{ID: "oil-change", Name: "Oil Change", DurationHours: 1, Price: 49.99},
			{ID: "inspection", Name: "Annual Inspection", DurationHours: 2, Price: 99.99},
		}),
		schedule.Rules{OpenHour: 8, CloseHour: 18, ClosedDay: time.Sunday, Location: loc},
		bays,
		&logger,
	)
	return NewAdapter(svc, &logger), store
}

func dispatch(t *testing.T, a *Adapter, name, args string) map[string]interface{} {
	t.Helper()
	raw := a.Dispatch(context.Background(), name, json.RawMessage(args))
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &out))
	return out
}

func TestDispatchCheckAvailability(t *testing.T) {
	a, _ := newAdapter(t)

	out := dispatch(t, a, ToolCheckAvailability,
		`{"dateString":"2024-11-25T10:00:00","serviceType":"Oil Change"}`)
	assert.Equal(t, true, out["available"])
	assert.Equal(t, "bay1", out["bayId"])
	assert.Equal(t, "Bay 1 is available.", out["message"])
	assert.NotContains(t, out, "error")
}

func TestDispatchCheckAvailabilityUsesRuntimeFieldNames(t *testing.T) {
	a, _ := newAdapter(t)

	// The voice runtime reads the bay id as "bayId"; the snake_case name
	// belongs to the web API only and must not leak into the tool envelope.
	out := dispatch(t, a, ToolCheckAvailability,
		`{"dateString":"2024-11-25T10:00:00","serviceType":"Oil Change"}`)
	assert.Contains(t, out, "bayId")
	assert.NotContains(t, out, "bay_id")
}

func TestDispatchInvalidDateIsAnErrorNotUnavailable(t *testing.T) {
	a, _ := newAdapter(t)

	out := dispatch(t, a, ToolCheckAvailability,
		`{"dateString":"tomorrow at 2","serviceType":"Oil Change"}`)
	assert.Contains(t, out["error"], "invalid date format")
	assert.NotContains(t, out, "available")
}

func TestDispatchBookAppointment(t *testing.T) {
	a, store := newAdapter(t)

	out := dispatch(t, a, ToolBookAppointment, `{
		"bayId": "bay1",
		"dateString": "2024-11-25T10:00:00",
		"serviceType": "Oil Change",
		"customerName": "Linda Martinez",
		"customerContact": "linda@example.com",
		"vehicleMake": "Honda",
		"vehicleModel": "Civic",
		"vehicleYear": "2019"
	}`)
	assert.Equal(t, "confirmed", out["status"])
	assert.NotEmpty(t, out["appointmentId"])
	assert.Equal(t, 1, store.Count("cal-bay1"))
}

func TestDispatchBookTakenSlotFails(t *testing.T) {
	a, _ := newAdapter(t)

	args := `{"bayId":"bay1","dateString":"2024-11-25T10:00:00","serviceType":"Oil Change","customerName":"Ben Okafor"}`
	out := dispatch(t, a, ToolBookAppointment, args)
	require.Equal(t, "confirmed", out["status"])

	out = dispatch(t, a, ToolBookAppointment, args)
	assert.Equal(t, "failed", out["status"])
	assert.Equal(t, "Slot is no longer available.", out["message"])
	assert.NotContains(t, out, "error", "an occupied slot is a verdict, not a fault")
}

func TestDispatchLogCall(t *testing.T) {
	a, _ := newAdapter(t)

	out := dispatch(t, a, ToolLogCall, `{"summary":"Caller booked an oil change for Monday"}`)
	assert.Equal(t, "logged", out["status"])

	out = dispatch(t, a, ToolLogCall, `{"summary":""}`)
	assert.Contains(t, out["error"], "summary")
}

func TestDispatchUnknownOperation(t *testing.T) {
	a, _ := newAdapter(t)

	out := dispatch(t, a, "cancelAppointment", `{}`)
	assert.Contains(t, out["error"], "unknown operation")
}

func TestDispatchMalformedArguments(t *testing.T) {
	a, _ := newAdapter(t)

	out := dispatch(t, a, ToolBookAppointment, `{"bayId": 7}`)
	assert.Contains(t, out["error"], "bad bookAppointment arguments")
}

func TestDispatchRecoversPanics(t *testing.T) {
	logger := zerolog.Nop()
	a := NewAdapter(panicService{}, &logger)

	out := dispatch(t, a, ToolCheckAvailability,
		`{"dateString":"2024-11-25T10:00:00","serviceType":"Oil Change"}`)
	assert.Contains(t, out["error"], "tool execution failed")
}

func TestSplitContact(t *testing.T) {
	assert.Equal(t, models.Contact{Email: "a@b.com"}, splitContact(" a@b.com "))
	assert.Equal(t, models.Contact{Phone: "555-0134"}, splitContact("555-0134"))
	assert.Equal(t, models.Contact{}, splitContact("  "))
}
