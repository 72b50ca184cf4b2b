package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"bayline/internal/calendar"
	"bayline/internal/catalog"
	"bayline/internal/events"
	"bayline/internal/models"
	"bayline/internal/repository"
	"bayline/internal/schedule"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memRecorder struct {
	entries []models.LogEntry
	failErr error
}

func (r *memRecorder) Record(ctx context.Context, entry models.LogEntry) error {
	if r.failErr != nil {
		return r.failErr
	}
	r.entries = append(r.entries, entry)
	return nil
}

var testBays = []models.Bay{
	{ID: "bay1", Name: "Bay 1", CalendarID: "cal-bay1"},
	{ID: "bay2", Name: "Bay 2", CalendarID: "cal-bay2"},
}

var testServices = []models.Service{
	{ID: "oil-change", Name: "Oil Change", DurationHours: 1, Price: 49.99},
	{ID: "inspection", Name: "Annual Inspection", DurationHours: 2, Price: 99.99},
	{ID: "diagnosis", Name: "Fault Diagnosis", DurationHours: 3, Price: 149.99},
	{ID: "tires", Name: "Tire Service", DurationHours: 1, Price: 39.99},
}

type testEnv struct {
	svc      *BookingService
	store    *calendar.MemoryStore
	recorder *memRecorder
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	loc, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)

	store := calendar.NewMemoryStore(testBays)
	recorder := &memRecorder{}
	cache := repository.NewMemoryProjectionCache(time.Minute)
	logger := zerolog.Nop()

	svc := NewBookingService(
		store,
		recorder,
		cache,
		events.NewBus(),
		catalog.New(testServices),
		schedule.Rules{OpenHour: 8, CloseHour: 18, ClosedDay: time.Sunday, Location: loc},
		testBays,
		&logger,
	)
	return &testEnv{svc: svc, store: store, recorder: recorder}
}

// 2024-11-25 is a Monday.
const monday10 = "2024-11-25T10:00:00"

func TestCheckAvailabilityPrefersFirstBay(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	verdict, err := env.svc.CheckAvailability(ctx, monday10, "Oil Change")
	require.NoError(t, err)
	assert.True(t, verdict.Available)
	assert.Equal(t, "bay1", verdict.BayID)
	assert.Equal(t, "Bay 1 is available.", verdict.Message)
}

func TestAvailabilityFallsThroughBays(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	// Fill bay1, then bay2, at the same slot.
	first, err := env.svc.Book(ctx, bookingReq("bay1", monday10, "Oil Change", "Linda Martinez"))
	require.NoError(t, err)
	assert.Equal(t, "bay1", first.BayID)

	verdict, err := env.svc.CheckAvailability(ctx, monday10, "Oil Change")
	require.NoError(t, err)
	require.True(t, verdict.Available)
	assert.Equal(t, "bay2", verdict.BayID)
	assert.Equal(t, "Bay 2 is available.", verdict.Message)

	_, err = env.svc.Book(ctx, bookingReq("bay2", monday10, "Oil Change", "Ben Okafor"))
	require.NoError(t, err)

	verdict, err = env.svc.CheckAvailability(ctx, monday10, "Oil Change")
	require.NoError(t, err)
	assert.False(t, verdict.Available)
	assert.Empty(t, verdict.BayID)
	assert.Equal(t, "No slots available.", verdict.Message)
}

func TestCheckAvailabilityOutsideHours(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	cases := []struct {
		name  string
		start string
		svc   string
	}{
		{"before opening", "2024-11-25T07:00:00", "Oil Change"},
		{"runs past closing", "2024-11-25T16:30:00", "Annual Inspection"},
		{"sunday", "2024-11-24T10:00:00", "Oil Change"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			verdict, err := env.svc.CheckAvailability(ctx, tc.start, tc.svc)
			require.NoError(t, err)
			assert.False(t, verdict.Available)
		})
	}
}

func TestCheckAvailabilityInvalidDate(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.svc.CheckAvailability(context.Background(), "next tuesday-ish", "Oil Change")
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestBookPersistsThenLogs(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	req := bookingReq("bay1", monday10, "Tire Service", "Linda Martinez")
	req.Contact = models.Contact{Phone: "555-0134", Email: "linda@example.com"}
	req.Vehicle = models.Vehicle{Year: "2019", Make: "Honda", Model: "Civic"}

	appt, err := env.svc.Book(ctx, req)
	require.NoError(t, err)
	assert.NotEmpty(t, appt.ID)
	assert.Equal(t, "bay1", appt.BayID)
	assert.Equal(t, time.Hour, appt.End.Sub(appt.Start))
	assert.Equal(t, 1, env.store.Count("cal-bay1"))

	require.Len(t, env.recorder.entries, 1)
	entry := env.recorder.entries[0]
	assert.Equal(t, "Booked: Linda Martinez, Tire Service", entry.Summary)
	assert.Equal(t, "11/25/2024", entry.ApptDate)
	assert.Equal(t, "10:00:00 AM", entry.ApptTime)
	assert.Equal(t, "555-0134", entry.Phone)
}

func TestBookRevalidatesSuggestedBay(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	// The caller got bay1 from checkAvailability, but another booking takes
	// it before they confirm.
	verdict, err := env.svc.CheckAvailability(ctx, monday10, "Oil Change")
	require.NoError(t, err)
	require.Equal(t, "bay1", verdict.BayID)

	_, err = env.svc.Book(ctx, bookingReq("bay1", monday10, "Oil Change", "Ben Okafor"))
	require.NoError(t, err)

	_, err = env.svc.Book(ctx, bookingReq("bay1", monday10, "Oil Change", "Linda Martinez"))
	assert.ErrorIs(t, err, ErrSlotUnavailable)
	assert.Equal(t, 1, env.store.Count("cal-bay1"))
	assert.Equal(t, 0, env.store.Count("cal-bay2"), "booking must not silently move bays")
}

func TestBookDeniedWritesDenialLog(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.svc.Book(ctx, bookingReq("bay1", monday10, "Oil Change", "Ben Okafor"))
	require.NoError(t, err)

	_, err = env.svc.Book(ctx, bookingReq("bay1", monday10, "Oil Change", "Linda Martinez"))
	require.ErrorIs(t, err, ErrSlotUnavailable)

	require.Len(t, env.recorder.entries, 2)
	assert.Equal(t, "Online Booking Denied: Linda Martinez, Oil Change", env.recorder.entries[1].Summary)
}

func TestBookTouchingWindowsShareABay(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.svc.Book(ctx, bookingReq("bay1", "2024-11-25T09:00:00", "Oil Change", "Ben Okafor"))
	require.NoError(t, err)

	// Ends exactly when the first begins, and starts exactly when it ends.
	_, err = env.svc.Book(ctx, bookingReq("bay1", "2024-11-25T08:00:00", "Oil Change", "Linda Martinez"))
	require.NoError(t, err)
	_, err = env.svc.Book(ctx, bookingReq("bay1", monday10, "Oil Change", "Priya Shah"))
	require.NoError(t, err)

	assert.Equal(t, 3, env.store.Count("cal-bay1"))
}

func TestBookPersistFailureWritesNoLog(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	env.store.FailInserts(true)
	_, err := env.svc.Book(ctx, bookingReq("bay1", monday10, "Oil Change", "Linda Martinez"))
	assert.ErrorIs(t, err, ErrPersistence)
	assert.Empty(t, env.recorder.entries)
}

func TestBookLogFailureKeepsBooking(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	env.recorder.failErr = errors.New("sqlite locked")
	appt, err := env.svc.Book(ctx, bookingReq("bay1", monday10, "Oil Change", "Linda Martinez"))
	require.NoError(t, err)
	assert.NotEmpty(t, appt.ID)
	assert.Equal(t, 1, env.store.Count("cal-bay1"))
}

func TestBookValidation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.svc.Book(ctx, bookingReq("bay9", monday10, "Oil Change", "Linda Martinez"))
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = env.svc.Book(ctx, bookingReq("bay1", "not-a-date", "Oil Change", "Linda Martinez"))
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = env.svc.Book(ctx, bookingReq("bay1", monday10, "Oil Change", "  "))
	assert.ErrorIs(t, err, ErrInvalidInput)

	assert.Equal(t, 0, env.store.Count("cal-bay1"))
}

func TestBookUnknownServiceGetsDefaultDuration(t *testing.T) {
	env := newTestEnv(t)

	appt, err := env.svc.Book(context.Background(), bookingReq("bay1", monday10, "Flux Capacitor Tune", "Linda Martinez"))
	require.NoError(t, err)
	assert.Equal(t, time.Hour, appt.End.Sub(appt.Start))
}

func TestLogCall(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	entry, err := env.svc.LogCall(ctx, "Caller asked about winter tires, will call back")
	require.NoError(t, err)
	assert.NotEmpty(t, entry.ID)
	assert.False(t, entry.Timestamp.IsZero())
	require.Len(t, env.recorder.entries, 1)

	_, err = env.svc.LogCall(ctx, "   ")
	assert.ErrorIs(t, err, ErrInvalidInput)

	env.recorder.failErr = errors.New("disk full")
	_, err = env.svc.LogCall(ctx, "another call")
	assert.ErrorIs(t, err, ErrPersistence)
}

func TestListAppointmentsUsesCacheAfterFirstRead(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	booked, err := env.svc.Book(ctx, bookingReq("bay1", monday10, "Oil Change", "Linda Martinez"))
	require.NoError(t, err)

	min := booked.Start.Add(-time.Hour)
	max := booked.Start.Add(24 * time.Hour)

	appts, err := env.svc.ListAppointments(ctx, min, max)
	require.NoError(t, err)
	require.Len(t, appts, 1)

	// A booking invalidates the cached range, so the new appointment shows up.
	_, err = env.svc.Book(ctx, bookingReq("bay1", "2024-11-25T13:00:00", "Oil Change", "Ben Okafor"))
	require.NoError(t, err)

	appts, err = env.svc.ListAppointments(ctx, min, max)
	require.NoError(t, err)
	assert.Len(t, appts, 2)
}

func bookingReq(bayID, start, serviceName, customer string) models.BookingRequest {
	return models.BookingRequest{
		BayID:        bayID,
		Start:        start,
		ServiceName:  serviceName,
		CustomerName: customer,
	}
}
