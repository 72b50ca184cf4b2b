package calendar

import (
	"context"
	"testing"
	"time"

	"bayline/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var memBays = []models.Bay{
	{ID: "bay1", Name: "Service Bay 1", CalendarID: "cal-bay1"},
	{ID: "bay2", Name: "Service Bay 2", CalendarID: "cal-bay2"},
}

func TestMemoryStoreBusyAndProjection(t *testing.T) {
	store := NewMemoryStore(memBays)
	ctx := context.Background()

	start := time.Date(2024, 11, 25, 10, 0, 0, 0, time.UTC)
	id, err := store.Insert(ctx, "cal-bay1", models.Appointment{
		Start:        start,
		End:          start.Add(time.Hour),
		ServiceName:  "Oil Change",
		CustomerName: "James Peterson",
	})
	require.NoError(t, err)
	require.NotEmpty(t, id)

	busy, err := store.ListBusy(ctx, "cal-bay1", start.Add(-time.Hour), start.Add(2*time.Hour))
	require.NoError(t, err)
	require.Len(t, busy, 1)
	assert.Equal(t, start, busy[0].Start)

	// Half-open: an event ending exactly at the range start is not busy.
	busy, err = store.ListBusy(ctx, "cal-bay1", start.Add(time.Hour), start.Add(2*time.Hour))
	require.NoError(t, err)
	assert.Empty(t, busy)

	// Other calendar is unaffected.
	busy, err = store.ListBusy(ctx, "cal-bay2", start, start.Add(time.Hour))
	require.NoError(t, err)
	assert.Empty(t, busy)

	appts, err := store.ListAppointments(ctx, start.Add(-time.Hour), start.Add(2*time.Hour))
	require.NoError(t, err)
	require.Len(t, appts, 1)
	assert.Equal(t, "bay1", appts[0].BayID)
	assert.Equal(t, id, appts[0].ID)
}

func TestMemoryStoreProjectionOrdered(t *testing.T) {
	store := NewMemoryStore(memBays)
	ctx := context.Background()
	base := time.Date(2024, 11, 25, 8, 0, 0, 0, time.UTC)

	_, err := store.Insert(ctx, "cal-bay2", models.Appointment{Start: base.Add(4 * time.Hour), End: base.Add(5 * time.Hour)})
	require.NoError(t, err)
	_, err = store.Insert(ctx, "cal-bay1", models.Appointment{Start: base, End: base.Add(time.Hour)})
	require.NoError(t, err)
	_, err = store.Insert(ctx, "cal-bay1", models.Appointment{Start: base.Add(2 * time.Hour), End: base.Add(3 * time.Hour)})
	require.NoError(t, err)

	appts, err := store.ListAppointments(ctx, base, base.Add(8*time.Hour))
	require.NoError(t, err)
	require.Len(t, appts, 3)
	assert.True(t, appts[0].Start.Before(appts[1].Start))
	assert.True(t, appts[1].Start.Before(appts[2].Start))
}

func TestMemoryStoreFailInserts(t *testing.T) {
	store := NewMemoryStore(memBays)
	store.FailInserts(true)

	_, err := store.Insert(context.Background(), "cal-bay1", models.Appointment{})
	assert.Error(t, err)
	assert.Zero(t, store.Count("cal-bay1"))

	store.FailInserts(false)
	_, err = store.Insert(context.Background(), "cal-bay1", models.Appointment{})
	assert.NoError(t, err)
}
