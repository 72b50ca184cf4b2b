package repository

import (
	"context"
	"testing"
	"time"

	"bayline/internal/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedisCache(t *testing.T) *RedisProjectionCache {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewRedisProjectionCache(client, time.Minute)
}

func sampleRange() (time.Time, time.Time, []models.Appointment) {
	min := time.Date(2024, 11, 25, 0, 0, 0, 0, time.UTC)
	max := min.AddDate(0, 0, 7)
	appts := []models.Appointment{
		{ID: "a1", BayID: "bay1", Start: min.Add(10 * time.Hour), End: min.Add(11 * time.Hour), ServiceName: "Oil Change", CustomerName: "James Peterson"},
	}
	return min, max, appts
}

func TestRedisCacheRoundTrip(t *testing.T) {
	cache := newTestRedisCache(t)
	ctx := context.Background()
	min, max, appts := sampleRange()

	_, ok, err := cache.GetRange(ctx, min, max)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, cache.SetRange(ctx, min, max, appts))

	got, ok, err := cache.GetRange(ctx, min, max)
	require.NoError(t, err)
	require.True(t, ok)
	require.Len(t, got, 1)
	assert.Equal(t, "a1", got[0].ID)
}

func TestRedisCacheInvalidate(t *testing.T) {
	cache := newTestRedisCache(t)
	ctx := context.Background()
	min, max, appts := sampleRange()

	require.NoError(t, cache.SetRange(ctx, min, max, appts))
	require.NoError(t, cache.Invalidate(ctx))

	_, ok, err := cache.GetRange(ctx, min, max)
	require.NoError(t, err)
	assert.False(t, ok, "invalidated range must miss")
}

func TestRedisCacheNilClient(t *testing.T) {
	cache := NewRedisProjectionCache(nil, time.Minute)
	ctx := context.Background()
	min, max, appts := sampleRange()

	_, _, err := cache.GetRange(ctx, min, max)
	assert.Error(t, err)
	assert.Error(t, cache.SetRange(ctx, min, max, appts))
	assert.Error(t, cache.Invalidate(ctx))
}
