package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"bayline/internal/models"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type flakyCache struct {
	inner *MemoryProjectionCache
	fail  bool
	calls int
}

func (f *flakyCache) GetRange(ctx context.Context, min, max time.Time) ([]models.Appointment, bool, error) {
	f.calls++
	if f.fail {
		return nil, false, errors.New("connection refused")
	}
	return f.inner.GetRange(ctx, min, max)
}

func (f *flakyCache) SetRange(ctx context.Context, min, max time.Time, appts []models.Appointment) error {
	f.calls++
	if f.fail {
		return errors.New("connection refused")
	}
	return f.inner.SetRange(ctx, min, max, appts)
}

func (f *flakyCache) Invalidate(ctx context.Context) error {
	f.calls++
	if f.fail {
		return errors.New("connection refused")
	}
	return f.inner.Invalidate(ctx)
}

func TestFailoverPrefersPrimary(t *testing.T) {
	primary := &flakyCache{inner: NewMemoryProjectionCache(time.Minute)}
	fallback := NewMemoryProjectionCache(time.Minute)
	logger := zerolog.Nop()
	cache := NewFailoverProjectionCache(primary, fallback, &logger)

	ctx := context.Background()
	min, max, appts := sampleRange()

	require.NoError(t, cache.SetRange(ctx, min, max, appts))
	got, ok, err := cache.GetRange(ctx, min, max)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Len(t, got, 1)
	assert.Positive(t, primary.calls)
}

func TestFailoverFallsBackAndSticks(t *testing.T) {
	primary := &flakyCache{inner: NewMemoryProjectionCache(time.Minute), fail: true}
	fallback := NewMemoryProjectionCache(time.Minute)
	logger := zerolog.Nop()
	cache := NewFailoverProjectionCache(primary, fallback, &logger)

	ctx := context.Background()
	min, max, appts := sampleRange()

	require.NoError(t, cache.SetRange(ctx, min, max, appts))

	got, ok, err := cache.GetRange(ctx, min, max)
	require.NoError(t, err)
	require.True(t, ok, "fallback must serve the data")
	assert.Len(t, got, 1)

	// While marked down the primary is not retried on every call.
	callsAfterFailure := primary.calls
	_, _, err = cache.GetRange(ctx, min, max)
	require.NoError(t, err)
	assert.Equal(t, callsAfterFailure, primary.calls)
}

func TestFailoverInvalidateAlwaysClearsFallback(t *testing.T) {
	primary := &flakyCache{inner: NewMemoryProjectionCache(time.Minute), fail: true}
	fallback := NewMemoryProjectionCache(time.Minute)
	logger := zerolog.Nop()
	cache := NewFailoverProjectionCache(primary, fallback, &logger)

	ctx := context.Background()
	min, max, appts := sampleRange()

	require.NoError(t, fallback.SetRange(ctx, min, max, appts))
	require.NoError(t, cache.Invalidate(ctx))

	_, ok, err := fallback.GetRange(ctx, min, max)
	require.NoError(t, err)
	assert.False(t, ok)
}
