package repository

import (
	"context"
	"sync/atomic"
	"time"

	"bayline/internal/domain"
	"bayline/internal/models"

	"github.com/rs/zerolog"
)

// FailoverProjectionCache prefers the primary (Redis) cache and falls back to
// the in-memory one when it errors, retrying the primary after a minute.
type FailoverProjectionCache struct {
	primary   domain.ProjectionCache
	fallback  domain.ProjectionCache
	logger    *zerolog.Logger
	isDown    atomic.Bool
	lastCheck atomic.Int64
}

func NewFailoverProjectionCache(primary, fallback domain.ProjectionCache, logger *zerolog.Logger) *FailoverProjectionCache {
	return &FailoverProjectionCache{primary: primary, fallback: fallback, logger: logger}
}

func (f *FailoverProjectionCache) GetRange(ctx context.Context, min, max time.Time) ([]models.Appointment, bool, error) {
	if f.primaryUsable() {
		appts, ok, err := f.primary.GetRange(ctx, min, max)
		if err == nil {
			f.markUp()
			return appts, ok, nil
		}
		f.markDown(err)
	}
	return f.fallback.GetRange(ctx, min, max)
}

func (f *FailoverProjectionCache) SetRange(ctx context.Context, min, max time.Time, appts []models.Appointment) error {
	if f.primaryUsable() {
		if err := f.primary.SetRange(ctx, min, max, appts); err == nil {
			f.markUp()
			return nil
		} else {
			f.markDown(err)
		}
	}
	return f.fallback.SetRange(ctx, min, max, appts)
}

func (f *FailoverProjectionCache) Invalidate(ctx context.Context) error {
	// Both sides are invalidated: a booking must never be hidden by a stale
	// snapshot in whichever cache serves the next read.
	var primaryErr error
	if f.primaryUsable() {
		if primaryErr = f.primary.Invalidate(ctx); primaryErr != nil {
			f.markDown(primaryErr)
		}
	}
	return f.fallback.Invalidate(ctx)
}

func (f *FailoverProjectionCache) primaryUsable() bool {
	if !f.isDown.Load() {
		return true
	}
	// Retry the primary after a cool-off.
	if time.Since(time.Unix(f.lastCheck.Load(), 0)) > time.Minute {
		return true
	}
	return false
}

func (f *FailoverProjectionCache) markDown(err error) {
	if f.logger != nil {
		f.logger.Error().Err(err).Msg("primary projection cache failed, falling back to memory")
	}
	f.isDown.Store(true)
	f.lastCheck.Store(time.Now().Unix())
}

func (f *FailoverProjectionCache) markUp() {
	f.isDown.Store(false)
}
