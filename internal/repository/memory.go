package repository

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"bayline/internal/models"
)

// MemoryProjectionCache is the fallback cache when Redis is unavailable.
type MemoryProjectionCache struct {
	entries sync.Map
	gen     atomic.Int64
	ttl     time.Duration
}

type memoryEntry struct {
	appts     []models.Appointment
	expiresAt time.Time
}

func NewMemoryProjectionCache(ttl time.Duration) *MemoryProjectionCache {
	return &MemoryProjectionCache{ttl: ttl}
}

func (m *MemoryProjectionCache) GetRange(ctx context.Context, min, max time.Time) ([]models.Appointment, bool, error) {
	key := m.key(min, max)
	val, ok := m.entries.Load(key)
	if !ok {
		return nil, false, nil
	}
	entry := val.(memoryEntry)
	if time.Now().After(entry.expiresAt) {
		m.entries.Delete(key)
		return nil, false, nil
	}
	return entry.appts, true, nil
}

func (m *MemoryProjectionCache) SetRange(ctx context.Context, min, max time.Time, appts []models.Appointment) error {
	m.entries.Store(m.key(min, max), memoryEntry{appts: appts, expiresAt: time.Now().Add(m.ttl)})
	return nil
}

func (m *MemoryProjectionCache) Invalidate(ctx context.Context) error {
	m.gen.Add(1)
	// Every stored key carries an older generation now; sweep them so the
	// map does not grow with each invalidation. The generation in the key
	// still shields readers from a concurrent Set racing the sweep.
	m.entries.Range(func(key, _ interface{}) bool {
		m.entries.Delete(key)
		return true
	})
	return nil
}

func (m *MemoryProjectionCache) key(min, max time.Time) string {
	return fmt.Sprintf("%d:%d-%d", m.gen.Load(), min.Unix(), max.Unix())
}
