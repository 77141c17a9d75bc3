package repository

import (
	"context"
	"sync"
	"time"
)

// MemoryThrottleStore is the single-process fallback for RedisThrottleStore.
type MemoryThrottleStore struct {
	mu      sync.Mutex
	entries map[string]*throttleEntry
	now     func() time.Time
}

type throttleEntry struct {
	count     int
	expiresAt time.Time
}

func NewMemoryThrottleStore() *MemoryThrottleStore {
	return &MemoryThrottleStore{
		entries: make(map[string]*throttleEntry),
		now:     time.Now,
	}
}

func (m *MemoryThrottleStore) Allow(_ context.Context, key string, limit int, window time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	entry, ok := m.entries[key]
	if !ok || !now.Before(entry.expiresAt) {
		entry = &throttleEntry{expiresAt: now.Add(window)}
		m.entries[key] = entry
	}
	entry.count++

	m.sweep(now)
	return entry.count <= limit, nil
}

// sweep drops expired windows once the map grows large.
func (m *MemoryThrottleStore) sweep(now time.Time) {
	if len(m.entries) < 1024 {
		return
	}
	for k, e := range m.entries {
		if !now.Before(e.expiresAt) {
			delete(m.entries, k)
		}
	}
}
