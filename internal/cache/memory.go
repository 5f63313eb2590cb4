package cache

import (
	"context"
	"sync"
	"time"
)

type memoryEntry struct {
	data     []byte
	storedAt time.Time
	ttl      time.Duration
}

// MemoryCache is an in-memory cache with per-entry TTL. Expiry is checked on
// read and stale entries are evicted lazily at that point — no background
// sweep. Call volume is already capped by the rate limiter, so a timer would
// buy nothing.
type MemoryCache struct {
	mu    sync.Mutex
	items map[string]memoryEntry

	now func() time.Time
}

// NewMemoryCache creates a new in-memory cache.
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{
		items: make(map[string]memoryEntry),
		now:   time.Now,
	}
}

func (m *MemoryCache) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.items[key]
	if !ok {
		return nil, nil
	}
	if m.now().Sub(entry.storedAt) >= entry.ttl {
		delete(m.items, key)
		return nil, nil
	}
	return entry.data, nil
}

// Set stores value under key. A write overwrites silently: at most one entry
// per key.
func (m *MemoryCache) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	m.mu.Lock()
	m.items[key] = memoryEntry{
		data:     value,
		storedAt: m.now(),
		ttl:      ttl,
	}
	m.mu.Unlock()
	return nil
}

func (m *MemoryCache) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	delete(m.items, key)
	m.mu.Unlock()
	return nil
}

// Len returns the number of stored entries, expired or not. Stale entries
// linger until the next Get touches them.
func (m *MemoryCache) Len(_ context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return int64(len(m.items)), nil
}
