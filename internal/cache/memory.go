package cache

import (
	"context"
	"sync"
	"time"
)

type entry struct {
	payload   []byte
	expiresAt time.Time
}

// Memory is a concurrency-safe in-memory Cache with lazy TTL expiry:
// stale entries are detected at read time, not swept proactively, and
// get overwritten by the next Set for the key.
type Memory struct {
	mu   sync.RWMutex
	data map[string]entry

	now func() time.Time
}

// NewMemory creates an empty in-memory cache.
func NewMemory() *Memory {
	return &Memory{
		data: make(map[string]entry),
		now:  time.Now,
	}
}

// Get returns the stored payload, or ErrMiss when the key is absent or
// its TTL has elapsed.
func (m *Memory) Get(ctx context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	e, ok := m.data[key]
	if !ok || m.now().After(e.expiresAt) {
		return nil, ErrMiss
	}

	// Copy out so callers can not mutate the stored entry.
	out := make([]byte, len(e.payload))
	copy(out, e.payload)
	return out, nil
}

// Set stores a copy of payload under key for ttl, replacing any previous
// entry wholesale.
func (m *Memory) Set(ctx context.Context, key string, payload []byte, ttl time.Duration) error {
	stored := make([]byte, len(payload))
	copy(stored, payload)

	m.mu.Lock()
	defer m.mu.Unlock()

	m.data[key] = entry{
		payload:   stored,
		expiresAt: m.now().Add(ttl),
	}
	return nil
}

// Len reports the number of entries currently held, including ones that
// are stale but not yet overwritten.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.data)
}
