package rediscache

import (
	"context"
	"encoding/json"
	"sync"
	"time"
)

type memEntry struct {
	raw     []byte
	count   int64
	expires time.Time
}

type memoryCache struct {
	mu     sync.Mutex
	prefix string
	items  map[string]memEntry
	now    func() time.Time
}

// NewMemory returns a single-process Cache with the same expiry semantics as Redis.
func NewMemory(prefix string) Cache {
	return &memoryCache{prefix: prefix, items: map[string]memEntry{}, now: time.Now}
}

func (m *memoryCache) Backend() string { return "memory" }

// lookup must be called with mu held.
func (m *memoryCache) lookup(k string) (memEntry, bool) {
	e, ok := m.items[k]
	if !ok {
		return memEntry{}, false
	}
	if !e.expires.IsZero() && !m.now().Before(e.expires) {
		delete(m.items, k)
		return memEntry{}, false
	}
	return e, true
}

func (m *memoryCache) GetJSON(_ context.Context, key string, dst any) (bool, error) {
	m.mu.Lock()
	e, ok := m.lookup(Key(m.prefix, key))
	m.mu.Unlock()
	if !ok || e.raw == nil {
		return false, nil
	}
	if err := json.Unmarshal(e.raw, dst); err != nil {
		return false, nil
	}
	return true, nil
}

func (m *memoryCache) SetJSON(_ context.Context, key string, v any, ttl time.Duration) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	e := memEntry{raw: raw}
	if ttl > 0 {
		e.expires = m.now().Add(ttl)
	}
	m.mu.Lock()
	m.items[Key(m.prefix, key)] = e
	m.mu.Unlock()
	return nil
}

func (m *memoryCache) Incr(_ context.Context, key string, ttl time.Duration) (int64, error) {
	k := Key(m.prefix, key)
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.lookup(k)
	if !ok && ttl > 0 {
		e.expires = m.now().Add(ttl)
	}
	e.count++
	m.items[k] = e
	return e.count, nil
}

func (m *memoryCache) Counter(_ context.Context, key string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, _ := m.lookup(Key(m.prefix, key))
	return e.count, nil
}

func (m *memoryCache) Close() error { return nil }
