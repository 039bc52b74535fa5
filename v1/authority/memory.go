package authority

import (
	"context"
	"sync"
	"time"
)

type record struct {
	token   string
	expires time.Time
	timer   *time.Timer
}

// Memory implements Client using local memory. It mirrors the Redis
// semantics and is intended for tests and single-process setups.
type Memory struct {
	mu      sync.Mutex
	records map[string]*record
}

// NewMemory returns a new in-memory authority store.
func NewMemory() *Memory {
	return &Memory{records: make(map[string]*record)}
}

// Acquire implements Client.Acquire.
func (m *Memory) Acquire(_ context.Context, key, token string, ttl time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.records[key]
	if ok && !m.expired(rec) && rec.token != token {
		return false, nil
	}
	if ok && rec.timer != nil {
		rec.timer.Stop()
	}
	nr := &record{token: token}
	if ttl > 0 {
		nr.expires = time.Now().Add(ttl)
		nr.timer = time.AfterFunc(ttl, func() { m.expire(key, nr) })
	}
	m.records[key] = nr
	return true, nil
}

// Release implements Client.Release.
func (m *Memory) Release(_ context.Context, key, token string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.records[key]
	if !ok || m.expired(rec) || rec.token != token {
		return false, nil
	}
	if rec.timer != nil {
		rec.timer.Stop()
	}
	delete(m.records, key)
	return true, nil
}

// Close implements Client.Close.
func (m *Memory) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for key, rec := range m.records {
		if rec.timer != nil {
			rec.timer.Stop()
		}
		delete(m.records, key)
	}
	return nil
}

func (m *Memory) expired(rec *record) bool {
	return !rec.expires.IsZero() && time.Now().After(rec.expires)
}

func (m *Memory) expire(key string, rec *record) {
	m.mu.Lock()
	if cur, ok := m.records[key]; ok && cur == rec {
		delete(m.records, key)
	}
	m.mu.Unlock()
}
