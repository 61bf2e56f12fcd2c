package store

import (
	"context"
	"sync"
	"time"

	"sparkfish/internal/ratelimit/models"
)

// sweepThreshold bounds how many windows accumulate before expired ones are dropped.
const sweepThreshold = 4096

type window struct {
	count   int64
	resetAt time.Time
}

// Memory is a process-local fixed-window counter. Counts are not shared
// between replicas.
type Memory struct {
	mu      sync.Mutex
	windows map[string]*window
	now     func() time.Time
}

type MemoryOption func(*Memory)

// WithClock overrides the time source.
func WithClock(now func() time.Time) MemoryOption {
	return func(m *Memory) {
		m.now = now
	}
}

func NewMemory(opts ...MemoryOption) *Memory {
	m := &Memory{
		windows: make(map[string]*window),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Allow counts one hit against key and reports whether it fits in limit.
func (m *Memory) Allow(_ context.Context, key string, limit int, ttl time.Duration) (*models.Result, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	w := m.windows[key]
	if w == nil || !now.Before(w.resetAt) {
		if len(m.windows) >= sweepThreshold {
			m.sweep(now)
		}
		w = &window{resetAt: now.Add(ttl)}
		m.windows[key] = w
	}
	w.count++
	return models.Decide(w.count, limit, now, w.resetAt), nil
}

// Reset clears the counter for key.
func (m *Memory) Reset(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.windows, key)
	return nil
}

// sweep drops expired windows. Must be called with mu held.
func (m *Memory) sweep(now time.Time) {
	for k, w := range m.windows {
		if !now.Before(w.resetAt) {
			delete(m.windows, k)
		}
	}
}
