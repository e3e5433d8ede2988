// Package ratelimit implements fixed-window request counting keyed by an
// arbitrary string (client IP for login).
package ratelimit

import (
	"context"
	"sync"
	"time"
)

// Limiter reports whether key may proceed. When it may not, retryAfter is the
// time left in the current window.
type Limiter interface {
	Allow(ctx context.Context, key string) (allowed bool, retryAfter time.Duration, err error)
}

type bucket struct {
	count     int
	windowEnd time.Time
}

// Memory is a per-process limiter. Expired buckets are dropped lazily.
type Memory struct {
	mu      sync.Mutex
	window  time.Duration
	limit   int
	clients map[string]*bucket
	now     func() time.Time
	seen    int
}

func NewMemory(limit int, window time.Duration) *Memory {
	return &Memory{
		limit:   limit,
		window:  window,
		clients: make(map[string]*bucket),
		now:     time.Now,
	}
}

func (m *Memory) Allow(_ context.Context, key string) (bool, time.Duration, error) {
	now := m.now()

	m.mu.Lock()
	defer m.mu.Unlock()

	m.seen++
	if m.seen%1024 == 0 {
		m.sweep(now)
	}

	b, ok := m.clients[key]
	if !ok || now.After(b.windowEnd) {
		m.clients[key] = &bucket{count: 1, windowEnd: now.Add(m.window)}
		return true, 0, nil
	}

	if b.count >= m.limit {
		retry := b.windowEnd.Sub(now)
		if retry < 0 {
			retry = 0
		}
		return false, retry, nil
	}

	b.count++
	return true, 0, nil
}

func (m *Memory) sweep(now time.Time) {
	for k, b := range m.clients {
		if now.After(b.windowEnd) {
			delete(m.clients, k)
		}
	}
}
