package ratelimit

import (
	"context"
	"sync"
	"time"
)

// DefaultSweepInterval is how often MemoryStore purges ended windows.
const DefaultSweepInterval = 60 * time.Second

type window struct {
	count int64
	end   time.Time
}

// MemoryStore is a process-local Store.
//
// All counters live in one map guarded by a mutex. Ended windows are reset
// lazily on the next hit for their key; in addition, when more than the sweep
// interval has elapsed since the last sweep, a hit purges every entry whose
// window ended before now so idle keys do not accumulate.
type MemoryStore struct {
	mu        sync.Mutex
	entries   map[string]*window
	now       func() time.Time
	sweep     time.Duration
	lastSweep time.Time
}

// MemoryOption customizes a MemoryStore.
type MemoryOption func(*MemoryStore)

// WithClock injects the time source (tests use a fake clock).
func WithClock(now func() time.Time) MemoryOption {
	return func(s *MemoryStore) {
		if now != nil {
			s.now = now
		}
	}
}

// WithSweepInterval overrides DefaultSweepInterval. Values <= 0 are ignored.
func WithSweepInterval(d time.Duration) MemoryOption {
	return func(s *MemoryStore) {
		if d > 0 {
			s.sweep = d
		}
	}
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore(opts ...MemoryOption) *MemoryStore {
	s := &MemoryStore{
		entries: make(map[string]*window),
		now:     time.Now,
		sweep:   DefaultSweepInterval,
	}
	for _, o := range opts {
		o(s)
	}
	s.lastSweep = s.now()
	return s
}

// Hit implements Store. It never returns an error.
func (s *MemoryStore) Hit(_ context.Context, key string, d time.Duration) (int64, error) {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	if now.Sub(s.lastSweep) > s.sweep {
		s.purge(now)
		s.lastSweep = now
	}

	w, ok := s.entries[key]
	if !ok || !now.Before(w.end) {
		s.entries[key] = &window{count: 1, end: now.Add(d)}
		return 1, nil
	}
	w.count++
	return w.count, nil
}

// Len reports the number of tracked keys.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// purge drops entries whose window ended before now. Caller holds s.mu.
func (s *MemoryStore) purge(now time.Time) {
	for k, w := range s.entries {
		if w.end.Before(now) {
			delete(s.entries, k)
		}
	}
}
