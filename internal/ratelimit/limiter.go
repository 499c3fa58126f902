// Package ratelimit implements the fixed-window request counter that guards
// the booking endpoint.
//
// A window opens on the first request for a key and lasts Limit.Window. Every
// request inside the window increments the counter; the request is limited
// once the counter exceeds Limit.Max. When the window ends the counter starts
// again at 1, regardless of how far over the quota the key was.
//
// Counting is delegated to a Store. MemoryStore keeps the counters in the
// process (the default for a single instance); RedisStore shares them between
// instances behind the same contract.
package ratelimit

import (
	"context"
	"time"
)

// Limit is the quota applied to every key.
type Limit struct {
	Max    int           // requests allowed per window
	Window time.Duration // window length
}

// DefaultLimit allows 5 requests per 15 minutes.
var DefaultLimit = Limit{Max: 5, Window: 15 * time.Minute}

// Store counts hits for a key inside a fixed window.
//
// Hit records one request for key and returns the number of requests seen in
// the key's current window, opening a fresh window (count 1) when there is
// none or the previous one has ended. The read-increment-write must be atomic
// per key.
type Store interface {
	Hit(ctx context.Context, key string, window time.Duration) (int64, error)
}

// Limiter answers whether a key has exceeded its quota.
// It is safe for concurrent use when its Store is.
type Limiter struct {
	store Store
	limit Limit
}

// New returns a Limiter backed by store. Zero fields in limit fall back to
// DefaultLimit.
func New(store Store, limit Limit) *Limiter {
	if limit.Max <= 0 {
		limit.Max = DefaultLimit.Max
	}
	if limit.Window <= 0 {
		limit.Window = DefaultLimit.Window
	}
	return &Limiter{store: store, limit: limit}
}

// Limit returns the quota in effect.
func (l *Limiter) Limit() Limit { return l.limit }

// IsRateLimited records a request for key and reports whether it must be
// rejected. The first Max requests of a window are allowed; the (Max+1)th and
// later are limited until the window ends.
func (l *Limiter) IsRateLimited(ctx context.Context, key string) (bool, error) {
	n, err := l.store.Hit(ctx, key, l.limit.Window)
	if err != nil {
		return false, err
	}
	return n > int64(l.limit.Max), nil
}
