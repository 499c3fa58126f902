package ratelimit

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 3, 25, 9, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func newTestLimiter(clk *fakeClock) (*Limiter, *MemoryStore) {
	store := NewMemoryStore(WithClock(clk.Now))
	return New(store, Limit{}), store
}

func TestLimiter_AllowsMaxThenLimits(t *testing.T) {
	clk := newFakeClock()
	l, _ := newTestLimiter(clk)
	ctx := context.Background()

	for i := 1; i <= 5; i++ {
		limited, err := l.IsRateLimited(ctx, "booking:1.2.3.4")
		require.NoError(t, err)
		assert.Falsef(t, limited, "request %d should be allowed", i)
	}
	for i := 6; i <= 8; i++ {
		limited, err := l.IsRateLimited(ctx, "booking:1.2.3.4")
		require.NoError(t, err)
		assert.Truef(t, limited, "request %d should be limited", i)
	}
}

func TestLimiter_KeysAreIndependent(t *testing.T) {
	clk := newFakeClock()
	l := New(NewMemoryStore(WithClock(clk.Now)), Limit{Max: 1, Window: time.Minute})
	ctx := context.Background()

	limited, _ := l.IsRateLimited(ctx, "a")
	assert.False(t, limited)
	limited, _ = l.IsRateLimited(ctx, "a")
	assert.True(t, limited)
	limited, _ = l.IsRateLimited(ctx, "b")
	assert.False(t, limited)
}

func TestLimiter_WindowBoundary(t *testing.T) {
	clk := newFakeClock()
	l, _ := newTestLimiter(clk)
	ctx := context.Background()
	window := DefaultLimit.Window

	// Exhaust the first window.
	for i := 0; i < 6; i++ {
		_, _ = l.IsRateLimited(ctx, "k")
	}

	// One millisecond before the window ends the old window still applies.
	clk.Advance(window - time.Millisecond)
	limited, err := l.IsRateLimited(ctx, "k")
	require.NoError(t, err)
	assert.True(t, limited)

	// Past the end a fresh window starts at count 1.
	clk.Advance(2 * time.Millisecond)
	limited, err = l.IsRateLimited(ctx, "k")
	require.NoError(t, err)
	assert.False(t, limited)

	for i := 2; i <= 5; i++ {
		limited, _ = l.IsRateLimited(ctx, "k")
		assert.Falsef(t, limited, "request %d of the new window", i)
	}
	limited, _ = l.IsRateLimited(ctx, "k")
	assert.True(t, limited)
}

func TestLimiter_ResetsExactlyAtWindowEnd(t *testing.T) {
	clk := newFakeClock()
	store := NewMemoryStore(WithClock(clk.Now))
	ctx := context.Background()

	n, _ := store.Hit(ctx, "k", time.Minute)
	assert.EqualValues(t, 1, n)
	n, _ = store.Hit(ctx, "k", time.Minute)
	assert.EqualValues(t, 2, n)

	clk.Advance(time.Minute)
	n, _ = store.Hit(ctx, "k", time.Minute)
	assert.EqualValues(t, 1, n, "now == windowEnd opens a new window")
}

func TestLimiter_NewDefaults(t *testing.T) {
	l := New(NewMemoryStore(), Limit{Max: -1})
	assert.Equal(t, DefaultLimit, l.Limit())

	l = New(NewMemoryStore(), Limit{Max: 3, Window: time.Second})
	assert.Equal(t, Limit{Max: 3, Window: time.Second}, l.Limit())
}

func TestMemoryStore_SweepPurgesEndedWindows(t *testing.T) {
	clk := newFakeClock()
	store := NewMemoryStore(WithClock(clk.Now))
	ctx := context.Background()

	_, _ = store.Hit(ctx, "short", 10*time.Second)
	_, _ = store.Hit(ctx, "long", time.Hour)
	require.Equal(t, 2, store.Len())

	// Within the sweep interval nothing is purged even though "short" ended.
	clk.Advance(30 * time.Second)
	_, _ = store.Hit(ctx, "long", time.Hour)
	assert.Equal(t, 2, store.Len())

	// After the interval the next hit sweeps.
	clk.Advance(31 * time.Second)
	_, _ = store.Hit(ctx, "long", time.Hour)
	assert.Equal(t, 1, store.Len())
}

func TestMemoryStore_SweepInterval(t *testing.T) {
	clk := newFakeClock()
	store := NewMemoryStore(WithClock(clk.Now), WithSweepInterval(time.Second))
	ctx := context.Background()

	_, _ = store.Hit(ctx, "a", 500*time.Millisecond)
	clk.Advance(2 * time.Second)
	_, _ = store.Hit(ctx, "b", time.Minute)
	assert.Equal(t, 1, store.Len())
}

func TestMemoryStore_ConcurrentHitsAreCounted(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	const workers, perWorker = 16, 50
	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			for j := 0; j < perWorker; j++ {
				_, _ = store.Hit(ctx, "shared", time.Hour)
			}
		}()
	}
	wg.Wait()

	n, err := store.Hit(ctx, "shared", time.Hour)
	require.NoError(t, err)
	assert.EqualValues(t, workers*perWorker+1, n)
}
