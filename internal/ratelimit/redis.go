package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// hitScript increments the counter and arms the expiry on the first hit of a
// window, in one round trip so concurrent instances cannot lose the TTL.
var hitScript = redis.NewScript(`
local n = redis.call("INCR", KEYS[1])
if n == 1 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
return n
`)

// RedisStore is a Store shared by every instance pointing at the same Redis.
// A window is a counter key whose TTL is the window length; the key expiring
// is the window ending.
type RedisStore struct {
	client redis.Scripter
	prefix string
}

// NewRedisStore returns a RedisStore that namespaces keys with prefix
// (e.g. "rl:").
func NewRedisStore(client redis.Scripter, prefix string) *RedisStore {
	return &RedisStore{client: client, prefix: prefix}
}

// Hit implements Store.
func (s *RedisStore) Hit(ctx context.Context, key string, d time.Duration) (int64, error) {
	ms := d.Milliseconds()
	if ms <= 0 {
		ms = 1
	}
	n, err := hitScript.Run(ctx, s.client, []string{s.prefix + key}, ms).Int64()
	if err != nil {
		return 0, fmt.Errorf("ratelimit: redis hit: %w", err)
	}
	return n, nil
}
