package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/bayt-al-hikmah/taskgate/internal/storage"
)

// RedisStore counts against a shared Redis so limits hold cluster-wide
// across gateway instances. Windows are aligned to wall-clock
// multiples of the window length; INCR is atomic on the server, so two
// concurrent first requests in a window can never both observe
// count=1.
type RedisStore struct {
	redis   *storage.RedisClient
	timeout time.Duration
}

// NewRedisStore wraps the shared client. timeout bounds every store
// round trip; zero picks a conservative default.
func NewRedisStore(redis *storage.RedisClient, timeout time.Duration) *RedisStore {
	if timeout <= 0 {
		timeout = 500 * time.Millisecond
	}
	return &RedisStore{redis: redis, timeout: timeout}
}

// windowBounds aligns now to the fixed window containing it. Every
// instance derives the same window index and reset time from its own
// clock, so counters shard by wall-clock window and the reset time
// needs no PTTL round trip. The index has one-second resolution;
// shorter windows clamp to one second.
func windowBounds(now time.Time, window time.Duration) (index int64, expiresAt time.Time) {
	windowSecs := int64(window.Seconds())
	if windowSecs < 1 {
		windowSecs = 1
	}

	index = now.Unix() / windowSecs
	return index, time.Unix((index+1)*windowSecs, 0)
}

func windowKey(key string, index int64) string {
	return fmt.Sprintf("throttle:%s:%d", key, index)
}

func (s *RedisStore) Increment(ctx context.Context, key string, window time.Duration) (int64, time.Time, error) {
	index, expiresAt := windowBounds(time.Now(), window)
	redisKey := windowKey(key, index)

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	pipe := s.redis.Client.TxPipeline()
	counter := pipe.Incr(ctx, redisKey)
	// Expire is a no-op refinement past the first call; the window key
	// dies shortly after the window it names either way.
	pipe.Expire(ctx, redisKey, window+time.Second)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, time.Time{}, fmt.Errorf("counter increment: %w", err)
	}

	return counter.Val(), expiresAt, nil
}
