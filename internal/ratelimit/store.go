package ratelimit

import (
	"context"
	"time"
)

// CounterStore is the persistence contract for fixed-window request
// counting. Increment atomically creates the entry for key with
// count=1 if absent or expired, otherwise increments it, and returns
// the post-increment count together with the moment the current window
// ends. Implementations must stay atomic under concurrent callers
// sharing a key: two simultaneous first requests must never both see
// count=1.
type CounterStore interface {
	Increment(ctx context.Context, key string, window time.Duration) (count int64, expiresAt time.Time, err error)
}
