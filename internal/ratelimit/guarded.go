package ratelimit

import (
	"context"
	"time"

	"github.com/bayt-al-hikmah/taskgate/internal/circuitbreaker"
)

// GuardedStore wraps a networked CounterStore with a circuit breaker
// so a flapping backend fails fast instead of stalling every request
// on a timeout. A tripped breaker surfaces as a store error, which the
// throttle resolves per its fail-open/fail-closed policy.
type GuardedStore struct {
	inner   CounterStore
	breaker *circuitbreaker.Breaker
}

func NewGuardedStore(inner CounterStore, breaker *circuitbreaker.Breaker) *GuardedStore {
	return &GuardedStore{inner: inner, breaker: breaker}
}

func (g *GuardedStore) Increment(ctx context.Context, key string, window time.Duration) (int64, time.Time, error) {
	var (
		count     int64
		expiresAt time.Time
	)

	err := g.breaker.Do(func() error {
		var err error
		count, expiresAt, err = g.inner.Increment(ctx, key, window)
		return err
	})
	if err != nil {
		return 0, time.Time{}, err
	}

	return count, expiresAt, nil
}
