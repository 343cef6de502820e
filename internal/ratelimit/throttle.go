package ratelimit

import (
	"context"
	"fmt"
	"time"
)

// Well-known scope names. Routes may declare additional named scopes
// in configuration.
const (
	ScopeAnon = "anon"
	ScopeUser = "user"
)

// Rule is one scope's limit: at most MaxCount requests per Window.
// RedisStore aligns windows to whole seconds, so a sub-second Window
// runs as one second there; MemoryStore honors it exactly.
type Rule struct {
	Window   time.Duration
	MaxCount int64
}

// Decision is the outcome of one throttle check.
type Decision struct {
	Allowed    bool
	Limit      int64
	Remaining  int64
	RetryAfter time.Duration
	ResetAt    time.Time
}

// Throttle evaluates requests against per-scope rules backed by a
// CounterStore. It never touches counter state directly; all mutation
// goes through the store's atomic Increment.
type Throttle struct {
	store    CounterStore
	rules    map[string]Rule
	failOpen bool
}

// NewThrottle builds the engine. failOpen decides what happens when
// the store is unreachable: true allows the request through (limits
// weaken during outages), false rejects it. The choice is deliberate
// configuration, never a side effect.
func NewThrottle(store CounterStore, rules map[string]Rule, failOpen bool) (*Throttle, error) {
	if store == nil {
		return nil, fmt.Errorf("counter store is required")
	}
	for name, rule := range rules {
		if rule.MaxCount <= 0 || rule.Window <= 0 {
			return nil, fmt.Errorf("scope %q must have positive window and max count", name)
		}
	}

	return &Throttle{store: store, rules: rules, failOpen: failOpen}, nil
}

// HasScope reports whether a rule is configured for the scope.
func (t *Throttle) HasScope(scope string) bool {
	_, ok := t.rules[scope]
	return ok
}

// Check increments the counter for scope+identity and decides whether
// the request may proceed. The request that first pushes the count
// past MaxCount is itself rejected: MaxCount requests pass, the
// (MaxCount+1)-th is denied. A scope with no configured rule bypasses
// counting entirely.
//
// On store failure the returned error carries the cause and
// Decision.Allowed reflects the configured fail-open policy.
func (t *Throttle) Check(ctx context.Context, scope, identity string) (Decision, error) {
	rule, ok := t.rules[scope]
	if !ok {
		return Decision{Allowed: true}, nil
	}

	key := scope + ":" + identity

	count, expiresAt, err := t.store.Increment(ctx, key, rule.Window)
	if err != nil {
		return Decision{Allowed: t.failOpen, Limit: rule.MaxCount}, fmt.Errorf("throttle store: %w", err)
	}

	decision := Decision{
		Allowed:   count <= rule.MaxCount,
		Limit:     rule.MaxCount,
		Remaining: rule.MaxCount - count,
		ResetAt:   expiresAt,
	}
	if decision.Remaining < 0 {
		decision.Remaining = 0
	}
	if !decision.Allowed {
		decision.RetryAfter = time.Until(expiresAt)
		if decision.RetryAfter < 0 {
			decision.RetryAfter = 0
		}
	}

	return decision, nil
}
