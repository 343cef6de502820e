package circuitbreaker

import (
	"errors"
	"sync"
	"time"
)

// ErrOpen is returned without running the call while the circuit is open.
var ErrOpen = errors.New("circuit breaker is open")

type State int

const (
	StateClosed State = iota
	StateOpen
	StateHalfOpen
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// Breaker stops hammering a failing dependency. After maxFailures
// consecutive failures it opens and every Do call fails fast with
// ErrOpen until cooldown elapses; the next call then probes half-open
// and a single success closes the circuit again.
type Breaker struct {
	mu          sync.Mutex
	state       State
	failures    int
	openedAt    time.Time
	maxFailures int
	cooldown    time.Duration
}

func New(maxFailures int, cooldown time.Duration) *Breaker {
	if maxFailures <= 0 {
		maxFailures = 5
	}
	if cooldown <= 0 {
		cooldown = 30 * time.Second
	}
	return &Breaker{state: StateClosed, maxFailures: maxFailures, cooldown: cooldown}
}

// Do runs fn under the breaker's supervision.
func (b *Breaker) Do(fn func() error) error {
	b.mu.Lock()
	if b.state == StateOpen {
		if time.Since(b.openedAt) < b.cooldown {
			b.mu.Unlock()
			return ErrOpen
		}
		b.state = StateHalfOpen
	}
	b.mu.Unlock()

	err := fn()

	b.mu.Lock()
	defer b.mu.Unlock()

	if err != nil {
		b.failures++
		if b.state == StateHalfOpen || b.failures >= b.maxFailures {
			b.state = StateOpen
			b.openedAt = time.Now()
		}
		return err
	}

	b.state = StateClosed
	b.failures = 0
	return nil
}

func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}
