package resilience

import (
	"sync"
	"time"
)

type CircuitState string

const (
	CircuitStateClosed CircuitState = "closed"
	CircuitStateOpen   CircuitState = "open"
)

// CircuitSnapshot is the persisted part of a breaker.
type CircuitSnapshot struct {
	ConsecutiveFailures int
	OpenedAt            *time.Time
}

// CircuitBreaker stops calls to a failing dependency for a recovery window
// after a run of consecutive failures. Once the window has elapsed the next
// Allow closes the breaker and clears the failure count.
type CircuitBreaker struct {
	mu sync.Mutex

	failureThreshold int
	recoveryWindow   time.Duration

	consecutiveFailures int
	openedAt            time.Time
	now                 func() time.Time
}

func NewCircuitBreaker(failureThreshold int, recoveryWindow time.Duration) *CircuitBreaker {
	if failureThreshold < 1 {
		failureThreshold = 1
	}
	if recoveryWindow <= 0 {
		recoveryWindow = DefaultCircuitBreakerConfig().RecoveryWindow
	}

	return &CircuitBreaker{
		failureThreshold: failureThreshold,
		recoveryWindow:   recoveryWindow,
		now:              time.Now,
	}
}

func (b *CircuitBreaker) Allow() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.openedAt.IsZero() {
		return nil
	}
	if b.now().Sub(b.openedAt) < b.recoveryWindow {
		return ErrCircuitOpen
	}

	b.openedAt = time.Time{}
	b.consecutiveFailures = 0
	return nil
}

func (b *CircuitBreaker) RecordSuccess() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.consecutiveFailures = 0
}

// RecordFailure counts one failure and reports whether it tripped the breaker.
func (b *CircuitBreaker) RecordFailure() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.consecutiveFailures++
	if !b.openedAt.IsZero() || b.consecutiveFailures < b.failureThreshold {
		return false
	}
	b.openedAt = b.now()
	return true
}

func (b *CircuitBreaker) State() CircuitState {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.openedAt.IsZero() || b.now().Sub(b.openedAt) >= b.recoveryWindow {
		return CircuitStateClosed
	}
	return CircuitStateOpen
}

func (b *CircuitBreaker) ConsecutiveFailures() int {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.consecutiveFailures
}

func (b *CircuitBreaker) Snapshot() CircuitSnapshot {
	b.mu.Lock()
	defer b.mu.Unlock()

	out := CircuitSnapshot{ConsecutiveFailures: b.consecutiveFailures}
	if !b.openedAt.IsZero() {
		openedAt := b.openedAt
		out.OpenedAt = &openedAt
	}
	return out
}

func (b *CircuitBreaker) Restore(snapshot CircuitSnapshot) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.consecutiveFailures = max(snapshot.ConsecutiveFailures, 0)
	b.openedAt = time.Time{}
	if snapshot.OpenedAt != nil {
		b.openedAt = *snapshot.OpenedAt
	}
}
