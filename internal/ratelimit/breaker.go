package ratelimit

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrBackendUnavailable is returned while the breaker is open and the backend is skipped.
var ErrBackendUnavailable = errors.New("ratelimit: backend unavailable")

// BreakerState is the state of a Breaker.
type BreakerState int

const (
	// StateClosed forwards every call to the backend.
	StateClosed BreakerState = iota
	// StateOpen skips the backend until the cool-off expires.
	StateOpen
	// StateHalfOpen lets a single probe through.
	StateHalfOpen
)

func (s BreakerState) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half_open"
	default:
		return "unknown"
	}
}

// Breaker wraps a remote Limiter and stops calling it once the failure ratio
// over at least MinRequests calls reaches FailureRatio. While open, Allow
// returns ErrBackendUnavailable immediately so the middleware fails open
// without waiting on network timeouts.
type Breaker struct {
	Limiter       Limiter
	MinRequests   int
	FailureRatio  float64
	OpenFor       time.Duration
	OnStateChange func(from, to BreakerState)
	Now           func() time.Time

	mu        sync.Mutex
	state     BreakerState
	failures  int
	successes int
	openedAt  time.Time
}

// Allow implements Limiter.
func (b *Breaker) Allow(ctx context.Context, key string, window time.Duration, max int) (bool, int, time.Time, error) {
	if !b.permit() {
		return true, max, b.now().Add(window), ErrBackendUnavailable
	}
	allowed, remaining, reset, err := b.Limiter.Allow(ctx, key, window, max)
	b.report(err == nil)
	return allowed, remaining, reset, err
}

// State returns the current breaker state.
func (b *Breaker) State() BreakerState {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

func (b *Breaker) permit() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	switch b.state {
	case StateOpen:
		if b.now().Sub(b.openedAt) < b.openFor() {
			return false
		}
		b.transitionLocked(StateHalfOpen)
		return true
	case StateHalfOpen:
		// one probe is already in flight
		return false
	default:
		return true
	}
}

func (b *Breaker) report(success bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state == StateHalfOpen {
		if success {
			b.transitionLocked(StateClosed)
		} else {
			b.transitionLocked(StateOpen)
		}
		return
	}
	if b.state != StateClosed {
		return
	}
	if success {
		b.successes++
	} else {
		b.failures++
	}
	total := b.failures + b.successes
	if total < b.minRequests() {
		return
	}
	if float64(b.failures)/float64(total) >= b.failureRatio() {
		b.transitionLocked(StateOpen)
	} else if total > 2*b.minRequests() {
		b.successes /= 2
		b.failures /= 2
	}
}

func (b *Breaker) transitionLocked(next BreakerState) {
	prev := b.state
	if prev == next {
		return
	}
	b.state = next
	b.failures, b.successes = 0, 0
	if next == StateOpen {
		b.openedAt = b.now()
	}
	if b.OnStateChange != nil {
		b.OnStateChange(prev, next)
	}
}

func (b *Breaker) now() time.Time {
	if b.Now != nil {
		return b.Now()
	}
	return time.Now()
}

func (b *Breaker) minRequests() int {
	if b.MinRequests <= 0 {
		return 5
	}
	return b.MinRequests
}

func (b *Breaker) failureRatio() float64 {
	if b.FailureRatio <= 0 || b.FailureRatio > 1 {
		return 0.5
	}
	return b.FailureRatio
}

func (b *Breaker) openFor() time.Duration {
	if b.OpenFor <= 0 {
		return 30 * time.Second
	}
	return b.OpenFor
}
