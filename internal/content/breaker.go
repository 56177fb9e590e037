package content

import (
	"sync"
	"time"
)

type breakerState int

const (
	breakerClosed breakerState = iota
	breakerOpen
	breakerHalfOpen
)

// breaker guards the generative-text endpoint. When the endpoint keeps
// failing, subsequent events skip the call and go straight to the fallback
// text instead of paying the timeout on every webhook.
type breaker struct {
	mu               sync.Mutex
	st               breakerState
	consecutiveFails int
	failThreshold    int
	openFor          time.Duration
	nextTryAt        time.Time
	probeInFlight    bool
}

func newBreaker(threshold int, openFor time.Duration) *breaker {
	return &breaker{failThreshold: threshold, openFor: openFor}
}

// TryAcquire reports whether the caller may issue a request now. In the open
// state a single probe is admitted once the cool-down elapses.
func (b *breaker) TryAcquire() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.st {
	case breakerClosed:
		return true
	case breakerOpen:
		if time.Now().After(b.nextTryAt) && !b.probeInFlight {
			b.st = breakerHalfOpen
			b.probeInFlight = true
			return true
		}
		return false
	case breakerHalfOpen:
		if !b.probeInFlight {
			b.probeInFlight = true
			return true
		}
		return false
	default:
		return true
	}
}

func (b *breaker) OnSuccess() {
	b.mu.Lock()
	b.consecutiveFails = 0
	b.st = breakerClosed
	b.probeInFlight = false
	b.mu.Unlock()
}

func (b *breaker) OnFailure() {
	b.mu.Lock()
	if b.st == breakerHalfOpen {
		b.st = breakerOpen
		b.nextTryAt = time.Now().Add(b.openFor)
		b.probeInFlight = false
		b.mu.Unlock()
		return
	}

	b.consecutiveFails++
	if b.consecutiveFails >= b.failThreshold {
		b.st = breakerOpen
		b.nextTryAt = time.Now().Add(b.openFor)
	}

	b.mu.Unlock()
}
