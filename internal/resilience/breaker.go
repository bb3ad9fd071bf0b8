// Package resilience provides the failure-memory and retry primitives
// used around external calls: a per-endpoint cooldown breaker, a
// run-wide call budget, and retry with backoff.
package resilience

import (
	"sync"
	"time"
)

// DefaultCooldown is how long a failed endpoint stays ineligible.
const DefaultCooldown = 300 * time.Second

// Breaker remembers the last failure per endpoint key and refuses new
// attempts until the cooldown elapses. State is process-local and never
// persisted; every run starts with a clean slate.
type Breaker struct {
	mu       sync.Mutex
	cooldown time.Duration
	failures map[string]time.Time

	// nowFunc allows test injection of time.
	nowFunc func() time.Time
}

// NewBreaker creates a breaker with the given cooldown window.
// Non-positive cooldowns fall back to DefaultCooldown.
func NewBreaker(cooldown time.Duration) *Breaker {
	if cooldown <= 0 {
		cooldown = DefaultCooldown
	}
	return &Breaker{
		cooldown: cooldown,
		failures: make(map[string]time.Time),
		nowFunc:  time.Now,
	}
}

// Allow reports whether the endpoint is eligible for a new attempt.
// An endpoint with no recorded failure is always eligible.
func (b *Breaker) Allow(key string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	last, ok := b.failures[key]
	if !ok {
		return true
	}
	return b.nowFunc().Sub(last) > b.cooldown
}

// RecordFailure stamps the endpoint as failed now, starting its cooldown.
func (b *Breaker) RecordFailure(key string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failures[key] = b.nowFunc()
}

// CoolingDown returns how many endpoints are currently ineligible.
func (b *Breaker) CoolingDown() int {
	b.mu.Lock()
	defer b.mu.Unlock()

	now := b.nowFunc()
	n := 0
	for _, last := range b.failures {
		if now.Sub(last) <= b.cooldown {
			n++
		}
	}
	return n
}

// Reset clears all failure memory.
func (b *Breaker) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failures = make(map[string]time.Time)
}
