package network

import (
	"context"
	"sync"
	"time"
)

// TokenBucket throttles outbound API calls. One token per request.

type TokenBucket struct {
	mu       sync.Mutex
	capacity int
	tokens   float64
	rate     float64 // tokens per second
	last     time.Time
}

func NewTokenBucket(capacity int, rate float64) *TokenBucket {
	return &TokenBucket{capacity: capacity, tokens: float64(capacity), rate: rate, last: time.Now()}
}

func (b *TokenBucket) Allow(now time.Time) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.refill(now)
	if b.tokens >= 1 {
		b.tokens -= 1
		return true
	}
	return false
}

// Wait blocks until a token is available or the context is done.
func (b *TokenBucket) Wait(ctx context.Context) error {
	for {
		if b.Allow(time.Now()) {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(b.retryAfter()):
		}
	}
}

func (b *TokenBucket) refill(now time.Time) {
	dt := now.Sub(b.last).Seconds()
	b.last = now
	b.tokens += b.rate * dt
	if b.tokens > float64(b.capacity) {
		b.tokens = float64(b.capacity)
	}
}

// retryAfter estimates how long until the next token accrues.
func (b *TokenBucket) retryAfter() time.Duration {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.rate <= 0 {
		return 50 * time.Millisecond
	}
	missing := 1 - b.tokens
	if missing <= 0 {
		return time.Millisecond
	}
	return time.Duration(missing / b.rate * float64(time.Second))
}
