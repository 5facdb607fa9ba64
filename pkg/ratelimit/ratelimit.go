// Package ratelimit provides a token-bucket limiter for outbound API
// requests. The bucket refills continuously at a configured rate and
// allows short bursts up to its capacity.
package ratelimit

import (
	"context"
	"sync"
	"time"
)

// Limiter hands out permissions to send one request.
type Limiter interface {
	// Acquire blocks until a token is available or ctx is done.
	Acquire(ctx context.Context) error
}

type bucket struct {
	mu        sync.Mutex
	rate      float64
	burst     float64
	tokens    float64
	updatedAt time.Time
}

// New creates a Limiter with the given sustained rate (tokens per
// second) and burst capacity. The bucket starts full.
func New(rate float64, burst int) Limiter {
	return &bucket{
		rate:      rate,
		burst:     float64(burst),
		tokens:    float64(burst),
		updatedAt: time.Now(),
	}
}

func (b *bucket) Acquire(ctx context.Context) error {
	for {
		b.mu.Lock()
		now := time.Now()
		elapsed := now.Sub(b.updatedAt).Seconds()
		b.updatedAt = now
		b.tokens = min(b.burst, b.tokens+elapsed*b.rate)
		if b.tokens >= 1 {
			b.tokens--
			b.mu.Unlock()
			return nil
		}
		wait := 100 * time.Millisecond
		if b.rate > 0 {
			wait = time.Duration((1 - b.tokens) / b.rate * float64(time.Second))
		}
		b.mu.Unlock()

		wait = max(wait, 10*time.Millisecond)
		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

// Unlimited returns a Limiter that never blocks. Useful in tests and
// for cached-only runs.
func Unlimited() Limiter {
	return unlimited{}
}

type unlimited struct{}

func (unlimited) Acquire(ctx context.Context) error {
	return ctx.Err()
}
