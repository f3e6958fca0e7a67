// Package ratelimit implements a simple token-bucket limiter used by the
// table-data manager to cap rows-per-second across all tables it drives.
package ratelimit

import (
	"context"
	"sync"
	"time"
)

// Bucket is a token bucket: capacity tokens refill at rate tokens/sec, and
// Take blocks until n tokens are available or the context is cancelled.
// There is no third-party rate-limiting library in the retrieved corpus;
// this is a small, self-contained primitive built directly on time.Timer,
// which is the idiomatic Go approach when no ecosystem dependency is
// already in play for it.
type Bucket struct {
	mu       sync.Mutex
	capacity float64
	tokens   float64
	rate     float64 // tokens per second
	last     time.Time
	nowFunc  func() time.Time
}

// New creates a Bucket with the given sustained rate (tokens/sec) and
// burst capacity. A non-positive rate means unlimited: Take always
// returns immediately.
func New(ratePerSecond, capacity float64) *Bucket {
	if capacity <= 0 {
		capacity = ratePerSecond
	}
	return &Bucket{
		capacity: capacity,
		tokens:   capacity,
		rate:     ratePerSecond,
		last:     time.Now(),
		nowFunc:  time.Now,
	}
}

// Take blocks until n tokens are available, consumes them, and returns
// nil, or returns ctx.Err() if the context is cancelled first.
func (b *Bucket) Take(ctx context.Context, n float64) error {
	if b.rate <= 0 {
		return nil
	}
	for {
		wait, ok := b.tryTake(n)
		if ok {
			return nil
		}
		timer := time.NewTimer(wait)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		}
	}
}

func (b *Bucket) tryTake(n float64) (time.Duration, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	now := b.nowFunc()
	elapsed := now.Sub(b.last).Seconds()
	b.last = now
	b.tokens += elapsed * b.rate
	if b.tokens > b.capacity {
		b.tokens = b.capacity
	}

	if b.tokens >= n {
		b.tokens -= n
		return 0, true
	}

	deficit := n - b.tokens
	wait := time.Duration(deficit / b.rate * float64(time.Second))
	return wait, false
}
