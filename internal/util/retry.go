package util

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrRetryable marks a failure that may succeed on another attempt, such as
// a rate limit or a 5xx response. Wrap it with fmt.Errorf("%w: ...").
var ErrRetryable = errors.New("temporary failure")

// Backoff doubles its delay on every step up to a maximum.
// It is safe for concurrent use.
type Backoff struct {
	mu       sync.Mutex
	next     time.Duration
	initial  time.Duration
	maxDelay time.Duration
}

// NewBackoff returns a Backoff starting at initial and capped at maxDelay.
func NewBackoff(initial, maxDelay time.Duration) *Backoff {
	return &Backoff{next: initial, initial: initial, maxDelay: maxDelay}
}

// Next returns the current delay and advances to the next value.
func (b *Backoff) Next() time.Duration {
	b.mu.Lock()
	defer b.mu.Unlock()
	d := b.next
	b.next = min(2*b.next, b.maxDelay)
	return d
}

// Wait sleeps for the next delay or until ctx is done.
func (b *Backoff) Wait(ctx context.Context) error {
	timer := time.NewTimer(b.Next())
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return context.Cause(ctx)
	}
}

// Reset returns to the initial delay.
func (b *Backoff) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.next = b.initial
}

// Retry calls fn up to attempts times while it fails with ErrRetryable,
// waiting on b between calls. Any other error, or success, ends the loop.
// The last error is returned.
func Retry(ctx context.Context, attempts int, b *Backoff, fn func() error) error {
	var err error
	for i := range attempts {
		if i > 0 {
			if werr := b.Wait(ctx); werr != nil {
				return werr
			}
		}
		if err = fn(); err == nil || !errors.Is(err, ErrRetryable) {
			return err
		}
	}
	return err
}
