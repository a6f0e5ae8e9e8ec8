package broker

import (
	"context"
	"fmt"
	"time"
)

// Backoff retries with a linearly growing delay: Step after the first
// failure, 2*Step after the second, and so on.
type Backoff struct {
	Step time.Duration
	// MaxAttempts counts every call, the immediate first one included.
	MaxAttempts int
}

// DefaultBackoff makes 11 reconnect calls: one immediately, then ten retries
// waiting 1s, 2s, ... 10s.
var DefaultBackoff = Backoff{Step: time.Second, MaxAttempts: 11}

// Delay returns the wait after the given failed attempt (1-based).
func (b Backoff) Delay(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	return time.Duration(attempt) * b.Step
}

// Retry calls fn until it succeeds, ctx ends, or MaxAttempts calls failed.
// onFailure runs after each failed attempt before the wait.
func (b Backoff) Retry(ctx context.Context, fn func() error, onFailure func(attempt int, err error)) error {
	var err error
	for attempt := 1; attempt <= b.MaxAttempts; attempt++ {
		if err = fn(); err == nil {
			return nil
		}
		if onFailure != nil {
			onFailure(attempt, err)
		}
		if attempt == b.MaxAttempts {
			break
		}

		timer := time.NewTimer(b.Delay(attempt))
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
	return fmt.Errorf("gave up after %d attempts: %w", b.MaxAttempts, err)
}
