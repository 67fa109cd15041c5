package syncer

import (
	"context"
	"time"
)

// RetryPolicy decides whether a failed transfer should be attempted again.
// The policy is injected so tests can use a single-attempt fake and
// production can add backoff without touching the sync loop.
type RetryPolicy interface {
	// Allow reports whether attempt (0-based) may run, blocking for any
	// backoff delay first. It returns false when the budget is exhausted
	// or ctx is cancelled.
	Allow(ctx context.Context, attempt int) bool
}

// Fixed retries a fixed number of times in immediate succession, with no
// backoff. Transient remote quota errors tend to clear within a few
// attempts, so the production default is 10.
type Fixed struct {
	Attempts int
}

// DefaultRetry is the production transfer retry policy.
var DefaultRetry = Fixed{Attempts: 10}

// Allow implements RetryPolicy.
func (f Fixed) Allow(ctx context.Context, attempt int) bool {
	if ctx.Err() != nil {
		return false
	}
	return attempt < f.Attempts
}

// Backoff retries with a fixed delay between attempts.
type Backoff struct {
	Attempts int
	Delay    time.Duration
}

// Allow implements RetryPolicy.
func (b Backoff) Allow(ctx context.Context, attempt int) bool {
	if attempt >= b.Attempts {
		return false
	}
	if attempt == 0 {
		return ctx.Err() == nil
	}
	select {
	case <-ctx.Done():
		return false
	case <-time.After(b.Delay):
		return true
	}
}
