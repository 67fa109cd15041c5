package syncer

import (
	"context"
	"testing"
	"time"
)

func TestFixed_AllowsExactlyNAttempts(t *testing.T) {
	policy := Fixed{Attempts: 3}
	ctx := context.Background()

	allowed := 0
	for attempt := 0; policy.Allow(ctx, attempt); attempt++ {
		allowed++
	}
	if allowed != 3 {
		t.Errorf("allowed %d attempts, want 3", allowed)
	}
}

func TestFixed_StopsOnCancelledContext(t *testing.T) {
	policy := Fixed{Attempts: 10}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if policy.Allow(ctx, 0) {
		t.Error("Allow() = true with cancelled context")
	}
}

func TestBackoff_SleepsBetweenAttempts(t *testing.T) {
	policy := Backoff{Attempts: 3, Delay: 10 * time.Millisecond}
	ctx := context.Background()

	start := time.Now()
	allowed := 0
	for attempt := 0; policy.Allow(ctx, attempt); attempt++ {
		allowed++
	}
	if allowed != 3 {
		t.Errorf("allowed %d attempts, want 3", allowed)
	}
	// The first attempt is immediate; the two retries each wait.
	if elapsed := time.Since(start); elapsed < 20*time.Millisecond {
		t.Errorf("elapsed %v, want at least two delays", elapsed)
	}
}

func TestBackoff_CancelCutsTheWait(t *testing.T) {
	policy := Backoff{Attempts: 2, Delay: time.Minute}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if policy.Allow(ctx, 1) {
		t.Error("Allow() = true after cancellation")
	}
}
