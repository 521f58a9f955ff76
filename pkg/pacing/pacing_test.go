package pacing

import (
	"context"
	"testing"
	"time"
)

func TestSleeper_Wait(t *testing.T) {
	start := time.Now()
	if err := (Sleeper{}).Wait(context.Background(), 10*time.Millisecond); err != nil {
		t.Fatalf("Wait() error = %v", err)
	}
	if elapsed := time.Since(start); elapsed < 10*time.Millisecond {
		t.Errorf("Wait returned after %v, want >= 10ms", elapsed)
	}
}

func TestSleeper_ZeroDuration(t *testing.T) {
	if err := (Sleeper{}).Wait(context.Background(), 0); err != nil {
		t.Errorf("Wait(0) error = %v, want nil", err)
	}
}

func TestSleeper_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := (Sleeper{}).Wait(ctx, time.Minute)
	if err == nil {
		t.Fatal("Expected error for cancelled context, got nil")
	}
}

func TestLimiter_DisabledInterval(t *testing.T) {
	l := NewLimiter(0)

	start := time.Now()
	for i := 0; i < 10; i++ {
		if err := l.Wait(context.Background()); err != nil {
			t.Fatalf("Wait() error = %v", err)
		}
	}
	if elapsed := time.Since(start); elapsed > 50*time.Millisecond {
		t.Errorf("Disabled limiter blocked for %v", elapsed)
	}
}

func TestLimiter_SpacesRequests(t *testing.T) {
	l := NewLimiter(20 * time.Millisecond)

	start := time.Now()
	for i := 0; i < 3; i++ {
		if err := l.Wait(context.Background()); err != nil {
			t.Fatalf("Wait() error = %v", err)
		}
	}
	// First slot is immediate; the next two wait one interval each.
	if elapsed := time.Since(start); elapsed < 30*time.Millisecond {
		t.Errorf("Three waits took %v, want >= 30ms", elapsed)
	}
}
