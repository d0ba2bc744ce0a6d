package util

import (
	"context"
	"testing"
	"time"
)

func TestLimiterBurst(t *testing.T) {
	l := NewLimiter(10, 2)
	ctx := context.Background()

	start := time.Now()
	for i := 0; i < 2; i++ {
		if err := l.Wait(ctx); err != nil {
			t.Fatal(err)
		}
	}
	if elapsed := time.Since(start); elapsed > 50*time.Millisecond {
		t.Errorf("burst events should not wait, took %v", elapsed)
	}

	if err := l.Wait(ctx); err != nil {
		t.Fatal(err)
	}
	if elapsed := time.Since(start); elapsed < 50*time.Millisecond {
		t.Errorf("expected third event to wait for a refill, took %v", elapsed)
	}
}

func TestLimiterWaitCancelled(t *testing.T) {
	l := NewLimiter(0.001, 1)
	if err := l.Wait(context.Background()); err != nil {
		t.Fatalf("expected burst token: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := l.Wait(ctx); err == nil {
		t.Fatal("expected error from cancelled wait")
	}
}
