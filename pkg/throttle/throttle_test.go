package throttle_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/JaimeStill/warden/pkg/throttle"
)

func TestFirstWaitIsImmediate(t *testing.T) {
	lim := throttle.New(time.Hour)

	start := time.Now()
	if err := lim.Wait(context.Background()); err != nil {
		t.Fatalf("Wait() error = %v", err)
	}
	if elapsed := time.Since(start); elapsed > 100*time.Millisecond {
		t.Errorf("first Wait took %v, want immediate", elapsed)
	}
}

func TestWaitSpacesEvents(t *testing.T) {
	interval := 40 * time.Millisecond
	lim := throttle.New(interval)
	ctx := context.Background()

	start := time.Now()
	for range 3 {
		if err := lim.Wait(ctx); err != nil {
			t.Fatalf("Wait() error = %v", err)
		}
	}

	if elapsed := time.Since(start); elapsed < 2*interval-5*time.Millisecond {
		t.Errorf("3 events took %v, want at least %v", elapsed, 2*interval)
	}
}

func TestDisabledDoesNotBlock(t *testing.T) {
	lim := throttle.New(0)
	ctx := context.Background()

	start := time.Now()
	for range 100 {
		if err := lim.Wait(ctx); err != nil {
			t.Fatalf("Wait() error = %v", err)
		}
	}
	if elapsed := time.Since(start); elapsed > 100*time.Millisecond {
		t.Errorf("disabled limiter took %v", elapsed)
	}
}

func TestWaitHonoursCancellation(t *testing.T) {
	lim := throttle.New(time.Hour)
	if err := lim.Wait(context.Background()); err != nil {
		t.Fatalf("Wait() error = %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	if err := lim.Wait(ctx); err == nil {
		t.Fatal("expected error when the next slot is beyond the deadline")
	} else if errors.Is(err, context.Canceled) {
		t.Errorf("unexpected cancellation error: %v", err)
	}
}
