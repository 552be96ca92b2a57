package security

import (
	"errors"
	"sync"
	"testing"
	"time"
)

func TestRateLimiter_PerKey(t *testing.T) {
	t.Parallel()

	rl := NewRateLimiter(2, time.Minute)

	for range 2 {
		if err := rl.Allow("alice"); err != nil {
			t.Fatalf("Allow: %v", err)
		}
	}
	if err := rl.Allow("alice"); !errors.Is(err, ErrRateLimited) {
		t.Errorf("third call err = %v, want ErrRateLimited", err)
	}
	if err := rl.Allow("bob"); err != nil {
		t.Errorf("other keys have their own quota: %v", err)
	}
}

func TestRateLimiter_SlidingWindow(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	rl := NewRateLimiter(2, time.Minute)
	rl.now = func() time.Time { return now }

	_ = rl.Allow("u")
	now = now.Add(30 * time.Second)
	_ = rl.Allow("u")

	if err := rl.Allow("u"); !errors.Is(err, ErrRateLimited) {
		t.Fatal("expected rate limit")
	}

	// The first event leaves the window, freeing one slot.
	now = now.Add(31 * time.Second)
	if err := rl.Allow("u"); err != nil {
		t.Fatalf("expected allow after window, got %v", err)
	}
	if err := rl.Allow("u"); !errors.Is(err, ErrRateLimited) {
		t.Error("only one slot should have been freed")
	}
}

func TestRateLimiter_Disabled(t *testing.T) {
	t.Parallel()

	rl := NewRateLimiter(0, time.Minute)
	for range 100 {
		if err := rl.Allow("u"); err != nil {
			t.Fatalf("disabled limiter returned %v", err)
		}
	}
}

func TestRateLimiter_Prune(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	rl := NewRateLimiter(5, time.Minute)
	rl.now = func() time.Time { return now }

	_ = rl.Allow("a")
	_ = rl.Allow("b")
	now = now.Add(2 * time.Minute)
	_ = rl.Allow("c")

	if removed := rl.Prune(); removed != 2 {
		t.Errorf("Prune removed %d keys, want 2", removed)
	}
}

func TestRateLimiter_Concurrent(t *testing.T) {
	t.Parallel()

	rl := NewRateLimiter(50, time.Minute)
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		allowed int
	)
	for range 100 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if rl.Allow("shared") == nil {
				mu.Lock()
				allowed++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if allowed != 50 {
		t.Errorf("allowed = %d, want 50", allowed)
	}
}
