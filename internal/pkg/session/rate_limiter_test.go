package session

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestRateLimiter(t *testing.T) (*RateLimiter, *miniredis.Miniredis) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis.Run failed: %v", err)
	}
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	return NewRateLimiter(client), mr
}

func TestLoginAttemptsWithinLimit(t *testing.T) {
	rl, _ := newTestRateLimiter(t)
	ctx := context.Background()

	for i := 0; i < maxLoginAttempts; i++ {
		allowed, remaining, err := rl.CheckLoginAttempt(ctx, "10.0.0.1", "gate1")
		if err != nil {
			t.Fatal(err)
		}
		if !allowed {
			t.Fatalf("attempt %d should be allowed", i+1)
		}
		want := int64(maxLoginAttempts - i - 1)
		if remaining != want {
			t.Errorf("attempt %d: remaining = %d, want %d", i+1, remaining, want)
		}
	}
}

func TestLoginAttemptsOverLimit(t *testing.T) {
	rl, _ := newTestRateLimiter(t)
	ctx := context.Background()

	for i := 0; i < maxLoginAttempts; i++ {
		rl.CheckLoginAttempt(ctx, "10.0.0.1", "gate1")
	}

	allowed, remaining, err := rl.CheckLoginAttempt(ctx, "10.0.0.1", "gate1")
	if err != nil {
		t.Fatal(err)
	}
	if allowed {
		t.Error("attempt over the limit should be denied")
	}
	if remaining != 0 {
		t.Errorf("remaining = %d, want 0", remaining)
	}
}

func TestLoginAttemptsAreScopedPerIPAndUser(t *testing.T) {
	rl, _ := newTestRateLimiter(t)
	ctx := context.Background()

	for i := 0; i <= maxLoginAttempts; i++ {
		rl.CheckLoginAttempt(ctx, "10.0.0.1", "gate1")
	}

	if allowed, _, _ := rl.CheckLoginAttempt(ctx, "10.0.0.2", "gate1"); !allowed {
		t.Error("a different IP must not share the counter")
	}
	if allowed, _, _ := rl.CheckLoginAttempt(ctx, "10.0.0.1", "gate2"); !allowed {
		t.Error("a different username must not share the counter")
	}
}

func TestResetLoginAttempts(t *testing.T) {
	rl, _ := newTestRateLimiter(t)
	ctx := context.Background()

	for i := 0; i <= maxLoginAttempts; i++ {
		rl.CheckLoginAttempt(ctx, "10.0.0.1", "gate1")
	}

	if err := rl.ResetLoginAttempts(ctx, "10.0.0.1", "gate1"); err != nil {
		t.Fatal(err)
	}

	allowed, remaining, err := rl.CheckLoginAttempt(ctx, "10.0.0.1", "gate1")
	if err != nil {
		t.Fatal(err)
	}
	if !allowed || remaining != maxLoginAttempts-1 {
		t.Errorf("after reset: allowed=%v remaining=%d", allowed, remaining)
	}
}

func TestLoginWindowExpires(t *testing.T) {
	rl, mr := newTestRateLimiter(t)
	ctx := context.Background()

	for i := 0; i <= maxLoginAttempts; i++ {
		rl.CheckLoginAttempt(ctx, "10.0.0.1", "gate1")
	}

	mr.FastForward(loginWindow + time.Minute)

	if allowed, _, _ := rl.CheckLoginAttempt(ctx, "10.0.0.1", "gate1"); !allowed {
		t.Error("counter should reset after the window passes")
	}
}
