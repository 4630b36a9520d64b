package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
)

func TestFixedWindowLimiterRedis(t *testing.T) {
	redis := miniredis.RunT(t)
	limiter, err := NewRedisFixedWindowLimiter(redis.Addr(), "", "test:ratelimit", 2, time.Minute)
	if err != nil {
		t.Fatalf("new redis limiter: %v", err)
	}
	defer limiter.Close()
	ctx := context.Background()

	if !limiter.Allow(ctx, "user-1") {
		t.Fatalf("first request should pass")
	}
	if !limiter.Allow(ctx, "user-1") {
		t.Fatalf("second request should pass")
	}
	if limiter.Allow(ctx, "user-1") {
		t.Fatalf("third request should be blocked")
	}
	if !limiter.Allow(ctx, "user-2") {
		t.Fatalf("other users have their own window")
	}
}

func TestFixedWindowLimiterNextWindow(t *testing.T) {
	redis := miniredis.RunT(t)
	limiter, err := NewRedisFixedWindowLimiter(redis.Addr(), "", "test:ratelimit", 1, time.Minute)
	if err != nil {
		t.Fatalf("new redis limiter: %v", err)
	}
	defer limiter.Close()
	ctx := context.Background()

	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	limiter.now = func() time.Time { return now }

	if !limiter.Allow(ctx, "user-1") {
		t.Fatalf("first request should pass")
	}
	if limiter.Allow(ctx, "user-1") {
		t.Fatalf("second request in window should be blocked")
	}

	now = now.Add(time.Minute)
	if !limiter.Allow(ctx, "user-1") {
		t.Fatalf("request in next window should pass")
	}
}

func TestFixedWindowLimiterSetsExpiry(t *testing.T) {
	redis := miniredis.RunT(t)
	limiter, err := NewRedisFixedWindowLimiter(redis.Addr(), "", "test:ratelimit", 5, time.Minute)
	if err != nil {
		t.Fatalf("new redis limiter: %v", err)
	}
	defer limiter.Close()

	limiter.Allow(context.Background(), "user-1")
	keys := redis.Keys()
	if len(keys) != 1 {
		t.Fatalf("keys = %v, want one window key", keys)
	}
	if ttl := redis.TTL(keys[0]); ttl <= 0 || ttl > time.Minute {
		t.Errorf("ttl = %v, want within the window", ttl)
	}
}

func TestFixedWindowLimiterRedisFailClosed(t *testing.T) {
	redis := miniredis.RunT(t)
	limiter, err := NewRedisFixedWindowLimiter(redis.Addr(), "", "test:ratelimit", 1, time.Second)
	if err != nil {
		t.Fatalf("new redis limiter: %v", err)
	}
	defer limiter.Close()
	redis.Close()
	if limiter.Allow(context.Background(), "user-1") {
		t.Fatalf("limiter should fail closed on redis errors")
	}
}

func TestNewRedisFixedWindowLimiterValidation(t *testing.T) {
	tests := []struct {
		name   string
		addr   string
		limit  int
		window time.Duration
	}{
		{"empty addr", "", 1, time.Second},
		{"zero limit", "localhost:6379", 0, time.Second},
		{"zero window", "localhost:6379", 1, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			limiter, err := NewRedisFixedWindowLimiter(tt.addr, "", "test", tt.limit, tt.window)
			if err == nil || limiter != nil {
				t.Fatalf("expected constructor error")
			}
		})
	}
}

func TestUnlimited(t *testing.T) {
	var l Limiter = Unlimited{}
	for i := 0; i < 100; i++ {
		if !l.Allow(context.Background(), "user-1") {
			t.Fatal("Unlimited blocked a request")
		}
	}
}
