package utils

import (
	"testing"
	"time"
)

func TestMonotonicClockStrictlyIncreasing(t *testing.T) {
	frozen := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	clock := NewMonotonicClockWith(func() time.Time { return frozen })

	prev := clock.Next()
	for i := 0; i < 100; i++ {
		next := clock.Next()
		if !next.After(prev) {
			t.Fatalf("timestamp %d not after previous: %v <= %v", i, next, prev)
		}
		prev = next
	}
}

func TestMonotonicClockSurvivesBackwardsStep(t *testing.T) {
	times := []time.Time{
		time.Date(2025, 1, 1, 12, 0, 1, 0, time.UTC),
		time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC), // wall clock stepped back
	}
	i := 0
	clock := NewMonotonicClockWith(func() time.Time {
		t := times[i]
		if i < len(times)-1 {
			i++
		}
		return t
	})

	first := clock.Next()
	second := clock.Next()
	if !second.After(first) {
		t.Fatalf("expected %v after %v", second, first)
	}
	if got := second.Sub(first); got != time.Microsecond {
		t.Errorf("expected 1µs step, got %v", got)
	}
}
