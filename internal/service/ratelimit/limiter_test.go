package ratelimit

import (
	"testing"
	"time"
)

func TestAllowConsumesAndRefills(t *testing.T) {
	l := New()
	clock := time.Unix(1700000000, 0)
	l.now = func() time.Time { return clock }

	for i := 0; i < 2; i++ {
		if !l.Allow("ip", 2, 1) {
			t.Fatalf("request %d should pass", i)
		}
	}
	if l.Allow("ip", 2, 1) {
		t.Fatalf("bucket should be empty")
	}
	if !l.Allow("other", 2, 1) {
		t.Fatalf("keys must not share a bucket")
	}

	clock = clock.Add(time.Second)
	if !l.Allow("ip", 2, 1) {
		t.Fatalf("bucket should refill after one second")
	}
}

func TestSweepDropsIdleBuckets(t *testing.T) {
	l := New()
	clock := time.Unix(1700000000, 0)
	l.now = func() time.Time { return clock }

	l.Allow("a", 1, 1)
	clock = clock.Add(time.Hour)
	l.Allow("b", 1, 1)

	if n := l.Sweep(time.Minute); n != 1 {
		t.Fatalf("removed %d, want 1", n)
	}
}

func TestZeroCapacityDisablesLimit(t *testing.T) {
	l := New()
	for i := 0; i < 100; i++ {
		if !l.Allow("ip", 0, 0) {
			t.Fatalf("zero capacity must not limit")
		}
	}
}
