package cache

import (
	"testing"
	"time"
)

func TestGetSetInvalidate(t *testing.T) {
	c := New[string](5*time.Minute, 0)
	if _, ok := c.Get("a"); ok {
		t.Fatalf("expected miss on empty cache")
	}
	c.Set("a", "one")
	if v, ok := c.Get("a"); !ok || v != "one" {
		t.Fatalf("expected hit, got %q/%v", v, ok)
	}
	c.Invalidate("a")
	if _, ok := c.Get("a"); ok {
		t.Fatalf("expected miss after invalidate")
	}
}

func TestExpiry(t *testing.T) {
	c := New[int](time.Minute, 0)
	base := time.Unix(1000, 0)
	c.now = func() time.Time { return base }
	c.Set("k", 42)

	c.now = func() time.Time { return base.Add(59 * time.Second) }
	if _, ok := c.Get("k"); !ok {
		t.Fatalf("expected hit before expiry")
	}

	c.now = func() time.Time { return base.Add(61 * time.Second) }
	if _, ok := c.Get("k"); ok {
		t.Fatalf("expected miss after expiry")
	}
}

func TestOpportunisticPurge(t *testing.T) {
	c := New[int](time.Minute, 2)
	base := time.Unix(1000, 0)
	c.now = func() time.Time { return base }
	c.Set("old", 1)

	c.now = func() time.Time { return base.Add(2 * time.Minute) }
	c.Set("fresh", 2) // second Set triggers the sweep

	c.mu.Lock()
	_, stillThere := c.entries["old"]
	c.mu.Unlock()
	if stillThere {
		t.Fatalf("expected expired entry swept on write")
	}
}
