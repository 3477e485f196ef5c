package cache

import (
	"testing"
	"time"
)

func TestTTLGetSet(t *testing.T) {
	c := NewTTL[int](time.Minute)
	if _, ok := c.Get("a"); ok {
		t.Fatal("expected miss on empty cache")
	}
	c.Set("a", 42)
	v, ok := c.Get("a")
	if !ok || v != 42 {
		t.Fatalf("got (%d, %v), want (42, true)", v, ok)
	}
}

func TestTTLExpiry(t *testing.T) {
	c := NewTTL[string](time.Minute)
	base := time.Now()
	c.now = func() time.Time { return base }
	c.Set("k", "v")

	c.now = func() time.Time { return base.Add(30 * time.Second) }
	if _, ok := c.Get("k"); !ok {
		t.Fatal("expected hit before expiry")
	}

	c.now = func() time.Time { return base.Add(2 * time.Minute) }
	if _, ok := c.Get("k"); ok {
		t.Fatal("expected miss after expiry")
	}

	// Expired entries are pruned on the next Set.
	c.Set("other", "x")
	if c.Len() != 1 {
		t.Fatalf("expected stale entry pruned, len = %d", c.Len())
	}
}
