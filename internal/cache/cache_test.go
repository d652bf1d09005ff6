package cache

import (
	"testing"
	"time"
)

func TestSetGetDelete(t *testing.T) {
	c := NewTTLCache[int](10, time.Minute)

	c.Set("a", 1)
	if v, ok := c.Get("a"); !ok || v != 1 {
		t.Fatalf("Get(a) = %d, %v", v, ok)
	}

	c.Set("a", 2)
	if v, _ := c.Get("a"); v != 2 {
		t.Errorf("overwrite: got %d, want 2", v)
	}

	c.Delete("a")
	if _, ok := c.Get("a"); ok {
		t.Error("Get after Delete should miss")
	}
}

func TestExpiry(t *testing.T) {
	c := NewTTLCache[string](10, 10*time.Millisecond)

	c.Set("k", "v")
	time.Sleep(25 * time.Millisecond)
	if _, ok := c.Get("k"); ok {
		t.Error("expired entry still served")
	}
	if c.Len() != 0 {
		t.Errorf("Len = %d after expired read, want 0", c.Len())
	}
}

func TestEvictsLeastRecentlyUsed(t *testing.T) {
	c := NewTTLCache[int](2, time.Minute)

	c.Set("a", 1)
	c.Set("b", 2)
	c.Get("a") // refresh recency so b is oldest
	c.Set("c", 3)

	if _, ok := c.Get("b"); ok {
		t.Error("b should have been evicted")
	}
	if _, ok := c.Get("a"); !ok {
		t.Error("a should survive eviction")
	}
	if _, ok := c.Get("c"); !ok {
		t.Error("c should be present")
	}
}

func TestCleanExpired(t *testing.T) {
	c := NewTTLCache[int](10, 10*time.Millisecond)

	c.Set("a", 1)
	c.Set("b", 2)
	time.Sleep(25 * time.Millisecond)
	c.Set("fresh", 3)

	// fresh was just written, only the stale pair should go
	if removed := c.CleanExpired(); removed != 2 {
		t.Errorf("CleanExpired = %d, want 2", removed)
	}
	if c.Len() != 1 {
		t.Errorf("Len = %d, want 1", c.Len())
	}
}

func TestJanitorStops(t *testing.T) {
	c := NewTTLCache[int](10, time.Millisecond)
	c.StartJanitor(5 * time.Millisecond)
	c.Set("a", 1)
	time.Sleep(20 * time.Millisecond)
	c.StopJanitor()

	if c.Len() != 0 {
		t.Errorf("Len = %d after janitor sweep, want 0", c.Len())
	}
}
