package cache

import (
	"sync"
	"testing"
)

func TestCacheEvictsLeastRecentlyUsed(t *testing.T) {
	c := New[string, int](2)
	c.Set("a", 1)
	c.Set("b", 2)
	if _, ok := c.Get("a"); !ok {
		t.Fatal("Get(a) missed")
	}
	c.Set("c", 3) // evicts b, the least recently used

	tests := []struct {
		key  string
		want int
		ok   bool
	}{
		{"a", 1, true},
		{"b", 0, false},
		{"c", 3, true},
	}
	for _, tt := range tests {
		got, ok := c.Get(tt.key)
		if got != tt.want || ok != tt.ok {
			t.Errorf("Get(%q) = %d, %v, want %d, %v", tt.key, got, ok, tt.want, tt.ok)
		}
	}
	if s := c.Stats(); s.Evictions != 1 || s.Len != 2 {
		t.Errorf("Stats() = %+v, want 1 eviction and 2 entries", s)
	}
}

func TestCacheSetExistingKey(t *testing.T) {
	c := New[int, string](2)
	c.Set(1, "one")
	c.Set(2, "two")
	c.Set(1, "uno")
	c.Set(3, "three") // evicts 2

	if v, _ := c.Get(1); v != "uno" {
		t.Errorf("Get(1) = %q, want %q", v, "uno")
	}
	if _, ok := c.Get(2); ok {
		t.Error("Get(2) hit after eviction")
	}
	if c.order.Len() != c.Len() {
		t.Errorf("list length %d != map length %d", c.order.Len(), c.Len())
	}
}

func TestCacheGetOrCreate(t *testing.T) {
	c := New[string, int](0)
	calls := 0
	create := func() int { calls++; return 42 }

	for range 3 {
		if v := c.GetOrCreate("k", create); v != 42 {
			t.Fatalf("GetOrCreate() = %d, want 42", v)
		}
	}
	if calls != 1 {
		t.Errorf("create called %d times, want 1", calls)
	}
	s := c.Stats()
	if s.Hits != 2 || s.Misses != 1 {
		t.Errorf("Stats() = %+v, want 2 hits and 1 miss", s)
	}
}

func TestCacheDeleteAndClear(t *testing.T) {
	c := New[int, int](10)
	for i := range 5 {
		c.Set(i, i)
	}
	if !c.Delete(3) || c.Delete(3) {
		t.Error("Delete(3) should succeed once")
	}
	if c.Len() != 4 {
		t.Errorf("Len() = %d, want 4", c.Len())
	}
	c.Clear()
	if c.Len() != 0 || c.order.Len() != 0 {
		t.Errorf("after Clear Len() = %d, list %d", c.Len(), c.order.Len())
	}
	c.Set(7, 7)
	if v, ok := c.Get(7); !ok || v != 7 {
		t.Error("cache unusable after Clear")
	}
}

func TestCacheConcurrent(t *testing.T) {
	c := New[int, int](16)
	var wg sync.WaitGroup
	for g := range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range 200 {
				c.GetOrCreate((g*i)%32, func() int { return i })
			}
		}()
	}
	wg.Wait()
	if c.Len() > 16 {
		t.Errorf("Len() = %d, want <= 16", c.Len())
	}
}
