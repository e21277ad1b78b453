package cache

import (
	"fmt"
	"sync"
	"testing"
)

func TestGetSet(t *testing.T) {
	c := New[string, int](8, StringHasher, nil)
	if _, ok := c.Get("missing"); ok {
		t.Fatal("Get on empty cache reported a hit")
	}
	c.Set("a", 1)
	if v, ok := c.Get("a"); !ok || v != 1 {
		t.Fatalf("Get(a) = %v, %v", v, ok)
	}

	stats := c.Stats()
	if stats.Hits != 1 || stats.Misses != 1 {
		t.Errorf("stats = %+v, want 1 hit and 1 miss", stats)
	}
}

func TestSetOverwrites(t *testing.T) {
	var evicted []int
	c := New[string, int](8, StringHasher, func(_ string, v int) {
		evicted = append(evicted, v)
	})
	c.Set("a", 1)
	c.Set("a", 2)
	if v, _ := c.Get("a"); v != 2 {
		t.Fatalf("Get(a) = %v, want 2", v)
	}
	if len(evicted) != 1 || evicted[0] != 1 {
		t.Errorf("evicted = %v, want the replaced value", evicted)
	}
}

func TestCapacityEvictsOldest(t *testing.T) {
	c := New[uint64, int](2, Uint64Hasher, nil)
	// Keys in one shard: identical low bits.
	c.Set(0, 0)
	c.Set(16, 1)
	c.Set(32, 2)

	if _, ok := c.Get(0); ok {
		t.Error("oldest entry survived over-capacity Set")
	}
	if _, ok := c.Get(32); !ok {
		t.Error("newest entry evicted")
	}
	if stats := c.Stats(); stats.Evictions == 0 {
		t.Errorf("no evictions recorded: %+v", stats)
	}
}

func TestGetRefreshesLRU(t *testing.T) {
	c := New[uint64, int](2, Uint64Hasher, nil)
	c.Set(0, 0)
	c.Set(16, 1)
	c.Get(0) // now 16 is the oldest
	c.Set(32, 2)

	if _, ok := c.Get(0); !ok {
		t.Error("recently used entry evicted")
	}
	if _, ok := c.Get(16); ok {
		t.Error("least recently used entry survived")
	}
}

func TestDeleteFunc(t *testing.T) {
	c := New[string, int](8, StringHasher, nil)
	for i := 0; i < 10; i++ {
		c.Set(fmt.Sprintf("k%d", i), i)
	}
	removed := c.DeleteFunc(func(k string) bool { return k == "k3" || k == "k7" })
	if removed != 2 {
		t.Fatalf("DeleteFunc removed %d, want 2", removed)
	}
	if _, ok := c.Get("k3"); ok {
		t.Error("k3 survived DeleteFunc")
	}
	if c.Len() != 8 {
		t.Errorf("Len = %d, want 8", c.Len())
	}
}

func TestClearRunsEvictionCallback(t *testing.T) {
	var mu sync.Mutex
	count := 0
	c := New[string, int](8, StringHasher, func(string, int) {
		mu.Lock()
		count++
		mu.Unlock()
	})
	c.Set("a", 1)
	c.Set("b", 2)
	c.Clear()
	if c.Len() != 0 {
		t.Fatalf("Len = %d after Clear", c.Len())
	}
	if count != 2 {
		t.Errorf("eviction callback ran %d times, want 2", count)
	}
}

func TestConcurrentAccess(t *testing.T) {
	c := New[uint64, int](64, Uint64Hasher, nil)
	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 500; i++ {
				k := uint64(g*1000 + i)
				c.Set(k, i)
				c.Get(k)
				if i%10 == 0 {
					c.Delete(k)
				}
			}
		}(g)
	}
	wg.Wait()
}
