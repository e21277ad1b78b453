// Package cache provides a sharded LRU cache used for compiled shader
// programs, uploaded source textures, and memoized parameter samples.
//
// Values that own GPU resources register an eviction callback so that
// handles are destroyed when entries age out; the callback runs outside
// the shard lock.
package cache

import (
	"hash/fnv"
	"sync"
	"sync/atomic"
)

// Default configuration constants.
const (
	// ShardCount is the number of shards for reduced lock contention.
	// Must be a power of 2 for fast modulo via bitwise AND.
	ShardCount = 16

	// DefaultCapacity is the default maximum entries per shard.
	DefaultCapacity = 256

	// shardMask is used for fast shard selection (ShardCount - 1).
	shardMask = ShardCount - 1
)

// Hasher computes a hash for a key, used for shard selection.
type Hasher[K any] func(K) uint64

// StringHasher computes the FNV-1a hash of a string key.
func StringHasher(s string) uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(s)) // fnv.Write never returns an error
	return h.Sum64()
}

// Uint64Hasher returns the key itself as the hash (identity hash).
func Uint64Hasher(u uint64) uint64 { return u }

// Stats contains cache statistics for monitoring.
type Stats struct {
	// Len is the number of cached entries.
	Len int
	// Capacity is the per-shard capacity.
	Capacity int
	// Hits is the number of cache hits.
	Hits uint64
	// Misses is the number of cache misses.
	Misses uint64
	// Evictions is the number of evicted entries.
	Evictions uint64
}

// Sharded is a thread-safe, sharded LRU cache.
//
// Each shard has its own lock and recency ring; statistics are atomic
// so reads allocate nothing.
type Sharded[K comparable, V any] struct {
	shards   [ShardCount]*shard[K, V]
	hasher   Hasher[K]
	capacity int

	// onEvict, when set, is called for every entry removed by capacity
	// eviction, Delete, DeleteFunc, or Clear.
	onEvict func(K, V)

	hits      atomic.Uint64
	misses    atomic.Uint64
	evictions atomic.Uint64
}

// shard holds one slice of the key space. Recency is an intrusive
// doubly-linked ring through the entries themselves: root.next is the
// most recently used entry, root.prev the least, and an empty ring
// points root at itself.
type shard[K comparable, V any] struct {
	mu      sync.RWMutex
	entries map[K]*entry[K, V]
	root    entry[K, V]
}

type entry[K comparable, V any] struct {
	key   K
	value V
	prev  *entry[K, V]
	next  *entry[K, V]
}

// New creates a sharded cache with the given per-shard capacity.
// If capacity <= 0, DefaultCapacity is used. onEvict may be nil.
func New[K comparable, V any](capacity int, hasher Hasher[K], onEvict func(K, V)) *Sharded[K, V] {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	c := &Sharded[K, V]{
		hasher:   hasher,
		capacity: capacity,
		onEvict:  onEvict,
	}
	for i := range c.shards {
		s := &shard[K, V]{entries: make(map[K]*entry[K, V])}
		s.resetRing()
		c.shards[i] = s
	}
	return c
}

func (s *shard[K, V]) resetRing() {
	s.root.prev = &s.root
	s.root.next = &s.root
}

// attachFront links e in as the most recently used entry.
func (s *shard[K, V]) attachFront(e *entry[K, V]) {
	e.prev = &s.root
	e.next = s.root.next
	e.prev.next = e
	e.next.prev = e
}

// detach unlinks e from the ring.
func (s *shard[K, V]) detach(e *entry[K, V]) {
	e.prev.next = e.next
	e.next.prev = e.prev
	e.prev = nil
	e.next = nil
}

// touch marks e most recently used.
func (s *shard[K, V]) touch(e *entry[K, V]) {
	if s.root.next == e {
		return
	}
	s.detach(e)
	s.attachFront(e)
}

// oldest returns the least recently used entry, or nil when the shard
// is empty.
func (s *shard[K, V]) oldest() *entry[K, V] {
	if s.root.prev == &s.root {
		return nil
	}
	return s.root.prev
}

func (c *Sharded[K, V]) getShard(key K) *shard[K, V] {
	return c.shards[c.hasher(key)&shardMask]
}

// Get retrieves a cached value by key, refreshing its LRU position.
func (c *Sharded[K, V]) Get(key K) (V, bool) {
	s := c.getShard(key)

	// Fast path: read lock to check existence.
	s.mu.RLock()
	_, exists := s.entries[key]
	s.mu.RUnlock()

	if !exists {
		c.misses.Add(1)
		var zero V
		return zero, false
	}

	// Slow path: write lock for the recency update. Re-check after
	// acquiring it; the entry may have been evicted in between.
	s.mu.Lock()
	e, ok := s.entries[key]
	if !ok {
		s.mu.Unlock()
		c.misses.Add(1)
		var zero V
		return zero, false
	}
	s.touch(e)
	v := e.value
	s.mu.Unlock()

	c.hits.Add(1)
	return v, true
}

// Set stores a value, evicting the oldest entries when the shard is
// over capacity. The value is stored as-is, not copied.
func (c *Sharded[K, V]) Set(key K, value V) {
	s := c.getShard(key)

	var evicted []evictedPair[K, V]

	s.mu.Lock()
	if existing, ok := s.entries[key]; ok {
		old := existing.value
		existing.value = value
		s.touch(existing)
		s.mu.Unlock()
		if c.onEvict != nil {
			c.onEvict(key, old)
		}
		return
	}

	for len(s.entries) >= c.capacity {
		old := s.oldest()
		if old == nil {
			break
		}
		s.detach(old)
		delete(s.entries, old.key)
		evicted = append(evicted, evictedPair[K, V]{old.key, old.value})
		c.evictions.Add(1)
	}

	e := &entry[K, V]{key: key, value: value}
	s.attachFront(e)
	s.entries[key] = e
	s.mu.Unlock()

	c.notify(evicted)
}

// Delete removes an entry. Reports whether it was present.
func (c *Sharded[K, V]) Delete(key K) bool {
	s := c.getShard(key)

	s.mu.Lock()
	e, ok := s.entries[key]
	if !ok {
		s.mu.Unlock()
		return false
	}
	s.detach(e)
	delete(s.entries, key)
	v := e.value
	s.mu.Unlock()

	if c.onEvict != nil {
		c.onEvict(key, v)
	}
	return true
}

// DeleteFunc removes every entry whose key matches the predicate and
// returns the number removed. Used for targeted invalidation, e.g.
// dropping all memoized samples of one edited track.
func (c *Sharded[K, V]) DeleteFunc(match func(K) bool) int {
	var evicted []evictedPair[K, V]
	for _, s := range c.shards {
		s.mu.Lock()
		for key, e := range s.entries {
			if match(key) {
				s.detach(e)
				delete(s.entries, key)
				evicted = append(evicted, evictedPair[K, V]{key, e.value})
			}
		}
		s.mu.Unlock()
	}
	c.notify(evicted)
	return len(evicted)
}

// Clear removes all entries.
func (c *Sharded[K, V]) Clear() {
	var evicted []evictedPair[K, V]
	for _, s := range c.shards {
		s.mu.Lock()
		for key, e := range s.entries {
			evicted = append(evicted, evictedPair[K, V]{key, e.value})
		}
		s.entries = make(map[K]*entry[K, V])
		s.resetRing()
		s.mu.Unlock()
	}
	c.notify(evicted)
}

// Len returns the total number of entries across all shards.
func (c *Sharded[K, V]) Len() int {
	total := 0
	for _, s := range c.shards {
		s.mu.RLock()
		total += len(s.entries)
		s.mu.RUnlock()
	}
	return total
}

// Stats returns current cache statistics.
func (c *Sharded[K, V]) Stats() Stats {
	return Stats{
		Len:       c.Len(),
		Capacity:  c.capacity,
		Hits:      c.hits.Load(),
		Misses:    c.misses.Load(),
		Evictions: c.evictions.Load(),
	}
}

type evictedPair[K comparable, V any] struct {
	key   K
	value V
}

// notify runs the eviction callback outside any shard lock.
func (c *Sharded[K, V]) notify(pairs []evictedPair[K, V]) {
	if c.onEvict == nil {
		return
	}
	for _, p := range pairs {
		c.onEvict(p.key, p.value)
	}
}
