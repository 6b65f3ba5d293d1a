// internal/cache/lru.go
//
// Small LRU with per-entry expiry, used by lookup.Cached to bound both
// memory and staleness of platform records.  No external deps; good for a
// few thousand entries.
package cache

import (
	"container/list"
	"sync"
	"time"
)

// LRU is a least-recently-used cache whose entries also expire after ttl.
// Safe for concurrent use.
type LRU[K comparable, V any] struct {
	mu   sync.Mutex
	cap  int
	ttl  time.Duration
	ll   *list.List
	dict map[K]*list.Element
	now  func() time.Time
}

type pair[K comparable, V any] struct {
	key K
	val V
	exp time.Time
}

// New returns an LRU with the given capacity and ttl.  Panics on cap < 1.
func New[K comparable, V any](capacity int, ttl time.Duration) *LRU[K, V] {
	if capacity < 1 {
		panic("cache: capacity must be ≥1")
	}
	return &LRU[K, V]{
		cap:  capacity,
		ttl:  ttl,
		ll:   list.New(),
		dict: make(map[K]*list.Element, capacity),
		now:  time.Now,
	}
}

// Get retrieves a live value and marks it MRU.  Expired entries are dropped.
func (c *LRU[K, V]) Get(key K) (val V, ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	ele, hit := c.dict[key]
	if !hit {
		return val, false
	}
	p := ele.Value.(pair[K, V])
	if !c.now().Before(p.exp) {
		c.ll.Remove(ele)
		delete(c.dict, key)
		return val, false
	}
	c.ll.MoveToFront(ele)
	return p.val, true
}

// Add inserts or updates a value and resets its expiry.
func (c *LRU[K, V]) Add(key K, val V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	p := pair[K, V]{key: key, val: val, exp: c.now().Add(c.ttl)}
	if ele, hit := c.dict[key]; hit {
		ele.Value = p
		c.ll.MoveToFront(ele)
		return
	}
	ele := c.ll.PushFront(p)
	c.dict[key] = ele
	if c.ll.Len() > c.cap {
		last := c.ll.Back()
		c.ll.Remove(last)
		delete(c.dict, last.Value.(pair[K, V]).key)
	}
}

// Purge drops every entry.
func (c *LRU[K, V]) Purge() {
	c.mu.Lock()
	c.ll.Init()
	c.dict = make(map[K]*list.Element, c.cap)
	c.mu.Unlock()
}

// Len reports current size, expired entries included until touched.
func (c *LRU[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ll.Len()
}
