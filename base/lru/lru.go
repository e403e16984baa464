package lru

import (
	"container/list"
	"sync"
	"time"
)

// Cache is a bounded LRU cache with per-entry TTL expiration. Both Get and
// Set refresh an entry's recency; inserting beyond capacity evicts the least
// recently used entry. Expired entries are treated as absent and evicted
// lazily on read; Prune sweeps them eagerly.
type Cache struct {
	mu         sync.Mutex
	capacity   int
	defaultTTL time.Duration
	items      map[string]*list.Element
	order      *list.List
	nowFn      func() time.Time

	hits   int64
	misses int64
}

type entry struct {
	key       string
	value     interface{}
	expiresAt time.Time
}

// New creates a cache holding at most capacity entries, each expiring
// defaultTTL after its last Set.
func New(capacity int, defaultTTL time.Duration) *Cache {
	return &Cache{
		capacity:   capacity,
		defaultTTL: defaultTTL,
		items:      make(map[string]*list.Element, capacity),
		order:      list.New(),
		nowFn:      time.Now,
	}
}

// Get retrieves a value. Returns the value and true if present and not
// expired; otherwise the zero value and false.
func (c *Cache) Get(key string) (interface{}, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	elem, ok := c.items[key]
	if !ok {
		c.misses++
		return nil, false
	}

	e := elem.Value.(*entry)
	if c.nowFn().After(e.expiresAt) {
		c.removeElement(elem)
		c.misses++
		return nil, false
	}

	c.order.MoveToFront(elem)
	c.hits++
	return e.value, true
}

// Has reports whether key is present and not expired, refreshing its recency.
func (c *Cache) Has(key string) bool {
	_, ok := c.Get(key)
	return ok
}

// Set adds or updates a value. An optional ttlOverride replaces the default
// TTL for this entry only.
func (c *Cache) Set(key string, value interface{}, ttlOverride ...time.Duration) {
	ttl := c.defaultTTL
	if len(ttlOverride) > 0 {
		ttl = ttlOverride[0]
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.items[key]; ok {
		c.order.MoveToFront(elem)
		e := elem.Value.(*entry)
		e.value = value
		e.expiresAt = c.nowFn().Add(ttl)
		return
	}

	if c.order.Len() >= c.capacity {
		c.evictOldest()
	}

	e := &entry{
		key:       key,
		value:     value,
		expiresAt: c.nowFn().Add(ttl),
	}
	c.items[key] = c.order.PushFront(e)
}

// Delete removes key. Returns true if it was present.
func (c *Cache) Delete(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	elem, ok := c.items[key]
	if !ok {
		return false
	}
	c.removeElement(elem)
	return true
}

// Prune eagerly removes all expired entries and returns how many were removed.
func (c *Cache) Prune() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.nowFn()
	removed := 0
	for elem := c.order.Back(); elem != nil; {
		prev := elem.Prev()
		if now.After(elem.Value.(*entry).expiresAt) {
			c.removeElement(elem)
			removed++
		}
		elem = prev
	}
	return removed
}

// Len returns the number of entries, including expired but not yet evicted.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}

// Stats returns cache hit and miss counts.
func (c *Cache) Stats() (hits, misses int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hits, c.misses
}

func (c *Cache) evictOldest() {
	if elem := c.order.Back(); elem != nil {
		c.removeElement(elem)
	}
}

func (c *Cache) removeElement(elem *list.Element) {
	c.order.Remove(elem)
	delete(c.items, elem.Value.(*entry).key)
}
